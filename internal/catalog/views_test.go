package catalog

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

type fakeFeed struct {
	mu   sync.Mutex
	subs []*chanSub
}

func (f *fakeFeed) Subscribe() Subscription {
	f.mu.Lock()
	defer f.mu.Unlock()
	s := newChanSub()
	f.subs = append(f.subs, s)
	return s
}

func (f *fakeFeed) open() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, s := range f.subs {
		select {
		case <-s.closed:
		default:
			n++
		}
	}
	return n
}

func TestViews_SharesStorePerFilter(t *testing.T) {
	backend := seeded()
	feed := &fakeFeed{}
	views := NewViews(feed, backend, backend, nil)
	ctx := context.Background()

	a, err := views.Acquire(ctx, "Women")
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}
	b, err := views.Acquire(ctx, "women")
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}
	if a != b {
		t.Fatalf("expected the same store for case-variant filters")
	}
	if backend.listCalls() != 1 {
		t.Fatalf("expected one load, got %d", backend.listCalls())
	}
	if feed.open() != 1 {
		t.Fatalf("expected one subscription, got %d", feed.open())
	}

	views.Release("Women")
	if feed.open() != 1 {
		t.Fatalf("subscription closed while still referenced")
	}
	views.Release("women")
	if feed.open() != 0 {
		t.Fatalf("expected subscription released, got %d open", feed.open())
	}
	if views.Open() != 0 {
		t.Fatalf("expected no open views, got %d", views.Open())
	}
}

func TestViews_FilterChangeSwapsSubscription(t *testing.T) {
	backend := seeded()
	feed := &fakeFeed{}
	views := NewViews(feed, backend, backend, nil)
	ctx := context.Background()

	women, err := views.Acquire(ctx, "women")
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}
	views.Release("women")
	men, err := views.Acquire(ctx, "men")
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}
	defer views.Release("men")

	if feed.open() != 1 {
		t.Fatalf("expected exactly one live subscription, got %d", feed.open())
	}
	women.OnInsertEvent(row("w7", "Women"))
	if len(women.Snapshot().Products) != 2 {
		t.Fatalf("released store must ignore events")
	}
	sameIDs(t, men.Snapshot().Products, "m1")
}

func TestViews_EventsReachStore(t *testing.T) {
	backend := seeded()
	feed := &fakeFeed{}
	views := NewViews(feed, backend, backend, nil)

	s, err := views.Acquire(context.Background(), AllCategories)
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}
	defer views.Close()

	feed.subs[0].ch <- Event{Kind: EventInsert, Row: row("n1", "Men")}
	deadline := time.Now().Add(time.Second)
	for {
		if _, ok := s.Get("n1"); ok {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("event never applied")
		}
		time.Sleep(time.Millisecond)
	}
}

func TestViews_LoadErrorReleases(t *testing.T) {
	backend := seeded()
	backend.listErr = errors.New("db down")
	feed := &fakeFeed{}
	views := NewViews(feed, backend, backend, nil)

	if _, err := views.Acquire(context.Background(), "women"); err == nil {
		t.Fatalf("expected load error")
	}
	if views.Open() != 0 || feed.open() != 0 {
		t.Fatalf("expected failed view torn down, views=%d subs=%d", views.Open(), feed.open())
	}
}
