package realtime

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/zeewalex59-ux/shopelitesource/internal/catalog"
	"github.com/zeewalex59-ux/shopelitesource/internal/domain"
)

func TestParsePayload(t *testing.T) {
	ev, err := ParsePayload(`{"type":"INSERT","id":"a1","record":{"id":"a1","name":"Coat","price":120.5,"category":"Women","specifications":["wool"],"in_stock":null,"created_at":"2024-05-01T10:00:00.123456+00:00"}}`)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if ev.Kind != catalog.EventInsert || ev.Row.ID != "a1" || ev.Row.CategoryValue() != "Women" {
		t.Fatalf("unexpected event %+v", ev)
	}
	if ev.Row.Price == nil || ev.Row.Price.String() != "120.5" {
		t.Fatalf("unexpected price %v", ev.Row.Price)
	}
	if ev.Row.InStock != nil {
		t.Fatalf("expected null in_stock")
	}
	p := catalog.RowToProduct(ev.Row)
	if len(p.Specifications) != 1 || !p.InStock {
		t.Fatalf("unexpected mapped product %+v", p)
	}

	ev, err = ParsePayload(`{"type":"DELETE","id":"a1"}`)
	if err != nil || ev.Kind != catalog.EventDelete || ev.ID() != "a1" {
		t.Fatalf("unexpected delete event %+v err=%v", ev, err)
	}

	ev, err = ParsePayload(`{"type":"UPDATE","id":"big"}`)
	if err != nil || ev.Kind != catalog.EventUpdate || ev.Row.ID != "" || ev.OldID != "big" {
		t.Fatalf("expected update without row, got %+v err=%v", ev, err)
	}

	for _, bad := range []string{`not json`, `{"type":"INSERT"}`, `{"type":"TRUNCATE","id":"x"}`} {
		if _, err := ParsePayload(bad); err == nil {
			t.Fatalf("expected error for %s", bad)
		}
	}
}

type stubFetcher struct {
	row *domain.ProductRow
	err error
}

func (s stubFetcher) GetByID(_ context.Context, _ string) (*domain.ProductRow, error) {
	return s.row, s.err
}

func TestListenerDecode_FetchesOmittedRow(t *testing.T) {
	cat := "Men"
	l := NewListener(nil, "product_changes", stubFetcher{row: &domain.ProductRow{ID: "big", Category: &cat}}, NewHub(), nil)
	ev, ok, err := l.decode(context.Background(), `{"type":"UPDATE","id":"big"}`)
	if err != nil || !ok {
		t.Fatalf("decode: ok=%v err=%v", ok, err)
	}
	if ev.Row.ID != "big" || ev.Row.CategoryValue() != "Men" {
		t.Fatalf("expected fetched row, got %+v", ev.Row)
	}
}

func TestListenerDecode_RowGoneIsSkipped(t *testing.T) {
	l := NewListener(nil, "product_changes", stubFetcher{err: domain.ErrNotFound}, NewHub(), nil)
	_, ok, err := l.decode(context.Background(), `{"type":"INSERT","id":"gone"}`)
	if err != nil || ok {
		t.Fatalf("expected skip, got ok=%v err=%v", ok, err)
	}
}

func TestListenerDecode_FetchErrorRequestsResync(t *testing.T) {
	l := NewListener(nil, "product_changes", stubFetcher{err: errors.New("timeout")}, NewHub(), nil)
	ev, ok, err := l.decode(context.Background(), `{"type":"INSERT","id":"x"}`)
	if err != nil || !ok || ev.Kind != catalog.EventResync {
		t.Fatalf("expected resync, got %+v ok=%v err=%v", ev, ok, err)
	}
}

func TestNextBackoff(t *testing.T) {
	if got := nextBackoff(time.Second, 30*time.Second); got != 2*time.Second {
		t.Fatalf("expected doubling, got %s", got)
	}
	if got := nextBackoff(20*time.Second, 30*time.Second); got != 30*time.Second {
		t.Fatalf("expected cap, got %s", got)
	}
}

// scriptedConn replays notifications, then fails with err, or blocks until
// the context ends when err is nil.
type scriptedConn struct {
	payloads []string
	err      error
	listened []string
}

func (c *scriptedConn) Exec(_ context.Context, sql string, _ ...any) (pgconn.CommandTag, error) {
	c.listened = append(c.listened, sql)
	return pgconn.CommandTag{}, nil
}

func (c *scriptedConn) WaitForNotification(ctx context.Context) (*pgconn.Notification, error) {
	if len(c.payloads) > 0 {
		p := c.payloads[0]
		c.payloads = c.payloads[1:]
		return &pgconn.Notification{Channel: "product_changes", Payload: p}, nil
	}
	if c.err != nil {
		return nil, c.err
	}
	<-ctx.Done()
	return nil, ctx.Err()
}

func (c *scriptedConn) Close(context.Context) error { return nil }

type recordingPublisher struct {
	mu     sync.Mutex
	events []catalog.Event
}

func (p *recordingPublisher) Publish(ev catalog.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
}

func (p *recordingPublisher) snapshot() []catalog.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]catalog.Event(nil), p.events...)
}

func TestListenerRun_ResyncOnEveryListen(t *testing.T) {
	pub := &recordingPublisher{}
	l := NewListener(nil, "product_changes", stubFetcher{}, pub, nil)
	l.MinBackoff = time.Millisecond
	l.MaxBackoff = time.Millisecond

	first := &scriptedConn{payloads: []string{`{"type":"DELETE","id":"a1"}`}, err: errors.New("connection reset")}
	second := &scriptedConn{}
	var (
		mu    sync.Mutex
		dials int
	)
	l.connect = func(context.Context) (notifyConn, error) {
		mu.Lock()
		defer mu.Unlock()
		dials++
		switch dials {
		case 1:
			return nil, errors.New("db starting")
		case 2:
			return first, nil
		default:
			return second, nil
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- l.Run(ctx) }()

	deadline := time.Now().Add(2 * time.Second)
	for len(pub.snapshot()) < 3 {
		if time.Now().After(deadline) {
			t.Fatalf("expected three events, got %+v", pub.snapshot())
		}
		time.Sleep(time.Millisecond)
	}
	cancel()
	if err := <-done; err != nil {
		t.Fatalf("run: %v", err)
	}

	got := pub.snapshot()
	// The first successful LISTEN resyncs too: rows written before it are
	// never notified.
	if got[0].Kind != catalog.EventResync {
		t.Fatalf("expected resync on first listen, got %+v", got[0])
	}
	if got[1].Kind != catalog.EventDelete || got[1].OldID != "a1" {
		t.Fatalf("expected delete event, got %+v", got[1])
	}
	if got[2].Kind != catalog.EventResync {
		t.Fatalf("expected resync after reconnect, got %+v", got[2])
	}
	if len(first.listened) != 1 || first.listened[0] != `LISTEN "product_changes"` {
		t.Fatalf("unexpected listen statement %q", first.listened)
	}
}
