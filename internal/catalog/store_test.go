package catalog

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/zeewalex59-ux/shopelitesource/internal/domain"
)

// memoryBackend is an in-memory products table for store tests.
type memoryBackend struct {
	mu       sync.Mutex
	rows     []domain.ProductRow
	listErr  error
	lists    int
	gate     chan struct{}
	mutErr   error
	noRow    bool
	inserted int
}

func (b *memoryBackend) List(_ context.Context, category string) ([]domain.ProductRow, error) {
	if b.gate != nil {
		<-b.gate
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.lists++
	if b.listErr != nil {
		return nil, b.listErr
	}
	var out []domain.ProductRow
	for i := len(b.rows) - 1; i >= 0; i-- {
		r := b.rows[i]
		if category == "" || strings.EqualFold(r.CategoryValue(), category) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (b *memoryBackend) Insert(_ context.Context, f domain.ProductFields) (*domain.ProductRow, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.mutErr != nil {
		return nil, b.mutErr
	}
	b.inserted++
	r := domain.ProductRow{ID: "new-" + f.Name, Name: strPtr(f.Name), Category: strPtr(f.Category)}
	b.rows = append(b.rows, r)
	if b.noRow {
		return nil, nil
	}
	return &r, nil
}

func (b *memoryBackend) Update(_ context.Context, id string, patch domain.ProductPatch) (*domain.ProductRow, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.mutErr != nil {
		return nil, b.mutErr
	}
	for i := range b.rows {
		if b.rows[i].ID == id {
			if patch.Name != nil {
				b.rows[i].Name = patch.Name
			}
			if patch.Category != nil {
				b.rows[i].Category = patch.Category
			}
			r := b.rows[i]
			return &r, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (b *memoryBackend) Delete(_ context.Context, id string) (*domain.ProductRow, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.mutErr != nil {
		return nil, b.mutErr
	}
	for i := range b.rows {
		if b.rows[i].ID == id {
			r := b.rows[i]
			b.rows = append(b.rows[:i], b.rows[i+1:]...)
			return &r, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (b *memoryBackend) listCalls() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.lists
}

func seeded() *memoryBackend {
	return &memoryBackend{rows: []domain.ProductRow{
		row("w1", "Women"),
		row("m1", "Men"),
		row("w2", "women"),
		row("k1", "Kids"),
	}}
}

func TestStore_EndToEndWomen(t *testing.T) {
	backend := seeded()
	s := NewStore("women", backend, backend, nil)
	if err := s.Load(context.Background()); err != nil {
		t.Fatalf("load: %v", err)
	}
	snap := s.Snapshot()
	sameIDs(t, snap.Products, "w2", "w1")
	if snap.Loading {
		t.Fatalf("loading flag still set")
	}
	before := len(snap.Products)

	s.OnInsertEvent(row("w3", "Women"))
	sameIDs(t, s.Snapshot().Products, "w3", "w2", "w1")

	s.OnDeleteEvent("w3")
	if got := len(s.Snapshot().Products); got != before {
		t.Fatalf("expected %d products after delete, got %d", before, got)
	}
}

func TestStore_LoadFailureKeepsLastGoodState(t *testing.T) {
	backend := seeded()
	s := NewStore(AllCategories, backend, backend, nil)
	if err := s.Load(context.Background()); err != nil {
		t.Fatalf("load: %v", err)
	}
	backend.listErr = errors.New("db down")
	if err := s.Load(context.Background()); err == nil {
		t.Fatalf("expected load error")
	}
	snap := s.Snapshot()
	if len(snap.Products) != 4 {
		t.Fatalf("expected last good state, got %v", ids(snap.Products))
	}
	if snap.Loading {
		t.Fatalf("loading flag must be cleared after failure")
	}
	if snap.LastError == nil {
		t.Fatalf("expected last error recorded")
	}
}

func TestStore_LoadAfterCloseIsDiscarded(t *testing.T) {
	backend := seeded()
	backend.gate = make(chan struct{})
	s := NewStore(AllCategories, backend, backend, nil)

	done := make(chan error, 1)
	go func() { done <- s.Load(context.Background()) }()

	// Wait for the load to be in flight.
	deadline := time.Now().Add(time.Second)
	for !s.Snapshot().Loading {
		if time.Now().After(deadline) {
			t.Fatalf("load never started")
		}
		time.Sleep(time.Millisecond)
	}
	s.Close()
	close(backend.gate)

	if err := <-done; !errors.Is(err, ErrClosed) {
		t.Fatalf("expected ErrClosed, got %v", err)
	}
	if n := len(s.Snapshot().Products); n != 0 {
		t.Fatalf("expected no products applied after close, got %d", n)
	}
	s.OnInsertEvent(row("late", "Women"))
	if n := len(s.Snapshot().Products); n != 0 {
		t.Fatalf("expected events ignored after close, got %d", n)
	}
}

func TestStore_EventsDuringLoadSurvive(t *testing.T) {
	backend := seeded()
	backend.gate = make(chan struct{})
	s := NewStore("women", backend, backend, nil)

	done := make(chan error, 1)
	go func() { done <- s.Load(context.Background()) }()
	deadline := time.Now().Add(time.Second)
	for !s.Snapshot().Loading {
		if time.Now().After(deadline) {
			t.Fatalf("load never started")
		}
		time.Sleep(time.Millisecond)
	}
	// Arrives while the query is in flight and is not part of its result.
	s.OnInsertEvent(row("w9", "Women"))
	close(backend.gate)
	if err := <-done; err != nil {
		t.Fatalf("load: %v", err)
	}
	sameIDs(t, s.Snapshot().Products, "w9", "w2", "w1")
}

func TestStore_AddProductReconcilesWithoutReload(t *testing.T) {
	backend := seeded()
	s := NewStore(AllCategories, backend, backend, nil)
	if err := s.Load(context.Background()); err != nil {
		t.Fatalf("load: %v", err)
	}
	p, err := s.AddProduct(context.Background(), domain.ProductFields{Name: "coat", Category: "Women"})
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if p.ID != "new-coat" {
		t.Fatalf("unexpected product %+v", p)
	}
	if backend.listCalls() != 1 {
		t.Fatalf("expected no reload, got %d list calls", backend.listCalls())
	}
	if s.Snapshot().Products[0].ID != "new-coat" {
		t.Fatalf("expected new product first, got %v", ids(s.Snapshot().Products))
	}

	// The realtime echo of the same insert is a duplicate.
	s.OnInsertEvent(row("new-coat", "Women"))
	if n := len(s.Snapshot().Products); n != 5 {
		t.Fatalf("expected 5 products, got %d", n)
	}
}

func TestStore_UpdateMovesOutOfFilter(t *testing.T) {
	backend := seeded()
	s := NewStore("women", backend, backend, nil)
	if err := s.Load(context.Background()); err != nil {
		t.Fatalf("load: %v", err)
	}
	if _, err := s.UpdateProduct(context.Background(), "w1", domain.ProductPatch{Category: strPtr("Men")}); err != nil {
		t.Fatalf("update: %v", err)
	}
	sameIDs(t, s.Snapshot().Products, "w2")
}

func TestStore_MutationFailureFallsBackToLoad(t *testing.T) {
	backend := seeded()
	s := NewStore(AllCategories, backend, backend, nil)
	if err := s.Load(context.Background()); err != nil {
		t.Fatalf("load: %v", err)
	}

	if err := s.DeleteProduct(context.Background(), "missing"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if backend.listCalls() != 2 {
		t.Fatalf("expected fallback reload, got %d list calls", backend.listCalls())
	}

	backend.noRow = true
	if _, err := s.AddProduct(context.Background(), domain.ProductFields{Name: "bag", Category: "Accessories"}); !errors.Is(err, ErrNoRow) {
		t.Fatalf("expected ErrNoRow, got %v", err)
	}
	if backend.listCalls() != 3 {
		t.Fatalf("expected fallback reload, got %d list calls", backend.listCalls())
	}
	// the reload picked up the row the insert did not return
	if _, ok := s.Get("new-bag"); !ok {
		t.Fatalf("expected reload to include inserted row")
	}
}

func TestStore_DeleteProduct(t *testing.T) {
	backend := seeded()
	s := NewStore(AllCategories, backend, backend, nil)
	if err := s.Load(context.Background()); err != nil {
		t.Fatalf("load: %v", err)
	}
	if err := s.DeleteProduct(context.Background(), "m1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, ok := s.Get("m1"); ok {
		t.Fatalf("expected m1 removed")
	}
}

type chanSub struct {
	ch     chan Event
	closed chan struct{}
	once   sync.Once
}

func newChanSub() *chanSub {
	return &chanSub{ch: make(chan Event, 8), closed: make(chan struct{})}
}

func (c *chanSub) Events() <-chan Event { return c.ch }

func (c *chanSub) Close() {
	c.once.Do(func() {
		close(c.closed)
		close(c.ch)
	})
}

func TestStore_AttachConsumesEventsAndResync(t *testing.T) {
	backend := seeded()
	s := NewStore(AllCategories, backend, backend, nil)
	if err := s.Load(context.Background()); err != nil {
		t.Fatalf("load: %v", err)
	}
	sub := newChanSub()
	s.Attach(sub)

	sub.ch <- Event{Kind: EventDelete, OldID: "k1"}
	sub.ch <- Event{Kind: EventResync}
	deadline := time.Now().Add(time.Second)
	for backend.listCalls() < 2 {
		if time.Now().After(deadline) {
			t.Fatalf("resync did not reload")
		}
		time.Sleep(time.Millisecond)
	}

	s.Close()
	select {
	case <-sub.closed:
	default:
		t.Fatalf("expected subscription closed synchronously")
	}
}

func TestStore_WatchSignalsChangesAndClose(t *testing.T) {
	backend := seeded()
	s := NewStore("women", backend, backend, nil)
	changed, cancel := s.Watch()
	defer cancel()

	if err := s.Load(context.Background()); err != nil {
		t.Fatalf("load: %v", err)
	}
	select {
	case <-changed:
	default:
		t.Fatalf("expected signal after load")
	}

	// Two events before the watcher reads coalesce into one signal.
	s.OnInsertEvent(row("w3", "Women"))
	s.OnInsertEvent(row("w4", "Women"))
	<-changed
	select {
	case <-changed:
		t.Fatalf("expected coalesced signal")
	default:
	}
	sameIDs(t, s.Snapshot().Products, "w4", "w3", "w2", "w1")

	s.Close()
	if _, ok := <-changed; ok {
		t.Fatalf("expected watch channel closed with the store")
	}
}
