package catalog

import (
	"context"
	"strings"
	"sync"

	"go.uber.org/zap"
)

// Views hands out one live Store per category filter and keeps it
// subscribed to the change feed while it has users.
type Views struct {
	feed    Feed
	source  Source
	mutator Mutator
	logger  *zap.Logger

	mu    sync.Mutex
	views map[string]*view
}

type view struct {
	store *Store
	refs  int
}

func NewViews(feed Feed, source Source, mutator Mutator, logger *zap.Logger) *Views {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Views{
		feed:    feed,
		source:  source,
		mutator: mutator,
		logger:  logger,
		views:   make(map[string]*view),
	}
}

// viewKey folds filters that select the same products onto one key.
func viewKey(filter string) string {
	if IsAllCategories(filter) {
		return ""
	}
	return strings.ToLower(strings.TrimSpace(filter))
}

// Acquire returns the store for filter, creating, subscribing and loading
// it on first use. It waits for the first load to finish. Every successful
// Acquire must be paired with Release.
func (v *Views) Acquire(ctx context.Context, filter string) (*Store, error) {
	key := viewKey(filter)

	v.mu.Lock()
	vw, ok := v.views[key]
	if ok {
		vw.refs++
		v.mu.Unlock()
		select {
		case <-vw.store.Ready():
			if vw.store.Snapshot().LastError == nil {
				return vw.store, nil
			}
			// The previous load failed; retry before handing the view out.
			if err := vw.store.Load(ctx); err != nil {
				v.Release(filter)
				return nil, err
			}
			return vw.store, nil
		case <-ctx.Done():
			v.Release(filter)
			return nil, ctx.Err()
		}
	}
	name := key
	if name == "" {
		name = AllCategories
	}
	store := NewStore(name, v.source, v.mutator, v.logger)
	store.Attach(v.feed.Subscribe())
	vw = &view{store: store, refs: 1}
	v.views[key] = vw
	v.mu.Unlock()

	v.logger.Info("catalog: view opened", zap.String("filter", name))
	if err := store.Load(ctx); err != nil {
		v.Release(filter)
		return nil, err
	}
	return store, nil
}

// Release drops one reference; the last one closes the store and its
// subscription before returning.
func (v *Views) Release(filter string) {
	key := viewKey(filter)
	v.mu.Lock()
	vw, ok := v.views[key]
	if !ok {
		v.mu.Unlock()
		return
	}
	vw.refs--
	if vw.refs > 0 {
		v.mu.Unlock()
		return
	}
	delete(v.views, key)
	v.mu.Unlock()

	vw.store.Close()
	v.logger.Info("catalog: view closed", zap.String("filter", vw.store.Filter()))
}

// Open reports the number of live views.
func (v *Views) Open() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return len(v.views)
}

// Close releases every view regardless of references.
func (v *Views) Close() {
	v.mu.Lock()
	views := v.views
	v.views = make(map[string]*view)
	v.mu.Unlock()
	for _, vw := range views {
		vw.store.Close()
	}
}
