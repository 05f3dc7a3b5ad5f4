package catalog

import (
	"context"
	"sync"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/zeewalex59-ux/shopelitesource/internal/domain"
)

// ErrNoRow is returned when a mutation succeeded without returning a row.
var ErrNoRow = errors.New("catalog: mutation returned no row")

// ErrClosed is returned by operations on a released store.
var ErrClosed = errors.New("catalog: store closed")

// Source runs the product list query. An empty category means no filter.
type Source interface {
	List(ctx context.Context, category string) ([]domain.ProductRow, error)
}

// Mutator writes to the products table and returns the affected row.
type Mutator interface {
	Insert(ctx context.Context, fields domain.ProductFields) (*domain.ProductRow, error)
	Update(ctx context.Context, id string, patch domain.ProductPatch) (*domain.ProductRow, error)
	Delete(ctx context.Context, id string) (*domain.ProductRow, error)
}

// Subscription is a live stream of change events for one consumer.
type Subscription interface {
	Events() <-chan Event
	Close()
}

// Feed hands out subscriptions to the product change stream.
type Feed interface {
	Subscribe() Subscription
}

// Snapshot is a point-in-time copy of a store.
type Snapshot struct {
	Filter    string
	Products  []domain.Product
	Loading   bool
	LastError error
}

// Store keeps a category-filtered product list in sync with the products
// table: one full load, then incremental events.
type Store struct {
	source  Source
	mutator Mutator
	logger  *zap.Logger
	filter  string

	mu      sync.Mutex
	state   State
	loading bool
	lastErr error
	gen     uint64
	pending []Event
	closed  bool
	sub     Subscription
	ready   chan struct{}
	readyOK sync.Once
	watch   map[chan struct{}]struct{}
}

// NewStore creates an empty store for filter. Call Load to populate it.
func NewStore(filter string, source Source, mutator Mutator, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{
		source:  source,
		mutator: mutator,
		logger:  logger.With(zap.String("filter", filter)),
		filter:  filter,
		state:   State{Filter: filter},
		ready:   make(chan struct{}),
	}
}

// Filter returns the category filter the store was created with.
func (s *Store) Filter() string {
	return s.filter
}

// Ready is closed once the first load has finished, successfully or not.
func (s *Store) Ready() <-chan struct{} {
	return s.ready
}

// Load replaces the local list with a fresh query result. On failure the
// previous list is kept. A result that arrives after Close, or after a newer
// Load started, is dropped.
func (s *Store) Load(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	s.gen++
	gen := s.gen
	s.loading = true
	s.pending = nil
	filter := s.filter
	s.mu.Unlock()

	category := filter
	if IsAllCategories(filter) {
		category = ""
	}
	rows, err := s.source.List(ctx, category)

	s.mu.Lock()
	defer s.mu.Unlock()
	defer s.readyOK.Do(func() { close(s.ready) })
	if s.closed {
		s.loading = false
		s.logger.Debug("catalog: load discarded, store closed")
		return ErrClosed
	}
	if gen != s.gen {
		s.logger.Debug("catalog: load superseded", zap.Uint64("gen", gen))
		return nil
	}
	s.loading = false
	if err != nil {
		s.lastErr = err
		s.pending = nil
		s.logger.Warn("catalog: load failed", zap.Error(err))
		return err
	}
	next := State{Filter: filter, Products: RowsToProducts(filterRows(rows, filter))}
	// Events seen while the query was in flight may be newer than its result.
	for _, ev := range s.pending {
		next = Apply(next, ev)
	}
	s.pending = nil
	s.state = next
	s.lastErr = nil
	s.notifyLocked()
	s.logger.Debug("catalog: loaded", zap.Int("count", len(next.Products)))
	return nil
}

// filterRows guards against a source that ignores the category argument.
func filterRows(rows []domain.ProductRow, filter string) []domain.ProductRow {
	if IsAllCategories(filter) {
		return rows
	}
	out := rows[:0:0]
	for _, r := range rows {
		if MatchesCategory(filter, r.CategoryValue()) {
			out = append(out, r)
		}
	}
	return out
}

// OnInsertEvent applies a row insert.
func (s *Store) OnInsertEvent(row domain.ProductRow) {
	s.apply(Event{Kind: EventInsert, Row: row})
}

// OnUpdateEvent applies a row update.
func (s *Store) OnUpdateEvent(row domain.ProductRow) {
	s.apply(Event{Kind: EventUpdate, Row: row})
}

// OnDeleteEvent removes the product with id, if present.
func (s *Store) OnDeleteEvent(id string) {
	s.apply(Event{Kind: EventDelete, OldID: id})
}

// HandleEvent dispatches a change event, reloading on resync.
func (s *Store) HandleEvent(ctx context.Context, ev Event) {
	if ev.Kind == EventResync {
		if err := s.Load(ctx); err != nil && !errors.Is(err, ErrClosed) {
			s.logger.Warn("catalog: resync load failed", zap.Error(err))
		}
		return
	}
	s.apply(ev)
}

func (s *Store) apply(ev Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	if s.loading {
		s.pending = append(s.pending, ev)
	}
	s.state = Apply(s.state, ev)
	s.notifyLocked()
}

// Watch returns a channel that receives a signal after the list changes.
// Signals coalesce; read Snapshot for the current list. The channel is
// closed when the store closes. Call cancel to stop watching.
func (s *Store) Watch() (<-chan struct{}, func()) {
	ch := make(chan struct{}, 1)
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		close(ch)
		return ch, func() {}
	}
	if s.watch == nil {
		s.watch = make(map[chan struct{}]struct{})
	}
	s.watch[ch] = struct{}{}
	return ch, func() {
		s.mu.Lock()
		delete(s.watch, ch)
		s.mu.Unlock()
	}
}

func (s *Store) notifyLocked() {
	for ch := range s.watch {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

// Attach starts consuming sub until it is closed. The store owns sub and
// closes it on Close.
func (s *Store) Attach(sub Subscription) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		sub.Close()
		return
	}
	s.sub = sub
	s.mu.Unlock()

	go func() {
		for ev := range sub.Events() {
			s.HandleEvent(context.Background(), ev)
		}
	}()
}

// Close releases the subscription. Events and loads completing afterwards
// are ignored.
func (s *Store) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.loading = false
	sub := s.sub
	s.sub = nil
	for ch := range s.watch {
		close(ch)
	}
	s.watch = nil
	s.mu.Unlock()
	s.readyOK.Do(func() { close(s.ready) })
	if sub != nil {
		sub.Close()
	}
}

// Snapshot returns a copy of the current list and status.
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{
		Filter:    s.state.Filter,
		Products:  clone(s.state.Products),
		Loading:   s.loading,
		LastError: s.lastErr,
	}
}

// Get returns the locally known product with id.
func (s *Store) Get(id string) (domain.Product, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx := indexOf(s.state.Products, id)
	if idx < 0 {
		return domain.Product{}, false
	}
	return s.state.Products[idx], true
}

// AddProduct inserts a product and reconciles the returned row locally.
// When the insert fails or returns nothing the store reloads.
func (s *Store) AddProduct(ctx context.Context, fields domain.ProductFields) (*domain.Product, error) {
	row, err := s.mutator.Insert(ctx, fields)
	if err = s.settle(ctx, EventInsert, row, err); err != nil {
		return nil, err
	}
	p := RowToProduct(*row)
	return &p, nil
}

// UpdateProduct applies a partial update and reconciles the returned row.
func (s *Store) UpdateProduct(ctx context.Context, id string, patch domain.ProductPatch) (*domain.Product, error) {
	row, err := s.mutator.Update(ctx, id, patch)
	if err = s.settle(ctx, EventUpdate, row, err); err != nil {
		return nil, err
	}
	p := RowToProduct(*row)
	return &p, nil
}

// DeleteProduct deletes by id and drops the product locally.
func (s *Store) DeleteProduct(ctx context.Context, id string) error {
	row, err := s.mutator.Delete(ctx, id)
	return s.settle(ctx, EventDelete, row, err)
}

func (s *Store) settle(ctx context.Context, kind EventKind, row *domain.ProductRow, err error) error {
	if err == nil && row == nil {
		err = ErrNoRow
	}
	if err != nil {
		s.logger.Warn("catalog: mutation failed, reloading", zap.String("kind", string(kind)), zap.Error(err))
		if lerr := s.Load(ctx); lerr != nil && !errors.Is(lerr, ErrClosed) {
			s.logger.Warn("catalog: fallback load failed", zap.Error(lerr))
		}
		return err
	}
	s.apply(Event{Kind: kind, Row: *row, OldID: row.ID})
	return nil
}
