package realtime

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/zeewalex59-ux/shopelitesource/internal/catalog"
	"github.com/zeewalex59-ux/shopelitesource/internal/domain"
)

// RowFetcher loads a product row when a notification arrives without one.
type RowFetcher interface {
	GetByID(ctx context.Context, id string) (*domain.ProductRow, error)
}

// Publisher receives decoded change events.
type Publisher interface {
	Publish(ev catalog.Event)
}

// notifyConn is the part of a pgx connection the listener uses.
type notifyConn interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	WaitForNotification(ctx context.Context) (*pgconn.Notification, error)
	Close(ctx context.Context) error
}

// Listener holds a LISTEN connection on the product change channel and turns
// notifications into catalog events. Every time LISTEN is established,
// including the first, it publishes a resync: rows written before LISTEN
// took effect are never notified to this session.
type Listener struct {
	channel string
	connect func(ctx context.Context) (notifyConn, error)
	fetch   RowFetcher
	pub     Publisher
	logger  *zap.Logger

	MinBackoff time.Duration
	MaxBackoff time.Duration
}

func NewListener(pool *pgxpool.Pool, channel string, fetch RowFetcher, pub Publisher, logger *zap.Logger) *Listener {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Listener{
		channel: channel,
		connect: func(ctx context.Context) (notifyConn, error) {
			pooled, err := pool.Acquire(ctx)
			if err != nil {
				return nil, err
			}
			// A connection that was LISTENing must not go back to the pool.
			return pooled.Hijack(), nil
		},
		fetch:      fetch,
		pub:        pub,
		logger:     logger.With(zap.String("channel", channel)),
		MinBackoff: 500 * time.Millisecond,
		MaxBackoff: 30 * time.Second,
	}
}

// Run listens until ctx is cancelled.
func (l *Listener) Run(ctx context.Context) error {
	backoff := l.MinBackoff
	for {
		err := l.listen(ctx, func() {
			l.logger.Info("realtime: listening, requesting resync")
			l.pub.Publish(catalog.Event{Kind: catalog.EventResync})
			backoff = l.MinBackoff
		})
		if ctx.Err() != nil {
			return nil
		}
		l.logger.Warn("realtime: channel lost", zap.Error(err), zap.Duration("retry_in", backoff))
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(backoff):
		}
		backoff = nextBackoff(backoff, l.MaxBackoff)
	}
}

func nextBackoff(cur, max time.Duration) time.Duration {
	next := cur * 2
	if next > max {
		return max
	}
	return next
}

func (l *Listener) listen(ctx context.Context, onListening func()) error {
	conn, err := l.connect(ctx)
	if err != nil {
		return errors.Wrap(err, "acquire")
	}
	defer conn.Close(context.Background())

	if _, err := conn.Exec(ctx, "LISTEN "+pgx.Identifier{l.channel}.Sanitize()); err != nil {
		return errors.Wrap(err, "listen")
	}
	onListening()

	for {
		n, err := conn.WaitForNotification(ctx)
		if err != nil {
			return errors.Wrap(err, "wait")
		}
		ev, ok, err := l.decode(ctx, n.Payload)
		if err != nil {
			l.logger.Warn("realtime: dropping notification", zap.Error(err), zap.String("payload", n.Payload))
			continue
		}
		if ok {
			l.pub.Publish(ev)
		}
	}
}

type notification struct {
	Type   string          `json:"type"`
	ID     string          `json:"id"`
	Record json.RawMessage `json:"record"`
}

// ParsePayload decodes a notification body into an event. Events whose row
// was omitted have an empty Row.ID and must be completed by the caller.
func ParsePayload(payload string) (catalog.Event, error) {
	var n notification
	if err := json.Unmarshal([]byte(payload), &n); err != nil {
		return catalog.Event{}, errors.Wrap(err, "decode payload")
	}
	if n.ID == "" {
		return catalog.Event{}, errors.New("payload without id")
	}
	kind := catalog.EventKind(n.Type)
	switch kind {
	case catalog.EventDelete:
		return catalog.Event{Kind: kind, OldID: n.ID}, nil
	case catalog.EventInsert, catalog.EventUpdate:
	default:
		return catalog.Event{}, errors.Errorf("unknown change type %q", n.Type)
	}
	ev := catalog.Event{Kind: kind, OldID: n.ID}
	if len(n.Record) > 0 && string(n.Record) != "null" {
		if err := json.Unmarshal(n.Record, &ev.Row); err != nil {
			return catalog.Event{}, errors.Wrap(err, "decode record")
		}
	}
	return ev, nil
}

func (l *Listener) decode(ctx context.Context, payload string) (catalog.Event, bool, error) {
	ev, err := ParsePayload(payload)
	if err != nil {
		return catalog.Event{}, false, err
	}
	if ev.Kind == catalog.EventDelete || ev.Row.ID != "" {
		return ev, true, nil
	}
	row, err := l.fetch.GetByID(ctx, ev.OldID)
	if errors.Is(err, domain.ErrNotFound) {
		// Deleted before we looked; its delete notification follows.
		return catalog.Event{}, false, nil
	}
	if err != nil {
		l.logger.Warn("realtime: row fetch failed, requesting resync", zap.String("id", ev.OldID), zap.Error(err))
		return catalog.Event{Kind: catalog.EventResync}, true, nil
	}
	ev.Row = *row
	return ev, true, nil
}
