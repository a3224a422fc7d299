package registry

import (
	"context"
	"reflect"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"buypulse/internal/model"
)

// Source lists the watched chats from the settings store.
type Source interface {
	ListWatchedChats(ctx context.Context) ([]model.WatchedChat, error)
}

// Refresher is re-fetched on the registry cadence, ahead of the chat set.
// The price oracle hangs off this hook so USD math stays current.
type Refresher interface {
	Refresh(ctx context.Context)
}

// EventLogger posts operational messages to the system channel.
type EventLogger interface {
	LogEvent(message string, fields ...zap.Field)
}

// Registry maintains the authoritative in-memory snapshot of watched chats.
// The snapshot is swapped atomically; readers see either the fully-old or the
// fully-new set, never a partial update.
type Registry struct {
	source   Source
	price    Refresher
	interval time.Duration
	logger   *zap.Logger
	ops      EventLogger

	snapshot atomic.Value // []model.WatchedChat
	rebuild  chan struct{}
}

// New builds a Registry refreshing from source on the given cadence.
func New(source Source, price Refresher, interval time.Duration, logger *zap.Logger, ops EventLogger) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	if interval <= 0 {
		interval = 20 * time.Second
	}
	r := &Registry{
		source:   source,
		price:    price,
		interval: interval,
		logger:   logger,
		ops:      ops,
		rebuild:  make(chan struct{}, 1),
	}
	r.snapshot.Store([]model.WatchedChat{})
	return r
}

// Snapshot returns the current chat set. The returned slice must be treated
// as read-only.
func (r *Registry) Snapshot() []model.WatchedChat {
	return r.snapshot.Load().([]model.WatchedChat)
}

// Rebuilds signals once per snapshot change. Signals coalesce: a receiver
// that is busy during several changes sees a single pending signal.
func (r *Registry) Rebuilds() <-chan struct{} {
	return r.rebuild
}

// Refresh fetches the chat set and swaps the snapshot if it changed. A fetch
// failure keeps the previous snapshot.
func (r *Registry) Refresh(ctx context.Context) {
	if r.price != nil {
		r.price.Refresh(ctx)
	}

	chats, err := r.source.ListWatchedChats(ctx)
	if err != nil {
		r.logger.Warn("chat refresh failed", zap.Error(err))
		if r.ops != nil {
			r.ops.LogEvent("Failed to update chats", zap.Error(err))
		}
		return
	}

	previous := r.Snapshot()
	if reflect.DeepEqual(previous, chats) {
		return
	}

	r.snapshot.Store(chats)
	r.logger.Info("chat snapshot updated", zap.Int("chats", len(chats)))

	select {
	case r.rebuild <- struct{}{}:
	default:
	}
}

// Run refreshes on a fixed cadence until the context ends.
func (r *Registry) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.Refresh(ctx)
		}
	}
}
