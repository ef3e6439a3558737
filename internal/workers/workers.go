package workers

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
)

// RequestStore is the slice of the request repository the maintenance jobs use.
type RequestStore interface {
	FailStale(ctx context.Context, before int64) (int64, error)
	PruneOlderThan(ctx context.Context, before int64) (int64, error)
}

// FailStaleRequests marks requests still "processing" after staleAfter as
// failed. Those rows belong to deliveries whose process died mid-flight.
func FailStaleRequests(ctx context.Context, store RequestStore, now time.Time, staleAfter time.Duration) (int64, error) {
	n, err := store.FailStale(ctx, now.Add(-staleAfter).Unix())
	if err != nil {
		return 0, err
	}
	if n > 0 {
		log.Warn().Int64("count", n).Msg("Worker: marked stale webhook requests as failed")
	}
	return n, nil
}

// PruneRequests deletes finished request records older than retention.
func PruneRequests(ctx context.Context, store RequestStore, now time.Time, retention time.Duration) (int64, error) {
	n, err := store.PruneOlderThan(ctx, now.Add(-retention).Unix())
	if err != nil {
		return 0, err
	}
	log.Info().Int64("count", n).Msg("Worker: pruned webhook request history")
	return n, nil
}

// Maintenance runs both jobs on a fixed interval until ctx is cancelled.
type Maintenance struct {
	Store      RequestStore
	Interval   time.Duration
	StaleAfter time.Duration
	Retention  time.Duration
}

// RunOnce runs a single pass. A failing job does not stop the other.
func (m *Maintenance) RunOnce(ctx context.Context) {
	now := time.Now()

	if m.StaleAfter > 0 {
		if _, err := FailStaleRequests(ctx, m.Store, now, m.StaleAfter); err != nil {
			log.Error().Err(err).Msg("Worker: failed to mark stale requests")
		}
	}
	if m.Retention > 0 {
		if _, err := PruneRequests(ctx, m.Store, now, m.Retention); err != nil {
			log.Error().Err(err).Msg("Worker: failed to prune requests")
		}
	}
}

func (m *Maintenance) Run(ctx context.Context) {
	interval := m.Interval
	if interval <= 0 {
		interval = time.Hour
	}

	m.RunOnce(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.RunOnce(ctx)
		}
	}
}
