package audit

import (
	"context"

	"github.com/rs/zerolog/log"
	"leadhook/internal/platform/models"
)

type RequestStore interface {
	Create(ctx context.Context, req *models.WebhookRequest) error
	Finish(ctx context.Context, id string, out models.RequestOutcome) error
}

type StatsStore interface {
	IncrementStats(ctx context.Context, endpointID string, success bool) error
}

// Recorder keeps the webhook_requests trail and endpoint counters. Store
// failures are logged and never returned: the audit trail must not change
// the outcome reported to the caller.
type Recorder struct {
	requests RequestStore
	stats    StatsStore
}

func NewRecorder(requests RequestStore, stats StatsStore) *Recorder {
	return &Recorder{requests: requests, stats: stats}
}

// Begin inserts the request in processing state and returns its id, or ""
// when the insert failed.
func (r *Recorder) Begin(ctx context.Context, req *models.WebhookRequest) string {
	if err := r.requests.Create(context.WithoutCancel(ctx), req); err != nil {
		log.Error().Err(err).Str("endpoint_id", req.EndpointID).Msg("failed to record webhook request")
		return ""
	}
	return req.ID
}

func (r *Recorder) Finish(ctx context.Context, requestID string, out models.RequestOutcome) {
	if requestID == "" {
		return
	}
	if err := r.requests.Finish(context.WithoutCancel(ctx), requestID, out); err != nil {
		log.Error().Err(err).Str("request_id", requestID).Str("status", string(out.Status)).Msg("failed to update webhook request")
	}
}

func (r *Recorder) Count(ctx context.Context, endpointID string, success bool) {
	if err := r.stats.IncrementStats(context.WithoutCancel(ctx), endpointID, success); err != nil {
		log.Error().Err(err).Str("endpoint_id", endpointID).Msg("failed to increment endpoint stats")
	}
}
