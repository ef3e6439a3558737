package webhooks

import (
	"context"

	"leadhook/internal/engine/mapping"
	"leadhook/internal/engine/payload"
	"leadhook/internal/platform/models"
)

// Processing paths, reported in Result.ProcessedBy.
const (
	PathRemote = "remote"
	PathLocal  = "local"
)

// RequestMeta describes the inbound HTTP delivery.
type RequestMeta struct {
	Headers   map[string]string
	SourceIP  string
	UserAgent string
}

// Job is the already validated input both executors receive. LeadData has
// been produced by the mapping engine, so both paths see identical data.
type Job struct {
	Endpoint *models.EndpointDetail
	Payload  payload.Value
	LeadData mapping.LeadData
	Meta     RequestMeta
}

// Outcome is what an executor created.
type Outcome struct {
	LeadID     string `json:"lead_id"`
	ContactID  string `json:"contact_id,omitempty"`
	PipelineID string `json:"pipeline_id,omitempty"`
	ColumnID   string `json:"column_id,omitempty"`
}

// Executor turns a Job into a lead.
type Executor interface {
	Execute(ctx context.Context, job *Job) (*Outcome, error)
}
