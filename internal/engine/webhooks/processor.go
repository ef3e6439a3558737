package webhooks

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"leadhook/internal/engine/contacts"
	"leadhook/internal/engine/mapping"
	"leadhook/internal/engine/payload"
	"leadhook/internal/platform/audit"
	"leadhook/internal/platform/config"
	"leadhook/internal/platform/metrics"
	"leadhook/internal/platform/models"
)

// Options are the processing settings built once from configuration.
type Options struct {
	RemoteURL     string
	RemoteAPIKey  string
	SigningSecret string
	RemoteTimeout time.Duration
}

func OptionsFromConfig(cfg config.RemoteConfig) Options {
	return Options{
		RemoteURL:     cfg.URL,
		RemoteAPIKey:  cfg.APIKey,
		SigningSecret: cfg.SigningSecret,
		RemoteTimeout: cfg.Timeout,
	}
}

type EndpointStore interface {
	GetByToken(ctx context.Context, token string) (*models.Endpoint, error)
	GetDetail(ctx context.Context, id string) (*models.EndpointDetail, error)
	IncrementStats(ctx context.Context, id string, success bool) error
}

type SampleStore interface {
	Upsert(ctx context.Context, s *models.SampleData) error
	Get(ctx context.Context, endpointID string) (*models.SampleData, error)
}

type MappingStore interface {
	ListActive(ctx context.Context, endpointID string) ([]*models.FieldMapping, error)
}

// Stores groups the persistence the processor depends on.
type Stores struct {
	Endpoints EndpointStore
	Requests  audit.RequestStore
	Samples   SampleStore
	Mappings  MappingStore
	Users     UserStore
	Contacts  contacts.Store
	Leads     LeadStore
}

// Result is the response for one delivery, identical whichever path created
// the lead.
type Result struct {
	Success        bool                `json:"success"`
	Mode           models.EndpointMode `json:"mode"`
	RequestID      string              `json:"request_id,omitempty"`
	LeadID         string              `json:"lead_id,omitempty"`
	ContactID      string              `json:"contact_id,omitempty"`
	PipelineID     string              `json:"pipeline_id,omitempty"`
	ColumnID       string              `json:"column_id,omitempty"`
	ProcessedBy    string              `json:"processed_by,omitempty"`
	DetectedFields []string            `json:"detected_fields,omitempty"`
}

type Processor struct {
	endpoints EndpointStore
	samples   SampleStore
	mappings  MappingStore
	audit     *audit.Recorder
	primary   Executor
	fallback  Executor
	metrics   *metrics.WebhookMetrics
	now       func() time.Time
}

// NewProcessor wires the local executor and, when a remote URL is configured,
// the remote executor as primary path. m may be nil.
func NewProcessor(stores Stores, opts Options, m *metrics.WebhookMetrics) *Processor {
	p := &Processor{
		endpoints: stores.Endpoints,
		samples:   stores.Samples,
		mappings:  stores.Mappings,
		audit:     audit.NewRecorder(stores.Requests, stores.Endpoints),
		fallback:  NewLocalExecutor(stores.Users, contacts.NewResolver(stores.Contacts), stores.Leads),
		metrics:   m,
		now:       time.Now,
	}
	if opts.RemoteURL != "" {
		p.primary = NewRemoteExecutor(opts)
	}
	return p
}

// Process handles one delivery to the endpoint owning token.
//
// The returned Result is non-nil whenever the endpoint exists, including on
// error, so callers can report the request id.
func (p *Processor) Process(ctx context.Context, token string, body []byte, meta RequestMeta) (*Result, error) {
	start := p.now()

	ep, err := p.endpoints.GetByToken(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("lookup endpoint: %w", err)
	}
	if ep == nil {
		p.metrics.ObserveRequest("unknown", "not_found", p.now().Sub(start))
		return nil, ErrWebhookNotFound
	}

	requestID := p.audit.Begin(ctx, &models.WebhookRequest{
		EndpointID: ep.ID,
		TenantID:   ep.TenantID,
		Payload:    body,
		Headers:    meta.Headers,
		SourceIP:   meta.SourceIP,
		UserAgent:  meta.UserAgent,
	})
	result := &Result{Mode: ep.Mode, RequestID: requestID}

	logger := log.With().Str("endpoint_id", ep.ID).Str("tenant_id", ep.TenantID).Str("request_id", requestID).Logger()

	if !ep.IsActive {
		logger.Info().Msg("delivery to inactive webhook rejected")
		p.finish(ctx, ep, result, start, ErrWebhookInactive)
		return result, ErrWebhookInactive
	}

	doc, err := payload.Parse(body)
	if err != nil {
		err = fmt.Errorf("%w: %v", ErrInvalidPayload, err)
		p.finish(ctx, ep, result, start, err)
		return result, err
	}

	if ep.Mode == models.ModeMapping {
		err = p.captureSample(ctx, ep, doc, body, result)
	} else {
		err = p.createLead(ctx, ep, doc, meta, result)
	}

	if err != nil {
		logger.Warn().Err(err).Str("mode", string(ep.Mode)).Msg("webhook processing failed")
	} else {
		logger.Info().Str("mode", string(ep.Mode)).Str("lead_id", result.LeadID).Str("path", result.ProcessedBy).Msg("webhook processed")
	}

	p.finish(ctx, ep, result, start, err)
	return result, err
}

func (p *Processor) captureSample(ctx context.Context, ep *models.Endpoint, doc payload.Value, body []byte, result *Result) error {
	fields := payload.Paths(doc)
	err := p.samples.Upsert(ctx, &models.SampleData{
		EndpointID:     ep.ID,
		Payload:        body,
		DetectedFields: fields,
	})
	if err != nil {
		return &DownstreamWriteError{Op: "store sample payload", Err: err}
	}

	result.DetectedFields = fields
	return nil
}

func (p *Processor) createLead(ctx context.Context, ep *models.Endpoint, doc payload.Value, meta RequestMeta, result *Result) error {
	mappings, err := p.mappings.ListActive(ctx, ep.ID)
	if err != nil {
		return fmt.Errorf("list field mappings: %w", err)
	}

	data, err := mapping.Apply(doc, mappings, mapping.DefaultsFor(ep))
	if err != nil {
		return err
	}

	detail, err := p.endpoints.GetDetail(ctx, ep.ID)
	if err != nil {
		return fmt.Errorf("load endpoint pipeline: %w", err)
	}

	job := &Job{Endpoint: detail, Payload: doc, LeadData: data, Meta: meta}
	out, path, err := p.execute(ctx, job)
	if err != nil {
		return err
	}

	result.LeadID = out.LeadID
	result.ContactID = out.ContactID
	result.PipelineID = out.PipelineID
	result.ColumnID = out.ColumnID
	result.ProcessedBy = path
	return nil
}

// execute tries the primary executor once and falls back to the local one on
// any failure.
func (p *Processor) execute(ctx context.Context, job *Job) (*Outcome, string, error) {
	if p.primary != nil {
		out, err := p.primary.Execute(ctx, job)
		if err == nil {
			return out, PathRemote, nil
		}

		reason := ReasonTransport
		var remoteErr *RemoteProcessingError
		if errors.As(err, &remoteErr) {
			reason = remoteErr.Reason
		}
		log.Warn().Err(err).Str("endpoint_id", job.Endpoint.ID).Str("reason", reason).Msg("remote processing failed, falling back to local")
		p.metrics.ObserveFallback(reason)
	}

	out, err := p.fallback.Execute(ctx, job)
	return out, PathLocal, err
}

func (p *Processor) finish(ctx context.Context, ep *models.Endpoint, result *Result, start time.Time, err error) {
	elapsed := p.now().Sub(start)
	out := models.RequestOutcome{DurationMS: elapsed.Milliseconds()}

	switch {
	case err != nil:
		out.Status = models.RequestFailed
		out.ErrorMessage = err.Error()
	case ep.Mode == models.ModeMapping:
		out.Status = models.RequestCompleted
	default:
		out.Status = models.RequestSuccess
		out.LeadID = result.LeadID
	}
	result.Success = err == nil

	p.audit.Finish(ctx, result.RequestID, out)
	if ep.IsActive && ep.Mode == models.ModeActive {
		p.audit.Count(ctx, ep.ID, err == nil)
	}
	p.metrics.ObserveRequest(string(ep.Mode), string(out.Status), elapsed)
}

// Inspection describes an endpoint for integrators testing their setup.
type Inspection struct {
	EndpointID     string                 `json:"endpoint_id"`
	Name           string                 `json:"name"`
	Mode           models.EndpointMode    `json:"mode"`
	IsActive       bool                   `json:"is_active"`
	Mappings       []*models.FieldMapping `json:"mappings"`
	ExamplePayload payload.Value          `json:"example_payload"`
	LastSample     *SampleView            `json:"last_sample,omitempty"`
}

type SampleView struct {
	Payload        json.RawMessage `json:"payload"`
	DetectedFields []string        `json:"detected_fields"`
	CapturedAt     int64           `json:"captured_at"`
}

// Inspect returns the endpoint's mappings, an example payload shaped after the
// mapping source paths and the last captured sample. It has no side effects.
func (p *Processor) Inspect(ctx context.Context, token string) (*Inspection, error) {
	ep, err := p.endpoints.GetByToken(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("lookup endpoint: %w", err)
	}
	if ep == nil {
		return nil, ErrWebhookNotFound
	}

	mappings, err := p.mappings.ListActive(ctx, ep.ID)
	if err != nil {
		return nil, fmt.Errorf("list field mappings: %w", err)
	}

	example := make(map[string]any, len(mappings))
	for _, m := range mappings {
		if m.DefaultValue != nil && *m.DefaultValue != "" {
			example[m.SourceField] = *m.DefaultValue
		} else {
			example[m.SourceField] = "<" + m.TargetField + ">"
		}
	}

	insp := &Inspection{
		EndpointID:     ep.ID,
		Name:           ep.Name,
		Mode:           ep.Mode,
		IsActive:       ep.IsActive,
		Mappings:       mappings,
		ExamplePayload: payload.Example(example),
	}

	sample, err := p.samples.Get(ctx, ep.ID)
	if err != nil {
		return nil, fmt.Errorf("load sample: %w", err)
	}
	if sample != nil && json.Valid(sample.Payload) {
		insp.LastSample = &SampleView{
			Payload:        json.RawMessage(sample.Payload),
			DetectedFields: sample.DetectedFields,
			CapturedAt:     sample.CapturedAt,
		}
	}
	return insp, nil
}
