package webhooks

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"leadhook/internal/engine/mapping"
	"leadhook/internal/engine/payload"
)

const maxRemoteResponse = 1 << 20

// RemoteExecutor delegates lead creation to the remote processing procedure
// in a single signed JSON call.
type RemoteExecutor struct {
	url           string
	apiKey        string
	signingSecret string
	client        *http.Client
}

func NewRemoteExecutor(opts Options) *RemoteExecutor {
	timeout := opts.RemoteTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &RemoteExecutor{
		url:           opts.RemoteURL,
		apiKey:        opts.RemoteAPIKey,
		signingSecret: opts.SigningSecret,
		client:        &http.Client{Timeout: timeout},
	}
}

type remoteRequest struct {
	EndpointID string            `json:"endpoint_id"`
	TenantID   string            `json:"tenant_id"`
	Payload    payload.Value     `json:"payload"`
	LeadData   mapping.LeadData  `json:"lead_data"`
	Headers    map[string]string `json:"headers"`
	SourceIP   string            `json:"source_ip"`
}

type remoteResponse struct {
	Success    bool   `json:"success"`
	LeadID     string `json:"lead_id"`
	ContactID  string `json:"contact_id"`
	PipelineID string `json:"pipeline_id"`
	ColumnID   string `json:"column_id"`
	Error      string `json:"error"`
}

// Execute returns a *RemoteProcessingError for every failure.
func (e *RemoteExecutor) Execute(ctx context.Context, job *Job) (*Outcome, error) {
	headers := job.Meta.Headers
	if headers == nil {
		headers = map[string]string{}
	}

	body, err := json.Marshal(remoteRequest{
		EndpointID: job.Endpoint.ID,
		TenantID:   job.Endpoint.TenantID,
		Payload:    job.Payload,
		LeadData:   job.LeadData,
		Headers:    headers,
		SourceIP:   job.Meta.SourceIP,
	})
	if err != nil {
		return nil, &RemoteProcessingError{Reason: ReasonTransport, Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.url, bytes.NewReader(body))
	if err != nil {
		return nil, &RemoteProcessingError{Reason: ReasonTransport, Err: err}
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Leadhook-Endpoint", job.Endpoint.ID)
	if e.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+e.apiKey)
	}
	if e.signingSecret != "" {
		req.Header.Set(SignatureHeader, Sign(e.signingSecret, body))
	}

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, &RemoteProcessingError{Reason: ReasonTransport, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		io.Copy(io.Discard, io.LimitReader(resp.Body, maxRemoteResponse))
		return nil, &RemoteProcessingError{Reason: ReasonStatus, StatusCode: resp.StatusCode}
	}

	var out remoteResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxRemoteResponse)).Decode(&out); err != nil {
		return nil, &RemoteProcessingError{Reason: ReasonDecode, StatusCode: resp.StatusCode, Err: err}
	}
	if !out.Success {
		msg := out.Error
		if msg == "" {
			msg = "remote reported failure"
		}
		return nil, &RemoteProcessingError{Reason: ReasonRejected, StatusCode: resp.StatusCode, Message: msg}
	}
	if out.LeadID == "" {
		return nil, &RemoteProcessingError{Reason: ReasonDecode, StatusCode: resp.StatusCode, Message: "response has no lead_id"}
	}

	return &Outcome{
		LeadID:     out.LeadID,
		ContactID:  out.ContactID,
		PipelineID: out.PipelineID,
		ColumnID:   out.ColumnID,
	}, nil
}
