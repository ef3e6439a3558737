package models

type RequestStatus string

const (
	RequestProcessing RequestStatus = "processing"
	RequestSuccess    RequestStatus = "success"
	RequestFailed     RequestStatus = "failed"
	RequestCompleted  RequestStatus = "completed"
)

// WebhookRequest is the audit record of one inbound delivery.
type WebhookRequest struct {
	ID           string            `json:"id"`
	EndpointID   string            `json:"endpoint_id"`
	TenantID     string            `json:"tenant_id"`
	Status       RequestStatus     `json:"status"`
	Payload      []byte            `json:"-"`
	Headers      map[string]string `json:"headers"`
	SourceIP     string            `json:"source_ip"`
	UserAgent    string            `json:"user_agent"`
	LeadID       *string           `json:"lead_id,omitempty"`
	ErrorMessage *string           `json:"error_message,omitempty"`
	DurationMS   *int64            `json:"duration_ms,omitempty"`
	CreatedAt    int64             `json:"created_at"`
	ProcessedAt  *int64            `json:"processed_at,omitempty"`
}

// RequestOutcome is the terminal patch applied to a WebhookRequest.
type RequestOutcome struct {
	Status       RequestStatus
	LeadID       string
	ErrorMessage string
	DurationMS   int64
}

// SampleData is the latest payload captured for an endpoint in mapping mode.
type SampleData struct {
	EndpointID     string   `json:"endpoint_id"`
	Payload        []byte   `json:"-"`
	DetectedFields []string `json:"detected_fields"`
	CapturedAt     int64    `json:"captured_at"`
}
