package models

type EndpointMode string

const (
	ModeMapping EndpointMode = "mapping"
	ModeActive  EndpointMode = "active"
)

func (m EndpointMode) Valid() bool {
	return m == ModeMapping || m == ModeActive
}

type Endpoint struct {
	ID                 string       `json:"id"`
	Token              string       `json:"token"`
	TenantID           string       `json:"tenant_id"`
	Name               string       `json:"name"`
	IsActive           bool         `json:"is_active"`
	Mode               EndpointMode `json:"mode"`
	DefaultStatus      string       `json:"default_status"`
	DefaultPriority    string       `json:"default_priority"`
	DefaultSource      string       `json:"default_source"`
	PipelineID         *string      `json:"pipeline_id,omitempty"`
	DefaultColumnID    *string      `json:"default_column_id,omitempty"`
	TotalRequests      int          `json:"total_requests"`
	SuccessfulRequests int          `json:"successful_requests"`
	FailedRequests     int          `json:"failed_requests"`
	LastRequestAt      *int64       `json:"last_request_at,omitempty"`
	CreatedAt          int64        `json:"created_at"`
	UpdatedAt          int64        `json:"updated_at"`
}

// EndpointDetail is an endpoint together with the columns of its target
// pipeline, in insertion order.
type EndpointDetail struct {
	Endpoint
	Columns []*PipelineColumn `json:"columns"`
}

type PipelineColumn struct {
	ID         string `json:"id"`
	PipelineID string `json:"pipeline_id"`
	Name       string `json:"name"`
	Position   int    `json:"position"`
	CreatedAt  int64  `json:"created_at"`
}

type FieldMapping struct {
	ID           string  `json:"id"`
	EndpointID   string  `json:"endpoint_id"`
	SourceField  string  `json:"source_field"`
	TargetField  string  `json:"target_field"`
	IsRequired   bool    `json:"is_required"`
	DefaultValue *string `json:"default_value,omitempty"`
	IsActive     bool    `json:"is_active"`
	Position     int     `json:"position"`
	CreatedAt    int64   `json:"created_at"`
}

type User struct {
	ID        string `json:"id"`
	TenantID  string `json:"tenant_id"`
	Email     string `json:"email"`
	FullName  string `json:"full_name"`
	Role      string `json:"role"`
	CreatedAt int64  `json:"created_at"`
}

type Contact struct {
	ID        string `json:"id"`
	TenantID  string `json:"tenant_id"`
	Name      string `json:"name"`
	Email     string `json:"email,omitempty"`
	Phone     string `json:"phone,omitempty"`
	Source    string `json:"source"`
	CreatedAt int64  `json:"created_at"`
	UpdatedAt int64  `json:"updated_at"`
}

type Lead struct {
	ID           string         `json:"id"`
	TenantID     string         `json:"tenant_id"`
	UserID       string         `json:"user_id"`
	ContactID    *string        `json:"contact_id,omitempty"`
	Name         string         `json:"name"`
	Email        string         `json:"email,omitempty"`
	Phone        string         `json:"phone,omitempty"`
	Company      string         `json:"company,omitempty"`
	Position     string         `json:"position,omitempty"`
	Value        *float64       `json:"value,omitempty"`
	Notes        string         `json:"notes,omitempty"`
	Status       string         `json:"status"`
	Priority     string         `json:"priority"`
	Source       string         `json:"source"`
	CustomFields map[string]any `json:"custom_fields,omitempty"`
	PipelineID   *string        `json:"pipeline_id,omitempty"`
	ColumnID     *string        `json:"column_id,omitempty"`
	CreatedAt    int64          `json:"created_at"`
	UpdatedAt    int64          `json:"updated_at"`
}
