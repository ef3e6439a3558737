package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"leadhook/internal/platform/models"
)

type MappingRepository struct {
	db *sql.DB
}

func NewMappingRepository(db *sql.DB) *MappingRepository {
	return &MappingRepository{db: db}
}

const mappingColumns = `id, endpoint_id, source_field, target_field, is_required, default_value, is_active, position, created_at`

// ListActive returns the endpoint's active mappings in application order.
func (r *MappingRepository) ListActive(ctx context.Context, endpointID string) ([]*models.FieldMapping, error) {
	return r.query(ctx, `SELECT `+mappingColumns+` FROM webhook_field_mappings
		WHERE endpoint_id = ? AND is_active = 1 ORDER BY position ASC, rowid ASC`, endpointID)
}

// List returns every mapping of the endpoint, active or not.
func (r *MappingRepository) List(ctx context.Context, endpointID string) ([]*models.FieldMapping, error) {
	return r.query(ctx, `SELECT `+mappingColumns+` FROM webhook_field_mappings
		WHERE endpoint_id = ? ORDER BY position ASC, rowid ASC`, endpointID)
}

func (r *MappingRepository) query(ctx context.Context, query string, args ...interface{}) ([]*models.FieldMapping, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	mappings := []*models.FieldMapping{}
	for rows.Next() {
		var m models.FieldMapping
		var defaultValue sql.NullString
		if err := rows.Scan(&m.ID, &m.EndpointID, &m.SourceField, &m.TargetField, &m.IsRequired, &defaultValue, &m.IsActive, &m.Position, &m.CreatedAt); err != nil {
			return nil, err
		}
		m.DefaultValue = stringPtr(defaultValue)
		mappings = append(mappings, &m)
	}
	return mappings, rows.Err()
}

// Replace swaps the endpoint's whole mapping list in one transaction. The
// slice order becomes the application order.
func (r *MappingRepository) Replace(ctx context.Context, endpointID string, mappings []*models.FieldMapping) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM webhook_field_mappings WHERE endpoint_id = ?`, endpointID); err != nil {
		return err
	}

	now := time.Now().Unix()
	for i, m := range mappings {
		m.ID = "fm_" + uuid.New().String()
		m.EndpointID = endpointID
		m.Position = i
		m.CreatedAt = now

		_, err := tx.ExecContext(ctx, `
			INSERT INTO webhook_field_mappings (`+mappingColumns+`)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, m.ID, m.EndpointID, m.SourceField, m.TargetField, m.IsRequired, m.DefaultValue, m.IsActive, m.Position, m.CreatedAt)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

type SampleRepository struct {
	db *sql.DB
}

func NewSampleRepository(db *sql.DB) *SampleRepository {
	return &SampleRepository{db: db}
}

// Upsert keeps only the latest sample per endpoint.
func (r *SampleRepository) Upsert(ctx context.Context, s *models.SampleData) error {
	fields := s.DetectedFields
	if fields == nil {
		fields = []string{}
	}
	fieldsJSON, err := json.Marshal(fields)
	if err != nil {
		return err
	}
	if s.CapturedAt == 0 {
		s.CapturedAt = time.Now().Unix()
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO webhook_sample_data (endpoint_id, payload, detected_fields, captured_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(endpoint_id) DO UPDATE SET
			payload = excluded.payload,
			detected_fields = excluded.detected_fields,
			captured_at = excluded.captured_at
	`, s.EndpointID, string(s.Payload), string(fieldsJSON), s.CapturedAt)
	return err
}

func (r *SampleRepository) Get(ctx context.Context, endpointID string) (*models.SampleData, error) {
	s := &models.SampleData{}
	var payload, fieldsJSON string
	err := r.db.QueryRowContext(ctx, `
		SELECT endpoint_id, payload, detected_fields, captured_at
		FROM webhook_sample_data WHERE endpoint_id = ?
	`, endpointID).Scan(&s.EndpointID, &payload, &fieldsJSON, &s.CapturedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}

	s.Payload = []byte(payload)
	if err := json.Unmarshal([]byte(fieldsJSON), &s.DetectedFields); err != nil {
		return nil, err
	}
	return s, nil
}

type RequestRepository struct {
	db *sql.DB
}

func NewRequestRepository(db *sql.DB) *RequestRepository {
	return &RequestRepository{db: db}
}

// Create inserts the request in processing state.
func (r *RequestRepository) Create(ctx context.Context, req *models.WebhookRequest) error {
	if req.ID == "" {
		req.ID = "req_" + uuid.New().String()
	}
	if req.Status == "" {
		req.Status = models.RequestProcessing
	}
	req.CreatedAt = time.Now().Unix()

	headers := req.Headers
	if headers == nil {
		headers = map[string]string{}
	}
	headersJSON, err := json.Marshal(headers)
	if err != nil {
		return err
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO webhook_requests (id, endpoint_id, tenant_id, status, payload, headers, source_ip, user_agent,
			lead_id, error_message, duration_ms, created_at, processed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, req.ID, req.EndpointID, req.TenantID, string(req.Status), string(req.Payload), string(headersJSON),
		nullString(req.SourceIP), nullString(req.UserAgent), req.LeadID, req.ErrorMessage, req.DurationMS,
		req.CreatedAt, req.ProcessedAt)
	return err
}

// Finish applies the terminal status of a request.
func (r *RequestRepository) Finish(ctx context.Context, id string, out models.RequestOutcome) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE webhook_requests
		SET status = ?, lead_id = ?, error_message = ?, duration_ms = ?, processed_at = ?
		WHERE id = ?
	`, string(out.Status), nullString(out.LeadID), nullString(out.ErrorMessage), out.DurationMS, time.Now().Unix(), id)
	return err
}

// ListByEndpoint returns a page of requests, newest first, with the total count.
func (r *RequestRepository) ListByEndpoint(ctx context.Context, endpointID string, limit, offset int) ([]*models.WebhookRequest, int, error) {
	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM webhook_requests WHERE endpoint_id = ?`, endpointID).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, endpoint_id, tenant_id, status, payload, headers, source_ip, user_agent,
			lead_id, error_message, duration_ms, created_at, processed_at
		FROM webhook_requests
		WHERE endpoint_id = ?
		ORDER BY created_at DESC, rowid DESC
		LIMIT ? OFFSET ?
	`, endpointID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	requests := []*models.WebhookRequest{}
	for rows.Next() {
		var req models.WebhookRequest
		var status, payload, headersJSON string
		var sourceIP, userAgent, leadID, errorMessage sql.NullString
		var durationMS, processedAt sql.NullInt64

		if err := rows.Scan(&req.ID, &req.EndpointID, &req.TenantID, &status, &payload, &headersJSON,
			&sourceIP, &userAgent, &leadID, &errorMessage, &durationMS, &req.CreatedAt, &processedAt); err != nil {
			return nil, 0, err
		}

		req.Status = models.RequestStatus(status)
		req.Payload = []byte(payload)
		req.SourceIP = sourceIP.String
		req.UserAgent = userAgent.String
		req.LeadID = stringPtr(leadID)
		req.ErrorMessage = stringPtr(errorMessage)
		if durationMS.Valid {
			v := durationMS.Int64
			req.DurationMS = &v
		}
		if processedAt.Valid {
			v := processedAt.Int64
			req.ProcessedAt = &v
		}
		if err := json.Unmarshal([]byte(headersJSON), &req.Headers); err != nil {
			return nil, 0, err
		}
		requests = append(requests, &req)
	}
	return requests, total, rows.Err()
}

// FailStale marks requests still processing since before the cutoff as failed.
func (r *RequestRepository) FailStale(ctx context.Context, before int64) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE webhook_requests
		SET status = 'failed', error_message = 'processing interrupted', processed_at = ?
		WHERE status = 'processing' AND created_at < ?
	`, time.Now().Unix(), before)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// PruneOlderThan deletes finished requests created before the cutoff.
func (r *RequestRepository) PruneOlderThan(ctx context.Context, before int64) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
		DELETE FROM webhook_requests WHERE status != 'processing' AND created_at < ?
	`, before)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
