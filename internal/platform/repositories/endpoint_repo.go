package repositories

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"leadhook/internal/platform/models"
)

const endpointColumns = `id, token, tenant_id, name, is_active, mode, default_status, default_priority, default_source,
	pipeline_id, default_column_id, total_requests, successful_requests, failed_requests, last_request_at, created_at, updated_at`

type EndpointRepository struct {
	db *sql.DB
}

func NewEndpointRepository(db *sql.DB) *EndpointRepository {
	return &EndpointRepository{db: db}
}

// NewToken returns an opaque, URL-safe endpoint token.
func NewToken() string {
	return "whk_" + strings.ReplaceAll(uuid.New().String(), "-", "")
}

func (r *EndpointRepository) Create(ctx context.Context, ep *models.Endpoint) error {
	if ep.ID == "" {
		ep.ID = "ep_" + uuid.New().String()
	}
	if ep.Token == "" {
		ep.Token = NewToken()
	}
	if ep.Mode == "" {
		ep.Mode = models.ModeMapping
	}
	now := time.Now().Unix()
	ep.CreatedAt = now
	ep.UpdatedAt = now

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO webhook_endpoints (id, token, tenant_id, name, is_active, mode, default_status, default_priority, default_source,
			pipeline_id, default_column_id, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, ep.ID, ep.Token, ep.TenantID, ep.Name, ep.IsActive, string(ep.Mode), ep.DefaultStatus, ep.DefaultPriority, ep.DefaultSource,
		ep.PipelineID, ep.DefaultColumnID, ep.CreatedAt, ep.UpdatedAt)
	return err
}

// GetByToken returns nil, nil when no endpoint owns the token.
func (r *EndpointRepository) GetByToken(ctx context.Context, token string) (*models.Endpoint, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+endpointColumns+` FROM webhook_endpoints WHERE token = ?`, token)
	return nilIfNoRows(scanEndpoint(row))
}

// GetByID returns the tenant's endpoint, or nil, nil when it does not exist
// or belongs to another tenant.
func (r *EndpointRepository) GetByID(ctx context.Context, tenantID, id string) (*models.Endpoint, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+endpointColumns+` FROM webhook_endpoints WHERE id = ? AND tenant_id = ?`, id, tenantID)
	return nilIfNoRows(scanEndpoint(row))
}

// GetDetail loads the endpoint with the columns of its pipeline in insertion order.
func (r *EndpointRepository) GetDetail(ctx context.Context, id string) (*models.EndpointDetail, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+endpointColumns+` FROM webhook_endpoints WHERE id = ?`, id)
	ep, err := scanEndpoint(row)
	if err != nil {
		return nil, err
	}

	detail := &models.EndpointDetail{Endpoint: *ep}
	if ep.PipelineID == nil {
		return detail, nil
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, pipeline_id, name, position, created_at
		FROM pipeline_columns
		WHERE pipeline_id = ?
		ORDER BY created_at ASC, rowid ASC
	`, *ep.PipelineID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var c models.PipelineColumn
		if err := rows.Scan(&c.ID, &c.PipelineID, &c.Name, &c.Position, &c.CreatedAt); err != nil {
			return nil, err
		}
		detail.Columns = append(detail.Columns, &c)
	}
	return detail, rows.Err()
}

// ColumnInPipeline reports whether columnID is one of pipelineID's columns.
func (r *EndpointRepository) ColumnInPipeline(ctx context.Context, pipelineID, columnID string) (bool, error) {
	var found bool
	err := r.db.QueryRowContext(ctx, `
		SELECT EXISTS(SELECT 1 FROM pipeline_columns WHERE id = ? AND pipeline_id = ?)
	`, columnID, pipelineID).Scan(&found)
	return found, err
}

func (r *EndpointRepository) ListByTenant(ctx context.Context, tenantID string) ([]*models.Endpoint, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+endpointColumns+` FROM webhook_endpoints WHERE tenant_id = ? ORDER BY created_at DESC`, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	endpoints := []*models.Endpoint{}
	for rows.Next() {
		ep, err := scanEndpoint(rows)
		if err != nil {
			return nil, err
		}
		endpoints = append(endpoints, ep)
	}
	return endpoints, rows.Err()
}

func (r *EndpointRepository) Update(ctx context.Context, ep *models.Endpoint) error {
	ep.UpdatedAt = time.Now().Unix()

	_, err := r.db.ExecContext(ctx, `
		UPDATE webhook_endpoints
		SET name = ?, is_active = ?, mode = ?, default_status = ?, default_priority = ?, default_source = ?,
			pipeline_id = ?, default_column_id = ?, updated_at = ?
		WHERE id = ? AND tenant_id = ?
	`, ep.Name, ep.IsActive, string(ep.Mode), ep.DefaultStatus, ep.DefaultPriority, ep.DefaultSource,
		ep.PipelineID, ep.DefaultColumnID, ep.UpdatedAt, ep.ID, ep.TenantID)
	return err
}

func (r *EndpointRepository) IncrementStats(ctx context.Context, id string, success bool) error {
	successInc, failedInc := 0, 1
	if success {
		successInc, failedInc = 1, 0
	}

	_, err := r.db.ExecContext(ctx, `
		UPDATE webhook_endpoints
		SET total_requests = total_requests + 1,
			successful_requests = successful_requests + ?,
			failed_requests = failed_requests + ?,
			last_request_at = ?
		WHERE id = ?
	`, successInc, failedInc, time.Now().Unix(), id)
	return err
}

func scanEndpoint(s scanner) (*models.Endpoint, error) {
	var ep models.Endpoint
	var mode string
	var pipelineID, columnID sql.NullString
	var lastRequestAt sql.NullInt64

	err := s.Scan(
		&ep.ID,
		&ep.Token,
		&ep.TenantID,
		&ep.Name,
		&ep.IsActive,
		&mode,
		&ep.DefaultStatus,
		&ep.DefaultPriority,
		&ep.DefaultSource,
		&pipelineID,
		&columnID,
		&ep.TotalRequests,
		&ep.SuccessfulRequests,
		&ep.FailedRequests,
		&lastRequestAt,
		&ep.CreatedAt,
		&ep.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	ep.Mode = models.EndpointMode(mode)
	ep.PipelineID = stringPtr(pipelineID)
	ep.DefaultColumnID = stringPtr(columnID)
	if lastRequestAt.Valid {
		val := lastRequestAt.Int64
		ep.LastRequestAt = &val
	}
	return &ep, nil
}

func nilIfNoRows[T any](v *T, err error) (*T, error) {
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return v, err
}
