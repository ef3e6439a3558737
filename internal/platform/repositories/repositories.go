package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"leadhook/internal/platform/models"
)

type UserRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	if user.ID == "" {
		user.ID = "usr_" + uuid.New().String()
	}
	if user.CreatedAt == 0 {
		user.CreatedAt = time.Now().Unix()
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO users (id, tenant_id, email, full_name, role, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, user.ID, user.TenantID, user.Email, user.FullName, user.Role, user.CreatedAt)
	return err
}

// GetByID returns the tenant's user, or nil, nil when it does not exist.
func (r *UserRepository) GetByID(ctx context.Context, tenantID, id string) (*models.User, error) {
	user := &models.User{}
	err := r.db.QueryRowContext(ctx, `
		SELECT id, tenant_id, email, full_name, role, created_at
		FROM users WHERE id = ? AND tenant_id = ?
	`, id, tenantID).Scan(&user.ID, &user.TenantID, &user.Email, &user.FullName, &user.Role, &user.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return user, nil
}

// FindAdminUser returns the earliest admin or owner of the tenant, or nil, nil
// when the tenant has none.
func (r *UserRepository) FindAdminUser(ctx context.Context, tenantID string) (*models.User, error) {
	user := &models.User{}
	err := r.db.QueryRowContext(ctx, `
		SELECT id, tenant_id, email, full_name, role, created_at
		FROM users
		WHERE tenant_id = ? AND role IN ('admin', 'owner')
		ORDER BY created_at ASC, rowid ASC
		LIMIT 1
	`, tenantID).Scan(&user.ID, &user.TenantID, &user.Email, &user.FullName, &user.Role, &user.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return user, nil
}

type ContactRepository struct {
	db *sql.DB
}

func NewContactRepository(db *sql.DB) *ContactRepository {
	return &ContactRepository{db: db}
}

// FindByPhone returns the id of the oldest tenant contact with the exact
// phone, or "" when none matches.
func (r *ContactRepository) FindByPhone(ctx context.Context, tenantID, phone string) (string, error) {
	return r.findID(ctx, `SELECT id FROM contacts WHERE tenant_id = ? AND phone = ? ORDER BY created_at ASC, rowid ASC LIMIT 1`, tenantID, phone)
}

// FindByEmail returns the id of the oldest tenant contact with the exact
// email, or "" when none matches.
func (r *ContactRepository) FindByEmail(ctx context.Context, tenantID, email string) (string, error) {
	return r.findID(ctx, `SELECT id FROM contacts WHERE tenant_id = ? AND email = ? ORDER BY created_at ASC, rowid ASC LIMIT 1`, tenantID, email)
}

func (r *ContactRepository) findID(ctx context.Context, query string, args ...interface{}) (string, error) {
	var id string
	err := r.db.QueryRowContext(ctx, query, args...).Scan(&id)
	if err == sql.ErrNoRows {
		return "", nil
	}
	return id, err
}

func (r *ContactRepository) Create(ctx context.Context, c *models.Contact) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO contacts (id, tenant_id, name, email, phone, source, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, c.ID, c.TenantID, c.Name, nullString(c.Email), nullString(c.Phone), c.Source, c.CreatedAt, c.UpdatedAt)
	return err
}

func (r *ContactRepository) GetByID(ctx context.Context, id string) (*models.Contact, error) {
	c := &models.Contact{}
	var email, phone sql.NullString
	err := r.db.QueryRowContext(ctx, `
		SELECT id, tenant_id, name, email, phone, source, created_at, updated_at
		FROM contacts WHERE id = ?
	`, id).Scan(&c.ID, &c.TenantID, &c.Name, &email, &phone, &c.Source, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	c.Email = email.String
	c.Phone = phone.String
	return c, nil
}

type LeadRepository struct {
	db *sql.DB
}

func NewLeadRepository(db *sql.DB) *LeadRepository {
	return &LeadRepository{db: db}
}

func (r *LeadRepository) Create(ctx context.Context, lead *models.Lead) error {
	if lead.ID == "" {
		lead.ID = "lead_" + uuid.New().String()
	}
	now := time.Now().Unix()
	lead.CreatedAt = now
	lead.UpdatedAt = now

	customFields := lead.CustomFields
	if customFields == nil {
		customFields = map[string]any{}
	}
	customJSON, err := json.Marshal(customFields)
	if err != nil {
		return err
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO leads (id, tenant_id, user_id, contact_id, name, email, phone, company, position, value, notes,
			status, priority, source, custom_fields, pipeline_id, column_id, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, lead.ID, lead.TenantID, lead.UserID, lead.ContactID, lead.Name, nullString(lead.Email), nullString(lead.Phone),
		nullString(lead.Company), nullString(lead.Position), lead.Value, nullString(lead.Notes),
		lead.Status, lead.Priority, lead.Source, string(customJSON), lead.PipelineID, lead.ColumnID, lead.CreatedAt, lead.UpdatedAt)
	return err
}

// MoveToColumn places an existing lead on a column. The lead's pipeline
// follows the column when the column is known.
func (r *LeadRepository) MoveToColumn(ctx context.Context, leadID, columnID string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE leads
		SET column_id = ?,
			pipeline_id = COALESCE((SELECT pipeline_id FROM pipeline_columns WHERE id = ?), pipeline_id),
			updated_at = ?
		WHERE id = ?
	`, columnID, columnID, time.Now().Unix(), leadID)
	return err
}

func (r *LeadRepository) GetByID(ctx context.Context, id string) (*models.Lead, error) {
	lead := &models.Lead{}
	var contactID, pipelineID, columnID sql.NullString
	var email, phone, company, position, notes sql.NullString
	var value sql.NullFloat64
	var customJSON string

	err := r.db.QueryRowContext(ctx, `
		SELECT id, tenant_id, user_id, contact_id, name, email, phone, company, position, value, notes,
			status, priority, source, custom_fields, pipeline_id, column_id, created_at, updated_at
		FROM leads WHERE id = ?
	`, id).Scan(&lead.ID, &lead.TenantID, &lead.UserID, &contactID, &lead.Name, &email, &phone, &company, &position,
		&value, &notes, &lead.Status, &lead.Priority, &lead.Source, &customJSON, &pipelineID, &columnID,
		&lead.CreatedAt, &lead.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}

	lead.ContactID = stringPtr(contactID)
	lead.PipelineID = stringPtr(pipelineID)
	lead.ColumnID = stringPtr(columnID)
	lead.Email = email.String
	lead.Phone = phone.String
	lead.Company = company.String
	lead.Position = position.String
	lead.Notes = notes.String
	if value.Valid {
		v := value.Float64
		lead.Value = &v
	}
	if customJSON != "" {
		if err := json.Unmarshal([]byte(customJSON), &lead.CustomFields); err != nil {
			return nil, err
		}
	}
	return lead, nil
}
