package contacts

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"leadhook/internal/engine/mapping"
	"leadhook/internal/platform/models"
)

const SourceWebhook = "webhook"

// Store is the contact persistence needed for find-or-create. Lookups return
// "" with a nil error when nothing matches.
type Store interface {
	FindByPhone(ctx context.Context, tenantID, phone string) (string, error)
	FindByEmail(ctx context.Context, tenantID, email string) (string, error)
	Create(ctx context.Context, contact *models.Contact) error
}

type Resolver struct {
	store Store
	now   func() time.Time
}

func NewResolver(store Store) *Resolver {
	return &Resolver{store: store, now: time.Now}
}

// Resolve finds the tenant contact matching the lead's phone, then its email,
// and creates one when neither matches. It returns "" without error when the
// lead carries no name, email or phone.
//
// Matching is exact and there is no uniqueness constraint behind it, so two
// concurrent deliveries for the same person can both create a contact.
func (r *Resolver) Resolve(ctx context.Context, tenantID string, data mapping.LeadData) (string, error) {
	if !data.HasIdentity() {
		return "", nil
	}

	name, _ := data.String(mapping.FieldName)
	email, hasEmail := data.String(mapping.FieldEmail)
	phone, hasPhone := data.String(mapping.FieldPhone)

	if hasPhone {
		id, err := r.store.FindByPhone(ctx, tenantID, phone)
		if err != nil {
			return "", fmt.Errorf("find contact by phone: %w", err)
		}
		if id != "" {
			log.Debug().Str("tenant_id", tenantID).Str("contact_id", id).Msg("contact matched by phone")
			return id, nil
		}
	}

	if hasEmail {
		id, err := r.store.FindByEmail(ctx, tenantID, email)
		if err != nil {
			return "", fmt.Errorf("find contact by email: %w", err)
		}
		if id != "" {
			log.Debug().Str("tenant_id", tenantID).Str("contact_id", id).Msg("contact matched by email")
			return id, nil
		}
	}

	now := r.now().Unix()
	contact := &models.Contact{
		ID:        "ct_" + uuid.New().String(),
		TenantID:  tenantID,
		Name:      displayName(name, email, phone),
		Email:     email,
		Phone:     phone,
		Source:    SourceWebhook,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := r.store.Create(ctx, contact); err != nil {
		return "", fmt.Errorf("create contact: %w", err)
	}

	log.Info().Str("tenant_id", tenantID).Str("contact_id", contact.ID).Msg("contact created from webhook")
	return contact.ID, nil
}

func displayName(name, email, phone string) string {
	switch {
	case name != "":
		return name
	case email != "":
		return email
	default:
		return phone
	}
}
