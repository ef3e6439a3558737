package webhooks

import (
	"context"
	"fmt"
	"math"
	"strconv"

	"github.com/rs/zerolog/log"
	"leadhook/internal/engine/contacts"
	"leadhook/internal/engine/mapping"
	"leadhook/internal/platform/models"
)

type UserStore interface {
	FindAdminUser(ctx context.Context, tenantID string) (*models.User, error)
}

type LeadStore interface {
	Create(ctx context.Context, lead *models.Lead) error
	MoveToColumn(ctx context.Context, leadID, columnID string) error
}

// LocalExecutor creates the lead against the local store: admin owner lookup,
// contact find-or-create, lead insert, then column placement.
type LocalExecutor struct {
	users    UserStore
	contacts *contacts.Resolver
	leads    LeadStore
}

func NewLocalExecutor(users UserStore, resolver *contacts.Resolver, leads LeadStore) *LocalExecutor {
	return &LocalExecutor{users: users, contacts: resolver, leads: leads}
}

func (e *LocalExecutor) Execute(ctx context.Context, job *Job) (*Outcome, error) {
	ep := job.Endpoint

	owner, err := e.users.FindAdminUser(ctx, ep.TenantID)
	if err != nil {
		return nil, fmt.Errorf("find admin user: %w", err)
	}
	if owner == nil {
		return nil, ErrNoAdminUser
	}

	contactID, err := e.contacts.Resolve(ctx, ep.TenantID, job.LeadData)
	if err != nil {
		return nil, &DownstreamWriteError{Op: "resolve contact", Err: err}
	}

	lead := buildLead(job.LeadData)
	lead.TenantID = ep.TenantID
	lead.UserID = owner.ID
	lead.PipelineID = ep.PipelineID
	if contactID != "" {
		lead.ContactID = &contactID
	}

	if err := e.leads.Create(ctx, lead); err != nil {
		return nil, &DownstreamWriteError{Op: "create lead", Err: err}
	}

	out := &Outcome{LeadID: lead.ID, ContactID: contactID}
	if ep.PipelineID != nil {
		out.PipelineID = *ep.PipelineID
	}

	if column := PickColumn(ep); column != "" {
		if err := e.leads.MoveToColumn(ctx, lead.ID, column); err != nil {
			log.Warn().Err(err).Str("lead_id", lead.ID).Str("column_id", column).Msg("failed to place lead on pipeline column")
		} else {
			out.ColumnID = column
		}
	}

	return out, nil
}

var leadColumns = map[string]bool{
	mapping.FieldName:     true,
	mapping.FieldEmail:    true,
	mapping.FieldPhone:    true,
	mapping.FieldCompany:  true,
	mapping.FieldPosition: true,
	mapping.FieldValue:    true,
	mapping.FieldNotes:    true,
	mapping.FieldStatus:   true,
	mapping.FieldPriority: true,
	mapping.FieldSource:   true,
}

// buildLead copies well-known fields to lead columns and everything else to
// custom fields.
func buildLead(data mapping.LeadData) *models.Lead {
	text := func(field string) string {
		s, _ := data.String(field)
		return s
	}

	lead := &models.Lead{
		Name:     text(mapping.FieldName),
		Email:    text(mapping.FieldEmail),
		Phone:    text(mapping.FieldPhone),
		Company:  text(mapping.FieldCompany),
		Position: text(mapping.FieldPosition),
		Notes:    text(mapping.FieldNotes),
		Status:   text(mapping.FieldStatus),
		Priority: mapping.NormalizePriority(text(mapping.FieldPriority)),
		Source:   text(mapping.FieldSource),
	}
	if lead.Name == "" {
		lead.Name = firstNonEmpty(lead.Email, lead.Phone, "Webhook lead")
	}

	custom := map[string]any{}
	for k, v := range data {
		if !leadColumns[k] {
			custom[k] = v
		}
	}

	if raw, ok := data.String(mapping.FieldValue); ok {
		if v, err := strconv.ParseFloat(raw, 64); err == nil && !math.IsNaN(v) && !math.IsInf(v, 0) {
			lead.Value = &v
		} else {
			custom[mapping.FieldValue] = data[mapping.FieldValue]
		}
	}

	if len(custom) > 0 {
		lead.CustomFields = custom
	}
	return lead
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
