package mapping

import (
	"strings"

	"leadhook/internal/engine/payload"
)

// Well-known target fields.
const (
	FieldName     = "name"
	FieldEmail    = "email"
	FieldPhone    = "phone"
	FieldCompany  = "company"
	FieldPosition = "position"
	FieldValue    = "value"
	FieldNotes    = "notes"
	FieldStatus   = "status"
	FieldPriority = "priority"
	FieldSource   = "source"
)

// LeadData is the normalized record produced from one payload, keyed by
// target field name.
type LeadData map[string]any

// String returns the trimmed text of a scalar field. Missing, non-scalar and
// blank values report false.
func (d LeadData) String(field string) (string, bool) {
	v, ok := d[field]
	if !ok {
		return "", false
	}
	s, ok := payload.String(payload.From(v))
	if !ok {
		return "", false
	}
	s = strings.TrimSpace(s)
	return s, s != ""
}

// HasIdentity reports whether the record carries a name, email or phone.
func (d LeadData) HasIdentity() bool {
	for _, f := range []string{FieldPhone, FieldEmail, FieldName} {
		if _, ok := d.String(f); ok {
			return true
		}
	}
	return false
}
