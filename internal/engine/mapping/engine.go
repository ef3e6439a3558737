package mapping

import (
	"leadhook/internal/engine/payload"
	"leadhook/internal/platform/models"
)

const (
	defaultStatus = "new"
	defaultSource = "webhook"
)

// Defaults are the endpoint-level values every LeadData starts from.
type Defaults struct {
	Status   string
	Priority string
	Source   string
}

func DefaultsFor(ep *models.Endpoint) Defaults {
	return Defaults{
		Status:   ep.DefaultStatus,
		Priority: ep.DefaultPriority,
		Source:   ep.DefaultSource,
	}
}

func seed(d Defaults) LeadData {
	data := LeadData{
		FieldStatus:   d.Status,
		FieldPriority: NormalizePriority(d.Priority),
		FieldSource:   d.Source,
	}
	if d.Status == "" {
		data[FieldStatus] = defaultStatus
	}
	if d.Source == "" {
		data[FieldSource] = defaultSource
	}
	return data
}

// Apply runs the active mappings over doc in list order.
//
// A value that is missing, null or a blank string falls back to the mapping
// default. The first required mapping left without a value aborts with a
// *MissingFieldError. Later mappings to the same target overwrite earlier ones.
func Apply(doc payload.Value, mappings []*models.FieldMapping, defaults Defaults) (LeadData, error) {
	data := seed(defaults)

	active := 0
	for _, m := range mappings {
		if m != nil && m.IsActive {
			active++
		}
	}
	if active == 0 {
		return nil, ErrNoMappingsConfigured
	}

	for _, m := range mappings {
		if m == nil || !m.IsActive {
			continue
		}

		value, ok := resolve(doc, m)
		if !ok {
			if m.IsRequired {
				return nil, &MissingFieldError{Field: m.SourceField}
			}
			continue
		}

		if m.TargetField == FieldPriority {
			text, _ := payload.String(payload.From(value))
			value = NormalizePriority(text)
		}
		data[m.TargetField] = value
	}

	return data, nil
}

func resolve(doc payload.Value, m *models.FieldMapping) (any, bool) {
	if v, ok := payload.Resolve(doc, m.SourceField); ok && !blankString(v) {
		return v.Interface(), true
	}
	if m.DefaultValue != nil && *m.DefaultValue != "" {
		return *m.DefaultValue, true
	}
	return nil, false
}

func blankString(v payload.Value) bool {
	return v.Kind() == payload.KindString && v.IsEmpty()
}
