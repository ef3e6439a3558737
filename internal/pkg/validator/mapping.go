package validator

import (
	"errors"
	"fmt"
	"strings"

	"leadhook/internal/engine/payload"
	"leadhook/internal/platform/models"
)

// ValidateMappings checks an ordered mapping list before it replaces the
// stored one.
func ValidateMappings(mappings []*models.FieldMapping) error {
	if len(mappings) == 0 {
		return errors.New("at least one mapping is required")
	}

	for i, m := range mappings {
		if m == nil {
			return fmt.Errorf("mapping %d: is empty", i)
		}
		m.SourceField = strings.TrimSpace(m.SourceField)
		m.TargetField = strings.TrimSpace(m.TargetField)

		if !payload.ValidPath(m.SourceField) {
			return fmt.Errorf("mapping %d: source_field %q is not a valid dotted path", i, m.SourceField)
		}
		if m.TargetField == "" {
			return fmt.Errorf("mapping %d: target_field is required", i)
		}
		if strings.Contains(m.TargetField, ".") {
			return fmt.Errorf("mapping %d: target_field %q must be a plain field name", i, m.TargetField)
		}
	}
	return nil
}

// ValidateEndpoint checks the user-editable endpoint attributes.
func ValidateEndpoint(ep *models.Endpoint) error {
	if strings.TrimSpace(ep.Name) == "" {
		return errors.New("name is required")
	}
	if !ep.Mode.Valid() {
		return fmt.Errorf("mode must be %q or %q", models.ModeMapping, models.ModeActive)
	}
	if ep.DefaultColumnID != nil && ep.PipelineID == nil {
		return errors.New("default_column_id requires pipeline_id")
	}
	return nil
}
