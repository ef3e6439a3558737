package mapping

import (
	"errors"
	"fmt"
)

// ErrNoMappingsConfigured is returned when an endpoint has no active field
// mappings; a lead is never synthesized from an unmapped payload.
var ErrNoMappingsConfigured = errors.New("no field mappings configured")

// MissingFieldError reports the first required source field that resolved to
// nothing and had no default.
type MissingFieldError struct {
	Field string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("required field %q is missing", e.Field)
}
