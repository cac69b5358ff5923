package zone

import (
	"fmt"

	"github.com/evanofslack/clouddns-console/internal/provider"
)

// ValidationError reports malformed input. It is always returned before any
// call reaches the provider.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

func invalid(field, format string, args ...any) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// PartialError is returned when duplication fails after the target domain
// was created. Target exists at the provider and holds whatever records were
// submitted before the failure.
type PartialError struct {
	Target provider.Domain
	Stage  string
	Err    error
}

func (e *PartialError) Error() string {
	return fmt.Sprintf("duplicate onto %s failed at %s, domain was created but records may be missing: %v", e.Target.Name, e.Stage, e.Err)
}

func (e *PartialError) Unwrap() error {
	return e.Err
}
