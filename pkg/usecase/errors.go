package usecase

import "github.com/m-mizutani/goerr/v2"

// Sentinel errors for use case layer
var (
	// ErrInvalidScope is returned when an applies-to value is not a known scope
	ErrInvalidScope = goerr.New("invalid applies-to scope")
)

// Context keys for error values
const (
	FieldIDKey      = "field_id"
	TemplateCodeKey = "template_code"
	ScopeKey        = "applies_to"
)
