package model

import (
	"encoding/json"
	"strings"

	"github.com/m-mizutani/goerr/v2"
)

// Domain errors
var (
	ErrNotFound          = goerr.New("not found")
	ErrDuplicateName     = goerr.New("field name already exists in scope")
	ErrDuplicateCode     = goerr.New("template code already exists")
	ErrInvalidDefinition = goerr.New("invalid definition")
	ErrMissingScope      = goerr.New("applies-to scope is required")
	ErrInvalidTemplate   = goerr.New("invalid template")
)

// Context keys for error values
const (
	FieldIDKey      = "field_id"
	FieldNameKey    = "field_name"
	ScopeKey        = "applies_to"
	TemplateCodeKey = "template_code"
)

// Messages shared by definition validation and repository conflicts
const (
	MsgMustBeUnique = "must be unique"
	MsgRequired     = "is required"
)

// FieldError holds the messages reported for one attribute
type FieldError struct {
	Field    string   `json:"field"`
	Messages []string `json:"messages"`
}

// FieldErrors is an ordered list of per-attribute validation messages. It is
// returned as data and also satisfies error so it can travel through goerr.
type FieldErrors []FieldError

// Add appends msg to field, keeping first-seen field order and skipping
// duplicate messages.
func (e *FieldErrors) Add(field string, msgs ...string) {
	for _, msg := range msgs {
		e.add(field, msg)
	}
}

func (e *FieldErrors) add(field, msg string) {
	for i := range *e {
		if (*e)[i].Field != field {
			continue
		}
		for _, existing := range (*e)[i].Messages {
			if existing == msg {
				return
			}
		}
		(*e)[i].Messages = append((*e)[i].Messages, msg)
		return
	}
	*e = append(*e, FieldError{Field: field, Messages: []string{msg}})
}

// Merge appends all messages of other, prefixing field keys with prefix
func (e *FieldErrors) Merge(prefix string, other FieldErrors) {
	for _, fe := range other {
		e.Add(prefix+fe.Field, fe.Messages...)
	}
}

// HasErrors reports whether any message was recorded
func (e FieldErrors) HasErrors() bool {
	return len(e) > 0
}

// Get returns the messages recorded for field
func (e FieldErrors) Get(field string) []string {
	for _, fe := range e {
		if fe.Field == field {
			return fe.Messages
		}
	}
	return nil
}

// Error renders one "field: message" line per message
func (e FieldErrors) Error() string {
	var lines []string
	for _, fe := range e {
		for _, msg := range fe.Messages {
			lines = append(lines, fe.Field+": "+msg)
		}
	}
	return strings.Join(lines, "\n")
}

// MarshalJSON encodes the errors as an object keyed by field name
func (e FieldErrors) MarshalJSON() ([]byte, error) {
	m := make(map[string][]string, len(e))
	for _, fe := range e {
		m[fe.Field] = fe.Messages
	}
	return json.Marshal(m)
}

// Is lets errors.Is match ErrInvalidDefinition through wrapped FieldErrors
func (e FieldErrors) Is(target error) bool {
	return target == ErrInvalidDefinition
}
