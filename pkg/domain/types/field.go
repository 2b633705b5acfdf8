package types

import (
	"regexp"

	"github.com/google/uuid"
	"github.com/m-mizutani/goerr/v2"
)

// FieldID represents the unique identifier for a field definition
type FieldID string

// NewFieldID generates a new UUID v4 FieldID
func NewFieldID() FieldID {
	return FieldID(uuid.New().String())
}

// String returns the string representation of FieldID
func (id FieldID) String() string {
	return string(id)
}

// FieldType represents the type of a custom attribute
type FieldType string

const (
	FieldTypeText        FieldType = "text"
	FieldTypeLongText    FieldType = "longText"
	FieldTypeInteger     FieldType = "integer"
	FieldTypeDecimal     FieldType = "decimal"
	FieldTypeDate        FieldType = "date"
	FieldTypeBoolean     FieldType = "boolean"
	FieldTypeSelect      FieldType = "select"
	FieldTypeMultiSelect FieldType = "multiSelect"
	FieldTypeEmail       FieldType = "email"
	FieldTypePhone       FieldType = "phone"
	FieldTypeURL         FieldType = "url"
	FieldTypeColor       FieldType = "color"
)

// AllFieldTypes returns all valid field types
func AllFieldTypes() []FieldType {
	return []FieldType{
		FieldTypeText,
		FieldTypeLongText,
		FieldTypeInteger,
		FieldTypeDecimal,
		FieldTypeDate,
		FieldTypeBoolean,
		FieldTypeSelect,
		FieldTypeMultiSelect,
		FieldTypeEmail,
		FieldTypePhone,
		FieldTypeURL,
		FieldTypeColor,
	}
}

// IsValid checks if the field type is valid
func (t FieldType) IsValid() bool {
	switch t {
	case FieldTypeText,
		FieldTypeLongText,
		FieldTypeInteger,
		FieldTypeDecimal,
		FieldTypeDate,
		FieldTypeBoolean,
		FieldTypeSelect,
		FieldTypeMultiSelect,
		FieldTypeEmail,
		FieldTypePhone,
		FieldTypeURL,
		FieldTypeColor:
		return true
	default:
		return false
	}
}

// HasOptions reports whether values of this type are chosen from an option list
func (t FieldType) HasOptions() bool {
	return t == FieldTypeSelect || t == FieldTypeMultiSelect
}

// IsNumeric reports whether the type stores a number
func (t FieldType) IsNumeric() bool {
	return t == FieldTypeInteger || t == FieldTypeDecimal
}

// String returns the string representation of the field type
func (t FieldType) String() string {
	return string(t)
}

// ParseFieldType parses a string into a FieldType
func ParseFieldType(s string) (FieldType, error) {
	t := FieldType(s)
	if !t.IsValid() {
		return "", goerr.New("invalid field type", goerr.V("type", s))
	}
	return t, nil
}

// FieldName is the stable key of a field inside its scope and the attribute payload
type FieldName string

var fieldNamePattern = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9_]*$`)

// Validate checks if the FieldName is valid
func (n FieldName) Validate() error {
	if n == "" {
		return goerr.New("field name cannot be empty")
	}
	if !fieldNamePattern.MatchString(string(n)) {
		return goerr.New("field name must start with a letter and contain only letters, digits and underscores", goerr.V("name", n))
	}
	return nil
}

// String returns the string representation of FieldName
func (n FieldName) String() string {
	return string(n)
}
