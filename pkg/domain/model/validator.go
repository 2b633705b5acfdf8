package model

import (
	"fmt"
	"regexp"
	"unicode/utf8"

	"github.com/secmon-lab/dynattr/pkg/domain/types"
)

// DiagnosticCode classifies operator-facing notes produced during validation
type DiagnosticCode string

const (
	// DiagPatternIgnored means validationRules.pattern failed to compile and
	// was treated as absent.
	DiagPatternIgnored DiagnosticCode = "pattern_ignored"
)

// Diagnostic is a configuration problem found while validating a value. It
// never makes a value invalid.
type Diagnostic struct {
	Field  types.FieldName `json:"field"`
	Code   DiagnosticCode  `json:"code"`
	Detail string          `json:"detail"`
}

// ValidationResult holds the outcome of validating one value
type ValidationResult struct {
	Errors      []string
	Diagnostics []Diagnostic
}

// Valid reports whether no error message was produced
func (r ValidationResult) Valid() bool {
	return len(r.Errors) == 0
}

func (r *ValidationResult) addError(msg string) {
	for _, existing := range r.Errors {
		if existing == msg {
			return
		}
	}
	r.Errors = append(r.Errors, msg)
}

// Validate checks value against the field definition and returns the ordered,
// distinct error messages. An empty result means the value is valid.
func Validate(fd *FieldDefinition, value any) []string {
	return ValidateField(fd, value).Errors
}

// ValidateField is Validate with operator diagnostics attached
func ValidateField(fd *FieldDefinition, value any) ValidationResult {
	var result ValidationResult

	if IsEmpty(value) {
		if fd.Required && !isExplicitFalse(fd, value) {
			result.addError(MsgValueRequired)
		}
		return result
	}

	if msg := specOf(fd.Type).shape(fd, value); msg != "" {
		result.addError(msg)
	}

	checkRules(fd, value, &result)
	return result
}

// isExplicitFalse reports whether a boolean field holds false, which answers a
// required checkbox.
func isExplicitFalse(fd *FieldDefinition, value any) bool {
	if fd.Type != types.FieldTypeBoolean {
		return false
	}
	b, ok := value.(bool)
	return ok && !b
}

func checkRules(fd *FieldDefinition, value any, result *ValidationResult) {
	rules := fd.ValidationRules
	if rules.IsZero() {
		return
	}

	if list, ok := toStringSlice(value); ok {
		checkSelectionCount(rules, len(list), result)
		return
	}

	if n, ok := numericValue(fd, value); ok {
		if rules.Min != nil && n < *rules.Min {
			result.addError(fmt.Sprintf("Must be at least %s", formatNumber(*rules.Min)))
		}
		if rules.Max != nil && n > *rules.Max {
			result.addError(fmt.Sprintf("Must be at most %s", formatNumber(*rules.Max)))
		}
	}

	if s, ok := value.(string); ok {
		checkString(fd, rules, s, result)
	}
}

// numericValue returns the number carried by value: any Go number, or a
// numeric string submitted to an integer/decimal field.
func numericValue(fd *FieldDefinition, value any) (float64, bool) {
	if isNumber(value) {
		return toNumber(value)
	}
	if fd.Type.IsNumeric() {
		if n, ok := toNumber(value); ok && isFinite(n) {
			return n, true
		}
	}
	return 0, false
}

func checkString(fd *FieldDefinition, rules *ValidationRules, s string, result *ValidationResult) {
	length := utf8.RuneCountInString(s)
	if rules.MinLength != nil && length < *rules.MinLength {
		result.addError(fmt.Sprintf("Must be at least %d characters", *rules.MinLength))
	}
	if rules.MaxLength != nil && length > *rules.MaxLength {
		result.addError(fmt.Sprintf("Must be at most %d characters", *rules.MaxLength))
	}

	if rules.Pattern == "" {
		return
	}
	re, err := regexp.Compile(rules.Pattern)
	if err != nil {
		result.Diagnostics = append(result.Diagnostics, Diagnostic{
			Field:  fd.Name,
			Code:   DiagPatternIgnored,
			Detail: err.Error(),
		})
		return
	}
	if !re.MatchString(s) {
		result.addError(MsgInvalidFormat)
	}
}

func checkSelectionCount(rules *ValidationRules, count int, result *ValidationResult) {
	if rules.MinLength != nil && count < *rules.MinLength {
		result.addError(fmt.Sprintf("Select at least %d %s", *rules.MinLength, pluralOption(*rules.MinLength)))
	}
	if rules.MaxLength != nil && count > *rules.MaxLength {
		result.addError(fmt.Sprintf("Select at most %d %s", *rules.MaxLength, pluralOption(*rules.MaxLength)))
	}
}

func pluralOption(n int) string {
	if n == 1 {
		return "option"
	}
	return "options"
}

// PatternDiagnostic reports whether the field's pattern rule fails to compile.
// It lets definition editors surface the problem before any value is checked.
func PatternDiagnostic(fd *FieldDefinition) (Diagnostic, bool) {
	return patternDiagnostic(fd.Name, fd.ValidationRules)
}

func patternDiagnostic(name types.FieldName, rules *ValidationRules) (Diagnostic, bool) {
	if rules == nil || rules.Pattern == "" {
		return Diagnostic{}, false
	}
	if _, err := regexp.Compile(rules.Pattern); err != nil {
		return Diagnostic{Field: name, Code: DiagPatternIgnored, Detail: err.Error()}, true
	}
	return Diagnostic{}, false
}
