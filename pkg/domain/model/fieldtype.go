package model

import (
	"math"
	"regexp"
	"strings"
	"time"

	"github.com/secmon-lab/dynattr/pkg/domain/types"
)

// Shape error messages
const (
	MsgValueRequired  = "Value required"
	MsgInvalidInteger = "Must be a whole number"
	MsgInvalidDecimal = "Must be a number"
	MsgInvalidBoolean = "Must be true or false"
	MsgInvalidOption  = "Select a valid option"
	MsgInvalidOptions = "Select only valid options"
	MsgInvalidList    = "Must be a list of options"
	MsgInvalidDate    = "Must be a valid date"
	MsgInvalidEmail   = "Must be a valid email address"
	MsgInvalidPhone   = "Must be a valid phone number"
	MsgInvalidURL     = "Must be a valid URL"
	MsgInvalidColor   = "Must be a hex color such as #1a2b3c"
	MsgInvalidText    = "Must be text"
	MsgInvalidFormat  = "Invalid format"
)

var (
	emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	phonePattern = regexp.MustCompile(`^[0-9()+\-\s]{6,20}$`)
	urlPattern   = regexp.MustCompile(`^([a-zA-Z][a-zA-Z0-9+.\-]*://)?([a-zA-Z0-9]([a-zA-Z0-9\-]*[a-zA-Z0-9])?\.)+[a-zA-Z0-9\-]{2,}(:[0-9]{1,5})?(/\S*)?$`)
	colorPattern = regexp.MustCompile(`^#([0-9a-fA-F]{3}|[0-9a-fA-F]{6})$`)
)

// typeSpec is the single dispatch entry of a field type: how its shape is
// checked, how accepted input is coerced into the payload and which control
// renders it.
type typeSpec struct {
	control Control
	// shape returns an error message, or "" when v has the right shape.
	// It is only called with non-empty values.
	shape func(fd *FieldDefinition, v any) string
	// coerce returns the payload value, or false to omit the field.
	coerce func(fd *FieldDefinition, v any) (any, bool)
}

var typeSpecs = map[types.FieldType]typeSpec{
	types.FieldTypeText: {
		control: Control{Kind: types.ControlSingleLineText, InputMode: "text"},
		shape:   shapeText,
		coerce:  coerceTrimmed,
	},
	types.FieldTypeLongText: {
		control: Control{Kind: types.ControlMultiLineText, InputMode: "text"},
		shape:   shapeText,
		coerce:  coerceTrimmed,
	},
	types.FieldTypeInteger: {
		control: Control{Kind: types.ControlIntegerSpinner, InputMode: "numeric", CommitOnChange: true},
		shape:   shapeInteger,
		coerce:  coerceInteger,
	},
	types.FieldTypeDecimal: {
		control: Control{Kind: types.ControlDecimalSpinner, InputMode: "decimal", CommitOnChange: true},
		shape:   shapeDecimal,
		coerce:  coerceDecimal,
	},
	types.FieldTypeDate: {
		control: Control{Kind: types.ControlDatePicker, InputMode: "none", CommitOnChange: true},
		shape:   shapeDate,
		coerce:  coerceTrimmed,
	},
	types.FieldTypeBoolean: {
		control: Control{Kind: types.ControlToggle, InputMode: "none", CommitOnChange: true},
		shape:   shapeBoolean,
		coerce:  coerceBoolean,
	},
	types.FieldTypeSelect: {
		control: Control{Kind: types.ControlSingleChoice, InputMode: "none", HasOptions: true, CommitOnChange: true},
		shape:   shapeSelect,
		coerce:  coerceSelect,
	},
	types.FieldTypeMultiSelect: {
		control: Control{Kind: types.ControlMultiChoice, InputMode: "none", HasOptions: true, Multiple: true, CommitOnChange: true},
		shape:   shapeMultiSelect,
		coerce:  coerceMultiSelect,
	},
	types.FieldTypeEmail: {
		control: Control{Kind: types.ControlEmailText, InputMode: "email"},
		shape:   shapePattern(emailPattern, MsgInvalidEmail),
		coerce:  coerceTrimmed,
	},
	types.FieldTypePhone: {
		control: Control{Kind: types.ControlPhoneText, InputMode: "tel"},
		shape:   shapePattern(phonePattern, MsgInvalidPhone),
		coerce:  coerceTrimmed,
	},
	types.FieldTypeURL: {
		control: Control{Kind: types.ControlURLText, InputMode: "url"},
		shape:   shapePattern(urlPattern, MsgInvalidURL),
		coerce:  coerceTrimmed,
	},
	types.FieldTypeColor: {
		control: Control{Kind: types.ControlColorPicker, InputMode: "none", CommitOnChange: true},
		shape:   shapePattern(colorPattern, MsgInvalidColor),
		coerce:  coerceTrimmed,
	},
}

// specOf returns the dispatch entry for t. Unknown types behave as text.
func specOf(t types.FieldType) typeSpec {
	if spec, ok := typeSpecs[t]; ok {
		return spec
	}
	return typeSpecs[types.FieldTypeText]
}

func shapeText(_ *FieldDefinition, v any) string {
	switch v.(type) {
	case string, bool, time.Time:
		return ""
	}
	if isNumber(v) {
		return ""
	}
	return MsgInvalidText
}

func shapeInteger(_ *FieldDefinition, v any) string {
	f, ok := toNumber(v)
	if !ok || !isInteger(f) {
		return MsgInvalidInteger
	}
	return ""
}

func shapeDecimal(_ *FieldDefinition, v any) string {
	f, ok := toNumber(v)
	if !ok || !isFinite(f) {
		return MsgInvalidDecimal
	}
	return ""
}

func shapeBoolean(_ *FieldDefinition, v any) string {
	if _, ok := v.(bool); !ok {
		return MsgInvalidBoolean
	}
	return ""
}

func shapeSelect(fd *FieldDefinition, v any) string {
	if _, isList := toStringSlice(v); isList {
		return MsgInvalidOption
	}
	allowed := optionValues(fd.Options)
	if len(allowed) == 0 {
		return ""
	}
	if _, ok := allowed[stringify(v)]; !ok {
		return MsgInvalidOption
	}
	return ""
}

func shapeMultiSelect(fd *FieldDefinition, v any) string {
	values, ok := toStringSlice(v)
	if !ok {
		return MsgInvalidList
	}
	allowed := optionValues(fd.Options)
	if len(allowed) == 0 {
		return ""
	}
	for _, value := range values {
		if _, ok := allowed[value]; !ok {
			return MsgInvalidOptions
		}
	}
	return ""
}

func shapeDate(_ *FieldDefinition, v any) string {
	if _, ok := parseDate(v); !ok {
		return MsgInvalidDate
	}
	return ""
}

func shapePattern(pattern *regexp.Regexp, msg string) func(*FieldDefinition, any) string {
	return func(_ *FieldDefinition, v any) string {
		s, ok := v.(string)
		if !ok || !pattern.MatchString(strings.TrimSpace(s)) {
			return msg
		}
		return ""
	}
}

func coerceTrimmed(fd *FieldDefinition, v any) (any, bool) {
	switch val := v.(type) {
	case string:
		trimmed := strings.TrimSpace(val)
		return trimmed, trimmed != ""
	case time.Time:
		if fd.Type == types.FieldTypeDate {
			return val.Format("2006-01-02"), true
		}
		return val.Format(time.RFC3339), true
	}
	return v, true
}

func coerceInteger(_ *FieldDefinition, v any) (any, bool) {
	f, ok := toNumber(v)
	if !ok || !isFinite(f) {
		return nil, false
	}
	f = math.Trunc(f)
	if math.Abs(f) > maxSafeInteger {
		return nil, false
	}
	return int64(f), true
}

func coerceDecimal(_ *FieldDefinition, v any) (any, bool) {
	f, ok := toNumber(v)
	if !ok || !isFinite(f) {
		return nil, false
	}
	return f, true
}

func coerceBoolean(_ *FieldDefinition, v any) (any, bool) {
	return truthy(v), true
}

func coerceSelect(_ *FieldDefinition, v any) (any, bool) {
	if _, isList := toStringSlice(v); isList {
		return nil, false
	}
	s := stringify(v)
	return s, strings.TrimSpace(s) != ""
}

func coerceMultiSelect(_ *FieldDefinition, v any) (any, bool) {
	values, ok := toStringSlice(v)
	if !ok || len(values) == 0 {
		return nil, false
	}
	return values, true
}
