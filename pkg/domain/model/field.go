package model

import (
	"time"

	"github.com/secmon-lab/dynattr/pkg/domain/types"
)

// ValidationRules holds optional constraints checked after the type shape
type ValidationRules struct {
	Min       *float64 `json:"min,omitempty" toml:"min,omitempty" yaml:"min,omitempty"`
	Max       *float64 `json:"max,omitempty" toml:"max,omitempty" yaml:"max,omitempty"`
	MinLength *int     `json:"minLength,omitempty" toml:"min_length,omitempty" yaml:"min_length,omitempty"`
	MaxLength *int     `json:"maxLength,omitempty" toml:"max_length,omitempty" yaml:"max_length,omitempty"`
	Pattern   string   `json:"pattern,omitempty" toml:"pattern,omitempty" yaml:"pattern,omitempty"`
}

// IsZero reports whether no rule is declared
func (r *ValidationRules) IsZero() bool {
	return r == nil || (r.Min == nil && r.Max == nil && r.MinLength == nil && r.MaxLength == nil && r.Pattern == "")
}

// Clone returns a deep copy of the rules
func (r *ValidationRules) Clone() *ValidationRules {
	if r == nil {
		return nil
	}
	copied := &ValidationRules{Pattern: r.Pattern}
	if r.Min != nil {
		v := *r.Min
		copied.Min = &v
	}
	if r.Max != nil {
		v := *r.Max
		copied.Max = &v
	}
	if r.MinLength != nil {
		v := *r.MinLength
		copied.MinLength = &v
	}
	if r.MaxLength != nil {
		v := *r.MaxLength
		copied.MaxLength = &v
	}
	return copied
}

// FieldDefinition defines one custom attribute of an entity class
type FieldDefinition struct {
	ID              types.FieldID    `json:"id"`
	Name            types.FieldName  `json:"name"`
	Label           string           `json:"label"`
	Type            types.FieldType  `json:"type"`
	AppliesTo       types.Scope      `json:"appliesTo"`
	Group           string           `json:"group,omitempty"`
	Order           int              `json:"order"`
	Required        bool             `json:"required"`
	VisibleInList   bool             `json:"visibleInList"`
	VisibleInDetail bool             `json:"visibleInDetail"`
	Placeholder     string           `json:"placeholder,omitempty"`
	HelpText        string           `json:"helpText,omitempty"`
	Icon            string           `json:"icon,omitempty"`
	DefaultValue    any              `json:"defaultValue,omitempty"`
	Options         []any            `json:"options,omitempty"`
	ValidationRules *ValidationRules `json:"validationRules,omitempty"`
	Active          bool             `json:"active"`
	CreatedAt       time.Time        `json:"createdAt"`
	UpdatedAt       time.Time        `json:"updatedAt"`
}

// NormalizedOptions returns the field's options as value/label pairs
func (fd *FieldDefinition) NormalizedOptions() []Option {
	return NormalizeOptions(fd.Options)
}

// Clone returns a deep copy of the definition. Option entries and the default
// value are copied one level deep, which covers every shape a decoder yields.
func (fd *FieldDefinition) Clone() *FieldDefinition {
	copied := *fd
	copied.DefaultValue = cloneValue(fd.DefaultValue)
	if fd.Options != nil {
		copied.Options = make([]any, len(fd.Options))
		for i, opt := range fd.Options {
			copied.Options[i] = cloneValue(opt)
		}
	}
	copied.ValidationRules = fd.ValidationRules.Clone()
	return &copied
}

func cloneValue(v any) any {
	switch val := v.(type) {
	case []string:
		out := make([]string, len(val))
		copy(out, val)
		return out
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = cloneValue(item)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			out[k] = cloneValue(item)
		}
		return out
	case map[string]string:
		out := make(map[string]string, len(val))
		for k, item := range val {
			out[k] = item
		}
		return out
	default:
		return v
	}
}

// FieldConfig is a field definition blueprint carried by a template. It is
// bound to a scope only when the template is applied.
type FieldConfig struct {
	Name            types.FieldName  `json:"name" toml:"name" yaml:"name"`
	Label           string           `json:"label" toml:"label" yaml:"label"`
	Type            types.FieldType  `json:"type" toml:"type" yaml:"type"`
	Group           string           `json:"group,omitempty" toml:"group,omitempty" yaml:"group,omitempty"`
	Order           int              `json:"order" toml:"order" yaml:"order"`
	Required        bool             `json:"required" toml:"required" yaml:"required"`
	VisibleInList   bool             `json:"visibleInList" toml:"visible_in_list" yaml:"visible_in_list"`
	VisibleInDetail bool             `json:"visibleInDetail" toml:"visible_in_detail" yaml:"visible_in_detail"`
	Placeholder     string           `json:"placeholder,omitempty" toml:"placeholder,omitempty" yaml:"placeholder,omitempty"`
	HelpText        string           `json:"helpText,omitempty" toml:"help_text,omitempty" yaml:"help_text,omitempty"`
	Icon            string           `json:"icon,omitempty" toml:"icon,omitempty" yaml:"icon,omitempty"`
	DefaultValue    any              `json:"defaultValue,omitempty" toml:"default,omitempty" yaml:"default,omitempty"`
	Options         []any            `json:"options,omitempty" toml:"options,omitempty" yaml:"options,omitempty"`
	ValidationRules *ValidationRules `json:"validationRules,omitempty" toml:"rules,omitempty" yaml:"rules,omitempty"`
}

// Definition binds the blueprint to a scope as a new active field definition
func (fc FieldConfig) Definition(scope types.Scope) *FieldDefinition {
	fd := &FieldDefinition{
		Name:            fc.Name,
		Label:           fc.Label,
		Type:            fc.Type,
		AppliesTo:       scope,
		Group:           fc.Group,
		Order:           fc.Order,
		Required:        fc.Required,
		VisibleInList:   fc.VisibleInList,
		VisibleInDetail: fc.VisibleInDetail,
		Placeholder:     fc.Placeholder,
		HelpText:        fc.HelpText,
		Icon:            fc.Icon,
		DefaultValue:    fc.DefaultValue,
		Options:         fc.Options,
		ValidationRules: fc.ValidationRules,
		Active:          true,
	}
	return fd.Clone()
}

// Template is a named, reusable bundle of field blueprints
type Template struct {
	Code         types.TemplateCode `json:"code"`
	Name         string             `json:"name"`
	Description  string             `json:"description,omitempty"`
	Industry     string             `json:"industry,omitempty"`
	Color        string             `json:"color,omitempty"`
	AppliesTo    types.Scope        `json:"appliesTo,omitempty"`
	FieldConfigs []FieldConfig      `json:"fieldConfigs"`
	Active       bool               `json:"active"`
	CreatedAt    time.Time          `json:"createdAt"`
	UpdatedAt    time.Time          `json:"updatedAt"`
}

// Clone returns a deep copy of the template
func (t *Template) Clone() *Template {
	copied := *t
	if t.FieldConfigs != nil {
		copied.FieldConfigs = make([]FieldConfig, len(t.FieldConfigs))
		for i, fc := range t.FieldConfigs {
			fc.DefaultValue = cloneValue(fc.DefaultValue)
			if fc.Options != nil {
				opts := make([]any, len(fc.Options))
				for j, opt := range fc.Options {
					opts[j] = cloneValue(opt)
				}
				fc.Options = opts
			}
			fc.ValidationRules = fc.ValidationRules.Clone()
			copied.FieldConfigs[i] = fc
		}
	}
	return &copied
}
