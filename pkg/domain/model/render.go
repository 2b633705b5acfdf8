package model

import "github.com/secmon-lab/dynattr/pkg/domain/types"

// Control describes how a rendering surface edits a field type
type Control struct {
	Kind      types.ControlKind `json:"kind"`
	InputMode string            `json:"inputMode"`
	// HasOptions means the control offers the field's normalized options
	HasOptions bool `json:"hasOptions"`
	Multiple   bool `json:"multiple"`
	// CommitOnChange means every change is a commit; otherwise the value is
	// committed when the control loses focus.
	CommitOnChange bool `json:"commitOnChange"`
}

// ControlFor returns the control of a field type. Unknown types render as
// plain single-line text.
func ControlFor(t types.FieldType) Control {
	return specOf(t).control
}

// FieldTypeInfo pairs a field type with its control
type FieldTypeInfo struct {
	Type    types.FieldType `json:"type"`
	Control Control         `json:"control"`
}

// FieldTypeCatalog lists every field type with its control
func FieldTypeCatalog() []FieldTypeInfo {
	all := types.AllFieldTypes()
	infos := make([]FieldTypeInfo, len(all))
	for i, t := range all {
		infos[i] = FieldTypeInfo{Type: t, Control: ControlFor(t)}
	}
	return infos
}

// RenderField is what a rendering surface needs to draw one field
type RenderField struct {
	Field   FieldDefinition `json:"field"`
	Control Control         `json:"control"`
	Options []Option        `json:"options,omitempty"`
	Value   any             `json:"value"`
}

// Render binds a field definition and its current value to a control
func Render(fd *FieldDefinition, value any) RenderField {
	control := ControlFor(fd.Type)
	rf := RenderField{
		Field:   *fd,
		Control: control,
		Value:   value,
	}
	if control.HasOptions {
		rf.Options = fd.NormalizedOptions()
	}
	return rf
}
