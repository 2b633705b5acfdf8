package types

// ControlKind is the editing control a rendering surface uses for a field
type ControlKind string

const (
	ControlSingleLineText ControlKind = "single-line-text"
	ControlMultiLineText  ControlKind = "multi-line-text"
	ControlIntegerSpinner ControlKind = "integer-spinner"
	ControlDecimalSpinner ControlKind = "decimal-spinner"
	ControlDatePicker     ControlKind = "date-picker"
	ControlToggle         ControlKind = "toggle"
	ControlSingleChoice   ControlKind = "single-choice"
	ControlMultiChoice    ControlKind = "multi-choice"
	ControlEmailText      ControlKind = "email-text"
	ControlPhoneText      ControlKind = "phone-text"
	ControlURLText        ControlKind = "url-text"
	ControlColorPicker    ControlKind = "color-picker"
)

// String returns the string representation of the control kind
func (k ControlKind) String() string {
	return string(k)
}
