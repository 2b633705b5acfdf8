package model

import (
	"fmt"
	"strings"

	"github.com/secmon-lab/dynattr/pkg/domain/types"
)

// ValidateDefinition checks a field definition before it is saved. Problems
// are keyed by attribute name. An uncompilable pattern is not an error; it is
// reported as a diagnostic and the rule is ignored at validation time.
func ValidateDefinition(fd *FieldDefinition) (FieldErrors, []Diagnostic) {
	var errs FieldErrors
	var diags []Diagnostic

	if !fd.AppliesTo.IsValid() {
		errs.Add("appliesTo", fmt.Sprintf("must be one of %s", joinScopes()))
	}

	checkBlueprint(blueprintOf(fd), &errs)

	if d, ok := PatternDiagnostic(fd); ok {
		diags = append(diags, d)
	}
	return errs, diags
}

// ValidateTemplate checks a template and each of its field blueprints
func ValidateTemplate(t *Template) (FieldErrors, []Diagnostic) {
	var errs FieldErrors
	var diags []Diagnostic

	if err := t.Code.Validate(); err != nil {
		if t.Code == "" {
			errs.Add("code", MsgRequired)
		} else {
			errs.Add("code", "must be lowercase letters, digits, hyphens or underscores")
		}
	}
	if strings.TrimSpace(t.Name) == "" {
		errs.Add("name", MsgRequired)
	}
	if t.AppliesTo != "" && !t.AppliesTo.IsValid() {
		errs.Add("appliesTo", fmt.Sprintf("must be one of %s", joinScopes()))
	}

	seen := make(map[types.FieldName]bool, len(t.FieldConfigs))
	for i, fc := range t.FieldConfigs {
		prefix := fmt.Sprintf("fieldConfigs[%d].", i)
		var fieldErrs FieldErrors
		checkBlueprint(blueprint(fc), &fieldErrs)
		if fc.Name != "" {
			if seen[fc.Name] {
				fieldErrs.Add("name", MsgMustBeUnique)
			}
			seen[fc.Name] = true
		}
		errs.Merge(prefix, fieldErrs)

		if d, ok := patternDiagnostic(fc.Name, fc.ValidationRules); ok {
			diags = append(diags, d)
		}
	}

	return errs, diags
}

// blueprint is the scope-independent part shared by FieldDefinition and
// FieldConfig.
type blueprint FieldConfig

func blueprintOf(fd *FieldDefinition) blueprint {
	return blueprint{
		Name:            fd.Name,
		Label:           fd.Label,
		Type:            fd.Type,
		Group:           fd.Group,
		Order:           fd.Order,
		Required:        fd.Required,
		DefaultValue:    fd.DefaultValue,
		Options:         fd.Options,
		ValidationRules: fd.ValidationRules,
	}
}

func checkBlueprint(bp blueprint, errs *FieldErrors) {
	if bp.Name == "" {
		errs.Add("name", MsgRequired)
	} else if err := bp.Name.Validate(); err != nil {
		errs.Add("name", "must start with a letter and contain only letters, digits and underscores")
	}

	if strings.TrimSpace(bp.Label) == "" {
		errs.Add("label", MsgRequired)
	}

	if !bp.Type.IsValid() {
		errs.Add("type", fmt.Sprintf("must be one of %s", joinTypes()))
		return
	}

	if len(bp.Options) > 0 && !bp.Type.HasOptions() {
		errs.Add("options", "are only allowed for select and multiSelect fields")
	}

	checkRulesConsistency(bp.ValidationRules, errs)

	if bp.DefaultValue != nil {
		probe := &FieldDefinition{
			Name:            bp.Name,
			Type:            bp.Type,
			Options:         bp.Options,
			ValidationRules: bp.ValidationRules,
		}
		for _, msg := range Validate(probe, bp.DefaultValue) {
			errs.Add("defaultValue", msg)
		}
	}
}

func checkRulesConsistency(rules *ValidationRules, errs *FieldErrors) {
	if rules == nil {
		return
	}
	if rules.Min != nil && rules.Max != nil && *rules.Min > *rules.Max {
		errs.Add("validationRules.min", "must not be greater than max")
	}
	if rules.MinLength != nil && *rules.MinLength < 0 {
		errs.Add("validationRules.minLength", "must not be negative")
	}
	if rules.MaxLength != nil && *rules.MaxLength < 0 {
		errs.Add("validationRules.maxLength", "must not be negative")
	}
	if rules.MinLength != nil && rules.MaxLength != nil && *rules.MinLength > *rules.MaxLength {
		errs.Add("validationRules.minLength", "must not be greater than maxLength")
	}
}

func joinTypes() string {
	all := types.AllFieldTypes()
	names := make([]string, len(all))
	for i, t := range all {
		names[i] = t.String()
	}
	return strings.Join(names, ", ")
}

func joinScopes() string {
	all := types.AllScopes()
	names := make([]string, len(all))
	for i, s := range all {
		names[i] = s.String()
	}
	return strings.Join(names, ", ")
}
