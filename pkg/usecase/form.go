package usecase

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/dynattr/pkg/domain/interfaces"
	"github.com/secmon-lab/dynattr/pkg/domain/model"
	"github.com/secmon-lab/dynattr/pkg/domain/types"
)

// FormUseCase assembles entity forms and turns submissions into payloads
type FormUseCase struct {
	repo interfaces.Repository
}

// NewFormUseCase creates a new FormUseCase instance
func NewFormUseCase(repo interfaces.Repository) *FormUseCase {
	return &FormUseCase{repo: repo}
}

// Form is what an editing surface needs to render a scope's attributes.
// Sections mirror Groups with each field bound to its control and value.
type Form struct {
	Groups   []model.Group         `json:"groups"`
	Values   model.AttributeValues `json:"values"`
	Sections []FormSection         `json:"sections"`
}

// FormSection is one rendered group
type FormSection struct {
	ID      string              `json:"id"`
	Title   string              `json:"title"`
	Columns int                 `json:"columns"`
	Fields  []model.RenderField `json:"fields"`
}

func renderSections(groups []model.Group, values model.AttributeValues) []FormSection {
	sections := make([]FormSection, len(groups))
	for i, g := range groups {
		fields := make([]model.RenderField, len(g.Fields))
		for j := range g.Fields {
			fd := &g.Fields[j]
			fields[j] = model.Render(fd, values[fd.Name.String()])
		}
		sections[i] = FormSection{ID: g.ID, Title: g.Title, Columns: g.Columns, Fields: fields}
	}
	return sections
}

// ValidationReport is the outcome of checking submitted values. Errors are
// data, not a failure of the call.
type ValidationReport struct {
	Errors      model.FieldErrors  `json:"errors,omitempty"`
	Diagnostics []model.Diagnostic `json:"diagnostics,omitempty"`
}

// Valid reports whether every value passed
func (r *ValidationReport) Valid() bool {
	return !r.Errors.HasErrors()
}

// SubmitResult holds the payload to persist, or the errors that prevented it
type SubmitResult struct {
	ValidationReport
	Payload model.Payload `json:"payload"`
}

// Form returns the active fields of scope grouped for presentation, with
// declared defaults filled into current
func (uc *FormUseCase) Form(ctx context.Context, scope types.Scope, current model.AttributeValues) (*Form, error) {
	fields, err := uc.fields(ctx, scope, interfaces.WithActiveOnly())
	if err != nil {
		return nil, err
	}

	values := model.ApplyDefaults(fields, current)
	if values == nil {
		values = model.AttributeValues{}
	}

	groups := model.NormalizeGroups(model.GroupByName(fields))
	return &Form{
		Groups:   groups,
		Values:   values,
		Sections: renderSections(groups, values),
	}, nil
}

// ValidateValues checks values against the active fields of scope
func (uc *FormUseCase) ValidateValues(ctx context.Context, scope types.Scope, values model.AttributeValues) (*ValidationReport, error) {
	fields, err := uc.fields(ctx, scope, interfaces.WithActiveOnly())
	if err != nil {
		return nil, err
	}
	return validateValues(ctx, fields, values), nil
}

// Submit validates values and, when all pass, builds the payload to persist.
// Stored values of inactive fields are carried over from stored.
func (uc *FormUseCase) Submit(ctx context.Context, scope types.Scope, values model.AttributeValues, stored model.Payload) (*SubmitResult, error) {
	fields, err := uc.fields(ctx, scope)
	if err != nil {
		return nil, err
	}

	result := &SubmitResult{ValidationReport: *validateValues(ctx, fields, values)}
	if !result.Valid() {
		return result, nil
	}

	payload := model.BuildPayload(fields, values)
	result.Payload = model.PreserveInactive(fields, payload, stored)
	return result, nil
}

func (uc *FormUseCase) fields(ctx context.Context, scope types.Scope, opts ...interfaces.ListFieldOption) ([]model.FieldDefinition, error) {
	if !scope.IsValid() {
		return nil, goerr.Wrap(ErrInvalidScope, "cannot build form", goerr.V(ScopeKey, scope))
	}
	fields, err := uc.repo.FieldDefinition().List(ctx, scope, opts...)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list field definitions", goerr.V(ScopeKey, scope))
	}
	return derefFields(fields), nil
}

// validateValues checks every active field. Inactive fields are skipped.
func validateValues(ctx context.Context, fields []model.FieldDefinition, values model.AttributeValues) *ValidationReport {
	report := &ValidationReport{}
	rules := make(map[types.FieldName]*model.ValidationRules)

	for i := range fields {
		fd := &fields[i]
		if !fd.Active {
			continue
		}
		result := model.ValidateField(fd, values[fd.Name.String()])
		report.Errors.Add(fd.Name.String(), result.Errors...)
		if len(result.Diagnostics) > 0 {
			report.Diagnostics = append(report.Diagnostics, result.Diagnostics...)
			rules[fd.Name] = fd.ValidationRules
		}
	}

	warnDiagnostics(ctx, report.Diagnostics, rules)
	return report
}
