package usecase

import (
	"context"
	"errors"
	"log/slog"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/dynattr/pkg/domain/interfaces"
	"github.com/secmon-lab/dynattr/pkg/domain/model"
	"github.com/secmon-lab/dynattr/pkg/domain/types"
	"github.com/secmon-lab/dynattr/pkg/utils/logging"
)

// FieldUseCase manages field definitions
type FieldUseCase struct {
	repo interfaces.Repository
}

// NewFieldUseCase creates a new FieldUseCase instance
func NewFieldUseCase(repo interfaces.Repository) *FieldUseCase {
	return &FieldUseCase{repo: repo}
}

// FieldInput carries the editable attributes of a field definition. A nil
// Active means true on create and unchanged on update.
type FieldInput struct {
	Name            types.FieldName        `json:"name"`
	Label           string                 `json:"label"`
	Type            types.FieldType        `json:"type"`
	AppliesTo       types.Scope            `json:"appliesTo"`
	Group           string                 `json:"group"`
	Order           int                    `json:"order"`
	Required        bool                   `json:"required"`
	VisibleInList   bool                   `json:"visibleInList"`
	VisibleInDetail bool                   `json:"visibleInDetail"`
	Placeholder     string                 `json:"placeholder"`
	HelpText        string                 `json:"helpText"`
	Icon            string                 `json:"icon"`
	DefaultValue    any                    `json:"defaultValue"`
	Options         []any                  `json:"options"`
	ValidationRules *model.ValidationRules `json:"validationRules"`
	Active          *bool                  `json:"active"`
}

func (in FieldInput) apply(fd *model.FieldDefinition) {
	fd.Name = in.Name
	fd.Label = in.Label
	fd.Type = in.Type
	fd.AppliesTo = in.AppliesTo
	fd.Group = in.Group
	fd.Order = in.Order
	fd.Required = in.Required
	fd.VisibleInList = in.VisibleInList
	fd.VisibleInDetail = in.VisibleInDetail
	fd.Placeholder = in.Placeholder
	fd.HelpText = in.HelpText
	fd.Icon = in.Icon
	fd.DefaultValue = in.DefaultValue
	fd.Options = in.Options
	fd.ValidationRules = in.ValidationRules
	if in.Active != nil {
		fd.Active = *in.Active
	}
}

// FieldSaveResult is a saved definition with the configuration problems
// found while checking it
type FieldSaveResult struct {
	Field       *model.FieldDefinition `json:"field"`
	Diagnostics []model.Diagnostic     `json:"diagnostics,omitempty"`
}

// FieldFilter narrows ListFields
type FieldFilter struct {
	ActiveOnly bool
	Group      *string
}

// CreateField validates and stores a new field definition
func (uc *FieldUseCase) CreateField(ctx context.Context, input FieldInput) (*FieldSaveResult, error) {
	fd := &model.FieldDefinition{Active: true}
	input.apply(fd)

	diags, err := checkDefinition(ctx, fd)
	if err != nil {
		return nil, err
	}

	created, err := uc.repo.FieldDefinition().Create(ctx, fd)
	if err != nil {
		return nil, saveFieldError(err, fd)
	}

	logging.From(ctx).Info("field definition created",
		slog.String("id", created.ID.String()),
		slog.String("name", created.Name.String()),
		slog.String("applies_to", created.AppliesTo.String()),
	)
	return &FieldSaveResult{Field: created, Diagnostics: diags}, nil
}

// UpdateField replaces the editable attributes of an existing definition
func (uc *FieldUseCase) UpdateField(ctx context.Context, id types.FieldID, input FieldInput) (*FieldSaveResult, error) {
	fd, err := uc.repo.FieldDefinition().Get(ctx, id)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to get field definition", goerr.V(FieldIDKey, id))
	}
	input.apply(fd)

	diags, err := checkDefinition(ctx, fd)
	if err != nil {
		return nil, err
	}

	updated, err := uc.repo.FieldDefinition().Update(ctx, fd)
	if err != nil {
		return nil, saveFieldError(err, fd)
	}
	return &FieldSaveResult{Field: updated, Diagnostics: diags}, nil
}

// GetField retrieves a definition by ID
func (uc *FieldUseCase) GetField(ctx context.Context, id types.FieldID) (*model.FieldDefinition, error) {
	fd, err := uc.repo.FieldDefinition().Get(ctx, id)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to get field definition", goerr.V(FieldIDKey, id))
	}
	return fd, nil
}

// DeleteField removes a definition. Stored payload values are left alone.
func (uc *FieldUseCase) DeleteField(ctx context.Context, id types.FieldID) error {
	if err := uc.repo.FieldDefinition().Delete(ctx, id); err != nil {
		return goerr.Wrap(err, "failed to delete field definition", goerr.V(FieldIDKey, id))
	}
	return nil
}

// DeactivateField soft-deletes a definition. Its stored values are kept on
// later submissions.
func (uc *FieldUseCase) DeactivateField(ctx context.Context, id types.FieldID) (*model.FieldDefinition, error) {
	fd, err := uc.repo.FieldDefinition().Get(ctx, id)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to get field definition", goerr.V(FieldIDKey, id))
	}
	if !fd.Active {
		return fd, nil
	}

	fd.Active = false
	updated, err := uc.repo.FieldDefinition().Update(ctx, fd)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to deactivate field definition", goerr.V(FieldIDKey, id))
	}
	return updated, nil
}

// ListFields returns the definitions of a scope ordered by order, then name
func (uc *FieldUseCase) ListFields(ctx context.Context, scope types.Scope, filter FieldFilter) ([]*model.FieldDefinition, error) {
	if !scope.IsValid() {
		return nil, goerr.Wrap(ErrInvalidScope, "cannot list fields", goerr.V(ScopeKey, scope))
	}

	var opts []interfaces.ListFieldOption
	if filter.ActiveOnly {
		opts = append(opts, interfaces.WithActiveOnly())
	}
	if filter.Group != nil {
		opts = append(opts, interfaces.WithGroup(*filter.Group))
	}

	fields, err := uc.repo.FieldDefinition().List(ctx, scope, opts...)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list field definitions", goerr.V(ScopeKey, scope))
	}
	return fields, nil
}

// ListFieldsGrouped returns every definition of a scope bucketed into
// presentation groups
func (uc *FieldUseCase) ListFieldsGrouped(ctx context.Context, scope types.Scope) ([]model.Group, error) {
	fields, err := uc.ListFields(ctx, scope, FieldFilter{})
	if err != nil {
		return nil, err
	}
	return model.NormalizeGroups(model.GroupByName(derefFields(fields))), nil
}

// checkDefinition sanitizes fd in place and validates it. Definition errors
// come back as a wrapped model.FieldErrors.
func checkDefinition(ctx context.Context, fd *model.FieldDefinition) ([]model.Diagnostic, error) {
	sanitizeDefinition(fd)

	errs, diags := model.ValidateDefinition(fd)
	if errs.HasErrors() {
		return nil, goerr.Wrap(errs, "invalid field definition",
			goerr.V(model.FieldNameKey, fd.Name),
			goerr.V(ScopeKey, fd.AppliesTo))
	}

	warnDiagnostics(ctx, diags, map[types.FieldName]*model.ValidationRules{fd.Name: fd.ValidationRules})
	return diags, nil
}

func saveFieldError(err error, fd *model.FieldDefinition) error {
	if errors.Is(err, model.ErrDuplicateName) {
		var errs model.FieldErrors
		errs.Add("name", model.MsgMustBeUnique)
		return goerr.Wrap(errs, "field name already exists in scope",
			goerr.V(model.FieldNameKey, fd.Name),
			goerr.V(ScopeKey, fd.AppliesTo))
	}
	return goerr.Wrap(err, "failed to save field definition",
		goerr.V(FieldIDKey, fd.ID),
		goerr.V(model.FieldNameKey, fd.Name))
}

// warnDiagnostics logs each ignored pattern once
func warnDiagnostics(ctx context.Context, diags []model.Diagnostic, rules map[types.FieldName]*model.ValidationRules) {
	logger := logging.From(ctx)
	for _, d := range diags {
		if d.Code != model.DiagPatternIgnored {
			continue
		}
		var pattern string
		if r := rules[d.Field]; r != nil {
			pattern = r.Pattern
		}
		logger.Warn("validation pattern ignored",
			slog.String("field", d.Field.String()),
			slog.String("pattern", pattern),
			slog.String("error", d.Detail),
		)
	}
}

func derefFields(fields []*model.FieldDefinition) []model.FieldDefinition {
	out := make([]model.FieldDefinition, 0, len(fields))
	for _, fd := range fields {
		if fd != nil {
			out = append(out, *fd)
		}
	}
	return out
}
