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
	"golang.org/x/sync/errgroup"
)

// TemplateUseCase manages templates and applies them to scopes
type TemplateUseCase struct {
	repo        interfaces.Repository
	concurrency int
}

// NewTemplateUseCase creates a new TemplateUseCase instance. concurrency
// bounds parallel inserts in ApplyTemplate.
func NewTemplateUseCase(repo interfaces.Repository, concurrency int) *TemplateUseCase {
	if concurrency < 1 {
		concurrency = DefaultApplyConcurrency
	}
	return &TemplateUseCase{repo: repo, concurrency: concurrency}
}

// TemplateInput carries the editable attributes of a template. A nil Active
// means true on create and unchanged on update.
type TemplateInput struct {
	Code         types.TemplateCode  `json:"code"`
	Name         string              `json:"name"`
	Description  string              `json:"description"`
	Industry     string              `json:"industry"`
	Color        string              `json:"color"`
	AppliesTo    types.Scope         `json:"appliesTo"`
	FieldConfigs []model.FieldConfig `json:"fieldConfigs"`
	Active       *bool               `json:"active"`
}

func (in TemplateInput) apply(t *model.Template) {
	t.Name = in.Name
	t.Description = in.Description
	t.Industry = in.Industry
	t.Color = in.Color
	t.AppliesTo = in.AppliesTo
	t.FieldConfigs = in.FieldConfigs
	if in.Active != nil {
		t.Active = *in.Active
	}
}

// TemplateSaveResult is a saved template with the configuration problems
// found in its blueprints
type TemplateSaveResult struct {
	Template    *model.Template    `json:"template"`
	Diagnostics []model.Diagnostic `json:"diagnostics,omitempty"`
}

// TemplateFilter narrows ListTemplates
type TemplateFilter struct {
	Industry   *string
	ActiveOnly bool
}

// ApplyResult lists what ApplyTemplate inserted. Blueprints whose name was
// already taken in the scope are reported as skipped.
type ApplyResult struct {
	Code      types.TemplateCode       `json:"code"`
	AppliesTo types.Scope              `json:"appliesTo"`
	Created   []*model.FieldDefinition `json:"created"`
	Skipped   []types.FieldName        `json:"skipped"`
}

// CreateTemplate validates and stores a new template
func (uc *TemplateUseCase) CreateTemplate(ctx context.Context, input TemplateInput) (*TemplateSaveResult, error) {
	t := &model.Template{Code: input.Code, Active: true}
	input.apply(t)

	diags, err := checkTemplate(ctx, t)
	if err != nil {
		return nil, err
	}

	created, err := uc.repo.Template().Create(ctx, t)
	if err != nil {
		return nil, saveTemplateError(err, t)
	}

	logging.From(ctx).Info("template created",
		slog.String("code", created.Code.String()),
		slog.Int("fields", len(created.FieldConfigs)),
	)
	return &TemplateSaveResult{Template: created, Diagnostics: diags}, nil
}

// UpdateTemplate replaces the editable attributes of a template. The code
// cannot change.
func (uc *TemplateUseCase) UpdateTemplate(ctx context.Context, code types.TemplateCode, input TemplateInput) (*TemplateSaveResult, error) {
	t, err := uc.repo.Template().Get(ctx, code)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to get template", goerr.V(TemplateCodeKey, code))
	}
	input.apply(t)

	diags, err := checkTemplate(ctx, t)
	if err != nil {
		return nil, err
	}

	updated, err := uc.repo.Template().Update(ctx, t)
	if err != nil {
		return nil, saveTemplateError(err, t)
	}
	return &TemplateSaveResult{Template: updated, Diagnostics: diags}, nil
}

// GetTemplate retrieves a template by code
func (uc *TemplateUseCase) GetTemplate(ctx context.Context, code types.TemplateCode) (*model.Template, error) {
	t, err := uc.repo.Template().Get(ctx, code)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to get template", goerr.V(TemplateCodeKey, code))
	}
	return t, nil
}

// DeleteTemplate removes a template. Definitions it already created stay.
func (uc *TemplateUseCase) DeleteTemplate(ctx context.Context, code types.TemplateCode) error {
	if err := uc.repo.Template().Delete(ctx, code); err != nil {
		return goerr.Wrap(err, "failed to delete template", goerr.V(TemplateCodeKey, code))
	}
	return nil
}

// ListTemplates returns templates ordered by code
func (uc *TemplateUseCase) ListTemplates(ctx context.Context, filter TemplateFilter) ([]*model.Template, error) {
	var opts []interfaces.ListTemplateOption
	if filter.ActiveOnly {
		opts = append(opts, interfaces.WithActiveTemplatesOnly())
	}
	if filter.Industry != nil {
		opts = append(opts, interfaces.WithIndustry(*filter.Industry))
	}

	templates, err := uc.repo.Template().List(ctx, opts...)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list templates")
	}
	return templates, nil
}

// ApplyTemplate creates one field definition per blueprint of the template in
// scope, skipping names the scope already has. An empty scope falls back to
// the template's own applies-to. Inactive templates are reported as not found.
func (uc *TemplateUseCase) ApplyTemplate(ctx context.Context, code types.TemplateCode, scope types.Scope) (*ApplyResult, error) {
	t, err := uc.repo.Template().Get(ctx, code)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to get template", goerr.V(TemplateCodeKey, code))
	}
	if !t.Active {
		return nil, goerr.Wrap(model.ErrNotFound, "template is not active", goerr.V(TemplateCodeKey, code))
	}

	if scope == "" {
		scope = t.AppliesTo
	}
	if scope == "" {
		return nil, goerr.Wrap(model.ErrMissingScope, "template has no applies-to scope", goerr.V(TemplateCodeKey, code))
	}
	if !scope.IsValid() {
		return nil, goerr.Wrap(ErrInvalidScope, "cannot apply template",
			goerr.V(TemplateCodeKey, code),
			goerr.V(ScopeKey, scope))
	}

	inserted, err := uc.insertAll(ctx, t.FieldConfigs, scope)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to apply template",
			goerr.V(TemplateCodeKey, code),
			goerr.V(ScopeKey, scope))
	}

	result := &ApplyResult{
		Code:      t.Code,
		AppliesTo: scope,
		Created:   []*model.FieldDefinition{},
		Skipped:   []types.FieldName{},
	}
	for i, fd := range inserted {
		if fd != nil {
			result.Created = append(result.Created, fd)
		} else {
			result.Skipped = append(result.Skipped, t.FieldConfigs[i].Name)
		}
	}

	logging.From(ctx).Info("template applied",
		slog.String("code", t.Code.String()),
		slog.String("applies_to", scope.String()),
		slog.Int("created", len(result.Created)),
		slog.Int("skipped", len(result.Skipped)),
	)
	return result, nil
}

// insertAll inserts each blueprint unless its name exists in scope. The
// returned slice is index-aligned with configs; nil marks a skipped entry.
func (uc *TemplateUseCase) insertAll(ctx context.Context, configs []model.FieldConfig, scope types.Scope) ([]*model.FieldDefinition, error) {
	inserted := make([]*model.FieldDefinition, len(configs))

	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(uc.concurrency)
	for i, fc := range configs {
		eg.Go(func() error {
			fd, created, err := uc.repo.FieldDefinition().CreateIfAbsent(ctx, fc.Definition(scope))
			if err != nil {
				return goerr.Wrap(err, "failed to insert field definition", goerr.V(model.FieldNameKey, fc.Name))
			}
			if created {
				inserted[i] = fd
			}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return inserted, nil
}

// checkTemplate sanitizes t in place and validates it
func checkTemplate(ctx context.Context, t *model.Template) ([]model.Diagnostic, error) {
	sanitizeTemplate(t)

	errs, diags := model.ValidateTemplate(t)
	if errs.HasErrors() {
		return nil, goerr.Wrap(errs, "invalid template", goerr.V(TemplateCodeKey, t.Code))
	}

	warnDiagnostics(ctx, diags, templateRules(t))
	return diags, nil
}

func templateRules(t *model.Template) map[types.FieldName]*model.ValidationRules {
	rules := make(map[types.FieldName]*model.ValidationRules, len(t.FieldConfigs))
	for _, fc := range t.FieldConfigs {
		rules[fc.Name] = fc.ValidationRules
	}
	return rules
}

func saveTemplateError(err error, t *model.Template) error {
	if errors.Is(err, model.ErrDuplicateCode) {
		var errs model.FieldErrors
		errs.Add("code", model.MsgMustBeUnique)
		return goerr.Wrap(errs, "template code already exists", goerr.V(TemplateCodeKey, t.Code))
	}
	return goerr.Wrap(err, "failed to save template", goerr.V(TemplateCodeKey, t.Code))
}
