package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/dynattr/pkg/domain/interfaces"
	"github.com/secmon-lab/dynattr/pkg/domain/model"
	"github.com/secmon-lab/dynattr/pkg/domain/types"
	"github.com/secmon-lab/dynattr/pkg/service/catalog"
	"github.com/secmon-lab/dynattr/pkg/utils/logging"
)

// CatalogUseCase loads declarative catalogs into the repository
type CatalogUseCase struct {
	repo interfaces.Repository
}

// NewCatalogUseCase creates a new CatalogUseCase instance
func NewCatalogUseCase(repo interfaces.Repository) *CatalogUseCase {
	return &CatalogUseCase{repo: repo}
}

// SyncResult counts what a catalog sync changed
type SyncResult struct {
	TemplatesCreated int                `json:"templatesCreated"`
	TemplatesUpdated int                `json:"templatesUpdated"`
	FieldsCreated    int                `json:"fieldsCreated"`
	FieldsSkipped    int                `json:"fieldsSkipped"`
	Diagnostics      []model.Diagnostic `json:"diagnostics,omitempty"`
}

// CatalogReport is the outcome of checking a catalog without touching the
// repository
type CatalogReport struct {
	Errors      model.FieldErrors
	Diagnostics []model.Diagnostic
	Templates   []*model.Template
	Fields      []*model.FieldDefinition
}

// ValidateCatalog sanitizes and checks every entry of c. Error keys are
// prefixed with the entry they belong to, e.g. "template[retail].name" or
// "field[product.expiry].type".
func ValidateCatalog(c *catalog.Catalog) *CatalogReport {
	report := &CatalogReport{}

	codes := make(map[types.TemplateCode]bool, len(c.Templates))
	for i, entry := range c.Templates {
		t := entry.Template()
		sanitizeTemplate(t)

		prefix := fmt.Sprintf("template[%s].", entryKey(string(t.Code), i))
		errs, diags := model.ValidateTemplate(t)
		if t.Code != "" && codes[t.Code] {
			errs.Add("code", model.MsgMustBeUnique)
		}
		codes[t.Code] = true

		report.Errors.Merge(prefix, errs)
		report.Diagnostics = append(report.Diagnostics, diags...)
		report.Templates = append(report.Templates, t)
	}

	type scopedName struct {
		scope types.Scope
		name  types.FieldName
	}
	names := make(map[scopedName]bool, len(c.Fields))
	for i, entry := range c.Fields {
		fd := entry.Definition()
		sanitizeDefinition(fd)

		prefix := fmt.Sprintf("field[%s].", entryKey(fmt.Sprintf("%s.%s", fd.AppliesTo, fd.Name), i))
		errs, diags := model.ValidateDefinition(fd)
		key := scopedName{scope: fd.AppliesTo, name: fd.Name}
		if fd.Name != "" && names[key] {
			errs.Add("name", model.MsgMustBeUnique)
		}
		names[key] = true

		report.Errors.Merge(prefix, errs)
		report.Diagnostics = append(report.Diagnostics, diags...)
		report.Fields = append(report.Fields, fd)
	}

	return report
}

func entryKey(key string, index int) string {
	if key == "" || key == "." {
		return fmt.Sprintf("#%d", index)
	}
	return key
}

// SyncCatalog upserts the templates of c by code and inserts its fields
// unless their name exists in scope. Nothing is written when any entry is
// invalid.
func (uc *CatalogUseCase) SyncCatalog(ctx context.Context, c *catalog.Catalog) (*SyncResult, error) {
	report := ValidateCatalog(c)
	if report.Errors.HasErrors() {
		return nil, goerr.Wrap(report.Errors, "invalid catalog")
	}

	rules := make(map[types.FieldName]*model.ValidationRules)
	for _, t := range report.Templates {
		for name, r := range templateRules(t) {
			rules[name] = r
		}
	}
	for _, fd := range report.Fields {
		rules[fd.Name] = fd.ValidationRules
	}
	warnDiagnostics(ctx, report.Diagnostics, rules)

	result := &SyncResult{Diagnostics: report.Diagnostics}

	for _, t := range report.Templates {
		_, err := uc.repo.Template().Get(ctx, t.Code)
		exists := err == nil
		if err != nil && !errors.Is(err, model.ErrNotFound) {
			return nil, goerr.Wrap(err, "failed to look up template", goerr.V(TemplateCodeKey, t.Code))
		}

		if _, err := uc.repo.Template().Put(ctx, t); err != nil {
			return nil, goerr.Wrap(err, "failed to store template", goerr.V(TemplateCodeKey, t.Code))
		}
		if exists {
			result.TemplatesUpdated++
		} else {
			result.TemplatesCreated++
		}
	}

	for _, fd := range report.Fields {
		_, created, err := uc.repo.FieldDefinition().CreateIfAbsent(ctx, fd)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to insert field definition",
				goerr.V(model.FieldNameKey, fd.Name),
				goerr.V(ScopeKey, fd.AppliesTo))
		}
		if created {
			result.FieldsCreated++
		} else {
			result.FieldsSkipped++
		}
	}

	logging.From(ctx).Info("catalog applied",
		slog.Int("templates_created", result.TemplatesCreated),
		slog.Int("templates_updated", result.TemplatesUpdated),
		slog.Int("fields_created", result.FieldsCreated),
		slog.Int("fields_skipped", result.FieldsSkipped),
	)
	return result, nil
}
