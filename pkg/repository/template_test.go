package repository_test

import (
	"context"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/dynattr/pkg/domain/interfaces"
	"github.com/secmon-lab/dynattr/pkg/domain/model"
	"github.com/secmon-lab/dynattr/pkg/domain/types"
)

func newTemplate(code, industry string, active bool) *model.Template {
	return &model.Template{
		Code:      types.TemplateCode(code),
		Name:      "Template " + code,
		Industry:  industry,
		AppliesTo: types.ScopeProduct,
		Active:    active,
		FieldConfigs: []model.FieldConfig{
			{Name: "lote", Label: "Lote", Type: types.FieldTypeText, Required: true, Order: 1},
			{
				Name:            "temperatura",
				Label:           "Temperatura",
				Type:            types.FieldTypeDecimal,
				Order:           2,
				ValidationRules: &model.ValidationRules{Min: ptr(-20.0), Max: ptr(8.0)},
			},
		},
	}
}

func templateCodes(templates []*model.Template) []string {
	codes := make([]string, len(templates))
	for i, tmpl := range templates {
		codes[i] = string(tmpl.Code)
	}
	return codes
}

func runTemplateRepositoryTest(t *testing.T, newRepo func(t *testing.T) interfaces.Repository) {
	t.Helper()

	t.Run("Create and Get", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		created, err := repo.Template().Create(ctx, newTemplate("farmacia", "salud", true))
		gt.NoError(t, err).Required()
		gt.Bool(t, created.CreatedAt.IsZero()).False()

		got, err := repo.Template().Get(ctx, "farmacia")
		gt.NoError(t, err).Required()
		gt.Value(t, got.Name).Equal("Template farmacia")
		gt.Value(t, got.AppliesTo).Equal(types.ScopeProduct)
		gt.Array(t, got.FieldConfigs).Length(2).Required()
		gt.Value(t, got.FieldConfigs[0].Name).Equal(types.FieldName("lote"))
		gt.Bool(t, got.FieldConfigs[0].Required).True()
		gt.Value(t, *got.FieldConfigs[1].ValidationRules.Max).Equal(8.0)
	})

	t.Run("Create rejects duplicate code", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		_, err := repo.Template().Create(ctx, newTemplate("moda", "retail", true))
		gt.NoError(t, err).Required()

		_, err = repo.Template().Create(ctx, newTemplate("moda", "retail", true))
		gt.Error(t, err).Is(model.ErrDuplicateCode)
	})

	t.Run("Get returns ErrNotFound", func(t *testing.T) {
		repo := newRepo(t)
		_, err := repo.Template().Get(context.Background(), "missing")
		gt.Error(t, err).Is(model.ErrNotFound)
	})

	t.Run("List filters and orders by code", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		for _, tmpl := range []*model.Template{
			newTemplate("textil", "retail", true),
			newTemplate("alimentos", "retail", false),
			newTemplate("farmacia", "salud", true),
		} {
			_, err := repo.Template().Create(ctx, tmpl)
			gt.NoError(t, err).Required()
		}

		all, err := repo.Template().List(ctx)
		gt.NoError(t, err).Required()
		gt.Value(t, templateCodes(all)).Equal([]string{"alimentos", "farmacia", "textil"})

		active, err := repo.Template().List(ctx, interfaces.WithActiveTemplatesOnly())
		gt.NoError(t, err).Required()
		gt.Value(t, templateCodes(active)).Equal([]string{"farmacia", "textil"})

		retail, err := repo.Template().List(ctx, interfaces.WithIndustry("retail"))
		gt.NoError(t, err).Required()
		gt.Value(t, templateCodes(retail)).Equal([]string{"alimentos", "textil"})
	})

	t.Run("Update", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		created, err := repo.Template().Create(ctx, newTemplate("ferreteria", "retail", true))
		gt.NoError(t, err).Required()

		created.Name = "Ferretería"
		created.FieldConfigs = created.FieldConfigs[:1]
		updated, err := repo.Template().Update(ctx, created)
		gt.NoError(t, err).Required()
		gt.Value(t, updated.CreatedAt.Unix()).Equal(created.CreatedAt.Unix())

		got, err := repo.Template().Get(ctx, "ferreteria")
		gt.NoError(t, err).Required()
		gt.Value(t, got.Name).Equal("Ferretería")
		gt.Array(t, got.FieldConfigs).Length(1)

		_, err = repo.Template().Update(ctx, newTemplate("nope", "", true))
		gt.Error(t, err).Is(model.ErrNotFound)
	})

	t.Run("Put creates then replaces", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		first, err := repo.Template().Put(ctx, newTemplate("libreria", "retail", true))
		gt.NoError(t, err).Required()

		next := newTemplate("libreria", "educacion", false)
		second, err := repo.Template().Put(ctx, next)
		gt.NoError(t, err).Required()
		gt.Value(t, second.CreatedAt.Unix()).Equal(first.CreatedAt.Unix())

		got, err := repo.Template().Get(ctx, "libreria")
		gt.NoError(t, err).Required()
		gt.Value(t, got.Industry).Equal("educacion")
		gt.Bool(t, got.Active).False()
	})

	t.Run("Delete", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		_, err := repo.Template().Create(ctx, newTemplate("temporal", "", true))
		gt.NoError(t, err).Required()

		gt.NoError(t, repo.Template().Delete(ctx, "temporal")).Required()
		_, err = repo.Template().Get(ctx, "temporal")
		gt.Error(t, err).Is(model.ErrNotFound)
		gt.Error(t, repo.Template().Delete(ctx, "temporal")).Is(model.ErrNotFound)
	})
}
