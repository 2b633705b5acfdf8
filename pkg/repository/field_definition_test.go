package repository_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/dynattr/pkg/domain/interfaces"
	"github.com/secmon-lab/dynattr/pkg/domain/model"
	"github.com/secmon-lab/dynattr/pkg/domain/types"
)

func newDefinition(scope types.Scope, name string, order int) *model.FieldDefinition {
	return &model.FieldDefinition{
		Name:      types.FieldName(name),
		Label:     "Label " + name,
		Type:      types.FieldTypeText,
		AppliesTo: scope,
		Order:     order,
		Active:    true,
	}
}

func listNames(fields []*model.FieldDefinition) []string {
	names := make([]string, len(fields))
	for i, fd := range fields {
		names[i] = string(fd.Name)
	}
	return names
}

func runFieldDefinitionRepositoryTest(t *testing.T, newRepo func(t *testing.T) interfaces.Repository) {
	t.Helper()

	t.Run("Create assigns ID and timestamps", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		fd := newDefinition(types.ScopeProduct, "peso", 1)
		fd.Type = types.FieldTypeSelect
		fd.Group = "logistica"
		fd.Options = []any{"kg", map[string]any{"value": "g", "label": "Gramos"}}
		fd.DefaultValue = "kg"
		fd.ValidationRules = &model.ValidationRules{MinLength: ptr(1), Pattern: "^[a-z]+$"}

		created, err := repo.FieldDefinition().Create(ctx, fd)
		gt.NoError(t, err).Required()

		gt.String(t, string(created.ID)).NotEqual("")
		gt.Bool(t, created.CreatedAt.IsZero()).False()
		gt.Bool(t, created.UpdatedAt.IsZero()).False()

		got, err := repo.FieldDefinition().Get(ctx, created.ID)
		gt.NoError(t, err).Required()
		gt.Value(t, got.Name).Equal(fd.Name)
		gt.Value(t, got.Label).Equal(fd.Label)
		gt.Value(t, got.Type).Equal(types.FieldTypeSelect)
		gt.Value(t, got.AppliesTo).Equal(types.ScopeProduct)
		gt.Value(t, got.Group).Equal("logistica")
		gt.Value(t, got.DefaultValue).Equal(any("kg"))
		gt.Value(t, got.NormalizedOptions()).Equal([]model.Option{
			{Value: "kg", Label: "kg"},
			{Value: "g", Label: "Gramos"},
		})
		gt.Value(t, got.ValidationRules).NotNil()
		gt.Value(t, *got.ValidationRules.MinLength).Equal(1)
		gt.Value(t, got.ValidationRules.Pattern).Equal("^[a-z]+$")
		gt.Bool(t, time.Since(got.CreatedAt) <= 10*time.Second).True()
	})

	t.Run("Create rejects duplicate name in the same scope", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		_, err := repo.FieldDefinition().Create(ctx, newDefinition(types.ScopeProduct, "peso", 1))
		gt.NoError(t, err).Required()

		_, err = repo.FieldDefinition().Create(ctx, newDefinition(types.ScopeProduct, "peso", 2))
		gt.Error(t, err).Is(model.ErrDuplicateName)

		_, err = repo.FieldDefinition().Create(ctx, newDefinition(types.ScopeCategory, "peso", 1))
		gt.NoError(t, err)
	})

	t.Run("Get returns ErrNotFound", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		_, err := repo.FieldDefinition().Get(ctx, types.NewFieldID())
		gt.Error(t, err).Is(model.ErrNotFound)

		_, err = repo.FieldDefinition().GetByName(ctx, types.ScopeProduct, "missing")
		gt.Error(t, err).Is(model.ErrNotFound)
	})

	t.Run("GetByName", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		created, err := repo.FieldDefinition().Create(ctx, newDefinition(types.ScopeSupplier, "rut", 1))
		gt.NoError(t, err).Required()

		got, err := repo.FieldDefinition().GetByName(ctx, types.ScopeSupplier, "rut")
		gt.NoError(t, err).Required()
		gt.Value(t, got.ID).Equal(created.ID)
	})

	t.Run("CreateIfAbsent inserts once", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		first, created, err := repo.FieldDefinition().CreateIfAbsent(ctx, newDefinition(types.ScopeProduct, "lote", 1))
		gt.NoError(t, err).Required()
		gt.Bool(t, created).True()

		again := newDefinition(types.ScopeProduct, "lote", 5)
		again.Label = "Other"
		second, created, err := repo.FieldDefinition().CreateIfAbsent(ctx, again)
		gt.NoError(t, err).Required()
		gt.Bool(t, created).False()
		gt.Value(t, second.ID).Equal(first.ID)
		gt.Value(t, second.Label).Equal(first.Label)

		fields, err := repo.FieldDefinition().List(ctx, types.ScopeProduct)
		gt.NoError(t, err).Required()
		gt.Array(t, fields).Length(1)
	})

	t.Run("CreateIfAbsent is atomic under concurrency", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		const workers = 8
		var wg sync.WaitGroup
		results := make([]bool, workers)
		errs := make([]error, workers)
		for i := range workers {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				_, results[i], errs[i] = repo.FieldDefinition().CreateIfAbsent(ctx, newDefinition(types.ScopeAlert, "umbral", i))
			}(i)
		}
		wg.Wait()

		createdCount := 0
		for i := range workers {
			if errs[i] != nil {
				continue
			}
			if results[i] {
				createdCount++
			}
		}
		gt.Value(t, createdCount).Equal(1)

		fields, err := repo.FieldDefinition().List(ctx, types.ScopeAlert)
		gt.NoError(t, err).Required()
		gt.Array(t, fields).Length(1)
	})

	t.Run("List filters and orders", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		inputs := []*model.FieldDefinition{
			newDefinition(types.ScopeProduct, "zeta", 1),
			newDefinition(types.ScopeProduct, "alfa", 2),
			newDefinition(types.ScopeProduct, "beta", 1),
			newDefinition(types.ScopeCategory, "other", 0),
		}
		inputs[1].Group = "dims"
		inputs[2].Active = false
		for _, fd := range inputs {
			_, err := repo.FieldDefinition().Create(ctx, fd)
			gt.NoError(t, err).Required()
		}

		all, err := repo.FieldDefinition().List(ctx, types.ScopeProduct)
		gt.NoError(t, err).Required()
		gt.Value(t, listNames(all)).Equal([]string{"beta", "zeta", "alfa"})

		active, err := repo.FieldDefinition().List(ctx, types.ScopeProduct, interfaces.WithActiveOnly())
		gt.NoError(t, err).Required()
		gt.Value(t, listNames(active)).Equal([]string{"zeta", "alfa"})

		grouped, err := repo.FieldDefinition().List(ctx, types.ScopeProduct, interfaces.WithGroup("dims"))
		gt.NoError(t, err).Required()
		gt.Value(t, listNames(grouped)).Equal([]string{"alfa"})

		empty, err := repo.FieldDefinition().List(ctx, types.ScopeMovement)
		gt.NoError(t, err).Required()
		gt.Array(t, empty).Length(0)
	})

	t.Run("Update preserves CreatedAt", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		created, err := repo.FieldDefinition().Create(ctx, newDefinition(types.ScopeProduct, "color", 1))
		gt.NoError(t, err).Required()

		created.Label = "Color principal"
		created.Active = false
		created.CreatedAt = time.Time{}
		updated, err := repo.FieldDefinition().Update(ctx, created)
		gt.NoError(t, err).Required()
		gt.Value(t, updated.Label).Equal("Color principal")
		gt.Bool(t, updated.CreatedAt.IsZero()).False()

		got, err := repo.FieldDefinition().Get(ctx, created.ID)
		gt.NoError(t, err).Required()
		gt.Value(t, got.Label).Equal("Color principal")
		gt.Bool(t, got.Active).False()
	})

	t.Run("Update renames and keeps names unique", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		a, err := repo.FieldDefinition().Create(ctx, newDefinition(types.ScopeProduct, "alto", 1))
		gt.NoError(t, err).Required()
		_, err = repo.FieldDefinition().Create(ctx, newDefinition(types.ScopeProduct, "ancho", 2))
		gt.NoError(t, err).Required()

		a.Name = "ancho"
		_, err = repo.FieldDefinition().Update(ctx, a)
		gt.Error(t, err).Is(model.ErrDuplicateName)

		a.Name = "altura"
		_, err = repo.FieldDefinition().Update(ctx, a)
		gt.NoError(t, err).Required()

		_, err = repo.FieldDefinition().GetByName(ctx, types.ScopeProduct, "alto")
		gt.Error(t, err).Is(model.ErrNotFound)
		got, err := repo.FieldDefinition().GetByName(ctx, types.ScopeProduct, "altura")
		gt.NoError(t, err).Required()
		gt.Value(t, got.ID).Equal(a.ID)
	})

	t.Run("Update returns ErrNotFound", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		fd := newDefinition(types.ScopeProduct, "ghost", 1)
		fd.ID = types.NewFieldID()
		_, err := repo.FieldDefinition().Update(ctx, fd)
		gt.Error(t, err).Is(model.ErrNotFound)
	})

	t.Run("Delete frees the name", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		created, err := repo.FieldDefinition().Create(ctx, newDefinition(types.ScopeProduct, "temp", 1))
		gt.NoError(t, err).Required()

		gt.NoError(t, repo.FieldDefinition().Delete(ctx, created.ID)).Required()
		_, err = repo.FieldDefinition().Get(ctx, created.ID)
		gt.Error(t, err).Is(model.ErrNotFound)

		err = repo.FieldDefinition().Delete(ctx, created.ID)
		gt.Bool(t, errors.Is(err, model.ErrNotFound)).True()

		_, err = repo.FieldDefinition().Create(ctx, newDefinition(types.ScopeProduct, "temp", 1))
		gt.NoError(t, err)
	})

	t.Run("returned values are copies", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		fd := newDefinition(types.ScopeProduct, "grado", 1)
		fd.Type = types.FieldTypeSelect
		fd.Options = []any{"A", "B"}
		created, err := repo.FieldDefinition().Create(ctx, fd)
		gt.NoError(t, err).Required()

		created.Options[0] = "mutated"
		fd.Options[1] = "mutated"

		got, err := repo.FieldDefinition().Get(ctx, created.ID)
		gt.NoError(t, err).Required()
		gt.Value(t, got.Options).Equal([]any{"A", "B"})
	})
}

func ptr[T any](v T) *T {
	return &v
}
