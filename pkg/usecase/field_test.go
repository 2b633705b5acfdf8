package usecase_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/dynattr/pkg/domain/model"
	"github.com/secmon-lab/dynattr/pkg/domain/types"
	"github.com/secmon-lab/dynattr/pkg/repository/memory"
	"github.com/secmon-lab/dynattr/pkg/usecase"
	"github.com/secmon-lab/dynattr/pkg/utils/logging"
)

func ptr[T any](v T) *T {
	return &v
}

func expiryInput() usecase.FieldInput {
	return usecase.FieldInput{
		Name:      "expiry",
		Label:     "Expiry date",
		Type:      types.FieldTypeDate,
		AppliesTo: types.ScopeProduct,
		Group:     "Logistics",
		Order:     1,
	}
}

func fieldErrorsOf(t *testing.T, err error) model.FieldErrors {
	t.Helper()
	var errs model.FieldErrors
	if !errors.As(err, &errs) {
		t.Fatalf("expected model.FieldErrors, got %v", err)
	}
	return errs
}

func TestFieldUseCase_CreateField(t *testing.T) {
	ctx := context.Background()

	t.Run("successful creation", func(t *testing.T) {
		uc := usecase.New(memory.New())
		result, err := uc.Field.CreateField(ctx, expiryInput())
		gt.NoError(t, err).Required()

		gt.Value(t, result.Field.ID).NotEqual(types.FieldID(""))
		gt.Value(t, result.Field.Name).Equal(types.FieldName("expiry"))
		gt.Bool(t, result.Field.Active).True()
		gt.Array(t, result.Diagnostics).Length(0)
	})

	t.Run("explicit inactive", func(t *testing.T) {
		uc := usecase.New(memory.New())
		input := expiryInput()
		input.Active = ptr(false)
		result, err := uc.Field.CreateField(ctx, input)
		gt.NoError(t, err).Required()
		gt.Bool(t, result.Field.Active).False()
	})

	t.Run("sanitizes presentation strings", func(t *testing.T) {
		uc := usecase.New(memory.New())
		input := expiryInput()
		input.Label = "<i>Expiry</i> date"
		input.HelpText = `Best before<script>alert(1)</script>`
		result, err := uc.Field.CreateField(ctx, input)
		gt.NoError(t, err).Required()
		gt.Value(t, result.Field.Label).Equal("Expiry date")
		gt.Value(t, result.Field.HelpText).Equal("Best before")
	})

	t.Run("invalid definition returns field errors", func(t *testing.T) {
		uc := usecase.New(memory.New())
		input := expiryInput()
		input.Name = "1bad"
		input.Label = ""
		input.Type = "money"

		_, err := uc.Field.CreateField(ctx, input)
		gt.Error(t, err).Is(model.ErrInvalidDefinition)

		errs := fieldErrorsOf(t, err)
		gt.Array(t, errs.Get("name")).Length(1)
		gt.Value(t, errs.Get("label")).Equal([]string{model.MsgRequired})
		gt.Array(t, errs.Get("type")).Length(1)
	})

	t.Run("label made only of markup is required", func(t *testing.T) {
		uc := usecase.New(memory.New())
		input := expiryInput()
		input.Label = "<br/>"
		_, err := uc.Field.CreateField(ctx, input)
		gt.Value(t, fieldErrorsOf(t, err).Get("label")).Equal([]string{model.MsgRequired})
	})

	t.Run("duplicate name in scope", func(t *testing.T) {
		uc := usecase.New(memory.New())
		_, err := uc.Field.CreateField(ctx, expiryInput())
		gt.NoError(t, err).Required()

		_, err = uc.Field.CreateField(ctx, expiryInput())
		gt.Value(t, fieldErrorsOf(t, err).Get("name")).Equal([]string{model.MsgMustBeUnique})
	})

	t.Run("same name in another scope", func(t *testing.T) {
		uc := usecase.New(memory.New())
		_, err := uc.Field.CreateField(ctx, expiryInput())
		gt.NoError(t, err).Required()

		input := expiryInput()
		input.AppliesTo = types.ScopeCategory
		_, err = uc.Field.CreateField(ctx, input)
		gt.NoError(t, err)
	})

	t.Run("default value must pass validation", func(t *testing.T) {
		uc := usecase.New(memory.New())
		input := expiryInput()
		input.DefaultValue = "not a date"
		_, err := uc.Field.CreateField(ctx, input)
		gt.Array(t, fieldErrorsOf(t, err).Get("defaultValue")).Length(1)
	})

	t.Run("invalid pattern is saved with a diagnostic and a warning", func(t *testing.T) {
		var buf bytes.Buffer
		logCtx := logging.With(ctx, logging.New(&buf, slog.LevelDebug, logging.FormatJSON))

		uc := usecase.New(memory.New())
		input := usecase.FieldInput{
			Name:            "sku",
			Label:           "SKU",
			Type:            types.FieldTypeText,
			AppliesTo:       types.ScopeProduct,
			ValidationRules: &model.ValidationRules{Pattern: "[a-z"},
		}
		result, err := uc.Field.CreateField(logCtx, input)
		gt.NoError(t, err).Required()

		gt.Array(t, result.Diagnostics).Length(1)
		gt.Value(t, result.Diagnostics[0].Code).Equal(model.DiagPatternIgnored)
		gt.Value(t, result.Diagnostics[0].Field).Equal(types.FieldName("sku"))
		gt.String(t, buf.String()).Contains("validation pattern ignored")
		gt.String(t, buf.String()).Contains(`"pattern":"[a-z"`)
	})
}

func TestFieldUseCase_UpdateField(t *testing.T) {
	ctx := context.Background()

	t.Run("updates attributes and keeps identity", func(t *testing.T) {
		uc := usecase.New(memory.New())
		created, err := uc.Field.CreateField(ctx, expiryInput())
		gt.NoError(t, err).Required()

		input := expiryInput()
		input.Label = "Best before"
		input.Required = true
		updated, err := uc.Field.UpdateField(ctx, created.Field.ID, input)
		gt.NoError(t, err).Required()

		gt.Value(t, updated.Field.ID).Equal(created.Field.ID)
		gt.Value(t, updated.Field.Label).Equal("Best before")
		gt.Bool(t, updated.Field.Required).True()
		gt.Bool(t, updated.Field.Active).True()
		gt.Value(t, updated.Field.CreatedAt).Equal(created.Field.CreatedAt)
	})

	t.Run("rename onto existing name", func(t *testing.T) {
		uc := usecase.New(memory.New())
		_, err := uc.Field.CreateField(ctx, expiryInput())
		gt.NoError(t, err).Required()

		other := expiryInput()
		other.Name = "batch"
		other.Type = types.FieldTypeText
		created, err := uc.Field.CreateField(ctx, other)
		gt.NoError(t, err).Required()

		other.Name = "expiry"
		_, err = uc.Field.UpdateField(ctx, created.Field.ID, other)
		gt.Value(t, fieldErrorsOf(t, err).Get("name")).Equal([]string{model.MsgMustBeUnique})
	})

	t.Run("not found", func(t *testing.T) {
		uc := usecase.New(memory.New())
		_, err := uc.Field.UpdateField(ctx, types.NewFieldID(), expiryInput())
		gt.Error(t, err).Is(model.ErrNotFound)
	})
}

func TestFieldUseCase_DeactivateAndDelete(t *testing.T) {
	ctx := context.Background()
	uc := usecase.New(memory.New())

	created, err := uc.Field.CreateField(ctx, expiryInput())
	gt.NoError(t, err).Required()
	id := created.Field.ID

	deactivated, err := uc.Field.DeactivateField(ctx, id)
	gt.NoError(t, err).Required()
	gt.Bool(t, deactivated.Active).False()

	active, err := uc.Field.ListFields(ctx, types.ScopeProduct, usecase.FieldFilter{ActiveOnly: true})
	gt.NoError(t, err).Required()
	gt.Array(t, active).Length(0)

	all, err := uc.Field.ListFields(ctx, types.ScopeProduct, usecase.FieldFilter{})
	gt.NoError(t, err).Required()
	gt.Array(t, all).Length(1)

	gt.NoError(t, uc.Field.DeleteField(ctx, id)).Required()
	_, err = uc.Field.GetField(ctx, id)
	gt.Error(t, err).Is(model.ErrNotFound)

	gt.Error(t, uc.Field.DeleteField(ctx, id)).Is(model.ErrNotFound)
}

func TestFieldUseCase_ListFields(t *testing.T) {
	ctx := context.Background()
	uc := usecase.New(memory.New())

	for _, in := range []usecase.FieldInput{
		{Name: "weight", Label: "Weight", Type: types.FieldTypeDecimal, AppliesTo: types.ScopeProduct, Group: "Logistics", Order: 2},
		{Name: "Batch", Label: "Batch", Type: types.FieldTypeText, AppliesTo: types.ScopeProduct, Group: "Logistics", Order: 1},
		{Name: "brand", Label: "Brand", Type: types.FieldTypeText, AppliesTo: types.ScopeProduct, Order: 1},
		{Name: "region", Label: "Region", Type: types.FieldTypeText, AppliesTo: types.ScopeSupplier},
	} {
		_, err := uc.Field.CreateField(ctx, in)
		gt.NoError(t, err).Required()
	}

	t.Run("group filter", func(t *testing.T) {
		fields, err := uc.Field.ListFields(ctx, types.ScopeProduct, usecase.FieldFilter{Group: ptr("Logistics")})
		gt.NoError(t, err).Required()
		gt.Array(t, fields).Length(2)
		gt.Value(t, fields[0].Name).Equal(types.FieldName("Batch"))
		gt.Value(t, fields[1].Name).Equal(types.FieldName("weight"))
	})

	t.Run("grouped", func(t *testing.T) {
		groups, err := uc.Field.ListFieldsGrouped(ctx, types.ScopeProduct)
		gt.NoError(t, err).Required()
		gt.Array(t, groups).Length(2)

		byID := map[string]model.Group{}
		for _, g := range groups {
			byID[g.ID] = g
		}
		gt.Array(t, byID["Logistics"].Fields).Length(2)
		gt.Value(t, byID["Logistics"].Fields[0].Name).Equal(types.FieldName("Batch"))
		gt.Array(t, byID[model.UngroupedID].Fields).Length(1)
		gt.Value(t, byID[model.UngroupedID].Title).Equal(model.UngroupedTitle)
	})

	t.Run("invalid scope", func(t *testing.T) {
		_, err := uc.Field.ListFields(ctx, types.Scope("warehouse"), usecase.FieldFilter{})
		gt.Error(t, err).Is(usecase.ErrInvalidScope)
	})
}
