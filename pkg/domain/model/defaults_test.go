package model_test

import (
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/dynattr/pkg/domain/model"
	"github.com/secmon-lab/dynattr/pkg/domain/types"
)

func TestApplyDefaults(t *testing.T) {
	fields := []model.FieldDefinition{
		{Name: "unidad", Type: types.FieldTypeText, DefaultValue: "kg"},
		{Name: "es_fragil", Type: types.FieldTypeBoolean, DefaultValue: false},
		{Name: "nota", Type: types.FieldTypeText},
		{Name: "etiquetas", Type: types.FieldTypeMultiSelect, DefaultValue: []any{"a"}},
	}

	t.Run("fills absent keys only", func(t *testing.T) {
		current := model.AttributeValues{"unidad": "g"}
		got := model.ApplyDefaults(fields, current)

		gt.Value(t, got).Equal(model.AttributeValues{
			"unidad":    "g",
			"es_fragil": false,
			"etiquetas": []any{"a"},
		})
		gt.Value(t, current).Equal(model.AttributeValues{"unidad": "g"})
	})

	t.Run("present keys are never overwritten even when empty", func(t *testing.T) {
		current := model.AttributeValues{"unidad": "", "es_fragil": nil, "etiquetas": []any{}}
		got := model.ApplyDefaults(fields, current)
		gt.Value(t, got).Equal(current)
	})

	t.Run("no-op returns the same map", func(t *testing.T) {
		current := model.AttributeValues{"unidad": "g", "es_fragil": true, "etiquetas": nil}
		got := model.ApplyDefaults(fields, current)
		got["marker"] = 1
		_, ok := current["marker"]
		gt.Bool(t, ok).True()
	})

	t.Run("nil current", func(t *testing.T) {
		got := model.ApplyDefaults(fields, nil)
		gt.Map(t, got).HasKey("unidad")
		gt.Map(t, got).HasKey("es_fragil")
		gt.Map(t, got).HasKey("etiquetas")
		_, ok := got["nota"]
		gt.Bool(t, ok).False()
	})

	t.Run("applying twice is stable", func(t *testing.T) {
		once := model.ApplyDefaults(fields, model.AttributeValues{})
		twice := model.ApplyDefaults(fields, once)
		gt.Value(t, twice).Equal(once)
	})

	t.Run("default values are copied", func(t *testing.T) {
		got := model.ApplyDefaults(fields, nil)
		got["etiquetas"].([]any)[0] = "mutated"
		gt.Value(t, fields[3].DefaultValue).Equal([]any{"a"})
	})
}

func TestApplyGroupDefaults(t *testing.T) {
	groups := []model.Group{
		{ID: "logistica", Fields: []model.FieldDefinition{{Name: "unidad", DefaultValue: "kg"}}},
		{ID: "calidad", Fields: []model.FieldDefinition{{Name: "grado", DefaultValue: "A"}}},
	}
	got := model.ApplyGroupDefaults(groups, model.AttributeValues{"grado": "B"})
	gt.Value(t, got).Equal(model.AttributeValues{"unidad": "kg", "grado": "B"})
}
