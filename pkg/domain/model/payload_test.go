package model_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/dynattr/pkg/domain/model"
	"github.com/secmon-lab/dynattr/pkg/domain/types"
)

func productFields() []model.FieldDefinition {
	return []model.FieldDefinition{
		{Name: "peso", Type: types.FieldTypeDecimal, Active: true},
		{Name: "cantidad", Type: types.FieldTypeInteger, Active: true},
		{Name: "es_fragil", Type: types.FieldTypeBoolean, Active: true},
		{Name: "nota", Type: types.FieldTypeLongText, Active: true},
		{Name: "grado", Type: types.FieldTypeSelect, Active: true, Options: []any{"A", "B"}},
		{Name: "etiquetas", Type: types.FieldTypeMultiSelect, Active: true},
		{Name: "legacy", Type: types.FieldTypeText, Active: false},
	}
}

func TestBuildPayload(t *testing.T) {
	tests := []struct {
		name   string
		values model.AttributeValues
		want   model.Payload
	}{
		{
			name:   "numbers are coerced from strings",
			values: model.AttributeValues{"peso": "2.5", "cantidad": "7.9"},
			want:   model.Payload{"peso": 2.5, "cantidad": int64(7), "es_fragil": false},
		},
		{
			name:   "integer at the safe limit is kept exactly",
			values: model.AttributeValues{"cantidad": float64(1 << 53)},
			want:   model.Payload{"cantidad": int64(1 << 53), "es_fragil": false},
		},
		{
			name:   "integer beyond the safe range is omitted",
			values: model.AttributeValues{"cantidad": 1e20},
			want:   model.Payload{"es_fragil": false},
		},
		{
			name:   "integer string beyond int64 is omitted",
			values: model.AttributeValues{"cantidad": "9223372036854775808"},
			want:   model.Payload{"es_fragil": false},
		},
		{
			name:   "hex float strings are not numbers",
			values: model.AttributeValues{"peso": "0x1p4", "cantidad": "0x10"},
			want:   model.Payload{"es_fragil": false},
		},
		{
			name:   "boolean is always stored",
			values: model.AttributeValues{},
			want:   model.Payload{"es_fragil": false},
		},
		{
			name:   "boolean truthiness",
			values: model.AttributeValues{"es_fragil": "false"},
			want:   model.Payload{"es_fragil": false},
		},
		{
			name:   "boolean true",
			values: model.AttributeValues{"es_fragil": true},
			want:   model.Payload{"es_fragil": true},
		},
		{
			name:   "empty values are omitted",
			values: model.AttributeValues{"nota": "   ", "etiquetas": []string{}, "grado": nil},
			want:   model.Payload{"es_fragil": false},
		},
		{
			name:   "text is trimmed and select stringified",
			values: model.AttributeValues{"nota": "  frágil  ", "grado": "A"},
			want:   model.Payload{"nota": "frágil", "grado": "A", "es_fragil": false},
		},
		{
			name:   "multiSelect becomes a string list",
			values: model.AttributeValues{"etiquetas": []any{"x", 2}},
			want:   model.Payload{"etiquetas": []string{"x", "2"}, "es_fragil": false},
		},
		{
			name:   "inactive and unknown fields are ignored",
			values: model.AttributeValues{"legacy": "old", "other": "value"},
			want:   model.Payload{"es_fragil": false},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := model.BuildPayload(productFields(), tt.values)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("payload mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestBuildPayload_NilWhenEmpty(t *testing.T) {
	fields := []model.FieldDefinition{
		{Name: "nota", Type: types.FieldTypeText, Active: true},
		{Name: "peso", Type: types.FieldTypeDecimal, Active: true},
	}
	got := model.BuildPayload(fields, model.AttributeValues{"nota": "", "peso": nil})
	gt.Bool(t, got == nil).True()

	gt.Bool(t, model.BuildPayload(nil, model.AttributeValues{"x": 1}) == nil).True()
}

func TestBuildPayload_Idempotent(t *testing.T) {
	values := model.AttributeValues{
		"peso":      "2.50",
		"cantidad":  3,
		"es_fragil": "true",
		"nota":      " abc ",
		"grado":     "B",
		"etiquetas": []any{"x", "y"},
	}
	first := model.BuildPayload(productFields(), values)
	second := model.BuildPayload(productFields(), first.Values())
	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("payload not idempotent (-first +second):\n%s", diff)
	}
}

func TestPreserveInactive(t *testing.T) {
	fields := productFields()
	stored := model.Payload{"legacy": "kept", "peso": 1.0}

	t.Run("inactive stored values are carried over", func(t *testing.T) {
		payload := model.BuildPayload(fields, model.AttributeValues{"peso": 3})
		got := model.PreserveInactive(fields, payload, stored)
		gt.Value(t, got).Equal(model.Payload{"peso": 3.0, "es_fragil": false, "legacy": "kept"})
		_, ok := payload["legacy"]
		gt.Bool(t, ok).False()
	})

	t.Run("active stored values are not resurrected", func(t *testing.T) {
		got := model.PreserveInactive(fields, model.Payload{"es_fragil": true}, model.Payload{"nota": "old"})
		gt.Value(t, got).Equal(model.Payload{"es_fragil": true})
	})

	t.Run("nil payload", func(t *testing.T) {
		got := model.PreserveInactive(fields, nil, stored)
		gt.Value(t, got).Equal(model.Payload{"legacy": "kept"})
	})
}
