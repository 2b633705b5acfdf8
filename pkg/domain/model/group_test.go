package model_test

import (
	"encoding/json"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/dynattr/pkg/domain/model"
	"github.com/secmon-lab/dynattr/pkg/domain/types"
)

func fieldNames(fields []model.FieldDefinition) []string {
	names := make([]string, len(fields))
	for i, fd := range fields {
		names[i] = string(fd.Name)
	}
	return names
}

func groupIDs(groups []model.Group) []string {
	ids := make([]string, len(groups))
	for i, g := range groups {
		ids[i] = g.ID
	}
	return ids
}

func TestNormalizeGroups_List(t *testing.T) {
	source := model.GroupList{
		{ID: "logistica", Title: "Logística", Columns: 2, Fields: []model.FieldDefinition{
			{Name: "peso", Order: 2},
			{Name: "unidad", Order: 1},
		}},
		{ID: "", Fields: []model.FieldDefinition{{Name: "nota"}}},
		{ID: "logistica", Fields: []model.FieldDefinition{{Name: "alto", Order: 2}}},
	}

	got := model.NormalizeGroups(source)
	gt.Value(t, groupIDs(got)).Equal([]string{"logistica", model.UngroupedID})

	gt.Value(t, got[0].Title).Equal("Logística")
	gt.Value(t, got[0].Columns).Equal(2)
	gt.Value(t, fieldNames(got[0].Fields)).Equal([]string{"unidad", "alto", "peso"})

	gt.Value(t, got[1].Title).Equal(model.UngroupedTitle)
	gt.Value(t, got[1].Columns).Equal(model.DefaultColumns)
}

func TestNormalizeGroups_Map(t *testing.T) {
	source := model.GroupMap{
		{Name: "Calidad", Fields: []model.FieldDefinition{{Name: "grado"}}},
		{Name: "", Fields: []model.FieldDefinition{{Name: "zeta"}, {Name: "Alfa"}, {Name: "beta"}}},
	}

	got := model.NormalizeGroups(source)
	gt.Value(t, groupIDs(got)).Equal([]string{"Calidad", model.UngroupedID})
	gt.Value(t, got[0].Title).Equal("Calidad")
	gt.Value(t, fieldNames(got[1].Fields)).Equal([]string{"Alfa", "beta", "zeta"})
}

func TestNormalizeGroups_TieBreak(t *testing.T) {
	source := model.GroupList{{ID: "g", Fields: []model.FieldDefinition{
		{Name: "b"},
		{Name: "B"},
		{Name: "a"},
		{Name: "A"},
	}}}
	got := model.NormalizeGroups(source)
	gt.Value(t, fieldNames(got[0].Fields)).Equal([]string{"A", "a", "B", "b"})
}

func TestNormalizeGroups_InputUntouched(t *testing.T) {
	fields := []model.FieldDefinition{{Name: "b", Order: 2}, {Name: "a", Order: 1}}
	source := model.GroupList{{ID: "g", Fields: fields}}

	_ = model.NormalizeGroups(source)
	gt.Value(t, fieldNames(fields)).Equal([]string{"b", "a"})
	gt.Value(t, source[0].Columns).Equal(0)
}

func TestNormalizeGroups_Deterministic(t *testing.T) {
	source := model.GroupByName([]model.FieldDefinition{
		{Name: "c", Group: "x", Order: 1},
		{Name: "a", Group: "y"},
		{Name: "b", Group: "x", Order: 1},
		{Name: "d"},
	})

	first := model.NormalizeGroups(source)
	gt.Value(t, groupIDs(first)).Equal([]string{"x", "y", model.UngroupedID})
	gt.Value(t, fieldNames(first[0].Fields)).Equal([]string{"b", "c"})
	for range 5 {
		gt.Value(t, model.NormalizeGroups(source)).Equal(first)
	}
}

func TestNormalizeGroups_Nil(t *testing.T) {
	gt.Array(t, model.NormalizeGroups(nil)).Length(0)
	gt.Array(t, model.NormalizeGroups(model.GroupList{})).Length(0)
}

func TestGroupByName(t *testing.T) {
	got := model.GroupByName([]model.FieldDefinition{
		{Name: "a", Group: "dims"},
		{Name: "b", Group: " "},
		{Name: "c", Group: "dims"},
	})
	gt.Array(t, got).Length(2).Required()
	gt.Value(t, got[0].Name).Equal("dims")
	gt.Value(t, fieldNames(got[0].Fields)).Equal([]string{"a", "c"})
	gt.Value(t, got[1].Name).Equal("")
}

func TestGroupMap_JSON(t *testing.T) {
	doc := `{"zeta":[{"name":"z1","type":"text"}],"alfa":[],"medio":[{"name":"m1","type":"integer"}]}`

	var m model.GroupMap
	gt.NoError(t, json.Unmarshal([]byte(doc), &m)).Required()
	gt.Array(t, m).Length(3).Required()
	gt.Value(t, m[0].Name).Equal("zeta")
	gt.Value(t, m[1].Name).Equal("alfa")
	gt.Value(t, m[2].Name).Equal("medio")
	gt.Value(t, m[2].Fields[0].Type).Equal(types.FieldTypeInteger)

	groups := model.NormalizeGroups(m)
	gt.Value(t, groupIDs(groups)).Equal([]string{"zeta", "alfa", "medio"})

	encoded, err := json.Marshal(m)
	gt.NoError(t, err).Required()

	var again model.GroupMap
	gt.NoError(t, json.Unmarshal(encoded, &again)).Required()
	gt.Value(t, len(again)).Equal(3)
	gt.Value(t, again[0].Name).Equal("zeta")
	gt.Value(t, again[2].Name).Equal("medio")
}

func TestGroupMap_JSONRejectsNonObject(t *testing.T) {
	var m model.GroupMap
	gt.Error(t, json.Unmarshal([]byte(`[1,2]`), &m))
}
