package sql

import (
	"context"
	"errors"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/dynattr/pkg/domain/interfaces"
	"github.com/secmon-lab/dynattr/pkg/domain/model"
	"github.com/secmon-lab/dynattr/pkg/domain/types"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type fieldDefinitionRow struct {
	ID              string `gorm:"primaryKey;size:64"`
	AppliesTo       string `gorm:"size:32;not null;uniqueIndex:idx_field_scope_name,priority:1;index:idx_field_scope_order,priority:1"`
	Name            string `gorm:"size:128;not null;uniqueIndex:idx_field_scope_name,priority:2"`
	Label           string `gorm:"not null"`
	Type            string `gorm:"size:32;not null"`
	GroupName       string `gorm:"size:128"`
	SortOrder       int    `gorm:"index:idx_field_scope_order,priority:2"`
	Required        bool
	VisibleInList   bool
	VisibleInDetail bool
	Placeholder     string
	HelpText        string
	Icon            string
	DefaultValue    anyColumn     `gorm:"type:text"`
	Options         optionsColumn `gorm:"type:text"`
	ValidationRules rulesColumn   `gorm:"type:text"`
	Active          bool
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

func (fieldDefinitionRow) TableName() string {
	return "field_definitions"
}

func fieldDefinitionToRow(fd *model.FieldDefinition) *fieldDefinitionRow {
	c := fd.Clone()
	return &fieldDefinitionRow{
		ID:              string(c.ID),
		AppliesTo:       string(c.AppliesTo),
		Name:            string(c.Name),
		Label:           c.Label,
		Type:            string(c.Type),
		GroupName:       c.Group,
		SortOrder:       c.Order,
		Required:        c.Required,
		VisibleInList:   c.VisibleInList,
		VisibleInDetail: c.VisibleInDetail,
		Placeholder:     c.Placeholder,
		HelpText:        c.HelpText,
		Icon:            c.Icon,
		DefaultValue:    newJSONColumn(c.DefaultValue, c.DefaultValue == nil),
		Options:         newJSONColumn(c.Options, c.Options == nil),
		ValidationRules: newJSONColumn(c.ValidationRules, c.ValidationRules.IsZero()),
		Active:          c.Active,
		CreatedAt:       c.CreatedAt,
		UpdatedAt:       c.UpdatedAt,
	}
}

func (row *fieldDefinitionRow) toModel() *model.FieldDefinition {
	return &model.FieldDefinition{
		ID:              types.FieldID(row.ID),
		Name:            types.FieldName(row.Name),
		Label:           row.Label,
		Type:            types.FieldType(row.Type),
		AppliesTo:       types.Scope(row.AppliesTo),
		Group:           row.GroupName,
		Order:           row.SortOrder,
		Required:        row.Required,
		VisibleInList:   row.VisibleInList,
		VisibleInDetail: row.VisibleInDetail,
		Placeholder:     row.Placeholder,
		HelpText:        row.HelpText,
		Icon:            row.Icon,
		DefaultValue:    row.DefaultValue.Data,
		Options:         row.Options.Data,
		ValidationRules: row.ValidationRules.Data,
		Active:          row.Active,
		CreatedAt:       row.CreatedAt,
		UpdatedAt:       row.UpdatedAt,
	}
}

type fieldDefinitionRepository struct {
	db *gorm.DB
}

func newRow(fd *model.FieldDefinition) *fieldDefinitionRow {
	now := time.Now().UTC()
	row := fieldDefinitionToRow(fd)
	if row.ID == "" {
		row.ID = string(types.NewFieldID())
	}
	if row.CreatedAt.IsZero() {
		row.CreatedAt = now
	}
	row.UpdatedAt = now
	return row
}

func duplicateName(fd *model.FieldDefinition) error {
	return goerr.Wrap(model.ErrDuplicateName, "field definition already exists",
		goerr.V(model.ScopeKey, fd.AppliesTo), goerr.V(model.FieldNameKey, fd.Name))
}

func (r *fieldDefinitionRepository) Create(ctx context.Context, fd *model.FieldDefinition) (*model.FieldDefinition, error) {
	row := newRow(fd)
	if err := r.db.WithContext(ctx).Create(row).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, duplicateName(fd)
		}
		return nil, goerr.Wrap(err, "failed to create field definition", goerr.V(model.FieldNameKey, fd.Name))
	}
	return row.toModel(), nil
}

func (r *fieldDefinitionRepository) CreateIfAbsent(ctx context.Context, fd *model.FieldDefinition) (*model.FieldDefinition, bool, error) {
	row := newRow(fd)
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "applies_to"}, {Name: "name"}},
			DoNothing: true,
		}).
		Create(row)
	if result.Error != nil {
		return nil, false, goerr.Wrap(result.Error, "failed to insert field definition",
			goerr.V(model.ScopeKey, fd.AppliesTo), goerr.V(model.FieldNameKey, fd.Name))
	}
	if result.RowsAffected > 0 {
		return row.toModel(), true, nil
	}

	existing, err := r.GetByName(ctx, fd.AppliesTo, fd.Name)
	if err != nil {
		return nil, false, err
	}
	return existing, false, nil
}

func (r *fieldDefinitionRepository) first(ctx context.Context, query any, args ...any) (*fieldDefinitionRow, error) {
	var row fieldDefinitionRow
	if err := r.db.WithContext(ctx).Where(query, args...).First(&row).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *fieldDefinitionRepository) Get(ctx context.Context, id types.FieldID) (*model.FieldDefinition, error) {
	row, err := r.first(ctx, "id = ?", string(id))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, goerr.Wrap(model.ErrNotFound, "field definition not found", goerr.V(model.FieldIDKey, id))
		}
		return nil, goerr.Wrap(err, "failed to get field definition", goerr.V(model.FieldIDKey, id))
	}
	return row.toModel(), nil
}

func (r *fieldDefinitionRepository) GetByName(ctx context.Context, scope types.Scope, name types.FieldName) (*model.FieldDefinition, error) {
	row, err := r.first(ctx, "applies_to = ? AND name = ?", string(scope), string(name))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, goerr.Wrap(model.ErrNotFound, "field definition not found",
				goerr.V(model.ScopeKey, scope), goerr.V(model.FieldNameKey, name))
		}
		return nil, goerr.Wrap(err, "failed to get field definition", goerr.V(model.FieldNameKey, name))
	}
	return row.toModel(), nil
}

func (r *fieldDefinitionRepository) List(ctx context.Context, scope types.Scope, opts ...interfaces.ListFieldOption) ([]*model.FieldDefinition, error) {
	cfg := interfaces.BuildListFieldConfig(opts...)

	query := r.db.WithContext(ctx).Where("applies_to = ?", string(scope))
	if cfg.ActiveOnly() {
		query = query.Where("active = ?", true)
	}
	if group := cfg.Group(); group != nil {
		query = query.Where("group_name = ?", *group)
	}

	var rows []fieldDefinitionRow
	if err := query.Order("sort_order ASC").Order("name ASC").Find(&rows).Error; err != nil {
		return nil, goerr.Wrap(err, "failed to list field definitions", goerr.V(model.ScopeKey, scope))
	}

	fields := make([]*model.FieldDefinition, len(rows))
	for i := range rows {
		fields[i] = rows[i].toModel()
	}
	return fields, nil
}

func (r *fieldDefinitionRepository) Update(ctx context.Context, fd *model.FieldDefinition) (*model.FieldDefinition, error) {
	row := fieldDefinitionToRow(fd)

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var current fieldDefinitionRow
		if err := tx.Where("id = ?", row.ID).First(&current).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return goerr.Wrap(model.ErrNotFound, "field definition not found", goerr.V(model.FieldIDKey, fd.ID))
			}
			return err
		}

		row.CreatedAt = current.CreatedAt
		row.UpdatedAt = time.Now().UTC()
		if err := tx.Save(row).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return duplicateName(fd)
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to update field definition", goerr.V(model.FieldIDKey, fd.ID))
	}
	return row.toModel(), nil
}

func (r *fieldDefinitionRepository) Delete(ctx context.Context, id types.FieldID) error {
	result := r.db.WithContext(ctx).Where("id = ?", string(id)).Delete(&fieldDefinitionRow{})
	if result.Error != nil {
		return goerr.Wrap(result.Error, "failed to delete field definition", goerr.V(model.FieldIDKey, id))
	}
	if result.RowsAffected == 0 {
		return goerr.Wrap(model.ErrNotFound, "field definition not found", goerr.V(model.FieldIDKey, id))
	}
	return nil
}
