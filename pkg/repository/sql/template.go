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
)

type templateRow struct {
	Code         string `gorm:"primaryKey;size:128"`
	Name         string `gorm:"not null"`
	Description  string
	Industry     string `gorm:"size:128;index"`
	Color        string `gorm:"size:16"`
	AppliesTo    string `gorm:"size:32"`
	FieldConfigs fieldConfigColumn `gorm:"type:text"`
	Active       bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (templateRow) TableName() string {
	return "templates"
}

func templateToRow(t *model.Template) *templateRow {
	c := t.Clone()
	configs := c.FieldConfigs
	if configs == nil {
		configs = []model.FieldConfig{}
	}
	return &templateRow{
		Code:         string(c.Code),
		Name:         c.Name,
		Description:  c.Description,
		Industry:     c.Industry,
		Color:        c.Color,
		AppliesTo:    string(c.AppliesTo),
		FieldConfigs: newJSONColumn(configs, false),
		Active:       c.Active,
		CreatedAt:    c.CreatedAt,
		UpdatedAt:    c.UpdatedAt,
	}
}

func (row *templateRow) toModel() *model.Template {
	configs := row.FieldConfigs.Data
	if configs == nil {
		configs = []model.FieldConfig{}
	}
	return &model.Template{
		Code:         types.TemplateCode(row.Code),
		Name:         row.Name,
		Description:  row.Description,
		Industry:     row.Industry,
		Color:        row.Color,
		AppliesTo:    types.Scope(row.AppliesTo),
		FieldConfigs: configs,
		Active:       row.Active,
		CreatedAt:    row.CreatedAt,
		UpdatedAt:    row.UpdatedAt,
	}
}

type templateRepository struct {
	db *gorm.DB
}

func templateNotFound(code types.TemplateCode) error {
	return goerr.Wrap(model.ErrNotFound, "template not found", goerr.V(model.TemplateCodeKey, code))
}

func (r *templateRepository) Create(ctx context.Context, t *model.Template) (*model.Template, error) {
	now := time.Now().UTC()
	row := templateToRow(t)
	row.CreatedAt = now
	row.UpdatedAt = now

	if err := r.db.WithContext(ctx).Create(row).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, goerr.Wrap(model.ErrDuplicateCode, "template already exists", goerr.V(model.TemplateCodeKey, t.Code))
		}
		return nil, goerr.Wrap(err, "failed to create template", goerr.V(model.TemplateCodeKey, t.Code))
	}
	return row.toModel(), nil
}

func (r *templateRepository) Get(ctx context.Context, code types.TemplateCode) (*model.Template, error) {
	var row templateRow
	if err := r.db.WithContext(ctx).Where("code = ?", string(code)).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, templateNotFound(code)
		}
		return nil, goerr.Wrap(err, "failed to get template", goerr.V(model.TemplateCodeKey, code))
	}
	return row.toModel(), nil
}

func (r *templateRepository) List(ctx context.Context, opts ...interfaces.ListTemplateOption) ([]*model.Template, error) {
	cfg := interfaces.BuildListTemplateConfig(opts...)

	query := r.db.WithContext(ctx)
	if cfg.ActiveOnly() {
		query = query.Where("active = ?", true)
	}
	if industry := cfg.Industry(); industry != nil {
		query = query.Where("industry = ?", *industry)
	}

	var rows []templateRow
	if err := query.Order("code ASC").Find(&rows).Error; err != nil {
		return nil, goerr.Wrap(err, "failed to list templates")
	}

	templates := make([]*model.Template, len(rows))
	for i := range rows {
		templates[i] = rows[i].toModel()
	}
	return templates, nil
}

func (r *templateRepository) Update(ctx context.Context, t *model.Template) (*model.Template, error) {
	row := templateToRow(t)

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var current templateRow
		if err := tx.Where("code = ?", row.Code).First(&current).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return templateNotFound(t.Code)
			}
			return err
		}
		row.CreatedAt = current.CreatedAt
		row.UpdatedAt = time.Now().UTC()
		return tx.Save(row).Error
	})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to update template", goerr.V(model.TemplateCodeKey, t.Code))
	}
	return row.toModel(), nil
}

func (r *templateRepository) Put(ctx context.Context, t *model.Template) (*model.Template, error) {
	row := templateToRow(t)

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := time.Now().UTC()
		row.CreatedAt = now
		row.UpdatedAt = now

		var current templateRow
		err := tx.Where("code = ?", row.Code).First(&current).Error
		switch {
		case err == nil:
			row.CreatedAt = current.CreatedAt
			return tx.Save(row).Error
		case errors.Is(err, gorm.ErrRecordNotFound):
			return tx.Create(row).Error
		default:
			return err
		}
	})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to put template", goerr.V(model.TemplateCodeKey, t.Code))
	}
	return row.toModel(), nil
}

func (r *templateRepository) Delete(ctx context.Context, code types.TemplateCode) error {
	result := r.db.WithContext(ctx).Where("code = ?", string(code)).Delete(&templateRow{})
	if result.Error != nil {
		return goerr.Wrap(result.Error, "failed to delete template", goerr.V(model.TemplateCodeKey, code))
	}
	if result.RowsAffected == 0 {
		return templateNotFound(code)
	}
	return nil
}
