package firestore

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/dynattr/pkg/domain/interfaces"
	"github.com/secmon-lab/dynattr/pkg/domain/model"
	"github.com/secmon-lab/dynattr/pkg/domain/types"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const templatesCollection = "templates"

type fieldConfigDocument struct {
	Name            string                   `firestore:"name"`
	Label           string                   `firestore:"label"`
	Type            string                   `firestore:"type"`
	Group           string                   `firestore:"group"`
	Order           int                      `firestore:"order"`
	Required        bool                     `firestore:"required"`
	VisibleInList   bool                     `firestore:"visible_in_list"`
	VisibleInDetail bool                     `firestore:"visible_in_detail"`
	Placeholder     string                   `firestore:"placeholder"`
	HelpText        string                   `firestore:"help_text"`
	Icon            string                   `firestore:"icon"`
	DefaultValue    any                      `firestore:"default_value"`
	Options         []any                    `firestore:"options"`
	ValidationRules *validationRulesDocument `firestore:"validation_rules"`
}

type templateDocument struct {
	Code         string                `firestore:"code"`
	Name         string                `firestore:"name"`
	Description  string                `firestore:"description"`
	Industry     string                `firestore:"industry"`
	Color        string                `firestore:"color"`
	AppliesTo    string                `firestore:"applies_to"`
	FieldConfigs []fieldConfigDocument `firestore:"field_configs"`
	Active       bool                  `firestore:"active"`
	CreatedAt    time.Time             `firestore:"created_at"`
	UpdatedAt    time.Time             `firestore:"updated_at"`
}

type templateRepository struct {
	client           *firestore.Client
	collectionPrefix string
}

func newTemplateRepository(client *firestore.Client) *templateRepository {
	return &templateRepository{
		client: client,
	}
}

func (r *templateRepository) templatesCollection() *firestore.CollectionRef {
	return r.client.Collection(prefixed(r.collectionPrefix, templatesCollection))
}

func templateToDocument(t *model.Template) *templateDocument {
	c := t.Clone()
	doc := &templateDocument{
		Code:         string(c.Code),
		Name:         c.Name,
		Description:  c.Description,
		Industry:     c.Industry,
		Color:        c.Color,
		AppliesTo:    string(c.AppliesTo),
		FieldConfigs: make([]fieldConfigDocument, len(c.FieldConfigs)),
		Active:       c.Active,
		CreatedAt:    c.CreatedAt,
		UpdatedAt:    c.UpdatedAt,
	}
	for i, fc := range c.FieldConfigs {
		doc.FieldConfigs[i] = fieldConfigDocument{
			Name:            string(fc.Name),
			Label:           fc.Label,
			Type:            string(fc.Type),
			Group:           fc.Group,
			Order:           fc.Order,
			Required:        fc.Required,
			VisibleInList:   fc.VisibleInList,
			VisibleInDetail: fc.VisibleInDetail,
			Placeholder:     fc.Placeholder,
			HelpText:        fc.HelpText,
			Icon:            fc.Icon,
			DefaultValue:    fc.DefaultValue,
			Options:         fc.Options,
			ValidationRules: rulesToDocument(fc.ValidationRules),
		}
	}
	return doc
}

func templateToModel(doc *templateDocument) *model.Template {
	t := &model.Template{
		Code:         types.TemplateCode(doc.Code),
		Name:         doc.Name,
		Description:  doc.Description,
		Industry:     doc.Industry,
		Color:        doc.Color,
		AppliesTo:    types.Scope(doc.AppliesTo),
		FieldConfigs: make([]model.FieldConfig, len(doc.FieldConfigs)),
		Active:       doc.Active,
		CreatedAt:    doc.CreatedAt,
		UpdatedAt:    doc.UpdatedAt,
	}
	for i, fc := range doc.FieldConfigs {
		t.FieldConfigs[i] = model.FieldConfig{
			Name:            types.FieldName(fc.Name),
			Label:           fc.Label,
			Type:            types.FieldType(fc.Type),
			Group:           fc.Group,
			Order:           fc.Order,
			Required:        fc.Required,
			VisibleInList:   fc.VisibleInList,
			VisibleInDetail: fc.VisibleInDetail,
			Placeholder:     fc.Placeholder,
			HelpText:        fc.HelpText,
			Icon:            fc.Icon,
			DefaultValue:    fc.DefaultValue,
			Options:         fc.Options,
			ValidationRules: rulesToModel(fc.ValidationRules),
		}
	}
	return t
}

func (r *templateRepository) Create(ctx context.Context, t *model.Template) (*model.Template, error) {
	now := time.Now().UTC()
	doc := templateToDocument(t)
	doc.CreatedAt = now
	doc.UpdatedAt = now

	if _, err := r.templatesCollection().Doc(doc.Code).Create(ctx, doc); err != nil {
		if status.Code(err) == codes.AlreadyExists {
			return nil, goerr.Wrap(model.ErrDuplicateCode, "template already exists", goerr.V(model.TemplateCodeKey, t.Code))
		}
		return nil, goerr.Wrap(err, "failed to create template", goerr.V(model.TemplateCodeKey, t.Code))
	}

	return templateToModel(doc), nil
}

func (r *templateRepository) Get(ctx context.Context, code types.TemplateCode) (*model.Template, error) {
	snap, err := r.templatesCollection().Doc(string(code)).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, goerr.Wrap(model.ErrNotFound, "template not found", goerr.V(model.TemplateCodeKey, code))
		}
		return nil, goerr.Wrap(err, "failed to get template", goerr.V(model.TemplateCodeKey, code))
	}

	var doc templateDocument
	if err := snap.DataTo(&doc); err != nil {
		return nil, goerr.Wrap(err, "failed to unmarshal template", goerr.V(model.TemplateCodeKey, code))
	}
	return templateToModel(&doc), nil
}

func (r *templateRepository) List(ctx context.Context, opts ...interfaces.ListTemplateOption) ([]*model.Template, error) {
	cfg := interfaces.BuildListTemplateConfig(opts...)

	query := r.templatesCollection().Query
	if industry := cfg.Industry(); industry != nil {
		query = query.Where("industry", "==", *industry)
	}
	iter := query.OrderBy("code", firestore.Asc).Documents(ctx)
	defer iter.Stop()

	templates := make([]*model.Template, 0)
	for {
		snap, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to iterate templates")
		}

		var doc templateDocument
		if err := snap.DataTo(&doc); err != nil {
			return nil, goerr.Wrap(err, "failed to unmarshal template", goerr.V("docID", snap.Ref.ID))
		}
		if cfg.ActiveOnly() && !doc.Active {
			continue
		}
		templates = append(templates, templateToModel(&doc))
	}

	return templates, nil
}

func (r *templateRepository) Update(ctx context.Context, t *model.Template) (*model.Template, error) {
	ref := r.templatesCollection().Doc(string(t.Code))
	doc := templateToDocument(t)

	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		snap, err := tx.Get(ref)
		if err != nil {
			if status.Code(err) == codes.NotFound {
				return goerr.Wrap(model.ErrNotFound, "template not found", goerr.V(model.TemplateCodeKey, t.Code))
			}
			return err
		}
		var current templateDocument
		if err := snap.DataTo(&current); err != nil {
			return goerr.Wrap(err, "failed to unmarshal template")
		}

		doc.CreatedAt = current.CreatedAt
		doc.UpdatedAt = time.Now().UTC()
		return tx.Set(ref, doc)
	})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to update template", goerr.V(model.TemplateCodeKey, t.Code))
	}

	return templateToModel(doc), nil
}

func (r *templateRepository) Put(ctx context.Context, t *model.Template) (*model.Template, error) {
	ref := r.templatesCollection().Doc(string(t.Code))
	doc := templateToDocument(t)

	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		now := time.Now().UTC()
		doc.CreatedAt = now
		doc.UpdatedAt = now

		snap, err := tx.Get(ref)
		switch {
		case err == nil:
			var current templateDocument
			if err := snap.DataTo(&current); err != nil {
				return goerr.Wrap(err, "failed to unmarshal template")
			}
			doc.CreatedAt = current.CreatedAt
		case status.Code(err) != codes.NotFound:
			return err
		}
		return tx.Set(ref, doc)
	})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to put template", goerr.V(model.TemplateCodeKey, t.Code))
	}

	return templateToModel(doc), nil
}

func (r *templateRepository) Delete(ctx context.Context, code types.TemplateCode) error {
	ref := r.templatesCollection().Doc(string(code))
	if _, err := ref.Get(ctx); err != nil {
		if status.Code(err) == codes.NotFound {
			return goerr.Wrap(model.ErrNotFound, "template not found", goerr.V(model.TemplateCodeKey, code))
		}
		return goerr.Wrap(err, "failed to get template", goerr.V(model.TemplateCodeKey, code))
	}

	if _, err := ref.Delete(ctx); err != nil {
		return goerr.Wrap(err, "failed to delete template", goerr.V(model.TemplateCodeKey, code))
	}
	return nil
}
