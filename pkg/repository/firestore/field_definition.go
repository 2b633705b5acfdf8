package firestore

import (
	"context"
	"slices"
	"strings"
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

const (
	fieldDefinitionsCollection = "field_definitions"
	fieldNamesCollection       = "field_names"
)

type validationRulesDocument struct {
	Min       *float64 `firestore:"min"`
	Max       *float64 `firestore:"max"`
	MinLength *int     `firestore:"min_length"`
	MaxLength *int     `firestore:"max_length"`
	Pattern   string   `firestore:"pattern"`
}

type fieldDefinitionDocument struct {
	ID              string                   `firestore:"id"`
	Name            string                   `firestore:"name"`
	Label           string                   `firestore:"label"`
	Type            string                   `firestore:"type"`
	AppliesTo       string                   `firestore:"applies_to"`
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
	Active          bool                     `firestore:"active"`
	CreatedAt       time.Time                `firestore:"created_at"`
	UpdatedAt       time.Time                `firestore:"updated_at"`
}

// fieldNameDocument reserves an (applies_to, name) pair for one definition
type fieldNameDocument struct {
	FieldID string `firestore:"field_id"`
}

type fieldDefinitionRepository struct {
	client           *firestore.Client
	collectionPrefix string
}

func newFieldDefinitionRepository(client *firestore.Client) *fieldDefinitionRepository {
	return &fieldDefinitionRepository{
		client: client,
	}
}

func (r *fieldDefinitionRepository) fieldsCollection() *firestore.CollectionRef {
	return r.client.Collection(prefixed(r.collectionPrefix, fieldDefinitionsCollection))
}

func (r *fieldDefinitionRepository) namesCollection() *firestore.CollectionRef {
	return r.client.Collection(prefixed(r.collectionPrefix, fieldNamesCollection))
}

func (r *fieldDefinitionRepository) nameRef(scope types.Scope, name types.FieldName) *firestore.DocumentRef {
	return r.namesCollection().Doc(string(scope) + "_" + string(name))
}

func rulesToDocument(rules *model.ValidationRules) *validationRulesDocument {
	if rules.IsZero() {
		return nil
	}
	c := rules.Clone()
	return &validationRulesDocument{
		Min:       c.Min,
		Max:       c.Max,
		MinLength: c.MinLength,
		MaxLength: c.MaxLength,
		Pattern:   c.Pattern,
	}
}

func rulesToModel(doc *validationRulesDocument) *model.ValidationRules {
	if doc == nil {
		return nil
	}
	return (&model.ValidationRules{
		Min:       doc.Min,
		Max:       doc.Max,
		MinLength: doc.MinLength,
		MaxLength: doc.MaxLength,
		Pattern:   doc.Pattern,
	}).Clone()
}

func fieldDefinitionToDocument(fd *model.FieldDefinition) *fieldDefinitionDocument {
	c := fd.Clone()
	return &fieldDefinitionDocument{
		ID:              string(c.ID),
		Name:            string(c.Name),
		Label:           c.Label,
		Type:            string(c.Type),
		AppliesTo:       string(c.AppliesTo),
		Group:           c.Group,
		Order:           c.Order,
		Required:        c.Required,
		VisibleInList:   c.VisibleInList,
		VisibleInDetail: c.VisibleInDetail,
		Placeholder:     c.Placeholder,
		HelpText:        c.HelpText,
		Icon:            c.Icon,
		DefaultValue:    c.DefaultValue,
		Options:         c.Options,
		ValidationRules: rulesToDocument(c.ValidationRules),
		Active:          c.Active,
		CreatedAt:       c.CreatedAt,
		UpdatedAt:       c.UpdatedAt,
	}
}

func fieldDefinitionToModel(doc *fieldDefinitionDocument) *model.FieldDefinition {
	return &model.FieldDefinition{
		ID:              types.FieldID(doc.ID),
		Name:            types.FieldName(doc.Name),
		Label:           doc.Label,
		Type:            types.FieldType(doc.Type),
		AppliesTo:       types.Scope(doc.AppliesTo),
		Group:           doc.Group,
		Order:           doc.Order,
		Required:        doc.Required,
		VisibleInList:   doc.VisibleInList,
		VisibleInDetail: doc.VisibleInDetail,
		Placeholder:     doc.Placeholder,
		HelpText:        doc.HelpText,
		Icon:            doc.Icon,
		DefaultValue:    doc.DefaultValue,
		Options:         doc.Options,
		ValidationRules: rulesToModel(doc.ValidationRules),
		Active:          doc.Active,
		CreatedAt:       doc.CreatedAt,
		UpdatedAt:       doc.UpdatedAt,
	}
}

func decodeFieldDefinition(snap *firestore.DocumentSnapshot) (*model.FieldDefinition, error) {
	var doc fieldDefinitionDocument
	if err := snap.DataTo(&doc); err != nil {
		return nil, goerr.Wrap(err, "failed to unmarshal field definition", goerr.V("docID", snap.Ref.ID))
	}
	return fieldDefinitionToModel(&doc), nil
}

func prepareNew(fd *model.FieldDefinition) *fieldDefinitionDocument {
	now := time.Now().UTC()
	doc := fieldDefinitionToDocument(fd)
	if doc.ID == "" {
		doc.ID = string(types.NewFieldID())
	}
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = now
	}
	doc.UpdatedAt = now
	return doc
}

func (r *fieldDefinitionRepository) Create(ctx context.Context, fd *model.FieldDefinition) (*model.FieldDefinition, error) {
	doc := prepareNew(fd)
	nameRef := r.nameRef(fd.AppliesTo, fd.Name)
	fieldRef := r.fieldsCollection().Doc(doc.ID)

	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		if _, err := tx.Get(nameRef); err == nil {
			return goerr.Wrap(model.ErrDuplicateName, "field definition already exists",
				goerr.V(model.ScopeKey, fd.AppliesTo), goerr.V(model.FieldNameKey, fd.Name))
		} else if status.Code(err) != codes.NotFound {
			return err
		}

		if err := tx.Create(nameRef, &fieldNameDocument{FieldID: doc.ID}); err != nil {
			return err
		}
		return tx.Create(fieldRef, doc)
	})
	if err != nil {
		if status.Code(err) == codes.AlreadyExists {
			return nil, goerr.Wrap(model.ErrDuplicateName, "field definition already exists",
				goerr.V(model.ScopeKey, fd.AppliesTo), goerr.V(model.FieldNameKey, fd.Name))
		}
		return nil, goerr.Wrap(err, "failed to create field definition", goerr.V(model.FieldNameKey, fd.Name))
	}

	return fieldDefinitionToModel(doc), nil
}

func (r *fieldDefinitionRepository) CreateIfAbsent(ctx context.Context, fd *model.FieldDefinition) (*model.FieldDefinition, bool, error) {
	doc := prepareNew(fd)
	nameRef := r.nameRef(fd.AppliesTo, fd.Name)
	fieldRef := r.fieldsCollection().Doc(doc.ID)

	var existing *model.FieldDefinition
	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		existing = nil

		nameSnap, err := tx.Get(nameRef)
		if err == nil {
			var reserved fieldNameDocument
			if err := nameSnap.DataTo(&reserved); err != nil {
				return goerr.Wrap(err, "failed to unmarshal field name reservation")
			}
			snap, err := tx.Get(r.fieldsCollection().Doc(reserved.FieldID))
			if err != nil {
				return err
			}
			existing, err = decodeFieldDefinition(snap)
			return err
		}
		if status.Code(err) != codes.NotFound {
			return err
		}

		if err := tx.Create(nameRef, &fieldNameDocument{FieldID: doc.ID}); err != nil {
			return err
		}
		return tx.Create(fieldRef, doc)
	})
	if err != nil {
		return nil, false, goerr.Wrap(err, "failed to insert field definition",
			goerr.V(model.ScopeKey, fd.AppliesTo), goerr.V(model.FieldNameKey, fd.Name))
	}

	if existing != nil {
		return existing, false, nil
	}
	return fieldDefinitionToModel(doc), true, nil
}

func (r *fieldDefinitionRepository) Get(ctx context.Context, id types.FieldID) (*model.FieldDefinition, error) {
	snap, err := r.fieldsCollection().Doc(string(id)).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, goerr.Wrap(model.ErrNotFound, "field definition not found", goerr.V(model.FieldIDKey, id))
		}
		return nil, goerr.Wrap(err, "failed to get field definition", goerr.V(model.FieldIDKey, id))
	}
	return decodeFieldDefinition(snap)
}

func (r *fieldDefinitionRepository) GetByName(ctx context.Context, scope types.Scope, name types.FieldName) (*model.FieldDefinition, error) {
	snap, err := r.nameRef(scope, name).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, goerr.Wrap(model.ErrNotFound, "field definition not found",
				goerr.V(model.ScopeKey, scope), goerr.V(model.FieldNameKey, name))
		}
		return nil, goerr.Wrap(err, "failed to get field name reservation", goerr.V(model.FieldNameKey, name))
	}

	var reserved fieldNameDocument
	if err := snap.DataTo(&reserved); err != nil {
		return nil, goerr.Wrap(err, "failed to unmarshal field name reservation")
	}
	return r.Get(ctx, types.FieldID(reserved.FieldID))
}

func (r *fieldDefinitionRepository) List(ctx context.Context, scope types.Scope, opts ...interfaces.ListFieldOption) ([]*model.FieldDefinition, error) {
	cfg := interfaces.BuildListFieldConfig(opts...)

	iter := r.fieldsCollection().
		Where("applies_to", "==", string(scope)).
		OrderBy("order", firestore.Asc).
		Documents(ctx)
	defer iter.Stop()

	fields := make([]*model.FieldDefinition, 0)
	for {
		snap, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to iterate field definitions", goerr.V(model.ScopeKey, scope))
		}

		fd, err := decodeFieldDefinition(snap)
		if err != nil {
			return nil, err
		}
		if cfg.ActiveOnly() && !fd.Active {
			continue
		}
		if group := cfg.Group(); group != nil && fd.Group != *group {
			continue
		}
		fields = append(fields, fd)
	}

	slices.SortStableFunc(fields, func(a, b *model.FieldDefinition) int {
		if a.Order != b.Order {
			return a.Order - b.Order
		}
		return strings.Compare(string(a.Name), string(b.Name))
	})
	return fields, nil
}

func (r *fieldDefinitionRepository) Update(ctx context.Context, fd *model.FieldDefinition) (*model.FieldDefinition, error) {
	fieldRef := r.fieldsCollection().Doc(string(fd.ID))
	doc := fieldDefinitionToDocument(fd)

	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		snap, err := tx.Get(fieldRef)
		if err != nil {
			if status.Code(err) == codes.NotFound {
				return goerr.Wrap(model.ErrNotFound, "field definition not found", goerr.V(model.FieldIDKey, fd.ID))
			}
			return err
		}
		var current fieldDefinitionDocument
		if err := snap.DataTo(&current); err != nil {
			return goerr.Wrap(err, "failed to unmarshal field definition")
		}

		renamed := current.AppliesTo != doc.AppliesTo || current.Name != doc.Name
		newNameRef := r.nameRef(fd.AppliesTo, fd.Name)
		if renamed {
			if _, err := tx.Get(newNameRef); err == nil {
				return goerr.Wrap(model.ErrDuplicateName, "field definition already exists",
					goerr.V(model.ScopeKey, fd.AppliesTo), goerr.V(model.FieldNameKey, fd.Name))
			} else if status.Code(err) != codes.NotFound {
				return err
			}
		}

		doc.CreatedAt = current.CreatedAt
		doc.UpdatedAt = time.Now().UTC()

		if renamed {
			oldNameRef := r.nameRef(types.Scope(current.AppliesTo), types.FieldName(current.Name))
			if err := tx.Delete(oldNameRef); err != nil {
				return err
			}
			if err := tx.Create(newNameRef, &fieldNameDocument{FieldID: doc.ID}); err != nil {
				return err
			}
		}
		return tx.Set(fieldRef, doc)
	})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to update field definition", goerr.V(model.FieldIDKey, fd.ID))
	}

	return fieldDefinitionToModel(doc), nil
}

func (r *fieldDefinitionRepository) Delete(ctx context.Context, id types.FieldID) error {
	fieldRef := r.fieldsCollection().Doc(string(id))

	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		snap, err := tx.Get(fieldRef)
		if err != nil {
			if status.Code(err) == codes.NotFound {
				return goerr.Wrap(model.ErrNotFound, "field definition not found", goerr.V(model.FieldIDKey, id))
			}
			return err
		}
		var current fieldDefinitionDocument
		if err := snap.DataTo(&current); err != nil {
			return goerr.Wrap(err, "failed to unmarshal field definition")
		}

		if err := tx.Delete(r.nameRef(types.Scope(current.AppliesTo), types.FieldName(current.Name))); err != nil {
			return err
		}
		return tx.Delete(fieldRef)
	})
	if err != nil {
		return goerr.Wrap(err, "failed to delete field definition", goerr.V(model.FieldIDKey, id))
	}
	return nil
}
