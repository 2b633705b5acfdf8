package firestore

import (
	"context"

	"cloud.google.com/go/firestore"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/dynattr/pkg/domain/interfaces"
)

type Firestore struct {
	client          *firestore.Client
	fieldDefinition *fieldDefinitionRepository
	template        *templateRepository
}

var _ interfaces.Repository = &Firestore{}

type Option func(*Firestore)

// WithCollectionPrefix namespaces every collection, e.g. "staging" yields
// "staging_field_definitions".
func WithCollectionPrefix(prefix string) Option {
	return func(f *Firestore) {
		f.fieldDefinition.collectionPrefix = prefix
		f.template.collectionPrefix = prefix
	}
}

func New(ctx context.Context, projectID, databaseID string, opts ...Option) (*Firestore, error) {
	if databaseID == "" {
		databaseID = firestore.DefaultDatabaseID
	}

	client, err := firestore.NewClientWithDatabase(ctx, projectID, databaseID)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create firestore client",
			goerr.V("projectID", projectID), goerr.V("databaseID", databaseID))
	}

	f := &Firestore{
		client:          client,
		fieldDefinition: newFieldDefinitionRepository(client),
		template:        newTemplateRepository(client),
	}

	for _, opt := range opts {
		opt(f)
	}

	return f, nil
}

func (f *Firestore) FieldDefinition() interfaces.FieldDefinitionRepository {
	return f.fieldDefinition
}

func (f *Firestore) Template() interfaces.TemplateRepository {
	return f.template
}

func (f *Firestore) Close() error {
	if f.client != nil {
		return f.client.Close()
	}
	return nil
}

func prefixed(prefix, name string) string {
	if prefix != "" {
		return prefix + "_" + name
	}
	return name
}

// FieldDefinitionsCollection returns the field definition collection name
// for prefix, as used by the index migration.
func FieldDefinitionsCollection(prefix string) string {
	return prefixed(prefix, fieldDefinitionsCollection)
}

// TemplatesCollection returns the template collection name for prefix
func TemplatesCollection(prefix string) string {
	return prefixed(prefix, templatesCollection)
}
