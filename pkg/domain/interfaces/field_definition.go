package interfaces

import (
	"context"

	"github.com/secmon-lab/dynattr/pkg/domain/model"
	"github.com/secmon-lab/dynattr/pkg/domain/types"
)

// FieldDefinitionRepository defines the interface for FieldDefinition data access.
// Names are unique within an applies-to scope.
type FieldDefinitionRepository interface {
	// Create stores a new definition. ID and timestamps are assigned when
	// empty. Returns model.ErrDuplicateName if the scope already has the name.
	Create(ctx context.Context, fd *model.FieldDefinition) (*model.FieldDefinition, error)

	// CreateIfAbsent inserts fd unless a definition with the same
	// (appliesTo, name) exists. created is false when nothing was inserted.
	// The check and the insert are a single atomic step.
	CreateIfAbsent(ctx context.Context, fd *model.FieldDefinition) (result *model.FieldDefinition, created bool, err error)

	// Get retrieves a definition by ID
	Get(ctx context.Context, id types.FieldID) (*model.FieldDefinition, error)

	// GetByName retrieves a definition by its scope and name
	GetByName(ctx context.Context, scope types.Scope, name types.FieldName) (*model.FieldDefinition, error)

	// List retrieves the definitions of a scope ordered by order, then name
	List(ctx context.Context, scope types.Scope, opts ...ListFieldOption) ([]*model.FieldDefinition, error)

	// Update replaces an existing definition. CreatedAt is preserved.
	Update(ctx context.Context, fd *model.FieldDefinition) (*model.FieldDefinition, error)

	// Delete deletes a definition by ID
	Delete(ctx context.Context, id types.FieldID) error
}
