package interfaces

import (
	"context"

	"github.com/secmon-lab/dynattr/pkg/domain/model"
	"github.com/secmon-lab/dynattr/pkg/domain/types"
)

// TemplateRepository defines the interface for Template data access
type TemplateRepository interface {
	// Create stores a new template. Returns model.ErrDuplicateCode if the
	// code is taken.
	Create(ctx context.Context, t *model.Template) (*model.Template, error)

	// Get retrieves a template by code
	Get(ctx context.Context, code types.TemplateCode) (*model.Template, error)

	// List retrieves templates ordered by code
	List(ctx context.Context, opts ...ListTemplateOption) ([]*model.Template, error)

	// Update replaces an existing template. CreatedAt is preserved.
	Update(ctx context.Context, t *model.Template) (*model.Template, error)

	// Put creates or replaces a template by code
	Put(ctx context.Context, t *model.Template) (*model.Template, error)

	// Delete deletes a template by code
	Delete(ctx context.Context, code types.TemplateCode) error
}
