package memory

import (
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/dynattr/pkg/domain/interfaces"
	"github.com/secmon-lab/dynattr/pkg/domain/model"
	"github.com/secmon-lab/dynattr/pkg/domain/types"
)

type scopedName struct {
	scope types.Scope
	name  types.FieldName
}

type fieldDefinitionRepository struct {
	mu     sync.RWMutex
	fields map[types.FieldID]*model.FieldDefinition
	names  map[scopedName]types.FieldID
}

func newFieldDefinitionRepository() *fieldDefinitionRepository {
	return &fieldDefinitionRepository{
		fields: make(map[types.FieldID]*model.FieldDefinition),
		names:  make(map[scopedName]types.FieldID),
	}
}

func keyOf(fd *model.FieldDefinition) scopedName {
	return scopedName{scope: fd.AppliesTo, name: fd.Name}
}

// insert stores fd; the caller holds the write lock and has checked the name
func (r *fieldDefinitionRepository) insert(fd *model.FieldDefinition) *model.FieldDefinition {
	now := time.Now().UTC()
	created := fd.Clone()
	if created.ID == "" {
		created.ID = types.NewFieldID()
	}
	if created.CreatedAt.IsZero() {
		created.CreatedAt = now
	}
	created.UpdatedAt = now

	r.fields[created.ID] = created
	r.names[keyOf(created)] = created.ID
	return created.Clone()
}

func (r *fieldDefinitionRepository) Create(ctx context.Context, fd *model.FieldDefinition) (*model.FieldDefinition, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.names[keyOf(fd)]; exists {
		return nil, goerr.Wrap(model.ErrDuplicateName, "field definition already exists",
			goerr.V(model.ScopeKey, fd.AppliesTo), goerr.V(model.FieldNameKey, fd.Name))
	}
	if _, exists := r.fields[fd.ID]; fd.ID != "" && exists {
		return nil, goerr.New("field definition ID already exists", goerr.V(model.FieldIDKey, fd.ID))
	}

	return r.insert(fd), nil
}

func (r *fieldDefinitionRepository) CreateIfAbsent(ctx context.Context, fd *model.FieldDefinition) (*model.FieldDefinition, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if id, exists := r.names[keyOf(fd)]; exists {
		return r.fields[id].Clone(), false, nil
	}
	return r.insert(fd), true, nil
}

func (r *fieldDefinitionRepository) Get(ctx context.Context, id types.FieldID) (*model.FieldDefinition, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	fd, exists := r.fields[id]
	if !exists {
		return nil, goerr.Wrap(model.ErrNotFound, "field definition not found", goerr.V(model.FieldIDKey, id))
	}
	return fd.Clone(), nil
}

func (r *fieldDefinitionRepository) GetByName(ctx context.Context, scope types.Scope, name types.FieldName) (*model.FieldDefinition, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, exists := r.names[scopedName{scope: scope, name: name}]
	if !exists {
		return nil, goerr.Wrap(model.ErrNotFound, "field definition not found",
			goerr.V(model.ScopeKey, scope), goerr.V(model.FieldNameKey, name))
	}
	return r.fields[id].Clone(), nil
}

func (r *fieldDefinitionRepository) List(ctx context.Context, scope types.Scope, opts ...interfaces.ListFieldOption) ([]*model.FieldDefinition, error) {
	cfg := interfaces.BuildListFieldConfig(opts...)

	r.mu.RLock()
	defer r.mu.RUnlock()

	fields := make([]*model.FieldDefinition, 0)
	for _, fd := range r.fields {
		if fd.AppliesTo != scope {
			continue
		}
		if cfg.ActiveOnly() && !fd.Active {
			continue
		}
		if group := cfg.Group(); group != nil && fd.Group != *group {
			continue
		}
		fields = append(fields, fd.Clone())
	}

	slices.SortFunc(fields, func(a, b *model.FieldDefinition) int {
		if a.Order != b.Order {
			return a.Order - b.Order
		}
		return strings.Compare(string(a.Name), string(b.Name))
	})
	return fields, nil
}

func (r *fieldDefinitionRepository) Update(ctx context.Context, fd *model.FieldDefinition) (*model.FieldDefinition, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, exists := r.fields[fd.ID]
	if !exists {
		return nil, goerr.Wrap(model.ErrNotFound, "field definition not found", goerr.V(model.FieldIDKey, fd.ID))
	}

	if keyOf(existing) != keyOf(fd) {
		if _, taken := r.names[keyOf(fd)]; taken {
			return nil, goerr.Wrap(model.ErrDuplicateName, "field definition already exists",
				goerr.V(model.ScopeKey, fd.AppliesTo), goerr.V(model.FieldNameKey, fd.Name))
		}
		delete(r.names, keyOf(existing))
	}

	updated := fd.Clone()
	updated.CreatedAt = existing.CreatedAt
	updated.UpdatedAt = time.Now().UTC()

	r.fields[updated.ID] = updated
	r.names[keyOf(updated)] = updated.ID
	return updated.Clone(), nil
}

func (r *fieldDefinitionRepository) Delete(ctx context.Context, id types.FieldID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, exists := r.fields[id]
	if !exists {
		return goerr.Wrap(model.ErrNotFound, "field definition not found", goerr.V(model.FieldIDKey, id))
	}

	delete(r.names, keyOf(existing))
	delete(r.fields, id)
	return nil
}
