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

type templateRepository struct {
	mu        sync.RWMutex
	templates map[types.TemplateCode]*model.Template
}

func newTemplateRepository() *templateRepository {
	return &templateRepository{
		templates: make(map[types.TemplateCode]*model.Template),
	}
}

func (r *templateRepository) Create(ctx context.Context, t *model.Template) (*model.Template, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.templates[t.Code]; exists {
		return nil, goerr.Wrap(model.ErrDuplicateCode, "template already exists", goerr.V(model.TemplateCodeKey, t.Code))
	}

	now := time.Now().UTC()
	created := t.Clone()
	created.CreatedAt = now
	created.UpdatedAt = now

	r.templates[created.Code] = created
	return created.Clone(), nil
}

func (r *templateRepository) Get(ctx context.Context, code types.TemplateCode) (*model.Template, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	t, exists := r.templates[code]
	if !exists {
		return nil, goerr.Wrap(model.ErrNotFound, "template not found", goerr.V(model.TemplateCodeKey, code))
	}
	return t.Clone(), nil
}

func (r *templateRepository) List(ctx context.Context, opts ...interfaces.ListTemplateOption) ([]*model.Template, error) {
	cfg := interfaces.BuildListTemplateConfig(opts...)

	r.mu.RLock()
	defer r.mu.RUnlock()

	templates := make([]*model.Template, 0, len(r.templates))
	for _, t := range r.templates {
		if cfg.ActiveOnly() && !t.Active {
			continue
		}
		if industry := cfg.Industry(); industry != nil && t.Industry != *industry {
			continue
		}
		templates = append(templates, t.Clone())
	}

	slices.SortFunc(templates, func(a, b *model.Template) int {
		return strings.Compare(string(a.Code), string(b.Code))
	})
	return templates, nil
}

func (r *templateRepository) Update(ctx context.Context, t *model.Template) (*model.Template, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, exists := r.templates[t.Code]
	if !exists {
		return nil, goerr.Wrap(model.ErrNotFound, "template not found", goerr.V(model.TemplateCodeKey, t.Code))
	}

	updated := t.Clone()
	updated.CreatedAt = existing.CreatedAt
	updated.UpdatedAt = time.Now().UTC()

	r.templates[updated.Code] = updated
	return updated.Clone(), nil
}

func (r *templateRepository) Put(ctx context.Context, t *model.Template) (*model.Template, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now().UTC()
	stored := t.Clone()
	stored.CreatedAt = now
	if existing, exists := r.templates[t.Code]; exists {
		stored.CreatedAt = existing.CreatedAt
	}
	stored.UpdatedAt = now

	r.templates[stored.Code] = stored
	return stored.Clone(), nil
}

func (r *templateRepository) Delete(ctx context.Context, code types.TemplateCode) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.templates[code]; !exists {
		return goerr.Wrap(model.ErrNotFound, "template not found", goerr.V(model.TemplateCodeKey, code))
	}
	delete(r.templates, code)
	return nil
}
