package usecase

import (
	"github.com/secmon-lab/dynattr/pkg/domain/interfaces"
)

// DefaultApplyConcurrency bounds parallel inserts while applying a template
const DefaultApplyConcurrency = 4

type UseCases struct {
	repo             interfaces.Repository
	applyConcurrency int
	Field            *FieldUseCase
	Form             *FormUseCase
	Template         *TemplateUseCase
	Catalog          *CatalogUseCase
}

type Option func(*UseCases)

// WithApplyConcurrency sets how many field definitions are inserted at once
// when a template is applied. Values below 1 are ignored.
func WithApplyConcurrency(n int) Option {
	return func(uc *UseCases) {
		if n > 0 {
			uc.applyConcurrency = n
		}
	}
}

func New(repo interfaces.Repository, opts ...Option) *UseCases {
	uc := &UseCases{
		repo:             repo,
		applyConcurrency: DefaultApplyConcurrency,
	}

	for _, opt := range opts {
		opt(uc)
	}

	uc.Field = NewFieldUseCase(repo)
	uc.Form = NewFormUseCase(repo)
	uc.Template = NewTemplateUseCase(repo, uc.applyConcurrency)
	uc.Catalog = NewCatalogUseCase(repo)

	return uc
}
