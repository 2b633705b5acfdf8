package memory

import (
	"github.com/secmon-lab/dynattr/pkg/domain/interfaces"
)

// Repository is an alias for Memory to match the pattern
type Repository = Memory

type Memory struct {
	fieldDefinition *fieldDefinitionRepository
	template        *templateRepository
}

var _ interfaces.Repository = &Memory{}

func New() *Memory {
	return &Memory{
		fieldDefinition: newFieldDefinitionRepository(),
		template:        newTemplateRepository(),
	}
}

func (m *Memory) FieldDefinition() interfaces.FieldDefinitionRepository {
	return m.fieldDefinition
}

func (m *Memory) Template() interfaces.TemplateRepository {
	return m.template
}

func (m *Memory) Close() error {
	return nil
}
