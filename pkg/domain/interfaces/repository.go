package interfaces

// Repository defines the interface for data persistence
type Repository interface {
	FieldDefinition() FieldDefinitionRepository
	Template() TemplateRepository

	Close() error
}
