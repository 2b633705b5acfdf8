package sql

import (
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/dynattr/pkg/domain/interfaces"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// SQL is a relational repository backed by gorm
type SQL struct {
	db              *gorm.DB
	fieldDefinition *fieldDefinitionRepository
	template        *templateRepository
}

var _ interfaces.Repository = &SQL{}

type Option func(*gorm.Config)

// WithLogger replaces the gorm logger, which is silent by default
func WithLogger(l logger.Interface) Option {
	return func(cfg *gorm.Config) {
		cfg.Logger = l
	}
}

// NewSQLite opens a SQLite database, e.g. "dynattr.db" or
// "file::memory:?cache=shared".
func NewSQLite(dsn string, opts ...Option) (*SQL, error) {
	s, err := open(sqlite.Open(dsn), opts...)
	if err != nil {
		return nil, err
	}

	// SQLite allows a single writer
	sqlDB, err := s.db.DB()
	if err != nil {
		return nil, goerr.Wrap(err, "failed to get database handle")
	}
	sqlDB.SetMaxOpenConns(1)
	return s, nil
}

// NewPostgres opens a PostgreSQL database from a libpq style DSN or URL
func NewPostgres(dsn string, opts ...Option) (*SQL, error) {
	return open(postgres.Open(dsn), opts...)
}

func open(dialector gorm.Dialector, opts ...Option) (*SQL, error) {
	cfg := &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	}
	for _, opt := range opts {
		opt(cfg)
	}

	db, err := gorm.Open(dialector, cfg)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to open database", goerr.V("dialect", dialector.Name()))
	}

	if err := db.AutoMigrate(&fieldDefinitionRow{}, &templateRow{}); err != nil {
		return nil, goerr.Wrap(err, "failed to migrate database schema")
	}

	return &SQL{
		db:              db,
		fieldDefinition: &fieldDefinitionRepository{db: db},
		template:        &templateRepository{db: db},
	}, nil
}

func (s *SQL) FieldDefinition() interfaces.FieldDefinitionRepository {
	return s.fieldDefinition
}

func (s *SQL) Template() interfaces.TemplateRepository {
	return s.template
}

func (s *SQL) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return goerr.Wrap(err, "failed to get database handle")
	}
	if err := sqlDB.Close(); err != nil {
		return goerr.Wrap(err, "failed to close database")
	}
	return nil
}
