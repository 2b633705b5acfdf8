package config

import "github.com/m-mizutani/goerr/v2"

// Sentinel errors for configuration validation
var (
	ErrInvalidBackend   = goerr.New("invalid repository backend")
	ErrMissingProjectID = goerr.New("firestore-project-id is required when using firestore backend")
	ErrMissingDSN       = goerr.New("sql-dsn is required when using a SQL backend")
	ErrInvalidLogLevel  = goerr.New("invalid log level")
	ErrInvalidLogFormat = goerr.New("invalid log format")
)

// Context keys for error values
const (
	BackendKey   = "backend"
	LogLevelKey  = "log_level"
	LogFormatKey = "log_format"
	LogOutputKey = "log_output"
)
