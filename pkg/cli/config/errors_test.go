package config_test

import (
	"errors"
	"testing"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/dynattr/pkg/cli/config"
)

func TestConfigErrors_SentinelIdentification(t *testing.T) {
	tests := []struct {
		name          string
		err           error
		sentinelError error
		wantMatch     bool
	}{
		{
			name:          "ErrInvalidBackend can be identified",
			err:           goerr.Wrap(config.ErrInvalidBackend, "failed to configure", goerr.V(config.BackendKey, "mysql")),
			sentinelError: config.ErrInvalidBackend,
			wantMatch:     true,
		},
		{
			name:          "ErrMissingDSN can be identified",
			err:           goerr.Wrap(config.ErrMissingDSN, "failed to configure"),
			sentinelError: config.ErrMissingDSN,
			wantMatch:     true,
		},
		{
			name:          "ErrMissingProjectID is not ErrMissingDSN",
			err:           goerr.Wrap(config.ErrMissingProjectID, "failed to configure"),
			sentinelError: config.ErrMissingDSN,
			wantMatch:     false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gt.Value(t, errors.Is(tt.err, tt.sentinelError)).Equal(tt.wantMatch)
		})
	}
}
