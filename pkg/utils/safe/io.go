package safe

import (
	"context"
	"io"
	"log/slog"

	"github.com/secmon-lab/dynattr/pkg/utils/logging"
)

// Close closes c and logs a failure instead of returning it. Use it in defer
// statements where the error cannot be acted upon. A nil closer is ignored.
func Close(ctx context.Context, c io.Closer) {
	if c == nil {
		return
	}
	if err := c.Close(); err != nil {
		logging.From(ctx).Warn("failed to close", slog.Any("error", err))
	}
}
