package safe

import (
	"context"
	"io"
	"log/slog"

	"github.com/agrilens/agrilens/pkg/utils/logging"
)

// Close closes closer and logs a failure. Nil closers are ignored.
func Close(ctx context.Context, closer io.Closer) {
	if closer == nil {
		return
	}
	if err := closer.Close(); err != nil {
		logging.From(ctx).Error("Failed to close", slog.Any("error", err))
	}
}

// Write writes data to w and logs a failure
func Write(ctx context.Context, w io.Writer, data []byte) {
	if w == nil {
		return
	}
	if _, err := w.Write(data); err != nil {
		logging.From(ctx).Error("Failed to write", slog.Any("error", err))
	}
}

// Rollback aborts a transaction that may already be committed
func Rollback(ctx context.Context, tx interface{ Rollback() error }, committed *bool) {
	if tx == nil || (committed != nil && *committed) {
		return
	}
	if err := tx.Rollback(); err != nil {
		logging.From(ctx).Warn("Failed to rollback", slog.Any("error", err))
	}
}
