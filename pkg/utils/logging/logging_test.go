package logging_test

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/agrilens/agrilens/pkg/utils/logging"
	"github.com/m-mizutani/gt"
)

func TestFromContext(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	ctx := logging.With(context.Background(), logger)
	logging.From(ctx).Info("hello", "topic", "potato_Haryana")

	gt.String(t, buf.String()).Contains("potato_Haryana")
}

func TestFromFallsBackToDefault(t *testing.T) {
	gt.Value(t, logging.From(context.Background())).Equal(logging.Default())
}
