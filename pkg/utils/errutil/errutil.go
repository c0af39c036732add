package errutil

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/agrilens/agrilens/pkg/utils/logging"
	"github.com/getsentry/sentry-go"
	"github.com/m-mizutani/goerr/v2"
)

// Handle logs err with msg and reports it to Sentry when a client is bound.
// It returns err unchanged so callers can keep propagating it.
func Handle(ctx context.Context, err error, msg string) error {
	if err == nil {
		return nil
	}

	logger := logging.From(ctx)

	var ge *goerr.Error
	if errors.As(err, &ge) {
		logger.Error(msg,
			"error", err.Error(),
			"values", ge.Values(),
			"stack", ge.Stacks(),
		)
	} else {
		logger.Error(msg, "error", err.Error())
	}

	report(ctx, err, msg)
	return err
}

// Warn logs a recoverable failure. It is not reported to Sentry.
func Warn(ctx context.Context, err error, msg string) {
	if err == nil {
		return
	}
	var ge *goerr.Error
	if errors.As(err, &ge) {
		logging.From(ctx).Warn(msg, "error", err.Error(), "values", ge.Values())
		return
	}
	logging.From(ctx).Warn(msg, "error", err.Error())
}

func report(ctx context.Context, err error, msg string) {
	hub := sentry.GetHubFromContext(ctx)
	if hub == nil {
		hub = sentry.CurrentHub()
	}
	if hub.Client() == nil {
		return
	}

	hub.WithScope(func(scope *sentry.Scope) {
		scope.SetTag("message", msg)
		var ge *goerr.Error
		if errors.As(err, &ge) {
			scope.SetContext("goerr", sentry.Context(ge.Values()))
		}
		evID := hub.CaptureException(err)
		if evID != nil {
			logging.From(ctx).Debug("error reported", "sentry.event_id", *evID)
		}
	})
}

type errorResponse struct {
	Error string `json:"error"`
}

// HandleHTTP logs err and writes a JSON error body with statusCode. Details of
// 5xx errors are not exposed to the client.
func HandleHTTP(ctx context.Context, w http.ResponseWriter, err error, statusCode int) {
	if err == nil {
		return
	}

	msg := err.Error()
	if statusCode >= http.StatusInternalServerError {
		_ = Handle(ctx, err, "HTTP error")
		msg = http.StatusText(statusCode)
	} else {
		Warn(ctx, err, "HTTP client error")
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if encErr := json.NewEncoder(w).Encode(errorResponse{Error: msg}); encErr != nil {
		logging.From(ctx).Error("failed to write error response", "error", encErr.Error())
	}
}
