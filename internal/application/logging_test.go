package application

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/example/daygrid/internal/logging"
)

func TestDefaultLogger(t *testing.T) {
	t.Parallel()

	custom := slog.New(slog.NewTextHandler(io.Discard, nil))
	if got := defaultLogger(custom); got != custom {
		t.Fatalf("expected custom logger to be returned")
	}

	if got := defaultLogger(nil); got != slog.Default() {
		t.Fatalf("expected default logger when none provided")
	}
}

func TestServiceLoggerPrefersContextLogger(t *testing.T) {
	t.Parallel()

	var fromContext bytes.Buffer
	var fromBase bytes.Buffer
	contextLogger := slog.New(slog.NewTextHandler(&fromContext, nil))
	baseLogger := slog.New(slog.NewTextHandler(&fromBase, nil))

	ctx := logging.ContextWithLogger(context.Background(), contextLogger)
	serviceLogger(ctx, baseLogger, "EventService", "CreateEvent").InfoContext(ctx, "probe")

	if !strings.Contains(fromContext.String(), "service=EventService") {
		t.Fatalf("expected the context logger to receive the record, got %q", fromContext.String())
	}
	if !strings.Contains(fromContext.String(), "operation=CreateEvent") {
		t.Fatalf("expected the operation attribute, got %q", fromContext.String())
	}
	if fromBase.Len() != 0 {
		t.Fatalf("expected the base logger to stay silent, got %q", fromBase.String())
	}
}

func TestErrorKind(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		err      error
		expected string
	}{
		{name: "nil", err: nil, expected: ""},
		{name: "not found", err: fmt.Errorf("loading event: %w", ErrNotFound), expected: "not_found"},
		{name: "storage", err: fmt.Errorf("%w: disk unavailable", ErrStorage), expected: "storage"},
		{name: "stale view", err: ErrStaleView, expected: "stale_view"},
		{name: "validation", err: &ValidationError{FieldErrors: map[string]string{"title": "title is required"}}, expected: "validation"},
		{name: "unexpected", err: errors.New("boom"), expected: "unexpected"},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			if got := ErrorKind(tc.err); got != tc.expected {
				t.Fatalf("expected %q, got %q", tc.expected, got)
			}
		})
	}
}
