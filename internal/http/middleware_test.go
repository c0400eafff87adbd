package http

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/example/daygrid/internal/logging"
)

func TestRequestLogger(t *testing.T) {
	t.Parallel()

	t.Run("tags requests and records status and duration", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		base := slog.New(slog.NewTextHandler(&buf, nil))

		var sawContextLogger bool
		handler := RequestLogger(base)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sawContextLogger = logging.FromContext(r.Context()) != nil
			w.WriteHeader(http.StatusNotFound)
		}))

		recorder := httptest.NewRecorder()
		handler.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/api/view/day", nil))

		if !sawContextLogger {
			t.Fatal("expected the tagged logger on the request context")
		}
		output := buf.String()
		if !strings.Contains(output, "request started") || !strings.Contains(output, "request completed") {
			t.Fatalf("expected start and completion records, got %q", output)
		}
		if !strings.Contains(output, "status=404") {
			t.Fatalf("expected the response status in the completion record, got %q", output)
		}
		if !strings.Contains(output, "path=/api/view/day") {
			t.Fatalf("expected the request path in the records, got %q", output)
		}
	})

	t.Run("assigns sequential request ids", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		base := slog.New(slog.NewTextHandler(&buf, nil))
		handler := RequestLogger(base)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

		handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/healthz", nil))
		handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/healthz", nil))

		output := buf.String()
		if !strings.Contains(output, "request_id=1") || !strings.Contains(output, "request_id=2") {
			t.Fatalf("expected sequential request ids, got %q", output)
		}
	})
}

func TestRequireBasicAuth(t *testing.T) {
	t.Parallel()

	hash, err := CreatePasswordHash("opensesame", DefaultArgon2idParams)
	if err != nil {
		t.Fatalf("CreatePasswordHash failed: %v", err)
	}

	newGuarded := func(t *testing.T) (http.Handler, *bool) {
		t.Helper()
		called := false
		handler := RequireBasicAuth("calendar", hash, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			called = true
			w.WriteHeader(http.StatusOK)
		}))
		return handler, &called
	}

	t.Run("rejects requests without credentials", func(t *testing.T) {
		t.Parallel()

		handler, called := newGuarded(t)
		recorder := httptest.NewRecorder()
		handler.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/api/events", nil))

		if recorder.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", recorder.Code)
		}
		if recorder.Header().Get("WWW-Authenticate") == "" {
			t.Fatal("expected a WWW-Authenticate challenge")
		}
		if *called {
			t.Fatal("expected the next handler to stay uncalled")
		}
	})

	t.Run("rejects wrong passwords", func(t *testing.T) {
		t.Parallel()

		handler, called := newGuarded(t)
		req := httptest.NewRequest(http.MethodGet, "/api/events", nil)
		req.SetBasicAuth("calendar", "wrong")
		recorder := httptest.NewRecorder()
		handler.ServeHTTP(recorder, req)

		if recorder.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", recorder.Code)
		}
		if *called {
			t.Fatal("expected the next handler to stay uncalled")
		}
	})

	t.Run("rejects unknown usernames", func(t *testing.T) {
		t.Parallel()

		handler, called := newGuarded(t)
		req := httptest.NewRequest(http.MethodGet, "/api/events", nil)
		req.SetBasicAuth("intruder", "opensesame")
		recorder := httptest.NewRecorder()
		handler.ServeHTTP(recorder, req)

		if recorder.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", recorder.Code)
		}
		if *called {
			t.Fatal("expected the next handler to stay uncalled")
		}
	})

	t.Run("admits matching credentials", func(t *testing.T) {
		t.Parallel()

		handler, called := newGuarded(t)
		req := httptest.NewRequest(http.MethodGet, "/api/events", nil)
		req.SetBasicAuth("calendar", "opensesame")
		recorder := httptest.NewRecorder()
		handler.ServeHTTP(recorder, req)

		if recorder.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", recorder.Code)
		}
		if !*called {
			t.Fatal("expected the next handler to run")
		}
	})
}
