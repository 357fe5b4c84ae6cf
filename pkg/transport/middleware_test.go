package transport

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/rhuss/paydesk/pkg/api"
)

func TestChainAppliesMiddlewareInOrder(t *testing.T) {
	var order []string

	mw := func(name string) Middleware {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name+":before")
				next.ServeHTTP(w, r)
				order = append(order, name+":after")
			})
		}
	}

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		order = append(order, "handler")
	})

	wrapped := Chain(mw("first"), mw("second"), mw("third"))(handler)
	wrapped.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	expected := []string{
		"first:before", "second:before", "third:before",
		"handler",
		"third:after", "second:after", "first:after",
	}

	if len(order) != len(expected) {
		t.Fatalf("execution order length = %d, want %d: %v", len(order), len(expected), order)
	}
	for i, got := range order {
		if got != expected[i] {
			t.Errorf("order[%d] = %q, want %q", i, got, expected[i])
		}
	}
}

func TestRecoveryCatchesPanic(t *testing.T) {
	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, nil))

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("test panic")
	})

	rec := httptest.NewRecorder()
	Recovery(logger)(handler).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/boom", nil))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}

	var body api.ErrorResponse
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Status != api.StatusFail || body.Message != "Internal server error" {
		t.Errorf("body = %+v", body)
	}
	if strings.Contains(body.Message, "test panic") {
		t.Error("panic value leaked to the client")
	}
	if !strings.Contains(logs.String(), "test panic") {
		t.Errorf("panic not logged: %s", logs.String())
	}
}

func TestRecoveryPassesThroughNormalExecution(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	rec := httptest.NewRecorder()
	Recovery(nil)(handler).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want 204", rec.Code)
	}
}

func TestRequestIDGeneratesNewID(t *testing.T) {
	var capturedID string
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		capturedID = RequestIDFromContext(r.Context())
	})

	rec := httptest.NewRecorder()
	RequestID()(handler).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if capturedID == "" {
		t.Fatal("expected a generated request ID")
	}
	if err := uuid.Validate(capturedID); err != nil {
		t.Errorf("request ID %q is not a UUID: %v", capturedID, err)
	}
	if got := rec.Header().Get(RequestIDHeader); got != capturedID {
		t.Errorf("response header = %q, want %q", got, capturedID)
	}
}

func TestRequestIDPreservesIncomingHeader(t *testing.T) {
	var capturedID string
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		capturedID = RequestIDFromContext(r.Context())
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "req-from-proxy")
	rec := httptest.NewRecorder()
	RequestID()(handler).ServeHTTP(rec, req)

	if capturedID != "req-from-proxy" {
		t.Errorf("request ID = %q, want %q", capturedID, "req-from-proxy")
	}
}

func TestRequestIDReplacesOversizedHeader(t *testing.T) {
	var capturedID string
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		capturedID = RequestIDFromContext(r.Context())
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, strings.Repeat("x", 500))
	RequestID()(handler).ServeHTTP(httptest.NewRecorder(), req)

	if len(capturedID) > 128 {
		t.Errorf("oversized request ID was kept (%d bytes)", len(capturedID))
	}
}

func TestRequestIDUniquePerRequest(t *testing.T) {
	var ids []string
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ids = append(ids, RequestIDFromContext(r.Context()))
	})
	wrapped := RequestID()(handler)

	for range 2 {
		wrapped.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	}
	if ids[0] == ids[1] {
		t.Errorf("two requests got the same ID %q", ids[0])
	}
}

func TestLoggingRecordsStatus(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		wantLevel string
	}{
		{"ok", http.StatusOK, "INFO"},
		{"client error", http.StatusUnauthorized, "WARN"},
		{"server error", http.StatusInternalServerError, "ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var logs bytes.Buffer
			logger := slog.New(slog.NewJSONHandler(&logs, nil))

			handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			})

			req := httptest.NewRequest(http.MethodPost, "/api/auth/login", nil)
			req = req.WithContext(ContextWithRequestID(req.Context(), "req-1"))
			Logging(logger)(handler).ServeHTTP(httptest.NewRecorder(), req)

			var entry map[string]any
			if err := json.Unmarshal(logs.Bytes(), &entry); err != nil {
				t.Fatalf("log output is not JSON: %v (%s)", err, logs.String())
			}
			if entry["level"] != tt.wantLevel {
				t.Errorf("level = %v, want %s", entry["level"], tt.wantLevel)
			}
			if entry["status"] != float64(tt.status) {
				t.Errorf("status = %v, want %d", entry["status"], tt.status)
			}
			if entry["request_id"] != "req-1" || entry["path"] != "/api/auth/login" || entry["method"] != "POST" {
				t.Errorf("entry = %v", entry)
			}
		})
	}
}

func TestLoggingImplicitOK(t *testing.T) {
	var logs bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&logs, nil))

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("hello"))
	})
	Logging(logger)(handler).ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	if !strings.Contains(logs.String(), `"status":200`) {
		t.Errorf("log = %s, want status 200", logs.String())
	}
}
