package integration

import (
	"net/http"
	"strings"
	"testing"

	"github.com/rhuss/paydesk/pkg/api"
)

func TestHealthEndpoint(t *testing.T) {
	resp := getURL(t, testEnv.BaseURL()+"/healthz")
	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected 200, got %d", resp.StatusCode)
	}

	body := readBody(t, resp)
	if !strings.Contains(body, "ok") {
		t.Errorf("body = %q, want to contain 'ok'", body)
	}
}

func TestHealthCheckerNoAuth(t *testing.T) {
	resp := getURL(t, testEnv.BaseURL()+"/api/healthchecker")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 without auth, got %d", resp.StatusCode)
	}

	var body api.MessageResponse
	decodeJSON(t, resp, &body)
	if body.Status != api.StatusSuccess {
		t.Errorf("status = %q, want %q", body.Status, api.StatusSuccess)
	}
	if body.Message == "" {
		t.Error("message is empty")
	}
}
