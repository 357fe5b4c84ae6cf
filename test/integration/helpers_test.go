// Package integration provides integration tests for the paydesk API.
//
// Tests run against a real paydesk HTTP server backed by a SQLite file
// store and a file export sink, started in-process using
// net/http/httptest.
package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rhuss/paydesk/pkg/api"
	"github.com/rhuss/paydesk/pkg/auth"
	"github.com/rhuss/paydesk/pkg/auth/password"
	"github.com/rhuss/paydesk/pkg/auth/token"
	"github.com/rhuss/paydesk/pkg/export"
	"github.com/rhuss/paydesk/pkg/service"
	"github.com/rhuss/paydesk/pkg/storage/sqlite"
	transporthttp "github.com/rhuss/paydesk/pkg/transport/http"
)

const (
	testSecret    = "integration-secret"
	adminEmail    = "bursar@school.test"
	adminPassword = "bursar-pass"
)

// testEnv holds the shared server for all integration tests.
var testEnv *TestEnvironment

// TestEnvironment holds the paydesk server and its backing state.
type TestEnvironment struct {
	Server  *httptest.Server
	Store   *sqlite.Store
	Hasher  *password.Hasher
	DataDir string
}

// TestMain starts the paydesk server before running tests.
func TestMain(m *testing.M) {
	env, err := setupTestEnvironment()
	if err != nil {
		fmt.Fprintf(os.Stderr, "setting up test environment: %v\n", err)
		os.Exit(1)
	}
	testEnv = env
	code := m.Run()
	testEnv.Teardown()
	os.Exit(code)
}

// setupTestEnvironment wires the same stack as cmd/server with cheap
// hashing parameters and seeds one admin account.
func setupTestEnvironment() (*TestEnvironment, error) {
	dir, err := os.MkdirTemp("", "paydesk-integration-")
	if err != nil {
		return nil, err
	}

	store, err := sqlite.New(sqlite.Config{Path: filepath.Join(dir, "paydesk.db")})
	if err != nil {
		return nil, fmt.Errorf("opening sqlite store: %w", err)
	}

	hasher, err := password.New(password.WithParams(password.Params{
		Iterations: 1, Memory: 1024, Threads: 1, SaltLength: 16, KeyLength: 32,
	}))
	if err != nil {
		return nil, fmt.Errorf("creating hasher: %w", err)
	}

	env := &TestEnvironment{Store: store, Hasher: hasher, DataDir: dir}
	handler, err := env.newHandler()
	if err != nil {
		return nil, err
	}
	env.Server = httptest.NewServer(handler)

	hash, err := hasher.Hash(context.Background(), adminPassword)
	if err != nil {
		return nil, fmt.Errorf("hashing admin password: %w", err)
	}
	err = store.CreateUser(context.Background(), &api.User{
		ID:       api.NewUserID(),
		Name:     "bursar",
		Email:    adminEmail,
		Password: hash,
		Role:     api.RoleAdmin,
		Photo:    api.DefaultPhoto,
		Verified: true,
	})
	if err != nil {
		return nil, fmt.Errorf("seeding admin: %w", err)
	}
	return env, nil
}

// newHandler builds a server handler over the environment's store. Every
// handler shares the signing secret, so tokens carry over between them.
func (env *TestEnvironment) newHandler() (http.Handler, error) {
	codec, err := token.New([]byte(testSecret))
	if err != nil {
		return nil, fmt.Errorf("creating codec: %w", err)
	}
	sink, err := export.NewFileSink(filepath.Join(env.DataDir, "exports"))
	if err != nil {
		return nil, fmt.Errorf("creating sink: %w", err)
	}
	svc, err := service.New(context.Background(), service.Deps{
		Store:    env.Store,
		Hasher:   env.Hasher,
		Codec:    codec,
		Exporter: export.NewExporter(env.Store, sink),
	}, service.DefaultConfig())
	if err != nil {
		return nil, fmt.Errorf("creating service: %w", err)
	}

	cfg := transporthttp.DefaultConfig()
	cfg.HealthCheck = env.Store.HealthCheck
	gate := auth.NewGate(auth.NewExtractor(cfg.CookieName), codec, auth.NewResolver(env.Store))
	srv := transporthttp.NewServer(
		transporthttp.Services{Accounts: svc, Records: svc, Exports: svc},
		gate, cfg,
	)
	return srv.Handler(), nil
}

// Teardown stops the server and removes the data directory.
func (env *TestEnvironment) Teardown() {
	if env.Server != nil {
		env.Server.Close()
	}
	if env.Store != nil {
		env.Store.Close()
	}
	os.RemoveAll(env.DataDir)
}

// BaseURL returns the paydesk server base URL.
func (env *TestEnvironment) BaseURL() string {
	return env.Server.URL
}

// --- HTTP helpers ---

// newClient returns a client with its own cookie jar.
func newClient(t *testing.T) *http.Client {
	t.Helper()
	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatalf("creating cookie jar: %v", err)
	}
	return &http.Client{Jar: jar, Timeout: 10 * time.Second}
}

// doJSON sends a request with an optional JSON body and bearer token.
func doJSON(t *testing.T, client *http.Client, method, url string, body any, tok string) *http.Response {
	t.Helper()
	var rdr io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshaling request: %v", err)
		}
		rdr = bytes.NewReader(data)
	}
	req, err := http.NewRequest(method, url, rdr)
	if err != nil {
		t.Fatalf("creating %s request: %v", method, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}
	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	return resp
}

// postJSON sends an unauthenticated POST with a JSON body.
func postJSON(t *testing.T, url string, body any) *http.Response {
	t.Helper()
	return doJSON(t, http.DefaultClient, http.MethodPost, url, body, "")
}

// getURL sends an unauthenticated GET.
func getURL(t *testing.T, url string) *http.Response {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	return resp
}

// readBody reads and returns the response body as a string.
func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("reading response body: %v", err)
	}
	return string(body)
}

// decodeJSON reads the response body and decodes it into the target.
func decodeJSON(t *testing.T, resp *http.Response, target any) {
	t.Helper()
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
		t.Fatalf("decoding JSON: %v", err)
	}
}

// expectFail checks the status code and failure envelope of resp.
func expectFail(t *testing.T, resp *http.Response, status int, message string) {
	t.Helper()
	var body api.ErrorResponse
	code := resp.StatusCode
	decodeJSON(t, resp, &body)
	if code != status {
		t.Errorf("status = %d, want %d (message %q)", code, status, body.Message)
	}
	if body.Status != api.StatusFail {
		t.Errorf("status field = %q, want %q", body.Status, api.StatusFail)
	}
	if message != "" && body.Message != message {
		t.Errorf("message = %q, want %q", body.Message, message)
	}
}

// register creates an account and fails the test on any other outcome.
func register(t *testing.T, name, email, pw string) {
	t.Helper()
	resp := postJSON(t, testEnv.BaseURL()+"/api/auth/register",
		api.RegisterUserRequest{Name: name, Email: email, Password: pw})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("register %s: status %d: %s", email, resp.StatusCode, readBody(t, resp))
	}
	resp.Body.Close()
}

// login returns the session token for the given credentials.
func login(t *testing.T, client *http.Client, email, pw string) string {
	t.Helper()
	resp := doJSON(t, client, http.MethodPost, testEnv.BaseURL()+"/api/auth/login",
		api.LoginUserRequest{Email: email, Password: pw}, "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login %s: status %d: %s", email, resp.StatusCode, readBody(t, resp))
	}
	var body api.TokenResponse
	decodeJSON(t, resp, &body)
	if body.Token == "" {
		t.Fatal("login returned an empty token")
	}
	return body.Token
}
