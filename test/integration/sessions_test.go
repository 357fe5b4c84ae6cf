package integration

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"testing"

	gormsqlite "gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/rhuss/paydesk/pkg/api"
)

type meResponse struct {
	Status string `json:"status"`
	Data   struct {
		User api.FilteredUser `json:"user"`
	} `json:"data"`
}

func TestRegisterLoginAndMe(t *testing.T) {
	register(t, "Ana Cruz", "ana@school.test", "ana-pass")

	client := newClient(t)
	tok := login(t, client, "ana@school.test", "ana-pass")

	resp := doJSON(t, client, http.MethodGet, testEnv.BaseURL()+"/api/users/me", nil, tok)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("me: status %d: %s", resp.StatusCode, readBody(t, resp))
	}
	var me meResponse
	decodeJSON(t, resp, &me)
	if me.Data.User.Email != "ana@school.test" {
		t.Errorf("email = %q", me.Data.User.Email)
	}
	if me.Data.User.Role != api.RoleUser {
		t.Errorf("role = %q, want %q", me.Data.User.Role, api.RoleUser)
	}
}

func TestLoginByName(t *testing.T) {
	register(t, "ben", "ben@school.test", "ben-pass")
	login(t, newClient(t), "ben", "ben-pass")
}

func TestCookieSession(t *testing.T) {
	register(t, "Cora", "cora@school.test", "cora-pass")

	client := newClient(t)
	login(t, client, "cora@school.test", "cora-pass")

	base, err := url.Parse(testEnv.BaseURL())
	if err != nil {
		t.Fatalf("parse base url: %v", err)
	}
	if len(client.Jar.Cookies(base)) == 0 {
		t.Fatal("login did not set a session cookie")
	}

	// The jar supplies the credential; no Authorization header.
	resp := doJSON(t, client, http.MethodGet, testEnv.BaseURL()+"/api/users/me", nil, "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("me with cookie: status %d: %s", resp.StatusCode, readBody(t, resp))
	}
	resp.Body.Close()

	resp = doJSON(t, client, http.MethodGet, testEnv.BaseURL()+"/api/auth/logout", nil, "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("logout: status %d", resp.StatusCode)
	}
	resp.Body.Close()

	resp = doJSON(t, client, http.MethodGet, testEnv.BaseURL()+"/api/users/me", nil, "")
	expectFail(t, resp, http.StatusUnauthorized, "You are not logged in, please provide token")
}

func TestDuplicateRegistration(t *testing.T) {
	register(t, "Dee", "dee@school.test", "dee-pass")

	resp := postJSON(t, testEnv.BaseURL()+"/api/auth/register",
		api.RegisterUserRequest{Name: "Dee Two", Email: "DEE@school.test", Password: "other-pass"})
	expectFail(t, resp, http.StatusConflict, "User with that email already exists")
}

func TestLoginFailuresLookTheSame(t *testing.T) {
	register(t, "Eve", "eve@school.test", "eve-pass")

	wrongPassword := postJSON(t, testEnv.BaseURL()+"/api/auth/login",
		api.LoginUserRequest{Email: "eve@school.test", Password: "nope-nope"})
	unknownUser := postJSON(t, testEnv.BaseURL()+"/api/auth/login",
		api.LoginUserRequest{Email: "ghost@school.test", Password: "nope-nope"})

	if wrongPassword.StatusCode != unknownUser.StatusCode {
		t.Errorf("status differs: %d vs %d", wrongPassword.StatusCode, unknownUser.StatusCode)
	}
	a, b := readBody(t, wrongPassword), readBody(t, unknownUser)
	if a != b {
		t.Errorf("bodies differ:\n%s\n%s", a, b)
	}
}

func TestTokenSurvivesRestart(t *testing.T) {
	register(t, "Fay", "fay@school.test", "fay-pass")
	tok := login(t, newClient(t), "fay@school.test", "fay-pass")

	// A second server over the same database file and secret accepts the
	// token, since sessions are stateless.
	handler, err := testEnv.newHandler()
	if err != nil {
		t.Fatalf("newHandler: %v", err)
	}
	second := httptest.NewServer(handler)
	defer second.Close()

	resp := doJSON(t, http.DefaultClient, http.MethodGet, second.URL+"/api/users/me", nil, tok)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("me on second server: status %d: %s", resp.StatusCode, readBody(t, resp))
	}
	resp.Body.Close()
}

func TestDeletedAccountTokenRejected(t *testing.T) {
	register(t, "Gil", "gil@school.test", "gil-pass")
	tok := login(t, newClient(t), "gil@school.test", "gil-pass")

	u, err := testEnv.Store.FindByLoginKey(context.Background(), "gil@school.test")
	if err != nil {
		t.Fatalf("FindByLoginKey: %v", err)
	}
	// The store has no account deletion, so remove the row out of band.
	db, err := gorm.Open(gormsqlite.Open(filepath.Join(testEnv.DataDir, "paydesk.db")), &gorm.Config{})
	if err != nil {
		t.Fatalf("opening database: %v", err)
	}
	if err := db.Exec("DELETE FROM users WHERE id = ?", u.ID).Error; err != nil {
		t.Fatalf("deleting user: %v", err)
	}
	if sqlDB, err := db.DB(); err == nil {
		sqlDB.Close()
	}

	resp := doJSON(t, http.DefaultClient, http.MethodGet, testEnv.BaseURL()+"/api/users/me", nil, tok)
	expectFail(t, resp, http.StatusUnauthorized, "The user belonging to this token no longer exists")
}
