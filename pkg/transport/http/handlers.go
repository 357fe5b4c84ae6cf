package http

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/rhuss/paydesk/pkg/api"
	"github.com/rhuss/paydesk/pkg/auth"
	"github.com/rhuss/paydesk/pkg/export"
	"github.com/rhuss/paydesk/pkg/transport"
)

const healthMessage = "Welcome to the paydesk API"

// handleHealthChecker handles GET /api/healthchecker.
func (a *Adapter) handleHealthChecker(w http.ResponseWriter, _ *http.Request) {
	transport.WriteJSON(w, http.StatusOK, api.MessageResponse{Status: api.StatusSuccess, Message: healthMessage})
}

// handleHealthz handles GET /healthz.
func (a *Adapter) handleHealthz(w http.ResponseWriter, r *http.Request) {
	if a.config.HealthCheck != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := a.config.HealthCheck(ctx); err != nil {
			slog.Warn("health check failed", "error", err)
			http.Error(w, "unhealthy", http.StatusServiceUnavailable)
			return
		}
	}
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

// handleRegister handles POST /api/auth/register.
func (a *Adapter) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req api.RegisterUserRequest
	if apiErr := transport.DecodeJSON(w, r, &req); apiErr != nil {
		transport.WriteAPIError(w, apiErr)
		return
	}

	u, err := a.svc.Accounts.Register(r.Context(), &req)
	if err != nil {
		transport.WriteError(w, r, err)
		return
	}

	transport.WriteJSON(w, http.StatusCreated, api.Success(map[string]any{"user": u.Filter()}))
}

// handleLogin handles POST /api/auth/login.
func (a *Adapter) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req api.LoginUserRequest
	if apiErr := transport.DecodeJSON(w, r, &req); apiErr != nil {
		transport.WriteAPIError(w, apiErr)
		return
	}

	tok, err := a.svc.Accounts.Login(r.Context(), &req)
	if err != nil {
		transport.WriteError(w, r, err)
		return
	}

	http.SetCookie(w, a.sessionCookie(tok))
	transport.WriteJSON(w, http.StatusOK, api.TokenResponse{Status: api.StatusSuccess, Token: tok})
}

// handleLogout handles GET /api/auth/logout. Tokens are stateless, so
// logging out only clears the cookie.
func (a *Adapter) handleLogout(w http.ResponseWriter, _ *http.Request) {
	http.SetCookie(w, a.sessionCookie(""))
	transport.WriteJSON(w, http.StatusOK, api.MessageResponse{Status: api.StatusSuccess})
}

// handleMe handles GET /api/users/me.
func (a *Adapter) handleMe(w http.ResponseWriter, r *http.Request) {
	u, err := a.svc.Accounts.CurrentUser(r.Context(), auth.IdentityFromContext(r.Context()))
	if err != nil {
		transport.WriteError(w, r, err)
		return
	}
	transport.WriteJSON(w, http.StatusOK, api.Success(map[string]any{"user": u.Filter()}))
}

// handleListUsers handles GET /api/users.
func (a *Adapter) handleListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := a.svc.Accounts.ListUsers(r.Context())
	if err != nil {
		transport.WriteError(w, r, err)
		return
	}

	filtered := make([]api.FilteredUser, 0, len(users))
	for _, u := range users {
		filtered = append(filtered, u.Filter())
	}
	transport.WriteJSON(w, http.StatusOK, api.Success(map[string]any{"users": filtered}))
}

// handleListRecords handles GET /api/records.
func (a *Adapter) handleListRecords(w http.ResponseWriter, r *http.Request) {
	records, err := a.svc.Records.ListRecords(r.Context())
	if err != nil {
		transport.WriteError(w, r, err)
		return
	}
	if records == nil {
		records = []*api.Record{}
	}
	transport.WriteJSON(w, http.StatusOK, api.Success(map[string]any{"records": records}))
}

// handleCreateRecord handles POST /api/records.
func (a *Adapter) handleCreateRecord(w http.ResponseWriter, r *http.Request) {
	var req api.CreateRecordRequest
	if apiErr := transport.DecodeJSON(w, r, &req); apiErr != nil {
		transport.WriteAPIError(w, apiErr)
		return
	}

	rec, err := a.svc.Records.CreateRecord(r.Context(), auth.IdentityFromContext(r.Context()), &req)
	if err != nil {
		transport.WriteError(w, r, err)
		return
	}
	transport.WriteJSON(w, http.StatusCreated, api.Success(map[string]any{"record": rec}))
}

// handleUpdateRecord handles PUT /api/records/{id}.
func (a *Adapter) handleUpdateRecord(w http.ResponseWriter, r *http.Request) {
	id, apiErr := recordID(r)
	if apiErr != nil {
		transport.WriteAPIError(w, apiErr)
		return
	}

	var req api.UpdateRecordRequest
	if apiErr := transport.DecodeJSON(w, r, &req); apiErr != nil {
		transport.WriteAPIError(w, apiErr)
		return
	}

	rec, err := a.svc.Records.UpdateRecord(r.Context(), auth.IdentityFromContext(r.Context()), id, &req)
	if err != nil {
		transport.WriteError(w, r, err)
		return
	}
	transport.WriteJSON(w, http.StatusOK, api.Success(map[string]any{"record": rec}))
}

// handleDeleteRecord handles DELETE /api/records/{id}.
func (a *Adapter) handleDeleteRecord(w http.ResponseWriter, r *http.Request) {
	id, apiErr := recordID(r)
	if apiErr != nil {
		transport.WriteAPIError(w, apiErr)
		return
	}

	if err := a.svc.Records.DeleteRecord(r.Context(), id); err != nil {
		transport.WriteError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleCreateExport handles POST /api/records/export.
func (a *Adapter) handleCreateExport(w http.ResponseWriter, r *http.Request) {
	exp, err := a.svc.Exports.CreateExport(r.Context())
	if err != nil {
		transport.WriteError(w, r, err)
		return
	}
	transport.WriteJSON(w, http.StatusCreated, api.Success(map[string]any{
		"name":      exp.Name,
		"size":      exp.Size,
		"rows":      exp.Rows,
		"createdAt": exp.CreatedAt,
	}))
}

// handleDownloadExport handles GET /api/records/export.
func (a *Adapter) handleDownloadExport(w http.ResponseWriter, r *http.Request) {
	rc, exp, err := a.svc.Exports.OpenExport(r.Context())
	if err != nil {
		transport.WriteError(w, r, err)
		return
	}
	defer rc.Close()

	w.Header().Set("Content-Type", export.ContentType)
	w.Header().Set("Content-Disposition", "attachment; filename="+exp.Name)
	if exp.Size > 0 {
		w.Header().Set("Content-Length", strconv.FormatInt(exp.Size, 10))
	}
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, rc); err != nil {
		slog.Warn("streaming export failed", "request_id", transport.RequestIDFromContext(r.Context()), "error", err)
	}
}

func recordID(r *http.Request) (int64, *api.APIError) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil || id <= 0 {
		return 0, api.NewInvalidRequestError("id", "invalid record id")
	}
	return id, nil
}
