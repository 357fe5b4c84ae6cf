package auth

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/rhuss/paydesk/pkg/api"
	"github.com/rhuss/paydesk/pkg/auth/token"
	"github.com/rhuss/paydesk/pkg/observability"
)

// TokenVerifier checks a session token. token.Codec implements it.
type TokenVerifier interface {
	Verify(tok string) (token.Claims, error)
}

// Gate authenticates requests and optionally enforces a role.
type Gate struct {
	extractor *Extractor
	verifier  TokenVerifier
	resolver  *Resolver
}

// NewGate composes the three authentication stages.
func NewGate(extractor *Extractor, verifier TokenVerifier, resolver *Resolver) *Gate {
	return &Gate{extractor: extractor, verifier: verifier, resolver: resolver}
}

// Authenticate runs extraction, verification and resolution for r.
func (g *Gate) Authenticate(r *http.Request) Outcome {
	tok, ok := g.extractor.Extract(r)
	if !ok {
		return rejected(RejectNoCredential)
	}

	claims, err := g.verifier.Verify(tok)
	switch {
	case errors.Is(err, token.ErrExpired):
		return rejected(RejectExpired)
	case err != nil:
		return rejected(RejectInvalidToken)
	}

	id, err := g.resolver.Resolve(r.Context(), claims.Subject)
	switch {
	case errors.Is(err, ErrSubjectNotFound):
		return rejected(RejectUnknownSubject)
	case err != nil:
		slog.Error("resolving token subject",
			"subject", claims.Subject,
			"error", err,
		)
		return rejected(RejectTransientFailure)
	}

	return authenticated(id)
}

// Authorize runs Authenticate and, when role is non-empty, requires the
// identity to carry it.
func (g *Gate) Authorize(r *http.Request, role api.Role) Outcome {
	out := g.Authenticate(r)
	if !out.Authenticated() {
		return out
	}
	if role != "" && !out.Identity.HasRole(role) {
		return rejected(RejectInsufficientRole)
	}
	return out
}

// Middleware admits any authenticated caller.
func (g *Gate) Middleware(next http.Handler) http.Handler {
	return g.handler(next, "")
}

// RequireRole returns middleware admitting only callers with role.
func (g *Gate) RequireRole(role api.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return g.handler(next, role)
	}
}

func (g *Gate) handler(next http.Handler, role api.Role) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		out := g.Authorize(r, role)
		if !out.Authenticated() {
			observability.AuthOutcomesTotal.WithLabelValues(out.Rejection.String()).Inc()
			slog.Warn("request rejected",
				"reason", out.Rejection.String(),
				"path", r.URL.Path,
				"remote_addr", r.RemoteAddr,
			)
			WriteRejection(w, out.Rejection)
			return
		}

		observability.AuthOutcomesTotal.WithLabelValues("authenticated").Inc()
		slog.Debug("authentication succeeded",
			"subject", out.Identity.ID,
			"role", string(out.Identity.Role),
			"path", r.URL.Path,
		)

		next.ServeHTTP(w, r.WithContext(SetIdentity(r.Context(), out.Identity)))
	})
}

// WriteRejection writes the failure envelope for reason.
func WriteRejection(w http.ResponseWriter, reason Rejection) {
	writeAPIError(w, reason.StatusCode(), reason.APIError())
}

func writeAPIError(w http.ResponseWriter, status int, apiErr *api.APIError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(api.NewErrorResponse(apiErr))
}
