package auth

import (
	"net/http"
	"strings"
)

// DefaultCookieName is the session cookie set at login.
const DefaultCookieName = "token"

// Source finds a candidate token in a request. ok is false when the
// source has nothing to offer; absence is not an error.
type Source interface {
	Token(r *http.Request) (token string, ok bool)
}

// CookieSource reads the token from a named cookie.
type CookieSource struct {
	Name string
}

// Token returns the cookie value. An empty value counts as absent.
func (s CookieSource) Token(r *http.Request) (string, bool) {
	c, err := r.Cookie(s.Name)
	if err != nil || c.Value == "" {
		return "", false
	}
	return c.Value, true
}

// BearerSource reads the token from an "Authorization: Bearer" header.
type BearerSource struct{}

// Token returns the bearer credential. Other schemes and an empty
// credential count as absent.
func (BearerSource) Token(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	scheme, credential, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	credential = strings.TrimSpace(credential)
	if credential == "" {
		return "", false
	}
	return credential, true
}

// Extractor tries its sources left to right; the first hit wins.
type Extractor struct {
	Sources []Source
}

// NewExtractor returns the standard extractor: the named cookie first,
// then the Authorization header.
func NewExtractor(cookieName string) *Extractor {
	if cookieName == "" {
		cookieName = DefaultCookieName
	}
	return &Extractor{
		Sources: []Source{CookieSource{Name: cookieName}, BearerSource{}},
	}
}

// Extract returns the first token found, or ok=false when no source has one.
func (e *Extractor) Extract(r *http.Request) (string, bool) {
	for _, src := range e.Sources {
		if tok, ok := src.Token(r); ok {
			return tok, true
		}
	}
	return "", false
}
