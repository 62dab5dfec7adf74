package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func authedRequest(m *Middleware, mutate func(*http.Request)) *httptest.ResponseRecorder {
	handler := m.Authenticate(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if mutate != nil {
		mutate(req)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestAuthenticateValidAPIKey(t *testing.T) {
	m := NewMiddleware("secret-key", "X-API-Key", "")
	rec := authedRequest(m, func(r *http.Request) { r.Header.Set("X-API-Key", "secret-key") })
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAuthenticateWrongAPIKey(t *testing.T) {
	m := NewMiddleware("secret-key", "X-API-Key", "")
	rec := authedRequest(m, func(r *http.Request) { r.Header.Set("X-API-Key", "wrong") })
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthenticateMissingCredentials(t *testing.T) {
	m := NewMiddleware("secret-key", "X-API-Key", "")
	rec := authedRequest(m, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthenticateOpenMode(t *testing.T) {
	// Nothing configured: local development, everything passes.
	m := NewMiddleware("", "X-API-Key", "")
	rec := authedRequest(m, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAuthenticateBearerRoundtrip(t *testing.T) {
	m := NewMiddleware("", "X-API-Key", "jwt-secret")

	token, err := m.IssueToken("operator", time.Hour)
	require.NoError(t, err)

	rec := authedRequest(m, func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+token) })
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAuthenticateExpiredToken(t *testing.T) {
	m := NewMiddleware("", "X-API-Key", "jwt-secret")

	token, err := m.IssueToken("operator", -time.Minute)
	require.NoError(t, err)

	rec := authedRequest(m, func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+token) })
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthenticateTokenSignedWithOtherSecret(t *testing.T) {
	other := NewMiddleware("", "X-API-Key", "other-secret")
	token, err := other.IssueToken("operator", time.Hour)
	require.NoError(t, err)

	m := NewMiddleware("", "X-API-Key", "jwt-secret")
	rec := authedRequest(m, func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+token) })
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAPIKeyWinsOverBearer(t *testing.T) {
	m := NewMiddleware("secret-key", "X-API-Key", "jwt-secret")

	// A wrong API key rejects even with a valid bearer token present.
	token, err := m.IssueToken("operator", time.Hour)
	require.NoError(t, err)

	rec := authedRequest(m, func(r *http.Request) {
		r.Header.Set("X-API-Key", "wrong")
		r.Header.Set("Authorization", "Bearer "+token)
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestIssueTokenRequiresSecret(t *testing.T) {
	m := NewMiddleware("key", "X-API-Key", "")
	_, err := m.IssueToken("operator", time.Hour)
	assert.Error(t, err)
}
