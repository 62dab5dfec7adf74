// Package auth guards the API with either a static API key header or a
// signed bearer token. The service is single-operator; there are no users or
// roles, only "allowed in or not".
package auth

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

type Claims struct {
	Sub string `json:"sub"`
	jwt.RegisteredClaims
}

type Middleware struct {
	apiKeyHash [32]byte
	headerName string
	jwtSecret  []byte
	// open is set when neither credential is configured; every request
	// passes. Meant for local development only.
	open bool
}

func NewMiddleware(apiKey, headerName, jwtSecret string) *Middleware {
	m := &Middleware{
		headerName: headerName,
		jwtSecret:  []byte(jwtSecret),
		open:       apiKey == "" && jwtSecret == "",
	}
	if apiKey != "" {
		m.apiKeyHash = sha256.Sum256([]byte(apiKey))
	}
	return m
}

// Authenticate admits requests carrying the configured API key header or a
// valid bearer token. API key wins when both are present.
func (m *Middleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if m.open {
			next.ServeHTTP(w, r)
			return
		}

		if key := r.Header.Get(m.headerName); key != "" {
			if m.checkAPIKey(key) {
				next.ServeHTTP(w, r)
				return
			}
			writeError(w, http.StatusUnauthorized, "invalid API key")
			return
		}

		if token := extractBearerToken(r); token != "" {
			if err := m.checkToken(token); err != nil {
				writeError(w, http.StatusUnauthorized, "invalid token")
				return
			}
			next.ServeHTTP(w, r)
			return
		}

		writeError(w, http.StatusUnauthorized, "missing credentials")
	})
}

func (m *Middleware) checkAPIKey(key string) bool {
	var zero [32]byte
	if m.apiKeyHash == zero {
		return false
	}
	hash := sha256.Sum256([]byte(key))
	return subtle.ConstantTimeCompare(hash[:], m.apiKeyHash[:]) == 1
}

func (m *Middleware) checkToken(tokenStr string) error {
	if len(m.jwtSecret) == 0 {
		return fmt.Errorf("bearer auth not configured")
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return m.jwtSecret, nil
	})
	if err != nil {
		return err
	}
	if !token.Valid {
		return fmt.Errorf("token invalid")
	}
	if claims.ExpiresAt != nil && claims.ExpiresAt.Time.Before(time.Now()) {
		return fmt.Errorf("token expired")
	}
	return nil
}

// IssueToken signs a bearer token for the given subject. There is no login
// endpoint; operators mint tokens out of band.
func (m *Middleware) IssueToken(subject string, ttl time.Duration) (string, error) {
	if len(m.jwtSecret) == 0 {
		return "", fmt.Errorf("JWT secret not configured")
	}
	now := time.Now()
	claims := Claims{
		Sub: subject,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.jwtSecret)
}

func extractBearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	if strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimPrefix(auth, "Bearer ")
	}
	return ""
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
