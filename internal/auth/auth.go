// internal/auth/auth.go
package auth

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/dgrijalva/jwt-go"
	"golang.org/x/crypto/bcrypt"
)

// Config holds the gateway's authentication settings. Empty APIKeys
// disables API-key checks; an empty DashboardPasswordHash disables the
// dashboard login (useful for local runs). This is single-operator auth,
// not multi-tenant access control.
type Config struct {
	APIKeys               []string
	JWTSecret             string
	JWTExpirationMinutes  int
	DashboardPasswordHash string // bcrypt
}

// Claims are the JWT claims issued to a logged-in dashboard session.
type Claims struct {
	jwt.StandardClaims
}

// Manager validates API keys on the query surface and issues/validates
// JWTs for dashboard sessions.
type Manager struct {
	config Config
}

func NewManager(config Config) *Manager {
	return &Manager{config: config}
}

// Enabled reports whether any authentication is configured at all.
func (m *Manager) Enabled() bool {
	return len(m.config.APIKeys) > 0 || m.config.DashboardPasswordHash != ""
}

// CheckDashboardPassword compares a login attempt against the configured
// bcrypt hash.
func (m *Manager) CheckDashboardPassword(password string) error {
	if m.config.DashboardPasswordHash == "" {
		return errors.New("dashboard login is not configured")
	}
	return bcrypt.CompareHashAndPassword([]byte(m.config.DashboardPasswordHash), []byte(password))
}

// IssueJWT creates a session token for the dashboard.
func (m *Manager) IssueJWT() (string, error) {
	now := time.Now()
	claims := &Claims{
		StandardClaims: jwt.StandardClaims{
			ExpiresAt: now.Add(time.Duration(m.config.JWTExpirationMinutes) * time.Minute).Unix(),
			IssuedAt:  now.Unix(),
			Issuer:    "siem-anomaly-gateway",
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(m.config.JWTSecret))
}

// ValidateJWT parses and verifies a session token.
func (m *Manager) ValidateJWT(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(m.config.JWTSecret), nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, errors.New("invalid token")
	}
	return claims, nil
}

// ValidateAPIKey does a constant-time comparison against every configured
// key.
func (m *Manager) ValidateAPIKey(apiKey string) bool {
	for _, validKey := range m.config.APIKeys {
		if subtle.ConstantTimeCompare([]byte(apiKey), []byte(validKey)) == 1 {
			return true
		}
	}
	return false
}

// APIKeyMiddleware guards the query API with X-API-Key when keys are
// configured; with none configured it passes everything through.
func (m *Manager) APIKeyMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if len(m.config.APIKeys) == 0 {
			next.ServeHTTP(w, r)
			return
		}
		apiKey := r.Header.Get("X-API-Key")
		if apiKey == "" {
			http.Error(w, "API key required", http.StatusUnauthorized)
			return
		}
		if !m.ValidateAPIKey(apiKey) {
			http.Error(w, "Invalid API key", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// JWTMiddleware guards dashboard endpoints with a Bearer token when the
// dashboard login is configured.
func (m *Manager) JWTMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if m.config.DashboardPasswordHash == "" {
			next.ServeHTTP(w, r)
			return
		}
		token := bearerToken(r)
		if token == "" {
			// Browsers cannot set headers on websocket upgrades; accept the
			// token as a query parameter there.
			token = r.URL.Query().Get("token")
		}
		if token == "" {
			http.Error(w, "Authorization required", http.StatusUnauthorized)
			return
		}
		if _, err := m.ValidateJWT(token); err != nil {
			http.Error(w, "Invalid or expired token", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func bearerToken(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" {
		return ""
	}
	return parts[1]
}

// HashPassword creates a bcrypt hash for the dashboard password; exposed
// for the -hash-password bootstrap flag.
func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return string(bytes), err
}
