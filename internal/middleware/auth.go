package middleware

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/R3E-Network/neostream/internal/httputil"
	"github.com/R3E-Network/neostream/pkg/logger"
)

// Claims carries the authenticated caller inside a bearer token.
type Claims struct {
	UserID string `json:"user_id"`
	jwt.RegisteredClaims
}

// AuthConfig configures request authentication. With no API keys and no JWT
// secret the middleware passes every request through.
type AuthConfig struct {
	APIKeys   []string
	JWTSecret string
	SkipPaths []string
}

// AuthMiddleware accepts either a known X-API-Key or a Bearer token signed
// with the shared secret. API keys are checked first.
type AuthMiddleware struct {
	keyHashes map[string]struct{}
	jwtSecret []byte
	skipPaths map[string]bool
	log       *logger.Logger
}

// NewAuthMiddleware creates a new authentication middleware.
func NewAuthMiddleware(cfg AuthConfig, log *logger.Logger) *AuthMiddleware {
	if log == nil {
		log = logger.NewDefault("auth")
	}

	keyHashes := make(map[string]struct{}, len(cfg.APIKeys))
	for _, key := range cfg.APIKeys {
		if key = strings.TrimSpace(key); key != "" {
			keyHashes[hashKey(key)] = struct{}{}
		}
	}

	skip := make(map[string]bool, len(cfg.SkipPaths))
	for _, path := range cfg.SkipPaths {
		skip[path] = true
	}

	return &AuthMiddleware{
		keyHashes: keyHashes,
		jwtSecret: []byte(cfg.JWTSecret),
		skipPaths: skip,
		log:       log,
	}
}

// Enabled reports whether any credential source is configured.
func (m *AuthMiddleware) Enabled() bool {
	return len(m.keyHashes) > 0 || len(m.jwtSecret) > 0
}

// Handler returns the middleware handler.
func (m *AuthMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !m.Enabled() || m.skipPaths[r.URL.Path] {
			next.ServeHTTP(w, r)
			return
		}

		// Try API key first
		if apiKey := r.Header.Get(APIKeyHeader); apiKey != "" {
			if _, ok := m.keyHashes[hashKey(apiKey)]; ok {
				next.ServeHTTP(w, r.WithContext(WithUserID(r.Context(), "api-key")))
				return
			}
			m.log.WithField("path", r.URL.Path).Warn("rejected unknown api key")
			httputil.Unauthorized(w, "invalid api key")
			return
		}

		authHeader := r.Header.Get("Authorization")
		if !strings.HasPrefix(authHeader, "Bearer ") {
			httputil.Unauthorized(w, "missing authorization")
			return
		}
		if len(m.jwtSecret) == 0 {
			httputil.Unauthorized(w, "bearer tokens not accepted")
			return
		}

		userID, err := m.validateToken(strings.TrimPrefix(authHeader, "Bearer "))
		if err != nil {
			m.log.WithError(err).
				WithField("path", r.URL.Path).
				Warn("token validation failed")
			httputil.Unauthorized(w, "invalid token")
			return
		}

		next.ServeHTTP(w, r.WithContext(WithUserID(r.Context(), userID)))
	})
}

// validateToken checks the signature and claims of a bearer token.
func (m *AuthMiddleware) validateToken(tokenString string) (string, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return m.jwtSecret, nil
	})
	if err != nil {
		return "", err
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return "", fmt.Errorf("invalid token")
	}
	if claims.UserID == "" {
		return "", fmt.Errorf("token missing user_id")
	}
	return claims.UserID, nil
}

func hashKey(key string) string {
	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:])
}
