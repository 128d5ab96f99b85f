package appMiddleware

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/patrickmn/go-cache"

	"github.com/FACorreiaa/go-vietspot-suggestions/internal/api"
)

type contextKey string

const UserIDKey contextKey = "userID"

// ErrNoSigningKey is returned when no secret is configured.
var ErrNoSigningKey = errors.New("jwt signing key not configured")

// Claims carried by bearer tokens. Only the subject is required.
type Claims struct {
	UserID string `json:"user_id"`
	jwt.RegisteredClaims
}

// KeyProvider resolves the HMAC key used to verify tokens.
type KeyProvider interface {
	SigningKey() ([]byte, error)
}

// EnvKeyProvider reads the key from an environment variable and keeps it in a
// TTL cache so a rotated secret is picked up without a restart.
type EnvKeyProvider struct {
	envVar string
	cache  *cache.Cache
	lookup func(string) string
}

func NewEnvKeyProvider(envVar string, ttl time.Duration) *EnvKeyProvider {
	return &EnvKeyProvider{
		envVar: envVar,
		cache:  cache.New(ttl, 2*ttl),
		lookup: os.Getenv,
	}
}

func (p *EnvKeyProvider) SigningKey() ([]byte, error) {
	if v, ok := p.cache.Get(p.envVar); ok {
		return v.([]byte), nil
	}
	secret := p.lookup(p.envVar)
	if secret == "" {
		return nil, ErrNoSigningKey
	}
	key := []byte(secret)
	p.cache.SetDefault(p.envVar, key)
	return key, nil
}

// OptionalAuth lets anonymous requests through untouched. A request that
// does present a bearer token must present a valid one; its user id and role
// are then stored in the request context.
func OptionalAuth(keys KeyProvider, audience string, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" {
				next.ServeHTTP(w, r)
				return
			}

			scheme, token, ok := strings.Cut(header, " ")
			if !ok || !strings.EqualFold(scheme, "bearer") || token == "" {
				api.ErrorResponse(w, r, http.StatusUnauthorized, "Authorization header format must be Bearer {token}")
				return
			}

			claims, err := parseToken(token, keys)
			if err != nil {
				logger.WarnContext(r.Context(), "Rejected bearer token", slog.Any("error", err))
				api.ErrorResponse(w, r, http.StatusUnauthorized, "Invalid or expired token")
				return
			}
			if !api.VerifyAudience(claims.Audience, audience) {
				api.ErrorResponse(w, r, http.StatusUnauthorized, "Invalid token audience")
				return
			}

			userID := claims.UserID
			if userID == "" {
				userID = claims.Subject
			}
			ctx := context.WithValue(r.Context(), UserIDKey, userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func parseToken(raw string, keys KeyProvider) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return keys.SigningKey()
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, jwt.ErrTokenInvalidClaims
	}
	return claims, nil
}

func GetUserIDFromContext(ctx context.Context) (string, bool) {
	userID, ok := ctx.Value(UserIDKey).(string)
	return userID, ok && userID != ""
}
