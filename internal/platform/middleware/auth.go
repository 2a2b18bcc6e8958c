package middleware

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"veriledger/pkg/domain"
	"veriledger/pkg/requestcontext"
)

// Claims are the JWT claims the service expects from the admin token.
// The subject is the actor ID used for per-component role checks.
type Claims struct {
	jwt.RegisteredClaims
}

// JWTValidator validates bearer tokens and extracts the actor.
type JWTValidator interface {
	ValidateToken(tokenString string) (domain.ActorID, error)
}

// HMACValidator validates HS256 tokens signed with a shared key.
type HMACValidator struct {
	key []byte
}

func NewHMACValidator(signingKey string) *HMACValidator {
	return &HMACValidator{key: []byte(signingKey)}
}

func (v *HMACValidator) ValidateToken(tokenString string) (domain.ActorID, error) {
	var claims Claims
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return v.key, nil
	})
	if err != nil {
		return "", fmt.Errorf("parse token: %w", err)
	}
	if !token.Valid || claims.Subject == "" {
		return "", fmt.Errorf("token has no subject")
	}
	return domain.ActorID(claims.Subject), nil
}

// RequireAuth extracts the bearer token, validates it, and places the actor
// into the request context. Unauthenticated requests get a 401; role checks
// happen later in the services.
func RequireAuth(validator JWTValidator, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			authHeader := r.Header.Get("Authorization")
			token, ok := strings.CutPrefix(authHeader, "Bearer ")
			if !ok {
				writeUnauthorized(w)
				return
			}

			actor, err := validator.ValidateToken(token)
			if err != nil {
				logger.WarnContext(ctx, "unauthorized access - invalid token",
					"error", err.Error(),
					"request_id", requestcontext.RequestID(ctx),
				)
				writeUnauthorized(w)
				return
			}

			ctx = requestcontext.WithActor(ctx, actor)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func writeUnauthorized(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write([]byte(`{"error":"unauthorized","error_description":"Invalid or expired token"}`))
}
