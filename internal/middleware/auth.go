package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/CleanAfricaNow/civic-service/internal/service"
	"github.com/CleanAfricaNow/civic-service/internal/util"
)

type contextKey string

const (
	ContextClaims contextKey = "claims"
	ContextState  contextKey = "sessionState"
)

// TokenRevoker answers whether a token id has been revoked.
type TokenRevoker interface {
	IsRevoked(ctx context.Context, tokenID string) bool
}

// Authenticator validates the bearer access token and stores its claims
// in the request context. Requests without a token pass through
// unauthenticated; the guards downstream decide whether that is allowed.
func Authenticator(jwtm *util.JWTManager, revoker TokenRevoker) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := bearerToken(r)
			if raw == "" {
				next.ServeHTTP(w, r)
				return
			}

			claims, err := jwtm.ValidateToken(raw, util.AccessToken)
			if err != nil {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}
			if revoker.IsRevoked(r.Context(), claims.ID) {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), ContextClaims, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// SessionLoader resolves the identity snapshot for authenticated requests
// and stores it alongside the claims. Handlers that render role-dependent
// responses read the state; pure CRUD handlers can ignore it.
func SessionLoader(auth *service.AuthService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims := ClaimsFrom(r.Context())
			if claims == nil {
				next.ServeHTTP(w, r)
				return
			}
			state := auth.State(r.Context(), claims)
			ctx := context.WithValue(r.Context(), ContextState, &state)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// ClaimsFrom returns the validated claims, or nil when the request is
// unauthenticated.
func ClaimsFrom(ctx context.Context) *util.SessionClaims {
	claims, _ := ctx.Value(ContextClaims).(*util.SessionClaims)
	return claims
}

// StateFrom returns the loaded session state, or nil.
func StateFrom(ctx context.Context) *service.SessionState {
	state, _ := ctx.Value(ContextState).(*service.SessionState)
	return state
}

func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if h == "" {
		return ""
	}
	parts := strings.SplitN(h, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
