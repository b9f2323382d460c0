package middleware

import (
	"net/http"

	"github.com/CleanAfricaNow/civic-service/internal/models"
	"github.com/CleanAfricaNow/civic-service/internal/service"
)

// Decision is the outcome of evaluating a session against a route's
// requirements.
type Decision int

const (
	// DecisionWait means the identity is still resolving; render nothing
	// yet rather than bouncing the user.
	DecisionWait Decision = iota
	// DecisionToAuth sends an unauthenticated visitor to sign in.
	DecisionToAuth
	// DecisionToHome sends an authenticated user without the required
	// role back to the landing page.
	DecisionToHome
	// DecisionAllow lets the request through.
	DecisionAllow
)

// Decide is the pure guard kernel. required empty means any signed-in
// user passes. The role check is an intersection: holding any one of the
// required roles is enough.
func Decide(state *service.SessionState, required []models.Role) Decision {
	if state == nil || state.Loading {
		return DecisionWait
	}
	if state.User == nil {
		return DecisionToAuth
	}
	if len(required) == 0 {
		return DecisionAllow
	}
	for _, need := range required {
		for _, have := range state.Roles {
			if have == need {
				return DecisionAllow
			}
		}
	}
	return DecisionToHome
}

// RequireAuth rejects unauthenticated requests with a 401 pointing the
// client at the sign-in page.
func RequireAuth(next http.Handler) http.Handler {
	return RequireRoles()(next)
}

// RequireRoles builds a guard middleware for a route. 401 and 403
// responses carry a Location header so thin clients can follow the same
// redirects a browser app would.
func RequireRoles(required ...models.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			state := StateFrom(r.Context())
			if state == nil {
				if claims := ClaimsFrom(r.Context()); claims != nil {
					// Authenticated but the loader was not mounted;
					// build a claims-only state.
					state = &service.SessionState{
						User:  &models.User{ID: claims.UserID, Email: claims.Email},
						Roles: claims.Roles,
					}
				}
			}

			switch Decide(state, required) {
			case DecisionAllow:
				next.ServeHTTP(w, r)
			case DecisionWait:
				// A server never holds a request for a session that is
				// still resolving; absent identity reads as signed out.
				fallthrough
			case DecisionToAuth:
				w.Header().Set("Location", service.PathAuth)
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
			case DecisionToHome:
				w.Header().Set("Location", service.PathHome)
				http.Error(w, "Forbidden", http.StatusForbidden)
			}
		})
	}
}
