package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/CleanAfricaNow/civic-service/internal/models"
	"github.com/CleanAfricaNow/civic-service/internal/service"
)

func signedIn(roles ...models.Role) *service.SessionState {
	return &service.SessionState{
		User:  &models.User{Email: "user@example.com"},
		Roles: roles,
	}
}

func TestDecide(t *testing.T) {
	cases := []struct {
		name     string
		state    *service.SessionState
		required []models.Role
		want     Decision
	}{
		{"nil state waits", nil, nil, DecisionWait},
		{"loading waits even with required roles", &service.SessionState{Loading: true}, []models.Role{models.RoleAdmin}, DecisionWait},
		{"signed out goes to auth", &service.SessionState{}, nil, DecisionToAuth},
		{"signed out with required goes to auth, not home", &service.SessionState{}, []models.Role{models.RoleAdmin}, DecisionToAuth},
		{"signed in, no requirement", signedIn(models.RoleCitizen), nil, DecisionAllow},
		{"signed in, missing role", signedIn(models.RoleCitizen), []models.Role{models.RoleAdmin}, DecisionToHome},
		{"signed in, has role", signedIn(models.RoleAdmin), []models.Role{models.RoleAdmin}, DecisionAllow},
		{"any one of several required suffices", signedIn(models.RoleNGO), []models.Role{models.RoleMunicipality, models.RoleNGO}, DecisionAllow},
		{"holder of none of several", signedIn(models.RoleTourist), []models.Role{models.RoleMunicipality, models.RoleNGO}, DecisionToHome},
		{"no roles at all", signedIn(), []models.Role{models.RoleAdmin}, DecisionToHome},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Decide(tc.state, tc.required))
		})
	}
}

func guardedRequest(t *testing.T, state *service.SessionState, required ...models.Role) *httptest.ResponseRecorder {
	t.Helper()
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	h := RequireRoles(required...)(next)

	r := httptest.NewRequest(http.MethodGet, "/protected", nil)
	if state != nil {
		r = r.WithContext(context.WithValue(r.Context(), ContextState, state))
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)
	return w
}

func TestRequireRolesRedirects(t *testing.T) {
	w := guardedRequest(t, nil, models.RoleAdmin)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, service.PathAuth, w.Header().Get("Location"))

	w = guardedRequest(t, signedIn(models.RoleCitizen), models.RoleAdmin)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, service.PathHome, w.Header().Get("Location"))

	w = guardedRequest(t, signedIn(models.RoleAdmin), models.RoleAdmin)
	assert.Equal(t, http.StatusOK, w.Code)

	w = guardedRequest(t, signedIn(models.RoleCitizen))
	assert.Equal(t, http.StatusOK, w.Code)
}
