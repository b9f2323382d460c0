package service

import (
	"github.com/CleanAfricaNow/civic-service/internal/models"
)

// Landing paths per role dashboard.
const (
	PathAdmin        = "/admin"
	PathMunicipality = "/municipality"
	PathNGO          = "/ngo"
	PathHome         = "/"

	PathAuth = "/auth"
)

// RoleBasedRedirect decides where a session lands after authentication.
// The precedence is a fixed three-entry list: admin beats municipality beats
// ngo; every other combination, including an empty set and volunteer- or
// partner-only users, falls through to the home path. Volunteer and partner
// dashboards are reached by explicit navigation, never by this resolver.
func RoleBasedRedirect(roles []models.Role) string {
	has := func(want models.Role) bool {
		for _, r := range roles {
			if r == want {
				return true
			}
		}
		return false
	}

	switch {
	case has(models.RoleAdmin):
		return PathAdmin
	case has(models.RoleMunicipality):
		return PathMunicipality
	case has(models.RoleNGO):
		return PathNGO
	default:
		return PathHome
	}
}
