package handler

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/CleanAfricaNow/civic-service/internal/middleware"
	"github.com/CleanAfricaNow/civic-service/internal/models"
	"github.com/CleanAfricaNow/civic-service/internal/service"
)

type DashboardHandler struct {
	dashboards *service.DashboardService
}

func NewDashboardHandler(dashboards *service.DashboardService) *DashboardHandler {
	return &DashboardHandler{dashboards: dashboards}
}

// Get serves /dashboard/{role}. The caller must hold the role it asks
// for; one code path serves every role, the descriptor table decides what
// each one shows.
func (h *DashboardHandler) Get(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFrom(r.Context())
	if claims == nil {
		writeJSONError(w, http.StatusUnauthorized, "not signed in")
		return
	}

	role := models.Role(chi.URLParam(r, "role"))
	if !models.ValidRole(string(role)) {
		writeJSONError(w, http.StatusBadRequest, "unknown role")
		return
	}
	held := false
	for _, have := range claims.Roles {
		if have == role {
			held = true
			break
		}
	}
	if !held {
		w.Header().Set("Location", service.PathHome)
		writeJSONError(w, http.StatusForbidden, "role not held")
		return
	}

	dashboard, err := h.dashboards.Assemble(r.Context(), role, claims.UserID)
	if err != nil {
		if errors.Is(err, service.ErrInvalidRole) {
			writeJSONError(w, http.StatusNotFound, "no dashboard for role")
			return
		}
		writeRepoError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dashboard)
}
