package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/CleanAfricaNow/civic-service/internal/repository"
	"github.com/CleanAfricaNow/civic-service/internal/util/logger"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeJSONError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{
		"error": map[string]any{
			"code":    status,
			"message": message,
		},
	})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid JSON body")
		return false
	}
	return true
}

func uuidParam(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid "+name)
		return uuid.Nil, false
	}
	return id, true
}

// writeRepoError maps repository sentinels onto HTTP codes; anything
// unrecognized is a collaborator failure and returns 500.
func writeRepoError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		writeJSONError(w, http.StatusNotFound, "not found")
	case errors.Is(err, repository.ErrEmailTaken):
		writeJSONError(w, http.StatusConflict, "email already registered")
	case errors.Is(err, repository.ErrActiveRequest):
		writeJSONError(w, http.StatusConflict, "an active request already exists")
	case errors.Is(err, repository.ErrMemberExists):
		writeJSONError(w, http.StatusConflict, "already a member")
	case errors.Is(err, repository.ErrTerritoryClaim):
		writeJSONError(w, http.StatusConflict, "territory already claimed")
	case errors.Is(err, repository.ErrRoleAssigned):
		writeJSONError(w, http.StatusConflict, "role already assigned")
	case errors.Is(err, repository.ErrDocumentLimit):
		writeJSONError(w, http.StatusConflict, "document limit reached")
	case errors.Is(err, repository.ErrNotOwner):
		writeJSONError(w, http.StatusForbidden, "not the owner")
	case errors.Is(err, repository.ErrNotDeletable):
		writeJSONError(w, http.StatusConflict, "report is no longer pending")
	default:
		logger.Errorf("handler: %v", err)
		writeJSONError(w, http.StatusInternalServerError, "internal error")
	}
}
