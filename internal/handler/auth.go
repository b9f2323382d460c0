package handler

import (
	"errors"
	"net/http"

	"github.com/google/uuid"

	"github.com/CleanAfricaNow/civic-service/internal/middleware"
	"github.com/CleanAfricaNow/civic-service/internal/service"
)

type AuthHandler struct {
	auth *service.AuthService
}

func NewAuthHandler(auth *service.AuthService) *AuthHandler {
	return &AuthHandler{auth: auth}
}

type signUpRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"full_name"`
	Role     string `json:"role,omitempty"`
}

func (h *AuthHandler) SignUp(w http.ResponseWriter, r *http.Request) {
	var req signUpRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	user, err := h.auth.SignUp(r.Context(), req.Email, req.Password, req.FullName, req.Role)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidEmail),
			errors.Is(err, service.ErrWeakPassword),
			errors.Is(err, service.ErrInvalidRole):
			writeJSONError(w, http.StatusBadRequest, err.Error())
		default:
			writeRepoError(w, err)
		}
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"id":    user.ID,
		"email": user.Email,
	})
}

type signInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *AuthHandler) SignIn(w http.ResponseWriter, r *http.Request) {
	var req signInRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	session, err := h.auth.SignIn(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			writeJSONError(w, http.StatusUnauthorized, "invalid email or password")
			return
		}
		writeRepoError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, session)
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	session, err := h.auth.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		writeJSONError(w, http.StatusUnauthorized, "invalid refresh token")
		return
	}
	writeJSON(w, http.StatusOK, session)
}

func (h *AuthHandler) SignOut(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFrom(r.Context())
	if claims == nil {
		writeJSONError(w, http.StatusUnauthorized, "not signed in")
		return
	}
	h.auth.SignOut(r.Context(), claims)
	writeJSON(w, http.StatusOK, map[string]string{"status": "signed_out"})
}

type resetPasswordRequest struct {
	Email string `json:"email"`
}

func (h *AuthHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req resetPasswordRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := h.auth.ResetPassword(r.Context(), req.Email); err != nil {
		if errors.Is(err, service.ErrInvalidEmail) {
			writeJSONError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeRepoError(w, err)
		return
	}
	// Same response whether or not the account exists.
	writeJSON(w, http.StatusOK, map[string]string{"status": "reset_requested"})
}

type updateProfileRequest struct {
	FullName   string     `json:"full_name"`
	AvatarURL  *string    `json:"avatar_url,omitempty"`
	HomeCityID *uuid.UUID `json:"home_city_id,omitempty"`
}

func (h *AuthHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFrom(r.Context())
	if claims == nil {
		writeJSONError(w, http.StatusUnauthorized, "not signed in")
		return
	}
	var req updateProfileRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	profile, err := h.auth.UpdateProfile(r.Context(), claims, req.FullName, req.AvatarURL, req.HomeCityID)
	if err != nil {
		if errors.Is(err, service.ErrNameRequired) {
			writeJSONError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeRepoError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

// Session returns the caller's identity snapshot plus its landing path.
func (h *AuthHandler) Session(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFrom(r.Context())
	if claims == nil {
		writeJSONError(w, http.StatusUnauthorized, "not signed in")
		return
	}
	state := h.auth.State(r.Context(), claims)
	writeJSON(w, http.StatusOK, map[string]any{
		"state":       state,
		"redirect_to": service.RoleBasedRedirect(state.Roles),
	})
}
