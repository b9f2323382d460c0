package handler

import (
	"errors"
	"net/http"

	"github.com/CleanAfricaNow/civic-service/internal/middleware"
	"github.com/CleanAfricaNow/civic-service/internal/models"
	"github.com/CleanAfricaNow/civic-service/internal/service"
	"github.com/CleanAfricaNow/civic-service/internal/taxonomy"
)

type RegistrationHandler struct {
	registration *service.RegistrationService
}

func NewRegistrationHandler(registration *service.RegistrationService) *RegistrationHandler {
	return &RegistrationHandler{registration: registration}
}

type registrationRequestBody struct {
	RequestedRole    string  `json:"requested_role"`
	OrganizationName string  `json:"organization_name"`
	OrgType          string  `json:"org_type"`
	ContactEmail     string  `json:"contact_email"`
	ContactPhone     *string `json:"contact_phone,omitempty"`
}

func (h *RegistrationHandler) Submit(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFrom(r.Context())
	if claims == nil {
		writeJSONError(w, http.StatusUnauthorized, "not signed in")
		return
	}
	var body registrationRequestBody
	if !decodeJSON(w, r, &body) {
		return
	}

	req := &models.RegistrationRequest{
		UserID:           claims.UserID,
		RequestedRole:    models.Role(body.RequestedRole),
		OrganizationName: body.OrganizationName,
		OrgType:          models.OrgType(body.OrgType),
		ContactEmail:     body.ContactEmail,
		ContactPhone:     body.ContactPhone,
	}
	if err := h.registration.Submit(r.Context(), req); err != nil {
		switch {
		case errors.Is(err, service.ErrRoleNotRequestable),
			errors.Is(err, service.ErrInvalidContact):
			writeJSONError(w, http.StatusBadRequest, err.Error())
		default:
			writeRepoError(w, err)
		}
		return
	}
	writeJSON(w, http.StatusCreated, req)
}

func (h *RegistrationHandler) AttachDocument(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFrom(r.Context())
	if claims == nil {
		writeJSONError(w, http.StatusUnauthorized, "not signed in")
		return
	}
	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid multipart body")
		return
	}
	f, hdr, err := r.FormFile("document")
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "document part missing")
		return
	}
	defer f.Close()

	url, err := h.registration.AttachDocument(r.Context(), id, claims.UserID, service.PhotoUpload{
		Body:        f,
		Size:        hdr.Size,
		ContentType: hdr.Header.Get("Content-Type"),
	})
	if err != nil {
		if errors.Is(err, service.ErrRequestClosed) {
			writeJSONError(w, http.StatusConflict, err.Error())
			return
		}
		writeRepoError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"document_url": url})
}

// Mine returns the caller's open request, if any.
func (h *RegistrationHandler) Mine(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFrom(r.Context())
	if claims == nil {
		writeJSONError(w, http.StatusUnauthorized, "not signed in")
		return
	}
	req, err := h.registration.Active(r.Context(), claims.UserID)
	if err != nil {
		writeRepoError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, req)
}

func (h *RegistrationHandler) List(w http.ResponseWriter, r *http.Request) {
	var status *taxonomy.RequestStatus
	if v := r.URL.Query().Get("status"); v != "" {
		st := taxonomy.RequestStatus(v)
		if !st.Valid() {
			writeJSONError(w, http.StatusBadRequest, "unknown status")
			return
		}
		status = &st
	}
	reqs, err := h.registration.Queue(r.Context(), status)
	if err != nil {
		writeRepoError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"requests": reqs})
}

type decisionRequest struct {
	Action          string  `json:"action"` // review, approve or reject
	RejectionReason string  `json:"rejection_reason,omitempty"`
	AdminNotes      *string `json:"admin_notes,omitempty"`
}

func (h *RegistrationHandler) Decide(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFrom(r.Context())
	if claims == nil {
		writeJSONError(w, http.StatusUnauthorized, "not signed in")
		return
	}
	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}
	var req decisionRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	var err error
	switch req.Action {
	case "review":
		err = h.registration.StartReview(r.Context(), id, claims.UserID)
	case "approve":
		err = h.registration.Approve(r.Context(), id, claims.UserID, req.AdminNotes)
	case "reject":
		err = h.registration.Reject(r.Context(), id, claims.UserID, req.RejectionReason, req.AdminNotes)
	default:
		writeJSONError(w, http.StatusBadRequest, "unknown action")
		return
	}
	if err != nil {
		switch {
		case errors.Is(err, service.ErrRequestClosed):
			writeJSONError(w, http.StatusConflict, err.Error())
		case errors.Is(err, service.ErrReasonRequired),
			errors.Is(err, service.ErrNoteTooLong):
			writeJSONError(w, http.StatusBadRequest, err.Error())
		default:
			writeRepoError(w, err)
		}
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
