package handler

import (
	"errors"
	"net/http"

	"github.com/google/uuid"

	"github.com/CleanAfricaNow/civic-service/internal/models"
	"github.com/CleanAfricaNow/civic-service/internal/service"
	"github.com/CleanAfricaNow/civic-service/internal/taxonomy"
)

type OrgHandler struct {
	orgs *service.OrgService
}

func NewOrgHandler(orgs *service.OrgService) *OrgHandler {
	return &OrgHandler{orgs: orgs}
}

type orgRequest struct {
	Name        string  `json:"name"`
	OrgType     string  `json:"org_type"`
	Status      string  `json:"status,omitempty"`
	ContactInfo *string `json:"contact_info,omitempty"`
}

func (h *OrgHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req orgRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	status := taxonomy.SiteStatus(req.Status)
	if req.Status == "" {
		status = taxonomy.SiteActive
	}
	if !status.Valid() {
		writeJSONError(w, http.StatusBadRequest, "unknown status")
		return
	}
	org := &models.Organization{
		Name:        req.Name,
		OrgType:     models.OrgType(req.OrgType),
		Status:      status,
		ContactInfo: req.ContactInfo,
	}
	if err := h.orgs.Create(r.Context(), org); err != nil {
		if errors.Is(err, service.ErrInvalidOrgType) {
			writeJSONError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeRepoError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, org)
}

func (h *OrgHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}
	var req orgRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	org, err := h.orgs.Get(r.Context(), id)
	if err != nil {
		writeRepoError(w, err)
		return
	}

	org.Name = req.Name
	org.OrgType = models.OrgType(req.OrgType)
	org.ContactInfo = req.ContactInfo
	if req.Status != "" {
		status := taxonomy.SiteStatus(req.Status)
		if !status.Valid() {
			writeJSONError(w, http.StatusBadRequest, "unknown status")
			return
		}
		org.Status = status
	}

	if err := h.orgs.Update(r.Context(), org); err != nil {
		if errors.Is(err, service.ErrInvalidOrgType) {
			writeJSONError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeRepoError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, org)
}

func (h *OrgHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}
	org, err := h.orgs.Get(r.Context(), id)
	if err != nil {
		writeRepoError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, org)
}

func (h *OrgHandler) List(w http.ResponseWriter, r *http.Request) {
	var orgType *models.OrgType
	if v := r.URL.Query().Get("type"); v != "" {
		if !models.ValidOrgType(v) {
			writeJSONError(w, http.StatusBadRequest, "unknown org type")
			return
		}
		t := models.OrgType(v)
		orgType = &t
	}
	orgs, err := h.orgs.List(r.Context(), orgType)
	if err != nil {
		writeRepoError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"organizations": orgs})
}

type memberRequest struct {
	UserID string `json:"user_id"`
	Role   string `json:"role"`
}

func (h *OrgHandler) AddMember(w http.ResponseWriter, r *http.Request) {
	orgID, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}
	var req memberRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	userID, err := uuid.Parse(req.UserID)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid user_id")
		return
	}

	m := &models.OrganizationMember{
		OrgID:      orgID,
		UserID:     userID,
		MemberRole: req.Role,
	}
	if err := h.orgs.AddMember(r.Context(), m); err != nil {
		writeRepoError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, m)
}

func (h *OrgHandler) RemoveMember(w http.ResponseWriter, r *http.Request) {
	orgID, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}
	userID, ok := uuidParam(w, r, "userID")
	if !ok {
		return
	}
	if err := h.orgs.RemoveMember(r.Context(), orgID, userID); err != nil {
		writeRepoError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "removed"})
}

func (h *OrgHandler) Members(w http.ResponseWriter, r *http.Request) {
	orgID, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}
	members, err := h.orgs.Members(r.Context(), orgID)
	if err != nil {
		writeRepoError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"members": members})
}

type territoryRequest struct {
	CityID string `json:"city_id"`
}

func (h *OrgHandler) ClaimTerritory(w http.ResponseWriter, r *http.Request) {
	orgID, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}
	var req territoryRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	cityID, err := uuid.Parse(req.CityID)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid city_id")
		return
	}

	t := &models.OrganizationTerritory{
		OrgID:  orgID,
		CityID: cityID,
	}
	if err := h.orgs.ClaimTerritory(r.Context(), t); err != nil {
		writeRepoError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, t)
}

func (h *OrgHandler) ReleaseTerritory(w http.ResponseWriter, r *http.Request) {
	orgID, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}
	cityID, ok := uuidParam(w, r, "cityID")
	if !ok {
		return
	}
	if err := h.orgs.ReleaseTerritory(r.Context(), orgID, cityID); err != nil {
		writeRepoError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "released"})
}

type cityRequest struct {
	Name      string  `json:"name"`
	Country   string  `json:"country"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

func (h *OrgHandler) CreateCity(w http.ResponseWriter, r *http.Request) {
	var req cityRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	city := &models.City{
		Name:      req.Name,
		Country:   req.Country,
		Latitude:  req.Latitude,
		Longitude: req.Longitude,
	}
	if err := h.orgs.CreateCity(r.Context(), city); err != nil {
		if errors.Is(err, service.ErrCityName) {
			writeJSONError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeRepoError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, city)
}

func (h *OrgHandler) Cities(w http.ResponseWriter, r *http.Request) {
	cities, err := h.orgs.Cities(r.Context())
	if err != nil {
		writeRepoError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"cities": cities})
}

func (h *OrgHandler) Territories(w http.ResponseWriter, r *http.Request) {
	orgID, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}
	territories, err := h.orgs.Territories(r.Context(), orgID)
	if err != nil {
		writeRepoError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"territories": territories})
}
