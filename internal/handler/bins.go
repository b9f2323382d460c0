package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"github.com/CleanAfricaNow/civic-service/internal/middleware"
	"github.com/CleanAfricaNow/civic-service/internal/models"
	"github.com/CleanAfricaNow/civic-service/internal/service"
	"github.com/CleanAfricaNow/civic-service/internal/taxonomy"
)

type BinHandler struct {
	bins *service.BinService
}

func NewBinHandler(bins *service.BinService) *BinHandler {
	return &BinHandler{bins: bins}
}

type binRequest struct {
	Code      string  `json:"code"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	District  string  `json:"district"`
	Street    string  `json:"street"`
	BinType   string  `json:"bin_type"`
	CityID    string  `json:"city_id"`
}

func (h *BinHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req binRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	cityID, err := uuid.Parse(req.CityID)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid city_id")
		return
	}

	bin := &models.WasteBin{
		Code:          req.Code,
		Latitude:      req.Latitude,
		Longitude:     req.Longitude,
		District:      req.District,
		Street:        req.Street,
		BinType:       models.BinType(req.BinType),
		CurrentStatus: taxonomy.BinEmpty,
		CityID:        cityID,
	}
	if err := h.bins.CreateBin(r.Context(), bin); err != nil {
		if errors.Is(err, service.ErrInvalidBinType) {
			writeJSONError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeRepoError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, bin)
}

func (h *BinHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}
	var req binRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	bin, err := h.bins.GetBin(r.Context(), id)
	if err != nil {
		writeRepoError(w, err)
		return
	}

	bin.Code = req.Code
	bin.Latitude = req.Latitude
	bin.Longitude = req.Longitude
	bin.District = req.District
	bin.Street = req.Street
	bin.BinType = models.BinType(req.BinType)
	if req.CityID != "" {
		cityID, err := uuid.Parse(req.CityID)
		if err != nil {
			writeJSONError(w, http.StatusBadRequest, "invalid city_id")
			return
		}
		bin.CityID = cityID
	}

	if err := h.bins.UpdateBin(r.Context(), bin); err != nil {
		if errors.Is(err, service.ErrInvalidBinType) {
			writeJSONError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeRepoError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, bin)
}

func (h *BinHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}
	bin, err := h.bins.GetBin(r.Context(), id)
	if err != nil {
		writeRepoError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"bin":         bin,
		"status_info": bin.CurrentStatus.Info(),
	})
}

// List returns bins with their display info so a map can render pins
// without a second lookup.
func (h *BinHandler) List(w http.ResponseWriter, r *http.Request) {
	var cityID *uuid.UUID
	if v := r.URL.Query().Get("city_id"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			writeJSONError(w, http.StatusBadRequest, "invalid city_id")
			return
		}
		cityID = &id
	}

	bins, err := h.bins.ListBins(r.Context(), cityID)
	if err != nil {
		writeRepoError(w, err)
		return
	}

	type binView struct {
		models.WasteBin
		StatusInfo taxonomy.Info `json:"status_info"`
	}
	views := make([]binView, 0, len(bins))
	for _, b := range bins {
		views = append(views, binView{WasteBin: b, StatusInfo: b.CurrentStatus.Info()})
	}
	writeJSON(w, http.StatusOK, map[string]any{"bins": views})
}

type statusReportRequest struct {
	Status string  `json:"status"`
	Notes  *string `json:"notes,omitempty"`
}

// SubmitStatusReport handles both the authenticated route and the public
// anonymous one; the reporter id is simply absent on the latter.
func (h *BinHandler) SubmitStatusReport(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}
	var req statusReportRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	var reporterID *uuid.UUID
	if claims := middleware.ClaimsFrom(r.Context()); claims != nil {
		reporterID = &claims.UserID
	}

	report, err := h.bins.SubmitStatusReport(r.Context(), id, req.Status, req.Notes, reporterID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidBinStatus),
			errors.Is(err, service.ErrNoteTooLong):
			writeJSONError(w, http.StatusBadRequest, err.Error())
		default:
			writeRepoError(w, err)
		}
		return
	}
	writeJSON(w, http.StatusCreated, report)
}

func (h *BinHandler) StatusHistory(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}
	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 200 {
			limit = n
		}
	}
	history, err := h.bins.StatusHistory(r.Context(), id, limit)
	if err != nil {
		writeRepoError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status_reports": history})
}

func (h *BinHandler) LogCollection(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFrom(r.Context())
	if claims == nil {
		writeJSONError(w, http.StatusUnauthorized, "not signed in")
		return
	}
	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}
	c, err := h.bins.LogCollection(r.Context(), id, claims.UserID)
	if err != nil {
		writeRepoError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}
