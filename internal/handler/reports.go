package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"github.com/CleanAfricaNow/civic-service/internal/middleware"
	"github.com/CleanAfricaNow/civic-service/internal/models"
	"github.com/CleanAfricaNow/civic-service/internal/repository"
	"github.com/CleanAfricaNow/civic-service/internal/service"
	"github.com/CleanAfricaNow/civic-service/internal/taxonomy"
)

const maxUploadBytes = 10 << 20

type ReportHandler struct {
	reports *service.ReportService
}

func NewReportHandler(reports *service.ReportService) *ReportHandler {
	return &ReportHandler{reports: reports}
}

// Create accepts multipart form data: category, description, latitude,
// longitude, optional city_id and priority, and up to five photo parts.
func (h *ReportHandler) Create(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFrom(r.Context())
	if claims == nil {
		writeJSONError(w, http.StatusUnauthorized, "not signed in")
		return
	}
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid multipart body")
		return
	}

	lat, latErr := strconv.ParseFloat(r.FormValue("latitude"), 64)
	lng, lngErr := strconv.ParseFloat(r.FormValue("longitude"), 64)
	if latErr != nil || lngErr != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid coordinates")
		return
	}

	report := &models.Report{
		Category:    taxonomy.ReportCategory(r.FormValue("category")),
		Description: r.FormValue("description"),
		Latitude:    lat,
		Longitude:   lng,
		Priority:    taxonomy.ReportPriority(r.FormValue("priority")),
		CreatedBy:   claims.UserID,
	}
	if v := r.FormValue("city_id"); v != "" {
		cityID, err := uuid.Parse(v)
		if err != nil {
			writeJSONError(w, http.StatusBadRequest, "invalid city_id")
			return
		}
		report.CityID = &cityID
	}

	var photos []service.PhotoUpload
	if r.MultipartForm != nil {
		for _, hdr := range r.MultipartForm.File["photos"] {
			f, err := hdr.Open()
			if err != nil {
				writeJSONError(w, http.StatusBadRequest, "unreadable photo upload")
				return
			}
			defer f.Close()
			photos = append(photos, service.PhotoUpload{
				Body:        f,
				Size:        hdr.Size,
				ContentType: hdr.Header.Get("Content-Type"),
			})
		}
	}

	created, err := h.reports.CreateReport(r.Context(), report, photos)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidCategory),
			errors.Is(err, service.ErrInvalidPriority),
			errors.Is(err, service.ErrDescriptionMissing),
			errors.Is(err, service.ErrPhotoLimit):
			writeJSONError(w, http.StatusBadRequest, err.Error())
		default:
			writeRepoError(w, err)
		}
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (h *ReportHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}
	report, err := h.reports.GetReport(r.Context(), id)
	if err != nil {
		writeRepoError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (h *ReportHandler) List(w http.ResponseWriter, r *http.Request) {
	filter := repository.ReportFilter{Limit: 50}
	q := r.URL.Query()

	if v := q.Get("status"); v != "" {
		st := taxonomy.ReportStatus(v)
		if !st.Valid() {
			writeJSONError(w, http.StatusBadRequest, "unknown status")
			return
		}
		filter.Status = &st
	}
	if v := q.Get("category"); v != "" {
		cat := taxonomy.ReportCategory(v)
		if !cat.Valid() {
			writeJSONError(w, http.StatusBadRequest, "unknown category")
			return
		}
		filter.Category = &cat
	}
	if v := q.Get("city_id"); v != "" {
		cityID, err := uuid.Parse(v)
		if err != nil {
			writeJSONError(w, http.StatusBadRequest, "invalid city_id")
			return
		}
		filter.CityID = &cityID
	}
	if v := q.Get("mine"); v == "true" {
		if claims := middleware.ClaimsFrom(r.Context()); claims != nil {
			filter.CreatedBy = &claims.UserID
		}
	}
	if v := q.Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 200 {
			filter.Limit = n
		}
	}
	if v := q.Get("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			filter.Offset = n
		}
	}

	reports, err := h.reports.ListReports(r.Context(), filter)
	if err != nil {
		writeRepoError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"reports": reports})
}

type updateStatusRequest struct {
	Status string `json:"status"`
}

func (h *ReportHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFrom(r.Context())
	if claims == nil {
		writeJSONError(w, http.StatusUnauthorized, "not signed in")
		return
	}
	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}
	var req updateStatusRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	report, err := h.reports.UpdateStatus(r.Context(), id, req.Status, claims.UserID)
	if err != nil {
		if errors.Is(err, service.ErrInvalidReportStatus) {
			writeJSONError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeRepoError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

type assignPriorityRequest struct {
	Priority string `json:"priority"`
}

func (h *ReportHandler) AssignPriority(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}
	var req assignPriorityRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := h.reports.AssignPriority(r.Context(), id, req.Priority); err != nil {
		if errors.Is(err, service.ErrInvalidPriority) {
			writeJSONError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeRepoError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "updated"})
}

func (h *ReportHandler) AddPhoto(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid multipart body")
		return
	}
	f, hdr, err := r.FormFile("photo")
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "photo part missing")
		return
	}
	defer f.Close()

	url, err := h.reports.AddPhoto(r.Context(), id, service.PhotoUpload{
		Body:        f,
		Size:        hdr.Size,
		ContentType: hdr.Header.Get("Content-Type"),
	})
	if err != nil {
		if errors.Is(err, service.ErrPhotoLimit) {
			writeJSONError(w, http.StatusConflict, err.Error())
			return
		}
		writeRepoError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"photo_url": url})
}

func (h *ReportHandler) Delete(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFrom(r.Context())
	if claims == nil {
		writeJSONError(w, http.StatusUnauthorized, "not signed in")
		return
	}
	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}
	if err := h.reports.DeleteReport(r.Context(), id, claims.UserID); err != nil {
		writeRepoError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (h *ReportHandler) Leaderboard(w http.ResponseWriter, r *http.Request) {
	top, err := h.reports.Leaderboard(r.Context(), 10)
	if err != nil {
		writeRepoError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"leaderboard": top})
}
