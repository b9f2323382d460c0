package service

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/google/uuid"

	"github.com/CleanAfricaNow/civic-service/internal/models"
	"github.com/CleanAfricaNow/civic-service/internal/repository"
	"github.com/CleanAfricaNow/civic-service/internal/taxonomy"
	"github.com/CleanAfricaNow/civic-service/internal/telemetry"
	"github.com/CleanAfricaNow/civic-service/internal/util/logger"
)

var (
	ErrInvalidCategory     = errors.New("report: unknown category")
	ErrInvalidReportStatus = errors.New("report: unknown status value")
	ErrInvalidPriority     = errors.New("report: unknown priority")
	ErrDescriptionMissing  = errors.New("report: description is required")
	ErrPhotoLimit          = errors.New("report: photo limit reached")
)

const maxReportPhotos = 5

// Uploader is the slice of the storage client report flows need.
type Uploader interface {
	Upload(ctx context.Context, prefix string, body io.Reader, size int64, contentType string) (string, error)
}

// PhotoUpload is one incoming photo attachment.
type PhotoUpload struct {
	Body        io.Reader
	Size        int64
	ContentType string
}

// ReportService owns the citizen report lifecycle.
type ReportService struct {
	reports  repository.ReportRepository
	profiles repository.ProfileRepository
	users    repository.UserRepository
	uploader Uploader
	notifier *telemetry.Notifier
}

func NewReportService(
	reports repository.ReportRepository,
	profiles repository.ProfileRepository,
	users repository.UserRepository,
	uploader Uploader,
	notifier *telemetry.Notifier,
) *ReportService {
	return &ReportService{
		reports:  reports,
		profiles: profiles,
		users:    users,
		uploader: uploader,
		notifier: notifier,
	}
}

// CreateReport validates the submission, uploads any photos, persists
// the report as pending and bumps the reporter's counter. Counter
// failures are logged but do not fail the submission.
func (s *ReportService) CreateReport(ctx context.Context, report *models.Report, photos []PhotoUpload) (*models.Report, error) {
	if report.Description == "" {
		return nil, ErrDescriptionMissing
	}
	if !report.Category.Valid() {
		return nil, ErrInvalidCategory
	}
	if report.Priority == "" {
		report.Priority = taxonomy.PriorityMedium
	}
	if !report.Priority.Valid() {
		return nil, ErrInvalidPriority
	}
	if len(photos) > maxReportPhotos {
		return nil, ErrPhotoLimit
	}

	report.Status = taxonomy.ReportPending
	report.PhotoURLs = report.PhotoURLs[:0]
	for _, p := range photos {
		url, err := s.uploader.Upload(ctx, "reports", p.Body, p.Size, p.ContentType)
		if err != nil {
			return nil, err
		}
		report.PhotoURLs = append(report.PhotoURLs, url)
	}

	cctx, cancel := context.WithTimeout(ctx, collaboratorTimeout)
	defer cancel()
	if err := s.reports.Create(cctx, report); err != nil {
		return nil, err
	}

	if err := s.profiles.IncrementReportsCount(cctx, report.CreatedBy, 1); err != nil {
		logger.Warnf("report: increment reports_count for %s: %v", report.CreatedBy, err)
	}
	return report, nil
}

func (s *ReportService) GetReport(ctx context.Context, id uuid.UUID) (*models.Report, error) {
	cctx, cancel := context.WithTimeout(ctx, collaboratorTimeout)
	defer cancel()
	return s.reports.GetByID(cctx, id)
}

func (s *ReportService) ListReports(ctx context.Context, filter repository.ReportFilter) ([]models.Report, error) {
	cctx, cancel := context.WithTimeout(ctx, collaboratorTimeout)
	defer cancel()
	return s.reports.List(cctx, filter)
}

// UpdateStatus moves a report to any known status. Transitions are
// deliberately unrestricted so staff can correct mistakes, reopen
// resolved reports or skip steps. Reaching resolved or verified credits
// the reporter's impact score and emits a notification event.
func (s *ReportService) UpdateStatus(ctx context.Context, reportID uuid.UUID, status string, actorID uuid.UUID) (*models.Report, error) {
	st := taxonomy.ReportStatus(status)
	if !st.Valid() {
		return nil, ErrInvalidReportStatus
	}

	cctx, cancel := context.WithTimeout(ctx, collaboratorTimeout)
	defer cancel()
	if err := s.reports.UpdateStatus(cctx, reportID, st, actorID); err != nil {
		return nil, err
	}
	report, err := s.reports.GetByID(cctx, reportID)
	if err != nil {
		return nil, err
	}

	if st == taxonomy.ReportResolved || st == taxonomy.ReportVerified {
		s.creditReporter(cctx, report, st)
	}
	return report, nil
}

func (s *ReportService) creditReporter(ctx context.Context, report *models.Report, st taxonomy.ReportStatus) {
	const impactPerResolution = 10
	if err := s.profiles.IncrementImpactScore(ctx, report.CreatedBy, impactPerResolution); err != nil {
		logger.Warnf("report: increment impact_score for %s: %v", report.CreatedBy, err)
	}

	ev := telemetry.Event{
		Timestamp: time.Now(),
		Type:      telemetry.EventReportStatusChanged,
		UserID:    &report.CreatedBy,
		ReportID:  &report.ID,
		Status:    string(st),
		Detail:    report.Description,
	}
	if user, err := s.users.GetByID(ctx, report.CreatedBy); err == nil {
		ev.Email = user.Email
	}
	s.notifier.Publish(ev)
}

// AssignPriority lets municipality staff re-triage a report.
func (s *ReportService) AssignPriority(ctx context.Context, reportID uuid.UUID, priority string) error {
	p := taxonomy.ReportPriority(priority)
	if !p.Valid() {
		return ErrInvalidPriority
	}
	cctx, cancel := context.WithTimeout(ctx, collaboratorTimeout)
	defer cancel()
	return s.reports.AssignPriority(cctx, reportID, p)
}

// AddPhoto attaches one more photo to an existing report.
func (s *ReportService) AddPhoto(ctx context.Context, reportID uuid.UUID, photo PhotoUpload) (string, error) {
	cctx, cancel := context.WithTimeout(ctx, collaboratorTimeout)
	defer cancel()
	report, err := s.reports.GetByID(cctx, reportID)
	if err != nil {
		return "", err
	}
	if len(report.PhotoURLs) >= maxReportPhotos {
		return "", ErrPhotoLimit
	}

	url, err := s.uploader.Upload(ctx, "reports", photo.Body, photo.Size, photo.ContentType)
	if err != nil {
		return "", err
	}
	if err := s.reports.AddPhoto(cctx, reportID, url); err != nil {
		return "", err
	}
	return url, nil
}

// DeleteReport soft-deletes a report. Only the creator may delete, and
// only while the report is still pending.
func (s *ReportService) DeleteReport(ctx context.Context, reportID, userID uuid.UUID) error {
	cctx, cancel := context.WithTimeout(ctx, collaboratorTimeout)
	defer cancel()
	return s.reports.SoftDelete(cctx, reportID, userID)
}

// Leaderboard returns the top profiles by impact score.
func (s *ReportService) Leaderboard(ctx context.Context, limit int) ([]models.Profile, error) {
	cctx, cancel := context.WithTimeout(ctx, collaboratorTimeout)
	defer cancel()
	return s.profiles.Leaderboard(cctx, limit)
}
