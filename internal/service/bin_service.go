package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/CleanAfricaNow/civic-service/internal/models"
	"github.com/CleanAfricaNow/civic-service/internal/repository"
	"github.com/CleanAfricaNow/civic-service/internal/taxonomy"
	"github.com/CleanAfricaNow/civic-service/internal/util"
)

var (
	ErrInvalidBinStatus = errors.New("bin: unknown status value")
	ErrInvalidBinType   = errors.New("bin: unknown bin type")
	ErrNoteTooLong      = errors.New("bin: note exceeds length limit")
)

// BinService owns waste bins and their status-report flow.
type BinService struct {
	bins repository.BinRepository
}

func NewBinService(bins repository.BinRepository) *BinService {
	return &BinService{bins: bins}
}

// CreateBin registers a new bin; the initial cached status is empty.
func (s *BinService) CreateBin(ctx context.Context, bin *models.WasteBin) error {
	if !models.ValidBinType(string(bin.BinType)) {
		return ErrInvalidBinType
	}
	cctx, cancel := context.WithTimeout(ctx, collaboratorTimeout)
	defer cancel()
	return s.bins.Create(cctx, bin)
}

// UpdateBin edits placement metadata. The cached status is not writable
// here; it only moves through status reports and collections.
func (s *BinService) UpdateBin(ctx context.Context, bin *models.WasteBin) error {
	if !models.ValidBinType(string(bin.BinType)) {
		return ErrInvalidBinType
	}
	cctx, cancel := context.WithTimeout(ctx, collaboratorTimeout)
	defer cancel()
	return s.bins.Update(cctx, bin)
}

func (s *BinService) GetBin(ctx context.Context, id uuid.UUID) (*models.WasteBin, error) {
	cctx, cancel := context.WithTimeout(ctx, collaboratorTimeout)
	defer cancel()
	return s.bins.GetByID(cctx, id)
}

func (s *BinService) ListBins(ctx context.Context, cityID *uuid.UUID) ([]models.WasteBin, error) {
	cctx, cancel := context.WithTimeout(ctx, collaboratorTimeout)
	defer cancel()
	return s.bins.List(cctx, cityID)
}

// SubmitStatusReport validates and records an observed bin condition.
// Validation happens before any I/O; the write appends the immutable
// history row and overwrites the cached status atomically. reporterID is
// nil for anonymous public submissions. Concurrent submissions race freely;
// the one that commits last owns the cached field.
func (s *BinService) SubmitStatusReport(ctx context.Context, binID uuid.UUID, status string, notes *string, reporterID *uuid.UUID) (*models.BinStatusReport, error) {
	st := taxonomy.BinStatus(status)
	if !st.Valid() {
		return nil, ErrInvalidBinStatus
	}
	if notes != nil && !util.ValidNote(*notes) {
		return nil, ErrNoteTooLong
	}

	report := &models.BinStatusReport{
		BinID:      binID,
		ReporterID: reporterID,
		Status:     st,
		Notes:      notes,
	}

	cctx, cancel := context.WithTimeout(ctx, collaboratorTimeout)
	defer cancel()
	if err := s.bins.SubmitStatusReport(cctx, report); err != nil {
		return nil, err
	}
	return report, nil
}

// StatusHistory lists the append-only report log, newest first.
func (s *BinService) StatusHistory(ctx context.Context, binID uuid.UUID, limit int) ([]models.BinStatusReport, error) {
	cctx, cancel := context.WithTimeout(ctx, collaboratorTimeout)
	defer cancel()
	return s.bins.ListStatusReports(cctx, binID, limit)
}

// LogCollection records a pickup and resets the cached status to empty.
func (s *BinService) LogCollection(ctx context.Context, binID, collectorID uuid.UUID) (*models.BinCollection, error) {
	c := &models.BinCollection{
		BinID:       binID,
		CollectedBy: collectorID,
		CollectedAt: time.Now(),
	}
	cctx, cancel := context.WithTimeout(ctx, collaboratorTimeout)
	defer cancel()
	if err := s.bins.LogCollection(cctx, c); err != nil {
		return nil, err
	}
	return c, nil
}
