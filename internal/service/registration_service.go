package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/CleanAfricaNow/civic-service/internal/models"
	"github.com/CleanAfricaNow/civic-service/internal/repository"
	"github.com/CleanAfricaNow/civic-service/internal/taxonomy"
	"github.com/CleanAfricaNow/civic-service/internal/telemetry"
	"github.com/CleanAfricaNow/civic-service/internal/util"
)

var (
	ErrRoleNotRequestable = errors.New("registration: role cannot be requested")
	ErrRequestClosed      = errors.New("registration: request already decided")
	ErrReasonRequired     = errors.New("registration: rejection requires a reason")
	ErrInvalidContact     = errors.New("registration: invalid contact email")
)

// RegistrationService handles elevated-role applications: municipality,
// ngo and partner accounts go through a manual review queue before the
// role is granted.
type RegistrationService struct {
	requests repository.RegistrationRepository
	users    repository.UserRepository
	uploader Uploader
	notifier *telemetry.Notifier
}

func NewRegistrationService(
	requests repository.RegistrationRepository,
	users repository.UserRepository,
	uploader Uploader,
	notifier *telemetry.Notifier,
) *RegistrationService {
	return &RegistrationService{
		requests: requests,
		users:    users,
		uploader: uploader,
		notifier: notifier,
	}
}

// Submit files a new role request. Only the reviewable roles are accepted
// here; citizen and tourist never pass through this queue. A user may
// hold at most one open request at a time, which the repository enforces.
func (s *RegistrationService) Submit(ctx context.Context, req *models.RegistrationRequest) error {
	if !models.RequestableRole(req.RequestedRole) {
		return ErrRoleNotRequestable
	}
	if !util.IsValidEmail(req.ContactEmail) {
		return ErrInvalidContact
	}
	req.Status = taxonomy.RequestPending

	cctx, cancel := context.WithTimeout(ctx, collaboratorTimeout)
	defer cancel()
	return s.requests.Create(cctx, req)
}

// AttachDocument uploads a supporting document and links it to the
// request. Only the applicant may attach, and only while the request is
// still open. The repository enforces the per-request document cap.
func (s *RegistrationService) AttachDocument(ctx context.Context, requestID, callerID uuid.UUID, doc PhotoUpload) (string, error) {
	cctx, cancel := context.WithTimeout(ctx, collaboratorTimeout)
	defer cancel()
	req, err := s.requests.GetByID(cctx, requestID)
	if err != nil {
		return "", err
	}
	if req.UserID != callerID {
		return "", repository.ErrNotOwner
	}
	if req.Status.Terminal() {
		return "", ErrRequestClosed
	}

	url, err := s.uploader.Upload(ctx, "registration-docs", doc.Body, doc.Size, doc.ContentType)
	if err != nil {
		return "", err
	}
	if err := s.requests.AddDocument(cctx, requestID, url); err != nil {
		return "", err
	}
	return url, nil
}

// StartReview marks a pending request as under review.
func (s *RegistrationService) StartReview(ctx context.Context, requestID, reviewerID uuid.UUID) error {
	cctx, cancel := context.WithTimeout(ctx, collaboratorTimeout)
	defer cancel()
	req, err := s.requests.GetByID(cctx, requestID)
	if err != nil {
		return err
	}
	if req.Status.Terminal() {
		return ErrRequestClosed
	}
	return s.requests.UpdateStatus(cctx, requestID, taxonomy.RequestUnderReview, nil, nil, reviewerID)
}

// Approve grants the requested role and closes the request in one
// transaction, then notifies the applicant.
func (s *RegistrationService) Approve(ctx context.Context, requestID, reviewerID uuid.UUID, adminNotes *string) error {
	if adminNotes != nil && !util.ValidNote(*adminNotes) {
		return ErrNoteTooLong
	}
	cctx, cancel := context.WithTimeout(ctx, collaboratorTimeout)
	defer cancel()
	req, err := s.requests.GetByID(cctx, requestID)
	if err != nil {
		return err
	}
	if req.Status.Terminal() {
		return ErrRequestClosed
	}
	if err := s.requests.ApproveAndGrant(cctx, requestID, reviewerID, adminNotes); err != nil {
		return err
	}
	s.notifyDecision(cctx, req, taxonomy.RequestApproved, string(req.RequestedRole))
	return nil
}

// Reject closes the request without granting anything. A reason is
// mandatory and is surfaced to the applicant.
func (s *RegistrationService) Reject(ctx context.Context, requestID, reviewerID uuid.UUID, reason string, adminNotes *string) error {
	if reason == "" {
		return ErrReasonRequired
	}
	if !util.ValidNote(reason) {
		return ErrNoteTooLong
	}
	cctx, cancel := context.WithTimeout(ctx, collaboratorTimeout)
	defer cancel()
	req, err := s.requests.GetByID(cctx, requestID)
	if err != nil {
		return err
	}
	if req.Status.Terminal() {
		return ErrRequestClosed
	}
	if err := s.requests.UpdateStatus(cctx, requestID, taxonomy.RequestRejected, &reason, adminNotes, reviewerID); err != nil {
		return err
	}
	s.notifyDecision(cctx, req, taxonomy.RequestRejected, reason)
	return nil
}

func (s *RegistrationService) notifyDecision(ctx context.Context, req *models.RegistrationRequest, status taxonomy.RequestStatus, detail string) {
	ev := telemetry.Event{
		Timestamp: time.Now(),
		Type:      telemetry.EventRegistrationDecided,
		UserID:    &req.UserID,
		RequestID: &req.ID,
		Status:    string(status),
		Detail:    detail,
	}
	if user, err := s.users.GetByID(ctx, req.UserID); err == nil {
		ev.Email = user.Email
	}
	s.notifier.Publish(ev)
}

// Queue lists requests, optionally filtered by status.
func (s *RegistrationService) Queue(ctx context.Context, status *taxonomy.RequestStatus) ([]models.RegistrationRequest, error) {
	cctx, cancel := context.WithTimeout(ctx, collaboratorTimeout)
	defer cancel()
	return s.requests.List(cctx, status)
}

// Active returns the caller's open request, or ErrNotFound when none.
func (s *RegistrationService) Active(ctx context.Context, userID uuid.UUID) (*models.RegistrationRequest, error) {
	cctx, cancel := context.WithTimeout(ctx, collaboratorTimeout)
	defer cancel()
	return s.requests.GetActiveByUser(cctx, userID)
}
