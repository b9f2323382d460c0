package service

import (
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CleanAfricaNow/civic-service/internal/config"
	"github.com/CleanAfricaNow/civic-service/internal/models"
	"github.com/CleanAfricaNow/civic-service/internal/repository"
	"github.com/CleanAfricaNow/civic-service/internal/taxonomy"
	"github.com/CleanAfricaNow/civic-service/internal/telemetry"
)

type reportFixture struct {
	svc      *ReportService
	reports  *fakeReportRepo
	profiles *fakeProfileRepo
	userID   uuid.UUID
}

func newReportFixture(t *testing.T) *reportFixture {
	t.Helper()
	roles := newFakeRoleRepo()
	users := newFakeUserRepo(roles)
	profiles := newFakeProfileRepo()
	reports := newFakeReportRepo()
	notifier, err := telemetry.NewNotifier(config.NotifierConfig{})
	require.NoError(t, err)

	user := &models.User{Email: "reporter@example.com"}
	require.NoError(t, users.CreateUser(context.Background(), user, &models.Profile{}))
	profiles.profiles[user.ID] = &models.Profile{UserID: user.ID}

	return &reportFixture{
		svc:      NewReportService(reports, profiles, users, &fakeUploader{}, notifier),
		reports:  reports,
		profiles: profiles,
		userID:   user.ID,
	}
}

func (f *reportFixture) submit(t *testing.T) *models.Report {
	t.Helper()
	report := &models.Report{
		Category:    taxonomy.CategoryIllegalDumping,
		Description: "tires dumped by the river",
		CreatedBy:   f.userID,
	}
	created, err := f.svc.CreateReport(context.Background(), report, nil)
	require.NoError(t, err)
	return created
}

func TestCreateReportDefaults(t *testing.T) {
	f := newReportFixture(t)
	report := f.submit(t)

	assert.Equal(t, taxonomy.ReportPending, report.Status)
	assert.Equal(t, taxonomy.PriorityMedium, report.Priority)
	assert.Equal(t, 1, f.profiles.profiles[f.userID].ReportsCount)
}

func TestCreateReportUploadsPhotos(t *testing.T) {
	f := newReportFixture(t)
	report := &models.Report{
		Category:    taxonomy.CategoryIllegalDumping,
		Description: "with photos",
		CreatedBy:   f.userID,
	}
	photos := []PhotoUpload{
		{Body: strings.NewReader("a"), Size: 1, ContentType: "image/jpeg"},
		{Body: strings.NewReader("b"), Size: 1, ContentType: "image/jpeg"},
	}
	created, err := f.svc.CreateReport(context.Background(), report, photos)
	require.NoError(t, err)
	assert.Len(t, created.PhotoURLs, 2)
}

func TestCreateReportValidation(t *testing.T) {
	f := newReportFixture(t)
	ctx := context.Background()

	_, err := f.svc.CreateReport(ctx, &models.Report{Category: taxonomy.CategoryIllegalDumping}, nil)
	assert.ErrorIs(t, err, ErrDescriptionMissing)

	_, err = f.svc.CreateReport(ctx, &models.Report{Category: "time_travel", Description: "x"}, nil)
	assert.ErrorIs(t, err, ErrInvalidCategory)

	six := make([]PhotoUpload, 6)
	_, err = f.svc.CreateReport(ctx, &models.Report{
		Category: taxonomy.CategoryIllegalDumping, Description: "x",
	}, six)
	assert.ErrorIs(t, err, ErrPhotoLimit)
}

// Status transitions are deliberately unrestricted: staff can reopen a
// resolved report, skip assigned, or reject late. Only unknown values fail.
func TestUpdateStatusAllowsAnyTransition(t *testing.T) {
	f := newReportFixture(t)
	ctx := context.Background()
	actor := uuid.New()
	report := f.submit(t)

	hops := []string{"resolved", "pending", "verified", "assigned", "rejected", "in_progress"}
	for _, next := range hops {
		updated, err := f.svc.UpdateStatus(ctx, report.ID, next, actor)
		require.NoError(t, err, "transition to %q", next)
		assert.Equal(t, taxonomy.ReportStatus(next), updated.Status)
	}

	_, err := f.svc.UpdateStatus(ctx, report.ID, "archived", actor)
	assert.ErrorIs(t, err, ErrInvalidReportStatus)
}

func TestResolutionCreditsReporter(t *testing.T) {
	f := newReportFixture(t)
	ctx := context.Background()
	report := f.submit(t)

	before := f.profiles.profiles[f.userID].ImpactScore
	_, err := f.svc.UpdateStatus(ctx, report.ID, "resolved", uuid.New())
	require.NoError(t, err)
	assert.Greater(t, f.profiles.profiles[f.userID].ImpactScore, before)

	// A plain progress move does not credit.
	mid := f.profiles.profiles[f.userID].ImpactScore
	_, err = f.svc.UpdateStatus(ctx, report.ID, "in_progress", uuid.New())
	require.NoError(t, err)
	assert.Equal(t, mid, f.profiles.profiles[f.userID].ImpactScore)
}

func TestDeleteReportOwnerAndPendingOnly(t *testing.T) {
	f := newReportFixture(t)
	ctx := context.Background()

	report := f.submit(t)
	assert.ErrorIs(t, f.svc.DeleteReport(ctx, report.ID, uuid.New()), repository.ErrNotOwner)

	require.NoError(t, f.svc.DeleteReport(ctx, report.ID, f.userID))

	second := f.submit(t)
	_, err := f.svc.UpdateStatus(ctx, second.ID, "in_progress", uuid.New())
	require.NoError(t, err)
	assert.ErrorIs(t, f.svc.DeleteReport(ctx, second.ID, f.userID), repository.ErrNotDeletable)
}
