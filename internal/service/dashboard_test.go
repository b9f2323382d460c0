package service

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CleanAfricaNow/civic-service/internal/models"
	"github.com/CleanAfricaNow/civic-service/internal/repository"
	"github.com/CleanAfricaNow/civic-service/internal/taxonomy"
)

func TestEveryRoleHasADescriptor(t *testing.T) {
	for _, role := range models.AllRoles {
		desc := DescriptorFor(role)
		require.NotNil(t, desc, "role %q", role)
		assert.Equal(t, role, desc.Role)
		assert.NotEmpty(t, desc.Stats, "role %q has no stat blocks", role)
	}
}

func TestAssembleMunicipalityDashboard(t *testing.T) {
	reports := newFakeReportRepo()
	bins := newFakeBinRepo()
	profiles := newFakeProfileRepo()
	roles := newFakeRoleRepo()
	requests := newFakeRegistrationRepo(roles)
	svc := NewDashboardService(reports, bins, profiles, requests)
	ctx := context.Background()

	for _, st := range []taxonomy.ReportStatus{taxonomy.ReportResolved, taxonomy.ReportPending} {
		r := &models.Report{Category: taxonomy.CategoryLitter, Description: "x", Status: st}
		require.NoError(t, reports.Create(ctx, r))
	}
	for _, st := range []taxonomy.BinStatus{taxonomy.BinEmpty, taxonomy.BinOverflowing} {
		b := &models.WasteBin{BinType: models.BinMixed, CurrentStatus: st}
		require.NoError(t, bins.Create(ctx, b))
	}

	d, err := svc.Assemble(ctx, models.RoleMunicipality, uuid.New())
	require.NoError(t, err)

	assert.Equal(t, 50, d.Stats[StatResolutionRate])
	assert.Equal(t, 50, d.Stats[StatCollectionRate])
	assert.Equal(t, 50, d.Stats[StatAttentionRate])
	assert.Equal(t, 1, d.Stats[StatOpenReports])

	needy, ok := d.Lists[ListBinsInNeed].([]models.WasteBin)
	require.True(t, ok)
	require.Len(t, needy, 1)
	assert.Equal(t, taxonomy.BinOverflowing, needy[0].CurrentStatus)

	// Municipality dashboards carry no admin review queue.
	_, hasQueue := d.Lists[ListReviewQueue]
	assert.False(t, hasQueue)
}

type failingReportRepo struct {
	*fakeReportRepo
}

func (f *failingReportRepo) List(ctx context.Context, filter repository.ReportFilter) ([]models.Report, error) {
	return nil, errors.New("connection refused")
}

func TestAssembleOmitsBlocksWhoseSourceFails(t *testing.T) {
	reports := &failingReportRepo{newFakeReportRepo()}
	bins := newFakeBinRepo()
	roles := newFakeRoleRepo()
	svc := NewDashboardService(reports, bins, newFakeProfileRepo(), newFakeRegistrationRepo(roles))
	ctx := context.Background()

	require.NoError(t, bins.Create(ctx, &models.WasteBin{BinType: models.BinMixed, CurrentStatus: taxonomy.BinEmpty}))

	d, err := svc.Assemble(ctx, models.RoleMunicipality, uuid.New())
	require.NoError(t, err)

	// Report-backed blocks are omitted, not rendered as zeros.
	_, has := d.Stats[StatResolutionRate]
	assert.False(t, has)
	_, has = d.Stats[StatOpenReports]
	assert.False(t, has)
	_, has = d.Lists[ListRecentReports]
	assert.False(t, has)

	// Bin-backed blocks still render.
	assert.Contains(t, d.Stats, StatCollectionRate)
	assert.Contains(t, d.Stats, StatAttentionRate)
	assert.Contains(t, d.Lists, ListBinsInNeed)
}

func TestAssembleUnknownRole(t *testing.T) {
	svc := NewDashboardService(newFakeReportRepo(), newFakeBinRepo(), newFakeProfileRepo(), newFakeRegistrationRepo(newFakeRoleRepo()))
	_, err := svc.Assemble(context.Background(), models.Role("intruder"), uuid.New())
	assert.ErrorIs(t, err, ErrInvalidRole)
}
