package service

import (
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CleanAfricaNow/civic-service/internal/models"
	"github.com/CleanAfricaNow/civic-service/internal/taxonomy"
)

func newBinFixture(t *testing.T) (*BinService, *fakeBinRepo, uuid.UUID) {
	t.Helper()
	repo := newFakeBinRepo()
	svc := NewBinService(repo)

	bin := &models.WasteBin{
		Code:          "BIN-001",
		BinType:       models.BinMixed,
		CurrentStatus: taxonomy.BinEmpty,
		CityID:        uuid.New(),
	}
	require.NoError(t, svc.CreateBin(context.Background(), bin))
	return svc, repo, bin.ID
}

func TestSubmitStatusReportAppendsAndOverwrites(t *testing.T) {
	svc, _, binID := newBinFixture(t)
	ctx := context.Background()

	_, err := svc.SubmitStatusReport(ctx, binID, "full", nil, nil)
	require.NoError(t, err)

	reporter := uuid.New()
	_, err = svc.SubmitStatusReport(ctx, binID, "overflowing", nil, &reporter)
	require.NoError(t, err)

	// History keeps both rows; the cached status holds only the last one.
	history, err := svc.StatusHistory(ctx, binID, 10)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, taxonomy.BinFull, history[0].Status)
	assert.Equal(t, taxonomy.BinOverflowing, history[1].Status)
	assert.Nil(t, history[0].ReporterID)
	require.NotNil(t, history[1].ReporterID)
	assert.Equal(t, reporter, *history[1].ReporterID)

	bin, err := svc.GetBin(ctx, binID)
	require.NoError(t, err)
	assert.Equal(t, taxonomy.BinOverflowing, bin.CurrentStatus)
}

func TestSubmitStatusReportValidatesBeforeWriting(t *testing.T) {
	svc, repo, binID := newBinFixture(t)
	ctx := context.Background()

	_, err := svc.SubmitStatusReport(ctx, binID, "levitating", nil, nil)
	assert.ErrorIs(t, err, ErrInvalidBinStatus)

	long := strings.Repeat("x", 501)
	_, err = svc.SubmitStatusReport(ctx, binID, "full", &long, nil)
	assert.ErrorIs(t, err, ErrNoteTooLong)

	// Neither attempt reached the repository.
	assert.Empty(t, repo.history[binID])

	ok := strings.Repeat("x", 500)
	_, err = svc.SubmitStatusReport(ctx, binID, "full", &ok, nil)
	assert.NoError(t, err)
}

func TestLogCollectionResetsStatus(t *testing.T) {
	svc, _, binID := newBinFixture(t)
	ctx := context.Background()

	_, err := svc.SubmitStatusReport(ctx, binID, "overflowing", nil, nil)
	require.NoError(t, err)

	_, err = svc.LogCollection(ctx, binID, uuid.New())
	require.NoError(t, err)

	bin, err := svc.GetBin(ctx, binID)
	require.NoError(t, err)
	assert.Equal(t, taxonomy.BinEmpty, bin.CurrentStatus)
}

func TestCreateBinRejectsUnknownType(t *testing.T) {
	svc := NewBinService(newFakeBinRepo())
	err := svc.CreateBin(context.Background(), &models.WasteBin{BinType: "antimatter"})
	assert.ErrorIs(t, err, ErrInvalidBinType)
}
