package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CleanAfricaNow/civic-service/internal/models"
	"github.com/CleanAfricaNow/civic-service/internal/taxonomy"
)

func reportsWithStatuses(statuses ...taxonomy.ReportStatus) []models.Report {
	out := make([]models.Report, len(statuses))
	for i, s := range statuses {
		out[i].Status = s
	}
	return out
}

func binsWithStatuses(statuses ...taxonomy.BinStatus) []models.WasteBin {
	out := make([]models.WasteBin, len(statuses))
	for i, s := range statuses {
		out[i].CurrentStatus = s
	}
	return out
}

func TestResolutionRate(t *testing.T) {
	assert.Equal(t, 0, ResolutionRate(nil))

	// 2 of 3 resolved: 66.66 rounds half-up to 67.
	reports := reportsWithStatuses(
		taxonomy.ReportResolved,
		taxonomy.ReportResolved,
		taxonomy.ReportPending,
	)
	assert.Equal(t, 67, ResolutionRate(reports))

	assert.Equal(t, 100, ResolutionRate(reportsWithStatuses(taxonomy.ReportResolved)))
	assert.Equal(t, 0, ResolutionRate(reportsWithStatuses(taxonomy.ReportPending)))

	// 1 of 3: 33.33 rounds down.
	assert.Equal(t, 33, ResolutionRate(reportsWithStatuses(
		taxonomy.ReportResolved, taxonomy.ReportPending, taxonomy.ReportInProgress,
	)))

	// 1 of 2: exactly half.
	assert.Equal(t, 50, ResolutionRate(reportsWithStatuses(
		taxonomy.ReportResolved, taxonomy.ReportRejected,
	)))
}

func TestCollectionAndAttentionRates(t *testing.T) {
	assert.Equal(t, 0, CollectionRate(nil))
	assert.Equal(t, 0, AttentionRate(nil))

	bins := binsWithStatuses(
		taxonomy.BinEmpty,
		taxonomy.BinHalfFull,
		taxonomy.BinOverflowing,
		taxonomy.BinDamaged,
	)
	assert.Equal(t, 50, CollectionRate(bins))
	assert.Equal(t, 50, AttentionRate(bins))

	// almost_full counts for neither bucket.
	mixed := binsWithStatuses(taxonomy.BinAlmostFull, taxonomy.BinEmpty, taxonomy.BinFull)
	assert.Equal(t, 33, CollectionRate(mixed))
	assert.Equal(t, 33, AttentionRate(mixed))
}

func TestCapacityPercentage(t *testing.T) {
	pct, ok := CapacityPercentage(5, 10)
	require.True(t, ok)
	assert.Equal(t, 50, pct)

	// Above capacity clamps instead of exceeding 100.
	pct, ok = CapacityPercentage(15, 10)
	require.True(t, ok)
	assert.Equal(t, 100, pct)

	// Absent or zero max yields no value, never a division blowup.
	_, ok = CapacityPercentage(5, 0)
	assert.False(t, ok)
	_, ok = CapacityPercentage(5, -1)
	assert.False(t, ok)

	pct, ok = CapacityPercentage(2, 3)
	require.True(t, ok)
	assert.Equal(t, 67, pct)
}

func TestBadgeTierBoundaries(t *testing.T) {
	cases := []struct {
		score int
		want  string
	}{
		{0, "Newcomer"},
		{49, "Newcomer"},
		{50, "Helper"},
		{149, "Helper"},
		{150, "Contributor"},
		{299, "Contributor"},
		{300, "Guardian"},
		{499, "Guardian"},
		{500, "Champion"},
		{999, "Champion"},
		{1000, "Legend"},
		{25000, "Legend"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, BadgeTier(tc.score).Name, "score %d", tc.score)
	}
}

func TestBadgeTierMonotonic(t *testing.T) {
	prev := BadgeTier(0)
	for score := 1; score <= 1200; score++ {
		cur := BadgeTier(score)
		assert.GreaterOrEqual(t, cur.MinScore, prev.MinScore, "score %d", score)
		prev = cur
	}
}

func TestNextBadge(t *testing.T) {
	next, ok := NextBadge(0)
	require.True(t, ok)
	assert.Equal(t, "Helper", next.Name)

	next, ok = NextBadge(999)
	require.True(t, ok)
	assert.Equal(t, "Legend", next.Name)

	_, ok = NextBadge(1000)
	assert.False(t, ok)
}
