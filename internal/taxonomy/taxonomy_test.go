package taxonomy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEveryReportCategoryHasInfo(t *testing.T) {
	cats := AllReportCategories()
	require.Len(t, cats, 17)
	for _, c := range cats {
		assert.True(t, c.Valid(), "category %q", c)
		info := c.Info()
		assert.NotEmpty(t, info.Label, "category %q label", c)
		assert.NotEmpty(t, info.Color, "category %q color", c)
		assert.NotEqual(t, Unknown, info, "category %q must not fall back", c)
	}
}

func TestEveryReportStatusHasInfo(t *testing.T) {
	statuses := AllReportStatuses()
	require.Len(t, statuses, 6)
	for _, s := range statuses {
		assert.True(t, s.Valid(), "status %q", s)
		assert.NotEqual(t, Unknown, s.Info(), "status %q must not fall back", s)
	}
}

func TestEveryPriorityHasInfo(t *testing.T) {
	priorities := AllReportPriorities()
	require.Len(t, priorities, 4)
	for _, p := range priorities {
		assert.True(t, p.Valid(), "priority %q", p)
		assert.NotEqual(t, Unknown, p.Info(), "priority %q must not fall back", p)
	}
}

func TestEveryBinStatusHasInfo(t *testing.T) {
	statuses := AllBinStatuses()
	require.Len(t, statuses, 7)
	for _, s := range statuses {
		assert.True(t, s.Valid(), "bin status %q", s)
		assert.NotEqual(t, Unknown, s.Info(), "bin status %q must not fall back", s)
	}
}

func TestEverySiteAndCenterAndRequestStatusHasInfo(t *testing.T) {
	require.Len(t, AllSiteStatuses(), 4)
	for _, s := range AllSiteStatuses() {
		assert.NotEqual(t, Unknown, s.Info(), "site status %q", s)
	}
	require.Len(t, AllCenterStatuses(), 4)
	for _, s := range AllCenterStatuses() {
		assert.NotEqual(t, Unknown, s.Info(), "center status %q", s)
	}
	require.Len(t, AllRequestStatuses(), 4)
	for _, s := range AllRequestStatuses() {
		assert.NotEqual(t, Unknown, s.Info(), "request status %q", s)
	}
}

func TestUnknownValueFallsBackToNeutral(t *testing.T) {
	assert.Equal(t, Unknown, ReportStatus("exploded").Info())
	assert.Equal(t, Unknown, BinStatus("").Info())
	assert.Equal(t, Unknown, ReportCategory("bogus").Info())
	assert.False(t, ReportStatus("exploded").Valid())
}

func TestStrictModeStillReturnsNeutral(t *testing.T) {
	SetStrict(true)
	defer SetStrict(false)
	assert.Equal(t, Unknown, BinStatus("melted").Info())
}

func TestBinStatusNeedsAttention(t *testing.T) {
	needy := map[BinStatus]bool{
		BinEmpty:       false,
		BinHalfFull:    false,
		BinAlmostFull:  false,
		BinFull:        true,
		BinOverflowing: true,
		BinDamaged:     true,
		BinMissing:     true,
	}
	for s, want := range needy {
		assert.Equal(t, want, s.NeedsAttention(), "bin status %q", s)
	}
}

func TestRequestStatusTerminal(t *testing.T) {
	assert.False(t, RequestPending.Terminal())
	assert.False(t, RequestUnderReview.Terminal())
	assert.True(t, RequestApproved.Terminal())
	assert.True(t, RequestRejected.Terminal())
}
