package service

import (
	"math"

	"github.com/CleanAfricaNow/civic-service/internal/models"
	"github.com/CleanAfricaNow/civic-service/internal/taxonomy"
)

// Pure, stateless computations over already-fetched collections. All
// percentages round half-up to match the values the dashboards display.

func roundPct(numerator, denominator int) int {
	if denominator == 0 {
		return 0
	}
	return int(math.Floor(100*float64(numerator)/float64(denominator) + 0.5))
}

// ResolutionRate is the share of reports that reached resolved, 0 when the
// slice is empty.
func ResolutionRate(reports []models.Report) int {
	if len(reports) == 0 {
		return 0
	}
	resolved := 0
	for _, r := range reports {
		if r.Status == taxonomy.ReportResolved {
			resolved++
		}
	}
	return roundPct(resolved, len(reports))
}

// CollectionRate is the share of bins in good shape (empty or half full).
func CollectionRate(bins []models.WasteBin) int {
	if len(bins) == 0 {
		return 0
	}
	good := 0
	for _, b := range bins {
		if b.CurrentStatus == taxonomy.BinEmpty || b.CurrentStatus == taxonomy.BinHalfFull {
			good++
		}
	}
	return roundPct(good, len(bins))
}

// AttentionRate is the share of bins needing a crew: full, overflowing,
// damaged or missing.
func AttentionRate(bins []models.WasteBin) int {
	if len(bins) == 0 {
		return 0
	}
	needy := 0
	for _, b := range bins {
		if b.CurrentStatus.NeedsAttention() {
			needy++
		}
	}
	return roundPct(needy, len(bins))
}

// CapacityPercentage reports current/max as a percentage clamped to 100.
// ok is false when max is absent or zero; the value is then meaningless and
// must be omitted, never rendered as Inf or NaN.
func CapacityPercentage(current, max int) (pct int, ok bool) {
	if max <= 0 {
		return 0, false
	}
	pct = roundPct(current, max)
	if pct > 100 {
		pct = 100
	}
	return pct, true
}

// Badge is an impact-score tier.
type Badge struct {
	Name     string `json:"name"`
	MinScore int    `json:"min_score"`
}

// badges is ordered by strictly increasing MinScore.
var badges = []Badge{
	{Name: "Newcomer", MinScore: 0},
	{Name: "Helper", MinScore: 50},
	{Name: "Contributor", MinScore: 150},
	{Name: "Guardian", MinScore: 300},
	{Name: "Champion", MinScore: 500},
	{Name: "Legend", MinScore: 1000},
}

// Badges returns the tier table in ascending order.
func Badges() []Badge {
	out := make([]Badge, len(badges))
	copy(out, badges)
	return out
}

// BadgeTier returns the highest tier whose MinScore is at or below score.
// A score exactly on a threshold earns that threshold's tier.
func BadgeTier(score int) Badge {
	tier := badges[0]
	for _, b := range badges {
		if score >= b.MinScore {
			tier = b
		}
	}
	return tier
}

// NextBadge returns the lowest tier still above score, or ok=false when the
// score already meets the top tier.
func NextBadge(score int) (Badge, bool) {
	for _, b := range badges {
		if b.MinScore > score {
			return b, true
		}
	}
	return Badge{}, false
}
