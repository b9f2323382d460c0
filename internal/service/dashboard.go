package service

import (
	"context"

	"github.com/google/uuid"

	"github.com/CleanAfricaNow/civic-service/internal/models"
	"github.com/CleanAfricaNow/civic-service/internal/repository"
	"github.com/CleanAfricaNow/civic-service/internal/taxonomy"
	"github.com/CleanAfricaNow/civic-service/internal/util/logger"
)

// StatBlock names one computed figure on a dashboard.
type StatBlock string

const (
	StatResolutionRate StatBlock = "resolution_rate"
	StatCollectionRate StatBlock = "collection_rate"
	StatAttentionRate  StatBlock = "attention_rate"
	StatOpenReports    StatBlock = "open_reports"
	StatMyReports      StatBlock = "my_reports"
	StatImpactScore    StatBlock = "impact_score"
	StatPendingReviews StatBlock = "pending_reviews"
)

// ListBlock names one collection rendered on a dashboard.
type ListBlock string

const (
	ListRecentReports ListBlock = "recent_reports"
	ListMyReports     ListBlock = "my_reports"
	ListBinsInNeed    ListBlock = "bins_needing_attention"
	ListReviewQueue   ListBlock = "review_queue"
	ListLeaderboard   ListBlock = "leaderboard"
)

// Descriptor declares what a role's dashboard shows. Roles differ only
// in this data, never in code paths: adding a role's dashboard means
// adding an entry here.
type Descriptor struct {
	Role  models.Role
	Stats []StatBlock
	Lists []ListBlock
}

func describe(role models.Role) *Descriptor { return &Descriptor{Role: role} }

func (d *Descriptor) stats(s ...StatBlock) *Descriptor {
	d.Stats = append(d.Stats, s...)
	return d
}

func (d *Descriptor) lists(l ...ListBlock) *Descriptor {
	d.Lists = append(d.Lists, l...)
	return d
}

var descriptors = map[models.Role]*Descriptor{
	models.RoleAdmin: describe(models.RoleAdmin).
		stats(StatResolutionRate, StatCollectionRate, StatAttentionRate, StatOpenReports, StatPendingReviews).
		lists(ListRecentReports, ListReviewQueue, ListBinsInNeed),
	models.RoleMunicipality: describe(models.RoleMunicipality).
		stats(StatResolutionRate, StatCollectionRate, StatAttentionRate, StatOpenReports).
		lists(ListRecentReports, ListBinsInNeed),
	models.RoleNGO: describe(models.RoleNGO).
		stats(StatResolutionRate, StatOpenReports).
		lists(ListRecentReports, ListLeaderboard),
	models.RoleVolunteer: describe(models.RoleVolunteer).
		stats(StatMyReports, StatImpactScore).
		lists(ListMyReports, ListBinsInNeed),
	models.RolePartner: describe(models.RolePartner).
		stats(StatCollectionRate, StatAttentionRate).
		lists(ListBinsInNeed),
	models.RoleCitizen: describe(models.RoleCitizen).
		stats(StatMyReports, StatImpactScore).
		lists(ListMyReports, ListLeaderboard),
	models.RoleTourist: describe(models.RoleTourist).
		stats(StatMyReports).
		lists(ListMyReports),
}

// DescriptorFor returns the layout for a role, nil when the role has no
// dashboard.
func DescriptorFor(role models.Role) *Descriptor {
	return descriptors[role]
}

// Dashboard is the assembled payload for one role and viewer.
type Dashboard struct {
	Role  models.Role       `json:"role"`
	Stats map[StatBlock]int `json:"stats"`
	Lists map[ListBlock]any `json:"lists"`
}

const dashboardSampleLimit = 500

// DashboardService assembles role dashboards from the descriptor table
// and the metrics functions. A block whose source read fails is omitted
// and logged; the rest of the dashboard still renders.
type DashboardService struct {
	reports  repository.ReportRepository
	bins     repository.BinRepository
	profiles repository.ProfileRepository
	requests repository.RegistrationRepository
}

func NewDashboardService(
	reports repository.ReportRepository,
	bins repository.BinRepository,
	profiles repository.ProfileRepository,
	requests repository.RegistrationRepository,
) *DashboardService {
	return &DashboardService{reports: reports, bins: bins, profiles: profiles, requests: requests}
}

// Assemble builds the dashboard for one of the viewer's roles.
func (s *DashboardService) Assemble(ctx context.Context, role models.Role, viewerID uuid.UUID) (*Dashboard, error) {
	desc := DescriptorFor(role)
	if desc == nil {
		return nil, ErrInvalidRole
	}

	cctx, cancel := context.WithTimeout(ctx, collaboratorTimeout)
	defer cancel()

	d := &Dashboard{
		Role:  role,
		Stats: make(map[StatBlock]int, len(desc.Stats)),
		Lists: make(map[ListBlock]any, len(desc.Lists)),
	}

	var (
		allReports []models.Report
		allBins    []models.WasteBin
		reportsErr error
		binsErr    error
		loaded     = map[string]bool{}
	)
	needReports := func() ([]models.Report, bool) {
		if !loaded["reports"] {
			allReports, reportsErr = s.reports.List(cctx, repository.ReportFilter{Limit: dashboardSampleLimit})
			if reportsErr != nil {
				logger.Warnf("dashboard: list reports: %v", reportsErr)
			}
			loaded["reports"] = true
		}
		return allReports, reportsErr == nil
	}
	needBins := func() ([]models.WasteBin, bool) {
		if !loaded["bins"] {
			allBins, binsErr = s.bins.List(cctx, nil)
			if binsErr != nil {
				logger.Warnf("dashboard: list bins: %v", binsErr)
			}
			loaded["bins"] = true
		}
		return allBins, binsErr == nil
	}

	for _, stat := range desc.Stats {
		switch stat {
		case StatResolutionRate:
			reports, ok := needReports()
			if !ok {
				continue
			}
			d.Stats[stat] = ResolutionRate(reports)
		case StatCollectionRate:
			bins, ok := needBins()
			if !ok {
				continue
			}
			d.Stats[stat] = CollectionRate(bins)
		case StatAttentionRate:
			bins, ok := needBins()
			if !ok {
				continue
			}
			d.Stats[stat] = AttentionRate(bins)
		case StatOpenReports:
			reports, ok := needReports()
			if !ok {
				continue
			}
			open := 0
			for _, r := range reports {
				if r.Status != taxonomy.ReportResolved && r.Status != taxonomy.ReportVerified && r.Status != taxonomy.ReportRejected {
					open++
				}
			}
			d.Stats[stat] = open
		case StatMyReports:
			mine, err := s.reports.List(cctx, repository.ReportFilter{CreatedBy: &viewerID, Limit: dashboardSampleLimit})
			if err != nil {
				logger.Warnf("dashboard: list own reports for %s: %v", viewerID, err)
				continue
			}
			d.Stats[stat] = len(mine)
		case StatImpactScore:
			profile, err := s.profiles.GetByUserID(cctx, viewerID)
			if err != nil {
				logger.Warnf("dashboard: profile for %s: %v", viewerID, err)
				continue
			}
			d.Stats[stat] = profile.ImpactScore
		case StatPendingReviews:
			pending := taxonomy.RequestPending
			reqs, err := s.requests.List(cctx, &pending)
			if err != nil {
				logger.Warnf("dashboard: pending requests: %v", err)
				continue
			}
			d.Stats[stat] = len(reqs)
		}
	}

	for _, list := range desc.Lists {
		switch list {
		case ListRecentReports:
			reports, ok := needReports()
			if !ok {
				continue
			}
			d.Lists[list] = trimReports(reports, 20)
		case ListMyReports:
			mine, err := s.reports.List(cctx, repository.ReportFilter{CreatedBy: &viewerID, Limit: 20})
			if err != nil {
				logger.Warnf("dashboard: list own reports for %s: %v", viewerID, err)
				continue
			}
			d.Lists[list] = mine
		case ListBinsInNeed:
			bins, ok := needBins()
			if !ok {
				continue
			}
			needy := make([]models.WasteBin, 0)
			for _, b := range bins {
				if b.CurrentStatus.NeedsAttention() {
					needy = append(needy, b)
				}
			}
			d.Lists[list] = needy
		case ListReviewQueue:
			pending := taxonomy.RequestPending
			reqs, err := s.requests.List(cctx, &pending)
			if err != nil {
				logger.Warnf("dashboard: review queue: %v", err)
				continue
			}
			d.Lists[list] = reqs
		case ListLeaderboard:
			top, err := s.profiles.Leaderboard(cctx, 10)
			if err != nil {
				logger.Warnf("dashboard: leaderboard: %v", err)
				continue
			}
			d.Lists[list] = top
		}
	}
	return d, nil
}

func trimReports(reports []models.Report, n int) []models.Report {
	if len(reports) <= n {
		return reports
	}
	return reports[:n]
}
