package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/CleanAfricaNow/civic-service/internal/models"
	"github.com/CleanAfricaNow/civic-service/internal/taxonomy"
)

// Sentinel errors shared by all repository implementations. Handlers map
// these onto HTTP status codes.
var (
	ErrNotFound       = errors.New("repository: not found")
	ErrEmailTaken     = errors.New("repository: email already registered")
	ErrActiveRequest  = errors.New("repository: user already has an active registration request")
	ErrNotOwner       = errors.New("repository: caller does not own the record")
	ErrNotDeletable   = errors.New("repository: report is no longer pending")
	ErrRoleAssigned   = errors.New("repository: role already assigned")
	ErrMemberExists   = errors.New("repository: user is already a member")
	ErrTerritoryClaim = errors.New("repository: territory already claimed by this organization")
	ErrDocumentLimit  = errors.New("repository: registration request already holds the maximum number of documents")
)

// UserRepository handles account records. CreateUser installs the user row,
// its profile and the default citizen role membership in one transaction,
// mirroring the backend trigger of the original system.
type UserRepository interface {
	CreateUser(ctx context.Context, user *models.User, profile *models.Profile) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
}

// RoleRepository handles role memberships.
type RoleRepository interface {
	GetUserRoles(ctx context.Context, userID uuid.UUID) ([]models.Role, error)
	AssignRole(ctx context.Context, userID uuid.UUID, role models.Role) error
	RemoveRole(ctx context.Context, userID uuid.UUID, role models.Role) error
	// SwapRole atomically removes `from` and installs `to` for the user.
	// Used by signup role correction so the user never observes both rows.
	SwapRole(ctx context.Context, userID uuid.UUID, from, to models.Role) error
}

// ProfileRepository handles the one-to-one user profile and its counters.
type ProfileRepository interface {
	GetByUserID(ctx context.Context, userID uuid.UUID) (*models.Profile, error)
	UpdateProfile(ctx context.Context, userID uuid.UUID, fullName string, avatarURL *string, homeCityID *uuid.UUID) error
	IncrementReportsCount(ctx context.Context, userID uuid.UUID, delta int) error
	IncrementImpactScore(ctx context.Context, userID uuid.UUID, delta int) error
	Leaderboard(ctx context.Context, limit int) ([]models.Profile, error)
}

// ReportFilter narrows report listings.
type ReportFilter struct {
	Status    *taxonomy.ReportStatus
	Category  *taxonomy.ReportCategory
	CityID    *uuid.UUID
	CreatedBy *uuid.UUID
	Limit     int
	Offset    int
}

// ReportRepository handles citizen reports. Status writes are permissive:
// UpdateStatus accepts any valid status value regardless of the current one.
type ReportRepository interface {
	Create(ctx context.Context, report *models.Report) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Report, error)
	List(ctx context.Context, f ReportFilter) ([]models.Report, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status taxonomy.ReportStatus, actorID uuid.UUID) error
	AssignPriority(ctx context.Context, id uuid.UUID, priority taxonomy.ReportPriority) error
	AddPhoto(ctx context.Context, id uuid.UUID, url string) error
	// SoftDelete flags the report deleted; only the owner may delete and
	// only while the report is still pending.
	SoftDelete(ctx context.Context, id, ownerID uuid.UUID) error
}

// BinRepository handles waste bins and their append-only status history.
type BinRepository interface {
	Create(ctx context.Context, bin *models.WasteBin) error
	Update(ctx context.Context, bin *models.WasteBin) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.WasteBin, error)
	List(ctx context.Context, cityID *uuid.UUID) ([]models.WasteBin, error)
	// SubmitStatusReport appends the immutable history row and overwrites
	// the bin's cached current_status in a single transaction.
	SubmitStatusReport(ctx context.Context, report *models.BinStatusReport) error
	ListStatusReports(ctx context.Context, binID uuid.UUID, limit int) ([]models.BinStatusReport, error)
	// LogCollection records a pickup and resets the cached status to empty.
	LogCollection(ctx context.Context, c *models.BinCollection) error
}

// RegistrationRepository handles staff-role applications.
type RegistrationRepository interface {
	Create(ctx context.Context, req *models.RegistrationRequest) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.RegistrationRequest, error)
	GetActiveByUser(ctx context.Context, userID uuid.UUID) (*models.RegistrationRequest, error)
	List(ctx context.Context, status *taxonomy.RequestStatus) ([]models.RegistrationRequest, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status taxonomy.RequestStatus, rejectionReason, adminNotes *string, reviewedBy uuid.UUID) error
	AddDocument(ctx context.Context, id uuid.UUID, url string) error
	// ApproveAndGrant marks the request approved and grants the requested
	// role in one transaction.
	ApproveAndGrant(ctx context.Context, id, reviewedBy uuid.UUID, adminNotes *string) error
}

// OrganizationRepository handles organizations, memberships and territory
// claims.
type OrganizationRepository interface {
	Create(ctx context.Context, org *models.Organization) error
	Update(ctx context.Context, org *models.Organization) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Organization, error)
	List(ctx context.Context, orgType *models.OrgType) ([]models.Organization, error)
	AddMember(ctx context.Context, m *models.OrganizationMember) error
	RemoveMember(ctx context.Context, orgID, userID uuid.UUID) error
	ListMembers(ctx context.Context, orgID uuid.UUID) ([]models.OrganizationMember, error)
	ClaimTerritory(ctx context.Context, t *models.OrganizationTerritory) error
	ReleaseTerritory(ctx context.Context, orgID, cityID uuid.UUID) error
	ListTerritories(ctx context.Context, orgID uuid.UUID) ([]models.OrganizationTerritory, error)
}

// CityRepository handles the city reference table.
type CityRepository interface {
	Create(ctx context.Context, city *models.City) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.City, error)
	List(ctx context.Context) ([]models.City, error)
}
