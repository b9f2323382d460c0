package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/CleanAfricaNow/civic-service/internal/taxonomy"
)

// Role is a platform-wide role. The set is closed; there is no hierarchy
// beyond explicit checks in the guard and the redirect resolver.
type Role string

const (
	RoleAdmin        Role = "admin"
	RoleMunicipality Role = "municipality"
	RoleCitizen      Role = "citizen"
	RoleTourist      Role = "tourist"
	RoleNGO          Role = "ngo"
	RoleVolunteer    Role = "volunteer"
	RolePartner      Role = "partner"
)

// AllRoles lists every assignable role.
var AllRoles = []Role{
	RoleAdmin, RoleMunicipality, RoleCitizen, RoleTourist,
	RoleNGO, RoleVolunteer, RolePartner,
}

// ValidRole reports whether s names a known role.
func ValidRole(s string) bool {
	for _, r := range AllRoles {
		if string(r) == s {
			return true
		}
	}
	return false
}

// User is the account record. Every user holds at least one role; signup
// installs the default citizen role.
type User struct {
	ID           uuid.UUID `db:"id"`
	Email        string    `db:"email"`
	PasswordHash []byte    `db:"password_hash"`
	CreatedAt    time.Time `db:"created_at"`
	UpdatedAt    time.Time `db:"updated_at"`
}

// UserRole is a single role membership. (user_id, role) is unique.
type UserRole struct {
	ID        uuid.UUID `db:"id"`
	UserID    uuid.UUID `db:"user_id"`
	Role      Role      `db:"role"`
	CreatedAt time.Time `db:"created_at"`
}

// Profile is the one-to-one public face of a user, including the counters
// that feed the badge and leaderboard views.
type Profile struct {
	UserID       uuid.UUID  `db:"user_id"`
	FullName     string     `db:"full_name"`
	AvatarURL    *string    `db:"avatar_url"`
	HomeCityID   *uuid.UUID `db:"home_city_id"`
	ImpactScore  int        `db:"impact_score"`
	ReportsCount int        `db:"reports_count"`
	CreatedAt    time.Time  `db:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at"`
}

// City is a municipality territory referenced by profiles, bins and
// organization territory claims.
type City struct {
	ID        uuid.UUID `db:"id"`
	Name      string    `db:"name"`
	Country   string    `db:"country"`
	Latitude  float64   `db:"latitude"`
	Longitude float64   `db:"longitude"`
}

// Report is a citizen-submitted environmental issue. Status writes are
// deliberately permissive: any authorized actor may set any status value in
// any order (manual override flexibility; see DESIGN.md).
type Report struct {
	ID          uuid.UUID               `db:"id"`
	Category    taxonomy.ReportCategory `db:"category"`
	Description string                  `db:"description"`
	Latitude    float64                 `db:"latitude"`
	Longitude   float64                 `db:"longitude"`
	PhotoURLs   []string                `db:"photo_urls"`
	Status      taxonomy.ReportStatus   `db:"status"`
	Priority    taxonomy.ReportPriority `db:"priority"`
	SLADueAt    *time.Time              `db:"sla_due_at"`
	Deleted     bool                    `db:"deleted"`
	CreatedBy   uuid.UUID               `db:"created_by"`
	ResolvedBy  *uuid.UUID              `db:"resolved_by"`
	CityID      *uuid.UUID              `db:"city_id"`
	CreatedAt   time.Time               `db:"created_at"`
	UpdatedAt   time.Time               `db:"updated_at"`
}

// BinType classifies what a waste bin collects.
type BinType string

const (
	BinMixed      BinType = "mixed"
	BinPlastic    BinType = "plastic"
	BinOrganic    BinType = "organic"
	BinGlass      BinType = "glass"
	BinPaper      BinType = "paper"
	BinMetal      BinType = "metal"
	BinElectronic BinType = "electronic"
)

// AllBinTypes lists every bin type.
var AllBinTypes = []BinType{
	BinMixed, BinPlastic, BinOrganic, BinGlass, BinPaper, BinMetal, BinElectronic,
}

// ValidBinType reports whether s names a known bin type.
func ValidBinType(s string) bool {
	for _, t := range AllBinTypes {
		if string(t) == s {
			return true
		}
	}
	return false
}

// WasteBin is a physical container placed by a municipality. CurrentStatus
// is a cached copy of the most recently accepted BinStatusReport value; it
// is never authored independently.
type WasteBin struct {
	ID               uuid.UUID          `db:"id"`
	Code             string             `db:"code"`
	Latitude         float64            `db:"latitude"`
	Longitude        float64            `db:"longitude"`
	District         string             `db:"district"`
	Street           string             `db:"street"`
	BinType          BinType            `db:"bin_type"`
	CurrentStatus    taxonomy.BinStatus `db:"current_status"`
	LastStatusUpdate time.Time          `db:"last_status_update"`
	CityID           uuid.UUID          `db:"city_id"`
	CreatedAt        time.Time          `db:"created_at"`
}

// BinStatusReport is an append-only observation of a bin's condition.
// Rows are immutable once written; the bin's cached status is last-write-wins
// by commit order, with no reporter-trust weighting.
type BinStatusReport struct {
	ID         uuid.UUID          `db:"id"`
	BinID      uuid.UUID          `db:"bin_id"`
	ReporterID *uuid.UUID         `db:"reporter_id"` // nil for anonymous public reports
	Status     taxonomy.BinStatus `db:"status"`
	Notes      *string            `db:"notes"`
	CreatedAt  time.Time          `db:"created_at"`
}

// BinCollection records a pickup of a bin's contents; logging one resets the
// bin's cached status toward empty.
type BinCollection struct {
	ID          uuid.UUID `db:"id"`
	BinID       uuid.UUID `db:"bin_id"`
	CollectedBy uuid.UUID `db:"collected_by"`
	CollectedAt time.Time `db:"collected_at"`
}

// OrgType classifies an organization.
type OrgType string

const (
	OrgMunicipality  OrgType = "municipality"
	OrgNGO           OrgType = "ngo"
	OrgGovernment    OrgType = "government"
	OrgPrivate       OrgType = "private"
	OrgInternational OrgType = "international"
)

// AllOrgTypes lists every organization type.
var AllOrgTypes = []OrgType{
	OrgMunicipality, OrgNGO, OrgGovernment, OrgPrivate, OrgInternational,
}

// ValidOrgType reports whether s names a known organization type.
func ValidOrgType(s string) bool {
	for _, t := range AllOrgTypes {
		if string(t) == s {
			return true
		}
	}
	return false
}

// Organization groups staff users under a municipality, NGO or partner.
type Organization struct {
	ID          uuid.UUID           `db:"id"`
	Name        string              `db:"name"`
	OrgType     OrgType             `db:"org_type"`
	Status      taxonomy.SiteStatus `db:"status"`
	ContactInfo *string             `db:"contact_info"`
	CreatedAt   time.Time           `db:"created_at"`
	UpdatedAt   time.Time           `db:"updated_at"`
}

// OrganizationMember links a user to an organization with a free-form
// per-membership role string (e.g. "coordinator").
type OrganizationMember struct {
	ID         uuid.UUID `db:"id"`
	OrgID      uuid.UUID `db:"org_id"`
	UserID     uuid.UUID `db:"user_id"`
	MemberRole string    `db:"member_role"`
	JoinedAt   time.Time `db:"joined_at"`
}

// OrganizationTerritory is a non-exclusive claim of a city by an
// organization; several organizations may claim the same city.
type OrganizationTerritory struct {
	ID        uuid.UUID `db:"id"`
	OrgID     uuid.UUID `db:"org_id"`
	CityID    uuid.UUID `db:"city_id"`
	CreatedAt time.Time `db:"created_at"`
}

// RegistrationRequest is an application for a staff role. At most one
// non-terminal request may exist per user at a time.
type RegistrationRequest struct {
	ID               uuid.UUID              `db:"id"`
	UserID           uuid.UUID              `db:"user_id"`
	RequestedRole    Role                   `db:"requested_role"` // municipality, ngo or partner
	OrganizationName string                 `db:"organization_name"`
	OrgType          OrgType                `db:"org_type"`
	ContactEmail     string                 `db:"contact_email"`
	ContactPhone     *string                `db:"contact_phone"`
	DocumentURLs     []string               `db:"document_urls"` // at most 3
	Status           taxonomy.RequestStatus `db:"status"`
	RejectionReason  *string                `db:"rejection_reason"` // required iff rejected
	AdminNotes       *string                `db:"admin_notes"`
	ReviewedBy       *uuid.UUID             `db:"reviewed_by"`
	CreatedAt        time.Time              `db:"created_at"`
	UpdatedAt        time.Time              `db:"updated_at"`
}

// RequestableRoles are the roles a RegistrationRequest may ask for.
var RequestableRoles = []Role{RoleMunicipality, RoleNGO, RolePartner}

// RequestableRole reports whether r may be requested through registration.
func RequestableRole(r Role) bool {
	for _, rr := range RequestableRoles {
		if rr == r {
			return true
		}
	}
	return false
}
