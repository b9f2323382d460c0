package service

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/CleanAfricaNow/civic-service/internal/models"
	"github.com/CleanAfricaNow/civic-service/internal/repository"
)

var (
	ErrInvalidOrgType = errors.New("organization: unknown type")
	ErrCityName       = errors.New("organization: city name must not be empty")
)

// OrgService manages organizations, their members and the city
// territories they operate in.
type OrgService struct {
	orgs   repository.OrganizationRepository
	cities repository.CityRepository
}

func NewOrgService(orgs repository.OrganizationRepository, cities repository.CityRepository) *OrgService {
	return &OrgService{orgs: orgs, cities: cities}
}

func (s *OrgService) Create(ctx context.Context, org *models.Organization) error {
	if !models.ValidOrgType(string(org.OrgType)) {
		return ErrInvalidOrgType
	}
	cctx, cancel := context.WithTimeout(ctx, collaboratorTimeout)
	defer cancel()
	return s.orgs.Create(cctx, org)
}

func (s *OrgService) Update(ctx context.Context, org *models.Organization) error {
	if !models.ValidOrgType(string(org.OrgType)) {
		return ErrInvalidOrgType
	}
	cctx, cancel := context.WithTimeout(ctx, collaboratorTimeout)
	defer cancel()
	return s.orgs.Update(cctx, org)
}

func (s *OrgService) Get(ctx context.Context, id uuid.UUID) (*models.Organization, error) {
	cctx, cancel := context.WithTimeout(ctx, collaboratorTimeout)
	defer cancel()
	return s.orgs.GetByID(cctx, id)
}

func (s *OrgService) List(ctx context.Context, orgType *models.OrgType) ([]models.Organization, error) {
	cctx, cancel := context.WithTimeout(ctx, collaboratorTimeout)
	defer cancel()
	return s.orgs.List(cctx, orgType)
}

// AddMember enrolls a user into the organization. Duplicate memberships
// surface as repository.ErrMemberExists.
func (s *OrgService) AddMember(ctx context.Context, m *models.OrganizationMember) error {
	cctx, cancel := context.WithTimeout(ctx, collaboratorTimeout)
	defer cancel()
	return s.orgs.AddMember(cctx, m)
}

func (s *OrgService) RemoveMember(ctx context.Context, orgID, userID uuid.UUID) error {
	cctx, cancel := context.WithTimeout(ctx, collaboratorTimeout)
	defer cancel()
	return s.orgs.RemoveMember(cctx, orgID, userID)
}

func (s *OrgService) Members(ctx context.Context, orgID uuid.UUID) ([]models.OrganizationMember, error) {
	cctx, cancel := context.WithTimeout(ctx, collaboratorTimeout)
	defer cancel()
	return s.orgs.ListMembers(cctx, orgID)
}

// ClaimTerritory records that the organization operates in a city. The
// city must exist; duplicate claims surface as repository.ErrTerritoryClaim.
func (s *OrgService) ClaimTerritory(ctx context.Context, t *models.OrganizationTerritory) error {
	cctx, cancel := context.WithTimeout(ctx, collaboratorTimeout)
	defer cancel()
	if _, err := s.cities.GetByID(cctx, t.CityID); err != nil {
		return err
	}
	return s.orgs.ClaimTerritory(cctx, t)
}

func (s *OrgService) ReleaseTerritory(ctx context.Context, orgID, cityID uuid.UUID) error {
	cctx, cancel := context.WithTimeout(ctx, collaboratorTimeout)
	defer cancel()
	return s.orgs.ReleaseTerritory(cctx, orgID, cityID)
}

func (s *OrgService) Territories(ctx context.Context, orgID uuid.UUID) ([]models.OrganizationTerritory, error) {
	cctx, cancel := context.WithTimeout(ctx, collaboratorTimeout)
	defer cancel()
	return s.orgs.ListTerritories(cctx, orgID)
}

// CreateCity adds a city to the reference table. Admin only.
func (s *OrgService) CreateCity(ctx context.Context, city *models.City) error {
	if city.Name == "" {
		return ErrCityName
	}
	cctx, cancel := context.WithTimeout(ctx, collaboratorTimeout)
	defer cancel()
	return s.cities.Create(cctx, city)
}

func (s *OrgService) Cities(ctx context.Context) ([]models.City, error) {
	cctx, cancel := context.WithTimeout(ctx, collaboratorTimeout)
	defer cancel()
	return s.cities.List(cctx)
}
