package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/CleanAfricaNow/civic-service/internal/models"
)

// PostgresOrganizationRepository implements OrganizationRepository.
type PostgresOrganizationRepository struct {
	db *sql.DB
}

func NewPostgresOrganizationRepository(db *sql.DB) OrganizationRepository {
	return &PostgresOrganizationRepository{db: db}
}

const orgColumns = `id, name, org_type, status, contact_info, created_at, updated_at`

func scanOrg(row interface{ Scan(...any) error }, o *models.Organization) error {
	return row.Scan(&o.ID, &o.Name, &o.OrgType, &o.Status, &o.ContactInfo, &o.CreatedAt, &o.UpdatedAt)
}

func (r *PostgresOrganizationRepository) Create(ctx context.Context, org *models.Organization) error {
	return r.db.QueryRowContext(ctx,
		`INSERT INTO organizations (name, org_type, status, contact_info)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id, created_at, updated_at`,
		org.Name, org.OrgType, org.Status, org.ContactInfo,
	).Scan(&org.ID, &org.CreatedAt, &org.UpdatedAt)
}

func (r *PostgresOrganizationRepository) Update(ctx context.Context, org *models.Organization) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE organizations
		 SET name = $1, org_type = $2, status = $3, contact_info = $4, updated_at = NOW()
		 WHERE id = $5`,
		org.Name, org.OrgType, org.Status, org.ContactInfo, org.ID,
	)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PostgresOrganizationRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Organization, error) {
	var o models.Organization
	row := r.db.QueryRowContext(ctx,
		`SELECT `+orgColumns+` FROM organizations WHERE id = $1`, id)
	err := scanOrg(row, &o)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *PostgresOrganizationRepository) List(ctx context.Context, orgType *models.OrgType) ([]models.Organization, error) {
	var (
		rows *sql.Rows
		err  error
	)
	if orgType != nil {
		rows, err = r.db.QueryContext(ctx,
			`SELECT `+orgColumns+` FROM organizations WHERE org_type = $1 ORDER BY name`, *orgType)
	} else {
		rows, err = r.db.QueryContext(ctx,
			`SELECT `+orgColumns+` FROM organizations ORDER BY name`)
	}
	if err != nil {
		return nil, fmt.Errorf("list organizations: %w", err)
	}
	defer rows.Close()

	var orgs []models.Organization
	for rows.Next() {
		var o models.Organization
		if err := scanOrg(rows, &o); err != nil {
			return nil, err
		}
		orgs = append(orgs, o)
	}
	return orgs, rows.Err()
}

func (r *PostgresOrganizationRepository) AddMember(ctx context.Context, m *models.OrganizationMember) error {
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO organization_members (org_id, user_id, member_role)
		 VALUES ($1, $2, $3) RETURNING id, joined_at`,
		m.OrgID, m.UserID, m.MemberRole,
	).Scan(&m.ID, &m.JoinedAt)
	if isUniqueViolation(err) {
		return ErrMemberExists
	}
	return err
}

func (r *PostgresOrganizationRepository) RemoveMember(ctx context.Context, orgID, userID uuid.UUID) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM organization_members WHERE org_id = $1 AND user_id = $2`,
		orgID, userID,
	)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PostgresOrganizationRepository) ListMembers(ctx context.Context, orgID uuid.UUID) ([]models.OrganizationMember, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, org_id, user_id, member_role, joined_at
		 FROM organization_members WHERE org_id = $1 ORDER BY joined_at`,
		orgID,
	)
	if err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}
	defer rows.Close()

	var members []models.OrganizationMember
	for rows.Next() {
		var m models.OrganizationMember
		if err := rows.Scan(&m.ID, &m.OrgID, &m.UserID, &m.MemberRole, &m.JoinedAt); err != nil {
			return nil, err
		}
		members = append(members, m)
	}
	return members, rows.Err()
}

// ClaimTerritory records a city claim. Claims are non-exclusive across
// organizations; only a duplicate claim by the same organization is rejected.
func (r *PostgresOrganizationRepository) ClaimTerritory(ctx context.Context, t *models.OrganizationTerritory) error {
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO organization_territories (org_id, city_id)
		 VALUES ($1, $2) RETURNING id, created_at`,
		t.OrgID, t.CityID,
	).Scan(&t.ID, &t.CreatedAt)
	if isUniqueViolation(err) {
		return ErrTerritoryClaim
	}
	return err
}

func (r *PostgresOrganizationRepository) ReleaseTerritory(ctx context.Context, orgID, cityID uuid.UUID) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM organization_territories WHERE org_id = $1 AND city_id = $2`,
		orgID, cityID,
	)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PostgresOrganizationRepository) ListTerritories(ctx context.Context, orgID uuid.UUID) ([]models.OrganizationTerritory, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, org_id, city_id, created_at
		 FROM organization_territories WHERE org_id = $1 ORDER BY created_at`,
		orgID,
	)
	if err != nil {
		return nil, fmt.Errorf("list territories: %w", err)
	}
	defer rows.Close()

	var territories []models.OrganizationTerritory
	for rows.Next() {
		var t models.OrganizationTerritory
		if err := rows.Scan(&t.ID, &t.OrgID, &t.CityID, &t.CreatedAt); err != nil {
			return nil, err
		}
		territories = append(territories, t)
	}
	return territories, rows.Err()
}
