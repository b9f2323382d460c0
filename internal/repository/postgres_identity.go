package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/CleanAfricaNow/civic-service/internal/models"
)

const uniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}

// PostgresUserRepository implements UserRepository.
type PostgresUserRepository struct {
	db *sql.DB
}

func NewPostgresUserRepository(db *sql.DB) UserRepository {
	return &PostgresUserRepository{db: db}
}

func (r *PostgresUserRepository) CreateUser(ctx context.Context, user *models.User, profile *models.Profile) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	err = tx.QueryRowContext(ctx,
		`INSERT INTO users (email, password_hash) VALUES ($1, $2)
		 RETURNING id, created_at, updated_at`,
		user.Email, user.PasswordHash,
	).Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrEmailTaken
		}
		return err
	}

	profile.UserID = user.ID
	err = tx.QueryRowContext(ctx,
		`INSERT INTO profiles (user_id, full_name, avatar_url, home_city_id)
		 VALUES ($1, $2, $3, $4)
		 RETURNING created_at, updated_at`,
		profile.UserID, profile.FullName, profile.AvatarURL, profile.HomeCityID,
	).Scan(&profile.CreatedAt, &profile.UpdatedAt)
	if err != nil {
		return err
	}

	// Default role membership, matching the original backend's on-signup
	// trigger: every new user starts as citizen.
	_, err = tx.ExecContext(ctx,
		`INSERT INTO user_roles (user_id, role) VALUES ($1, $2)`,
		user.ID, models.RoleCitizen,
	)
	if err != nil {
		return err
	}

	return tx.Commit()
}

func (r *PostgresUserRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var u models.User
	err := r.db.QueryRowContext(ctx,
		`SELECT id, email, password_hash, created_at, updated_at FROM users WHERE id = $1`,
		id,
	).Scan(&u.ID, &u.Email, &u.PasswordHash, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *PostgresUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	err := r.db.QueryRowContext(ctx,
		`SELECT id, email, password_hash, created_at, updated_at FROM users WHERE email = $1`,
		email,
	).Scan(&u.ID, &u.Email, &u.PasswordHash, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// PostgresRoleRepository implements RoleRepository.
type PostgresRoleRepository struct {
	db *sql.DB
}

func NewPostgresRoleRepository(db *sql.DB) RoleRepository {
	return &PostgresRoleRepository{db: db}
}

func (r *PostgresRoleRepository) GetUserRoles(ctx context.Context, userID uuid.UUID) ([]models.Role, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT role FROM user_roles WHERE user_id = $1 ORDER BY created_at`,
		userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var roles []models.Role
	for rows.Next() {
		var role models.Role
		if err := rows.Scan(&role); err != nil {
			return nil, err
		}
		roles = append(roles, role)
	}
	return roles, rows.Err()
}

func (r *PostgresRoleRepository) AssignRole(ctx context.Context, userID uuid.UUID, role models.Role) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO user_roles (user_id, role) VALUES ($1, $2)`,
		userID, role,
	)
	if isUniqueViolation(err) {
		return ErrRoleAssigned
	}
	return err
}

func (r *PostgresRoleRepository) RemoveRole(ctx context.Context, userID uuid.UUID, role models.Role) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM user_roles WHERE user_id = $1 AND role = $2`,
		userID, role,
	)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PostgresRoleRepository) SwapRole(ctx context.Context, userID uuid.UUID, from, to models.Role) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`DELETE FROM user_roles WHERE user_id = $1 AND role = $2`,
		userID, from,
	)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO user_roles (user_id, role) VALUES ($1, $2)
		 ON CONFLICT (user_id, role) DO NOTHING`,
		userID, to,
	)
	if err != nil {
		return err
	}

	return tx.Commit()
}

// PostgresProfileRepository implements ProfileRepository.
type PostgresProfileRepository struct {
	db *sql.DB
}

func NewPostgresProfileRepository(db *sql.DB) ProfileRepository {
	return &PostgresProfileRepository{db: db}
}

func scanProfile(row interface{ Scan(...any) error }, p *models.Profile) error {
	return row.Scan(
		&p.UserID, &p.FullName, &p.AvatarURL, &p.HomeCityID,
		&p.ImpactScore, &p.ReportsCount, &p.CreatedAt, &p.UpdatedAt,
	)
}

const profileColumns = `user_id, full_name, avatar_url, home_city_id, impact_score, reports_count, created_at, updated_at`

func (r *PostgresProfileRepository) GetByUserID(ctx context.Context, userID uuid.UUID) (*models.Profile, error) {
	var p models.Profile
	row := r.db.QueryRowContext(ctx,
		`SELECT `+profileColumns+` FROM profiles WHERE user_id = $1`, userID)
	err := scanProfile(row, &p)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *PostgresProfileRepository) UpdateProfile(ctx context.Context, userID uuid.UUID, fullName string, avatarURL *string, homeCityID *uuid.UUID) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE profiles SET full_name = $1, avatar_url = $2, home_city_id = $3, updated_at = NOW()
		 WHERE user_id = $4`,
		fullName, avatarURL, homeCityID, userID,
	)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PostgresProfileRepository) IncrementReportsCount(ctx context.Context, userID uuid.UUID, delta int) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE profiles SET reports_count = GREATEST(0, reports_count + $1), updated_at = NOW()
		 WHERE user_id = $2`,
		delta, userID,
	)
	return err
}

func (r *PostgresProfileRepository) IncrementImpactScore(ctx context.Context, userID uuid.UUID, delta int) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE profiles SET impact_score = GREATEST(0, impact_score + $1), updated_at = NOW()
		 WHERE user_id = $2`,
		delta, userID,
	)
	return err
}

func (r *PostgresProfileRepository) Leaderboard(ctx context.Context, limit int) ([]models.Profile, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+profileColumns+` FROM profiles ORDER BY impact_score DESC, reports_count DESC LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var profiles []models.Profile
	for rows.Next() {
		var p models.Profile
		if err := scanProfile(rows, &p); err != nil {
			return nil, err
		}
		profiles = append(profiles, p)
	}
	return profiles, rows.Err()
}

// PostgresCityRepository implements CityRepository.
type PostgresCityRepository struct {
	db *sql.DB
}

func NewPostgresCityRepository(db *sql.DB) CityRepository {
	return &PostgresCityRepository{db: db}
}

func (r *PostgresCityRepository) Create(ctx context.Context, city *models.City) error {
	return r.db.QueryRowContext(ctx,
		`INSERT INTO cities (name, country, latitude, longitude)
		 VALUES ($1, $2, $3, $4) RETURNING id`,
		city.Name, city.Country, city.Latitude, city.Longitude,
	).Scan(&city.ID)
}

func (r *PostgresCityRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.City, error) {
	var c models.City
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name, country, latitude, longitude FROM cities WHERE id = $1`, id,
	).Scan(&c.ID, &c.Name, &c.Country, &c.Latitude, &c.Longitude)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *PostgresCityRepository) List(ctx context.Context) ([]models.City, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, country, latitude, longitude FROM cities ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list cities: %w", err)
	}
	defer rows.Close()

	var cities []models.City
	for rows.Next() {
		var c models.City
		if err := rows.Scan(&c.ID, &c.Name, &c.Country, &c.Latitude, &c.Longitude); err != nil {
			return nil, err
		}
		cities = append(cities, c)
	}
	return cities, rows.Err()
}
