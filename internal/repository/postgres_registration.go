package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/CleanAfricaNow/civic-service/internal/models"
	"github.com/CleanAfricaNow/civic-service/internal/taxonomy"
)

// PostgresRegistrationRepository implements RegistrationRepository.
type PostgresRegistrationRepository struct {
	db *sql.DB
}

func NewPostgresRegistrationRepository(db *sql.DB) RegistrationRepository {
	return &PostgresRegistrationRepository{db: db}
}

// maxRequestDocuments caps supporting documents per registration request.
const maxRequestDocuments = 3

const requestColumns = `id, user_id, requested_role, organization_name, org_type,
	contact_email, contact_phone, document_urls, status, rejection_reason,
	admin_notes, reviewed_by, created_at, updated_at`

func scanRequest(row interface{ Scan(...any) error }, req *models.RegistrationRequest) error {
	return row.Scan(
		&req.ID, &req.UserID, &req.RequestedRole, &req.OrganizationName,
		&req.OrgType, &req.ContactEmail, &req.ContactPhone,
		pq.Array(&req.DocumentURLs), &req.Status, &req.RejectionReason,
		&req.AdminNotes, &req.ReviewedBy, &req.CreatedAt, &req.UpdatedAt,
	)
}

// Create inserts a new request after verifying the user has no other active
// (non-terminal) request. The check-then-insert runs in one transaction.
func (r *PostgresRegistrationRepository) Create(ctx context.Context, req *models.RegistrationRequest) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var existing int
	err = tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM registration_requests
		 WHERE user_id = $1 AND status IN ($2, $3)`,
		req.UserID, taxonomy.RequestPending, taxonomy.RequestUnderReview,
	).Scan(&existing)
	if err != nil {
		return err
	}
	if existing > 0 {
		return ErrActiveRequest
	}

	err = tx.QueryRowContext(ctx,
		`INSERT INTO registration_requests
		   (user_id, requested_role, organization_name, org_type, contact_email,
		    contact_phone, document_urls, status)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 RETURNING id, created_at, updated_at`,
		req.UserID, req.RequestedRole, req.OrganizationName, req.OrgType,
		req.ContactEmail, req.ContactPhone, pq.Array(req.DocumentURLs),
		taxonomy.RequestPending,
	).Scan(&req.ID, &req.CreatedAt, &req.UpdatedAt)
	if err != nil {
		return err
	}
	req.Status = taxonomy.RequestPending

	return tx.Commit()
}

func (r *PostgresRegistrationRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.RegistrationRequest, error) {
	var req models.RegistrationRequest
	row := r.db.QueryRowContext(ctx,
		`SELECT `+requestColumns+` FROM registration_requests WHERE id = $1`, id)
	err := scanRequest(row, &req)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &req, nil
}

func (r *PostgresRegistrationRepository) GetActiveByUser(ctx context.Context, userID uuid.UUID) (*models.RegistrationRequest, error) {
	var req models.RegistrationRequest
	row := r.db.QueryRowContext(ctx,
		`SELECT `+requestColumns+` FROM registration_requests
		 WHERE user_id = $1 AND status IN ($2, $3)
		 ORDER BY created_at DESC LIMIT 1`,
		userID, taxonomy.RequestPending, taxonomy.RequestUnderReview,
	)
	err := scanRequest(row, &req)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &req, nil
}

func (r *PostgresRegistrationRepository) List(ctx context.Context, status *taxonomy.RequestStatus) ([]models.RegistrationRequest, error) {
	var (
		rows *sql.Rows
		err  error
	)
	if status != nil {
		rows, err = r.db.QueryContext(ctx,
			`SELECT `+requestColumns+` FROM registration_requests
			 WHERE status = $1 ORDER BY created_at DESC`, *status)
	} else {
		rows, err = r.db.QueryContext(ctx,
			`SELECT `+requestColumns+` FROM registration_requests ORDER BY created_at DESC`)
	}
	if err != nil {
		return nil, fmt.Errorf("list registration requests: %w", err)
	}
	defer rows.Close()

	var requests []models.RegistrationRequest
	for rows.Next() {
		var req models.RegistrationRequest
		if err := scanRequest(rows, &req); err != nil {
			return nil, err
		}
		requests = append(requests, req)
	}
	return requests, rows.Err()
}

func (r *PostgresRegistrationRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status taxonomy.RequestStatus, rejectionReason, adminNotes *string, reviewedBy uuid.UUID) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE registration_requests
		 SET status = $1, rejection_reason = $2,
		     admin_notes = COALESCE($3, admin_notes),
		     reviewed_by = $4, updated_at = NOW()
		 WHERE id = $5`,
		status, rejectionReason, adminNotes, reviewedBy, id,
	)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PostgresRegistrationRepository) AddDocument(ctx context.Context, id uuid.UUID, url string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE registration_requests
		 SET document_urls = array_append(document_urls, $1), updated_at = NOW()
		 WHERE id = $2 AND COALESCE(array_length(document_urls, 1), 0) < `+strconv.Itoa(maxRequestDocuments),
		url, id,
	)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n > 0 {
		return nil
	}
	// Zero rows means either the request is missing or the cap is hit;
	// a follow-up read tells the two apart.
	var exists bool
	if err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM registration_requests WHERE id = $1)`, id,
	).Scan(&exists); err != nil {
		return err
	}
	if exists {
		return ErrDocumentLimit
	}
	return ErrNotFound
}

// ApproveAndGrant marks the request approved and installs the requested role
// membership in the same transaction, so an approved request can never leave
// the user without the role it asked for.
func (r *PostgresRegistrationRepository) ApproveAndGrant(ctx context.Context, id, reviewedBy uuid.UUID, adminNotes *string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var userID uuid.UUID
	var role models.Role
	err = tx.QueryRowContext(ctx,
		`UPDATE registration_requests
		 SET status = $1, admin_notes = COALESCE($2, admin_notes),
		     reviewed_by = $3, updated_at = NOW()
		 WHERE id = $4
		 RETURNING user_id, requested_role`,
		taxonomy.RequestApproved, adminNotes, reviewedBy, id,
	).Scan(&userID, &role)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO user_roles (user_id, role) VALUES ($1, $2)
		 ON CONFLICT (user_id, role) DO NOTHING`,
		userID, role,
	)
	if err != nil {
		return err
	}

	return tx.Commit()
}
