package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/CleanAfricaNow/civic-service/internal/models"
	"github.com/CleanAfricaNow/civic-service/internal/taxonomy"
)

// PostgresReportRepository implements ReportRepository.
type PostgresReportRepository struct {
	db *sql.DB
}

func NewPostgresReportRepository(db *sql.DB) ReportRepository {
	return &PostgresReportRepository{db: db}
}

const reportColumns = `id, category, description, latitude, longitude, photo_urls,
	status, priority, sla_due_at, deleted, created_by, resolved_by, city_id,
	created_at, updated_at`

func scanReport(row interface{ Scan(...any) error }, rep *models.Report) error {
	return row.Scan(
		&rep.ID, &rep.Category, &rep.Description, &rep.Latitude, &rep.Longitude,
		pq.Array(&rep.PhotoURLs), &rep.Status, &rep.Priority, &rep.SLADueAt,
		&rep.Deleted, &rep.CreatedBy, &rep.ResolvedBy, &rep.CityID,
		&rep.CreatedAt, &rep.UpdatedAt,
	)
}

func (r *PostgresReportRepository) Create(ctx context.Context, report *models.Report) error {
	return r.db.QueryRowContext(ctx,
		`INSERT INTO reports
		   (category, description, latitude, longitude, photo_urls, status,
		    priority, sla_due_at, created_by, city_id)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		 RETURNING id, created_at, updated_at`,
		report.Category, report.Description, report.Latitude, report.Longitude,
		pq.Array(report.PhotoURLs), report.Status, report.Priority,
		report.SLADueAt, report.CreatedBy, report.CityID,
	).Scan(&report.ID, &report.CreatedAt, &report.UpdatedAt)
}

func (r *PostgresReportRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Report, error) {
	var rep models.Report
	row := r.db.QueryRowContext(ctx,
		`SELECT `+reportColumns+` FROM reports WHERE id = $1 AND NOT deleted`, id)
	err := scanReport(row, &rep)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &rep, nil
}

func (r *PostgresReportRepository) List(ctx context.Context, f ReportFilter) ([]models.Report, error) {
	var (
		conds = []string{"NOT deleted"}
		args  []any
	)
	add := func(cond string, v any) {
		args = append(args, v)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}
	if f.Status != nil {
		add("status = $%d", *f.Status)
	}
	if f.Category != nil {
		add("category = $%d", *f.Category)
	}
	if f.CityID != nil {
		add("city_id = $%d", *f.CityID)
	}
	if f.CreatedBy != nil {
		add("created_by = $%d", *f.CreatedBy)
	}

	limit := f.Limit
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	args = append(args, limit, f.Offset)

	query := fmt.Sprintf(
		`SELECT `+reportColumns+` FROM reports WHERE %s
		 ORDER BY created_at DESC LIMIT $%d OFFSET $%d`,
		strings.Join(conds, " AND "), len(args)-1, len(args),
	)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list reports: %w", err)
	}
	defer rows.Close()

	var reports []models.Report
	for rows.Next() {
		var rep models.Report
		if err := scanReport(rows, &rep); err != nil {
			return nil, err
		}
		reports = append(reports, rep)
	}
	return reports, rows.Err()
}

// UpdateStatus is an unconditional overwrite: no transition validation, any
// valid status value may replace any other. resolved_by is recorded when the
// new status is resolved or verified.
func (r *PostgresReportRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status taxonomy.ReportStatus, actorID uuid.UUID) error {
	var res sql.Result
	var err error
	if status == taxonomy.ReportResolved || status == taxonomy.ReportVerified {
		res, err = r.db.ExecContext(ctx,
			`UPDATE reports SET status = $1, resolved_by = $2, updated_at = NOW()
			 WHERE id = $3 AND NOT deleted`,
			status, actorID, id,
		)
	} else {
		res, err = r.db.ExecContext(ctx,
			`UPDATE reports SET status = $1, updated_at = NOW()
			 WHERE id = $2 AND NOT deleted`,
			status, id,
		)
	}
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PostgresReportRepository) AssignPriority(ctx context.Context, id uuid.UUID, priority taxonomy.ReportPriority) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE reports SET priority = $1, updated_at = NOW() WHERE id = $2 AND NOT deleted`,
		priority, id,
	)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PostgresReportRepository) AddPhoto(ctx context.Context, id uuid.UUID, url string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE reports SET photo_urls = array_append(photo_urls, $1), updated_at = NOW()
		 WHERE id = $2 AND NOT deleted`,
		url, id,
	)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PostgresReportRepository) SoftDelete(ctx context.Context, id, ownerID uuid.UUID) error {
	var createdBy uuid.UUID
	var status taxonomy.ReportStatus
	err := r.db.QueryRowContext(ctx,
		`SELECT created_by, status FROM reports WHERE id = $1 AND NOT deleted`, id,
	).Scan(&createdBy, &status)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	if createdBy != ownerID {
		return ErrNotOwner
	}
	if status != taxonomy.ReportPending {
		return ErrNotDeletable
	}

	_, err = r.db.ExecContext(ctx,
		`UPDATE reports SET deleted = TRUE, updated_at = NOW() WHERE id = $1`, id)
	return err
}
