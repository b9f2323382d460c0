package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/CleanAfricaNow/civic-service/internal/models"
	"github.com/CleanAfricaNow/civic-service/internal/taxonomy"
)

// PostgresBinRepository implements BinRepository.
type PostgresBinRepository struct {
	db *sql.DB
}

func NewPostgresBinRepository(db *sql.DB) BinRepository {
	return &PostgresBinRepository{db: db}
}

const binColumns = `id, code, latitude, longitude, district, street, bin_type,
	current_status, last_status_update, city_id, created_at`

func scanBin(row interface{ Scan(...any) error }, b *models.WasteBin) error {
	return row.Scan(
		&b.ID, &b.Code, &b.Latitude, &b.Longitude, &b.District, &b.Street,
		&b.BinType, &b.CurrentStatus, &b.LastStatusUpdate, &b.CityID, &b.CreatedAt,
	)
}

func (r *PostgresBinRepository) Create(ctx context.Context, bin *models.WasteBin) error {
	if bin.CurrentStatus == "" {
		bin.CurrentStatus = taxonomy.BinEmpty
	}
	return r.db.QueryRowContext(ctx,
		`INSERT INTO waste_bins
		   (code, latitude, longitude, district, street, bin_type, current_status, city_id)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 RETURNING id, last_status_update, created_at`,
		bin.Code, bin.Latitude, bin.Longitude, bin.District, bin.Street,
		bin.BinType, bin.CurrentStatus, bin.CityID,
	).Scan(&bin.ID, &bin.LastStatusUpdate, &bin.CreatedAt)
}

func (r *PostgresBinRepository) Update(ctx context.Context, bin *models.WasteBin) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE waste_bins
		 SET code = $1, latitude = $2, longitude = $3, district = $4, street = $5,
		     bin_type = $6, city_id = $7
		 WHERE id = $8`,
		bin.Code, bin.Latitude, bin.Longitude, bin.District, bin.Street,
		bin.BinType, bin.CityID, bin.ID,
	)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PostgresBinRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.WasteBin, error) {
	var b models.WasteBin
	row := r.db.QueryRowContext(ctx,
		`SELECT `+binColumns+` FROM waste_bins WHERE id = $1`, id)
	err := scanBin(row, &b)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *PostgresBinRepository) List(ctx context.Context, cityID *uuid.UUID) ([]models.WasteBin, error) {
	var (
		rows *sql.Rows
		err  error
	)
	if cityID != nil {
		rows, err = r.db.QueryContext(ctx,
			`SELECT `+binColumns+` FROM waste_bins WHERE city_id = $1 ORDER BY code`, *cityID)
	} else {
		rows, err = r.db.QueryContext(ctx,
			`SELECT `+binColumns+` FROM waste_bins ORDER BY code`)
	}
	if err != nil {
		return nil, fmt.Errorf("list bins: %w", err)
	}
	defer rows.Close()

	var bins []models.WasteBin
	for rows.Next() {
		var b models.WasteBin
		if err := scanBin(rows, &b); err != nil {
			return nil, err
		}
		bins = append(bins, b)
	}
	return bins, rows.Err()
}

// SubmitStatusReport appends the immutable history row and overwrites the
// cached current_status in one transaction. Last write wins by commit order;
// there is no reporter weighting and no conflict resolution.
func (r *PostgresBinRepository) SubmitStatusReport(ctx context.Context, report *models.BinStatusReport) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	err = tx.QueryRowContext(ctx,
		`INSERT INTO bin_status_reports (bin_id, reporter_id, status, notes)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id, created_at`,
		report.BinID, report.ReporterID, report.Status, report.Notes,
	).Scan(&report.ID, &report.CreatedAt)
	if err != nil {
		return err
	}

	res, err := tx.ExecContext(ctx,
		`UPDATE waste_bins SET current_status = $1, last_status_update = NOW()
		 WHERE id = $2`,
		report.Status, report.BinID,
	)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}

	return tx.Commit()
}

func (r *PostgresBinRepository) ListStatusReports(ctx context.Context, binID uuid.UUID, limit int) ([]models.BinStatusReport, error) {
	if limit <= 0 || limit > 500 {
		limit = 50
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, bin_id, reporter_id, status, notes, created_at
		 FROM bin_status_reports WHERE bin_id = $1
		 ORDER BY created_at DESC LIMIT $2`,
		binID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list bin status reports: %w", err)
	}
	defer rows.Close()

	var reports []models.BinStatusReport
	for rows.Next() {
		var rep models.BinStatusReport
		if err := rows.Scan(&rep.ID, &rep.BinID, &rep.ReporterID, &rep.Status, &rep.Notes, &rep.CreatedAt); err != nil {
			return nil, err
		}
		reports = append(reports, rep)
	}
	return reports, rows.Err()
}

// LogCollection records a pickup and resets the cached status to empty in
// the same transaction.
func (r *PostgresBinRepository) LogCollection(ctx context.Context, c *models.BinCollection) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	err = tx.QueryRowContext(ctx,
		`INSERT INTO bin_collections (bin_id, collected_by)
		 VALUES ($1, $2) RETURNING id, collected_at`,
		c.BinID, c.CollectedBy,
	).Scan(&c.ID, &c.CollectedAt)
	if err != nil {
		return err
	}

	res, err := tx.ExecContext(ctx,
		`UPDATE waste_bins SET current_status = $1, last_status_update = NOW()
		 WHERE id = $2`,
		taxonomy.BinEmpty, c.BinID,
	)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}

	return tx.Commit()
}
