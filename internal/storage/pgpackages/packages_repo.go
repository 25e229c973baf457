package pgpackages

import (
	"context"
	"time"

	"github.com/BearBump/GLExpress/internal/models"
	"github.com/jackc/pgx/v5"
	"github.com/pkg/errors"
)

const packageColumns = `
  id, tracking_number,
  recipient_name, recipient_address, recipient_phone, recipient_email,
  sender_name, sender_address, sender_phone,
  weight, dimensions, service_type, external_order_id,
  current_status, created_at, updated_at`

// CreatePackage inserts a package. When initial is not nil the first history
// entry is written in the same transaction.
func (s *Storage) CreatePackage(ctx context.Context, in models.PackageCreateInput, initial *models.StatusHistoryEntry) (*models.Package, error) {
	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, errors.Wrap(err, "begin tx")
	}
	defer func() { _ = tx.Rollback(ctx) }()

	row := tx.QueryRow(ctx, `
INSERT INTO packages (
  id, tracking_number,
  recipient_name, recipient_address, recipient_phone, recipient_email,
  sender_name, sender_address, sender_phone,
  weight, dimensions, service_type, external_order_id,
  current_status, created_at, updated_at
)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$15)
RETURNING`+packageColumns,
		in.ID, in.TrackingNumber,
		in.RecipientName, in.RecipientAddress, in.RecipientPhone, in.RecipientEmail,
		in.SenderName, in.SenderAddress, in.SenderPhone,
		in.Weight, in.Dimensions, in.ServiceType, in.ExternalOrderID,
		string(in.CurrentStatus), in.CreatedAt.UTC(),
	)
	p, err := scanPackage(row)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, errors.Wrapf(models.ErrConflict, "tracking number %s already exists", in.TrackingNumber)
		}
		return nil, errors.Wrap(err, "insert package")
	}

	if initial != nil {
		e := *initial
		e.PackageID = p.ID
		if _, err := insertHistory(ctx, tx, e); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, errors.Wrap(err, "commit tx")
	}
	return p, nil
}

func (s *Storage) GetPackageByID(ctx context.Context, id string) (*models.Package, error) {
	row := s.db.QueryRow(ctx, `SELECT`+packageColumns+` FROM packages WHERE id = $1`, id)
	p, err := scanPackage(row)
	if isNoRows(err) {
		return nil, errors.Wrapf(models.ErrNotFound, "package %s", id)
	}
	if err != nil {
		return nil, errors.Wrap(err, "select package")
	}
	return p, nil
}

func (s *Storage) GetPackageByTrackingNumber(ctx context.Context, trackingNumber string) (*models.Package, error) {
	row := s.db.QueryRow(ctx, `SELECT`+packageColumns+` FROM packages WHERE tracking_number = $1`, trackingNumber)
	p, err := scanPackage(row)
	if isNoRows(err) {
		return nil, errors.Wrapf(models.ErrNotFound, "tracking number %s", trackingNumber)
	}
	if err != nil {
		return nil, errors.Wrap(err, "select package by tracking number")
	}
	return p, nil
}

// FindPackageByExternalOrderID returns the oldest package created for the order.
func (s *Storage) FindPackageByExternalOrderID(ctx context.Context, orderID string) (*models.Package, error) {
	row := s.db.QueryRow(ctx, `
SELECT`+packageColumns+`
FROM packages
WHERE external_order_id = $1
ORDER BY created_at ASC
LIMIT 1
`, orderID)
	p, err := scanPackage(row)
	if isNoRows(err) {
		return nil, errors.Wrapf(models.ErrNotFound, "external order %s", orderID)
	}
	if err != nil {
		return nil, errors.Wrap(err, "select package by external order")
	}
	return p, nil
}

func (s *Storage) ListPackages(ctx context.Context) ([]*models.Package, error) {
	rows, err := s.db.Query(ctx, `SELECT`+packageColumns+` FROM packages ORDER BY created_at DESC`)
	if err != nil {
		return nil, errors.Wrap(err, "select packages")
	}
	defer rows.Close()

	out := make([]*models.Package, 0)
	for rows.Next() {
		p, err := scanPackage(rows)
		if err != nil {
			return nil, errors.Wrap(err, "scan package")
		}
		out = append(out, p)
	}
	if rows.Err() != nil {
		return nil, errors.Wrap(rows.Err(), "rows")
	}
	return out, nil
}

// DeletePackages removes packages by id; history rows go with them (ON DELETE CASCADE).
func (s *Storage) DeletePackages(ctx context.Context, ids []string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	tag, err := s.db.Exec(ctx, `DELETE FROM packages WHERE id = ANY($1)`, ids)
	if err != nil {
		return 0, errors.Wrap(err, "delete packages")
	}
	return tag.RowsAffected(), nil
}

func (s *Storage) UpdateRecipientEmail(ctx context.Context, id string, email *string, at time.Time) (*models.Package, error) {
	row := s.db.QueryRow(ctx, `
UPDATE packages
SET recipient_email = $2, updated_at = $3
WHERE id = $1
RETURNING`+packageColumns, id, email, at.UTC())
	p, err := scanPackage(row)
	if isNoRows(err) {
		return nil, errors.Wrapf(models.ErrNotFound, "package %s", id)
	}
	if err != nil {
		return nil, errors.Wrap(err, "update recipient email")
	}
	return p, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPackage(r rowScanner) (*models.Package, error) {
	var p models.Package
	var status string
	if err := r.Scan(
		&p.ID, &p.TrackingNumber,
		&p.RecipientName, &p.RecipientAddress, &p.RecipientPhone, &p.RecipientEmail,
		&p.SenderName, &p.SenderAddress, &p.SenderPhone,
		&p.Weight, &p.Dimensions, &p.ServiceType, &p.ExternalOrderID,
		&status, &p.CreatedAt, &p.UpdatedAt,
	); err != nil {
		return nil, err
	}
	p.CurrentStatus = models.PackageStatus(status)
	return &p, nil
}
