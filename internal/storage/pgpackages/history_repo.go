package pgpackages

import (
	"context"
	"time"

	"github.com/BearBump/GLExpress/internal/models"
	"github.com/jackc/pgx/v5"
	"github.com/pkg/errors"
)

// ApplyStatusChange updates current_status and appends the history entry in one
// transaction. Conditional changes that lost the race return ErrConflict.
func (s *Storage) ApplyStatusChange(ctx context.Context, ch models.StatusChange) (*models.Package, error) {
	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, errors.Wrap(err, "begin tx")
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var row pgx.Row
	if ch.Conditional() {
		row = tx.QueryRow(ctx, `
UPDATE packages
SET current_status = $3, updated_at = $4
WHERE id = $1
  AND current_status = $2
  AND NOT EXISTS (
    SELECT 1 FROM package_status_history h
    WHERE h.package_id = $1 AND h.created_at > $5
  )
RETURNING`+packageColumns,
			ch.PackageID, string(ch.From), string(ch.To), ch.At.UTC(), ch.EnteredAt.UTC())
	} else {
		row = tx.QueryRow(ctx, `
UPDATE packages
SET current_status = $2, updated_at = $3
WHERE id = $1
RETURNING`+packageColumns,
			ch.PackageID, string(ch.To), ch.At.UTC())
	}

	p, err := scanPackage(row)
	if isNoRows(err) {
		if ch.Conditional() {
			return nil, errors.Wrapf(models.ErrConflict, "package %s moved on from %s", ch.PackageID, ch.From)
		}
		return nil, errors.Wrapf(models.ErrNotFound, "package %s", ch.PackageID)
	}
	if err != nil {
		return nil, errors.Wrap(err, "update package status")
	}

	// строка packages заблокирована UPDATE выше, новые записи истории до commit не появятся
	var latest *time.Time
	if err := tx.QueryRow(ctx,
		`SELECT max(created_at) FROM package_status_history WHERE package_id = $1`,
		ch.PackageID).Scan(&latest); err != nil {
		return nil, errors.Wrap(err, "select latest status history")
	}

	if _, err := insertHistory(ctx, tx, models.StatusHistoryEntry{
		PackageID: ch.PackageID,
		Status:    ch.To,
		Location:  ch.Location,
		Notes:     ch.Notes,
		CreatedAt: models.HistoryTime(ch.At, latest),
	}); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, errors.Wrap(err, "commit tx")
	}
	return p, nil
}

// AppendStatusHistory writes a single history row without touching the package.
func (s *Storage) AppendStatusHistory(ctx context.Context, e models.StatusHistoryEntry) (*models.StatusHistoryEntry, error) {
	return insertHistory(ctx, s.db, e)
}

func (s *Storage) ListStatusHistory(ctx context.Context, packageID string) ([]*models.StatusHistoryEntry, error) {
	rows, err := s.db.Query(ctx, `
SELECT id, package_id, status, location, notes, created_at
FROM package_status_history
WHERE package_id = $1
ORDER BY created_at ASC, id ASC
`, packageID)
	if err != nil {
		return nil, errors.Wrap(err, "select status history")
	}
	defer rows.Close()

	out := make([]*models.StatusHistoryEntry, 0)
	for rows.Next() {
		var e models.StatusHistoryEntry
		var status string
		if err := rows.Scan(&e.ID, &e.PackageID, &status, &e.Location, &e.Notes, &e.CreatedAt); err != nil {
			return nil, errors.Wrap(err, "scan status history")
		}
		e.Status = models.PackageStatus(status)
		out = append(out, &e)
	}
	if rows.Err() != nil {
		return nil, errors.Wrap(rows.Err(), "rows")
	}
	return out, nil
}

type queryRower interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func insertHistory(ctx context.Context, q queryRower, e models.StatusHistoryEntry) (*models.StatusHistoryEntry, error) {
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}
	e.CreatedAt = e.CreatedAt.UTC()

	err := q.QueryRow(ctx, `
INSERT INTO package_status_history (package_id, status, location, notes, created_at)
VALUES ($1,$2,$3,$4,$5)
RETURNING id
`, e.PackageID, string(e.Status), e.Location, e.Notes, e.CreatedAt).Scan(&e.ID)
	if err != nil {
		return nil, errors.Wrap(err, "insert status history")
	}
	return &e, nil
}
