package pgpackages

import (
	"context"
	"time"

	"github.com/BearBump/GLExpress/internal/models"
	"github.com/pkg/errors"
)

const statusConfigColumns = `
  status, status_order, display_name, description,
  days_after_previous, hours_after_previous, minutes_after_previous,
  is_active, created_at, updated_at`

func (s *Storage) ListStatusConfigs(ctx context.Context) ([]*models.StatusConfig, error) {
	rows, err := s.db.Query(ctx, `SELECT`+statusConfigColumns+` FROM status_configs ORDER BY status_order ASC`)
	if err != nil {
		return nil, errors.Wrap(err, "select status configs")
	}
	defer rows.Close()

	out := make([]*models.StatusConfig, 0)
	for rows.Next() {
		c, err := scanStatusConfig(rows)
		if err != nil {
			return nil, errors.Wrap(err, "scan status config")
		}
		out = append(out, c)
	}
	if rows.Err() != nil {
		return nil, errors.Wrap(rows.Err(), "rows")
	}
	return out, nil
}

// UpdateStatusConfig applies the non-nil fields of patch.
func (s *Storage) UpdateStatusConfig(ctx context.Context, status models.PackageStatus, patch models.StatusConfigPatch, at time.Time) (*models.StatusConfig, error) {
	row := s.db.QueryRow(ctx, `
UPDATE status_configs SET
  status_order = COALESCE($2, status_order),
  display_name = COALESCE($3, display_name),
  description = COALESCE($4, description),
  days_after_previous = COALESCE($5, days_after_previous),
  hours_after_previous = COALESCE($6, hours_after_previous),
  minutes_after_previous = COALESCE($7, minutes_after_previous),
  is_active = COALESCE($8, is_active),
  updated_at = $9
WHERE status = $1
RETURNING`+statusConfigColumns,
		string(status), patch.StatusOrder, patch.DisplayName, patch.Description,
		patch.DaysAfterPrevious, patch.HoursAfterPrevious, patch.MinutesAfterPrevious,
		patch.IsActive, at.UTC())

	c, err := scanStatusConfig(row)
	if isNoRows(err) {
		return nil, errors.Wrapf(models.ErrNotFound, "status config %s", status)
	}
	if isUniqueViolation(err) {
		return nil, errors.Wrap(models.ErrConflict, "status_order already used")
	}
	if err != nil {
		return nil, errors.Wrap(err, "update status config")
	}
	return c, nil
}

func scanStatusConfig(r rowScanner) (*models.StatusConfig, error) {
	var c models.StatusConfig
	var status string
	if err := r.Scan(
		&status, &c.StatusOrder, &c.DisplayName, &c.Description,
		&c.DaysAfterPrevious, &c.HoursAfterPrevious, &c.MinutesAfterPrevious,
		&c.IsActive, &c.CreatedAt, &c.UpdatedAt,
	); err != nil {
		return nil, err
	}
	c.Status = models.PackageStatus(status)
	return &c, nil
}
