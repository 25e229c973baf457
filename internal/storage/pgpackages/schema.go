package pgpackages

import (
	"context"
	"time"

	"github.com/BearBump/GLExpress/internal/models"
	"github.com/pkg/errors"
)

func (s *Storage) initSchema(ctx context.Context) error {
	stmts := []string{
		`
CREATE TABLE IF NOT EXISTS packages (
  id TEXT PRIMARY KEY,
  tracking_number TEXT NOT NULL UNIQUE,
  recipient_name TEXT NOT NULL,
  recipient_address TEXT NOT NULL,
  recipient_phone TEXT NULL,
  recipient_email TEXT NULL,
  sender_name TEXT NULL,
  sender_address TEXT NULL,
  sender_phone TEXT NULL,
  weight DOUBLE PRECISION NULL CHECK (weight IS NULL OR weight >= 0),
  dimensions TEXT NULL,
  service_type TEXT NOT NULL DEFAULT 'standard',
  external_order_id TEXT NULL,
  current_status TEXT NOT NULL,
  created_at TIMESTAMPTZ NOT NULL,
  updated_at TIMESTAMPTZ NOT NULL
)`,
		`CREATE INDEX IF NOT EXISTS idx_packages_created_at ON packages(created_at DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_packages_external_order_id ON packages(external_order_id)`,
		`CREATE INDEX IF NOT EXISTS idx_packages_current_status ON packages(current_status)`,
		`
CREATE TABLE IF NOT EXISTS package_status_history (
  id BIGSERIAL PRIMARY KEY,
  package_id TEXT NOT NULL REFERENCES packages(id) ON DELETE CASCADE,
  status TEXT NOT NULL,
  location TEXT NULL,
  notes TEXT NULL,
  created_at TIMESTAMPTZ NOT NULL
)`,
		`CREATE INDEX IF NOT EXISTS idx_package_status_history_package_created ON package_status_history(package_id, created_at DESC)`,
		`
CREATE TABLE IF NOT EXISTS status_configs (
  status TEXT PRIMARY KEY,
  status_order INT NOT NULL UNIQUE,
  display_name TEXT NOT NULL,
  description TEXT NULL,
  days_after_previous INT NOT NULL DEFAULT 0 CHECK (days_after_previous >= 0),
  hours_after_previous INT NOT NULL DEFAULT 0 CHECK (hours_after_previous >= 0),
  minutes_after_previous INT NOT NULL DEFAULT 0 CHECK (minutes_after_previous >= 0),
  is_active BOOLEAN NOT NULL DEFAULT TRUE,
  created_at TIMESTAMPTZ NOT NULL,
  updated_at TIMESTAMPTZ NOT NULL
)`,
		`
CREATE TABLE IF NOT EXISTS profiles (
  id TEXT PRIMARY KEY,
  email TEXT NULL,
  role TEXT NOT NULL DEFAULT 'admin',
  created_at TIMESTAMPTZ NOT NULL,
  updated_at TIMESTAMPTZ NOT NULL
)`,
	}

	for _, q := range stmts {
		if _, err := s.db.Exec(ctx, q); err != nil {
			return errors.Wrap(err, "init schema")
		}
	}

	if _, err := s.SeedStatusConfigs(ctx, models.DefaultStatusConfigs()); err != nil {
		return err
	}
	return nil
}

// SeedStatusConfigs inserts the given configs, leaving existing rows untouched.
// Returns the number of rows inserted.
func (s *Storage) SeedStatusConfigs(ctx context.Context, cfgs []models.StatusConfig) (int, error) {
	now := time.Now().UTC()
	inserted := 0
	for _, c := range cfgs {
		tag, err := s.db.Exec(ctx, `
INSERT INTO status_configs (
  status, status_order, display_name, description,
  days_after_previous, hours_after_previous, minutes_after_previous,
  is_active, created_at, updated_at
)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$9)
ON CONFLICT DO NOTHING
`, string(c.Status), c.StatusOrder, c.DisplayName, c.Description,
			c.DaysAfterPrevious, c.HoursAfterPrevious, c.MinutesAfterPrevious,
			c.IsActive, now)
		if err != nil {
			return inserted, errors.Wrap(err, "seed status config")
		}
		inserted += int(tag.RowsAffected())
	}
	return inserted, nil
}
