package pgpackages

import (
	"context"
	"time"

	"github.com/BearBump/GLExpress/internal/models"
	"github.com/jackc/pgx/v5"
	"github.com/pkg/errors"
)

const profileColumns = ` id, email, role, created_at, updated_at`

func scanProfile(row pgx.Row) (*models.Profile, error) {
	var p models.Profile
	if err := row.Scan(&p.ID, &p.Email, &p.Role, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *Storage) GetProfile(ctx context.Context, id string) (*models.Profile, error) {
	p, err := scanProfile(s.db.QueryRow(ctx, `SELECT`+profileColumns+` FROM profiles WHERE id = $1`, id))
	if isNoRows(err) {
		return nil, errors.Wrapf(models.ErrNotFound, "profile %s", id)
	}
	if err != nil {
		return nil, errors.Wrap(err, "select profile")
	}
	return p, nil
}

// UpsertProfileEmail создаёт профиль при первом сохранении, роль при этом admin.
func (s *Storage) UpsertProfileEmail(ctx context.Context, id string, email string, at time.Time) (*models.Profile, error) {
	p, err := scanProfile(s.db.QueryRow(ctx, `
INSERT INTO profiles (id, email, role, created_at, updated_at)
VALUES ($1, $2, $3, $4, $4)
ON CONFLICT (id) DO UPDATE SET email = EXCLUDED.email, updated_at = EXCLUDED.updated_at
RETURNING`+profileColumns,
		id, email, models.RoleAdmin, at.UTC()))
	if err != nil {
		return nil, errors.Wrap(err, "upsert profile")
	}
	return p, nil
}
