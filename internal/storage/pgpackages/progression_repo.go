package pgpackages

import (
	"context"

	"github.com/BearBump/GLExpress/internal/models"
	"github.com/pkg/errors"
)

// ListProgressionCandidates returns every non-terminal package with the time it
// entered its current status: the newest history entry, or created_at when the
// package has no history.
func (s *Storage) ListProgressionCandidates(ctx context.Context) ([]*models.ProgressionCandidate, error) {
	terminal := make([]string, 0, len(models.TerminalStatuses))
	for _, st := range models.TerminalStatuses {
		terminal = append(terminal, string(st))
	}

	rows, err := s.db.Query(ctx, `
SELECT p.id, p.tracking_number, p.current_status, COALESCE(h.created_at, p.created_at)
FROM packages p
LEFT JOIN LATERAL (
  SELECT created_at
  FROM package_status_history
  WHERE package_id = p.id
  ORDER BY created_at DESC
  LIMIT 1
) h ON TRUE
WHERE NOT (p.current_status = ANY($1))
ORDER BY p.created_at ASC
`, terminal)
	if err != nil {
		return nil, errors.Wrap(err, "select progression candidates")
	}
	defer rows.Close()

	out := make([]*models.ProgressionCandidate, 0)
	for rows.Next() {
		var c models.ProgressionCandidate
		var status string
		if err := rows.Scan(&c.PackageID, &c.TrackingNumber, &status, &c.EnteredAt); err != nil {
			return nil, errors.Wrap(err, "scan progression candidate")
		}
		c.CurrentStatus = models.PackageStatus(status)
		out = append(out, &c)
	}
	if rows.Err() != nil {
		return nil, errors.Wrap(rows.Err(), "rows")
	}
	return out, nil
}
