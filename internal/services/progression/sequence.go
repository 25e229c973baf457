package progression

import (
	"time"

	"github.com/BearBump/GLExpress/internal/models"
)

// Sequence: индекс конфигов статусов по статусу и по status_order.
type Sequence struct {
	byStatus map[models.PackageStatus]*models.StatusConfig
	byOrder  map[int]*models.StatusConfig
}

func NewSequence(cfgs []*models.StatusConfig) *Sequence {
	s := &Sequence{
		byStatus: make(map[models.PackageStatus]*models.StatusConfig, len(cfgs)),
		byOrder:  make(map[int]*models.StatusConfig, len(cfgs)),
	}
	for _, c := range cfgs {
		if c == nil {
			continue
		}
		s.byStatus[c.Status] = c
		s.byOrder[c.StatusOrder] = c
	}
	return s
}

// Next returns the config with status_order exactly one above the current status.
func (s *Sequence) Next(current models.PackageStatus) (*models.StatusConfig, bool) {
	cur, ok := s.byStatus[current]
	if !ok {
		return nil, false
	}
	next, ok := s.byOrder[cur.StatusOrder+1]
	return next, ok
}

// NextDue решает, пора ли переводить посылку: следующий конфиг существует, активен,
// и с момента входа в текущий статус прошло не меньше его dwell.
// Неактивный следующий статус блокирует продвижение, а не пропускается.
func (s *Sequence) NextDue(current models.PackageStatus, enteredAt, now time.Time) (*models.StatusConfig, bool) {
	if current.Terminal() {
		return nil, false
	}
	next, ok := s.Next(current)
	if !ok || !next.IsActive {
		return nil, false
	}
	if now.Sub(enteredAt) < next.Dwell() {
		return nil, false
	}
	return next, true
}
