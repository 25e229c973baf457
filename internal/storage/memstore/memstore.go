package memstore

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/BearBump/GLExpress/internal/models"
	"github.com/pkg/errors"
)

// Store: in-memory реализация хранилища пакетов (driver: memory).
// Повторяет семантику pgpackages: уникальный tracking_number, CAS при автопереходе,
// каскадное удаление истории.
type Store struct {
	mu       sync.Mutex
	packages map[string]*models.Package
	history  map[string][]*models.StatusHistoryEntry
	configs  map[models.PackageStatus]*models.StatusConfig
	profiles map[string]*models.Profile
	nextHist uint64
}

func New() *Store {
	s := &Store{
		packages: make(map[string]*models.Package),
		history:  make(map[string][]*models.StatusHistoryEntry),
		configs:  make(map[models.PackageStatus]*models.StatusConfig),
		profiles: make(map[string]*models.Profile),
	}
	_, _ = s.SeedStatusConfigs(context.Background(), models.DefaultStatusConfigs())
	return s
}

func (s *Store) Close() {}

func (s *Store) Ping(ctx context.Context) error { return ctx.Err() }

func (s *Store) SeedStatusConfigs(_ context.Context, cfgs []models.StatusConfig) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	inserted := 0
	for _, c := range cfgs {
		if _, ok := s.configs[c.Status]; ok {
			continue
		}
		if s.orderTaken(c.StatusOrder, "") {
			continue
		}
		cp := c
		cp.CreatedAt, cp.UpdatedAt = now, now
		s.configs[c.Status] = &cp
		inserted++
	}
	return inserted, nil
}

func (s *Store) CreatePackage(_ context.Context, in models.PackageCreateInput, initial *models.StatusHistoryEntry) (*models.Package, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, p := range s.packages {
		if p.TrackingNumber == in.TrackingNumber {
			return nil, errors.Wrapf(models.ErrConflict, "tracking number %s already exists", in.TrackingNumber)
		}
	}
	if _, ok := s.packages[in.ID]; ok {
		return nil, errors.Wrapf(models.ErrConflict, "package %s already exists", in.ID)
	}

	at := in.CreatedAt.UTC()
	p := &models.Package{
		ID:               in.ID,
		TrackingNumber:   in.TrackingNumber,
		RecipientName:    in.RecipientName,
		RecipientAddress: in.RecipientAddress,
		RecipientPhone:   in.RecipientPhone,
		RecipientEmail:   in.RecipientEmail,
		SenderName:       in.SenderName,
		SenderAddress:    in.SenderAddress,
		SenderPhone:      in.SenderPhone,
		Weight:           in.Weight,
		Dimensions:       in.Dimensions,
		ServiceType:      in.ServiceType,
		ExternalOrderID:  in.ExternalOrderID,
		CurrentStatus:    in.CurrentStatus,
		CreatedAt:        at,
		UpdatedAt:        at,
	}
	if p.ServiceType == "" {
		p.ServiceType = models.ServiceStandard
	}
	s.packages[p.ID] = p

	if initial != nil {
		e := *initial
		e.PackageID = p.ID
		s.appendLocked(e)
	}
	return copyPackage(p), nil
}

func (s *Store) GetPackageByID(_ context.Context, id string) (*models.Package, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.packages[id]
	if !ok {
		return nil, errors.Wrapf(models.ErrNotFound, "package %s", id)
	}
	return copyPackage(p), nil
}

func (s *Store) GetPackageByTrackingNumber(_ context.Context, trackingNumber string) (*models.Package, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, p := range s.packages {
		if p.TrackingNumber == trackingNumber {
			return copyPackage(p), nil
		}
	}
	return nil, errors.Wrapf(models.ErrNotFound, "tracking number %s", trackingNumber)
}

func (s *Store) FindPackageByExternalOrderID(_ context.Context, orderID string) (*models.Package, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var found *models.Package
	for _, p := range s.packages {
		if models.DerefString(p.ExternalOrderID) != orderID {
			continue
		}
		if found == nil || p.CreatedAt.Before(found.CreatedAt) {
			found = p
		}
	}
	if found == nil {
		return nil, errors.Wrapf(models.ErrNotFound, "external order %s", orderID)
	}
	return copyPackage(found), nil
}

func (s *Store) ListPackages(_ context.Context) ([]*models.Package, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*models.Package, 0, len(s.packages))
	for _, p := range s.packages {
		out = append(out, copyPackage(p))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *Store) DeletePackages(_ context.Context, ids []string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var n int64
	for _, id := range ids {
		if _, ok := s.packages[id]; !ok {
			continue
		}
		delete(s.packages, id)
		delete(s.history, id)
		n++
	}
	return n, nil
}

func (s *Store) UpdateRecipientEmail(_ context.Context, id string, email *string, at time.Time) (*models.Package, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.packages[id]
	if !ok {
		return nil, errors.Wrapf(models.ErrNotFound, "package %s", id)
	}
	p.RecipientEmail = email
	p.UpdatedAt = at.UTC()
	return copyPackage(p), nil
}

func (s *Store) ApplyStatusChange(_ context.Context, ch models.StatusChange) (*models.Package, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.packages[ch.PackageID]
	if ch.Conditional() {
		if !ok || p.CurrentStatus != ch.From || s.hasNewerLocked(ch.PackageID, ch.EnteredAt) {
			return nil, errors.Wrapf(models.ErrConflict, "package %s moved on from %s", ch.PackageID, ch.From)
		}
	} else if !ok {
		return nil, errors.Wrapf(models.ErrNotFound, "package %s", ch.PackageID)
	}

	p.CurrentStatus = ch.To
	p.UpdatedAt = ch.At.UTC()
	s.appendLocked(models.StatusHistoryEntry{
		PackageID: ch.PackageID,
		Status:    ch.To,
		Location:  ch.Location,
		Notes:     ch.Notes,
		CreatedAt: models.HistoryTime(ch.At, s.latestLocked(ch.PackageID)),
	})
	return copyPackage(p), nil
}

func (s *Store) AppendStatusHistory(_ context.Context, e models.StatusHistoryEntry) (*models.StatusHistoryEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.packages[e.PackageID]; !ok {
		return nil, errors.Wrapf(models.ErrNotFound, "package %s", e.PackageID)
	}
	out := s.appendLocked(e)
	cp := *out
	return &cp, nil
}

func (s *Store) ListStatusHistory(_ context.Context, packageID string) ([]*models.StatusHistoryEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	src := s.history[packageID]
	out := make([]*models.StatusHistoryEntry, 0, len(src))
	for _, e := range src {
		cp := *e
		out = append(out, &cp)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (s *Store) ListStatusConfigs(_ context.Context) ([]*models.StatusConfig, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*models.StatusConfig, 0, len(s.configs))
	for _, c := range s.configs {
		cp := *c
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StatusOrder < out[j].StatusOrder })
	return out, nil
}

func (s *Store) UpdateStatusConfig(_ context.Context, status models.PackageStatus, patch models.StatusConfigPatch, at time.Time) (*models.StatusConfig, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.configs[status]
	if !ok {
		return nil, errors.Wrapf(models.ErrNotFound, "status config %s", status)
	}
	if patch.StatusOrder != nil && s.orderTaken(*patch.StatusOrder, status) {
		return nil, errors.Wrap(models.ErrConflict, "status_order already used")
	}

	if patch.StatusOrder != nil {
		c.StatusOrder = *patch.StatusOrder
	}
	if patch.DisplayName != nil {
		c.DisplayName = *patch.DisplayName
	}
	if patch.Description != nil {
		d := *patch.Description
		c.Description = &d
	}
	if patch.DaysAfterPrevious != nil {
		c.DaysAfterPrevious = *patch.DaysAfterPrevious
	}
	if patch.HoursAfterPrevious != nil {
		c.HoursAfterPrevious = *patch.HoursAfterPrevious
	}
	if patch.MinutesAfterPrevious != nil {
		c.MinutesAfterPrevious = *patch.MinutesAfterPrevious
	}
	if patch.IsActive != nil {
		c.IsActive = *patch.IsActive
	}
	c.UpdatedAt = at.UTC()

	cp := *c
	return &cp, nil
}

func (s *Store) ListProgressionCandidates(_ context.Context) ([]*models.ProgressionCandidate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*models.ProgressionCandidate, 0)
	for id, p := range s.packages {
		if p.CurrentStatus.Terminal() {
			continue
		}
		entered := p.CreatedAt
		for _, e := range s.history[id] {
			if e.CreatedAt.After(entered) {
				entered = e.CreatedAt
			}
		}
		out = append(out, &models.ProgressionCandidate{
			PackageID:      id,
			TrackingNumber: p.TrackingNumber,
			CurrentStatus:  p.CurrentStatus,
			EnteredAt:      entered,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TrackingNumber < out[j].TrackingNumber })
	return out, nil
}

func (s *Store) GetProfile(_ context.Context, id string) (*models.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.profiles[id]
	if !ok {
		return nil, errors.Wrapf(models.ErrNotFound, "profile %s", id)
	}
	return copyProfile(p), nil
}

func (s *Store) UpsertProfileEmail(_ context.Context, id string, email string, at time.Time) (*models.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	at = at.UTC()
	p, ok := s.profiles[id]
	if !ok {
		p = &models.Profile{ID: id, Role: models.RoleAdmin, CreatedAt: at}
		s.profiles[id] = p
	}
	e := email
	p.Email = &e
	p.UpdatedAt = at
	return copyProfile(p), nil
}

func copyProfile(p *models.Profile) *models.Profile {
	cp := *p
	if p.Email != nil {
		e := *p.Email
		cp.Email = &e
	}
	return &cp
}

func (s *Store) appendLocked(e models.StatusHistoryEntry) *models.StatusHistoryEntry {
	s.nextHist++
	e.ID = s.nextHist
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}
	e.CreatedAt = e.CreatedAt.UTC()
	s.history[e.PackageID] = append(s.history[e.PackageID], &e)
	return &e
}

func (s *Store) latestLocked(packageID string) *time.Time {
	var latest *time.Time
	for _, e := range s.history[packageID] {
		if latest == nil || e.CreatedAt.After(*latest) {
			t := e.CreatedAt
			latest = &t
		}
	}
	return latest
}

func (s *Store) hasNewerLocked(packageID string, since time.Time) bool {
	for _, e := range s.history[packageID] {
		if e.CreatedAt.After(since) {
			return true
		}
	}
	return false
}

func (s *Store) orderTaken(order int, except models.PackageStatus) bool {
	for st, c := range s.configs {
		if st != except && c.StatusOrder == order {
			return true
		}
	}
	return false
}

func copyPackage(p *models.Package) *models.Package {
	cp := *p
	return &cp
}
