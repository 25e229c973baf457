package packages

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"time"

	"github.com/BearBump/GLExpress/internal/cache"
	"github.com/BearBump/GLExpress/internal/models"
	"github.com/BearBump/GLExpress/internal/services/ingestion"
	"github.com/BearBump/GLExpress/internal/services/progression"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

const (
	ManualNotes = "Status updated manually by admin"

	createAttempts = 3
)

type Repository interface {
	CreatePackage(ctx context.Context, in models.PackageCreateInput, initial *models.StatusHistoryEntry) (*models.Package, error)
	GetPackageByID(ctx context.Context, id string) (*models.Package, error)
	GetPackageByTrackingNumber(ctx context.Context, trackingNumber string) (*models.Package, error)
	ListPackages(ctx context.Context) ([]*models.Package, error)
	DeletePackages(ctx context.Context, ids []string) (int64, error)
	UpdateRecipientEmail(ctx context.Context, id string, email *string, at time.Time) (*models.Package, error)
	ApplyStatusChange(ctx context.Context, ch models.StatusChange) (*models.Package, error)
	ListStatusHistory(ctx context.Context, packageID string) ([]*models.StatusHistoryEntry, error)
	ListStatusConfigs(ctx context.Context) ([]*models.StatusConfig, error)
	UpdateStatusConfig(ctx context.Context, status models.PackageStatus, patch models.StatusConfigPatch, at time.Time) (*models.StatusConfig, error)
	GetProfile(ctx context.Context, id string) (*models.Profile, error)
	UpsertProfileEmail(ctx context.Context, id string, email string, at time.Time) (*models.Profile, error)
}

type Progression interface {
	EvaluateAndAdvance(ctx context.Context) (progression.RunResult, error)
}

type Service struct {
	repo      Repository
	cache     cache.BytesCache
	lookupTTL time.Duration
	gen       *ingestion.Generator
	engine    Progression
	log       *slog.Logger
	now       func() time.Time
}

func New(repo Repository, c cache.BytesCache, lookupTTL time.Duration, gen *ingestion.Generator, engine Progression) *Service {
	if gen == nil {
		gen = ingestion.NewGenerator("GL")
	}
	return &Service{
		repo:      repo,
		cache:     c,
		lookupTTL: lookupTTL,
		gen:       gen,
		engine:    engine,
		log:       slog.Default().With("component", "packages"),
		now:       time.Now,
	}
}

// Lookup: публичный поиск по трек-номеру: посылка и её история по возрастанию времени.
// "Не найдено" возвращается как models.ErrNotFound, отдельно от ошибок хранилища.
func (s *Service) Lookup(ctx context.Context, trackingNumber string) (*models.TrackingView, error) {
	tn := strings.ToUpper(strings.TrimSpace(trackingNumber))
	if tn == "" {
		return nil, errors.Wrap(models.ErrValidation, "tracking number is required")
	}

	// Кэш "лучшее усилие": ошибки и битые значения просто означают промах.
	if s.cacheEnabled() {
		b, ok, err := s.cache.Get(ctx, cache.LookupKey(tn))
		if err == nil && ok {
			var v models.TrackingView
			if json.Unmarshal(b, &v) == nil && v.Package != nil {
				return &v, nil
			}
		}
	}

	p, err := s.repo.GetPackageByTrackingNumber(ctx, tn)
	if err != nil {
		return nil, err
	}
	hist, err := s.repo.ListStatusHistory(ctx, p.ID)
	if err != nil {
		return nil, err
	}
	v := &models.TrackingView{Package: p, History: hist}

	if s.cacheEnabled() {
		if b, err := json.Marshal(v); err == nil {
			_ = s.cache.Set(ctx, cache.LookupKey(tn), b, s.lookupTTL)
		}
	}
	return v, nil
}

func (s *Service) CreatePackage(ctx context.Context, req CreatePackageRequest) (*models.Package, error) {
	req.normalize()
	if err := req.Validate(); err != nil {
		return nil, validationErr(err)
	}

	now := s.now().UTC()
	in := models.PackageCreateInput{
		TrackingNumber:   req.TrackingNumber,
		RecipientName:    req.RecipientName,
		RecipientAddress: req.RecipientAddress,
		RecipientPhone:   models.StrPtr(strings.TrimSpace(req.RecipientPhone)),
		RecipientEmail:   models.StrPtr(req.RecipientEmail),
		SenderName:       models.StrPtr(strings.TrimSpace(req.SenderName)),
		SenderAddress:    models.StrPtr(strings.TrimSpace(req.SenderAddress)),
		SenderPhone:      models.StrPtr(strings.TrimSpace(req.SenderPhone)),
		Weight:           req.Weight,
		Dimensions:       models.StrPtr(strings.TrimSpace(req.Dimensions)),
		ServiceType:      req.ServiceType,
		CurrentStatus:    models.StatusRegistered,
		CreatedAt:        now,
	}
	initial := &models.StatusHistoryEntry{
		Status:    models.StatusRegistered,
		Notes:     models.StrPtr("Package registered"),
		CreatedAt: now,
	}

	generated := in.TrackingNumber == ""
	attempts := 1
	if generated {
		attempts = createAttempts
	}

	var p *models.Package
	var err error
	for i := 0; i < attempts; i++ {
		in.ID = uuid.NewString()
		if generated {
			in.TrackingNumber = s.gen.Next()
		}
		p, err = s.repo.CreatePackage(ctx, in, initial)
		if err == nil || !errors.Is(err, models.ErrConflict) {
			break
		}
	}
	if err != nil {
		return nil, err
	}
	s.log.Info("package created", "package_id", p.ID, "tracking_number", p.TrackingNumber)
	return p, nil
}

func (s *Service) GetPackage(ctx context.Context, id string) (*models.Package, error) {
	if strings.TrimSpace(id) == "" {
		return nil, errors.Wrap(models.ErrValidation, "package id is required")
	}
	return s.repo.GetPackageByID(ctx, id)
}

func (s *Service) ListPackages(ctx context.Context) ([]*models.Package, error) {
	return s.repo.ListPackages(ctx)
}

func (s *Service) DeletePackages(ctx context.Context, ids []string) (int64, error) {
	clean := make([]string, 0, len(ids))
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		clean = append(clean, id)
	}
	if len(clean) == 0 {
		return 0, errors.Wrap(models.ErrValidation, "ids is empty")
	}

	// трек-номера нужны до удаления, чтобы сбросить кэш
	var keys []string
	if s.cacheEnabled() {
		for _, id := range clean {
			if p, err := s.repo.GetPackageByID(ctx, id); err == nil {
				keys = append(keys, cache.LookupKey(p.TrackingNumber))
			}
		}
	}

	n, err := s.repo.DeletePackages(ctx, clean)
	if err != nil {
		return 0, err
	}
	s.invalidate(ctx, keys...)
	s.log.Info("packages deleted", "requested", len(clean), "deleted", n)
	return n, nil
}

// UpdateStatus: ручная смена статуса админом: пакет и запись истории в одной транзакции.
func (s *Service) UpdateStatus(ctx context.Context, id string, req UpdateStatusRequest) (*models.Package, error) {
	if err := req.Validate(); err != nil {
		return nil, validationErr(err)
	}
	status, err := models.ParseStatus(req.Status)
	if err != nil {
		return nil, err
	}

	notes := ManualNotes
	if n := strings.TrimSpace(req.Notes); n != "" {
		notes += ": " + n
	}

	p, err := s.repo.ApplyStatusChange(ctx, models.StatusChange{
		PackageID: id,
		To:        status,
		At:        s.now().UTC(),
		Location:  models.StrPtr(strings.TrimSpace(req.Location)),
		Notes:     &notes,
	})
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx, cache.LookupKey(p.TrackingNumber))
	return p, nil
}

// UpdateRecipientEmail sets the email; an empty value clears it.
func (s *Service) UpdateRecipientEmail(ctx context.Context, id, email string) (*models.Package, error) {
	email = strings.TrimSpace(email)
	if err := validateEmail(email); err != nil {
		return nil, err
	}
	p, err := s.repo.UpdateRecipientEmail(ctx, id, models.StrPtr(email), s.now().UTC())
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx, cache.LookupKey(p.TrackingNumber))
	return p, nil
}

func (s *Service) ListStatusConfigs(ctx context.Context) ([]*models.StatusConfig, error) {
	return s.repo.ListStatusConfigs(ctx)
}

func (s *Service) UpdateStatusConfig(ctx context.Context, rawStatus string, req UpdateStatusConfigRequest) (*models.StatusConfig, error) {
	status, err := models.ParseStatus(rawStatus)
	if err != nil {
		return nil, err
	}
	if err := req.Validate(); err != nil {
		return nil, validationErr(err)
	}
	if req.DisplayName != nil {
		dn := strings.TrimSpace(*req.DisplayName)
		req.DisplayName = &dn
	}
	return s.repo.UpdateStatusConfig(ctx, status, req.patch(), s.now().UTC())
}

func (s *Service) GetProfile(ctx context.Context, id string) (*models.Profile, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, errors.Wrap(models.ErrValidation, "profile id is required")
	}
	return s.repo.GetProfile(ctx, id)
}

// UpdateProfile сохраняет email профиля администратора, создавая профиль при первом вызове.
func (s *Service) UpdateProfile(ctx context.Context, id string, req UpdateProfileRequest) (*models.Profile, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, errors.Wrap(models.ErrValidation, "profile id is required")
	}
	req.Email = strings.TrimSpace(req.Email)
	if err := req.Validate(); err != nil {
		return nil, validationErr(err)
	}
	p, err := s.repo.UpsertProfileEmail(ctx, id, req.Email, s.now().UTC())
	if err != nil {
		return nil, err
	}
	s.log.Info("admin profile updated", "profile_id", id)
	return p, nil
}

// TriggerProgression запускает движок синхронно (кнопка в админке).
func (s *Service) TriggerProgression(ctx context.Context) (progression.RunResult, error) {
	if s.engine == nil {
		return progression.RunResult{}, errors.New("progression engine is not configured")
	}
	return s.engine.EvaluateAndAdvance(ctx)
}

func (s *Service) cacheEnabled() bool {
	return s.cache != nil && s.lookupTTL > 0
}

func (s *Service) invalidate(ctx context.Context, keys ...string) {
	if !s.cacheEnabled() || len(keys) == 0 {
		return
	}
	if err := s.cache.Del(ctx, keys...); err != nil {
		s.log.Warn("invalidate lookup cache", "keys", keys, "error", err.Error())
	}
}
