package storage

import (
	"context"
	"log/slog"
	"time"

	"github.com/BearBump/GLExpress/config"
	"github.com/BearBump/GLExpress/internal/models"
	"github.com/BearBump/GLExpress/internal/storage/memstore"
	"github.com/BearBump/GLExpress/internal/storage/pgpackages"
	"github.com/cenkalti/backoff/v4"
	"github.com/pkg/errors"
)

const (
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// Store: всё, что процессам нужно от хранилища посылок. Реализуют pgpackages и memstore.
type Store interface {
	CreatePackage(ctx context.Context, in models.PackageCreateInput, initial *models.StatusHistoryEntry) (*models.Package, error)
	GetPackageByID(ctx context.Context, id string) (*models.Package, error)
	GetPackageByTrackingNumber(ctx context.Context, trackingNumber string) (*models.Package, error)
	FindPackageByExternalOrderID(ctx context.Context, orderID string) (*models.Package, error)
	ListPackages(ctx context.Context) ([]*models.Package, error)
	DeletePackages(ctx context.Context, ids []string) (int64, error)
	UpdateRecipientEmail(ctx context.Context, id string, email *string, at time.Time) (*models.Package, error)

	ApplyStatusChange(ctx context.Context, ch models.StatusChange) (*models.Package, error)
	AppendStatusHistory(ctx context.Context, e models.StatusHistoryEntry) (*models.StatusHistoryEntry, error)
	ListStatusHistory(ctx context.Context, packageID string) ([]*models.StatusHistoryEntry, error)

	ListStatusConfigs(ctx context.Context) ([]*models.StatusConfig, error)
	UpdateStatusConfig(ctx context.Context, status models.PackageStatus, patch models.StatusConfigPatch, at time.Time) (*models.StatusConfig, error)
	SeedStatusConfigs(ctx context.Context, cfgs []models.StatusConfig) (int, error)
	ListProgressionCandidates(ctx context.Context) ([]*models.ProgressionCandidate, error)

	GetProfile(ctx context.Context, id string) (*models.Profile, error)
	UpsertProfileEmail(ctx context.Context, id string, email string, at time.Time) (*models.Profile, error)

	Ping(ctx context.Context) error
	Close()
}

var (
	_ Store = (*pgpackages.Storage)(nil)
	_ Store = (*memstore.Store)(nil)
)

// Open выбирает хранилище по cfg.Driver. Postgres при старте в docker-compose
// поднимается не сразу, поэтому подключение повторяется до wait.
func Open(ctx context.Context, cfg config.DatabaseConfig, wait time.Duration, log *slog.Logger) (Store, error) {
	if log == nil {
		log = slog.Default()
	}
	switch cfg.Driver {
	case DriverMemory:
		log.Warn("using in-memory store, data is lost on restart")
		return memstore.New(), nil
	case "", DriverPostgres:
	default:
		return nil, errors.Errorf("unknown database driver %q", cfg.Driver)
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 500 * time.Millisecond
	bo.MaxInterval = 5 * time.Second
	bo.MaxElapsedTime = wait

	var st *pgpackages.Storage
	err := backoff.RetryNotify(func() error {
		var err error
		st, err = pgpackages.New(cfg.PostgresConnString())
		return err
	}, backoff.WithContext(bo, ctx), func(err error, next time.Duration) {
		log.Warn("postgres is not ready", "error", err.Error(), "retry_in", next.String())
	})
	if err != nil {
		return nil, errors.Wrapf(err, "postgres is not ready after %s", wait)
	}
	return st, nil
}
