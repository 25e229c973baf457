package ingestion

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/BearBump/GLExpress/internal/broker/messages"
	"github.com/BearBump/GLExpress/internal/models"
	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

const (
	DefaultSource   = "WooCommerce"
	DefaultLocation = "Warehouse"

	createAttempts = 3
)

type Store interface {
	CreatePackage(ctx context.Context, in models.PackageCreateInput, initial *models.StatusHistoryEntry) (*models.Package, error)
	AppendStatusHistory(ctx context.Context, e models.StatusHistoryEntry) (*models.StatusHistoryEntry, error)
	FindPackageByExternalOrderID(ctx context.Context, orderID string) (*models.Package, error)
}

type Publisher interface {
	Publish(ctx context.Context, topic string, key, value []byte) error
}

type Config struct {
	Source                  string
	Secret                  string
	RequireSignature        bool
	DedupeByExternalOrderID bool

	SenderName    string
	SenderAddress string
	SenderPhone   string

	Topic          string
	PublishTimeout time.Duration
}

type Result struct {
	Ignored        bool
	Deduped        bool
	TrackingNumber string
	PackageID      string
	Package        *models.Package
	// HistoryError: посылка создана, но первая запись истории не записалась.
	HistoryError error
}

type Adapter struct {
	store    Store
	gen      *Generator
	pub      Publisher
	verifier SignatureVerifier
	cfg      Config
	log      *slog.Logger
	now      func() time.Time
}

func New(store Store, gen *Generator, pub Publisher, cfg Config, log *slog.Logger) *Adapter {
	if cfg.Source == "" {
		cfg.Source = DefaultSource
	}
	if cfg.PublishTimeout <= 0 {
		cfg.PublishTimeout = 3 * time.Second
	}
	if gen == nil {
		gen = NewGenerator("WC")
	}
	if log == nil {
		log = slog.Default()
	}
	return &Adapter{
		store:    store,
		gen:      gen,
		pub:      pub,
		verifier: SignatureVerifier{Secret: cfg.Secret, Require: cfg.RequireSignature},
		cfg:      cfg,
		log:      log.With("component", "ingestion"),
		now:      time.Now,
	}
}

// Ingest превращает один вебхук заказа в посылку и её первую запись истории.
func (a *Adapter) Ingest(ctx context.Context, body []byte, headers http.Header) (Result, error) {
	if err := a.verifier.Verify(body, headers); err != nil {
		a.log.Warn("webhook rejected", "error", err.Error())
		return Result{}, err
	}

	if len(bytes.TrimSpace(body)) == 0 {
		a.log.Info("empty webhook body, treating as test ping")
		return Result{Ignored: true}, nil
	}

	var order Order
	if err := json.Unmarshal(body, &order); err != nil {
		return Result{}, errors.Wrapf(models.ErrValidation, "invalid JSON in request body: %v", err)
	}
	orderID := order.OrderID()
	if orderID == "" {
		a.log.Info("webhook payload without order id, ignoring")
		return Result{Ignored: true}, nil
	}

	if a.cfg.DedupeByExternalOrderID {
		existing, err := a.store.FindPackageByExternalOrderID(ctx, orderID)
		switch {
		case err == nil:
			a.log.Info("order already ingested", "order_id", orderID, "tracking_number", existing.TrackingNumber)
			return Result{
				Deduped:        true,
				TrackingNumber: existing.TrackingNumber,
				PackageID:      existing.ID,
				Package:        existing,
			}, nil
		case !errors.Is(err, models.ErrNotFound):
			return Result{}, errors.Wrap(err, "find package by order id")
		}
	}

	now := a.now().UTC()
	in := models.PackageCreateInput{
		RecipientName:    order.RecipientName(),
		RecipientAddress: RecipientAddress(&order),
		RecipientPhone:   models.StrPtr(order.Billing.Phone),
		RecipientEmail:   models.StrPtr(order.Billing.Email),
		SenderName:       models.StrPtr(a.cfg.SenderName),
		SenderAddress:    models.StrPtr(a.cfg.SenderAddress),
		SenderPhone:      models.StrPtr(a.cfg.SenderPhone),
		ServiceType:      models.ServiceStandard,
		ExternalOrderID:  &orderID,
		CurrentStatus:    models.StatusRegistered,
		CreatedAt:        now,
	}

	var p *models.Package
	var err error
	for attempt := 1; attempt <= createAttempts; attempt++ {
		in.ID = uuid.NewString()
		in.TrackingNumber = a.gen.Next()
		p, err = a.store.CreatePackage(ctx, in, nil)
		if err == nil || !errors.Is(err, models.ErrConflict) {
			break
		}
		a.log.Warn("tracking number collision, regenerating", "tracking_number", in.TrackingNumber, "attempt", attempt)
	}
	if err != nil {
		return Result{}, errors.Wrap(err, "create package")
	}

	res := Result{TrackingNumber: p.TrackingNumber, PackageID: p.ID, Package: p}

	// Ошибка истории не откатывает посылку: пакет уже создан, отвечаем успехом.
	_, herr := a.store.AppendStatusHistory(ctx, models.StatusHistoryEntry{
		PackageID: p.ID,
		Status:    models.StatusRegistered,
		Location:  models.StrPtr(DefaultLocation),
		Notes:     models.StrPtr(fmt.Sprintf("Order #%s received from %s", orderID, a.cfg.Source)),
		CreatedAt: now,
	})
	if herr != nil {
		a.log.Error("create initial status history", "package_id", p.ID, "error", herr.Error())
		res.HistoryError = herr
	}

	a.publishRegistered(ctx, p, orderID)

	a.log.Info("package registered from order", "order_id", orderID, "tracking_number", p.TrackingNumber, "package_id", p.ID)
	return res, nil
}

func (a *Adapter) publishRegistered(ctx context.Context, p *models.Package, orderID string) {
	if a.pub == nil || a.cfg.Topic == "" {
		return
	}
	msg := messages.PackageRegistered{
		PackageID:       p.ID,
		TrackingNumber:  p.TrackingNumber,
		RecipientName:   p.RecipientName,
		RecipientEmail:  models.DerefString(p.RecipientEmail),
		ExternalOrderID: orderID,
		Source:          a.cfg.Source,
		RegisteredAt:    p.CreatedAt,
	}
	b, err := msg.Encode()
	if err != nil {
		a.log.Error("encode package.registered", "error", err.Error())
		return
	}

	// Kafka может быть ещё не готова: короткий экспоненциальный retry, дальше только лог.
	pctx, cancel := context.WithTimeout(ctx, a.cfg.PublishTimeout)
	defer cancel()

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 100 * time.Millisecond
	bo.MaxElapsedTime = a.cfg.PublishTimeout

	err = backoff.Retry(func() error {
		return a.pub.Publish(pctx, a.cfg.Topic, msg.Key(), b)
	}, backoff.WithContext(bo, pctx))
	if err != nil {
		a.log.Error("publish package.registered", "tracking_number", p.TrackingNumber, "error", err.Error())
	}
}
