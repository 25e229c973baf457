package httpapi

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/netip"
	"os"
	"strings"
	"time"

	"github.com/BearBump/GLExpress/internal/cache"
	"github.com/BearBump/GLExpress/internal/models"
	"github.com/BearBump/GLExpress/internal/services/ingestion"
	"github.com/BearBump/GLExpress/internal/services/notify"
	"github.com/BearBump/GLExpress/internal/services/packages"
	"github.com/BearBump/GLExpress/internal/services/progression"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	httpSwagger "github.com/swaggo/http-swagger"
)

const (
	WebhookPath     = "/functions/v1/woocommerce-webhook"
	SendEmailPath   = "/functions/v1/send-tracking-email"
	maxBodyBytes    = 1 << 20
	rateLimitWindow = time.Minute

	DefaultAdminProfileID = "admin"
)

var corsAllowedHeaders = []string{"authorization", "x-client-info", "apikey", "content-type", "x-admin-user-id"}

type Ingester interface {
	Ingest(ctx context.Context, body []byte, headers http.Header) (ingestion.Result, error)
}

type Notifier interface {
	SendTrackingEmail(ctx context.Context, req notify.SendTrackingEmailRequest) (notify.SendTrackingEmailResult, error)
}

type Packages interface {
	Lookup(ctx context.Context, trackingNumber string) (*models.TrackingView, error)
	CreatePackage(ctx context.Context, req packages.CreatePackageRequest) (*models.Package, error)
	GetPackage(ctx context.Context, id string) (*models.Package, error)
	ListPackages(ctx context.Context) ([]*models.Package, error)
	DeletePackages(ctx context.Context, ids []string) (int64, error)
	UpdateStatus(ctx context.Context, id string, req packages.UpdateStatusRequest) (*models.Package, error)
	UpdateRecipientEmail(ctx context.Context, id, email string) (*models.Package, error)
	ListStatusConfigs(ctx context.Context) ([]*models.StatusConfig, error)
	UpdateStatusConfig(ctx context.Context, status string, req packages.UpdateStatusConfigRequest) (*models.StatusConfig, error)
	TriggerProgression(ctx context.Context) (progression.RunResult, error)
	GetProfile(ctx context.Context, id string) (*models.Profile, error)
	UpdateProfile(ctx context.Context, id string, req packages.UpdateProfileRequest) (*models.Profile, error)
}

type RateLimiter interface {
	Allow(ctx context.Context, key string, limit int64, window time.Duration) (cache.RateDecision, error)
}

type Options struct {
	Ingester Ingester
	Notifier Notifier
	Packages Packages

	// Limiter == nil или WebhookRateLimitPerMinute <= 0 выключают лимит вебхука.
	Limiter                   RateLimiter
	WebhookRateLimitPerMinute int

	// Пустой AdminToken = админка без авторизации (локальная разработка).
	AdminToken string
	// Профиль администратора, если прокси не прислал X-Admin-User-ID.
	AdminProfileID string

	// Адреса/подсети прокси, которым верим в X-Forwarded-For. Пусто: только RemoteAddr.
	TrustedProxies []netip.Prefix

	SwaggerPath string
	Ready       func(ctx context.Context) error
	Log         *slog.Logger
}

type Server struct {
	opts Options
	log  *slog.Logger
}

func NewRouter(opts Options) http.Handler {
	if opts.Log == nil {
		opts.Log = slog.Default()
	}
	if opts.AdminProfileID == "" {
		opts.AdminProfileID = DefaultAdminProfileID
	}
	s := &Server{opts: opts, log: opts.Log.With("component", "httpapi")}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: corsAllowedHeaders,
		MaxAge:         300,
	}))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Get("/readyz", s.readyz)

	r.Options(WebhookPath, preflight)
	r.With(s.rateLimit).Post(WebhookPath, s.woocommerceWebhook)
	r.Options(SendEmailPath, preflight)
	r.Post(SendEmailPath, s.sendTrackingEmail)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/track/{trackingNumber}", s.track)

		r.Route("/admin", func(r chi.Router) {
			r.Use(s.adminAuth)

			r.Get("/packages", s.listPackages)
			r.Post("/packages", s.createPackage)
			r.Delete("/packages", s.deletePackages)
			r.Get("/packages/{id}", s.getPackage)
			r.Patch("/packages/{id}/status", s.updateStatus)
			r.Patch("/packages/{id}/recipient-email", s.updateRecipientEmail)

			r.Get("/status-configs", s.listStatusConfigs)
			r.Patch("/status-configs/{status}", s.updateStatusConfig)

			r.Post("/progression/trigger", s.triggerProgression)

			r.Get("/profile", s.getProfile)
			r.Patch("/profile", s.updateProfile)
		})
	})

	if opts.SwaggerPath != "" {
		r.Get("/swagger.json", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Cache-Control", "no-store")
			http.ServeFile(w, r, opts.SwaggerPath)
		})
		swaggerURL := "/swagger.json"
		if fi, err := os.Stat(opts.SwaggerPath); err == nil {
			swaggerURL = fmt.Sprintf("/swagger.json?v=%d", fi.ModTime().Unix())
		}
		r.Get("/docs/*", httpSwagger.Handler(httpSwagger.URL(swaggerURL)))
	}

	return r
}

func (s *Server) readyz(w http.ResponseWriter, r *http.Request) {
	if s.opts.Ready != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.opts.Ready(ctx); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "not ready", "error": err.Error()})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

// preflight отвечает на OPTIONS без тела; настоящий preflight перехватывает cors middleware.
func preflight(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Headers", strings.Join(corsAllowedHeaders, ", "))
	w.WriteHeader(http.StatusOK)
}
