package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/BearBump/GLExpress/config"
	"github.com/BearBump/GLExpress/internal/api/httpapi"
	"github.com/BearBump/GLExpress/internal/broker/kafka"
	"github.com/BearBump/GLExpress/internal/cache"
	"github.com/BearBump/GLExpress/internal/cache/rediscache"
	"github.com/BearBump/GLExpress/internal/integrations/mailer"
	"github.com/BearBump/GLExpress/internal/integrations/mailer/fake"
	"github.com/BearBump/GLExpress/internal/integrations/mailer/resendmail"
	"github.com/BearBump/GLExpress/internal/services/ingestion"
	"github.com/BearBump/GLExpress/internal/services/notify"
	"github.com/BearBump/GLExpress/internal/services/packages"
	"github.com/BearBump/GLExpress/internal/services/progression"
	"github.com/BearBump/GLExpress/internal/storage"
)

const (
	defaultTopic         = "package.registered"
	defaultConsumerGroup = "glexpress-notifier"
)

type apiApp struct {
	ctx      context.Context
	cancel   context.CancelFunc
	opts     apiOpts
	handler  http.Handler
	consumer *kafka.Consumer
	notifier *notify.Notifier
	closers  []func()
}

// settings: конфиг с применёнными значениями по умолчанию.
type settings struct {
	grpcAddr      string
	httpAddr      string
	topic         string
	consumerGroup string
	lookupTTL     time.Duration
	events        bool
	rateLimit     int
}

func resolveSettings(cfg *config.Config) settings {
	st := settings{
		grpcAddr:      cfg.GLExpress.GRPCAddr,
		httpAddr:      cfg.GLExpress.HTTPAddr,
		topic:         cfg.Kafka.PackageRegisteredTopic,
		consumerGroup: cfg.Kafka.NotifierConsumerGroup,
		lookupTTL:     time.Duration(cfg.GLExpress.LookupTTLSeconds) * time.Second,
		events:        !cfg.Kafka.DisableRegistrationEvents && cfg.Kafka.Host != "",
		rateLimit:     cfg.GLExpress.WebhookRateLimitPerMinute,
	}
	if st.grpcAddr == "" {
		st.grpcAddr = ":50051"
	}
	if st.httpAddr == "" {
		st.httpAddr = ":8080"
	}
	if st.topic == "" {
		st.topic = defaultTopic
	}
	if st.consumerGroup == "" {
		st.consumerGroup = defaultConsumerGroup
	}
	if st.lookupTTL < 0 {
		st.lookupTTL = 0
	}
	if st.rateLimit == 0 {
		st.rateLimit = 60
	}
	return st
}

func newMailer(cfg config.EmailConfig, log *slog.Logger) (mailer.Mailer, error) {
	if cfg.ResendAPIKey == "" {
		log.Warn("email.resend_api_key is empty, emails are only logged")
		return fake.New(log), nil
	}
	return resendmail.New(cfg.ResendAPIKey, "")
}

func mustBootstrapAPI() *apiApp {
	cfgPath := os.Getenv("configPath")
	if cfgPath == "" {
		panic("configPath env var is required")
	}
	swaggerPath := os.Getenv("swaggerPath")

	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		panic(fmt.Sprintf("ошибка парсинга конфига, %v", err))
	}
	log := slog.Default()
	set := resolveSettings(cfg)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	app := &apiApp{ctx: ctx, cancel: cancel}

	st, err := storage.Open(ctx, cfg.Database, 60*time.Second, log)
	if err != nil {
		panic(err)
	}
	app.closers = append(app.closers, st.Close)

	var (
		lookupCache cache.BytesCache
		limiter     httpapi.RateLimiter
	)
	if cfg.Redis.Host != "" {
		rc := rediscache.New(cfg.Redis.Addr())
		rl := rediscache.NewRateLimiter(cfg.Redis.Addr())
		lookupCache, limiter = rc, rl
		app.closers = append(app.closers, func() { _ = rc.Close() }, func() { _ = rl.Close() })
	}

	var publisher ingestion.Publisher
	if set.events {
		producer := kafka.NewProducer(cfg.Kafka.Brokers())
		publisher = producer
		app.closers = append(app.closers, func() { _ = producer.Close() })
		app.consumer = kafka.NewConsumer(kafka.ConsumerConfig{
			Brokers: cfg.Kafka.Brokers(),
			Topic:   set.topic,
			GroupID: set.consumerGroup,
		})
	}

	engine := progression.NewEngine(st, lookupCache, progression.Options{
		Concurrency:           cfg.GLExpress.ProgressionConcurrency,
		AllowMultiStepCatchup: cfg.GLExpress.AllowMultiStepCatchup,
	}, log)
	svc := packages.New(st, lookupCache, set.lookupTTL, ingestion.NewGenerator(adminPrefix(cfg)), engine)

	adapter := ingestion.New(st, ingestion.NewGenerator(cfg.GLExpress.WebhookTrackingPrefix), publisher, ingestion.Config{
		Source:                  cfg.GLExpress.WebhookSource,
		Secret:                  cfg.GLExpress.WebhookSecret,
		RequireSignature:        cfg.GLExpress.WebhookRequireSignature,
		DedupeByExternalOrderID: cfg.GLExpress.DedupeByExternalOrderID,
		SenderName:              cfg.Store.SenderName,
		SenderAddress:           cfg.Store.SenderAddress,
		SenderPhone:             cfg.Store.SenderPhone,
		Topic:                   set.topic,
	}, log)

	m, err := newMailer(cfg.Email, log)
	if err != nil {
		panic(err)
	}
	app.notifier = notify.New(st, m, notify.Config{
		From:            cfg.Email.From,
		TrackingBaseURL: cfg.Email.TrackingBaseURL,
	}, log)

	proxies, err := httpapi.ParseTrustedProxies(cfg.GLExpress.TrustedProxies)
	if err != nil {
		panic(err)
	}

	app.handler = httpapi.NewRouter(httpapi.Options{
		Ingester:                  adapter,
		Notifier:                  app.notifier,
		Packages:                  svc,
		Limiter:                   limiter,
		WebhookRateLimitPerMinute: set.rateLimit,
		AdminToken:                cfg.GLExpress.AdminToken,
		AdminProfileID:            cfg.GLExpress.AdminProfileID,
		TrustedProxies:            proxies,
		SwaggerPath:               swaggerPath,
		Ready:                     st.Ping,
		Log:                       log,
	})
	app.opts = apiOpts{
		grpcAddr:      set.grpcAddr,
		httpAddr:      set.httpAddr,
		topic:         set.topic,
		consumerGroup: set.consumerGroup,
	}
	return app
}

func adminPrefix(cfg *config.Config) string {
	if cfg.GLExpress.AdminTrackingPrefix != "" {
		return cfg.GLExpress.AdminTrackingPrefix
	}
	return "GL"
}

func (a *apiApp) Close() {
	if a.cancel != nil {
		a.cancel()
	}
	if a.consumer != nil {
		_ = a.consumer.Close()
	}
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

func (a *apiApp) Run() error {
	var consumer kafkaConsumer
	if a.consumer != nil {
		consumer = a.consumer
	}
	return runAPI(a.ctx, a.opts, a.handler, consumer, a.notifier.HandleRegistered)
}
