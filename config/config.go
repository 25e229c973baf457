package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"go.yaml.in/yaml/v4"
)

type Config struct {
	Database  DatabaseConfig  `yaml:"database"`
	Kafka     KafkaConfig     `yaml:"kafka"`
	Redis     RedisConfig     `yaml:"redis"`
	GLExpress GLExpressConfig `yaml:"glexpress"`
	Store     StoreConfig     `yaml:"store"`
	Email     EmailConfig     `yaml:"email"`
}

type DatabaseConfig struct {
	// Driver is "postgres" (default) or "memory" for local demos.
	Driver   string `yaml:"driver"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	DBName   string `yaml:"name"`
	SSLMode  string `yaml:"ssl_mode"`
}

type KafkaConfig struct {
	Host                      string `yaml:"host"`
	Port                      int    `yaml:"port"`
	PackageRegisteredTopic    string `yaml:"package_registered_topic"`
	NotifierConsumerGroup     string `yaml:"notifier_consumer_group"`
	DisableRegistrationEvents bool   `yaml:"disable_registration_events"`
}

type RedisConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

type GLExpressConfig struct {
	GRPCAddr         string `yaml:"grpc_addr"`
	HTTPAddr         string `yaml:"http_addr"`
	AdminToken       string `yaml:"admin_token"`
	LookupTTLSeconds int    `yaml:"lookup_ttl_seconds"`

	// AdminProfileID используется, когда прокси идентификации не прислал X-Admin-User-ID.
	AdminProfileID string `yaml:"admin_profile_id"`
	// TrustedProxies: IP или CIDR прокси, чей X-Forwarded-For учитывается лимитером вебхука.
	TrustedProxies []string `yaml:"trusted_proxies"`

	WebhookSecret             string `yaml:"webhook_secret"`
	WebhookRequireSignature   bool   `yaml:"webhook_require_signature"`
	WebhookRateLimitPerMinute int    `yaml:"webhook_rate_limit_per_minute"`
	WebhookSource             string `yaml:"webhook_source"`
	WebhookTrackingPrefix     string `yaml:"webhook_tracking_prefix"`
	DedupeByExternalOrderID   bool   `yaml:"dedupe_by_external_order_id"`

	AdminTrackingPrefix string `yaml:"admin_tracking_prefix"`

	// Progression engine settings, shared by the API (manual trigger) and the worker.
	ProgressionSchedule    string `yaml:"progression_schedule"`
	ProgressionConcurrency int    `yaml:"progression_concurrency"`
	AllowMultiStepCatchup  bool   `yaml:"allow_multi_step_catchup"`

	WorkerHTTPAddr string `yaml:"worker_http_addr"`
}

// StoreConfig holds the sender placeholders written on ingested packages.
type StoreConfig struct {
	SenderName    string `yaml:"sender_name"`
	SenderAddress string `yaml:"sender_address"`
	SenderPhone   string `yaml:"sender_phone"`
}

type EmailConfig struct {
	ResendAPIKey    string `yaml:"resend_api_key"`
	From            string `yaml:"from"`
	TrackingBaseURL string `yaml:"tracking_base_url"`
}

// LoadConfig reads a YAML config file. ${VAR} references are expanded from the
// environment; a .env file next to the process is loaded first when present.
func LoadConfig(filename string) (*Config, error) {
	_ = godotenv.Load()

	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	err = yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), &config)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal YAML: %w", err)
	}

	return &config, nil
}

// PostgresConnString builds the pgx connection string, defaulting sslmode to disable.
func (c DatabaseConfig) PostgresConnString() string {
	sslMode := c.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Username, c.Password, c.Host, c.Port, c.DBName, sslMode)
}

func (c KafkaConfig) Brokers() []string {
	return []string{fmt.Sprintf("%s:%d", c.Host, c.Port)}
}

func (c RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
