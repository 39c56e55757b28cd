package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"

	"security-service/internal/util"
)

// Config holds every runtime setting for the service. Values come from
// the process environment with an optional .env file for development.
type Config struct {
	Environment string

	Server        ServerConfig
	Logging       LoggingConfig
	Redis         RedisConfig
	Scylla        ScyllaConfig
	Clickhouse    ClickhouseConfig
	Kafka         KafkaConfig
	Elasticsearch ElasticsearchConfig
	KMS           KMSConfig
	Monitor       MonitorConfig
	Security      SecurityConfig
	Market        MarketConfig
}

type ServerConfig struct {
	Port         int
	TLSPort      int
	EnableTLS    bool
	AutoCert     bool
	Domain       string
	CertFile     string
	KeyFile      string
	AutoCertDir  string
	Email        string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

type LoggingConfig struct {
	Level  string
	Format string
}

type RedisConfig struct {
	URL      string
	Password string
	DB       int
	PoolSize int
}

type ScyllaConfig struct {
	Nodes    []string
	Keyspace string
	Username string
	Password string
}

type ClickhouseConfig struct {
	URL      string
	Database string
	Username string
	Password string
}

type KafkaConfig struct {
	Brokers     []string
	EventsTopic string
}

type ElasticsearchConfig struct {
	URL         string
	Username    string
	Password    string
	EventsIndex string
}

type KMSConfig struct {
	Enabled bool
	KeyID   string
	Region  string
}

// MonitorConfig tunes the security event sweep.
type MonitorConfig struct {
	Interval time.Duration
	Window   time.Duration
	// RepeatIPThreshold is how many events from one address inside a
	// single window escalate a pattern to high severity.
	RepeatIPThreshold int
	// MaxFallbackEvents caps per-event notifications when no pattern
	// crossed a threshold.
	MaxFallbackEvents int
	LeaseTTL          time.Duration
}

type SecurityConfig struct {
	MaxInputLength int
	// SuspiciousAccessLimit is the number of credential accesses per
	// user inside SuspiciousAccessWindow that is still considered fine.
	SuspiciousAccessLimit  int
	SuspiciousAccessWindow time.Duration
	AccessLogCapacity      int
}

type MarketConfig struct {
	SwapRateTTL time.Duration
}

// LoadConfig reads the environment into a Config. A missing .env file is
// not an error; explicit environment variables always win.
func LoadConfig() *Config {
	_ = godotenv.Load()

	return &Config{
		Environment: util.GetEnv("APP_ENV", "development"),
		Server: ServerConfig{
			Port:         util.GetEnvInt("SERVER_PORT", 8080),
			TLSPort:      util.GetEnvInt("SERVER_TLS_PORT", 8443),
			EnableTLS:    util.GetEnvBool("SERVER_ENABLE_TLS", false),
			AutoCert:     util.GetEnvBool("SERVER_AUTO_CERT", false),
			Domain:       util.GetEnv("SERVER_DOMAIN", ""),
			CertFile:     util.GetEnv("SERVER_CERT_FILE", ""),
			KeyFile:      util.GetEnv("SERVER_KEY_FILE", ""),
			AutoCertDir:  util.GetEnv("SERVER_AUTOCERT_DIR", "/var/lib/security-service/autocert"),
			Email:        util.GetEnv("SERVER_ACME_EMAIL", ""),
			ReadTimeout:  util.GetEnvDuration("SERVER_READ_TIMEOUT", 15*time.Second),
			WriteTimeout: util.GetEnvDuration("SERVER_WRITE_TIMEOUT", 30*time.Second),
			IdleTimeout:  util.GetEnvDuration("SERVER_IDLE_TIMEOUT", 60*time.Second),
		},
		Logging: LoggingConfig{
			Level:  util.GetEnv("LOG_LEVEL", "info"),
			Format: util.GetEnv("LOG_FORMAT", "console"),
		},
		Redis: RedisConfig{
			URL:      util.GetEnv("REDIS_URL", "redis://localhost:6379"),
			Password: util.GetEnv("REDIS_PASSWORD", ""),
			DB:       util.GetEnvInt("REDIS_DB", 0),
			PoolSize: util.GetEnvInt("REDIS_POOL_SIZE", 50),
		},
		Scylla: ScyllaConfig{
			Nodes:    util.GetEnvList("SCYLLA_NODES", []string{"127.0.0.1"}),
			Keyspace: util.GetEnv("SCYLLA_KEYSPACE", "tnm_security"),
			Username: util.GetEnv("SCYLLA_USERNAME", ""),
			Password: util.GetEnv("SCYLLA_PASSWORD", ""),
		},
		Clickhouse: ClickhouseConfig{
			URL:      util.GetEnv("CLICKHOUSE_URL", "http://localhost:8123"),
			Database: util.GetEnv("CLICKHOUSE_DATABASE", "tnm_security"),
			Username: util.GetEnv("CLICKHOUSE_USERNAME", "default"),
			Password: util.GetEnv("CLICKHOUSE_PASSWORD", ""),
		},
		Kafka: KafkaConfig{
			Brokers:     util.GetEnvList("KAFKA_BROKERS", []string{"localhost:9092"}),
			EventsTopic: util.GetEnv("KAFKA_EVENTS_TOPIC", "security-events"),
		},
		Elasticsearch: ElasticsearchConfig{
			URL:         util.GetEnv("ELASTICSEARCH_URL", "http://localhost:9200"),
			Username:    util.GetEnv("ELASTICSEARCH_USERNAME", ""),
			Password:    util.GetEnv("ELASTICSEARCH_PASSWORD", ""),
			EventsIndex: util.GetEnv("ELASTICSEARCH_EVENTS_INDEX", "security-events"),
		},
		KMS: KMSConfig{
			Enabled: util.GetEnvBool("KMS_ENABLED", false),
			KeyID:   util.GetEnv("KMS_KEY_ID", ""),
			Region:  util.GetEnv("AWS_REGION", "eu-central-1"),
		},
		Monitor: MonitorConfig{
			Interval:          util.GetEnvDuration("MONITOR_INTERVAL", 5*time.Minute),
			Window:            util.GetEnvDuration("MONITOR_WINDOW", 10*time.Minute),
			RepeatIPThreshold: util.GetEnvInt("MONITOR_REPEAT_IP_THRESHOLD", 2),
			MaxFallbackEvents: util.GetEnvInt("MONITOR_MAX_FALLBACK_EVENTS", 5),
			LeaseTTL:          util.GetEnvDuration("MONITOR_LEASE_TTL", 9*time.Minute),
		},
		Security: SecurityConfig{
			MaxInputLength:         util.GetEnvInt("SECURITY_MAX_INPUT_LENGTH", 5000),
			SuspiciousAccessLimit:  util.GetEnvInt("SECURITY_SUSPICIOUS_ACCESS_LIMIT", 10),
			SuspiciousAccessWindow: util.GetEnvDuration("SECURITY_SUSPICIOUS_ACCESS_WINDOW", 5*time.Minute),
			AccessLogCapacity:      util.GetEnvInt("SECURITY_ACCESS_LOG_CAPACITY", 1000),
		},
		Market: MarketConfig{
			SwapRateTTL: util.GetEnvDuration("MARKET_SWAP_RATE_TTL", 12*time.Hour),
		},
	}
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func (c *Config) IsDevelopment() bool {
	return !c.IsProduction()
}

// GetServerAddress returns the plain HTTP listen address.
func (c *Config) GetServerAddress() string {
	return fmt.Sprintf(":%d", c.Server.Port)
}
