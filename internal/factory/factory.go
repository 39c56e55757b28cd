package factory

import (
	"context"
	"fmt"
	"sync"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/kms"

	"security-service/internal/bucketing"
	"security-service/internal/client"
	"security-service/internal/config"
	"security-service/internal/encryption"
	"security-service/internal/hashing"
	"security-service/internal/marketdata"
	"security-service/internal/monitor"
	"security-service/internal/repository/clickhouse"
	"security-service/internal/repository/elastic"
	kafkarepo "security-service/internal/repository/kafka"
	redisrepo "security-service/internal/repository/redis"
	"security-service/internal/repository/scylla"
	"security-service/internal/security"
	"security-service/internal/tls"
	"security-service/internal/util"
)

// Factory manages the lifecycle of all application dependencies
type Factory struct {
	config     *config.Config
	tlsManager *tls.Manager

	// Clients
	redisClient      *client.RedisClient
	scyllaClient     *scylla.ScyllaClient
	kafkaProducer    *client.KafkaProducer
	esClient         *client.ESClient
	clickhouseClient *client.ClickHouseClient

	// Managers
	hasher            *hashing.Hasher
	encryptionManager *encryption.Manager
	bucketingManager  *bucketing.Manager

	// Repositories
	eventRepository        *clickhouse.SecurityEventRepository
	notificationRepository *scylla.NotificationRepository
	applicationRepository  *scylla.PartnerApplicationRepository
	accountRepository      *scylla.AccountRepository
	adminRepository        *scylla.AdminRepository
	monitorLease           *redisrepo.MonitorLease
	swapRateCache          *redisrepo.SwapRateCache

	// Services
	sink            *security.Sink
	validator       *security.Validator
	auditor         *security.Auditor
	monitor         *monitor.Monitor
	swapRateService *marketdata.SwapRateService

	closeOnce sync.Once
	closed    chan struct{}
}

// NewFactory creates and initializes all application dependencies
func NewFactory() (*Factory, error) {
	cfg := config.LoadConfig()

	util.Init(cfg.Environment, cfg.Logging.Level, cfg.Logging.Format)

	factory := &Factory{
		config: cfg,
		closed: make(chan struct{}),
	}

	if cfg.Server.EnableTLS {
		factory.tlsManager = tls.NewManager(tls.Config{
			EnableTLS:   cfg.Server.EnableTLS,
			AutoCert:    cfg.Server.AutoCert,
			Domain:      cfg.Server.Domain,
			CertFile:    cfg.Server.CertFile,
			KeyFile:     cfg.Server.KeyFile,
			AutoCertDir: cfg.Server.AutoCertDir,
			Email:       cfg.Server.Email,
		})
	}

	if err := factory.initializeClients(); err != nil {
		return nil, fmt.Errorf("failed to initialize clients: %w", err)
	}

	factory.initializeManagers()
	factory.initializeServices()

	util.Info("Factory initialized successfully",
		util.String("environment", cfg.Environment),
		util.Bool("tls_enabled", cfg.Server.EnableTLS),
		util.Bool("kms_enabled", cfg.KMS.Enabled),
	)

	return factory, nil
}

// initializeClients initializes all external service clients with health checks
func (f *Factory) initializeClients() error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	var initErrors []error

	// Redis
	if rdb, err := client.NewRedisClient(f.config, util.Get()); err != nil {
		initErrors = append(initErrors, fmt.Errorf("redis: %w", err))
	} else {
		f.redisClient = rdb
		if err := f.redisClient.HealthCheck(ctx); err != nil {
			initErrors = append(initErrors, fmt.Errorf("redis health check: %w", err))
		} else {
			util.Info("Redis client initialized and healthy")
		}
	}

	// ScyllaDB
	if sc, err := scylla.NewScyllaClient(f.config, util.Get()); err != nil {
		initErrors = append(initErrors, fmt.Errorf("scylla: %w", err))
	} else {
		f.scyllaClient = sc
		if err := f.scyllaClient.HealthCheck(); err != nil {
			initErrors = append(initErrors, fmt.Errorf("scylla health check: %w", err))
		} else {
			util.Info("ScyllaDB client initialized and healthy")
		}
	}

	// Kafka is optional; the sink degrades to store-only
	if producer, err := client.NewKafkaProducer(f.config, util.Get()); err != nil {
		util.Warn("Kafka producer initialization failed - proceeding without Kafka", util.ErrorField(err))
	} else {
		f.kafkaProducer = producer
		util.Info("Kafka producer initialized")
	}

	// Elasticsearch
	if es, err := client.NewElasticsearchClient(f.config, util.Get()); err != nil {
		initErrors = append(initErrors, fmt.Errorf("elasticsearch: %w", err))
	} else {
		f.esClient = es
		if err := f.esClient.HealthCheck(); err != nil {
			initErrors = append(initErrors, fmt.Errorf("elasticsearch health check: %w", err))
		} else {
			util.Info("Elasticsearch client initialized and healthy")
		}
	}

	// ClickHouse
	if ch, err := client.NewClickHouseClient(f.config, util.Get()); err != nil {
		initErrors = append(initErrors, fmt.Errorf("clickhouse: %w", err))
	} else {
		f.clickhouseClient = ch
		if err := f.clickhouseClient.HealthCheck(ctx); err != nil {
			initErrors = append(initErrors, fmt.Errorf("clickhouse health check: %w", err))
		} else {
			util.Info("ClickHouse client initialized and healthy")
		}
	}

	if len(initErrors) > 0 {
		if f.config.IsProduction() {
			return fmt.Errorf("critical service initialization failed: %v", initErrors)
		}
		for _, err := range initErrors {
			util.Warn("Service initialization warning", util.ErrorField(err))
		}
	}

	return nil
}

// initializeManagers initializes hashing, encryption, and bucketing managers
func (f *Factory) initializeManagers() {
	f.hasher = hashing.NewHasher(hashing.DefaultParams())

	var kmsClient *kms.Client
	if f.config.KMS.Enabled {
		awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(),
			awsconfig.WithRegion(f.config.KMS.Region))
		if err != nil {
			util.Warn("Failed to load AWS configuration - falling back to local key wrapping", util.ErrorField(err))
		} else {
			kmsClient = kms.NewFromConfig(awsCfg)
		}
	}

	f.encryptionManager = encryption.NewManager(f.config.KMS, kmsClient)
	f.bucketingManager = bucketing.NewManager(16)

	util.Info("Managers initialized successfully",
		util.Bool("hashing_initialized", f.hasher != nil),
		util.Bool("encryption_initialized", f.encryptionManager != nil),
		util.Bool("bucketing_initialized", f.bucketingManager != nil),
	)
}

// initializeServices wires repositories into the domain services.
func (f *Factory) initializeServices() {
	logger := util.Get()
	cfg := f.config

	f.eventRepository = clickhouse.NewSecurityEventRepository(f.clickhouseClient, f.bucketingManager, logger)
	f.notificationRepository = scylla.NewNotificationRepository(f.scyllaClient, logger)
	f.applicationRepository = scylla.NewPartnerApplicationRepository(f.scyllaClient, logger)
	f.accountRepository = scylla.NewAccountRepository(f.scyllaClient, logger)
	f.adminRepository = scylla.NewAdminRepository(f.scyllaClient, logger)
	if f.redisClient != nil {
		f.monitorLease = redisrepo.NewMonitorLease(f.redisClient, cfg.Monitor.LeaseTTL, logger)
		f.swapRateCache = redisrepo.NewSwapRateCache(f.redisClient, cfg.Market.SwapRateTTL, logger)
	}

	var publisher security.EventPublisher
	if f.kafkaProducer != nil {
		publisher = kafkarepo.NewEventPublisher(f.kafkaProducer, logger)
	}
	var indexer security.EventIndexer
	if f.esClient != nil {
		indexer = elastic.NewEventIndexer(f.esClient, logger)
	}
	f.sink = security.NewSink(f.eventRepository, publisher, indexer, f.bucketingManager, logger)

	f.validator = security.NewValidator(cfg.Security.MaxInputLength, f.sink, logger)
	f.auditor = security.NewAuditor(
		f.accountRepository,
		f.sink,
		f.encryptionManager,
		f.hasher,
		cfg.Security.SuspiciousAccessLimit,
		cfg.Security.SuspiciousAccessWindow,
		cfg.Security.AccessLogCapacity,
		logger,
	)

	var lease monitor.WindowLease
	if f.monitorLease != nil {
		lease = f.monitorLease
	}
	f.monitor = monitor.New(
		f.eventRepository,
		f.notificationRepository,
		f.adminRepository,
		lease,
		monitor.Config{
			Window:            cfg.Monitor.Window,
			RepeatIPThreshold: cfg.Monitor.RepeatIPThreshold,
			MaxFallbackEvents: cfg.Monitor.MaxFallbackEvents,
		},
		logger,
	)

	var rateCache marketdata.RateCache
	if f.swapRateCache != nil {
		rateCache = f.swapRateCache
	}
	f.swapRateService = marketdata.NewSwapRateService(nil, rateCache, cfg.Market.SwapRateTTL, logger)
}

// HealthCheck reports per-dependency health.
func (f *Factory) HealthCheck(ctx context.Context) map[string]error {
	healthErrors := make(map[string]error)

	if f.redisClient != nil {
		if err := f.redisClient.HealthCheck(ctx); err != nil {
			healthErrors["redis"] = err
		}
	} else {
		healthErrors["redis"] = fmt.Errorf("redis client not initialized")
	}

	if f.scyllaClient != nil {
		if err := f.scyllaClient.HealthCheck(); err != nil {
			healthErrors["scylla"] = err
		}
	} else {
		healthErrors["scylla"] = fmt.Errorf("scylla client not initialized")
	}

	if f.esClient != nil {
		if err := f.esClient.HealthCheck(); err != nil {
			healthErrors["elasticsearch"] = err
		}
	} else {
		healthErrors["elasticsearch"] = fmt.Errorf("elasticsearch client not initialized")
	}

	if f.clickhouseClient != nil {
		if err := f.clickhouseClient.HealthCheck(ctx); err != nil {
			healthErrors["clickhouse"] = err
		}
	} else {
		healthErrors["clickhouse"] = fmt.Errorf("clickhouse client not initialized")
	}

	if f.kafkaProducer != nil {
		if err := f.kafkaProducer.HealthCheck(ctx); err != nil {
			healthErrors["kafka"] = err
		}
	}

	return healthErrors
}

// IsHealthy ignores Kafka, which is optional.
func (f *Factory) IsHealthy(ctx context.Context) bool {
	healthErrors := f.HealthCheck(ctx)
	delete(healthErrors, "kafka")
	return len(healthErrors) == 0
}

func (f *Factory) Close() error {
	f.closeOnce.Do(func() {
		close(f.closed)
		util.Info("Shutting down factory...")

		// Sink first so queued events drain into ClickHouse
		if f.sink != nil {
			f.sink.Close()
			util.Info("Security event sink drained and closed")
		}

		if f.clickhouseClient != nil {
			if err := f.clickhouseClient.Close(); err != nil {
				util.Error("Failed to close ClickHouse client", util.ErrorField(err))
			} else {
				util.Info("ClickHouse client closed")
			}
		}

		if f.esClient != nil {
			f.esClient.Close()
			util.Info("Elasticsearch client closed")
		}

		if f.kafkaProducer != nil {
			if err := f.kafkaProducer.Close(); err != nil {
				util.Error("Failed to close Kafka producer", util.ErrorField(err))
			} else {
				util.Info("Kafka producer closed")
			}
		}

		if f.scyllaClient != nil {
			f.scyllaClient.Close()
			util.Info("ScyllaDB client closed")
		}

		if f.redisClient != nil {
			if err := f.redisClient.Close(); err != nil {
				util.Error("Failed to close Redis client", util.ErrorField(err))
			} else {
				util.Info("Redis client closed")
			}
		}

		if f.encryptionManager != nil {
			f.encryptionManager.ClearCache()
			util.Info("Encryption manager cache cleared")
		}

		util.Sync()
		util.Info("Factory shutdown completed")
	})

	return nil
}

func (f *Factory) WaitForClose() {
	<-f.closed
}

func (f *Factory) Config() *config.Config {
	return f.config
}

func (f *Factory) TLSManager() *tls.Manager {
	return f.tlsManager
}

func (f *Factory) Monitor() *monitor.Monitor {
	return f.monitor
}

func (f *Factory) Validator() *security.Validator {
	return f.validator
}

func (f *Factory) Auditor() *security.Auditor {
	return f.auditor
}

func (f *Factory) Sink() *security.Sink {
	return f.sink
}

func (f *Factory) ApplicationRepository() *scylla.PartnerApplicationRepository {
	return f.applicationRepository
}

func (f *Factory) SwapRateService() *marketdata.SwapRateService {
	return f.swapRateService
}
