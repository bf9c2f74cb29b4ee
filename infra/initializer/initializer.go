package initializer

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/amirasaad/voicepay/infra"
	infra_cache "github.com/amirasaad/voicepay/infra/cache"
	infra_eventbus "github.com/amirasaad/voicepay/infra/eventbus"
	infra_lock "github.com/amirasaad/voicepay/infra/lock"
	infra_metrics "github.com/amirasaad/voicepay/infra/metrics"
	infra_nlu "github.com/amirasaad/voicepay/infra/nlu"
	infra_notify "github.com/amirasaad/voicepay/infra/notify"
	infra_repository "github.com/amirasaad/voicepay/infra/repository"
	"github.com/amirasaad/voicepay/pkg/app"
	"github.com/amirasaad/voicepay/pkg/config"
	"github.com/amirasaad/voicepay/pkg/eventbus"
	"github.com/amirasaad/voicepay/pkg/lock"
	"github.com/amirasaad/voicepay/pkg/notify"
	"github.com/amirasaad/voicepay/pkg/repository"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

const asyncBusBuffer = 1024

// InitializeDependencies initializes all the application dependencies.
// Callers own deps and must call deps.Close.
func InitializeDependencies(cfg *config.App) (
	deps *app.Deps,
	err error,
) {
	deps = &app.Deps{}
	logger := setupLogger(cfg.Log)
	deps.Logger = logger
	defer func() {
		if err != nil {
			_ = deps.Close()
		}
	}()

	// Initialize database
	db, err := infra.NewDBConnection(cfg.DB, cfg.Env)
	if err != nil {
		logger.Error("Failed to initialize database", "error", err)
		return nil, err
	}
	if sqlDB, dbErr := db.DB(); dbErr == nil {
		deps.AddCloser(sqlDB)
	}
	if cfg.DB.Migrate {
		if err = infra.Migrate(db); err != nil {
			return nil, err
		}
	}
	deps.Uow = infra_repository.NewUoW(db)

	client, err := newRedisClient(cfg.Redis)
	if err != nil {
		return nil, err
	}
	if client != nil {
		deps.AddCloser(client)
	}

	if deps.Locker, err = initLocker(cfg, client, logger); err != nil {
		return nil, err
	}
	if deps.OTPStore, err = initOTPStore(cfg, db, client, logger); err != nil {
		return nil, err
	}

	bus, err := initEventBus(cfg, client, logger)
	if err != nil {
		return nil, err
	}
	deps.EventBus = bus
	if c, ok := bus.(interface{ Close() error }); ok {
		deps.AddCloser(c)
	}

	deps.Sender = initSender(cfg, logger)
	if cfg.NLU.ClassifierURL != "" {
		deps.Classifier = infra_nlu.NewHTTPClassifier(cfg.NLU.ClassifierURL, cfg.NLU.Timeout, cfg.NLU.RetryMax, logger)
	}
	deps.Metrics = infra_metrics.NewPrometheus()

	logger.Info("Dependencies initialized",
		"lock", cfg.Lock.Backend,
		"event_bus", fmt.Sprintf("%T", bus),
		"otp_store", cfg.OTP.Store,
		"classifier", cfg.NLU.ClassifierURL != "",
	)
	return deps, nil
}

// newRedisClient returns nil when no Redis URL is configured.
func newRedisClient(cfg *config.Redis) (redis.UniversalClient, error) {
	if cfg == nil || cfg.URL == "" {
		return nil, nil
	}
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_URL: %w", err)
	}
	if cfg.PoolSize > 0 {
		opts.PoolSize = cfg.PoolSize
	}
	if cfg.DialTimeout > 0 {
		opts.DialTimeout = cfg.DialTimeout
	}
	if cfg.ReadTimeout > 0 {
		opts.ReadTimeout = cfg.ReadTimeout
	}
	if cfg.WriteTimeout > 0 {
		opts.WriteTimeout = cfg.WriteTimeout
	}
	return redis.NewClient(opts), nil
}

func keyPrefix(cfg *config.App) string {
	if cfg.Redis == nil {
		return ""
	}
	return cfg.Redis.KeyPrefix
}

func initLocker(cfg *config.App, client redis.UniversalClient, logger *slog.Logger) (lock.Locker, error) {
	switch strings.ToLower(cfg.Lock.Backend) {
	case "", "memory":
		return infra_lock.NewMemoryLocker(), nil
	case "redis":
		if client == nil {
			return nil, errors.New("lock backend redis requires REDIS_URL")
		}
		return infra_lock.NewRedisLocker(client, infra_lock.RedisOptions{
			KeyPrefix:  keyPrefix(cfg) + "lock:",
			Expiry:     cfg.Lock.Expiry,
			Tries:      cfg.Lock.Tries,
			RetryDelay: cfg.Lock.RetryDelay,
		}, logger), nil
	default:
		return nil, fmt.Errorf("unsupported lock backend %q", cfg.Lock.Backend)
	}
}

func initOTPStore(
	cfg *config.App,
	db *gorm.DB,
	client redis.UniversalClient,
	logger *slog.Logger,
) (repository.OTPStore, error) {
	switch strings.ToLower(cfg.OTP.Store) {
	case "", "db":
		return infra_repository.NewOTPStore(db), nil
	case "redis":
		if client == nil {
			return nil, errors.New("otp store redis requires REDIS_URL")
		}
		return infra_cache.NewRedisOTPStore(client, keyPrefix(cfg), cfg.OTP.SignupWindow, logger), nil
	case "memory":
		return infra_cache.NewMemoryOTPStore(cfg.OTP.SignupWindow), nil
	default:
		return nil, fmt.Errorf("unsupported otp store %q", cfg.OTP.Store)
	}
}

// initEventBus picks the bus from EVENT_BUS_DRIVER. A configured but
// unreachable Redis or Kafka falls back to the in-process async bus.
func initEventBus(cfg *config.App, client redis.UniversalClient, logger *slog.Logger) (eventbus.Bus, error) {
	driver := strings.ToLower(cfg.EventBus.Driver)
	switch driver {
	case "", "memory":
		return infra_eventbus.NewWithMemoryAsync(logger, asyncBusBuffer), nil
	case "redis":
		if client == nil {
			return nil, errors.New("event bus driver redis requires REDIS_URL")
		}
		bus, err := infra_eventbus.NewWithRedis(client, infra_eventbus.RedisConfig{
			Stream: keyPrefix(cfg) + cfg.EventBus.Stream,
			Group:  cfg.EventBus.Group,
		}, logger)
		if err != nil {
			logger.Warn("Redis event bus unavailable, falling back to memory", "error", err)
			return infra_eventbus.NewWithMemoryAsync(logger, asyncBusBuffer), nil
		}
		return bus, nil
	case "kafka":
		if cfg.EventBus.KafkaBrokers == "" {
			return nil, errors.New("event bus driver kafka requires EVENT_BUS_KAFKA_BROKERS")
		}
		bus, err := infra_eventbus.NewWithKafka(cfg.EventBus.KafkaBrokers, infra_eventbus.KafkaConfig{
			GroupID:     cfg.EventBus.Group,
			TopicPrefix: cfg.EventBus.KafkaTopicPrefix,
		}, logger)
		if err != nil {
			logger.Warn("Kafka event bus unavailable, falling back to memory", "error", err)
			return infra_eventbus.NewWithMemoryAsync(logger, asyncBusBuffer), nil
		}
		return bus, nil
	default:
		return nil, fmt.Errorf("unsupported event bus driver %q", cfg.EventBus.Driver)
	}
}

func initSender(cfg *config.App, logger *slog.Logger) notify.Sender {
	if cfg.OTP.WebhookURL == "" {
		return infra_notify.NewLogSender(logger)
	}
	return infra_notify.NewWebhookSender(cfg.OTP.WebhookURL, cfg.NLU.Timeout, cfg.NLU.RetryMax, logger)
}

