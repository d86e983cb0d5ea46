package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/Freeeeeet/tutoring_scheduler/internal/model"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	StoragePostgres = "postgres"
	StorageMemory   = "memory"
)

type Config struct {
	Environment string `mapstructure:"ENV"`
	LogLevel    string `mapstructure:"LOG_LEVEL"`
	HTTPAddr    string `mapstructure:"HTTP_ADDR"`
	Storage     string `mapstructure:"STORAGE"`

	SlotsDBDSN        string `mapstructure:"SLOTS_DB_DSN"`
	ReservationsDBDSN string `mapstructure:"RESERVATIONS_DB_DSN"`

	RedisAddr       string        `mapstructure:"REDIS_ADDR"`
	RedisPassword   string        `mapstructure:"REDIS_PASSWORD"`
	RedisDB         int           `mapstructure:"REDIS_DB"`
	AvailabilityTTL time.Duration `mapstructure:"AVAILABILITY_CACHE_TTL"`

	StudentReportsURL string        `mapstructure:"STUDENT_REPORTS_URL"`
	TeacherReportsURL string        `mapstructure:"TEACHER_REPORTS_URL"`
	NotifyTimeout     time.Duration `mapstructure:"NOTIFY_TIMEOUT"`

	OutboxPollInterval time.Duration `mapstructure:"OUTBOX_POLL_INTERVAL"`
	OutboxBatchSize    int           `mapstructure:"OUTBOX_BATCH_SIZE"`
	OutboxMaxAttempts  int           `mapstructure:"OUTBOX_MAX_ATTEMPTS"`
	OutboxRetention    time.Duration `mapstructure:"OUTBOX_RETENTION"`

	OTLPEndpoint       string  `mapstructure:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	OTLPInsecure       bool    `mapstructure:"OTEL_EXPORTER_OTLP_INSECURE"`
	TraceSamplingRatio float64 `mapstructure:"OTEL_TRACES_SAMPLER_RATIO"`
	ServiceName        string  `mapstructure:"OTEL_SERVICE_NAME"`

	ShutdownTimeout time.Duration `mapstructure:"SHUTDOWN_TIMEOUT"`
}

// Load читает .env (если есть) и переменные окружения.
// Окружение имеет приоритет над .env, godotenv не перезаписывает уже заданные переменные.
func Load(envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	// Отсутствие .env не ошибка
	_ = godotenv.Load(envFiles...)

	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	cfg := &Config{
		Environment:        v.GetString("ENV"),
		LogLevel:           v.GetString("LOG_LEVEL"),
		HTTPAddr:           v.GetString("HTTP_ADDR"),
		Storage:            strings.ToLower(v.GetString("STORAGE")),
		SlotsDBDSN:         v.GetString("SLOTS_DB_DSN"),
		ReservationsDBDSN:  v.GetString("RESERVATIONS_DB_DSN"),
		RedisAddr:          v.GetString("REDIS_ADDR"),
		RedisPassword:      v.GetString("REDIS_PASSWORD"),
		RedisDB:            v.GetInt("REDIS_DB"),
		AvailabilityTTL:    v.GetDuration("AVAILABILITY_CACHE_TTL"),
		StudentReportsURL:  strings.TrimRight(v.GetString("STUDENT_REPORTS_URL"), "/"),
		TeacherReportsURL:  strings.TrimRight(v.GetString("TEACHER_REPORTS_URL"), "/"),
		NotifyTimeout:      v.GetDuration("NOTIFY_TIMEOUT"),
		OutboxPollInterval: v.GetDuration("OUTBOX_POLL_INTERVAL"),
		OutboxBatchSize:    v.GetInt("OUTBOX_BATCH_SIZE"),
		OutboxMaxAttempts:  v.GetInt("OUTBOX_MAX_ATTEMPTS"),
		OutboxRetention:    v.GetDuration("OUTBOX_RETENTION"),
		OTLPEndpoint:       v.GetString("OTEL_EXPORTER_OTLP_ENDPOINT"),
		OTLPInsecure:       v.GetBool("OTEL_EXPORTER_OTLP_INSECURE"),
		TraceSamplingRatio: v.GetFloat64("OTEL_TRACES_SAMPLER_RATIO"),
		ServiceName:        v.GetString("OTEL_SERVICE_NAME"),
		ShutdownTimeout:    v.GetDuration("SHUTDOWN_TIMEOUT"),
	}

	// Обе базы могут жить в одном кластере: DB_DSN как общий fallback
	if cfg.SlotsDBDSN == "" {
		cfg.SlotsDBDSN = v.GetString("DB_DSN")
	}
	if cfg.ReservationsDBDSN == "" {
		cfg.ReservationsDBDSN = v.GetString("DB_DSN")
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", "development")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("HTTP_ADDR", ":8080")
	v.SetDefault("STORAGE", StoragePostgres)
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("AVAILABILITY_CACHE_TTL", 10*time.Minute)
	v.SetDefault("NOTIFY_TIMEOUT", 5*time.Second)
	v.SetDefault("OUTBOX_POLL_INTERVAL", 2*time.Second)
	v.SetDefault("OUTBOX_BATCH_SIZE", 50)
	v.SetDefault("OUTBOX_MAX_ATTEMPTS", 8)
	v.SetDefault("OUTBOX_RETENTION", 7*24*time.Hour)
	v.SetDefault("OTEL_TRACES_SAMPLER_RATIO", 1.0)
	v.SetDefault("OTEL_SERVICE_NAME", "tutoring-scheduler")
	v.SetDefault("SHUTDOWN_TIMEOUT", 15*time.Second)
}

func (c *Config) validate() error {
	switch c.Storage {
	case StoragePostgres:
		if c.SlotsDBDSN == "" || c.ReservationsDBDSN == "" {
			return fmt.Errorf("SLOTS_DB_DSN and RESERVATIONS_DB_DSN (or DB_DSN) are required for postgres storage")
		}
	case StorageMemory:
	default:
		return fmt.Errorf("STORAGE must be %q or %q, got %q", StoragePostgres, StorageMemory, c.Storage)
	}

	if c.OutboxPollInterval <= 0 {
		return fmt.Errorf("OUTBOX_POLL_INTERVAL must be positive")
	}
	if c.OutboxBatchSize <= 0 {
		return fmt.Errorf("OUTBOX_BATCH_SIZE must be positive")
	}
	if c.OutboxMaxAttempts <= 0 || c.OutboxMaxAttempts > model.MaxOutboxAttempts {
		return fmt.Errorf("OUTBOX_MAX_ATTEMPTS must be between 1 and %d", model.MaxOutboxAttempts)
	}
	if c.TraceSamplingRatio < 0 || c.TraceSamplingRatio > 1 {
		return fmt.Errorf("OTEL_TRACES_SAMPLER_RATIO must be between 0 and 1")
	}

	return nil
}

// ReportsEnabled настроен ли хотя бы один сервис отчётов
func (c *Config) ReportsEnabled() bool {
	return c.StudentReportsURL != "" || c.TeacherReportsURL != ""
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}
