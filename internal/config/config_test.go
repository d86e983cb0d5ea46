package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_MemoryDefaults(t *testing.T) {
	t.Setenv("STORAGE", "memory")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)

	assert.Equal(t, StorageMemory, cfg.Storage)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, 2*time.Second, cfg.OutboxPollInterval)
	assert.Equal(t, 8, cfg.OutboxMaxAttempts)
	assert.Equal(t, 7*24*time.Hour, cfg.OutboxRetention)
	assert.False(t, cfg.ReportsEnabled())
	assert.False(t, cfg.IsProduction())
	assert.Empty(t, cfg.OTLPEndpoint)
	assert.Equal(t, 1.0, cfg.TraceSamplingRatio)
	assert.Equal(t, "tutoring-scheduler", cfg.ServiceName)
}

func TestLoad_PostgresRequiresDSN(t *testing.T) {
	t.Setenv("STORAGE", "postgres")
	t.Setenv("DB_DSN", "")
	t.Setenv("SLOTS_DB_DSN", "")
	t.Setenv("RESERVATIONS_DB_DSN", "")

	_, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	assert.Error(t, err)
}

func TestLoad_SharedDSNFallback(t *testing.T) {
	t.Setenv("STORAGE", "postgres")
	t.Setenv("DB_DSN", "postgres://localhost/tutoring")
	t.Setenv("SLOTS_DB_DSN", "")
	t.Setenv("RESERVATIONS_DB_DSN", "postgres://localhost/reservations")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)
	assert.Equal(t, "postgres://localhost/tutoring", cfg.SlotsDBDSN)
	assert.Equal(t, "postgres://localhost/reservations", cfg.ReservationsDBDSN)
}

func TestLoad_EnvFile(t *testing.T) {
	t.Setenv("STORAGE", "memory")
	// переменная из окружения важнее .env
	t.Setenv("OUTBOX_BATCH_SIZE", "10")

	path := filepath.Join(t.TempDir(), ".env")
	content := "TEACHER_REPORTS_URL=http://reports.local/teachers/\nOUTBOX_BATCH_SIZE=99\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	t.Cleanup(func() { os.Unsetenv("TEACHER_REPORTS_URL") })

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "http://reports.local/teachers", cfg.TeacherReportsURL)
	assert.Equal(t, 10, cfg.OutboxBatchSize)
	assert.True(t, cfg.ReportsEnabled())
}

func TestLoad_RejectsUnknownStorage(t *testing.T) {
	t.Setenv("STORAGE", "sqlite")

	_, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	assert.Error(t, err)
}

func TestLoad_BoundsOutboxMaxAttempts(t *testing.T) {
	t.Setenv("STORAGE", "memory")

	t.Setenv("OUTBOX_MAX_ATTEMPTS", "64")
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)
	assert.Equal(t, 64, cfg.OutboxMaxAttempts)

	t.Setenv("OUTBOX_MAX_ATTEMPTS", "65")
	_, err = Load(filepath.Join(t.TempDir(), "missing.env"))
	assert.Error(t, err)
}

func TestLoad_Tracing(t *testing.T) {
	t.Setenv("STORAGE", "memory")
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "collector:4317")
	t.Setenv("OTEL_EXPORTER_OTLP_INSECURE", "true")
	t.Setenv("OTEL_TRACES_SAMPLER_RATIO", "0.25")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)
	assert.Equal(t, "collector:4317", cfg.OTLPEndpoint)
	assert.True(t, cfg.OTLPInsecure)
	assert.Equal(t, 0.25, cfg.TraceSamplingRatio)

	t.Setenv("OTEL_TRACES_SAMPLER_RATIO", "2")
	_, err = Load(filepath.Join(t.TempDir(), "missing.env"))
	assert.Error(t, err)
}
