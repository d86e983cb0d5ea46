package app

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/Freeeeeet/tutoring_scheduler/internal/cache"
	"github.com/Freeeeeet/tutoring_scheduler/internal/config"
	"github.com/Freeeeeet/tutoring_scheduler/internal/controller/httpapi"
	"github.com/Freeeeeet/tutoring_scheduler/internal/dispatch"
	"github.com/Freeeeeet/tutoring_scheduler/internal/repository"
	"github.com/Freeeeeet/tutoring_scheduler/internal/repository/memory"
	"github.com/Freeeeeet/tutoring_scheduler/internal/service"
	"github.com/Freeeeeet/tutoring_scheduler/migrations"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// App собранный процесс: хранилища, сервисы, релей и HTTP-сервер
type App struct {
	cfg    *config.Config
	logger *zap.Logger

	slotStore        repository.SlotStore
	reservationStore repository.ReservationStore
	pools            []*pgxpool.Pool
	redis            *cache.RedisAvailabilityCache
	telemetry        *Telemetry

	relay  *OutboxRelay
	server *http.Server
}

// New собирает все зависимости. Ошибки подключения к базам фатальны.
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*App, error) {
	a := &App{cfg: cfg, logger: logger}

	telemetry, err := NewTelemetry(ctx, TelemetryConfig{
		Endpoint:      cfg.OTLPEndpoint,
		Insecure:      cfg.OTLPInsecure,
		SamplingRatio: cfg.TraceSamplingRatio,
		ServiceName:   cfg.ServiceName,
	}, logger.Named("telemetry"))
	if err != nil {
		return nil, err
	}
	a.telemetry = telemetry

	if err := a.initStores(ctx); err != nil {
		a.close()
		return nil, err
	}

	var availability service.AvailabilityCache
	if cfg.RedisAddr != "" {
		rc, err := cache.NewRedisAvailabilityCache(cache.RedisConfig{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		}, cfg.AvailabilityTTL)
		if err != nil {
			a.close()
			return nil, err
		}
		a.redis = rc
		availability = rc
		logger.Info("Redis availability cache enabled", zap.String("addr", cfg.RedisAddr))
	} else {
		availability = cache.NewMemoryAvailabilityCache(cfg.AvailabilityTTL)
	}

	var notifier service.ReportNotifier = service.NopNotifier{}
	if cfg.ReportsEnabled() {
		notifier = service.NewReportHTTPClient(
			cfg.StudentReportsURL,
			cfg.TeacherReportsURL,
			service.DefaultReportHTTPClient(cfg.NotifyTimeout),
		)
	} else {
		logger.Warn("Report services not configured, notifications are disabled")
	}

	// релей создаётся до сервисов: они будят его после коммита
	kicker := &relayKicker{}
	policy := service.OutboxPolicy{MaxAttempts: cfg.OutboxMaxAttempts, Kicker: kicker}

	slots := service.NewSlotService(a.slotStore, policy, logger.Named("slots"))
	reservations := service.NewReservationService(a.reservationStore, availability, policy, logger.Named("reservations"))
	availabilitySvc := service.NewAvailabilityService(a.reservationStore.Reservations(), availability, logger.Named("availability"))
	reconciler := service.NewReconciler(reservations, notifier, logger.Named("reconciler"))

	a.relay = NewOutboxRelay([]OutboxSource{
		{Name: "slots", Outbox: a.slotStore.Outbox()},
		{Name: "reservations", Outbox: a.reservationStore.Outbox()},
	}, reconciler, RelayConfig{
		PollInterval: cfg.OutboxPollInterval,
		BatchSize:    cfg.OutboxBatchSize,
		Retention:    cfg.OutboxRetention,
	}, logger.Named("relay"))
	kicker.relay = a.relay

	bus := dispatch.NewBus(
		dispatch.Tracing(a.telemetry.Provider()),
		dispatch.Logging(logger.Named("dispatch")),
		dispatch.Validation(dispatch.NewValidator()),
	)
	dispatch.RegisterHandlers(bus, dispatch.Services{
		Slots:        slots,
		Reservations: reservations,
		Availability: availabilitySvc,
	})

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := httpapi.NewRouter(httpapi.NewHandler(bus, a.health), a.telemetry.Provider(), cfg.ServiceName, logger.Named("http"))

	a.server = &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: router,
	}

	return a, nil
}

func (a *App) initStores(ctx context.Context) error {
	if a.cfg.Storage == config.StorageMemory {
		a.logger.Warn("Using in-memory storage, data is lost on restart")
		a.slotStore = memory.NewSlotStore()
		a.reservationStore = memory.NewReservationStore()
		return nil
	}

	slotPool, err := a.openPool(ctx, "slots", a.cfg.SlotsDBDSN, migrations.Slots, "slots")
	if err != nil {
		return err
	}
	reservationPool, err := a.openPool(ctx, "reservations", a.cfg.ReservationsDBDSN, migrations.Reservations, "reservations")
	if err != nil {
		return err
	}

	a.slotStore = repository.NewSlotPostgresStore(slotPool)
	a.reservationStore = repository.NewReservationPostgresStore(reservationPool)
	return nil
}

func (a *App) openPool(ctx context.Context, name, dsn string, embedded fs.FS, dir string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connect %s database: %w", name, err)
	}
	a.pools = append(a.pools, pool)

	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("ping %s database: %w", name, err)
	}

	fsys, err := fs.Sub(embedded, dir)
	if err != nil {
		return nil, fmt.Errorf("open %s migrations: %w", name, err)
	}

	migrator, err := NewMigrator(name, pool, fsys, a.logger)
	if err != nil {
		return nil, err
	}
	defer migrator.Close()

	if err := migrator.Run(ctx); err != nil {
		return nil, err
	}

	a.logger.Info("Database ready", zap.String("database", name))
	return pool, nil
}

// Run запускает релей и HTTP-сервер и ждёт SIGINT/SIGTERM
func (a *App) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	a.relay.Start(ctx)

	serverErr := make(chan error, 1)
	go func() {
		a.logger.Info("HTTP server listening", zap.String("addr", a.server.Addr))
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	var runErr error
	select {
	case <-ctx.Done():
		a.logger.Info("Shutdown signal received")
	case err := <-serverErr:
		runErr = fmt.Errorf("http server: %w", err)
	}

	return errors.Join(runErr, a.shutdown())
}

func (a *App) shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()

	var err error
	if shutdownErr := a.server.Shutdown(ctx); shutdownErr != nil {
		err = fmt.Errorf("shutdown http server: %w", shutdownErr)
	}

	a.relay.Stop()
	a.close()

	a.logger.Info("Shutdown complete")
	return err
}

func (a *App) close() {
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.logger.Warn("Failed to close redis client", zap.Error(err))
		}
	}
	for _, pool := range a.pools {
		pool.Close()
	}
	if a.telemetry != nil {
		if err := a.telemetry.Shutdown(context.Background()); err != nil {
			a.logger.Warn("Failed to flush traces", zap.Error(err))
		}
	}
}

// health пингует базы и отдаёт счётчики outbox'ов
func (a *App) health(ctx context.Context) (map[string]any, error) {
	for _, pool := range a.pools {
		if err := pool.Ping(ctx); err != nil {
			return nil, fmt.Errorf("database ping: %w", err)
		}
	}

	stats, err := a.relay.Stats(ctx)
	if err != nil {
		return nil, fmt.Errorf("outbox stats: %w", err)
	}

	return map[string]any{
		"storage": a.cfg.Storage,
		"outbox":  stats,
	}, nil
}

// relayKicker разрывает цикл зависимостей сервисы -> релей -> сервисы
type relayKicker struct {
	relay *OutboxRelay
}

func (k *relayKicker) Kick() {
	if k.relay != nil {
		k.relay.Kick()
	}
}
