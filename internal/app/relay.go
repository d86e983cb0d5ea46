package app

import (
	"context"
	"sync"
	"time"

	"github.com/Freeeeeet/tutoring_scheduler/internal/model"
	"github.com/Freeeeeet/tutoring_scheduler/internal/repository"
	"go.uber.org/zap"
)

// Deliverer обрабатывает одно событие outbox'а
type Deliverer interface {
	Deliver(ctx context.Context, event *model.OutboxEvent) error
}

// OutboxSource outbox одного хранилища
type OutboxSource struct {
	Name   string
	Outbox repository.OutboxRepository
}

// RelayConfig параметры релея
type RelayConfig struct {
	PollInterval    time.Duration
	BatchSize       int
	Lease           time.Duration
	Retention       time.Duration
	CleanupInterval time.Duration
}

func (c RelayConfig) withDefaults() RelayConfig {
	if c.PollInterval <= 0 {
		c.PollInterval = 2 * time.Second
	}
	if c.BatchSize <= 0 {
		c.BatchSize = 50
	}
	if c.Lease <= 0 {
		c.Lease = 30 * time.Second
	}
	if c.Retention <= 0 {
		c.Retention = 7 * 24 * time.Hour
	}
	if c.CleanupInterval <= 0 {
		c.CleanupInterval = time.Hour
	}
	return c
}

// OutboxRelay фоновая доставка событий между хранилищами
type OutboxRelay struct {
	sources   []OutboxSource
	deliverer Deliverer
	cfg       RelayConfig
	logger    *zap.Logger
	clock     func() time.Time

	kickChan chan struct{}
	stopChan chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// NewOutboxRelay создаёт релей; запускается через Start
func NewOutboxRelay(sources []OutboxSource, deliverer Deliverer, cfg RelayConfig, logger *zap.Logger) *OutboxRelay {
	return &OutboxRelay{
		sources:   sources,
		deliverer: deliverer,
		cfg:       cfg.withDefaults(),
		logger:    logger,
		clock:     time.Now,
		kickChan:  make(chan struct{}, 1),
		stopChan:  make(chan struct{}),
	}
}

// Kick просит релей пройти по outbox'ам без ожидания тика. Не блокирует.
func (r *OutboxRelay) Kick() {
	select {
	case r.kickChan <- struct{}{}:
	default:
	}
}

// Start запускает цикл доставки
func (r *OutboxRelay) Start(ctx context.Context) {
	r.logger.Info("Starting outbox relay",
		zap.Duration("poll_interval", r.cfg.PollInterval),
		zap.Int("batch_size", r.cfg.BatchSize),
	)

	r.wg.Add(1)
	go r.run(ctx)
}

// Stop останавливает цикл и ждёт завершения текущей итерации
func (r *OutboxRelay) Stop() {
	r.stopOnce.Do(func() {
		r.logger.Info("Stopping outbox relay")
		close(r.stopChan)
	})
	r.wg.Wait()
}

func (r *OutboxRelay) run(ctx context.Context) {
	defer r.wg.Done()

	// первый проход сразу: после рестарта могли остаться недоставленные события
	r.ProcessOnce(ctx)

	ticker := time.NewTicker(r.cfg.PollInterval)
	defer ticker.Stop()

	cleanup := time.NewTicker(r.cfg.CleanupInterval)
	defer cleanup.Stop()

	for {
		select {
		case <-ticker.C:
			r.ProcessOnce(ctx)
		case <-r.kickChan:
			r.ProcessOnce(ctx)
		case <-cleanup.C:
			r.Cleanup(ctx)
		case <-r.stopChan:
			r.logger.Info("Outbox relay stopped")
			return
		case <-ctx.Done():
			r.logger.Info("Outbox relay cancelled")
			return
		}
	}
}

// ProcessOnce один проход по всем источникам; возвращает число
// обработанных событий
func (r *OutboxRelay) ProcessOnce(ctx context.Context) int {
	total := 0
	for _, src := range r.sources {
		for {
			n, err := r.processBatch(ctx, src)
			total += n
			if err != nil {
				r.logger.Error("Failed to process outbox batch",
					zap.String("source", src.Name),
					zap.Error(err),
				)
				break
			}
			if n < r.cfg.BatchSize {
				break
			}
		}
	}
	return total
}

func (r *OutboxRelay) processBatch(ctx context.Context, src OutboxSource) (int, error) {
	events, err := src.Outbox.ClaimDue(ctx, r.clock().UTC(), r.cfg.Lease, r.cfg.BatchSize)
	if err != nil {
		return 0, err
	}

	for _, event := range events {
		r.deliver(ctx, src, event)
	}

	return len(events), nil
}

func (r *OutboxRelay) deliver(ctx context.Context, src OutboxSource, event *model.OutboxEvent) {
	fields := []zap.Field{
		zap.String("source", src.Name),
		zap.String("event_id", event.ID.String()),
		zap.String("event_type", event.EventType),
	}

	if err := r.deliverer.Deliver(ctx, event); err != nil {
		event.MarkFailed(err.Error(), r.clock().UTC())
		fields = append(fields, zap.Int("attempts", event.Attempts), zap.Error(err))
		if event.IsDead() {
			r.logger.Error("Outbox event moved to dead letter", fields...)
		} else {
			r.logger.Warn("Outbox event delivery failed, will retry",
				append(fields, zap.Time("next_attempt_at", event.NextAttempt))...)
		}
	} else {
		event.MarkSent(r.clock().UTC())
		r.logger.Debug("Outbox event delivered", fields...)
	}

	if err := src.Outbox.Update(ctx, event); err != nil {
		r.logger.Error("Failed to save outbox event state", append(fields, zap.Error(err))...)
	}
}

// Cleanup удаляет доставленные события старше срока хранения
func (r *OutboxRelay) Cleanup(ctx context.Context) {
	before := r.clock().UTC().Add(-r.cfg.Retention)
	for _, src := range r.sources {
		n, err := src.Outbox.DeleteSentBefore(ctx, before)
		if err != nil {
			r.logger.Error("Failed to purge sent outbox events",
				zap.String("source", src.Name),
				zap.Error(err),
			)
			continue
		}
		if n > 0 {
			r.logger.Info("Purged sent outbox events",
				zap.String("source", src.Name),
				zap.Int64("deleted", n),
			)
		}
	}
}

// Stats число событий по статусам для каждого источника
func (r *OutboxRelay) Stats(ctx context.Context) (map[string]map[model.OutboxStatus]int64, error) {
	stats := make(map[string]map[model.OutboxStatus]int64, len(r.sources))
	for _, src := range r.sources {
		counts, err := src.Outbox.CountByStatus(ctx)
		if err != nil {
			return nil, err
		}
		stats[src.Name] = counts
	}
	return stats, nil
}
