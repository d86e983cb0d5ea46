// Package cache хранит отметки "слот занят" для быстрых ответов о доступности.
package cache

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/Freeeeeet/tutoring_scheduler/internal/model"
	"github.com/Freeeeeet/tutoring_scheduler/internal/service"
	"github.com/redis/go-redis/v9"
)

const defaultKeyPrefix = "availability:taken:"

// RedisConfig параметры подключения к Redis
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// RedisAvailabilityCache отметки в Redis с TTL, общие для всех инстансов
type RedisAvailabilityCache struct {
	client    *redis.Client
	keyPrefix string
	ttl       time.Duration
}

// NewRedisAvailabilityCache подключается и проверяет соединение
func NewRedisAvailabilityCache(cfg RedisConfig, ttl time.Duration) (*RedisAvailabilityCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return NewRedisAvailabilityCacheWithClient(client, "", ttl), nil
}

// NewRedisAvailabilityCacheWithClient использует готовый клиент
func NewRedisAvailabilityCacheWithClient(client *redis.Client, keyPrefix string, ttl time.Duration) *RedisAvailabilityCache {
	if keyPrefix == "" {
		keyPrefix = defaultKeyPrefix
	}
	return &RedisAvailabilityCache{
		client:    client,
		keyPrefix: keyPrefix,
		ttl:       ttl,
	}
}

func (c *RedisAvailabilityCache) IsTaken(ctx context.Context, key model.SlotKey) (bool, error) {
	n, err := c.client.Exists(ctx, c.key(key)).Result()
	if err != nil {
		return false, fmt.Errorf("check slot marker: %w", err)
	}
	return n > 0, nil
}

func (c *RedisAvailabilityCache) MarkTaken(ctx context.Context, key model.SlotKey) error {
	if err := c.client.Set(ctx, c.key(key), "1", c.ttl).Err(); err != nil {
		return fmt.Errorf("set slot marker: %w", err)
	}
	return nil
}

func (c *RedisAvailabilityCache) Clear(ctx context.Context, key model.SlotKey) error {
	if err := c.client.Del(ctx, c.key(key)).Err(); err != nil {
		return fmt.Errorf("clear slot marker: %w", err)
	}
	return nil
}

func (c *RedisAvailabilityCache) Close() error {
	return c.client.Close()
}

func (c *RedisAvailabilityCache) key(k model.SlotKey) string {
	return c.keyPrefix + markerKey(k)
}

// MemoryAvailabilityCache отметки в памяти процесса, для одного инстанса и тестов
type MemoryAvailabilityCache struct {
	mu      sync.RWMutex
	ttl     time.Duration
	clock   func() time.Time
	entries map[string]time.Time
}

// NewMemoryAvailabilityCache ttl <= 0 означает отметки без срока
func NewMemoryAvailabilityCache(ttl time.Duration) *MemoryAvailabilityCache {
	return &MemoryAvailabilityCache{
		ttl:     ttl,
		clock:   time.Now,
		entries: make(map[string]time.Time),
	}
}

func (c *MemoryAvailabilityCache) IsTaken(_ context.Context, key model.SlotKey) (bool, error) {
	k := markerKey(key)
	c.mu.RLock()
	expires, ok := c.entries[k]
	c.mu.RUnlock()
	if !ok {
		return false, nil
	}
	if expires.IsZero() || c.clock().Before(expires) {
		return true, nil
	}

	// просроченная отметка удаляется, если её не успели перезаписать
	c.mu.Lock()
	if current, ok := c.entries[k]; ok && current.Equal(expires) {
		delete(c.entries, k)
	}
	c.mu.Unlock()
	return false, nil
}

func (c *MemoryAvailabilityCache) MarkTaken(_ context.Context, key model.SlotKey) error {
	var expires time.Time
	if c.ttl > 0 {
		expires = c.clock().Add(c.ttl)
	}
	c.mu.Lock()
	c.entries[markerKey(key)] = expires
	c.mu.Unlock()
	return nil
}

func (c *MemoryAvailabilityCache) Clear(_ context.Context, key model.SlotKey) error {
	c.mu.Lock()
	delete(c.entries, markerKey(key))
	c.mu.Unlock()
	return nil
}

func markerKey(k model.SlotKey) string {
	return fmt.Sprintf("%s:%s:%s", k.OwnerID, k.Weekday, k.StartTime)
}

var (
	_ service.AvailabilityCache = (*RedisAvailabilityCache)(nil)
	_ service.AvailabilityCache = (*MemoryAvailabilityCache)(nil)
)
