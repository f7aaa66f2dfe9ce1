// Package cache реализует кэширование показаний и счетчиков в Redis
// Кэш необязателен: при недоступности Redis сервис работает без него
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"telemetry-service/internal/models"
)

const (
	// LatestReadingsKey ключ списка последних показаний
	LatestReadingsKey = "readings:latest"
	// ReadingsCounterKey счетчик принятых показаний
	ReadingsCounterKey = "readings:total"
	// AlertsCounterKey счетчик отправленных оповещений
	AlertsCounterKey = "alerts:total"
	// ForecastKeyPrefix префикс для кэшированных прогнозов
	ForecastKeyPrefix = "forecast:"
	// ForecastTTL время жизни кэшированного прогноза
	ForecastTTL = 1 * time.Minute
	// LatestReadingsLimit сколько последних показаний держим в списке
	LatestReadingsLimit = 999
)

// RedisCache реализует кэширование в Redis
type RedisCache struct {
	client *redis.Client
	ctx    context.Context
}

// NewRedisCache создает новое подключение к Redis
func NewRedisCache(addr, password string, db int) (*RedisCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           db,
		PoolSize:     100,
		MinIdleConns: 10,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	ctx := context.Background()

	// Проверяем подключение
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisCache{
		client: client,
		ctx:    ctx,
	}, nil
}

// CacheReading добавляет показание в список последних и счетчик
func (r *RedisCache) CacheReading(reading models.Reading) error {
	data, err := json.Marshal(reading)
	if err != nil {
		return fmt.Errorf("failed to marshal reading: %w", err)
	}

	pipe := r.client.Pipeline()
	pipe.LPush(r.ctx, LatestReadingsKey, data)
	pipe.LTrim(r.ctx, LatestReadingsKey, 0, LatestReadingsLimit)
	pipe.Incr(r.ctx, ReadingsCounterKey)

	_, err = pipe.Exec(r.ctx)
	if err != nil {
		return fmt.Errorf("failed to cache reading: %w", err)
	}

	return nil
}

// GetLatestReadings возвращает последние N показаний
func (r *RedisCache) GetLatestReadings(count int64) ([]models.Reading, error) {
	data, err := r.client.LRange(r.ctx, LatestReadingsKey, 0, count-1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get latest readings: %w", err)
	}

	readings := make([]models.Reading, 0, len(data))
	for _, d := range data {
		var reading models.Reading
		if err := json.Unmarshal([]byte(d), &reading); err != nil {
			continue
		}
		readings = append(readings, reading)
	}

	return readings, nil
}

// CacheForecast сохраняет результат прогноза с коротким TTL
func (r *RedisCache) CacheForecast(key string, resp models.ForecastResponse) error {
	data, err := json.Marshal(resp)
	if err != nil {
		return fmt.Errorf("failed to marshal forecast: %w", err)
	}
	return r.client.Set(r.ctx, ForecastKeyPrefix+key, data, ForecastTTL).Err()
}

// GetForecast возвращает кэшированный прогноз, если он еще действителен
func (r *RedisCache) GetForecast(key string) (models.ForecastResponse, bool) {
	var resp models.ForecastResponse
	data, err := r.client.Get(r.ctx, ForecastKeyPrefix+key).Bytes()
	if err != nil {
		return resp, false
	}
	if err := json.Unmarshal(data, &resp); err != nil {
		return resp, false
	}
	return resp, true
}

// IncrementCounter увеличивает счетчик
func (r *RedisCache) IncrementCounter(key string) (int64, error) {
	return r.client.Incr(r.ctx, key).Result()
}

// GetCounter возвращает значение счетчика
func (r *RedisCache) GetCounter(key string) (int64, error) {
	val, err := r.client.Get(r.ctx, key).Int64()
	if err == redis.Nil {
		return 0, nil
	}
	return val, err
}

// Ping проверяет соединение с Redis
func (r *RedisCache) Ping() error {
	return r.client.Ping(r.ctx).Err()
}

// Close закрывает соединение
func (r *RedisCache) Close() error {
	return r.client.Close()
}

// FlushDB очищает базу (только для тестов)
func (r *RedisCache) FlushDB() error {
	return r.client.FlushDB(r.ctx).Err()
}
