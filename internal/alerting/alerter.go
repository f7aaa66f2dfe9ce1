// Package alerting реализует проверку показаний на превышение порога
// Сигнал оповещения отправляется синхронно с приемом показания
package alerting

import (
	"context"
	"log"

	"telemetry-service/internal/cache"
	"telemetry-service/internal/metrics"
	"telemetry-service/internal/models"
	"telemetry-service/internal/store"
)

// Alerter сравнивает показания с текущим порогом и отправляет оповещения
type Alerter struct {
	thresholds store.ThresholdStore
	cache      *cache.RedisCache
}

// NewAlerter создает новый компонент оповещений
// Кэш может быть nil, тогда счетчик в Redis не ведется
func NewAlerter(thresholds store.ThresholdStore, redisCache *cache.RedisCache) *Alerter {
	return &Alerter{
		thresholds: thresholds,
		cache:      redisCache,
	}
}

// Evaluate проверяет показание против текущего порога
// Ровно одно оповещение при температуре строго выше порога, иначе ни одного
func (a *Alerter) Evaluate(ctx context.Context, reading models.Reading) (bool, error) {
	threshold, err := a.thresholds.Get(ctx)
	if err != nil {
		return false, err
	}

	if reading.Temperature <= threshold {
		return false, nil
	}

	log.Printf("ALERT: device=%s temperature=%.1f exceeds threshold %.1f",
		reading.DeviceID, reading.Temperature, threshold)
	metrics.AlertsEmitted.Inc()

	if a.cache != nil {
		if _, err := a.cache.IncrementCounter(cache.AlertsCounterKey); err != nil {
			// Оповещение уже отправлено, сбой счетчика не фатален
			log.Printf("Failed to increment alert counter: %v", err)
		}
	}

	return true, nil
}
