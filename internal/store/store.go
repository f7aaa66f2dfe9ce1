// Package store реализует хранилища показаний и порога оповещения
// Показания только добавляются, порог существует в единственном экземпляре
package store

import (
	"context"
	"time"

	"telemetry-service/internal/models"
)

// ReadingStore хранилище показаний датчиков
// Append назначает id и временную метку UTC, записи неизменяемы
type ReadingStore interface {
	Append(ctx context.Context, deviceID string, temperature, humidity float64) (models.Reading, error)
	ListSince(ctx context.Context, cutoff time.Time) ([]models.Reading, error)
	ListAll(ctx context.Context) ([]models.Reading, error)
}

// ThresholdStore хранилище порога оповещения (единственная запись)
// Get возвращает значение по умолчанию, если порог никогда не задавался
type ThresholdStore interface {
	Get(ctx context.Context) (float64, error)
	Set(ctx context.Context, value float64) (float64, error)
}
