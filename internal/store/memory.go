package store

import (
	"context"
	"math"
	"sync"
	"time"

	"telemetry-service/internal/models"
)

// MemoryStore хранит показания и порог в памяти процесса
// Используется без настроенной базы данных и в тестах
type MemoryStore struct {
	mu        sync.RWMutex
	readings  []models.Reading
	nextID    int64
	threshold float64
}

// NewMemoryStore создает новое хранилище в памяти
func NewMemoryStore(defaultThreshold float64) *MemoryStore {
	return &MemoryStore{
		nextID:    1,
		threshold: defaultThreshold,
	}
}

// Append добавляет показание, назначая id и временную метку UTC
func (s *MemoryStore) Append(ctx context.Context, deviceID string, temperature, humidity float64) (models.Reading, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r := models.Reading{
		ID:          s.nextID,
		DeviceID:    deviceID,
		Timestamp:   time.Now().UTC(),
		Temperature: temperature,
		Humidity:    humidity,
	}
	s.nextID++
	s.readings = append(s.readings, r)

	return r, nil
}

// ListSince возвращает показания с меткой не раньше cutoff, по возрастанию id
func (s *MemoryStore) ListSince(ctx context.Context, cutoff time.Time) ([]models.Reading, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]models.Reading, 0, len(s.readings))
	for _, r := range s.readings {
		if !r.Timestamp.Before(cutoff) {
			result = append(result, r)
		}
	}

	return result, nil
}

// ListAll возвращает все показания по возрастанию id
func (s *MemoryStore) ListAll(ctx context.Context) ([]models.Reading, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	// Возвращаем копию, чтобы избежать гонок при изменении вызывающим
	result := make([]models.Reading, len(s.readings))
	copy(result, s.readings)

	return result, nil
}

// Get возвращает текущий порог оповещения
func (s *MemoryStore) Get(ctx context.Context) (float64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.threshold, nil
}

// Set устанавливает порог оповещения, принимаются только конечные значения
func (s *MemoryStore) Set(ctx context.Context, value float64) (float64, error) {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return 0, models.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.threshold = value

	return s.threshold, nil
}
