package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"time"

	_ "github.com/lib/pq"

	"telemetry-service/internal/models"
)

const (
	// Настройки пула соединений
	maxOpenConns    = 25
	maxIdleConns    = 5
	connMaxLifetime = 5 * time.Minute
)

// PostgresStore хранит показания и порог в PostgreSQL
type PostgresStore struct {
	db               *sql.DB
	defaultThreshold float64
}

// NewPostgresStore подключается к базе и создает схему при необходимости
func NewPostgresStore(databaseURL string, defaultThreshold float64) (*PostgresStore, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(maxOpenConns)
	db.SetMaxIdleConns(maxIdleConns)
	db.SetConnMaxLifetime(connMaxLifetime)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	s := &PostgresStore{db: db, defaultThreshold: defaultThreshold}
	if err := s.migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}

	return s, nil
}

// migrate создает таблицы и записывает порог по умолчанию
func (s *PostgresStore) migrate(ctx context.Context) error {
	const schema = `
CREATE TABLE IF NOT EXISTS sensor_readings (
	id          BIGSERIAL PRIMARY KEY,
	device_id   TEXT NOT NULL,
	ts          TIMESTAMPTZ NOT NULL,
	temperature DOUBLE PRECISION NOT NULL,
	humidity    DOUBLE PRECISION NOT NULL
);
CREATE TABLE IF NOT EXISTS alert_threshold (
	id    INT PRIMARY KEY CHECK (id = 1),
	value DOUBLE PRECISION NOT NULL
);`

	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	// Единственная запись порога создается один раз
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO alert_threshold (id, value) VALUES (1, $1) ON CONFLICT (id) DO NOTHING`,
		s.defaultThreshold)
	if err != nil {
		return fmt.Errorf("failed to seed threshold: %w", err)
	}

	return nil
}

// Append добавляет показание, id назначает база данных
func (s *PostgresStore) Append(ctx context.Context, deviceID string, temperature, humidity float64) (models.Reading, error) {
	r := models.Reading{
		DeviceID:    deviceID,
		Timestamp:   time.Now().UTC(),
		Temperature: temperature,
		Humidity:    humidity,
	}

	err := s.db.QueryRowContext(ctx,
		`INSERT INTO sensor_readings (device_id, ts, temperature, humidity)
		 VALUES ($1, $2, $3, $4) RETURNING id`,
		r.DeviceID, r.Timestamp, r.Temperature, r.Humidity).Scan(&r.ID)
	if err != nil {
		return models.Reading{}, fmt.Errorf("failed to insert reading: %w", err)
	}

	return r, nil
}

// ListSince возвращает показания с меткой не раньше cutoff, по возрастанию id
func (s *PostgresStore) ListSince(ctx context.Context, cutoff time.Time) ([]models.Reading, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, device_id, ts, temperature, humidity
		 FROM sensor_readings WHERE ts >= $1 ORDER BY id ASC`, cutoff)
	if err != nil {
		return nil, fmt.Errorf("failed to query readings: %w", err)
	}

	return scanReadings(rows)
}

// ListAll возвращает все показания по возрастанию id
func (s *PostgresStore) ListAll(ctx context.Context) ([]models.Reading, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, device_id, ts, temperature, humidity
		 FROM sensor_readings ORDER BY id ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query readings: %w", err)
	}

	return scanReadings(rows)
}

// scanReadings читает строки результата в срез показаний
func scanReadings(rows *sql.Rows) ([]models.Reading, error) {
	defer rows.Close()

	var readings []models.Reading
	for rows.Next() {
		var r models.Reading
		if err := rows.Scan(&r.ID, &r.DeviceID, &r.Timestamp, &r.Temperature, &r.Humidity); err != nil {
			return nil, fmt.Errorf("failed to scan reading: %w", err)
		}
		r.Timestamp = r.Timestamp.UTC()
		readings = append(readings, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate readings: %w", err)
	}

	return readings, nil
}

// Get возвращает текущий порог оповещения
func (s *PostgresStore) Get(ctx context.Context) (float64, error) {
	var value float64
	err := s.db.QueryRowContext(ctx,
		`SELECT value FROM alert_threshold WHERE id = 1`).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return s.defaultThreshold, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read threshold: %w", err)
	}

	return value, nil
}

// Set устанавливает порог оповещения, принимаются только конечные значения
// Конкурирующие записи разрешаются по принципу "последняя побеждает"
func (s *PostgresStore) Set(ctx context.Context, value float64) (float64, error) {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return 0, models.ErrInvalidInput
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO alert_threshold (id, value) VALUES (1, $1)
		 ON CONFLICT (id) DO UPDATE SET value = EXCLUDED.value`, value)
	if err != nil {
		return 0, fmt.Errorf("failed to write threshold: %w", err)
	}

	return value, nil
}

// Close закрывает соединение с базой данных
func (s *PostgresStore) Close() error {
	return s.db.Close()
}
