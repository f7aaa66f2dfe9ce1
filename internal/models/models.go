// Package models содержит структуры данных показаний датчиков и API
package models

import "time"

// Reading представляет одно показание датчика устройства
type Reading struct {
	ID          int64     `json:"id"`
	DeviceID    string    `json:"device_id"`
	Timestamp   time.Time `json:"timestamp"`
	Temperature float64   `json:"temperature"`
	Humidity    float64   `json:"humidity"`
}

// IngestRequest представляет тело запроса POST /data
// Указатели отличают отсутствующее поле от нулевого значения
type IngestRequest struct {
	DeviceID    string   `json:"device_id"`
	Temperature *float64 `json:"temperature"`
	Humidity    *float64 `json:"humidity"`
}

// ReadingView представляет показание в ответе GET /data
// Временная метка уже переведена в зону отображения
type ReadingView struct {
	Timestamp   string  `json:"timestamp"`
	Temperature float64 `json:"temperature"`
	Humidity    float64 `json:"humidity"`
}

// DeviceLoginRequest представляет тело запроса POST /auth/device
type DeviceLoginRequest struct {
	DeviceID string `json:"device_id"`
}

// TokenResponse содержит выданный токен устройства
type TokenResponse struct {
	AccessToken string `json:"access_token"`
}

// ThresholdRequest представляет тело запроса POST /set-threshold
type ThresholdRequest struct {
	Temperature *float64 `json:"temperature"`
}

// ThresholdResponse содержит текущий порог оповещения
type ThresholdResponse struct {
	Threshold float64 `json:"threshold"`
}

// ForecastResponse содержит результат прогноза
// DataPoints=0 отличает "нет данных" от реального прогноза 0.0
type ForecastResponse struct {
	Prediction float64 `json:"prediction"`
	DataPoints int     `json:"data_points"`
	Strategy   string  `json:"strategy"`
	FutureTime string  `json:"future_time"`
}

// HealthStatus представляет статус здоровья сервиса
type HealthStatus struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Redis     string    `json:"redis"`
	Uptime    string    `json:"uptime"`
}
