// Package handlers содержит HTTP обработчики для API
// Таксономия ошибок ядра транслируется в статусы только здесь
package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"telemetry-service/internal/alerting"
	"telemetry-service/internal/auth"
	"telemetry-service/internal/cache"
	"telemetry-service/internal/forecast"
	"telemetry-service/internal/metrics"
	"telemetry-service/internal/models"
	"telemetry-service/internal/store"
)

// defaultHorizonHours горизонт прогноза по умолчанию
const defaultHorizonHours = 6

// Handler содержит зависимости для HTTP обработчиков
type Handler struct {
	readings      store.ReadingStore
	thresholds    store.ThresholdStore
	alerter       *alerting.Alerter
	forecaster    *forecast.Forecaster
	authenticator auth.Authenticator
	issuer        *auth.TokenAuthenticator
	cache         *cache.RedisCache
	displayLoc    *time.Location
	startTime     time.Time
}

// NewHandler создает новый обработчик
// issuer равен nil в режиме API ключей, cache может быть nil
func NewHandler(
	readings store.ReadingStore,
	thresholds store.ThresholdStore,
	alerter *alerting.Alerter,
	forecaster *forecast.Forecaster,
	authenticator auth.Authenticator,
	issuer *auth.TokenAuthenticator,
	redisCache *cache.RedisCache,
	displayLoc *time.Location,
) *Handler {
	return &Handler{
		readings:      readings,
		thresholds:    thresholds,
		alerter:       alerter,
		forecaster:    forecaster,
		authenticator: authenticator,
		issuer:        issuer,
		cache:         redisCache,
		displayLoc:    displayLoc,
		startTime:     time.Now(),
	}
}

// DeviceLoginHandler обрабатывает POST /auth/device - выдача токена устройству
// Маршрут регистрируется только в режиме токенов
func (h *Handler) DeviceLoginHandler(w http.ResponseWriter, r *http.Request) {
	timer := prometheus.NewTimer(metrics.RequestDuration.WithLabelValues("/auth/device", r.Method))
	defer timer.ObserveDuration()

	var req models.DeviceLoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.DeviceID == "" {
		h.respondError(w, "Missing device_id", http.StatusBadRequest)
		metrics.RequestsTotal.WithLabelValues("/auth/device", r.Method, "400").Inc()
		return
	}

	token, err := h.issuer.Issue(req.DeviceID)
	if err != nil {
		h.respondError(w, "Internal error", http.StatusInternalServerError)
		metrics.RequestsTotal.WithLabelValues("/auth/device", r.Method, "500").Inc()
		return
	}

	metrics.RequestsTotal.WithLabelValues("/auth/device", r.Method, "200").Inc()
	h.respondJSON(w, models.TokenResponse{AccessToken: token}, http.StatusOK)
}

// IngestHandler обрабатывает POST /data - прием показания датчика
func (h *Handler) IngestHandler(w http.ResponseWriter, r *http.Request) {
	timer := prometheus.NewTimer(metrics.RequestDuration.WithLabelValues("/data", r.Method))
	defer timer.ObserveDuration()

	identity, err := h.authenticator.Authenticate(r, auth.RoleDevice)
	if err != nil {
		metrics.AuthFailures.Inc()
		h.respondAppError(w, "/data", r.Method, models.ErrUnauthorized)
		return
	}

	var req models.IngestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondAppError(w, "/data", r.Method, models.ErrInvalidInput)
		return
	}

	// Отсутствующее или нечисловое поле отклоняется до записи в хранилище
	if req.Temperature == nil || req.Humidity == nil {
		h.respondAppError(w, "/data", r.Method, models.ErrInvalidInput)
		return
	}

	// В режиме токенов устройство называет проверенный токен, а не тело запроса
	deviceID := identity.DeviceID
	if deviceID == "" {
		deviceID = req.DeviceID
	}
	if deviceID == "" {
		h.respondAppError(w, "/data", r.Method, models.ErrInvalidInput)
		return
	}

	reading, err := h.readings.Append(r.Context(), deviceID, *req.Temperature, *req.Humidity)
	if err != nil {
		h.respondAppError(w, "/data", r.Method, models.ErrInternal)
		return
	}
	metrics.ReadingsReceived.Inc()

	// Проверка порога выполняется синхронно с приемом
	if _, err := h.alerter.Evaluate(r.Context(), reading); err != nil {
		h.respondAppError(w, "/data", r.Method, models.ErrInternal)
		return
	}

	// Кэшируем показание в Redis
	if h.cache != nil {
		if err := h.cache.CacheReading(reading); err != nil {
			metrics.CacheMisses.Inc()
		} else {
			metrics.CacheHits.Inc()
		}
	}

	metrics.RequestsTotal.WithLabelValues("/data", r.Method, "201").Inc()
	h.respondJSON(w, map[string]string{"status": "success"}, http.StatusCreated)
}

// DataHandler обрабатывает GET /data - вся история показаний
// Метки времени переводятся в зону отображения только на границе
func (h *Handler) DataHandler(w http.ResponseWriter, r *http.Request) {
	timer := prometheus.NewTimer(metrics.RequestDuration.WithLabelValues("/data", r.Method))
	defer timer.ObserveDuration()

	if _, err := h.authenticator.Authenticate(r, auth.RoleDashboard); err != nil {
		metrics.AuthFailures.Inc()
		h.respondAppError(w, "/data", r.Method, models.ErrUnauthorized)
		return
	}

	readings, err := h.readings.ListAll(r.Context())
	if err != nil {
		h.respondAppError(w, "/data", r.Method, models.ErrInternal)
		return
	}

	result := make([]models.ReadingView, 0, len(readings))
	for _, reading := range readings {
		result = append(result, models.ReadingView{
			Timestamp:   reading.Timestamp.In(h.displayLoc).Format(time.RFC3339),
			Temperature: reading.Temperature,
			Humidity:    reading.Humidity,
		})
	}

	metrics.RequestsTotal.WithLabelValues("/data", r.Method, "200").Inc()
	h.respondJSON(w, result, http.StatusOK)
}

// PredictHandler обрабатывает GET /predict - прогноз температуры
// Параметр hours задает горизонт, model=trend включает расширенную стратегию
func (h *Handler) PredictHandler(w http.ResponseWriter, r *http.Request) {
	timer := prometheus.NewTimer(metrics.RequestDuration.WithLabelValues("/predict", r.Method))
	defer timer.ObserveDuration()

	if _, err := h.authenticator.Authenticate(r, auth.RoleDashboard); err != nil {
		metrics.AuthFailures.Inc()
		h.respondAppError(w, "/predict", r.Method, models.ErrUnauthorized)
		return
	}

	hours := defaultHorizonHours
	if hoursStr := r.URL.Query().Get("hours"); hoursStr != "" {
		n, err := strconv.Atoi(hoursStr)
		if err != nil || n < 0 {
			h.respondAppError(w, "/predict", r.Method, models.ErrInvalidInput)
			return
		}
		hours = n
	}

	model := r.URL.Query().Get("model")
	if model == "" {
		model = forecast.StrategyWindow
	}
	if model != forecast.StrategyWindow && model != forecast.StrategyTrend {
		h.respondAppError(w, "/predict", r.Method, models.ErrInvalidInput)
		return
	}

	// Недавно вычисленный прогноз отдаем из кэша
	cacheKey := fmt.Sprintf("%s:%d", model, hours)
	if h.cache != nil {
		if cached, ok := h.cache.GetForecast(cacheKey); ok {
			metrics.CacheHits.Inc()
			metrics.RequestsTotal.WithLabelValues("/predict", r.Method, "200").Inc()
			h.respondJSON(w, cached, http.StatusOK)
			return
		}
		metrics.CacheMisses.Inc()
	}

	startForecast := time.Now()
	var result forecast.Result
	var err error
	if model == forecast.StrategyTrend {
		result, err = h.forecaster.Trend(r.Context(), time.Now().UTC(), hours)
	} else {
		result, err = h.forecaster.WindowAverage(r.Context(), time.Now().UTC(), hours)
	}
	metrics.ForecastDuration.Observe(time.Since(startForecast).Seconds())

	if err != nil {
		if errors.Is(err, models.ErrInsufficientData) {
			h.respondAppError(w, "/predict", r.Method, models.ErrInsufficientData)
		} else {
			h.respondAppError(w, "/predict", r.Method, models.ErrInternal)
		}
		return
	}

	response := models.ForecastResponse{
		Prediction: result.Prediction,
		DataPoints: result.DataPoints,
		Strategy:   result.Strategy,
		FutureTime: result.FutureTime.In(h.displayLoc).Format(time.RFC3339),
	}

	if h.cache != nil {
		_ = h.cache.CacheForecast(cacheKey, response)
	}

	metrics.RequestsTotal.WithLabelValues("/predict", r.Method, "200").Inc()
	h.respondJSON(w, response, http.StatusOK)
}

// GetThresholdHandler обрабатывает GET /threshold - текущий порог
func (h *Handler) GetThresholdHandler(w http.ResponseWriter, r *http.Request) {
	timer := prometheus.NewTimer(metrics.RequestDuration.WithLabelValues("/threshold", r.Method))
	defer timer.ObserveDuration()

	if _, err := h.authenticator.Authenticate(r, auth.RoleDashboard); err != nil {
		metrics.AuthFailures.Inc()
		h.respondAppError(w, "/threshold", r.Method, models.ErrUnauthorized)
		return
	}

	value, err := h.thresholds.Get(r.Context())
	if err != nil {
		h.respondAppError(w, "/threshold", r.Method, models.ErrInternal)
		return
	}

	metrics.RequestsTotal.WithLabelValues("/threshold", r.Method, "200").Inc()
	h.respondJSON(w, models.ThresholdResponse{Threshold: value}, http.StatusOK)
}

// SetThresholdHandler обрабатывает POST /set-threshold - установка порога
func (h *Handler) SetThresholdHandler(w http.ResponseWriter, r *http.Request) {
	timer := prometheus.NewTimer(metrics.RequestDuration.WithLabelValues("/set-threshold", r.Method))
	defer timer.ObserveDuration()

	if _, err := h.authenticator.Authenticate(r, auth.RoleDashboard); err != nil {
		metrics.AuthFailures.Inc()
		h.respondAppError(w, "/set-threshold", r.Method, models.ErrUnauthorized)
		return
	}

	var req models.ThresholdRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Temperature == nil {
		h.respondAppError(w, "/set-threshold", r.Method, models.ErrInvalidInput)
		return
	}

	value, err := h.thresholds.Set(r.Context(), *req.Temperature)
	if err != nil {
		if errors.Is(err, models.ErrInvalidInput) {
			h.respondAppError(w, "/set-threshold", r.Method, models.ErrInvalidInput)
		} else {
			h.respondAppError(w, "/set-threshold", r.Method, models.ErrInternal)
		}
		return
	}
	metrics.CurrentThreshold.Set(value)

	metrics.RequestsTotal.WithLabelValues("/set-threshold", r.Method, "200").Inc()
	h.respondJSON(w, models.ThresholdResponse{Threshold: value}, http.StatusOK)
}

// HealthHandler обрабатывает GET /healthz - проверка здоровья
func (h *Handler) HealthHandler(w http.ResponseWriter, r *http.Request) {
	redisStatus := "disconnected"
	if h.cache != nil && h.cache.Ping() == nil {
		redisStatus = "connected"
	}

	status := models.HealthStatus{
		Status:    "healthy",
		Timestamp: time.Now().UTC(),
		Redis:     redisStatus,
		Uptime:    time.Since(h.startTime).String(),
	}

	h.respondJSON(w, status, http.StatusOK)
}

// respondAppError транслирует ошибку ядра в HTTP статус и JSON тело
// Внутренние подробности хранилища наружу не выходят
func (h *Handler) respondAppError(w http.ResponseWriter, endpoint, method string, err error) {
	status := http.StatusInternalServerError
	message := "Internal error"

	switch {
	case errors.Is(err, models.ErrUnauthorized):
		status = http.StatusUnauthorized
		message = "Unauthorized"
	case errors.Is(err, models.ErrInvalidInput):
		status = http.StatusBadRequest
		message = "Invalid input"
	case errors.Is(err, models.ErrInsufficientData):
		status = http.StatusBadRequest
		message = "Not enough data"
	}

	metrics.RequestsTotal.WithLabelValues(endpoint, method, strconv.Itoa(status)).Inc()
	h.respondError(w, message, status)
}

// respondJSON отправляет JSON ответ
func (h *Handler) respondJSON(w http.ResponseWriter, data interface{}, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// respondError отправляет ошибку в JSON формате
func (h *Handler) respondError(w http.ResponseWriter, message string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
