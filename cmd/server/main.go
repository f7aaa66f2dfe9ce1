// Package main запускает сервис приема телеметрии датчиков
// Сервис реализует:
// - HTTP API для приема показаний от IoT-устройств
// - Аутентификацию по API ключам или выданным JWT токенам
// - Хранение показаний в PostgreSQL или в памяти
// - Оповещения при превышении порога температуры
// - Прогноз температуры (среднее по окну, линейный тренд)
// - Кэширование в Redis
// - Экспорт метрик в Prometheus
package main

import (
	"context"
	"log"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"telemetry-service/internal/alerting"
	"telemetry-service/internal/auth"
	"telemetry-service/internal/cache"
	"telemetry-service/internal/config"
	"telemetry-service/internal/forecast"
	"telemetry-service/internal/handlers"
	"telemetry-service/internal/metrics"
	"telemetry-service/internal/store"
)

func main() {
	log.Println("Starting Telemetry Service...")
	log.Printf("Go version: %s", runtime.Version())

	// Загружаем конфигурацию
	cfg, err := config.Load(".")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Выбираем хранилище: PostgreSQL при заданном database_url, иначе память
	var readings store.ReadingStore
	var thresholds store.ThresholdStore
	if cfg.DatabaseURL != "" {
		pg, err := store.NewPostgresStore(cfg.DatabaseURL, cfg.DefaultThreshold)
		if err != nil {
			log.Fatalf("Failed to connect to PostgreSQL: %v", err)
		}
		defer pg.Close()
		readings, thresholds = pg, pg
		log.Println("Using PostgreSQL store")
	} else {
		mem := store.NewMemoryStore(cfg.DefaultThreshold)
		readings, thresholds = mem, mem
		log.Println("Warning: no database_url configured, using in-memory store")
	}

	// Инициализируем Redis кэш
	var redisCache *cache.RedisCache

	// Пробуем подключиться к Redis с повторами
	for i := 0; i < 5; i++ {
		redisCache, err = cache.NewRedisCache(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err == nil {
			log.Printf("Connected to Redis at %s", cfg.RedisAddr)
			break
		}
		log.Printf("Redis connection attempt %d failed: %v", i+1, err)
		if i < 4 {
			time.Sleep(time.Duration(i+1) * time.Second)
		}
	}

	if err != nil {
		log.Printf("Warning: Failed to connect to Redis, running without cache: %v", err)
		redisCache = nil
	}

	// Выбираем режим аутентификации, он не меняется до перезапуска
	var authenticator auth.Authenticator
	var issuer *auth.TokenAuthenticator
	switch cfg.AuthMode {
	case config.AuthModeToken:
		issuer = auth.NewTokenAuthenticator(cfg.JWTSecret,
			time.Duration(cfg.TokenTTLMinutes)*time.Minute, cfg.DashboardAPIKey)
		authenticator = issuer
		log.Println("Auth mode: issued device tokens")
	case config.AuthModeAPIKey:
		authenticator = auth.NewKeyAuthenticator(cfg.DeviceAPIKey, cfg.DashboardAPIKey)
		log.Println("Auth mode: static API keys")
	default:
		log.Fatalf("Unknown auth_mode %q", cfg.AuthMode)
	}

	// Зона отображения временных меток, хранение всегда в UTC
	displayLoc, err := time.LoadLocation(cfg.DisplayTimezone)
	if err != nil {
		log.Printf("Warning: unknown display_timezone %q, using UTC", cfg.DisplayTimezone)
		displayLoc = time.UTC
	}

	// Создаем компоненты ядра
	alerter := alerting.NewAlerter(thresholds, redisCache)
	forecaster := forecast.New(readings,
		time.Duration(cfg.ForecastWindowHours)*time.Hour,
		cfg.ForecastMinPoints,
		time.Duration(cfg.ForecastFitBudgetMs)*time.Millisecond)
	handler := handlers.NewHandler(readings, thresholds, alerter, forecaster,
		authenticator, issuer, redisCache, displayLoc)

	// Настраиваем маршруты
	router := mux.NewRouter()

	// API эндпоинты
	router.HandleFunc("/data", handler.IngestHandler).Methods("POST")
	router.HandleFunc("/data", handler.DataHandler).Methods("GET")
	router.HandleFunc("/predict", handler.PredictHandler).Methods("GET")
	router.HandleFunc("/threshold", handler.GetThresholdHandler).Methods("GET")
	router.HandleFunc("/set-threshold", handler.SetThresholdHandler).Methods("POST")
	router.HandleFunc("/healthz", handler.HealthHandler).Methods("GET")
	if issuer != nil {
		router.HandleFunc("/auth/device", handler.DeviceLoginHandler).Methods("POST")
	}

	// Prometheus метрики
	router.Handle("/prometheus", promhttp.Handler())

	// pprof для профилирования
	router.PathPrefix("/debug/pprof/").Handler(http.DefaultServeMux)

	// Middleware для логирования и метрик
	router.Use(loggingMiddleware)
	router.Use(goroutineGaugeMiddleware)

	// Создаем HTTP сервер с настройками таймаутов
	server := &http.Server{
		Addr:         cfg.ServerAddr,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	// Graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	// Запускаем сервер в горутине
	go func() {
		log.Printf("Server listening on %s", cfg.ServerAddr)
		log.Printf("Endpoints:")
		log.Printf("  POST /data          - Submit sensor reading")
		log.Printf("  GET  /data          - Get reading history")
		log.Printf("  GET  /predict       - Get temperature forecast")
		log.Printf("  GET  /threshold     - Get alert threshold")
		log.Printf("  POST /set-threshold - Set alert threshold")
		log.Printf("  GET  /healthz       - Health check")
		log.Printf("  GET  /prometheus    - Prometheus metrics")
		if issuer != nil {
			log.Printf("  POST /auth/device   - Issue device token")
		}

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	// Ожидаем сигнал завершения
	<-stop
	log.Println("Shutting down server...")

	// Контекст с таймаутом для завершения
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Закрываем Redis
	if redisCache != nil {
		redisCache.Close()
	}

	// Завершаем HTTP сервер
	if err := server.Shutdown(ctx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}

	log.Println("Server stopped")
}

// loggingMiddleware логирует HTTP запросы
func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		log.Printf("%s %s %s", r.Method, r.URL.Path, time.Since(start))
	})
}

// goroutineGaugeMiddleware обновляет метрику горутин для каждого запроса
func goroutineGaugeMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		metrics.ActiveGoroutines.Set(float64(runtime.NumGoroutine()))
		next.ServeHTTP(w, r)
	})
}
