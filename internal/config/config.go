// Package config загружает конфигурацию сервиса через viper
// Источники: config.yaml (опционально) и переменные окружения
package config

import (
	"log"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Режимы аутентификации
const (
	AuthModeAPIKey = "apikey"
	AuthModeToken  = "token"
)

// Config содержит конфигурацию сервиса
type Config struct {
	ServerAddr string `mapstructure:"server_addr"`

	AuthMode        string `mapstructure:"auth_mode"`
	DeviceAPIKey    string `mapstructure:"device_api_key"`
	DashboardAPIKey string `mapstructure:"dashboard_api_key"`
	JWTSecret       string `mapstructure:"jwt_secret"`
	TokenTTLMinutes int    `mapstructure:"token_ttl_minutes"`

	DatabaseURL string `mapstructure:"database_url"`

	RedisAddr     string `mapstructure:"redis_addr"`
	RedisPassword string `mapstructure:"redis_password"`
	RedisDB       int    `mapstructure:"redis_db"`

	DefaultThreshold    float64 `mapstructure:"default_threshold"`
	ForecastWindowHours int     `mapstructure:"forecast_window_hours"`
	ForecastMinPoints   int     `mapstructure:"forecast_min_points"`
	ForecastFitBudgetMs int     `mapstructure:"forecast_fit_budget_ms"`
	DisplayTimezone     string  `mapstructure:"display_timezone"`

	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout"`
}

// Load читает конфигурацию из файла и окружения
// Отсутствие файла не является ошибкой, действуют значения по умолчанию
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(path)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return Config{}, err
		}
		log.Printf("No config file found, using defaults and environment")
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// setDefaults задает значения по умолчанию
func setDefaults(v *viper.Viper) {
	v.SetDefault("server_addr", ":8080")

	v.SetDefault("auth_mode", AuthModeAPIKey)
	v.SetDefault("device_api_key", "DEVICE_SECRET_123")
	v.SetDefault("dashboard_api_key", "DASHBOARD_SECRET_456")
	v.SetDefault("jwt_secret", "super-secret")
	v.SetDefault("token_ttl_minutes", 60)

	v.SetDefault("database_url", "")

	v.SetDefault("redis_addr", "localhost:6379")
	v.SetDefault("redis_password", "")
	v.SetDefault("redis_db", 0)

	v.SetDefault("default_threshold", 30.0)
	v.SetDefault("forecast_window_hours", 6)
	v.SetDefault("forecast_min_points", 10)
	v.SetDefault("forecast_fit_budget_ms", 2000)
	v.SetDefault("display_timezone", "Asia/Manila")

	v.SetDefault("read_timeout", 15*time.Second)
	v.SetDefault("write_timeout", 15*time.Second)
	v.SetDefault("idle_timeout", 60*time.Second)
}
