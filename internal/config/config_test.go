package config

import (
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	// No config file in a temp dir: defaults apply
	cfg, err := Load(t.TempDir())
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.ServerAddr != ":8080" {
		t.Errorf("Expected :8080, got %s", cfg.ServerAddr)
	}
	if cfg.AuthMode != AuthModeAPIKey {
		t.Errorf("Expected apikey mode, got %s", cfg.AuthMode)
	}
	if cfg.DefaultThreshold != 30.0 {
		t.Errorf("Expected default threshold 30.0, got %.1f", cfg.DefaultThreshold)
	}
	if cfg.ForecastWindowHours != 6 {
		t.Errorf("Expected 6 hour window, got %d", cfg.ForecastWindowHours)
	}
	if cfg.ForecastMinPoints != 10 {
		t.Errorf("Expected 10 min points, got %d", cfg.ForecastMinPoints)
	}
	if cfg.DisplayTimezone != "Asia/Manila" {
		t.Errorf("Expected Asia/Manila, got %s", cfg.DisplayTimezone)
	}
	if cfg.ReadTimeout != 15*time.Second {
		t.Errorf("Expected 15s read timeout, got %v", cfg.ReadTimeout)
	}
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("AUTH_MODE", "token")
	t.Setenv("SERVER_ADDR", ":9090")

	cfg, err := Load(t.TempDir())
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.AuthMode != AuthModeToken {
		t.Errorf("Expected token mode from env, got %s", cfg.AuthMode)
	}
	if cfg.ServerAddr != ":9090" {
		t.Errorf("Expected :9090 from env, got %s", cfg.ServerAddr)
	}
}
