package config

import (
	"path/filepath"
	"testing"

	"wish-machine/internal/simulation"
)

func TestLoad_Defaults(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("DATA_PATH", dir)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.HTTPAddr != ":8080" {
		t.Errorf("HTTPAddr = %q, want :8080", cfg.HTTPAddr)
	}
	if cfg.DBPath != filepath.Join(dir, "wishmachine.db") {
		t.Errorf("DBPath = %q", cfg.DBPath)
	}
	if cfg.LogDir != filepath.Join(dir, "logs") {
		t.Errorf("LogDir = %q", cfg.LogDir)
	}
	if cfg.WishRatePerHour != 30 || cfg.UserCacheSize != 1024 {
		t.Errorf("limits = %d / %d", cfg.WishRatePerHour, cfg.UserCacheSize)
	}
	if cfg.SimulationModel() != simulation.ModelMixture {
		t.Errorf("SimulationModel() = %q", cfg.SimulationModel())
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("DATA_PATH", t.TempDir())
	t.Setenv("WM_HTTP_ADDR", "127.0.0.1:9000")
	t.Setenv("WM_CORS_ORIGINS", "https://a.example,https://b.example")
	t.Setenv("WM_MODEL", "weighted")
	t.Setenv("WM_ANALYTIC_BASELINE", "true")
	t.Setenv("WM_DB_PATH", "/tmp/custom.db")
	t.Setenv("WM_TRUSTED_PROXIES", "10.0.0.0/8,192.168.1.5")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.HTTPAddr != "127.0.0.1:9000" || cfg.DBPath != "/tmp/custom.db" {
		t.Errorf("cfg = %+v", cfg)
	}
	if len(cfg.CORSOrigins) != 2 || cfg.CORSOrigins[1] != "https://b.example" {
		t.Errorf("CORSOrigins = %v", cfg.CORSOrigins)
	}
	if len(cfg.TrustedProxies) != 2 || cfg.TrustedProxies[0] != "10.0.0.0/8" {
		t.Errorf("TrustedProxies = %v", cfg.TrustedProxies)
	}
	if !cfg.AnalyticBaseline || cfg.SimulationModel() != simulation.ModelWeighted {
		t.Errorf("model settings = %v / %q", cfg.AnalyticBaseline, cfg.Model)
	}
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"UnknownModel", "WM_MODEL", "quantum"},
		{"ZeroRate", "WM_WISH_RATE_PER_HOUR", "0"},
		{"BadInt", "WM_USER_CACHE_SIZE", "many"},
		{"BadBool", "WM_ANALYTIC_BASELINE", "perhaps"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("DATA_PATH", t.TempDir())
			t.Setenv(tt.key, tt.value)
			if _, err := Load(); err == nil {
				t.Errorf("Load() with %s=%s succeeded, want error", tt.key, tt.value)
			}
		})
	}
}
