package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Redis.Addr != "redis:6379" || cfg.Workers != 8 || cfg.ActivationTTL != 36*time.Hour {
		t.Errorf("unexpected defaults %+v", cfg)
	}
}

func TestLoadFileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yml")
	yml := `
mq:
  host: mq.internal
  port: "5673"
postgres:
  host: db.internal
  port: "5433"
  user: tsdb
  db: tsdb
workers: 4
activation_ttl: 48h
log:
  format: json
`
	if err := os.WriteFile(path, []byte(yml), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("CONFIG_FILE", path)
	t.Setenv("POSTGRES_HOST", "override.internal")
	t.Setenv("WORKERS", "16")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.MQ.URL() != "amqp://:@mq.internal:5673/" {
		t.Errorf("mq url %s", cfg.MQ.URL())
	}
	if cfg.Postgres.Host != "override.internal" || cfg.Postgres.User != "tsdb" {
		t.Errorf("postgres %+v", cfg.Postgres)
	}
	if cfg.Workers != 16 || cfg.ActivationTTL != 48*time.Hour || cfg.Log.Format != "json" {
		t.Errorf("unexpected config %+v", cfg)
	}
	if !strings.Contains(cfg.Postgres.DSN(), "dbname=tsdb") {
		t.Errorf("dsn %s", cfg.Postgres.DSN())
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"bad workers", map[string]string{"WORKERS": "many"}},
		{"no workers", map[string]string{"WORKERS": "0"}},
		{"bad ttl", map[string]string{"ACTIVATION_TTL": "soon"}},
		{"short ttl", map[string]string{"ACTIVATION_TTL": "5m"}},
		{"bad redis addr", map[string]string{"REDIS_ADDR": "redis"}},
		{"bad log format", map[string]string{"LOG_FORMAT": "xml"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("CONFIG_FILE", "")
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			if _, err := Load(); err == nil {
				t.Error("expected an error")
			}
		})
	}
}

func TestLoadReferenceEnv(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("NR_REFERENCE_API", "https://reference.example.com/api")
	t.Setenv("NR_REFERENCE_API_KEY", "secret")
	t.Setenv("REFERENCE_INTERVAL", "6h")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	want := ReferenceConfig{URL: "https://reference.example.com/api", APIKey: "secret", Interval: 6 * time.Hour}
	if cfg.Reference != want {
		t.Errorf("reference %+v, want %+v", cfg.Reference, want)
	}

	t.Setenv("REFERENCE_INTERVAL", "10s")
	if _, err := Load(); err == nil {
		t.Error("expected an error for a short interval")
	}
}
