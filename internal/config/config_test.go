package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeTempConfig(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write temp config: %v", err)
	}
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeTempConfig(t, `
pool:
  - url: http://backend-a:9000
  - url: http://backend-b:9000
    weight: 3
`)
	cfg, err := load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Server.Addr != ":5000" {
		t.Errorf("server.addr = %q, want :5000", cfg.Server.Addr)
	}
	if cfg.Admin.Addr != ":8000" {
		t.Errorf("admin.addr = %q, want :8000", cfg.Admin.Addr)
	}
	if cfg.Observe.MetricsPollSeconds != 5 || cfg.Observe.HealthProbeSeconds != 10 {
		t.Errorf("unexpected observe defaults: %+v", cfg.Observe)
	}
	if len(cfg.Pool) != 2 {
		t.Fatalf("expected 2 pool entries, got %d", len(cfg.Pool))
	}
	if cfg.Pool[0].Name != cfg.Pool[0].URL {
		t.Errorf("expected empty backend name to default to its URL")
	}
	if cfg.Pool[0].Weight != 1 {
		t.Errorf("weight default = %d, want 1", cfg.Pool[0].Weight)
	}
	if cfg.Pool[1].Weight != 3 {
		t.Errorf("explicit weight = %d, want 3", cfg.Pool[1].Weight)
	}
}

func TestLoadRejectsEmptyPool(t *testing.T) {
	path := writeTempConfig(t, "pool: []\n")
	if _, err := load(path); err == nil {
		t.Fatal("expected an error for an empty pool")
	}
}

func TestLoadRejectsDuplicateBackendNames(t *testing.T) {
	path := writeTempConfig(t, `
pool:
  - name: same
    url: http://a:9000
  - name: same
    url: http://b:9000
`)
	if _, err := load(path); err == nil {
		t.Fatal("expected an error for duplicate backend names")
	}
}

func TestLoadRejectsSameServerAndAdminAddr(t *testing.T) {
	path := writeTempConfig(t, `
server:
  addr: ":9000"
admin:
  addr: ":9000"
pool:
  - url: http://a:9000
`)
	if _, err := load(path); err == nil {
		t.Fatal("expected an error when server.addr == admin.addr")
	}
}

func TestLoadRejectsGeoIPEnabledWithoutDatabasePath(t *testing.T) {
	path := writeTempConfig(t, `
geoip:
  enabled: true
pool:
  - url: http://a:9000
`)
	if _, err := load(path); err == nil {
		t.Fatal("expected an error when geoip is enabled without a database_path")
	}
}

func TestLoadExpandsEnvironmentVariables(t *testing.T) {
	t.Setenv("LB_BACKEND_URL", "http://from-env:9000")
	path := writeTempConfig(t, `
pool:
  - url: "${LB_BACKEND_URL}"
`)
	cfg, err := load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Pool[0].URL != "http://from-env:9000" {
		t.Fatalf("url = %q, want env-expanded value", cfg.Pool[0].URL)
	}
}
