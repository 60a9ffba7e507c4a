package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/go-sql-driver/mysql"
)

func TestLoadCreatesDefaultOnFirstRun(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Language != "en" || cfg.TickCron != "@every 1m" {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("default config not written: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Fatalf("config perms = %o, want 600", perm)
	}
}

func TestLoadNormalizesPartialFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	yml := []byte(`
language: GU
location:
  name: Palitana
  latitude: 21.52
  longitude: 71.82
content:
  base_url: https://content.test/
ics:
  - id: sangh
    url: https://sangh.test/events.ics
`)
	if err := os.WriteFile(path, yml, 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Language != "gu" {
		t.Fatalf("language = %q, want gu", cfg.Language)
	}
	if cfg.Content.BaseURL != "https://content.test" {
		t.Fatalf("base url = %q", cfg.Content.BaseURL)
	}
	if cfg.Timezone != "Asia/Kolkata" || cfg.Listen == "" {
		t.Fatalf("defaults not applied: %+v", cfg)
	}
	if len(cfg.ICS) != 1 || cfg.ICS[0].ID != "sangh" {
		t.Fatalf("ics = %+v", cfg.ICS)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}

func TestLoadUnknownLanguageFallsBack(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("language: fr\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Language != "en" {
		t.Fatalf("language = %q, want en", cfg.Language)
	}
}

func TestEnvOverridesSecrets(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	yml := []byte(`
content:
  api_key: from-file
redis:
  url: redis://file:6379/0
basic_auth:
  username: admin
  password: file-pass
`)
	if err := os.WriteFile(path, yml, 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv(EnvContentAPIKey, "from-env")
	t.Setenv(EnvRedisURL, "redis://env:6379/1")
	t.Setenv(EnvBasicAuthPassword, "env-pass")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Content.APIKey != "from-env" {
		t.Errorf("api key = %q", cfg.Content.APIKey)
	}
	if cfg.Redis.URL != "redis://env:6379/1" {
		t.Errorf("redis url = %q", cfg.Redis.URL)
	}
	if cfg.BasicAuth == nil || cfg.BasicAuth.Password != "env-pass" {
		t.Errorf("basic auth = %+v", cfg.BasicAuth)
	}
}

func TestDotEnvNextToConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("database:\n  host: db\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte(EnvDatabasePassword+"=s3cr3t@x\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	// Register the variable for restoration, then clear it so .env can set it.
	t.Setenv(EnvDatabasePassword, "")
	os.Unsetenv(EnvDatabasePassword)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Database.Password != "s3cr3t@x" {
		t.Fatalf("password = %q", cfg.Database.Password)
	}
}

func TestDatabaseDSN(t *testing.T) {
	d := DatabaseConfig{Host: "db", User: "jain", Password: "p@ss:word/1", Name: "jaincal"}

	parsed, err := mysql.ParseDSN(d.DSN())
	if err != nil {
		t.Fatalf("ParseDSN(%q): %v", d.DSN(), err)
	}
	if parsed.Addr != "db:3306" {
		t.Errorf("addr = %q, want db:3306", parsed.Addr)
	}
	if parsed.Passwd != d.Password {
		t.Errorf("password = %q, want %q", parsed.Passwd, d.Password)
	}
	if !parsed.ParseTime || !parsed.MultiStatements {
		t.Errorf("parseTime/multiStatements not set: %+v", parsed)
	}

	d.Host = "db:3307"
	parsed, err = mysql.ParseDSN(d.DSN())
	if err != nil {
		t.Fatal(err)
	}
	if parsed.Addr != "db:3307" {
		t.Errorf("explicit port lost: %q", parsed.Addr)
	}
}

func TestValidate(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Timezone = "Mars/Olympus"
	cfg.Location.Latitude = 120
	cfg.ICS = []ICSConfig{{ID: "x"}}
	cfg.BasicAuth = &BasicAuthConfig{}

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected validation errors")
	}
	if cfg.Zone().String() != "UTC" {
		t.Fatalf("unknown zone should fall back to UTC, got %s", cfg.Zone())
	}
}

func TestValidateCronSpecs(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config must validate: %v", err)
	}
	cfg.TickCron = "every minute"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for malformed tick schedule")
	}
}
