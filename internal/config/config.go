package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net"
	"os"
	"path/filepath"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/go-sql-driver/mysql"
	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"
)

// Environment variables that override secrets from the YAML file. They may
// also be set in a .env file next to the config.
const (
	EnvContentAPIKey     = "JAINCAL_CONTENT_API_KEY"
	EnvRedisURL          = "JAINCAL_REDIS_URL"
	EnvDatabasePassword  = "JAINCAL_DB_PASSWORD"
	EnvBasicAuthPassword = "JAINCAL_BASIC_AUTH_PASSWORD"
)

// Supported display languages of the content source.
var Languages = []string{"en", "hi", "gu"}

// ICSConfig describes a community-event ICS feed imported into the store.
type ICSConfig struct {
	// URL is the ICS subscription endpoint.
	URL string `yaml:"url" json:"url"`
	// ID is an internal identifier used for de-dup and logging.
	ID string `yaml:"id" json:"id"`
	// Name is a human-friendly label.
	Name string `yaml:"name" json:"name"`
}

// BasicAuthConfig holds HTTP Basic Auth credentials for the API.
type BasicAuthConfig struct {
	Username string `yaml:"username" json:"username"`
	Password string `yaml:"password" json:"-"`
}

// LocationConfig is the place whose sunrise and sunset drive the Panchang.
type LocationConfig struct {
	Name      string  `yaml:"name" json:"name"`
	Latitude  float64 `yaml:"latitude" json:"latitude"`
	Longitude float64 `yaml:"longitude" json:"longitude"`
}

// ContentConfig configures the remote content source client.
type ContentConfig struct {
	BaseURL           string  `yaml:"base_url" json:"base_url"`
	APIKey            string  `yaml:"api_key" json:"-"`
	CacheDir          string  `yaml:"cache_dir" json:"cache_dir"`
	TimeoutSeconds    int     `yaml:"timeout_seconds" json:"timeout_seconds"`
	RequestsPerSecond float64 `yaml:"requests_per_second" json:"requests_per_second"`
}

// Timeout returns the per-request timeout.
func (c ContentConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// RedisConfig configures the dashboard cache. An empty URL disables it.
type RedisConfig struct {
	URL        string `yaml:"url" json:"-"`
	TTLMinutes int    `yaml:"ttl_minutes" json:"ttl_minutes"`
}

// TTL returns how long cached dashboard payloads live.
func (r RedisConfig) TTL() time.Duration {
	return time.Duration(r.TTLMinutes) * time.Minute
}

// DatabaseConfig configures the MySQL calendar store. An empty Host disables it.
type DatabaseConfig struct {
	Host     string `yaml:"host" json:"host"`
	User     string `yaml:"user" json:"user"`
	Password string `yaml:"password" json:"-"`
	Name     string `yaml:"name" json:"name"`
}

// DSN returns the go-sql-driver/mysql connection string, built with the
// driver's FormatDSN so passwords with special characters round-trip.
func (d DatabaseConfig) DSN() string {
	cfg := mysql.NewConfig()
	cfg.User = d.User
	cfg.Passwd = d.Password
	cfg.Net = "tcp"
	cfg.Addr = ensurePort(d.Host, "3306")
	cfg.DBName = d.Name
	cfg.ParseTime = true
	cfg.MultiStatements = true
	return cfg.FormatDSN()
}

func ensurePort(host, defaultPort string) string {
	if _, _, err := net.SplitHostPort(host); err != nil {
		return net.JoinHostPort(host, defaultPort)
	}
	return host
}

// WidgetConfig controls the periodic PNG capture of the dial.
type WidgetConfig struct {
	Enabled    bool   `yaml:"enabled" json:"enabled"`
	OutputPath string `yaml:"output_path" json:"output_path"`
	Width      int    `yaml:"width" json:"width"`
	Height     int    `yaml:"height" json:"height"`
}

// Config is the top-level application configuration.
type Config struct {
	// Listen is the HTTP listen address for the API.
	Listen string `yaml:"listen" json:"listen"`

	// Timezone is the IANA timezone of the location (e.g. "Asia/Kolkata").
	// "now" is always sampled in this zone.
	Timezone string `yaml:"timezone" json:"timezone"`

	// Language selects the localized labels: "en", "hi" or "gu".
	Language string `yaml:"language" json:"language"`

	Location LocationConfig `yaml:"location" json:"location"`
	Content  ContentConfig  `yaml:"content" json:"content"`

	// RefreshCron is the cron schedule of the content refresh job.
	RefreshCron string `yaml:"refresh" json:"refresh"`

	// TickCron is the cron schedule of the evaluation tick.
	TickCron string `yaml:"tick" json:"tick"`

	Redis    RedisConfig    `yaml:"redis" json:"redis"`
	Database DatabaseConfig `yaml:"database" json:"database"`

	// ICS is the list of community-event feeds.
	ICS []ICSConfig `yaml:"ics" json:"ics"`

	Widget WidgetConfig `yaml:"widget" json:"widget"`

	// BasicAuth, if non-nil, enables HTTP Basic Authentication on all endpoints
	// except /health.
	BasicAuth *BasicAuthConfig `yaml:"basic_auth,omitempty" json:"basic_auth,omitempty"`
}

// DefaultConfig returns an in-memory default configuration.
func DefaultConfig() *Config {
	c := &Config{
		Location: LocationConfig{
			Name:      "Ahmedabad",
			Latitude:  23.0225,
			Longitude: 72.5714,
		},
	}
	c.Normalize()
	return c
}

// Normalize fills in missing/zero values with sensible defaults so that
// partially-filled configs still behave correctly.
func (c *Config) Normalize() {
	if c.Listen == "" {
		c.Listen = "127.0.0.1:8080"
	}
	if c.Timezone == "" {
		c.Timezone = "Asia/Kolkata"
	}
	c.Language = strings.ToLower(strings.TrimSpace(c.Language))
	if !validLanguage(c.Language) {
		c.Language = "en"
	}

	if c.Content.BaseURL == "" {
		c.Content.BaseURL = "https://api.jainpanchang.example"
	}
	c.Content.BaseURL = strings.TrimRight(c.Content.BaseURL, "/")
	if c.Content.CacheDir == "" {
		c.Content.CacheDir = "cache"
	}
	if c.Content.TimeoutSeconds <= 0 {
		c.Content.TimeoutSeconds = 15
	}
	if c.Content.RequestsPerSecond <= 0 {
		c.Content.RequestsPerSecond = 2
	}

	if c.RefreshCron == "" {
		c.RefreshCron = "0 */6 * * *"
	}
	if c.TickCron == "" {
		c.TickCron = "@every 1m"
	}
	if c.Redis.TTLMinutes <= 0 {
		c.Redis.TTLMinutes = 360
	}
	if c.Database.Name == "" {
		c.Database.Name = "jaincal"
	}
	if c.ICS == nil {
		c.ICS = []ICSConfig{}
	}

	if c.Widget.OutputPath == "" {
		c.Widget.OutputPath = "widget.png"
	}
	if c.Widget.Width <= 0 {
		c.Widget.Width = 480
	}
	if c.Widget.Height <= 0 {
		c.Widget.Height = 280
	}
}

func validLanguage(lang string) bool {
	for _, l := range Languages {
		if l == lang {
			return true
		}
	}
	return false
}

// Zone returns the configured time zone, falling back to UTC when the name
// is unknown to the system tz database.
func (c *Config) Zone() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// Validate reports settings that cannot be defaulted.
func (c *Config) Validate() error {
	var errs []error
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		errs = append(errs, fmt.Errorf("timezone %q: %w", c.Timezone, err))
	}
	if c.Location.Latitude < -90 || c.Location.Latitude > 90 {
		errs = append(errs, fmt.Errorf("location.latitude %v out of range", c.Location.Latitude))
	}
	if c.Location.Longitude < -180 || c.Location.Longitude > 180 {
		errs = append(errs, fmt.Errorf("location.longitude %v out of range", c.Location.Longitude))
	}
	if _, err := cron.ParseStandard(c.RefreshCron); err != nil {
		errs = append(errs, fmt.Errorf("refresh %q: %w", c.RefreshCron, err))
	}
	if _, err := cron.ParseStandard(c.TickCron); err != nil {
		errs = append(errs, fmt.Errorf("tick %q: %w", c.TickCron, err))
	}
	for i, src := range c.ICS {
		if src.URL == "" {
			errs = append(errs, fmt.Errorf("ics[%d]: url is empty", i))
		}
	}
	if c.BasicAuth != nil && c.BasicAuth.Username == "" {
		errs = append(errs, errors.New("basic_auth.username is empty"))
	}
	return errors.Join(errs...)
}

// Load loads configuration from the given YAML path.
//
// Behavior:
//   - A .env file next to the config (if any) is loaded into the process
//     environment without overriding variables that are already set.
//   - If the config file does not exist, a default config is written with
//     0600 perms and returned.
//   - Otherwise the YAML is unmarshaled and normalized.
//   - JAINCAL_* environment variables override secrets in either case.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}

	_ = godotenv.Load(filepath.Join(filepath.Dir(path), ".env"))

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			// First run: create default config file. Secrets from the
			// environment are applied after saving so they never hit disk.
			cfg := DefaultConfig()
			saveErr := Save(path, cfg)
			cfg.applyEnv()
			return cfg, saveErr
		}
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	cfg.Normalize()
	cfg.applyEnv()

	return &cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv(EnvContentAPIKey); v != "" {
		c.Content.APIKey = v
	}
	if v := os.Getenv(EnvRedisURL); v != "" {
		c.Redis.URL = v
	}
	if v := os.Getenv(EnvDatabasePassword); v != "" {
		c.Database.Password = v
	}
	if v := os.Getenv(EnvBasicAuthPassword); v != "" && c.BasicAuth != nil {
		c.BasicAuth.Password = v
	}
}

// Save writes the given configuration to the specified path.
//
// Implementation details:
//   - Ensures parent directory exists (0700).
//   - Marshals cfg to YAML.
//   - Writes atomically via a temp file + rename.
//   - Ensures final file permissions are 0600.
func Save(path string, cfg *Config) error {
	if path == "" {
		return errors.New("config path is empty")
	}
	if cfg == nil {
		return errors.New("config is nil")
	}

	cfg.Normalize()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".jaincal-config-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}

// Save is a convenience method on Config that delegates to the package-level
// Save function.
func (c *Config) Save(path string) error {
	return Save(path, c)
}
