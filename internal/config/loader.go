// Package config loads and saves the daygrid configuration file.
//
// Configuration lives in one YAML file. Missing fields fall back to
// defaults, DAYGRID_* environment variables override the file, and the
// merged result is validated before the server starts.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/example/daygrid/internal/timegrid"
)

// Storage backends selectable via storage.backend.
const (
	// BackendFilestore keeps events in a single JSON file.
	BackendFilestore = "filestore"
	// BackendSQLite keeps events in a local SQLite database.
	BackendSQLite = "sqlite"
)

// StorageConfig selects and locates the event store.
type StorageConfig struct {
	// Backend is "filestore" or "sqlite".
	Backend string `yaml:"backend"`
	// Path is the events file used by the filestore backend.
	Path string `yaml:"path"`
	// SQLitePath is the database file used by the sqlite backend.
	SQLitePath string `yaml:"sqlite_path"`
}

// WindowConfig is the visible band of the day timeline and its slot geometry.
type WindowConfig struct {
	StartHour   int `yaml:"start_hour"`
	EndHour     int `yaml:"end_hour"`
	SlotMinutes int `yaml:"slot_minutes"`
	SlotPixels  int `yaml:"slot_pixels"`
}

// Grid converts the configured geometry into a timegrid window.
func (w WindowConfig) Grid() timegrid.Window {
	return timegrid.Window{
		StartHour:   w.StartHour,
		EndHour:     w.EndHour,
		SlotMinutes: w.SlotMinutes,
		SlotPixels:  w.SlotPixels,
	}
}

// AuthConfig holds HTTP basic auth credentials. A nil AuthConfig disables
// authentication entirely.
type AuthConfig struct {
	Username string `yaml:"username"`
	// PasswordHash is an argon2id hash in PHC string format, produced by
	// the -hash-password flag of cmd/daygrid.
	PasswordHash string `yaml:"password_hash"`
}

// SnapshotConfig enables scheduled iCalendar snapshots of the event store.
// A nil SnapshotConfig disables them.
type SnapshotConfig struct {
	// Path is the snapshot file to write.
	Path string `yaml:"path"`
	// Schedule is a cron expression, e.g. "0 * * * *" for hourly.
	Schedule string `yaml:"schedule"`
}

// Config is the top-level daygrid configuration.
type Config struct {
	// HTTPPort is the TCP port the HTTP server listens on.
	HTTPPort int `yaml:"http_port"`

	// Timezone is the IANA display timezone (e.g. "Europe/Berlin").
	// Empty means the host timezone. It is resolved exactly once at
	// startup and threaded through formatting and view grouping.
	Timezone string `yaml:"timezone"`

	Storage StorageConfig `yaml:"storage"`
	Window  WindowConfig  `yaml:"window"`

	Auth     *AuthConfig     `yaml:"auth,omitempty"`
	Snapshot *SnapshotConfig `yaml:"snapshot,omitempty"`
}

// DefaultConfig returns the configuration written on first run: filestore
// persistence next to the binary and a full-day window.
func DefaultConfig() *Config {
	return &Config{
		HTTPPort: 8080,
		Storage: StorageConfig{
			Backend:    BackendFilestore,
			Path:       "daygrid-events.json",
			SQLitePath: "daygrid.db",
		},
		Window: WindowConfig{
			StartHour:   0,
			EndHour:     24,
			SlotMinutes: 30,
			SlotPixels:  20,
		},
	}
}

// Normalize fills zero values with defaults so partially filled files keep
// working. It never overwrites a value the file actually set.
func (c *Config) Normalize() {
	if c.HTTPPort == 0 {
		c.HTTPPort = 8080
	}
	if c.Storage.Backend == "" {
		c.Storage.Backend = BackendFilestore
	}
	if c.Storage.Path == "" {
		c.Storage.Path = "daygrid-events.json"
	}
	if c.Storage.SQLitePath == "" {
		c.Storage.SQLitePath = "daygrid.db"
	}
	// StartHour zero is midnight, which is already the default.
	if c.Window.EndHour == 0 {
		c.Window.EndHour = 24
	}
	if c.Window.SlotMinutes == 0 {
		c.Window.SlotMinutes = 30
	}
	if c.Window.SlotPixels == 0 {
		c.Window.SlotPixels = 20
	}
}

// Validate reports every problem of the merged configuration at once, so a
// broken file fails the startup with one complete message.
func (c *Config) Validate() error {
	problems := make([]string, 0, 2)

	if c.HTTPPort <= 0 || c.HTTPPort > 65535 {
		problems = append(problems, fmt.Sprintf("http_port %d is out of range", c.HTTPPort))
	}

	switch c.Storage.Backend {
	case BackendFilestore:
		if strings.TrimSpace(c.Storage.Path) == "" {
			problems = append(problems, "storage.path is required for the filestore backend")
		}
	case BackendSQLite:
		if strings.TrimSpace(c.Storage.SQLitePath) == "" {
			problems = append(problems, "storage.sqlite_path is required for the sqlite backend")
		}
	default:
		problems = append(problems, fmt.Sprintf("storage.backend %q is not %q or %q", c.Storage.Backend, BackendFilestore, BackendSQLite))
	}

	if err := c.Window.Grid().Validate(); err != nil {
		problems = append(problems, err.Error())
	}

	if c.Auth != nil {
		if strings.TrimSpace(c.Auth.Username) == "" {
			problems = append(problems, "auth.username is required when auth is enabled")
		}
		if strings.TrimSpace(c.Auth.PasswordHash) == "" {
			problems = append(problems, "auth.password_hash is required when auth is enabled")
		}
	}

	if c.Snapshot != nil {
		if strings.TrimSpace(c.Snapshot.Path) == "" {
			problems = append(problems, "snapshot.path is required when snapshots are enabled")
		}
		if strings.TrimSpace(c.Snapshot.Schedule) == "" {
			problems = append(problems, "snapshot.schedule is required when snapshots are enabled")
		}
	}

	if len(problems) > 0 {
		return fmt.Errorf("config: invalid values: %s", strings.Join(problems, "; "))
	}
	return nil
}

// Load reads the configuration at path, creating a default file on first
// run, then applies environment overrides and validates the result.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config: path is empty")
	}

	cfg, err := loadFile(path)
	if err != nil {
		return nil, err
	}
	if err := applyEnvironment(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			cfg := DefaultConfig()
			if err := Save(path, cfg); err != nil {
				return nil, err
			}
			return cfg, nil
		}
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	cfg.Normalize()
	return &cfg, nil
}

// applyEnvironment overrides file values with DAYGRID_* variables. Empty
// and whitespace-only variables are treated as unset.
func applyEnvironment(cfg *Config) error {
	if v := strings.TrimSpace(os.Getenv("DAYGRID_HTTP_PORT")); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil || port <= 0 {
			return fmt.Errorf("config: invalid DAYGRID_HTTP_PORT %q", v)
		}
		cfg.HTTPPort = port
	}
	if v := strings.TrimSpace(os.Getenv("DAYGRID_STORAGE_BACKEND")); v != "" {
		cfg.Storage.Backend = v
	}
	if v := strings.TrimSpace(os.Getenv("DAYGRID_STORAGE_PATH")); v != "" {
		cfg.Storage.Path = v
	}
	if v := strings.TrimSpace(os.Getenv("DAYGRID_SQLITE_PATH")); v != "" {
		cfg.Storage.SQLitePath = v
	}
	if v := strings.TrimSpace(os.Getenv("DAYGRID_TIMEZONE")); v != "" {
		cfg.Timezone = v
	}
	if v := strings.TrimSpace(os.Getenv("DAYGRID_AUTH_USERNAME")); v != "" {
		if cfg.Auth == nil {
			cfg.Auth = &AuthConfig{}
		}
		cfg.Auth.Username = v
	}
	if v := strings.TrimSpace(os.Getenv("DAYGRID_AUTH_PASSWORD_HASH")); v != "" {
		if cfg.Auth == nil {
			cfg.Auth = &AuthConfig{}
		}
		cfg.Auth.PasswordHash = v
	}
	if v := strings.TrimSpace(os.Getenv("DAYGRID_SNAPSHOT_PATH")); v != "" {
		if cfg.Snapshot == nil {
			cfg.Snapshot = &SnapshotConfig{}
		}
		cfg.Snapshot.Path = v
	}
	if v := strings.TrimSpace(os.Getenv("DAYGRID_SNAPSHOT_SCHEDULE")); v != "" {
		if cfg.Snapshot == nil {
			cfg.Snapshot = &SnapshotConfig{}
		}
		cfg.Snapshot.Schedule = v
	}
	return nil
}

// Save writes the configuration to path atomically with 0600 permissions,
// creating the parent directory when needed.
func Save(path string, cfg *Config) error {
	if path == "" {
		return errors.New("config: path is empty")
	}
	if cfg == nil {
		return errors.New("config: config is nil")
	}

	cfg.Normalize()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("config: create directory %s: %w", dir, err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("config: encode: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".daygrid-config-*.tmp")
	if err != nil {
		return fmt.Errorf("config: create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("config: write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("config: sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("config: close temp file: %w", err)
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		return fmt.Errorf("config: chmod temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("config: replace %s: %w", path, err)
	}
	return nil
}

// Save writes the receiver to path. It mirrors the package-level Save so
// callers holding a *Config can persist edits directly.
func (c *Config) Save(path string) error {
	return Save(path, c)
}
