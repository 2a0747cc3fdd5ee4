package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Database locates the bookmark store.
type Database struct {
	Path string `toml:"path"`
}

// Server contains the manager's bind address.
type Server struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// Browser controls the Chrome instance videos are watched in.
type Browser struct {
	ChromePath  string `toml:"chrome_path"`
	Headless    bool   `toml:"headless"`
	UserDataDir string `toml:"user_data_dir"`
	StartURL    string `toml:"start_url"`
}

// Overlay contains the in-page controller timings.
type Overlay struct {
	RetryIntervalMS int `toml:"retry_interval_ms"`
	MaxAttempts     int `toml:"max_attempts"`
	// ReadyTimeoutMS caps the whole readiness wait. Zero derives it from the
	// interval and attempt count.
	ReadyTimeoutMS int `toml:"ready_timeout_ms"`
	NotificationMS int `toml:"notification_ms"`
}

// Manager contains the bookmark manager's timeouts.
type Manager struct {
	CommandTimeoutMS int `toml:"command_timeout_ms"`
	ExportTTLSeconds int `toml:"export_ttl_seconds"`
}

// Logging contains configuration for log output.
type Logging struct {
	Level string `toml:"level"`
}

// Config encapsulates all configuration values for marktube.
type Config struct {
	Database Database `toml:"database"`
	Server   Server   `toml:"server"`
	Browser  Browser  `toml:"browser"`
	Overlay  Overlay  `toml:"overlay"`
	Manager  Manager  `toml:"manager"`
	Logging  Logging  `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates, parses, and validates a configuration file. Values from a
// .env file in the working directory and MARKTUBE_* environment variables
// override the file.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := loadDotEnv(".env"); err != nil {
		return nil, "", false, err
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("marktube.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// loadDotEnv exports the variables in path without overriding ones that are
// already set. A missing file is not an error.
func loadDotEnv(path string) error {
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() error {
	setString := func(key string, dst *string) {
		if v, ok := os.LookupEnv(key); ok {
			*dst = v
		}
	}
	setInt := func(key string, dst *int) error {
		v, ok := os.LookupEnv(key)
		if !ok {
			return nil
		}
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		*dst = n
		return nil
	}

	setString(envPrefix+"DB", &c.Database.Path)
	setString(envPrefix+"HOST", &c.Server.Host)
	if err := setInt(envPrefix+"PORT", &c.Server.Port); err != nil {
		return err
	}
	setString(envPrefix+"CHROME_PATH", &c.Browser.ChromePath)
	setString(envPrefix+"USER_DATA_DIR", &c.Browser.UserDataDir)
	setString(envPrefix+"START_URL", &c.Browser.StartURL)
	if v, ok := os.LookupEnv(envPrefix + "HEADLESS"); ok {
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("%sHEADLESS: %w", envPrefix, err)
		}
		c.Browser.Headless = b
	}
	setString(envPrefix+"LOG_LEVEL", &c.Logging.Level)
	return nil
}

// Addr is the manager's listen address.
func (c *Config) Addr() string {
	return net.JoinHostPort(c.Server.Host, strconv.Itoa(c.Server.Port))
}

// ManagerURL is the URL the manager is reachable at.
func (c *Config) ManagerURL() string {
	host := c.Server.Host
	if host == "" || host == "0.0.0.0" || host == "::" {
		host = "localhost"
	}
	return "http://" + net.JoinHostPort(host, strconv.Itoa(c.Server.Port))
}

// LockPath is the single-instance lock file kept next to the database.
func (c *Config) LockPath() string {
	return c.Database.Path + ".lock"
}

// RetryInterval is the pause between player readiness checks.
func (o Overlay) RetryInterval() time.Duration {
	return time.Duration(o.RetryIntervalMS) * time.Millisecond
}

// ReadyTimeout is the overall readiness deadline, zero when derived.
func (o Overlay) ReadyTimeout() time.Duration {
	return time.Duration(o.ReadyTimeoutMS) * time.Millisecond
}

// NotificationDuration is how long in-page notices stay visible.
func (o Overlay) NotificationDuration() time.Duration {
	return time.Duration(o.NotificationMS) * time.Millisecond
}

// CommandTimeout bounds a manager round trip to a tab.
func (m Manager) CommandTimeout() time.Duration {
	return time.Duration(m.CommandTimeoutMS) * time.Millisecond
}

// ExportTTL is how long a prepared export can be downloaded.
func (m Manager) ExportTTL() time.Duration {
	return time.Duration(m.ExportTTLSeconds) * time.Second
}

// EnsureDirectories creates the directories the daemon writes to.
func (c *Config) EnsureDirectories() error {
	dirs := []string{filepath.Dir(c.Database.Path)}
	if c.Browser.UserDataDir != "" {
		dirs = append(dirs, c.Browser.UserDataDir)
	}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" || pathValue == ":memory:" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the path expansion rules for flag values.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
