package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	DataDir  string `toml:"data_dir"`
	InboxDir string `toml:"inbox_dir"`
	LogDir   string `toml:"log_dir"`
}

// Scheduler contains slot planning and daemon timing configuration.
type Scheduler struct {
	PollInterval  int    `toml:"poll_interval"`
	CheckInterval int    `toml:"check_interval"`
	HorizonDays   int    `toml:"horizon_days"`
	SlotsPerDay   int    `toml:"slots_per_day"`
	SlotStart     string `toml:"slot_start"`
	SlotEnd       string `toml:"slot_end"`
	Timezone      string `toml:"timezone"`
	CatchUp       bool   `toml:"catch_up"`
	PlanSchedule  string `toml:"plan_schedule"`
}

// Locks contains duplicate-protection lock configuration.
type Locks struct {
	ValiditySeconds int `toml:"validity_seconds"`
}

// Publisher contains configuration for the upload endpoint.
type Publisher struct {
	Endpoint          string `toml:"endpoint"`
	ListingURL        string `toml:"listing_url"`
	AuthToken         string `toml:"auth_token"`
	RequestsPerMinute int    `toml:"requests_per_minute"`
	RequestTimeout    int    `toml:"request_timeout"`
}

// Verifier contains publish verification configuration.
type Verifier struct {
	TimeoutSeconds       int `toml:"timeout_seconds"`
	RetryIntervalSeconds int `toml:"retry_interval_seconds"`
	MaxCandidates        int `toml:"max_candidates"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for clipcast.
//
// Configuration sections by subsystem:
//   - Paths: data, inbox, and log directories
//   - Scheduler: slot windows, horizon, and daemon polling intervals
//   - Locks: per-item lock validity window
//   - Publisher: upload endpoint and listing URL
//   - Verifier: publish confirmation timing and candidate limits
//   - Logging: log format and level
type Config struct {
	Paths     Paths     `toml:"paths"`
	Scheduler Scheduler `toml:"scheduler"`
	Locks     Locks     `toml:"locks"`
	Publisher Publisher `toml:"publisher"`
	Verifier  Verifier  `toml:"verifier"`
	Logging   Logging   `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/clipcast/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config
// has all path fields expanded and normalized.
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
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
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

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}
	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}

	projectPath, err := filepath.Abs("clipcast.toml")
	if err != nil {
		return "", false, err
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// WriteSample writes the embedded sample configuration to the given path,
// refusing to overwrite an existing file.
func WriteSample(path string) error {
	expanded, err := expandPath(path)
	if err != nil {
		return err
	}
	if _, err := os.Stat(expanded); err == nil {
		return fmt.Errorf("config file already exists at %s", expanded)
	} else if !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("stat config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(expanded), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	if err := os.WriteFile(expanded, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}

// EnsureDirectories creates the directories clipcast needs at runtime.
func (c *Config) EnsureDirectories() error {
	dirs := []string{
		c.Paths.DataDir,
		c.Paths.InboxDir,
		c.Paths.LogDir,
		c.LockDir(),
		c.IndexDir(),
	}
	for _, dir := range dirs {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %s: %w", dir, err)
		}
	}
	return nil
}

// LockDir returns the directory holding per-item lock files.
func (c *Config) LockDir() string {
	return filepath.Join(c.Paths.DataDir, "locks")
}

// IndexDir returns the directory holding per-account schedule index files.
func (c *Config) IndexDir() string {
	return filepath.Join(c.Paths.DataDir, "schedule")
}

// DatabasePath returns the item metadata database location.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.Paths.DataDir, "clipcast.db")
}

// LogFilePath returns the daemon log file location.
func (c *Config) LogFilePath() string {
	return filepath.Join(c.Paths.LogDir, "clipcast.log")
}

// SocketPath returns the daemon control socket location.
func (c *Config) SocketPath() string {
	return filepath.Join(c.Paths.LogDir, "clipcast.sock")
}

// ExpandPath resolves ~ and relative segments to an absolute path.
func ExpandPath(path string) (string, error) {
	return expandPath(path)
}

func expandPath(path string) (string, error) {
	if path == "" {
		return "", nil
	}
	if path == "~" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		return home, nil
	}
	if len(path) > 1 && path[0] == '~' && path[1] == '/' {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		return filepath.Join(home, path[2:]), nil
	}
	return filepath.Abs(path)
}
