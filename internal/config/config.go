package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/hammamikhairi/brewtimer/internal/logger"
)

//go:embed sample_config.toml
var sampleConfig string

// Timer contains countdown engine settings.
type Timer struct {
	TickIntervalMS int  `toml:"tick_interval_ms"`
	Strict         bool `toml:"strict"`
}

// Recipes points at an optional user recipe catalog.
type Recipes struct {
	File string `toml:"file"`
}

// History contains run history storage settings.
type History struct {
	Enabled     bool   `toml:"enabled"`
	DBPath      string `toml:"db_path"`
	RecentLimit int    `toml:"recent_limit"`
}

// Speech contains settings for spoken announcements and the cue.
type Speech struct {
	Enabled   bool   `toml:"enabled"`
	Voice     string `toml:"voice"`
	CacheDir  string `toml:"cache_dir"`
	DiskCache bool   `toml:"disk_cache"`
	Cue       bool   `toml:"cue"`
	Prefetch  bool   `toml:"prefetch"`
}

// Voice contains settings for hands-free commands.
type Voice struct {
	Enabled       bool   `toml:"enabled"`
	WhisperBin    string `toml:"whisper_bin"`
	WhisperModel  string `toml:"whisper_model"`
	RecordSeconds int    `toml:"record_seconds"`
	TempDir       string `toml:"temp_dir"`
}

// Logging contains configuration for log output.
type Logging struct {
	Level string `toml:"level"`
	File  string `toml:"file"`
}

// Config encapsulates all configuration values for brewtimer.
type Config struct {
	Timer   Timer   `toml:"timer"`
	Recipes Recipes `toml:"recipes"`
	History History `toml:"history"`
	Speech  Speech  `toml:"speech"`
	Voice   Voice   `toml:"voice"`
	Logging Logging `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/brewtimer/config.toml")
}

// Load locates, parses, and validates a configuration file. It returns
// the config, the path it resolved, and whether that file existed.
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

		if err := decode(file, &cfg); err != nil {
			return nil, "", false, err
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

func decode(r io.Reader, cfg *Config) error {
	decoder := toml.NewDecoder(r).DisallowUnknownFields()
	if err := decoder.Decode(cfg); err != nil {
		var strict *toml.StrictMissingError
		if errors.As(err, &strict) {
			return fmt.Errorf("parse config: %s", strict.String())
		}
		return fmt.Errorf("parse config: %w", err)
	}
	return nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		if _, err := os.Stat(expanded); err != nil {
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
	projectPath, err := filepath.Abs("brewtimer.toml")
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

// TickInterval is the display refresh period.
func (c *Config) TickInterval() time.Duration {
	return time.Duration(c.Timer.TickIntervalMS) * time.Millisecond
}

// RecordDuration is the length of each voice chunk.
func (c *Config) RecordDuration() time.Duration {
	return time.Duration(c.Voice.RecordSeconds) * time.Second
}

// LogLevel returns the parsed logging level. Validate has already
// rejected unknown values.
func (c *Config) LogLevel() logger.Level {
	level, _ := logger.ParseLevel(c.Logging.Level)
	return level
}

// Encode writes the effective configuration as TOML.
func (c *Config) Encode(w io.Writer) error {
	enc := toml.NewEncoder(w)
	enc.SetIndentTables(true)
	return enc.Encode(c)
}

// EnsureDirectories creates the parent directories of configured files.
func (c *Config) EnsureDirectories() error {
	var dirs []string
	if c.History.Enabled {
		dirs = append(dirs, filepath.Dir(c.History.DBPath))
	}
	if c.Speech.Enabled && c.Speech.DiskCache && c.Speech.CacheDir != "" {
		dirs = append(dirs, c.Speech.CacheDir)
	}
	if c.Voice.Enabled && c.Voice.TempDir != "" {
		dirs = append(dirs, c.Voice.TempDir)
	}
	if c.Logging.File != "" {
		dirs = append(dirs, filepath.Dir(c.Logging.File))
	}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
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

// ExpandPath exposes the path expansion rules for other packages.
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
