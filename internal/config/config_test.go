package config_test

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/hammamikhairi/brewtimer/internal/config"
	"github.com/hammamikhairi/brewtimer/internal/logger"
)

func TestLoadDefaultConfigExpandsPaths(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}
	if want := filepath.Join(tempHome, ".config", "brewtimer", "config.toml"); resolved != want {
		t.Fatalf("resolved = %q, want %q", resolved, want)
	}

	wantDB := filepath.Join(tempHome, ".local", "share", "brewtimer", "history.db")
	if cfg.History.DBPath != wantDB {
		t.Fatalf("unexpected db path: got %q want %q", cfg.History.DBPath, wantDB)
	}
	if cfg.TickInterval() != 50*time.Millisecond {
		t.Fatalf("unexpected tick interval: %s", cfg.TickInterval())
	}
	if cfg.Voice.Enabled {
		t.Fatal("expected voice commands disabled by default")
	}
	if !cfg.Speech.Enabled || !cfg.Speech.Cue {
		t.Fatal("expected speech and cue enabled by default")
	}
	if cfg.Logging.File != "" {
		t.Fatalf("expected empty log file, got %q", cfg.Logging.File)
	}
	if cfg.LogLevel() != logger.LevelNormal {
		t.Fatalf("unexpected log level: %v", cfg.LogLevel())
	}
}

func TestLoadCustomConfigOverridesDefaults(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)

	path := filepath.Join(t.TempDir(), "brewtimer.toml")
	content := `
[timer]
tick_interval_ms = 100
strict = true

[history]
db_path = "~/brew.db"
recent_limit = 3

[speech]
enabled = false
voice = "  en-GB-SoniaNeural  "

[logging]
level = "DEBUG"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists || resolved != path {
		t.Fatalf("expected %q to be found, got %q exists=%v", path, resolved, exists)
	}
	if cfg.TickInterval() != 100*time.Millisecond || !cfg.Timer.Strict {
		t.Fatalf("timer section not applied: %+v", cfg.Timer)
	}
	if cfg.History.DBPath != filepath.Join(tempHome, "brew.db") {
		t.Fatalf("unexpected db path: %q", cfg.History.DBPath)
	}
	if cfg.History.RecentLimit != 3 {
		t.Fatalf("unexpected recent limit: %d", cfg.History.RecentLimit)
	}
	if cfg.Speech.Enabled {
		t.Fatal("expected speech disabled")
	}
	if cfg.Speech.Voice != "en-GB-SoniaNeural" {
		t.Fatalf("voice not trimmed: %q", cfg.Speech.Voice)
	}
	if !cfg.Speech.Cue {
		t.Fatal("unset keys should keep defaults")
	}
	if cfg.LogLevel() != logger.LevelVerbose {
		t.Fatalf("unexpected log level: %v", cfg.LogLevel())
	}
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	path := filepath.Join(t.TempDir(), "brewtimer.toml")
	if err := os.WriteFile(path, []byte("[timer]\ntick_ms = 5\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	_, _, _, err := config.Load(path)
	if err == nil || !strings.Contains(err.Error(), "tick_ms") {
		t.Fatalf("expected unknown key error, got %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*config.Config)
		wantErr string
	}{
		{"defaults", func(*config.Config) {}, ""},
		{"tick too small", func(c *config.Config) { c.Timer.TickIntervalMS = 5 }, "tick_interval_ms"},
		{"tick too large", func(c *config.Config) { c.Timer.TickIntervalMS = 2000 }, "tick_interval_ms"},
		{"tick lower bound", func(c *config.Config) { c.Timer.TickIntervalMS = 10 }, ""},
		{"tick upper bound", func(c *config.Config) { c.Timer.TickIntervalMS = 1000 }, ""},
		{"recent limit", func(c *config.Config) { c.History.RecentLimit = 0 }, "recent_limit"},
		{"record seconds", func(c *config.Config) { c.Voice.RecordSeconds = 0 }, "record_seconds"},
		{"log level", func(c *config.Config) { c.Logging.Level = "loud" }, "logging.level"},
		{"history without path", func(c *config.Config) { c.History.DBPath = "" }, "db_path"},
		{"history disabled without path", func(c *config.Config) {
			c.History.Enabled = false
			c.History.DBPath = ""
		}, ""},
		{"voice without binary", func(c *config.Config) {
			c.Voice.Enabled = true
			c.Voice.WhisperBin = ""
		}, "whisper_bin"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Default()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestCreateSampleRoundTrips(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	var raw map[string]any
	if err := toml.Unmarshal(data, &raw); err != nil {
		t.Fatalf("sample is not valid TOML: %v", err)
	}

	cfg, _, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load sample: %v", err)
	}
	if !exists {
		t.Fatal("expected sample to exist")
	}
	def := config.Default()
	if cfg.Timer.TickIntervalMS != def.Timer.TickIntervalMS || cfg.Speech.Voice != def.Speech.Voice {
		t.Fatalf("sample drifted from defaults: %+v", cfg)
	}
}

func TestEncodeWritesSections(t *testing.T) {
	cfg := config.Default()
	var buf bytes.Buffer
	if err := cfg.Encode(&buf); err != nil {
		t.Fatalf("Encode: %v", err)
	}
	for _, want := range []string{"[timer]", "tick_interval_ms = 50", "[speech]", "[logging]"} {
		if !strings.Contains(buf.String(), want) {
			t.Errorf("encoded config missing %q:\n%s", want, buf.String())
		}
	}
}

func TestExpandPath(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	got, err := config.ExpandPath("~/x/y")
	if err != nil {
		t.Fatalf("ExpandPath: %v", err)
	}
	if got != filepath.Join(home, "x", "y") {
		t.Fatalf("got %q", got)
	}
	if got, _ := config.ExpandPath(""); got != "" {
		t.Fatalf("empty path should stay empty, got %q", got)
	}
}

func TestEnsureDirectories(t *testing.T) {
	root := t.TempDir()
	cfg := config.Default()
	cfg.History.DBPath = filepath.Join(root, "data", "history.db")
	cfg.Speech.CacheDir = filepath.Join(root, "tts")
	cfg.Logging.File = filepath.Join(root, "logs", "brew.log")

	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories: %v", err)
	}
	for _, dir := range []string{"data", "tts", "logs"} {
		if info, err := os.Stat(filepath.Join(root, dir)); err != nil || !info.IsDir() {
			t.Errorf("expected directory %s: %v", dir, err)
		}
	}
}
