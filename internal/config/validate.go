package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/hammamikhairi/brewtimer/internal/logger"
)

const (
	minTickInterval = 10 * time.Millisecond
	maxTickInterval = time.Second
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if d := c.TickInterval(); d < minTickInterval || d > maxTickInterval {
		return fmt.Errorf("timer.tick_interval_ms must be between %d and %d", minTickInterval.Milliseconds(), maxTickInterval.Milliseconds())
	}
	if c.History.RecentLimit < 1 {
		return errors.New("history.recent_limit must be at least 1")
	}
	if c.History.Enabled && c.History.DBPath == "" {
		return errors.New("history.db_path must be set when history is enabled")
	}
	if c.Voice.RecordSeconds < 1 {
		return errors.New("voice.record_seconds must be at least 1")
	}
	if c.Voice.Enabled && c.Voice.WhisperBin == "" {
		return errors.New("voice.whisper_bin must be set when voice is enabled")
	}
	if _, err := logger.ParseLevel(c.Logging.Level); err != nil {
		return fmt.Errorf("logging.level: %w", err)
	}
	return nil
}
