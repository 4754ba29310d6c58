package config

import (
	"fmt"
	"strings"
)

func (c *Config) normalize() error {
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	c.Speech.Voice = strings.TrimSpace(c.Speech.Voice)
	if c.Speech.Voice == "" {
		c.Speech.Voice = defaultVoice
	}
	c.Voice.WhisperBin = strings.TrimSpace(c.Voice.WhisperBin)

	paths := []struct {
		name string
		val  *string
	}{
		{"recipes.file", &c.Recipes.File},
		{"history.db_path", &c.History.DBPath},
		{"speech.cache_dir", &c.Speech.CacheDir},
		{"voice.whisper_model", &c.Voice.WhisperModel},
		{"voice.temp_dir", &c.Voice.TempDir},
		{"logging.file", &c.Logging.File},
	}
	for _, p := range paths {
		expanded, err := expandPath(strings.TrimSpace(*p.val))
		if err != nil {
			return fmt.Errorf("normalize %s: %w", p.name, err)
		}
		*p.val = expanded
	}
	return nil
}
