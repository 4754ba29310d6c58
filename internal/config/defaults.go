package config

const (
	defaultTickIntervalMS = 50
	defaultRecipesFile    = "~/.config/brewtimer/recipes.yaml"
	defaultHistoryDBPath  = "~/.local/share/brewtimer/history.db"
	defaultRecentLimit    = 10
	defaultVoice          = "en-US-AvaNeural"
	defaultSpeechCacheDir = "~/.cache/brewtimer/tts"
	defaultWhisperBin     = "whisper-cli"
	defaultWhisperModel   = "~/.local/share/brewtimer/models/ggml-base.en.bin"
	defaultRecordSeconds  = 2
	defaultVoiceTempDir   = "~/.cache/brewtimer/stt"
	defaultLogLevel       = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Timer: Timer{
			TickIntervalMS: defaultTickIntervalMS,
		},
		Recipes: Recipes{
			File: defaultRecipesFile,
		},
		History: History{
			Enabled:     true,
			DBPath:      defaultHistoryDBPath,
			RecentLimit: defaultRecentLimit,
		},
		Speech: Speech{
			Enabled:   true,
			Voice:     defaultVoice,
			CacheDir:  defaultSpeechCacheDir,
			DiskCache: true,
			Cue:       true,
			Prefetch:  true,
		},
		Voice: Voice{
			WhisperBin:    defaultWhisperBin,
			WhisperModel:  defaultWhisperModel,
			RecordSeconds: defaultRecordSeconds,
			TempDir:       defaultVoiceTempDir,
		},
		Logging: Logging{
			Level: defaultLogLevel,
		},
	}
}
