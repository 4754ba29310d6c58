package main

import (
	"errors"
	"fmt"
	"io"
	stdlog "log"
	"os"
	"strings"
	"sync"

	"github.com/hammamikhairi/brewtimer/internal/config"
	"github.com/hammamikhairi/brewtimer/internal/domain"
	"github.com/hammamikhairi/brewtimer/internal/logger"
	"github.com/hammamikhairi/brewtimer/internal/recipe"
	"github.com/hammamikhairi/brewtimer/internal/storage"
)

var errHistoryDisabled = errors.New("run history is disabled (history.enabled = false)")

// historyStore is a run history that owns a resource.
type historyStore interface {
	domain.HistoryStore
	Close() error
}

type commandContext struct {
	configFlag *string
	verbose    *bool
	quiet      *bool

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

func newCommandContext(configFlag *string, verbose, quiet *bool) *commandContext {
	return &commandContext{
		configFlag: configFlag,
		verbose:    verbose,
		quiet:      quiet,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

// logLevel applies the --verbose and --quiet overrides to the configured level.
func (c *commandContext) logLevel(cfg *config.Config) logger.Level {
	switch {
	case c.quiet != nil && *c.quiet:
		return logger.LevelOff
	case c.verbose != nil && *c.verbose:
		return logger.LevelVerbose
	}
	return cfg.LogLevel()
}

// openLogger builds the process logger. Logs go to logging.file when set,
// otherwise to fallback. Go's std log package (used by the whisper
// transcriber) is redirected to the same place. The returned func closes
// the log file.
func (c *commandContext) openLogger(cfg *config.Config, fallback io.Writer) (*logger.Logger, func()) {
	out := fallback
	closeFn := func() {}
	if cfg.Logging.File != "" {
		f, err := os.OpenFile(cfg.Logging.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "warning: could not open log file %s: %v (falling back)\n", cfg.Logging.File, err)
		} else {
			out = f
			closeFn = func() { _ = f.Close() }
		}
	}

	stdlog.SetOutput(out)
	stdlog.SetFlags(stdlog.Ltime)

	return logger.New(c.logLevel(cfg), out), closeFn
}

// loadRecipes returns the built-in catalog merged with the user's file.
// A broken user file is reported and skipped.
func loadRecipes(cfg *config.Config, log *logger.Logger) *recipe.MemorySource {
	src := recipe.NewMemorySource(log.Named("recipes"))
	if cfg.Recipes.File == "" {
		return src
	}
	n, err := recipe.LoadInto(src, cfg.Recipes.File)
	if err != nil {
		log.Warn("recipes: %v", err)
		return src
	}
	if n > 0 {
		log.Info("recipes: loaded %d from %s", n, cfg.Recipes.File)
	}
	return src
}

// openHistory opens the SQLite history.
func openHistory(cfg *config.Config, log *logger.Logger) (historyStore, error) {
	if !cfg.History.Enabled {
		return nil, errHistoryDisabled
	}
	h, err := storage.OpenSQLite(cfg.History.DBPath, log.Named("history"))
	if err != nil {
		return nil, err
	}
	return h, nil
}

// openHistoryOrMemory falls back to an in-memory history so a broken
// database never blocks brewing.
func openHistoryOrMemory(cfg *config.Config, log *logger.Logger) historyStore {
	h, err := openHistory(cfg, log)
	switch {
	case err == nil:
		return h
	case errors.Is(err, errHistoryDisabled):
		log.Debug("history disabled, keeping runs in memory")
	default:
		log.Warn("history: %v (keeping runs in memory)", err)
	}
	return storage.NewMemoryHistory(log.Named("history"))
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
