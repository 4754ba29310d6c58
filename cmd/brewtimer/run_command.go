package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/hammamikhairi/brewtimer/internal/config"
	"github.com/hammamikhairi/brewtimer/internal/conversation"
	"github.com/hammamikhairi/brewtimer/internal/display"
	"github.com/hammamikhairi/brewtimer/internal/domain"
	"github.com/hammamikhairi/brewtimer/internal/engine"
	"github.com/hammamikhairi/brewtimer/internal/logger"
	"github.com/hammamikhairi/brewtimer/internal/recipe"
	"github.com/hammamikhairi/brewtimer/internal/speech"
)

type runOptions struct {
	plain    bool
	noSpeech bool
	voice    bool
}

func newRunCommand(ctx *commandContext) *cobra.Command {
	var opts runOptions

	cmd := &cobra.Command{
		Use:   "run [recipe-id]",
		Short: "Brew a recipe with a spoken countdown",
		Long: "Loads a recipe (the standard one by default) and waits for `start`.\n" +
			"Type or say start, cancel, restart, status, help or quit.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			id := recipe.DefaultRecipeID
			if len(args) == 1 {
				id = strings.TrimSpace(args[0])
			}
			if !opts.plain && !isTerminal(os.Stdout) {
				opts.plain = true
			}
			return runBrew(cmd.Context(), ctx, cfg, id, opts)
		},
	}

	cmd.Flags().BoolVar(&opts.plain, "plain", false, "Print transitions as lines instead of the full-screen view")
	cmd.Flags().BoolVar(&opts.noSpeech, "no-speech", false, "Disable spoken cues even if Azure keys are set")
	cmd.Flags().BoolVar(&opts.voice, "voice", false, "Enable voice commands via local Whisper")
	return cmd
}

func runBrew(parent context.Context, cc *commandContext, cfg *config.Config, recipeID string, opts runOptions) error {
	// The full-screen view owns the terminal, so logs only go to a file.
	var fallback io.Writer = os.Stderr
	if !opts.plain {
		fallback = io.Discard
	}
	log, closeLog := cc.openLogger(cfg, fallback)
	defer closeLog()

	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	r, err := loadRecipes(cfg, log).Get(ctx, recipeID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("unknown recipe %q (see `brewtimer list`)", recipeID)
		}
		return err
	}

	history := openHistoryOrMemory(cfg, log)
	defer history.Close()

	mouth := startMouth(ctx, cfg, opts, log)
	var announcer domain.Announcer = speech.NewNoOp(log.Named("speech"))
	if mouth != nil {
		a := speech.NewAnnouncer(mouth, cfg.Speech.Cue, log.Named("announcer"))
		if cfg.Speech.Prefetch {
			a.Warm(ctx)
		}
		announcer = a
	}

	eng := engine.New(r, log.Named("engine"),
		engine.WithTickInterval(cfg.TickInterval()),
		engine.WithStrict(cfg.Timer.Strict),
		engine.WithAnnouncer(announcer),
		engine.WithStartNotifier(history),
	)
	defer eng.Close()

	ear, err := startEar(ctx, cfg, opts, mouth, log)
	if err != nil {
		return err
	}

	a := &app{
		engine: eng,
		parser: conversation.NewKeywordParser(log.Named("parser")),
		mouth:  mouth,
		log:    log,
		events: eng.Subscribe(4),
	}
	if ear != nil {
		a.voice = ear.C()
	}

	if opts.plain {
		return runPlain(ctx, a, eng, log)
	}
	return runFullScreen(ctx, cancel, a, eng, ear != nil)
}

// runPlain reads commands from stdin and prints transitions as lines.
func runPlain(ctx context.Context, a *app, eng *engine.Engine, log *logger.Logger) error {
	color := isTerminal(os.Stdout)
	printFn := func(format string, args ...any) {
		fmt.Fprintf(os.Stdout, format+"\n", args...)
	}
	notifier := conversation.NewCLINotifier(log.Named("notifier"), printFn, color)
	a.out = plainConsole{n: notifier, printFn: printFn}

	go notifier.Watch(ctx, eng.Subscribe(16))
	a.input = readLines(ctx, os.Stdin)
	a.run(ctx)
	return nil
}

// runFullScreen hands the terminal to the Bubble Tea view.
func runFullScreen(ctx context.Context, cancel context.CancelFunc, a *app, eng *engine.Engine, voice bool) error {
	r := eng.Recipe()
	ui := display.NewUI(r)
	a.out = ui
	a.input = ui.InputChan()
	a.quit = ui.QuitChan()

	subtitle := "Type 'help' for commands, 'quit' to exit."
	if voice {
		subtitle = "Voice on: say \"hey brew, start\", or type commands."
	}
	fmt.Println(display.RenderBanner(subtitle))

	go func() {
		ui.WaitReady()
		go ui.Watch(ctx, eng.Subscribe(16))
		a.run(ctx)
		ui.Quit()
	}()

	err := ui.Run()
	cancel()
	if err != nil {
		return fmt.Errorf("display: %w", err)
	}
	return nil
}

// startMouth builds the speech pipeline, or returns nil when speech is off
// or unavailable.
func startMouth(ctx context.Context, cfg *config.Config, opts runOptions, log *logger.Logger) *speech.Mouth {
	if !cfg.Speech.Enabled || opts.noSpeech {
		return nil
	}
	key := os.Getenv(speech.EnvAzureSpeechKey)
	region := os.Getenv(speech.EnvAzureSpeechRegion)
	if key == "" || region == "" {
		log.Info("speech disabled: set %s and %s to enable", speech.EnvAzureSpeechKey, speech.EnvAzureSpeechRegion)
		return nil
	}

	player, err := speech.NewPlayer(log.Named("player"))
	if err != nil {
		log.Error("audio player init failed, speech disabled: %v", err)
		return nil
	}

	tts := speech.NewAzureClient(key, region, log.Named("tts"), speech.WithVoice(cfg.Speech.Voice))
	mouth := speech.NewMouth(tts, player, log.Named("mouth"),
		speech.WithCacheDir(cfg.Speech.CacheDir),
		speech.WithDiskWrite(cfg.Speech.DiskCache),
	)
	mouth.Start(ctx)
	log.Info("speech enabled (voice=%s, region=%s)", tts.Voice(), region)
	return mouth
}

// startEar starts voice commands when enabled. A missing model is an error
// because the user asked for voice explicitly.
func startEar(ctx context.Context, cfg *config.Config, opts runOptions, mouth *speech.Mouth, log *logger.Logger) (*speech.Ear, error) {
	if !cfg.Voice.Enabled && !opts.voice {
		return nil, nil
	}
	if _, err := os.Stat(cfg.Voice.WhisperModel); err != nil {
		return nil, fmt.Errorf("whisper model not found at %s: %w", cfg.Voice.WhisperModel, err)
	}
	if err := os.MkdirAll(cfg.Voice.TempDir, 0o755); err != nil {
		return nil, fmt.Errorf("create voice temp dir: %w", err)
	}

	ear := speech.NewEar(cfg.Voice.WhisperBin, cfg.Voice.WhisperModel, mouth, log.Named("ear"),
		speech.WithRecordDuration(cfg.RecordDuration()),
		speech.WithTempDir(cfg.Voice.TempDir),
	)
	if mouth != nil && cfg.Speech.Prefetch {
		mouth.Prefetch(ctx, speech.ListeningFillers()...)
	}
	go ear.Run(ctx)
	log.Info("voice input enabled (bin=%s, model=%s, chunk=%s)", cfg.Voice.WhisperBin, cfg.Voice.WhisperModel, cfg.RecordDuration())
	return ear, nil
}

// readLines forwards stdin lines until EOF, then closes the channel.
func readLines(ctx context.Context, r io.Reader) <-chan string {
	out := make(chan string)
	go func() {
		defer close(out)
		scanner := bufio.NewScanner(r)
		for scanner.Scan() {
			select {
			case out <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}

func isTerminal(f *os.File) bool {
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
