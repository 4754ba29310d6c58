package main

import (
	"context"
	"errors"
	"strings"

	"github.com/hammamikhairi/brewtimer/internal/conversation"
	"github.com/hammamikhairi/brewtimer/internal/domain"
	"github.com/hammamikhairi/brewtimer/internal/engine"
	"github.com/hammamikhairi/brewtimer/internal/logger"
	"github.com/hammamikhairi/brewtimer/internal/speech"
)

// console is where replies go: the full-screen view or plain lines.
type console interface {
	PrintChat(text string)
	PrintHint(text string)
	PrintUrgent(text string)
	PrintVoice(text string)
}

// plainConsole prints through the line notifier.
type plainConsole struct {
	n       *conversation.CLINotifier
	printFn conversation.PrintFunc
}

func (c plainConsole) PrintChat(text string)   { _ = c.n.Notify(context.Background(), text) }
func (c plainConsole) PrintUrgent(text string) { _ = c.n.NotifyUrgent(context.Background(), text) }
func (c plainConsole) PrintHint(text string)   { c.printFn("  %s", text) }
func (c plainConsole) PrintVoice(text string)  { c.printFn("[voice] %s", text) }

// app routes typed and spoken commands to the timer.
type app struct {
	engine *engine.Engine
	parser domain.CommandParser
	mouth  *speech.Mouth // nil when speech is off
	out    console
	log    *logger.Logger

	input  <-chan string       // typed lines; closed on EOF in plain mode
	voice  <-chan string       // nil when voice is off
	quit   <-chan struct{}     // closed when the view exits; nil in plain mode
	events <-chan engine.Event // lifecycle subscription
}

// say prints a reply and queues it for speech.
func (a *app) say(text string) {
	a.out.PrintChat(text)
	if a.mouth != nil {
		a.mouth.Say(text, speech.PriorityNormal)
	}
}

// hush drops queued replies and stops playback.
func (a *app) hush() {
	if a.mouth != nil {
		a.mouth.Interrupt()
	}
}

func (a *app) run(ctx context.Context) {
	r := a.engine.Recipe()
	a.say(speech.LineReady(r.Name, r.TotalDuration()))
	a.out.PrintHint(speech.LineHelp())

	input := a.input
	for {
		var line string
		var ok bool

		select {
		case <-ctx.Done():
			return
		case <-a.quit:
			return
		case line, ok = <-input:
			if !ok {
				// Stdin is exhausted: finish the brew in progress, then exit.
				input = nil
				if !a.engine.Snapshot().Stage.IsStep() {
					return
				}
				continue
			}
		case line = <-a.voice:
			a.out.PrintVoice(line)
		case ev, ok := <-a.events:
			if !ok {
				return
			}
			if input == nil && ev.Type == engine.EventStage && ev.Snapshot.Stage.Kind == engine.StageDone {
				return
			}
			continue
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		cmd, err := a.parser.Parse(ctx, line)
		if err != nil {
			a.log.Error("parsing input: %v", err)
			continue
		}
		a.log.Debug("command: %s (%q)", cmd.Type, cmd.Input)
		if !a.handle(ctx, cmd) {
			return
		}
	}
}

// handle executes one command. It returns false when the user quits.
func (a *app) handle(ctx context.Context, cmd *domain.Command) bool {
	switch cmd.Type {
	case domain.CommandStart:
		a.start(ctx)
	case domain.CommandRestart:
		a.hush()
		a.engine.Cancel()
		a.start(ctx)
	case domain.CommandCancel:
		if a.engine.Snapshot().Stage.Kind == engine.StageGetReady {
			a.say(speech.LineNotBrewing())
			return true
		}
		a.hush()
		a.engine.Cancel()
		a.say(speech.LineCancelled())
	case domain.CommandStatus:
		a.status()
	case domain.CommandHelp:
		a.say(speech.LineHelp())
	case domain.CommandQuit:
		a.hush()
		a.engine.Cancel()
		a.out.PrintChat(speech.LineBye())
		return false
	default:
		a.say(speech.LineUnknown(cmd.Input))
	}
	return true
}

// start begins a brew. Starting again after Done brews the recipe anew.
func (a *app) start(ctx context.Context) {
	switch a.engine.Snapshot().Stage.Kind {
	case engine.StageStep:
		a.say(speech.LineAlreadyBrewing())
		return
	case engine.StageDone:
		a.engine.Cancel()
	}

	a.hush()
	if err := a.engine.Start(ctx); err != nil {
		switch {
		case errors.Is(err, domain.ErrClosed):
			a.log.Debug("start after close ignored")
		case errors.Is(err, domain.ErrAlreadyStarted):
			a.say(speech.LineAlreadyBrewing())
		default:
			a.out.PrintUrgent(err.Error())
		}
		return
	}
	// The engine speaks the first label; only print here.
	a.out.PrintChat(speech.LineStarting(a.engine.Recipe().Name))
}

func (a *app) status() {
	snap := a.engine.Snapshot()
	switch snap.Stage.Kind {
	case engine.StageStep:
		a.say(speech.LineStatus(snap.Label(), snap.Stage.Index+1, snap.StepCount, snap.RemainingSeconds()))
	case engine.StageDone:
		a.say(speech.LineDone)
	default:
		r := a.engine.Recipe()
		a.say(speech.LineReady(r.Name, r.TotalDuration()))
	}
}
