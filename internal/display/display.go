// Package display provides the terminal UI using Bubble Tea.
//
// The [UI] type renders the running countdown (stage, seconds left, a
// progress bar and the step strip) above an input prompt. All other
// output is printed above the rendered area via Program.Println, so
// concurrent writes never garble the display.
package display

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/hammamikhairi/brewtimer/internal/domain"
	"github.com/hammamikhairi/brewtimer/internal/engine"
)

const promptText = "brew> "

// ── Styles ───────────────────────────────────────────────────────

var (
	barBg = lipgloss.NewStyle().
		Background(lipgloss.Color("#27272a")).
		Foreground(lipgloss.Color("#a1a1aa"))

	stageStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#fde68a")).
			Bold(true)

	doneStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#bbf7d0")).
			Bold(true)

	idleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#71717a")).
			Italic(true)

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#a1a1aa"))

	sepStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#52525b"))

	filledStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#fbbf24"))

	emptyStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#3f3f46"))

	promptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#94a3b8"))

	// BannerStyle is muted slate for the startup banner.
	BannerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#94a3b8"))

	chatStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#bae6fd"))

	stepLineStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#bbf7d0"))

	primaryStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#d4d4d8"))

	secondaryStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#71717a"))

	urgentOutputStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#fca5a5"))

	userInputEchoStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#a1a1aa"))
)

// ── UI ───────────────────────────────────────────────────────────

// UI manages the terminal through Bubble Tea.
//
// Call [NewUI] then [UI.Run] (blocking). Other goroutines may call
// [UI.Println], [UI.Watch] and read from [UI.InputChan] after
// [UI.WaitReady] returns.
type UI struct {
	recipe  domain.Recipe
	program *tea.Program
	inputCh chan string
	readyCh chan struct{}
	quitCh  chan struct{}
	done    atomic.Bool
}

// NewUI creates the display for one recipe. Call Run() to start.
func NewUI(recipe domain.Recipe) *UI {
	return &UI{
		recipe:  recipe,
		inputCh: make(chan string, 16),
		readyCh: make(chan struct{}),
		quitCh:  make(chan struct{}),
	}
}

// Println prints a line above the prompt. Thread-safe. Falls back to
// fmt.Println before the program starts or after it exits.
func (u *UI) Println(a ...any) {
	if u.program != nil && !u.done.Load() {
		u.program.Println(a...)
	} else {
		fmt.Println(a...)
	}
}

// Printf prints formatted text above the prompt on its own line.
func (u *UI) Printf(format string, a ...any) {
	if u.program != nil && !u.done.Load() {
		u.program.Printf(format, a...)
	} else {
		fmt.Printf(format+"\n", a...)
	}
}

// InputChan returns completed user-input lines.
func (u *UI) InputChan() <-chan string { return u.inputCh }

// PrintChat prints a reply line.
func (u *UI) PrintChat(text string) {
	u.Println(chatStyle.Render("  " + text))
}

// PrintHint prints a dimmed line.
func (u *UI) PrintHint(text string) {
	u.Println(secondaryStyle.Render("  " + text))
}

// PrintUrgent prints an error line.
func (u *UI) PrintUrgent(text string) {
	u.Println(urgentOutputStyle.Render("  " + text))
}

// PrintVoice prints a voice-recognised input line.
func (u *UI) PrintVoice(text string) {
	u.Println(secondaryStyle.Render("[voice] ") + primaryStyle.Render(text))
}

// PrintUserInput echoes a typed command into the scrollback.
func (u *UI) PrintUserInput(text string) {
	u.Println(promptStyle.Render("brew") + secondaryStyle.Render("> ") + userInputEchoStyle.Render(text))
}

// WaitReady blocks until the Bubble Tea event loop is running.
func (u *UI) WaitReady() { <-u.readyCh }

// Quit tells Bubble Tea to exit.
func (u *UI) Quit() {
	if u.program != nil {
		u.program.Quit()
	}
}

// QuitChan is closed when Run returns.
func (u *UI) QuitChan() <-chan struct{} { return u.quitCh }

// Watch feeds engine events into the view and prints a scrollback line
// for every stage change. Returns when events closes, ctx is done, or
// the UI exits. Call after WaitReady.
func (u *UI) Watch(ctx context.Context, events <-chan engine.Event) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-u.quitCh:
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			if line := stageLine(ev); line != "" {
				u.Println(line)
			}
			u.program.Send(snapshotMsg(ev.Snapshot))
		}
	}
}

// Run starts the Bubble Tea event loop. Blocks until quit.
func (u *UI) Run() error {
	ti := textinput.New()
	// Plain-text prompt: styled prompts add ANSI bytes that break the
	// textinput width math.
	ti.Prompt = promptText
	ti.PromptStyle = promptStyle
	ti.TextStyle = userInputEchoStyle
	ti.Cursor.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("#94a3b8"))
	ti.Focus()
	ti.CharLimit = 200
	ti.Width = 60 // updated on first WindowSizeMsg

	m := model{
		recipe:  u.recipe,
		snap:    engine.Snapshot{StepCount: len(u.recipe.Steps)},
		input:   ti,
		inputCh: u.inputCh,
		readyCh: u.readyCh,
		echoFn:  u.PrintUserInput,
	}

	u.program = tea.NewProgram(m)
	_, err := u.program.Run()
	u.done.Store(true)
	close(u.quitCh)
	return err
}

// ── Bubble Tea model ─────────────────────────────────────────────

type model struct {
	recipe  domain.Recipe
	snap    engine.Snapshot
	input   textinput.Model
	inputCh chan<- string
	readyCh chan struct{}
	echoFn  func(string)
	width   int
}

// snapshotMsg carries the latest engine state into the model.
type snapshotMsg engine.Snapshot

func (m model) Init() tea.Cmd {
	return tea.Batch(
		textinput.Blink,
		signalReady(m.readyCh),
		tea.SetWindowTitle("brewtimer"),
	)
}

func signalReady(ch chan struct{}) tea.Cmd {
	return func() tea.Msg {
		close(ch)
		return nil
	}
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC:
			return m, tea.Quit
		case tea.KeyEnter:
			v := m.input.Value()
			m.input.Reset()
			if strings.TrimSpace(v) == "" {
				return m, nil
			}
			select {
			case m.inputCh <- v:
			default: // reader is gone or far behind
			}
			// Echo from a Cmd so Println runs outside Update.
			echoFn := m.echoFn
			return m, func() tea.Msg {
				echoFn(v)
				return nil
			}
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		if msg.Width > len(promptText) {
			m.input.Width = msg.Width - len(promptText)
		}
		return m, nil

	case snapshotMsg:
		m.snap = engine.Snapshot(msg)
		return m, tea.SetWindowTitle(m.titleStr())
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m model) titleStr() string {
	switch m.snap.Stage.Kind {
	case engine.StageStep:
		return fmt.Sprintf("brewtimer: %s %s", m.snap.Label(), fmtSeconds(m.snap.RemainingSeconds()))
	case engine.StageDone:
		return "brewtimer: done"
	default:
		return "brewtimer"
	}
}

func (m model) View() string {
	w := m.width
	if w <= 0 {
		w = 80
	}

	var b strings.Builder
	b.WriteString(barBg.Width(w).Render(m.renderStatus()))
	b.WriteByte('\n')
	b.WriteString(" " + renderProgress(m.snap.Progress, clampWidth(w-2)))
	b.WriteByte('\n')
	b.WriteString(" " + m.renderSteps())
	b.WriteString("\n\n")
	b.WriteString(m.input.View())
	return b.String()
}

func (m model) renderStatus() string {
	name := labelStyle.Render(m.recipe.Name)
	sep := sepStyle.Render("  │  ")

	switch m.snap.Stage.Kind {
	case engine.StageStep:
		pos := labelStyle.Render(fmt.Sprintf("%d/%d", m.snap.Stage.Index+1, m.snap.StepCount))
		left := stageStyle.Render(fmtSeconds(m.snap.RemainingSeconds()))
		return " " + name + sep + stageStyle.Render(m.snap.Label()) + " " + pos + sep + left + " "
	case engine.StageDone:
		return " " + name + sep + doneStyle.Render("Done") + " "
	default:
		hint := idleStyle.Render(fmt.Sprintf("Get ready: %s total, type start", fmtSeconds(int(m.recipe.TotalDuration()/time.Second))))
		return " " + name + sep + hint + " "
	}
}

// renderSteps shows every step, marking finished, current and upcoming.
func (m model) renderSteps() string {
	parts := make([]string, 0, len(m.recipe.Steps))
	for i, step := range m.recipe.Steps {
		label := step.Kind.String()
		switch {
		case m.snap.Stage.Kind == engine.StageDone,
			m.snap.Stage.IsStep() && i < m.snap.Stage.Index:
			parts = append(parts, secondaryStyle.Render(label+" ✓"))
		case m.snap.Stage.IsStep() && i == m.snap.Stage.Index:
			parts = append(parts, stageStyle.Render("▸ "+label))
		default:
			parts = append(parts, labelStyle.Render(label))
		}
	}
	return strings.Join(parts, sepStyle.Render(" · "))
}

// renderProgress draws a bar of width cells filled to frac.
func renderProgress(frac float64, width int) string {
	if frac < 0 {
		frac = 0
	}
	if frac > 1 {
		frac = 1
	}
	filled := int(frac*float64(width) + 0.5)
	return filledStyle.Render(strings.Repeat("█", filled)) +
		emptyStyle.Render(strings.Repeat("░", width-filled))
}

// stageLine is the scrollback line for a transition, or "".
func stageLine(ev engine.Event) string {
	s := ev.Snapshot
	switch {
	case ev.Type == engine.EventCancelled:
		return secondaryStyle.Render("  cancelled")
	case ev.Type != engine.EventStage:
		return ""
	case s.Stage.IsStep():
		return stepLineStyle.Render(fmt.Sprintf("  %d/%d  %s  %s", s.Stage.Index+1, s.StepCount, s.Label(), fmtSeconds(int(s.Duration/time.Second))))
	case s.Stage.Kind == engine.StageDone:
		return doneStyle.Render("  Done. Enjoy.")
	}
	return ""
}

// ── Helpers ──────────────────────────────────────────────────────

func clampWidth(w int) int {
	switch {
	case w < 10:
		return 10
	case w > 60:
		return 60
	}
	return w
}

func fmtSeconds(secs int) string {
	if secs < 0 {
		secs = 0
	}
	m, s := secs/60, secs%60
	if m == 0 {
		return fmt.Sprintf("%ds", s)
	}
	return fmt.Sprintf("%dm%02ds", m, s)
}
