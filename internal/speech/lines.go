// lines.go centralises every spoken string. Keep lines short and direct;
// the TTS engine handles inflection.
package speech

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/hammamikhairi/brewtimer/internal/domain"
)

// LineDone is spoken when the last step completes. It matches the label
// the timer engine announces.
const LineDone = "Done"

// StageLabels returns every label the timer can announce.
func StageLabels() []string {
	out := make([]string, 0, len(domain.StepKinds)+1)
	for _, k := range domain.StepKinds {
		out = append(out, k.String())
	}
	return append(out, LineDone)
}

// ── Session ──────────────────────────────────────────────────────

func LineReady(recipeName string, total time.Duration) string {
	return fmt.Sprintf("%s, %s total. Say start when you're ready.", recipeName, FormatDurationSpeech(total))
}

func LineStarting(recipeName string) string {
	return fmt.Sprintf("Brewing %s.", recipeName)
}

func LineCancelled() string {
	return "Timer cancelled."
}

func LineAlreadyBrewing() string {
	return "Already brewing. Say cancel or restart."
}

func LineNotBrewing() string {
	return "Nothing is brewing."
}

func LineBye() string {
	return "Bye."
}

func LineHelp() string {
	return "Say start, cancel, restart, status, or quit."
}

func LineUnknown(input string) string {
	return fmt.Sprintf("Didn't catch that: %s.", input)
}

// LineStatus describes the current step for a spoken status request.
func LineStatus(label string, step, total, seconds int) string {
	return fmt.Sprintf("%s, step %d of %d. %s left.", label, step, total, FormatDurationSpeech(time.Duration(seconds)*time.Second))
}

// ── Listening acknowledgment ─────────────────────────────────────
// Spoken when the wake word is heard without a command.

var listeningFillers = []string{
	"Listening.",
	"Yes?",
	"Go ahead.",
	"I'm here.",
}

// LineListening returns a random acknowledgment.
func LineListening() string {
	return listeningFillers[rand.Intn(len(listeningFillers))]
}

// ListeningFillers returns all acknowledgments so they can be prefetched.
func ListeningFillers() []string {
	out := make([]string, len(listeningFillers))
	copy(out, listeningFillers)
	return out
}

// FormatDurationSpeech returns a human-friendly spoken duration.
func FormatDurationSpeech(d time.Duration) string {
	d = d.Round(time.Second)
	m := int(d.Minutes())
	s := int(d.Seconds()) % 60
	switch {
	case m == 0 && s == 1:
		return "1 second"
	case m == 0:
		return fmt.Sprintf("%d seconds", s)
	case s == 0 && m == 1:
		return "1 minute"
	case s == 0:
		return fmt.Sprintf("%d minutes", m)
	case m == 1:
		return fmt.Sprintf("1 minute %d seconds", s)
	default:
		return fmt.Sprintf("%d minutes %d seconds", m, s)
	}
}
