// Package conversation turns typed or spoken input into timer commands and
// prints timer output for plain terminals.
package conversation

import (
	"context"
	"regexp"
	"strings"

	"github.com/hammamikhairi/brewtimer/internal/domain"
	"github.com/hammamikhairi/brewtimer/internal/logger"
)

// Compile-time interface check.
var _ domain.CommandParser = (*KeywordParser)(nil)

// KeywordParser matches input to commands. Typed input usually matches a
// whole-line pattern; transcribed speech ("okay, start the timer") falls
// back to the first command word found in the sentence.
type KeywordParser struct {
	log      *logger.Logger
	patterns []patternRule
	words    []wordRule
}

type patternRule struct {
	regex   *regexp.Regexp
	command domain.CommandType
}

type wordRule struct {
	words   map[string]bool
	command domain.CommandType
}

// NewKeywordParser creates a keyword-based command parser.
func NewKeywordParser(log *logger.Logger) *KeywordParser {
	p := &KeywordParser{log: log}
	p.patterns = []patternRule{
		{regexp.MustCompile(`(?i)^(start|go|begin|brew|s|let'?s go)$`), domain.CommandStart},
		{regexp.MustCompile(`(?i)^(cancel|stop|abort|c|x)$`), domain.CommandCancel},
		{regexp.MustCompile(`(?i)^(restart|again|reset|r|start over)$`), domain.CommandRestart},
		{regexp.MustCompile(`(?i)^(status|where|how long|time|left|\.)$`), domain.CommandStatus},
		{regexp.MustCompile(`(?i)^(help|h|\?)$`), domain.CommandHelp},
		{regexp.MustCompile(`(?i)^(quit|exit|q|bye)$`), domain.CommandQuit},
	}
	// Checked in order: "stop and start over" is a restart, not a cancel.
	p.words = []wordRule{
		{set("restart", "reset", "over", "again"), domain.CommandRestart},
		{set("cancel", "stop", "abort"), domain.CommandCancel},
		{set("start", "begin", "go", "brew"), domain.CommandStart},
		{set("status", "left", "remaining", "long"), domain.CommandStatus},
		{set("quit", "exit", "bye", "goodbye"), domain.CommandQuit},
		{set("help"), domain.CommandHelp},
	}
	return p
}

func set(words ...string) map[string]bool {
	m := make(map[string]bool, len(words))
	for _, w := range words {
		m[w] = true
	}
	return m
}

// Parse converts input into a command. Unrecognized input yields
// CommandUnknown carrying the raw text; it is never an error.
func (p *KeywordParser) Parse(ctx context.Context, input string) (*domain.Command, error) {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return &domain.Command{Type: domain.CommandUnknown}, nil
	}

	p.log.Debug("parsing input: %q", trimmed)

	for _, rule := range p.patterns {
		if rule.regex.MatchString(trimmed) {
			p.log.Debug("matched command: %s", rule.command)
			return &domain.Command{Type: rule.command, Input: trimmed}, nil
		}
	}

	words := strings.FieldsFunc(strings.ToLower(trimmed), func(r rune) bool {
		return !(r >= 'a' && r <= 'z' || r == '\'')
	})
	for _, rule := range p.words {
		for _, w := range words {
			if rule.words[w] {
				p.log.Debug("matched command %s on word %q", rule.command, w)
				return &domain.Command{Type: rule.command, Input: trimmed}, nil
			}
		}
	}

	p.log.Debug("no match, returning unknown command")
	return &domain.Command{Type: domain.CommandUnknown, Input: trimmed}, nil
}
