package conversation

import (
	"context"
	"testing"

	"github.com/hammamikhairi/brewtimer/internal/domain"
	"github.com/hammamikhairi/brewtimer/internal/logger"
)

func TestKeywordParser(t *testing.T) {
	log := logger.New(logger.LevelOff, nil)
	parser := NewKeywordParser(log)
	ctx := context.Background()

	tests := []struct {
		input    string
		wantType domain.CommandType
	}{
		// Typed shortcuts
		{"start", domain.CommandStart},
		{"S", domain.CommandStart},
		{"go", domain.CommandStart},
		{"cancel", domain.CommandCancel},
		{"stop", domain.CommandCancel},
		{"x", domain.CommandCancel},
		{"restart", domain.CommandRestart},
		{"r", domain.CommandRestart},
		{"start over", domain.CommandRestart},
		{"status", domain.CommandStatus},
		{".", domain.CommandStatus},
		{"help", domain.CommandHelp},
		{"?", domain.CommandHelp},
		{"quit", domain.CommandQuit},
		{"q", domain.CommandQuit},

		// Transcribed speech
		{"Okay, start the timer.", domain.CommandStart},
		{"please stop it", domain.CommandCancel},
		{"stop and start over", domain.CommandRestart},
		{"how much time is left?", domain.CommandStatus},
		{"Goodbye!", domain.CommandQuit},

		// Unknown
		{"", domain.CommandUnknown},
		{"make it stronger", domain.CommandUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			cmd, err := parser.Parse(ctx, tt.input)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if cmd.Type != tt.wantType {
				t.Errorf("Parse(%q) = %s, want %s", tt.input, cmd.Type, tt.wantType)
			}
		})
	}
}

func TestUnknownKeepsInput(t *testing.T) {
	parser := NewKeywordParser(logger.New(logger.LevelOff, nil))

	cmd, _ := parser.Parse(context.Background(), "  make it stronger ")
	if cmd.Input != "make it stronger" {
		t.Fatalf("Input = %q", cmd.Input)
	}
}
