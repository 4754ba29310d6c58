package recipe

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/hammamikhairi/brewtimer/internal/domain"
	"github.com/hammamikhairi/brewtimer/internal/logger"
)

const sampleCatalog = `
recipes:
  - id: hoffmann
    name: Hoffmann
    favorite: true
    notes: Light roast, 11 g.
    steps:
      - kind: pour
        seconds: 10
      - kind: Steep
        duration: 2m
      - kind: plunge
        duration: 30s
        notes: gently
  - id: instant
    name: Instant
    steps: []
`

func TestParseCatalog(t *testing.T) {
	recipes, err := Parse([]byte(sampleCatalog))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(recipes) != 2 {
		t.Fatalf("expected 2 recipes, got %d", len(recipes))
	}

	h := recipes[0]
	if h.ID != "hoffmann" || !h.Favorite || len(h.Steps) != 3 {
		t.Fatalf("unexpected recipe: %+v", h)
	}
	if h.Steps[1].Kind != domain.StepSteep || h.Steps[1].Duration != 2*time.Minute {
		t.Fatalf("step 2 = %+v", h.Steps[1])
	}
	if h.Steps[2].Notes != "gently" {
		t.Fatalf("step notes lost: %+v", h.Steps[2])
	}
	if len(recipes[1].Steps) != 0 {
		t.Fatal("empty step list should be kept")
	}
}

func TestParseRejectsBadInput(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"unknown kind", "recipes:\n  - id: a\n    name: A\n    steps:\n      - kind: swirl\n        seconds: 5\n"},
		{"negative seconds", "recipes:\n  - id: a\n    name: A\n    steps:\n      - kind: pour\n        seconds: -5\n"},
		{"both units", "recipes:\n  - id: a\n    name: A\n    steps:\n      - kind: pour\n        seconds: 5\n        duration: 5s\n"},
		{"bad duration", "recipes:\n  - id: a\n    name: A\n    steps:\n      - kind: pour\n        duration: soon\n"},
		{"duplicate id", "recipes:\n  - id: a\n    name: A\n  - id: a\n    name: B\n"},
		{"missing name", "recipes:\n  - id: a\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			if !errors.Is(err, domain.ErrInvalidRecipe) {
				t.Fatalf("expected ErrInvalidRecipe, got %v", err)
			}
		})
	}
}

func TestParseMalformedYAML(t *testing.T) {
	if _, err := Parse([]byte("recipes: [")); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestLoadFileMissingIsEmpty(t *testing.T) {
	recipes, err := LoadFile(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil || recipes != nil {
		t.Fatalf("LoadFile = %v, %v", recipes, err)
	}
}

func TestLoadInto(t *testing.T) {
	path := filepath.Join(t.TempDir(), "recipes.yaml")
	if err := os.WriteFile(path, []byte(sampleCatalog), 0o644); err != nil {
		t.Fatal(err)
	}

	src := NewMemorySource(logger.New(logger.LevelOff, nil))
	n, err := LoadInto(src, path)
	if err != nil {
		t.Fatalf("LoadInto: %v", err)
	}
	if n != 2 {
		t.Fatalf("added %d recipes, want 2", n)
	}

	list, _ := src.List(t.Context())
	if len(list) != 5 {
		t.Fatalf("expected 5 recipes after load, got %d", len(list))
	}
	// Both pinned recipes come first, by name.
	if list[0].ID != "hoffmann" || list[1].ID != DefaultRecipeID {
		t.Fatalf("unexpected order: %s, %s", list[0].ID, list[1].ID)
	}
}
