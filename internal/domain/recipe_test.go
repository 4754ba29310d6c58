package domain

import (
	"errors"
	"testing"
	"time"
)

func TestParseStepKind(t *testing.T) {
	tests := []struct {
		in      string
		want    StepKind
		wantErr bool
	}{
		{"pour", StepPour, false},
		{"Stir", StepStir, false},
		{" STEEP ", StepSteep, false},
		{"flip", StepFlip, false},
		{"plunge", StepPlunge, false},
		{"shake", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseStepKind(tt.in)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidRecipe) {
					t.Fatalf("expected ErrInvalidRecipe, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Fatalf("got %s, want %s", got, tt.want)
			}
		})
	}
}

func TestStepKindLabelsRoundTrip(t *testing.T) {
	for _, k := range StepKinds {
		got, err := ParseStepKind(k.String())
		if err != nil || got != k {
			t.Fatalf("label %q did not parse back to %d (got %d, err %v)", k, k, got, err)
		}
	}
}

func TestRecipeSummary(t *testing.T) {
	r := &Recipe{
		ID:       "r1",
		Name:     "Test",
		Favorite: true,
		Steps: []Step{
			{Kind: StepPour, Duration: 10 * time.Second},
			{Kind: StepStir, Duration: 15 * time.Second},
		},
	}

	s := r.Summary()
	if s.StepCount != 2 {
		t.Fatalf("expected 2 steps, got %d", s.StepCount)
	}
	if s.Total != 25*time.Second {
		t.Fatalf("expected 25s total, got %s", s.Total)
	}
	if !s.Favorite {
		t.Fatal("expected favorite flag to carry over")
	}
}
