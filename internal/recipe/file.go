package recipe

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/hammamikhairi/brewtimer/internal/domain"
)

// yamlCatalog is the on-disk recipe file:
//
//	recipes:
//	  - id: hoffmann
//	    name: Hoffmann
//	    favorite: true
//	    steps:
//	      - kind: pour
//	        seconds: 10
//	      - kind: steep
//	        duration: 2m
type yamlCatalog struct {
	Recipes []yamlRecipe `yaml:"recipes"`
}

type yamlRecipe struct {
	ID       string     `yaml:"id"`
	Name     string     `yaml:"name"`
	Notes    string     `yaml:"notes"`
	Favorite bool       `yaml:"favorite"`
	Steps    []yamlStep `yaml:"steps"`
}

type yamlStep struct {
	Kind     string `yaml:"kind"`
	Seconds  *int   `yaml:"seconds"`
	Duration string `yaml:"duration"`
	Notes    string `yaml:"notes"`
}

// LoadFile reads a YAML recipe catalog. A missing file yields no recipes
// and no error.
func LoadFile(path string) ([]*domain.Recipe, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read recipe file: %w", err)
	}
	return Parse(raw)
}

// Parse decodes and validates a YAML recipe catalog.
func Parse(raw []byte) ([]*domain.Recipe, error) {
	var cat yamlCatalog
	if err := yaml.Unmarshal(raw, &cat); err != nil {
		return nil, fmt.Errorf("parse recipe yaml: %w", err)
	}

	seen := make(map[string]bool, len(cat.Recipes))
	out := make([]*domain.Recipe, 0, len(cat.Recipes))
	for i, yr := range cat.Recipes {
		r, err := yr.toDomain()
		if err != nil {
			return nil, fmt.Errorf("recipe %d: %w", i+1, err)
		}
		if seen[r.ID] {
			return nil, fmt.Errorf("%w: duplicate id %q", domain.ErrInvalidRecipe, r.ID)
		}
		seen[r.ID] = true
		out = append(out, r)
	}
	return out, nil
}

// LoadInto adds every recipe in the file to src and returns how many were added.
func LoadInto(src *MemorySource, path string) (int, error) {
	recipes, err := LoadFile(path)
	if err != nil {
		return 0, err
	}
	for _, r := range recipes {
		if err := src.Add(r); err != nil {
			return 0, err
		}
	}
	return len(recipes), nil
}

func (yr yamlRecipe) toDomain() (*domain.Recipe, error) {
	r := &domain.Recipe{
		ID:       strings.TrimSpace(yr.ID),
		Name:     strings.TrimSpace(yr.Name),
		Notes:    yr.Notes,
		Favorite: yr.Favorite,
		Steps:    make([]domain.Step, 0, len(yr.Steps)),
	}
	for j, ys := range yr.Steps {
		step, err := ys.toDomain()
		if err != nil {
			return nil, fmt.Errorf("step %d: %w", j+1, err)
		}
		r.Steps = append(r.Steps, step)
	}
	if err := Validate(r); err != nil {
		return nil, err
	}
	return r, nil
}

func (ys yamlStep) toDomain() (domain.Step, error) {
	kind, err := domain.ParseStepKind(ys.Kind)
	if err != nil {
		return domain.Step{}, err
	}

	var d time.Duration
	switch {
	case ys.Seconds != nil && ys.Duration != "":
		return domain.Step{}, fmt.Errorf("%w: set seconds or duration, not both", domain.ErrInvalidRecipe)
	case ys.Seconds != nil:
		d = time.Duration(*ys.Seconds) * time.Second
	case ys.Duration != "":
		d, err = time.ParseDuration(ys.Duration)
		if err != nil {
			return domain.Step{}, fmt.Errorf("%w: %v", domain.ErrInvalidRecipe, err)
		}
	}
	if d < 0 {
		return domain.Step{}, fmt.Errorf("%w: negative duration", domain.ErrInvalidRecipe)
	}
	return domain.Step{Kind: kind, Duration: d, Notes: ys.Notes}, nil
}
