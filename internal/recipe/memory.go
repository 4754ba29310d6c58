// Package recipe provides recipe source implementations.
package recipe

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/hammamikhairi/brewtimer/internal/domain"
	"github.com/hammamikhairi/brewtimer/internal/logger"
)

// Compile-time interface check.
var _ domain.RecipeSource = (*MemorySource)(nil)

// DefaultRecipeID is the recipe started when none is named.
const DefaultRecipeID = "standard"

// MemorySource holds recipes in memory. Safe for concurrent use. Callers
// get copies, so a running timer never sees a recipe change under it.
type MemorySource struct {
	mu      sync.RWMutex
	recipes map[string]*domain.Recipe
	log     *logger.Logger
}

// NewMemorySource creates a recipe source preloaded with the built-in templates.
func NewMemorySource(log *logger.Logger) *MemorySource {
	src := &MemorySource{
		recipes: make(map[string]*domain.Recipe),
		log:     log,
	}
	src.seed()
	return src
}

// List returns summaries of all recipes, pinned ones first, then by name.
func (s *MemorySource) List(ctx context.Context) ([]domain.RecipeSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.RecipeSummary, 0, len(s.recipes))
	for _, r := range s.recipes {
		out = append(out, r.Summary())
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Favorite != out[j].Favorite {
			return out[i].Favorite
		}
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID < out[j].ID
	})
	s.log.Debug("listing recipes, count=%d", len(out))
	return out, nil
}

// Get returns a copy of the recipe with the given ID.
func (s *MemorySource) Get(ctx context.Context, id string) (*domain.Recipe, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.recipes[id]
	if !ok {
		s.log.Debug("recipe not found: %s", id)
		return nil, fmt.Errorf("recipe %q: %w", id, domain.ErrNotFound)
	}
	return clone(r), nil
}

// Add validates and stores a recipe, replacing any with the same ID.
func (s *MemorySource) Add(recipe *domain.Recipe) error {
	if err := Validate(recipe); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.recipes[recipe.ID]; exists {
		s.log.Debug("replacing recipe %s", recipe.ID)
	}
	s.recipes[recipe.ID] = clone(recipe)
	return nil
}

// Validate checks that a recipe can be run.
func Validate(r *domain.Recipe) error {
	if r.ID == "" {
		return fmt.Errorf("%w: missing id", domain.ErrInvalidRecipe)
	}
	if r.Name == "" {
		return fmt.Errorf("%w: recipe %q has no name", domain.ErrInvalidRecipe, r.ID)
	}
	for i, step := range r.Steps {
		if step.Duration < 0 {
			return fmt.Errorf("%w: recipe %q step %d has negative duration", domain.ErrInvalidRecipe, r.ID, i+1)
		}
	}
	return nil
}

func clone(r *domain.Recipe) *domain.Recipe {
	out := *r
	out.Steps = make([]domain.Step, len(r.Steps))
	copy(out.Steps, r.Steps)
	return &out
}

// seed populates the source with the built-in templates.
func (s *MemorySource) seed() {
	recipes := []*domain.Recipe{
		standard(),
		inverted(),
		quick(),
	}
	for _, r := range recipes {
		s.recipes[r.ID] = r
	}
	s.log.Debug("seeded %d recipes", len(recipes))
}

func sec(n int) time.Duration { return time.Duration(n) * time.Second }

// standard is the default template every new recipe starts from.
func standard() *domain.Recipe {
	return &domain.Recipe{
		ID:       DefaultRecipeID,
		Name:     "Standard",
		Notes:    "Fine grind, 15 g coffee, 230 g water just off the boil.",
		Favorite: true,
		Steps: []domain.Step{
			{Kind: domain.StepPour, Duration: sec(10)},
			{Kind: domain.StepStir, Duration: sec(15)},
			{Kind: domain.StepSteep, Duration: sec(45)},
			{Kind: domain.StepPour, Duration: sec(15)},
			{Kind: domain.StepFlip, Duration: sec(5)},
			{Kind: domain.StepPlunge, Duration: sec(20)},
		},
	}
}

func inverted() *domain.Recipe {
	return &domain.Recipe{
		ID:    "inverted",
		Name:  "Inverted",
		Notes: "Brew upside down, flip onto the cup before plunging.",
		Steps: []domain.Step{
			{Kind: domain.StepPour, Duration: sec(15)},
			{Kind: domain.StepStir, Duration: sec(10)},
			{Kind: domain.StepSteep, Duration: sec(90)},
			{Kind: domain.StepFlip, Duration: sec(10)},
			{Kind: domain.StepPlunge, Duration: sec(30)},
		},
	}
}

func quick() *domain.Recipe {
	return &domain.Recipe{
		ID:    "quick",
		Name:  "Quick",
		Notes: "One minute cup.",
		Steps: []domain.Step{
			{Kind: domain.StepPour, Duration: sec(10)},
			{Kind: domain.StepStir, Duration: sec(10)},
			{Kind: domain.StepSteep, Duration: sec(20)},
			{Kind: domain.StepPlunge, Duration: sec(20)},
		},
	}
}
