package app

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"trivia-bot/internal/domain"
)

// DefaultMaxAttempts bounds how many generators are tried per question.
const DefaultMaxAttempts = 3

// Generator derives a prompt and answer from one topic of Kind. Build must not
// mutate shared state; it is called concurrently for different channels.
type Generator struct {
	Name  string
	Kind  domain.TopicKind
	Build func(topic domain.Topic) (prompt, answer string, err error)
}

// Registry picks generators uniformly at random and retries failed draws.
type Registry struct {
	generators  []Generator
	maxAttempts int
	pick        func(n int) int
	now         func() time.Time
}

// NewRegistry copies generators; the registry never changes after construction.
func NewRegistry(generators []Generator, maxAttempts int) *Registry {
	return newRegistryWithPicker(generators, maxAttempts, rand.IntN, time.Now)
}

func newRegistryWithPicker(generators []Generator, maxAttempts int, pick func(n int) int, now func() time.Time) *Registry {
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	gens := make([]Generator, len(generators))
	copy(gens, generators)
	return &Registry{
		generators:  gens,
		maxAttempts: maxAttempts,
		pick:        pick,
		now:         now,
	}
}

// Len reports the number of registered generators.
func (r *Registry) Len() int {
	return len(r.generators)
}

// Generate returns a question from a randomly drawn generator. Catalog errors and
// missing topic fields cause a redraw; after maxAttempts failures the last cause is
// returned wrapped in domain.ErrContentUnavailable.
func (r *Registry) Generate(ctx context.Context, catalog Catalog) (domain.Question, error) {
	if len(r.generators) == 0 {
		return domain.Question{}, fmt.Errorf("%w: no generators registered", domain.ErrContentUnavailable)
	}

	var lastErr error
	for attempt := 0; attempt < r.maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return domain.Question{}, fmt.Errorf("%w: %w", domain.ErrContentUnavailable, err)
		}
		gen := r.generators[r.pick(len(r.generators))]
		q, err := r.generateWith(ctx, catalog, gen)
		if err == nil {
			return q, nil
		}
		lastErr = err
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			break
		}
	}
	return domain.Question{}, fmt.Errorf("%w: %w", domain.ErrContentUnavailable, lastErr)
}

func (r *Registry) generateWith(ctx context.Context, catalog Catalog, gen Generator) (domain.Question, error) {
	topic, err := catalog.FetchRandomTopic(ctx, gen.Kind)
	if err != nil {
		return domain.Question{}, fmt.Errorf("fetch %s for %s: %w", gen.Kind, gen.Name, err)
	}
	prompt, answer, err := gen.Build(topic)
	if err != nil {
		return domain.Question{}, fmt.Errorf("generator %s: %w", gen.Name, err)
	}
	return domain.NewQuestion(prompt, answer, r.now())
}
