package app_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"trivia-quiz-service/internal/domain"
	"trivia-quiz-service/internal/infra/memory"
)

var errUnavailable = errors.New("service unavailable")

// failingGenerator fails every call and counts them.
type failingGenerator struct {
	calls atomic.Int32
}

func (g *failingGenerator) Generate(context.Context, string) (domain.GeneratedQuestion, error) {
	g.calls.Add(1)
	return domain.GeneratedQuestion{}, errUnavailable
}

// sequenceGenerator yields numbered questions, or the same text when repeat is set.
type sequenceGenerator struct {
	mu     sync.Mutex
	calls  int
	repeat bool
}

func (g *sequenceGenerator) Generate(context.Context, string) (domain.GeneratedQuestion, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls++
	text := fmt.Sprintf("Generated question %d?", g.calls)
	if g.repeat {
		text = "Always the same question?"
	}
	return domain.GeneratedQuestion{
		Text:       text,
		Choices:    [domain.ChoiceCount]string{"a", "b", "c", "d"},
		Correct:    domain.LabelA,
		Difficulty: 2,
	}, nil
}

func (g *sequenceGenerator) count() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.calls
}

func seedQuestions(store *memory.Store, n, difficulty int) []domain.Question {
	out := make([]domain.Question, 0, n)
	for i := 0; i < n; i++ {
		q := domain.Question{
			ID:         fmt.Sprintf("q%d", i+1),
			Text:       fmt.Sprintf("Stored question %d?", i+1),
			Choices:    [domain.ChoiceCount]string{"w", "x", "y", "z"},
			Correct:    domain.LabelC,
			Difficulty: difficulty,
			CreatedAt:  time.Now(),
		}
		if err := store.CreateQuestion(context.Background(), q); err != nil {
			panic(err)
		}
		out = append(out, q)
	}
	return out
}
