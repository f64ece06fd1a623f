package generator

import (
	"context"
	"sync"

	"trivia-quiz-service/internal/domain"
)

// StaticGenerator hands out the built-in fallback questions in turn. It is
// wired in when no generation credential is configured.
type StaticGenerator struct {
	mu        sync.Mutex
	next      int
	questions []domain.GeneratedQuestion
}

func NewStaticGenerator(questions []domain.FallbackQuestion) *StaticGenerator {
	out := make([]domain.GeneratedQuestion, 0, len(questions))
	for _, q := range questions {
		out = append(out, q.GeneratedQuestion)
	}
	return &StaticGenerator{questions: out}
}

func (s *StaticGenerator) Generate(_ context.Context, _ string) (domain.GeneratedQuestion, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.questions) == 0 {
		return domain.GeneratedQuestion{}, &GenerationError{Attempts: 1, Err: &ParseError{Reason: "static question set is empty"}}
	}
	q := s.questions[s.next%len(s.questions)]
	s.next++
	return q, nil
}
