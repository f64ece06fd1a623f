package app

import (
	"context"

	"trivia-quiz-service/internal/domain"
)

// QuestionLoader is the read path a question cache falls back to on a miss.
type QuestionLoader interface {
	GetQuestion(ctx context.Context, id string) (domain.Question, error)
}

// QuestionCache fronts question lookups. Records never change after
// creation, so the only invalidation needed is the bulk delete.
type QuestionCache interface {
	GetQuestion(ctx context.Context, id string) (domain.Question, error)
	Invalidate(ctx context.Context) error
}

type cachedStore struct {
	Store
	cache QuestionCache
}

// WithQuestionCache routes GetQuestion through cache and clears it after a bulk delete.
func WithQuestionCache(store Store, cache QuestionCache) Store {
	if cache == nil {
		return store
	}
	return &cachedStore{Store: store, cache: cache}
}

func (s *cachedStore) GetQuestion(ctx context.Context, id string) (domain.Question, error) {
	return s.cache.GetQuestion(ctx, id)
}

func (s *cachedStore) DeleteAllQuestions(ctx context.Context) (int, error) {
	n, err := s.Store.DeleteAllQuestions(ctx)
	if err != nil {
		return n, err
	}
	return n, s.cache.Invalidate(ctx)
}
