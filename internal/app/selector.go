package app

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"trivia-quiz-service/internal/domain"
)

// Selector picks the next unanswered question for a game.
type Selector struct {
	questions QuestionRepository
	answers   AnswerRepository

	mu  sync.Mutex
	rnd *rand.Rand
}

func NewSelector(questions QuestionRepository, answers AnswerRepository) *Selector {
	return NewSelectorWithRand(questions, answers, rand.New(rand.NewSource(time.Now().UnixNano())))
}

// NewSelectorWithRand is used by tests for a seeded source.
func NewSelectorWithRand(questions QuestionRepository, answers AnswerRepository, rnd *rand.Rand) *Selector {
	return &Selector{questions: questions, answers: answers, rnd: rnd}
}

// SelectNext returns a uniformly random question among those matching the
// game's difficulty preference that the game has not answered yet.
// domain.ErrBoardExhausted means nothing is left.
func (s *Selector) SelectNext(ctx context.Context, game domain.Game) (domain.Question, error) {
	candidates, err := s.Candidates(ctx, game)
	if err != nil {
		return domain.Question{}, err
	}
	if len(candidates) == 0 {
		return domain.Question{}, domain.ErrBoardExhausted
	}

	s.mu.Lock()
	id := candidates[s.rnd.Intn(len(candidates))]
	s.mu.Unlock()

	return s.questions.GetQuestion(ctx, id)
}

// Candidates lists the ids SelectNext chooses from.
func (s *Selector) Candidates(ctx context.Context, game domain.Game) ([]string, error) {
	ids, err := s.questions.ListQuestionIDs(ctx, game.DifficultyPref)
	if err != nil {
		return nil, err
	}
	answered, err := s.answers.ListAnswers(ctx, game.ID)
	if err != nil {
		return nil, err
	}
	if len(answered) == 0 {
		return ids, nil
	}

	seen := make(map[string]struct{}, len(answered))
	for _, a := range answered {
		seen[a.QuestionID] = struct{}{}
	}
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; !ok {
			out = append(out, id)
		}
	}
	return out, nil
}
