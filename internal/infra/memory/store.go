package memory

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"trivia-quiz-service/internal/app"
	"trivia-quiz-service/internal/domain"
)

var _ app.Store = (*Store)(nil)

// Store is an in-memory implementation of app.Store. It enforces the same
// uniqueness and cascade rules as the SQL stores.
type Store struct {
	mu sync.RWMutex

	questions     map[string]domain.Question
	questionOrder []string
	questionTexts map[string]string

	categories     map[string]domain.Category
	categoryOrder  []string
	categoryByName map[string]string

	games   map[string]domain.Game
	answers map[string][]domain.PlayerAnswer
}

func NewStore() *Store {
	return &Store{
		questions:      make(map[string]domain.Question),
		questionTexts:  make(map[string]string),
		categories:     make(map[string]domain.Category),
		categoryByName: make(map[string]string),
		games:          make(map[string]domain.Game),
		answers:        make(map[string][]domain.PlayerAnswer),
	}
}

func textKey(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func (s *Store) CountQuestions(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.questions), nil
}

func (s *Store) CreateQuestion(_ context.Context, q domain.Question) error {
	if err := q.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	key := textKey(q.Text)
	if _, ok := s.questionTexts[key]; ok {
		return domain.ErrDuplicateQuestion
	}
	if _, ok := s.questions[q.ID]; ok {
		return domain.ErrDuplicateQuestion
	}
	if q.CategoryID != "" {
		if _, ok := s.categories[q.CategoryID]; !ok {
			return domain.ErrCategoryNotFound
		}
	}
	s.questions[q.ID] = q
	s.questionOrder = append(s.questionOrder, q.ID)
	s.questionTexts[key] = q.ID
	return nil
}

func (s *Store) QuestionTextExists(_ context.Context, text string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.questionTexts[textKey(text)]
	return ok, nil
}

func (s *Store) GetQuestion(_ context.Context, id string) (domain.Question, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	q, ok := s.questions[id]
	if !ok {
		return domain.Question{}, domain.ErrQuestionNotFound
	}
	return q, nil
}

func (s *Store) ListQuestionIDs(_ context.Context, difficulty int) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]string, 0, len(s.questionOrder))
	for _, id := range s.questionOrder {
		if difficulty == 0 || s.questions[id].Difficulty == difficulty {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func (s *Store) ListQuestions(_ context.Context, difficulty int) ([]domain.Question, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Question, 0, len(s.questionOrder))
	for _, id := range s.questionOrder {
		q := s.questions[id]
		if difficulty == 0 || q.Difficulty == difficulty {
			out = append(out, q)
		}
	}
	return out, nil
}

func (s *Store) DeleteAllQuestions(_ context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := len(s.questions)
	s.questions = make(map[string]domain.Question)
	s.questionTexts = make(map[string]string)
	s.questionOrder = nil
	// answers reference questions and go with them
	s.answers = make(map[string][]domain.PlayerAnswer)
	return n, nil
}

func (s *Store) EnsureCategory(_ context.Context, name, description string) (domain.Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return domain.Category{}, domain.ErrCategoryNotFound
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if id, ok := s.categoryByName[textKey(name)]; ok {
		return s.categories[id], nil
	}
	c := domain.Category{ID: uuid.NewString(), Name: name, Description: description}
	s.categories[c.ID] = c
	s.categoryOrder = append(s.categoryOrder, c.ID)
	s.categoryByName[textKey(name)] = c.ID
	return c, nil
}

func (s *Store) ListCategories(_ context.Context) ([]domain.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Category, 0, len(s.categoryOrder))
	for _, id := range s.categoryOrder {
		out = append(out, s.categories[id])
	}
	return out, nil
}

func (s *Store) CreateGame(_ context.Context, g domain.Game) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.games[g.ID] = g
	return nil
}

func (s *Store) GetGame(_ context.Context, id string) (domain.Game, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	g, ok := s.games[id]
	if !ok {
		return domain.Game{}, domain.ErrGameNotFound
	}
	return g, nil
}

func (s *Store) AddScore(_ context.Context, id string, delta int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.games[id]
	if !ok {
		return 0, domain.ErrGameNotFound
	}
	g.Score += delta
	s.games[id] = g
	return g.Score, nil
}

func (s *Store) FinishGame(_ context.Context, id string, at time.Time) (domain.Game, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.games[id]
	if !ok {
		return domain.Game{}, domain.ErrGameNotFound
	}
	if g.Finished() {
		return g, nil
	}
	g.Status = domain.GameStatusFinished
	g.FinishedAt = &at
	s.games[id] = g
	return g, nil
}

func (s *Store) CreateAnswer(_ context.Context, a domain.PlayerAnswer) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.games[a.GameID]; !ok {
		return domain.ErrGameNotFound
	}
	if _, ok := s.questions[a.QuestionID]; !ok {
		return domain.ErrQuestionNotFound
	}
	for _, existing := range s.answers[a.GameID] {
		if existing.QuestionID == a.QuestionID {
			return domain.ErrAlreadyAnswered
		}
	}
	s.answers[a.GameID] = append(s.answers[a.GameID], a)
	return nil
}

func (s *Store) ListAnswers(_ context.Context, gameID string) ([]domain.PlayerAnswer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.PlayerAnswer, len(s.answers[gameID]))
	copy(out, s.answers[gameID])
	return out, nil
}

func (s *Store) HasAnswer(_ context.Context, gameID, questionID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, a := range s.answers[gameID] {
		if a.QuestionID == questionID {
			return true, nil
		}
	}
	return false, nil
}
