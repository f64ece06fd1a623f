package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"trivia-quiz-service/internal/domain"
)

// PoolSettings controls how a game start tops up the question pool.
type PoolSettings struct {
	MinQuestions int
	MaxAttempts  int
	Topic        string
	Async        bool
}

// StartRequest carries the optional player name and difficulty preference.
type StartRequest struct {
	PlayerName string `json:"playerName" validate:"max=100"`
	Difficulty int    `json:"difficulty" validate:"min=0,max=5"`
}

// GameService is the session controller: it starts games, hands out
// questions, scores answers and finishes games when the board runs out.
type GameService struct {
	store       Store
	selector    *Selector
	replenisher *Replenisher
	policy      ScoringPolicy
	pool        PoolSettings
	feed        *Feed
	now         func() time.Time
	logger      *slog.Logger
}

func NewGameService(store Store, selector *Selector, replenisher *Replenisher, policy ScoringPolicy, pool PoolSettings, logger *slog.Logger) *GameService {
	if policy == nil {
		policy = FlatPolicy{}
	}
	return &GameService{
		store:       store,
		selector:    selector,
		replenisher: replenisher,
		policy:      policy,
		pool:        pool,
		feed:        NewFeed(),
		now:         time.Now,
		logger:      logger,
	}
}

// SetClock is test-only for deterministic timestamps.
func (s *GameService) SetClock(now func() time.Time) {
	s.now = now
}

// Policy returns the configured scoring policy.
func (s *GameService) Policy() ScoringPolicy {
	return s.policy
}

// Subscribe streams score updates for an existing game. The caller must
// invoke the returned cancel function.
func (s *GameService) Subscribe(ctx context.Context, gameID string) (<-chan domain.ScoreUpdate, func(), error) {
	if _, err := s.store.GetGame(ctx, gameID); err != nil {
		return nil, nil, err
	}
	ch, cancel := s.feed.Subscribe(gameID)
	return ch, cancel, nil
}

func (s *GameService) publish(ctx context.Context, game domain.Game) {
	if s.feed.Subscribers(game.ID) == 0 {
		return
	}
	answers, err := s.store.ListAnswers(ctx, game.ID)
	if err != nil {
		s.logger.Warn("list answers for score update failed", "game", game.ID, "err", err)
		return
	}
	s.feed.Publish(domain.ScoreUpdate{
		GameID:    game.ID,
		Score:     game.Score,
		Status:    game.Status,
		Answered:  len(answers),
		UpdatedAt: s.now().UTC(),
	})
}

// PoolSize reports the number of stored questions.
func (s *GameService) PoolSize(ctx context.Context) (int, error) {
	return s.store.CountQuestions(ctx)
}

// Start creates an active game with score 0 and makes sure there is
// something to play. Replenishment problems never fail the start.
func (s *GameService) Start(ctx context.Context, req StartRequest) (domain.Game, error) {
	if err := domain.ValidateDifficulty(req.Difficulty); err != nil {
		return domain.Game{}, err
	}

	game := domain.Game{
		ID:             uuid.NewString(),
		PlayerName:     strings.TrimSpace(req.PlayerName),
		Status:         domain.GameStatusActive,
		Score:          0,
		DifficultyPref: req.Difficulty,
		StartedAt:      s.now().UTC(),
	}
	if err := s.store.CreateGame(ctx, game); err != nil {
		return domain.Game{}, fmt.Errorf("create game: %w", err)
	}
	s.logger.Info("game started", "game", game.ID, "player", game.PlayerName, "difficulty", game.DifficultyPref)

	s.ensurePool(ctx)
	return game, nil
}

func (s *GameService) ensurePool(ctx context.Context) {
	if s.replenisher == nil {
		return
	}
	req := PoolRequest{
		MinCount:    s.pool.MinQuestions,
		Topic:       s.pool.Topic,
		MaxAttempts: s.pool.MaxAttempts,
	}
	if s.pool.Async {
		s.replenisher.EnsureMinQuestionsAsync(req)
	} else if _, err := s.replenisher.EnsureMinQuestions(ctx, req); err != nil {
		s.logger.Warn("question replenishment failed", "err", err)
	}

	count, err := s.store.CountQuestions(ctx)
	if err != nil {
		s.logger.Warn("count questions failed", "err", err)
		return
	}
	if count == 0 {
		if _, err := s.replenisher.SeedFallback(ctx); err != nil {
			s.logger.Warn("seeding fallback questions failed", "err", err)
		}
	}
}

// GetGame loads a game by id.
func (s *GameService) GetGame(ctx context.Context, id string) (domain.Game, error) {
	return s.store.GetGame(ctx, id)
}

// Advance presents the next question or, when none is left, finishes the game.
func (s *GameService) Advance(ctx context.Context, gameID string) (domain.Turn, error) {
	game, err := s.store.GetGame(ctx, gameID)
	if err != nil {
		return domain.Turn{}, err
	}
	if game.Finished() {
		return domain.Turn{Game: game, Finished: true}, nil
	}

	q, err := s.selector.SelectNext(ctx, game)
	switch {
	case errors.Is(err, domain.ErrBoardExhausted):
		finished, err := s.store.FinishGame(ctx, game.ID, s.now().UTC())
		if err != nil {
			return domain.Turn{}, fmt.Errorf("finish game: %w", err)
		}
		s.logger.Info("game finished", "game", game.ID, "score", finished.Score)
		s.publish(ctx, finished)
		return domain.Turn{Game: finished, Finished: true}, nil
	case err != nil:
		return domain.Turn{}, err
	}

	public := q.Public()
	return domain.Turn{Game: game, Question: &public}, nil
}

// RecordAnswer scores a submitted choice. Answering a question a second time
// within the same game changes nothing and reports the current score.
func (s *GameService) RecordAnswer(ctx context.Context, gameID, questionID, choice string) (domain.AnswerResult, error) {
	game, err := s.store.GetGame(ctx, gameID)
	if err != nil {
		return domain.AnswerResult{}, err
	}
	q, err := s.store.GetQuestion(ctx, questionID)
	if err != nil {
		return domain.AnswerResult{}, err
	}
	label, err := domain.ParseLabel(choice)
	if err != nil {
		return domain.AnswerResult{}, err
	}

	result := domain.AnswerResult{
		GameID:        game.ID,
		QuestionID:    q.ID,
		CorrectChoice: q.Correct,
		TotalScore:    game.Score,
	}

	answered, err := s.store.HasAnswer(ctx, game.ID, q.ID)
	if err != nil {
		return domain.AnswerResult{}, err
	}
	if answered {
		return s.duplicate(ctx, result)
	}
	if game.Finished() {
		return domain.AnswerResult{}, domain.ErrGameFinished
	}

	correct := label == q.Correct
	delta := s.policy.Delta(q, correct)
	answer := domain.PlayerAnswer{
		ID:         uuid.NewString(),
		GameID:     game.ID,
		QuestionID: q.ID,
		Selected:   label,
		Correct:    correct,
		Points:     delta,
		CreatedAt:  s.now().UTC(),
	}
	if err := s.store.CreateAnswer(ctx, answer); err != nil {
		if errors.Is(err, domain.ErrAlreadyAnswered) {
			return s.duplicate(ctx, result)
		}
		return domain.AnswerResult{}, fmt.Errorf("save answer: %w", err)
	}

	total := game.Score
	if delta != 0 {
		if total, err = s.store.AddScore(ctx, game.ID, delta); err != nil {
			// The answer row exists, so a resubmission is a no-op and the delta is gone.
			s.logger.Error("answer saved but score update failed, delta lost",
				"game", game.ID, "question", q.ID, "answer", answer.ID, "delta", delta, "err", err)
			return domain.AnswerResult{}, fmt.Errorf("update score: %w", err)
		}
	}

	result.Correct = correct
	result.Awarded = delta
	result.TotalScore = total
	game.Score = total
	s.publish(ctx, game)
	s.logger.Debug("answer recorded", "game", game.ID, "question", q.ID, "correct", correct, "delta", delta)
	return result, nil
}

func (s *GameService) duplicate(ctx context.Context, result domain.AnswerResult) (domain.AnswerResult, error) {
	game, err := s.store.GetGame(ctx, result.GameID)
	if err != nil {
		return domain.AnswerResult{}, err
	}
	answers, err := s.store.ListAnswers(ctx, result.GameID)
	if err != nil {
		return domain.AnswerResult{}, err
	}
	for _, a := range answers {
		if a.QuestionID == result.QuestionID {
			result.Correct = a.Correct
			break
		}
	}
	result.Duplicate = true
	result.Awarded = 0
	result.TotalScore = game.Score
	return result, nil
}

// Finalize summarises a game: answered questions, correct answers and accuracy.
// TotalQuestions counts the questions the player answered, not the whole
// board; questions presented but left unanswered do not lower the accuracy.
func (s *GameService) Finalize(ctx context.Context, gameID string) (domain.FinalStats, error) {
	game, err := s.store.GetGame(ctx, gameID)
	if err != nil {
		return domain.FinalStats{}, err
	}
	answers, err := s.store.ListAnswers(ctx, gameID)
	if err != nil {
		return domain.FinalStats{}, err
	}

	correct := 0
	for _, a := range answers {
		if a.Correct {
			correct++
		}
	}
	accuracy := Accuracy(correct, len(answers))
	return domain.FinalStats{
		GameID:         game.ID,
		PlayerName:     game.PlayerName,
		Status:         game.Status,
		FinalScore:     game.Score,
		TotalQuestions: len(answers),
		CorrectAnswers: correct,
		Accuracy:       accuracy,
		AccuracyText:   fmt.Sprintf("%.1f%%", accuracy),
	}, nil
}

// Accuracy is correct/total*100, or 0 when nothing was answered.
func Accuracy(correct, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(correct) / float64(total) * 100
}

// Board groups the game's question pool by category, marking answered cells.
func (s *GameService) Board(ctx context.Context, gameID string) (domain.Board, error) {
	game, err := s.store.GetGame(ctx, gameID)
	if err != nil {
		return domain.Board{}, err
	}
	questions, err := s.store.ListQuestions(ctx, game.DifficultyPref)
	if err != nil {
		return domain.Board{}, err
	}
	answers, err := s.store.ListAnswers(ctx, gameID)
	if err != nil {
		return domain.Board{}, err
	}
	categories, err := s.store.ListCategories(ctx)
	if err != nil {
		return domain.Board{}, err
	}

	names := make(map[string]string, len(categories))
	for _, c := range categories {
		names[c.ID] = c.Name
	}
	byQuestion := make(map[string]domain.PlayerAnswer, len(answers))
	for _, a := range answers {
		byQuestion[a.QuestionID] = a
	}

	columns := make(map[string][]domain.BoardCell)
	for _, q := range questions {
		title, ok := names[q.CategoryID]
		if !ok {
			title = "General Knowledge"
		}
		a, answered := byQuestion[q.ID]
		columns[title] = append(columns[title], domain.BoardCell{
			QuestionID: q.ID,
			Points:     q.Points(),
			Answered:   answered,
			Correct:    answered && a.Correct,
		})
	}

	board := domain.Board{GameID: game.ID, Columns: make([]domain.BoardColumn, 0, len(columns))}
	for title, cells := range columns {
		sort.SliceStable(cells, func(i, j int) bool { return cells[i].Points < cells[j].Points })
		board.Columns = append(board.Columns, domain.BoardColumn{Category: title, Cells: cells})
	}
	sort.Slice(board.Columns, func(i, j int) bool { return board.Columns[i].Category < board.Columns[j].Category })
	return board, nil
}

// Replenish runs a synchronous top-up of the pool; fields left at zero use
// the configured pool settings.
func (s *GameService) Replenish(ctx context.Context, req PoolRequest) (int, error) {
	if s.replenisher == nil {
		return s.store.CountQuestions(ctx)
	}
	if req.MinCount == 0 {
		req.MinCount = s.pool.MinQuestions
	}
	if req.MaxAttempts == 0 {
		req.MaxAttempts = s.pool.MaxAttempts
	}
	if req.Topic == "" {
		req.Topic = s.pool.Topic
	}
	return s.replenisher.EnsureMinQuestions(ctx, req)
}

// PurgeQuestions removes the whole pool together with the answers that reference it.
func (s *GameService) PurgeQuestions(ctx context.Context) (int, error) {
	n, err := s.store.DeleteAllQuestions(ctx)
	if err != nil {
		return 0, fmt.Errorf("delete questions: %w", err)
	}
	s.logger.Warn("question pool purged", "deleted", n)
	return n, nil
}
