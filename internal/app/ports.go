package app

import (
	"context"
	"time"

	"trivia-quiz-service/internal/domain"
)

// QuestionRepository persists the question pool.
type QuestionRepository interface {
	CountQuestions(ctx context.Context) (int, error)
	// CreateQuestion stores q; a text collision yields domain.ErrDuplicateQuestion.
	CreateQuestion(ctx context.Context, q domain.Question) error
	// QuestionTextExists compares case-insensitively.
	QuestionTextExists(ctx context.Context, text string) (bool, error)
	GetQuestion(ctx context.Context, id string) (domain.Question, error)
	// ListQuestionIDs returns every id, or only those with the given difficulty when it is non-zero.
	ListQuestionIDs(ctx context.Context, difficulty int) ([]string, error)
	ListQuestions(ctx context.Context, difficulty int) ([]domain.Question, error)
	// DeleteAllQuestions is the bulk administrative delete; answers referencing them go too.
	DeleteAllQuestions(ctx context.Context) (int, error)
	// EnsureCategory returns the category with name, creating it if needed.
	EnsureCategory(ctx context.Context, name, description string) (domain.Category, error)
	ListCategories(ctx context.Context) ([]domain.Category, error)
}

// GameRepository persists games.
type GameRepository interface {
	CreateGame(ctx context.Context, g domain.Game) error
	GetGame(ctx context.Context, id string) (domain.Game, error)
	// AddScore applies delta atomically and returns the new score.
	AddScore(ctx context.Context, id string, delta int) (int, error)
	// FinishGame moves an unfinished game to finished, stamping at. Finishing twice keeps the first stamp.
	FinishGame(ctx context.Context, id string, at time.Time) (domain.Game, error)
}

// AnswerRepository persists the answer log.
type AnswerRepository interface {
	// CreateAnswer yields domain.ErrAlreadyAnswered when the (game, question) pair exists.
	CreateAnswer(ctx context.Context, a domain.PlayerAnswer) error
	ListAnswers(ctx context.Context, gameID string) ([]domain.PlayerAnswer, error)
	HasAnswer(ctx context.Context, gameID, questionID string) (bool, error)
}

// Store bundles the repositories a backend provides.
type Store interface {
	QuestionRepository
	GameRepository
	AnswerRepository
}

// QuestionGenerator produces one question per call.
type QuestionGenerator interface {
	Generate(ctx context.Context, topic string) (domain.GeneratedQuestion, error)
}

// PoolLock serialises replenishment across processes. ok is false when another holder is active.
type PoolLock interface {
	Acquire(ctx context.Context) (release func(), ok bool, err error)
}
