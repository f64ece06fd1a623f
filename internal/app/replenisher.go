package app

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"trivia-quiz-service/internal/domain"
)

// PoolRequest describes one replenishment run.
type PoolRequest struct {
	MinCount    int    `json:"minCount" validate:"gte=0"`
	Topic       string `json:"topic" validate:"max=200"`
	MaxAttempts int    `json:"maxAttempts" validate:"gte=0"`
}

// Replenisher keeps the question pool at a minimum size.
type Replenisher struct {
	questions  QuestionRepository
	generator  QuestionGenerator
	lock       PoolLock
	supervisor *Supervisor
	now        func() time.Time
	logger     *slog.Logger
}

func NewReplenisher(questions QuestionRepository, generator QuestionGenerator, supervisor *Supervisor, lock PoolLock, logger *slog.Logger) *Replenisher {
	return &Replenisher{
		questions:  questions,
		generator:  generator,
		lock:       lock,
		supervisor: supervisor,
		now:        time.Now,
		logger:     logger,
	}
}

// EnsureMinQuestions generates questions until the pool holds req.MinCount
// or req.MaxAttempts generator calls were made. The request is used as given:
// a zero MinCount or MaxAttempts makes no generator calls. Falling short is
// not an error; the returned count is whatever was reached.
//
// When the pool lock is held by another run, it returns the current count
// without calling the generator, even if that is below the minimum.
func (r *Replenisher) EnsureMinQuestions(ctx context.Context, req PoolRequest) (int, error) {
	current, err := r.questions.CountQuestions(ctx)
	if err != nil {
		return 0, err
	}
	if current >= req.MinCount {
		return current, nil
	}

	if r.lock != nil {
		release, ok, err := r.lock.Acquire(ctx)
		if err != nil {
			r.logger.Warn("pool lock unavailable, replenishing without it", "err", err)
		} else if !ok {
			r.logger.Info("replenishment already in progress elsewhere", "have", current)
			return current, nil
		} else {
			defer release()
		}
	}

	for attempts := 0; current < req.MinCount && attempts < req.MaxAttempts; {
		if err := ctx.Err(); err != nil {
			return current, err
		}
		attempts++
		r.logger.Info("need questions", "have", current, "want", req.MinCount, "attempt", attempts)

		generated, err := r.generator.Generate(ctx, req.Topic)
		if err != nil {
			r.logger.Warn("generator did not return a valid question", "attempt", attempts, "err", err)
			continue
		}

		inserted, err := r.insert(ctx, generated, "")
		if err != nil {
			r.logger.Error("failed to save generated question", "attempt", attempts, "err", err)
			continue
		}
		if !inserted {
			r.logger.Info("skipping duplicate or empty question text", "attempt", attempts)
			continue
		}

		count, err := r.questions.CountQuestions(ctx)
		if err != nil {
			return current, err
		}
		current = count
	}

	if current < req.MinCount {
		r.logger.Warn("question pool below minimum after replenishment", "have", current, "want", req.MinCount)
	}
	return current, nil
}

// EnsureMinQuestionsAsync hands the run to the supervisor and returns at once.
// It reports whether the run was started.
func (r *Replenisher) EnsureMinQuestionsAsync(req PoolRequest) bool {
	if r.supervisor == nil {
		return false
	}
	started := r.supervisor.Go("replenish-questions", func(ctx context.Context) error {
		_, err := r.EnsureMinQuestions(ctx, req)
		return err
	})
	if started {
		r.logger.Info("started background question replenishment", "min", req.MinCount)
	}
	return started
}

// SeedFallback inserts the built-in question set, creating its categories and
// skipping texts that already exist. It returns the number inserted.
func (r *Replenisher) SeedFallback(ctx context.Context) (int, error) {
	created := 0
	for _, fq := range domain.FallbackQuestions() {
		cat, err := r.questions.EnsureCategory(ctx, fq.Category, "")
		if err != nil {
			return created, err
		}
		inserted, err := r.insert(ctx, fq.GeneratedQuestion, cat.ID)
		if err != nil {
			return created, err
		}
		if inserted {
			created++
		}
	}
	r.logger.Info("fallback questions seeded", "created", created)
	return created, nil
}

// insert persists a generated question unless its text is empty or already
// stored. A uniqueness conflict raised by the store counts as a duplicate.
func (r *Replenisher) insert(ctx context.Context, g domain.GeneratedQuestion, categoryID string) (bool, error) {
	text := strings.TrimSpace(g.Text)
	if text == "" {
		return false, nil
	}
	exists, err := r.questions.QuestionTextExists(ctx, text)
	if err != nil {
		return false, err
	}
	if exists {
		return false, nil
	}

	q := domain.Question{
		ID:         uuid.NewString(),
		Text:       text,
		Choices:    g.Choices,
		Correct:    g.Correct,
		Difficulty: g.Difficulty,
		CategoryID: categoryID,
		CreatedAt:  r.now().UTC(),
	}
	if err := q.Validate(); err != nil {
		return false, err
	}
	if err := r.questions.CreateQuestion(ctx, q); err != nil {
		if errors.Is(err, domain.ErrDuplicateQuestion) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}
