package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"trivia-quiz-service/internal/app"
	"trivia-quiz-service/internal/domain"
)

var _ app.Store = (*Store)(nil)

const (
	uniqueViolation     = "23505"
	foreignKeyViolation = "23503"
)

// Store implements app.Store on Postgres. The schema comes from the
// migrations package.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Connect opens a pool for url and checks it answers.
func Connect(ctx context.Context, url string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.Connect(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return pool, nil
}

func pgCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

const questionColumns = `id, text, choices, correct_choice, difficulty, value, COALESCE(category_id, ''), created_at`

func (s *Store) CountQuestions(ctx context.Context) (int, error) {
	var n int
	err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM questions`).Scan(&n)
	return n, err
}

func (s *Store) CreateQuestion(ctx context.Context, q domain.Question) error {
	if err := q.Validate(); err != nil {
		return err
	}
	choices, err := json.Marshal(q.Choices)
	if err != nil {
		return err
	}
	var category *string
	if q.CategoryID != "" {
		category = &q.CategoryID
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO questions (id, text, choices, correct_choice, difficulty, value, category_id, created_at)
		 VALUES ($1, $2, $3::jsonb, $4, $5, $6, $7, $8)`,
		q.ID, strings.TrimSpace(q.Text), string(choices), string(q.Correct), q.Difficulty, q.Value, category, q.CreatedAt,
	)
	switch pgCode(err) {
	case "":
		if err != nil {
			return fmt.Errorf("insert question: %w", err)
		}
		return nil
	case uniqueViolation:
		return domain.ErrDuplicateQuestion
	case foreignKeyViolation:
		return domain.ErrCategoryNotFound
	default:
		return fmt.Errorf("insert question: %w", err)
	}
}

func (s *Store) QuestionTextExists(ctx context.Context, text string) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM questions WHERE lower(text) = lower($1))`,
		strings.TrimSpace(text),
	).Scan(&exists)
	return exists, err
}

func (s *Store) GetQuestion(ctx context.Context, id string) (domain.Question, error) {
	q, err := scanQuestion(s.pool.QueryRow(ctx, `SELECT `+questionColumns+` FROM questions WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Question{}, domain.ErrQuestionNotFound
	}
	return q, err
}

func (s *Store) ListQuestionIDs(ctx context.Context, difficulty int) ([]string, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id FROM questions WHERE $1::int = 0 OR difficulty = $1::int ORDER BY created_at, id`,
		difficulty,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (s *Store) ListQuestions(ctx context.Context, difficulty int) ([]domain.Question, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+questionColumns+` FROM questions WHERE $1::int = 0 OR difficulty = $1::int ORDER BY created_at, id`,
		difficulty,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Question
	for rows.Next() {
		q, err := scanQuestion(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, q)
	}
	return out, rows.Err()
}

func (s *Store) DeleteAllQuestions(ctx context.Context) (int, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM questions`)
	if err != nil {
		return 0, err
	}
	return int(tag.RowsAffected()), nil
}

func (s *Store) EnsureCategory(ctx context.Context, name, description string) (domain.Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return domain.Category{}, domain.ErrCategoryNotFound
	}
	if _, err := s.pool.Exec(ctx,
		`INSERT INTO categories (id, name, description) VALUES ($1, $2, $3) ON CONFLICT DO NOTHING`,
		uuid.NewString(), name, description,
	); err != nil {
		return domain.Category{}, fmt.Errorf("insert category: %w", err)
	}

	var c domain.Category
	err := s.pool.QueryRow(ctx,
		`SELECT id, name, description FROM categories WHERE lower(name) = lower($1)`, name,
	).Scan(&c.ID, &c.Name, &c.Description)
	return c, err
}

func (s *Store) ListCategories(ctx context.Context) ([]domain.Category, error) {
	rows, err := s.pool.Query(ctx, `SELECT id, name, description FROM categories ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Category
	for rows.Next() {
		var c domain.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Description); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func scanQuestion(row pgx.Row) (domain.Question, error) {
	var (
		q       domain.Question
		choices []byte
		correct string
	)
	if err := row.Scan(&q.ID, &q.Text, &choices, &correct, &q.Difficulty, &q.Value, &q.CategoryID, &q.CreatedAt); err != nil {
		return domain.Question{}, err
	}
	if err := json.Unmarshal(choices, &q.Choices); err != nil {
		return domain.Question{}, fmt.Errorf("decode choices of %s: %w", q.ID, err)
	}
	q.Correct = domain.Label(correct)
	return q, nil
}

func (s *Store) CreateGame(ctx context.Context, g domain.Game) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO games (id, player_name, status, score, difficulty_pref, started_at, finished_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		g.ID, g.PlayerName, string(g.Status), g.Score, g.DifficultyPref, g.StartedAt, g.FinishedAt,
	)
	if err != nil {
		return fmt.Errorf("insert game: %w", err)
	}
	return nil
}

func (s *Store) GetGame(ctx context.Context, id string) (domain.Game, error) {
	var (
		g      domain.Game
		status string
	)
	err := s.pool.QueryRow(ctx,
		`SELECT id, player_name, status, score, difficulty_pref, started_at, finished_at FROM games WHERE id = $1`,
		id,
	).Scan(&g.ID, &g.PlayerName, &status, &g.Score, &g.DifficultyPref, &g.StartedAt, &g.FinishedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Game{}, domain.ErrGameNotFound
	}
	if err != nil {
		return domain.Game{}, err
	}
	g.Status = domain.GameStatus(status)
	return g, nil
}

func (s *Store) AddScore(ctx context.Context, id string, delta int) (int, error) {
	var score int
	err := s.pool.QueryRow(ctx,
		`UPDATE games SET score = score + $1 WHERE id = $2 RETURNING score`, delta, id,
	).Scan(&score)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, domain.ErrGameNotFound
	}
	return score, err
}

func (s *Store) FinishGame(ctx context.Context, id string, at time.Time) (domain.Game, error) {
	if _, err := s.pool.Exec(ctx,
		`UPDATE games SET status = 'finished', finished_at = $1 WHERE id = $2 AND status <> 'finished'`,
		at, id,
	); err != nil {
		return domain.Game{}, fmt.Errorf("finish game: %w", err)
	}
	return s.GetGame(ctx, id)
}

func (s *Store) CreateAnswer(ctx context.Context, a domain.PlayerAnswer) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO player_answers (id, game_id, question_id, selected_choice, correct, points, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		a.ID, a.GameID, a.QuestionID, string(a.Selected), a.Correct, a.Points, a.CreatedAt,
	)
	switch pgCode(err) {
	case "":
		if err != nil {
			return fmt.Errorf("insert answer: %w", err)
		}
		return nil
	case uniqueViolation:
		return domain.ErrAlreadyAnswered
	case foreignKeyViolation:
		return fmt.Errorf("insert answer: %w: unknown game or question", domain.ErrQuestionNotFound)
	default:
		return fmt.Errorf("insert answer: %w", err)
	}
}

func (s *Store) ListAnswers(ctx context.Context, gameID string) ([]domain.PlayerAnswer, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, game_id, question_id, selected_choice, correct, points, created_at
		 FROM player_answers WHERE game_id = $1 ORDER BY created_at, id`,
		gameID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.PlayerAnswer
	for rows.Next() {
		var (
			a        domain.PlayerAnswer
			selected string
		)
		if err := rows.Scan(&a.ID, &a.GameID, &a.QuestionID, &selected, &a.Correct, &a.Points, &a.CreatedAt); err != nil {
			return nil, err
		}
		a.Selected = domain.Label(selected)
		out = append(out, a)
	}
	return out, rows.Err()
}

func (s *Store) HasAnswer(ctx context.Context, gameID, questionID string) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM player_answers WHERE game_id = $1 AND question_id = $2)`,
		gameID, questionID,
	).Scan(&exists)
	return exists, err
}
