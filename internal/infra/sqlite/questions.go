package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"trivia-quiz-service/internal/domain"
)

// textKey folds question text the way the other stores compare it.
// COLLATE NOCASE only folds ASCII, so the key is computed here.
func textKey(text string) string {
	return strings.ToLower(strings.TrimSpace(text))
}

const questionColumns = `id, text, choices_json, correct_choice, difficulty, value, COALESCE(category_id, ''), created_at_unix`

func (s *Store) CountQuestions(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM questions`).Scan(&n)
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
	var category any
	if q.CategoryID != "" {
		category = q.CategoryID
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO questions (id, text, text_key, choices_json, correct_choice, difficulty, value, category_id, created_at_unix)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		q.ID, strings.TrimSpace(q.Text), textKey(q.Text), string(choices), string(q.Correct), q.Difficulty, q.Value, category, q.CreatedAt.Unix(),
	)
	switch {
	case isUniqueViolation(err):
		return domain.ErrDuplicateQuestion
	case isForeignKeyViolation(err):
		return domain.ErrCategoryNotFound
	case err != nil:
		return fmt.Errorf("insert question: %w", err)
	}
	return nil
}

func (s *Store) QuestionTextExists(ctx context.Context, text string) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM questions WHERE text_key = ?)`,
		textKey(text),
	).Scan(&exists)
	return exists, err
}

func (s *Store) GetQuestion(ctx context.Context, id string) (domain.Question, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+questionColumns+` FROM questions WHERE id = ?`, id)
	q, err := scanQuestion(row)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Question{}, domain.ErrQuestionNotFound
	}
	return q, err
}

func (s *Store) ListQuestionIDs(ctx context.Context, difficulty int) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id FROM questions WHERE ? = 0 OR difficulty = ? ORDER BY created_at_unix, rowid`,
		difficulty, difficulty,
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
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+questionColumns+` FROM questions WHERE ? = 0 OR difficulty = ? ORDER BY created_at_unix, rowid`,
		difficulty, difficulty,
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
	res, err := s.db.ExecContext(ctx, `DELETE FROM questions`)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	return int(n), err
}

func (s *Store) EnsureCategory(ctx context.Context, name, description string) (domain.Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return domain.Category{}, domain.ErrCategoryNotFound
	}
	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO categories (id, name, description) VALUES (?, ?, ?) ON CONFLICT(name) DO NOTHING`,
		uuid.NewString(), name, description,
	); err != nil {
		return domain.Category{}, fmt.Errorf("insert category: %w", err)
	}

	var c domain.Category
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, description FROM categories WHERE name = ?`, name,
	).Scan(&c.ID, &c.Name, &c.Description)
	return c, err
}

func (s *Store) ListCategories(ctx context.Context) ([]domain.Category, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name, description FROM categories ORDER BY name`)
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

type scanner interface {
	Scan(dest ...any) error
}

func scanQuestion(row scanner) (domain.Question, error) {
	var (
		q         domain.Question
		choices   string
		correct   string
		createdAt int64
	)
	if err := row.Scan(&q.ID, &q.Text, &choices, &correct, &q.Difficulty, &q.Value, &q.CategoryID, &createdAt); err != nil {
		return domain.Question{}, err
	}
	if err := json.Unmarshal([]byte(choices), &q.Choices); err != nil {
		return domain.Question{}, fmt.Errorf("decode choices of %s: %w", q.ID, err)
	}
	q.Correct = domain.Label(correct)
	q.CreatedAt = time.Unix(createdAt, 0).UTC()
	return q, nil
}
