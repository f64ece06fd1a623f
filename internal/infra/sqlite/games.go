package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"trivia-quiz-service/internal/domain"
)

func (s *Store) CreateGame(ctx context.Context, g domain.Game) error {
	var finished any
	if g.FinishedAt != nil {
		finished = g.FinishedAt.Unix()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO games (id, player_name, status, score, difficulty_pref, started_at_unix, finished_at_unix)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		g.ID, g.PlayerName, string(g.Status), g.Score, g.DifficultyPref, g.StartedAt.Unix(), finished,
	)
	if err != nil {
		return fmt.Errorf("insert game: %w", err)
	}
	return nil
}

func (s *Store) GetGame(ctx context.Context, id string) (domain.Game, error) {
	var (
		g        domain.Game
		status   string
		started  int64
		finished sql.NullInt64
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, player_name, status, score, difficulty_pref, started_at_unix, finished_at_unix FROM games WHERE id = ?`,
		id,
	).Scan(&g.ID, &g.PlayerName, &status, &g.Score, &g.DifficultyPref, &started, &finished)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Game{}, domain.ErrGameNotFound
	}
	if err != nil {
		return domain.Game{}, err
	}
	g.Status = domain.GameStatus(status)
	g.StartedAt = time.Unix(started, 0).UTC()
	if finished.Valid {
		at := time.Unix(finished.Int64, 0).UTC()
		g.FinishedAt = &at
	}
	return g, nil
}

func (s *Store) AddScore(ctx context.Context, id string, delta int) (int, error) {
	var score int
	err := s.db.QueryRowContext(ctx,
		`UPDATE games SET score = score + ? WHERE id = ? RETURNING score`, delta, id,
	).Scan(&score)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, domain.ErrGameNotFound
	}
	return score, err
}

func (s *Store) FinishGame(ctx context.Context, id string, at time.Time) (domain.Game, error) {
	if _, err := s.db.ExecContext(ctx,
		`UPDATE games SET status = 'finished', finished_at_unix = ? WHERE id = ? AND status <> 'finished'`,
		at.Unix(), id,
	); err != nil {
		return domain.Game{}, fmt.Errorf("finish game: %w", err)
	}
	return s.GetGame(ctx, id)
}

func (s *Store) CreateAnswer(ctx context.Context, a domain.PlayerAnswer) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO player_answers (id, game_id, question_id, selected_choice, correct, points, created_at_unix)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.GameID, a.QuestionID, string(a.Selected), a.Correct, a.Points, a.CreatedAt.Unix(),
	)
	switch {
	case isUniqueViolation(err):
		return domain.ErrAlreadyAnswered
	case isForeignKeyViolation(err):
		return fmt.Errorf("insert answer: %w: unknown game or question", domain.ErrQuestionNotFound)
	case err != nil:
		return fmt.Errorf("insert answer: %w", err)
	}
	return nil
}

func (s *Store) ListAnswers(ctx context.Context, gameID string) ([]domain.PlayerAnswer, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, game_id, question_id, selected_choice, correct, points, created_at_unix
		 FROM player_answers WHERE game_id = ? ORDER BY created_at_unix, rowid`,
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
			created  int64
		)
		if err := rows.Scan(&a.ID, &a.GameID, &a.QuestionID, &selected, &a.Correct, &a.Points, &created); err != nil {
			return nil, err
		}
		a.Selected = domain.Label(selected)
		a.CreatedAt = time.Unix(created, 0).UTC()
		out = append(out, a)
	}
	return out, rows.Err()
}

func (s *Store) HasAnswer(ctx context.Context, gameID, questionID string) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM player_answers WHERE game_id = ? AND question_id = ?)`,
		gameID, questionID,
	).Scan(&exists)
	return exists, err
}
