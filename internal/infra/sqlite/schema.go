package sqlite

import "context"

func (s *Store) initSchema(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS categories (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL COLLATE NOCASE UNIQUE,
			description TEXT NOT NULL DEFAULT ''
		);`,
		`CREATE TABLE IF NOT EXISTS questions (
			id TEXT PRIMARY KEY,
			text TEXT NOT NULL CHECK (length(trim(text)) > 0),
			text_key TEXT NOT NULL UNIQUE,
			choices_json TEXT NOT NULL,
			correct_choice TEXT NOT NULL CHECK (correct_choice IN ('A', 'B', 'C', 'D')),
			difficulty INTEGER NOT NULL DEFAULT 0 CHECK (difficulty BETWEEN 0 AND 5),
			value INTEGER NOT NULL DEFAULT 0,
			category_id TEXT REFERENCES categories(id) ON DELETE SET NULL,
			created_at_unix INTEGER NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS games (
			id TEXT PRIMARY KEY,
			player_name TEXT NOT NULL DEFAULT '',
			status TEXT NOT NULL CHECK (status IN ('pending', 'active', 'finished')),
			score INTEGER NOT NULL DEFAULT 0,
			difficulty_pref INTEGER NOT NULL DEFAULT 0,
			started_at_unix INTEGER NOT NULL,
			finished_at_unix INTEGER,
			CHECK ((status = 'finished') = (finished_at_unix IS NOT NULL))
		);`,
		`CREATE TABLE IF NOT EXISTS player_answers (
			id TEXT PRIMARY KEY,
			game_id TEXT NOT NULL REFERENCES games(id) ON DELETE CASCADE,
			question_id TEXT NOT NULL REFERENCES questions(id) ON DELETE CASCADE,
			selected_choice TEXT NOT NULL,
			correct INTEGER NOT NULL,
			points INTEGER NOT NULL,
			created_at_unix INTEGER NOT NULL,
			UNIQUE (game_id, question_id)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_questions_difficulty ON questions(difficulty);`,
		`CREATE INDEX IF NOT EXISTS idx_player_answers_game ON player_answers(game_id);`,
	}

	for _, stmt := range statements {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
