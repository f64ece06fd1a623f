package domain

import (
	"fmt"
	"strings"
	"time"
)

// ChoiceCount is the number of choices every question carries.
const ChoiceCount = 4

// Difficulty bounds; zero means "not set".
const (
	MinDifficulty = 1
	MaxDifficulty = 5
)

// DefaultPoints is the board value of a question without value or difficulty.
const DefaultPoints = 200

// Label identifies one of the four choices.
type Label string

const (
	LabelA Label = "A"
	LabelB Label = "B"
	LabelC Label = "C"
	LabelD Label = "D"
)

// Labels lists the choice labels in display order.
var Labels = [ChoiceCount]Label{LabelA, LabelB, LabelC, LabelD}

// ParseLabel normalises user input ("b", " B ") into a Label.
func ParseLabel(raw string) (Label, error) {
	l := Label(strings.ToUpper(strings.TrimSpace(raw)))
	if l.Index() < 0 {
		return "", ErrInvalidChoice
	}
	return l, nil
}

// Index returns the choice position for the label, or -1.
func (l Label) Index() int {
	for i, candidate := range Labels {
		if candidate == l {
			return i
		}
	}
	return -1
}

// ValidateDifficulty accepts 0 (unset) or 1-5.
func ValidateDifficulty(d int) error {
	if d == 0 || (d >= MinDifficulty && d <= MaxDifficulty) {
		return nil
	}
	return ErrInvalidDifficulty
}

// Category groups questions on a board.
type Category struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// Question models a four-choice question with exactly one correct label.
type Question struct {
	ID         string              `json:"id"`
	Text       string              `json:"text"`
	Choices    [ChoiceCount]string `json:"choices"`
	Correct    Label               `json:"correct"`
	Difficulty int                 `json:"difficulty,omitempty"`
	Value      int                 `json:"value,omitempty"`
	CategoryID string              `json:"categoryId,omitempty"`
	CreatedAt  time.Time           `json:"createdAt"`
}

// Points is the board value used by the points scoring policy.
func (q Question) Points() int {
	switch {
	case q.Value > 0:
		return q.Value
	case q.Difficulty > 0:
		return q.Difficulty * DefaultPoints
	default:
		return DefaultPoints
	}
}

// Validate checks the record rules shared by every store.
func (q Question) Validate() error {
	if strings.TrimSpace(q.Text) == "" {
		return fmt.Errorf("%w: empty text", ErrInvalidQuestion)
	}
	for i, c := range q.Choices {
		if strings.TrimSpace(c) == "" {
			return fmt.Errorf("%w: empty choice %s", ErrInvalidQuestion, Labels[i])
		}
	}
	if q.Correct.Index() < 0 {
		return fmt.Errorf("%w: correct label %q", ErrInvalidQuestion, q.Correct)
	}
	if err := ValidateDifficulty(q.Difficulty); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidQuestion, err)
	}
	return nil
}

// CorrectText returns the text of the correct choice.
func (q Question) CorrectText() string {
	if i := q.Correct.Index(); i >= 0 {
		return q.Choices[i]
	}
	return ""
}

// PublicQuestion is what players see: no correct label.
type PublicQuestion struct {
	ID         string              `json:"id"`
	Text       string              `json:"text"`
	Choices    [ChoiceCount]string `json:"choices"`
	Difficulty int                 `json:"difficulty,omitempty"`
	Points     int                 `json:"points"`
	CategoryID string              `json:"categoryId,omitempty"`
}

// Public strips the answer from a question.
func (q Question) Public() PublicQuestion {
	return PublicQuestion{
		ID:         q.ID,
		Text:       q.Text,
		Choices:    q.Choices,
		Difficulty: q.Difficulty,
		Points:     q.Points(),
		CategoryID: q.CategoryID,
	}
}

// GeneratedQuestion is the normalised output of a question generator, not yet persisted.
type GeneratedQuestion struct {
	Text       string              `json:"text"`
	Choices    [ChoiceCount]string `json:"choices"`
	Correct    Label               `json:"correct"`
	Difficulty int                 `json:"difficulty"`
}

// GameStatus is the lifecycle state of a game.
type GameStatus string

const (
	GameStatusPending  GameStatus = "pending"
	GameStatusActive   GameStatus = "active"
	GameStatusFinished GameStatus = "finished"
)

// Game is one player's play-through.
type Game struct {
	ID             string     `json:"id"`
	PlayerName     string     `json:"playerName,omitempty"`
	Status         GameStatus `json:"status"`
	Score          int        `json:"score"`
	DifficultyPref int        `json:"difficultyPref,omitempty"`
	StartedAt      time.Time  `json:"startedAt"`
	FinishedAt     *time.Time `json:"finishedAt,omitempty"`
}

// Finished reports whether the game reached its terminal state.
func (g Game) Finished() bool {
	return g.Status == GameStatusFinished
}

// PlayerAnswer records a single submitted answer.
type PlayerAnswer struct {
	ID         string    `json:"id"`
	GameID     string    `json:"gameId"`
	QuestionID string    `json:"questionId"`
	Selected   Label     `json:"selected"`
	Correct    bool      `json:"correct"`
	Points     int       `json:"points"`
	CreatedAt  time.Time `json:"createdAt"`
}

// AnswerResult summarizes the outcome of a submission.
type AnswerResult struct {
	GameID        string `json:"gameId"`
	QuestionID    string `json:"questionId"`
	Correct       bool   `json:"correct"`
	CorrectChoice Label  `json:"correctChoice"`
	Awarded       int    `json:"awarded"`
	TotalScore    int    `json:"totalScore"`
	Duplicate     bool   `json:"duplicate,omitempty"`
}

// Turn is the result of advancing a game: either a question or the end of the board.
type Turn struct {
	Game     Game            `json:"game"`
	Question *PublicQuestion `json:"question,omitempty"`
	Finished bool            `json:"finished"`
}

// FinalStats is the end-of-game summary.
type FinalStats struct {
	GameID         string     `json:"gameId"`
	PlayerName     string     `json:"playerName,omitempty"`
	Status         GameStatus `json:"status"`
	FinalScore     int        `json:"finalScore"`
	TotalQuestions int        `json:"totalQuestions"`
	CorrectAnswers int        `json:"correctAnswers"`
	Accuracy       float64    `json:"accuracy"`
	AccuracyText   string     `json:"accuracyText"`
}

// BoardCell is one question slot on a board.
type BoardCell struct {
	QuestionID string `json:"questionId"`
	Points     int    `json:"points"`
	Answered   bool   `json:"answered"`
	Correct    bool   `json:"correct,omitempty"`
}

// BoardColumn groups cells under a category title.
type BoardColumn struct {
	Category string      `json:"category"`
	Cells    []BoardCell `json:"cells"`
}

// Board is the per-game view of the question pool.
type Board struct {
	GameID  string        `json:"gameId"`
	Columns []BoardColumn `json:"columns"`
}

// ScoreUpdate is pushed to subscribers of a game whenever its score or status changes.
type ScoreUpdate struct {
	GameID    string     `json:"gameId"`
	Score     int        `json:"score"`
	Status    GameStatus `json:"status"`
	Answered  int        `json:"answered"`
	UpdatedAt time.Time  `json:"updatedAt"`
}
