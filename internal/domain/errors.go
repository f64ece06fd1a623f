package domain

import "errors"

var (
	// ErrGameNotFound is returned when a game id does not exist.
	ErrGameNotFound = errors.New("game not found")
	// ErrQuestionNotFound indicates a submitted question id is invalid.
	ErrQuestionNotFound = errors.New("question not found")
	// ErrCategoryNotFound indicates a category id or name is unknown.
	ErrCategoryNotFound = errors.New("category not found")
	// ErrDuplicateQuestion is returned by stores when the question text already exists.
	ErrDuplicateQuestion = errors.New("question text already exists")
	// ErrAlreadyAnswered is returned by stores when the (game, question) pair already has an answer.
	ErrAlreadyAnswered = errors.New("question already answered in this game")
	// ErrBoardExhausted signals that no unanswered question remains for a game.
	ErrBoardExhausted = errors.New("no question available")
	// ErrGameFinished is returned when a finished game is asked to accept answers.
	ErrGameFinished = errors.New("game already finished")
	// ErrInvalidChoice indicates a choice label outside A-D.
	ErrInvalidChoice = errors.New("choice must be one of A, B, C, D")
	// ErrInvalidDifficulty indicates a difficulty outside 1-5.
	ErrInvalidDifficulty = errors.New("difficulty must be between 1 and 5")
	// ErrInvalidQuestion indicates a question record that does not have four non-empty choices and a valid label.
	ErrInvalidQuestion = errors.New("invalid question")
)
