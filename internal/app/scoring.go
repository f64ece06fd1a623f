package app

import (
	"fmt"
	"strings"

	"trivia-quiz-service/internal/domain"
)

// ScoringPolicy decides the score delta of an answer.
type ScoringPolicy interface {
	Name() string
	Delta(q domain.Question, correct bool) int
}

const (
	PolicyFlat   = "flat"
	PolicyPoints = "points"
)

// FlatPolicy awards one point per correct answer and nothing otherwise.
type FlatPolicy struct{}

func (FlatPolicy) Name() string { return PolicyFlat }

func (FlatPolicy) Delta(_ domain.Question, correct bool) int {
	if correct {
		return 1
	}
	return 0
}

// PointsPolicy adds the question value when correct and subtracts it when wrong.
// The score has no floor.
type PointsPolicy struct{}

func (PointsPolicy) Name() string { return PolicyPoints }

func (PointsPolicy) Delta(q domain.Question, correct bool) int {
	if correct {
		return q.Points()
	}
	return -q.Points()
}

// ParsePolicy resolves a configured policy name; empty means flat.
func ParsePolicy(name string) (ScoringPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", PolicyFlat:
		return FlatPolicy{}, nil
	case PolicyPoints:
		return PointsPolicy{}, nil
	default:
		return nil, fmt.Errorf("unknown scoring policy %q", name)
	}
}
