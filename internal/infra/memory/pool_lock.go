package memory

import (
	"context"
	"sync"

	"trivia-quiz-service/internal/app"
)

var _ app.PoolLock = (*PoolLock)(nil)

// PoolLock keeps replenishment runs of one process from overlapping.
type PoolLock struct {
	mu sync.Mutex
}

func NewPoolLock() *PoolLock {
	return &PoolLock{}
}

func (l *PoolLock) Acquire(_ context.Context) (func(), bool, error) {
	if !l.mu.TryLock() {
		return nil, false, nil
	}
	return l.mu.Unlock, true, nil
}
