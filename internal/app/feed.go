package app

import (
	"sync"

	"trivia-quiz-service/internal/domain"
)

// Feed fans score updates of a game out to its subscribers (websocket
// spectators and the playing connection itself).
type Feed struct {
	mu          sync.Mutex
	subscribers map[string]map[chan domain.ScoreUpdate]struct{}
}

func NewFeed() *Feed {
	return &Feed{subscribers: make(map[string]map[chan domain.ScoreUpdate]struct{})}
}

// Subscribe returns a channel of updates for gameID. The caller must invoke
// the returned cancel function to avoid leaks.
func (f *Feed) Subscribe(gameID string) (<-chan domain.ScoreUpdate, func()) {
	ch := make(chan domain.ScoreUpdate, 8)

	f.mu.Lock()
	subs, ok := f.subscribers[gameID]
	if !ok {
		subs = make(map[chan domain.ScoreUpdate]struct{})
		f.subscribers[gameID] = subs
	}
	subs[ch] = struct{}{}
	f.mu.Unlock()

	cancel := func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		subs, ok := f.subscribers[gameID]
		if !ok {
			return
		}
		if _, ok := subs[ch]; ok {
			delete(subs, ch)
			close(ch)
		}
		if len(subs) == 0 {
			delete(f.subscribers, gameID)
		}
	}
	return ch, cancel
}

// Publish never blocks: a subscriber that is behind loses its oldest update.
func (f *Feed) Publish(update domain.ScoreUpdate) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for ch := range f.subscribers[update.GameID] {
		select {
		case ch <- update:
		default:
			select {
			case <-ch:
			default:
			}
			ch <- update
		}
	}
}

// Subscribers reports how many listeners a game has.
func (f *Feed) Subscribers(gameID string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.subscribers[gameID])
}
