package memory

import (
	"sync"

	"trivia-bot/internal/app"
)

// RoundStore is an in-memory implementation of app.RoundRepository.
type RoundStore struct {
	mu     sync.RWMutex
	rounds map[string]*app.Round
}

func NewRoundStore() *RoundStore {
	return &RoundStore{
		rounds: make(map[string]*app.Round),
	}
}

func (s *RoundStore) TryPut(channel string, round *app.Round) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.rounds[channel]; ok && !existing.Resolved() {
		return false
	}
	s.rounds[channel] = round
	return true
}

func (s *RoundStore) Get(channel string) (*app.Round, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	round, ok := s.rounds[channel]
	return round, ok
}

func (s *RoundStore) Release(channel string, round *app.Round) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.rounds[channel]; ok && existing == round {
		delete(s.rounds, channel)
	}
}
