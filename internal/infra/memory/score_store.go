package memory

import (
	"context"
	"sync"
	"time"

	"trivia-bot/internal/domain"
)

// ScoreStore keeps cumulative scores in process memory.
type ScoreStore struct {
	mu     sync.Mutex
	now    func() time.Time
	scores map[string]*domain.ScoreRecord
}

func NewScoreStore() *ScoreStore {
	return &ScoreStore{
		now:    time.Now,
		scores: make(map[string]*domain.ScoreRecord),
	}
}

func (s *ScoreStore) GetOrCreate(_ context.Context, userID string) (domain.ScoreRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return *s.recordLocked(userID), nil
}

func (s *ScoreStore) Increment(_ context.Context, userID string, delta int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec := s.recordLocked(userID)
	rec.Score += delta
	rec.UpdatedAt = s.now()
	return rec.Score, nil
}

func (s *ScoreStore) recordLocked(userID string) *domain.ScoreRecord {
	rec, ok := s.scores[userID]
	if !ok {
		rec = &domain.ScoreRecord{UserID: userID, UpdatedAt: s.now()}
		s.scores[userID] = rec
	}
	return rec
}
