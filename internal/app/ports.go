package app

import (
	"context"

	"trivia-bot/internal/domain"
)

// Catalog supplies random topic records (in-memory, Redis, Data Dragon, etc).
type Catalog interface {
	FetchRandomTopic(ctx context.Context, kind domain.TopicKind) (domain.Topic, error)
}

// Announcer delivers text to a chat channel.
type Announcer interface {
	Send(ctx context.Context, channel, text string) error
}

// ScoreStore persists cumulative scores. Increment must be an atomic
// get-or-create-then-add and return the new total.
type ScoreStore interface {
	GetOrCreate(ctx context.Context, userID string) (domain.ScoreRecord, error)
	Increment(ctx context.Context, userID string, delta int) (int, error)
}

// RoundRepository holds the per-channel live round slot.
type RoundRepository interface {
	// TryPut stores round for channel unless a non-resolved round already holds the slot.
	TryPut(channel string, round *Round) bool
	Get(channel string) (*Round, bool)
	// Release clears the slot only if it still holds round.
	Release(channel string, round *Round)
}
