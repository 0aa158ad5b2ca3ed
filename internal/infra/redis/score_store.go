package redis

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"trivia-bot/internal/domain"
)

// ScoreStore keeps cumulative scores in one Redis hash: HSET trivia:scores {userID} {score}.
// HINCRBY makes the get-or-create-then-add a single server-side operation.
type ScoreStore struct {
	client *redis.Client
	key    string
	now    func() time.Time
}

func NewScoreStore(client *redis.Client) *ScoreStore {
	return &ScoreStore{client: client, key: "trivia:scores", now: time.Now}
}

func (s *ScoreStore) GetOrCreate(ctx context.Context, userID string) (domain.ScoreRecord, error) {
	var get *redis.StringCmd
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSetNX(ctx, s.key, userID, 0)
		get = pipe.HGet(ctx, s.key, userID)
		return nil
	})
	if err != nil {
		return domain.ScoreRecord{}, fmt.Errorf("get score %s: %w", userID, err)
	}
	score, err := strconv.Atoi(get.Val())
	if err != nil {
		return domain.ScoreRecord{}, fmt.Errorf("parse score %s: %w", userID, err)
	}
	return domain.ScoreRecord{UserID: userID, Score: score, UpdatedAt: s.now()}, nil
}

func (s *ScoreStore) Increment(ctx context.Context, userID string, delta int) (int, error) {
	total, err := s.client.HIncrBy(ctx, s.key, userID, int64(delta)).Result()
	if err != nil {
		return 0, fmt.Errorf("increment score %s: %w", userID, err)
	}
	return int(total), nil
}
