package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v4/pgxpool"

	"trivia-bot/internal/domain"
)

// ScoreStore keeps cumulative scores in the scores table. Both operations are single
// upsert statements, so concurrent winners never lose an increment.
type ScoreStore struct {
	pool *pgxpool.Pool
}

func NewScoreStore(pool *pgxpool.Pool) *ScoreStore {
	return &ScoreStore{pool: pool}
}

func (s *ScoreStore) GetOrCreate(ctx context.Context, userID string) (domain.ScoreRecord, error) {
	rec := domain.ScoreRecord{UserID: userID}
	err := s.pool.QueryRow(ctx,
		`INSERT INTO scores (user_id, score) VALUES ($1, 0)
		 ON CONFLICT (user_id) DO UPDATE SET user_id = EXCLUDED.user_id
		 RETURNING score, updated_at`,
		userID,
	).Scan(&rec.Score, &rec.UpdatedAt)
	if err != nil {
		return domain.ScoreRecord{}, fmt.Errorf("get score %s: %w", userID, err)
	}
	return rec, nil
}

func (s *ScoreStore) Increment(ctx context.Context, userID string, delta int) (int, error) {
	var total int
	err := s.pool.QueryRow(ctx,
		`INSERT INTO scores (user_id, score) VALUES ($1, $2)
		 ON CONFLICT (user_id) DO UPDATE SET score = scores.score + EXCLUDED.score, updated_at = now()
		 RETURNING score`,
		userID, delta,
	).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("increment score %s: %w", userID, err)
	}
	return total, nil
}
