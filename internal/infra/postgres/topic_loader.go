package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"trivia-bot/internal/domain"
)

// TopicLoader loads topic JSONB documents from Postgres.
type TopicLoader struct {
	pool *pgxpool.Pool
}

func NewTopicLoader(pool *pgxpool.Pool) *TopicLoader {
	return &TopicLoader{pool: pool}
}

func (l *TopicLoader) LoadTopics(ctx context.Context, kind domain.TopicKind) ([]domain.Topic, error) {
	rows, err := l.pool.Query(ctx, `SELECT data FROM topics WHERE kind=$1 ORDER BY id`, string(kind))
	if err != nil {
		return nil, fmt.Errorf("load topics: %w", err)
	}
	defer rows.Close()

	var topics []domain.Topic
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("scan topic: %w", err)
		}
		var topic domain.Topic
		if err := json.Unmarshal(raw, &topic); err != nil {
			return nil, fmt.Errorf("unmarshal topic: %w", err)
		}
		topics = append(topics, topic)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load topics: %w", err)
	}
	if len(topics) == 0 {
		return nil, fmt.Errorf("%w: no %s topics", domain.ErrTopicNotFound, kind)
	}
	return topics, nil
}

// SaveTopics upserts topics keyed by (kind, id) in one batch.
func (l *TopicLoader) SaveTopics(ctx context.Context, topics []domain.Topic) error {
	batch := &pgx.Batch{}
	for _, topic := range topics {
		data, err := json.Marshal(topic)
		if err != nil {
			return fmt.Errorf("marshal topic %s: %w", topic.ID, err)
		}
		batch.Queue(
			`INSERT INTO topics (kind, id, data) VALUES ($1, $2, $3::jsonb)
			 ON CONFLICT (kind, id) DO UPDATE SET data = EXCLUDED.data`,
			string(topic.Kind), topic.ID, string(data),
		)
	}

	br := l.pool.SendBatch(ctx, batch)
	defer br.Close()
	for range topics {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("save topics: %w", err)
		}
	}
	return nil
}
