package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"trivia-bot/internal/domain"
)

// TopicLoader fetches every topic of a kind from a backing source (file, Postgres, Data Dragon).
type TopicLoader interface {
	LoadTopics(ctx context.Context, kind domain.TopicKind) ([]domain.Topic, error)
}

// Catalog caches topics in Redis (one set of JSON documents per kind) and falls back
// to a loader on cache miss. Topics are stored as: SADD trivia:topics:{kind} {json}
type Catalog struct {
	client *redis.Client
	loader TopicLoader
	ttl    time.Duration
	sf     singleflight.Group
}

func NewCatalog(client *redis.Client, loader TopicLoader, ttl time.Duration) *Catalog {
	return &Catalog{
		client: client,
		loader: loader,
		ttl:    ttl,
	}
}

func (c *Catalog) FetchRandomTopic(ctx context.Context, kind domain.TopicKind) (domain.Topic, error) {
	key := c.topicsKey(kind)

	if topic, ok := c.randomCached(ctx, key); ok {
		return topic, nil
	}

	result, err, _ := c.sf.Do(string(kind), func() (interface{}, error) {
		// Re-check cache in case another goroutine filled it.
		if topic, ok := c.randomCached(ctx, key); ok {
			return topic, nil
		}

		topics, err := c.loader.LoadTopics(ctx, kind)
		if err != nil {
			return domain.Topic{}, fmt.Errorf("load %s topics: %w", kind, err)
		}
		if len(topics) == 0 {
			return domain.Topic{}, fmt.Errorf("%w: no %s topics", domain.ErrTopicNotFound, kind)
		}

		members := make([]interface{}, 0, len(topics))
		for _, topic := range topics {
			data, err := json.Marshal(topic)
			if err != nil {
				return domain.Topic{}, fmt.Errorf("marshal topic %s: %w", topic.ID, err)
			}
			members = append(members, data)
		}
		pipe := c.client.Pipeline()
		pipe.Del(ctx, key)
		pipe.SAdd(ctx, key, members...)
		if ttl := c.ttlWithJitter(); ttl > 0 {
			pipe.Expire(ctx, key, ttl)
		}
		_, _ = pipe.Exec(ctx)

		return topics[rand.IntN(len(topics))], nil
	})
	if err != nil {
		return domain.Topic{}, err
	}
	return result.(domain.Topic), nil
}

func (c *Catalog) randomCached(ctx context.Context, key string) (domain.Topic, bool) {
	raw, err := c.client.SRandMember(ctx, key).Result()
	if err != nil {
		// redis.Nil (empty set) and connection errors both fall through to the loader.
		return domain.Topic{}, false
	}
	var topic domain.Topic
	if err := json.Unmarshal([]byte(raw), &topic); err != nil {
		return domain.Topic{}, false
	}
	return topic, true
}

func (c *Catalog) topicsKey(kind domain.TopicKind) string {
	return "trivia:topics:" + string(kind)
}

func (c *Catalog) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	jitterMax := int64(c.ttl) / 10
	return c.ttl + time.Duration(rand.Int64N(jitterMax+1))
}
