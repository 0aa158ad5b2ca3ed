package memory

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"trivia-bot/internal/domain"
)

// TopicLoader fetches every topic of a kind from a backing source (file, Postgres, Data Dragon).
type TopicLoader interface {
	LoadTopics(ctx context.Context, kind domain.TopicKind) ([]domain.Topic, error)
}

// Catalog caches topic lists per kind with TTL to avoid repeated source hits,
// and serves uniformly random topics from the cached list.
type Catalog struct {
	loader TopicLoader
	ttl    time.Duration
	clock  func() time.Time
	sf     singleflight.Group

	mu    sync.RWMutex
	cache map[domain.TopicKind]cachedTopics
}

type cachedTopics struct {
	topics    []domain.Topic
	expiresAt time.Time
}

func NewCatalog(loader TopicLoader, ttl time.Duration) *Catalog {
	return &Catalog{
		loader: loader,
		ttl:    ttl,
		clock:  time.Now,
		cache:  make(map[domain.TopicKind]cachedTopics),
	}
}

func (c *Catalog) FetchRandomTopic(ctx context.Context, kind domain.TopicKind) (domain.Topic, error) {
	topics, err := c.topics(ctx, kind)
	if err != nil {
		return domain.Topic{}, err
	}
	if len(topics) == 0 {
		return domain.Topic{}, fmt.Errorf("%w: no %s topics", domain.ErrTopicNotFound, kind)
	}
	return topics[rand.IntN(len(topics))], nil
}

func (c *Catalog) topics(ctx context.Context, kind domain.TopicKind) ([]domain.Topic, error) {
	now := c.clock()

	c.mu.RLock()
	if entry, ok := c.cache[kind]; ok && entry.expiresAt.After(now) {
		c.mu.RUnlock()
		return entry.topics, nil
	}
	c.mu.RUnlock()

	result, err, _ := c.sf.Do(string(kind), func() (interface{}, error) {
		now := c.clock()
		c.mu.RLock()
		if entry, ok := c.cache[kind]; ok && entry.expiresAt.After(now) {
			c.mu.RUnlock()
			return entry.topics, nil
		}
		c.mu.RUnlock()

		topics, err := c.loader.LoadTopics(ctx, kind)
		if err != nil {
			return nil, fmt.Errorf("load %s topics: %w", kind, err)
		}

		c.mu.Lock()
		c.cache[kind] = cachedTopics{
			topics:    topics,
			expiresAt: now.Add(c.ttlWithJitter()),
		}
		c.mu.Unlock()
		return topics, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]domain.Topic), nil
}

func (c *Catalog) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	// add up to 10% jitter to spread expirations
	jitterMax := int64(c.ttl) / 10
	return c.ttl + time.Duration(rand.Int64N(jitterMax+1))
}
