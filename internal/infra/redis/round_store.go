package redis

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"trivia-bot/internal/app"
)

// claimScript sets the channel key when it is free or still names the
// resolved round being replaced (ARGV[2]).
var claimScript = redis.NewScript(`
local current = redis.call('GET', KEYS[1])
if current == false or current == ARGV[2] then
	redis.call('SET', KEYS[1], ARGV[1], 'PX', ARGV[3])
	return 1
end
return 0
`)

// releaseScript deletes the channel key only if it still names the round.
var releaseScript = redis.NewScript(`
if redis.call('GET', KEYS[1]) == ARGV[1] then
	return redis.call('DEL', KEYS[1])
end
return 0
`)

// RoundStore is a Redis-aware implementation of app.RoundRepository.
// Notes:
//   - Rounds themselves live in a local map; timers and the claim CAS are in-process.
//   - A Redis key per channel (SET with TTL) makes the live-round slot exclusive across
//     instances sharing the same Redis.
type RoundStore struct {
	client *redis.Client
	ttl    time.Duration
	log    logrus.FieldLogger
	mu     sync.RWMutex
	rounds map[string]*app.Round
}

// NewRoundStore defaults ttl to ten minutes and logger to the standard logger.
func NewRoundStore(client *redis.Client, ttl time.Duration, logger logrus.FieldLogger) *RoundStore {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &RoundStore{
		client: client,
		ttl:    ttl,
		log:    logger,
		rounds: make(map[string]*app.Round),
	}
}

func (s *RoundStore) TryPut(channel string, round *app.Round) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	previous := ""
	if existing, ok := s.rounds[channel]; ok {
		if !existing.Resolved() {
			return false
		}
		previous = existing.ID()
	}

	claimed, err := claimScript.Run(context.Background(), s.client, []string{s.key(channel)},
		round.ID(), previous, s.ttl.Milliseconds()).Int()
	if err == nil && claimed == 0 {
		return false
	}
	if err != nil {
		// Redis errors degrade to a local-only slot.
		s.roundLog(channel, round).WithError(err).Warn("channel claim failed, holding slot locally")
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
	existing, ok := s.rounds[channel]
	if !ok || existing != round {
		return
	}
	delete(s.rounds, channel)
	if err := releaseScript.Run(context.Background(), s.client, []string{s.key(channel)}, round.ID()).Err(); err != nil {
		s.roundLog(channel, round).WithError(err).Warn("channel release failed, key stays until its ttl")
	}
}

func (s *RoundStore) roundLog(channel string, round *app.Round) logrus.FieldLogger {
	return s.log.WithFields(logrus.Fields{"channel": channel, "round_id": round.ID()})
}

func (s *RoundStore) key(channel string) string {
	return "trivia:round:" + channel
}
