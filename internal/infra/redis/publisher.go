package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"trivia-bot/internal/domain"
)

// Announcement is the JSON payload published for each channel message.
type Announcement struct {
	Channel string    `json:"channel"`
	Text    string    `json:"text"`
	SentAt  time.Time `json:"sentAt"`
}

// Publisher announces messages on Redis pub/sub so other gateways can relay them.
type Publisher struct {
	client *redis.Client
	prefix string
}

func NewPublisher(client *redis.Client) *Publisher {
	return &Publisher{client: client, prefix: "trivia:announce:"}
}

// Topic returns the pub/sub channel for a chat channel.
func (p *Publisher) Topic(channel string) string {
	return p.prefix + channel
}

func (p *Publisher) Send(ctx context.Context, channel, text string) error {
	payload, err := json.Marshal(Announcement{Channel: channel, Text: text, SentAt: time.Now().UTC()})
	if err != nil {
		return fmt.Errorf("marshal announcement: %w", err)
	}
	if err := p.client.Publish(ctx, p.Topic(channel), payload).Err(); err != nil {
		return fmt.Errorf("%w: publish to redis: %w", domain.ErrDeliveryFailed, err)
	}
	return nil
}
