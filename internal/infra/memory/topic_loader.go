package memory

import (
	"context"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"trivia-bot/internal/domain"
)

// StaticTopicLoader is a loader backed by an in-memory map (useful for tests/demos).
type StaticTopicLoader struct {
	topics map[domain.TopicKind][]domain.Topic
}

func NewStaticTopicLoader(topics map[domain.TopicKind][]domain.Topic) *StaticTopicLoader {
	return &StaticTopicLoader{topics: topics}
}

func (l *StaticTopicLoader) LoadTopics(_ context.Context, kind domain.TopicKind) ([]domain.Topic, error) {
	if topics, ok := l.topics[kind]; ok && len(topics) > 0 {
		return topics, nil
	}
	return nil, fmt.Errorf("%w: no %s topics", domain.ErrTopicNotFound, kind)
}

type topicsFile struct {
	Topics []domain.Topic `yaml:"topics"`
}

// LoadTopicsFile reads a YAML topics file into a StaticTopicLoader.
func LoadTopicsFile(path string) (*StaticTopicLoader, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseTopics(data)
}

// ParseTopics decodes YAML topics grouped by kind.
func ParseTopics(data []byte) (*StaticTopicLoader, error) {
	var file topicsFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse topics: %w", err)
	}
	byKind := make(map[domain.TopicKind][]domain.Topic)
	for i, topic := range file.Topics {
		if topic.Kind == "" || topic.Name == "" {
			return nil, fmt.Errorf("parse topics: entry %d needs kind and name", i)
		}
		byKind[topic.Kind] = append(byKind[topic.Kind], topic)
	}
	return NewStaticTopicLoader(byKind), nil
}
