package domain

import "fmt"

// TopicKind names a family of catalog records.
type TopicKind string

const (
	KindChampion      TopicKind = "champion"
	KindItem          TopicKind = "item"
	KindSummonerSpell TopicKind = "summoner"
)

// Ability is a named, keyed skill attached to a topic (e.g. a champion's Q/W/E/R).
type Ability struct {
	Key         string `json:"key" yaml:"key"`
	Name        string `json:"name" yaml:"name"`
	Description string `json:"description" yaml:"description"`
}

// Topic is a catalog record questions are derived from.
type Topic struct {
	Kind      TopicKind           `json:"kind" yaml:"kind"`
	ID        string              `json:"id" yaml:"id"`
	Name      string              `json:"name" yaml:"name"`
	Text      map[string]string   `json:"text,omitempty" yaml:"text,omitempty"`
	Lists     map[string][]string `json:"lists,omitempty" yaml:"lists,omitempty"`
	Numbers   map[string]float64  `json:"numbers,omitempty" yaml:"numbers,omitempty"`
	Abilities []Ability           `json:"abilities,omitempty" yaml:"abilities,omitempty"`
}

// TextField returns a non-empty text field.
func (t Topic) TextField(key string) (string, error) {
	if v, ok := t.Text[key]; ok && v != "" {
		return v, nil
	}
	return "", t.missing(key)
}

// ListField returns a non-empty list field.
func (t Topic) ListField(key string) ([]string, error) {
	if v, ok := t.Lists[key]; ok && len(v) > 0 {
		return v, nil
	}
	return nil, t.missing(key)
}

// NumberField returns a numeric field.
func (t Topic) NumberField(key string) (float64, error) {
	if v, ok := t.Numbers[key]; ok {
		return v, nil
	}
	return 0, t.missing(key)
}

// RequireAbilities returns the topic's abilities or ErrFieldMissing.
func (t Topic) RequireAbilities() ([]Ability, error) {
	if len(t.Abilities) == 0 {
		return nil, t.missing("abilities")
	}
	return t.Abilities, nil
}

func (t Topic) missing(key string) error {
	return fmt.Errorf("%w: %s %q has no %s", ErrFieldMissing, t.Kind, t.Name, key)
}
