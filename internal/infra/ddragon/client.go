// Package ddragon loads champion, item and summoner spell topics from Riot's Data Dragon
// static data CDN.
package ddragon

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"trivia-bot/internal/domain"
	"trivia-bot/internal/generators"
)

const (
	DefaultBaseURL = "https://ddragon.leagueoflegends.com"
	DefaultLocale  = "en_US"
	latest         = "latest"
)

// Options configures a Client. Zero values fall back to the public CDN, the latest
// version, en_US and one request per second.
type Options struct {
	BaseURL    string
	Version    string
	Locale     string
	Rate       float64
	Burst      int
	HTTPClient *http.Client
}

// Client is a TopicLoader over Data Dragon. Requests are throttled by a token bucket.
type Client struct {
	baseURL string
	version string
	locale  string
	http    *http.Client
	limiter *rate.Limiter
}

func NewClient(opts Options) *Client {
	c := &Client{
		baseURL: strings.TrimRight(opts.BaseURL, "/"),
		version: opts.Version,
		locale:  opts.Locale,
		http:    opts.HTTPClient,
	}
	if c.baseURL == "" {
		c.baseURL = DefaultBaseURL
	}
	if c.version == "" {
		c.version = latest
	}
	if c.locale == "" {
		c.locale = DefaultLocale
	}
	if c.http == nil {
		c.http = &http.Client{Timeout: 15 * time.Second}
	}
	limit := rate.Limit(opts.Rate)
	if opts.Rate <= 0 {
		limit = rate.Limit(1)
	}
	burst := opts.Burst
	if burst <= 0 {
		burst = 1
	}
	c.limiter = rate.NewLimiter(limit, burst)
	return c
}

func (c *Client) LoadTopics(ctx context.Context, kind domain.TopicKind) ([]domain.Topic, error) {
	version, err := c.resolveVersion(ctx)
	if err != nil {
		return nil, err
	}

	var topics []domain.Topic
	switch kind {
	case domain.KindChampion:
		var payload struct {
			Data map[string]champion `json:"data"`
		}
		if err := c.getJSON(ctx, c.dataURL(version, "championFull.json"), &payload); err != nil {
			return nil, err
		}
		for _, ch := range payload.Data {
			topics = append(topics, ch.topic())
		}
	case domain.KindItem:
		var payload struct {
			Data map[string]item `json:"data"`
		}
		if err := c.getJSON(ctx, c.dataURL(version, "item.json"), &payload); err != nil {
			return nil, err
		}
		for id, it := range payload.Data {
			if !it.Gold.Purchasable {
				continue
			}
			topics = append(topics, it.topic(id))
		}
	case domain.KindSummonerSpell:
		var payload struct {
			Data map[string]summonerSpell `json:"data"`
		}
		if err := c.getJSON(ctx, c.dataURL(version, "summoner.json"), &payload); err != nil {
			return nil, err
		}
		for _, sp := range payload.Data {
			topics = append(topics, sp.topic())
		}
	default:
		return nil, fmt.Errorf("%w: unknown kind %q", domain.ErrTopicNotFound, kind)
	}

	if len(topics) == 0 {
		return nil, fmt.Errorf("%w: no %s topics", domain.ErrTopicNotFound, kind)
	}
	return topics, nil
}

func (c *Client) resolveVersion(ctx context.Context) (string, error) {
	if c.version != latest {
		return c.version, nil
	}
	var versions []string
	if err := c.getJSON(ctx, c.baseURL+"/api/versions.json", &versions); err != nil {
		return "", err
	}
	if len(versions) == 0 {
		return "", fmt.Errorf("ddragon: empty version list")
	}
	return versions[0], nil
}

func (c *Client) dataURL(version, file string) string {
	return fmt.Sprintf("%s/cdn/%s/data/%s/%s", c.baseURL, version, c.locale, file)
}

func (c *Client) getJSON(ctx context.Context, url string, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("ddragon rate limit: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("ddragon request: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("ddragon get %s: %w", url, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("ddragon get %s: unexpected status %d", url, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("ddragon decode %s: %w", url, err)
	}
	return nil
}

// Data Dragon payloads, trimmed to the fields the generators read.

type champion struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	Title     string   `json:"title"`
	Blurb     string   `json:"blurb"`
	AllyTips  []string `json:"allytips"`
	EnemyTips []string `json:"enemytips"`
	Skins     []struct {
		Name string `json:"name"`
	} `json:"skins"`
	Passive struct {
		Name        string `json:"name"`
		Description string `json:"description"`
	} `json:"passive"`
	Spells []struct {
		Name        string `json:"name"`
		Description string `json:"description"`
	} `json:"spells"`
}

var spellKeys = []string{"Q", "W", "E", "R"}

func (c champion) topic() domain.Topic {
	t := domain.Topic{
		Kind: domain.KindChampion,
		ID:   c.ID,
		Name: c.Name,
		Text: map[string]string{
			generators.FieldTitle:   c.Title,
			generators.FieldBlurb:   c.Blurb,
			generators.FieldPassive: c.Passive.Description,
		},
		Lists: map[string][]string{
			generators.FieldAllyTips:  c.AllyTips,
			generators.FieldEnemyTips: c.EnemyTips,
		},
	}
	skins := make([]string, 0, len(c.Skins))
	for _, s := range c.Skins {
		skins = append(skins, s.Name)
	}
	t.Lists[generators.FieldSkins] = skins
	for i, sp := range c.Spells {
		if i >= len(spellKeys) {
			break
		}
		t.Abilities = append(t.Abilities, domain.Ability{
			Key:         spellKeys[i],
			Name:        sp.Name,
			Description: sp.Description,
		})
	}
	return t
}

type item struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Plaintext   string `json:"plaintext"`
	Gold        struct {
		Total       float64 `json:"total"`
		Sell        float64 `json:"sell"`
		Purchasable bool    `json:"purchasable"`
	} `json:"gold"`
	Stats map[string]float64 `json:"stats"`
}

func (it item) topic(id string) domain.Topic {
	t := domain.Topic{
		Kind: domain.KindItem,
		ID:   id,
		Name: it.Name,
		Text: map[string]string{
			generators.FieldDescription: it.Description,
			generators.FieldPlaintext:   it.Plaintext,
		},
		Numbers: map[string]float64{
			generators.FieldGoldTotal: it.Gold.Total,
			generators.FieldGoldSell:  it.Gold.Sell,
		},
	}
	for key, value := range it.Stats {
		label, v := readableStat(key, value)
		t.Numbers[generators.StatPrefix+label] = v
	}
	return t
}

type summonerSpell struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Description  string `json:"description"`
	CooldownBurn string `json:"cooldownBurn"`
}

func (s summonerSpell) topic() domain.Topic {
	return domain.Topic{
		Kind: domain.KindSummonerSpell,
		ID:   s.ID,
		Name: s.Name,
		Text: map[string]string{
			generators.FieldDescription: s.Description,
			generators.FieldCooldown:    s.CooldownBurn,
		},
	}
}
