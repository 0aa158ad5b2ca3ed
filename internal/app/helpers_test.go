package app_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"

	"trivia-bot/internal/app"
	"trivia-bot/internal/clock"
	"trivia-bot/internal/domain"
	"trivia-bot/internal/infra/memory"
)

const staticKind domain.TopicKind = "static"

// staticGenerator asks the topic's "prompt" text and expects its "answer" text.
var staticGenerator = app.Generator{
	Name: "static",
	Kind: staticKind,
	Build: func(t domain.Topic) (string, string, error) {
		prompt, err := t.TextField("prompt")
		if err != nil {
			return "", "", err
		}
		answer, err := t.TextField("answer")
		if err != nil {
			return "", "", err
		}
		return prompt, answer, nil
	},
}

type stubCatalog struct {
	mu    sync.Mutex
	topic domain.Topic
	err   error
	calls int
}

func questionCatalog(prompt, answer string) *stubCatalog {
	return &stubCatalog{topic: domain.Topic{
		Kind: staticKind,
		Name: "static",
		Text: map[string]string{"prompt": prompt, "answer": answer},
	}}
}

func (c *stubCatalog) FetchRandomTopic(_ context.Context, _ domain.TopicKind) (domain.Topic, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls++
	if c.err != nil {
		return domain.Topic{}, c.err
	}
	return c.topic, nil
}

func (c *stubCatalog) setErr(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.err = err
}

func (c *stubCatalog) callCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls
}

type sentMessage struct {
	channel string
	text    string
}

type recordingAnnouncer struct {
	mu   sync.Mutex
	sent []sentMessage
	err  error

	// beforeSend runs outside the lock ahead of every delivery.
	beforeSend func()
}

func (a *recordingAnnouncer) Send(_ context.Context, channel, text string) error {
	if a.beforeSend != nil {
		a.beforeSend()
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.sent = append(a.sent, sentMessage{channel: channel, text: text})
	return a.err
}

func (a *recordingAnnouncer) texts(channel string) []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	var out []string
	for _, m := range a.sent {
		if m.channel == channel {
			out = append(out, m.text)
		}
	}
	return out
}

// flakyScores reports a known score but fails every increment.
type flakyScores struct {
	known      int
	increments int
	mu         sync.Mutex
}

func (s *flakyScores) GetOrCreate(_ context.Context, userID string) (domain.ScoreRecord, error) {
	return domain.ScoreRecord{UserID: userID, Score: s.known}, nil
}

func (s *flakyScores) Increment(context.Context, string, int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.increments++
	return 0, errors.New("connection reset")
}

type harness struct {
	engine    *app.Engine
	clock     *clock.Fake
	catalog   *stubCatalog
	announcer *recordingAnnouncer
	scores    app.ScoreStore
	rounds    *memory.RoundStore
	logs      *logtest.Hook
}

type harnessOption func(*app.EngineDeps)

func withScores(s app.ScoreStore) harnessOption {
	return func(d *app.EngineDeps) { d.Scores = s }
}

func newHarness(t *testing.T, catalog *stubCatalog, opts ...harnessOption) *harness {
	t.Helper()
	logger, hook := logtest.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)

	h := &harness{
		clock:     clock.NewFake(time.Unix(1_700_000_000, 0)),
		catalog:   catalog,
		announcer: &recordingAnnouncer{},
		scores:    memory.NewScoreStore(),
		rounds:    memory.NewRoundStore(),
		logs:      hook,
	}
	deps := app.EngineDeps{
		Registry:  app.NewRegistry([]app.Generator{staticGenerator}, 3),
		Catalog:   catalog,
		Rounds:    h.rounds,
		Scores:    h.scores,
		Announcer: h.announcer,
		Clock:     h.clock,
		Logger:    logger,
	}
	for _, opt := range opts {
		opt(&deps)
	}
	h.scores = deps.Scores
	h.engine = app.NewEngine(deps, app.EngineConfig{Points: 15})
	return h
}
