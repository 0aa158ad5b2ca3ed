package http

import (
	"testing"
	"time"

	logtest "github.com/sirupsen/logrus/hooks/test"

	"trivia-bot/internal/app"
	"trivia-bot/internal/clock"
	"trivia-bot/internal/domain"
	"trivia-bot/internal/infra/memory"
)

var capitalGenerator = app.Generator{
	Name: "capital",
	Kind: domain.KindChampion,
	Build: func(t domain.Topic) (string, string, error) {
		return t.Text["prompt"], t.Text["answer"], nil
	},
}

var testSettings = RoundSettings{
	Command:       "!trivia",
	AnnounceDelay: 5 * time.Second,
	AnswerWindow:  20 * time.Second,
}

type testEnv struct {
	engine *app.Engine
	clock  *clock.Fake
	hub    *Hub
	scores *memory.ScoreStore
}

func newTestEnv(t *testing.T, catalog app.Catalog) *testEnv {
	t.Helper()
	if catalog == nil {
		catalog = memory.NewCatalog(memory.NewStaticTopicLoader(map[domain.TopicKind][]domain.Topic{
			domain.KindChampion: {{
				Kind: domain.KindChampion,
				ID:   "france",
				Name: "France",
				Text: map[string]string{"prompt": "What is the capital of France?", "answer": "Paris"},
			}},
		}), time.Minute)
	}
	logger, _ := logtest.NewNullLogger()
	env := &testEnv{
		clock:  clock.NewFake(time.Unix(1_700_000_000, 0)),
		hub:    NewHub(),
		scores: memory.NewScoreStore(),
	}
	env.engine = app.NewEngine(app.EngineDeps{
		Registry:  app.NewRegistry([]app.Generator{capitalGenerator}, app.DefaultMaxAttempts),
		Catalog:   catalog,
		Rounds:    memory.NewRoundStore(),
		Scores:    env.scores,
		Announcer: env.hub,
		Clock:     env.clock,
		Logger:    logger,
	}, app.EngineConfig{Points: 15})
	return env
}
