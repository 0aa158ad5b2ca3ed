package app_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trivia-bot/internal/app"
	"trivia-bot/internal/clock"
	"trivia-bot/internal/domain"
	"trivia-bot/internal/infra/memory"
)

const (
	announceDelay = 5 * time.Second
	answerWindow  = 20 * time.Second
)

func TestRoundAnsweredBeforeExpiry(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, questionCatalog("What's 1+1?", "2"))

	round, err := h.engine.StartRound(ctx, "#trivia", "bob", announceDelay, answerWindow)
	require.NoError(t, err)
	require.Equal(t, app.Pending, round.State())
	requireStartedSent(t, round)
	require.Equal(t, []string{"bob has started a new trivia round! Get ready!"}, h.announcer.texts("#trivia"))

	// Answers before the prompt is shown are not queued.
	require.Equal(t, domain.NoActiveRound, h.engine.SubmitAnswer(ctx, "#trivia", "2", "alice"))

	h.clock.Advance(6 * time.Second)
	require.Equal(t, app.Announced, round.State())
	require.Contains(t, h.announcer.texts("#trivia"), "What's 1+1?")

	h.clock.Advance(4 * time.Second)
	require.Equal(t, domain.Accepted, h.engine.SubmitAnswer(ctx, "#trivia", "2", "alice"))
	require.Equal(t, app.Resolved, round.State())
	requireDone(t, round)

	texts := h.announcer.texts("#trivia")
	require.Equal(t, `Correct answer "2" by alice! Your new score is 15.`, texts[len(texts)-1])

	h.clock.Advance(10 * time.Second)
	require.Len(t, h.announcer.texts("#trivia"), 3, "expiry must be inert after an accepted answer")
	for _, text := range h.announcer.texts("#trivia") {
		require.NotContains(t, text, "Time is up")
	}
}

func TestRoundExpiresWithoutAnswer(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, questionCatalog("Which champion has the title \"the Nine-Tailed Fox\"?", "Ahri"))

	round, err := h.engine.StartRound(ctx, "#trivia", "bob", announceDelay, answerWindow)
	require.NoError(t, err)

	h.clock.Advance(answerWindow)
	requireDone(t, round)

	texts := h.announcer.texts("#trivia")
	require.Equal(t, `Time is up! The correct answer is "Ahri".`, texts[len(texts)-1])
	require.Equal(t, domain.NoActiveRound, h.engine.SubmitAnswer(ctx, "#trivia", "ahri", "alice"))

	_, ok := h.rounds.Get("#trivia")
	require.False(t, ok, "slot must be released after expiry")
}

func TestAnswerComparisonIsCaseInsensitive(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, questionCatalog("Capital of France?", "Paris"))

	_, err := h.engine.StartRound(ctx, "#trivia", "bob", announceDelay, answerWindow)
	require.NoError(t, err)
	h.clock.Advance(announceDelay)

	require.Equal(t, domain.Accepted, h.engine.SubmitAnswer(ctx, "#trivia", "PARIS", "alice"))
	require.Equal(t, domain.NoActiveRound, h.engine.SubmitAnswer(ctx, "#trivia", "paris", "carol"))
	require.Equal(t, domain.NoActiveRound, h.engine.SubmitAnswer(ctx, "#trivia", "Paris", "dave"))

	for _, candidate := range []string{"PARIS", "paris", "Paris"} {
		h := newHarness(t, questionCatalog("Capital of France?", "Paris"))
		_, err := h.engine.StartRound(ctx, "#trivia", "bob", announceDelay, answerWindow)
		require.NoError(t, err)
		h.clock.Advance(announceDelay)
		require.Equal(t, domain.Accepted, h.engine.SubmitAnswer(ctx, "#trivia", candidate, "alice"), candidate)
	}
}

func TestExpiryIsMeasuredFromRoundStart(t *testing.T) {
	h := newHarness(t, questionCatalog("What's 1+1?", "2"))
	var once sync.Once
	// The started message takes three seconds to deliver.
	h.announcer.beforeSend = func() { once.Do(func() { h.clock.Advance(3 * time.Second) }) }

	round, err := h.engine.StartRound(context.Background(), "#trivia", "bob", announceDelay, answerWindow)
	require.NoError(t, err)
	requireStartedSent(t, round)
	require.Equal(t, round.StartedAt().Add(answerWindow), round.Deadline())

	h.clock.Advance(round.Deadline().Sub(h.clock.Now()))
	require.Equal(t, round.Deadline(), h.clock.Now())
	require.Equal(t, app.Resolved, round.State())
	requireDone(t, round)

	require.Equal(t, []string{
		"bob has started a new trivia round! Get ready!",
		"What's 1+1?",
		`Time is up! The correct answer is "2".`,
	}, h.announcer.texts("#trivia"))
}

func TestStartRoundDoesNotWaitForDelivery(t *testing.T) {
	h := newHarness(t, questionCatalog("What's 1+1?", "2"))
	release := make(chan struct{})
	h.announcer.beforeSend = func() { <-release }

	returned := make(chan *app.Round, 1)
	go func() {
		round, err := h.engine.StartRound(context.Background(), "#trivia", "bob", announceDelay, answerWindow)
		assert.NoError(t, err)
		returned <- round
	}()

	var round *app.Round
	select {
	case round = <-returned:
	case <-time.After(2 * time.Second):
		t.Fatal("StartRound blocked on the announcer")
	}
	require.Equal(t, 2, h.clock.Pending(), "both timers are scheduled before delivery")

	close(release)
	requireStartedSent(t, round)
	require.Equal(t, []string{"bob has started a new trivia round! Get ready!"}, h.announcer.texts("#trivia"))
}

func TestTimeoutShowsDisplayCasedAnswer(t *testing.T) {
	h := newHarness(t, questionCatalog("What's the name of Ahri's Q?", "Orb of Deception"))

	round, err := h.engine.StartRound(context.Background(), "#trivia", "bob", announceDelay, answerWindow)
	require.NoError(t, err)
	require.Equal(t, "orb of deception", round.Question().Answer())

	h.clock.Advance(answerWindow)
	texts := h.announcer.texts("#trivia")
	require.Equal(t, `Time is up! The correct answer is "Orb of Deception".`, texts[len(texts)-1])
}

func TestWrongAnswerIsRejectedWithoutSideEffects(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, questionCatalog("What's 1+1?", "2"))

	round, err := h.engine.StartRound(ctx, "#trivia", "bob", announceDelay, answerWindow)
	require.NoError(t, err)
	h.clock.Advance(announceDelay)
	before := len(h.announcer.texts("#trivia"))

	require.Equal(t, domain.Rejected, h.engine.SubmitAnswer(ctx, "#trivia", "3", "alice"))
	require.Equal(t, app.Announced, round.State())
	require.Len(t, h.announcer.texts("#trivia"), before)

	rec, err := h.scores.GetOrCreate(ctx, "alice")
	require.NoError(t, err)
	require.Zero(t, rec.Score)
}

func TestStartRoundRejectsSecondLiveRound(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, questionCatalog("What's 1+1?", "2"))

	first, err := h.engine.StartRound(ctx, "#trivia", "bob", announceDelay, answerWindow)
	require.NoError(t, err)
	calls := h.catalog.callCount()

	_, err = h.engine.StartRound(ctx, "#trivia", "carol", announceDelay, answerWindow)
	require.ErrorIs(t, err, domain.ErrRoundAlreadyActive)
	require.Equal(t, calls, h.catalog.callCount(), "no question should be generated for a busy channel")

	h.clock.Advance(announceDelay)
	_, err = h.engine.StartRound(ctx, "#trivia", "carol", announceDelay, answerWindow)
	require.ErrorIs(t, err, domain.ErrRoundAlreadyActive)

	got, ok := h.engine.ActiveRound("#trivia")
	require.True(t, ok)
	require.Same(t, first, got)

	// Other channels are independent.
	_, err = h.engine.StartRound(ctx, "#other", "carol", announceDelay, answerWindow)
	require.NoError(t, err)
}

func TestConcurrentStartRoundCreatesOneRound(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, questionCatalog("What's 1+1?", "2"))

	var (
		wg      sync.WaitGroup
		started atomic.Int32
		busy    atomic.Int32
	)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := h.engine.StartRound(ctx, "#trivia", fmt.Sprintf("user%d", i), announceDelay, answerWindow)
			switch {
			case err == nil:
				started.Add(1)
			case errors.Is(err, domain.ErrRoundAlreadyActive):
				busy.Add(1)
			}
		}(i)
	}
	wg.Wait()

	require.Equal(t, int32(1), started.Load())
	require.Equal(t, int32(19), busy.Load())
}

func TestContentUnavailableLeavesNoRound(t *testing.T) {
	ctx := context.Background()
	catalog := questionCatalog("What's 1+1?", "2")
	catalog.setErr(errors.New("catalog offline"))
	h := newHarness(t, catalog)

	_, err := h.engine.StartRound(ctx, "#trivia", "bob", announceDelay, answerWindow)
	require.ErrorIs(t, err, domain.ErrContentUnavailable)
	require.Equal(t, 3, catalog.callCount(), "generation retries up to the bound")

	_, ok := h.rounds.Get("#trivia")
	require.False(t, ok)
	require.Zero(t, h.clock.Pending(), "no timers for a round that was never created")
	require.Empty(t, h.announcer.texts("#trivia"))

	catalog.setErr(nil)
	_, err = h.engine.StartRound(ctx, "#trivia", "bob", announceDelay, answerWindow)
	require.NoError(t, err, "a failed start must not block the channel")
}

func TestStartRoundValidatesTiming(t *testing.T) {
	h := newHarness(t, questionCatalog("What's 1+1?", "2"))

	_, err := h.engine.StartRound(context.Background(), "#trivia", "bob", 20*time.Second, 5*time.Second)
	require.ErrorIs(t, err, domain.ErrInvalidRoundTiming)
	_, err = h.engine.StartRound(context.Background(), "#trivia", "bob", -time.Second, 5*time.Second)
	require.ErrorIs(t, err, domain.ErrInvalidRoundTiming)
	require.Zero(t, h.catalog.callCount())
}

func TestScoreIncrementsExactlyOncePerRound(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, questionCatalog("What's 1+1?", "2"))

	for round := 1; round <= 3; round++ {
		r, err := h.engine.StartRound(ctx, "#trivia", "bob", announceDelay, answerWindow)
		require.NoError(t, err)
		h.clock.Advance(announceDelay)

		require.Equal(t, domain.Accepted, h.engine.SubmitAnswer(ctx, "#trivia", "2", "alice"))
		for _, other := range []string{"bob", "carol", "alice"} {
			require.Equal(t, domain.NoActiveRound, h.engine.SubmitAnswer(ctx, "#trivia", "2", other))
		}
		requireDone(t, r)
		h.clock.Advance(answerWindow)

		rec, err := h.scores.GetOrCreate(ctx, "alice")
		require.NoError(t, err)
		require.Equal(t, 15*round, rec.Score)
	}
	rec, err := h.scores.GetOrCreate(ctx, "carol")
	require.NoError(t, err)
	require.Zero(t, rec.Score)
}

// Correct answers from many users race the expiry timer; exactly one resolution
// path may produce side effects.
func TestResolutionRaceHasSingleWinner(t *testing.T) {
	ctx := context.Background()

	for i := 0; i < 200; i++ {
		h := newHarness(t, questionCatalog("What's 1+1?", "2"))
		round, err := h.engine.StartRound(ctx, "#trivia", "bob", announceDelay, answerWindow)
		require.NoError(t, err)
		h.clock.Advance(announceDelay)

		var (
			wg       sync.WaitGroup
			accepted atomic.Int32
			start    = make(chan struct{})
		)
		for u := 0; u < 8; u++ {
			wg.Add(1)
			go func(u int) {
				defer wg.Done()
				<-start
				if h.engine.SubmitAnswer(ctx, "#trivia", "2", fmt.Sprintf("user%d", u)) == domain.Accepted {
					accepted.Add(1)
				}
			}(u)
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			h.clock.Advance(answerWindow)
		}()
		close(start)
		wg.Wait()
		requireDone(t, round)

		var correct, timeouts int
		for _, text := range h.announcer.texts("#trivia") {
			switch {
			case strings.HasPrefix(text, "Correct answer"):
				correct++
			case strings.HasPrefix(text, "Time is up!"):
				timeouts++
			}
		}
		require.Equal(t, 1, correct+timeouts, "iteration %d", i)
		require.Equal(t, int(accepted.Load()), correct, "iteration %d", i)

		total := 0
		for u := 0; u < 8; u++ {
			rec, err := h.scores.GetOrCreate(ctx, fmt.Sprintf("user%d", u))
			require.NoError(t, err)
			total += rec.Score
		}
		require.Equal(t, 15*correct, total, "iteration %d", i)
	}
}

func TestScoreStoreFailureStillAnnounces(t *testing.T) {
	ctx := context.Background()
	scores := &flakyScores{known: 30}
	h := newHarness(t, questionCatalog("What's 1+1?", "2"), withScores(scores))

	round, err := h.engine.StartRound(ctx, "#trivia", "bob", announceDelay, answerWindow)
	require.NoError(t, err)
	h.clock.Advance(announceDelay)

	require.Equal(t, domain.Accepted, h.engine.SubmitAnswer(ctx, "#trivia", "2", "alice"))
	requireDone(t, round)
	require.Equal(t, 1, scores.increments, "failed increments are never retried")

	texts := h.announcer.texts("#trivia")
	require.Equal(t, `Correct answer "2" by alice! Your new score is 30.`, texts[len(texts)-1])
	require.Equal(t, domain.NoActiveRound, h.engine.SubmitAnswer(ctx, "#trivia", "2", "carol"))

	var storeErrors int
	for _, entry := range h.logs.AllEntries() {
		if err, ok := entry.Data[logrus.ErrorKey].(error); ok && errors.Is(err, domain.ErrStore) {
			storeErrors++
		}
	}
	require.Equal(t, 1, storeErrors)
}

func TestAnnouncerFailureDoesNotAffectResolution(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, questionCatalog("What's 1+1?", "2"))
	h.announcer.err = errors.New("channel gone")

	round, err := h.engine.StartRound(ctx, "#trivia", "bob", announceDelay, answerWindow)
	require.NoError(t, err)
	h.clock.Advance(announceDelay)
	require.Equal(t, app.Announced, round.State(), "prompt delivery failure does not hold the round back")

	require.Equal(t, domain.Accepted, h.engine.SubmitAnswer(ctx, "#trivia", "2", "alice"))
	requireDone(t, round)

	rec, err := h.scores.GetOrCreate(ctx, "alice")
	require.NoError(t, err)
	require.Equal(t, 15, rec.Score)

	var deliveryErrors int
	for _, entry := range h.logs.AllEntries() {
		if err, ok := entry.Data[logrus.ErrorKey].(error); ok && errors.Is(err, domain.ErrDeliveryFailed) {
			deliveryErrors++
		}
	}
	require.Equal(t, 3, deliveryErrors)
}

func TestRoundWithRealClock(t *testing.T) {
	ctx := context.Background()
	catalog := questionCatalog("What's 1+1?", "2")
	announcer := &recordingAnnouncer{}
	engine := app.NewEngine(app.EngineDeps{
		Registry:  app.NewRegistry([]app.Generator{staticGenerator}, 3),
		Catalog:   catalog,
		Rounds:    memory.NewRoundStore(),
		Scores:    memory.NewScoreStore(),
		Announcer: announcer,
		Clock:     clock.Real{},
	}, app.EngineConfig{})

	round, err := engine.StartRound(ctx, "#trivia", "bob", 10*time.Millisecond, 5*time.Second)
	require.NoError(t, err)
	require.Eventually(t, func() bool { return round.State() == app.Announced }, time.Second, 5*time.Millisecond)

	require.Equal(t, domain.Accepted, engine.SubmitAnswer(ctx, "#trivia", " 2 ", "alice"))
	requireDone(t, round)
	require.Equal(t, app.DefaultPoints, engine.Points())
	texts := announcer.texts("#trivia")
	require.Equal(t, `Correct answer "2" by alice! Your new score is 15.`, texts[len(texts)-1])
}

func requireStartedSent(t *testing.T, round *app.Round) {
	t.Helper()
	select {
	case <-round.StartedSent():
	case <-time.After(2 * time.Second):
		t.Fatalf("round %s never sent its started message", round.ID())
	}
}

func requireDone(t *testing.T, round *app.Round) {
	t.Helper()
	select {
	case <-round.Done():
	case <-time.After(2 * time.Second):
		t.Fatalf("round %s did not finish", round.ID())
	}
}
