package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"trivia-bot/internal/clock"
	"trivia-bot/internal/domain"
	"trivia-bot/internal/metrics"
)

const (
	// DefaultPoints is awarded per correct answer when no value is configured.
	DefaultPoints = 15
	// DefaultSideEffectTimeout bounds score and announcement calls made after a claim.
	DefaultSideEffectTimeout = 5 * time.Second
)

// EngineConfig carries the tunables of the round engine.
type EngineConfig struct {
	Points            int
	SideEffectTimeout time.Duration
}

// EngineDeps are the collaborators of the round engine. Formatter, Clock and Logger
// are optional; Metrics may be nil.
type EngineDeps struct {
	Registry  *Registry
	Catalog   Catalog
	Rounds    RoundRepository
	Scores    ScoreStore
	Announcer Announcer
	Formatter Formatter
	Clock     clock.Clock
	Logger    logrus.FieldLogger
	Metrics   *metrics.Metrics
}

// Engine runs trivia rounds: at most one live round per channel, and exactly one
// resolution (answer or expiry) per round.
type Engine struct {
	registry  *Registry
	catalog   Catalog
	rounds    RoundRepository
	scores    ScoreStore
	announcer Announcer
	format    Formatter
	clock     clock.Clock
	log       logrus.FieldLogger
	metrics   *metrics.Metrics

	points            int
	sideEffectTimeout time.Duration
}

func NewEngine(deps EngineDeps, cfg EngineConfig) *Engine {
	e := &Engine{
		registry:          deps.Registry,
		catalog:           deps.Catalog,
		rounds:            deps.Rounds,
		scores:            deps.Scores,
		announcer:         deps.Announcer,
		format:            deps.Formatter,
		clock:             deps.Clock,
		log:               deps.Logger,
		metrics:           deps.Metrics,
		points:            cfg.Points,
		sideEffectTimeout: cfg.SideEffectTimeout,
	}
	if e.format == nil {
		e.format = TextFormatter{}
	}
	if e.clock == nil {
		e.clock = clock.Real{}
	}
	if e.log == nil {
		e.log = logrus.StandardLogger()
	}
	if e.points <= 0 {
		e.points = DefaultPoints
	}
	if e.sideEffectTimeout <= 0 {
		e.sideEffectTimeout = DefaultSideEffectTimeout
	}
	return e
}

// Points is the value awarded per correct answer.
func (e *Engine) Points() int {
	return e.points
}

// ActiveRound returns the round holding the channel slot, if it is not resolved.
func (e *Engine) ActiveRound(channel string) (*Round, bool) {
	round, ok := e.rounds.Get(channel)
	if !ok || round.Resolved() {
		return nil, false
	}
	return round, true
}

// StartRound generates a question and schedules the announce and expiry timers
// relative to the round's start. It returns once the timers are scheduled; the
// started message is delivered in the background.
func (e *Engine) StartRound(ctx context.Context, channel, initiator string, announceDelay, answerWindow time.Duration) (*Round, error) {
	if announceDelay < 0 || answerWindow <= announceDelay {
		return nil, fmt.Errorf("%w: delay=%s window=%s", domain.ErrInvalidRoundTiming, announceDelay, answerWindow)
	}
	if _, ok := e.ActiveRound(channel); ok {
		return nil, domain.ErrRoundAlreadyActive
	}

	q, err := e.registry.Generate(ctx, e.catalog)
	if err != nil {
		e.metrics.GenerationFailed()
		e.log.WithError(err).WithField("channel", channel).Warn("question generation failed")
		return nil, err
	}

	round := newRound(channel, initiator, q, e.clock.Now(), announceDelay, answerWindow)
	if !e.rounds.TryPut(channel, round) {
		return nil, domain.ErrRoundAlreadyActive
	}

	elapsed := e.clock.Now().Sub(round.StartedAt())
	e.clock.AfterFunc(max(announceDelay-elapsed, 0), func() { e.announce(round) })
	e.clock.AfterFunc(max(answerWindow-elapsed, 0), func() { e.expire(round) })

	e.metrics.RoundStarted()
	e.log.WithFields(logrus.Fields{
		"channel":   channel,
		"round_id":  round.ID(),
		"initiator": initiator,
	}).Info("round started")

	sctx, cancel := e.sideEffectContext(ctx)
	go func() {
		defer cancel()
		defer round.markStartedSent()
		e.send(sctx, round, e.format.RoundStarted(initiator))
	}()
	return round, nil
}

// SubmitAnswer checks text against the channel's announced round. A matching
// answer that wins the claim is scored and announced before Accepted is returned.
func (e *Engine) SubmitAnswer(ctx context.Context, channel, text, userID string) domain.AnswerOutcome {
	outcome := e.submit(ctx, channel, text, userID)
	e.metrics.AnswerSubmitted(outcome.String())
	return outcome
}

func (e *Engine) submit(ctx context.Context, channel, text, userID string) domain.AnswerOutcome {
	round, ok := e.rounds.Get(channel)
	if !ok || round.State() != Announced {
		return domain.NoActiveRound
	}
	if !round.Question().Matches(text) {
		return domain.Rejected
	}
	if !round.claimByAnswer() {
		return domain.NoActiveRound
	}
	e.resolveAnswered(ctx, round, text, userID)
	return domain.Accepted
}

func (e *Engine) announce(round *Round) {
	if !round.markAnnounced() {
		return
	}
	ctx, cancel := e.sideEffectContext(context.Background())
	defer cancel()
	e.deliver(ctx, round, e.format.Prompt(round.Question()))
}

func (e *Engine) expire(round *Round) {
	if !round.claimByExpiry() {
		return
	}
	defer e.finish(round, "expired")

	ctx, cancel := e.sideEffectContext(context.Background())
	defer cancel()
	e.log.WithFields(logrus.Fields{"channel": round.Channel(), "round_id": round.ID()}).Info("round expired")
	e.deliver(ctx, round, e.format.Timeout(round.Question()))
}

func (e *Engine) resolveAnswered(ctx context.Context, round *Round, text, userID string) {
	defer e.finish(round, "answered")

	sctx, cancel := e.sideEffectContext(ctx)
	defer cancel()
	log := e.log.WithFields(logrus.Fields{
		"channel":  round.Channel(),
		"round_id": round.ID(),
		"user":     userID,
	})

	score := 0
	if rec, err := e.scores.GetOrCreate(sctx, userID); err != nil {
		e.metrics.SideEffectFailed("score_store")
		log.WithError(fmt.Errorf("%w: %w", domain.ErrStore, err)).Warn("score lookup failed")
	} else {
		score = rec.Score
	}
	// One increment per claim; a retry could double count.
	if total, err := e.scores.Increment(sctx, userID, e.points); err != nil {
		e.metrics.SideEffectFailed("score_store")
		log.WithError(fmt.Errorf("%w: %w", domain.ErrStore, err)).Error("score increment failed")
	} else {
		score = total
	}

	log.WithField("score", score).Info("round answered")
	e.deliver(sctx, round, e.format.Correct(strings.TrimSpace(text), userID, score))
}

// finish releases the slot before signalling Done so a waiter can start the next round.
func (e *Engine) finish(round *Round, outcome string) {
	e.rounds.Release(round.Channel(), round)
	e.metrics.RoundResolved(outcome)
	round.finish()
}

// deliver sends text once the round's started message went out, so channel
// messages keep their order.
func (e *Engine) deliver(ctx context.Context, round *Round, text string) {
	select {
	case <-round.startedSent:
	case <-ctx.Done():
	}
	e.send(ctx, round, text)
}

func (e *Engine) send(ctx context.Context, round *Round, text string) {
	err := e.announcer.Send(ctx, round.Channel(), text)
	if err == nil {
		return
	}
	if !errors.Is(err, domain.ErrDeliveryFailed) {
		err = fmt.Errorf("%w: %w", domain.ErrDeliveryFailed, err)
	}
	e.metrics.SideEffectFailed("announcer")
	e.log.WithError(err).WithFields(logrus.Fields{
		"channel":  round.Channel(),
		"round_id": round.ID(),
	}).Warn("announcement failed")
}

// sideEffectContext detaches from the caller's cancellation so a resolved round
// still delivers its result, bounded by the side effect timeout.
func (e *Engine) sideEffectContext(parent context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(parent), e.sideEffectTimeout)
}
