package app

import (
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"trivia-bot/internal/domain"
)

// RoundState is the lifecycle position of a round.
type RoundState int32

const (
	Pending RoundState = iota
	Announced
	Resolved
)

func (s RoundState) String() string {
	switch s {
	case Pending:
		return "pending"
	case Announced:
		return "announced"
	default:
		return "resolved"
	}
}

// Round is one posed question bound to a channel. Every state transition is a
// compare-and-swap, so the move to Resolved happens exactly once.
type Round struct {
	id            string
	channel       string
	initiator     string
	question      domain.Question
	startedAt     time.Time
	announceDelay time.Duration
	answerWindow  time.Duration

	state       atomic.Int32
	startedSent chan struct{}
	done        chan struct{}
}

func newRound(channel, initiator string, q domain.Question, startedAt time.Time, announceDelay, answerWindow time.Duration) *Round {
	return &Round{
		id:            uuid.NewString(),
		channel:       channel,
		initiator:     initiator,
		question:      q,
		startedAt:     startedAt,
		announceDelay: announceDelay,
		answerWindow:  answerWindow,
		startedSent:   make(chan struct{}),
		done:          make(chan struct{}),
	}
}

func (r *Round) ID() string                { return r.id }
func (r *Round) Channel() string           { return r.channel }
func (r *Round) Initiator() string         { return r.initiator }
func (r *Round) Question() domain.Question { return r.question }
func (r *Round) StartedAt() time.Time      { return r.startedAt }

// Deadline is when the expiry timer fires.
func (r *Round) Deadline() time.Time { return r.startedAt.Add(r.answerWindow) }

func (r *Round) State() RoundState { return RoundState(r.state.Load()) }

// Resolved reports whether the round has been claimed.
func (r *Round) Resolved() bool { return r.State() == Resolved }

// Done is closed once the winning claimant finished its side effects.
func (r *Round) Done() <-chan struct{} { return r.done }

func (r *Round) markAnnounced() bool {
	return r.state.CompareAndSwap(int32(Pending), int32(Announced))
}

// claimByAnswer only succeeds while answers are accepted.
func (r *Round) claimByAnswer() bool {
	return r.state.CompareAndSwap(int32(Announced), int32(Resolved))
}

// claimByExpiry succeeds from any unresolved state.
func (r *Round) claimByExpiry() bool {
	for {
		cur := r.state.Load()
		if RoundState(cur) == Resolved {
			return false
		}
		if r.state.CompareAndSwap(cur, int32(Resolved)) {
			return true
		}
	}
}

func (r *Round) markStartedSent() {
	close(r.startedSent)
}

func (r *Round) finish() {
	close(r.done)
}
