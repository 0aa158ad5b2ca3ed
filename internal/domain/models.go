package domain

import (
	"fmt"
	"strings"
	"time"

	"golang.org/x/text/cases"
)

// Question is an immutable prompt/answer pair.
type Question struct {
	prompt    string
	answer    string
	display   string
	createdAt time.Time
}

// NewQuestion builds a Question, folding the answer once so candidates compare cheaply.
func NewQuestion(prompt, answer string, createdAt time.Time) (Question, error) {
	prompt = strings.TrimSpace(prompt)
	display := strings.TrimSpace(answer)
	if prompt == "" || display == "" {
		return Question{}, fmt.Errorf("%w: prompt and answer are required", ErrInvalidQuestion)
	}
	return Question{
		prompt:    prompt,
		answer:    NormalizeAnswer(display),
		display:   display,
		createdAt: createdAt,
	}, nil
}

// Prompt is the text shown to the channel.
func (q Question) Prompt() string { return q.prompt }

// Answer is the canonical, case-folded answer.
func (q Question) Answer() string { return q.answer }

// DisplayAnswer is the answer as the generator produced it.
func (q Question) DisplayAnswer() string { return q.display }

// CreatedAt is informational only.
func (q Question) CreatedAt() time.Time { return q.createdAt }

// Matches reports whether text equals the canonical answer after normalization.
func (q Question) Matches(text string) bool {
	return q.answer != "" && NormalizeAnswer(text) == q.answer
}

// NormalizeAnswer trims and case-folds an answer candidate.
func NormalizeAnswer(text string) string {
	return cases.Fold().String(strings.TrimSpace(text))
}

// ScoreRecord is a user's cumulative score.
type ScoreRecord struct {
	UserID    string    `json:"userId"`
	Score     int       `json:"score"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// AnswerOutcome is the result of submitting an answer to a channel.
type AnswerOutcome int

const (
	// NoActiveRound means no round is accepting answers in the channel.
	NoActiveRound AnswerOutcome = iota
	// Rejected means the answer did not match.
	Rejected
	// Accepted means the answer won the round.
	Accepted
)

func (o AnswerOutcome) String() string {
	switch o {
	case Accepted:
		return "accepted"
	case Rejected:
		return "rejected"
	default:
		return "no_active_round"
	}
}
