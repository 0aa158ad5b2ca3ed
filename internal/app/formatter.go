package app

import (
	"fmt"

	"trivia-bot/internal/domain"
)

// Formatter builds every user-facing message the engine sends.
type Formatter interface {
	RoundStarted(initiator string) string
	Prompt(q domain.Question) string
	Correct(answer, userID string, score int) string
	Timeout(q domain.Question) string
}

// TextFormatter is the default plain-text chat formatter.
type TextFormatter struct{}

func (TextFormatter) RoundStarted(initiator string) string {
	return fmt.Sprintf("%s has started a new trivia round! Get ready!", initiator)
}

func (TextFormatter) Prompt(q domain.Question) string {
	return q.Prompt()
}

func (TextFormatter) Correct(answer, userID string, score int) string {
	return fmt.Sprintf("Correct answer \"%s\" by %s! Your new score is %d.", answer, userID, score)
}

func (TextFormatter) Timeout(q domain.Question) string {
	return fmt.Sprintf("Time is up! The correct answer is \"%s\".", q.DisplayAnswer())
}
