package domain

import "errors"

var (
	// ErrContentUnavailable is returned when no question could be generated from the catalog.
	ErrContentUnavailable = errors.New("trivia content unavailable")
	// ErrRoundAlreadyActive is returned when a channel already has a live round.
	ErrRoundAlreadyActive = errors.New("a trivia round is already active in this channel")
	// ErrInvalidRoundTiming indicates the answer window does not leave room after the announce delay.
	ErrInvalidRoundTiming = errors.New("answer window must be longer than the announce delay")
	// ErrStore wraps score store failures.
	ErrStore = errors.New("score store failure")
	// ErrDeliveryFailed wraps announcement failures.
	ErrDeliveryFailed = errors.New("message delivery failed")
	// ErrFieldMissing indicates a topic lacks the field a generator asks about.
	ErrFieldMissing = errors.New("topic field missing")
	// ErrInvalidQuestion indicates an empty prompt or answer.
	ErrInvalidQuestion = errors.New("invalid question")
	// ErrTopicNotFound indicates the catalog has no topics of the requested kind.
	ErrTopicNotFound = errors.New("topic not found")
)
