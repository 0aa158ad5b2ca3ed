package http

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"trivia-bot/internal/app"
	"trivia-bot/internal/domain"
)

// RoundService is the part of the round engine the transport drives.
type RoundService interface {
	StartRound(ctx context.Context, channel, initiator string, announceDelay, answerWindow time.Duration) (*app.Round, error)
	SubmitAnswer(ctx context.Context, channel, text, userID string) domain.AnswerOutcome
}

// RoundSettings are the chat-facing round parameters.
type RoundSettings struct {
	Command       string
	AnnounceDelay time.Duration
	AnswerWindow  time.Duration
}

type WSHandler struct {
	rounds   RoundService
	hub      *Hub
	settings RoundSettings
	logger   logrus.FieldLogger
	upgrader websocket.Upgrader
}

func NewWSHandler(rounds RoundService, hub *Hub, settings RoundSettings, logger logrus.FieldLogger) *WSHandler {
	if settings.Command == "" {
		settings.Command = "!trivia"
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &WSHandler{
		rounds:   rounds,
		hub:      hub,
		settings: settings,
		logger:   logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

type inboundMessage struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type roundStartedPayload struct {
	RoundID  string    `json:"roundId"`
	Deadline time.Time `json:"deadline"`
}

type answerResultPayload struct {
	Outcome string `json:"outcome"`
}

type outboundMessage struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

type errorPayload struct {
	Message string `json:"message"`
}

// ServeWS upgrades the request and joins the connection to a chat channel. Text starting
// with the round command starts a round; any other text is echoed and treated as an answer.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	channel := r.URL.Query().Get("channel")
	user := r.URL.Query().Get("user")
	if channel == "" || user == "" {
		http.Error(w, "missing channel or user", http.StatusBadRequest)
		return
	}
	log := h.logger.WithFields(logrus.Fields{"channel": channel, "user": user})

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.WithError(err).Warn("ws upgrade failed")
		return
	}
	defer conn.Close()

	updates, cancel := h.hub.Subscribe(channel)
	defer cancel()

	send := make(chan outboundMessage, 16)
	closeSignals := make(chan struct{})
	writerDone := make(chan struct{})
	updatesDone := make(chan struct{})

	// Single writer: gorilla connections do not support concurrent writes.
	go func() {
		defer close(writerDone)
		for msg := range send {
			if err := conn.WriteJSON(msg); err != nil {
				log.WithError(err).Debug("ws write failed")
				return
			}
		}
	}()

	go func() {
		defer close(updatesDone)
		for {
			select {
			case update, ok := <-updates:
				if !ok {
					return
				}
				select {
				case send <- outboundMessage{Type: update.Type, Payload: update}:
				case <-closeSignals:
					return
				}
			case <-closeSignals:
				return
			}
		}
	}()

	send <- outboundMessage{Type: TypeJoined, Payload: map[string]string{"channel": channel, "user": user}}

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		if inbound.Type != TypeChat {
			send <- outboundMessage{Type: TypeError, Payload: errorPayload{Message: "unsupported message type"}}
			continue
		}
		text := strings.TrimSpace(inbound.Text)
		if text == "" {
			continue
		}
		if reply, ok := h.handleChat(r.Context(), channel, user, text); ok {
			send <- reply
		}
	}

	close(closeSignals)
	<-updatesDone
	close(send)
	<-writerDone
}

func (h *WSHandler) handleChat(ctx context.Context, channel, user, text string) (outboundMessage, bool) {
	if isCommand(text, h.settings.Command) {
		round, err := h.rounds.StartRound(ctx, channel, user, h.settings.AnnounceDelay, h.settings.AnswerWindow)
		if err != nil {
			return outboundMessage{Type: TypeError, Payload: errorPayload{Message: startErrorMessage(err)}}, true
		}
		return outboundMessage{Type: TypeRoundStarted, Payload: roundStartedPayload{
			RoundID:  round.ID(),
			Deadline: round.Deadline(),
		}}, true
	}

	h.hub.Publish(Message{Type: TypeChat, Channel: channel, User: user, Text: text})
	outcome := h.rounds.SubmitAnswer(ctx, channel, text, user)
	if outcome == domain.NoActiveRound {
		// Ordinary chatter between rounds needs no reply.
		return outboundMessage{}, false
	}
	return outboundMessage{Type: TypeAnswerResult, Payload: answerResultPayload{Outcome: outcome.String()}}, true
}

func isCommand(text, command string) bool {
	fields := strings.Fields(text)
	return len(fields) > 0 && strings.EqualFold(fields[0], command)
}

func startErrorMessage(err error) string {
	switch {
	case errors.Is(err, domain.ErrRoundAlreadyActive):
		return "a trivia round is already running in this channel"
	case errors.Is(err, domain.ErrContentUnavailable):
		return "could not find a question, try again later"
	default:
		return "could not start a trivia round"
	}
}
