package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"

	"trivia-bot/internal/domain"
)

// RouterDeps wires the HTTP surface.
type RouterDeps struct {
	Rounds   RoundService
	WS       *WSHandler
	Settings RoundSettings
	Metrics  http.Handler
	Logger   logrus.FieldLogger
}

type startRoundRequest struct {
	Initiator string `json:"initiator"`
	// Optional overrides, Go duration strings.
	AnnounceDelay string `json:"announceDelay"`
	AnswerWindow  string `json:"answerWindow"`
}

type submitAnswerRequest struct {
	User string `json:"user"`
	Text string `json:"text"`
}

// NewRouter exposes the websocket chat, the REST round endpoints, health and metrics.
func NewRouter(deps RouterDeps) chi.Router {
	logger := deps.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	h := &restHandler{rounds: deps.Rounds, settings: deps.Settings}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger(logger))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})
	if deps.Metrics != nil {
		r.Handle("/metrics", deps.Metrics)
	}
	if deps.WS != nil {
		r.Get("/ws", deps.WS.ServeWS)
	}
	r.Route("/channels/{channel}", func(r chi.Router) {
		r.Post("/rounds", h.startRound)
		r.Post("/answers", h.submitAnswer)
	})
	return r
}

type restHandler struct {
	rounds   RoundService
	settings RoundSettings
}

func (h *restHandler) startRound(w http.ResponseWriter, r *http.Request) {
	channel := chi.URLParam(r, "channel")
	var req startRoundRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Initiator == "" {
		writeError(w, http.StatusBadRequest, "initiator is required")
		return
	}
	delay, err := durationOr(req.AnnounceDelay, h.settings.AnnounceDelay)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid announceDelay")
		return
	}
	window, err := durationOr(req.AnswerWindow, h.settings.AnswerWindow)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid answerWindow")
		return
	}

	round, err := h.rounds.StartRound(r.Context(), channel, req.Initiator, delay, window)
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"roundId":  round.ID(),
		"channel":  round.Channel(),
		"deadline": round.Deadline(),
	})
}

func (h *restHandler) submitAnswer(w http.ResponseWriter, r *http.Request) {
	channel := chi.URLParam(r, "channel")
	var req submitAnswerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.User == "" || req.Text == "" {
		writeError(w, http.StatusBadRequest, "user and text are required")
		return
	}
	outcome := h.rounds.SubmitAnswer(r.Context(), channel, req.Text, req.User)
	writeJSON(w, http.StatusOK, answerResultPayload{Outcome: outcome.String()})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrRoundAlreadyActive):
		return http.StatusConflict
	case errors.Is(err, domain.ErrContentUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, domain.ErrInvalidRoundTiming):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func durationOr(raw string, fallback time.Duration) (time.Duration, error) {
	if raw == "" {
		return fallback, nil
	}
	return time.ParseDuration(raw)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorPayload{Message: msg})
}

func requestLogger(logger logrus.FieldLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			logger.WithFields(logrus.Fields{
				"method":     r.Method,
				"path":       r.URL.Path,
				"status":     ww.Status(),
				"duration":   time.Since(start).String(),
				"request_id": middleware.GetReqID(r.Context()),
			}).Debug("http request")
		})
	}
}
