package http

import (
	"net/http"
	"time"

	"lms-quiz-service/internal/app"
	"lms-quiz-service/internal/domain"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// TimerHandler streams the countdown of an open attempt to its owner.
type TimerHandler struct {
	service  *app.AttemptService
	log      *zap.Logger
	interval time.Duration
	upgrader websocket.Upgrader
}

func NewTimerHandler(service *app.AttemptService, log *zap.Logger, interval time.Duration, allowedOrigins []string) *TimerHandler {
	if interval <= 0 {
		interval = time.Second
	}
	return &TimerHandler{
		service:  service,
		log:      log,
		interval: interval,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(allowedOrigins),
		},
	}
}

type outboundMessage struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

type timerPayload struct {
	AttemptID        string               `json:"attemptId"`
	Status           domain.AttemptStatus `json:"status"`
	RemainingSeconds int64                `json:"remainingSeconds"`
	ExpiresAt        time.Time            `json:"expiresAt"`
}

// ServeWS handles GET /ws/attempts/{id}/timer. It sends a "tick" every interval until
// the attempt closes ("closed") or its time runs out ("expired").
func (h *TimerHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	p := principalFrom(r.Context())
	attemptID := chi.URLParam(r, "id")

	attempt, left, err := h.service.Remaining(r.Context(), p, attemptID)
	if err != nil {
		writeError(w, h.log, err)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("ws upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	send := make(chan outboundMessage, 4)
	writerDone := make(chan struct{})
	readerDone := make(chan struct{})

	go func() {
		defer close(writerDone)
		for msg := range send {
			_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
			if err := conn.WriteJSON(msg); err != nil {
				h.log.Debug("ws write error", zap.Error(err))
				return
			}
		}
	}()

	// Clients never send anything meaningful; reading surfaces their disconnect.
	go func() {
		defer close(readerDone)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()

loop:
	for {
		msg := timerMessage(attempt, left)
		select {
		case send <- msg:
		case <-writerDone:
			break loop
		}
		if msg.Type != "tick" {
			break
		}

		select {
		case <-ticker.C:
		case <-readerDone:
			break loop
		case <-r.Context().Done():
			break loop
		}

		attempt, left, err = h.service.Remaining(r.Context(), p, attemptID)
		if err != nil {
			h.log.Warn("timer lookup failed", zap.String("attempt_id", attemptID), zap.Error(err))
			select {
			case send <- outboundMessage{Type: "error", Payload: envelope{"message": "attempt unavailable"}}:
			case <-writerDone:
			}
			break
		}
	}

	close(send)
	<-writerDone
	_ = conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second))
}

func timerMessage(attempt domain.Attempt, left time.Duration) outboundMessage {
	payload := timerPayload{
		AttemptID:        attempt.ID,
		Status:           attempt.Status,
		RemainingSeconds: int64((left + time.Second - 1) / time.Second),
		ExpiresAt:        attempt.ExpiresAt,
	}
	switch {
	case attempt.Status != domain.AttemptInProgress:
		return outboundMessage{Type: "closed", Payload: payload}
	case left <= 0:
		return outboundMessage{Type: "expired", Payload: payload}
	default:
		return outboundMessage{Type: "tick", Payload: payload}
	}
}

func originChecker(allowed []string) func(r *http.Request) bool {
	if len(allowed) == 0 {
		return func(r *http.Request) bool { return true }
	}
	set := make(map[string]bool, len(allowed))
	for _, o := range allowed {
		set[o] = true
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		return origin == "" || set[origin] || set["*"]
	}
}
