package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/davidleathers/compliance-risk-backend/internal/domain/errors"
)

// InAppConfig configures the WebSocket hub
type InAppConfig struct {
	WriteTimeout   time.Duration
	PingInterval   time.Duration
	PongTimeout    time.Duration
	SendBufferSize int
}

// DefaultInAppConfig returns default hub configuration
func DefaultInAppConfig() InAppConfig {
	return InAppConfig{
		WriteTimeout:   10 * time.Second,
		PingInterval:   30 * time.Second,
		PongTimeout:    60 * time.Second,
		SendBufferSize: 256,
	}
}

// InAppMessage is the frame delivered to connected clients
type InAppMessage struct {
	Type      string    `json:"type"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	Timestamp time.Time `json:"timestamp"`
}

// InAppHub holds live WebSocket sessions keyed by user and pushes alerts to
// them. A user with no open session simply misses the in-app copy; the
// dispatcher records that as a failed channel attempt.
type InAppHub struct {
	config   InAppConfig
	logger   *zap.Logger
	upgrader websocket.Upgrader

	mu       sync.RWMutex
	sessions map[string][]*session
}

type session struct {
	conn *websocket.Conn
	send chan []byte
	mu   sync.Mutex
}

// NewInAppHub creates a WebSocket hub
func NewInAppHub(config InAppConfig, logger *zap.Logger) *InAppHub {
	return &InAppHub{
		config: config,
		logger: logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		sessions: make(map[string][]*session),
	}
}

// ServeHTTP upgrades a client connection. The user is identified by the
// user_id query parameter; session auth happens upstream at the ingress.
func (h *InAppHub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		http.Error(w, "user_id is required", http.StatusBadRequest)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	s := &session{
		conn: conn,
		send: make(chan []byte, h.config.SendBufferSize),
	}

	h.mu.Lock()
	h.sessions[userID] = append(h.sessions[userID], s)
	h.mu.Unlock()

	h.logger.Info("in-app session opened", zap.String("user_id", userID))

	go h.writePump(userID, s)
	go h.readPump(userID, s)
}

// SendInApp pushes one alert to every open session of the user.
func (h *InAppHub) SendInApp(ctx context.Context, userID, title, body string) error {
	msg := InAppMessage{
		Type:      "risk_alert",
		Title:     title,
		Body:      body,
		Timestamp: time.Now().UTC(),
	}

	data, err := json.Marshal(msg)
	if err != nil {
		return errors.NewInternalError("failed to marshal in-app message").WithCause(err)
	}

	h.mu.RLock()
	sessions := h.sessions[userID]
	h.mu.RUnlock()

	if len(sessions) == 0 {
		return errors.NewDeliveryError("in_app", "no open session for user")
	}

	delivered := 0
	for _, s := range sessions {
		select {
		case s.send <- data:
			delivered++
		default:
			// Send buffer full means a stalled client; drop rather than
			// block the dispatch run.
		}
	}

	if delivered == 0 {
		return errors.NewDeliveryError("in_app", "all sessions stalled")
	}

	return nil
}

// SessionCount returns the number of open sessions for a user.
func (h *InAppHub) SessionCount(userID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sessions[userID])
}

// Close terminates every open session.
func (h *InAppHub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, sessions := range h.sessions {
		for _, s := range sessions {
			close(s.send)
		}
	}
	h.sessions = make(map[string][]*session)
}

func (h *InAppHub) writePump(userID string, s *session) {
	ticker := time.NewTicker(h.config.PingInterval)
	defer func() {
		ticker.Stop()
		s.conn.Close()
	}()

	for {
		select {
		case data, ok := <-s.send:
			s.conn.SetWriteDeadline(time.Now().Add(h.config.WriteTimeout))
			if !ok {
				s.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := s.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				h.logger.Debug("in-app write failed",
					zap.String("user_id", userID),
					zap.Error(err))
				return
			}
		case <-ticker.C:
			s.conn.SetWriteDeadline(time.Now().Add(h.config.WriteTimeout))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (h *InAppHub) readPump(userID string, s *session) {
	defer h.removeSession(userID, s)

	s.conn.SetReadLimit(1024)
	s.conn.SetReadDeadline(time.Now().Add(h.config.PongTimeout))
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(h.config.PongTimeout))
	})

	for {
		if _, _, err := s.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *InAppHub) removeSession(userID string, s *session) {
	h.mu.Lock()
	defer h.mu.Unlock()

	sessions := h.sessions[userID]
	for i, existing := range sessions {
		if existing == s {
			h.sessions[userID] = append(sessions[:i], sessions[i+1:]...)
			break
		}
	}
	if len(h.sessions[userID]) == 0 {
		delete(h.sessions, userID)
	}

	s.conn.Close()
	h.logger.Info("in-app session closed", zap.String("user_id", userID))
}
