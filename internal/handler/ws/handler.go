package ws

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/bibliafides/backend/internal/auth"
	chatHandler "github.com/bibliafides/backend/internal/handler/chat"
	"github.com/bibliafides/backend/internal/logger"
	chatService "github.com/bibliafides/backend/internal/service/chat"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = 54 * time.Second
	maxMessageSize = 16 << 10
)

// Handler runs chat turns over a WebSocket. A connection processes one turn at
// a time; messages arriving while a turn is pending are answered with an error.
type Handler struct {
	chatSvc  *chatService.Service
	log      *logger.Logger
	upgrader websocket.Upgrader
}

// New creates a WebSocket handler that accepts upgrades from allowedOrigins
// ("*" allows any origin).
func New(chatSvc *chatService.Service, allowedOrigins []string, log *logger.Logger) *Handler {
	return &Handler{
		chatSvc: chatSvc,
		log:     log.With("component", "websocket"),
		upgrader: websocket.Upgrader{
			CheckOrigin:     originChecker(allowedOrigins),
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
		},
	}
}

// RegisterRoutes mounts GET /ws.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/ws", h.handleWebSocket)
}

type inboundMessage struct {
	Type           string `json:"type"`
	ConversationID string `json:"conversationId"`
	Text           string `json:"text"`
}

type outgoingMessage struct {
	Type           string      `json:"type"`
	ConversationID string      `json:"conversationId,omitempty"`
	Data           interface{} `json:"data,omitempty"`
	Timestamp      int64       `json:"timestamp"`
}

type errorData struct {
	Error  string `json:"error"`
	Status int    `json:"status"`
}

// conn serializes writes; gorilla allows one concurrent writer.
type conn struct {
	ws   *websocket.Conn
	mu   sync.Mutex
	busy atomic.Bool
}

func (c *conn) send(msg outgoingMessage) error {
	msg.Timestamp = time.Now().UnixMilli()
	c.mu.Lock()
	defer c.mu.Unlock()
	_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
	return c.ws.WriteJSON(msg)
}

func (c *conn) ping() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ws.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait))
}

func (h *Handler) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFrom(r.Context())
	if !ok {
		http.Error(w, "unauthenticated", http.StatusUnauthorized)
		return
	}

	ws, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("upgrade failed", "error", err)
		return
	}
	c := &conn{ws: ws}
	defer ws.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	var turns sync.WaitGroup
	defer turns.Wait()

	ws.SetReadLimit(maxMessageSize)
	_ = ws.SetReadDeadline(time.Now().Add(pongWait))
	ws.SetPongHandler(func(string) error {
		return ws.SetReadDeadline(time.Now().Add(pongWait))
	})

	go h.pingLoop(ctx, c)

	h.log.Debug("connection opened", "user", user.ID)
	_ = c.send(outgoingMessage{Type: "connected", Data: map[string]string{"userId": user.ID}})

	for {
		var msg inboundMessage
		if err := ws.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseNoStatusReceived) {
				h.log.Warn("read failed", "user", user.ID, "error", err)
			}
			return
		}
		_ = ws.SetReadDeadline(time.Now().Add(pongWait))

		switch msg.Type {
		case "message":
		case "ping":
			_ = c.send(outgoingMessage{Type: "pong"})
			continue
		default:
			_ = c.send(outgoingMessage{Type: "error", Data: errorData{Error: "unsupported message type: " + msg.Type, Status: http.StatusBadRequest}})
			continue
		}

		if !c.busy.CompareAndSwap(false, true) {
			_ = c.send(outgoingMessage{
				Type:           "error",
				ConversationID: msg.ConversationID,
				Data:           errorData{Error: chatService.ErrTurnInFlight.Error(), Status: http.StatusConflict},
			})
			continue
		}

		turns.Add(1)
		go func(msg inboundMessage) {
			defer turns.Done()
			defer c.busy.Store(false)
			h.runTurn(ctx, c, user, msg)
		}(msg)
	}
}

func (h *Handler) runTurn(ctx context.Context, c *conn, user auth.User, msg inboundMessage) {
	_ = c.send(outgoingMessage{Type: "pending", ConversationID: msg.ConversationID})

	result, err := h.chatSvc.Send(ctx, user.ID, msg.ConversationID, msg.Text)
	if err != nil {
		status := chatHandler.StatusFor(err)
		if status == http.StatusInternalServerError {
			h.log.Error("websocket turn failed", "user", user.ID, "error", err)
		}
		_ = c.send(outgoingMessage{
			Type:           "error",
			ConversationID: msg.ConversationID,
			Data:           errorData{Error: err.Error(), Status: status},
		})
		return
	}

	if err := c.send(outgoingMessage{Type: "turn", ConversationID: result.ConversationID, Data: result}); err != nil {
		h.log.Debug("turn not delivered, client gone", "user", user.ID, "conversation", result.ConversationID)
	}
}

func (h *Handler) pingLoop(ctx context.Context, c *conn) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := c.ping(); err != nil {
				return
			}
		}
	}
}

func originChecker(allowed []string) func(r *http.Request) bool {
	set := make(map[string]struct{}, len(allowed))
	for _, origin := range allowed {
		origin = strings.ToLower(strings.TrimRight(strings.TrimSpace(origin), "/"))
		if origin == "*" {
			return func(*http.Request) bool { return true }
		}
		set[origin] = struct{}{}
	}

	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		if u, err := url.Parse(origin); err == nil && strings.EqualFold(u.Host, r.Host) {
			return true
		}
		_, ok := set[strings.ToLower(origin)]
		return ok
	}
}
