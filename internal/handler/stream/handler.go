package stream

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/bibliafides/backend/internal/auth"
	chatHandler "github.com/bibliafides/backend/internal/handler/chat"
	"github.com/bibliafides/backend/internal/logger"
	chatService "github.com/bibliafides/backend/internal/service/chat"
	"github.com/bibliafides/backend/pkg/utils"
)

const defaultKeepAlive = 10 * time.Second

// Event is the data payload of every SSE frame.
type Event struct {
	ConversationID string                  `json:"conversationId,omitempty"`
	Turn           *chatService.TurnResult `json:"turn,omitempty"`
	Finished       bool                    `json:"finished,omitempty"`
	Error          string                  `json:"error,omitempty"`
	Status         int                     `json:"status,omitempty"`
}

// Handler answers one message over Server-Sent Events: start, turn, end. A
// comment frame is written periodically while the model is working.
type Handler struct {
	chatSvc   *chatService.Service
	log       *logger.Logger
	keepAlive time.Duration
}

// New creates a stream handler.
func New(chatSvc *chatService.Service, log *logger.Logger) *Handler {
	return &Handler{
		chatSvc:   chatSvc,
		log:       log.With("component", "stream"),
		keepAlive: defaultKeepAlive,
	}
}

// RegisterRoutes mounts GET /stream.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/stream", h.handleStream)
}

type outcome struct {
	result chatService.TurnResult
	err    error
}

func (h *Handler) handleStream(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFrom(r.Context())
	if !ok {
		utils.RespondError(w, http.StatusUnauthorized, "unauthenticated")
		return
	}

	conversationID := r.URL.Query().Get("conversationId")
	message := r.URL.Query().Get("message")
	if strings.TrimSpace(message) == "" {
		utils.RespondError(w, http.StatusBadRequest, "message query parameter is required")
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		utils.RespondError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	utils.SetupSSEHeaders(w)
	w.WriteHeader(http.StatusOK)
	if err := utils.SendSSEEvent(w, flusher, "start", Event{ConversationID: conversationID}); err != nil {
		h.log.Warn("sse start failed", "error", err)
		return
	}

	done := make(chan outcome, 1)
	go func() {
		result, err := h.chatSvc.Send(r.Context(), user.ID, conversationID, message)
		done <- outcome{result: result, err: err}
	}()

	ticker := time.NewTicker(h.keepAlive)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			h.log.Debug("client left before the reply", "user", user.ID, "conversation", conversationID)
			return
		case <-ticker.C:
			if err := utils.SendSSEComment(w, flusher, "waiting"); err != nil {
				return
			}
		case out := <-done:
			h.finish(w, flusher, conversationID, out)
			return
		}
	}
}

func (h *Handler) finish(w http.ResponseWriter, flusher http.Flusher, conversationID string, out outcome) {
	if out.err != nil {
		status := chatHandler.StatusFor(out.err)
		if status == http.StatusInternalServerError {
			h.log.Error("stream turn failed", "conversation", conversationID, "error", out.err)
		}
		_ = utils.SendSSEEvent(w, flusher, "error", Event{
			ConversationID: conversationID,
			Error:          out.err.Error(),
			Status:         status,
		})
		return
	}

	if err := utils.SendSSEEvent(w, flusher, "turn", Event{ConversationID: out.result.ConversationID, Turn: &out.result}); err != nil {
		h.log.Warn("sse turn failed", "error", err)
		return
	}
	_ = utils.SendSSEEvent(w, flusher, "end", Event{ConversationID: out.result.ConversationID, Finished: true})
}
