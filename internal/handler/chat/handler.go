package chat

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/bibliafides/backend/internal/auth"
	"github.com/bibliafides/backend/internal/logger"
	chatService "github.com/bibliafides/backend/internal/service/chat"
	"github.com/bibliafides/backend/pkg/utils"
)

const maxMessageBytes = 16 << 10

// Handler serves the chat REST endpoints.
type Handler struct {
	chatSvc *chatService.Service
	log     *logger.Logger
}

// New creates a chat handler.
func New(chatSvc *chatService.Service, log *logger.Logger) *Handler {
	return &Handler{
		chatSvc: chatSvc,
		log:     log.With("component", "chat_handler"),
	}
}

// RegisterRoutes mounts the chat routes on r.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/chats", func(r chi.Router) {
		r.Get("/", h.handleListConversations)
		r.Post("/messages", h.handleSendMessage)
		r.Get("/{conversationID}/messages", h.handleTranscript)
	})
}

func (h *Handler) handleSendMessage(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFrom(r.Context())
	if !ok {
		utils.RespondError(w, http.StatusUnauthorized, "unauthenticated")
		return
	}

	var payload struct {
		ConversationID string `json:"conversationId"`
		Text           string `json:"text"`
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxMessageBytes)
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := h.chatSvc.Send(r.Context(), user.ID, payload.ConversationID, payload.Text)
	if err != nil {
		status := StatusFor(err)
		if status == http.StatusInternalServerError {
			h.log.Error("send message failed", "user", user.ID, "error", err)
		}
		utils.RespondError(w, status, err.Error())
		return
	}

	utils.RespondJSON(w, http.StatusCreated, result)
}

func (h *Handler) handleListConversations(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFrom(r.Context())
	if !ok {
		utils.RespondError(w, http.StatusUnauthorized, "unauthenticated")
		return
	}
	utils.RespondJSON(w, http.StatusOK, h.chatSvc.Conversations(r.Context(), user.ID))
}

func (h *Handler) handleTranscript(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFrom(r.Context())
	if !ok {
		utils.RespondError(w, http.StatusUnauthorized, "unauthenticated")
		return
	}

	messages, err := h.chatSvc.Transcript(r.Context(), user.ID, chi.URLParam(r, "conversationID"))
	if err != nil {
		utils.RespondError(w, StatusFor(err), err.Error())
		return
	}
	utils.RespondJSON(w, http.StatusOK, messages)
}

// StatusFor maps chat service errors to HTTP status codes.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, chatService.ErrEmptyMessage):
		return http.StatusBadRequest
	case errors.Is(err, chatService.ErrConversationNotFound):
		return http.StatusNotFound
	case errors.Is(err, chatService.ErrTurnInFlight):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
