package scripture

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	scriptureService "github.com/bibliafides/backend/internal/service/scripture"
	"github.com/bibliafides/backend/pkg/utils"
)

// Handler serves the chapter reader endpoints.
type Handler struct {
	client *scriptureService.Client
}

// New creates a scripture handler.
func New(client *scriptureService.Client) *Handler {
	return &Handler{client: client}
}

// RegisterRoutes mounts the /bible routes on r.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/bible", func(r chi.Router) {
		r.Get("/books", h.handleListBooks)
		r.Get("/{version}/{book}/{chapter}", h.handleChapter)
		r.Get("/{version}/{book}/{chapter}/{verse}", h.handleVerse)
	})
}

func (h *Handler) handleListBooks(w http.ResponseWriter, r *http.Request) {
	utils.RespondJSON(w, http.StatusOK, h.client.Books())
}

func (h *Handler) handleChapter(w http.ResponseWriter, r *http.Request) {
	chapter, ok := intParam(w, r, "chapter")
	if !ok {
		return
	}

	result, err := h.client.Chapter(r.Context(), chi.URLParam(r, "version"), chi.URLParam(r, "book"), chapter)
	if err != nil {
		respondLookupError(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, result)
}

func (h *Handler) handleVerse(w http.ResponseWriter, r *http.Request) {
	chapter, ok := intParam(w, r, "chapter")
	if !ok {
		return
	}
	verse, ok := intParam(w, r, "verse")
	if !ok {
		return
	}

	result, err := h.client.Verse(r.Context(), chi.URLParam(r, "version"), chi.URLParam(r, "book"), chapter, verse)
	if err != nil {
		respondLookupError(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, result)
}

func intParam(w http.ResponseWriter, r *http.Request, name string) (int, bool) {
	value, err := strconv.Atoi(chi.URLParam(r, name))
	if err != nil {
		utils.RespondError(w, http.StatusBadRequest, name+" must be a number")
		return 0, false
	}
	return value, true
}

func respondLookupError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, scriptureService.ErrUnknownBook), errors.Is(err, scriptureService.ErrOutOfRange):
		utils.RespondError(w, http.StatusNotFound, err.Error())
	default:
		utils.RespondError(w, http.StatusBadGateway, scriptureService.RetryPrompt)
	}
}
