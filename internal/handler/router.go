package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/bibliafides/backend/internal/auth"
	"github.com/bibliafides/backend/internal/handler/chat"
	"github.com/bibliafides/backend/internal/handler/scripture"
	"github.com/bibliafides/backend/internal/handler/stream"
	"github.com/bibliafides/backend/internal/handler/ws"
	"github.com/bibliafides/backend/internal/logger"
	middlewarePkg "github.com/bibliafides/backend/internal/middleware"
	aiService "github.com/bibliafides/backend/internal/service/ai"
	chatService "github.com/bibliafides/backend/internal/service/chat"
	scriptureService "github.com/bibliafides/backend/internal/service/scripture"
	"github.com/bibliafides/backend/pkg/utils"
)

// Dependencies are the services the HTTP surface is built on.
type Dependencies struct {
	Chat           *chatService.Service
	AI             *aiService.Service
	Scripture      *scriptureService.Client
	Verifier       *auth.Verifier
	AllowedOrigins []string
	Log            *logger.Logger
}

// NewRouter wires HTTP routes to core services.
func NewRouter(deps Dependencies) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middlewarePkg.AccessLog(deps.Log))
	r.Use(middleware.Recoverer)
	r.Use(middlewarePkg.CORS(deps.AllowedOrigins))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		utils.RespondJSON(w, http.StatusOK, map[string]any{
			"status":    "ok",
			"generator": deps.AI.Ready(),
		})
	})

	chatHandler := chat.New(deps.Chat, deps.Log)
	streamHandler := stream.New(deps.Chat, deps.Log)
	wsHandler := ws.New(deps.Chat, deps.AllowedOrigins, deps.Log)
	scriptureHandler := scripture.New(deps.Scripture)

	r.Route("/api", func(api chi.Router) {
		api.Use(auth.Middleware(deps.Verifier))

		api.Get("/me", func(w http.ResponseWriter, r *http.Request) {
			user, _ := auth.UserFrom(r.Context())
			utils.RespondJSON(w, http.StatusOK, user)
		})

		api.Get("/prompt/initial", func(w http.ResponseWriter, r *http.Request) {
			prompts := deps.AI.Prompts()
			utils.RespondJSON(w, http.StatusOK, map[string]string{
				"appName":       prompts.AppName,
				"initialPrompt": prompts.InitialPrompt,
			})
		})

		chatHandler.RegisterRoutes(api)
		streamHandler.RegisterRoutes(api)
		wsHandler.RegisterRoutes(api)
		scriptureHandler.RegisterRoutes(api)
	})

	return r
}
