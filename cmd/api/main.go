package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/bibliafides/backend/internal/auth"
	"github.com/bibliafides/backend/internal/config"
	"github.com/bibliafides/backend/internal/handler"
	"github.com/bibliafides/backend/internal/lock"
	"github.com/bibliafides/backend/internal/logger"
	"github.com/bibliafides/backend/internal/model/chat"
	"github.com/bibliafides/backend/internal/model/scripture"
	"github.com/bibliafides/backend/internal/service/ai"
	chatService "github.com/bibliafides/backend/internal/service/chat"
	"github.com/bibliafides/backend/internal/service/history"
	scriptureService "github.com/bibliafides/backend/internal/service/scripture"
	"github.com/bibliafides/backend/internal/store/memory"
	"github.com/bibliafides/backend/internal/store/postgres"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	envErr := godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.Log.Mode)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	if envErr != nil {
		log.Debug("no .env file loaded, using process environment", "error", envErr)
	}

	if err := run(ctx, cfg, log); err != nil {
		log.Fatal("server error", "error", err)
	}
}

func run(ctx context.Context, cfg *config.Config, log *logger.Logger) error {
	prompts, err := ai.LoadPromptConfig(cfg.AI.PromptFile)
	if err != nil {
		return fmt.Errorf("load prompt config: %w", err)
	}

	generator, err := ai.NewGenerator(ctx, cfg.AI)
	if err != nil {
		if !errors.Is(err, ai.ErrMissingCredential) {
			return fmt.Errorf("build generator: %w", err)
		}
		log.Warn("generation credential missing, every answer will be the error answer", "provider", cfg.AI.Provider)
	} else {
		log.Info("generator ready", "generator", generator.Name())
	}
	aiSvc := ai.NewService(generator, prompts, log)

	store, closeStore, err := openStore(ctx, cfg.History, log)
	if err != nil {
		return err
	}
	defer closeStore()

	gate, closeGate, err := openGate(ctx, cfg.Gate, log)
	if err != nil {
		return err
	}
	defer closeGate()

	hist := history.NewService(store, log, history.WithTitleLength(cfg.History.TitleLength))
	chatSvc := chatService.NewService(aiSvc, hist, gate, log)

	bible, err := scriptureService.NewClient(cfg.Scripture, scripture.NewMemoryCatalog(scripture.Seed()), log)
	if err != nil {
		return fmt.Errorf("build scripture client: %w", err)
	}

	router := handler.NewRouter(handler.Dependencies{
		Chat:           chatSvc,
		AI:             aiSvc,
		Scripture:      bible,
		Verifier:       auth.NewVerifier(cfg.Auth),
		AllowedOrigins: cfg.Server.AllowedOrigins,
		Log:            log,
	})

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	log.Info("Biblia Fides backend listening", "addr", cfg.Server.Addr)
	return runServer(ctx, srv)
}

func openStore(ctx context.Context, cfg config.HistoryConfig, log *logger.Logger) (chat.Store, func(), error) {
	if cfg.DatabaseURL == "" {
		log.Warn("DATABASE_URL not set, history is kept in memory")
		return memory.New(), func() {}, nil
	}

	if err := postgres.Migrate(cfg.DatabaseURL); err != nil {
		return nil, nil, err
	}
	pool, err := postgres.Connect(ctx, cfg.DatabaseURL, cfg.MaxConnections)
	if err != nil {
		return nil, nil, err
	}
	log.Info("history store ready", "backend", "postgres")
	return postgres.New(pool), pool.Close, nil
}

func openGate(ctx context.Context, cfg config.GateConfig, log *logger.Logger) (lock.Gate, func(), error) {
	if cfg.RedisAddr == "" {
		return lock.NewMemoryGate(), func() {}, nil
	}

	gate, err := lock.NewRedisGate(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.LockTTL, log)
	if err != nil {
		return nil, nil, fmt.Errorf("connect turn gate: %w", err)
	}
	log.Info("turn gate ready", "backend", "redis", "addr", cfg.RedisAddr)
	return gate, func() { _ = gate.Close() }, nil
}

func runServer(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		err := <-errCh
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
