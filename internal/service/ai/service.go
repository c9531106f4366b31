package ai

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bibliafides/backend/internal/logger"
	"github.com/bibliafides/backend/internal/model/chat"
)

// Service runs the structured answer pipeline: compose, generate, parse.
type Service struct {
	generator Generator
	prompts   PromptConfig
	log       *logger.Logger
}

// NewService wires a generator with the prompt configuration. generator may be
// nil when no credential is configured; Answer then fails with ErrMissingCredential.
func NewService(generator Generator, prompts PromptConfig, log *logger.Logger) *Service {
	return &Service{
		generator: generator,
		prompts:   prompts,
		log:       log.With("component", "ai"),
	}
}

// Prompts returns the prompt configuration in use.
func (s *Service) Prompts() PromptConfig {
	return s.prompts
}

// Ready reports whether a generator is configured.
func (s *Service) Ready() bool {
	return s != nil && s.generator != nil
}

// Answer sends the question to the model and returns a validated answer.
// Exactly one generation request is issued; failures are not retried.
func (s *Service) Answer(ctx context.Context, userText string) (chat.BibleResponse, error) {
	if !s.Ready() {
		return chat.BibleResponse{}, ErrMissingCredential
	}

	started := time.Now()
	raw, err := s.generator.Generate(ctx, s.prompts.Compose(userText))
	if err != nil {
		if errors.Is(err, ErrMissingCredential) {
			return chat.BibleResponse{}, err
		}
		return chat.BibleResponse{}, fmt.Errorf("%w: %w", ErrGenerationFailure, err)
	}

	answer, err := ParseResponse(raw)
	if err != nil {
		s.log.Warn("model reply rejected", "generator", s.generator.Name(), "bytes", len(raw), "error", err)
		return chat.BibleResponse{}, err
	}

	s.log.Info("answer generated",
		"generator", s.generator.Name(),
		"reference", answer.Reference,
		"sentiment", answer.Sentiment,
		"elapsed", time.Since(started),
	)
	return answer, nil
}

// ErrorAnswer returns the fixed, clearly labeled answer shown in place of a
// failed generation. The text depends only on the error kind.
func ErrorAnswer(err error) chat.BibleResponse {
	detail := "não foi possível obter uma resposta do modelo."
	switch {
	case errors.Is(err, ErrMissingCredential):
		detail = "a chave de API do modelo não está configurada."
	case errors.Is(err, ErrMalformedResponse):
		detail = "a resposta do modelo veio incompleta ou fora do formato."
	}

	return chat.BibleResponse{
		Greeting:    "Erro",
		VerseText:   "Erro técnico: " + detail,
		Reference:   "Depuração",
		Explanation: "Verifique os logs do servidor ou a chave de API.",
		Sentiment:   "Erro",
	}
}
