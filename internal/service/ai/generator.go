package ai

import (
	"context"
	"errors"
	"fmt"

	"github.com/bibliafides/backend/internal/config"
)

var (
	// ErrMissingCredential means the generation client cannot run at all.
	ErrMissingCredential = errors.New("generation api credential is missing")
	// ErrGenerationFailure wraps network or API errors from the language model.
	ErrGenerationFailure = errors.New("generation request failed")
	// ErrMalformedResponse means the model reply failed schema validation.
	ErrMalformedResponse = errors.New("malformed generation response")
)

// Generator sends one composed prompt to a language model and returns its raw reply.
type Generator interface {
	Name() string
	Generate(ctx context.Context, prompt Prompt) (string, error)
}

// NewGenerator builds the generator selected by cfg.Provider. It fails with
// ErrMissingCredential before any network activity when keys are absent.
func NewGenerator(ctx context.Context, cfg config.AIConfig) (Generator, error) {
	if !cfg.HasCredential() {
		return nil, fmt.Errorf("%w: provider %s", ErrMissingCredential, cfg.Provider)
	}

	switch cfg.Provider {
	case config.ProviderArk:
		gen, err := NewArkGenerator(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return gen, nil
	default:
		gen, err := NewGeminiGenerator(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return gen, nil
	}
}
