package ai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"google.golang.org/genai"

	"github.com/bibliafides/backend/internal/config"
)

var errEmptyCandidate = errors.New("gemini returned no candidate text")

// GeminiGenerator calls the Gemini API with the answer schema attached.
type GeminiGenerator struct {
	cli         *genai.Client
	model       string
	temperature *float32
	maxTokens   int32
}

// NewGeminiGenerator creates the genai client. The configured AI timeout is
// applied to the HTTP transport.
func NewGeminiGenerator(ctx context.Context, cfg config.AIConfig) (*GeminiGenerator, error) {
	if cfg.GeminiAPIKey == "" {
		return nil, ErrMissingCredential
	}

	cli, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:     cfg.GeminiAPIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: &http.Client{Timeout: cfg.Timeout},
	})
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}

	g := &GeminiGenerator{cli: cli, model: cfg.GeminiModel}
	if cfg.Temperature != nil {
		val := float32(*cfg.Temperature)
		g.temperature = &val
	}
	if cfg.MaxTokens != nil {
		g.maxTokens = int32(*cfg.MaxTokens)
	}
	return g, nil
}

func (g *GeminiGenerator) Name() string { return "gemini:" + g.model }

// Generate issues a single GenerateContent call; there is no retry.
func (g *GeminiGenerator) Generate(ctx context.Context, prompt Prompt) (string, error) {
	resp, err := g.cli.Models.GenerateContent(ctx, g.model,
		[]*genai.Content{{Role: "user", Parts: []*genai.Part{{Text: prompt.User}}}},
		&genai.GenerateContentConfig{
			SystemInstruction: &genai.Content{Parts: []*genai.Part{{Text: prompt.System}}},
			ResponseMIMEType:  "application/json",
			ResponseSchema:    ResponseSchema(),
			Temperature:       g.temperature,
			MaxOutputTokens:   g.maxTokens,
		},
	)
	if err != nil {
		return "", err
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", errEmptyCandidate
	}

	var text strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if part == nil || part.Thought {
			continue
		}
		text.WriteString(part.Text)
	}
	if strings.TrimSpace(text.String()) == "" {
		return "", errEmptyCandidate
	}
	return text.String(), nil
}
