package ai

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino-ext/components/model/ark"
	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	"github.com/bibliafides/backend/internal/config"
)

// ArkGenerator runs the prompt through an eino chain backed by a Volcengine Ark
// chat model. Ark has no response schema, so the JSON contract is carried by the
// system instruction alone and enforced by ParseResponse.
type ArkGenerator struct {
	model string
	chain compose.Runnable[map[string]any, *schema.Message]
}

// NewArkGenerator creates the Ark chat model and compiles the prompt chain.
func NewArkGenerator(ctx context.Context, cfg config.AIConfig) (*ArkGenerator, error) {
	if !cfg.HasCredential() {
		return nil, ErrMissingCredential
	}

	chatModel, err := ark.NewChatModel(ctx, arkModelConfig(cfg))
	if err != nil {
		return nil, fmt.Errorf("failed to create ark chat model: %w", err)
	}

	promptTemplate := prompt.FromMessages(
		schema.FString,
		schema.SystemMessage("{system}"),
		schema.UserMessage("{query}"),
	)

	chain := compose.NewChain[map[string]any, *schema.Message]()
	chain.AppendChatTemplate(promptTemplate)
	chain.AppendChatModel(chatModel)

	runnable, err := chain.Compile(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to compile ark chain: %w", err)
	}

	return &ArkGenerator{model: cfg.ArkModel, chain: runnable}, nil
}

// arkModelConfig maps AI settings onto the Ark client. The request timeout keeps
// a turn inside the turn gate's lease.
func arkModelConfig(cfg config.AIConfig) *ark.ChatModelConfig {
	var temperature *float32
	if cfg.Temperature != nil {
		val := float32(*cfg.Temperature)
		temperature = &val
	}

	var maxTokens *int
	if cfg.MaxTokens != nil {
		val := *cfg.MaxTokens
		maxTokens = &val
	}

	modelCfg := &ark.ChatModelConfig{
		BaseURL:     cfg.ArkBaseURL,
		Region:      cfg.ArkRegion,
		APIKey:      cfg.ArkAPIKey,
		AccessKey:   cfg.ArkAccessKey,
		SecretKey:   cfg.ArkSecretKey,
		Model:       cfg.ArkModel,
		MaxTokens:   maxTokens,
		Temperature: temperature,
	}
	if cfg.Timeout > 0 {
		timeout := cfg.Timeout
		modelCfg.Timeout = &timeout
	}
	return modelCfg
}

func (g *ArkGenerator) Name() string { return "ark:" + g.model }

func (g *ArkGenerator) Generate(ctx context.Context, p Prompt) (string, error) {
	msg, err := g.chain.Invoke(ctx, map[string]any{
		"system": p.System,
		"query":  p.User,
	})
	if err != nil {
		return "", fmt.Errorf("failed to run ark chain: %w", err)
	}
	if msg == nil {
		return "", fmt.Errorf("ark returned no message")
	}
	return msg.Content, nil
}
