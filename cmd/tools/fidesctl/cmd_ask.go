package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/bibliafides/backend/internal/config"
	"github.com/bibliafides/backend/internal/service/ai"
)

// askCmd runs one generation round trip and prints the validated answer.
var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Ask the model one question and print the structured answer",
	Long: `Composes the prompt, calls the configured generator once and validates the
reply. The answer is printed as JSON; a malformed reply exits with an error.

Example:
  fidesctl ask "Como lidar com ansiedade?"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAsk,
}

func runAsk(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadAIConfig()
	if err != nil {
		return err
	}
	prompts, err := ai.LoadPromptConfig(cfg.PromptFile)
	if err != nil {
		return err
	}

	generator, err := ai.NewGenerator(cmd.Context(), cfg)
	if err != nil {
		return err
	}

	answer, err := ai.NewService(generator, prompts, log).Answer(cmd.Context(), strings.Join(args, " "))
	if err != nil {
		return fmt.Errorf("ask failed: %w", err)
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(answer)
}
