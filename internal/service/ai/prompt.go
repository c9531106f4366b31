package ai

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed prompts/fides.yaml
var defaultPromptYAML []byte

// PromptConfig holds the static instruction text sent with every question.
type PromptConfig struct {
	AppName           string `yaml:"app_name" json:"appName"`
	InitialPrompt     string `yaml:"initial_prompt" json:"initialPrompt"`
	SystemInstruction string `yaml:"system_instruction" json:"-"`
}

// Prompt is the request payload for one generation call.
type Prompt struct {
	System string
	User   string
}

// DefaultPromptConfig returns the embedded configuration.
func DefaultPromptConfig() PromptConfig {
	cfg, err := parsePromptConfig(defaultPromptYAML)
	if err != nil {
		panic(fmt.Sprintf("embedded prompt config is invalid: %v", err))
	}
	return cfg
}

// LoadPromptConfig reads a YAML prompt file. An empty path returns the embedded
// default. Fields missing from the file keep their default value.
func LoadPromptConfig(path string) (PromptConfig, error) {
	cfg := DefaultPromptConfig()
	if strings.TrimSpace(path) == "" {
		return cfg, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return PromptConfig{}, fmt.Errorf("read prompt file: %w", err)
	}

	override, err := parsePromptConfig(raw)
	if err != nil {
		return PromptConfig{}, fmt.Errorf("parse prompt file %s: %w", path, err)
	}
	if override.AppName != "" {
		cfg.AppName = override.AppName
	}
	if override.InitialPrompt != "" {
		cfg.InitialPrompt = override.InitialPrompt
	}
	if override.SystemInstruction != "" {
		cfg.SystemInstruction = override.SystemInstruction
	}
	return cfg, nil
}

func parsePromptConfig(raw []byte) (PromptConfig, error) {
	var cfg PromptConfig
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return PromptConfig{}, err
	}
	cfg.SystemInstruction = strings.TrimSpace(cfg.SystemInstruction)
	cfg.InitialPrompt = strings.TrimSpace(cfg.InitialPrompt)
	return cfg, nil
}

// Compose pairs the system instruction with the user's question.
func (c PromptConfig) Compose(userText string) Prompt {
	return Prompt{
		System: c.SystemInstruction,
		User:   userText,
	}
}
