package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config aggregates every configuration section of the service.
type Config struct {
	Server    ServerConfig
	Log       LogConfig
	AI        AIConfig
	History   HistoryConfig
	Gate      GateConfig
	Auth      AuthConfig
	Scripture ScriptureConfig
}

// Load reads the configuration from environment variables.
func Load() (*Config, error) {
	server, err := loadServerConfig()
	if err != nil {
		return nil, err
	}

	ai, err := LoadAIConfig()
	if err != nil {
		return nil, err
	}

	history, err := LoadHistoryConfig()
	if err != nil {
		return nil, err
	}

	gate, err := loadGateConfig()
	if err != nil {
		return nil, err
	}

	auth, err := LoadAuthConfig()
	if err != nil {
		return nil, err
	}

	scripture, err := LoadScriptureConfig()
	if err != nil {
		return nil, err
	}

	return &Config{
		Server:    server,
		Log:       LogConfig{Mode: getEnvOrDefault("LOG_MODE", "dev")},
		AI:        ai,
		History:   history,
		Gate:      gate,
		Auth:      auth,
		Scripture: scripture,
	}, nil
}

// ServerConfig describes the HTTP listener.
type ServerConfig struct {
	Addr           string
	AllowedOrigins []string
}

// LogConfig selects the logger encoding.
type LogConfig struct {
	Mode string
}

func loadServerConfig() (ServerConfig, error) {
	port := strings.TrimSpace(os.Getenv("PORT"))
	if port == "" {
		port = "8080"
	}

	origins := splitList(os.Getenv("CORS_ALLOWED_ORIGINS"))
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	if strings.Contains(port, ":") {
		// ":8080" or "127.0.0.1:8080" are accepted as-is.
		return ServerConfig{Addr: port, AllowedOrigins: origins}, nil
	}

	if strings.Contains(port, " ") {
		return ServerConfig{}, fmt.Errorf("invalid PORT value: %q", port)
	}

	return ServerConfig{Addr: ":" + port, AllowedOrigins: origins}, nil
}

// Provider names the generative backend.
type Provider string

const (
	ProviderGemini Provider = "gemini"
	ProviderArk    Provider = "ark"
)

// AIConfig describes the generation backend.
type AIConfig struct {
	Provider     Provider
	GeminiAPIKey string
	GeminiModel  string
	ArkAPIKey    string
	ArkAccessKey string
	ArkSecretKey string
	ArkModel     string
	ArkBaseURL   string
	ArkRegion    string
	Temperature  *float64
	MaxTokens    *int
	Timeout      time.Duration
	PromptFile   string
}

// HasCredential reports whether the selected provider has the keys it needs.
func (c AIConfig) HasCredential() bool {
	switch c.Provider {
	case ProviderArk:
		return c.ArkModel != "" && (c.ArkAPIKey != "" || (c.ArkAccessKey != "" && c.ArkSecretKey != ""))
	default:
		return c.GeminiAPIKey != ""
	}
}

// LoadAIConfig reads the AI section on its own.
func LoadAIConfig() (AIConfig, error) {
	provider := Provider(strings.ToLower(getEnvOrDefault("AI_PROVIDER", string(ProviderGemini))))
	if provider != ProviderGemini && provider != ProviderArk {
		return AIConfig{}, fmt.Errorf("invalid AI_PROVIDER value %q", provider)
	}

	temperature, err := parseOptionalFloatEnv("AI_TEMPERATURE")
	if err != nil {
		return AIConfig{}, err
	}

	maxTokens, err := parseOptionalIntEnv("AI_MAX_TOKENS")
	if err != nil {
		return AIConfig{}, err
	}

	timeout, err := parseSecondsEnv("AI_TIMEOUT_SECONDS", 60)
	if err != nil {
		return AIConfig{}, err
	}

	geminiKey := strings.TrimSpace(os.Getenv("GEMINI_API_KEY"))
	if geminiKey == "" {
		geminiKey = strings.TrimSpace(os.Getenv("GOOGLE_API_KEY"))
	}

	return AIConfig{
		Provider:     provider,
		GeminiAPIKey: geminiKey,
		GeminiModel:  getEnvOrDefault("GEMINI_MODEL", "gemini-2.5-flash"),
		ArkAPIKey:    strings.TrimSpace(os.Getenv("ARK_API_KEY")),
		ArkAccessKey: strings.TrimSpace(os.Getenv("ARK_ACCESS_KEY")),
		ArkSecretKey: strings.TrimSpace(os.Getenv("ARK_SECRET_KEY")),
		ArkModel:     strings.TrimSpace(os.Getenv("ARK_MODEL")),
		ArkBaseURL:   getEnvOrDefault("ARK_BASE_URL", "https://ark.cn-beijing.volces.com/api/v3"),
		ArkRegion:    getEnvOrDefault("ARK_REGION", "cn-beijing"),
		Temperature:  temperature,
		MaxTokens:    maxTokens,
		Timeout:      timeout,
		PromptFile:   strings.TrimSpace(os.Getenv("PROMPT_FILE")),
	}, nil
}

// HistoryConfig describes conversation persistence.
type HistoryConfig struct {
	DatabaseURL    string
	MaxConnections int32
	TitleLength    int
}

// LoadHistoryConfig reads the history section on its own.
func LoadHistoryConfig() (HistoryConfig, error) {
	titleLength := 30
	if override, err := parseOptionalIntEnv("HISTORY_TITLE_LENGTH"); err != nil {
		return HistoryConfig{}, err
	} else if override != nil {
		if *override < 1 {
			return HistoryConfig{}, fmt.Errorf("invalid HISTORY_TITLE_LENGTH value %d", *override)
		}
		titleLength = *override
	}

	maxConns := int32(10)
	if override, err := parseOptionalIntEnv("DB_MAX_CONNECTIONS"); err != nil {
		return HistoryConfig{}, err
	} else if override != nil && *override > 0 {
		maxConns = int32(*override)
	}

	return HistoryConfig{
		DatabaseURL:    strings.TrimSpace(os.Getenv("DATABASE_URL")),
		MaxConnections: maxConns,
		TitleLength:    titleLength,
	}, nil
}

// GateConfig describes the single in-flight turn lock.
type GateConfig struct {
	RedisAddr     string
	RedisPassword string
	LockTTL       time.Duration
}

func loadGateConfig() (GateConfig, error) {
	ttl, err := parseSecondsEnv("TURN_LOCK_TTL_SECONDS", 120)
	if err != nil {
		return GateConfig{}, err
	}
	return GateConfig{
		RedisAddr:     strings.TrimSpace(os.Getenv("REDIS_ADDR")),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		LockTTL:       ttl,
	}, nil
}

// AuthConfig describes bearer token verification.
type AuthConfig struct {
	Secret   string
	Issuer   string
	Audience string
}

// LoadAuthConfig reads the auth section; AUTH_JWT_SECRET is required.
func LoadAuthConfig() (AuthConfig, error) {
	secret := os.Getenv("AUTH_JWT_SECRET")
	if strings.TrimSpace(secret) == "" {
		return AuthConfig{}, fmt.Errorf("AUTH_JWT_SECRET is required")
	}
	return AuthConfig{
		Secret:   secret,
		Issuer:   strings.TrimSpace(os.Getenv("AUTH_ISSUER")),
		Audience: strings.TrimSpace(os.Getenv("AUTH_AUDIENCE")),
	}, nil
}

// ScriptureConfig describes the Bible text API.
type ScriptureConfig struct {
	BaseURL        string
	Token          string
	DefaultVersion string
	CacheSize      int
	Timeout        time.Duration
}

// LoadScriptureConfig reads the scripture section on its own.
func LoadScriptureConfig() (ScriptureConfig, error) {
	cacheSize := 256
	if override, err := parseOptionalIntEnv("BIBLE_CACHE_SIZE"); err != nil {
		return ScriptureConfig{}, err
	} else if override != nil {
		if *override < 1 {
			return ScriptureConfig{}, fmt.Errorf("invalid BIBLE_CACHE_SIZE value %d", *override)
		}
		cacheSize = *override
	}

	timeout, err := parseSecondsEnv("BIBLE_TIMEOUT_SECONDS", 15)
	if err != nil {
		return ScriptureConfig{}, err
	}

	return ScriptureConfig{
		BaseURL:        strings.TrimRight(getEnvOrDefault("BIBLE_API_BASE_URL", "https://www.abibliadigital.com.br/api"), "/"),
		Token:          strings.TrimSpace(os.Getenv("BIBLE_API_TOKEN")),
		DefaultVersion: strings.ToLower(getEnvOrDefault("BIBLE_DEFAULT_VERSION", "nvi")),
		CacheSize:      cacheSize,
		Timeout:        timeout,
	}, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func parseSecondsEnv(key string, defaultSeconds int) (time.Duration, error) {
	seconds, err := parseOptionalIntEnv(key)
	if err != nil {
		return 0, err
	}
	if seconds == nil {
		return time.Duration(defaultSeconds) * time.Second, nil
	}
	if *seconds < 1 {
		return 0, fmt.Errorf("invalid %s value %d: must be positive", key, *seconds)
	}
	return time.Duration(*seconds) * time.Second, nil
}

func parseOptionalFloatEnv(key string) (*float64, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}

func parseOptionalIntEnv(key string) (*int, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.Atoi(value)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}
