package config

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/cloudwego/eino-ext/components/model/ark"
	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"
)

// Provider names accepted by GENERATION_PROVIDER.
const (
	ProviderOpenAI = "openai"
	ProviderArk    = "ark"
)

// Session store backends accepted by SESSION_STORE.
const (
	StoreMemory = "memory"
	StoreRedis  = "redis"
)

// Config aggregates every setting of the service.
type Config struct {
	Server     ServerConfig
	Log        LogConfig
	Generation GenerationConfig
	OpenAI     OpenAIConfig
	Ark        ArkConfig
	Session    SessionConfig
}

// Load reads the configuration from environment variables.
func Load() (*Config, error) {
	server, err := loadServerConfig()
	if err != nil {
		return nil, err
	}

	generation, err := loadGenerationConfig()
	if err != nil {
		return nil, err
	}

	openAI, err := loadOpenAIConfig()
	if err != nil {
		return nil, err
	}

	arkCfg, err := loadArkConfig()
	if err != nil {
		return nil, err
	}

	session, err := loadSessionConfig()
	if err != nil {
		return nil, err
	}

	return &Config{
		Server:     server,
		Log:        loadLogConfig(),
		Generation: generation,
		OpenAI:     openAI,
		Ark:        arkCfg,
		Session:    session,
	}, nil
}

// ServerConfig describes the HTTP listener.
type ServerConfig struct {
	Addr        string
	CORSOrigins []string
}

func loadServerConfig() (ServerConfig, error) {
	port := strings.TrimSpace(os.Getenv("PORT"))
	if port == "" {
		port = "8080"
	}

	origins := splitList(getEnvOrDefault("CORS_ORIGINS", "*"))

	if strings.Contains(port, ":") {
		// ":8080" and "127.0.0.1:8080" are accepted as-is.
		return ServerConfig{Addr: port, CORSOrigins: origins}, nil
	}

	if strings.Contains(port, " ") {
		return ServerConfig{}, fmt.Errorf("invalid PORT value: %q", port)
	}

	return ServerConfig{Addr: ":" + port, CORSOrigins: origins}, nil
}

// LogConfig selects the logger flavour.
type LogConfig struct {
	Environment string
	Level       string
}

// Production reports whether the JSON production logger should be used.
func (c LogConfig) Production() bool {
	return c.Environment == "production"
}

func loadLogConfig() LogConfig {
	return LogConfig{
		Environment: strings.ToLower(getEnvOrDefault("APP_ENV", "development")),
		Level:       strings.ToLower(getEnvOrDefault("LOG_LEVEL", "info")),
	}
}

// GenerationConfig controls how the document generation call is made.
type GenerationConfig struct {
	Provider        string
	Timeout         time.Duration
	BreakerFailures uint32
	BreakerCooldown time.Duration
	DefaultLocale   string
}

func loadGenerationConfig() (GenerationConfig, error) {
	provider := strings.ToLower(getEnvOrDefault("GENERATION_PROVIDER", ProviderOpenAI))
	if provider != ProviderOpenAI && provider != ProviderArk {
		return GenerationConfig{}, fmt.Errorf("invalid GENERATION_PROVIDER value %q", provider)
	}

	timeout, err := parseSecondsEnv("GENERATION_TIMEOUT", 90*time.Second)
	if err != nil {
		return GenerationConfig{}, err
	}

	failures := uint32(5)
	if override, err := parseOptionalIntEnv("BREAKER_FAILURES"); err != nil {
		return GenerationConfig{}, err
	} else if override != nil {
		if *override < 1 {
			failures = 1
		} else {
			failures = uint32(*override)
		}
	}

	cooldown, err := parseSecondsEnv("BREAKER_COOLDOWN", 30*time.Second)
	if err != nil {
		return GenerationConfig{}, err
	}

	return GenerationConfig{
		Provider:        provider,
		Timeout:         timeout,
		BreakerFailures: failures,
		BreakerCooldown: cooldown,
		DefaultLocale:   strings.ToLower(getEnvOrDefault("DEFAULT_LOCALE", "en")),
	}, nil
}

// OpenAIConfig describes the OpenAI-compatible chat completions endpoint.
type OpenAIConfig struct {
	APIKey      string
	BaseURL     string
	Model       string
	Temperature float64
}

// Enabled reports whether a credential was supplied.
func (c OpenAIConfig) Enabled() bool {
	return c.APIKey != ""
}

// NewChatModel creates an OpenAI-compatible chat model from the configuration.
func (c OpenAIConfig) NewChatModel(ctx context.Context) (model.BaseChatModel, error) {
	if !c.Enabled() {
		return nil, fmt.Errorf("openai credentials missing: set OPENAI_API_KEY")
	}

	temperature := float32(c.Temperature)
	return openai.NewChatModel(ctx, &openai.ChatModelConfig{
		APIKey:      c.APIKey,
		BaseURL:     c.BaseURL,
		Model:       c.Model,
		Temperature: &temperature,
	})
}

func loadOpenAIConfig() (OpenAIConfig, error) {
	temperature := 0.7
	if override, err := parseOptionalFloatEnv("OPENAI_TEMPERATURE"); err != nil {
		return OpenAIConfig{}, err
	} else if override != nil {
		temperature = *override
	}

	return OpenAIConfig{
		APIKey:      strings.TrimSpace(os.Getenv("OPENAI_API_KEY")),
		BaseURL:     strings.TrimSuffix(getEnvOrDefault("OPENAI_BASE_URL", "https://api.openai.com/v1"), "/"),
		Model:       getEnvOrDefault("OPENAI_MODEL", "gpt-4o"),
		Temperature: temperature,
	}, nil
}

// ArkConfig describes the Volcengine Ark chat model.
type ArkConfig struct {
	APIKey      string
	AccessKey   string
	SecretKey   string
	Model       string
	BaseURL     string
	Region      string
	Temperature *float64
	TopP        *float64
	MaxTokens   *int
}

// Enabled reports whether the credentials and model are present.
func (c ArkConfig) Enabled() bool {
	return c.Model != "" && (c.APIKey != "" || (c.AccessKey != "" && c.SecretKey != ""))
}

// NewChatModel creates an Ark chat model from the configuration.
func (c ArkConfig) NewChatModel(ctx context.Context) (model.ChatModel, error) {
	if !c.Enabled() {
		return nil, fmt.Errorf("ark credentials or model missing: set ARK_API_KEY (or ARK_ACCESS_KEY/ARK_SECRET_KEY) and ARK_MODEL")
	}

	var temperature *float32
	if c.Temperature != nil {
		val := float32(*c.Temperature)
		temperature = &val
	}

	var topP *float32
	if c.TopP != nil {
		val := float32(*c.TopP)
		topP = &val
	}

	cfg := &ark.ChatModelConfig{
		BaseURL:     c.BaseURL,
		Region:      c.Region,
		APIKey:      c.APIKey,
		AccessKey:   c.AccessKey,
		SecretKey:   c.SecretKey,
		Model:       c.Model,
		MaxTokens:   c.MaxTokens,
		Temperature: temperature,
		TopP:        topP,
	}

	return ark.NewChatModel(ctx, cfg)
}

func loadArkConfig() (ArkConfig, error) {
	temperature, err := parseOptionalFloatEnv("ARK_TEMPERATURE")
	if err != nil {
		return ArkConfig{}, err
	}

	topP, err := parseOptionalFloatEnv("ARK_TOP_P")
	if err != nil {
		return ArkConfig{}, err
	}

	maxTokens, err := parseOptionalIntEnv("ARK_MAX_TOKENS")
	if err != nil {
		return ArkConfig{}, err
	}

	return ArkConfig{
		APIKey:      strings.TrimSpace(os.Getenv("ARK_API_KEY")),
		AccessKey:   strings.TrimSpace(os.Getenv("ARK_ACCESS_KEY")),
		SecretKey:   strings.TrimSpace(os.Getenv("ARK_SECRET_KEY")),
		Model:       strings.TrimSpace(os.Getenv("ARK_MODEL")),
		BaseURL:     getEnvOrDefault("ARK_BASE_URL", "https://ark.cn-beijing.volces.com/api/v3"),
		Region:      getEnvOrDefault("ARK_REGION", "cn-beijing"),
		Temperature: temperature,
		TopP:        topP,
		MaxTokens:   maxTokens,
	}, nil
}

// SessionConfig selects the wizard session backend.
type SessionConfig struct {
	Store    string
	RedisURL string
	TTL      time.Duration
}

func loadSessionConfig() (SessionConfig, error) {
	store := strings.ToLower(getEnvOrDefault("SESSION_STORE", StoreMemory))
	if store != StoreMemory && store != StoreRedis {
		return SessionConfig{}, fmt.Errorf("invalid SESSION_STORE value %q", store)
	}

	redisURL := strings.TrimSpace(os.Getenv("REDIS_URL"))
	if store == StoreRedis && redisURL == "" {
		return SessionConfig{}, fmt.Errorf("REDIS_URL is required when SESSION_STORE=redis")
	}

	ttl, err := parseSecondsEnv("SESSION_TTL", time.Hour)
	if err != nil {
		return SessionConfig{}, err
	}

	return SessionConfig{Store: store, RedisURL: redisURL, TTL: ttl}, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func splitList(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func parseSecondsEnv(key string, defaultValue time.Duration) (time.Duration, error) {
	seconds, err := parseOptionalIntEnv(key)
	if err != nil {
		return 0, err
	}
	if seconds == nil {
		return defaultValue, nil
	}
	if *seconds <= 0 {
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
