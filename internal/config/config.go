package config

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/cloudwego/eino-ext/components/model/ollama"
	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"
	ollamaapi "github.com/eino-contrib/ollama/api"
)

// Config aggregates every runtime setting for the backend.
type Config struct {
	Server     ServerConfig
	Remote     RemoteConfig
	Local      LocalConfig
	Incubator  IncubatorConfig
	Delegation DelegationConfig
	Memory     MemoryConfig
}

// Load reads the full configuration from environment variables.
func Load() (*Config, error) {
	server, err := loadServerConfig()
	if err != nil {
		return nil, err
	}

	remote, err := loadRemoteConfig()
	if err != nil {
		return nil, err
	}

	local, err := loadLocalConfig()
	if err != nil {
		return nil, err
	}

	incubator, err := loadIncubatorConfig()
	if err != nil {
		return nil, err
	}

	delegation, err := loadDelegationConfig()
	if err != nil {
		return nil, err
	}

	memory := MemoryConfig{
		Path:    getEnvOrDefault("MEMORY_FILE", "storage/instructions/memory.yaml"),
		ChatDir: getEnvOrDefault("CHAT_DIR", "storage/chat_history"),
	}

	return &Config{
		Server:     server,
		Remote:     remote,
		Local:      local,
		Incubator:  incubator,
		Delegation: delegation,
		Memory:     memory,
	}, nil
}

// ServerConfig describes the HTTP listener.
type ServerConfig struct {
	Addr string
}

func loadServerConfig() (ServerConfig, error) {
	port := strings.TrimSpace(os.Getenv("PORT"))
	if port == "" {
		port = "3000"
	}

	if strings.Contains(port, " ") {
		return ServerConfig{}, fmt.Errorf("invalid PORT value: %q", port)
	}

	if strings.Contains(port, ":") {
		// Allow passing ":3000" or "127.0.0.1:3000" directly.
		return ServerConfig{Addr: port}, nil
	}

	host := strings.TrimSpace(os.Getenv("HOST"))
	return ServerConfig{Addr: host + ":" + port}, nil
}

// RemoteConfig describes the hosted Grok backend (OpenAI-compatible API).
type RemoteConfig struct {
	BaseURL     string
	APIKey      string
	Model       string
	MaxTokens   int
	Temperature float64
}

// Enabled reports whether the remote backend has credentials.
func (c RemoteConfig) Enabled() bool {
	return c.APIKey != ""
}

// NewChatModel builds a chat model talking to the remote backend.
func (c RemoteConfig) NewChatModel(ctx context.Context) (model.ChatModel, error) {
	if !c.Enabled() {
		return nil, fmt.Errorf("remote backend disabled: GROK_API_KEY is not set")
	}

	maxTokens := c.MaxTokens
	temperature := float32(c.Temperature)

	return openai.NewChatModel(ctx, &openai.ChatModelConfig{
		BaseURL:     c.BaseURL,
		APIKey:      c.APIKey,
		Model:       c.Model,
		MaxTokens:   &maxTokens,
		Temperature: &temperature,
	})
}

func loadRemoteConfig() (RemoteConfig, error) {
	maxTokens, err := parseIntEnv("GROK_MAX_TOKENS", 500)
	if err != nil {
		return RemoteConfig{}, err
	}

	temperature, err := parseFloatEnv("GROK_TEMPERATURE", 0.7)
	if err != nil {
		return RemoteConfig{}, err
	}

	baseURL := getEnvOrDefault("GROK_API_URL", "https://api.x.ai/v1")
	// Older deployments configured the full completions endpoint; the client
	// appends the path itself.
	baseURL = strings.TrimSuffix(strings.TrimSuffix(baseURL, "/"), "/chat/completions")

	return RemoteConfig{
		BaseURL:     baseURL,
		APIKey:      strings.TrimSpace(os.Getenv("GROK_API_KEY")),
		Model:       getEnvOrDefault("GROK_MODEL", "grok-4-fast"),
		MaxTokens:   maxTokens,
		Temperature: temperature,
	}, nil
}

// LocalConfig describes the locally hosted model served by Ollama.
type LocalConfig struct {
	BaseURL     string
	Model       string
	MaxTokens   int
	NumGPU      int
	Temperature *float64
}

// Enabled reports whether the local backend is addressable.
func (c LocalConfig) Enabled() bool {
	return c.BaseURL != "" && c.Model != ""
}

// NewChatModel builds a chat model talking to the local Ollama server.
func (c LocalConfig) NewChatModel(ctx context.Context) (model.ChatModel, error) {
	if !c.Enabled() {
		return nil, fmt.Errorf("local backend disabled: OLLAMA_URL/OLLAMA_ENGINE are not set")
	}

	options := &ollamaapi.Options{
		NumPredict: c.MaxTokens,
	}
	if c.NumGPU > 0 {
		options.Runner.NumGPU = c.NumGPU
	}
	if c.Temperature != nil {
		options.Temperature = float32(*c.Temperature)
	}

	return ollama.NewChatModel(ctx, &ollama.ChatModelConfig{
		BaseURL: c.BaseURL,
		Model:   c.Model,
		Options: options,
	})
}

func loadLocalConfig() (LocalConfig, error) {
	maxTokens, err := parseIntEnv("OLLAMA_MAX_TOKENS", 500)
	if err != nil {
		return LocalConfig{}, err
	}

	numGPU, err := parseIntEnv("OLLAMA_NUM_GPU", 0)
	if err != nil {
		return LocalConfig{}, err
	}

	temperature, err := parseOptionalFloatEnv("OLLAMA_TEMPERATURE")
	if err != nil {
		return LocalConfig{}, err
	}

	return LocalConfig{
		BaseURL:     getEnvOrDefault("OLLAMA_URL", "http://127.0.0.1:11434"),
		Model:       getEnvOrDefault("OLLAMA_ENGINE", "gpt-oss:20b"),
		MaxTokens:   maxTokens,
		NumGPU:      numGPU,
		Temperature: temperature,
	}, nil
}

// IncubatorConfig bounds one incubation session.
type IncubatorConfig struct {
	Duration        time.Duration
	WrapUp          time.Duration
	AgentTimeout    time.Duration
	RemoteAgents    bool
	RemoteSynthesis bool
}

func loadIncubatorConfig() (IncubatorConfig, error) {
	durationMin, err := parseIntEnv("INCUBATOR_DURATION_MINUTES", 60)
	if err != nil {
		return IncubatorConfig{}, err
	}

	wrapUpMin, err := parseIntEnv("INCUBATOR_WRAP_UP_MINUTES", 5)
	if err != nil {
		return IncubatorConfig{}, err
	}

	agentTimeoutSec, err := parseIntEnv("INCUBATOR_AGENT_TIMEOUT_SECONDS", 300)
	if err != nil {
		return IncubatorConfig{}, err
	}

	remoteAgents, err := parseBoolEnv("INCUBATOR_USE_GROK_FOR_AGENTS", false)
	if err != nil {
		return IncubatorConfig{}, err
	}

	remoteSynthesis, err := parseBoolEnv("INCUBATOR_USE_GROK_FOR_SYNTHESIS", false)
	if err != nil {
		return IncubatorConfig{}, err
	}

	cfg := IncubatorConfig{
		Duration:        time.Duration(durationMin) * time.Minute,
		WrapUp:          time.Duration(wrapUpMin) * time.Minute,
		AgentTimeout:    time.Duration(agentTimeoutSec) * time.Second,
		RemoteAgents:    remoteAgents,
		RemoteSynthesis: remoteSynthesis,
	}

	if cfg.Duration <= 0 {
		return IncubatorConfig{}, fmt.Errorf("INCUBATOR_DURATION_MINUTES must be positive, got %d", durationMin)
	}
	if cfg.WrapUp < 0 || cfg.WrapUp >= cfg.Duration {
		return IncubatorConfig{}, fmt.Errorf("INCUBATOR_WRAP_UP_MINUTES must be shorter than the session duration")
	}
	if cfg.AgentTimeout <= 0 {
		return IncubatorConfig{}, fmt.Errorf("INCUBATOR_AGENT_TIMEOUT_SECONDS must be positive, got %d", agentTimeoutSec)
	}

	return cfg, nil
}

// DelegationConfig tunes the chief-executive delegation flow behind /chat.
type DelegationConfig struct {
	ShortMaxChars    int
	RemoteForShort   bool
	StageTimeout     time.Duration
	MaxContinuations int
}

func loadDelegationConfig() (DelegationConfig, error) {
	shortMax, err := parseIntEnv("CEA_SHORT_MAX_CHARS", 140)
	if err != nil {
		return DelegationConfig{}, err
	}

	remoteForShort, err := parseBoolEnv("CEA_USE_GROK_FOR_SHORT", true)
	if err != nil {
		return DelegationConfig{}, err
	}

	stageTimeoutSec, err := parseIntEnv("CEA_STAGE_TIMEOUT_S", 45)
	if err != nil {
		return DelegationConfig{}, err
	}

	maxContinuations, err := parseIntEnv("CEA_CONTINUE_MAX_ITERS", 0)
	if err != nil {
		return DelegationConfig{}, err
	}

	cfg := DelegationConfig{
		ShortMaxChars:    shortMax,
		RemoteForShort:   remoteForShort,
		StageTimeout:     time.Duration(stageTimeoutSec) * time.Second,
		MaxContinuations: maxContinuations,
	}

	if cfg.StageTimeout <= 0 {
		return DelegationConfig{}, fmt.Errorf("CEA_STAGE_TIMEOUT_S must be positive, got %d", stageTimeoutSec)
	}
	if cfg.ShortMaxChars < 0 || cfg.MaxContinuations < 0 {
		return DelegationConfig{}, fmt.Errorf("CEA_SHORT_MAX_CHARS and CEA_CONTINUE_MAX_ITERS must not be negative")
	}

	return cfg, nil
}

// MemoryConfig locates the file-backed stores: the YAML session memory and
// the chat thread directory.
type MemoryConfig struct {
	Path    string
	ChatDir string
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func parseBoolEnv(key string, defaultValue bool) (bool, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return defaultValue, nil
	}

	val, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("invalid %s value %q: %w", key, raw, err)
	}
	return val, nil
}

func parseIntEnv(key string, defaultValue int) (int, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return defaultValue, nil
	}

	val, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value %q: %w", key, raw, err)
	}
	return val, nil
}

func parseFloatEnv(key string, defaultValue float64) (float64, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return defaultValue, nil
	}

	val, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value %q: %w", key, raw, err)
	}
	return val, nil
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
