package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Auth     AuthConfig
	LLM      LLMConfig
	Judge    JudgeConfig
}

type ServerConfig struct {
	Host string
	Port int
}

type DatabaseConfig struct {
	URL            string
	MaxConns       int
	MinConns       int
	MigrationsPath string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type AuthConfig struct {
	APIKey       string
	APIKeyHeader string
	JWTSecret    string
}

type LLMConfig struct {
	OpenAIKey       string
	OpenAIBaseURL   string
	AnthropicKey    string
	DefaultProvider string
	DefaultModel    string
	ReflectionModel string
	Temperature     float64
	MaxTokens       int
}

type JudgeConfig struct {
	Enabled        bool
	Model          string
	EmbeddingModel string
	RetrievalK     int
}

func Load() (*Config, error) {
	port, err := getEnvInt("SERVER_PORT", 8080)
	if err != nil {
		return nil, fmt.Errorf("invalid SERVER_PORT: %w", err)
	}

	maxConns, err := getEnvInt("DB_MAX_CONNS", 20)
	if err != nil {
		return nil, fmt.Errorf("invalid DB_MAX_CONNS: %w", err)
	}

	minConns, err := getEnvInt("DB_MIN_CONNS", 5)
	if err != nil {
		return nil, fmt.Errorf("invalid DB_MIN_CONNS: %w", err)
	}

	redisDB, err := getEnvInt("REDIS_DB", 0)
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	maxTokens, err := getEnvInt("LLM_MAX_TOKENS", 2048)
	if err != nil {
		return nil, fmt.Errorf("invalid LLM_MAX_TOKENS: %w", err)
	}

	retrievalK, err := getEnvInt("JUDGE_RETRIEVAL_K", 3)
	if err != nil {
		return nil, fmt.Errorf("invalid JUDGE_RETRIEVAL_K: %w", err)
	}

	temperature, err := getEnvFloat("LLM_TEMPERATURE", 0.7)
	if err != nil {
		return nil, fmt.Errorf("invalid LLM_TEMPERATURE: %w", err)
	}

	cfg := &Config{
		Server: ServerConfig{
			Host: getEnv("SERVER_HOST", "0.0.0.0"),
			Port: port,
		},
		Database: DatabaseConfig{
			URL:            getEnv("DATABASE_URL", ""),
			MaxConns:       maxConns,
			MinConns:       minConns,
			MigrationsPath: getEnv("MIGRATIONS_PATH", "migrations"),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       redisDB,
		},
		Auth: AuthConfig{
			APIKey:       getEnv("API_KEY", ""),
			APIKeyHeader: getEnv("API_KEY_HEADER", "X-API-Key"),
			JWTSecret:    getEnv("JWT_SECRET", ""),
		},
		LLM: LLMConfig{
			OpenAIKey:       getEnv("OPENAI_API_KEY", ""),
			OpenAIBaseURL:   getEnv("OPENAI_BASE_URL", ""),
			AnthropicKey:    getEnv("ANTHROPIC_API_KEY", ""),
			DefaultProvider: getEnv("LLM_DEFAULT_PROVIDER", "openai"),
			DefaultModel:    getEnv("LLM_DEFAULT_MODEL", "gpt-4o-mini"),
			ReflectionModel: getEnv("LLM_REFLECTION_MODEL", ""),
			Temperature:     temperature,
			MaxTokens:       maxTokens,
		},
		Judge: JudgeConfig{
			Enabled:        getEnv("JUDGE_ENABLED", "false") == "true",
			Model:          getEnv("JUDGE_MODEL", "gpt-4o"),
			EmbeddingModel: getEnv("JUDGE_EMBEDDING_MODEL", "text-embedding-3-small"),
			RetrievalK:     retrievalK,
		},
	}

	return cfg, nil
}

func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

func (c *Config) Validate() error {
	var missing []string
	if c.Database.URL == "" {
		missing = append(missing, "DATABASE_URL")
	}
	if c.LLM.OpenAIKey == "" && c.LLM.AnthropicKey == "" {
		missing = append(missing, "OPENAI_API_KEY or ANTHROPIC_API_KEY")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required env vars: %s", strings.Join(missing, ", "))
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	return strconv.Atoi(v)
}

func getEnvFloat(key string, fallback float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	return strconv.ParseFloat(v, 64)
}
