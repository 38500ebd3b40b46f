package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Supported AI providers.
const (
	ProviderGemini = "gemini"
	ProviderGroq   = "groq"
)

// Supported persistence backends for the profile, favorites and progress stores.
const (
	BackendSQLite = "sqlite"
	BackendFile   = "file"
	BackendRedis  = "redis"
)

// Config holds the configuration for the application.
type Config struct {
	AIProvider       string
	GeminiAPIKey     string
	GeminiModel      string
	GroqAPIKey       string
	GroqModel        string
	AIRequestTimeout time.Duration

	DatabasePath  string
	StoreBackend  string
	StoreFilePath string
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	Port            string
	JWTSecret       string
	SessionTTL      time.Duration
	NotificationTTL time.Duration

	CommunityChannelsPath string

	// Telegram Config
	TelegramBotToken       string
	TelegramWebhookURL     string
	TelegramAllowedUserIDs []int64
	AdminTelegramID        int64
}

// NewFromEnv creates a new Config object from environment variables.
// A .env file in the working directory is loaded first when present;
// variables already set in the environment take precedence over it.
func NewFromEnv() (*Config, error) {
	_ = godotenv.Load()

	provider := strings.ToLower(getEnv("AI_PROVIDER", ProviderGemini))
	cfg := &Config{
		AIProvider:            provider,
		GeminiAPIKey:          os.Getenv("GEMINI_API_KEY"),
		GeminiModel:           getEnv("GEMINI_MODEL", "gemini-2.5-flash"),
		GroqAPIKey:            os.Getenv("GROQ_API_KEY"),
		GroqModel:             getEnv("GROQ_MODEL", "llama-3.3-70b-versatile"),
		DatabasePath:          getEnv("DATABASE_PATH", "data/passive-genius.db"),
		StoreBackend:          strings.ToLower(getEnv("STORE_BACKEND", BackendSQLite)),
		StoreFilePath:         getEnv("STORE_FILE_PATH", "data/store"),
		RedisAddr:             getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:         os.Getenv("REDIS_PASSWORD"),
		Port:                  getEnv("PORT", "8080"),
		JWTSecret:             os.Getenv("JWT_SECRET"),
		CommunityChannelsPath: os.Getenv("COMMUNITY_CHANNELS_PATH"),
		TelegramBotToken:      os.Getenv("TELEGRAM_BOT_TOKEN"),
		TelegramWebhookURL:    os.Getenv("TELEGRAM_WEBHOOK_URL"),
	}

	switch provider {
	case ProviderGemini:
		if cfg.GeminiAPIKey == "" {
			return nil, fmt.Errorf("GEMINI_API_KEY environment variable not set")
		}
	case ProviderGroq:
		if cfg.GroqAPIKey == "" {
			return nil, fmt.Errorf("GROQ_API_KEY environment variable not set")
		}
	default:
		return nil, fmt.Errorf("unsupported AI_PROVIDER %q", provider)
	}

	switch cfg.StoreBackend {
	case BackendSQLite, BackendFile, BackendRedis:
	default:
		return nil, fmt.Errorf("unsupported STORE_BACKEND %q", cfg.StoreBackend)
	}

	var err error
	if cfg.AIRequestTimeout, err = getDuration("AI_REQUEST_TIMEOUT", 90*time.Second); err != nil {
		return nil, err
	}
	if cfg.SessionTTL, err = getDuration("SESSION_TTL", 30*24*time.Hour); err != nil {
		return nil, err
	}
	if cfg.NotificationTTL, err = getDuration("NOTIFICATION_TTL", 3*time.Second); err != nil {
		return nil, err
	}

	if v := os.Getenv("REDIS_DB"); v != "" {
		db, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("invalid REDIS_DB %q: %w", v, err)
		}
		cfg.RedisDB = db
	}

	// Telegram Config (optional for the CLI, required for the bot)
	if v := os.Getenv("TELEGRAM_ALLOWED_USER_IDS"); v != "" {
		for _, part := range strings.Split(v, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			id, err := strconv.ParseInt(part, 10, 64)
			if err != nil {
				return nil, fmt.Errorf("invalid TELEGRAM_ALLOWED_USER_IDS entry %q: %w", part, err)
			}
			cfg.TelegramAllowedUserIDs = append(cfg.TelegramAllowedUserIDs, id)
		}
	}
	if v := os.Getenv("ADMIN_TELEGRAM_ID"); v != "" {
		fmt.Sscanf(v, "%d", &cfg.AdminTelegramID)
	}

	return cfg, nil
}

// TelegramEnabled reports whether the bot front-end should be started.
func (c *Config) TelegramEnabled() bool {
	return c.TelegramBotToken != ""
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	return d, nil
}
