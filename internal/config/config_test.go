package config

import (
	"os"
	"testing"
	"time"
)

func TestNewFromEnv(t *testing.T) {
	// Helper function to set environment variables for a test
	setEnv := func(key, value string) {
		t.Helper()
		t.Setenv(key, value)
	}

	// Start every subtest from a clean provider selection.
	clear := func() {
		for _, k := range []string{"AI_PROVIDER", "GEMINI_API_KEY", "GROQ_API_KEY", "STORE_BACKEND", "AI_REQUEST_TIMEOUT", "TELEGRAM_ALLOWED_USER_IDS", "REDIS_DB"} {
			t.Setenv(k, "")
			os.Unsetenv(k)
		}
	}

	t.Run("Success", func(t *testing.T) {
		clear()
		setEnv("GEMINI_API_KEY", "gemini_key")

		cfg, err := NewFromEnv()
		if err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
		if cfg.AIProvider != ProviderGemini {
			t.Errorf("Expected provider 'gemini', got '%s'", cfg.AIProvider)
		}
		if cfg.GeminiAPIKey != "gemini_key" {
			t.Errorf("Expected GeminiAPIKey to be 'gemini_key', got '%s'", cfg.GeminiAPIKey)
		}
		if cfg.GeminiModel != "gemini-2.5-flash" {
			t.Errorf("Expected default Gemini model, got '%s'", cfg.GeminiModel)
		}
		if cfg.StoreBackend != BackendSQLite {
			t.Errorf("Expected sqlite store backend, got '%s'", cfg.StoreBackend)
		}
		if cfg.NotificationTTL != 3*time.Second {
			t.Errorf("Expected 3s notification TTL, got %v", cfg.NotificationTTL)
		}
		if cfg.Port != "8080" {
			t.Errorf("Expected default port 8080, got '%s'", cfg.Port)
		}
	})

	t.Run("MissingGeminiAPIKey", func(t *testing.T) {
		clear()

		_, err := NewFromEnv()
		if err == nil {
			t.Fatal("Expected an error for missing GEMINI_API_KEY, got nil")
		}
		expectedError := "GEMINI_API_KEY environment variable not set"
		if err.Error() != expectedError {
			t.Errorf("Expected error '%s', got '%s'", expectedError, err.Error())
		}
	})

	t.Run("GroqProvider", func(t *testing.T) {
		clear()
		setEnv("AI_PROVIDER", "groq")
		setEnv("GROQ_API_KEY", "groq_key")

		cfg, err := NewFromEnv()
		if err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
		if cfg.GroqAPIKey != "groq_key" {
			t.Errorf("Expected GroqAPIKey to be 'groq_key', got '%s'", cfg.GroqAPIKey)
		}
	})

	t.Run("MissingGroqAPIKey", func(t *testing.T) {
		clear()
		setEnv("AI_PROVIDER", "groq")

		_, err := NewFromEnv()
		if err == nil {
			t.Fatal("Expected an error for missing GROQ_API_KEY, got nil")
		}
		expectedError := "GROQ_API_KEY environment variable not set"
		if err.Error() != expectedError {
			t.Errorf("Expected error '%s', got '%s'", expectedError, err.Error())
		}
	})

	t.Run("UnknownStoreBackend", func(t *testing.T) {
		clear()
		setEnv("GEMINI_API_KEY", "gemini_key")
		setEnv("STORE_BACKEND", "etcd")

		if _, err := NewFromEnv(); err == nil {
			t.Fatal("Expected an error for unknown STORE_BACKEND, got nil")
		}
	})

	t.Run("InvalidTimeout", func(t *testing.T) {
		clear()
		setEnv("GEMINI_API_KEY", "gemini_key")
		setEnv("AI_REQUEST_TIMEOUT", "soon")

		if _, err := NewFromEnv(); err == nil {
			t.Fatal("Expected an error for invalid AI_REQUEST_TIMEOUT, got nil")
		}
	})

	t.Run("AllowedUserIDs", func(t *testing.T) {
		clear()
		setEnv("GEMINI_API_KEY", "gemini_key")
		setEnv("TELEGRAM_ALLOWED_USER_IDS", "42, 7,")

		cfg, err := NewFromEnv()
		if err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
		if len(cfg.TelegramAllowedUserIDs) != 2 || cfg.TelegramAllowedUserIDs[0] != 42 || cfg.TelegramAllowedUserIDs[1] != 7 {
			t.Errorf("Expected allowed IDs [42 7], got %v", cfg.TelegramAllowedUserIDs)
		}
	})
}
