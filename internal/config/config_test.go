package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{
		"PORT", "LISTEN_ADDR", "DATABASE_PATH", "SESSION_SECRET", "JWT_SECRET",
		"TOKEN_TTL_HOURS", "ANTHROPIC_API_KEY", "ANTHROPIC_BASE_URL", "ANTHROPIC_MODEL",
		"COACH_MODE", "LOG_LEVEL", "LOG_FORMAT",
	} {
		t.Setenv(key, "")
	}

	cfg := Load()

	if cfg.ListenAddr != ":8080" {
		t.Fatalf("expected default listen addr :8080, got %q", cfg.ListenAddr)
	}
	if cfg.DatabasePath != "wellnest.db" {
		t.Fatalf("unexpected database path %q", cfg.DatabasePath)
	}
	if cfg.JWTSecret != cfg.SessionSecret {
		t.Fatalf("jwt secret should fall back to session secret")
	}
	if cfg.TokenTTL != 72*time.Hour {
		t.Fatalf("unexpected token ttl %v", cfg.TokenTTL)
	}
	if cfg.AnthropicBaseURL != "https://api.anthropic.com" {
		t.Fatalf("unexpected base url %q", cfg.AnthropicBaseURL)
	}
	if cfg.AnthropicModel != "claude-sonnet-4-20250514" {
		t.Fatalf("unexpected model %q", cfg.AnthropicModel)
	}
	if cfg.CoachMode != CoachModeScripted {
		t.Fatalf("expected scripted coach by default, got %q", cfg.CoachMode)
	}
	if cfg.AnthropicAPIKey != "" {
		t.Fatalf("api key should be empty by default")
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("LISTEN_ADDR", "")
	t.Setenv("TOKEN_TTL_HOURS", "12")
	t.Setenv("COACH_MODE", " AI ")
	t.Setenv("ANTHROPIC_BASE_URL", "https://proxy.example.com/")
	t.Setenv("ANTHROPIC_API_KEY", "  sk-ant-test  ")

	cfg := Load()

	if cfg.ListenAddr != ":9090" {
		t.Fatalf("expected :9090, got %q", cfg.ListenAddr)
	}
	if cfg.TokenTTL != 12*time.Hour {
		t.Fatalf("unexpected token ttl %v", cfg.TokenTTL)
	}
	if cfg.CoachMode != CoachModeAI {
		t.Fatalf("expected ai coach mode, got %q", cfg.CoachMode)
	}
	if cfg.AnthropicBaseURL != "https://proxy.example.com" {
		t.Fatalf("trailing slash should be trimmed, got %q", cfg.AnthropicBaseURL)
	}
	if cfg.AnthropicAPIKey != "sk-ant-test" {
		t.Fatalf("api key should be trimmed, got %q", cfg.AnthropicAPIKey)
	}
}

func TestLoadDotEnvKeepsExistingVariables(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	content := "WELLNEST_TEST_FROM_FILE=file\nWELLNEST_TEST_PRESET=file\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("failed to write env file: %v", err)
	}

	t.Setenv("WELLNEST_TEST_PRESET", "process")
	t.Cleanup(func() { os.Unsetenv("WELLNEST_TEST_FROM_FILE") })

	if err := LoadDotEnv(path); err != nil {
		t.Fatalf("LoadDotEnv returned error: %v", err)
	}

	if got := os.Getenv("WELLNEST_TEST_FROM_FILE"); got != "file" {
		t.Fatalf("expected value from file, got %q", got)
	}
	if got := os.Getenv("WELLNEST_TEST_PRESET"); got != "process" {
		t.Fatalf("process env should win, got %q", got)
	}

	if err := LoadDotEnv(filepath.Join(dir, "missing.env")); err != nil {
		t.Fatalf("missing file should be ignored, got %v", err)
	}
}
