package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	// CoachModeScripted 使用内置的话术库回复教练对话。
	CoachModeScripted = "scripted"
	// CoachModeAI 使用补全服务生成教练回复。
	CoachModeAI = "ai"
)

// AppConfig 汇总运行服务所需的基础配置。
type AppConfig struct {
	ListenAddr        string
	Port              string
	DatabasePath      string
	SessionSecret     string
	GinMode           string
	JWTSecret         string
	TokenTTL          time.Duration
	AnthropicAPIKey   string
	AnthropicBaseURL  string
	AnthropicModel    string
	CoachMode         string
	ContentPath       string
	LogLevel          string
	LogFormat         string
	SuperRootUserName string
	SuperRootPassword string
}

// LoadDotEnv 读取工作目录下的 .env 文件，文件不存在时静默跳过。
// 已存在的环境变量不会被覆盖。
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}

	existing := make([]string, 0, len(paths))
	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			existing = append(existing, path)
		}
	}
	if len(existing) == 0 {
		return nil
	}

	if err := godotenv.Load(existing...); err != nil {
		return fmt.Errorf("load env file: %w", err)
	}
	return nil
}

// Load 从环境变量读取应用配置，并为缺失项提供安全的默认值。
func Load() AppConfig {
	port := envOrDefault("PORT", "8080")

	listenAddr := strings.TrimSpace(os.Getenv("LISTEN_ADDR"))
	if listenAddr == "" {
		listenAddr = fmt.Sprintf(":%s", port)
	}

	sessionSecret := envOrDefault("SESSION_SECRET", "wellnest-dev-secret")

	jwtSecret := strings.TrimSpace(os.Getenv("JWT_SECRET"))
	if jwtSecret == "" {
		jwtSecret = sessionSecret
	}

	ttlHours := 72
	if raw := strings.TrimSpace(os.Getenv("TOKEN_TTL_HOURS")); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			ttlHours = parsed
		}
	}

	coachMode := strings.ToLower(envOrDefault("COACH_MODE", CoachModeScripted))
	if coachMode != CoachModeAI {
		coachMode = CoachModeScripted
	}

	return AppConfig{
		ListenAddr:        listenAddr,
		Port:              port,
		DatabasePath:      envOrDefault("DATABASE_PATH", "wellnest.db"),
		SessionSecret:     sessionSecret,
		GinMode:           envOrDefault("GIN_MODE", "release"),
		JWTSecret:         jwtSecret,
		TokenTTL:          time.Duration(ttlHours) * time.Hour,
		AnthropicAPIKey:   strings.TrimSpace(os.Getenv("ANTHROPIC_API_KEY")),
		AnthropicBaseURL:  strings.TrimRight(envOrDefault("ANTHROPIC_BASE_URL", "https://api.anthropic.com"), "/"),
		AnthropicModel:    envOrDefault("ANTHROPIC_MODEL", "claude-sonnet-4-20250514"),
		CoachMode:         coachMode,
		ContentPath:       strings.TrimSpace(os.Getenv("CONTENT_PATH")),
		LogLevel:          envOrDefault("LOG_LEVEL", "info"),
		LogFormat:         strings.ToLower(envOrDefault("LOG_FORMAT", "json")),
		SuperRootUserName: strings.TrimSpace(os.Getenv("SUPER_ROOT_USER_NAME")),
		SuperRootPassword: strings.TrimSpace(os.Getenv("SUPER_ROOT_PASSWORD")),
	}
}

func envOrDefault(key, fallback string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	return value
}
