// Package config は環境変数から設定を読み込み、アプリケーション全体で使用する設定を提供します。
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config はアプリケーションの設定を保持する構造体です。
type Config struct {
	// サーバー設定
	Port    string // Webサーバーのポート番号
	GinMode string // Ginの実行モード (debug, release, test)

	// セッション設定
	SessionSecret string // セッションCookie署名用の秘密鍵

	// CORS設定（/api/form 配下のみ）
	CORSAllowedOrigins string // CORS許可オリジン（カンマ区切り）

	// 認証APIの設定
	UserAPIBaseURL string        // /api/users/login, /api/users/register を提供するAPIのベースURL
	UserAPITimeout time.Duration // 0 の場合はタイムアウトなし

	// 二重送信防止
	RedisURL      string        // 空の場合はプロセス内ロックを使用
	SubmitLockTTL time.Duration // 送信ロックの有効期限

	// 画面遷移
	RedirectDelay time.Duration // 成功メッセージ表示後に遷移するまでの待ち時間

	// ログ設定
	LogLevel string
}

// Load は環境変数から設定を読み込みます。
// .env.local ファイルが存在する場合はそこから読み込みます。
func Load() (*Config, error) {
	loadEnvFile()

	config := &Config{
		Port:    getEnv("PORT", "8080"),
		GinMode: getEnv("GIN_MODE", "debug"),

		SessionSecret: getEnv("SESSION_SECRET", ""),

		CORSAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),

		UserAPIBaseURL: getEnv("USER_API_BASE_URL", "http://localhost:8081"),
		UserAPITimeout: getEnvAsDuration("USER_API_TIMEOUT", 0),

		RedisURL:      getEnv("REDIS_URL", ""),
		SubmitLockTTL: getEnvAsDuration("SUBMIT_LOCK_TTL", 2*time.Minute),

		RedirectDelay: time.Duration(getEnvAsInt("REDIRECT_DELAY_MS", 1500)) * time.Millisecond,

		LogLevel: getEnv("LOG_LEVEL", "info"),
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// ClientConfig は端末クライアントが使う設定です。サーバー用の鍵は読みません。
type ClientConfig struct {
	UserAPIBaseURL string
	UserAPITimeout time.Duration
	RedirectDelay  time.Duration
}

// LoadClient は端末クライアント用の設定を読み込みます。GIN_MODE や SESSION_SECRET には依存しません。
func LoadClient() (*ClientConfig, error) {
	loadEnvFile()

	config := &ClientConfig{
		UserAPIBaseURL: getEnv("USER_API_BASE_URL", "http://localhost:8081"),
		UserAPITimeout: getEnvAsDuration("USER_API_TIMEOUT", 0),
		RedirectDelay:  time.Duration(getEnvAsInt("REDIRECT_DELAY_MS", 1500)) * time.Millisecond,
	}
	if config.RedirectDelay < 0 {
		return nil, fmt.Errorf("REDIRECT_DELAY_MS must not be negative")
	}
	return config, nil
}

func loadEnvFile() {
	if err := godotenv.Load(".env.local"); err == nil {
		return
	}

	cwd, err := os.Getwd()
	if err != nil {
		return
	}

	parent := filepath.Dir(cwd)
	if parent == "" || parent == cwd {
		return
	}

	_ = godotenv.Load(filepath.Join(parent, ".env.local"))
}

// Validate は設定の妥当性を検証します。
func (c *Config) Validate() error {
	if c.RedirectDelay < 0 {
		return fmt.Errorf("REDIRECT_DELAY_MS must not be negative")
	}
	if c.SubmitLockTTL <= 0 {
		return fmt.Errorf("SUBMIT_LOCK_TTL must be positive")
	}

	// ローカル開発ではセッション鍵は任意（起動時に一時鍵を生成する）
	if c.GinMode == "release" {
		if c.SessionSecret == "" {
			return fmt.Errorf("SESSION_SECRET is required in release mode")
		}
		if c.UserAPIBaseURL == "" {
			return fmt.Errorf("USER_API_BASE_URL is required in release mode")
		}
	}

	return nil
}

// getEnv は環境変数を取得し、存在しない場合はデフォルト値を返します。
func getEnv(key string, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

// getEnvAsInt は環境変数を整数として取得します。
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvAsDuration は環境変数を time.Duration として取得します（例: "30s", "2m"）。
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}
