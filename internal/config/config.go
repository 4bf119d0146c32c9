package config

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"golang.org/x/crypto/hkdf"
)

type Config struct {
	BackendURL     string
	DBDSN          string
	ServerPort     string
	SessionSecret  string
	RequestTimeout time.Duration
	LogLevel       string
	LogFormat      string

	// SessionEncryptionKey шифрует cookie сессии (16, 24 или 32 байта).
	// Пустой ключ выводится из SessionSecret.
	SessionEncryptionKey string
	// SessionSecure ставит флаг Secure на cookie; включать за HTTPS.
	SessionSecure bool
}

// SessionKeys возвращает ключ подписи и ключ шифрования для cookie store.
func (c *Config) SessionKeys() (authKey, encKey []byte) {
	authKey = []byte(c.SessionSecret)
	if c.SessionEncryptionKey != "" {
		return authKey, []byte(c.SessionEncryptionKey)
	}
	encKey = make([]byte, 32)
	kdf := hkdf.New(sha256.New, authKey, nil, []byte("portal session encryption"))
	if _, err := io.ReadFull(kdf, encKey); err != nil {
		panic(fmt.Sprintf("derive session key: %v", err))
	}
	return authKey, encKey
}

// Load читает .env (если есть) и переменные окружения.
func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.AutomaticEnv()
	v.SetDefault("SERVER_PORT", "8080")
	v.SetDefault("REQUEST_TIMEOUT", "30s")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "text")
	v.SetDefault("SESSION_SECURE", false)

	cfg := &Config{
		BackendURL:     strings.TrimRight(v.GetString("BACKEND_URL"), "/"),
		DBDSN:          v.GetString("DB_DSN"),
		ServerPort:     v.GetString("SERVER_PORT"),
		SessionSecret:  v.GetString("SESSION_SECRET"),
		RequestTimeout: v.GetDuration("REQUEST_TIMEOUT"),
		LogLevel:       v.GetString("LOG_LEVEL"),
		LogFormat:      v.GetString("LOG_FORMAT"),

		SessionEncryptionKey: v.GetString("SESSION_ENCRYPTION_KEY"),
		SessionSecure:        v.GetBool("SESSION_SECURE"),
	}

	if cfg.BackendURL == "" {
		return nil, errors.New("BACKEND_URL is not set")
	}
	if cfg.DBDSN == "" {
		return nil, errors.New("DB_DSN is not set")
	}
	if cfg.SessionSecret == "" {
		return nil, errors.New("SESSION_SECRET is not set")
	}
	switch len(cfg.SessionEncryptionKey) {
	case 0, 16, 24, 32:
	default:
		return nil, errors.New("SESSION_ENCRYPTION_KEY must be 16, 24 or 32 bytes long")
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 30 * time.Second
	}

	return cfg, nil
}
