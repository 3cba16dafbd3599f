// Package config loads runtime settings from the environment and an optional
// .env file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Defaults.
const (
	DefaultPort            = "3001"
	DefaultClientURL       = "*"
	DefaultRooms           = "General,Technology,Gaming,Random"
	DefaultMaxMessageSize  = 4096
	DefaultRateLimit       = 10.0
	DefaultRateBurst       = 20
	DefaultSendBuffer      = 256
	DefaultLogLevel        = "info"
	DefaultShutdownTimeout = 30 * time.Second
)

// Config holds the server configuration.
type Config struct {
	Port      string
	ClientURL string

	Rooms       []string
	StrictRooms bool
	MaxHistory  int

	MaxMessageSize int64
	RateLimit      float64
	RateBurst      int
	SendBuffer     int

	LogLevel        string
	ShutdownTimeout time.Duration
}

// Addr returns the listen address for Port.
func (c Config) Addr() string {
	if strings.Contains(c.Port, ":") {
		return c.Port
	}
	return ":" + c.Port
}

// Load reads .env from the working directory if present, then the process
// environment, which takes precedence.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("failed to load .env: %w", err)
	}

	v := viper.New()
	v.SetDefault("PORT", DefaultPort)
	v.SetDefault("CLIENT_URL", DefaultClientURL)
	v.SetDefault("CHAT_ROOMS", DefaultRooms)
	v.SetDefault("CHAT_STRICT_ROOMS", false)
	v.SetDefault("CHAT_MAX_HISTORY", 0)
	v.SetDefault("CHAT_MAX_MESSAGE_SIZE", DefaultMaxMessageSize)
	v.SetDefault("CHAT_RATE_LIMIT", DefaultRateLimit)
	v.SetDefault("CHAT_RATE_BURST", DefaultRateBurst)
	v.SetDefault("CHAT_SEND_BUFFER", DefaultSendBuffer)
	v.SetDefault("LOG_LEVEL", DefaultLogLevel)
	v.SetDefault("SHUTDOWN_TIMEOUT", DefaultShutdownTimeout)
	v.AutomaticEnv()

	cfg := Config{
		Port:            v.GetString("PORT"),
		ClientURL:       v.GetString("CLIENT_URL"),
		Rooms:           splitList(v.GetString("CHAT_ROOMS")),
		StrictRooms:     v.GetBool("CHAT_STRICT_ROOMS"),
		MaxHistory:      v.GetInt("CHAT_MAX_HISTORY"),
		MaxMessageSize:  v.GetInt64("CHAT_MAX_MESSAGE_SIZE"),
		RateLimit:       v.GetFloat64("CHAT_RATE_LIMIT"),
		RateBurst:       v.GetInt("CHAT_RATE_BURST"),
		SendBuffer:      v.GetInt("CHAT_SEND_BUFFER"),
		LogLevel:        strings.ToLower(strings.TrimSpace(v.GetString("LOG_LEVEL"))),
		ShutdownTimeout: v.GetDuration("SHUTDOWN_TIMEOUT"),
	}
	return sanitize(cfg), nil
}

// sanitize replaces empty or non-positive values with defaults.
func sanitize(cfg Config) Config {
	if strings.TrimSpace(cfg.Port) == "" {
		cfg.Port = DefaultPort
	}
	if strings.TrimSpace(cfg.ClientURL) == "" {
		cfg.ClientURL = DefaultClientURL
	}
	if len(cfg.Rooms) == 0 {
		cfg.Rooms = splitList(DefaultRooms)
	}
	if cfg.MaxHistory < 0 {
		cfg.MaxHistory = 0
	}
	if cfg.MaxMessageSize <= 0 {
		cfg.MaxMessageSize = DefaultMaxMessageSize
	}
	if cfg.RateLimit <= 0 {
		cfg.RateLimit = DefaultRateLimit
	}
	if cfg.RateBurst <= 0 {
		cfg.RateBurst = DefaultRateBurst
	}
	if cfg.SendBuffer <= 0 {
		cfg.SendBuffer = DefaultSendBuffer
	}
	if cfg.LogLevel != "info" && cfg.LogLevel != "error" {
		cfg.LogLevel = DefaultLogLevel
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = DefaultShutdownTimeout
	}
	return cfg
}

// splitList parses a comma separated list, dropping blanks and duplicates.
func splitList(raw string) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, item := range strings.Split(raw, ",") {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		if _, dup := seen[item]; dup {
			continue
		}
		seen[item] = struct{}{}
		out = append(out, item)
	}
	return out
}
