package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/zachsimson/Lockedin-sub000/internal/chess/bot"
)

type AppConfig struct {
	HTTPAddr string

	RedisURL    string
	DatabaseURL string

	DefaultDifficulty bot.Difficulty
	ClockInitial      time.Duration
	SessionTTL        time.Duration
	BotDeferred       bool
	BotTimeout        time.Duration
	HistoryLimit      int

	GameTTL  time.Duration
	LobbyTTL time.Duration

	// ServerURL is the base URL the practice client talks to.
	ServerURL string
	// MessagesDir holds optional YAML files overriding player-facing text.
	MessagesDir string
}

func Load() (*AppConfig, error) {
	cfg := &AppConfig{
		HTTPAddr:          ":8080",
		RedisURL:          "redis://localhost:6379/0",
		DefaultDifficulty: bot.Medium,
		ClockInitial:      10 * time.Minute,
		SessionTTL:        24 * time.Hour,
		BotTimeout:        5 * time.Second,
		HistoryLimit:      10,
		GameTTL:           72 * time.Hour,
		LobbyTTL:          10 * time.Minute,
		ServerURL:         "http://localhost:8080",
	}

	if v := env("CHESS_HTTP_ADDR"); v != "" {
		cfg.HTTPAddr = v
	}
	if v := env("REDIS_URL"); v != "" {
		cfg.RedisURL = v
	}
	cfg.DatabaseURL = env("DATABASE_URL")
	cfg.MessagesDir = env("CHESS_MESSAGES_DIR")
	if v := env("CHESS_SERVER_URL"); v != "" {
		cfg.ServerURL = strings.TrimRight(v, "/")
	}

	if v := env("CHESS_DEFAULT_DIFFICULTY"); v != "" {
		d, err := bot.ParseDifficulty(v)
		if err != nil {
			return nil, fmt.Errorf("CHESS_DEFAULT_DIFFICULTY: %w", err)
		}
		cfg.DefaultDifficulty = d
	}

	durations := []struct {
		key string
		dst *time.Duration
	}{
		{"CHESS_CLOCK_INITIAL", &cfg.ClockInitial},
		{"CHESS_SESSION_TTL", &cfg.SessionTTL},
		{"CHESS_BOT_TIMEOUT", &cfg.BotTimeout},
		{"PVP_GAME_TTL", &cfg.GameTTL},
		{"PVP_LOBBY_TTL", &cfg.LobbyTTL},
	}
	for _, d := range durations {
		v := env(d.key)
		if v == "" {
			continue
		}
		parsed, err := parseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", d.key, err)
		}
		*d.dst = parsed
	}

	if v := env("CHESS_BOT_DEFERRED"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return nil, fmt.Errorf("CHESS_BOT_DEFERRED: %w", err)
		}
		cfg.BotDeferred = b
	}
	if v := env("CHESS_HISTORY_LIMIT"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return nil, fmt.Errorf("CHESS_HISTORY_LIMIT: want a positive integer, got %q", v)
		}
		cfg.HistoryLimit = n
	}

	return cfg, nil
}

// parseDuration accepts Go durations ("90s", "1h") or plain seconds.
func parseDuration(v string) (time.Duration, error) {
	if n, err := strconv.Atoi(v); err == nil {
		if n < 0 {
			return 0, fmt.Errorf("negative duration %q", v)
		}
		return time.Duration(n) * time.Second, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, err
	}
	if d < 0 {
		return 0, fmt.Errorf("negative duration %q", v)
	}
	return d, nil
}

func env(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}
