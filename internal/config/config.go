// Package config holds the fixed constants of the bot and the
// environment-backed runtime configuration.
package config

import (
	"fmt"
	"os"
	"strconv"
)

const (
	// MediaAlbumCap is the most attachments one Telegram media group can
	// carry; extra buffered attachments are silently dropped when posting.
	MediaAlbumCap = 10
	// MineListLimit caps the /mine listing.
	MineListLimit = 10
	// GroupListLimit caps the staff group listings (/free, /active, ...).
	GroupListLimit = 20
	// DescriptionPreviewLen is where list entries truncate the description.
	DescriptionPreviewLen = 60
)

// Categories is the fixed set a complaint must belong to. The literal value
// is both the button label and the stored category.
var Categories = []string{
	"Вода", "Свет", "Газ", "Канализация", "Мусор",
	"Дороги", "Лифт", "Благоустройство", "Шум", "Животные", "Другое",
}

// IsCategory reports whether value is one of the fixed categories.
func IsCategory(value string) bool {
	for _, c := range Categories {
		if c == value {
			return true
		}
	}
	return false
}

// Config is everything the process reads from the environment. Load it
// after godotenv has populated os.Environ.
type Config struct {
	BotToken    string
	GroupChatID int64 // 0 disables group posting
	DBPath      string
	DatabaseURL string
	RedisAddr   string
	APIAddr     string
	JWTSecret   string
}

// Load reads the environment. Only the bot token is fatal to miss; a missing
// group chat id is reported by the caller as a posting-disabled condition,
// not a process failure.
func Load() (*Config, error) {
	cfg := &Config{
		BotToken:    os.Getenv("TELEGRAM_BOT_TOKEN"),
		DBPath:      os.Getenv("DB_PATH"),
		DatabaseURL: os.Getenv("DATABASE_URL"),
		RedisAddr:   os.Getenv("REDIS_ADDR"),
		APIAddr:     os.Getenv("API_ADDR"),
		JWTSecret:   os.Getenv("JWT_SECRET"),
	}
	if cfg.BotToken == "" {
		return nil, fmt.Errorf("TELEGRAM_BOT_TOKEN is not set")
	}
	if cfg.DBPath == "" {
		cfg.DBPath = "complaints.db"
	}
	if cfg.APIAddr == "" {
		cfg.APIAddr = ":8080"
	}

	if raw := os.Getenv("GROUP_CHAT_ID"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid GROUP_CHAT_ID %q: %w", raw, err)
		}
		cfg.GroupChatID = id
	}
	return cfg, nil
}
