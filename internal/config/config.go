package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// SeedUser is one entry of the fixed user set.
type SeedUser struct {
	Username string
	Role     string
}

// Config keeps runtime settings for the service.
type Config struct {
	DatabaseURL       string
	HTTPAddr          string
	LogLevel          string
	TelegramToken     string
	TelegramChatID    int64
	DigestTime        string // HH:MM, empty disables the daily digest
	ReconcileInterval time.Duration
	Users             []SeedUser
}

// Load reads configuration from a local .env (if present) and environment
// variables with sane defaults.
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		DatabaseURL:       strings.TrimSpace(os.Getenv("DATABASE_URL")),
		HTTPAddr:          strings.TrimSpace(os.Getenv("HTTP_ADDR")),
		LogLevel:          strings.TrimSpace(os.Getenv("LOG_LEVEL")),
		TelegramToken:     strings.TrimSpace(os.Getenv("TELEGRAM_TOKEN")),
		DigestTime:        strings.TrimSpace(os.Getenv("DIGEST_TIME")),
		ReconcileInterval: parseMinutes(strings.TrimSpace(os.Getenv("RECONCILE_INTERVAL_MINUTES"))),
	}

	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = "routinelink.db"
	}
	if cfg.HTTPAddr == "" {
		cfg.HTTPAddr = ":8080"
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	if cfg.ReconcileInterval == 0 {
		cfg.ReconcileInterval = time.Minute
	}

	if raw := strings.TrimSpace(os.Getenv("TELEGRAM_CHAT_ID")); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return cfg, fmt.Errorf("invalid TELEGRAM_CHAT_ID %q: %w", raw, err)
		}
		cfg.TelegramChatID = id
	}
	if cfg.TelegramToken != "" && cfg.TelegramChatID == 0 {
		return cfg, fmt.Errorf("TELEGRAM_CHAT_ID is required when TELEGRAM_TOKEN is set")
	}

	users, err := parseUsers(strings.TrimSpace(os.Getenv("USERS")))
	if err != nil {
		return cfg, err
	}
	cfg.Users = users

	return cfg, nil
}

// parseUsers reads the fixed user set from "name:role,name" form. The first
// user defaults to admin when no roles are given.
func parseUsers(raw string) ([]SeedUser, error) {
	if raw == "" {
		return []SeedUser{{Username: "admin", Role: "admin"}}, nil
	}
	var users []SeedUser
	for _, entry := range strings.Split(raw, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		name, role, _ := strings.Cut(entry, ":")
		name = strings.TrimSpace(name)
		role = strings.TrimSpace(role)
		if name == "" {
			return nil, fmt.Errorf("invalid USERS entry %q", entry)
		}
		if role == "" {
			role = "member"
		}
		if role != "admin" && role != "member" {
			return nil, fmt.Errorf("invalid role %q for user %q", role, name)
		}
		users = append(users, SeedUser{Username: name, Role: role})
	}
	if len(users) == 0 {
		return nil, fmt.Errorf("USERS is set but empty")
	}
	return users, nil
}

func parseMinutes(raw string) time.Duration {
	if raw == "" {
		return 0
	}
	minutes, err := strconv.Atoi(raw)
	if err != nil || minutes <= 0 {
		return 0
	}
	return time.Duration(minutes) * time.Minute
}
