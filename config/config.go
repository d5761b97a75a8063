package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config collects everything the server reads from the environment.
type Config struct {
	Port         string
	CallInterval time.Duration
	ReaperGrace  time.Duration
	DatabaseURL  string
}

// Load reads .env (if present) and the environment. Everything has a
// default except DATABASE_URL, which is optional: without it the game
// archive is disabled and the server runs purely in-memory.
func Load() Config {
	if err := godotenv.Load(); err != nil {
		log.Println("[INFO] No .env file found, reading environment variables")
	}

	return Config{
		Port:         envOr("PORT", "5000"),
		CallInterval: time.Duration(envInt("CALL_INTERVAL_SECONDS", 3)) * time.Second,
		ReaperGrace:  time.Duration(envInt("ROOM_REAPER_GRACE_SECONDS", 120)) * time.Second,
		DatabaseURL:  os.Getenv("DATABASE_URL"),
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		log.Printf("[WARN] invalid %s=%q, using %d", key, v, fallback)
		return fallback
	}
	return n
}
