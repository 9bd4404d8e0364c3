package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds everything the server reads from the environment.
type Config struct {
	Addr      string
	DBPath    string
	JWTSecret string
	TokenTTL  time.Duration

	// Soft-deleted notes older than this are purged for good.
	PurgeAfter time.Duration
}

// Load reads .env files if present, then the environment, falling back
// to development defaults.
func Load() Config {
	_ = godotenv.Load(".env")
	_ = godotenv.Load(".env.local")

	return Config{
		Addr:       getenv("BRONOTION_ADDR", ":8080"),
		DBPath:     getenv("BRONOTION_DB_PATH", "./data/bronotion.db"),
		JWTSecret:  getenv("BRONOTION_JWT_SECRET", "dev-secret-change-in-production"),
		TokenTTL:   time.Duration(getenvInt("BRONOTION_TOKEN_TTL_HOURS", 24)) * time.Hour,
		PurgeAfter: time.Duration(getenvInt("BRONOTION_PURGE_AFTER_DAYS", 30)) * 24 * time.Hour,
	}
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getenvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}
