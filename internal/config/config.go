// internal/config/config.go
//
// Process configuration read from the environment.
// A `.env` file in the working directory is loaded first (godotenv) and
// never overrides variables already set.
//
// Variables (defaults in brackets):
//   PORT [5175]  LOG_LEVEL [info]  DB_PATH [./data/minesweeper.db]
//   GAME_STORE [sqlite|memory]  JWT_SECRET [dev_secret_change_me]
//   JWT_EXPIRES_DAYS [14]  COOKIE_NAME [minesweeper_token]
//   CLIENT_ORIGIN [http://localhost:5173]  NODE_ENV [development]
//   DAILY_SALT [minesweeper-daily]  DEFAULT_PRESET [beginner]
//   MINE_EXCLUSION [cross]  PRESETS_FILE (read by internal/presets)

package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/robalobadob/minesweeper/internal/game"
)

// Config holds every setting the server needs.
type Config struct {
	Port          string
	LogLevel      string
	DBPath        string
	GameStore     string // "sqlite" | "memory"
	JWTSecret     string
	JWTExpiry     time.Duration
	CookieName    string
	ClientOrigin  string
	Production    bool
	DailySalt     string
	DefaultPreset string
	Exclusion     game.Exclusion
}

// Load reads .env (if present) and the environment.
func Load() (Config, error) {
	_ = godotenv.Load()
	return FromEnv()
}

// FromEnv builds a Config from the current environment only.
func FromEnv() (Config, error) {
	cfg := Config{
		Port:          getEnv("PORT", "5175"),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		DBPath:        getEnv("DB_PATH", "./data/minesweeper.db"),
		GameStore:     getEnv("GAME_STORE", "sqlite"),
		JWTSecret:     getEnv("JWT_SECRET", "dev_secret_change_me"),
		CookieName:    getEnv("COOKIE_NAME", "minesweeper_token"),
		ClientOrigin:  getEnv("CLIENT_ORIGIN", "http://localhost:5173"),
		Production:    os.Getenv("NODE_ENV") == "production",
		DailySalt:     getEnv("DAILY_SALT", "minesweeper-daily"),
		DefaultPreset: getEnv("DEFAULT_PRESET", "beginner"),
	}

	days := 14
	if v := os.Getenv("JWT_EXPIRES_DAYS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return Config{}, fmt.Errorf("config: JWT_EXPIRES_DAYS must be a positive integer (got %q)", v)
		}
		days = n
	}
	cfg.JWTExpiry = time.Duration(days) * 24 * time.Hour

	switch cfg.GameStore {
	case "sqlite", "memory":
	default:
		return Config{}, fmt.Errorf("config: GAME_STORE must be sqlite or memory (got %q)", cfg.GameStore)
	}

	ex, ok := game.ParseExclusion(os.Getenv("MINE_EXCLUSION"))
	if !ok {
		return Config{}, fmt.Errorf("config: MINE_EXCLUSION must be cross or cell (got %q)", os.Getenv("MINE_EXCLUSION"))
	}
	cfg.Exclusion = ex
	return cfg, nil
}

// getEnv returns the value of k or def if unset/empty.
func getEnv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
