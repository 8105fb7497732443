package config

import (
	"testing"
	"time"

	"github.com/robalobadob/minesweeper/internal/game"
)

func TestFromEnvDefaults(t *testing.T) {
	for _, k := range []string{"PORT", "GAME_STORE", "JWT_EXPIRES_DAYS", "MINE_EXCLUSION", "NODE_ENV", "COOKIE_NAME"} {
		t.Setenv(k, "")
	}
	cfg, err := FromEnv()
	if err != nil {
		t.Fatalf("FromEnv failed: %v", err)
	}
	if cfg.Port != "5175" || cfg.GameStore != "sqlite" || cfg.Exclusion != game.ExcludeCross {
		t.Fatalf("Unexpected defaults: %+v", cfg)
	}
	if cfg.JWTExpiry != 14*24*time.Hour || cfg.Production || cfg.CookieName != "minesweeper_token" {
		t.Fatalf("Unexpected defaults: %+v", cfg)
	}
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("PORT", "8080")
	t.Setenv("GAME_STORE", "memory")
	t.Setenv("JWT_EXPIRES_DAYS", "2")
	t.Setenv("MINE_EXCLUSION", "cell")
	t.Setenv("NODE_ENV", "production")
	cfg, err := FromEnv()
	if err != nil {
		t.Fatalf("FromEnv failed: %v", err)
	}
	if cfg.Port != "8080" || cfg.GameStore != "memory" || cfg.Exclusion != game.ExcludeCell {
		t.Fatalf("Overrides ignored: %+v", cfg)
	}
	if cfg.JWTExpiry != 48*time.Hour || !cfg.Production {
		t.Fatalf("Overrides ignored: %+v", cfg)
	}
}

func TestFromEnvRejectsBadValues(t *testing.T) {
	cases := map[string][2]string{
		"store":     {"GAME_STORE", "redis"},
		"expiry":    {"JWT_EXPIRES_DAYS", "soon"},
		"exclusion": {"MINE_EXCLUSION", "row"},
	}
	for name, kv := range cases {
		t.Run(name, func(t *testing.T) {
			t.Setenv(kv[0], kv[1])
			if _, err := FromEnv(); err == nil {
				t.Fatalf("FromEnv accepted %s=%s", kv[0], kv[1])
			}
		})
	}
}
