// main.go
//
// Entry point of the Minesweeper server: loads configuration, sets up
// logging, picks the game store and starts the HTTP server.

package main

import (
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/minesweeper/internal/config"
	"github.com/robalobadob/minesweeper/internal/httpserver"
	"github.com/robalobadob/minesweeper/internal/presets"
	"github.com/robalobadob/minesweeper/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}
	if lvl, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		zerolog.SetGlobalLevel(lvl)
	}
	if !cfg.Production {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}

	if err := presets.Init(); err != nil {
		log.Fatal().Err(err).Msg("failed to load presets")
	}

	var (
		games store.Store
		users store.UserStore
	)
	switch cfg.GameStore {
	case "memory":
		games, users = store.NewMemoryStore(), store.NewMemoryUserStore()
	default:
		db, err := openDB(cfg.DBPath)
		if err != nil {
			log.Fatal().Err(err).Str("path", cfg.DBPath).Msg("open database")
		}
		defer db.Close()
		if err := migrate(db); err != nil {
			log.Fatal().Err(err).Msg("migrate database")
		}
		sq := store.NewSQLiteStore(db)
		games, users = sq, sq
	}

	srv := httpserver.New(cfg, games, users)
	log.Info().
		Str("port", cfg.Port).
		Str("store", cfg.GameStore).
		Str("exclusion", string(cfg.Exclusion)).
		Msg("starting minesweeper server")
	if err := srv.Start(":" + cfg.Port); err != nil {
		log.Fatal().Err(err).Msg("server exited")
	}
}
