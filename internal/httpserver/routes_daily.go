// internal/httpserver/routes_daily.go
//
// HTTP routes for the daily board.
// Exposes two endpoints under /daily:
//   - GET  /daily      → today's date key and board configuration
//   - POST /daily/new  → start today's board (reuses the player's session)
//
// Every player gets the same mine layout for a given date and first click;
// the seed is derived from date + salt. Each player (signed-in user or
// anonymous cookie) keeps one daily game per date; asking again returns it.

package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"

	"github.com/robalobadob/minesweeper/internal/game"
	"github.com/robalobadob/minesweeper/internal/presets"
	"github.com/robalobadob/minesweeper/internal/store"
)

// dailyServer wraps dependencies for /daily endpoints.
type dailyServer struct {
	srv      *Server
	sessions map[string]dailySession // keyed by playerID|date
	mu       sync.Mutex              // guards sessions
}

// dailySession maps a player's day onto the game they are playing.
type dailySession struct {
	GameID string
	Date   string
}

// mountDaily registers all /daily routes.
func (s *Server) mountDaily(r chi.Router) {
	dd := &dailyServer{srv: s, sessions: make(map[string]dailySession)}
	r.Route("/daily", func(r chi.Router) {
		r.Get("/", dd.handleToday)
		r.Post("/new", dd.handleNew)
	})
}

// config returns today's daily board configuration.
func (d *dailyServer) config() (game.Config, presets.Preset) {
	p := presets.Default(d.srv.cfg.DefaultPreset)
	cfg := game.Config{Size: p.Size, Mines: p.Mines, Preset: p.Name, Exclusion: d.srv.cfg.Exclusion}
	d.srv.applyDaily(&cfg, d.srv.now())
	return cfg, p
}

type todayRes struct {
	Date   string         `json:"date"`
	Preset presets.Preset `json:"preset"`
}

func (d *dailyServer) handleToday(w http.ResponseWriter, r *http.Request) {
	cfg, p := d.config()
	_ = json.NewEncoder(w).Encode(todayRes{Date: cfg.Daily, Preset: p})
}

// dailyNewRes is returned by /daily/new.
type dailyNewRes struct {
	newGameRes
	Resumed bool `json:"resumed"`
}

// handleNew creates or reuses the player's daily game for the current date.
func (d *dailyServer) handleNew(w http.ResponseWriter, r *http.Request) {
	player := ownerID(r)
	if player == "" {
		player = "anon:" + d.srv.ensureAnonID(w, r)
	}
	cfg, _ := d.config()
	cfg.Owner = ownerID(r)
	key := player + "|" + cfg.Daily

	d.mu.Lock()
	defer d.mu.Unlock()

	if sess, ok := d.sessions[key]; ok {
		g, err := d.srv.games.Get(r.Context(), sess.GameID)
		if err == nil {
			_ = json.NewEncoder(w).Encode(dailyNewRes{newGameRes: newGameResFor(g), Resumed: true})
			return
		}
		if !errors.Is(err, store.ErrNotFound) {
			writeError(w, r, err)
			return
		}
	}

	g, err := d.srv.createGame(r, cfg)
	if err != nil {
		writeError(w, r, err)
		return
	}
	d.prune(cfg.Daily)
	d.sessions[key] = dailySession{GameID: g.ID, Date: cfg.Daily}
	_ = json.NewEncoder(w).Encode(dailyNewRes{newGameRes: newGameResFor(g)})
}

// prune drops sessions from other dates. Caller holds d.mu.
func (d *dailyServer) prune(today string) {
	for k, sess := range d.sessions {
		if sess.Date != today {
			delete(d.sessions, k)
		}
	}
}
