// internal/httpserver/routes_game.go
//
// Game endpoints:
//   - POST /game/new     → create a board (preset, custom size/mines, or daily seed)
//   - POST /game/reveal  → reveal a cell
//   - POST /game/flag    → toggle a flag
//   - POST /game/reset   → clear the board
//   - GET  /game/{id}    → current board view
//
// Every command answers with the events the engine emitted, the game state
// and the flagged-mine count.

package httpserver

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/hlog"

	"github.com/robalobadob/minesweeper/internal/daily"
	"github.com/robalobadob/minesweeper/internal/game"
	"github.com/robalobadob/minesweeper/internal/presets"
)

// mountGame registers all /game routes.
func (s *Server) mountGame(r chi.Router) {
	r.Route("/game", func(r chi.Router) {
		r.Post("/new", s.handleNewGame)
		r.Post("/reveal", s.handleMove(game.MoveReveal))
		r.Post("/flag", s.handleMove(game.MoveFlag))
		r.Post("/reset", s.handleMove(game.MoveReset))
		r.Get("/{id}", s.handleGetGame)
	})
}

// newGameReq is the payload for POST /game/new. Size and Mines together
// describe a custom board and take precedence over Preset.
type newGameReq struct {
	Preset    string `json:"preset"`
	Size      *int   `json:"size"`
	Mines     *int   `json:"mines"`
	Daily     bool   `json:"daily"`
	Exclusion string `json:"exclusion"`
}

type newGameRes struct {
	GameID    string         `json:"gameId"`
	Size      int            `json:"size"`
	Mines     int            `json:"mines"`
	Exclusion game.Exclusion `json:"exclusion"`
	Preset    string         `json:"preset,omitempty"`
	Daily     string         `json:"daily,omitempty"`
}

// handleNewGame creates and persists a game. An empty body starts the
// default preset.
func (s *Server) handleNewGame(w http.ResponseWriter, r *http.Request) {
	var req newGameReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		http.Error(w, `{"error":"bad_json"}`, http.StatusBadRequest)
		return
	}

	cfg := game.Config{Owner: ownerID(r)}
	switch {
	case req.Size != nil || req.Mines != nil:
		if req.Size == nil || req.Mines == nil {
			http.Error(w, `{"error":"invalid_configuration"}`, http.StatusBadRequest)
			return
		}
		cfg.Size, cfg.Mines = *req.Size, *req.Mines
	case req.Preset != "":
		p, ok := presets.Lookup(req.Preset)
		if !ok {
			http.Error(w, `{"error":"unknown_preset"}`, http.StatusBadRequest)
			return
		}
		cfg.Size, cfg.Mines, cfg.Preset = p.Size, p.Mines, p.Name
	default:
		p := presets.Default(s.cfg.DefaultPreset)
		cfg.Size, cfg.Mines, cfg.Preset = p.Size, p.Mines, p.Name
	}

	cfg.Exclusion = s.cfg.Exclusion
	if req.Exclusion != "" {
		ex, ok := game.ParseExclusion(req.Exclusion)
		if !ok {
			http.Error(w, `{"error":"invalid_configuration"}`, http.StatusBadRequest)
			return
		}
		cfg.Exclusion = ex
	}

	if req.Daily {
		s.applyDaily(&cfg, s.now())
	}

	g, err := s.createGame(r, cfg)
	if err != nil {
		writeError(w, r, err)
		return
	}
	_ = json.NewEncoder(w).Encode(newGameResFor(g))
}

// applyDaily seeds cfg with the layout shared by every player on t's date.
func (s *Server) applyDaily(cfg *game.Config, t time.Time) {
	seed := daily.Seed(t, s.cfg.DailySalt)
	cfg.Seed = &seed
	cfg.Daily = daily.DateKey(t)
}

// createGame builds, persists and logs a new game.
func (s *Server) createGame(r *http.Request, cfg game.Config) (*game.Game, error) {
	g, err := game.NewGame(cfg)
	if err != nil {
		return nil, err
	}
	g.Board.SetSink(eventSink(g.ID))
	if err := s.games.Save(r.Context(), g); err != nil {
		return nil, err
	}
	hlog.FromRequest(r).Info().
		Str("gameId", g.ID).
		Int("size", cfg.Size).
		Int("mines", cfg.Mines).
		Str("exclusion", string(g.Board.Exclusion())).
		Str("daily", g.Daily).
		Msg("game created")
	return g, nil
}

func newGameResFor(g *game.Game) newGameRes {
	return newGameRes{
		GameID:    g.ID,
		Size:      g.Board.Size(),
		Mines:     g.Board.Mines(),
		Exclusion: g.Board.Exclusion(),
		Preset:    g.Preset,
		Daily:     g.Daily,
	}
}

// moveReq is the payload for reveal/flag/reset. Row and Col are ignored by reset.
type moveReq struct {
	GameID string `json:"gameId"`
	Row    int    `json:"row"`
	Col    int    `json:"col"`
}

type moveRes struct {
	Events       []game.Event `json:"events"`
	State        game.Status  `json:"state"` // "playing" | "won" | "lost"
	MinesFlagged int          `json:"minesFlagged"`
}

// handleMove applies one move to a stored game and persists the result.
func (s *Server) handleMove(t game.MoveType) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req moveReq
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || strings.TrimSpace(req.GameID) == "" {
			http.Error(w, `{"error":"bad_json"}`, http.StatusBadRequest)
			return
		}

		unlock := s.locks.lock(req.GameID)
		defer unlock()

		g, err := s.games.Get(r.Context(), req.GameID)
		if err != nil {
			writeError(w, r, err)
			return
		}
		g.Board.SetSink(eventSink(g.ID))
		events, state, err := g.Apply(game.Move{Type: t, Row: req.Row, Col: req.Col})
		if err != nil {
			writeError(w, r, err)
			return
		}
		if err := s.games.Save(r.Context(), g); err != nil {
			writeError(w, r, err)
			return
		}
		if state != game.StatusPlaying && len(events) > 0 {
			hlog.FromRequest(r).Info().Str("gameId", g.ID).Str("state", string(state)).Msg("game over")
		}

		if events == nil {
			events = []game.Event{}
		}
		_ = json.NewEncoder(w).Encode(moveRes{Events: events, State: state, MinesFlagged: g.Board.MinesFlagged()})
	}
}

// boardView is the client-facing board. Cells use the snapshot alphabet
// with hidden state masked: '.' unopened, 'f' flagged, '0'..'8' revealed.
// Once the game is over, mines are shown as 'm' (unflagged) or 'd' (flagged).
type boardView struct {
	GameID       string         `json:"gameId"`
	Size         int            `json:"size"`
	Mines        int            `json:"mines"`
	MinesFlagged int            `json:"minesFlagged"`
	State        game.Status    `json:"state"`
	Exclusion    game.Exclusion `json:"exclusion"`
	Preset       string         `json:"preset,omitempty"`
	Daily        string         `json:"daily,omitempty"`
	Rows         []string       `json:"rows"`
}

func (s *Server) handleGetGame(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	unlock := s.locks.lock(id)
	defer unlock()

	g, err := s.games.Get(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	_ = json.NewEncoder(w).Encode(viewOf(g))
}

func viewOf(g *game.Game) boardView {
	b := g.Board
	snap := b.Snapshot()
	over := snap.Status != game.StatusPlaying
	rows := make([]string, len(snap.Rows))
	for i, row := range snap.Rows {
		masked := []byte(row)
		for j, ch := range masked {
			switch {
			case ch == 'm' && !over:
				masked[j] = '.'
			case ch == 'd' && !over:
				masked[j] = 'f'
			}
		}
		rows[i] = string(masked)
	}
	return boardView{
		GameID:       g.ID,
		Size:         b.Size(),
		Mines:        b.Mines(),
		MinesFlagged: b.MinesFlagged(),
		State:        b.Status(),
		Exclusion:    b.Exclusion(),
		Preset:       g.Preset,
		Daily:        g.Daily,
		Rows:         rows,
	}
}
