// internal/httpserver/server.go
//
// HTTP server wiring for the Minesweeper backend.
// Responsibilities:
//   - Router + middleware (request IDs, access log, JSON, CORS, timeouts, panic recovery).
//   - Public endpoints: "/", "/health", "/presets".
//   - Game endpoints (optional auth): mounted by routes_game.go.
//   - Daily board endpoints (optional auth): mounted by routes_daily.go.
//   - Auth + history endpoints: mounted by auth.go.
//
// Notes:
//   - CORS is origin-aware and credentials-enabled (so cookies work).
//   - Commands against one game are serialized by a per-game lock; the board
//     engine itself is not safe for concurrent use.

package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/hlog"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/minesweeper/internal/config"
	"github.com/robalobadob/minesweeper/internal/game"
	"github.com/robalobadob/minesweeper/internal/presets"
	"github.com/robalobadob/minesweeper/internal/store"
)

// Server bundles router, stores and configuration.
type Server struct {
	r     *chi.Mux
	cfg   config.Config
	games store.Store
	users store.UserStore
	locks *gameLocks
	now   func() time.Time
}

// New constructs a Server, installs middleware, and registers routes.
func New(cfg config.Config, games store.Store, users store.UserStore) *Server {
	s := &Server{
		r:     chi.NewRouter(),
		cfg:   cfg,
		games: games,
		users: users,
		locks: newGameLocks(),
		now:   time.Now,
	}

	// --- middleware ---
	s.r.Use(chimw.RequestID)                 // add X-Request-ID
	s.r.Use(chimw.RealIP)                    // set RemoteAddr from X-Forwarded-For etc.
	s.r.Use(hlog.NewHandler(log.Logger))     // request-scoped logger
	s.r.Use(accessLog)                       // one line per request
	s.r.Use(chimw.Recoverer)                 // recover from panics
	s.r.Use(chimw.Timeout(10 * time.Second)) // bound handler time
	s.r.Use(jsonContentType)                 // default JSON responses
	s.r.Use(cors(cfg.ClientOrigin))          // credentials-friendly CORS

	// --- diagnostics ---
	s.r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"service":"minesweeper-go","endpoints":["/health","/presets","POST /game/new","POST /game/reveal","POST /game/flag","POST /game/reset","GET /game/{id}","/daily/*","/auth/*"]}`))
	})
	s.r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"ok":true}`))
	})
	s.r.Get("/presets", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"default": presets.Default(s.cfg.DefaultPreset).Name,
			"presets": presets.All(),
		})
	})

	// Game endpoints: optional auth (guests can play)
	s.mountGame(s.r.With(s.withOptionalAuth()))

	// Daily board: optional auth
	s.mountDaily(s.r.With(s.withOptionalAuth()))

	// Auth + history
	s.mountAuthRoutes()

	// JSON 404 for easier debugging
	s.r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"not_found","path":"`+r.URL.Path+`"}`, http.StatusNotFound)
	})

	return s
}

// Start begins serving HTTP on addr.
func (s *Server) Start(addr string) error { return http.ListenAndServe(addr, s.r) }

// Router exposes the internal router (useful for tests).
func (s *Server) Router() chi.Router { return s.r }

// ----------------------------- middleware ----------------------------------

// accessLog writes one structured line per request through the hlog logger.
var accessLog = hlog.AccessHandler(func(r *http.Request, status, size int, d time.Duration) {
	hlog.FromRequest(r).Info().
		Str("reqId", chimw.GetReqID(r.Context())).
		Str("method", r.Method).
		Str("path", r.URL.Path).
		Int("status", status).
		Int("size", size).
		Dur("duration", d).
		Msg("request")
})

// jsonContentType sets a default JSON Content-Type header on all responses.
func jsonContentType(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		next.ServeHTTP(w, r)
	})
}

// cors enables credentialed CORS for a single origin.
func cors(origin string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Vary", "Origin")
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Credentials", "true")
			w.Header().Set("Access-Control-Allow-Methods", "GET,POST,OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// ------------------------------ errors -------------------------------------

// writeError maps engine and store errors onto JSON error responses.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, game.ErrOutOfRange):
		http.Error(w, `{"error":"out_of_range"}`, http.StatusBadRequest)
	case errors.Is(err, game.ErrInvalidConfiguration):
		http.Error(w, `{"error":"invalid_configuration"}`, http.StatusBadRequest)
	case errors.Is(err, store.ErrNotFound):
		http.Error(w, `{"error":"not_found"}`, http.StatusNotFound)
	default:
		hlog.FromRequest(r).Error().Err(err).Msg("request failed")
		http.Error(w, `{"error":"server_error"}`, http.StatusInternalServerError)
	}
}

// ------------------------------ game locks ---------------------------------

// gameLocks hands out one mutex per game ID, dropping it once unused.
type gameLocks struct {
	mu sync.Mutex
	m  map[string]*lockEntry
}

type lockEntry struct {
	mu   sync.Mutex
	refs int
}

func newGameLocks() *gameLocks {
	return &gameLocks{m: make(map[string]*lockEntry)}
}

// lock blocks until id is free and returns the matching unlock.
func (l *gameLocks) lock(id string) func() {
	l.mu.Lock()
	e, ok := l.m[id]
	if !ok {
		e = &lockEntry{}
		l.m[id] = e
	}
	e.refs++
	l.mu.Unlock()

	e.mu.Lock()
	return func() {
		e.mu.Unlock()
		l.mu.Lock()
		if e.refs--; e.refs == 0 {
			delete(l.m, id)
		}
		l.mu.Unlock()
	}
}

// ------------------------------ event log ----------------------------------

// eventSink logs every board notification of one game at debug level.
func eventSink(gameID string) game.Sink {
	return game.SinkFunc(func(e game.Event) {
		ev := log.Debug().Str("gameId", gameID).Str("kind", string(e.Kind))
		switch e.Kind {
		case game.EventCellRevealed:
			ev = ev.Int("row", e.Row).Int("col", e.Col).Int("adjacent", e.Adjacent)
		case game.EventMineRevealed:
			ev = ev.Int("row", e.Row).Int("col", e.Col).Bool("exploded", e.Exploded).Bool("defused", e.Defused)
		case game.EventCellFlagged:
			ev = ev.Int("row", e.Row).Int("col", e.Col).Bool("flagged", e.Flagged)
		case game.EventGameOver:
			ev = ev.Bool("won", e.Won)
		}
		ev.Msg("board event")
	})
}
