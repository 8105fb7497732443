package httpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/robalobadob/minesweeper/internal/config"
	"github.com/robalobadob/minesweeper/internal/game"
	"github.com/robalobadob/minesweeper/internal/presets"
	"github.com/robalobadob/minesweeper/internal/store"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	if err := presets.Init(); err != nil {
		t.Fatalf("Failed to load presets: %v", err)
	}
	cfg := config.Config{
		JWTSecret:     "test-secret",
		JWTExpiry:     time.Hour,
		CookieName:    "test_token",
		ClientOrigin:  "http://localhost:5173",
		DailySalt:     "salt",
		DefaultPreset: "beginner",
		Exclusion:     game.ExcludeCross,
	}
	return New(cfg, store.NewMemoryStore(), store.NewMemoryUserStore())
}

func do(t *testing.T, s *Server, method, path string, body any, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if raw, ok := body.(string); ok {
			buf.WriteString(raw)
		} else if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("Failed to encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(rec.Body).Decode(&v); err != nil {
		t.Fatalf("Failed to decode %q: %v", rec.Body.String(), err)
	}
	return v
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	return decode[map[string]string](t, rec)["error"]
}

// newCustom creates a custom board and returns its ID.
func newCustom(t *testing.T, s *Server, size, mines int) string {
	t.Helper()
	rec := do(t, s, http.MethodPost, "/game/new", map[string]any{"size": size, "mines": mines})
	if rec.Code != http.StatusOK {
		t.Fatalf("POST /game/new: %d %s", rec.Code, rec.Body.String())
	}
	return decode[newGameRes](t, rec).GameID
}

// mineAt returns the coordinates of one mine of a generated game.
func mineAt(t *testing.T, s *Server, id string) (int, int) {
	t.Helper()
	g, err := s.games.Get(context.Background(), id)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	for r, row := range g.Board.Snapshot().Rows {
		if c := strings.IndexAny(row, "md"); c >= 0 {
			return r, c
		}
	}
	t.Fatalf("Game %s has no mines", id)
	return 0, 0
}

func move(t *testing.T, s *Server, kind, id string, row, col int) moveRes {
	t.Helper()
	rec := do(t, s, http.MethodPost, "/game/"+kind, moveReq{GameID: id, Row: row, Col: col})
	if rec.Code != http.StatusOK {
		t.Fatalf("POST /game/%s: %d %s", kind, rec.Code, rec.Body.String())
	}
	return decode[moveRes](t, rec)
}

func countKind(events []game.Event, k game.EventKind) int {
	n := 0
	for _, e := range events {
		if e.Kind == k {
			n++
		}
	}
	return n
}

func TestHealthAndPresets(t *testing.T) {
	s := newTestServer(t)
	if rec := do(t, s, http.MethodGet, "/health", nil); rec.Code != http.StatusOK {
		t.Fatalf("GET /health: %d", rec.Code)
	}
	rec := do(t, s, http.MethodGet, "/presets", nil)
	body := decode[struct {
		Default string           `json:"default"`
		Presets []presets.Preset `json:"presets"`
	}](t, rec)
	if body.Default != "beginner" || len(body.Presets) == 0 {
		t.Fatalf("Unexpected presets response: %+v", body)
	}
	if rec := do(t, s, http.MethodGet, "/nope", nil); rec.Code != http.StatusNotFound {
		t.Fatalf("Expected 404, got %d", rec.Code)
	}
}

func TestNewGameDefaultsToPreset(t *testing.T) {
	s := newTestServer(t)
	rec := do(t, s, http.MethodPost, "/game/new", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("POST /game/new: %d %s", rec.Code, rec.Body.String())
	}
	res := decode[newGameRes](t, rec)
	if res.Preset != "beginner" || res.Size != 9 || res.Mines != 10 || res.Exclusion != game.ExcludeCross {
		t.Fatalf("Unexpected game: %+v", res)
	}

	rec = do(t, s, http.MethodGet, "/game/"+res.GameID, nil)
	view := decode[boardView](t, rec)
	if view.State != game.StatusPlaying || len(view.Rows) != 9 {
		t.Fatalf("Unexpected view: %+v", view)
	}
	for _, row := range view.Rows {
		if row != strings.Repeat(".", 9) {
			t.Fatalf("Fresh board is not hidden: %v", view.Rows)
		}
	}

	rec = do(t, s, http.MethodPost, "/game/new", map[string]any{"preset": "expert", "exclusion": "cell"})
	res = decode[newGameRes](t, rec)
	if res.Preset != "expert" || res.Exclusion != game.ExcludeCell {
		t.Fatalf("Unexpected game: %+v", res)
	}
}

func TestNewGameRejectsBadRequests(t *testing.T) {
	s := newTestServer(t)
	cases := map[string]struct {
		body any
		code string
	}{
		"bad json":       {`{"size":`, "bad_json"},
		"too many mines": {map[string]any{"size": 3, "mines": 9}, "invalid_configuration"},
		"size only":      {map[string]any{"size": 3}, "invalid_configuration"},
		"zero size":      {map[string]any{"size": 0, "mines": 1}, "invalid_configuration"},
		"unknown preset": {map[string]any{"preset": "nightmare"}, "unknown_preset"},
		"bad exclusion":  {map[string]any{"exclusion": "row"}, "invalid_configuration"},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			rec := do(t, s, http.MethodPost, "/game/new", tc.body)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("Expected 400, got %d", rec.Code)
			}
			if got := errorCode(t, rec); got != tc.code {
				t.Fatalf("Expected %q, got %q", tc.code, got)
			}
		})
	}
}

func TestRevealThenLose(t *testing.T) {
	s := newTestServer(t)
	id := newCustom(t, s, 6, 3)

	res := move(t, s, "reveal", id, 0, 0)
	if res.State != game.StatusPlaying || countKind(res.Events, game.EventCellRevealed) == 0 {
		t.Fatalf("Unexpected first reveal: %+v", res)
	}
	view := decode[boardView](t, do(t, s, http.MethodGet, "/game/"+id, nil))
	for _, row := range view.Rows {
		if strings.ContainsAny(row, "md") {
			t.Fatalf("Mines leaked while playing: %v", view.Rows)
		}
	}

	r, c := mineAt(t, s, id)
	res = move(t, s, "reveal", id, r, c)
	if res.State != game.StatusLost {
		t.Fatalf("Expected lost, got %s", res.State)
	}
	if countKind(res.Events, game.EventMineRevealed) != 3 || countKind(res.Events, game.EventGameOver) != 1 {
		t.Fatalf("Unexpected loss events: %+v", res.Events)
	}

	view = decode[boardView](t, do(t, s, http.MethodGet, "/game/"+id, nil))
	if view.State != game.StatusLost || view.Rows[r][c] != 'm' {
		t.Fatalf("Mines not shown after loss: %v", view.Rows)
	}

	// The lost game ignores further commands until reset.
	if res := move(t, s, "flag", id, 0, 1); len(res.Events) != 0 || res.State != game.StatusLost {
		t.Fatalf("Command after loss changed the game: %+v", res)
	}
	res = move(t, s, "reset", id, 0, 0)
	if res.State != game.StatusPlaying || len(res.Events) != 0 || res.MinesFlagged != 0 {
		t.Fatalf("Unexpected reset: %+v", res)
	}
}

func TestFlagEveryMineWins(t *testing.T) {
	s := newTestServer(t)
	id := newCustom(t, s, 5, 1)
	move(t, s, "reveal", id, 0, 0)

	r, c := mineAt(t, s, id)
	res := move(t, s, "flag", id, r, c)
	if res.State != game.StatusWon || res.MinesFlagged != 1 {
		t.Fatalf("Expected a win: %+v", res)
	}
	if countKind(res.Events, game.EventCellFlagged) != 1 || countKind(res.Events, game.EventGameOver) != 1 {
		t.Fatalf("Unexpected win events: %+v", res.Events)
	}
	view := decode[boardView](t, do(t, s, http.MethodGet, "/game/"+id, nil))
	if view.Rows[r][c] != 'd' {
		t.Fatalf("Defused mine not shown after win: %v", view.Rows)
	}
}

func TestMoveErrors(t *testing.T) {
	s := newTestServer(t)
	id := newCustom(t, s, 4, 2)

	rec := do(t, s, http.MethodPost, "/game/reveal", moveReq{GameID: id, Row: 4, Col: 0})
	if rec.Code != http.StatusBadRequest || errorCode(t, rec) != "out_of_range" {
		t.Fatalf("Expected out_of_range, got %d %s", rec.Code, rec.Body.String())
	}
	rec = do(t, s, http.MethodPost, "/game/flag", moveReq{GameID: "missing"})
	if rec.Code != http.StatusNotFound {
		t.Fatalf("Expected 404, got %d", rec.Code)
	}
	rec = do(t, s, http.MethodPost, "/game/flag", `{}`)
	if rec.Code != http.StatusBadRequest || errorCode(t, rec) != "bad_json" {
		t.Fatalf("Expected bad_json, got %d %s", rec.Code, rec.Body.String())
	}
	if rec := do(t, s, http.MethodGet, "/game/missing", nil); rec.Code != http.StatusNotFound {
		t.Fatalf("Expected 404, got %d", rec.Code)
	}
}

func TestConcurrentMovesAreSerialized(t *testing.T) {
	s := newTestServer(t)
	id := newCustom(t, s, 9, 10)

	const n = 20
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			req := httptest.NewRequest(http.MethodPost, "/game/flag", strings.NewReader(`{"gameId":"`+id+`","row":1,"col":1}`))
			s.Router().ServeHTTP(httptest.NewRecorder(), req)
		}()
	}
	wg.Wait()

	view := decode[boardView](t, do(t, s, http.MethodGet, "/game/"+id, nil))
	if view.Rows[1][1] != '.' {
		t.Fatalf("An even number of toggles left %q", view.Rows[1][1])
	}
	if len(s.locks.m) != 0 {
		t.Fatalf("Game locks leaked: %d", len(s.locks.m))
	}
}

func TestDailyGames(t *testing.T) {
	s := newTestServer(t)
	s.now = func() time.Time { return time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC) }

	today := decode[todayRes](t, do(t, s, http.MethodGet, "/daily", nil))
	if today.Date != "2024-05-01" || today.Preset.Name != "beginner" {
		t.Fatalf("Unexpected daily info: %+v", today)
	}

	rec := do(t, s, http.MethodPost, "/daily/new", nil)
	first := decode[dailyNewRes](t, rec)
	if first.Daily != "2024-05-01" || first.Resumed {
		t.Fatalf("Unexpected daily game: %+v", first)
	}
	var anon *http.Cookie
	for _, c := range rec.Result().Cookies() {
		if c.Name == anonCookieName {
			anon = c
		}
	}
	if anon == nil {
		t.Fatalf("No anonymous cookie set")
	}
	again := decode[dailyNewRes](t, do(t, s, http.MethodPost, "/daily/new", nil, anon))
	if again.GameID != first.GameID || !again.Resumed {
		t.Fatalf("Daily session not resumed: %+v", again)
	}

	// Two daily games of the same day share the layout.
	a := decode[newGameRes](t, do(t, s, http.MethodPost, "/game/new", map[string]any{"daily": true}))
	b := decode[newGameRes](t, do(t, s, http.MethodPost, "/game/new", map[string]any{"daily": true}))
	move(t, s, "reveal", a.GameID, 4, 4)
	move(t, s, "reveal", b.GameID, 4, 4)
	ga, _ := s.games.Get(context.Background(), a.GameID)
	gb, _ := s.games.Get(context.Background(), b.GameID)
	ra, rb := ga.Board.Snapshot().Rows, gb.Board.Snapshot().Rows
	for i := range ra {
		if ra[i] != rb[i] {
			t.Fatalf("Daily layouts differ:\n%v\n%v", ra, rb)
		}
	}
}

func TestAuthFlow(t *testing.T) {
	s := newTestServer(t)
	creds := credentials{Username: "mina", Password: "correct-horse"}

	rec := do(t, s, http.MethodPost, "/auth/signup", creds)
	if rec.Code != http.StatusOK {
		t.Fatalf("Signup failed: %d %s", rec.Code, rec.Body.String())
	}
	var token *http.Cookie
	for _, c := range rec.Result().Cookies() {
		if c.Name == "test_token" {
			token = c
		}
	}
	if token == nil || token.Value == "" {
		t.Fatalf("No auth cookie set")
	}

	if rec := do(t, s, http.MethodPost, "/auth/signup", creds); rec.Code != http.StatusConflict {
		t.Fatalf("Expected 409 for duplicate signup, got %d", rec.Code)
	}
	if rec := do(t, s, http.MethodPost, "/auth/signup", credentials{Username: "x", Password: "short"}); rec.Code != http.StatusBadRequest {
		t.Fatalf("Expected 400 for invalid signup, got %d", rec.Code)
	}
	if rec := do(t, s, http.MethodPost, "/auth/login", credentials{Username: "mina", Password: "wrong-password"}); rec.Code != http.StatusUnauthorized {
		t.Fatalf("Expected 401 for bad login, got %d", rec.Code)
	}
	if rec := do(t, s, http.MethodPost, "/auth/login", creds); rec.Code != http.StatusOK {
		t.Fatalf("Login failed: %d", rec.Code)
	}

	me := decode[authUser](t, do(t, s, http.MethodGet, "/auth/me", nil, token))
	if me.Username != "mina" {
		t.Fatalf("Unexpected /auth/me: %+v", me)
	}
	if rec := do(t, s, http.MethodGet, "/auth/me", nil); rec.Code != http.StatusUnauthorized {
		t.Fatalf("Expected 401 without token, got %d", rec.Code)
	}

	owned := decode[newGameRes](t, do(t, s, http.MethodPost, "/game/new", nil, token))
	do(t, s, http.MethodPost, "/game/new", nil) // guest game, not listed

	list := decode[[]gameSummary](t, do(t, s, http.MethodGet, "/games/mine", nil, token))
	if len(list) != 1 || list[0].ID != owned.GameID || list[0].State != game.StatusPlaying {
		t.Fatalf("Unexpected /games/mine: %+v", list)
	}
	if rec := do(t, s, http.MethodGet, "/games/mine", nil); rec.Code != http.StatusUnauthorized {
		t.Fatalf("Expected 401 without token, got %d", rec.Code)
	}
}

func TestHistoryReadsWhilePlaying(t *testing.T) {
	s := newTestServer(t)
	rec := do(t, s, http.MethodPost, "/auth/signup", credentials{Username: "racer", Password: "correct-horse"})
	var token *http.Cookie
	for _, c := range rec.Result().Cookies() {
		if c.Name == "test_token" {
			token = c
		}
	}
	if token == nil {
		t.Fatalf("No auth cookie set")
	}
	id := decode[newGameRes](t, do(t, s, http.MethodPost, "/game/new", nil, token)).GameID

	const n = 50
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < n; i++ {
			req := httptest.NewRequest(http.MethodPost, "/game/flag", strings.NewReader(`{"gameId":"`+id+`","row":2,"col":3}`))
			s.Router().ServeHTTP(httptest.NewRecorder(), req)
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < n; i++ {
			req := httptest.NewRequest(http.MethodGet, "/games/mine", nil)
			req.AddCookie(token)
			s.Router().ServeHTTP(httptest.NewRecorder(), req)
		}
	}()
	wg.Wait()

	list := decode[[]gameSummary](t, do(t, s, http.MethodGet, "/games/mine", nil, token))
	if len(list) != 1 || list[0].ID != id || list[0].State != game.StatusPlaying {
		t.Fatalf("Unexpected /games/mine: %+v", list)
	}
}
