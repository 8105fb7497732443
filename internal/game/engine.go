// internal/game/engine.go
//
// Session layer around the Board engine.
// Responsibilities:
//   - Create games from a Config (custom size, preset or daily seed).
//   - Dispatch client moves (reveal/flag/reset) to the board.
//   - Rebuild a game from a persisted snapshot.
//
// Notes:
//   - Each game owns its own math/rand source built from Seed, and the
//     source places mines at most once per seed. Reset draws a fresh seed
//     (daily games keep the day's seed), so a restored or cloned game
//     behaves the same as the live one whatever store held it.
//   - randomID() is a compact hex identifier for correlating server state.
package game

import (
	"crypto/rand"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	mrand "math/rand"
	"time"
)

// Config describes a new game.
type Config struct {
	Size      int
	Mines     int
	Exclusion Exclusion
	Owner     string
	Preset    string
	Daily     string // date key; when set, Seed must be set as well
	Seed      *int64 // fixed seed; a random one is drawn when nil
	Sink      Sink
}

// NewGame constructs a new game instance with an empty board.
func NewGame(cfg Config) (*Game, error) {
	ex := cfg.Exclusion
	if ex == "" {
		ex = ExcludeCross
	}
	seed := randomSeed()
	if cfg.Seed != nil {
		seed = *cfg.Seed
	}
	b, err := New(cfg.Size, cfg.Mines,
		WithExclusion(ex),
		WithRand(mrand.New(mrand.NewSource(seed))),
		WithSink(cfg.Sink),
	)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	return &Game{
		ID:        randomID(),
		Owner:     cfg.Owner,
		Preset:    cfg.Preset,
		Daily:     cfg.Daily,
		Seed:      seed,
		Board:     b,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// Restore rebuilds a game whose board was persisted as a snapshot.
func Restore(g Game, s Snapshot, sink Sink) (*Game, error) {
	b, err := FromSnapshot(s,
		WithRand(mrand.New(mrand.NewSource(g.Seed))),
		WithSink(sink),
	)
	if err != nil {
		return nil, err
	}
	g.Board = b
	return &g, nil
}

// Apply runs a move against the board.
// Returns: the emitted events, the resulting status, or an error
// (ErrOutOfRange for bad coordinates, or an unknown move type).
func (g *Game) Apply(m Move) ([]Event, Status, error) {
	var (
		events []Event
		err    error
	)
	switch m.Type {
	case MoveReveal:
		events, err = g.Board.Reveal(m.Row, m.Col)
	case MoveFlag:
		events, err = g.Board.ToggleFlag(m.Row, m.Col)
	case MoveReset:
		g.Board.Reset()
		g.reseed()
	default:
		return nil, g.Board.Status(), fmt.Errorf("unknown move type %q", m.Type)
	}
	if err != nil {
		return nil, g.Board.Status(), err
	}
	g.UpdatedAt = time.Now().UTC()
	return events, g.Board.Status(), nil
}

// reseed gives the next mine generation its own seed. Daily games stay on
// the day's seed: the same first click yields the same layout again.
func (g *Game) reseed() {
	if g.Daily == "" {
		g.Seed = randomSeed()
	}
	g.Board.rng = mrand.New(mrand.NewSource(g.Seed))
}

// Clone returns an independent copy of the game. The copy's random source
// is rebuilt from Seed, which matches the live one whenever mines are still
// to be placed.
func (g *Game) Clone() *Game {
	cp := *g
	b := *g.Board
	b.cells = append([]CellState(nil), g.Board.cells...)
	b.mineSet = append([]int(nil), g.Board.mineSet...)
	b.rng = mrand.New(mrand.NewSource(g.Seed))
	b.sink = nil
	cp.Board = &b
	return &cp
}

// randomSeed draws a seed for math/rand from crypto/rand.
func randomSeed() int64 {
	var b [8]byte
	if _, err := rand.Read(b[:]); err != nil {
		return time.Now().UnixNano()
	}
	return int64(binary.BigEndian.Uint64(b[:]))
}

// randomID returns a compact 16-hex-char identifier.
func randomID() string {
	var b [8]byte
	_, _ = rand.Read(b[:])
	return hex.EncodeToString(b[:])
}
