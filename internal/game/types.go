// internal/game/types.go
//
// Core type definitions for the Minesweeper board engine.
// Defines:
//   - CellState: closed enum of per-cell states (hidden, mine, flag, revealed count).
//   - Event: notifications emitted by board commands.
//   - Status, Exclusion, Move: game-level vocabulary shared with the transport.
//   - Game: a single session (board + identity + config).

package game

import (
	"strconv"
	"time"
)

// CellState is the state of a single cell.
// Revealed cells carry their adjacent mine count: Revealed+n for n in 0..8.
type CellState uint8

const (
	Hidden      CellState = iota // untouched, not a mine
	HiddenMine                   // untouched, mine
	Flagged                      // flagged, not a mine
	FlaggedMine                  // flagged mine ("defused")
	Revealed                     // opened with 0 adjacent mines; Revealed+n for n adjacent
)

// maxAdjacent is the largest possible adjacent mine count (8 neighbours).
const maxAdjacent = 8

// RevealedWith returns the revealed state for n adjacent mines.
func RevealedWith(n int) CellState { return Revealed + CellState(n) }

// IsMine reports whether the cell holds a mine.
func (s CellState) IsMine() bool { return s == HiddenMine || s == FlaggedMine }

// IsFlagged reports whether the user marked the cell.
func (s CellState) IsFlagged() bool { return s == Flagged || s == FlaggedMine }

// IsRevealed reports whether the cell was opened.
func (s CellState) IsRevealed() bool { return s >= Revealed && s <= Revealed+maxAdjacent }

// Adjacent returns the adjacent mine count of a revealed cell, or -1.
func (s CellState) Adjacent() int {
	if !s.IsRevealed() {
		return -1
	}
	return int(s - Revealed)
}

// String names the state for logs and test output.
func (s CellState) String() string {
	switch {
	case s == Hidden:
		return "hidden"
	case s == HiddenMine:
		return "hidden_mine"
	case s == Flagged:
		return "flagged"
	case s == FlaggedMine:
		return "flagged_mine"
	case s.IsRevealed():
		return "revealed(" + strconv.Itoa(s.Adjacent()) + ")"
	default:
		return "invalid(" + strconv.Itoa(int(s)) + ")"
	}
}

// EventKind names a notification emitted by the board.
type EventKind string

const (
	EventCellRevealed EventKind = "cell_revealed"
	EventMineRevealed EventKind = "mine_revealed"
	EventCellFlagged  EventKind = "cell_flagged"
	EventGameOver     EventKind = "game_over"
)

// Event is a single notification. Which fields are meaningful depends on Kind:
//   - cell_revealed: Row, Col, Adjacent
//   - mine_revealed: Row, Col, Exploded, Defused (only emitted on loss)
//   - cell_flagged:  Row, Col, Flagged
//   - game_over:     Won
type Event struct {
	Kind     EventKind `json:"kind"`
	Row      int       `json:"row"`
	Col      int       `json:"col"`
	Adjacent int       `json:"adjacent"`
	Exploded bool      `json:"exploded,omitempty"`
	Defused  bool      `json:"defused,omitempty"`
	Flagged  bool      `json:"flagged,omitempty"`
	Won      bool      `json:"won,omitempty"`
}

// Sink receives events synchronously as commands run.
// Implementations must not call back into the board.
type Sink interface {
	Notify(Event)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(Event)

// Notify calls f(e).
func (f SinkFunc) Notify(e Event) { f(e) }

// Status is the coarse game state.
type Status string

const (
	StatusPlaying Status = "playing"
	StatusWon     Status = "won"
	StatusLost    Status = "lost"
)

// Exclusion selects which cells the first reveal keeps free of mines.
//   - "cross": every cell sharing the clicked cell's row or column.
//   - "cell":  only the clicked cell.
type Exclusion string

const (
	ExcludeCross Exclusion = "cross"
	ExcludeCell  Exclusion = "cell"
)

// ParseExclusion maps a config string to an Exclusion; empty means cross.
func ParseExclusion(s string) (Exclusion, bool) {
	switch Exclusion(s) {
	case "", ExcludeCross:
		return ExcludeCross, true
	case ExcludeCell:
		return ExcludeCell, true
	default:
		return "", false
	}
}

// MoveType is the kind of command a client sends.
type MoveType string

const (
	MoveReveal MoveType = "reveal"
	MoveFlag   MoveType = "flag"
	MoveReset  MoveType = "reset"
)

// Move is a single command against a game.
type Move struct {
	Type MoveType `json:"type"`
	Row  int      `json:"row"`
	Col  int      `json:"col"`
}

// Game holds the state of a single Minesweeper session.
type Game struct {
	ID        string    // Unique game identifier (random hex string).
	Owner     string    // User ID or anonymous ID that created the game.
	Preset    string    // Preset name, empty for custom boards.
	Daily     string    // Date key (YYYY-MM-DD) for daily boards, empty otherwise.
	Seed      int64     // Seed of the mine placement source.
	Board     *Board    // Engine state.
	CreatedAt time.Time // Creation time (UTC).
	UpdatedAt time.Time // Time of the last applied move (UTC).
}
