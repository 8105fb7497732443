// internal/game/board.go
//
// Board engine: an N×N grid of CellState with lazily generated mines.
// Responsibilities:
//   - Validate board configuration (size, mine count, exclusion policy).
//   - Place mines on the first reveal, never under the clicked cell.
//   - Reveal cells with an iterative 8-connected flood fill.
//   - Toggle flags and detect the win (last mine flagged).
//   - Report every change as Events, returned and pushed to an optional Sink.
//
// The board is not safe for concurrent use; callers serialize commands.
package game

import (
	"errors"
	"fmt"
	"math/rand"
	"time"
)

var (
	// ErrInvalidConfiguration is returned when a board cannot be built.
	ErrInvalidConfiguration = errors.New("invalid board configuration")
	// ErrOutOfRange is returned for coordinates outside the grid.
	ErrOutOfRange = errors.New("coordinates out of range")
)

// Board is the state machine for one game.
type Board struct {
	size      int
	mines     int
	exclusion Exclusion
	cells     []CellState // row-major, len size*size
	mineSet   []int       // cell indices holding a mine, in placement order
	flagged   int         // number of FlaggedMine cells
	generated bool
	status    Status
	rng       *rand.Rand
	sink      Sink
}

// Option customizes a Board at construction.
type Option func(*Board)

// WithRand sets the random source used for mine placement.
func WithRand(r *rand.Rand) Option { return func(b *Board) { b.rng = r } }

// WithExclusion sets the first-click exclusion policy.
func WithExclusion(e Exclusion) Option { return func(b *Board) { b.exclusion = e } }

// WithSink registers a sink that receives every emitted event.
func WithSink(s Sink) Option { return func(b *Board) { b.sink = s } }

// New builds an empty board. Mines are placed on the first Reveal.
func New(size, mines int, opts ...Option) (*Board, error) {
	b := &Board{
		size:      size,
		mines:     mines,
		exclusion: ExcludeCross,
		status:    StatusPlaying,
	}
	for _, opt := range opts {
		opt(b)
	}
	if err := Validate(size, mines, b.exclusion); err != nil {
		return nil, err
	}
	if b.rng == nil {
		b.rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	b.cells = make([]CellState, size*size)
	return b, nil
}

// Validate checks that mines fit in the cells the exclusion policy leaves
// eligible after the first click.
func Validate(size, mines int, e Exclusion) error {
	if size <= 0 {
		return fmt.Errorf("%w: size must be positive (got %d)", ErrInvalidConfiguration, size)
	}
	if mines <= 0 {
		return fmt.Errorf("%w: mine count must be positive (got %d)", ErrInvalidConfiguration, mines)
	}
	var eligible int
	switch e {
	case ExcludeCross:
		eligible = (size - 1) * (size - 1)
	case ExcludeCell:
		eligible = size*size - 1
	default:
		return fmt.Errorf("%w: unknown exclusion %q", ErrInvalidConfiguration, e)
	}
	if mines > eligible {
		return fmt.Errorf("%w: %d mines do not fit on a %dx%d board with %s exclusion (max %d)",
			ErrInvalidConfiguration, mines, size, size, e, eligible)
	}
	return nil
}

// SetSink replaces the event sink (nil disables it).
func (b *Board) SetSink(s Sink) { b.sink = s }

// Size returns the side length of the square grid.
func (b *Board) Size() int { return b.size }

// Mines returns the configured mine total.
func (b *Board) Mines() int { return b.mines }

// MinesFlagged returns the number of flagged mines.
func (b *Board) MinesFlagged() int { return b.flagged }

// Generated reports whether the mines have been placed.
func (b *Board) Generated() bool { return b.generated }

// Status returns the current game status.
func (b *Board) Status() Status { return b.status }

// Exclusion returns the first-click exclusion policy.
func (b *Board) Exclusion() Exclusion { return b.exclusion }

// CellAt returns the state of (row, col).
func (b *Board) CellAt(row, col int) (CellState, error) {
	if err := b.check(row, col); err != nil {
		return 0, err
	}
	return b.cells[b.index(row, col)], nil
}

// Reveal opens (row, col). The first reveal of a game places the mines.
// Revealing a mine reports every mine and ends the game; otherwise the
// connected zero region is opened. Cells that are flagged or already
// revealed are left alone, as is every cell once the game is over.
func (b *Board) Reveal(row, col int) ([]Event, error) {
	if err := b.check(row, col); err != nil {
		return nil, err
	}
	if b.status != StatusPlaying {
		return nil, nil
	}
	i := b.index(row, col)
	if s := b.cells[i]; s != Hidden && s != HiddenMine {
		return nil, nil
	}

	justGenerated := false
	if !b.generated {
		b.generateMines(row, col)
		justGenerated = true
	}

	if b.cells[i].IsMine() {
		events := b.revealMines(row, col)
		events = append(events, Event{Kind: EventGameOver, Row: row, Col: col, Won: false})
		b.status = StatusLost
		return b.emit(events), nil
	}

	events := b.floodFill(row, col)
	// Mines placed under flags set before the first reveal count as defused.
	if justGenerated && b.flagged == b.mines {
		b.status = StatusWon
		events = append(events, Event{Kind: EventGameOver, Row: row, Col: col, Won: true})
	}
	return b.emit(events), nil
}

// ToggleFlag flips the flag on (row, col). Flagging the last unflagged mine
// wins the game. Revealed cells are left alone.
func (b *Board) ToggleFlag(row, col int) ([]Event, error) {
	if err := b.check(row, col); err != nil {
		return nil, err
	}
	if b.status != StatusPlaying {
		return nil, nil
	}
	i := b.index(row, col)
	var events []Event
	switch b.cells[i] {
	case HiddenMine:
		b.cells[i] = FlaggedMine
		b.flagged++
		events = append(events, Event{Kind: EventCellFlagged, Row: row, Col: col, Flagged: true})
		if b.flagged == b.mines {
			b.status = StatusWon
			events = append(events, Event{Kind: EventGameOver, Row: row, Col: col, Won: true})
		}
	case Flagged:
		b.cells[i] = Hidden
		events = append(events, Event{Kind: EventCellFlagged, Row: row, Col: col, Flagged: false})
	case FlaggedMine:
		b.cells[i] = HiddenMine
		b.flagged--
		events = append(events, Event{Kind: EventCellFlagged, Row: row, Col: col, Flagged: false})
	case Hidden:
		b.cells[i] = Flagged
		events = append(events, Event{Kind: EventCellFlagged, Row: row, Col: col, Flagged: true})
	default:
		// revealed
		return nil, nil
	}
	return b.emit(events), nil
}

// Reset returns the board to its freshly constructed state.
// It emits nothing; callers resynchronize their own view.
func (b *Board) Reset() {
	for i := range b.cells {
		b.cells[i] = Hidden
	}
	b.mineSet = nil
	b.flagged = 0
	b.generated = false
	b.status = StatusPlaying
}

// generateMines picks b.mines eligible cells uniformly at random.
// With cross exclusion a cell is eligible only if it shares neither the row
// nor the column of the first click.
func (b *Board) generateMines(row, col int) {
	candidates := make([]int, 0, len(b.cells))
	for r := 0; r < b.size; r++ {
		for c := 0; c < b.size; c++ {
			if b.excluded(r, c, row, col) {
				continue
			}
			candidates = append(candidates, b.index(r, c))
		}
	}
	b.rng.Shuffle(len(candidates), func(i, j int) {
		candidates[i], candidates[j] = candidates[j], candidates[i]
	})
	b.placeMines(candidates[:b.mines])
}

func (b *Board) excluded(r, c, row, col int) bool {
	if b.exclusion == ExcludeCell {
		return r == row && c == col
	}
	return r == row || c == col
}

// placeMines marks the given cell indices as mines and sets the generation flag.
func (b *Board) placeMines(indices []int) {
	b.mineSet = make([]int, 0, len(indices))
	for _, i := range indices {
		switch b.cells[i] {
		case Hidden:
			b.cells[i] = HiddenMine
		case Flagged:
			b.cells[i] = FlaggedMine
			b.flagged++
		default:
			continue
		}
		b.mineSet = append(b.mineSet, i)
	}
	b.generated = true
}

// revealMines reports every mine; the one at (row, col) is the exploded one.
func (b *Board) revealMines(row, col int) []Event {
	events := make([]Event, 0, len(b.mineSet)+1)
	clicked := b.index(row, col)
	for _, i := range b.mineSet {
		r, c := b.coords(i)
		events = append(events, Event{
			Kind:     EventMineRevealed,
			Row:      r,
			Col:      c,
			Exploded: i == clicked,
			Defused:  b.cells[i] == FlaggedMine,
		})
	}
	return events
}

// floodFill reveals (row, col) and, through zero-count cells, every
// reachable hidden cell. Uses an explicit stack so large boards cannot
// exhaust the goroutine stack.
func (b *Board) floodFill(row, col int) []Event {
	var events []Event
	open := func(i int) bool {
		r, c := b.coords(i)
		n := b.adjacentMines(r, c)
		b.cells[i] = RevealedWith(n)
		events = append(events, Event{Kind: EventCellRevealed, Row: r, Col: c, Adjacent: n})
		return n == 0
	}

	start := b.index(row, col)
	if !open(start) {
		return events
	}
	stack := []int{start}
	for len(stack) > 0 {
		i := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		r, c := b.coords(i)
		b.neighbours(r, c, func(nr, nc int) {
			j := b.index(nr, nc)
			if b.cells[j] != Hidden {
				return
			}
			if open(j) {
				stack = append(stack, j)
			}
		})
	}
	return events
}

func (b *Board) adjacentMines(row, col int) int {
	n := 0
	b.neighbours(row, col, func(r, c int) {
		if b.cells[b.index(r, c)].IsMine() {
			n++
		}
	})
	return n
}

// neighbours calls fn for each in-bounds cell around (row, col).
func (b *Board) neighbours(row, col int, fn func(r, c int)) {
	for dr := -1; dr <= 1; dr++ {
		for dc := -1; dc <= 1; dc++ {
			if dr == 0 && dc == 0 {
				continue
			}
			r, c := row+dr, col+dc
			if b.inBounds(r, c) {
				fn(r, c)
			}
		}
	}
}

func (b *Board) emit(events []Event) []Event {
	if b.sink != nil {
		for _, e := range events {
			b.sink.Notify(e)
		}
	}
	return events
}

func (b *Board) inBounds(row, col int) bool {
	return row >= 0 && row < b.size && col >= 0 && col < b.size
}

func (b *Board) check(row, col int) error {
	if !b.inBounds(row, col) {
		return fmt.Errorf("%w: (%d, %d) on a %dx%d board", ErrOutOfRange, row, col, b.size, b.size)
	}
	return nil
}

func (b *Board) index(row, col int) int { return row*b.size + col }

func (b *Board) coords(i int) (int, int) { return i / b.size, i % b.size }
