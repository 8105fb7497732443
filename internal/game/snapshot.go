// internal/game/snapshot.go
//
// Serializable form of a Board, used by persistent stores.
// Each row is a string with one rune per cell:
//
//	'.' hidden   'm' hidden mine   'f' flagged   'd' flagged mine   '0'..'8' revealed

package game

import (
	"fmt"
	"strings"
)

// Snapshot captures the full engine state of a Board.
type Snapshot struct {
	Size      int       `json:"size"`
	Mines     int       `json:"mines"`
	Exclusion Exclusion `json:"exclusion"`
	Generated bool      `json:"generated"`
	Status    Status    `json:"status"`
	Rows      []string  `json:"rows"`
}

// Snapshot returns the current board state.
func (b *Board) Snapshot() Snapshot {
	rows := make([]string, b.size)
	var sb strings.Builder
	for r := 0; r < b.size; r++ {
		sb.Reset()
		for c := 0; c < b.size; c++ {
			sb.WriteByte(cellRune(b.cells[b.index(r, c)]))
		}
		rows[r] = sb.String()
	}
	return Snapshot{
		Size:      b.size,
		Mines:     b.mines,
		Exclusion: b.exclusion,
		Generated: b.generated,
		Status:    b.status,
		Rows:      rows,
	}
}

// FromSnapshot rebuilds a Board. The snapshot is checked against the board
// invariants; a mismatch is ErrInvalidConfiguration.
func FromSnapshot(s Snapshot, opts ...Option) (*Board, error) {
	ex, ok := ParseExclusion(string(s.Exclusion))
	if !ok {
		return nil, fmt.Errorf("%w: unknown exclusion %q", ErrInvalidConfiguration, s.Exclusion)
	}
	b, err := New(s.Size, s.Mines, append([]Option{WithExclusion(ex)}, opts...)...)
	if err != nil {
		return nil, err
	}
	if len(s.Rows) != s.Size {
		return nil, fmt.Errorf("%w: snapshot has %d rows, want %d", ErrInvalidConfiguration, len(s.Rows), s.Size)
	}
	for r, row := range s.Rows {
		if len(row) != s.Size {
			return nil, fmt.Errorf("%w: snapshot row %d has %d cells, want %d", ErrInvalidConfiguration, r, len(row), s.Size)
		}
		for c := 0; c < s.Size; c++ {
			st, ok := parseCellRune(row[c])
			if !ok {
				return nil, fmt.Errorf("%w: snapshot cell (%d, %d) has unknown state %q", ErrInvalidConfiguration, r, c, row[c])
			}
			i := b.index(r, c)
			b.cells[i] = st
			if st.IsMine() {
				b.mineSet = append(b.mineSet, i)
			}
			if st == FlaggedMine {
				b.flagged++
			}
		}
	}

	switch {
	case s.Generated && len(b.mineSet) != s.Mines:
		return nil, fmt.Errorf("%w: snapshot holds %d mines, want %d", ErrInvalidConfiguration, len(b.mineSet), s.Mines)
	case !s.Generated && len(b.mineSet) != 0:
		return nil, fmt.Errorf("%w: snapshot holds mines before generation", ErrInvalidConfiguration)
	}
	b.generated = s.Generated

	status := s.Status
	if status == "" {
		status = StatusPlaying
	}
	allFlagged := b.generated && b.flagged == b.mines
	switch status {
	case StatusPlaying, StatusLost:
		if allFlagged {
			return nil, fmt.Errorf("%w: every mine is flagged but status is %q", ErrInvalidConfiguration, status)
		}
		if status == StatusLost && !b.generated {
			return nil, fmt.Errorf("%w: lost before mines were placed", ErrInvalidConfiguration)
		}
	case StatusWon:
		if !allFlagged {
			return nil, fmt.Errorf("%w: won with %d of %d mines flagged", ErrInvalidConfiguration, b.flagged, b.mines)
		}
	default:
		return nil, fmt.Errorf("%w: unknown status %q", ErrInvalidConfiguration, s.Status)
	}
	b.status = status
	return b, nil
}

func cellRune(s CellState) byte {
	switch {
	case s == Hidden:
		return '.'
	case s == HiddenMine:
		return 'm'
	case s == Flagged:
		return 'f'
	case s == FlaggedMine:
		return 'd'
	case s.IsRevealed():
		return byte('0' + s.Adjacent())
	default:
		return '?'
	}
}

func parseCellRune(ch byte) (CellState, bool) {
	switch {
	case ch == '.':
		return Hidden, true
	case ch == 'm':
		return HiddenMine, true
	case ch == 'f':
		return Flagged, true
	case ch == 'd':
		return FlaggedMine, true
	case ch >= '0' && ch <= '0'+maxAdjacent:
		return RevealedWith(int(ch - '0')), true
	default:
		return 0, false
	}
}
