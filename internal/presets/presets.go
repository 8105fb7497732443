// internal/presets/presets.go
//
// Named board configurations.
//
// Responsibilities:
//   - Load presets from PRESETS_FILE or fall back to the embedded assets/presets.txt.
//   - Validate every preset against the engine's construction rules.
//   - Supply Lookup, Default and All to the HTTP layer.
//
// File format, one preset per line ('#' starts a comment):
//
//	beginner 9 10
//
// Presets are validated under cross exclusion, the stricter policy, so any
// preset is playable under either policy.
//
// Initialization is run once (sync.Once).

package presets

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/robalobadob/minesweeper/assets"
	"github.com/robalobadob/minesweeper/internal/game"
)

// Preset is a named board size and mine count.
type Preset struct {
	Name  string `json:"name"`
	Size  int    `json:"size"`
	Mines int    `json:"mines"`
}

var (
	initOnce   sync.Once
	ordered    []Preset
	byName     map[string]Preset
	initialErr error
)

// Init loads presets exactly once.
// Returns an error if a line is malformed or the list ends up empty.
func Init() error {
	initOnce.Do(func() {
		var lines []string
		var err error
		if path := os.Getenv("PRESETS_FILE"); path != "" {
			lines, err = readPresetFile(path)
		} else {
			lines, err = assets.PresetLines()
		}
		if err != nil {
			initialErr = err
			return
		}
		ordered, byName, initialErr = parse(lines)
	})
	return initialErr
}

// readPresetFile loads non-empty, non-comment lines from path.
func readPresetFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	var out []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		s := strings.TrimSpace(strings.ToLower(sc.Text()))
		if s == "" || strings.HasPrefix(s, "#") {
			continue
		}
		out = append(out, s)
	}
	return out, sc.Err()
}

func parse(lines []string) ([]Preset, map[string]Preset, error) {
	list := make([]Preset, 0, len(lines))
	set := make(map[string]Preset, len(lines))
	for _, line := range lines {
		p, err := parseLine(line)
		if err != nil {
			return nil, nil, err
		}
		if _, dup := set[p.Name]; dup {
			return nil, nil, fmt.Errorf("presets: duplicate preset %q", p.Name)
		}
		list = append(list, p)
		set[p.Name] = p
	}
	if len(list) == 0 {
		return nil, nil, errors.New("presets: list is empty")
	}
	return list, set, nil
}

func parseLine(line string) (Preset, error) {
	fields := strings.Fields(line)
	if len(fields) != 3 {
		return Preset{}, fmt.Errorf("presets: want \"name size mines\", got %q", line)
	}
	size, err := strconv.Atoi(fields[1])
	if err != nil {
		return Preset{}, fmt.Errorf("presets: %s: bad size: %w", fields[0], err)
	}
	mines, err := strconv.Atoi(fields[2])
	if err != nil {
		return Preset{}, fmt.Errorf("presets: %s: bad mine count: %w", fields[0], err)
	}
	if err := game.Validate(size, mines, game.ExcludeCross); err != nil {
		return Preset{}, fmt.Errorf("presets: %s: %w", fields[0], err)
	}
	return Preset{Name: fields[0], Size: size, Mines: mines}, nil
}

// Lookup returns the preset with the given (case-insensitive) name.
func Lookup(name string) (Preset, bool) {
	p, ok := byName[strings.ToLower(strings.TrimSpace(name))]
	return p, ok
}

// Default returns the named preset if it exists, otherwise the first one loaded.
func Default(name string) Preset {
	if p, ok := Lookup(name); ok {
		return p
	}
	if len(ordered) == 0 {
		return Preset{Name: "beginner", Size: 9, Mines: 10}
	}
	return ordered[0]
}

// All returns the presets in file order.
func All() []Preset {
	return append([]Preset(nil), ordered...)
}
