package presets

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/robalobadob/minesweeper/internal/game"
)

func TestInitLoadsEmbeddedPresets(t *testing.T) {
	if err := Init(); err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	p, ok := Lookup(" Beginner ")
	if !ok {
		t.Fatalf("beginner preset missing")
	}
	if p.Size != 9 || p.Mines != 10 {
		t.Fatalf("Unexpected beginner preset: %+v", p)
	}
	if len(All()) < 3 {
		t.Fatalf("Expected at least 3 presets, got %d", len(All()))
	}
	if Default("nope").Name != All()[0].Name {
		t.Fatalf("Default did not fall back to the first preset")
	}
	if Default("expert").Name != "expert" {
		t.Fatalf("Default ignored a known name")
	}
}

func TestParseRejectsBadLines(t *testing.T) {
	cases := map[string][]string{
		"fields":    {"tiny 3"},
		"size":      {"tiny x 1"},
		"mines":     {"tiny 3 y"},
		"too many":  {"tiny 3 5"},
		"duplicate": {"a 9 10", "a 9 10"},
		"empty":     {},
	}
	for name, lines := range cases {
		t.Run(name, func(t *testing.T) {
			if _, _, err := parse(lines); err == nil {
				t.Fatalf("parse(%q) succeeded", lines)
			}
		})
	}

	_, _, err := parse([]string{"tiny 3 5"})
	if !errors.Is(err, game.ErrInvalidConfiguration) {
		t.Fatalf("Expected ErrInvalidConfiguration, got: %v", err)
	}
}

func TestReadPresetFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "presets.txt")
	data := "# custom\n\nSmall 5 3\nlarge 30 120\n"
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("Failed to write presets: %v", err)
	}
	lines, err := readPresetFile(path)
	if err != nil {
		t.Fatalf("readPresetFile failed: %v", err)
	}
	list, set, err := parse(lines)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if len(list) != 2 || set["small"].Mines != 3 || list[1].Name != "large" {
		t.Fatalf("Unexpected presets: %+v", list)
	}
}
