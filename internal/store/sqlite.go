// internal/store/sqlite.go
//
// SQLite implementation of Store and UserStore.
//
// Responsibilities:
//   - Persist games as a JSON board snapshot plus the metadata needed to
//     rebuild the session (owner, preset, daily key, seed, timestamps).
//   - Persist accounts in the users table (username unique, NOCASE).
//
// The schema lives in assets/sql and is applied by the binary's migration
// runner before the store is used.

package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/mattn/go-sqlite3"

	"github.com/robalobadob/minesweeper/internal/game"
)

// SQLite backs both Store and UserStore with one *sql.DB.
type SQLite struct {
	db *sql.DB
}

// NewSQLiteStore wraps an open, migrated database.
func NewSQLiteStore(db *sql.DB) *SQLite {
	return &SQLite{db: db}
}

// Save upserts the game row.
func (s *SQLite) Save(ctx context.Context, g *game.Game) error {
	state, err := json.Marshal(g.Board.Snapshot())
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
        INSERT INTO games (id, owner, preset, daily, seed, status, state, created_at, updated_at)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
        ON CONFLICT(id) DO UPDATE SET
            owner=excluded.owner,
            seed=excluded.seed,
            status=excluded.status,
            state=excluded.state,
            updated_at=excluded.updated_at`,
		g.ID, g.Owner, g.Preset, g.Daily, g.Seed, string(g.Board.Status()), string(state),
		formatTime(g.CreatedAt), formatTime(g.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("save game %s: %w", g.ID, err)
	}
	return nil
}

// Get loads and restores a game. The restored board has no sink attached.
func (s *SQLite) Get(ctx context.Context, id string) (*game.Game, error) {
	row := s.db.QueryRowContext(ctx, `
        SELECT id, owner, preset, daily, seed, state, created_at, updated_at
        FROM games WHERE id=?`, id)
	return scanGame(row)
}

// ListByOwner restores owner's games, newest first.
func (s *SQLite) ListByOwner(ctx context.Context, owner string, limit int) ([]*game.Game, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	rows, err := s.db.QueryContext(ctx, `
        SELECT id, owner, preset, daily, seed, state, created_at, updated_at
        FROM games WHERE owner=? AND owner<>''
        ORDER BY updated_at DESC
        LIMIT ?`, owner, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []*game.Game{}
	for rows.Next() {
		g, err := scanGame(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanGame(row scanner) (*game.Game, error) {
	var (
		g                game.Game
		state            string
		created, updated string
	)
	err := row.Scan(&g.ID, &g.Owner, &g.Preset, &g.Daily, &g.Seed, &state, &created, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	var snap game.Snapshot
	if err := json.Unmarshal([]byte(state), &snap); err != nil {
		return nil, fmt.Errorf("decode game %s: %w", g.ID, err)
	}
	g.CreatedAt = parseTime(created)
	g.UpdatedAt = parseTime(updated)
	return game.Restore(g, snap, nil)
}

// CreateUser inserts u. A duplicate username is ErrUsernameTaken.
func (s *SQLite) CreateUser(ctx context.Context, u *User) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO users (id, username, password_hash, created_at) VALUES (?,?,?,?)`,
		u.ID, u.Username, u.PasswordHash, formatTime(u.CreatedAt))
	var se sqlite3.Error
	if errors.As(err, &se) && se.ExtendedCode == sqlite3.ErrConstraintUnique {
		return ErrUsernameTaken
	}
	return err
}

// FindUserByUsername relies on the NOCASE collation of users.username.
func (s *SQLite) FindUserByUsername(ctx context.Context, username string) (*User, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, username, password_hash, created_at FROM users WHERE username=?`, username)
	return scanUser(row)
}

// FindUserByID looks a user up by ID.
func (s *SQLite) FindUserByID(ctx context.Context, id string) (*User, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, username, password_hash, created_at FROM users WHERE id=?`, id)
	return scanUser(row)
}

func scanUser(row *sql.Row) (*User, error) {
	var u User
	var created string
	err := row.Scan(&u.ID, &u.Username, &u.PasswordHash, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	u.CreatedAt = parseTime(created)
	return &u, nil
}

// timeLayout is fixed-width so stored timestamps sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

// parseTime parses stored timestamps; on error returns zero time.
func parseTime(s string) time.Time {
	t, _ := time.Parse(timeLayout, s)
	return t
}
