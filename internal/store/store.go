// internal/store/store.go
//
// Persistence interfaces shared by the memory and SQLite backends.
//
// Games are handed out as live *game.Game values. Callers that mutate a
// game are expected to serialize access per game ID and Save it afterwards.

package store

import (
	"context"
	"errors"
	"time"

	"github.com/robalobadob/minesweeper/internal/game"
)

var (
	// ErrNotFound is returned when a game or user does not exist.
	ErrNotFound = errors.New("store: not found")
	// ErrUsernameTaken is returned by CreateUser for a duplicate username
	// (compared case-insensitively).
	ErrUsernameTaken = errors.New("store: username taken")
)

// Store defines the persistence interface for game sessions.
type Store interface {
	// Save persists or updates a game state.
	Save(ctx context.Context, g *game.Game) error

	// Get retrieves a game by ID, or ErrNotFound.
	Get(ctx context.Context, id string) (*game.Game, error)

	// ListByOwner returns up to limit games owned by owner,
	// most recently updated first.
	ListByOwner(ctx context.Context, owner string, limit int) ([]*game.Game, error)
}

// User is a registered player.
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
}

// UserStore persists accounts.
type UserStore interface {
	CreateUser(ctx context.Context, u *User) error
	FindUserByUsername(ctx context.Context, username string) (*User, error)
	FindUserByID(ctx context.Context, id string) (*User, error)
}

// defaultListLimit caps ListByOwner when limit <= 0.
const defaultListLimit = 50
