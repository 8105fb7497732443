// internal/store/memory.go
//
// In-memory implementations of Store and UserStore.
// Used for ephemeral sessions (GAME_STORE=memory) and in tests.
//
// Characteristics:
//   - Games are kept as private clones keyed by ID: Save stores a copy and
//     Get/ListByOwner hand out copies, so callers never share a board.
//   - Users are keyed by ID with a lowercase username index.
//   - Concurrency-safe via RWMutex (concurrent reads allowed, writes exclusive).
//   - State is lost when the process restarts.

package store

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/robalobadob/minesweeper/internal/game"
)

// memory is an in-memory map-based Store implementation.
type memory struct {
	mu    sync.RWMutex
	games map[string]*game.Game
}

// NewMemoryStore constructs a new in-memory Store.
func NewMemoryStore() Store {
	return &memory{games: make(map[string]*game.Game)}
}

// Save adds or updates the game in the map.
func (m *memory) Save(ctx context.Context, g *game.Game) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.games[g.ID] = g.Clone()
	return nil
}

// Get looks up a game by ID.
func (m *memory) Get(ctx context.Context, id string) (*game.Game, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if g, ok := m.games[id]; ok {
		return g.Clone(), nil
	}
	return nil, ErrNotFound
}

// ListByOwner returns copies of owner's games, newest first.
func (m *memory) ListByOwner(ctx context.Context, owner string, limit int) ([]*game.Game, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	m.mu.RLock()
	out := []*game.Game{}
	for _, g := range m.games {
		if owner != "" && g.Owner == owner {
			out = append(out, g.Clone())
		}
	}
	m.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt.After(out[j].UpdatedAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// memoryUsers is an in-memory UserStore.
type memoryUsers struct {
	mu     sync.RWMutex
	byID   map[string]*User
	byName map[string]*User // lowercase username
}

// NewMemoryUserStore constructs a new in-memory UserStore.
func NewMemoryUserStore() UserStore {
	return &memoryUsers{byID: make(map[string]*User), byName: make(map[string]*User)}
}

// CreateUser stores a copy of u; usernames are unique ignoring case.
func (m *memoryUsers) CreateUser(ctx context.Context, u *User) error {
	key := strings.ToLower(u.Username)
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byName[key]; ok {
		return ErrUsernameTaken
	}
	cp := *u
	m.byID[u.ID] = &cp
	m.byName[key] = &cp
	return nil
}

// FindUserByUsername looks a user up ignoring case.
func (m *memoryUsers) FindUserByUsername(ctx context.Context, username string) (*User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if u, ok := m.byName[strings.ToLower(username)]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, ErrNotFound
}

// FindUserByID looks a user up by ID.
func (m *memoryUsers) FindUserByID(ctx context.Context, id string) (*User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if u, ok := m.byID[id]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, ErrNotFound
}
