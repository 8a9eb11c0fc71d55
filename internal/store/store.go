package store

import (
	"context"
	"errors"
	"time"

	"github.com/ugaemi/bubblewars-server/internal/account"
)

// ErrDuplicate is returned when inserting a record whose key already exists.
var ErrDuplicate = errors.New("duplicate key")

// AccountStore defines the interface for persistent account storage.
type AccountStore interface {
	// FindByID looks up an account by internal ID. It returns nil, nil when
	// no account matches.
	FindByID(ctx context.Context, id string) (*account.Account, error)
	// Create inserts a new account.
	Create(ctx context.Context, acc *account.Account) error
	// UpdateLastLogin updates the last login timestamp.
	UpdateLastLogin(ctx context.Context, id string) error
	// UpdateNickname updates the account nickname.
	UpdateNickname(ctx context.Context, id string, nickname string) error
	// Close releases database resources.
	Close() error
}

// Match is a finished match. Snapshot holds the final world state encoded
// with msgpack.
type Match struct {
	ID        string
	RoomCode  string
	Winner    string
	Teams     []string
	Duration  time.Duration
	Snapshot  []byte
	StartedAt time.Time
	EndedAt   time.Time
}

// MatchStore defines the interface for match history storage.
type MatchStore interface {
	// SaveMatch inserts a finished match.
	SaveMatch(ctx context.Context, m *Match) error
	// FindMatch looks up a match by ID. It returns nil, nil when the ID is
	// unknown.
	FindMatch(ctx context.Context, id string) (*Match, error)
	// RecentMatches returns up to limit matches, most recent first.
	RecentMatches(ctx context.Context, limit int) ([]*Match, error)
}
