package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/ugaemi/bubblewars-server/internal/account"
)

const schema = `
CREATE TABLE IF NOT EXISTS accounts (
    id TEXT PRIMARY KEY,
    nickname TEXT NOT NULL DEFAULT '',
    is_guest BOOLEAN NOT NULL DEFAULT true,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    last_login_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE TABLE IF NOT EXISTS matches (
    id TEXT PRIMARY KEY,
    room_code TEXT NOT NULL,
    winner TEXT NOT NULL DEFAULT '',
    teams TEXT[] NOT NULL DEFAULT '{}',
    duration_ms BIGINT NOT NULL DEFAULT 0,
    snapshot BYTEA,
    started_at TIMESTAMPTZ NOT NULL,
    ended_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_matches_ended_at ON matches(ended_at DESC);
`

// PostgresStore implements AccountStore and MatchStore using PostgreSQL.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore connects to PostgreSQL and initializes the schema.
func NewPostgresStore(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}

	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}

	return &PostgresStore{pool: pool}, nil
}

// FindByID looks up an account by internal ID.
func (s *PostgresStore) FindByID(ctx context.Context, id string) (*account.Account, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, nickname, is_guest, created_at, last_login_at
		 FROM accounts WHERE id = $1`, id)

	acc, err := scanAccount(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return acc, err
}

// Create inserts a new account.
func (s *PostgresStore) Create(ctx context.Context, acc *account.Account) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO accounts (id, nickname, is_guest, created_at, last_login_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		acc.ID, acc.Nickname, acc.IsGuest, acc.CreatedAt, acc.LastLoginAt)
	return mapInsertError(err)
}

// UpdateLastLogin updates the last login timestamp.
func (s *PostgresStore) UpdateLastLogin(ctx context.Context, id string) error {
	_, err := s.pool.Exec(ctx,
		`UPDATE accounts SET last_login_at = $1 WHERE id = $2`, time.Now(), id)
	return err
}

// UpdateNickname updates the account nickname.
func (s *PostgresStore) UpdateNickname(ctx context.Context, id string, nickname string) error {
	_, err := s.pool.Exec(ctx,
		`UPDATE accounts SET nickname = $1 WHERE id = $2`, nickname, id)
	return err
}

// SaveMatch inserts a finished match.
func (s *PostgresStore) SaveMatch(ctx context.Context, m *Match) error {
	teams := m.Teams
	if teams == nil {
		teams = []string{}
	}
	_, err := s.pool.Exec(ctx,
		`INSERT INTO matches (id, room_code, winner, teams, duration_ms, snapshot, started_at, ended_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		m.ID, m.RoomCode, m.Winner, teams, m.Duration.Milliseconds(), m.Snapshot, m.StartedAt, m.EndedAt)
	return mapInsertError(err)
}

// FindMatch looks up a match by ID.
func (s *PostgresStore) FindMatch(ctx context.Context, id string) (*Match, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, room_code, winner, teams, duration_ms, snapshot, started_at, ended_at
		 FROM matches WHERE id = $1`, id)

	m, err := scanMatch(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return m, err
}

// RecentMatches returns up to limit matches, most recent first.
func (s *PostgresStore) RecentMatches(ctx context.Context, limit int) ([]*Match, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, room_code, winner, teams, duration_ms, snapshot, started_at, ended_at
		 FROM matches ORDER BY ended_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var matches []*Match
	for rows.Next() {
		m, err := scanMatch(rows)
		if err != nil {
			return nil, err
		}
		matches = append(matches, m)
	}
	return matches, rows.Err()
}

// Close releases database resources.
func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

const uniqueViolation = "23505"

func mapInsertError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return fmt.Errorf("%w: %s", ErrDuplicate, pgErr.ConstraintName)
	}
	return err
}

func scanAccount(row pgx.Row) (*account.Account, error) {
	var acc account.Account
	err := row.Scan(&acc.ID, &acc.Nickname, &acc.IsGuest, &acc.CreatedAt, &acc.LastLoginAt)
	if err != nil {
		return nil, err
	}
	return &acc, nil
}

func scanMatch(row pgx.Row) (*Match, error) {
	var m Match
	var durationMS int64
	err := row.Scan(&m.ID, &m.RoomCode, &m.Winner, &m.Teams, &durationMS, &m.Snapshot, &m.StartedAt, &m.EndedAt)
	if err != nil {
		return nil, err
	}
	m.Duration = time.Duration(durationMS) * time.Millisecond
	return &m, nil
}
