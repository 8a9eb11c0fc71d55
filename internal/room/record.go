package room

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/ugaemi/bubblewars-server/internal/game"
	"github.com/ugaemi/bubblewars-server/internal/store"
)

const recordTimeout = 5 * time.Second

// EncodeSnapshot serializes a match snapshot for storage.
func EncodeSnapshot(s *game.Snapshot) ([]byte, error) {
	data, err := msgpack.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("encode snapshot: %w", err)
	}
	return data, nil
}

// DecodeSnapshot is the inverse of EncodeSnapshot.
func DecodeSnapshot(data []byte) (*game.Snapshot, error) {
	var s game.Snapshot
	if err := msgpack.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	return &s, nil
}

// matchResult is what a room knows about a finished match.
type matchResult struct {
	code      string
	winner    string
	teams     []string
	snapshot  *game.Snapshot
	startedAt time.Time
	endedAt   time.Time
}

// recordMatch persists a finished match. Failures are logged; a match that
// cannot be stored is not retried.
func recordMatch(matches store.MatchStore, res matchResult) {
	if matches == nil {
		return
	}
	data, err := EncodeSnapshot(res.snapshot)
	if err != nil {
		slog.Error("failed to encode match", "room", res.code, "error", err)
		return
	}

	m := &store.Match{
		ID:        uuid.NewString(),
		RoomCode:  res.code,
		Winner:    res.winner,
		Teams:     res.teams,
		Duration:  res.endedAt.Sub(res.startedAt),
		Snapshot:  data,
		StartedAt: res.startedAt,
		EndedAt:   res.endedAt,
	}

	ctx, cancel := context.WithTimeout(context.Background(), recordTimeout)
	defer cancel()
	if err := matches.SaveMatch(ctx, m); err != nil {
		slog.Error("failed to record match", "room", res.code, "error", err)
		return
	}
	slog.Info("match recorded", "room", res.code, "match", m.ID, "winner", res.winner)
}
