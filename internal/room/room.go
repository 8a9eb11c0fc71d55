package room

import (
	"cmp"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/ugaemi/bubblewars-server/internal/game"
	"github.com/ugaemi/bubblewars-server/internal/store"
	"github.com/ugaemi/bubblewars-server/internal/ws"
)

var (
	ErrRoomFull       = errors.New("room is full")
	ErrNotWaiting     = errors.New("game already started")
	ErrNotPlaying     = errors.New("no game in progress")
	ErrMemberNotFound = errors.New("member not in room")
	ErrNoTeam         = errors.New("member has no team")
	ErrUnknownTeam    = errors.New("team is not on this map")
)

// Settings configures the matches hosted by rooms.
type Settings struct {
	Map    *game.MapConfig
	Rules  game.Rules
	Levels game.Levels
	// Matches records finished matches. Nil disables recording.
	Matches store.MatchStore
}

// Room represents a game room with members and, while playing, one match.
type Room struct {
	Code    string             `json:"code"`
	State   game.RoomState     `json:"state"`
	Members map[string]*Member `json:"members"`
	HostID  string             `json:"host_id"`

	// Client mapping: member ID -> ws client
	clients map[string]*ws.Client

	settings Settings

	// Match state, guarded by mu. The world is only touched with mu held.
	world     *game.World
	pending   []game.Event
	startedAt time.Time
	stopCh    chan struct{}

	mu sync.RWMutex
}

// NewRoom creates a new room with the given code.
func NewRoom(code string, settings Settings) *Room {
	if settings.Map == nil {
		settings.Map = game.DefaultMap()
	}
	return &Room{
		Code:     code,
		State:    game.StateWaiting,
		Members:  make(map[string]*Member),
		clients:  make(map[string]*ws.Client),
		settings: settings,
	}
}

// Map returns the map matches in this room are played on.
func (r *Room) Map() *game.MapConfig {
	return r.settings.Map
}

// AddMember adds a member to the room.
func (r *Room) AddMember(m *Member, client *ws.Client) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.State != game.StateWaiting {
		return ErrNotWaiting
	}
	if len(r.Members) >= game.MaxPlayers {
		return ErrRoomFull
	}

	r.Members[m.ID] = m
	r.clients[m.ID] = client

	if len(r.Members) == 1 {
		r.HostID = m.ID
	}
	return nil
}

// RemoveMember removes a member from the room.
func (r *Room) RemoveMember(memberID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.Members, memberID)
	delete(r.clients, memberID)

	// Transfer host if the host left
	if r.HostID == memberID && len(r.Members) > 0 {
		for id := range r.Members {
			r.HostID = id
			break
		}
	}
}

// HasMember reports whether memberID is in the room.
func (r *Room) HasMember(memberID string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.Members[memberID]
	return ok
}

// MemberCount returns the number of members.
func (r *Room) MemberCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.Members)
}

// SelectTeam assigns a member to one of the map's teams. Changing team
// clears the ready flag.
func (r *Room) SelectTeam(memberID, team string) error {
	if !slices.Contains(r.settings.Map.Teams, team) {
		return ErrUnknownTeam
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.State != game.StateWaiting {
		return ErrNotWaiting
	}
	m, ok := r.Members[memberID]
	if !ok {
		return ErrMemberNotFound
	}
	if m.Team != team {
		m.Team = team
		m.Ready = false
	}
	return nil
}

// MemberTeam returns the team of a member.
func (r *Room) MemberTeam(memberID string) (string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.memberTeam(memberID)
}

// memberTeam requires r.mu.
func (r *Room) memberTeam(memberID string) (string, error) {
	m, ok := r.Members[memberID]
	if !ok {
		return "", ErrMemberNotFound
	}
	if m.Team == "" {
		return "", ErrNoTeam
	}
	return m.Team, nil
}

// SetMemberReady sets a member's ready status and returns whether the room
// can start.
// This must be used instead of setting Ready directly to avoid race conditions.
func (r *Room) SetMemberReady(memberID string, ready bool) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if m, ok := r.Members[memberID]; ok {
		m.Ready = ready
	}

	return r.allReady()
}

// AllReady reports whether every member is ready and at least two teams
// are represented.
func (r *Room) AllReady() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.allReady()
}

// allReady requires r.mu.
func (r *Room) allReady() bool {
	if r.State != game.StateWaiting || len(r.Members) < game.MinPlayers {
		return false
	}

	teams := make(map[string]bool)
	for _, m := range r.Members {
		if !m.Ready || m.Team == "" {
			return false
		}
		teams[m.Team] = true
	}

	return len(teams) >= 2
}

// Host returns the member ID of the room host.
func (r *Room) Host() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.HostID
}

// GetMemberList returns copies of the members ordered by nickname.
func (r *Room) GetMemberList() []*Member {
	r.mu.RLock()
	defer r.mu.RUnlock()
	members := make([]*Member, 0, len(r.Members))
	for _, m := range r.Members {
		cp := *m
		members = append(members, &cp)
	}
	slices.SortFunc(members, func(a, b *Member) int {
		if c := cmp.Compare(a.Nickname, b.Nickname); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return members
}

// BroadcastMessage sends a message to all members in the room.
func (r *Room) BroadcastMessage(msg ws.Message) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, client := range r.clients {
		client.SendMessage(msg)
	}
}

// SendToMember sends a message to a specific member.
func (r *Room) SendToMember(memberID string, msg ws.Message) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if client, ok := r.clients[memberID]; ok {
		client.SendMessage(msg)
	}
}

// GetClient returns the WebSocket client for a member.
func (r *Room) GetClient(memberID string) *ws.Client {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.clients[memberID]
}

// IsEmpty returns true if the room has no members.
func (r *Room) IsEmpty() bool {
	return r.MemberCount() == 0
}

// GetState returns the room state.
func (r *Room) GetState() game.RoomState {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.State
}

// Reset returns an ended room to waiting, preserving members and teams.
func (r *Room) Reset() bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.State != game.StateEnded {
		return false
	}
	r.State = game.StateWaiting
	r.world = nil
	r.pending = nil
	for _, m := range r.Members {
		m.Reset()
	}
	return true
}

// PrepareGame builds the match world and transitions to playing state.
// Must be called before broadcasting game_start so clients receive the
// initial snapshot.
func (r *Room) PrepareGame() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.State != game.StateWaiting {
		return ErrNotWaiting
	}

	w, err := game.NewWorld(r.settings.Map, game.Options{
		Rules:   r.settings.Rules,
		Levels:  r.settings.Levels,
		Logger:  slog.Default().With("room", r.Code),
		OnEvent: r.queueEvent,
	})
	if err != nil {
		return fmt.Errorf("prepare game: %w", err)
	}

	r.world = w
	// Creation events are covered by the game_start snapshot.
	r.pending = nil
	r.State = game.StatePlaying
	r.startedAt = time.Now()
	r.stopCh = make(chan struct{})

	slog.Info("game prepared", "room", r.Code, "members", len(r.Members), "spawners", len(w.Spawners()))
	return nil
}

// queueEvent is the world's event listener. It runs with r.mu held.
func (r *Room) queueEvent(ev game.Event) {
	r.pending = append(r.pending, ev)
}

// takeEvents requires r.mu.
func (r *Room) takeEvents() []game.Event {
	events := r.pending
	r.pending = nil
	return events
}

// StartGameLoop starts the game tick loop. Must be called after PrepareGame
// and broadcasting game_start.
func (r *Room) StartGameLoop() {
	r.mu.RLock()
	stopCh := r.stopCh
	r.mu.RUnlock()
	if stopCh == nil {
		return
	}
	go r.gameLoop(stopCh)
}

// Snapshot returns the current match snapshot, or nil outside a match.
func (r *Room) Snapshot() *game.Snapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.world == nil {
		return nil
	}
	return r.world.Snapshot()
}

// ToggleDirection flips a routing direction of a spawner on behalf of a
// member's team.
func (r *Room) ToggleDirection(memberID string, spawnerID game.ID, direction int) error {
	return r.command(memberID, func(w *game.World, team string) error {
		return w.ToggleDirection(team, spawnerID, direction)
	})
}

// UpgradeSpawner spends the member's team coins on a spawner upgrade.
func (r *Room) UpgradeSpawner(memberID string, spawnerID game.ID) error {
	return r.command(memberID, func(w *game.World, team string) error {
		return w.Upgrade(team, spawnerID)
	})
}

// command runs fn against the world with the room lock held and broadcasts
// the events it produced.
func (r *Room) command(memberID string, fn func(*game.World, string) error) error {
	r.mu.Lock()
	if r.State != game.StatePlaying || r.world == nil {
		r.mu.Unlock()
		return ErrNotPlaying
	}
	team, err := r.memberTeam(memberID)
	if err != nil {
		r.mu.Unlock()
		return err
	}
	err = fn(r.world, team)
	events := r.takeEvents()
	r.mu.Unlock()

	r.broadcastEvents(events)
	return err
}

// StopGame stops the game loop, tears the match down and transitions to
// ended state. An empty winner means the match was abandoned.
func (r *Room) StopGame(winner string) {
	r.mu.Lock()

	if r.State != game.StatePlaying {
		r.mu.Unlock()
		return
	}

	r.State = game.StateEnded

	// Signal the game loop to stop
	select {
	case <-r.stopCh:
		// Already closed
	default:
		close(r.stopCh)
	}

	var snap *game.Snapshot
	var teams []string
	if r.world != nil {
		r.world.Close()
		snap = r.world.Snapshot()
		snap.Winner = winner
		teams = r.world.Teams()
	}
	res := matchResult{
		code:      r.Code,
		winner:    winner,
		teams:     teams,
		snapshot:  snap,
		startedAt: r.startedAt,
		endedAt:   time.Now(),
	}
	events := r.takeEvents()
	r.mu.Unlock()

	r.broadcastEvents(events)
	msg, _ := ws.NewMessage(ws.TypeGameOver, gameOverMessage{
		Winner:   winner,
		Snapshot: snap,
	})
	r.BroadcastMessage(msg)

	slog.Info("game ended", "room", r.Code, "winner", winner, "duration", res.endedAt.Sub(res.startedAt))

	if snap != nil {
		recordMatch(r.settings.Matches, res)
	}
}

type gameOverMessage struct {
	Winner   string         `json:"winner"`
	Snapshot *game.Snapshot `json:"snapshot,omitempty"`
}

type gameEventsMessage struct {
	Events []game.Event `json:"events"`
}

func (r *Room) broadcastEvents(events []game.Event) {
	if len(events) == 0 {
		return
	}
	msg, err := ws.NewMessage(ws.TypeGameEvents, gameEventsMessage{Events: events})
	if err != nil {
		slog.Error("failed to encode game events", "room", r.Code, "error", err)
		return
	}
	r.BroadcastMessage(msg)
}

// gameLoop runs the game tick loop at TickRate frequency.
func (r *Room) gameLoop(stopCh chan struct{}) {
	ticker := time.NewTicker(game.TickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stopCh:
			return
		case <-ticker.C:
			r.mu.Lock()
			if r.world == nil || r.State != game.StatePlaying {
				r.mu.Unlock()
				return
			}
			r.world.Step(game.TickInterval)
			events := r.takeEvents()
			snap := r.world.Snapshot()
			winner, over := r.world.Over()
			r.mu.Unlock()

			r.broadcastEvents(events)
			msg, _ := ws.NewMessage(ws.TypeGameState, snap)
			r.BroadcastMessage(msg)

			if over {
				r.StopGame(winner)
				return
			}
		}
	}
}
