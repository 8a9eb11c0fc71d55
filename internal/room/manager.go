package room

import (
	"log/slog"
	"math/rand"
	"sync"
	"time"
)

// Manager manages all active rooms.
type Manager struct {
	rooms    map[string]*Room // code -> room
	settings Settings
	rng      *rand.Rand
	mu       sync.RWMutex
}

// NewManager creates a new room manager. Every room it creates hosts
// matches with settings.
func NewManager(settings Settings) *Manager {
	return &Manager{
		rooms:    make(map[string]*Room),
		settings: settings,
		rng:      rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// CreateRoom creates a new room and returns it.
func (m *Manager) CreateRoom() (*Room, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	code, err := GenerateCode(m.rng, func(c string) bool {
		_, taken := m.rooms[c]
		return taken
	})
	if err != nil {
		return nil, err
	}

	room := NewRoom(code, m.settings)
	m.rooms[code] = room

	slog.Info("room created", "code", code)
	return room, nil
}

// GetRoom returns a room by its code.
func (m *Manager) GetRoom(code string) *Room {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.rooms[code]
}

// RemoveRoom stops any match in progress and removes the room.
func (m *Manager) RemoveRoom(code string) {
	m.mu.Lock()
	room, ok := m.rooms[code]
	delete(m.rooms, code)
	m.mu.Unlock()

	if !ok {
		return
	}
	room.StopGame("")
	slog.Info("room removed", "code", code)
}

// RoomCount returns the number of active rooms.
func (m *Manager) RoomCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.rooms)
}

// FindRoomByMemberID finds the room containing a member.
func (m *Manager) FindRoomByMemberID(memberID string) *Room {
	if memberID == "" {
		return nil
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, room := range m.rooms {
		if room.HasMember(memberID) {
			return room
		}
	}
	return nil
}

// Shutdown stops every running match.
func (m *Manager) Shutdown() {
	m.mu.RLock()
	rooms := make([]*Room, 0, len(m.rooms))
	for _, room := range m.rooms {
		rooms = append(rooms, room)
	}
	m.mu.RUnlock()

	for _, room := range rooms {
		room.StopGame("")
	}
}
