package handler

import (
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/ugaemi/bubblewars-server/internal/room"
	"github.com/ugaemi/bubblewars-server/internal/store"
	"github.com/ugaemi/bubblewars-server/internal/ws"
)

// Router dispatches incoming messages to the appropriate handler.
type Router struct {
	authH    *AuthHandler
	lobby    *LobbyHandler
	gameplay *GameplayHandler

	// memberMap tracks client ID -> member ID mapping, shared across handlers.
	memberMap map[string]string
	mu        sync.RWMutex
}

// NewRouter creates a new message router.
func NewRouter(rm *room.Manager, accountStore store.AccountStore) *Router {
	r := &Router{
		memberMap: make(map[string]string),
	}
	r.authH = NewAuthHandler(accountStore)
	r.lobby = NewLobbyHandler(rm, r)
	r.gameplay = NewGameplayHandler(rm, r)
	return r
}

// RegisterMember maps a client ID to a member ID.
func (r *Router) RegisterMember(clientID, memberID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.memberMap[clientID] = memberID
}

// UnregisterMember removes a client's member mapping.
func (r *Router) UnregisterMember(clientID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.memberMap, clientID)
}

// GetMemberID returns the member ID for a client, or empty string if not found.
func (r *Router) GetMemberID(clientID string) string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.memberMap[clientID]
}

// HandleMessage parses and routes an incoming client message.
func (r *Router) HandleMessage(cm *ws.ClientMessage) {
	var msg ws.Message
	if err := json.Unmarshal(cm.Data, &msg); err != nil {
		slog.Warn("invalid message format", "client", cm.Client.ID, "error", err)
		cm.Client.SendError("invalid message format")
		return
	}

	// Auth messages are always allowed
	if msg.Type == ws.TypeAuthenticate {
		r.authH.HandleAuthenticate(cm.Client, msg)
		return
	}

	// Auth guard: block unauthenticated clients
	if !cm.Client.Authenticated {
		cm.Client.SendError("authentication required")
		return
	}

	switch msg.Type {
	// Lobby messages
	case ws.TypeCreateRoom:
		r.lobby.HandleCreateRoom(cm.Client, msg)
	case ws.TypeJoinRoom:
		r.lobby.HandleJoinRoom(cm.Client, msg)
	case ws.TypeLeaveRoom:
		r.lobby.HandleLeaveRoom(cm.Client, msg)
	case ws.TypeSelectTeam:
		r.lobby.HandleSelectTeam(cm.Client, msg)
	case ws.TypePlayerReady:
		r.lobby.HandlePlayerReady(cm.Client, msg)
	case ws.TypeReturnToLobby:
		r.lobby.HandleReturnToLobby(cm.Client, msg)

	// Gameplay messages
	case ws.TypeToggleDirection:
		r.gameplay.HandleToggleDirection(cm.Client, msg)
	case ws.TypeUpgradeSpawner:
		r.gameplay.HandleUpgradeSpawner(cm.Client, msg)

	default:
		slog.Warn("unknown message type", "type", msg.Type, "client", cm.Client.ID)
		cm.Client.SendError("unknown message type: " + msg.Type)
	}
}

// HandleDisconnect handles client disconnection.
func (r *Router) HandleDisconnect(client *ws.Client) {
	r.lobby.HandleDisconnect(client)
}

// StartAuthTimeout starts the authentication timeout for a new client.
func (r *Router) StartAuthTimeout(client *ws.Client) {
	r.authH.StartAuthTimeout(client)
}
