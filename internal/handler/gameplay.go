package handler

import (
	"encoding/json"
	"log/slog"

	"github.com/ugaemi/bubblewars-server/internal/game"
	"github.com/ugaemi/bubblewars-server/internal/room"
	"github.com/ugaemi/bubblewars-server/internal/ws"
)

// GameplayHandler handles in-game messages.
type GameplayHandler struct {
	rm     *room.Manager
	router *Router
}

// NewGameplayHandler creates a new gameplay handler.
func NewGameplayHandler(rm *room.Manager, router *Router) *GameplayHandler {
	return &GameplayHandler{rm: rm, router: router}
}

type toggleDirectionRequest struct {
	SpawnerID game.ID `json:"spawner_id"`
	Direction *int    `json:"direction"`
}

// HandleToggleDirection enables or disables one routing direction of a
// spawner owned by the member's team.
func (h *GameplayHandler) HandleToggleDirection(client *ws.Client, msg ws.Message) {
	var req toggleDirectionRequest
	if err := json.Unmarshal(msg.Data, &req); err != nil || req.SpawnerID == game.NoID || req.Direction == nil {
		client.SendError("invalid toggle data")
		return
	}

	memberID, r := h.memberRoom(client)
	if r == nil {
		client.SendError("not in a room")
		return
	}

	if err := r.ToggleDirection(memberID, req.SpawnerID, *req.Direction); err != nil {
		slog.Debug("toggle rejected", "member", memberID, "spawner", req.SpawnerID, "error", err)
		client.SendError(err.Error())
		return
	}
	slog.Debug("direction toggled", "member", memberID, "spawner", req.SpawnerID, "direction", *req.Direction)
}

type upgradeSpawnerRequest struct {
	SpawnerID game.ID `json:"spawner_id"`
}

// HandleUpgradeSpawner spends team coins on a spawner upgrade.
func (h *GameplayHandler) HandleUpgradeSpawner(client *ws.Client, msg ws.Message) {
	var req upgradeSpawnerRequest
	if err := json.Unmarshal(msg.Data, &req); err != nil || req.SpawnerID == game.NoID {
		client.SendError("invalid upgrade data")
		return
	}

	memberID, r := h.memberRoom(client)
	if r == nil {
		client.SendError("not in a room")
		return
	}

	if err := r.UpgradeSpawner(memberID, req.SpawnerID); err != nil {
		slog.Debug("upgrade rejected", "member", memberID, "spawner", req.SpawnerID, "error", err)
		client.SendError(err.Error())
		return
	}
}

func (h *GameplayHandler) memberRoom(client *ws.Client) (string, *room.Room) {
	memberID := h.router.GetMemberID(client.ID)
	return memberID, h.rm.FindRoomByMemberID(memberID)
}
