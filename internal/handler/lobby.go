package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"strings"

	"github.com/ugaemi/bubblewars-server/internal/account"
	"github.com/ugaemi/bubblewars-server/internal/game"
	"github.com/ugaemi/bubblewars-server/internal/room"
	"github.com/ugaemi/bubblewars-server/internal/ws"
)

// LobbyHandler handles lobby-related messages.
type LobbyHandler struct {
	rm     *room.Manager
	router *Router
}

// NewLobbyHandler creates a new lobby handler.
func NewLobbyHandler(rm *room.Manager, router *Router) *LobbyHandler {
	return &LobbyHandler{
		rm:     rm,
		router: router,
	}
}

type createRoomRequest struct {
	Nickname string `json:"nickname"`
}

type createRoomResponse struct {
	Code     string   `json:"code"`
	MemberID string   `json:"member_id"`
	Teams    []string `json:"teams"`
}

// HandleCreateRoom handles room creation.
func (h *LobbyHandler) HandleCreateRoom(client *ws.Client, msg ws.Message) {
	var req createRoomRequest
	if err := unmarshalOptional(msg.Data, &req); err != nil {
		client.SendError("invalid create room data")
		return
	}
	nickname, err := h.nickname(client, req.Nickname)
	if err != nil {
		client.SendError(err.Error())
		return
	}
	if h.router.GetMemberID(client.ID) != "" {
		client.SendError("already in a room")
		return
	}

	r, err := h.rm.CreateRoom()
	if err != nil {
		slog.Error("failed to create room", "error", err)
		client.SendError("could not create room")
		return
	}
	member := room.NewMember(client.AccountID, nickname)
	if err := r.AddMember(member, client); err != nil {
		h.rm.RemoveRoom(r.Code)
		client.SendError(err.Error())
		return
	}
	h.router.RegisterMember(client.ID, member.ID)

	resp, _ := ws.NewMessage(ws.TypeCreateRoom, createRoomResponse{
		Code:     r.Code,
		MemberID: member.ID,
		Teams:    r.Map().Teams,
	})
	client.SendMessage(resp)
	h.broadcastRoomInfo(r)

	slog.Info("member created room", "member", member.Nickname, "room", r.Code)
}

type joinRoomRequest struct {
	Code     string `json:"code"`
	Nickname string `json:"nickname"`
}

// HandleJoinRoom handles joining an existing room.
func (h *LobbyHandler) HandleJoinRoom(client *ws.Client, msg ws.Message) {
	var req joinRoomRequest
	if err := json.Unmarshal(msg.Data, &req); err != nil || strings.TrimSpace(req.Code) == "" {
		client.SendError("room code is required")
		return
	}
	nickname, err := h.nickname(client, req.Nickname)
	if err != nil {
		client.SendError(err.Error())
		return
	}
	if h.router.GetMemberID(client.ID) != "" {
		client.SendError("already in a room")
		return
	}

	r := h.rm.GetRoom(strings.ToUpper(strings.TrimSpace(req.Code)))
	if r == nil {
		client.SendError("room not found")
		return
	}

	member := room.NewMember(client.AccountID, nickname)
	if err := r.AddMember(member, client); err != nil {
		client.SendError(err.Error())
		return
	}
	h.router.RegisterMember(client.ID, member.ID)

	resp, _ := ws.NewMessage(ws.TypeJoinRoom, createRoomResponse{
		Code:     r.Code,
		MemberID: member.ID,
		Teams:    r.Map().Teams,
	})
	client.SendMessage(resp)

	h.broadcastRoomInfo(r)

	slog.Info("member joined room", "member", member.Nickname, "room", r.Code)
}

type selectTeamRequest struct {
	Team string `json:"team"`
}

// HandleSelectTeam handles team selection.
func (h *LobbyHandler) HandleSelectTeam(client *ws.Client, msg ws.Message) {
	var req selectTeamRequest
	if err := json.Unmarshal(msg.Data, &req); err != nil || req.Team == "" {
		client.SendError("invalid team selection")
		return
	}

	memberID, r := h.memberRoom(client)
	if r == nil {
		client.SendError("not in a room")
		return
	}

	if err := r.SelectTeam(memberID, req.Team); err != nil {
		client.SendError(err.Error())
		return
	}
	h.broadcastRoomInfo(r)

	slog.Info("member selected team", "member", memberID, "team", req.Team)
}

type playerReadyRequest struct {
	Ready *bool `json:"ready"`
}

// HandlePlayerReady handles member ready status. Without a payload the member
// is marked ready.
func (h *LobbyHandler) HandlePlayerReady(client *ws.Client, msg ws.Message) {
	var req playerReadyRequest
	if err := unmarshalOptional(msg.Data, &req); err != nil {
		client.SendError("invalid ready data")
		return
	}
	ready := req.Ready == nil || *req.Ready

	memberID, r := h.memberRoom(client)
	if r == nil {
		client.SendError("not in a room")
		return
	}
	if r.GetState() != game.StateWaiting {
		client.SendError(room.ErrNotWaiting.Error())
		return
	}
	if _, err := r.MemberTeam(memberID); ready && errors.Is(err, room.ErrNoTeam) {
		client.SendError("select a team first")
		return
	}

	allReady := r.SetMemberReady(memberID, ready)
	h.broadcastRoomInfo(r)

	slog.Info("member ready", "member", memberID, "room", r.Code, "ready", ready)

	if allReady {
		h.startGame(r)
	}
}

type gameStartResponse struct {
	Map      *game.MapConfig `json:"map"`
	Members  []*room.Member  `json:"members"`
	Snapshot *game.Snapshot  `json:"snapshot"`
}

func (h *LobbyHandler) startGame(r *room.Room) {
	if err := r.PrepareGame(); err != nil {
		slog.Error("failed to start game", "room", r.Code, "error", err)
		r.BroadcastMessage(ws.NewErrorMessage("could not start game"))
		return
	}

	// Broadcast game_start before starting the loop
	startMsg, err := ws.NewMessage(ws.TypeGameStart, gameStartResponse{
		Map:      r.Map(),
		Members:  r.GetMemberList(),
		Snapshot: r.Snapshot(),
	})
	if err != nil {
		slog.Error("failed to encode game start", "room", r.Code, "error", err)
	}
	r.BroadcastMessage(startMsg)
	r.StartGameLoop()
	slog.Info("all members ready, game starting", "room", r.Code)
}

// HandleReturnToLobby moves an ended room back to the waiting state.
func (h *LobbyHandler) HandleReturnToLobby(client *ws.Client, _ ws.Message) {
	_, r := h.memberRoom(client)
	if r == nil {
		client.SendError("not in a room")
		return
	}
	if !r.Reset() {
		client.SendError("game is not over")
		return
	}
	h.broadcastRoomInfo(r)
	slog.Info("room returned to lobby", "room", r.Code)
}

// HandleLeaveRoom handles a member leaving a room.
func (h *LobbyHandler) HandleLeaveRoom(client *ws.Client, _ ws.Message) {
	h.removeMember(client)
}

// HandleDisconnect handles client disconnection.
func (h *LobbyHandler) HandleDisconnect(client *ws.Client) {
	h.removeMember(client)
}

func (h *LobbyHandler) removeMember(client *ws.Client) {
	memberID, r := h.memberRoom(client)
	if memberID == "" {
		return
	}

	if r != nil {
		r.RemoveMember(memberID)
		if r.IsEmpty() {
			h.rm.RemoveRoom(r.Code)
		} else {
			h.broadcastRoomInfo(r)
		}
	}

	h.router.UnregisterMember(client.ID)
	slog.Info("member left", "member", memberID)
}

// memberRoom returns the client's member ID and the room holding it.
func (h *LobbyHandler) memberRoom(client *ws.Client) (string, *room.Room) {
	memberID := h.router.GetMemberID(client.ID)
	return memberID, h.rm.FindRoomByMemberID(memberID)
}

// nickname picks the requested nickname or falls back to the account's.
func (h *LobbyHandler) nickname(client *ws.Client, requested string) (string, error) {
	if strings.TrimSpace(requested) == "" {
		requested = client.Nickname
	}
	return account.NormalizeNickname(requested)
}

type roomInfoResponse struct {
	Code    string         `json:"code"`
	State   string         `json:"state"`
	Map     string         `json:"map,omitempty"`
	Teams   []string       `json:"teams"`
	Members []*room.Member `json:"members"`
	HostID  string         `json:"host_id"`
}

func (h *LobbyHandler) broadcastRoomInfo(r *room.Room) {
	resp, _ := ws.NewMessage(ws.TypeRoomInfo, roomInfoResponse{
		Code:    r.Code,
		State:   r.GetState().String(),
		Map:     r.Map().Name,
		Teams:   r.Map().Teams,
		Members: r.GetMemberList(),
		HostID:  r.Host(),
	})
	r.BroadcastMessage(resp)
}

// unmarshalOptional decodes data unless the payload is absent.
func unmarshalOptional(data json.RawMessage, v any) error {
	if len(data) == 0 || string(data) == "null" {
		return nil
	}
	return json.Unmarshal(data, v)
}
