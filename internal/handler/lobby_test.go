package handler

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ugaemi/bubblewars-server/internal/room"
	"github.com/ugaemi/bubblewars-server/internal/store"
	"github.com/ugaemi/bubblewars-server/internal/ws"
)

type testPeer struct {
	client *ws.Client
	ch     chan sentMessage
}

func setupLobbyTest(t *testing.T) (*Router, *room.Manager) {
	t.Helper()
	rm := room.NewManager(room.Settings{})
	t.Cleanup(rm.Shutdown)
	return NewRouter(rm, store.NewMemoryStore()), rm
}

func newPeer(t *testing.T, router *Router, nickname string) testPeer {
	t.Helper()
	client, ch := newTestClient("client-" + nickname)
	send(router, client, ws.TypeAuthenticate, authenticateRequest{Nickname: nickname})
	require.Equal(t, ws.TypeAuthResult, readResponse(t, ch).Type)
	return testPeer{client: client, ch: ch}
}

func createRoom(t *testing.T, router *Router, p testPeer) createRoomResponse {
	t.Helper()
	send(router, p.client, ws.TypeCreateRoom, createRoomRequest{})
	var resp createRoomResponse
	require.NoError(t, json.Unmarshal(expectMessage(t, p.ch, ws.TypeCreateRoom).Data, &resp))
	return resp
}

func joinRoom(t *testing.T, router *Router, p testPeer, code string) createRoomResponse {
	t.Helper()
	send(router, p.client, ws.TypeJoinRoom, joinRoomRequest{Code: code})
	var resp createRoomResponse
	require.NoError(t, json.Unmarshal(expectMessage(t, p.ch, ws.TypeJoinRoom).Data, &resp))
	return resp
}

func roomInfo(t *testing.T, p testPeer) roomInfoResponse {
	t.Helper()
	var info roomInfoResponse
	require.NoError(t, json.Unmarshal(expectMessage(t, p.ch, ws.TypeRoomInfo).Data, &info))
	return info
}

// startMatch puts two peers in one room on different teams and readies both.
func startMatch(t *testing.T, router *Router) (testPeer, testPeer, *room.Room, gameStartResponse) {
	t.Helper()
	host := newPeer(t, router, "host")
	guest := newPeer(t, router, "guest")

	created := createRoom(t, router, host)
	joinRoom(t, router, guest, created.Code)

	send(router, host.client, ws.TypeSelectTeam, selectTeamRequest{Team: created.Teams[0]})
	send(router, guest.client, ws.TypeSelectTeam, selectTeamRequest{Team: created.Teams[1]})
	send(router, host.client, ws.TypePlayerReady, nil)
	send(router, guest.client, ws.TypePlayerReady, nil)

	var start gameStartResponse
	require.NoError(t, json.Unmarshal(expectMessage(t, host.ch, ws.TypeGameStart).Data, &start))

	r := router.lobby.rm.GetRoom(created.Code)
	require.NotNil(t, r)
	return host, guest, r, start
}

func TestHandleCreateRoom(t *testing.T) {
	router, rm := setupLobbyTest(t)
	host := newPeer(t, router, "host")

	resp := createRoom(t, router, host)

	assert.Len(t, resp.Code, 4)
	assert.NotEmpty(t, resp.MemberID)
	assert.Equal(t, []string{"TEAM_A", "TEAM_B", "TEAM_C"}, resp.Teams)
	assert.Equal(t, resp.MemberID, router.GetMemberID(host.client.ID))

	info := roomInfo(t, host)
	assert.Equal(t, "waiting", info.State)
	assert.Equal(t, resp.MemberID, info.HostID)
	require.Len(t, info.Members, 1)
	assert.Equal(t, "host", info.Members[0].Nickname)
	assert.Equal(t, host.client.AccountID, info.Members[0].AccountID)

	assert.Equal(t, 1, rm.RoomCount())
}

func TestHandleCreateRoom_AlreadyInRoom(t *testing.T) {
	router, rm := setupLobbyTest(t)
	host := newPeer(t, router, "host")
	createRoom(t, router, host)

	send(router, host.client, ws.TypeCreateRoom, createRoomRequest{})

	assert.Equal(t, "already in a room", errorText(t, expectMessage(t, host.ch, ws.TypeError)))
	assert.Equal(t, 1, rm.RoomCount())
}

func TestHandleJoinRoom(t *testing.T) {
	router, _ := setupLobbyTest(t)
	host := newPeer(t, router, "host")
	guest := newPeer(t, router, "guest")
	created := createRoom(t, router, host)
	roomInfo(t, host)

	joined := joinRoom(t, router, guest, created.Code)
	assert.Equal(t, created.Code, joined.Code)

	info := roomInfo(t, host)
	assert.Len(t, info.Members, 2)
	assert.Equal(t, created.MemberID, info.HostID)
}

func TestHandleJoinRoom_Errors(t *testing.T) {
	router, _ := setupLobbyTest(t)
	guest := newPeer(t, router, "guest")

	send(router, guest.client, ws.TypeJoinRoom, joinRoomRequest{})
	assert.Equal(t, "room code is required", errorText(t, readResponse(t, guest.ch)))

	send(router, guest.client, ws.TypeJoinRoom, joinRoomRequest{Code: "ZZZZ"})
	assert.Equal(t, "room not found", errorText(t, readResponse(t, guest.ch)))
}

func TestHandleJoinRoom_LowercaseCode(t *testing.T) {
	router, _ := setupLobbyTest(t)
	host := newPeer(t, router, "host")
	guest := newPeer(t, router, "guest")
	created := createRoom(t, router, host)

	joined := joinRoom(t, router, guest, " "+strings.ToLower(created.Code)+" ")
	assert.Equal(t, created.Code, joined.Code)
}

func TestHandleJoinRoom_MatchInProgress(t *testing.T) {
	router, _ := setupLobbyTest(t)
	_, _, r, _ := startMatch(t, router)
	late := newPeer(t, router, "late")

	send(router, late.client, ws.TypeJoinRoom, joinRoomRequest{Code: r.Code})

	assert.Equal(t, room.ErrNotWaiting.Error(), errorText(t, readResponse(t, late.ch)))
}

func TestHandleSelectTeam(t *testing.T) {
	router, _ := setupLobbyTest(t)
	host := newPeer(t, router, "host")
	createRoom(t, router, host)
	roomInfo(t, host)

	send(router, host.client, ws.TypeSelectTeam, selectTeamRequest{Team: "TEAM_B"})
	info := roomInfo(t, host)
	require.Len(t, info.Members, 1)
	assert.Equal(t, "TEAM_B", info.Members[0].Team)

	send(router, host.client, ws.TypeSelectTeam, selectTeamRequest{Team: "TEAM_Q"})
	assert.Equal(t, room.ErrUnknownTeam.Error(), errorText(t, readResponse(t, host.ch)))
}

func TestHandleSelectTeam_NotInRoom(t *testing.T) {
	router, _ := setupLobbyTest(t)
	p := newPeer(t, router, "loner")

	send(router, p.client, ws.TypeSelectTeam, selectTeamRequest{Team: "TEAM_A"})

	assert.Equal(t, "not in a room", errorText(t, readResponse(t, p.ch)))
}

func TestHandlePlayerReady_RequiresTeam(t *testing.T) {
	router, _ := setupLobbyTest(t)
	host := newPeer(t, router, "host")
	createRoom(t, router, host)
	roomInfo(t, host)

	send(router, host.client, ws.TypePlayerReady, nil)

	assert.Equal(t, "select a team first", errorText(t, readResponse(t, host.ch)))
}

func TestHandlePlayerReady_StartsGame(t *testing.T) {
	router, _ := setupLobbyTest(t)
	_, guest, r, start := startMatch(t, router)

	require.NotNil(t, start.Map)
	require.NotNil(t, start.Snapshot)
	assert.Len(t, start.Members, 2)
	assert.Len(t, start.Snapshot.Spawners, len(start.Map.Spawners))
	assert.Equal(t, "playing", r.GetState().String())

	expectMessage(t, guest.ch, ws.TypeGameStart)
	expectMessage(t, guest.ch, ws.TypeGameState)
}

func TestHandlePlayerReady_Unready(t *testing.T) {
	router, _ := setupLobbyTest(t)
	host := newPeer(t, router, "host")
	createRoom(t, router, host)
	roomInfo(t, host)
	send(router, host.client, ws.TypeSelectTeam, selectTeamRequest{Team: "TEAM_A"})
	roomInfo(t, host)

	send(router, host.client, ws.TypePlayerReady, nil)
	assert.True(t, roomInfo(t, host).Members[0].Ready)

	notReady := false
	send(router, host.client, ws.TypePlayerReady, playerReadyRequest{Ready: &notReady})
	assert.False(t, roomInfo(t, host).Members[0].Ready)
}

func TestHandleReturnToLobby(t *testing.T) {
	router, _ := setupLobbyTest(t)
	host, _, r, _ := startMatch(t, router)

	send(router, host.client, ws.TypeReturnToLobby, nil)
	assert.Equal(t, "game is not over", errorText(t, expectMessage(t, host.ch, ws.TypeError)))

	r.StopGame("")
	expectMessage(t, host.ch, ws.TypeGameOver)

	send(router, host.client, ws.TypeReturnToLobby, nil)
	info := roomInfo(t, host)
	assert.Equal(t, "waiting", info.State)
	for _, m := range info.Members {
		assert.False(t, m.Ready)
	}
}

func TestHandleLeaveRoom_TransfersHost(t *testing.T) {
	router, rm := setupLobbyTest(t)
	host := newPeer(t, router, "host")
	guest := newPeer(t, router, "guest")
	created := createRoom(t, router, host)
	joined := joinRoom(t, router, guest, created.Code)
	roomInfo(t, guest)

	send(router, host.client, ws.TypeLeaveRoom, nil)

	info := roomInfo(t, guest)
	assert.Len(t, info.Members, 1)
	assert.Equal(t, joined.MemberID, info.HostID)
	assert.Empty(t, router.GetMemberID(host.client.ID))
	assert.Equal(t, 1, rm.RoomCount())
}

func TestHandleDisconnect_RemovesEmptyRoom(t *testing.T) {
	router, rm := setupLobbyTest(t)
	host := newPeer(t, router, "host")
	createRoom(t, router, host)

	router.HandleDisconnect(host.client)

	assert.Equal(t, 0, rm.RoomCount())
	assert.Empty(t, router.GetMemberID(host.client.ID))
}

func TestHandleDisconnect_DuringMatchEndsItWhenEmpty(t *testing.T) {
	router, rm := setupLobbyTest(t)
	host, guest, r, _ := startMatch(t, router)

	router.HandleDisconnect(host.client)
	assert.Equal(t, 1, rm.RoomCount())
	assert.Equal(t, "playing", r.GetState().String())

	router.HandleDisconnect(guest.client)
	assert.Equal(t, 0, rm.RoomCount())
	assert.Equal(t, "ended", r.GetState().String())
}
