package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/gorilla/websocket"

	"github.com/ugaemi/bubblewars-server/internal/account"
	"github.com/ugaemi/bubblewars-server/internal/store"
	"github.com/ugaemi/bubblewars-server/internal/ws"
)

const (
	authTimeout  = 10 * time.Second
	storeTimeout = 5 * time.Second
)

// AuthHandler handles authentication messages.
type AuthHandler struct {
	store   store.AccountStore
	timeout time.Duration
}

// NewAuthHandler creates a new auth handler.
func NewAuthHandler(store store.AccountStore) *AuthHandler {
	return &AuthHandler{
		store:   store,
		timeout: authTimeout,
	}
}

type authenticateRequest struct {
	Nickname string `json:"nickname,omitempty"`
	// AccountID resumes an earlier guest account.
	AccountID string `json:"account_id,omitempty"`
}

type authSuccessResponse struct {
	Success   bool   `json:"success"`
	AccountID string `json:"account_id"`
	Nickname  string `json:"nickname"`
	Resumed   bool   `json:"resumed"`
}

type authFailureResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

// HandleAuthenticate processes an authentication request. A known account_id
// resumes that account; otherwise a new guest account is created.
func (h *AuthHandler) HandleAuthenticate(client *ws.Client, msg ws.Message) {
	if client.Authenticated {
		client.SendError("already authenticated")
		return
	}

	var req authenticateRequest
	if err := json.Unmarshal(msg.Data, &req); err != nil {
		h.sendFailure(client, "invalid auth data")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
	defer cancel()

	if req.AccountID != "" {
		acc, err := h.store.FindByID(ctx, req.AccountID)
		if err != nil {
			slog.Error("failed to find account", "error", err)
			h.sendFailure(client, "internal error")
			return
		}
		if acc != nil {
			h.resume(ctx, client, acc, req.Nickname)
			return
		}
		slog.Info("unknown account, creating a new one", "account_id", req.AccountID)
	}

	h.handleGuest(ctx, client, req)
}

func (h *AuthHandler) resume(ctx context.Context, client *ws.Client, acc *account.Account, nickname string) {
	if nickname != "" {
		normalized, err := account.NormalizeNickname(nickname)
		if err != nil {
			h.sendFailure(client, err.Error())
			return
		}
		if normalized != acc.Nickname {
			if err := h.store.UpdateNickname(ctx, acc.ID, normalized); err != nil {
				slog.Error("failed to update nickname", "error", err)
				h.sendFailure(client, "internal error")
				return
			}
			acc.Nickname = normalized
		}
	}
	if err := h.store.UpdateLastLogin(ctx, acc.ID); err != nil {
		slog.Warn("failed to update last login", "account_id", acc.ID, "error", err)
	}

	slog.Info("guest account resumed", "account_id", acc.ID)
	h.authenticateClient(client, acc, true)
}

func (h *AuthHandler) handleGuest(ctx context.Context, client *ws.Client, req authenticateRequest) {
	nickname, err := account.NormalizeNickname(req.Nickname)
	if err != nil {
		h.sendFailure(client, err.Error())
		return
	}

	acc := account.NewGuestAccount(nickname)
	if err := h.store.Create(ctx, acc); err != nil {
		slog.Error("failed to create guest account", "error", err)
		h.sendFailure(client, "internal error")
		return
	}

	slog.Info("new guest account created", "account_id", acc.ID, "nickname", nickname)
	h.authenticateClient(client, acc, false)
}

func (h *AuthHandler) authenticateClient(client *ws.Client, acc *account.Account, resumed bool) {
	client.AccountID = acc.ID
	client.Nickname = acc.Nickname
	client.Authenticated = true

	resp, _ := ws.NewMessage(ws.TypeAuthResult, authSuccessResponse{
		Success:   true,
		AccountID: acc.ID,
		Nickname:  acc.Nickname,
		Resumed:   resumed,
	})
	client.SendMessage(resp)

	slog.Info("client authenticated", "client", client.ID, "account_id", acc.ID)
}

func (h *AuthHandler) sendFailure(client *ws.Client, errMsg string) {
	resp, _ := ws.NewMessage(ws.TypeAuthResult, authFailureResponse{
		Success: false,
		Error:   errMsg,
	})
	client.SendMessage(resp)
}

// StartAuthTimeout closes the connection if the client doesn't authenticate in time.
func (h *AuthHandler) StartAuthTimeout(client *ws.Client) {
	time.AfterFunc(h.timeout, func() {
		if client.Authenticated {
			return
		}
		slog.Info("auth timeout, closing connection", "client", client.ID)
		client.SendError("authentication timeout")
		client.Close(websocket.ClosePolicyViolation, "authentication timeout")
	})
}
