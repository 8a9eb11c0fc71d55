package account

import (
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

// MaxNicknameLength is the longest accepted nickname, in runes.
const MaxNicknameLength = 16

var (
	ErrEmptyNickname   = errors.New("nickname is required")
	ErrNicknameTooLong = errors.New("nickname is too long")
)

// Account represents a persistent player account.
type Account struct {
	ID          string    `json:"id"`
	Nickname    string    `json:"nickname"`
	IsGuest     bool      `json:"is_guest"`
	CreatedAt   time.Time `json:"created_at"`
	LastLoginAt time.Time `json:"last_login_at"`
}

// NewGuestAccount creates a new guest account with only a nickname.
func NewGuestAccount(nickname string) *Account {
	now := time.Now()
	return &Account{
		ID:          uuid.New().String(),
		Nickname:    nickname,
		IsGuest:     true,
		CreatedAt:   now,
		LastLoginAt: now,
	}
}

// NormalizeNickname trims surrounding space and checks the length.
func NormalizeNickname(nickname string) (string, error) {
	nickname = strings.TrimSpace(nickname)
	if nickname == "" {
		return "", ErrEmptyNickname
	}
	if utf8.RuneCountInString(nickname) > MaxNicknameLength {
		return "", ErrNicknameTooLong
	}
	return nickname, nil
}
