package account

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewGuestAccount(t *testing.T) {
	acc := NewGuestAccount("게스트")

	assert.NotEmpty(t, acc.ID)
	assert.Equal(t, "게스트", acc.Nickname)
	assert.True(t, acc.IsGuest)
	assert.False(t, acc.CreatedAt.IsZero())
	assert.False(t, acc.LastLoginAt.IsZero())
}

func TestNewGuestAccount_UniqueIDs(t *testing.T) {
	acc1 := NewGuestAccount("유저1")
	acc2 := NewGuestAccount("유저2")

	assert.NotEqual(t, acc1.ID, acc2.ID)
}

func TestNormalizeNickname(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr error
	}{
		{"plain", "bubbler", "bubbler", nil},
		{"trims spaces", "  red  ", "red", nil},
		{"multibyte at limit", strings.Repeat("방", MaxNicknameLength), strings.Repeat("방", MaxNicknameLength), nil},
		{"empty", "", "", ErrEmptyNickname},
		{"only spaces", "   ", "", ErrEmptyNickname},
		{"too long", strings.Repeat("a", MaxNicknameLength+1), "", ErrNicknameTooLong},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NormalizeNickname(tt.input)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
