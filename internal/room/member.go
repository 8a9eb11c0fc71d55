package room

import "github.com/google/uuid"

// Member is a connected participant of a room. A member plays for one of the
// teams of the room's map.
type Member struct {
	ID        string `json:"id"`
	AccountID string `json:"account_id,omitempty"`
	Nickname  string `json:"nickname"`
	Team      string `json:"team,omitempty"`
	Ready     bool   `json:"ready"`
}

// NewMember creates a member with a fresh ID.
func NewMember(accountID, nickname string) *Member {
	return &Member{
		ID:        uuid.NewString(),
		AccountID: accountID,
		Nickname:  nickname,
	}
}

// Reset clears the ready flag, keeping the team selection.
func (m *Member) Reset() {
	m.Ready = false
}
