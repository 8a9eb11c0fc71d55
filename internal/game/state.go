package game

import "encoding/json"

type RoomState int

const (
	StateWaiting RoomState = iota
	StatePlaying
	StateEnded
)

func (s RoomState) String() string {
	switch s {
	case StateWaiting:
		return "waiting"
	case StatePlaying:
		return "playing"
	case StateEnded:
		return "ended"
	default:
		return "unknown"
	}
}

// MarshalJSON serializes RoomState as a string.
func (s RoomState) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}
