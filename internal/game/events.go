package game

import "encoding/json"

// EventKind identifies an outbound event for the presentation layer.
type EventKind int

const (
	EventSpawnerCreated EventKind = iota + 1
	EventSpawnerUpdated
	EventSpawnerCaptured
	EventSpawnerNeutralized
	EventSpawnerUpgraded
	EventBubbleCreated
	EventBubbleResized
	EventBubbleDestroyed
	EventCoinsUpdated
	EventMatchOver
)

func (k EventKind) String() string {
	switch k {
	case EventSpawnerCreated:
		return "spawner_created"
	case EventSpawnerUpdated:
		return "spawner_updated"
	case EventSpawnerCaptured:
		return "spawner_captured"
	case EventSpawnerNeutralized:
		return "spawner_neutralized"
	case EventSpawnerUpgraded:
		return "spawner_upgraded"
	case EventBubbleCreated:
		return "bubble_created"
	case EventBubbleResized:
		return "bubble_resized"
	case EventBubbleDestroyed:
		return "bubble_destroyed"
	case EventCoinsUpdated:
		return "coins_updated"
	case EventMatchOver:
		return "match_over"
	default:
		return "unknown"
	}
}

// MarshalJSON serializes EventKind as a string.
func (k EventKind) MarshalJSON() ([]byte, error) {
	return json.Marshal(k.String())
}

// Event describes a state change in the world. Only the fields relevant to
// the Kind are set.
type Event struct {
	Kind    EventKind     `json:"kind"`
	Spawner *SpawnerState `json:"spawner,omitempty"`
	Bubble  *BubbleState  `json:"bubble,omitempty"`
	Team    string        `json:"team,omitempty"`
	Coins   int           `json:"coins,omitempty"`
	// Scale is the old-size to new-size ratio for EventBubbleResized.
	Scale float64 `json:"scale,omitempty"`
}

// Subscription identifies a registered listener.
type Subscription uint64

type listener[T any] struct {
	sub Subscription
	fn  func(T)
}

// Bus delivers values to its listeners synchronously, in subscription order.
// Listeners may unsubscribe (themselves or others) while a value is being
// delivered; removed listeners are not called afterwards.
type Bus[T any] struct {
	next      Subscription
	listeners []listener[T]
}

// NewBus creates an empty bus.
func NewBus[T any]() *Bus[T] {
	return &Bus[T]{}
}

// Subscribe registers fn and returns a token for Unsubscribe.
func (b *Bus[T]) Subscribe(fn func(T)) Subscription {
	b.next++
	b.listeners = append(b.listeners, listener[T]{sub: b.next, fn: fn})
	return b.next
}

// Unsubscribe removes the listener. Unknown tokens are ignored.
func (b *Bus[T]) Unsubscribe(sub Subscription) {
	for i, l := range b.listeners {
		if l.sub == sub {
			b.listeners = append(b.listeners[:i:i], b.listeners[i+1:]...)
			return
		}
	}
}

// Clear removes every listener.
func (b *Bus[T]) Clear() {
	b.listeners = nil
}

// Len returns the number of listeners.
func (b *Bus[T]) Len() int {
	return len(b.listeners)
}

// Publish calls every listener with v.
func (b *Bus[T]) Publish(v T) {
	snapshot := b.listeners
	for _, l := range snapshot {
		if !b.has(l.sub) {
			continue
		}
		l.fn(v)
	}
}

func (b *Bus[T]) has(sub Subscription) bool {
	for _, l := range b.listeners {
		if l.sub == sub {
			return true
		}
	}
	return false
}
