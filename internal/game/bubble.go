package game

import (
	"math"
	"math/rand"
	"time"
)

// Bubble is a mass unit travelling between map points. Its team is fixed at
// creation. A bubble whose mass reaches zero is dead; removing it is up to the
// caller.
type Bubble struct {
	ID     ID
	Team   string
	Color  uint32
	Origin ID

	mass int

	Position  Position
	MovedFrom Position
	Target    Position
	Speed     float64

	moving    bool
	cancelled bool
}

// NewBubble creates a bubble carrying the spawner's current bubble mass,
// placed on the spawner.
func NewBubble(s *Spawner, speed float64) *Bubble {
	return &Bubble{
		Team:      s.Team,
		Color:     s.Color,
		Origin:    s.ID,
		mass:      s.BubbleMass,
		Position:  s.Position,
		MovedFrom: s.Position,
		Speed:     speed,
	}
}

// BubbleSize is the area-preserving diameter for mass: 2·sqrt(mass·π).
func BubbleSize(mass int) float64 {
	if mass <= 0 {
		return 0
	}
	return 2 * math.Sqrt(float64(mass)*math.Pi)
}

func (b *Bubble) Mass() int {
	return b.mass
}

// Size is always derived from the current mass.
func (b *Bubble) Size() float64 {
	return BubbleSize(b.mass)
}

// Radius is half the size.
func (b *Bubble) Radius() float64 {
	return b.Size() / 2
}

// SetMass sets the mass, clamping negatives to zero, and returns the
// new-size to old-size ratio the visual scale must be multiplied by.
func (b *Bubble) SetMass(mass int) float64 {
	if mass < 0 {
		mass = 0
	}
	old := b.Size()
	b.mass = mass
	if old == 0 {
		return 0
	}
	return b.Size() / old
}

// Alive reports whether the bubble still has mass and has not been cancelled.
func (b *Bubble) Alive() bool {
	return b.mass > 0 && !b.cancelled
}

// Cancel stops the bubble's movement chain; no further arrivals happen.
func (b *Bubble) Cancel() {
	b.cancelled = true
	b.moving = false
}

func (b *Bubble) Cancelled() bool {
	return b.cancelled
}

// Moving reports whether the bubble is travelling to a waypoint.
func (b *Bubble) Moving() bool {
	return b.moving
}

// MoveTo starts a new leg from the current position to target.
func (b *Bubble) MoveTo(target Position) {
	if b.cancelled {
		return
	}
	b.MovedFrom = b.Position
	b.Target = target
	b.moving = true
}

// Launch starts the first leg from origin toward target, placing the bubble
// offset pixels along it. origin is remembered as the previous waypoint.
func (b *Bubble) Launch(origin, target Position, offset float64) {
	if b.cancelled {
		return
	}
	b.MovedFrom = origin
	b.Target = target
	if Distance(origin, target) <= offset {
		b.Position = target
	} else {
		b.Position = Offset(origin, target, offset)
	}
	b.moving = true
}

// Advance moves the bubble along its leg at constant speed and reports
// whether it arrived at the target during this step.
func (b *Bubble) Advance(dt time.Duration) bool {
	if !b.moving || b.cancelled {
		return false
	}
	pos, arrived := StepTowards(b.Position, b.Target, b.Speed*dt.Seconds())
	b.Position = pos
	if arrived {
		b.moving = false
	}
	return arrived
}

// NextDirection picks a move uniformly at random, never choosing movedFrom
// unless it is the only option. It returns false when moves is empty.
func NextDirection(rng *rand.Rand, moves []Position, movedFrom Position) (Position, bool) {
	if len(moves) == 0 {
		return Position{}, false
	}
	candidates := moves
	if len(moves) > 1 {
		candidates = make([]Position, 0, len(moves))
		for _, m := range moves {
			if !m.Equal(movedFrom) {
				candidates = append(candidates, m)
			}
		}
		if len(candidates) == 0 {
			candidates = moves
		}
	}
	return candidates[RandomInt(rng, 0, len(candidates)-1)], true
}

// BubbleState is the presentation view of a bubble.
type BubbleState struct {
	ID       ID       `json:"id" msgpack:"id"`
	Team     string   `json:"team" msgpack:"team"`
	Color    uint32   `json:"color" msgpack:"color"`
	Origin   ID       `json:"origin" msgpack:"origin"`
	Mass     int      `json:"mass" msgpack:"mass"`
	Size     float64  `json:"size" msgpack:"size"`
	Position Position `json:"position" msgpack:"position"`
	Target   Position `json:"target" msgpack:"target"`
}

// State returns a copy of the bubble for the presentation layer.
func (b *Bubble) State() *BubbleState {
	return &BubbleState{
		ID:       b.ID,
		Team:     b.Team,
		Color:    b.Color,
		Origin:   b.Origin,
		Mass:     b.mass,
		Size:     b.Size(),
		Position: b.Position,
		Target:   b.Target,
	}
}
