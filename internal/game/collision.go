package game

import "math"

// BubblesOverlap reports whether two bubbles of different teams touch.
// Same-team bubbles never collide.
func BubblesOverlap(a, b *Bubble) bool {
	if a.Team == b.Team {
		return false
	}
	return Distance(a.Position, b.Position) < a.Radius()+b.Radius()
}

// BubbleTouchesSpawner reports whether a bubble overlaps the square of side
// size centered on the spawner.
func BubbleTouchesSpawner(b *Bubble, s *Spawner, size float64) bool {
	half := size / 2
	cx := math.Max(s.Position.X-half, math.Min(b.Position.X, s.Position.X+half))
	cy := math.Max(s.Position.Y-half, math.Min(b.Position.Y, s.Position.Y+half))
	return Distance(b.Position, Position{X: cx, Y: cy}) < b.Radius()
}

// BubbleOutcome is the result of a collision for one bubble.
type BubbleOutcome struct {
	Survives bool
	Scale    float64
}

// ResolveBubbles applies symmetric annihilation: each bubble loses the
// other's mass. A bubble survives only if its mass strictly exceeded the
// opponent's. Dead bubbles are left at zero mass for the caller to remove.
func ResolveBubbles(b1, b2 *Bubble) (BubbleOutcome, BubbleOutcome) {
	m1, m2 := b1.Mass(), b2.Mass()
	return setOutcome(b1, m1-m2), setOutcome(b2, m2-m1)
}

func setOutcome(b *Bubble, mass int) BubbleOutcome {
	scale := b.SetMass(mass)
	return BubbleOutcome{Survives: mass > 0, Scale: scale}
}

// Contact classifies a bubble-spawner collision.
type Contact int

const (
	ContactNone Contact = iota
	ContactHeal
	ContactCapture
	ContactDamage
)

func (c Contact) String() string {
	switch c {
	case ContactHeal:
		return "heal"
	case ContactCapture:
		return "capture"
	case ContactDamage:
		return "damage"
	default:
		return "none"
	}
}

// SpawnerOutcome is the result of a bubble-spawner collision.
type SpawnerOutcome struct {
	Contact Contact
	Bubble  BubbleOutcome
	// Neutralized is set when damage took the spawner to neutral;
	// FormerTeam is its owner before the hit.
	Neutralized bool
	FormerTeam  string
}

// ResolveBubbleSpawner applies the heal, capture and damage rules depending
// on the team relationship at the moment of contact. viewer is the observing
// team, used for arrow visibility after a capture.
func ResolveBubbleSpawner(b *Bubble, s *Spawner, viewer string) SpawnerOutcome {
	mass := b.Mass()

	switch {
	case s.Team == b.Team:
		consumed := s.RestoreHP(mass)
		if consumed == 0 {
			return SpawnerOutcome{Contact: ContactNone, Bubble: BubbleOutcome{Survives: true, Scale: 1}}
		}
		return SpawnerOutcome{Contact: ContactHeal, Bubble: setOutcome(b, mass-consumed)}

	case s.IsNeutral():
		s.Capture(b.Team, b.Color, viewer)
		return SpawnerOutcome{Contact: ContactCapture, Bubble: setOutcome(b, 0)}

	default:
		former := s.Team
		neutralized := s.MakeDamage(mass)
		return SpawnerOutcome{
			Contact:     ContactDamage,
			Bubble:      setOutcome(b, 0),
			Neutralized: neutralized,
			FormerTeam:  former,
		}
	}
}
