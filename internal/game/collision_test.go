package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBubblesOverlap(t *testing.T) {
	r20 := BubbleSize(20) / 2

	tests := []struct {
		name     string
		a, b     *Bubble
		expected bool
	}{
		{"same position enemies", newTestBubble("RED", 20, Position{}), newTestBubble("BLUE", 20, Position{}), true},
		{"just inside", newTestBubble("RED", 20, Position{}), newTestBubble("BLUE", 20, Position{X: 2*r20 - 0.01}), true},
		{"touching is not overlapping", newTestBubble("RED", 20, Position{}), newTestBubble("BLUE", 20, Position{X: 2 * r20}), false},
		{"far apart", newTestBubble("RED", 20, Position{}), newTestBubble("BLUE", 20, Position{X: 100}), false},
		{"same team never collides", newTestBubble("RED", 20, Position{}), newTestBubble("RED", 20, Position{}), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, BubblesOverlap(tt.a, tt.b))
			assert.Equal(t, tt.expected, BubblesOverlap(tt.b, tt.a), "overlap is symmetric")
		})
	}
}

func TestBubbleTouchesSpawner(t *testing.T) {
	s := newTestSpawner("RED")
	r := BubbleSize(20) / 2

	tests := []struct {
		name     string
		pos      Position
		expected bool
	}{
		{"centered", s.Position, true},
		{"near edge", Position{X: s.Position.X + SpawnerSize/2 + r - 0.5, Y: s.Position.Y}, true},
		{"just outside edge", Position{X: s.Position.X + SpawnerSize/2 + r + 0.5, Y: s.Position.Y}, false},
		{"outside corner", Position{X: s.Position.X + SpawnerSize/2 + r, Y: s.Position.Y + SpawnerSize/2 + r}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := newTestBubble("BLUE", 20, tt.pos)
			assert.Equal(t, tt.expected, BubbleTouchesSpawner(b, s, SpawnerSize))
		})
	}
}

func TestResolveBubbles(t *testing.T) {
	tests := []struct {
		name           string
		m1, m2         int
		want1, want2   int
		alive1, alive2 bool
	}{
		{"equal masses annihilate", 30, 30, 0, 0, false, false},
		{"heavier survives", 50, 20, 30, 0, true, false},
		{"lighter loses", 15, 40, 0, 25, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b1 := newTestBubble("RED", tt.m1, Position{})
			b2 := newTestBubble("BLUE", tt.m2, Position{})

			o1, o2 := ResolveBubbles(b1, b2)

			assert.Equal(t, tt.want1, b1.Mass())
			assert.Equal(t, tt.want2, b2.Mass())
			assert.Equal(t, tt.alive1, o1.Survives)
			assert.Equal(t, tt.alive2, o2.Survives)
			assert.Equal(t, tt.alive1, b1.Alive())
			assert.Equal(t, tt.alive2, b2.Alive())
		})
	}
}

func TestResolveBubbles_SurvivorScale(t *testing.T) {
	b1 := newTestBubble("RED", 40, Position{})
	b2 := newTestBubble("BLUE", 30, Position{})

	o1, _ := ResolveBubbles(b1, b2)

	assert.InDelta(t, BubbleSize(10)/BubbleSize(40), o1.Scale, 0.0001)
	assert.InDelta(t, 0.5, o1.Scale, 0.0001)
}

func TestResolveBubbleSpawner_Heal(t *testing.T) {
	t.Run("bubble absorbed when deficit exceeds mass", func(t *testing.T) {
		s := newTestSpawner("RED")
		s.MakeDamage(100)
		b := newTestBubble("RED", 20, s.Position)

		out := ResolveBubbleSpawner(b, s, "")

		assert.Equal(t, ContactHeal, out.Contact)
		assert.Equal(t, 420, s.CurrentHP())
		assert.False(t, out.Bubble.Survives)
		assert.Equal(t, 0, b.Mass())
	})

	t.Run("bubble keeps the excess", func(t *testing.T) {
		s := newTestSpawner("RED")
		s.MakeDamage(5)
		b := newTestBubble("RED", 20, s.Position)

		out := ResolveBubbleSpawner(b, s, "")

		assert.Equal(t, ContactHeal, out.Contact)
		assert.Equal(t, s.MaxHP, s.CurrentHP())
		assert.True(t, out.Bubble.Survives)
		assert.Equal(t, 15, b.Mass())
	})

	t.Run("full HP leaves bubble untouched", func(t *testing.T) {
		s := newTestSpawner("RED")
		b := newTestBubble("RED", 20, s.Position)

		out := ResolveBubbleSpawner(b, s, "")

		assert.Equal(t, ContactNone, out.Contact)
		assert.True(t, out.Bubble.Survives)
		assert.Equal(t, 20, b.Mass())
		assert.Equal(t, s.MaxHP, s.CurrentHP())
	})
}

func TestResolveBubbleSpawner_Capture(t *testing.T) {
	s := newTestSpawner(NoTeam)
	b := newTestBubble("BLUE", 20, s.Position)
	b.Color = 0x0000ff

	out := ResolveBubbleSpawner(b, s, "BLUE")

	assert.Equal(t, ContactCapture, out.Contact)
	assert.Equal(t, "BLUE", s.Team)
	assert.Equal(t, uint32(0x0000ff), s.Color)
	assert.Equal(t, s.MaxHP, s.CurrentHP())
	assert.True(t, s.ArrowsVisible)
	assert.False(t, out.Bubble.Survives)
	assert.Equal(t, 0, b.Mass())
}

func TestResolveBubbleSpawner_Damage(t *testing.T) {
	t.Run("non lethal", func(t *testing.T) {
		s := newTestSpawner("RED")
		b := newTestBubble("BLUE", 20, s.Position)

		out := ResolveBubbleSpawner(b, s, "")

		assert.Equal(t, ContactDamage, out.Contact)
		assert.False(t, out.Neutralized)
		assert.Equal(t, "RED", out.FormerTeam)
		assert.Equal(t, 480, s.CurrentHP())
		assert.False(t, out.Bubble.Survives)
		assert.Equal(t, 0, b.Mass())
	})

	t.Run("lethal hit neutralizes", func(t *testing.T) {
		s := newTestSpawner("RED")
		s.MakeDamage(490)
		b := newTestBubble("BLUE", 20, s.Position)

		out := ResolveBubbleSpawner(b, s, "")

		require.Equal(t, ContactDamage, out.Contact)
		assert.True(t, out.Neutralized)
		assert.Equal(t, "RED", out.FormerTeam)
		assert.True(t, s.IsNeutral())
		assert.Equal(t, s.MaxHP, s.CurrentHP())
	})
}

func TestContact_String(t *testing.T) {
	assert.Equal(t, "none", ContactNone.String())
	assert.Equal(t, "heal", ContactHeal.String())
	assert.Equal(t, "capture", ContactCapture.String())
	assert.Equal(t, "damage", ContactDamage.String())
}
