package game

import (
	"math"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestBubble(team string, mass int, pos Position) *Bubble {
	return &Bubble{Team: team, mass: mass, Position: pos, MovedFrom: pos, Speed: BubbleSpeed}
}

func TestBubbleSize(t *testing.T) {
	tests := []struct {
		mass     int
		expected float64
	}{
		{0, 0},
		{-3, 0},
		{1, 2 * math.Sqrt(math.Pi)},
		{20, 2 * math.Sqrt(20*math.Pi)},
		{40, 2 * math.Sqrt(40*math.Pi)},
	}

	for _, tt := range tests {
		assert.InDelta(t, tt.expected, BubbleSize(tt.mass), 0.0001, "mass %d", tt.mass)
	}
}

func TestBubbleSize_Monotonic(t *testing.T) {
	prev := BubbleSize(0)
	for m := 1; m <= 200; m++ {
		s := BubbleSize(m)
		assert.Greater(t, s, prev)
		prev = s
	}
}

func TestNewBubble_CopiesSpawnerStats(t *testing.T) {
	s := newTestSpawner("RED")
	s.ID = makeID(3, 1)

	b := NewBubble(s, 100)

	assert.Equal(t, "RED", b.Team)
	assert.Equal(t, s.Color, b.Color)
	assert.Equal(t, s.ID, b.Origin)
	assert.Equal(t, 20, b.Mass())
	assert.Equal(t, s.Position, b.Position)
	assert.True(t, b.Alive())
	assert.False(t, b.Moving())
}

func TestBubble_SetMass(t *testing.T) {
	t.Run("scale is the size ratio", func(t *testing.T) {
		b := newTestBubble("RED", 40, Position{})
		scale := b.SetMass(10)

		assert.Equal(t, 10, b.Mass())
		assert.InDelta(t, 0.5, scale, 0.0001)
		assert.InDelta(t, BubbleSize(10), b.Size(), 0.0001)
	})

	t.Run("negative mass clamps to zero", func(t *testing.T) {
		b := newTestBubble("RED", 40, Position{})
		scale := b.SetMass(-5)

		assert.Equal(t, 0, b.Mass())
		assert.Zero(t, scale)
		assert.False(t, b.Alive())
	})

	t.Run("from zero size", func(t *testing.T) {
		b := newTestBubble("RED", 0, Position{})
		assert.Zero(t, b.SetMass(10))
		assert.Equal(t, 10, b.Mass())
	})
}

func TestBubble_Advance(t *testing.T) {
	b := newTestBubble("RED", 10, Position{X: 0, Y: 0})
	b.MoveTo(Position{X: 100, Y: 0})

	assert.False(t, b.Advance(500*time.Millisecond))
	assert.InDelta(t, 50, b.Position.X, 0.0001)
	assert.True(t, b.Moving())

	assert.True(t, b.Advance(600*time.Millisecond))
	assert.Equal(t, Position{X: 100, Y: 0}, b.Position, "arrival snaps to the waypoint")
	assert.False(t, b.Moving())

	assert.False(t, b.Advance(time.Second), "idle bubble does not move")
	assert.Equal(t, Position{X: 100, Y: 0}, b.Position)
}

func TestBubble_MoveToRemembersPreviousWaypoint(t *testing.T) {
	b := newTestBubble("RED", 10, Position{X: 0, Y: 0})
	b.MoveTo(Position{X: 10, Y: 0})
	b.Advance(time.Second)

	b.MoveTo(Position{X: 10, Y: 10})

	assert.Equal(t, Position{X: 10, Y: 0}, b.MovedFrom)
	assert.Equal(t, Position{X: 10, Y: 10}, b.Target)
}

func TestBubble_Launch(t *testing.T) {
	b := newTestBubble("RED", 10, Position{X: 0, Y: 0})
	b.Launch(Position{X: 0, Y: 0}, Position{X: 100, Y: 0}, 20)

	assert.Equal(t, Position{X: 0, Y: 0}, b.MovedFrom)
	assert.InDelta(t, 20, b.Position.X, 0.0001)
	assert.True(t, b.Moving())

	t.Run("offset past the target still moves", func(t *testing.T) {
		b := newTestBubble("RED", 10, Position{})
		b.Launch(Position{}, Position{X: 5, Y: 0}, 20)

		assert.True(t, b.Moving())
		assert.True(t, b.Advance(time.Millisecond))
	})
}

func TestBubble_Cancel(t *testing.T) {
	b := newTestBubble("RED", 10, Position{})
	b.MoveTo(Position{X: 100, Y: 0})

	b.Cancel()

	assert.True(t, b.Cancelled())
	assert.False(t, b.Alive())
	assert.False(t, b.Advance(time.Second))
	assert.Equal(t, Position{}, b.Position)

	b.MoveTo(Position{X: 5, Y: 5})
	assert.False(t, b.Moving(), "a cancelled bubble never starts a new leg")
}

func TestNextDirection(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	from := Position{X: 0, Y: 0}

	t.Run("empty moves", func(t *testing.T) {
		_, ok := NextDirection(rng, nil, from)
		assert.False(t, ok)
	})

	t.Run("single move may backtrack", func(t *testing.T) {
		next, ok := NextDirection(rng, []Position{from}, from)
		require.True(t, ok)
		assert.Equal(t, from, next)
	})

	t.Run("never backtracks with alternatives", func(t *testing.T) {
		moves := []Position{from, {X: 1, Y: 0}, {X: 0, Y: 1}}
		seen := map[Position]bool{}
		for i := 0; i < 200; i++ {
			next, ok := NextDirection(rng, moves, from)
			require.True(t, ok)
			assert.NotEqual(t, from, next)
			seen[next] = true
		}
		assert.Len(t, seen, 2, "remaining moves are all reachable")
	})

	t.Run("all moves equal previous waypoint", func(t *testing.T) {
		moves := []Position{from, from}
		next, ok := NextDirection(rng, moves, from)
		require.True(t, ok)
		assert.Equal(t, from, next)
	})
}

func TestBubble_State(t *testing.T) {
	b := newTestBubble("RED", 20, Position{X: 3, Y: 4})
	b.ID = makeID(1, 1)
	b.Color = 0xff0000

	st := b.State()

	assert.Equal(t, b.ID, st.ID)
	assert.Equal(t, "RED", st.Team)
	assert.Equal(t, 20, st.Mass)
	assert.InDelta(t, BubbleSize(20), st.Size, 0.0001)
	assert.Equal(t, Position{X: 3, Y: 4}, st.Position)
}
