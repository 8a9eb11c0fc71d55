package game

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDistance(t *testing.T) {
	tests := []struct {
		name     string
		a, b     Position
		expected float64
	}{
		{"same point", Position{0, 0}, Position{0, 0}, 0},
		{"horizontal", Position{0, 0}, Position{3, 0}, 3},
		{"vertical", Position{0, 0}, Position{0, 4}, 4},
		{"diagonal 3-4-5", Position{0, 0}, Position{3, 4}, 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, Distance(tt.a, tt.b), 0.001)
		})
	}
}

func TestStepTowards(t *testing.T) {
	tests := []struct {
		name        string
		step        float64
		wantPos     Position
		wantArrived bool
	}{
		{"partial step", 4, Position{4, 0}, false},
		{"exact step", 10, Position{10, 0}, true},
		{"overshoot snaps to target", 25, Position{10, 0}, true},
		{"zero step", 0, Position{0, 0}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pos, arrived := StepTowards(Position{0, 0}, Position{10, 0}, tt.step)
			assert.InDelta(t, tt.wantPos.X, pos.X, 0.001)
			assert.InDelta(t, tt.wantPos.Y, pos.Y, 0.001)
			assert.Equal(t, tt.wantArrived, arrived)
		})
	}

	t.Run("diagonal keeps direction", func(t *testing.T) {
		pos, arrived := StepTowards(Position{0, 0}, Position{30, 40}, 5)
		assert.False(t, arrived)
		assert.InDelta(t, 3, pos.X, 0.001)
		assert.InDelta(t, 4, pos.Y, 0.001)
	})
}

func TestAngle(t *testing.T) {
	assert.InDelta(t, 0, Angle(Position{0, 0}, Position{5, 0}), 0.0001)
	assert.InDelta(t, math.Pi/2, Angle(Position{0, 0}, Position{0, 5}), 0.0001)
	assert.InDelta(t, math.Pi, Angle(Position{0, 0}, Position{-5, 0}), 0.0001)
}

func TestOffset(t *testing.T) {
	p := Offset(Position{10, 10}, Position{10, 100}, 5)
	assert.InDelta(t, 10, p.X, 0.0001)
	assert.InDelta(t, 15, p.Y, 0.0001)
}

func TestPositionEqual(t *testing.T) {
	assert.True(t, Position{1, 2}.Equal(Position{1, 2}))
	assert.False(t, Position{1, 2}.Equal(Position{1, 2.0001}))
}

func TestRandomInt(t *testing.T) {
	rng := rand.New(rand.NewSource(42))

	seen := make(map[int]bool)
	for i := 0; i < 500; i++ {
		v := RandomInt(rng, 2, 5)
		assert.GreaterOrEqual(t, v, 2)
		assert.LessOrEqual(t, v, 5)
		seen[v] = true
	}
	assert.Len(t, seen, 4, "every value in range should be drawn")

	assert.Equal(t, 7, RandomInt(rng, 7, 7))
	v := RandomInt(rng, 5, 2)
	assert.True(t, v >= 2 && v <= 5, "swapped bounds are accepted")
}
