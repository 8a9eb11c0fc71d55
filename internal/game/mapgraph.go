package game

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// ErrInvalidMap is returned by MapConfig.Validate.
var ErrInvalidMap = errors.New("invalid map")

// Point is a map waypoint with the positions reachable from it.
type Point struct {
	Position      Position   `json:"position" jsonschema:"required"`
	PossibleMoves []Position `json:"possibleMoves" jsonschema:"required,minItems=1"`
}

// SpawnerInfo is the initial placement of a spawner.
type SpawnerInfo struct {
	Team          string     `json:"team" jsonschema:"description=Participating team; __NO_TEAM or empty for a neutral spawner"`
	Color         uint32     `json:"color" jsonschema:"description=RGB color as an integer"`
	Level         int        `json:"level" jsonschema:"required,minimum=1"`
	Position      Position   `json:"position" jsonschema:"required"`
	PossibleMoves []Position `json:"possibleMoves" jsonschema:"required,minItems=1"`
}

// MapConfig is the externally authored description of a match map.
type MapConfig struct {
	Name     string        `json:"name,omitempty"`
	Width    float64       `json:"width" jsonschema:"required,minimum=1"`
	Height   float64       `json:"height" jsonschema:"required,minimum=1"`
	Teams    []string      `json:"teams" jsonschema:"required,minItems=1"`
	Points   []Point       `json:"points"`
	Spawners []SpawnerInfo `json:"spawners" jsonschema:"required"`
}

//go:embed maps/level1.json
var level1Map []byte

// DefaultMap returns the built-in level 1 map.
func DefaultMap() *MapConfig {
	cfg, err := LoadMapConfig(bytes.NewReader(level1Map))
	if err != nil {
		panic(fmt.Sprintf("embedded map: %v", err))
	}
	return cfg
}

// LoadMapConfig decodes and validates a JSON map description.
func LoadMapConfig(r io.Reader) (*MapConfig, error) {
	var cfg MapConfig
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("decode map: %w", err)
	}
	if err := cfg.Validate(DefaultLevels); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the map against the level table.
func (c *MapConfig) Validate(levels Levels) error {
	if c.Width <= 0 || c.Height <= 0 {
		return fmt.Errorf("%w: bounds must be positive", ErrInvalidMap)
	}
	if len(c.Teams) == 0 {
		return fmt.Errorf("%w: no teams", ErrInvalidMap)
	}

	teams := make(map[string]bool, len(c.Teams))
	for _, t := range c.Teams {
		if t == NoTeam || t == "" {
			return fmt.Errorf("%w: %q is not a valid team", ErrInvalidMap, t)
		}
		if teams[t] {
			return fmt.Errorf("%w: duplicate team %q", ErrInvalidMap, t)
		}
		teams[t] = true
	}

	known := make(map[Position]bool, len(c.Points)+len(c.Spawners))
	for _, p := range c.Points {
		known[p.Position] = true
	}
	for _, s := range c.Spawners {
		known[s.Position] = true
	}

	for i, p := range c.Points {
		if len(p.PossibleMoves) == 0 {
			return fmt.Errorf("%w: point %d has no moves", ErrInvalidMap, i)
		}
		if err := checkMoves(known, p.PossibleMoves); err != nil {
			return fmt.Errorf("%w: point %d: %v", ErrInvalidMap, i, err)
		}
	}
	for i, s := range c.Spawners {
		if s.Team != NoTeam && s.Team != "" && !teams[s.Team] {
			return fmt.Errorf("%w: spawner %d has unknown team %q", ErrInvalidMap, i, s.Team)
		}
		if _, ok := levels.Lookup(s.Level); !ok {
			return fmt.Errorf("%w: spawner %d has unknown level %d", ErrInvalidMap, i, s.Level)
		}
		if len(s.PossibleMoves) == 0 {
			return fmt.Errorf("%w: spawner %d has no moves", ErrInvalidMap, i)
		}
		if err := checkMoves(known, s.PossibleMoves); err != nil {
			return fmt.Errorf("%w: spawner %d: %v", ErrInvalidMap, i, err)
		}
	}
	return nil
}

// checkMoves rejects moves that lead off the waypoint graph.
func checkMoves(known map[Position]bool, moves []Position) error {
	for _, m := range moves {
		if !known[m] {
			return fmt.Errorf("move to unknown position (%g, %g)", m.X, m.Y)
		}
	}
	return nil
}

// Graph resolves a map position to the positions reachable from it.
type Graph struct {
	moves map[Position][]Position
}

// NewGraph indexes the points of a map.
func NewGraph(points []Point) *Graph {
	g := &Graph{moves: make(map[Position][]Position, len(points))}
	for _, p := range points {
		g.moves[p.Position] = append(g.moves[p.Position], p.PossibleMoves...)
	}
	return g
}

// Moves returns the outgoing moves at pos, or nil if pos is not a map point.
func (g *Graph) Moves(pos Position) []Position {
	return g.moves[pos]
}
