// Package sim is a headless multi-agent harness around the perception and
// navigation core. It renders each agent's classified frame from a shared
// 2D scene, runs the agents' pipelines in parallel and integrates unicycle
// kinematics. There is no collision handling; it exists to exercise the
// core end to end, not to model physics.
package sim

import (
	"bytes"
	"errors"
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/banshee-data/localnav/internal/localmap/sensed"
)

// Behaviour names accepted in scenario files.
const (
	BehaviourWander  = "wander"  // Gaussian heading, goal-directed VFH
	BehaviourExplore = "explore" // no target, wander-mode VFH
	BehaviourSeek    = "seek"    // head for the nearest cluster of one colour
)

// Rect is an axis-aligned rectangle in world coordinates.
type Rect struct {
	X0 float64 `yaml:"x0"`
	Y0 float64 `yaml:"y0"`
	X1 float64 `yaml:"x1"`
	Y1 float64 `yaml:"y1"`
}

func (r Rect) empty() bool { return r.X1 <= r.X0 || r.Y1 <= r.Y0 }

func (r Rect) contains(x, y float64) bool {
	return x >= r.X0 && x <= r.X1 && y >= r.Y0 && y <= r.Y1
}

// PuckSpec places one object.
type PuckSpec struct {
	Colour int     `yaml:"colour"`
	X      float64 `yaml:"x"`
	Y      float64 `yaml:"y"`
}

// AgentSpec places one agent. Heading is in degrees, anticlockwise from +X.
type AgentSpec struct {
	Name      string  `yaml:"name"`
	X         float64 `yaml:"x"`
	Y         float64 `yaml:"y"`
	Heading   float64 `yaml:"heading"`
	Behaviour string  `yaml:"behaviour"`
	Colour    int     `yaml:"colour"` // target colour for seek
}

// Scenario is a scene and its agents.
type Scenario struct {
	Name        string  `yaml:"name"`
	Ticks       int     `yaml:"ticks"`
	Dt          float64 `yaml:"dt"`            // seconds per tick
	MaxSpeed    float64 `yaml:"max_speed"`     // ground units per second at Forward = 1
	MaxTurnRate float64 `yaml:"max_turn_rate"` // radians per second at Turn = 1
	RobotRadius float64 `yaml:"robot_radius"`
	PuckRadius  float64 `yaml:"puck_radius"`

	Arena     Rect        `yaml:"arena"`
	Obstacles []Rect      `yaml:"obstacles"`
	Pucks     []PuckSpec  `yaml:"pucks"`
	Agents    []AgentSpec `yaml:"agents"`
}

// ErrInvalidScenario wraps every validation failure.
var ErrInvalidScenario = errors.New("invalid scenario")

// LoadScenario reads and validates a YAML scenario file.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario %s: %w", path, err)
	}
	s, err := ParseScenario(data)
	if err != nil {
		return nil, fmt.Errorf("scenario %s: %w", path, err)
	}
	return s, nil
}

// ParseScenario decodes YAML, fills defaults and validates. Unknown keys are
// rejected.
func ParseScenario(data []byte) (*Scenario, error) {
	var s Scenario
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&s); err != nil {
		return nil, fmt.Errorf("failed to parse scenario: %w", err)
	}
	s.applyDefaults()
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

func (s *Scenario) applyDefaults() {
	if s.Ticks == 0 {
		s.Ticks = 200
	}
	if s.Dt == 0 {
		s.Dt = 0.1
	}
	if s.MaxSpeed == 0 {
		s.MaxSpeed = 20
	}
	if s.MaxTurnRate == 0 {
		s.MaxTurnRate = math.Pi
	}
	if s.RobotRadius == 0 {
		s.RobotRadius = 12.5
	}
	if s.PuckRadius == 0 {
		s.PuckRadius = 2.1
	}
	for i := range s.Agents {
		if s.Agents[i].Behaviour == "" {
			s.Agents[i].Behaviour = BehaviourWander
		}
	}
}

// Validate checks the scenario is runnable.
func (s *Scenario) Validate() error {
	invalid := func(format string, args ...interface{}) error {
		return fmt.Errorf("%w: %s", ErrInvalidScenario, fmt.Sprintf(format, args...))
	}

	if s.Ticks < 0 {
		return invalid("ticks must be non-negative, got %d", s.Ticks)
	}
	for _, p := range []struct {
		name string
		v    float64
	}{
		{"dt", s.Dt},
		{"max_speed", s.MaxSpeed},
		{"max_turn_rate", s.MaxTurnRate},
		{"robot_radius", s.RobotRadius},
		{"puck_radius", s.PuckRadius},
	} {
		if !(p.v > 0) {
			return invalid("%s must be positive, got %v", p.name, p.v)
		}
	}
	if s.Arena.empty() {
		return invalid("arena is empty")
	}
	for i, o := range s.Obstacles {
		if o.empty() {
			return invalid("obstacle %d is empty", i)
		}
	}
	for i, p := range s.Pucks {
		if p.Colour < 0 || p.Colour >= sensed.NumPuckColours {
			return invalid("puck %d colour %d out of range", i, p.Colour)
		}
	}
	if len(s.Agents) == 0 {
		return invalid("no agents")
	}
	names := make(map[string]bool, len(s.Agents))
	for i, a := range s.Agents {
		if a.Name == "" {
			return invalid("agent %d has no name", i)
		}
		if names[a.Name] {
			return invalid("duplicate agent name %q", a.Name)
		}
		names[a.Name] = true
		switch a.Behaviour {
		case BehaviourWander, BehaviourExplore:
		case BehaviourSeek:
			if a.Colour < 0 || a.Colour >= sensed.NumPuckColours {
				return invalid("agent %q seeks colour %d out of range", a.Name, a.Colour)
			}
		default:
			return invalid("agent %q has unknown behaviour %q", a.Name, a.Behaviour)
		}
		if !s.Arena.contains(a.X, a.Y) {
			return invalid("agent %q starts outside the arena", a.Name)
		}
		for _, o := range s.Obstacles {
			if o.contains(a.X, a.Y) {
				return invalid("agent %q starts inside an obstacle", a.Name)
			}
		}
	}
	return nil
}
