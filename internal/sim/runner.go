package sim

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"time"

	"github.com/paulmach/orb/planar"
	"golang.org/x/sync/errgroup"

	"github.com/banshee-data/localnav/internal/actuation"
	"github.com/banshee-data/localnav/internal/config"
	"github.com/banshee-data/localnav/internal/geom"
	"github.com/banshee-data/localnav/internal/localmap"
	"github.com/banshee-data/localnav/internal/localmap/calib"
	"github.com/banshee-data/localnav/internal/localmap/movement"
	"github.com/banshee-data/localnav/internal/localmap/sensed"
	"github.com/banshee-data/localnav/internal/localmap/vfh"
	"github.com/banshee-data/localnav/internal/navlog"
	"github.com/banshee-data/localnav/internal/timeutil"
)

// Recorder stores one tick's rows, one per agent.
type Recorder interface {
	Record(ctx context.Context, ticks []navlog.Tick) error
}

// Options configures a Runner. Zero values are usable.
type Options struct {
	Config      *config.TuningConfig // nil uses the built-in defaults
	Calibration *calib.Calibration   // nil uses calib.DefaultSynthetic
	Seed        uint64
	Recorder    Recorder
	Sink        actuation.Sink

	// RealTime paces Run so that each tick takes at least the scenario's
	// Dt of wall-clock time.
	RealTime bool
	Clock    timeutil.Clock // nil uses timeutil.RealClock
}

// Agent is one simulated robot's perception and navigation state.
type Agent struct {
	Name      string
	Map       *localmap.LocalMap
	State     *vfh.State
	Behaviour Behaviour

	frame    *sensed.Frame
	decision Decision
	outcome  movement.Outcome
}

// Decision returns the behaviour's request from the last tick.
func (a *Agent) Decision() Decision { return a.decision }

// Outcome returns the navigator's result from the last tick.
func (a *Agent) Outcome() movement.Outcome { return a.outcome }

// Runner steps a scenario.
type Runner struct {
	scn      *Scenario
	world    *World
	sensor   *Sensor
	mapper   *movement.Mapper
	goal     *vfh.Navigator
	wander   *vfh.Navigator
	agents   []*Agent
	recorder Recorder
	sink     actuation.Sink
	realTime bool
	clock    timeutil.Clock
	tick     int
	history  []navlog.Tick
}

// NewRunner builds the world and one pipeline per agent. Each agent gets its
// own random stream derived from Seed, so runs are reproducible regardless
// of goroutine scheduling.
func NewRunner(scn *Scenario, opts Options) (*Runner, error) {
	if scn == nil {
		return nil, errors.New("sim: nil scenario")
	}
	if err := scn.Validate(); err != nil {
		return nil, err
	}
	cfg := opts.Config
	if cfg == nil {
		cfg = config.EmptyTuningConfig()
	}
	c := opts.Calibration
	if c == nil {
		var err error
		if c, err = calib.Synthetic(calib.DefaultSynthetic()); err != nil {
			return nil, fmt.Errorf("sim: synthetic calibration: %w", err)
		}
	}

	r := &Runner{
		scn:      scn,
		world:    NewWorld(scn),
		sensor:   NewSensor(c),
		mapper:   movement.NewMapper(movement.ParamsFromTuning(cfg)),
		recorder: opts.Recorder,
		sink:     opts.Sink,
		realTime: opts.RealTime,
		clock:    opts.Clock,
	}
	if r.clock == nil {
		r.clock = timeutil.RealClock{}
	}

	for i, spec := range scn.Agents {
		m, err := localmap.New(c, cfg)
		if err != nil {
			return nil, fmt.Errorf("sim: agent %q: %w", spec.Name, err)
		}
		if r.goal == nil {
			gp := vfh.ParamsFromTuning(cfg, true)
			geo := vfh.NewGeometry(m.Layout(), gp)
			r.goal = vfh.NewNavigator(geo, gp)
			r.wander = vfh.NewNavigator(geo, vfh.ParamsFromTuning(cfg, false))
		}

		src := rand.NewPCG(opts.Seed, uint64(i))
		var b Behaviour
		switch spec.Behaviour {
		case BehaviourExplore:
			b = Explore{}
		case BehaviourSeek:
			b = &Seek{Colour: spec.Colour, Wander: NewWander(cfg.GetWanderStdDev(), src)}
		default:
			b = NewWander(cfg.GetWanderStdDev(), src)
		}

		r.agents = append(r.agents, &Agent{
			Name:      spec.Name,
			Map:       m,
			State:     vfh.NewState(),
			Behaviour: b,
			frame:     r.sensor.NewFrame(),
		})
	}

	r.capture()
	localmap.Opsf("scenario %q: %d agents, %d objects, seed %d", scn.Name, len(r.agents), len(r.world.Pucks), opts.Seed)
	return r, nil
}

// World returns the scene. It must not be modified while Step runs.
func (r *Runner) World() *World { return r.world }

// Agents returns the agents in scenario order.
func (r *Runner) Agents() []*Agent { return r.agents }

// Sensor returns the shared sensor model.
func (r *Runner) Sensor() *Sensor { return r.sensor }

// Tick returns the number of completed ticks.
func (r *Runner) Tick() int { return r.tick }

// History returns every tick row produced so far.
func (r *Runner) History() []navlog.Tick {
	out := make([]navlog.Tick, len(r.history))
	copy(out, r.history)
	return out
}

// Run steps n ticks, stopping early if ctx is cancelled.
func (r *Runner) Run(ctx context.Context, n int) error {
	period := time.Duration(r.scn.Dt * float64(time.Second))
	for k := 0; k < n; k++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		start := r.clock.Now()
		if err := r.Step(ctx); err != nil {
			return err
		}
		if r.realTime {
			if rest := period - r.clock.Since(start); rest > 0 {
				r.clock.Sleep(rest)
			}
		}
	}
	return nil
}

// Step advances the simulation by one tick: every agent perceives and
// decides in parallel against the same scene, then the rows are recorded,
// the commands sent, and the scene moved on.
func (r *Runner) Step(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)
	for i, a := range r.agents {
		g.Go(func() error {
			return r.perceive(gctx, i, a)
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	rows := make([]navlog.Tick, len(r.agents))
	for i, a := range r.agents {
		rows[i] = r.row(i, a)
	}
	r.history = append(r.history, rows...)

	if r.recorder != nil {
		if err := r.recorder.Record(ctx, rows); err != nil {
			return fmt.Errorf("sim: record tick %d: %w", r.tick, err)
		}
	}
	if r.sink != nil {
		for _, row := range rows {
			msg := actuation.Message{Agent: row.Agent, Tick: row.Tick, Forward: row.Forward, Turn: row.Turn, Safe: row.Safe}
			if err := r.sink.Send(ctx, msg); err != nil {
				localmap.Opsf("tick %d: send command to %s: %v", r.tick, row.Agent, err)
			}
		}
	}

	r.integrate()
	r.capture()
	r.tick++
	return nil
}

func (r *Runner) perceive(ctx context.Context, i int, a *Agent) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.sensor.Render(r.world, i, a.frame)
	if err := a.Map.Update(a.frame); err != nil {
		return fmt.Errorf("sim: agent %q: %w", a.Name, err)
	}

	a.decision = a.Behaviour.Decide(a.Map)
	nav := r.wander
	if a.decision.GoalDirected {
		nav = r.goal
	}
	a.outcome = r.mapper.ApplyVFH(nav, a.State, a.Map.Grid(), a.decision.Target, a.decision.IgnorePucks, 1)
	if !a.outcome.Safe {
		localmap.Diagf("tick %d: %s has no safe direction, turning %+.2f", r.tick, a.Name, a.outcome.Angle)
	}
	return nil
}

func (r *Runner) row(i int, a *Agent) navlog.Tick {
	pose := r.world.Robots[i]
	held := a.Map.Held()
	return navlog.Tick{
		Tick:        r.tick,
		Agent:       a.Name,
		X:           pose.X,
		Y:           pose.Y,
		Heading:     pose.Heading,
		Forward:     a.outcome.Command.Forward,
		Turn:        a.outcome.Command.Turn,
		TurnAngle:   a.outcome.Angle,
		Safe:        a.outcome.Safe,
		Carrying:    held.Carrying,
		Colour:      held.Colour,
		Clusters:    len(a.Map.Clusters()),
		RawClusters: len(a.Map.RawClusters()),
	}
}

// integrate applies each agent's command as unicycle motion over one tick.
func (r *Runner) integrate() {
	dt := r.scn.Dt
	for i, a := range r.agents {
		p := r.world.Robots[i]
		v := a.outcome.Command.Forward * r.scn.MaxSpeed
		w := a.outcome.Command.Turn * r.scn.MaxTurnRate
		s, c := math.Sincos(p.Heading)
		p.X += v * dt * c
		p.Y += v * dt * s
		p.Heading = geom.ConstrainAngle(p.Heading + w*dt)
		r.world.Robots[i] = p
	}
}

// capture moves carried objects with their carriers, then lets each empty
// gripper pick up the first free object whose centre lies within an object
// radius of its grip point.
func (r *Runner) capture() {
	grip := r.sensor.Grip()
	pr := r.world.PuckRadius * r.world.PuckRadius
	for k := range r.world.Pucks {
		pk := &r.world.Pucks[k]
		if pk.Carrier >= 0 {
			pk.Pos = r.world.Robots[pk.Carrier].ToWorld(grip)
		}
	}
	for i := range r.world.Robots {
		if r.world.Carrying(i) >= 0 {
			continue
		}
		g := r.world.Robots[i].ToWorld(grip)
		for k := range r.world.Pucks {
			pk := &r.world.Pucks[k]
			if pk.Carrier < 0 && planar.DistanceSquared(pk.Pos, g) < pr {
				pk.Carrier = i
				pk.Pos = g
				break
			}
		}
	}
}
