// Package projectile implements the thrown and launched entities: the
// combine ball, the energy ball and the rpg missile.
package projectile

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/udisondev/portalgo/internal/entities"
	"github.com/udisondev/portalgo/internal/model"
	"github.com/udisondev/portalgo/internal/physics"
	"github.com/udisondev/portalgo/internal/player"
	"github.com/udisondev/portalgo/internal/world"
)

// Class names.
const (
	ClassCombineBall = "prop_combine_ball"
	ClassEnergyBall  = "prop_energy_ball"
	ClassMissile     = "rpg_missile"
)

const (
	ballModel = "models/effects/combineball.mdl"

	defaultBallRadius     = 10.0
	defaultBallSpeed      = 1000.0
	defaultMaxBounces     = 5
	ballThinkInterval     = 0.1
	combineExplodeRadius  = 256.0
	combineExplodeDamage  = 100
	combineDeflectDegrees = 20.0
)

// Kind picks the ball's collision, explosion and think strategy.
type Kind int

const (
	KindCombine Kind = iota
	KindEnergy
)

// State is the ball's lifecycle state.
type State int

const (
	StateIdle State = iota
	StateLaunched
	StateExploding
	StateDead
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateLaunched:
		return "launched"
	case StateExploding:
		return "exploding"
	case StateDead:
		return "dead"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Ball is a bouncing physics projectile with a limited lifetime.
type Ball struct {
	Kind               Kind         `json:"kind"`
	State              State        `json:"state"`
	Radius             float64      `json:"radius"`
	Speed              float64      `json:"speed"`
	Spawner            world.Handle `json:"spawner"`
	MaxBounces         int          `json:"max_bounces"`
	Bounces            int          `json:"bounces"`
	IsInfiniteLife     bool         `json:"infinite_life"`
	LifeEnd            float64      `json:"life_end"`
	TimeTillDeath      float64      `json:"time_till_death"`
	MinLifeAfterPortal float64      `json:"min_life_after_portal"`
	TouchedPortal      world.Handle `json:"touched_portal"`
	TouchingPortal1    bool         `json:"touching_portal1"`
	TouchingPortal2    bool         `json:"touching_portal2"`
	LastKnownDirection model.Vector `json:"last_known_direction"`

	obj      *physics.Object
	strategy ballStrategy
}

// ballStrategy is the per-kind part of the ball.
type ballStrategy interface {
	collide(w *world.World, e *world.Entity, b *Ball, ev world.CollisionEvent)
	explode(w *world.World, e *world.Entity, b *Ball)
}

// NewBall returns an idle ball of the given kind.
func NewBall(kind Kind) *Ball {
	b := &Ball{
		Kind:           kind,
		Radius:         defaultBallRadius,
		Speed:          defaultBallSpeed,
		MaxBounces:     defaultMaxBounces,
		IsInfiniteLife: true,
	}
	b.strategy = strategyFor(kind)
	return b
}

func strategyFor(kind Kind) ballStrategy {
	if kind == KindEnergy {
		return energyStrategy{}
	}
	return combineStrategy{}
}

// Register links the projectile classes into f.
func Register(f *world.Factory) {
	f.Register(ClassCombineBall, func() world.Behavior { return NewBall(KindCombine) })
	f.Register(ClassEnergyBall, func() world.Behavior { return NewBall(KindEnergy) })
	f.Register(ClassMissile, func() world.Behavior { return &Missile{} })
	f.PrecacheOnLoad(ClassEnergyBall)
}

// SetRadius sets the collision radius. Call before spawning.
func (b *Ball) SetRadius(r float64) { b.Radius = r }

// SetSpeed sets the speed the ball keeps after bounces.
func (b *Ball) SetSpeed(s float64) { b.Speed = s }

// SetSpawner records the entity that launched the ball.
func (b *Ball) SetSpawner(h world.Handle) { b.Spawner = h }

// SetState moves the ball to s.
func (b *Ball) SetState(s State) { b.State = s }

// StartLifetime makes the ball explode d seconds from now.
func (b *Ball) StartLifetime(w *world.World, d float64) {
	b.LifeEnd = w.Now() + d
	b.TimeTillDeath = d
	b.IsInfiniteLife = false
}

// PhysicsObject returns the ball's physics object, nil before spawn.
func (b *Ball) PhysicsObject() *physics.Object { return b.obj }

// KeyValue reads radius, speed and maxbounces.
func (b *Ball) KeyValue(e *world.Entity, key, value string) bool {
	switch strings.ToLower(key) {
	case "radius":
		return parseFloat(e, key, value, &b.Radius)
	case "speed":
		return parseFloat(e, key, value, &b.Speed)
	case "maxbounces":
		n, err := strconv.Atoi(value)
		if err != nil {
			slog.Warn("bad keyvalue", "entity", e.ID(), "key", key, "error", err)
			return false
		}
		b.MaxBounces = n
		return true
	}
	return false
}

func parseFloat(e *world.Entity, key, value string, dst *float64) bool {
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		slog.Warn("bad keyvalue", "entity", e.ID(), "key", key, "error", err)
		return false
	}
	*dst = f
	return true
}

// Precache registers the ball model and the launch and explosion sounds of its kind.
func (b *Ball) Precache(w *world.World, e *world.Entity) error {
	if err := w.PrecacheModel(ballModel); err != nil {
		return err
	}
	sounds := []string{"NPC_CombineBall.Launch", "NPC_CombineBall.Explosion"}
	if b.Kind == KindEnergy {
		sounds = []string{"EnergyBall.Launch", "EnergyBall.Explosion"}
	}
	for _, s := range sounds {
		if err := w.PrecacheSound(s); err != nil {
			return err
		}
	}
	return nil
}

// Spawn sizes the ball and gives it a weightless physics object moving at
// the entity velocity.
func (b *Ball) Spawn(w *world.World, e *world.Entity) error {
	r := b.Radius
	e.SetBounds(model.Vec(-r, -r, -r), model.Vec(r, r, r))
	e.SetSolid(true)

	vel := e.Velocity()
	b.obj = physics.New(1)
	b.obj.EnableGravity(false)
	b.obj.EnableDrag(false)
	e.SetMoveType(world.MovePhysics)
	e.SetVelocity(vel)
	if !vel.IsZero() {
		b.LastKnownDirection, _ = vel.Normalize()
	}
	return nil
}

// Activate starts the think cycle unless a restore already scheduled one.
func (b *Ball) Activate(w *world.World, e *world.Entity) {
	if _, ok := e.NextThink(); !ok {
		e.SetNextThink(w.Now() + ballThinkInterval)
	}
}

// Think runs every 0.1 seconds: it counts down the lifetime, keeps the
// physics object awake and remembers the direction of travel.
func (b *Ball) Think(w *world.World, e *world.Entity) {
	if b.State == StateExploding {
		b.State = StateDead
		w.Remove(e)
		return
	}

	if !b.IsInfiniteLife {
		b.TimeTillDeath = b.LifeEnd - w.Now()
		if b.TimeTillDeath <= 0 {
			b.TimeTillDeath = 0
			b.Explode(w, e)
			return
		}
	}

	if b.obj != nil {
		b.obj.Wake()
		if v := b.obj.Velocity; !v.IsZero() {
			b.LastKnownDirection, _ = v.Normalize()
		}
	}
	e.SetNextThink(w.Now() + ballThinkInterval)
}

// Explode ends the ball. The entity is removed on its next think.
func (b *Ball) Explode(w *world.World, e *world.Entity) {
	if b.State == StateExploding || b.State == StateDead {
		return
	}
	b.State = StateExploding
	e.SetVelocity(model.Vector{})
	e.SetMoveType(world.MoveNone)
	e.SetSolid(false)

	b.strategy.explode(w, e, b)
	w.FireOutput(e, "OnExplode", e)
	slog.Debug("ball exploded", "id", e.ID(), "classname", e.Classname(), "bounces", b.Bounces)

	e.SetNextThink(w.Now())
}

// OnCollision bounces a ball that is not launched yet; launched balls
// defer to their kind.
func (b *Ball) OnCollision(w *world.World, e *world.Entity, ev world.CollisionEvent) {
	if b.State != StateLaunched {
		e.SetVelocity(ev.PreVelocity.Reflect(ev.Normal).Scale(0.5))
		return
	}
	b.strategy.collide(w, e, b, ev)
}

// StartTouch remembers which portal the ball is touching.
func (b *Ball) StartTouch(w *world.World, e, other *world.Entity) {
	p, ok := world.BehaviorOf[*entities.Portal](other)
	if !ok {
		return
	}
	b.TouchedPortal = other.Handle()
	if p.IsPortal2 {
		b.TouchingPortal2 = true
	} else {
		b.TouchingPortal1 = true
	}
}

// EndTouch clears the touching flag of the portal left behind.
func (b *Ball) EndTouch(w *world.World, e, other *world.Entity) {
	p, ok := world.BehaviorOf[*entities.Portal](other)
	if !ok {
		return
	}
	if p.IsPortal2 {
		b.TouchingPortal2 = false
	} else {
		b.TouchingPortal1 = false
	}
}

// NotifySystemEvent restores motion after a teleport and makes sure the
// ball lives on for a while on the other side.
func (b *Ball) NotifySystemEvent(w *world.World, e *world.Entity, ev world.SystemEvent) {
	if ev.Type != world.EventTeleport {
		return
	}
	if e.Velocity().IsZero() && !b.LastKnownDirection.IsZero() {
		e.SetVelocity(b.LastKnownDirection.Scale(b.Speed))
	}
	if dir, l := e.Velocity().Normalize(); l > 0 {
		b.LastKnownDirection = dir
	}
	if b.IsInfiniteLife {
		return
	}
	if remaining := b.LifeEnd - w.Now(); remaining < b.MinLifeAfterPortal {
		b.LifeEnd = w.Now() + b.MinLifeAfterPortal
		b.TimeTillDeath = b.MinLifeAfterPortal
	}
}

type ballState struct {
	Ball
	Velocity model.Vector `json:"velocity"`
}

func (b *Ball) SaveState() ([]byte, error) {
	st := ballState{Ball: *b}
	if b.obj != nil {
		st.Velocity = b.obj.Velocity
	}
	return json.Marshal(st)
}

func (b *Ball) RestoreState(data []byte) error {
	var st ballState
	if err := json.Unmarshal(data, &st); err != nil {
		return err
	}
	*b = st.Ball
	b.strategy = strategyFor(b.Kind)
	b.obj = physics.New(1)
	b.obj.EnableGravity(false)
	b.obj.EnableDrag(false)
	b.obj.Velocity = st.Velocity
	return nil
}

// combineStrategy bounces with a random deflection and explodes once it
// runs out of bounces.
type combineStrategy struct{}

func (combineStrategy) collide(w *world.World, e *world.Entity, b *Ball, ev world.CollisionEvent) {
	if ev.Other != nil {
		if _, ok := world.BehaviorOf[*player.Player](ev.Other); ok {
			b.Explode(w, e)
			return
		}
	}
	b.Bounces++
	if b.MaxBounces > 0 && b.Bounces >= b.MaxBounces {
		b.Explode(w, e)
		return
	}

	dir, _ := ev.PreVelocity.Reflect(ev.Normal).Normalize()
	a := model.VectorAngles(dir)
	rng := w.Random()
	a.Pitch += rng.Float(-combineDeflectDegrees, combineDeflectDegrees)
	a.Yaw += rng.Float(-combineDeflectDegrees, combineDeflectDegrees)
	fwd, _, _ := model.AngleVectors(a)
	// keep bouncing away from the surface
	if fwd.Dot(ev.Normal) < 0 {
		fwd = dir
	}
	e.SetVelocity(fwd.Scale(b.Speed))
	b.LastKnownDirection = fwd
}

func (combineStrategy) explode(w *world.World, e *world.Entity, b *Ball) {
	for _, pe := range w.FindByClassname(world.PlayerClassname) {
		p, ok := world.BehaviorOf[*player.Player](pe)
		if !ok {
			continue
		}
		dist := pe.Origin().Sub(e.Origin()).Length()
		if dist > combineExplodeRadius {
			continue
		}
		scale := 1 - dist/combineExplodeRadius
		p.ViewPunch(model.Angle{Pitch: -8 * scale, Yaw: w.Random().Float(-4, 4) * scale})
		p.TakeDamage(w, pe, int(combineExplodeDamage*scale), e)
	}
}

// energyStrategy bounces forever with an exact reflection at constant
// speed. It explodes when it hits a player and has no shake.
type energyStrategy struct{}

func (energyStrategy) collide(w *world.World, e *world.Entity, b *Ball, ev world.CollisionEvent) {
	if ev.Other != nil {
		if _, ok := world.BehaviorOf[*player.Player](ev.Other); ok {
			b.Explode(w, e)
			return
		}
	}
	b.Bounces++
	dir, l := ev.PreVelocity.Reflect(ev.Normal).Normalize()
	if l == 0 {
		dir = ev.Normal
	}
	e.SetVelocity(dir.Scale(b.Speed))
	b.LastKnownDirection = dir
}

func (energyStrategy) explode(w *world.World, e *world.Entity, b *Ball) {}
