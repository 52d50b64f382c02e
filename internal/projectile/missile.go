package projectile

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/udisondev/portalgo/internal/model"
	"github.com/udisondev/portalgo/internal/player"
	"github.com/udisondev/portalgo/internal/world"
)

const (
	// MissileSpeed is the missile's cruise speed in units/s.
	MissileSpeed = 1500.0

	missileModel         = "models/weapons/w_missile.mdl"
	missileThinkInterval = 0.1
	missileAimDistance   = 8192.0

	// missileTurnRate is the fraction of the aim correction applied per think.
	missileTurnRate = 0.2
)

// Missile is the homing rocket. During its grace period it flies straight,
// passes through entities and does not explode; afterwards it steers toward
// the point its owner is looking at and blows up on the first thing it hits.
type Missile struct {
	GraceEnd float64 `json:"grace_end"`
	Exploded bool    `json:"exploded"`
}

// CreateMissile spawns a missile at origin flying along angles, owned by
// owner.
func CreateMissile(w *world.World, origin model.Vector, angles model.Angle, owner *world.Entity) (*world.Entity, *Missile, error) {
	e, err := w.CreateEntityByName(ClassMissile)
	if err != nil {
		return nil, nil, fmt.Errorf("creating missile: %w", err)
	}
	e.SetOrigin(origin)
	e.SetAngles(angles)
	if owner != nil {
		e.SetOwner(owner.Handle())
	}
	if err := w.DispatchSpawn(e); err != nil {
		w.Remove(e)
		return nil, nil, fmt.Errorf("creating missile: %w", err)
	}
	w.Activate(e)
	m, _ := world.BehaviorOf[*Missile](e)
	return e, m, nil
}

// Precache registers the missile model and sounds.
func (m *Missile) Precache(w *world.World, e *world.Entity) error {
	if err := w.PrecacheModel(missileModel); err != nil {
		return err
	}
	for _, s := range []string{"Missile.Ignite", "Missile.Accelerate"} {
		if err := w.PrecacheSound(s); err != nil {
			return err
		}
	}
	return nil
}

// Spawn launches the missile along its angles.
func (m *Missile) Spawn(w *world.World, e *world.Entity) error {
	e.SetBounds(model.Vec(-4, -4, -4), model.Vec(4, 4, 4))
	e.SetSolid(true)
	e.SetCollisionGroup(world.CollisionGroupProjectile)
	e.SetMoveType(world.MoveFly)
	fwd, _, _ := model.AngleVectors(e.Angles())
	e.SetVelocity(fwd.Scale(MissileSpeed))
	e.SetNextThink(w.Now() + missileThinkInterval)
	return nil
}

// SetGracePeriod makes the missile ignore collisions and skip homing for d
// seconds.
func (m *Missile) SetGracePeriod(w *world.World, e *world.Entity, d float64) {
	m.GraceEnd = w.Now() + d
	e.SetSolid(false)
	e.SetCollisionGroup(world.CollisionGroupDebris)
}

// InGrace reports whether the grace period is still running.
func (m *Missile) InGrace(w *world.World) bool { return w.Now() < m.GraceEnd }

// Think steers the missile once the grace period is over.
func (m *Missile) Think(w *world.World, e *world.Entity) {
	if m.InGrace(w) {
		e.SetNextThink(w.Now() + missileThinkInterval)
		return
	}
	if !e.IsSolid() {
		e.SetSolid(true)
		e.SetCollisionGroup(world.CollisionGroupProjectile)
	}
	m.home(w, e)
	e.SetNextThink(w.Now() + missileThinkInterval)
}

// home steers toward the point under the owner's crosshair.
func (m *Missile) home(w *world.World, e *world.Entity) {
	oe, p, ok := player.Resolve(w, e.Owner())
	if !ok {
		return
	}
	fwd, _, _ := p.EyeVectors()
	eye := p.EyePosition(oe)
	tr := w.TraceLine(eye, eye.Add(fwd.Scale(missileAimDistance)), oe)

	want, l := tr.EndPos.Sub(e.Origin()).Normalize()
	if l == 0 {
		return
	}
	cur, _ := e.Velocity().Normalize()
	dir, _ := cur.Add(want.Sub(cur).Scale(missileTurnRate)).Normalize()
	if dir.IsZero() {
		dir = want
	}
	e.SetVelocity(dir.Scale(MissileSpeed))
	e.SetAngles(model.VectorAngles(dir))
}

// OnCollision explodes the missile unless it is in grace.
func (m *Missile) OnCollision(w *world.World, e *world.Entity, ev world.CollisionEvent) {
	if m.InGrace(w) {
		return
	}
	m.Explode(w, e)
}

// Explode removes the missile.
func (m *Missile) Explode(w *world.World, e *world.Entity) {
	if m.Exploded {
		return
	}
	m.Exploded = true
	slog.Debug("missile exploded", "id", e.ID(), "origin", e.Origin().String())
	w.FireOutput(e, "OnExplode", e)
	w.Remove(e)
}

func (m *Missile) SaveState() ([]byte, error) { return json.Marshal(m) }

func (m *Missile) RestoreState(data []byte) error { return json.Unmarshal(data, m) }
