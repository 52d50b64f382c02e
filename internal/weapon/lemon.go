// Package weapon implements player weapons.
package weapon

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/udisondev/portalgo/internal/entities"
	"github.com/udisondev/portalgo/internal/model"
	"github.com/udisondev/portalgo/internal/player"
	"github.com/udisondev/portalgo/internal/projectile"
	"github.com/udisondev/portalgo/internal/world"
)

// ClassLemon is the debug weapon that fires a homing missile and, after a
// delay, an energy ball.
const ClassLemon = "weapon_lemon"

const (
	lemonViewModel = "models/weapons/v_rpg.mdl"

	primaryRefire     = 0.5
	secondaryDelay    = 0.5
	secondaryRefire   = 1.0
	muzzleFlashLength = 0.5
	graceTraceLength  = 128.0
	missileGrace      = 0.3

	energyBallRadius   = 12.0
	energyBallDistance = 50.0
	energyBallSpeed    = 400.0
	energyBallLifetime = 10.0
	energyBallMinLife  = 5.0
	energyBallMass     = 1.0
	energyBallInertia  = 1e30
)

// Activity is the view model animation the weapon is playing.
type Activity int

const (
	ActIdle Activity = iota
	ActDraw
	ActHolster
	ActPrimaryAttack
	ActSecondaryAttack
	ActFidget
	// ActReload is never started by the lemon itself.
	ActReload
)

func (a Activity) String() string {
	switch a {
	case ActIdle:
		return "ACT_VM_IDLE"
	case ActDraw:
		return "ACT_VM_DRAW"
	case ActHolster:
		return "ACT_VM_HOLSTER"
	case ActPrimaryAttack:
		return "ACT_VM_PRIMARYATTACK"
	case ActSecondaryAttack:
		return "ACT_VM_SECONDARYATTACK"
	case ActFidget:
		return "ACT_VM_FIDGET"
	case ActReload:
		return "ACT_VM_RELOAD"
	default:
		return fmt.Sprintf("activity(%d)", int(a))
	}
}

// sequenceDurations are the view model sequence lengths in seconds.
var sequenceDurations = map[Activity]float64{
	ActDraw:            0.5,
	ActHolster:         0.3,
	ActPrimaryAttack:   0.5,
	ActSecondaryAttack: 0.8,
	ActFidget:          0.5,
	ActReload:          1.5,
}

// Lemon is the weapon_lemon behavior. At most one missile is out at a time
// and at most one secondary attack is pending.
type Lemon struct {
	Missile             world.Handle `json:"missile"`
	ShotDelayed         bool         `json:"shot_delayed"`
	DelayedFire         float64      `json:"delayed_fire"`
	NextPrimaryAttack   float64      `json:"next_primary_attack"`
	NextSecondaryAttack float64      `json:"next_secondary_attack"`
	Activity            Activity     `json:"activity"`
	ActivityEnd         float64      `json:"activity_end"`
	PrimaryAttacks      int          `json:"primary_attacks"`
	SecondaryAttacks    int          `json:"secondary_attacks"`
	MinRange            float64      `json:"min_range"`
	MaxRange            float64      `json:"max_range"`
}

// NewLemon returns an unowned lemon weapon.
func NewLemon() *Lemon {
	return &Lemon{MinRange: 480, MaxRange: 6000}
}

// Register links the weapon classes into f.
func Register(f *world.Factory) {
	f.Register(ClassLemon, func() world.Behavior { return NewLemon() })
	f.PrecacheOnLoad(ClassLemon)
}

// Precache registers the view model, the missile sounds and the missile class.
func (l *Lemon) Precache(w *world.World, e *world.Entity) error {
	if err := w.PrecacheModel(lemonViewModel); err != nil {
		return err
	}
	for _, s := range []string{"Missile.Ignite", "Missile.Accelerate"} {
		if err := w.PrecacheSound(s); err != nil {
			return err
		}
	}
	return w.PrecacheOther(projectile.ClassMissile)
}

func (l *Lemon) owner(w *world.World, e *world.Entity) (*world.Entity, *player.Player, bool) {
	return player.Resolve(w, e.Owner())
}

// SendWeaponAnim starts the view model activity act.
func (l *Lemon) SendWeaponAnim(w *world.World, act Activity) {
	l.Activity = act
	l.ActivityEnd = w.Now() + sequenceDurations[act]
}

// SequenceDuration returns the length of the current activity.
func (l *Lemon) SequenceDuration() float64 {
	return sequenceDurations[l.Activity]
}

// Deploy plays the draw animation.
func (l *Lemon) Deploy(w *world.World, e *world.Entity) {
	l.SendWeaponAnim(w, ActDraw)
}

// PrimaryAttack fires a homing missile unless one is already out or the
// weapon is reloading.
func (l *Lemon) PrimaryAttack(w *world.World, e *world.Entity) {
	if _, live := w.Resolve(l.Missile); live {
		return
	}
	if l.Activity == ActReload {
		return
	}

	l.NextPrimaryAttack = w.Now() + primaryRefire

	oe, p, ok := l.owner(w, e)
	if !ok {
		return
	}

	fwd, right, up := p.EyeVectors()
	muzzle := p.ShootPosition(oe).
		Add(fwd.Scale(12)).
		Add(right.Scale(6)).
		Add(up.Scale(-3))

	me, m, err := projectile.CreateMissile(w, muzzle, model.VectorAngles(fwd), oe)
	if err != nil {
		slog.Warn("lemon: failed to create missile", "weapon", e.ID(), "error", err)
		return
	}
	l.Missile = me.Handle()

	// clear shot: give the missile time to leave the player
	eye := p.EyePosition(oe)
	if tr := w.TraceLine(eye, eye.Add(fwd.Scale(graceTraceLength)), oe); !tr.Hit() {
		m.SetGracePeriod(w, me, missileGrace)
	}

	p.SetMuzzleFlashTime(w.Now() + muzzleFlashLength)
	l.SendWeaponAnim(w, ActPrimaryAttack)
	l.PrimaryAttacks++

	for _, trig := range w.WeaponFireTriggers() {
		if !trig.IsTouching(oe) || !strings.EqualFold(trig.Classname(), entities.ClassTriggerRPGFire) {
			continue
		}
		if tm, ok := world.BehaviorOf[*entities.TriggerMultiple](trig); ok {
			tm.ActivateMultiTrigger(w, trig, oe)
		}
	}
}

// SecondaryAttack arms the delayed energy ball shot.
func (l *Lemon) SecondaryAttack(w *world.World, e *world.Entity) {
	if l.ShotDelayed {
		return
	}
	l.ShotDelayed = true
	t := w.Now() + secondaryDelay
	l.NextPrimaryAttack = t
	l.NextSecondaryAttack = t
	l.DelayedFire = t

	l.SendWeaponAnim(w, ActFidget)
	l.SecondaryAttacks++
}

// DelayedAttack fires the armed energy ball and disorients the owner.
func (l *Lemon) DelayedAttack(w *world.World, e *world.Entity) {
	l.ShotDelayed = false

	oe, p, ok := l.owner(w, e)
	if !ok {
		return
	}

	l.SendWeaponAnim(w, ActSecondaryAttack)
	next := w.Now() + l.SequenceDuration()
	l.NextSecondaryAttack = next
	p.NextAttack = next

	p.DoMuzzleFlash()
	p.SetMuzzleFlashTime(w.Now() + muzzleFlashLength)

	l.FireEnergyBall(w, e)

	p.ScreenFadeAt(w.Now(), player.Color32{R: 255, G: 255, B: 255, A: 64}, 0.1, 0, player.FadeIn)

	rng := w.Random()
	angles := p.EyeAngles
	angles.Pitch += float64(rng.Int(-4, 4))
	angles.Yaw += float64(rng.Int(-4, 4))
	angles.Roll = 0
	p.SnapEyeAngles(oe, angles)

	p.ViewPunch(model.Angle{Pitch: float64(rng.Int(-12, -8)), Yaw: float64(rng.Int(1, 2))})

	l.NextPrimaryAttack = w.Now() + primaryRefire
	l.NextSecondaryAttack = w.Now() + secondaryRefire
}

// FireEnergyBall launches an energy ball from the owner's eyes. It returns
// nil when there is no owner or the ball cannot be created.
func (l *Lemon) FireEnergyBall(w *world.World, e *world.Entity) *world.Entity {
	oe, p, ok := l.owner(w, e)
	if !ok {
		return nil
	}
	eye := p.EyePosition(oe)
	fwd, _, _ := p.EyeVectors()

	be, err := w.CreateEntityByName(projectile.ClassEnergyBall)
	if err != nil {
		slog.Warn("lemon: failed to create energy ball", "weapon", e.ID(), "error", err)
		return nil
	}
	ball, ok := world.BehaviorOf[*projectile.Ball](be)
	if !ok {
		w.Remove(be)
		return nil
	}

	ball.SetRadius(energyBallRadius)
	be.SetOrigin(eye.Add(fwd.Scale(energyBallDistance)))
	ball.SetSpawner(world.Handle{})
	ball.SetSpeed(energyBallSpeed)
	be.SetVelocity(fwd.Scale(energyBallSpeed))
	if err := w.DispatchSpawn(be); err != nil {
		slog.Warn("lemon: failed to spawn energy ball", "weapon", e.ID(), "error", err)
		w.Remove(be)
		return nil
	}
	w.Activate(be)
	ball.SetState(projectile.StateLaunched)
	be.SetCollisionGroup(world.CollisionGroupProjectile)
	ball.MinLifeAfterPortal = energyBallMinLife

	if obj := ball.PhysicsObject(); obj != nil {
		obj.EnableDrag(false)
		obj.SetDamping(0, 0)
		// no visible spin
		obj.SetInertia(model.Vec(energyBallInertia, energyBallInertia, energyBallInertia))
		obj.SetMass(energyBallMass)
	}
	ball.StartLifetime(w, energyBallLifetime)
	ball.IsInfiniteLife = false

	be.SetNextThink(w.Now() + 0.1)
	return be
}

// ItemPostFrame fires a due delayed shot, then handles the owner's
// attack buttons.
func (l *Lemon) ItemPostFrame(w *world.World, e *world.Entity) {
	if l.ShotDelayed && w.Now() > l.DelayedFire {
		l.DelayedAttack(w, e)
	}

	_, p, ok := l.owner(w, e)
	if !ok {
		return
	}
	now := w.Now()
	switch {
	case p.IsPressed(player.ButtonAttack2) && now >= l.NextSecondaryAttack:
		l.SecondaryAttack(w, e)
	case p.IsPressed(player.ButtonAttack) && now >= l.NextPrimaryAttack:
		l.PrimaryAttack(w, e)
	}

	if l.Activity != ActIdle && now >= l.ActivityEnd {
		l.Activity = ActIdle
	}
}

// Holster refuses while a secondary shot is pending.
func (l *Lemon) Holster(w *world.World, e *world.Entity) bool {
	if l.ShotDelayed {
		return false
	}
	l.SendWeaponAnim(w, ActHolster)
	return true
}

func (l *Lemon) SaveState() ([]byte, error) { return json.Marshal(l) }

func (l *Lemon) RestoreState(data []byte) error { return json.Unmarshal(data, l) }
