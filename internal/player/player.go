// Package player implements the player entity: eye position and view
// effects, attack timing and the weapons it carries.
package player

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"math"

	"github.com/udisondev/portalgo/internal/model"
	"github.com/udisondev/portalgo/internal/world"
)

const (
	// EyeHeight is the eye offset above the player origin.
	EyeHeight = 64.0

	// DefaultHealth is the health a player spawns with.
	DefaultHealth = 100

	hullHalfWidth = 16.0
	hullHeight    = 72.0
)

// Buttons is the bit set of held input buttons.
type Buttons uint32

const (
	ButtonAttack Buttons = 1 << iota
	ButtonAttack2
	ButtonReload
)

// FadeFlags control how a screen fade runs.
type FadeFlags uint8

const (
	// FadeIn fades from the color to clear.
	FadeIn FadeFlags = 1 << iota
	// FadeOut fades from clear to the color.
	FadeOut
)

// Color32 is an RGBA color.
type Color32 struct {
	R, G, B, A uint8
}

// ScreenFade is the last fade sent to the player's screen.
type ScreenFade struct {
	Color    Color32   `json:"color"`
	Duration float64   `json:"duration"`
	Hold     float64   `json:"hold"`
	Flags    FadeFlags `json:"flags"`
	Start    float64   `json:"start"`
}

// Weapon is the part of a weapon behavior the player drives every frame.
type Weapon interface {
	ItemPostFrame(w *world.World, e *world.Entity)
	Holster(w *world.World, e *world.Entity) bool
}

// Deployer is implemented by weapons that run logic when drawn.
type Deployer interface {
	Deploy(w *world.World, e *world.Entity)
}

// Player is the behavior of the player entity.
type Player struct {
	Health          int            `json:"health"`
	EyeAngles       model.Angle    `json:"eye_angles"`
	PunchAngle      model.Angle    `json:"punch_angle"`
	NextAttack      float64        `json:"next_attack"`
	MuzzleFlashTime float64        `json:"muzzle_flash_time"`
	MuzzleFlashes   int            `json:"muzzle_flashes"`
	Fade            ScreenFade     `json:"fade"`
	Buttons         Buttons        `json:"buttons"`
	ActiveWeapon    world.Handle   `json:"active_weapon"`
	Weapons         []world.Handle `json:"weapons"`
}

// Register links the player class into f.
func Register(f *world.Factory) {
	f.Register(world.PlayerClassname, func() world.Behavior { return &Player{} })
}

// Resolve returns the player entity behind h.
func Resolve(w *world.World, h world.Handle) (*world.Entity, *Player, bool) {
	e, ok := w.Resolve(h)
	if !ok {
		return nil, nil, false
	}
	p, ok := world.BehaviorOf[*Player](e)
	if !ok {
		return nil, nil, false
	}
	return e, p, true
}

func (p *Player) Spawn(w *world.World, e *world.Entity) error {
	if p.Health == 0 {
		p.Health = DefaultHealth
	}
	e.SetBounds(model.Vec(-hullHalfWidth, -hullHalfWidth, 0), model.Vec(hullHalfWidth, hullHalfWidth, hullHeight))
	e.SetSolid(true)
	e.SetCollisionGroup(world.CollisionGroupPlayer)
	e.SetMoveType(world.MoveFly)
	p.EyeAngles = e.Angles()
	e.SetNextThink(w.Now())
	return nil
}

// Think decays the view punch and lets the active weapon process the frame.
// The weapon is skipped while the player is locked out by NextAttack.
func (p *Player) Think(w *world.World, e *world.Entity) {
	p.decayPunch(w.Clock().FrameTime())

	if we, ok := w.Resolve(p.ActiveWeapon); ok && w.Now() >= p.NextAttack {
		if wpn, ok := world.BehaviorOf[Weapon](we); ok {
			wpn.ItemPostFrame(w, we)
		}
	}
	if !e.IsRemoved() {
		e.SetNextThink(w.Now())
	}
}

// IsAlive reports whether the player has health left.
func (p *Player) IsAlive() bool { return p.Health > 0 }

// TakeDamage subtracts amount from health. Reaching zero fires OnDeath.
func (p *Player) TakeDamage(w *world.World, e *world.Entity, amount int, attacker *world.Entity) {
	if !p.IsAlive() || amount <= 0 {
		return
	}
	p.Health = max(0, p.Health-amount)
	if p.Health == 0 {
		slog.Info("player died", "id", e.ID())
		w.FireOutput(e, "OnDeath", attacker)
	}
}

// EyePosition returns the world position of the player's eyes.
func (p *Player) EyePosition(e *world.Entity) model.Vector {
	return e.Origin().Add(model.Vec(0, 0, EyeHeight))
}

// EyeVectors returns the view direction basis.
func (p *Player) EyeVectors() (forward, right, up model.Vector) {
	return model.AngleVectors(p.EyeAngles)
}

// ShootPosition returns the point weapons fire from.
func (p *Player) ShootPosition(e *world.Entity) model.Vector {
	return p.EyePosition(e)
}

// SnapEyeAngles sets the view angles at once. The body follows the yaw.
func (p *Player) SnapEyeAngles(e *world.Entity, a model.Angle) {
	p.EyeAngles = a
	body := e.Angles()
	body.Yaw = a.Yaw
	e.SetAngles(body)
}

// ViewPunch kicks the view by a, on top of any punch still decaying.
func (p *Player) ViewPunch(a model.Angle) {
	p.PunchAngle.Pitch += a.Pitch
	p.PunchAngle.Yaw += a.Yaw
	p.PunchAngle.Roll += a.Roll
}

// decayPunch shrinks the punch angle toward zero.
func (p *Player) decayPunch(dt float64) {
	v := model.Vec(p.PunchAngle.Pitch, p.PunchAngle.Yaw, p.PunchAngle.Roll)
	dir, length := v.Normalize()
	if length == 0 {
		return
	}
	length = math.Max(0, length-(10+length*0.5)*dt)
	v = dir.Scale(length)
	p.PunchAngle = model.Angle{Pitch: v.X, Yaw: v.Y, Roll: v.Z}
}

// ScreenFadeAt records a fade starting at now.
func (p *Player) ScreenFadeAt(now float64, c Color32, duration, hold float64, flags FadeFlags) {
	p.Fade = ScreenFade{Color: c, Duration: duration, Hold: hold, Flags: flags, Start: now}
}

// SetMuzzleFlashTime marks the player as visibly firing until t.
func (p *Player) SetMuzzleFlashTime(t float64) { p.MuzzleFlashTime = t }

// DoMuzzleFlash counts a muzzle flash.
func (p *Player) DoMuzzleFlash() { p.MuzzleFlashes++ }

// IsPressed reports whether every button in b is held.
func (p *Player) IsPressed(b Buttons) bool { return p.Buttons&b == b }

// Give creates a weapon of the given class owned by the player. The first
// weapon given becomes the active one.
func (p *Player) Give(w *world.World, e *world.Entity, classname string) (*world.Entity, error) {
	we, err := w.CreateEntityByName(classname)
	if err != nil {
		return nil, fmt.Errorf("giving weapon: %w", err)
	}
	we.SetOwner(e.Handle())
	we.SetOrigin(e.Origin())
	if err := w.DispatchSpawn(we); err != nil {
		w.Remove(we)
		return nil, fmt.Errorf("giving weapon: %w", err)
	}
	w.Activate(we)
	p.Weapons = append(p.Weapons, we.Handle())

	if _, ok := w.Resolve(p.ActiveWeapon); !ok {
		p.ActiveWeapon = we.Handle()
		if d, ok := world.BehaviorOf[Deployer](we); ok {
			d.Deploy(w, we)
		}
	}
	return we, nil
}

// SwitchWeapon makes h the active weapon. It fails if the current weapon
// refuses to holster.
func (p *Player) SwitchWeapon(w *world.World, h world.Handle) bool {
	next, ok := w.Resolve(h)
	if !ok {
		return false
	}
	if cur, ok := w.Resolve(p.ActiveWeapon); ok {
		if cur == next {
			return true
		}
		if wpn, ok := world.BehaviorOf[Weapon](cur); ok && !wpn.Holster(w, cur) {
			return false
		}
	}
	p.ActiveWeapon = h
	if d, ok := world.BehaviorOf[Deployer](next); ok {
		d.Deploy(w, next)
	}
	return true
}

func (p *Player) OnRemove(w *world.World, e *world.Entity) {
	for _, h := range p.Weapons {
		if we, ok := w.Resolve(h); ok {
			w.Remove(we)
		}
	}
}

func (p *Player) SaveState() ([]byte, error) { return json.Marshal(p) }

func (p *Player) RestoreState(data []byte) error { return json.Unmarshal(data, p) }
