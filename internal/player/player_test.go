package player

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/udisondev/portalgo/internal/model"
	"github.com/udisondev/portalgo/internal/world"
)

type stubWeapon struct {
	frames   int
	holster  bool
	deployed int
}

func (s *stubWeapon) ItemPostFrame(w *world.World, e *world.Entity) { s.frames++ }
func (s *stubWeapon) Holster(w *world.World, e *world.Entity) bool  { return s.holster }
func (s *stubWeapon) Deploy(w *world.World, e *world.Entity)        { s.deployed++ }

func setup(t *testing.T) (*world.World, *world.Entity, *Player) {
	t.Helper()
	f := world.NewFactory()
	Register(f)
	f.Register("weapon_stub", func() world.Behavior { return &stubWeapon{holster: true} })
	w := world.New(world.Options{MapName: "test", Factory: f})

	e, err := w.CreateEntityByName(world.PlayerClassname)
	require.NoError(t, err)
	e.KeyValue("origin", "10 20 0")
	require.NoError(t, w.DispatchSpawn(e))
	w.Activate(e)

	_, p, ok := Resolve(w, e.Handle())
	require.True(t, ok)
	return w, e, p
}

func TestPlayer_Spawn(t *testing.T) {
	_, e, p := setup(t)
	assert.True(t, world.IsPlayerID(e.ID()))
	assert.Equal(t, DefaultHealth, p.Health)
	assert.True(t, e.IsSolid())
	assert.Equal(t, world.CollisionGroupPlayer, e.CollisionGroup())
	assert.Equal(t, model.Vec(10, 20, EyeHeight), p.EyePosition(e))
	assert.Equal(t, p.EyePosition(e), p.ShootPosition(e))

	_, ok := e.NextThink()
	assert.True(t, ok)
}

func TestPlayer_GiveAndThink(t *testing.T) {
	w, e, p := setup(t)

	we, err := p.Give(w, e, "weapon_stub")
	require.NoError(t, err)
	assert.Equal(t, e.Handle(), we.Owner())
	assert.Equal(t, we.Handle(), p.ActiveWeapon)

	stub, ok := world.BehaviorOf[*stubWeapon](we)
	require.True(t, ok)
	assert.Equal(t, 1, stub.deployed)

	w.Frame(0.1)
	w.Frame(0.1)
	assert.Equal(t, 2, stub.frames)

	_, err = p.Give(w, e, "weapon_missing")
	assert.ErrorIs(t, err, world.ErrUnknownClass)
}

func TestPlayer_SwitchWeaponRespectsHolster(t *testing.T) {
	w, e, p := setup(t)
	first, err := p.Give(w, e, "weapon_stub")
	require.NoError(t, err)
	second, err := p.Give(w, e, "weapon_stub")
	require.NoError(t, err)
	assert.Equal(t, first.Handle(), p.ActiveWeapon)

	stub, _ := world.BehaviorOf[*stubWeapon](first)
	stub.holster = false
	assert.False(t, p.SwitchWeapon(w, second.Handle()))
	assert.Equal(t, first.Handle(), p.ActiveWeapon)

	stub.holster = true
	assert.True(t, p.SwitchWeapon(w, second.Handle()))
	assert.Equal(t, second.Handle(), p.ActiveWeapon)
}

func TestPlayer_ViewPunchDecays(t *testing.T) {
	w, _, p := setup(t)
	p.ViewPunch(model.Angle{Pitch: -10, Yaw: 2})
	p.ViewPunch(model.Angle{Pitch: -2})
	assert.InDelta(t, -12.0, p.PunchAngle.Pitch, 1e-9)

	for range 30 {
		w.Frame(0.1)
	}
	assert.Zero(t, p.PunchAngle.Pitch)
	assert.Zero(t, p.PunchAngle.Yaw)
}

func TestPlayer_SnapEyeAngles(t *testing.T) {
	_, e, p := setup(t)
	p.SnapEyeAngles(e, model.Angle{Pitch: 10, Yaw: 90, Roll: 5})
	assert.Equal(t, model.Angle{Pitch: 10, Yaw: 90, Roll: 5}, p.EyeAngles)
	assert.Equal(t, 90.0, e.Angles().Yaw)

	fwd, _, _ := p.EyeVectors()
	assert.Greater(t, fwd.Y, 0.9)
}

func TestPlayer_TakeDamage(t *testing.T) {
	w, e, p := setup(t)
	p.TakeDamage(w, e, 30, nil)
	assert.Equal(t, 70, p.Health)
	p.TakeDamage(w, e, 500, nil)
	assert.Zero(t, p.Health)
	assert.False(t, p.IsAlive())
}

func TestPlayer_RemoveDropsWeapons(t *testing.T) {
	w, e, p := setup(t)
	we, err := p.Give(w, e, "weapon_stub")
	require.NoError(t, err)
	w.Remove(e)
	_, ok := w.Resolve(we.Handle())
	assert.False(t, ok)
}
