package entities

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/udisondev/portalgo/internal/model"
	"github.com/udisondev/portalgo/internal/world"
)

func newWorld(t *testing.T) *world.World {
	t.Helper()
	f := world.NewFactory()
	Register(f)
	return world.New(world.Options{MapName: "test", Factory: f})
}

func spawn(t *testing.T, w *world.World, classname string, kvs ...string) *world.Entity {
	t.Helper()
	require.Zero(t, len(kvs)%2, "keyvalues come in pairs")
	e, err := w.CreateEntityByName(classname)
	require.NoError(t, err)
	for i := 0; i < len(kvs); i += 2 {
		e.KeyValue(kvs[i], kvs[i+1])
	}
	require.NoError(t, w.DispatchSpawn(e))
	w.Activate(e)
	return e
}

func TestLogicRelay_TriggerKillsTarget(t *testing.T) {
	w := newWorld(t)
	target := spawn(t, w, ClassInfoTarget, "targetname", "doomed")
	relay := spawn(t, w, ClassLogicRelay,
		"targetname", "relay",
		"OnTrigger", "doomed,Kill,,0.5,-1")

	assert.True(t, w.AcceptInput(relay, "Trigger", nil, ""))
	w.Frame(0.1)
	_, ok := w.Resolve(target.Handle())
	assert.True(t, ok, "delay not elapsed")

	w.Frame(0.5)
	_, ok = w.Resolve(target.Handle())
	assert.False(t, ok)
}

func TestLogicRelay_Disabled(t *testing.T) {
	w := newWorld(t)
	target := spawn(t, w, ClassInfoTarget, "targetname", "safe")
	relay := spawn(t, w, ClassLogicRelay,
		"StartDisabled", "1",
		"OnTrigger", "safe,Kill,,0,-1",
		"OnSpawn", "safe,Kill,,0,-1")

	w.AcceptInput(relay, "Trigger", nil, "")
	w.Frame(0.1)
	_, ok := w.Resolve(target.Handle())
	assert.True(t, ok)
}

func TestTriggerRPGFire_RegistersAndWaits(t *testing.T) {
	w := newWorld(t)
	trig := spawn(t, w, ClassTriggerRPGFire, "wait", "1")
	assert.True(t, trig.IsTrigger())
	require.Len(t, w.WeaponFireTriggers(), 1)

	tm, ok := world.BehaviorOf[*TriggerMultiple](trig)
	require.True(t, ok)
	assert.True(t, tm.ActivateMultiTrigger(w, trig, nil))
	assert.False(t, tm.ActivateMultiTrigger(w, trig, nil), "still waiting")
	w.Frame(1.1)
	assert.True(t, tm.ActivateMultiTrigger(w, trig, nil))
}

func TestTriggerMultiple_FiresOnTouch(t *testing.T) {
	w := newWorld(t)
	target := spawn(t, w, ClassInfoTarget, "targetname", "gone", "origin", "500 0 0")
	spawn(t, w, ClassTriggerMultiple,
		"mins", "-16 -16 -16",
		"maxs", "16 16 16",
		"OnTrigger", "gone,Kill,,0,1")
	assert.Empty(t, w.WeaponFireTriggers())

	spawn(t, w, ClassInfoTarget, "origin", "0 0 0")
	w.Frame(0.1)
	_, ok := w.Resolve(target.Handle())
	assert.False(t, ok)
}

func TestPortal_Partner(t *testing.T) {
	w := newWorld(t)
	blue := spawn(t, w, ClassPropPortal, "LinkageGroupID", "3", "PortalTwo", "0")
	orange := spawn(t, w, ClassPropPortal, "LinkageGroupID", "3", "PortalTwo", "1")
	spawn(t, w, ClassPropPortal, "LinkageGroupID", "4", "PortalTwo", "1")

	p, ok := world.BehaviorOf[*Portal](blue)
	require.True(t, ok)
	partner, _, ok := p.Partner(w, blue)
	require.True(t, ok)
	assert.Same(t, orange, partner)

	w.AcceptInput(orange, "Fizzle", nil, "")
	_, _, ok = p.Partner(w, blue)
	assert.False(t, ok)
}

func TestPortal_TeleportsMover(t *testing.T) {
	w := newWorld(t)
	spawn(t, w, ClassPropPortal, "origin", "0 0 0", "angles", "0 0 0", "LinkageGroupID", "1")
	out := spawn(t, w, ClassPropPortal, "origin", "1000 0 0", "angles", "0 90 0", "LinkageGroupID", "1", "PortalTwo", "1")

	mover := spawn(t, w, ClassInfoTarget, "origin", "20 0 0")
	mover.SetBounds(model.Vec(-4, -4, -4), model.Vec(4, 4, 4))
	mover.SetMoveType(world.MoveFly)
	mover.SetVelocity(model.Vec(-200, 0, 0))

	w.Frame(0.1)

	// in through the front of the first portal, out of the front of the second
	assert.InDelta(t, 1000.0, mover.Origin().X, 1e-6)
	assert.Greater(t, mover.Origin().Y, 0.0)
	v := mover.Velocity()
	assert.InDelta(t, 0.0, v.X, 1e-6)
	assert.InDelta(t, 200.0, v.Y, 1e-6)
	assert.False(t, out.IsTouching(mover))
}
