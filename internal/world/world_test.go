package world

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/udisondev/portalgo/internal/model"
)

// recorder is a test behavior that logs its callbacks.
type recorder struct {
	calls   []string
	inputs  []string
	touches int
	thinks  int
	rethink float64
}

func (r *recorder) Spawn(w *World, e *Entity) error {
	r.calls = append(r.calls, "spawn")
	return nil
}

func (r *recorder) Activate(w *World, e *Entity) {
	r.calls = append(r.calls, "activate")
}

func (r *recorder) Think(w *World, e *Entity) {
	r.thinks++
	if r.rethink > 0 {
		e.SetNextThink(w.Now() + r.rethink)
	}
}

func (r *recorder) AcceptInput(w *World, e *Entity, input string, activator *Entity, param string) bool {
	r.inputs = append(r.inputs, input+":"+param)
	return true
}

func (r *recorder) StartTouch(w *World, e, other *Entity) { r.touches++ }
func (r *recorder) EndTouch(w *World, e, other *Entity)   { r.touches-- }

func newTestWorld(tb testing.TB) *World {
	tb.Helper()
	f := NewFactory()
	f.Register("test_recorder", func() Behavior { return &recorder{} })
	f.Register("info_target", func() Behavior { return struct{}{} })
	f.Register(PlayerClassname, func() Behavior { return &recorder{} })
	return New(Options{MapName: "test", Factory: f, Random: NewRandom(7)})
}

func rec(t *testing.T, e *Entity) *recorder {
	t.Helper()
	r, ok := BehaviorOf[*recorder](e)
	require.True(t, ok)
	return r
}

func TestWorld_CreateUnknownClass(t *testing.T) {
	w := newTestWorld(t)
	_, err := w.CreateEntityByName("npc_nope")
	assert.ErrorIs(t, err, ErrUnknownClass)
	assert.Zero(t, w.Count())
}

func TestWorld_CreateIsCaseInsensitive(t *testing.T) {
	w := newTestWorld(t)
	e, err := w.CreateEntityByName("Info_Target")
	require.NoError(t, err)
	assert.Equal(t, "Info_Target", e.Classname())
}

func TestWorld_PlayerIDRange(t *testing.T) {
	w := newTestWorld(t)
	p, err := w.CreateEntityByName(PlayerClassname)
	require.NoError(t, err)
	e, err := w.CreateEntityByName("info_target")
	require.NoError(t, err)

	assert.True(t, IsPlayerID(p.ID()))
	assert.False(t, IsPlayerID(e.ID()))
}

func TestWorld_LifecycleOrder(t *testing.T) {
	w := newTestWorld(t)
	e, err := w.CreateEntityByName("test_recorder")
	require.NoError(t, err)
	require.NoError(t, w.DispatchSpawn(e))
	w.Activate(e)
	w.Activate(e)

	assert.Equal(t, []string{"spawn", "activate"}, rec(t, e).calls)
	assert.True(t, e.IsSpawned())
	assert.True(t, e.IsActivated())
}

func TestHandle_InvalidatesOnRemove(t *testing.T) {
	w := newTestWorld(t)
	e, err := w.CreateEntityByName("info_target")
	require.NoError(t, err)
	h := e.Handle()

	got, ok := w.Resolve(h)
	require.True(t, ok)
	assert.Same(t, e, got)

	w.Remove(e)
	_, ok = w.Resolve(h)
	assert.False(t, ok)
	assert.Empty(t, w.Entities())

	_, ok = w.Resolve(Handle{})
	assert.False(t, ok)
}

func TestEntity_KeyValue(t *testing.T) {
	w := newTestWorld(t)
	e, err := w.CreateEntityByName("info_target")
	require.NoError(t, err)

	assert.True(t, e.KeyValue("targetname", "spot"))
	assert.True(t, e.KeyValue("origin", "1 2 3"))
	assert.True(t, e.KeyValue("angles", "0 90 0"))
	assert.True(t, e.KeyValue("OnUser1", "spot,Kill,,0,1"))
	assert.False(t, e.KeyValue("rendercolor", "255 0 0"))
	assert.False(t, e.KeyValue("origin", "bogus"))

	assert.Equal(t, "spot", e.TargetName())
	assert.Equal(t, model.Vec(1, 2, 3), e.Origin())
	assert.Equal(t, 90.0, e.Angles().Yaw)
	assert.Len(t, e.Outputs("onuser1"), 1)
	v, ok := e.RawKeyValue("rendercolor")
	assert.True(t, ok)
	assert.Equal(t, "255 0 0", v)
}

func TestWorld_ThinkScheduling(t *testing.T) {
	w := newTestWorld(t)
	e, err := w.CreateEntityByName("test_recorder")
	require.NoError(t, err)
	r := rec(t, e)
	r.rethink = 0.1
	e.SetNextThink(0.1)

	w.Frame(0.05)
	assert.Equal(t, 0, r.thinks)
	w.Frame(0.05)
	assert.Equal(t, 1, r.thinks)
	for range 10 {
		w.Frame(0.1)
	}
	assert.Equal(t, 11, r.thinks)
}

func TestWorld_OutputsAndInputs(t *testing.T) {
	w := newTestWorld(t)
	caller, err := w.CreateEntityByName("test_recorder")
	require.NoError(t, err)
	target, err := w.CreateEntityByName("test_recorder")
	require.NoError(t, err)
	target.SetTargetName("relay_target")

	caller.KeyValue("OnTrigger", "relay_target,Ping,now,0,-1")
	caller.KeyValue("OnTrigger", "relay_target,Ping,later,1,1")

	w.FireOutput(caller, "OnTrigger", nil)
	w.FireOutput(caller, "OnTrigger", nil)
	assert.Len(t, caller.Outputs("OnTrigger"), 1, "single-use connection dropped")

	w.Frame(0.1)
	assert.Equal(t, []string{"Ping:now", "Ping:now"}, rec(t, target).inputs)

	w.Frame(1.0)
	assert.Equal(t, []string{"Ping:now", "Ping:now", "Ping:later"}, rec(t, target).inputs)
}

func TestWorld_BuiltinInputs(t *testing.T) {
	w := newTestWorld(t)
	e, err := w.CreateEntityByName("info_target")
	require.NoError(t, err)
	e.SetTargetName("victim")

	assert.True(t, w.AcceptInput(e, "AddOutput", nil, "OnUser1 !self:Kill::0:1"))
	assert.True(t, w.AcceptInput(e, "FireUser1", nil, ""))
	w.Frame(0.01)

	_, ok := w.Resolve(e.Handle())
	assert.False(t, ok)
}

func TestWorld_TraceLine(t *testing.T) {
	w := New(Options{Brushes: []Brush{{Mins: model.Vec(100, -50, -50), Maxs: model.Vec(120, 50, 50)}}})

	tr := w.TraceLine(model.Vec(0, 0, 0), model.Vec(200, 0, 0), nil)
	require.True(t, tr.Hit())
	assert.InDelta(t, 0.5, tr.Fraction, 0.01)
	assert.Equal(t, model.Vec(-1, 0, 0), tr.Normal)
	assert.Nil(t, tr.Entity)

	tr = w.TraceLine(model.Vec(0, 0, 0), model.Vec(0, 200, 0), nil)
	assert.False(t, tr.Hit())
	assert.Equal(t, 1.0, tr.Fraction)
}

func TestWorld_TraceHitsSolidEntity(t *testing.T) {
	w := newTestWorld(t)
	e, err := w.CreateEntityByName("info_target")
	require.NoError(t, err)
	e.SetOrigin(model.Vec(50, 0, 0))
	e.SetBounds(model.Vec(-10, -10, -10), model.Vec(10, 10, 10))
	e.SetSolid(true)

	tr := w.TraceLine(model.Vec(0, 0, 0), model.Vec(100, 0, 0), nil)
	require.True(t, tr.Hit())
	assert.Same(t, e, tr.Entity)

	tr = w.TraceLine(model.Vec(0, 0, 0), model.Vec(100, 0, 0), e)
	assert.False(t, tr.Hit(), "ignored entity")
}

func TestWorld_Touches(t *testing.T) {
	w := newTestWorld(t)
	trig, err := w.CreateEntityByName("test_recorder")
	require.NoError(t, err)
	trig.SetTrigger(true)
	trig.SetBounds(model.Vec(-32, -32, -32), model.Vec(32, 32, 32))

	mover, err := w.CreateEntityByName("info_target")
	require.NoError(t, err)
	mover.SetOrigin(model.Vec(100, 0, 0))
	mover.SetMoveType(MoveFly)
	mover.SetVelocity(model.Vec(-100, 0, 0))

	w.Frame(0.1)
	assert.False(t, trig.IsTouching(mover))
	w.Frame(0.7)
	assert.True(t, trig.IsTouching(mover))
	assert.Equal(t, 1, rec(t, trig).touches)

	w.Remove(mover)
	w.Frame(0.1)
	assert.False(t, trig.IsTouching(mover))
	assert.Equal(t, 0, rec(t, trig).touches)
}

func TestWorld_RemovesOutOfBounds(t *testing.T) {
	w := newTestWorld(t)
	e, err := w.CreateEntityByName("info_target")
	require.NoError(t, err)
	e.SetOrigin(model.Vec(DefaultBounds+1, 0, 0))

	w.Frame(0.1)
	_, ok := w.Resolve(e.Handle())
	assert.False(t, ok)
}

func TestStringTables_Lock(t *testing.T) {
	st := NewStringTables()
	_, err := st.AddString(TableModelPrecache, "models/a.mdl")
	require.NoError(t, err)

	assert.False(t, st.Lock(true))
	_, err = st.AddString(TableModelPrecache, "models/b.mdl")
	assert.ErrorIs(t, err, ErrStringTablesLocked)

	idx, err := st.AddString(TableModelPrecache, "models/a.mdl")
	require.NoError(t, err, "existing strings resolve while locked")
	assert.Equal(t, 0, idx)

	assert.True(t, st.Lock(false))
}

func TestWorld_SnapshotRestore(t *testing.T) {
	w := newTestWorld(t)
	e, err := w.CreateEntityByName("info_target")
	require.NoError(t, err)
	e.KeyValue("targetname", "keep")
	e.KeyValue("origin", "4 5 6")
	e.KeyValue("OnUser2", "keep,Kill,,0,-1")
	e.KeyValue("skin", "2")
	require.NoError(t, w.DispatchSpawn(e))

	st, err := w.SnapshotEntity(e)
	require.NoError(t, err)

	w2 := newTestWorld(t)
	restored, err := w2.RestoreEntity(st)
	require.NoError(t, err)
	assert.Equal(t, e.ID(), restored.ID())
	assert.Equal(t, "keep", restored.TargetName())
	assert.Equal(t, model.Vec(4, 5, 6), restored.Origin())
	assert.Len(t, restored.Outputs("OnUser2"), 1)
	assert.True(t, restored.IsSpawned())

	next, err := w2.CreateEntityByName("info_target")
	require.NoError(t, err)
	assert.Greater(t, next.ID(), restored.ID(), "restored ids are reserved")
}

func TestObjectIDGenerator_Counters(t *testing.T) {
	g := NewObjectIDGenerator()
	g.NextEntityID()
	g.NextEntityID()
	g.NextPlayerID()
	saved := g.Counters()
	assert.Equal(t, IDCounters{Entity: 2, Player: playerIDBase + 1}, saved)

	restored := NewObjectIDGenerator()
	restored.Reserve(1)
	restored.Restore(saved)
	assert.Equal(t, uint32(3), restored.NextEntityID())
	assert.Equal(t, playerIDBase+2, restored.NextPlayerID())

	// restoring never moves a counter backwards
	restored.Restore(IDCounters{})
	assert.Equal(t, uint32(4), restored.NextEntityID())
}
