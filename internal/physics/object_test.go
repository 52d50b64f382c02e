package physics

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/udisondev/portalgo/internal/model"
)

func TestObject_GravityAndDrag(t *testing.T) {
	o := New(10)
	o.Velocity = model.Vec(100, 0, 0)

	d := o.Step(0.1)
	assert.Less(t, o.Velocity.Z, 0.0, "gravity pulls down")
	assert.Less(t, o.Velocity.X, 100.0, "drag slows")
	assert.InDelta(t, o.Velocity.X*0.1, d.X, 1e-9)
}

func TestObject_NoDragNoDamping(t *testing.T) {
	o := New(1)
	o.EnableGravity(false)
	o.EnableDrag(false)
	o.SetDamping(0, 0)
	o.Velocity = model.Vec(400, 0, 0)

	for range 100 {
		o.Step(0.1)
	}
	assert.Equal(t, 400.0, o.Velocity.X)
	assert.False(t, o.IsAsleep())
}

func TestObject_InfiniteInertiaStopsSpin(t *testing.T) {
	o := New(1)
	o.SetInertia(model.Vec(1e30, 1e30, 1e30))
	o.AngularVelocity = model.Vec(10, 20, 30)
	o.Velocity = model.Vec(100, 0, 0)

	o.Step(0.01)
	assert.True(t, o.AngularVelocity.IsZero())
}

func TestObject_SleepAndWake(t *testing.T) {
	o := New(1)
	o.EnableGravity(false)

	for range 25 {
		o.Step(0.1)
	}
	assert.True(t, o.IsAsleep())
	assert.True(t, o.Step(0.1).IsZero())

	o.ApplyImpulse(model.Vec(0, 50, 0))
	assert.False(t, o.IsAsleep())
	assert.InDelta(t, 50.0, o.Velocity.Y, 1e-9)
}
