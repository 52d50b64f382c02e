// Package physics is the point-mass integrator behind physically simulated
// entities. Collision detection lives in the world; this package only
// integrates velocity and decides when an object may sleep.
package physics

import (
	"math"

	"github.com/udisondev/portalgo/internal/model"
)

const (
	// Gravity in units/s².
	Gravity = 600.0

	// DefaultDragCoefficient is the per-second fraction of speed lost to air drag.
	DefaultDragCoefficient = 0.05

	// SleepSpeed is the speed under which an object counts as resting.
	SleepSpeed = 5.0

	// SleepDelay is how long an object must rest before it falls asleep.
	SleepDelay = 2.0

	// InfiniteInertia per axis disables rotation on that axis.
	InfiniteInertia = 1e29
)

// Object is a simulated body.
type Object struct {
	mass            float64
	gravity         bool
	drag            bool
	dragCoefficient float64
	linearDamping   float64
	angularDamping  float64
	inertia         model.Vector

	Velocity        model.Vector
	AngularVelocity model.Vector

	asleep   bool
	restTime float64
}

// New creates an awake object of the given mass with gravity and drag enabled.
func New(mass float64) *Object {
	o := &Object{
		gravity:         true,
		drag:            true,
		dragCoefficient: DefaultDragCoefficient,
		inertia:         model.Vec(1, 1, 1),
	}
	o.SetMass(mass)
	return o
}

// Mass returns the object's mass.
func (o *Object) Mass() float64 { return o.mass }

// SetMass sets the mass. Non-positive values are clamped to a tiny mass.
func (o *Object) SetMass(mass float64) {
	if mass <= 0 {
		mass = 1e-3
	}
	o.mass = mass
}

// EnableGravity toggles gravity.
func (o *Object) EnableGravity(on bool) { o.gravity = on }

// IsGravityEnabled reports whether gravity applies.
func (o *Object) IsGravityEnabled() bool { return o.gravity }

// EnableDrag toggles air drag.
func (o *Object) EnableDrag(on bool) { o.drag = on }

// IsDragEnabled reports whether air drag applies.
func (o *Object) IsDragEnabled() bool { return o.drag }

// SetDamping sets linear and angular damping (per-second fractions).
func (o *Object) SetDamping(linear, angular float64) {
	o.linearDamping = math.Max(0, linear)
	o.angularDamping = math.Max(0, angular)
}

// Damping returns linear and angular damping.
func (o *Object) Damping() (linear, angular float64) {
	return o.linearDamping, o.angularDamping
}

// SetInertia sets the rotational inertia per axis.
func (o *Object) SetInertia(inertia model.Vector) { o.inertia = inertia }

// Inertia returns the rotational inertia.
func (o *Object) Inertia() model.Vector { return o.inertia }

// ApplyImpulse changes velocity by impulse/mass and wakes the object.
func (o *Object) ApplyImpulse(impulse model.Vector) {
	o.Velocity = o.Velocity.Add(impulse.Scale(1 / o.mass))
	o.Wake()
}

// Wake cancels sleep and restarts the rest timer.
func (o *Object) Wake() {
	o.asleep = false
	o.restTime = 0
}

// IsAsleep reports whether the object is asleep.
func (o *Object) IsAsleep() bool { return o.asleep }

// Step integrates dt seconds and returns the displacement to apply.
// Asleep objects do not move.
func (o *Object) Step(dt float64) model.Vector {
	if o.asleep || dt <= 0 {
		return model.Vector{}
	}

	if o.gravity {
		o.Velocity.Z -= Gravity * dt
	}
	if o.drag {
		o.Velocity = o.Velocity.Scale(math.Max(0, 1-o.dragCoefficient*dt))
	}
	if o.linearDamping > 0 {
		o.Velocity = o.Velocity.Scale(math.Max(0, 1-o.linearDamping*dt))
	}
	if o.angularDamping > 0 {
		o.AngularVelocity = o.AngularVelocity.Scale(math.Max(0, 1-o.angularDamping*dt))
	}
	if o.inertia.X >= InfiniteInertia {
		o.AngularVelocity.X = 0
	}
	if o.inertia.Y >= InfiniteInertia {
		o.AngularVelocity.Y = 0
	}
	if o.inertia.Z >= InfiniteInertia {
		o.AngularVelocity.Z = 0
	}

	if o.Velocity.Length() < SleepSpeed && o.AngularVelocity.Length() < SleepSpeed {
		o.restTime += dt
		if o.restTime >= SleepDelay {
			o.asleep = true
			o.Velocity = model.Vector{}
			o.AngularVelocity = model.Vector{}
			return model.Vector{}
		}
	} else {
		o.restTime = 0
	}

	return o.Velocity.Scale(dt)
}
