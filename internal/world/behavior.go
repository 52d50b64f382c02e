package world

import (
	"github.com/udisondev/portalgo/internal/model"
	"github.com/udisondev/portalgo/internal/physics"
)

// Behavior is the per-class strategy attached to an entity record.
// A behavior opts into engine callbacks by implementing the capability
// interfaces below; the world checks for them with type assertions.
type Behavior any

// KeyValuer receives map/patch properties the entity record does not handle.
type KeyValuer interface {
	KeyValue(e *Entity, key, value string) bool
}

// Precacher registers the strings (models, sounds) the entity needs.
// Runs from DispatchSpawn before Spawn.
type Precacher interface {
	Precache(w *World, e *Entity) error
}

// Spawner finishes construction once all properties are applied.
type Spawner interface {
	Spawn(w *World, e *Entity) error
}

// Activator runs once every entity of the same load pass has spawned.
type Activator interface {
	Activate(w *World, e *Entity)
}

// Thinker runs when the entity's think time comes due.
type Thinker interface {
	Think(w *World, e *Entity)
}

// InputAcceptor handles named inputs delivered through entity I/O.
type InputAcceptor interface {
	AcceptInput(w *World, e *Entity, input string, activator *Entity, param string) bool
}

// Toucher is notified when a trigger volume starts or stops overlapping.
type Toucher interface {
	StartTouch(w *World, e, other *Entity)
	EndTouch(w *World, e, other *Entity)
}

// Physical exposes the physics object that moves the entity.
type Physical interface {
	PhysicsObject() *physics.Object
}

// Collider handles sweep collisions. Without it the world applies a
// default damped bounce.
type Collider interface {
	OnCollision(w *World, e *Entity, ev CollisionEvent)
}

// EventNotifiee receives engine system events such as teleports.
type EventNotifiee interface {
	NotifySystemEvent(w *World, e *Entity, ev SystemEvent)
}

// Saver persists behavior state across save/load.
type Saver interface {
	SaveState() ([]byte, error)
	RestoreState(data []byte) error
}

// Restorer re-registers engine-side state (trigger lists, caches) after an
// entity came back from a save.
type Restorer interface {
	OnRestore(w *World, e *Entity)
}

// Remover runs when the entity is removed from the world.
type Remover interface {
	OnRemove(w *World, e *Entity)
}

// CollisionEvent describes a sweep that stopped against geometry or a
// solid entity.
type CollisionEvent struct {
	Normal      model.Vector
	Position    model.Vector
	PreVelocity model.Vector
	Other       *Entity // nil for world geometry
}

// SystemEventType enumerates engine notifications.
type SystemEventType int

const (
	// EventTeleport is sent after an entity was moved through a portal.
	EventTeleport SystemEventType = iota
)

// SystemEvent is an engine notification delivered to an entity.
type SystemEvent struct {
	Type   SystemEventType
	Source *Entity
}

// BehaviorOf returns e's behavior as T.
func BehaviorOf[T any](e *Entity) (T, bool) {
	var zero T
	if e == nil {
		return zero, false
	}
	b, ok := e.behavior.(T)
	return b, ok
}
