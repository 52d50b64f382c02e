package world

import (
	"log/slog"
	"slices"
	"strconv"
	"strings"

	"github.com/udisondev/portalgo/internal/model"
)

// Flags are entity record state bits.
type Flags uint32

const (
	FlagSpawned Flags = 1 << iota
	FlagActivated
	FlagRemoved
	FlagSolid
	FlagTrigger
)

// MoveType selects how the world moves an entity each frame.
type MoveType int

const (
	MoveNone MoveType = iota
	// MoveFly moves by the record's own velocity, without gravity.
	MoveFly
	// MovePhysics moves by the behavior's physics object.
	MovePhysics
)

// CollisionGroup filters which entities collide.
type CollisionGroup int

const (
	CollisionGroupNone CollisionGroup = iota
	CollisionGroupPlayer
	CollisionGroupProjectile
	CollisionGroupDebris
)

// KeyValue is one raw property kept in file order.
type KeyValue struct {
	Key   string
	Value string
}

// Entity is the engine-side record of a game object. Class-specific state
// and callbacks live in its Behavior.
type Entity struct {
	id         uint32
	classname  string
	targetname string
	spawnflags int

	origin   model.Vector
	angles   model.Angle
	velocity model.Vector
	mins     model.Vector
	maxs     model.Vector

	flags          Flags
	moveType       MoveType
	collisionGroup CollisionGroup
	owner          Handle

	thinkAt  float64
	thinking bool

	outputs  map[string][]*model.Output
	extra    []KeyValue
	behavior Behavior

	// touching holds the entities overlapping this trigger, by ID.
	touching map[uint32]*Entity
}

func newEntity(id uint32, classname string, b Behavior) *Entity {
	return &Entity{
		id:        id,
		classname: classname,
		behavior:  b,
		outputs:   make(map[string][]*model.Output),
	}
}

// ID returns the entity ID.
func (e *Entity) ID() uint32 { return e.id }

// Handle returns a weak handle to e.
func (e *Entity) Handle() Handle { return Handle{id: e.id} }

// Classname returns the entity class.
func (e *Entity) Classname() string { return e.classname }

// TargetName returns the name used by entity I/O.
func (e *Entity) TargetName() string { return e.targetname }

// SetTargetName sets the I/O name.
func (e *Entity) SetTargetName(name string) { e.targetname = name }

// SpawnFlags returns the spawnflags bitfield.
func (e *Entity) SpawnFlags() int { return e.spawnflags }

// HasSpawnFlag reports whether all bits of flag are set.
func (e *Entity) HasSpawnFlag(flag int) bool { return e.spawnflags&flag == flag }

// Behavior returns the class behavior.
func (e *Entity) Behavior() Behavior { return e.behavior }

// Origin returns the absolute origin.
func (e *Entity) Origin() model.Vector { return e.origin }

// SetOrigin sets the absolute origin.
func (e *Entity) SetOrigin(v model.Vector) { e.origin = v }

// Angles returns the absolute angles.
func (e *Entity) Angles() model.Angle { return e.angles }

// SetAngles sets the absolute angles.
func (e *Entity) SetAngles(a model.Angle) { e.angles = a }

// Velocity returns the physics object's velocity for physical entities and
// the record's velocity otherwise.
func (e *Entity) Velocity() model.Vector {
	if p, ok := e.behavior.(Physical); ok && e.moveType == MovePhysics {
		if obj := p.PhysicsObject(); obj != nil {
			return obj.Velocity
		}
	}
	return e.velocity
}

// SetVelocity sets the velocity, waking the physics object if there is one.
func (e *Entity) SetVelocity(v model.Vector) {
	if p, ok := e.behavior.(Physical); ok && e.moveType == MovePhysics {
		if obj := p.PhysicsObject(); obj != nil {
			obj.Velocity = v
			obj.Wake()
			return
		}
	}
	e.velocity = v
}

// Bounds returns the collision box relative to the origin.
func (e *Entity) Bounds() (mins, maxs model.Vector) { return e.mins, e.maxs }

// SetBounds sets the collision box relative to the origin.
func (e *Entity) SetBounds(mins, maxs model.Vector) {
	e.mins = mins
	e.maxs = maxs
}

// AbsBox returns the collision box in world space.
func (e *Entity) AbsBox() (mins, maxs model.Vector) {
	return e.origin.Add(e.mins), e.origin.Add(e.maxs)
}

// MoveType returns how the world moves e.
func (e *Entity) MoveType() MoveType { return e.moveType }

// SetMoveType sets how the world moves e.
func (e *Entity) SetMoveType(mt MoveType) { e.moveType = mt }

// CollisionGroup returns the collision group.
func (e *Entity) CollisionGroup() CollisionGroup { return e.collisionGroup }

// SetCollisionGroup sets the collision group.
func (e *Entity) SetCollisionGroup(g CollisionGroup) { e.collisionGroup = g }

// Owner returns the owning entity handle.
func (e *Entity) Owner() Handle { return e.owner }

// SetOwner sets the owning entity handle.
func (e *Entity) SetOwner(h Handle) { e.owner = h }

// IsSolid reports whether traces and sweeps stop at e.
func (e *Entity) IsSolid() bool { return e.flags&FlagSolid != 0 }

// SetSolid toggles solidity.
func (e *Entity) SetSolid(solid bool) { e.setFlag(FlagSolid, solid) }

// IsTrigger reports whether e tracks touching entities.
func (e *Entity) IsTrigger() bool { return e.flags&FlagTrigger != 0 }

// SetTrigger makes e a touch volume.
func (e *Entity) SetTrigger(trigger bool) {
	e.setFlag(FlagTrigger, trigger)
	if trigger && e.touching == nil {
		e.touching = make(map[uint32]*Entity)
	}
}

// IsTouching reports whether other currently overlaps trigger e.
func (e *Entity) IsTouching(other *Entity) bool {
	if other == nil || e.touching == nil {
		return false
	}
	_, ok := e.touching[other.id]
	return ok
}

// IsSpawned reports whether DispatchSpawn completed.
func (e *Entity) IsSpawned() bool { return e.flags&FlagSpawned != 0 }

// IsActivated reports whether Activate ran.
func (e *Entity) IsActivated() bool { return e.flags&FlagActivated != 0 }

// IsRemoved reports whether the entity was removed from the world.
func (e *Entity) IsRemoved() bool { return e.flags&FlagRemoved != 0 }

// SetNextThink schedules the next think at simulation time t.
func (e *Entity) SetNextThink(t float64) {
	e.thinkAt = t
	e.thinking = true
}

// ClearThink cancels the scheduled think.
func (e *Entity) ClearThink() { e.thinking = false }

// NextThink returns the scheduled think time and whether one is scheduled.
func (e *Entity) NextThink() (float64, bool) { return e.thinkAt, e.thinking }

func (e *Entity) setFlag(f Flags, on bool) {
	if on {
		e.flags |= f
	} else {
		e.flags &^= f
	}
}

// KeyValue applies one map or patch property. Built-in keys are handled by
// the record, then the behavior gets a chance, then keys starting with "On"
// become output connections. Anything left is kept as a raw property.
// Returns false when nothing recognized the key.
func (e *Entity) KeyValue(key, value string) bool {
	switch strings.ToLower(key) {
	case "classname":
		e.classname = value
		return true
	case "targetname":
		e.targetname = value
		return true
	case "origin":
		v, err := model.ParseVector(value)
		if err != nil {
			slog.Warn("bad origin keyvalue", "entity", e.id, "classname", e.classname, "error", err)
			return false
		}
		e.origin = v
		return true
	case "angles":
		a, err := model.ParseAngle(value)
		if err != nil {
			slog.Warn("bad angles keyvalue", "entity", e.id, "classname", e.classname, "error", err)
			return false
		}
		e.angles = a
		return true
	case "spawnflags":
		n, err := strconv.Atoi(value)
		if err != nil {
			slog.Warn("bad spawnflags keyvalue", "entity", e.id, "classname", e.classname, "error", err)
			return false
		}
		e.spawnflags = n
		return true
	case "mins", "maxs":
		v, err := model.ParseVector(value)
		if err != nil {
			slog.Warn("bad bounds keyvalue", "entity", e.id, "key", key, "error", err)
			return false
		}
		if strings.EqualFold(key, "mins") {
			e.mins = v
		} else {
			e.maxs = v
		}
		return true
	}

	if kv, ok := e.behavior.(KeyValuer); ok && kv.KeyValue(e, key, value) {
		return true
	}

	if len(key) > 2 && strings.EqualFold(key[:2], "on") {
		out, err := model.ParseOutput(value)
		if err != nil {
			slog.Warn("bad output connection", "entity", e.id, "output", key, "error", err)
			return false
		}
		e.AddOutput(key, out)
		return true
	}

	e.extra = append(e.extra, KeyValue{Key: key, Value: value})
	return false
}

// RawKeyValues returns properties nothing recognized, in the order applied.
func (e *Entity) RawKeyValues() []KeyValue {
	return slices.Clone(e.extra)
}

// RawKeyValue returns the last raw property with the given key.
func (e *Entity) RawKeyValue(key string) (string, bool) {
	for i := len(e.extra) - 1; i >= 0; i-- {
		if strings.EqualFold(e.extra[i].Key, key) {
			return e.extra[i].Value, true
		}
	}
	return "", false
}

// AddOutput appends a connection to the named output.
func (e *Entity) AddOutput(name string, out model.Output) {
	key := strings.ToLower(name)
	o := out
	e.outputs[key] = append(e.outputs[key], &o)
}

// Outputs returns a copy of the connections of the named output.
func (e *Entity) Outputs(name string) []model.Output {
	conns := e.outputs[strings.ToLower(name)]
	out := make([]model.Output, 0, len(conns))
	for _, c := range conns {
		out = append(out, *c)
	}
	return out
}

// OutputNames returns the names of all outputs with connections, sorted.
func (e *Entity) OutputNames() []string {
	names := make([]string, 0, len(e.outputs))
	for name, conns := range e.outputs {
		if len(conns) > 0 {
			names = append(names, name)
		}
	}
	slices.Sort(names)
	return names
}
