package world

import (
	"encoding/json"
	"fmt"

	"github.com/udisondev/portalgo/internal/model"
)

// EntityState is the saved form of one entity.
type EntityState struct {
	ID             uint32              `json:"id"`
	Classname      string              `json:"classname"`
	TargetName     string              `json:"targetname,omitempty"`
	SpawnFlags     int                 `json:"spawnflags,omitempty"`
	Origin         model.Vector        `json:"origin"`
	Angles         model.Angle         `json:"angles"`
	Velocity       model.Vector        `json:"velocity"`
	Mins           model.Vector        `json:"mins"`
	Maxs           model.Vector        `json:"maxs"`
	Flags          Flags               `json:"flags"`
	MoveType       MoveType            `json:"movetype"`
	CollisionGroup CollisionGroup      `json:"collision_group"`
	Owner          Handle              `json:"owner"`
	ThinkAt        float64             `json:"think_at"`
	Thinking       bool                `json:"thinking"`
	Outputs        map[string][]string `json:"outputs,omitempty"`
	KeyValues      []KeyValue          `json:"keyvalues,omitempty"`
	Behavior       json.RawMessage     `json:"behavior,omitempty"`
}

// SnapshotEntity captures e for a save game.
func (w *World) SnapshotEntity(e *Entity) (EntityState, error) {
	st := EntityState{
		ID:             e.id,
		Classname:      e.classname,
		TargetName:     e.targetname,
		SpawnFlags:     e.spawnflags,
		Origin:         e.origin,
		Angles:         e.angles,
		Velocity:       e.velocity,
		Mins:           e.mins,
		Maxs:           e.maxs,
		Flags:          e.flags,
		MoveType:       e.moveType,
		CollisionGroup: e.collisionGroup,
		Owner:          e.owner,
		ThinkAt:        e.thinkAt,
		Thinking:       e.thinking,
		KeyValues:      e.RawKeyValues(),
	}
	for _, name := range e.OutputNames() {
		if st.Outputs == nil {
			st.Outputs = make(map[string][]string)
		}
		for _, o := range e.outputs[name] {
			st.Outputs[name] = append(st.Outputs[name], o.String())
		}
	}
	if s, ok := e.behavior.(Saver); ok {
		data, err := s.SaveState()
		if err != nil {
			return EntityState{}, fmt.Errorf("saving %s #%d: %w", e.classname, e.id, err)
		}
		st.Behavior = data
	}
	return st, nil
}

// IDCounters returns the ID generator position for a save game.
func (w *World) IDCounters() IDCounters {
	return w.ids.Counters()
}

// RestoreIDCounters resumes ID generation where a saved level left off.
// Call it before new entities are created.
func (w *World) RestoreIDCounters(c IDCounters) {
	w.ids.Restore(c)
}

// RestoreEntity recreates an entity from a save with its original ID so
// saved handles keep resolving. Spawn is not run again; precache is.
func (w *World) RestoreEntity(st EntityState) (*Entity, error) {
	w.ids.Reserve(st.ID)
	e, err := w.createWithID(st.ID, st.Classname)
	if err != nil {
		return nil, fmt.Errorf("restoring entity %d: %w", st.ID, err)
	}

	e.targetname = st.TargetName
	e.spawnflags = st.SpawnFlags
	e.origin = st.Origin
	e.angles = st.Angles
	e.velocity = st.Velocity
	e.mins = st.Mins
	e.maxs = st.Maxs
	e.flags = st.Flags &^ FlagRemoved
	e.moveType = st.MoveType
	e.collisionGroup = st.CollisionGroup
	e.owner = st.Owner
	e.thinkAt = st.ThinkAt
	e.thinking = st.Thinking
	e.extra = append(e.extra, st.KeyValues...)
	if e.IsTrigger() {
		e.touching = make(map[uint32]*Entity)
	}
	for name, conns := range st.Outputs {
		for _, c := range conns {
			out, err := model.ParseOutput(c)
			if err != nil {
				return nil, fmt.Errorf("restoring output %s of entity %d: %w", name, st.ID, err)
			}
			e.AddOutput(name, out)
		}
	}

	if p, ok := e.behavior.(Precacher); ok {
		if err := p.Precache(w, e); err != nil {
			return nil, fmt.Errorf("precaching restored %s #%d: %w", e.classname, e.id, err)
		}
	}
	if s, ok := e.behavior.(Saver); ok && len(st.Behavior) > 0 {
		if err := s.RestoreState(st.Behavior); err != nil {
			return nil, fmt.Errorf("restoring %s #%d: %w", e.classname, e.id, err)
		}
	}
	if r, ok := e.behavior.(Restorer); ok {
		r.OnRestore(w, e)
	}
	return e, nil
}
