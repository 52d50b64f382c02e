package world

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"strings"

	"github.com/udisondev/portalgo/internal/model"
)

// PlayerClassname is the class whose entities take IDs from the player range.
const PlayerClassname = "player"

// DefaultBounds is the half-extent of the playable space. Entities that
// leave it are removed.
const DefaultBounds = 16384.0

var (
	// ErrUnknownClass is returned by CreateEntityByName for unregistered classes.
	ErrUnknownClass = errors.New("unknown entity class")

	// ErrEntityNotFound is returned when an entity ID does not resolve.
	ErrEntityNotFound = errors.New("entity not found")
)

// LoadType tells level hooks how the level is being entered.
type LoadType int

const (
	// LoadNewMap is a fresh map load.
	LoadNewMap LoadType = iota
	// LoadGame restores a saved game; map entities come from the save.
	LoadGame
	// LoadTransition is a level change that keeps the session.
	LoadTransition
)

func (t LoadType) String() string {
	switch t {
	case LoadNewMap:
		return "new_map"
	case LoadGame:
		return "load_game"
	case LoadTransition:
		return "transition"
	default:
		return fmt.Sprintf("load_type(%d)", int(t))
	}
}

// Brush is a static axis-aligned solid of the map geometry.
type Brush struct {
	Mins model.Vector
	Maxs model.Vector
}

// Options configures a World. Every engine service is passed in here
// rather than reached through globals.
type Options struct {
	MapName   string
	LoadType  LoadType
	FS        fs.FS
	Random    Random
	Factory   *Factory
	StartTime float64
	Bounds    float64
	Brushes   []Brush
}

// World owns every entity of the running level, keyed by ID. All other code
// refers to entities through Handles.
type World struct {
	mapName  string
	loadType LoadType
	fsys     fs.FS
	rng      Random
	factory  *Factory
	bounds   float64
	brushes  []Brush

	clock   Clock
	ids     *ObjectIDGenerator
	strings *StringTables
	events  eventQueue

	entities map[uint32]*Entity
	order    []*Entity // creation order, compacted at the end of each frame

	weaponFireTriggers []Handle
	grid               touchGrid
}

// New creates an empty world.
func New(opts Options) *World {
	w := &World{
		mapName:  opts.MapName,
		loadType: opts.LoadType,
		fsys:     opts.FS,
		rng:      opts.Random,
		factory:  opts.Factory,
		bounds:   opts.Bounds,
		brushes:  opts.Brushes,
		ids:      NewObjectIDGenerator(),
		strings:  NewStringTables(),
		entities: make(map[uint32]*Entity),
		grid:     newTouchGrid(),
	}
	if w.rng == nil {
		w.rng = NewRandom(1)
	}
	if w.factory == nil {
		w.factory = NewFactory()
	}
	if w.bounds <= 0 {
		w.bounds = DefaultBounds
	}
	w.clock.now = opts.StartTime
	return w
}

// MapName returns the current map name.
func (w *World) MapName() string { return w.mapName }

// LoadType returns how the level was entered.
func (w *World) LoadType() LoadType { return w.loadType }

// FS returns the game filesystem.
func (w *World) FS() fs.FS { return w.fsys }

// Random returns the gameplay random source.
func (w *World) Random() Random { return w.rng }

// Factory returns the entity factory.
func (w *World) Factory() *Factory { return w.factory }

// Clock returns the simulation clock.
func (w *World) Clock() *Clock { return &w.clock }

// Now returns the current simulation time.
func (w *World) Now() float64 { return w.clock.now }

// StringTables returns the networked string tables.
func (w *World) StringTables() *StringTables { return w.strings }

// Brushes returns the static geometry.
func (w *World) Brushes() []Brush { return w.brushes }

// CreateEntityByName constructs an unspawned entity of the given class.
func (w *World) CreateEntityByName(classname string) (*Entity, error) {
	var id uint32
	if strings.EqualFold(classname, PlayerClassname) {
		id = w.ids.NextPlayerID()
	} else {
		id = w.ids.NextEntityID()
	}
	return w.createWithID(id, classname)
}

func (w *World) createWithID(id uint32, classname string) (*Entity, error) {
	b, ok := w.factory.create(classname)
	if !ok {
		return nil, fmt.Errorf("creating %q: %w", classname, ErrUnknownClass)
	}
	if _, dup := w.entities[id]; dup {
		return nil, fmt.Errorf("creating %q: entity id %d already in use", classname, id)
	}
	e := newEntity(id, classname, b)
	w.entities[id] = e
	w.order = append(w.order, e)
	return e, nil
}

// DispatchSpawn precaches and spawns e. On error the entity stays in the
// world unspawned; callers decide whether to remove it.
func (w *World) DispatchSpawn(e *Entity) error {
	if p, ok := e.behavior.(Precacher); ok {
		if err := p.Precache(w, e); err != nil {
			return fmt.Errorf("precaching %s #%d: %w", e.classname, e.id, err)
		}
	}
	if s, ok := e.behavior.(Spawner); ok {
		if err := s.Spawn(w, e); err != nil {
			return fmt.Errorf("spawning %s #%d: %w", e.classname, e.id, err)
		}
	}
	e.flags |= FlagSpawned
	slog.Debug("entity spawned", "id", e.id, "classname", e.classname, "targetname", e.targetname)
	return nil
}

// Activate runs the entity's activation once.
func (w *World) Activate(e *Entity) {
	if e.IsActivated() || e.IsRemoved() {
		return
	}
	e.flags |= FlagActivated
	if a, ok := e.behavior.(Activator); ok {
		a.Activate(w, e)
	}
}

// Remove takes e out of the world. Handles to it stop resolving at once;
// the record is dropped from iteration at the end of the frame.
func (w *World) Remove(e *Entity) {
	if e == nil || e.IsRemoved() {
		return
	}
	e.flags |= FlagRemoved
	e.thinking = false
	delete(w.entities, e.id)
	for id, other := range e.touching {
		delete(e.touching, id)
		w.endTouch(e, other)
	}
	if r, ok := e.behavior.(Remover); ok {
		r.OnRemove(w, e)
	}
	slog.Debug("entity removed", "id", e.id, "classname", e.classname)
}

// Resolve returns the live entity behind h.
func (w *World) Resolve(h Handle) (*Entity, bool) {
	if h.IsZero() {
		return nil, false
	}
	e, ok := w.entities[h.id]
	return e, ok
}

// Entity returns the live entity with the given ID.
func (w *World) Entity(id uint32) (*Entity, error) {
	e, ok := w.entities[id]
	if !ok {
		return nil, fmt.Errorf("entity %d: %w", id, ErrEntityNotFound)
	}
	return e, nil
}

// Count returns the number of live entities.
func (w *World) Count() int { return len(w.entities) }

// Entities returns live entities in creation order.
func (w *World) Entities() []*Entity {
	out := make([]*Entity, 0, len(w.entities))
	for _, e := range w.order {
		if !e.IsRemoved() {
			out = append(out, e)
		}
	}
	return out
}

// FindByName returns live entities whose targetname matches, ignoring case.
func (w *World) FindByName(name string) []*Entity {
	var out []*Entity
	for _, e := range w.order {
		if !e.IsRemoved() && e.targetname != "" && strings.EqualFold(e.targetname, name) {
			out = append(out, e)
		}
	}
	return out
}

// FindByClassname returns live entities of the given class.
func (w *World) FindByClassname(classname string) []*Entity {
	var out []*Entity
	for _, e := range w.order {
		if !e.IsRemoved() && strings.EqualFold(e.classname, classname) {
			out = append(out, e)
		}
	}
	return out
}

// RegisterWeaponFireTrigger adds e to the triggers checked when a weapon fires.
func (w *World) RegisterWeaponFireTrigger(e *Entity) {
	w.weaponFireTriggers = append(w.weaponFireTriggers, e.Handle())
}

// WeaponFireTriggers returns the live weapon-fire triggers.
func (w *World) WeaponFireTriggers() []*Entity {
	out := make([]*Entity, 0, len(w.weaponFireTriggers))
	live := w.weaponFireTriggers[:0]
	for _, h := range w.weaponFireTriggers {
		if e, ok := w.Resolve(h); ok {
			out = append(out, e)
			live = append(live, h)
		}
	}
	w.weaponFireTriggers = live
	return out
}

// NotifySystemEvent delivers ev to e if its behavior listens for events.
func (w *World) NotifySystemEvent(e *Entity, ev SystemEvent) {
	if n, ok := e.behavior.(EventNotifiee); ok {
		n.NotifySystemEvent(w, e, ev)
	}
}

// PrecacheModel registers a model name in the model precache table.
func (w *World) PrecacheModel(name string) error {
	_, err := w.strings.AddString(TableModelPrecache, name)
	return err
}

// PrecacheOther runs the precache step of classname without creating an
// entity.
func (w *World) PrecacheOther(classname string) error {
	b, ok := w.factory.create(classname)
	if !ok {
		return fmt.Errorf("precaching %q: %w", classname, ErrUnknownClass)
	}
	if p, ok := b.(Precacher); ok {
		if err := p.Precache(w, nil); err != nil {
			return fmt.Errorf("precaching %q: %w", classname, err)
		}
	}
	return nil
}

// PrecacheSound registers a sound name in the sound precache table.
func (w *World) PrecacheSound(name string) error {
	_, err := w.strings.AddString(TableSoundPrecache, name)
	return err
}
