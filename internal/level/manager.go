package level

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/udisondev/portalgo/internal/world"
)

// ErrNoLevel is returned when an operation needs a loaded level.
var ErrNoLevel = errors.New("no level loaded")

// Options configures a Manager.
type Options struct {
	FS      fs.FS
	Factory *world.Factory
	Store   SaveStore
	// Seed seeds the gameplay random source of every level.
	Seed uint64
}

// Manager owns the running level and its game systems. All methods are
// safe to call from the frame loop and the autosave loop at once.
type Manager struct {
	mu      sync.Mutex
	opts    Options
	systems []GameSystem
	world   *world.World
}

// NewManager creates a level manager.
func NewManager(opts Options) *Manager {
	if opts.Factory == nil {
		opts.Factory = world.NewFactory()
	}
	if opts.Store == nil {
		opts.Store = NewMemoryStore()
	}
	return &Manager{opts: opts}
}

// AddSystem registers a game system. Systems are called in registration
// order, and in reverse order on shutdown.
func (m *Manager) AddSystem(s GameSystem) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.systems = append(m.systems, s)
	slog.Debug("game system registered", "system", s.Name())
}

// World returns the running world, or nil before the first load.
func (m *Manager) World() *world.World {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.world
}

// LoadLevel shuts down the current level and enters mapName. With
// world.LoadGame the entities come from save slot; mapName may then be
// empty to use the saved map.
func (m *Manager) LoadLevel(ctx context.Context, mapName string, lt world.LoadType, slot uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	var save *SaveGame
	if lt == world.LoadGame {
		sg, err := m.opts.Store.LoadGame(ctx, slot)
		if err != nil {
			return fmt.Errorf("loading save %s: %w", slot, err)
		}
		if mapName == "" {
			mapName = sg.Map
		}
		if mapName != sg.Map {
			return fmt.Errorf("save %s is for map %q, not %q", slot, sg.Map, mapName)
		}
		save = sg
	}

	mf, err := LoadMapFile(m.opts.FS, mapName)
	if err != nil {
		return fmt.Errorf("loading level %q: %w", mapName, err)
	}

	m.shutdownLocked()

	start := 0.0
	if save != nil {
		start = save.Time
	}
	w := world.New(world.Options{
		MapName:   mapName,
		LoadType:  lt,
		FS:        m.opts.FS,
		Random:    world.NewRandom(m.opts.Seed),
		Factory:   m.opts.Factory,
		StartTime: start,
		Bounds:    mf.Bounds,
		Brushes:   mf.Brushes,
	})

	for _, s := range m.systems {
		s.LevelInitPreEntity(w)
	}

	for _, classname := range m.opts.Factory.PrecacheClasses() {
		if err := w.PrecacheOther(classname); err != nil {
			slog.Warn("level precache failed", "classname", classname, "error", err)
		}
	}

	if save != nil {
		if err := m.restore(w, save); err != nil {
			for i := len(m.systems) - 1; i >= 0; i-- {
				m.systems[i].LevelShutdown(w)
			}
			return fmt.Errorf("restoring level %q: %w", mapName, err)
		}
	} else {
		spawnMapEntities(w, mf)
	}

	w.StringTables().Lock(true)
	m.world = w

	for _, s := range m.systems {
		s.LevelInitPostEntity(w)
	}

	slog.Info("level loaded",
		"map", mapName,
		"loadType", lt.String(),
		"entities", w.Count())
	return nil
}

// spawnMapEntities creates, configures and spawns every map entity, then
// activates them in creation order.
func spawnMapEntities(w *world.World, mf *MapFile) {
	spawned := make([]*world.Entity, 0, len(mf.Entities))
	for _, def := range mf.Entities {
		e, err := w.CreateEntityByName(def.Classname)
		if err != nil {
			slog.Warn("map entity skipped", "classname", def.Classname, "line", def.Line, "error", err)
			continue
		}
		for _, kv := range def.KeyValues {
			e.KeyValue(kv.Key, kv.Value)
		}
		if err := w.DispatchSpawn(e); err != nil {
			slog.Warn("map entity failed to spawn", "classname", def.Classname, "line", def.Line, "error", err)
			w.Remove(e)
			continue
		}
		spawned = append(spawned, e)
	}
	for _, e := range spawned {
		w.Activate(e)
	}
}

func (m *Manager) restore(w *world.World, save *SaveGame) error {
	w.RestoreIDCounters(save.IDs)
	for _, st := range save.Entities {
		if _, err := w.RestoreEntity(st); err != nil {
			return err
		}
	}
	for _, s := range m.systems {
		ss, ok := s.(SystemSaver)
		if !ok {
			continue
		}
		data, ok := save.Systems[s.Name()]
		if !ok {
			continue
		}
		if err := ss.RestoreSystem(w, data); err != nil {
			return fmt.Errorf("system %s: %w", s.Name(), err)
		}
	}
	return nil
}

// Frame advances the level by dt seconds.
func (m *Manager) Frame(dt float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.world == nil {
		return
	}
	m.world.Frame(dt)
	for _, s := range m.systems {
		s.FrameUpdate(m.world)
	}
}

// Save writes the running level to the store and returns the new slot id.
func (m *Manager) Save(ctx context.Context, name string) (uuid.UUID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.world == nil {
		return uuid.Nil, ErrNoLevel
	}
	w := m.world

	sg := &SaveGame{
		ID:        uuid.New(),
		Name:      name,
		Map:       w.MapName(),
		Time:      w.Now(),
		CreatedAt: time.Now(),
		IDs:       w.IDCounters(),
		Systems:   make(map[string][]byte),
	}
	for _, e := range w.Entities() {
		st, err := w.SnapshotEntity(e)
		if err != nil {
			return uuid.Nil, fmt.Errorf("saving level %q: %w", w.MapName(), err)
		}
		sg.Entities = append(sg.Entities, st)
	}
	for _, s := range m.systems {
		ss, ok := s.(SystemSaver)
		if !ok {
			continue
		}
		data, err := ss.SaveSystem(w)
		if err != nil {
			return uuid.Nil, fmt.Errorf("saving system %s: %w", s.Name(), err)
		}
		sg.Systems[s.Name()] = data
	}

	if err := m.opts.Store.SaveGame(ctx, sg); err != nil {
		return uuid.Nil, fmt.Errorf("storing save %q: %w", name, err)
	}
	slog.Info("game saved", "slot", sg.ID, "name", name, "map", sg.Map, "entities", len(sg.Entities))
	return sg.ID, nil
}

// Shutdown ends the running level.
func (m *Manager) Shutdown() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.shutdownLocked()
}

func (m *Manager) shutdownLocked() {
	if m.world == nil {
		return
	}
	for i := len(m.systems) - 1; i >= 0; i-- {
		m.systems[i].LevelShutdown(m.world)
	}
	slog.Info("level shut down", "map", m.world.MapName())
	m.world = nil
}
