// Package patch spawns extra entities into a freshly loaded map from an
// optional per-map file, maps/<mapname>_patch.txt.
package patch

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"strings"

	"github.com/udisondev/portalgo/internal/keyvalues"
	"github.com/udisondev/portalgo/internal/world"
)

const (
	// FilePattern is the patch file path relative to the game filesystem.
	FilePattern = "maps/%s_patch.txt"

	// MaxValueLength bounds a property value, terminator included.
	MaxValueLength = 1024

	connectionsBlock = "connections"
)

// Path returns the patch file path for mapName.
func Path(mapName string) string {
	return fmt.Sprintf(FilePattern, mapName)
}

// Options configures the patch system.
type Options struct {
	// AllowPatches is read once per level, at pre-entity init.
	AllowPatches func() bool
	// DebugAssertions makes oversized values panic instead of being truncated.
	DebugAssertions bool
}

// Report describes one patch pass.
type Report struct {
	Path    string
	Found   bool
	Spawned []world.Handle
	// Failed lists the entity types that could not be created.
	Failed []string
}

// System is the level hook that applies patch files.
type System struct {
	opts Options

	enabled     bool
	spawned     []world.Handle
	fingerprint string
}

// NewSystem creates the patch system.
func NewSystem(opts Options) *System {
	if opts.AllowPatches == nil {
		opts.AllowPatches = func() bool { return true }
	}
	return &System{opts: opts}
}

// Name implements the level hook interface.
func (s *System) Name() string { return "patch" }

// Enabled reports whether patching is on for the current level.
func (s *System) Enabled() bool { return s.enabled }

// Spawned returns handles of the entities the last pass created.
func (s *System) Spawned() []world.Handle {
	out := make([]world.Handle, len(s.spawned))
	copy(out, s.spawned)
	return out
}

// LevelInitPreEntity freezes the allow-patches setting for the level.
func (s *System) LevelInitPreEntity(w *world.World) {
	s.enabled = s.opts.AllowPatches()
	s.spawned = nil
	s.fingerprint = ""
}

// LevelInitPostEntity applies the patch file of a fresh load. Saved games
// already contain the patched entities.
func (s *System) LevelInitPostEntity(w *world.World) {
	if !s.enabled {
		return
	}
	if w.LoadType() == world.LoadGame {
		return
	}
	rep := s.Apply(w)
	if rep.Found {
		slog.Info("map patched",
			"map", w.MapName(),
			"spawned", len(rep.Spawned),
			"failed", len(rep.Failed))
	}
}

// FrameUpdate does nothing; patching happens once per level.
func (s *System) FrameUpdate(w *world.World) {}

// LevelShutdown forgets the entities of the finished level.
func (s *System) LevelShutdown(w *world.World) {
	s.spawned = nil
}

// Apply reads the map's patch file and spawns its entities. Every block is
// created and configured first; activation runs afterwards in creation
// order. String tables are unlocked for the pass and restored to their
// previous state on return.
func (s *System) Apply(w *world.World) Report {
	tables := w.StringTables()
	oldLock := tables.Lock(false)
	defer tables.Lock(oldLock)

	rep := Report{Path: Path(w.MapName())}
	if w.FS() == nil {
		return rep
	}

	data, err := fs.ReadFile(w.FS(), rep.Path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			slog.Warn("patching: cannot read patch file", "path", rep.Path, "error", err)
		}
		return rep
	}
	root, err := keyvalues.ParseBytes(data)
	if err != nil {
		slog.Warn("patching: malformed patch file", "path", rep.Path, "error", err)
		return rep
	}
	rep.Found = true
	s.fingerprint = Fingerprint(data)

	if file := root.FirstBlock(); file != nil {
		for _, block := range file.Children {
			s.spawnBlock(w, block, &rep)
		}
	}

	for _, h := range rep.Spawned {
		if e, ok := w.Resolve(h); ok {
			w.Activate(e)
		}
	}
	return rep
}

func (s *System) spawnBlock(w *world.World, block *keyvalues.Node, rep *Report) {
	typ := block.Name
	if cn := block.FindKey("classname"); cn != nil {
		typ = cn.Value
	}

	e, err := w.CreateEntityByName(typ)
	if err != nil {
		slog.Warn("patching: failed to spawn entity", "type", typ, "line", block.Line())
		rep.Failed = append(rep.Failed, typ)
		return
	}

	s.applyKeyValues(e, block)

	if err := w.DispatchSpawn(e); err != nil {
		slog.Warn("patching: entity failed to spawn", "type", typ, "error", err)
		w.Remove(e)
		rep.Failed = append(rep.Failed, typ)
		return
	}
	s.spawned = append(s.spawned, e.Handle())
	rep.Spawned = append(rep.Spawned, e.Handle())
}

// applyKeyValues sets every property of block on e. A nested connections
// block is applied the same way. Carets in values become double quotes.
func (s *System) applyKeyValues(e *world.Entity, block *keyvalues.Node) {
	for _, kv := range block.Children {
		if kv.Name == connectionsBlock {
			s.applyKeyValues(e, kv)
			continue
		}
		if kv.IsBlock() || strings.EqualFold(kv.Name, "classname") {
			continue
		}
		e.KeyValue(kv.Name, s.value(e, kv))
	}
}

func (s *System) value(e *world.Entity, kv *keyvalues.Node) string {
	v := kv.Value
	if len(v) >= MaxValueLength {
		if s.opts.DebugAssertions {
			panic(fmt.Sprintf("patch value for %q on %s is %d bytes, limit %d", kv.Name, e.Classname(), len(v), MaxValueLength-1))
		}
		slog.Error("patching: value too long, truncating",
			"entity", e.Classname(),
			"key", kv.Name,
			"length", len(v),
			"line", kv.Line())
		v = v[:MaxValueLength-1]
	}
	if strings.Contains(v, "^") {
		v = strings.ReplaceAll(v, "^", `"`)
	}
	return v
}

type savedState struct {
	Spawned     []world.Handle `json:"spawned"`
	Fingerprint string         `json:"fingerprint,omitempty"`
}

// SaveSystem stores the spawned entity list and the patch file fingerprint.
func (s *System) SaveSystem(w *world.World) ([]byte, error) {
	data, err := json.Marshal(savedState{Spawned: s.spawned, Fingerprint: s.fingerprint})
	if err != nil {
		return nil, fmt.Errorf("saving patch state: %w", err)
	}
	return data, nil
}

// RestoreSystem loads the spawned entity list. A patch file that changed
// since the save is reported; its entities are not re-applied.
func (s *System) RestoreSystem(w *world.World, data []byte) error {
	var st savedState
	if err := json.Unmarshal(data, &st); err != nil {
		return fmt.Errorf("restoring patch state: %w", err)
	}
	s.spawned = st.Spawned
	s.fingerprint = st.Fingerprint

	if w.FS() == nil || st.Fingerprint == "" {
		return nil
	}
	cur, err := fs.ReadFile(w.FS(), Path(w.MapName()))
	if err != nil {
		slog.Warn("patch file removed since the game was saved", "map", w.MapName())
		return nil
	}
	if fp := Fingerprint(cur); fp != st.Fingerprint {
		slog.Warn("patch file changed since the game was saved",
			"map", w.MapName(),
			"saved", st.Fingerprint,
			"current", fp)
	}
	return nil
}
