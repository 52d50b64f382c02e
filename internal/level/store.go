package level

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/udisondev/portalgo/internal/world"
)

// ErrSaveNotFound is returned for an unknown save slot.
var ErrSaveNotFound = errors.New("save not found")

// SaveGame is a complete snapshot of a level.
type SaveGame struct {
	ID        uuid.UUID
	Name      string
	Map       string
	Time      float64
	CreatedAt time.Time
	Entities  []world.EntityState
	// IDs is the entity ID generator position, so IDs of entities
	// removed before the save are never handed out again.
	IDs world.IDCounters
	// Systems holds the state of every game system implementing
	// SystemSaver, keyed by system name.
	Systems map[string][]byte
}

// SlotInfo describes a save without its contents.
type SlotInfo struct {
	ID        uuid.UUID
	Name      string
	Map       string
	Time      float64
	CreatedAt time.Time
}

// SaveStore persists save games.
type SaveStore interface {
	SaveGame(ctx context.Context, sg *SaveGame) error
	LoadGame(ctx context.Context, id uuid.UUID) (*SaveGame, error)
	ListSlots(ctx context.Context) ([]SlotInfo, error)
	DeleteSlot(ctx context.Context, id uuid.UUID) error
}

// MemoryStore keeps saves in memory.
type MemoryStore struct {
	mu    sync.RWMutex
	saves map[uuid.UUID]*SaveGame
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{saves: make(map[uuid.UUID]*SaveGame)}
}

// SaveGame stores a copy of sg, replacing any save with the same id.
func (s *MemoryStore) SaveGame(ctx context.Context, sg *SaveGame) error {
	if sg.ID == uuid.Nil {
		return fmt.Errorf("saving %q: empty slot id", sg.Name)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *sg
	s.saves[sg.ID] = &cp
	return nil
}

// LoadGame returns a copy of the save.
func (s *MemoryStore) LoadGame(ctx context.Context, id uuid.UUID) (*SaveGame, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sg, ok := s.saves[id]
	if !ok {
		return nil, fmt.Errorf("slot %s: %w", id, ErrSaveNotFound)
	}
	cp := *sg
	return &cp, nil
}

// ListSlots returns every save, newest first.
func (s *MemoryStore) ListSlots(ctx context.Context) ([]SlotInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]SlotInfo, 0, len(s.saves))
	for _, sg := range s.saves {
		out = append(out, SlotInfo{ID: sg.ID, Name: sg.Name, Map: sg.Map, Time: sg.Time, CreatedAt: sg.CreatedAt})
	}
	slices.SortFunc(out, func(a, b SlotInfo) int { return b.CreatedAt.Compare(a.CreatedAt) })
	return out, nil
}

// DeleteSlot removes a save.
func (s *MemoryStore) DeleteSlot(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.saves[id]; !ok {
		return fmt.Errorf("slot %s: %w", id, ErrSaveNotFound)
	}
	delete(s.saves, id)
	return nil
}
