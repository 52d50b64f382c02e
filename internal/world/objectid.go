package world

import "sync/atomic"

// ObjectIDGenerator generates unique IDs for all world entities.
// IDs are never reused during a level, so a stale Handle can not resolve to
// a newer entity.
//
// ID ranges (convention):
//
//	0x00000000:              invalid (zero Handle)
//	0x00000001 - 0x0FFFFFFF: map, patch and runtime entities
//	0x10000000 - 0x1FFFFFFF: players
type ObjectIDGenerator struct {
	nextEntityID atomic.Uint32
	nextPlayerID atomic.Uint32
}

const (
	entityIDBase uint32 = 0x00000000
	playerIDBase uint32 = 0x10000000
	playerIDMax  uint32 = 0x1FFFFFFF
)

// NewObjectIDGenerator creates a new ID generator.
func NewObjectIDGenerator() *ObjectIDGenerator {
	gen := &ObjectIDGenerator{}
	gen.nextEntityID.Store(entityIDBase)
	gen.nextPlayerID.Store(playerIDBase)
	return gen
}

// NextEntityID returns the next entity ID.
func (g *ObjectIDGenerator) NextEntityID() uint32 {
	return g.nextEntityID.Add(1)
}

// NextPlayerID returns the next player ID.
func (g *ObjectIDGenerator) NextPlayerID() uint32 {
	return g.nextPlayerID.Add(1)
}

// Reserve moves the matching counter past id. Used when entities are
// restored from a save with their original IDs.
func (g *ObjectIDGenerator) Reserve(id uint32) {
	if IsPlayerID(id) {
		advance(&g.nextPlayerID, id)
		return
	}
	advance(&g.nextEntityID, id)
}

// IDCounters is the saved position of an ObjectIDGenerator. Each field is
// the last ID handed out in its range.
type IDCounters struct {
	Entity uint32 `json:"entity"`
	Player uint32 `json:"player"`
}

// Counters returns the current position of both ranges.
func (g *ObjectIDGenerator) Counters() IDCounters {
	return IDCounters{
		Entity: g.nextEntityID.Load(),
		Player: g.nextPlayerID.Load(),
	}
}

// Restore moves both counters forward to c. IDs of entities removed before
// a save stay retired after the load.
func (g *ObjectIDGenerator) Restore(c IDCounters) {
	advance(&g.nextEntityID, c.Entity)
	advance(&g.nextPlayerID, c.Player)
}

func advance(counter *atomic.Uint32, id uint32) {
	for {
		cur := counter.Load()
		if cur >= id || counter.CompareAndSwap(cur, id) {
			return
		}
	}
}

// IsPlayerID reports whether id lies in the player range.
func IsPlayerID(id uint32) bool {
	return id > playerIDBase && id <= playerIDMax
}
