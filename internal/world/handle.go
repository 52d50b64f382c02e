package world

import (
	"encoding/json"
	"fmt"
)

// Handle is a weak reference to an entity. It never keeps the entity alive:
// once the entity is removed, World.Resolve reports it as absent.
// The zero Handle is invalid.
type Handle struct {
	id uint32
}

// HandleFromID builds a handle for an entity ID.
func HandleFromID(id uint32) Handle {
	return Handle{id: id}
}

// ID returns the referenced entity ID (0 for the zero handle).
func (h Handle) ID() uint32 { return h.id }

// IsZero reports whether the handle was never set.
func (h Handle) IsZero() bool { return h.id == 0 }

func (h Handle) String() string {
	return fmt.Sprintf("#%d", h.id)
}

// MarshalJSON stores the handle as its entity ID.
func (h Handle) MarshalJSON() ([]byte, error) {
	return json.Marshal(h.id)
}

// UnmarshalJSON restores a handle saved by MarshalJSON.
func (h *Handle) UnmarshalJSON(data []byte) error {
	return json.Unmarshal(data, &h.id)
}
