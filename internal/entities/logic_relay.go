package entities

import (
	"encoding/json"
	"strings"

	"github.com/udisondev/portalgo/internal/world"
)

// LogicRelay forwards a Trigger input to its OnTrigger output and fires
// OnSpawn when activated.
type LogicRelay struct {
	Disabled bool `json:"disabled"`
}

func (r *LogicRelay) KeyValue(e *world.Entity, key, value string) bool {
	if strings.EqualFold(key, "StartDisabled") {
		r.Disabled = value == "1"
		return true
	}
	return false
}

func (r *LogicRelay) Activate(w *world.World, e *world.Entity) {
	if !r.Disabled {
		w.FireOutput(e, "OnSpawn", e)
	}
}

// AcceptInput handles Trigger, Enable, Disable and Toggle.
func (r *LogicRelay) AcceptInput(w *world.World, e *world.Entity, input string, activator *world.Entity, param string) bool {
	switch strings.ToLower(input) {
	case "trigger":
		if !r.Disabled {
			w.FireOutput(e, "OnTrigger", activator)
		}
	case "enable":
		r.Disabled = false
	case "disable":
		r.Disabled = true
	case "toggle":
		r.Disabled = !r.Disabled
	default:
		return false
	}
	return true
}

func (r *LogicRelay) SaveState() ([]byte, error) { return json.Marshal(r) }

func (r *LogicRelay) RestoreState(data []byte) error { return json.Unmarshal(data, r) }
