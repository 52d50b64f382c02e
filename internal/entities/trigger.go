package entities

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/udisondev/portalgo/internal/model"
	"github.com/udisondev/portalgo/internal/world"
)

// defaultWait is the re-trigger delay used when "wait" is 0.
const defaultWait = 0.2

// TriggerMultiple is a box volume that fires OnTrigger. trigger_multiple
// fires when something enters it; trigger_rpgfire instead fires when a
// weapon is shot from inside it.
type TriggerMultiple struct {
	Wait        float64 `json:"wait"`
	NextTrigger float64 `json:"next_trigger"`
	Disabled    bool    `json:"disabled"`

	fireOnTouch bool
}

// NewTriggerMultiple creates the behavior. fireOnTouch selects touch
// activation (trigger_multiple) over weapon-fire activation.
func NewTriggerMultiple(fireOnTouch bool) *TriggerMultiple {
	return &TriggerMultiple{fireOnTouch: fireOnTouch}
}

func (t *TriggerMultiple) KeyValue(e *world.Entity, key, value string) bool {
	switch strings.ToLower(key) {
	case "wait":
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return false
		}
		t.Wait = f
		return true
	case "startdisabled":
		t.Disabled = value == "1"
		return true
	}
	return false
}

// Spawn gives the trigger a default box when the map set none.
func (t *TriggerMultiple) Spawn(w *world.World, e *world.Entity) error {
	if t.Wait == 0 {
		t.Wait = defaultWait
	}
	mins, maxs := e.Bounds()
	if mins == maxs {
		e.SetBounds(model.Vec(-64, -64, -64), model.Vec(64, 64, 64))
	}
	e.SetTrigger(true)
	if !t.fireOnTouch {
		w.RegisterWeaponFireTrigger(e)
	}
	return nil
}

// OnRestore re-registers a weapon-fire trigger after a load.
func (t *TriggerMultiple) OnRestore(w *world.World, e *world.Entity) {
	if !t.fireOnTouch {
		w.RegisterWeaponFireTrigger(e)
	}
}

func (t *TriggerMultiple) StartTouch(w *world.World, e, other *world.Entity) {
	if t.Disabled {
		return
	}
	w.FireOutput(e, "OnStartTouch", other)
	if t.fireOnTouch {
		t.ActivateMultiTrigger(w, e, other)
	}
}

func (t *TriggerMultiple) EndTouch(w *world.World, e, other *world.Entity) {
	if !t.Disabled {
		w.FireOutput(e, "OnEndTouch", other)
	}
}

// ActivateMultiTrigger fires OnTrigger unless the trigger is waiting to
// re-arm. A negative wait makes the trigger fire once and remove itself.
func (t *TriggerMultiple) ActivateMultiTrigger(w *world.World, e, activator *world.Entity) bool {
	if t.Disabled || w.Now() < t.NextTrigger {
		return false
	}
	w.FireOutput(e, "OnTrigger", activator)
	if t.Wait < 0 {
		t.Disabled = true
		w.QueueInput("!self", "Kill", "", 0, world.Handle{}, e.Handle())
		return true
	}
	t.NextTrigger = w.Now() + t.Wait
	return true
}

func (t *TriggerMultiple) AcceptInput(w *world.World, e *world.Entity, input string, activator *world.Entity, param string) bool {
	switch strings.ToLower(input) {
	case "enable":
		t.Disabled = false
	case "disable":
		t.Disabled = true
	case "toggle":
		t.Disabled = !t.Disabled
	default:
		return false
	}
	return true
}

func (t *TriggerMultiple) SaveState() ([]byte, error) { return json.Marshal(t) }

func (t *TriggerMultiple) RestoreState(data []byte) error { return json.Unmarshal(data, t) }
