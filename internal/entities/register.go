// Package entities holds the generic map classes: point entities, logic
// relays, trigger volumes and portals.
package entities

import "github.com/udisondev/portalgo/internal/world"

// Class names.
const (
	ClassInfoTarget      = "info_target"
	ClassInfoPlayerStart = "info_player_start"
	ClassLogicRelay      = "logic_relay"
	ClassTriggerMultiple = "trigger_multiple"
	ClassTriggerRPGFire  = "trigger_rpgfire"
	ClassPropPortal      = "prop_portal"
)

// PointEntity has no behavior beyond the entity record.
type PointEntity struct{}

// Register links every class of this package into f.
func Register(f *world.Factory) {
	f.Register(ClassInfoTarget, func() world.Behavior { return &PointEntity{} })
	f.Register(ClassInfoPlayerStart, func() world.Behavior { return &PointEntity{} })
	f.Register(ClassLogicRelay, func() world.Behavior { return &LogicRelay{} })
	f.Register(ClassTriggerMultiple, func() world.Behavior { return NewTriggerMultiple(true) })
	f.Register(ClassTriggerRPGFire, func() world.Behavior { return NewTriggerMultiple(false) })
	f.Register(ClassPropPortal, func() world.Behavior { return &Portal{active: true} })
}
