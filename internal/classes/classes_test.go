package classes

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/udisondev/portalgo/internal/entities"
	"github.com/udisondev/portalgo/internal/projectile"
	"github.com/udisondev/portalgo/internal/weapon"
	"github.com/udisondev/portalgo/internal/world"
)

func TestNewFactory(t *testing.T) {
	f := NewFactory()
	for _, c := range []string{
		entities.ClassLogicRelay,
		entities.ClassTriggerRPGFire,
		entities.ClassPropPortal,
		world.PlayerClassname,
		projectile.ClassEnergyBall,
		projectile.ClassCombineBall,
		projectile.ClassMissile,
		weapon.ClassLemon,
	} {
		assert.True(t, f.Has(c), c)
	}
	assert.Contains(t, f.PrecacheClasses(), weapon.ClassLemon)
	assert.Contains(t, f.PrecacheClasses(), projectile.ClassEnergyBall)
}
