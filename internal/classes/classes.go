// Package classes registers every entity class of the game.
package classes

import (
	"github.com/udisondev/portalgo/internal/entities"
	"github.com/udisondev/portalgo/internal/player"
	"github.com/udisondev/portalgo/internal/projectile"
	"github.com/udisondev/portalgo/internal/weapon"
	"github.com/udisondev/portalgo/internal/world"
)

// NewFactory returns a factory with all game classes registered.
func NewFactory() *world.Factory {
	f := world.NewFactory()
	entities.Register(f)
	player.Register(f)
	projectile.Register(f)
	weapon.Register(f)
	return f
}
