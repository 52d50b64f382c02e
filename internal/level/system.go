// Package level hosts the world of the running map: it loads maps and
// saved games, drives frames and calls the registered game systems at each
// step of the level lifecycle.
package level

import "github.com/udisondev/portalgo/internal/world"

// GameSystem receives level lifecycle callbacks.
type GameSystem interface {
	Name() string
	// LevelInitPreEntity runs after the world is created, before any map
	// or saved entity exists.
	LevelInitPreEntity(w *world.World)
	// LevelInitPostEntity runs once every map or saved entity is in place
	// and the string tables are locked.
	LevelInitPostEntity(w *world.World)
	FrameUpdate(w *world.World)
	LevelShutdown(w *world.World)
}

// SystemSaver is implemented by game systems with state that belongs in a
// save game.
type SystemSaver interface {
	SaveSystem(w *world.World) ([]byte, error)
	RestoreSystem(w *world.World, data []byte) error
}
