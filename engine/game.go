package engine

import (
	"github.com/spaghettifunk/tessera/engine/renderer/metadata"
)

/**
 * @brief The host game. FnUpdate and FnRender never run at the same time; both may touch State
 * without further locking. FnOnResize and FnShutdown are optional.
 */
type Game struct {
	ApplicationConfig *ApplicationConfig
	State             interface{}
	FnInitialize      Initialize
	FnUpdate          Update
	FnRender          Render
	FnOnResize        OnResize
	FnShutdown        Shutdown
}

type Initialize func(e *Engine) error
type Update func(e *Engine, deltaTime float64) error

// Render fills scene, which arrives reset with the logical resolution and scaling applied.
type Render func(e *Engine, scene *metadata.Scene) error
type OnResize func(e *Engine, width uint32, height uint32) error
type Shutdown func(e *Engine) error
