package engine

import (
	"github.com/spaghettifunk/tessera/engine/core"
)

type ApplicationConfig struct {
	// Window starting position x axis, if applicable.
	StartPosX int32
	// Window starting position y axis, if applicable.
	StartPosY int32
	// Window starting width, if applicable.
	StartWidth uint32
	// Window starting height, if applicable.
	StartHeight uint32
	// The application name used in windowing, if applicable.
	Name string
	// One of debug, info, warn or error. Empty keeps the default.
	LogLevel string
	// Logical render target size the game draws in. Zero uses the start size.
	LogicalWidth  uint32
	LogicalHeight uint32
	// Settings file layered over the values above. Empty disables loading and hot reload.
	SettingsPath string
	// Directory indexed and watched by the asset manager.
	AssetsDir string
}

// Defaults turns the config into the settings used before the settings file is read.
func (c *ApplicationConfig) Defaults() core.Settings {
	s := core.DefaultSettings()
	if c.Name != "" {
		s.Window.Title = c.Name
	}
	if c.StartWidth != 0 && c.StartHeight != 0 {
		s.Window.Width = c.StartWidth
		s.Window.Height = c.StartHeight
	}
	if c.StartPosX != 0 || c.StartPosY != 0 {
		s.Window.X = c.StartPosX
		s.Window.Y = c.StartPosY
	}
	if c.LogLevel != "" {
		s.LogLevel = c.LogLevel
	}
	return s
}

func (c *ApplicationConfig) logicalSize(s *core.Settings) (uint32, uint32) {
	if c.LogicalWidth != 0 && c.LogicalHeight != 0 {
		return c.LogicalWidth, c.LogicalHeight
	}
	return s.Window.Width, s.Window.Height
}
