package core

import (
	"os"
	"sync/atomic"

	"github.com/cockroachdb/errors"
	"github.com/pelletier/go-toml/v2"
)

type WindowSettings struct {
	Title  string `toml:"title"`
	X      int32  `toml:"x"`
	Y      int32  `toml:"y"`
	Width  uint32 `toml:"width"`
	Height uint32 `toml:"height"`
}

type RendererSettings struct {
	VSync bool `toml:"vsync"`
	// One of "fit", "stretch" or "integer".
	Scaling   string `toml:"scaling"`
	ShaderDir string `toml:"shader_dir"`
	// Validation layers are always on in debug builds.
	Validation bool `toml:"validation"`
}

type LoopSettings struct {
	// Update ticks per second. Zero runs the update callback uncapped.
	UpdateRate uint32 `toml:"update_rate"`
}

// Settings is treated as immutable once published. Mutations go through a copy.
type Settings struct {
	LogLevel string           `toml:"log_level"`
	Window   WindowSettings   `toml:"window"`
	Renderer RendererSettings `toml:"renderer"`
	Loop     LoopSettings     `toml:"loop"`
}

func DefaultSettings() Settings {
	return Settings{
		LogLevel: "info",
		Window: WindowSettings{
			Title:  "Tessera",
			X:      100,
			Y:      100,
			Width:  1280,
			Height: 720,
		},
		Renderer: RendererSettings{
			VSync:     true,
			Scaling:   "fit",
			ShaderDir: "assets/shaders",
		},
		Loop: LoopSettings{
			UpdateRate: 60,
		},
	}
}

// LoadSettings reads path on top of defaults. A missing file yields the defaults untouched.
func LoadSettings(path string, defaults Settings) (*Settings, error) {
	s := defaults
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &s, nil
		}
		return nil, errors.Wrapf(err, "reading settings %q", path)
	}
	if err := toml.Unmarshal(data, &s); err != nil {
		return nil, errors.Wrapf(err, "decoding settings %q", path)
	}
	return &s, nil
}

func SaveSettings(path string, s *Settings) error {
	data, err := toml.Marshal(s)
	if err != nil {
		return errors.Wrap(err, "encoding settings")
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.Wrapf(err, "writing settings %q", path)
	}
	return nil
}

// SettingsStore publishes settings snapshots to the update and render goroutines.
type SettingsStore struct {
	current    atomic.Pointer[Settings]
	generation atomic.Uint64
}

func NewSettingsStore(initial *Settings) *SettingsStore {
	st := &SettingsStore{}
	st.current.Store(initial)
	return st
}

func (st *SettingsStore) Load() *Settings {
	return st.current.Load()
}

// Generation increases on every Store so readers can detect a change without comparing fields.
func (st *SettingsStore) Generation() uint64 {
	return st.generation.Load()
}

func (st *SettingsStore) Store(s *Settings) {
	st.current.Store(s)
	st.generation.Add(1)
}

// Update applies fn to a copy of the current snapshot and publishes the copy.
func (st *SettingsStore) Update(fn func(s *Settings)) *Settings {
	next := *st.current.Load()
	fn(&next)
	st.Store(&next)
	return &next
}
