package config

import (
	"bytes"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/dshills/arbor/internal/config/loader"
	"github.com/dshills/arbor/internal/logging"
	"github.com/dshills/arbor/internal/state"
	"github.com/dshills/arbor/internal/vdom"
)

// EnvPrefix prefixes every environment variable read by Load.
const EnvPrefix = "ARBOR_"

// Settings is the decoded configuration.
type Settings struct {
	Runtime  RuntimeSettings  `toml:"runtime"`
	Diff     DiffSettings     `toml:"diff"`
	State    StateSettings    `toml:"state"`
	Renderer RendererSettings `toml:"renderer"`
	Script   ScriptSettings   `toml:"script"`
}

type RuntimeSettings struct {
	LogLevel string `toml:"log_level"`
	// MaxQueue bounds the number of descriptions waiting to be diffed.
	MaxQueue int `toml:"max_queue"`
}

type DiffSettings struct {
	// PreserveFalse lists attributes that keep a literal "false".
	// Entries ending in '*' match by prefix.
	PreserveFalse []string `toml:"preserve_false"`
}

type StateSettings struct {
	// CrossShadow overrides, per kind name, whether a state kind's
	// tree dependencies cross shadow boundaries.
	CrossShadow map[string]bool `toml:"cross_shadow"`
}

type RendererSettings struct {
	// Backend is "terminal" or "null".
	Backend string `toml:"backend"`
	// Width and Height size the null backend.
	Width  int `toml:"width"`
	Height int `toml:"height"`
}

type ScriptSettings struct {
	// TimeoutMS bounds each script load and update call; 0 means
	// unbounded.
	TimeoutMS int      `toml:"timeout_ms"`
	Paths     []string `toml:"paths"`
}

// Defaults returns the built-in settings.
func Defaults() Settings {
	return Settings{
		Runtime:  RuntimeSettings{LogLevel: "info", MaxQueue: 16},
		Diff:     DiffSettings{PreserveFalse: slices.Clone(vdom.DefaultPreserveFalse)},
		State:    StateSettings{CrossShadow: map[string]bool{}},
		Renderer: RendererSettings{Backend: "terminal", Width: 80, Height: 24},
		Script:   ScriptSettings{TimeoutMS: 250},
	}
}

// ScriptTimeout returns Script.TimeoutMS as a duration.
func (s Settings) ScriptTimeout() time.Duration {
	return time.Duration(s.Script.TimeoutMS) * time.Millisecond
}

// Level returns the parsed log level. Validate rejects unknown names.
func (s Settings) Level() logging.Level {
	l, _ := logging.ParseLevel(s.Runtime.LogLevel)
	return l
}

// ApplyCrossShadow sets CrossShadow on every kind State.CrossShadow
// names. Run it before the kinds reach state.NewEngine.
func (s Settings) ApplyCrossShadow(ks []*state.Kind) {
	for _, k := range ks {
		if v, ok := s.State.CrossShadow[k.Name]; ok {
			k.CrossShadow = v
		}
	}
}

// Validate reports every invalid field, each wrapping ErrInvalidSetting.
func (s Settings) Validate() error {
	var errs []error
	bad := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("%w: "+format, append([]any{ErrInvalidSetting}, args...)...))
	}
	if _, ok := logging.ParseLevel(s.Runtime.LogLevel); !ok {
		bad("runtime.log_level %q", s.Runtime.LogLevel)
	}
	if s.Runtime.MaxQueue < 1 {
		bad("runtime.max_queue must be at least 1, got %d", s.Runtime.MaxQueue)
	}
	switch s.Renderer.Backend {
	case "terminal", "null":
	default:
		bad("renderer.backend %q", s.Renderer.Backend)
	}
	if s.Renderer.Width < 0 || s.Renderer.Height < 0 {
		bad("renderer size %dx%d", s.Renderer.Width, s.Renderer.Height)
	}
	if s.Script.TimeoutMS < 0 {
		bad("script.timeout_ms %d", s.Script.TimeoutMS)
	}
	for _, name := range s.Diff.PreserveFalse {
		if name == "" || name == "*" {
			bad("diff.preserve_false entry %q", name)
		}
	}
	return errors.Join(errs...)
}

// Load reads path (optional; "" skips the file layer) from the OS file
// system and the process environment.
func Load(path string) (Settings, error) {
	return LoadFrom(loader.DefaultFS(), path, loader.NewEnvLoader(EnvPrefix))
}

// LoadFrom merges defaults, the file at path read through fsys, and env
// (nil skips the environment), then decodes and validates the result.
// Unknown keys in the file are errors; unknown environment variables
// are ignored.
func LoadFrom(fsys loader.FileSystem, path string, env loader.Loader) (Settings, error) {
	merged, err := toMap(Defaults())
	if err != nil {
		return Settings{}, err
	}

	if path != "" {
		l, err := loader.ForPath(fsys, path)
		if err != nil {
			return Settings{}, err
		}
		file, err := l.Load()
		if err != nil {
			return Settings{}, err
		}
		if err := decode(file, &Settings{}, true); err != nil {
			return Settings{}, fmt.Errorf("%s: %w", path, err)
		}
		merged = loader.DeepMerge(merged, file)
	}

	if env != nil {
		vars, err := env.Load()
		if err != nil {
			return Settings{}, err
		}
		merged = loader.DeepMerge(merged, known(vars))
	}

	var s Settings
	if err := decode(merged, &s, false); err != nil {
		return Settings{}, err
	}
	if s.State.CrossShadow == nil {
		s.State.CrossShadow = map[string]bool{}
	}
	if err := s.Validate(); err != nil {
		return Settings{}, err
	}
	return s, nil
}

// known drops environment sections that Settings has no field for.
func known(vars map[string]any) map[string]any {
	sections := map[string]bool{"runtime": true, "diff": true, "state": true, "renderer": true, "script": true}
	out := make(map[string]any, len(vars))
	for k, v := range vars {
		if sections[k] {
			out[k] = v
		}
	}
	return out
}

func toMap(s Settings) (map[string]any, error) {
	data, err := toml.Marshal(s)
	if err != nil {
		return nil, err
	}
	var m map[string]any
	if err := toml.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	return m, nil
}

func decode(m map[string]any, into *Settings, strict bool) error {
	data, err := toml.Marshal(m)
	if err != nil {
		return err
	}
	dec := toml.NewDecoder(bytes.NewReader(data))
	if strict {
		dec.DisallowUnknownFields()
	}
	if err := dec.Decode(into); err != nil {
		return &loader.ParseError{Path: "<settings>", Message: err.Error(), Err: err}
	}
	return nil
}
