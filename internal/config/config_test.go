package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/dshills/arbor/internal/config/loader"
	"github.com/dshills/arbor/internal/config/watcher"
	"github.com/dshills/arbor/internal/logging"
	"github.com/dshills/arbor/internal/state/kinds"
)

type memFS map[string]string

func (m memFS) Open(string) (fs.File, error) { return nil, fs.ErrNotExist }

func (m memFS) ReadFile(path string) ([]byte, error) {
	s, ok := m[path]
	if !ok {
		return nil, fs.ErrNotExist
	}
	return []byte(s), nil
}

func (m memFS) Stat(string) (fs.FileInfo, error) { return nil, fs.ErrNotExist }

type envMap map[string]any

func (e envMap) Load() (map[string]any, error) { return loader.Clone(e), nil }

func TestDefaultsAreValid(t *testing.T) {
	if err := Defaults().Validate(); err != nil {
		t.Fatalf("defaults invalid: %v", err)
	}
	if Defaults().Level() != logging.LevelInfo {
		t.Error("default level should be info")
	}
}

func TestLoadLayers(t *testing.T) {
	files := memFS{"/arbor.toml": `
[runtime]
log_level = "debug"

[renderer]
backend = "null"
width = 100

[state.cross_shadow]
color = true
`}
	env := envMap{
		"renderer": map[string]any{"width": int64(132)},
		"unknown":  map[string]any{"thing": "ignored"},
	}
	got, err := LoadFrom(files, "/arbor.toml", env)
	if err != nil {
		t.Fatal(err)
	}

	want := Defaults()
	want.Runtime.LogLevel = "debug"
	want.Renderer.Backend = "null"
	want.Renderer.Width = 132
	want.State.CrossShadow = map[string]bool{"color": true}
	if diff := cmp.Diff(want, got, cmpopts.EquateEmpty()); diff != "" {
		t.Errorf("settings (-want +got):\n%s", diff)
	}
}

func TestApplyCrossShadow(t *testing.T) {
	s := Defaults()
	s.State.CrossShadow = map[string]bool{"color": true, "extent": false, "absent": true}
	set := kinds.New()
	s.ApplyCrossShadow(set.All())

	if !set.Color.CrossShadow || set.Extent.CrossShadow {
		t.Errorf("color = %v, extent = %v; want overrides applied", set.Color.CrossShadow, set.Extent.CrossShadow)
	}
	if !set.Size.CrossShadow {
		t.Error("kinds without an override keep their default")
	}
}

func TestLoadYAML(t *testing.T) {
	files := memFS{"/arbor.yml": "script:\n  timeout_ms: 500\n  paths: [kinds.lua]\n"}
	got, err := LoadFrom(files, "/arbor.yml", nil)
	if err != nil {
		t.Fatal(err)
	}
	if got.ScriptTimeout() != 500*time.Millisecond {
		t.Errorf("script timeout = %v", got.ScriptTimeout())
	}
	if diff := cmp.Diff([]string{"kinds.lua"}, got.Script.Paths); diff != "" {
		t.Errorf("paths (-want +got):\n%s", diff)
	}
}

func TestMissingFileUsesDefaults(t *testing.T) {
	got, err := LoadFrom(memFS{}, "/absent.toml", nil)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(Defaults(), got, cmpopts.EquateEmpty()); diff != "" {
		t.Errorf("settings (-want +got):\n%s", diff)
	}
}

func TestUnknownFileKeyIsRejected(t *testing.T) {
	files := memFS{"/arbor.toml": "[runtime]\nlog_levle = \"debug\"\n"}
	_, err := LoadFrom(files, "/arbor.toml", nil)
	var pe *loader.ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("err = %v, want a *loader.ParseError", err)
	}
}

func TestTypeMismatchIsRejected(t *testing.T) {
	files := memFS{"/arbor.toml": "[renderer]\nwidth = \"wide\"\n"}
	if _, err := LoadFrom(files, "/arbor.toml", nil); err == nil {
		t.Fatal("expected an error for a string width")
	}
}

func TestValidate(t *testing.T) {
	s := Defaults()
	s.Runtime.LogLevel = "loud"
	s.Runtime.MaxQueue = 0
	s.Renderer.Backend = "sdl"
	s.Diff.PreserveFalse = []string{"*"}
	err := s.Validate()
	if !errors.Is(err, ErrInvalidSetting) {
		t.Fatalf("err = %v, want ErrInvalidSetting", err)
	}
	if n := len(err.(interface{ Unwrap() []error }).Unwrap()); n != 4 {
		t.Errorf("got %d problems, want 4: %v", n, err)
	}
}

func TestReloadNotifiesObservers(t *testing.T) {
	files := memFS{"/arbor.toml": "[runtime]\nlog_level = \"info\"\n"}
	c, err := New("/arbor.toml", WithFS(files), WithEnv(nil))
	if err != nil {
		t.Fatal(err)
	}

	var calls int
	var seen [2]string
	unsubscribe := c.Subscribe(func(old, new Settings) {
		calls++
		seen = [2]string{old.Runtime.LogLevel, new.Runtime.LogLevel}
	})

	files["/arbor.toml"] = "[runtime]\nlog_level = \"warn\"\n"
	if err := c.Reload(); err != nil {
		t.Fatal(err)
	}
	if calls != 1 || seen != [2]string{"info", "warn"} {
		t.Errorf("observer calls = %d, saw %v", calls, seen)
	}

	files["/arbor.toml"] = "[runtime\n"
	if err := c.Reload(); err == nil {
		t.Error("expected a parse error")
	}
	if c.Settings().Runtime.LogLevel != "warn" {
		t.Error("failed reload replaced the settings")
	}

	unsubscribe()
	files["/arbor.toml"] = "[runtime]\nlog_level = \"error\"\n"
	if err := c.Reload(); err != nil {
		t.Fatal(err)
	}
	if calls != 1 {
		t.Errorf("unsubscribed observer was called")
	}
}

func TestWatchReloadsOnWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "arbor.toml")
	if err := os.WriteFile(path, []byte("[renderer]\nwidth = 10\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	c, err := New(path, WithEnv(nil))
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()

	widths := make(chan int, 4)
	c.Subscribe(func(_, s Settings) { widths <- s.Renderer.Width })
	if err := c.Watch(watcher.WithDebounce(20 * time.Millisecond)); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("[renderer]\nwidth = 20\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	select {
	case w := <-widths:
		if w != 20 {
			t.Errorf("width = %d, want 20", w)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("no reload within 5s")
	}
}
