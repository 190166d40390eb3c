package config

import (
	"sync"

	"github.com/dshills/arbor/internal/config/loader"
	"github.com/dshills/arbor/internal/config/watcher"
	"github.com/dshills/arbor/internal/logging"
)

// Observer is called after a successful reload with the previous and the
// new settings.
type Observer func(old, new Settings)

// Config holds the current settings for a file and reloads them on
// request or when the file changes.
type Config struct {
	mu        sync.RWMutex
	path      string
	fs        loader.FileSystem
	env       loader.Loader
	current   Settings
	observers map[uint64]Observer
	nextID    uint64
	watcher   *watcher.Watcher
	log       *logging.Logger
}

// Option configures a Config.
type Option func(*Config)

// WithFS reads the file through fsys.
func WithFS(fsys loader.FileSystem) Option {
	return func(c *Config) { c.fs = fsys }
}

// WithEnv replaces the environment layer; nil disables it.
func WithEnv(env loader.Loader) Option {
	return func(c *Config) { c.env = env }
}

// WithLogger sets the logger used for reload reports.
func WithLogger(l *logging.Logger) Option {
	return func(c *Config) { c.log = l }
}

// New loads path and returns a Config holding the result.
func New(path string, opts ...Option) (*Config, error) {
	c := &Config{
		path:      path,
		fs:        loader.DefaultFS(),
		env:       loader.NewEnvLoader(EnvPrefix),
		observers: make(map[uint64]Observer),
		log:       logging.NullLogger,
	}
	for _, opt := range opts {
		opt(c)
	}
	s, err := LoadFrom(c.fs, path, c.env)
	if err != nil {
		return nil, err
	}
	c.current = s
	c.log = c.log.WithComponent("config")
	return c, nil
}

// Path returns the config file path.
func (c *Config) Path() string { return c.path }

// Settings returns the current settings.
func (c *Config) Settings() Settings {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.current
}

// Subscribe registers an observer and returns a function removing it.
func (c *Config) Subscribe(fn Observer) (unsubscribe func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	id := c.nextID
	c.nextID++
	c.observers[id] = fn
	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		delete(c.observers, id)
	}
}

// Reload reads the file again. On error the current settings are kept.
func (c *Config) Reload() error {
	s, err := LoadFrom(c.fs, c.path, c.env)
	if err != nil {
		c.log.Warn("reload of %s failed, keeping previous settings: %v", c.path, err)
		return err
	}

	c.mu.Lock()
	old := c.current
	c.current = s
	observers := make([]Observer, 0, len(c.observers))
	for _, fn := range c.observers {
		observers = append(observers, fn)
	}
	c.mu.Unlock()

	c.log.Info("reloaded %s", c.path)
	for _, fn := range observers {
		fn(old, s)
	}
	return nil
}

// Watch reloads the settings whenever the file changes on disk, until
// Close. It is a no-op for a Config without a file.
func (c *Config) Watch(opts ...watcher.Option) error {
	if c.path == "" {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.watcher != nil {
		return nil
	}
	opts = append([]watcher.Option{watcher.WithErrorHandler(func(err error) {
		c.log.Error("watch %s: %v", c.path, err)
	})}, opts...)
	w, err := watcher.New(opts...)
	if err != nil {
		return err
	}
	w.OnChange(func(ev watcher.Event) {
		c.log.Debug("%s: %s", ev.Path, ev.Op)
		if ev.Op == watcher.OpRemove || ev.Op == watcher.OpRename {
			return
		}
		_ = c.Reload()
	})
	if err := w.Watch(c.path); err != nil {
		_ = w.Close()
		return err
	}
	c.watcher = w
	return nil
}

// Close stops watching.
func (c *Config) Close() error {
	c.mu.Lock()
	w := c.watcher
	c.watcher = nil
	c.mu.Unlock()
	if w == nil {
		return nil
	}
	return w.Close()
}
