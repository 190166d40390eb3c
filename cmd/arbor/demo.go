package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/dshills/arbor/internal/arena"
	"github.com/dshills/arbor/internal/config"
	"github.com/dshills/arbor/internal/logging"
	"github.com/dshills/arbor/internal/mutation"
	"github.com/dshills/arbor/internal/renderer"
	"github.com/dshills/arbor/internal/renderer/backend"
	"github.com/dshills/arbor/internal/runtime"
	"github.com/dshills/arbor/internal/script"
	"github.com/dshills/arbor/internal/state"
	"github.com/dshills/arbor/internal/state/kinds"
	"github.com/dshills/arbor/internal/vdom"
)

type demoOptions struct {
	configPath string
	backend    string
	logLevel   string
	logFile    string
	record     string
	scripts    stringList
	ticks      int
	interval   time.Duration
	counters   int
	showTags   bool
}

// stringList is a repeatable string flag.
type stringList []string

func (s *stringList) String() string { return strings.Join(*s, ",") }

func (s *stringList) Set(v string) error {
	*s = append(*s, v)
	return nil
}

func parseDemoFlags(args []string, stderr io.Writer) (demoOptions, error) {
	var opts demoOptions
	fs := flag.NewFlagSet("demo", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&opts.configPath, "config", "", "Path to configuration file (TOML or YAML)")
	fs.StringVar(&opts.configPath, "c", "", "Path to configuration file (shorthand)")
	fs.StringVar(&opts.backend, "backend", "", "Renderer backend: terminal or null (overrides config)")
	fs.StringVar(&opts.logLevel, "log-level", "", "Log level: debug, info, warn, error (overrides config)")
	fs.StringVar(&opts.logFile, "log-file", "", "Write logs to this file instead of stderr")
	fs.StringVar(&opts.record, "record", "", "Record every pass as a JSON mutation log")
	fs.Var(&opts.scripts, "script", "Lua file declaring state kinds (repeatable)")
	fs.IntVar(&opts.ticks, "ticks", 0, "Stop after this many ticks (0 runs until quit)")
	fs.DurationVar(&opts.interval, "interval", 500*time.Millisecond, "Time between ticks")
	fs.IntVar(&opts.counters, "counters", 8, "Maximum number of counters")
	fs.BoolVar(&opts.showTags, "tags", false, "Draw element rows")
	fs.Usage = func() {
		fmt.Fprintf(stderr, "Usage: arbor demo [options]\n\nOptions:\n")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return opts, err
	}
	if opts.interval <= 0 {
		return opts, fmt.Errorf("interval must be positive, got %s", opts.interval)
	}
	if opts.counters < 1 {
		return opts, fmt.Errorf("counters must be at least 1, got %d", opts.counters)
	}
	return opts, nil
}

func runDemo(args []string, stdout, stderr io.Writer) int {
	opts, err := parseDemoFlags(args, stderr)
	if errors.Is(err, flag.ErrHelp) {
		return 0
	}
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 2
	}
	if err := demo(opts, stdout, stderr); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

func demo(opts demoOptions, stdout, stderr io.Writer) error {
	cfg, err := config.New(opts.configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	defer cfg.Close()

	settings := cfg.Settings()
	if opts.backend != "" {
		settings.Renderer.Backend = opts.backend
	}
	if opts.logLevel != "" {
		settings.Runtime.LogLevel = opts.logLevel
	}
	settings.Script.Paths = append(settings.Script.Paths, opts.scripts...)
	if err := settings.Validate(); err != nil {
		return err
	}

	logOut := stderr
	if opts.logFile != "" {
		f, err := os.OpenFile(opts.logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("open log file: %w", err)
		}
		defer f.Close()
		logOut = f
	} else if settings.Renderer.Backend == "terminal" {
		// Log lines would tear the screen.
		logOut = io.Discard
	}
	log := logging.New(logging.Config{Level: settings.Level(), Output: logOut, Prefix: "arbor"})
	logging.SetDefault(log)

	if opts.configPath != "" {
		cfg.Subscribe(func(old, new config.Settings) {
			if old.Runtime.LogLevel != new.Runtime.LogLevel {
				log.SetLevel(new.Level())
				log.Info("log level changed to %s", new.Level())
			}
		})
		if err := cfg.Watch(); err != nil {
			log.Warn("config changes will not be picked up: %v", err)
		}
	}

	builtin := kinds.New()
	all := builtin.All()
	if len(settings.Script.Paths) > 0 {
		host := script.New(script.WithTimeout(settings.ScriptTimeout()), script.WithLogger(log))
		defer host.Close()
		for _, p := range settings.Script.Paths {
			if err := host.LoadFile(p); err != nil {
				return err
			}
		}
		scripted, err := host.Kinds(all...)
		if err != nil {
			return err
		}
		all = append(all, scripted...)
	}
	settings.ApplyCrossShadow(all)

	var screen backend.Backend
	var null *backend.NullBackend
	switch settings.Renderer.Backend {
	case "null":
		null = backend.NewNullBackend(settings.Renderer.Width, settings.Renderer.Height)
		screen = null
	default:
		term, err := backend.NewTerminal()
		if err != nil {
			return fmt.Errorf("create terminal: %w", err)
		}
		screen = term
	}
	rend := renderer.New(screen, renderer.Options{
		Indent:      2,
		CrossShadow: true,
		ShowTags:    opts.showTags,
		Color:       builtin.Color,
		Extent:      builtin.Extent,
	})
	if err := rend.Init(); err != nil {
		return fmt.Errorf("init backend: %w", err)
	}
	defer rend.Shutdown()

	a := arena.New()
	registerElements(a)
	rtOpts := []runtime.Option{
		runtime.WithArena(a),
		runtime.WithVDOMOptions(vdom.WithPreserveFalse(settings.Diff.PreserveFalse...)),
		runtime.WithKinds(all...),
		runtime.WithContext(func() *state.Context { return state.NewContext(kinds.DefaultTheme()) }),
		runtime.WithRenderer(rend),
		runtime.WithLogger(log),
	}
	if opts.record != "" {
		f, err := os.Create(opts.record)
		if err != nil {
			return fmt.Errorf("create record file: %w", err)
		}
		defer f.Close()
		rtOpts = append(rtOpts, runtime.WithSink(mutation.NewLogWriter(f)))
	}
	rt, err := runtime.New(rtOpts...)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	go func() {
		for {
			if ev := rend.PollEvent(); ev.IsQuit() {
				cancel()
				return
			}
		}
	}()

	model := newCounters(opts.counters)
	tick := make(chan struct{}, settings.Runtime.MaxQueue)
	go ticker(ctx, tick, opts.interval, opts.ticks, log)

	err = rt.Run(ctx, runtime.Ticks(tick, func() *vdom.VNode {
		model.advance()
		return model.view()
	}))
	if errors.Is(err, context.Canceled) {
		err = nil
	}
	log.Info("demo finished: %d passes, %d counter renders skipped",
		rt.Passes(), rt.VDOM().SkippedRenders())

	if null != nil {
		for _, line := range null.Lines() {
			fmt.Fprintln(stdout, line)
		}
	}
	return err
}

// ticker sends a tick every interval until limit ticks were sent (0 is
// unlimited) or ctx ends, then closes tick. A tick finding the queue full
// is dropped.
func ticker(ctx context.Context, tick chan<- struct{}, interval time.Duration, limit int, log *logging.Logger) {
	defer close(tick)
	t := time.NewTicker(interval)
	defer t.Stop()
	for i := 0; limit == 0 || i < limit; i++ {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
		}
		select {
		case tick <- struct{}{}:
		default:
			log.Warn("render queue full, tick dropped")
		}
	}
}
