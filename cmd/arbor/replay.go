package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/pmezard/go-difflib/difflib"

	"github.com/dshills/arbor/internal/arena"
	"github.com/dshills/arbor/internal/mutation"
)

type replayOptions struct {
	diff    bool
	stats   bool
	passes  int
	context int
	path    string
}

func parseReplayFlags(args []string, stderr io.Writer) (replayOptions, error) {
	var opts replayOptions
	fs := flag.NewFlagSet("replay", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.BoolVar(&opts.diff, "diff", false, "Print a unified diff of the tree after every pass")
	fs.BoolVar(&opts.stats, "stats", false, "Print edit counts per pass")
	fs.IntVar(&opts.passes, "passes", 0, "Stop after this many passes (0 applies all)")
	fs.IntVar(&opts.context, "context", 3, "Context lines around each diff hunk")
	fs.Usage = func() {
		fmt.Fprintf(stderr, "Usage: arbor replay [options] LOG\n\nLOG is a file written by demo -record, or - for stdin.\n\nOptions:\n")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return opts, err
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return opts, errors.New("replay needs exactly one log file")
	}
	opts.path = fs.Arg(0)
	return opts, nil
}

func runReplay(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	opts, err := parseReplayFlags(args, stderr)
	if errors.Is(err, flag.ErrHelp) {
		return 0
	}
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 2
	}

	in := stdin
	if opts.path != "-" {
		f, err := os.Open(opts.path)
		if err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return 1
		}
		defer f.Close()
		in = f
	}
	if err := replay(opts, in, stdout); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

// replay applies every recorded pass to a fresh arena carrying the demo's
// custom elements and prints the final tree.
func replay(opts replayOptions, in io.Reader, out io.Writer) error {
	streams, err := mutation.ReadLog(in)
	if err != nil {
		return err
	}
	if opts.passes > 0 && opts.passes < len(streams) {
		streams = streams[:opts.passes]
	}

	a := arena.New()
	registerElements(a)
	prev := a.Dump()
	for i, m := range streams {
		pass := i + 1
		if err := a.Apply(m); err != nil {
			return fmt.Errorf("pass %d: %w", pass, err)
		}
		if opts.stats {
			fmt.Fprintf(out, "pass %d: %d edits (%d structural), %d templates\n",
				pass, m.Len(), m.Structural(), len(m.Templates))
		}
		if opts.diff {
			cur := a.Dump()
			text, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
				A:        difflib.SplitLines(prev),
				B:        difflib.SplitLines(cur),
				FromFile: fmt.Sprintf("pass %d", pass-1),
				ToFile:   fmt.Sprintf("pass %d", pass),
				Context:  opts.context,
			})
			if err != nil {
				return err
			}
			io.WriteString(out, text)
			prev = cur
		}
	}
	fmt.Fprintf(out, "%d passes applied, %d nodes live\n", len(streams), a.Len()-1)
	io.WriteString(out, a.Dump())
	return nil
}
