// Package main is the entry point for the arbor command.
//
//	arbor demo [options]            run the counter demo
//	arbor replay [options] LOG      apply a recorded mutation log
package main

import (
	"fmt"
	"io"
	"os"
)

// Version information (set via ldflags during build).
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		usage(stderr)
		return 2
	}
	switch args[0] {
	case "demo":
		return runDemo(args[1:], stdout, stderr)
	case "replay":
		return runReplay(args[1:], stdin, stdout, stderr)
	case "version", "-v", "-version", "--version":
		fmt.Fprintf(stdout, "arbor %s\n", version)
		fmt.Fprintf(stdout, "Commit: %s\n", commit)
		fmt.Fprintf(stdout, "Built: %s\n", date)
		return 0
	case "help", "-h", "-help", "--help":
		usage(stdout)
		return 0
	default:
		fmt.Fprintf(stderr, "Error: unknown command %q\n\n", args[0])
		usage(stderr)
		return 2
	}
}

func usage(w io.Writer) {
	fmt.Fprintf(w, "arbor - retained-mode UI tree runtime\n\n")
	fmt.Fprintf(w, "Usage: arbor <command> [options]\n\n")
	fmt.Fprintf(w, "Commands:\n")
	fmt.Fprintf(w, "  demo      Run the ticking counter demo\n")
	fmt.Fprintf(w, "  replay    Apply a recorded mutation log and print the tree\n")
	fmt.Fprintf(w, "  version   Show version information\n")
	fmt.Fprintf(w, "\nExamples:\n")
	fmt.Fprintf(w, "  arbor demo                          Run on the terminal until q\n")
	fmt.Fprintf(w, "  arbor demo -backend null -ticks 10  Run headless and print the screen\n")
	fmt.Fprintf(w, "  arbor demo -record run.jsonl        Record every pass\n")
	fmt.Fprintf(w, "  arbor replay -diff run.jsonl        Show how the tree changed per pass\n")
}
