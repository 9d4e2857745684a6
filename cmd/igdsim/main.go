// Command igdsim runs a YAML-described boot through the IGD assignment
// driver and prints what it wrote into each device's config space.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"

	"golang.org/x/term"
)

func setupLogging(verbose bool) {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if term.IsTerminal(int(os.Stderr.Fd())) {
		handler = slog.NewTextHandler(os.Stderr, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	}
	slog.SetDefault(slog.New(handler))
}

func run(args []string) error {
	fs := flag.NewFlagSet("igdsim", flag.ContinueOnError)
	dump := fs.String("dump", "", "write every published region into this directory")
	verbose := fs.Bool("v", false, "enable debug logging")
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "usage: igdsim [-dump dir] [-v] <scenario.yaml>\n")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return fmt.Errorf("expected one scenario file")
	}

	setupLogging(*verbose)

	sc, err := LoadScenario(fs.Arg(0))
	if err != nil {
		return err
	}
	if sc.Name != "" {
		slog.Info("igdsim: running scenario", "name", sc.Name)
	}

	sim, err := simulate(sc)
	if err != nil {
		return fmt.Errorf("simulate: %w", err)
	}
	defer sim.Close()

	if err := printReport(os.Stdout, sim); err != nil {
		return fmt.Errorf("report: %w", err)
	}

	if *dump != "" {
		if err := dumpRegions(*dump, sim); err != nil {
			return err
		}
	}
	return nil
}

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "igdsim: %v\n", err)
		os.Exit(1)
	}
}
