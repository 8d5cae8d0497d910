package main

import (
	"fmt"

	"github.com/jmylchreest/simtool/internal/grammar"
	"github.com/jmylchreest/simtool/internal/lexer"
	"github.com/jmylchreest/simtool/internal/simcore"
)

// cmdScan implements `simtool scan <paths...>`: compare every discovered
// file against every other, reporting maximal shared token runs.
func cmdScan(args []string) error {
	runID := newRunID()
	cfg, ignoreFile, err := coreConfig(args)
	if err != nil {
		return err
	}
	jsonOut := hasFlag(args, "--json")
	paths := positionalArgs(args)
	if len(paths) == 0 {
		return fmt.Errorf("usage: simtool scan [--json] [--min-run-size=N] [--no-self] [--separate-each] <paths...>")
	}

	scanLog.Printf("run %s: scan starting over %d root(s)", runID, len(paths))

	reg := grammar.NewRegistry()
	interner := lexer.NewInterner()
	files, err := discoverAndLex(paths, ignoreFile, reg, interner)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		scanLog.Printf("run %s: no recognized source files under %v", runID, paths)
		return writeRuns(nil, nil, jsonOut)
	}

	store, lines := buildStore(files, interner)

	fr, err := simcore.BuildForwardReferences(store, cfg)
	if err != nil {
		return err
	}
	defer fr.Free()

	collector := simcore.NewCollector()
	if err := simcore.ScanRuns(store, fr, cfg, collector.Add); err != nil {
		return err
	}
	runs := collector.Runs()

	scanLog.Printf("run %s: %d file(s), %d run(s) found", runID, len(files), len(runs))
	return writeRuns(runs, lines, jsonOut)
}
