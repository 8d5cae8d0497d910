package main

import (
	"fmt"

	"github.com/jmylchreest/simtool/internal/grammar"
	"github.com/jmylchreest/simtool/internal/lexer"
	"github.com/jmylchreest/simtool/internal/simcore"
)

// cmdPercent implements `simtool percent <paths...>`: report, for each pair
// of discovered files, the percentage of each file's tokens reproduced in
// the other.
func cmdPercent(args []string) error {
	runID := newRunID()
	cfg, ignoreFile, err := coreConfig(args)
	if err != nil {
		return err
	}
	if cfg.ThresholdPercentage == 0 {
		cfg.ThresholdPercentage = 10
	}
	jsonOut := hasFlag(args, "--json")
	paths := positionalArgs(args)
	if len(paths) == 0 {
		return fmt.Errorf("usage: simtool percent [--json] [--threshold=N] [--main-contributor-only] <paths...>")
	}

	scanLog.Printf("run %s: percent starting over %d root(s)", runID, len(paths))

	reg := grammar.NewRegistry()
	interner := lexer.NewInterner()
	files, err := discoverAndLex(paths, ignoreFile, reg, interner)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		scanLog.Printf("run %s: no recognized source files under %v", runID, paths)
		return writeMatches(nil, jsonOut)
	}

	store, _ := buildStore(files, interner)

	fr, err := simcore.BuildForwardReferences(store, cfg)
	if err != nil {
		return err
	}
	defer fr.Free()

	var runs []simcore.Run
	if err := simcore.ScanRuns(store, fr, cfg, func(r simcore.Run) bool {
		runs = append(runs, r)
		return true
	}); err != nil {
		return err
	}

	matches, err := simcore.BuildPercentages(store, runs, cfg)
	if err != nil {
		return err
	}

	scanLog.Printf("run %s: %d file(s), %d match(es) at or above %d%%", runID, len(files), len(matches), cfg.ThresholdPercentage)
	return writeMatches(matches, jsonOut)
}
