package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmylchreest/simtool/internal/discover"
	"github.com/jmylchreest/simtool/internal/grammar"
	"github.com/jmylchreest/simtool/internal/httpapi"
	"github.com/jmylchreest/simtool/internal/lexer"
	"github.com/jmylchreest/simtool/internal/simcore"
	"github.com/jmylchreest/simtool/internal/watch"
)

// cmdWatch implements `simtool watch <paths...>`: rescans a source tree on
// every filesystem change, optionally serving the latest result over HTTP
// (`--serve=:addr`, SPEC_FULL.md's daemon mode). Without --serve it simply
// re-prints the run table (or, with --percent, the percentage lines; with
// --json, either as JSON) after every debounced rescan.
func cmdWatch(args []string) error {
	runID := newRunID()
	cfg, ignoreFile, err := coreConfig(args)
	if err != nil {
		return err
	}
	jsonOut := hasFlag(args, "--json")
	percentMode := hasFlag(args, "--percent")
	if percentMode && cfg.ThresholdPercentage == 0 {
		cfg.ThresholdPercentage = 10
	}
	serveAddr, serving := parseFlag(args, "--serve=")
	paths := positionalArgs(args)
	if len(paths) == 0 {
		return fmt.Errorf("usage: simtool watch [--serve=:addr] [--percent] [--json] <paths...>")
	}

	var server *httpapi.Server
	if serving {
		server = httpapi.NewServer(serveAddr)
		go func() {
			if err := server.Start(); err != nil {
				scanLog.Printf("run %s: http server stopped: %v", runID, err)
			}
		}()
	}

	reg := grammar.NewRegistry()
	matcher, err := discover.NewMatcher(paths[0], ignoreFile)
	if err != nil {
		return err
	}

	rescan := func() {
		interner := lexer.NewInterner()
		files, err := discoverAndLex(paths, ignoreFile, reg, interner)
		if err != nil {
			scanLog.Printf("run %s: rescan failed: %v", runID, err)
			return
		}
		if len(files) == 0 {
			scanLog.Printf("run %s: no recognized source files under %v", runID, paths)
			return
		}
		store, lines := buildStore(files, interner)

		fr, err := simcore.BuildForwardReferences(store, cfg)
		if err != nil {
			scanLog.Printf("run %s: rescan failed: %v", runID, err)
			return
		}
		defer fr.Free()

		collector := simcore.NewCollector()
		if err := simcore.ScanRuns(store, fr, cfg, collector.Add); err != nil {
			scanLog.Printf("run %s: rescan failed: %v", runID, err)
			return
		}
		runs := collector.Runs()

		var matches []simcore.Match
		if percentMode {
			matches, err = simcore.BuildPercentages(store, runs, cfg)
			if err != nil {
				scanLog.Printf("run %s: rescan failed: %v", runID, err)
				return
			}
		}

		scanLog.Printf("run %s: rescanned %d file(s): %d run(s), %d match(es)", runID, len(files), len(runs), len(matches))

		if server != nil {
			server.SetResult(httpapi.Result{GeneratedAt: time.Now(), Runs: runs, Matches: matches})
			return
		}
		if percentMode {
			_ = writeMatches(matches, jsonOut)
			return
		}
		_ = writeRuns(runs, lines, jsonOut)
	}

	w, err := watch.New(watch.Config{
		Root: paths[0],
		// The matcher's patterns are mostly bare directory names
		// (node_modules/, vendor/, .git/, ...); treating a directory's own
		// name as its relative path catches the common case without
		// dragging the full path-aware matcher into the watch loop.
		SkipDir: func(name string) bool { return matcher.ShouldIgnore(name, true) },
	}, rescan)
	if err != nil {
		return err
	}

	rescan()
	if _, err := w.Start(); err != nil {
		return err
	}
	defer w.Stop()

	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, os.Interrupt, syscall.SIGTERM)
	<-sigc
	scanLog.Printf("run %s: shutting down", runID)
	return nil
}
