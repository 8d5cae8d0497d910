package main

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/jmylchreest/simtool/internal/gitsource"
	"github.com/jmylchreest/simtool/internal/grammar"
	"github.com/jmylchreest/simtool/internal/lexer"
	"github.com/jmylchreest/simtool/internal/simcore"
)

// cmdDiffSince implements `simtool diff-since <rev> <paths...>`: compares
// the current working tree (the "new" partition) against the blobs tracked
// at a historical git revision (the "old" partition), reporting only runs
// or percentage matches touching at least one "new" endpoint
// (SPEC_FULL.md §4.9, §4.10).
func cmdDiffSince(args []string) error {
	runID := newRunID()
	cfg, ignoreFile, err := coreConfig(args)
	if err != nil {
		return err
	}
	cfg.NewVsOld = true
	jsonOut := hasFlag(args, "--json")
	percentMode := hasFlag(args, "--percent")
	if percentMode && cfg.ThresholdPercentage == 0 {
		cfg.ThresholdPercentage = 10
	}

	rest := positionalArgs(args)
	if len(rest) < 2 {
		return fmt.Errorf("usage: simtool diff-since [--json] [--percent] <rev> <paths...>")
	}
	rev, paths := rest[0], rest[1:]

	scanLog.Printf("run %s: diff-since %s starting over %d root(s)", runID, rev, len(paths))

	repo, err := gitsource.Open(paths[0])
	if err != nil {
		return err
	}

	reg := grammar.NewRegistry()
	interner := lexer.NewInterner()

	newFiles, err := discoverAndLex(paths, ignoreFile, reg, interner)
	if err != nil {
		return err
	}
	oldFiles, err := lexOldRevision(repo, rev, paths, reg, interner)
	if err != nil {
		return err
	}

	all := make([]sourceFile, 0, len(newFiles)+len(oldFiles))
	for _, f := range newFiles {
		f.isNew = true
		f.name = "new:" + f.name
		all = append(all, f)
	}
	all = append(all, oldFiles...)

	if len(all) == 0 {
		scanLog.Printf("run %s: nothing to compare", runID)
		if percentMode {
			return writeMatches(nil, jsonOut)
		}
		return writeRuns(nil, nil, jsonOut)
	}

	store, lines := buildStore(all, interner)

	fr, err := simcore.BuildForwardReferences(store, cfg)
	if err != nil {
		return err
	}
	defer fr.Free()

	if percentMode {
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
		scanLog.Printf("run %s: %d match(es)", runID, len(matches))
		return writeMatches(matches, jsonOut)
	}

	collector := simcore.NewCollector()
	if err := simcore.ScanRuns(store, fr, cfg, collector.Add); err != nil {
		return err
	}
	runs := collector.Runs()
	scanLog.Printf("run %s: %d run(s) found between new and old", runID, len(runs))
	return writeRuns(runs, lines, jsonOut)
}

// lexOldRevision reads every blob tracked at rev whose path falls under one
// of paths (relative to the repository root), tokenizes it, and names it
// with an "old:" prefix so it never collides, in percentage aggregation
// (keyed by Text.Name), with a "new:"-prefixed Text for the same file.
func lexOldRevision(repo *gitsource.Repo, rev string, paths []string, reg *grammar.Registry, interner *lexer.Interner) ([]sourceFile, error) {
	blobs, err := repo.FilesAt(rev)
	if err != nil {
		return nil, err
	}

	prefixes := make([]string, 0, len(paths))
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			return nil, fmt.Errorf("simtool: resolve %s: %w", p, err)
		}
		rel, err := filepath.Rel(repo.Root(), abs)
		if err != nil {
			return nil, fmt.Errorf("simtool: %s is not inside repository %s: %w", p, repo.Root(), err)
		}
		rel = filepath.ToSlash(rel)
		if rel == "." {
			rel = ""
		}
		prefixes = append(prefixes, rel)
	}

	out := make([]sourceFile, 0, len(blobs))
	for _, b := range blobs {
		if !underAnyPrefix(b.Path, prefixes) {
			continue
		}
		lang := gitsource.ExtensionLang(b.Path, grammar.ByExtension)
		if lang == "" || !reg.Has(lang) {
			continue
		}
		lf, err := lexer.Tokenize(reg, interner, b.Path, b.Content, lang)
		if err != nil {
			return nil, fmt.Errorf("simtool: tokenize %s@%s: %w", b.Path, rev, err)
		}
		if lf == nil || len(lf.Tokens) == 0 {
			continue
		}
		out = append(out, sourceFile{name: "old:" + b.Path, file: lf})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].name < out[j].name })
	return out, nil
}

func underAnyPrefix(path string, prefixes []string) bool {
	for _, p := range prefixes {
		if p == "" || path == p || strings.HasPrefix(path, p+"/") {
			return true
		}
	}
	return false
}
