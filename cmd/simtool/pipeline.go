package main

import (
	"fmt"
	"log"
	"os"
	"runtime"
	"sort"
	"strconv"
	"sync"

	"github.com/oklog/ulid/v2"

	"github.com/jmylchreest/simtool/internal/config"
	"github.com/jmylchreest/simtool/internal/discover"
	"github.com/jmylchreest/simtool/internal/grammar"
	"github.com/jmylchreest/simtool/internal/lexer"
	"github.com/jmylchreest/simtool/internal/simcore"
	"github.com/jmylchreest/simtool/internal/sink"
)

var scanLog = log.New(os.Stderr, "[simtool] ", log.Ltime)

// newRunID stamps a CLI invocation with a ULID so its log lines can be
// correlated end to end, the way the teacher's daemon commands tag a
// request id onto everything a single operation logs.
func newRunID() string {
	return ulid.Make().String()
}

// maxLexWorkers bounds the lexing worker pool (SPEC_FULL.md §5): discovery
// itself stays sequential (it must produce a stable order), but tokenizing
// the discovered files is parallelized across up to 16 workers.
const maxLexWorkers = 16

// sourceFile is one tokenized file, ready to be pushed into a simcore.Store
// and registered as a Text. isNew marks the "new" partition in diff-since
// mode; it is always false for a plain scan or percent run.
type sourceFile struct {
	name  string
	file  *lexer.File
	isNew bool
}

// discoverAndLex walks roots, tokenizes every recognized file in parallel,
// and returns the results re-joined in a stable order (sorted by
// root-relative path across all roots), so the core still only ever sees a deterministic single-threaded
// push/register_text stream regardless of how lexing was scheduled.
func discoverAndLex(roots []string, ignoreFile string, reg *grammar.Registry, interner *lexer.Interner) ([]sourceFile, error) {
	var all []discover.File

	for _, root := range roots {
		m, err := discover.NewMatcher(root, ignoreFile)
		if err != nil {
			return nil, fmt.Errorf("simtool: build ignore matcher for %s: %w", root, err)
		}
		files, err := discover.Walk(root, m, reg)
		if err != nil {
			return nil, fmt.Errorf("simtool: walk %s: %w", root, err)
		}
		all = append(all, files...)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].Rel < all[j].Rel })

	return lexParallel(all, reg, interner)
}

func lexParallel(all []discover.File, reg *grammar.Registry, interner *lexer.Interner) ([]sourceFile, error) {
	workers := runtime.GOMAXPROCS(0)
	if workers > maxLexWorkers {
		workers = maxLexWorkers
	}
	if workers < 1 {
		workers = 1
	}

	lexed := make([]*lexer.File, len(all))
	errs := make([]error, len(all))

	sem := make(chan struct{}, workers)
	var wg sync.WaitGroup
	for i, item := range all {
		wg.Add(1)
		sem <- struct{}{}
		go func(i int, item discover.File) {
			defer wg.Done()
			defer func() { <-sem }()

			content, err := os.ReadFile(item.Path)
			if err != nil {
				errs[i] = fmt.Errorf("simtool: read %s: %w", item.Path, err)
				return
			}
			lf, err := lexer.Tokenize(reg, interner, item.Rel, content, item.Lang)
			if err != nil {
				errs[i] = fmt.Errorf("simtool: tokenize %s: %w", item.Path, err)
				return
			}
			lexed[i] = lf
		}(i, item)
	}
	wg.Wait()

	out := make([]sourceFile, 0, len(all))
	for i, item := range all {
		if errs[i] != nil {
			return nil, errs[i]
		}
		if lexed[i] == nil || len(lexed[i].Tokens) == 0 {
			continue
		}
		out = append(out, sourceFile{name: item.Rel, file: lexed[i]})
	}
	return out, nil
}

// buildStore pushes every file's tokens into a fresh simcore.Store,
// separated by a single SeparatorToken (SPEC_FULL.md §4.11), and returns the
// frozen Store plus each file's per-token source line for later reporting.
func buildStore(files []sourceFile, interner *lexer.Interner) (*simcore.Store, map[string][]int) {
	store := simcore.NewStore(interner.StartPredicate())
	lines := make(map[string][]int, len(files))

	for i, sf := range files {
		if i > 0 {
			store.Push(simcore.SeparatorToken)
		}
		start := store.Len()
		for _, t := range sf.file.Tokens {
			store.Push(t)
		}
		if sf.isNew {
			store.RegisterNewText(sf.name, start, store.Len())
		} else {
			store.RegisterText(sf.name, start, store.Len())
		}
		lines[sf.name] = sf.file.Lines
	}

	store.Freeze()
	return store, lines
}

// lineOf adapts a per-file line table to the sink.RunsToRecords callback
// shape. A relative offset outside the recorded range reports line 0
// (unknown) rather than panicking — callers are reporting, not indexing
// into the Store itself.
func lineOf(lines map[string][]int) func(file string, relOffset uint64) int {
	return func(file string, relOffset uint64) int {
		ls, ok := lines[file]
		if !ok || relOffset >= uint64(len(ls)) {
			return 0
		}
		return ls[relOffset]
	}
}

// coreConfig resolves a simcore.Config from layered settings
// (defaults -> config file -> environment -> CLI flags, highest priority
// last) plus the driver-only "ignore file" and "config path" flags.
func coreConfig(args []string) (cfg simcore.Config, ignoreFile string, err error) {
	configPath, _ := parseFlag(args, "--config=")
	settings, err := config.Load(configPath)
	if err != nil {
		return simcore.Config{}, "", err
	}
	cfg = settings.ToCoreConfig()
	ignoreFile = settings.IgnoreFile

	if v, ok := parseFlag(args, "--min-run-size="); ok {
		n, convErr := strconv.Atoi(v)
		if convErr != nil {
			return simcore.Config{}, "", fmt.Errorf("simtool: --min-run-size: %w", convErr)
		}
		cfg.MinRunSize = n
	}
	if v, ok := parseFlag(args, "--threshold="); ok {
		n, convErr := strconv.Atoi(v)
		if convErr != nil {
			return simcore.Config{}, "", fmt.Errorf("simtool: --threshold: %w", convErr)
		}
		cfg.ThresholdPercentage = n
	}
	if v, ok := parseFlag(args, "--ignore-file="); ok {
		ignoreFile = v
	}
	if hasFlag(args, "--no-self") {
		cfg.NoSelf = true
	}
	if hasFlag(args, "--separate-each") {
		cfg.SeparateEach = true
	}
	if hasFlag(args, "--main-contributor-only") {
		cfg.MainContributorOnly = true
	}
	return cfg, ignoreFile, nil
}

// writeRuns prints a Run list as JSON or an aligned table, depending on
// jsonOut.
func writeRuns(runs []simcore.Run, lines map[string][]int, jsonOut bool) error {
	records := sink.RunsToRecords(runs, lineOf(lines))
	if jsonOut {
		return sink.WriteJSON(os.Stdout, records)
	}
	return sink.WriteRunsTable(os.Stdout, records)
}

// writeMatches prints a Match list as JSON or, by default, the literal
// percentage-line template spec §4.6 requires ("A consists for P % of
// B material").
func writeMatches(matches []simcore.Match, jsonOut bool) error {
	records := sink.MatchesToRecords(matches)
	if jsonOut {
		return sink.WriteJSON(os.Stdout, records)
	}
	return sink.WriteMatchesText(os.Stdout, records)
}
