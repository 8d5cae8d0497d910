// Package discover walks a source tree, applies gitignore-style ignore
// rules, and resolves each surviving file to the grammar that can tokenize
// it. Pattern matching is delegated to doublestar instead of the
// hand-rolled segment-by-segment glob the tool this package was adapted
// from used, since doublestar already implements "**" correctly.
package discover

import (
	"bufio"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/jmylchreest/simtool/internal/grammar"
)

// BuiltinDefaults are ignore patterns applied even without a .simignore
// file: build artifacts, dependency caches, and vendor trees that would
// otherwise dominate a similarity scan with boilerplate.
var BuiltinDefaults = []string{
	".git/", ".svn/", ".hg/",
	"node_modules/", "dist/", ".next/", ".nuxt/", "coverage/", ".cache/",
	"__pycache__/", ".venv/", "venv/", ".tox/", ".mypy_cache/", ".pytest_cache/",
	"*.egg-info/", "site-packages/",
	"vendor/",
	"target/",
	"build/", ".gradle/", "out/",
	"cmake-build-debug/", "cmake-build-release/", ".cmake/", ".deps/",
	"bin/", "obj/",
	"_build/", "deps/",
	".idea/", ".vscode/",
	".DS_Store",
	"*.pb.go", "*_generated.go", "*.gen.go",
	"**/testdata/", "**/fixtures/",
	"*.lock",
}

type rule struct {
	pattern  string
	negation bool
	dirOnly  bool
	anchored bool
}

// Matcher tests whether a path (relative to the scan root) should be
// skipped.
type Matcher struct {
	rules []rule
}

// DefaultIgnoreFile is the ignore-rule file name consulted when the driver
// does not override it (internal/config's "ignore_file" setting).
const DefaultIgnoreFile = ".simignore"

// NewMatcher builds a Matcher from BuiltinDefaults plus, if present, an
// ignore file named ignoreFile at the root of root. An empty ignoreFile
// falls back to DefaultIgnoreFile.
func NewMatcher(root, ignoreFile string) (*Matcher, error) {
	if ignoreFile == "" {
		ignoreFile = DefaultIgnoreFile
	}
	m := &Matcher{}
	for _, p := range BuiltinDefaults {
		m.rules = append(m.rules, parsePattern(p))
	}
	if err := m.loadFile(filepath.Join(root, ignoreFile)); err != nil && !os.IsNotExist(err) {
		return nil, err
	}
	return m, nil
}

func (m *Matcher) loadFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	s := bufio.NewScanner(f)
	for s.Scan() {
		line := strings.TrimSpace(s.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		m.rules = append(m.rules, parsePattern(line))
	}
	return s.Err()
}

func parsePattern(pattern string) rule {
	var r rule
	if strings.HasPrefix(pattern, "!") {
		r.negation = true
		pattern = pattern[1:]
	}
	if strings.HasSuffix(pattern, "/") {
		r.dirOnly = true
		pattern = strings.TrimSuffix(pattern, "/")
	}
	if strings.HasPrefix(pattern, "/") {
		r.anchored = true
		pattern = strings.TrimPrefix(pattern, "/")
	}
	if !r.anchored && strings.Contains(pattern, "/") {
		r.anchored = true
	}
	r.pattern = pattern
	return r
}

func (r rule) match(path string) bool {
	base := path
	if i := strings.LastIndex(path, "/"); i >= 0 {
		base = path[i+1:]
	}
	if r.anchored {
		ok, _ := doublestar.Match(r.pattern, path)
		return ok
	}
	if ok, _ := doublestar.Match(r.pattern, base); ok {
		return true
	}
	ok, _ := doublestar.Match("**/"+r.pattern, path)
	return ok
}

// ShouldIgnore reports whether path (forward-slashed, relative to the scan
// root, no trailing slash) should be skipped. isDir must be true for
// directories.
func (m *Matcher) ShouldIgnore(path string, isDir bool) bool {
	path = filepath.ToSlash(strings.TrimSuffix(path, "/"))
	if path == "" || path == "." {
		return false
	}

	ignored, matched := false, false
	for _, r := range m.rules {
		if r.dirOnly && !isDir {
			continue
		}
		if r.match(path) {
			ignored = !r.negation
			matched = true
		}
	}
	if ignored || matched {
		return ignored
	}

	if !isDir {
		parts := strings.Split(path, "/")
		for i := 1; i < len(parts); i++ {
			if m.ShouldIgnore(strings.Join(parts[:i], "/"), true) {
				return true
			}
		}
	}
	return false
}

// File is one discovered source file, resolved to the grammar that can
// tokenize it.
type File struct {
	Path string // absolute path
	Rel  string // slash-separated, relative to the scan root
	Lang string
}

// Walk enumerates every file under root not excluded by m and recognized
// by reg, in deterministic (lexical) order.
func Walk(root string, m *Matcher, reg *grammar.Registry) ([]File, error) {
	var files []File
	err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			rel = path
		}
		rel = filepath.ToSlash(rel)

		if d.IsDir() {
			if rel != "." && m.ShouldIgnore(rel, true) {
				return filepath.SkipDir
			}
			return nil
		}
		if m.ShouldIgnore(rel, false) {
			return nil
		}

		ext := strings.TrimPrefix(filepath.Ext(path), ".")
		lang := grammar.ByExtension(ext)
		if lang == "" || !reg.Has(lang) {
			return nil
		}
		files = append(files, File{Path: path, Rel: rel, Lang: lang})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}
