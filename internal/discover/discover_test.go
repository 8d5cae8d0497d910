package discover

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/jmylchreest/simtool/internal/grammar"
)

func TestBuiltinDefaults(t *testing.T) {
	dir := t.TempDir()
	m, err := NewMatcher(dir, "")
	if err != nil {
		t.Fatal(err)
	}

	dirs := []string{"node_modules", "vendor", "dist", "__pycache__", ".git"}
	for _, d := range dirs {
		if !m.ShouldIgnore(d, true) {
			t.Errorf("expected directory %q to be ignored by defaults", d)
		}
	}

	files := []string{"widget.pb.go", "schema_generated.go", "api.gen.go", "go.sum.lock"}
	for _, f := range files {
		if !m.ShouldIgnore(f, false) {
			t.Errorf("expected file %q to be ignored by defaults", f)
		}
	}

	okFiles := []string{"main.go", "server.py", "index.ts"}
	for _, f := range okFiles {
		if m.ShouldIgnore(f, false) {
			t.Errorf("expected file %q to NOT be ignored by defaults", f)
		}
	}
}

func TestDirOnlyPattern(t *testing.T) {
	m := &Matcher{}
	m.rules = append(m.rules, parsePattern("build/"))

	if m.ShouldIgnore("build", false) {
		t.Error("dir-only pattern 'build/' should not match a file named build")
	}
	if !m.ShouldIgnore("build", true) {
		t.Error("dir-only pattern 'build/' should match a directory named build")
	}
}

func TestNegation(t *testing.T) {
	m := &Matcher{}
	m.rules = append(m.rules, parsePattern("*.pb.go"))
	m.rules = append(m.rules, parsePattern("!important.pb.go"))

	if !m.ShouldIgnore("foo.pb.go", false) {
		t.Error("expected foo.pb.go to be ignored")
	}
	if m.ShouldIgnore("important.pb.go", false) {
		t.Error("expected important.pb.go to be un-ignored by negation")
	}
}

func TestAnchoredPattern(t *testing.T) {
	m := &Matcher{}
	m.rules = append(m.rules, parsePattern("/rootfile.txt"))

	if !m.ShouldIgnore("rootfile.txt", false) {
		t.Error("expected anchored pattern to match root file")
	}
	if m.ShouldIgnore("sub/rootfile.txt", false) {
		t.Error("expected anchored pattern to NOT match nested file")
	}
}

func TestUnanchoredDeepMatch(t *testing.T) {
	m := &Matcher{}
	m.rules = append(m.rules, parsePattern("*.log"))

	if !m.ShouldIgnore("error.log", false) {
		t.Error("expected *.log to match root-level file")
	}
	if !m.ShouldIgnore("logs/error.log", false) {
		t.Error("expected *.log to match nested file")
	}
}

func TestUnanchoredDirChildFiles(t *testing.T) {
	dir := t.TempDir()
	m, err := NewMatcher(dir, "")
	if err != nil {
		t.Fatal(err)
	}

	if !m.ShouldIgnore("node_modules/express/index.js", false) {
		t.Error("expected file inside node_modules to be ignored at any depth")
	}
	if !m.ShouldIgnore("packages/app/node_modules/lodash/lodash.js", false) {
		t.Error("expected file inside nested node_modules to be ignored")
	}
}

func TestLoadCustomIgnoreFile(t *testing.T) {
	dir := t.TempDir()
	content := "# project specific\n*.generated.ts\ntestdata/\n!testdata/important.txt\n/config.local.yaml\n"
	if err := os.WriteFile(filepath.Join(dir, ".simignore"), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	m, err := NewMatcher(dir, "")
	if err != nil {
		t.Fatal(err)
	}

	if !m.ShouldIgnore("foo.generated.ts", false) {
		t.Error("expected *.generated.ts to be ignored")
	}
	if !m.ShouldIgnore("testdata", true) {
		t.Error("expected testdata/ to be ignored")
	}
	if m.ShouldIgnore("testdata/important.txt", false) {
		t.Error("expected testdata/important.txt to be un-ignored by negation")
	}
	if !m.ShouldIgnore("config.local.yaml", false) {
		t.Error("expected /config.local.yaml to match root file")
	}
	if m.ShouldIgnore("sub/config.local.yaml", false) {
		t.Error("expected /config.local.yaml to NOT match nested file")
	}
	if !m.ShouldIgnore("node_modules", true) {
		t.Error("expected builtins to still apply alongside custom rules")
	}
}

func TestCustomIgnoreFileName(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, ".customignore"), []byte("*.bak\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	m, err := NewMatcher(dir, ".customignore")
	if err != nil {
		t.Fatal(err)
	}
	if !m.ShouldIgnore("draft.bak", false) {
		t.Error("expected the named ignore file to be consulted instead of .simignore")
	}
}

func TestMissingIgnoreFileUsesDefaults(t *testing.T) {
	dir := t.TempDir()
	m, err := NewMatcher(dir, "")
	if err != nil {
		t.Fatal(err)
	}
	if !m.ShouldIgnore("vendor", true) {
		t.Error("expected builtin defaults to apply even with no ignore file present")
	}
}

func TestWalkSkipsIgnoredDirectories(t *testing.T) {
	dir := t.TempDir()
	mustWriteFile(t, filepath.Join(dir, "main.go"), "package main\n")
	mustMkdir(t, filepath.Join(dir, "vendor"))
	mustWriteFile(t, filepath.Join(dir, "vendor", "dep.go"), "package dep\n")
	mustMkdir(t, filepath.Join(dir, "sub"))
	mustWriteFile(t, filepath.Join(dir, "sub", "helper.go"), "package sub\n")

	m, err := NewMatcher(dir, "")
	if err != nil {
		t.Fatal(err)
	}
	reg := grammar.NewRegistry()

	files, err := Walk(dir, m, reg)
	if err != nil {
		t.Fatal(err)
	}

	var rels []string
	for _, f := range files {
		rels = append(rels, f.Rel)
	}
	wantPresent := map[string]bool{"main.go": true, "sub/helper.go": true}
	for want := range wantPresent {
		found := false
		for _, r := range rels {
			if r == want {
				found = true
			}
		}
		if !found {
			t.Errorf("expected %s to be discovered, got %v", want, rels)
		}
	}
	for _, r := range rels {
		if r == "vendor/dep.go" {
			t.Errorf("expected vendor/ to be pruned, but found %s", r)
		}
	}
}

func mustWriteFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func mustMkdir(t *testing.T, path string) {
	t.Helper()
	if err := os.Mkdir(path, 0o755); err != nil {
		t.Fatal(err)
	}
}
