package gitsource

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
)

func initRepoWithTwoCommits(t *testing.T) (dir, oldRev string) {
	t.Helper()
	dir = t.TempDir()

	repo, err := git.PlainInit(dir, false)
	if err != nil {
		t.Fatal(err)
	}
	wt, err := repo.Worktree()
	if err != nil {
		t.Fatal(err)
	}
	sig := &object.Signature{Name: "tester", Email: "tester@example.com", When: time.Unix(0, 0)}

	mustWrite := func(rel, content string) {
		path := filepath.Join(dir, rel)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
		if _, err := wt.Add(rel); err != nil {
			t.Fatal(err)
		}
	}

	mustWrite("src/main.go", "package main\nfunc main() {}\n")
	h1, err := wt.Commit("initial", &git.CommitOptions{Author: sig})
	if err != nil {
		t.Fatal(err)
	}

	mustWrite("src/main.go", "package main\nfunc main() { println(1) }\n")
	if _, err := wt.Commit("second", &git.CommitOptions{Author: sig}); err != nil {
		t.Fatal(err)
	}

	return dir, h1.String()
}

func TestFilesAtReadsHistoricalBlob(t *testing.T) {
	dir, oldRev := initRepoWithTwoCommits(t)

	repo, err := Open(dir)
	if err != nil {
		t.Fatal(err)
	}

	blobs, err := repo.FilesAt(oldRev)
	if err != nil {
		t.Fatal(err)
	}
	if len(blobs) != 1 {
		t.Fatalf("expected 1 tracked file at the first commit, got %d", len(blobs))
	}
	if blobs[0].Path != "src/main.go" {
		t.Errorf("expected path src/main.go, got %q", blobs[0].Path)
	}
	if string(blobs[0].Content) != "package main\nfunc main() {}\n" {
		t.Errorf("expected the first commit's content, got %q", blobs[0].Content)
	}
}

func TestFilesAtHead(t *testing.T) {
	dir, _ := initRepoWithTwoCommits(t)

	repo, err := Open(dir)
	if err != nil {
		t.Fatal(err)
	}

	blobs, err := repo.FilesAt("HEAD")
	if err != nil {
		t.Fatal(err)
	}
	if len(blobs) != 1 {
		t.Fatalf("expected 1 tracked file at HEAD, got %d", len(blobs))
	}
	if string(blobs[0].Content) != "package main\nfunc main() { println(1) }\n" {
		t.Errorf("expected the second commit's content at HEAD, got %q", blobs[0].Content)
	}
}

func TestExtensionLang(t *testing.T) {
	byExt := func(ext string) string {
		if ext == "go" {
			return "go"
		}
		return ""
	}
	if got := ExtensionLang("src/main.go", byExt); got != "go" {
		t.Errorf("ExtensionLang(src/main.go) = %q, want go", got)
	}
	if got := ExtensionLang("README.md", byExt); got != "" {
		t.Errorf("ExtensionLang(README.md) = %q, want empty", got)
	}
}

func TestOpenUnresolvableRevisionErrors(t *testing.T) {
	dir, _ := initRepoWithTwoCommits(t)
	repo, err := Open(dir)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := repo.FilesAt("does-not-exist"); err == nil {
		t.Error("expected an error resolving a nonexistent revision")
	}
}
