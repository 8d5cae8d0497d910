// Package gitsource reads file contents out of a git repository's object
// store at a given revision without checking it out to disk, so
// "diff-since" comparisons can tokenize both the working tree and an old
// revision from the same process.
package gitsource

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// Blob is one file's content as it existed at a revision.
type Blob struct {
	Path    string
	Content []byte
}

// Repo wraps a go-git repository opened for read-only blob access.
type Repo struct {
	repo *git.Repository
	root string
}

// Open opens the git repository containing (or rooted at) dir.
func Open(dir string) (*Repo, error) {
	repo, err := git.PlainOpenWithOptions(dir, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return nil, fmt.Errorf("gitsource: open %s: %w", dir, err)
	}
	wt, err := repo.Worktree()
	root := dir
	if err == nil {
		root = wt.Filesystem.Root()
	}
	return &Repo{repo: repo, root: root}, nil
}

// Root returns the repository's working tree root.
func (r *Repo) Root() string { return r.root }

// FilesAt returns every regular file tracked in the tree at rev, with
// paths relative to the repository root. lang is resolved by the caller
// (internal/discover.Matcher has no notion of a git tree); FilesAt only
// walks the tree and reads blobs.
func (r *Repo) FilesAt(rev string) ([]Blob, error) {
	hash, err := r.repo.ResolveRevision(plumbing.Revision(rev))
	if err != nil {
		return nil, fmt.Errorf("gitsource: resolve %q: %w", rev, err)
	}
	commit, err := r.repo.CommitObject(*hash)
	if err != nil {
		return nil, fmt.Errorf("gitsource: commit %s: %w", hash, err)
	}
	tree, err := commit.Tree()
	if err != nil {
		return nil, fmt.Errorf("gitsource: tree at %s: %w", hash, err)
	}

	var blobs []Blob
	walker := object.NewTreeWalker(tree, true, nil)
	defer walker.Close()
	for {
		name, entry, err := walker.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("gitsource: walk tree at %s: %w", hash, err)
		}
		if !entry.Mode.IsFile() {
			continue
		}
		blob, err := object.GetBlob(r.repo.Storer, entry.Hash)
		if err != nil {
			return nil, fmt.Errorf("gitsource: read blob %s: %w", name, err)
		}
		content, err := readBlob(blob)
		if err != nil {
			return nil, fmt.Errorf("gitsource: read blob %s: %w", name, err)
		}
		blobs = append(blobs, Blob{Path: filepath.ToSlash(name), Content: content})
	}
	return blobs, nil
}

func readBlob(blob *object.Blob) ([]byte, error) {
	r, err := blob.Reader()
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return io.ReadAll(r)
}

// ExtensionLang is a small shim so callers can derive a language name from
// a blob path the same way internal/discover does for disk files, without
// importing internal/grammar here (keeping gitsource's own import graph
// free of the tokenizer's grammar registry).
func ExtensionLang(path string, byExt func(ext string) string) string {
	ext := strings.TrimPrefix(filepath.Ext(path), ".")
	return byExt(ext)
}
