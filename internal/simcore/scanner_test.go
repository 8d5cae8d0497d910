package simcore

import "testing"

func TestScanRunsCanonicalDirectionWithinSameFile(t *testing.T) {
	store, _ := buildSingleFile("a.go", toks(1, 2, 3, 9, 1, 2, 3))
	runs := scanAll(t, store, Config{MinRunSize: 3})
	if len(runs) != 1 {
		t.Fatalf("got %d runs, want 1: %+v", len(runs), runs)
	}
	if runs[0].StartA >= runs[0].StartB {
		t.Errorf("run %+v violates StartA < StartB canonical ordering", runs[0])
	}
}

func TestScanRunsNoSelfSuppressesSameFileMatches(t *testing.T) {
	store, _ := buildSingleFile("a.go", toks(1, 2, 3, 9, 1, 2, 3))
	runs := scanAll(t, store, Config{MinRunSize: 3, NoSelf: true})
	if len(runs) != 0 {
		t.Fatalf("got %d runs with NoSelf, want 0: %+v", len(runs), runs)
	}
}

func TestScanRunsCrossFileMatch(t *testing.T) {
	store := buildTwoFiles("a.go", toks(1, 2, 3, 4, 5), "b.go", toks(9, 1, 2, 3, 4, 5, 9))
	runs := scanAll(t, store, Config{MinRunSize: 3})
	if len(runs) != 1 {
		t.Fatalf("got %d runs, want 1: %+v", len(runs), runs)
	}
	r := runs[0]
	if r.Size != 5 {
		t.Fatalf("run size = %d, want 5 (maximal extension)", r.Size)
	}
	if r.TextA.Name == r.TextB.Name {
		t.Fatalf("expected a cross-file run, got both endpoints in %s", r.TextA.Name)
	}
}

func TestScanRunsSubRunSuppressed(t *testing.T) {
	// The run at offset 0 (length 6) subsumes what would otherwise be a
	// second, shorter run reported from offset 1 of the same repeat; only
	// the maximal run should survive.
	store := buildTwoFiles("a.go", toks(1, 2, 3, 4, 5, 6), "b.go", toks(1, 2, 3, 4, 5, 6))
	runs := scanAll(t, store, Config{MinRunSize: 3})
	if len(runs) != 1 {
		t.Fatalf("got %d runs, want 1 maximal run (no sub-run duplicates): %+v", len(runs), runs)
	}
	if runs[0].Size != 6 {
		t.Fatalf("run size = %d, want 6", runs[0].Size)
	}
}

func TestScanRunsNewVsOldExcludesOldOld(t *testing.T) {
	store := NewStore(allowAll)
	for _, tk := range toks(1, 2, 3, 4) {
		store.Push(tk)
	}
	store.RegisterText("old1.go", 1, store.Len())
	store.Push(SeparatorToken)
	start := store.Len()
	for _, tk := range toks(1, 2, 3, 4) {
		store.Push(tk)
	}
	store.RegisterText("old2.go", start, store.Len())
	store.Freeze()

	runs := scanAll(t, store, Config{MinRunSize: 3, NewVsOld: true})
	if len(runs) != 0 {
		t.Fatalf("got %d runs between two old files under NewVsOld, want 0: %+v", len(runs), runs)
	}
}

func TestScanRunsNewVsOldKeepsNewOld(t *testing.T) {
	store := NewStore(allowAll)
	for _, tk := range toks(1, 2, 3, 4) {
		store.Push(tk)
	}
	store.RegisterText("old.go", 1, store.Len())
	store.Push(SeparatorToken)
	start := store.Len()
	for _, tk := range toks(1, 2, 3, 4) {
		store.Push(tk)
	}
	store.RegisterNewText("new.go", start, store.Len())
	store.Freeze()

	runs := scanAll(t, store, Config{MinRunSize: 3, NewVsOld: true})
	if len(runs) != 1 {
		t.Fatalf("got %d runs between an old and a new file under NewVsOld, want 1: %+v", len(runs), runs)
	}
}
