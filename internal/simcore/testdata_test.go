package simcore

// buildSingleFile pushes toks as one Text named name into a fresh, frozen
// Store using the always-may-start predicate, returning the Store and its
// Text record. Shared by forwardref_test.go, scanner_test.go and
// percent_test.go to keep the scenario tables from spec §8 terse.
func buildSingleFile(name string, toks []Token) (*Store, Text) {
	s := NewStore(allowAll)
	for _, t := range toks {
		s.Push(t)
	}
	txt := s.RegisterText(name, 1, s.Len())
	s.Freeze()
	return s, txt
}

// buildTwoFiles pushes a as one Text and b as a second Text, separated by
// one SeparatorToken, into a fresh frozen Store.
func buildTwoFiles(nameA string, a []Token, nameB string, b []Token) *Store {
	s := NewStore(allowAll)
	for _, t := range a {
		s.Push(t)
	}
	s.RegisterText(nameA, 1, s.Len())
	s.Push(SeparatorToken)
	start := s.Len() // position the first token of b will land at
	for _, t := range b {
		s.Push(t)
	}
	s.RegisterText(nameB, start, s.Len())
	s.Freeze()
	return s
}

func scanAll(t interface {
	Fatalf(string, ...any)
}, store *Store, cfg Config) []Run {
	fr, err := BuildForwardReferences(store, cfg)
	if err != nil {
		t.Fatalf("BuildForwardReferences: %v", err)
	}
	c := NewCollector()
	if err := ScanRuns(store, fr, cfg, c.Add); err != nil {
		t.Fatalf("ScanRuns: %v", err)
	}
	return c.Runs()
}
