// Package simcore implements the token-indexing and match-discovery engine
// of the similarity scanner: a contiguous Token Store and Text Registry, a
// two-sweep Forward-Reference Index, a Run Scanner that extends hash hits
// into maximal equal-token runs, a Run Collector, and a Percentage
// Aggregator.
//
// The package is single-threaded and its phases are strictly sequential:
// ingest (Store.Push / Store.RegisterText) → Build → a Run Scanner pass →
// Collector or Aggregator → report. Nothing here touches a filesystem, a
// network socket, or a language grammar — those are driver concerns
// (internal/lexer, internal/discover, internal/gitsource) that merely feed
// this package its Token stream.
package simcore

// Token is an opaque, small, bitwise-comparable integer. Its internal
// structure belongs entirely to the lexer collaborator; simcore only ever
// compares Tokens for equality and asks a StartPredicate whether a run may
// begin on one.
type Token uint32

// SeparatorToken is reserved by the driver to mark the single-token gap
// inserted between consecutive Texts (see Store.RegisterText). No lexer may
// intern a real token to this value; doing so would let a run silently
// span a file boundary.
const SeparatorToken Token = 0

// StartPredicate reports whether a match is allowed to begin on t — false
// for punctuation/whitespace classes, per the lexer contract (spec §3, §6).
// It must always return false for SeparatorToken.
type StartPredicate func(t Token) bool

// Text is the token range one input file occupies in the Store. New marks
// the file as belonging to the "new" partition in diff-since mode (spec
// SPEC_FULL.md §4.9, §4.10); it is always false in a plain scan or percent
// run, where the partition distinction does not apply.
type Text struct {
	Name  string
	Start uint64 // inclusive
	Limit uint64 // exclusive
	New   bool
}

// Len returns the number of tokens contributed by this Text.
func (t Text) Len() uint64 { return t.Limit - t.Start }

// Store is the append-only, contiguous Token array plus the Text Registry
// that partitions it into per-file ranges. Index 0 is a reserved sentinel;
// valid token positions start at 1. After Freeze the sequence is immutable
// for the remainder of the run.
type Store struct {
	tokens    []Token
	texts     []Text
	startPred StartPredicate
	frozen    bool
}

// maxTokens is the hard ceiling from spec §3 (N ≤ 2^40).
const maxTokens = uint64(1) << 40

// NewStore creates an empty Store. pred is the lexer's May_Be_Start_Of_Run
// predicate, consulted only during forward-reference construction.
func NewStore(pred StartPredicate) *Store {
	return &Store{
		tokens:    []Token{SeparatorToken}, // index 0: sentinel
		startPred: pred,
	}
}

// Push appends a token and returns the Store's new length. Pushing after
// Freeze is fatal (InternalInvariantViolation); pushing past the 2^40-token
// ceiling panics with a ResourceError.
func (s *Store) Push(t Token) uint64 {
	if s.frozen {
		panicInvariant("store-push-after-freeze", "Push called after Freeze")
	}
	if uint64(len(s.tokens)) >= maxTokens {
		panic(&ResourceError{What: "token store (2^40 token ceiling reached)"})
	}
	s.tokens = append(s.tokens, t)
	return uint64(len(s.tokens))
}

// Len returns the current number of positions in the Store, sentinel
// included (so Len() == N in spec's notation).
func (s *Store) Len() uint64 { return uint64(len(s.tokens)) }

// Get returns the token at position i. Out-of-range i is fatal (internal
// error): positions are always derived from earlier Store state by the
// core itself, so an out-of-range request indicates a bug, not bad input.
func (s *Store) Get(i uint64) Token {
	if i == 0 || i >= uint64(len(s.tokens)) {
		panicInvariant("store-oob-get", "position %d out of range [1,%d)", i, len(s.tokens))
	}
	return s.tokens[i]
}

// Range returns the k tokens starting at position i. Fatal if the window
// runs past the end of the Store.
func (s *Store) Range(i, k uint64) []Token {
	if i == 0 || i+k > uint64(len(s.tokens)) {
		panicInvariant("store-oob-range", "range [%d,%d) out of bounds (len=%d)", i, i+k, len(s.tokens))
	}
	return s.tokens[i : i+k]
}

// MayBeStartOfRun consults the lexer's predicate for the token at i.
func (s *Store) MayBeStartOfRun(i uint64) bool {
	return s.startPred(s.Get(i))
}

// Freeze forbids further Push calls. RegisterText does not require the
// Store to be frozen (texts are typically registered incrementally, one
// per file, interleaved with that file's pushes), but the Forward-Reference
// Index may only be built once ingestion as a whole is complete.
func (s *Store) Freeze() { s.frozen = true }

// Frozen reports whether Freeze has been called.
func (s *Store) Frozen() bool { return s.frozen }

// Texts returns the registered Text records in registration order.
func (s *Store) Texts() []Text { return s.texts }

// TextAt returns the Text whose range contains position p, or false if p
// falls in an inter-text separator gap or is out of range.
func (s *Store) TextAt(p uint64) (Text, bool) {
	// Linear scan over the registered Texts. ScanRuns and extend call this
	// for every chain candidate they examine.
	for _, t := range s.texts {
		if p >= t.Start && p < t.Limit {
			return t, true
		}
	}
	return Text{}, false
}

// RegisterText appends a Text record for a just-ingested file. start is
// the position the driver recorded as Store.Len() before it began pushing
// that file's tokens; limit is Store.Len() now, after pushing. This is the
// concrete reading of spec §4.1's "start must equal the current length at
// call time": the check is against registry continuity (where the next
// Text is expected to begin), not against the Store's present length,
// which by construction always equals limit once the file's tokens have
// been pushed. A single-token gap against the previous Text's limit is
// permitted, matching the one-sentinel-separator policy in SPEC_FULL.md
// §4.11.
func (s *Store) RegisterText(name string, start, limit uint64) Text {
	return s.registerText(name, start, limit, false)
}

// RegisterNewText is RegisterText for a file the driver has placed in the
// "new" partition of a diff-since comparison.
func (s *Store) RegisterNewText(name string, start, limit uint64) Text {
	return s.registerText(name, start, limit, true)
}

func (s *Store) registerText(name string, start, limit uint64, isNew bool) Text {
	if start > limit {
		panicInvariant("text-bad-range", "text %q: start %d > limit %d", name, start, limit)
	}
	if limit > s.Len() {
		panicInvariant("text-beyond-store", "text %q: limit %d exceeds store length %d", name, limit, s.Len())
	}

	expected := uint64(1)
	if n := len(s.texts); n > 0 {
		expected = s.texts[n-1].Limit
	}
	if start != expected && start != expected+1 {
		panicInvariant("text-registry-gap", "text %q: start %d does not continue from previous limit %d (at most a single-token gap is allowed)", name, start, expected)
	}

	t := Text{Name: name, Start: start, Limit: limit, New: isNew}
	s.texts = append(s.texts, t)
	return t
}
