package simcore

// Run is a maximal equal-token span shared by two positions in the Store
// (spec §3, §4.4). TextA/TextB and StartA/StartB name the two endpoints;
// Size is the run length in tokens. By convention (SPEC_FULL.md §4.12),
// when TextA == TextB the pair is stored with StartA < StartB.
type Run struct {
	TextA  Text
	StartA uint64
	TextB  Text
	StartB uint64
	Size   int
}

// RunCallback receives each maximal run as it is discovered. Returning
// false stops the scan early.
type RunCallback func(Run) bool

// ScanRuns walks every chain in fr, extends each hash hit into its maximal
// equal-token run, applies the policy filters from cfg, suppresses runs
// that are sub-runs of a run already reported starting earlier in the same
// chain position, and reports the survivors in Store order via cb.
//
// This is the original tool's single combined "extend, filter, suppress"
// loop (grounded on original_source's scan pass): there is no separate
// candidate list before filtering, because filtering a candidate out can
// never resurrect a position a later candidate has already covered.
func ScanRuns(store *Store, fr *ForwardRefs, cfg Config, cb RunCallback) error {
	if err := cfg.Validate(false); err != nil {
		return err
	}
	minRun := cfg.effectiveMinRunSize()
	n := store.Len()

	// coveredTo[d] is the rightmost position still covered by an
	// already-reported run lying on diagonal d = j-i. A later candidate at
	// (i2,j2) on the same diagonal (j2-i2 == d) is a sub-run of that run
	// whenever i2 < coveredTo[d], so it is skipped (spec invariant: no
	// reported run is a sub-run of another).
	coveredTo := make(map[int64]uint64, n/4)

	for i := uint64(1); i+uint64(minRun) <= n; i++ {
		if !store.MayBeStartOfRun(i) {
			continue
		}
		for j := fr.Next(i); j != 0; j = fr.Next(j) {
			diag := int64(j) - int64(i)
			if to, ok := coveredTo[diag]; ok && i < to {
				continue
			}

			size := extend(store, i, j)
			if size < minRun {
				continue
			}

			a, b := i, j
			textA, okA := store.TextAt(a)
			textB, okB := store.TextAt(b)
			if !okA || !okB {
				continue
			}
			if !passesPolicy(cfg, textA, textB, a, b) {
				continue
			}
			coveredTo[diag] = i + uint64(size)

			if textA.Name == textB.Name && a > b {
				a, b = b, a
				textA, textB = textB, textA
			}

			run := Run{TextA: textA, StartA: a, TextB: textB, StartB: b, Size: size}
			if !cb(run) {
				return nil
			}
		}
	}
	return nil
}

// extend walks forward from i and j while tokens agree and both positions
// remain inside their respective Texts, returning the resulting run
// length. The Forward-Reference Index links positions whose sampled hashes
// agree, which does not guarantee that all of their first Min_Run_Size
// tokens agree, so extend can return fewer than Min_Run_Size; ScanRuns
// discards such candidates.
func extend(store *Store, i, j uint64) int {
	ti, okI := store.TextAt(i)
	tj, okJ := store.TextAt(j)
	if !okI || !okJ {
		return 0
	}
	size := 0
	for i+uint64(size) < ti.Limit && j+uint64(size) < tj.Limit {
		if store.Get(i+uint64(size)) != store.Get(j+uint64(size)) {
			break
		}
		size++
	}
	return size
}

// passesPolicy applies SeparateEach, NoSelf and NewVsOld (see Config) to a
// candidate pair of endpoints.
func passesPolicy(cfg Config, a, b Text, posA, posB uint64) bool {
	sameFile := a.Name == b.Name
	if sameFile && posA == posB {
		return false // a position never matches itself
	}
	if (cfg.NoSelf || cfg.SeparateEach) && sameFile {
		return false
	}
	if cfg.NewVsOld && !a.New && !b.New {
		return false // old-vs-old is excluded entirely in diff-since mode
	}
	return true
}
