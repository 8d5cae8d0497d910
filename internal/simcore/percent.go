package simcore

import (
	"math"
	"sort"
)

// Match is one directed percentage-mode record (spec §4.6): the fraction
// of FileA's tokens found reproduced in FileB. Two records exist per
// unordered file pair that shares a run — (A,B) and (B,A) — since each
// direction has its own size_a and is filtered against the threshold
// independently; a 100%/5% pair with threshold=10 keeps the 100% record
// and drops the 5% one, it does not keep or drop the pair as a whole.
type Match struct {
	FileA        string
	FileB        string
	Percent      float64 // floor(100*SharedTokens/size_a), capped at 100
	SharedTokens uint64
}

// BuildPercentages aggregates a completed run list into directed
// file-pair overlap records (spec §4.6 / original_source percentages.c),
// drops any record below cfg.ThresholdPercentage, and returns them in the
// printing pass's walk order: sorted by shared_tokens/size_a descending,
// then grouped so that every later record sharing a head's FileA follows
// it immediately (main_contributor_only keeps only the head per FileA).
func BuildPercentages(store *Store, runs []Run, cfg Config) ([]Match, error) {
	if err := cfg.Validate(true); err != nil {
		return nil, err
	}

	lengths := map[string]uint64{}
	isNew := map[string]bool{}
	for _, t := range store.Texts() {
		lengths[t.Name] += t.Len()
		if t.New {
			isNew[t.Name] = true
		}
	}

	type pairKey struct{ a, b string }
	shared := map[pairKey]uint64{}
	for _, r := range runs {
		na, nb := r.TextA.Name, r.TextB.Name
		if na == nb {
			continue // §4.6 aggregates only runs with distinct text_a != text_b
		}
		shared[pairKey{na, nb}] += uint64(r.Size)
		shared[pairKey{nb, na}] += uint64(r.Size)
	}

	type scored struct {
		Match
		ratio float64
	}
	all := make([]scored, 0, len(shared))
	for key, tokens := range shared {
		if cfg.NewVsOld && !isNew[key.a] {
			// Aggregation only records new->old and new->new directed
			// matches (SPEC_FULL.md §4.10); old->old never reaches here
			// since the scanner itself rejects those runs, but old->new
			// (subject old, object new) must be dropped here explicitly.
			continue
		}
		length := lengths[key.a]
		ratio := 0.0
		if length > 0 {
			ratio = float64(tokens) / float64(length)
		}
		p := math.Floor(ratio * 100)
		if p > 100 {
			p = 100
		}
		if cfg.ThresholdPercentage > 0 && p < float64(cfg.ThresholdPercentage) {
			continue
		}
		all = append(all, scored{
			Match: Match{FileA: key.a, FileB: key.b, Percent: p, SharedTokens: tokens},
			ratio: ratio,
		})
	}

	sort.SliceStable(all, func(i, j int) bool {
		if all[i].ratio != all[j].ratio {
			return all[i].ratio > all[j].ratio
		}
		if all[i].FileA != all[j].FileA {
			return all[i].FileA < all[j].FileA
		}
		return all[i].FileB < all[j].FileB
	})

	matches := make([]Match, len(all))
	for i, s := range all {
		matches[i] = s.Match
	}

	return groupBySubject(matches, cfg.MainContributorOnly), nil
}

// groupBySubject implements §4.6's printing walk: take the head record,
// keep it; then walk the remainder and keep every later record with the
// same FileA (unless mainContributorOnly), removing all of them from
// further consideration regardless, so each FileA surfaces exactly once
// as a subject.
func groupBySubject(matches []Match, mainContributorOnly bool) []Match {
	remaining := matches
	out := make([]Match, 0, len(matches))
	for len(remaining) > 0 {
		head := remaining[0]
		subject := head.FileA
		out = append(out, head)

		rest := remaining[:0:0]
		for _, m := range remaining[1:] {
			if m.FileA == subject {
				if !mainContributorOnly {
					out = append(out, m)
				}
				continue
			}
			rest = append(rest, m)
		}
		remaining = rest
	}
	return out
}
