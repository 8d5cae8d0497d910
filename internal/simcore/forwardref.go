package simcore

// ForwardRefs is the Forward-Reference Array (spec §3, §4.3): for every
// position p, Next(p) is the next position whose Min_Run_Size-token window
// is hash-equivalent under both the primary and secondary hash, or 0.
//
// Construction is two sweeps over the frozen Token Store:
//
//  1. a primary, modular hash (hash1) buckets positions into chains via a
//     transient hash table sized to a prime just above N;
//  2. a secondary, wide hash (hash2) is used as a representative to
//     short-circuit each chain past any bucket collisions.
//
// Both hashes sample a fixed N_SAMPLES offsets inside the match window so
// their cost never depends on Min_Run_Size (see SPEC_FULL.md / original
// hash.c).
type ForwardRefs struct {
	fr []uint64
}

// nSamples is the number of sampled token offsets used by both hash
// functions (spec §4.3).
const nSamples = 24

// hashWidth is HASH_W in the original: hash1's type is a 32-bit word whose
// top bit is always kept clear so that h mod M stays unbiased even when M
// is close to 2^31.
const hashWidth = 32

// primeSchedule lists primes of the form 4i+3, each more than twice the
// previous, bounded below 2^40 — copied verbatim from the original tool's
// hash table sizing schedule.
var primeSchedule = []uint64{
	14051, 28111, 56239, 112507, 225023, 450067, 900139, 1800311,
	3600659, 7201351, 14402743, 28805519, 57611039, 115222091,
	230444239, 460888499, 921777067, 1843554151, 3687108307,
	7374216631, 14748433279, 29496866579, 58993733159, 117987466379,
	235974932759, 471949865531, 943899731087,
}

// testAllocCap, when non-zero, makes tryAllocTable fail for sizes above it.
// It exists only so forwardref_test.go can exercise the progressive
// downsizing path deterministically without allocating real terabyte
// tables.
var testAllocCap uint64

func tryAllocTable(size uint64) ([]uint64, bool) {
	if testAllocCap != 0 && size > testAllocCap {
		return nil, false
	}
	return make([]uint64, size), true
}

// samplePositions computes the N_SAMPLES offsets inside [0, minRun) using
// the original's straight-line approximation. Offsets may repeat when
// minRun < nSamples.
func samplePositions(minRun int) [nSamples]uint64 {
	var pos [nSamples]uint64
	for n := 0; n < nSamples; n++ {
		pos[n] = uint64((2*n*(minRun-1) + (nSamples - 1)) / (2 * (nSamples - 1)))
	}
	return pos
}

// hash1 computes the primary, modular hash of the minRun-token window
// starting at window[0], sampled at the given offsets. The circular-shift
// discipline guarantees bit (hashWidth-1) is always 0.
func hash1(window []Token, pos [nSamples]uint64) uint32 {
	var h uint32
	const top = uint32(1) << (hashWidth - 1)
	for n := 0; n < nSamples; n++ {
		h <<= 1
		if h&top != 0 {
			h ^= top | 1
		}
		h ^= uint32(window[pos[n]])
	}
	return h
}

// hash2 computes the secondary, wide representative hash used to filter
// spurious hash1 collisions off a chain. It XORs five samples (the
// endpoints and interior quarters of the sample array) into five staggered
// bit positions of a 64-bit word.
func hash2(window []Token, pos [nSamples]uint64) uint64 {
	const w = 64
	last := nSamples - 1
	var h uint64
	h ^= uint64(window[pos[0]]) << 0
	h ^= uint64(window[pos[last]]) << (w * 1 / 5)
	h ^= uint64(window[pos[last/2]]) << (w * 2 / 5)
	h ^= uint64(window[pos[last*1/4]]) << (w * 3 / 5)
	h ^= uint64(window[pos[last*3/4]]) << (w * 4 / 5)
	return h
}

// BuildForwardReferences constructs the Forward-Reference Array for a
// frozen Store. The caller must have called Validate on cfg (percentage
// mode irrelevant here) and Store.Freeze beforehand.
func BuildForwardReferences(store *Store, cfg Config) (*ForwardRefs, error) {
	if err := cfg.Validate(false); err != nil {
		return nil, err
	}
	if !store.Frozen() {
		return nil, &InternalInvariantViolation{Tag: "build-before-freeze", Detail: "BuildForwardReferences called on an unfrozen Store"}
	}

	minRun := cfg.effectiveMinRunSize()
	n := store.Len()
	fr := make([]uint64, n) // fr[0] = 0, the sentinel, by zero-value

	pos := samplePositions(minRun)

	if err := sweepPrimaryHash(store, fr, minRun, pos); err != nil {
		return nil, err
	}
	sweepSecondaryHash(store, fr, minRun, pos)

	return &ForwardRefs{fr: fr}, nil
}

// sweepPrimaryHash is sweep 1: bucket every eligible position by hash1 into
// chains threaded through fr, one chain per bucket, in ascending order.
func sweepPrimaryHash(store *Store, fr []uint64, minRun int, pos [nSamples]uint64) error {
	n := store.Len()

	// Find the smallest schedule prime >= n.
	idx := 0
	for idx < len(primeSchedule)-1 && primeSchedule[idx] < n {
		idx++
	}

	var lastIndex []uint64
	var tableSize uint64
	for ; idx >= 0; idx-- {
		size := primeSchedule[idx]
		if table, ok := tryAllocTable(size); ok {
			lastIndex = table
			tableSize = size
			break
		}
	}
	if lastIndex == nil {
		return &InternalInvariantViolation{Tag: "hash-table-exhausted", Detail: "no primary hash table size in the prime schedule could be allocated"}
	}

	for _, txt := range store.Texts() {
		if txt.Len() < uint64(minRun) {
			continue
		}
		// last is the final valid window-start position: the window
		// [j, j+minRun) must stay within the text, so j may go up to and
		// including txt.Limit-minRun.
		last := txt.Limit - uint64(minRun)
		for j := txt.Start; j <= last; j++ {
			if !store.MayBeStartOfRun(j) {
				continue
			}
			window := store.Range(j, uint64(minRun))
			h := uint64(hash1(window, pos)) % tableSize
			if lastIndex[h] != 0 {
				fr[lastIndex[h]] = j
			}
			lastIndex[h] = j
		}
	}
	return nil
}

// sweepSecondaryHash is sweep 2: for each i, walk its hash1 chain and
// short-circuit fr[i] to the first position whose hash2 representative
// agrees, or to 0. The walk only ever shortens i's own view of the chain;
// it never touches downstream nodes' entries, so disjointness (spec
// invariant 3) is preserved.
func sweepSecondaryHash(store *Store, fr []uint64, minRun int, pos [nSamples]uint64) {
	n := store.Len()
	for i := uint64(1); i+uint64(minRun) <= n; i++ {
		h2 := hash2(store.Range(i, uint64(minRun)), pos)
		j := fr[i]
		for j != 0 && hash2(store.Range(j, uint64(minRun)), pos) != h2 {
			j = fr[j]
		}
		fr[i] = j
	}
}

// Next returns fr[i]. Out-of-range i is fatal (internal error): the core
// only ever queries positions it derived itself from a frozen Store of
// the same length the array was built against.
func (f *ForwardRefs) Next(i uint64) uint64 {
	if i == 0 || i >= uint64(len(f.fr)) {
		panicInvariant("forwardref-oob", "position %d out of range [1,%d)", i, len(f.fr))
	}
	return f.fr[i]
}

// Free releases the array's backing storage.
func (f *ForwardRefs) Free() { f.fr = nil }

// Len reports the size of the underlying array (equal to the Store length
// it was built from).
func (f *ForwardRefs) Len() uint64 { return uint64(len(f.fr)) }
