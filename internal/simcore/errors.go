package simcore

import "fmt"

// ConfigurationError reports an invalid parameter supplied before any work
// began (bad Min_Run_Size, threshold outside 1..100, and similar). The
// driver should treat it as fatal and not attempt to run the scan.
type ConfigurationError struct {
	Field  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration error: %s: %s", e.Field, e.Reason)
}

// ResourceError reports an allocation failure for a structure other than
// the primary hash table. It is always fatal. The primary hash table steps
// down the prime schedule instead (see sweepPrimaryHash) and reports an
// InternalInvariantViolation once the whole schedule is exhausted.
type ResourceError struct {
	What string
	Err  error
}

func (e *ResourceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("resource error allocating %s: %v", e.What, e.Err)
	}
	return fmt.Sprintf("resource error allocating %s", e.What)
}

func (e *ResourceError) Unwrap() error { return e.Err }

// InternalInvariantViolation reports a core-internal bug: an out-of-range
// Store or forward-reference query, a primary hash table that could not be
// allocated at any size down to the smallest prime in the schedule, a Push
// after Freeze or an index built before Freeze, or a broken Text Registry
// invariant. Tag identifies which check failed. No check for chain cycles
// is made.
type InternalInvariantViolation struct {
	Tag    string
	Detail string
}

func (e *InternalInvariantViolation) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("internal error [%s]: %s", e.Tag, e.Detail)
	}
	return fmt.Sprintf("internal error [%s]", e.Tag)
}

// panicInvariant raises an InternalInvariantViolation as a panic. The core
// never attempts partial recovery (spec §7): a violated invariant aborts
// the run. Callers at the process boundary (cmd/simtool) recover panics of
// this type and turn them into a clean fatal exit.
func panicInvariant(tag, format string, args ...any) {
	panic(&InternalInvariantViolation{Tag: tag, Detail: fmt.Sprintf(format, args...)})
}
