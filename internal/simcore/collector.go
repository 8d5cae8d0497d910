package simcore

import "sort"

// Collector accumulates Runs from a scan and hands them back sorted by
// size descending, then by (TextA.Name, StartA) ascending — the order the
// original tool's report pass prints matches in (largest, most interesting
// matches first).
type Collector struct {
	runs []Run
}

// NewCollector returns an empty Collector.
func NewCollector() *Collector { return &Collector{} }

// Add implements RunCallback; pass c.Add directly to ScanRuns.
func (c *Collector) Add(r Run) bool {
	c.runs = append(c.runs, r)
	return true
}

// Runs returns the accumulated runs, sorted.
func (c *Collector) Runs() []Run {
	sort.SliceStable(c.runs, func(i, j int) bool {
		a, b := c.runs[i], c.runs[j]
		if a.Size != b.Size {
			return a.Size > b.Size
		}
		if a.TextA.Name != b.TextA.Name {
			return a.TextA.Name < b.TextA.Name
		}
		return a.StartA < b.StartA
	})
	return c.runs
}

// Len reports how many runs have been collected so far.
func (c *Collector) Len() int { return len(c.runs) }
