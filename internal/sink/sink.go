// Package sink formats a completed scan's runs and percentage matches for
// a terminal (tablewriter for runs, the spec's literal line template for
// percentages) or a script (JSON), the output shapes SPEC_FULL.md's CLI
// surface commits to.
package sink

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/olekukonko/tablewriter"

	"github.com/jmylchreest/simtool/internal/simcore"
)

// RunRecord and MatchRecord are the JSON/table wire shapes — deliberately
// narrower than simcore.Run/Match, which carry full Text records (absolute
// Start/Limit, the New partition flag) that are the engine's business, not
// a report's.
type RunRecord struct {
	FileA  string `json:"file_a"`
	LineA  int    `json:"line_a,omitempty"`
	FileB  string `json:"file_b"`
	LineB  int    `json:"line_b,omitempty"`
	Tokens int    `json:"tokens"`
}

// MatchRecord is one directed percentage record (FileA's coverage inside
// FileB), mirroring simcore.Match.
type MatchRecord struct {
	FileA        string  `json:"file_a"`
	FileB        string  `json:"file_b"`
	Percent      float64 `json:"percent"`
	SharedTokens uint64  `json:"shared_tokens"`
}

// RunsToRecords projects a Run list, translating each endpoint's Store
// position back to a file-relative offset. lineOf looks up the source
// line for a (file, relative-offset) pair; pass nil to omit line numbers.
func RunsToRecords(runs []simcore.Run, lineOf func(file string, relOffset uint64) int) []RunRecord {
	out := make([]RunRecord, 0, len(runs))
	for _, r := range runs {
		rec := RunRecord{
			FileA:  r.TextA.Name,
			FileB:  r.TextB.Name,
			Tokens: r.Size,
		}
		if lineOf != nil {
			rec.LineA = lineOf(r.TextA.Name, r.StartA-r.TextA.Start)
			rec.LineB = lineOf(r.TextB.Name, r.StartB-r.TextB.Start)
		}
		out = append(out, rec)
	}
	return out
}

// MatchesToRecords projects a Match list to its wire shape.
func MatchesToRecords(matches []simcore.Match) []MatchRecord {
	out := make([]MatchRecord, 0, len(matches))
	for _, m := range matches {
		out = append(out, MatchRecord{FileA: m.FileA, FileB: m.FileB, Percent: m.Percent, SharedTokens: m.SharedTokens})
	}
	return out
}

// WriteJSON encodes any of the record slices above as indented JSON.
func WriteJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// WriteRunsTable renders run records as an aligned table, in the order
// given (largest first when they come from simcore.Collector).
func WriteRunsTable(w io.Writer, records []RunRecord) error {
	table := tablewriter.NewTable(w)
	table.Header([]string{"file a", "file b", "tokens"})
	for _, r := range records {
		if err := table.Append([]string{r.FileA, r.FileB, fmt.Sprintf("%d", r.Tokens)}); err != nil {
			return err
		}
	}
	return table.Render()
}

// WriteMatchesText prints percentage records using the exact template
// spec's percentage mode mandates: "A consists for P % of B material",
// one line per surviving directed match, in aggregation (walk) order.
func WriteMatchesText(w io.Writer, records []MatchRecord) error {
	for _, m := range records {
		if _, err := fmt.Fprintf(w, "%s consists for %d %% of %s material\n", m.FileA, int(m.Percent), m.FileB); err != nil {
			return err
		}
	}
	return nil
}
