package sink

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/jmylchreest/simtool/internal/simcore"
)

func TestRunsToRecordsTranslatesOffsets(t *testing.T) {
	textA := simcore.Text{Name: "a.go", Start: 0, Limit: 40}
	textB := simcore.Text{Name: "b.go", Start: 41, Limit: 80}
	runs := []simcore.Run{{TextA: textA, StartA: 5, TextB: textB, StartB: 46, Size: 20}}

	lines := map[string][]int{
		"a.go": {1, 1, 2, 2, 3, 3},
		"b.go": {1, 1, 2, 2, 3, 3},
	}
	lineOf := func(file string, relOffset uint64) int {
		ls := lines[file]
		if relOffset >= uint64(len(ls)) {
			return 0
		}
		return ls[relOffset]
	}

	records := RunsToRecords(runs, lineOf)
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
	r := records[0]
	if r.FileA != "a.go" || r.FileB != "b.go" || r.Tokens != 20 {
		t.Errorf("unexpected record: %+v", r)
	}
	if r.LineA != 3 || r.LineB != 3 {
		t.Errorf("expected both offsets (relative 5) to resolve to line 3, got LineA=%d LineB=%d", r.LineA, r.LineB)
	}
}

func TestRunsToRecordsWithoutLineOf(t *testing.T) {
	textA := simcore.Text{Name: "a.go", Start: 0, Limit: 10}
	textB := simcore.Text{Name: "b.go", Start: 11, Limit: 20}
	runs := []simcore.Run{{TextA: textA, StartA: 0, TextB: textB, StartB: 11, Size: 5}}

	records := RunsToRecords(runs, nil)
	if records[0].LineA != 0 || records[0].LineB != 0 {
		t.Error("expected zero line numbers when lineOf is nil")
	}
}

func TestMatchesToRecords(t *testing.T) {
	matches := []simcore.Match{{FileA: "a.go", FileB: "b.go", Percent: 40, SharedTokens: 12}}
	records := MatchesToRecords(matches)
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
	if records[0].Percent != 40 || records[0].SharedTokens != 12 {
		t.Errorf("unexpected record: %+v", records[0])
	}
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteJSON(&buf, []RunRecord{{FileA: "a.go", FileB: "b.go", Tokens: 10}}); err != nil {
		t.Fatal(err)
	}
	var out []RunRecord
	if err := json.Unmarshal(buf.Bytes(), &out); err != nil {
		t.Fatalf("output was not valid JSON: %v", err)
	}
	if len(out) != 1 || out[0].Tokens != 10 {
		t.Errorf("unexpected decoded records: %+v", out)
	}
}

func TestWriteRunsTable(t *testing.T) {
	var buf bytes.Buffer
	err := WriteRunsTable(&buf, []RunRecord{{FileA: "a.go", FileB: "b.go", Tokens: 42}})
	if err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	if !strings.Contains(out, "a.go") || !strings.Contains(out, "b.go") || !strings.Contains(out, "42") {
		t.Errorf("expected table output to mention both files and the token count, got:\n%s", out)
	}
}

// TestWriteMatchesTextUsesLiteralTemplate pins spec §4.6's/§8 scenario 4's
// exact wording: "A consists for P % of B material".
func TestWriteMatchesTextUsesLiteralTemplate(t *testing.T) {
	var buf bytes.Buffer
	records := []MatchRecord{
		{FileA: "A", FileB: "B", Percent: 50, SharedTokens: 5},
		{FileA: "B", FileB: "A", Percent: 50, SharedTokens: 5},
	}
	if err := WriteMatchesText(&buf, records); err != nil {
		t.Fatal(err)
	}
	got := buf.String()
	want := "A consists for 50 % of B material\nB consists for 50 % of A material\n"
	if got != want {
		t.Errorf("WriteMatchesText output:\n%q\nwant:\n%q", got, want)
	}
}
