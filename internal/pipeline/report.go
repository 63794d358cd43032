package pipeline

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
)

// Tally counts occurrences of labels and remembers first-seen order.
type Tally struct {
	order  []string
	counts map[string]int
}

// TallyEntry is one label and its count.
type TallyEntry struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}

func newTally() *Tally {
	return &Tally{counts: make(map[string]int)}
}

func (t *Tally) add(label string) {
	if _, ok := t.counts[label]; !ok {
		t.order = append(t.order, label)
	}
	t.counts[label]++
}

// Get returns the count of label.
func (t *Tally) Get(label string) int { return t.counts[label] }

// MostCommon returns up to n entries by descending count, ties in
// first-seen order. n <= 0 returns every entry.
func (t *Tally) MostCommon(n int) []TallyEntry {
	out := make([]TallyEntry, 0, len(t.order))
	for _, l := range t.order {
		out = append(out, TallyEntry{Label: l, Count: t.counts[l]})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Count > out[j].Count })
	if n > 0 && len(out) > n {
		out = out[:n]
	}
	return out
}

// Report summarizes a cleaning run.
type Report struct {
	Rows               int
	MissingLatLonRaw   int
	MissingLatLonFinal int
	ZeroCoords         int
	OutOfBounds        int
	InvalidLevel       int
	InvalidGrant       int

	Levels       *Tally
	GrantClasses *Tally
	Missing      *Tally
}

func newReport() *Report {
	return &Report{Levels: newTally(), GrantClasses: newTally(), Missing: newTally()}
}

func (r *Report) pct(n int) string {
	if r.Rows == 0 {
		return "0"
	}
	v := math.Round(float64(n)/float64(r.Rows)*100*100) / 100
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// Markdown renders the report. source and output name the files it was
// produced from.
func (r *Report) Markdown(source, output string) string {
	var b strings.Builder
	line := func(format string, args ...any) {
		fmt.Fprintf(&b, format, args...)
		b.WriteByte('\n')
	}

	line("# Data Quality Report")
	line("")
	line("Source: `%s`", source)
	line("Output: `%s`", output)
	line("")
	line("## Summary")
	line("- Rows: %d", r.Rows)
	line("- Missing lat/lon (raw): %d (%s%%)", r.MissingLatLonRaw, r.pct(r.MissingLatLonRaw))
	line("- Missing lat/lon (final): %d (%s%%)", r.MissingLatLonFinal, r.pct(r.MissingLatLonFinal))
	line("- Zero coords removed: %d", r.ZeroCoords)
	line("- Out-of-bounds coords removed: %d", r.OutOfBounds)
	line("- Invalid school levels cleared: %d", r.InvalidLevel)
	line("- Invalid grant classes cleared: %d", r.InvalidGrant)
	line("")
	line("## School Levels")
	for _, e := range r.Levels.MostCommon(0) {
		line("- %s: %d", blankLabel(e.Label), e.Count)
	}
	line("")
	line("## Grant Class")
	for _, e := range r.GrantClasses.MostCommon(0) {
		line("- %s: %d", blankLabel(e.Label), e.Count)
	}
	line("")
	line("## Missing Fields (Top 10)")
	for _, e := range r.Missing.MostCommon(10) {
		line("- %s: %d", e.Label, e.Count)
	}
	return b.String()
}

func blankLabel(s string) string {
	if s == "" {
		return blankGrant
	}
	return s
}
