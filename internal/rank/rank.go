// Package rank counts schools per category label and picks the
// highest- and lowest-count categories.
package rank

import (
	"sort"

	"github.com/zw-schools/schoolmap/internal/schools"
)

// Size is the number of entries in each side of a ranking.
const Size = 5

// Placeholder is returned in place of an empty list.
var Placeholder = Entry{Name: "No data", Count: 0}

// Entry is one category and its number of schools.
type Entry struct {
	Name  string `json:"name" doc:"Category label" example:"Harare"`
	Count int    `json:"count" doc:"Number of schools" example:"412"`
}

// Ranking holds the five most and five least populated categories.
type Ranking struct {
	Top    []Entry `json:"top" doc:"Highest counts, descending"`
	Bottom []Entry `json:"bottom" doc:"Lowest counts, the last five of the descending list reversed"`
}

// Count groups schools by the trimmed value of field and returns the
// groups sorted by descending count. Schools with an empty label are
// skipped. Ties keep first-seen order.
func Count(list []schools.School, field string) []Entry {
	index := make(map[string]int)
	var entries []Entry
	for _, s := range list {
		label := s.Label(field)
		if label == "" {
			continue
		}
		i, ok := index[label]
		if !ok {
			i = len(entries)
			index[label] = i
			entries = append(entries, Entry{Name: label})
		}
		entries[i].Count++
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Count > entries[j].Count
	})
	return entries
}

// By ranks schools by field.
func By(list []schools.School, field string) Ranking {
	return FromEntries(Count(list, field))
}

// FromEntries builds a ranking from entries already sorted by descending
// count.
func FromEntries(sorted []Entry) Ranking {
	n := len(sorted)

	top := make([]Entry, 0, Size)
	for i := 0; i < n && i < Size; i++ {
		top = append(top, sorted[i])
	}

	bottom := make([]Entry, 0, Size)
	for i := n - 1; i >= 0 && i >= n-Size; i-- {
		bottom = append(bottom, sorted[i])
	}

	if len(top) == 0 {
		top = []Entry{Placeholder}
	}
	if len(bottom) == 0 {
		bottom = []Entry{Placeholder}
	}
	return Ranking{Top: top, Bottom: bottom}
}
