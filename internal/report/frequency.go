// Package report renders classification results as CSV, JSON, a table and
// a label frequency chart.
package report

import (
	"sort"

	"github.com/abhisek/cogdistort/internal/inference"
)

// Frequency is the number of results carrying one label.
type Frequency struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}

// Frequencies counts results per label, most frequent first and ties by
// label.
func Frequencies(results []inference.Result) []Frequency {
	counts := make(map[string]int)
	for _, r := range results {
		counts[r.Label]++
	}
	return sortFrequencies(counts)
}

// FromCounts converts a label count map into sorted frequencies.
func FromCounts(counts map[string]int) []Frequency {
	return sortFrequencies(counts)
}

func sortFrequencies(counts map[string]int) []Frequency {
	freqs := make([]Frequency, 0, len(counts))
	for label, n := range counts {
		freqs = append(freqs, Frequency{Label: label, Count: n})
	}
	sort.Slice(freqs, func(i, j int) bool {
		if freqs[i].Count != freqs[j].Count {
			return freqs[i].Count > freqs[j].Count
		}
		return freqs[i].Label < freqs[j].Label
	})
	return freqs
}

// Total sums the counts.
func Total(freqs []Frequency) int {
	n := 0
	for _, f := range freqs {
		n += f.Count
	}
	return n
}
