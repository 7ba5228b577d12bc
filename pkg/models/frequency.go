package models

import (
	"fmt"
	"sort"
)

// Sample represents a single spectrum measurement
type Sample struct {
	Frequency float64 `json:"frequency_mhz" doc:"Frequency in MHz"`
	Level     float64 `json:"level_db" doc:"Signal level in dB"`
}

// Series is the parsed content of one scan file, in file order
type Series struct {
	Name    string   `json:"name"`
	Samples []Sample `json:"samples"`
}

// ReductionMode selects how levels at the same frequency are combined
type ReductionMode string

const (
	ReductionMean ReductionMode = "mean"
	ReductionMax  ReductionMode = "max"
)

// Valid reports whether m is a known reduction mode
func (m ReductionMode) Valid() bool {
	return m == ReductionMean || m == ReductionMax
}

// Label returns the column label used in exported tables
func (m ReductionMode) Label() string {
	switch m {
	case ReductionMean:
		return "Average"
	case ReductionMax:
		return "Max"
	default:
		return string(m)
	}
}

// CombinedSeries holds one reduced level per distinct frequency.
// Entries are in first-seen order across the input series, not sorted.
type CombinedSeries struct {
	Mode    ReductionMode `json:"mode"`
	Entries []Sample      `json:"entries"`
}

// Len returns the number of distinct frequencies
func (c CombinedSeries) Len() int {
	return len(c.Entries)
}

// SortedByFrequency returns a copy of the entries in ascending frequency order
func (c CombinedSeries) SortedByFrequency() []Sample {
	out := make([]Sample, len(c.Entries))
	copy(out, c.Entries)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Frequency < out[j].Frequency
	})
	return out
}

// SelectionResult is the outcome of a frequency selection run
type SelectionResult struct {
	Requested  int      `json:"requested"`
	Separation float64  `json:"separation_mhz"`
	Selected   []Sample `json:"selected"` // selection order, quietest first
}

// Frequencies returns the selected frequencies in selection order
func (r SelectionResult) Frequencies() []float64 {
	freqs := make([]float64, len(r.Selected))
	for i, s := range r.Selected {
		freqs[i] = s.Frequency
	}
	return freqs
}

// UnderFilled reports whether fewer frequencies than requested were found
func (r SelectionResult) UnderFilled() bool {
	return len(r.Selected) < r.Requested
}

// Summary returns a short human readable description such as "selected 3 of requested 5"
func (r SelectionResult) Summary() string {
	return fmt.Sprintf("selected %d of requested %d", len(r.Selected), r.Requested)
}
