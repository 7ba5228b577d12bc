package models

import (
	"time"
)

// HealthResponse represents the health check response
type HealthResponse struct {
	Body struct {
		Status  string    `json:"status" example:"healthy" doc:"Service health status"`
		Version string    `json:"version" example:"1.0.0" doc:"API version"`
		Time    time.Time `json:"time" doc:"Current server time"`
	}
}

// Warning codes reported alongside a successful analysis
const (
	WarningEmptyInput   = "empty_input"
	WarningUnderFilled  = "under_filled"
	WarningNoCandidates = "empty_selection_input"
)

// Warning is a non-fatal condition the caller should surface to the user
type Warning struct {
	Code    string `json:"code" enum:"empty_input,under_filled,empty_selection_input" doc:"Machine readable warning code"`
	Message string `json:"message" doc:"Human-readable description"`
}

// DatasetSummary describes one parsed scan file
type DatasetSummary struct {
	Name        string  `json:"name" doc:"Scan file display name"`
	SampleCount int     `json:"sample_count" doc:"Number of parsed samples"`
	MinFreq     float64 `json:"min_freq_mhz" doc:"Lowest frequency in MHz"`
	MaxFreq     float64 `json:"max_freq_mhz" doc:"Highest frequency in MHz"`
}

// Range is an inclusive frequency/level rectangle
type Range struct {
	MinFreq  float64 `json:"min_freq_mhz" doc:"Lower frequency bound in MHz"`
	MaxFreq  float64 `json:"max_freq_mhz" doc:"Upper frequency bound in MHz"`
	MinLevel float64 `json:"min_level_db" doc:"Lower level bound in dB"`
	MaxLevel float64 `json:"max_level_db" doc:"Upper level bound in dB"`
}

// Contains reports whether s lies inside the rectangle, bounds included
func (r Range) Contains(s Sample) bool {
	return s.Frequency >= r.MinFreq && s.Frequency <= r.MaxFreq &&
		s.Level >= r.MinLevel && s.Level <= r.MaxLevel
}
