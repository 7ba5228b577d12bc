package spectrum

import (
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/RMahshie/micfreq/pkg/models"
)

// ValidateRange rejects rectangles with NaN bounds or min > max on either axis
func ValidateRange(r models.Range) error {
	for _, b := range []struct {
		field    string
		min, max float64
	}{
		{"frequency range", r.MinFreq, r.MaxFreq},
		{"level range", r.MinLevel, r.MaxLevel},
	} {
		if math.IsNaN(b.min) || math.IsNaN(b.max) {
			return configErrorf(b.field, "bounds must be numbers")
		}
		if b.min > b.max {
			return configErrorf(b.field, "min %g is greater than max %g", b.min, b.max)
		}
	}
	return nil
}

// FilterRange returns the samples inside r, keeping their input order
func FilterRange(samples []models.Sample, r models.Range) ([]models.Sample, error) {
	if err := ValidateRange(r); err != nil {
		return nil, err
	}

	out := make([]models.Sample, 0, len(samples))
	for _, s := range samples {
		if r.Contains(s) {
			out = append(out, s)
		}
	}
	return out, nil
}

// Bounds returns the smallest rectangle holding every sample.
// ok is false when samples is empty.
func Bounds(samples []models.Sample) (r models.Range, ok bool) {
	if len(samples) == 0 {
		return models.Range{}, false
	}
	freqs, levels := columns(samples)
	return models.Range{
		MinFreq:  floats.Min(freqs),
		MaxFreq:  floats.Max(freqs),
		MinLevel: floats.Min(levels),
		MaxLevel: floats.Max(levels),
	}, true
}

// PeakThreshold sits a quarter of the level span below the top of r
func PeakThreshold(r models.Range) float64 {
	return r.MaxLevel - (r.MaxLevel-r.MinLevel)/4
}

// DetectPeaks returns the samples strictly louder than threshold, in input order
func DetectPeaks(samples []models.Sample, threshold float64) []models.Sample {
	var peaks []models.Sample
	for _, s := range samples {
		if s.Level > threshold {
			peaks = append(peaks, s)
		}
	}
	return peaks
}

func columns(samples []models.Sample) (freqs, levels []float64) {
	freqs = make([]float64, len(samples))
	levels = make([]float64, len(samples))
	for i, s := range samples {
		freqs[i] = s.Frequency
		levels[i] = s.Level
	}
	return freqs, levels
}
