package spectrum

import (
	"math"
	"sort"

	"github.com/RMahshie/micfreq/pkg/models"
)

// DefaultSeparation is the minimum gap in MHz kept between two selected frequencies
const DefaultSeparation = 0.1

// SelectFrequencies greedily picks up to count frequencies, quietest first.
//
// Candidates are visited by ascending level, ties by ascending frequency. A
// candidate is kept only if it is more than separation MHz away from every
// frequency already kept; exactly separation apart (to the Hz) is rejected. The result
// may hold fewer than count entries, which SelectionResult.UnderFilled reports.
func SelectFrequencies(entries []models.Sample, count int, separation float64) (models.SelectionResult, error) {
	if err := ValidateSelection(count, separation); err != nil {
		return models.SelectionResult{}, err
	}

	result := models.SelectionResult{
		Requested:  count,
		Separation: separation,
		Selected:   make([]models.Sample, 0, min(count, len(entries))),
	}

	candidates := make([]models.Sample, len(entries))
	for i, e := range entries {
		if math.IsNaN(e.Frequency) || math.IsNaN(e.Level) {
			return models.SelectionResult{}, configErrorf("entries", "entry %d is NaN", i)
		}
		candidates[i] = e
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].Level != candidates[j].Level {
			return candidates[i].Level < candidates[j].Level
		}
		return candidates[i].Frequency < candidates[j].Frequency
	})

	for _, c := range candidates {
		if len(result.Selected) == count {
			break
		}
		if farFromAll(c.Frequency, result.Selected, separation) {
			result.Selected = append(result.Selected, c)
		}
	}

	return result, nil
}

// ValidateSelection checks selection parameters without running a selection
func ValidateSelection(count int, separation float64) error {
	if count <= 0 {
		return configErrorf("mic count", "must be at least 1, got %d", count)
	}
	if math.IsNaN(separation) || math.IsInf(separation, 0) || separation < 0 {
		return configErrorf("separation", "must be a finite value >= 0, got %g", separation)
	}
	return nil
}

// farFromAll compares distances in whole Hz, the resolution of the scans, so
// MHz values that are exactly separation apart on the decimal grid are
// rejected regardless of how the float subtraction rounds.
func farFromAll(freq float64, selected []models.Sample, separation float64) bool {
	limit := math.Round(separation * hzPerMHz)
	for _, s := range selected {
		if math.Round(math.Abs(freq-s.Frequency)*hzPerMHz) <= limit {
			return false
		}
	}
	return true
}
