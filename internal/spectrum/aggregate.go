package spectrum

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/RMahshie/micfreq/pkg/models"
)

// ParseReductionMode validates a user supplied reduction mode name
func ParseReductionMode(s string) (models.ReductionMode, error) {
	mode := models.ReductionMode(s)
	if !mode.Valid() {
		return "", configErrorf("mode", "unknown reduction mode %q (want mean or max)", s)
	}
	return mode, nil
}

// bucket groups levels by exact frequency value, remembering first-seen order
type bucket struct {
	order  []float64
	levels map[float64][]float64
}

func newBucket() *bucket {
	return &bucket{levels: make(map[float64][]float64)}
}

func (b *bucket) add(freq, level float64) {
	if _, ok := b.levels[freq]; !ok {
		b.order = append(b.order, freq)
	}
	b.levels[freq] = append(b.levels[freq], level)
}

// reduce collapses every group to one level, in first-seen order
func (b *bucket) reduce(mode models.ReductionMode) []models.Sample {
	out := make([]models.Sample, 0, len(b.order))
	for _, freq := range b.order {
		out = append(out, models.Sample{Frequency: freq, Level: reduceLevels(b.levels[freq], mode)})
	}
	return out
}

func reduceLevels(levels []float64, mode models.ReductionMode) float64 {
	if len(levels) == 1 {
		return levels[0]
	}
	if mode == models.ReductionMax {
		return floats.Max(levels)
	}
	return stat.Mean(levels, nil)
}

// Aggregate merges scan series into one combined series keyed by exact
// frequency value. Repeated frequencies inside a single series are reduced
// first, so every series contributes at most one level per frequency; the
// per-series levels are then reduced across series. Frequencies missing from
// some series are reduced over the series that do have them.
func Aggregate(series []models.Series, mode models.ReductionMode) (models.CombinedSeries, error) {
	if !mode.Valid() {
		return models.CombinedSeries{}, configErrorf("mode", "unknown reduction mode %q (want mean or max)", mode)
	}

	combined := newBucket()
	for _, s := range series {
		perSeries := newBucket()
		for i, sample := range s.Samples {
			if math.IsNaN(sample.Frequency) || math.IsInf(sample.Frequency, 0) {
				return models.CombinedSeries{}, configErrorf("series", "%s sample %d has a non-finite frequency", s.Name, i)
			}
			if math.IsNaN(sample.Level) {
				return models.CombinedSeries{}, configErrorf("series", "%s sample %d has a NaN level", s.Name, i)
			}
			// fold -0 into +0
			perSeries.add(sample.Frequency+0, sample.Level)
		}
		for _, reduced := range perSeries.reduce(mode) {
			combined.add(reduced.Frequency, reduced.Level)
		}
	}

	return models.CombinedSeries{Mode: mode, Entries: combined.reduce(mode)}, nil
}
