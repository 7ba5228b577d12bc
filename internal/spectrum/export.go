package spectrum

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/RMahshie/micfreq/pkg/models"
)

// Column headers of the exported tables
const (
	FrequencyHeader = "Frequency (MHz)"
	SelectionHeader = "Frequenza (MHz)"
)

// LevelHeader returns the level column header for mode, e.g. "Average dB"
func LevelHeader(mode models.ReductionMode) string {
	return mode.Label() + " dB"
}

// WriteTableCSV writes samples as a two column, comma separated table
func WriteTableCSV(w io.Writer, samples []models.Sample, mode models.ReductionMode) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{FrequencyHeader, LevelHeader(mode)}); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	for _, s := range samples {
		if err := cw.Write([]string{formatFloat(s.Frequency), formatFloat(s.Level)}); err != nil {
			return fmt.Errorf("failed to write row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteSelectionCSV writes the selected frequencies, one per row, in selection order
func WriteSelectionCSV(w io.Writer, result models.SelectionResult) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{SelectionHeader}); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	for _, f := range result.Frequencies() {
		if err := cw.Write([]string{formatFloat(f)}); err != nil {
			return fmt.Errorf("failed to write row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// formatFloat uses the shortest representation that parses back to the same value
func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
