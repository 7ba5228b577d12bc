// Package spectrum turns spectrum analyzer exports into a combined noise
// floor and picks clean, well separated frequencies from it.
//
// Every function in this package is pure: no I/O beyond the reader handed
// in, no logging and no shared state.
package spectrum

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/RMahshie/micfreq/pkg/models"
)

// hzPerMHz converts the analyzer's Hz column to MHz
const hzPerMHz = 1e6

var (
	errTooFewFields = errors.New("expected 2 fields separated by ';'")
	errNotFinite    = errors.New("value is not finite")
	errNegativeFreq = errors.New("frequency is negative")
)

// ParseScan reads one analyzer export: headerless rows of "frequency_hz;level_db"
// written with decimal commas. Any malformed row fails the whole file.
func ParseScan(name string, r io.Reader) (models.Series, error) {
	reader := csv.NewReader(r)
	reader.Comma = ';'
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	reader.ReuseRecord = true

	series := models.Series{Name: name}
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			var csvErr *csv.ParseError
			if errors.As(err, &csvErr) {
				return models.Series{}, &ParseError{File: name, Line: csvErr.Line, Column: csvErr.Column, Err: csvErr.Err}
			}
			return models.Series{}, fmt.Errorf("failed to read %s: %w", name, err)
		}

		line, _ := reader.FieldPos(0)
		if len(record) == 1 && strings.TrimSpace(record[0]) == "" {
			continue
		}
		if len(record) < 2 {
			return models.Series{}, &ParseError{File: name, Line: line, Err: errTooFewFields}
		}

		freqHz, err := parseDecimal(record[0])
		if err != nil {
			return models.Series{}, &ParseError{File: name, Line: line, Column: 1, Err: err}
		}
		if freqHz < 0 {
			return models.Series{}, &ParseError{File: name, Line: line, Column: 1, Err: errNegativeFreq}
		}
		level, err := parseDecimal(record[1])
		if err != nil {
			return models.Series{}, &ParseError{File: name, Line: line, Column: 2, Err: err}
		}

		series.Samples = append(series.Samples, models.Sample{
			Frequency: freqHz / hzPerMHz,
			Level:     level,
		})
	}

	return series, nil
}

// parseDecimal parses a number written with a decimal comma
func parseDecimal(field string) (float64, error) {
	v, err := strconv.ParseFloat(strings.ReplaceAll(strings.TrimSpace(field), ",", "."), 64)
	if err != nil {
		var numErr *strconv.NumError
		if errors.As(err, &numErr) {
			return 0, fmt.Errorf("%q is not a number", field)
		}
		return 0, err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, errNotFinite
	}
	return v, nil
}
