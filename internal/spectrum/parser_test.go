package spectrum

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RMahshie/micfreq/pkg/models"
)

func TestParseScan(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []models.Sample
	}{
		{
			name:  "decimal commas and Hz to MHz",
			input: "100000000,0;-30,5\n100100000;-40\n",
			want: []models.Sample{
				{Frequency: 100.0, Level: -30.5},
				{Frequency: 100.1, Level: -40},
			},
		},
		{
			name:  "surrounding whitespace and CRLF",
			input: "  470000000 ; -85,25\r\n 470025000;  -90\r\n",
			want: []models.Sample{
				{Frequency: 470.0, Level: -85.25},
				{Frequency: 470.025, Level: -90},
			},
		},
		{
			name:  "blank lines and extra fields ignored",
			input: "\n100000000;-30;ignored\n\n   \n100200000;-20;\n",
			want: []models.Sample{
				{Frequency: 100.0, Level: -30},
				{Frequency: 100.2, Level: -20},
			},
		},
		{
			name:  "empty file",
			input: "",
			want:  nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			series, err := ParseScan("scan.csv", strings.NewReader(tt.input))
			require.NoError(t, err)
			assert.Equal(t, "scan.csv", series.Name)
			require.Len(t, series.Samples, len(tt.want))
			for i := range tt.want {
				assert.InDelta(t, tt.want[i].Frequency, series.Samples[i].Frequency, 1e-9)
				assert.Equal(t, tt.want[i].Level, series.Samples[i].Level)
			}
		})
	}
}

func TestParseScan_Errors(t *testing.T) {
	tests := []struct {
		name       string
		input      string
		wantLine   int
		wantColumn int
	}{
		{name: "single field", input: "100000000;-30\n100100000\n", wantLine: 2, wantColumn: 0},
		{name: "frequency not numeric", input: "abc;-30\n", wantLine: 1, wantColumn: 1},
		{name: "level not numeric", input: "100000000;-30\n100100000;loud\n", wantLine: 2, wantColumn: 2},
		{name: "thousands separator", input: "100.000.000,5;-30\n", wantLine: 1, wantColumn: 1},
		{name: "negative frequency", input: "-100000000;-30\n", wantLine: 1, wantColumn: 1},
		{name: "NaN level", input: "100000000;NaN\n", wantLine: 1, wantColumn: 2},
		{name: "infinite frequency", input: "Inf;-30\n", wantLine: 1, wantColumn: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseScan("bad.csv", strings.NewReader(tt.input))
			require.Error(t, err)

			var parseErr *ParseError
			require.True(t, errors.As(err, &parseErr), "expected ParseError, got %T", err)
			assert.Equal(t, "bad.csv", parseErr.File)
			assert.Equal(t, tt.wantLine, parseErr.Line)
			assert.Equal(t, tt.wantColumn, parseErr.Column)
			assert.Contains(t, err.Error(), "bad.csv")
		})
	}
}

func TestParseScan_FailsWholeFile(t *testing.T) {
	series, err := ParseScan("mixed.csv", strings.NewReader("100000000;-30\nbroken\n100200000;-20\n"))
	require.Error(t, err)
	assert.Empty(t, series.Samples)
}
