package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeScan(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestRun_SelectsAndExports(t *testing.T) {
	dir := t.TempDir()
	a := writeScan(t, dir, "a.csv", "470000000;-80\n470500000;-60\n471000000;-75\n471500000;-90\n")
	b := writeScan(t, dir, "b.csv", "470000000;-84\n470500000;-50\n471000000;-77\n471500000;-88\n")
	combinedOut := filepath.Join(dir, "combined.csv")
	selectionOut := filepath.Join(dir, "selection.csv")
	peaksOut := filepath.Join(dir, "peaks.csv")
	chartOut := filepath.Join(dir, "chart.png")

	var stdout, stderr bytes.Buffer
	code := run(context.Background(), []string{
		"--mics", "2",
		"--combined-out", combinedOut,
		"--selection-out", selectionOut,
		"--peaks-out", peaksOut,
		"--chart-out", chartOut,
		a, b,
	}, &stdout, &stderr)
	require.Equal(t, exitOK, code, stderr.String())

	assert.Contains(t, stdout.String(), " 1. 471.5000 MHz  -89.00 dB")
	assert.Contains(t, stdout.String(), " 2. 470.0000 MHz  -82.00 dB")
	assert.NotContains(t, stdout.String(), "warning:")

	combined, err := os.ReadFile(combinedOut)
	require.NoError(t, err)
	assert.Equal(t, "Frequency (MHz),Average dB\n470,-82\n470.5,-55\n471,-76\n471.5,-89\n", string(combined))

	selection, err := os.ReadFile(selectionOut)
	require.NoError(t, err)
	assert.Equal(t, "Frequenza (MHz)\n471.5\n470\n", string(selection))

	// levels span -89..-55, threshold -63.5
	peaks, err := os.ReadFile(peaksOut)
	require.NoError(t, err)
	assert.Equal(t, "Frequency (MHz),Average dB\n470.5,-55\n", string(peaks))

	info, err := os.Stat(chartOut)
	require.NoError(t, err)
	assert.Positive(t, info.Size())
}

func TestRun_RangeAndUnderFilled(t *testing.T) {
	dir := t.TempDir()
	a := writeScan(t, dir, "a.csv", "470000000;-80\n470500000;-60\n471000000;-75\n")

	var stdout, stderr bytes.Buffer
	code := run(context.Background(), []string{"--mode", "max", "--mics", "3", "--max-freq", "470.5", a}, &stdout, &stderr)
	require.Equal(t, exitOK, code, stderr.String())

	assert.Contains(t, stdout.String(), "# combined (max): 3 frequencies, 2 in range")
	assert.Contains(t, stdout.String(), "warning: selected 2 of requested 3 (under_filled)")
}

func TestRun_InputErrors(t *testing.T) {
	dir := t.TempDir()
	good := writeScan(t, dir, "good.csv", "470000000;-80\n")
	bad := writeScan(t, dir, "bad.csv", "470000000;-80\n470500000\n")

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"malformed scan", []string{good, bad}, "bad.csv"},
		{"unknown mode", []string{"--mode", "median", good}, "invalid mode"},
		{"zero mics", []string{"--mics", "0", good}, "invalid mic count"},
		{"inverted range", []string{"--min-freq", "480", "--max-freq", "470", good}, "invalid frequency range"},
		{"missing file", []string{filepath.Join(dir, "nope.csv")}, "nope.csv"},
		{"unknown flag", []string{"--bogus"}, "bogus"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var stdout, stderr bytes.Buffer
			code := run(context.Background(), tt.args, &stdout, &stderr)
			assert.Equal(t, exitInputError, code)
			assert.Contains(t, stderr.String(), tt.want)
		})
	}
}
