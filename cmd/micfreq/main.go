// Command micfreq picks wireless microphone frequencies from exported spectrum scans.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	flag "github.com/spf13/pflag"

	"github.com/RMahshie/micfreq/internal/chart"
	"github.com/RMahshie/micfreq/internal/processing"
	"github.com/RMahshie/micfreq/internal/spectrum"
	"github.com/RMahshie/micfreq/pkg/models"
)

const (
	exitOK = iota
	exitInputError
	exitFailure
)

type options struct {
	mode          string
	mics          int
	separation    float64
	minFreq       float64
	maxFreq       float64
	minDB         float64
	maxDB         float64
	peaks         bool
	peakThreshold float64
	combinedOut   string
	selectionOut  string
	peaksOut      string
	chartOut      string
	logLevel      string
}

func main() {
	os.Exit(run(context.Background(), os.Args[1:], os.Stdout, os.Stderr))
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	var opts options
	fs := flag.NewFlagSet("micfreq", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprintf(stderr, "Usage: micfreq [flags] scan.csv [scan.csv ...]\n\nFlags:\n")
		fs.PrintDefaults()
	}

	fs.StringVarP(&opts.mode, "mode", "m", string(models.ReductionMean), "reduction across files: mean or max")
	fs.IntVarP(&opts.mics, "mics", "n", 4, "number of microphone frequencies to select")
	fs.Float64VarP(&opts.separation, "separation", "s", spectrum.DefaultSeparation, "minimum spacing between selected frequencies in MHz")
	fs.Float64Var(&opts.minFreq, "min-freq", 0, "lower frequency bound in MHz (default: lowest scanned)")
	fs.Float64Var(&opts.maxFreq, "max-freq", 0, "upper frequency bound in MHz (default: highest scanned)")
	fs.Float64Var(&opts.minDB, "min-db", 0, "lower level bound in dB (default: quietest scanned)")
	fs.Float64Var(&opts.maxDB, "max-db", 0, "upper level bound in dB (default: loudest scanned)")
	fs.BoolVar(&opts.peaks, "peaks", false, "report samples above the peak threshold")
	fs.Float64Var(&opts.peakThreshold, "peak-threshold", 0, "peak threshold in dB (default: max - (max-min)/4)")
	fs.StringVar(&opts.combinedOut, "combined-out", "", "write the filtered combined series to this CSV file")
	fs.StringVar(&opts.selectionOut, "selection-out", "", "write the selected frequencies to this CSV file")
	fs.StringVar(&opts.peaksOut, "peaks-out", "", "write the detected peaks to this CSV file (implies --peaks)")
	fs.StringVar(&opts.chartOut, "chart-out", "", "draw the spectrum chart to this PNG file")
	fs.StringVar(&opts.logLevel, "log-level", "warn", "log level: debug, info, warn or error")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitOK
		}
		return exitInputError
	}

	level, err := zerolog.ParseLevel(opts.logLevel)
	if err != nil {
		fmt.Fprintf(stderr, "micfreq: unknown log level %q\n", opts.logLevel)
		return exitInputError
	}
	log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: stderr}).Level(level).With().Timestamp().Logger()

	params := models.AnalysisParams{
		Mode:          opts.mode,
		MicCount:      &opts.mics,
		SeparationMHz: &opts.separation,
		DetectPeaks:   opts.peaks || opts.peaksOut != "",
		Range:         rangeFromFlags(fs, &opts),
	}
	if fs.Changed("peak-threshold") {
		params.PeakThreshold = &opts.peakThreshold
	}
	for _, path := range fs.Args() {
		data, err := os.ReadFile(path)
		if err != nil {
			fmt.Fprintf(stderr, "micfreq: %v\n", err)
			return exitInputError
		}
		params.Files = append(params.Files, models.ScanFile{Name: filepath.Base(path), Content: string(data)})
	}

	svc := processing.NewAnalysisService(nil, nil, processing.Defaults{
		Mode:       models.ReductionMean,
		MicCount:   opts.mics,
		Separation: opts.separation,
	})
	result, err := svc.Analyze(ctx, params)
	if err != nil {
		fmt.Fprintf(stderr, "micfreq: %v\n", err)
		var parseErr *spectrum.ParseError
		var cfgErr *spectrum.ConfigError
		if errors.As(err, &parseErr) || errors.As(err, &cfgErr) {
			return exitInputError
		}
		return exitFailure
	}

	printResult(stdout, result)

	if err := writeOutputs(&opts, result); err != nil {
		fmt.Fprintf(stderr, "micfreq: %v\n", err)
		return exitFailure
	}
	return exitOK
}

// rangeFromFlags returns nil when no bound was given so the data bounds apply
func rangeFromFlags(fs *flag.FlagSet, opts *options) *models.RangeParams {
	var r models.RangeParams
	set := false
	bind := func(name string, v *float64, dst **float64) {
		if fs.Changed(name) {
			*dst = v
			set = true
		}
	}
	bind("min-freq", &opts.minFreq, &r.MinFreq)
	bind("max-freq", &opts.maxFreq, &r.MaxFreq)
	bind("min-db", &opts.minDB, &r.MinLevel)
	bind("max-db", &opts.maxDB, &r.MaxLevel)
	if !set {
		return nil
	}
	return &r
}

func printResult(w io.Writer, result *processing.Result) {
	for _, ds := range result.Datasets {
		fmt.Fprintf(w, "# %s: %d samples\n", ds.Name, len(ds.Samples))
	}
	fmt.Fprintf(w, "# combined (%s): %d frequencies, %d in range\n",
		result.Combined.Mode, result.Combined.Len(), len(result.Filtered))

	if result.PeakThreshold != nil {
		fmt.Fprintf(w, "Peaks above %.2f dB: %d\n", *result.PeakThreshold, len(result.Peaks))
		for _, p := range result.Peaks {
			fmt.Fprintf(w, "  %.4f MHz  %.2f dB\n", p.Frequency, p.Level)
		}
	}

	fmt.Fprintln(w, "Selected frequencies:")
	for i, s := range result.Selection.Selected {
		fmt.Fprintf(w, "%2d. %.4f MHz  %.2f dB\n", i+1, s.Frequency, s.Level)
	}
	for _, warn := range result.Warnings {
		fmt.Fprintf(w, "warning: %s (%s)\n", warn.Message, warn.Code)
	}
}

func writeOutputs(opts *options, result *processing.Result) error {
	if opts.combinedOut != "" {
		if err := writeFile(opts.combinedOut, func(w io.Writer) error {
			return spectrum.WriteTableCSV(w, result.Filtered, result.Combined.Mode)
		}); err != nil {
			return err
		}
	}
	if opts.peaksOut != "" {
		if err := writeFile(opts.peaksOut, func(w io.Writer) error {
			return spectrum.WriteTableCSV(w, result.Peaks, result.Combined.Mode)
		}); err != nil {
			return err
		}
	}
	if opts.selectionOut != "" {
		if err := writeFile(opts.selectionOut, func(w io.Writer) error {
			return spectrum.WriteSelectionCSV(w, result.Selection)
		}); err != nil {
			return err
		}
	}
	if opts.chartOut != "" {
		sc := chart.SpectrumChart{
			Datasets: result.Datasets,
			Combined: result.Sorted,
			Mode:     result.Combined.Mode,
			Peaks:    result.Peaks,
			Selected: result.Selection.Selected,
		}
		if err := writeFile(opts.chartOut, sc.Render); err != nil {
			return err
		}
	}
	return nil
}

func writeFile(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		f.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	log.Info().Str("path", path).Msg("Wrote output file")
	return nil
}
