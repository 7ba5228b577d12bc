package processing

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/RMahshie/micfreq/internal/metrics"
	"github.com/RMahshie/micfreq/internal/spectrum"
	"github.com/RMahshie/micfreq/internal/storage"
	"github.com/RMahshie/micfreq/pkg/models"
)

// ErrStorageUnavailable is returned when a scan references an S3 key but no store is configured
var ErrStorageUnavailable = errors.New("scan storage is not configured")

// FetchError reports a scan that could not be loaded from storage
type FetchError struct {
	Key string
	Err error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("failed to fetch scan %s: %v", e.Key, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// Defaults are used for parameters an analysis request leaves out
type Defaults struct {
	Mode       models.ReductionMode
	MicCount   int
	Separation float64
}

// AnalysisService runs the full scan pipeline. Every call recomputes from scratch.
type AnalysisService interface {
	Analyze(ctx context.Context, params models.AnalysisParams) (*Result, error)
}

// Result holds every intermediate product of one pipeline run
type Result struct {
	ID            string
	Datasets      []models.Series
	Combined      models.CombinedSeries
	Sorted        []models.Sample // combined entries by ascending frequency
	Range         models.Range
	Filtered      []models.Sample
	PeakThreshold *float64
	Peaks         []models.Sample
	Selection     models.SelectionResult
	Warnings      []models.Warning
}

type analysisService struct {
	store    storage.ScanStore
	metrics  *metrics.PipelineMetrics
	defaults Defaults
}

// NewAnalysisService creates the pipeline service. store and m may be nil.
func NewAnalysisService(store storage.ScanStore, m *metrics.PipelineMetrics, defaults Defaults) AnalysisService {
	return &analysisService{
		store:    store,
		metrics:  m,
		defaults: defaults,
	}
}

func (s *analysisService) Analyze(ctx context.Context, params models.AnalysisParams) (*Result, error) {
	result, err := s.analyze(ctx, params)
	s.metrics.RecordOutcome(outcomeOf(err))
	return result, err
}

func (s *analysisService) analyze(ctx context.Context, params models.AnalysisParams) (*Result, error) {
	result := &Result{ID: uuid.New().String()}

	// Step 1: Resolve parameters, failing fast on bad configuration
	mode, count, separation, err := s.resolveParams(params)
	if err != nil {
		return nil, err
	}
	log.Info().
		Str("analysisID", result.ID).
		Int("fileCount", len(params.Files)).
		Str("mode", string(mode)).
		Int("micCount", count).
		Float64("separationMHz", separation).
		Msg("Starting analysis")

	// Step 2: Load and parse every scan
	started := time.Now()
	for _, file := range params.Files {
		series, err := s.loadScan(ctx, file)
		if err != nil {
			return nil, err
		}
		s.metrics.RecordScan(len(series.Samples))
		result.Datasets = append(result.Datasets, series)
	}
	s.metrics.ObserveStage("parse", started)

	// Step 3: Combine
	started = time.Now()
	result.Combined, err = spectrum.Aggregate(result.Datasets, mode)
	if err != nil {
		return nil, err
	}
	result.Sorted = result.Combined.SortedByFrequency()
	s.metrics.ObserveStage("aggregate", started)
	s.metrics.RecordCombined(result.Combined.Len())

	if len(params.Files) == 0 {
		result.warn(models.WarningEmptyInput, "no scan files were provided")
	} else if result.Combined.Len() == 0 {
		result.warn(models.WarningEmptyInput, "the scan files contain no samples")
	}

	// Step 4: Restrict to the requested rectangle
	started = time.Now()
	bounds, haveData := spectrum.Bounds(result.Sorted)
	result.Range = resolveRange(params.Range, bounds, haveData)
	result.Filtered, err = spectrum.FilterRange(result.Sorted, result.Range)
	if err != nil {
		return nil, err
	}
	if haveData && len(result.Filtered) == 0 {
		result.warn(models.WarningNoCandidates, "no combined samples fall inside the selected range")
	}

	// Step 5: Peaks, measured against the applied level range
	if params.DetectPeaks {
		threshold := spectrum.PeakThreshold(result.Range)
		if params.PeakThreshold != nil {
			threshold = *params.PeakThreshold
		}
		result.PeakThreshold = &threshold
		result.Peaks = spectrum.DetectPeaks(result.Filtered, threshold)
	}
	s.metrics.ObserveStage("filter", started)

	// Step 6: Pick the microphone frequencies
	started = time.Now()
	result.Selection, err = spectrum.SelectFrequencies(result.Filtered, count, separation)
	if err != nil {
		return nil, err
	}
	s.metrics.ObserveStage("select", started)
	s.metrics.RecordSelection(len(result.Selection.Selected), result.Selection.UnderFilled())

	if result.Selection.UnderFilled() {
		result.warn(models.WarningUnderFilled, result.Selection.Summary())
	}

	log.Info().
		Str("analysisID", result.ID).
		Int("combined", result.Combined.Len()).
		Int("filtered", len(result.Filtered)).
		Int("peaks", len(result.Peaks)).
		Int("selected", len(result.Selection.Selected)).
		Int("requested", count).
		Msg("Analysis completed")

	return result, nil
}

func (s *analysisService) resolveParams(params models.AnalysisParams) (models.ReductionMode, int, float64, error) {
	mode := s.defaults.Mode
	if params.Mode != "" {
		parsed, err := spectrum.ParseReductionMode(params.Mode)
		if err != nil {
			return "", 0, 0, err
		}
		mode = parsed
	}

	count := s.defaults.MicCount
	if params.MicCount != nil {
		count = *params.MicCount
	}
	separation := s.defaults.Separation
	if params.SeparationMHz != nil {
		separation = *params.SeparationMHz
	}
	if err := spectrum.ValidateSelection(count, separation); err != nil {
		return "", 0, 0, err
	}

	for _, f := range params.Files {
		if f.Content != "" && f.S3Key != "" {
			return "", 0, 0, &spectrum.ConfigError{Field: "files", Reason: fmt.Sprintf("%s has both content and s3_key", f.Name)}
		}
	}

	return mode, count, separation, nil
}

// loadScan parses one scan, fetching it from storage when it is referenced by key
func (s *analysisService) loadScan(ctx context.Context, file models.ScanFile) (models.Series, error) {
	if file.S3Key == "" {
		return spectrum.ParseScan(file.Name, strings.NewReader(file.Content))
	}

	if s.store == nil {
		return models.Series{}, ErrStorageUnavailable
	}

	started := time.Now()
	data, err := s.store.DownloadScan(ctx, file.S3Key)
	s.metrics.ObserveStage("fetch", started)
	if err != nil {
		return models.Series{}, &FetchError{Key: file.S3Key, Err: err}
	}

	return spectrum.ParseScan(file.Name, bytes.NewReader(data))
}

// resolveRange fills bounds the caller left out from the data bounds
func resolveRange(p *models.RangeParams, bounds models.Range, haveData bool) models.Range {
	r := bounds
	if p == nil {
		return r
	}

	pick := func(v *float64, fallback float64) float64 {
		if v != nil {
			return *v
		}
		return fallback
	}
	if !haveData {
		// nothing to default from: a missing bound mirrors its counterpart
		r.MinFreq = pick(p.MinFreq, pick(p.MaxFreq, 0))
		r.MaxFreq = pick(p.MaxFreq, r.MinFreq)
		r.MinLevel = pick(p.MinLevel, pick(p.MaxLevel, 0))
		r.MaxLevel = pick(p.MaxLevel, r.MinLevel)
		return r
	}

	// an omitted bound never crosses the one the caller gave, so a lone bound
	// outside the data yields an empty range instead of an inverted one
	r.MinFreq, r.MaxFreq = fillBounds(p.MinFreq, p.MaxFreq, r.MinFreq, r.MaxFreq)
	r.MinLevel, r.MaxLevel = fillBounds(p.MinLevel, p.MaxLevel, r.MinLevel, r.MaxLevel)
	return r
}

func fillBounds(lo, hi *float64, dataLo, dataHi float64) (float64, float64) {
	switch {
	case lo != nil && hi != nil:
		return *lo, *hi
	case lo != nil:
		return *lo, math.Max(dataHi, *lo)
	case hi != nil:
		return math.Min(dataLo, *hi), *hi
	default:
		return dataLo, dataHi
	}
}

func (r *Result) warn(code, message string) {
	r.Warnings = append(r.Warnings, models.Warning{Code: code, Message: message})
}

func outcomeOf(err error) string {
	var parseErr *spectrum.ParseError
	var cfgErr *spectrum.ConfigError
	var fetchErr *FetchError
	switch {
	case err == nil:
		return metrics.OutcomeOK
	case errors.As(err, &parseErr):
		return metrics.OutcomeParseError
	case errors.As(err, &cfgErr):
		return metrics.OutcomeConfigError
	case errors.As(err, &fetchErr), errors.Is(err, ErrStorageUnavailable):
		return metrics.OutcomeStorage
	default:
		return metrics.OutcomeInternal
	}
}
