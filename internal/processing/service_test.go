package processing

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/RMahshie/micfreq/internal/metrics"
	"github.com/RMahshie/micfreq/internal/spectrum"
	"github.com/RMahshie/micfreq/internal/storage"
	"github.com/RMahshie/micfreq/pkg/models"
)

// MockScanStore implements storage.ScanStore for testing
type MockScanStore struct {
	mock.Mock
}

func (m *MockScanStore) GenerateUploadURL(ctx context.Context, key string, contentType string) (string, error) {
	args := m.Called(ctx, key, contentType)
	return args.String(0), args.Error(1)
}

func (m *MockScanStore) DownloadScan(ctx context.Context, key string) ([]byte, error) {
	args := m.Called(ctx, key)
	data, _ := args.Get(0).([]byte)
	return data, args.Error(1)
}

func (m *MockScanStore) EnsureBucket(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

var testDefaults = Defaults{Mode: models.ReductionMean, MicCount: 4, Separation: spectrum.DefaultSeparation}

const (
	scanOne = "100000000;-30\n100100000;-40\n"
	scanTwo = "100000000;-50\n100100000;-20\n"
)

func intPtr(v int) *int { return &v }
func floatPtr(v float64) *float64 { return &v }

func newTestService(store storage.ScanStore) AnalysisService {
	return NewAnalysisService(store, metrics.NewPipelineMetrics(prometheus.NewRegistry()), testDefaults)
}

func TestAnalyze_CombinesAndSelects(t *testing.T) {
	tests := []struct {
		name         string
		mode         string
		wantCombined []models.Sample
		wantSelected []float64
	}{
		{
			name:         "mean",
			mode:         "mean",
			wantCombined: []models.Sample{{Frequency: 100.0, Level: -40}, {Frequency: 100.1, Level: -30}},
			wantSelected: []float64{100.0},
		},
		{
			name:         "max",
			mode:         "max",
			wantCombined: []models.Sample{{Frequency: 100.0, Level: -30}, {Frequency: 100.1, Level: -20}},
			wantSelected: []float64{100.0},
		},
		{
			name:         "default mode",
			mode:         "",
			wantCombined: []models.Sample{{Frequency: 100.0, Level: -40}, {Frequency: 100.1, Level: -30}},
			wantSelected: []float64{100.0},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newTestService(nil)

			result, err := svc.Analyze(context.Background(), models.AnalysisParams{
				Files: []models.ScanFile{
					{Name: "file1.csv", Content: scanOne},
					{Name: "file2.csv", Content: scanTwo},
				},
				Mode:     tt.mode,
				MicCount: intPtr(2),
			})
			require.NoError(t, err)

			assert.NotEmpty(t, result.ID)
			require.Len(t, result.Datasets, 2)
			assert.Equal(t, "file1.csv", result.Datasets[0].Name)
			require.Len(t, result.Sorted, 2)
			for i, want := range tt.wantCombined {
				assert.InDelta(t, want.Frequency, result.Sorted[i].Frequency, 1e-9)
				assert.Equal(t, want.Level, result.Sorted[i].Level)
			}
			// 100.0 and 100.1 are exactly 0.1 MHz apart, so only one fits
			assert.Equal(t, tt.wantSelected, result.Selection.Frequencies())
			assert.True(t, result.Selection.UnderFilled())
			require.Len(t, result.Warnings, 1)
			assert.Equal(t, models.WarningUnderFilled, result.Warnings[0].Code)
			assert.Equal(t, "selected 1 of requested 2", result.Warnings[0].Message)
		})
	}
}

func TestAnalyze_RangeAndPeaks(t *testing.T) {
	svc := newTestService(nil)
	scan := "470000000;-90\n470500000;-60\n471000000;-75\n472000000;-40\n"

	result, err := svc.Analyze(context.Background(), models.AnalysisParams{
		Files:       []models.ScanFile{{Name: "uhf.csv", Content: scan}},
		MicCount:    intPtr(2),
		Range:       &models.RangeParams{MaxFreq: floatPtr(471.0)},
		DetectPeaks: true,
	})
	require.NoError(t, err)

	assert.Equal(t, models.Range{MinFreq: 470.0, MaxFreq: 471.0, MinLevel: -90, MaxLevel: -40}, result.Range)
	assert.Len(t, result.Filtered, 3)
	require.NotNil(t, result.PeakThreshold)
	assert.Equal(t, -52.5, *result.PeakThreshold)
	assert.Empty(t, result.Peaks, "the only loud sample is outside the range")
	assert.Equal(t, []float64{470.0, 471.0}, result.Selection.Frequencies())
	assert.Empty(t, result.Warnings)

	result, err = svc.Analyze(context.Background(), models.AnalysisParams{
		Files:         []models.ScanFile{{Name: "uhf.csv", Content: scan}},
		DetectPeaks:   true,
		PeakThreshold: floatPtr(-70),
	})
	require.NoError(t, err)
	assert.Equal(t, []models.Sample{{Frequency: 470.5, Level: -60}, {Frequency: 472.0, Level: -40}}, result.Peaks)
}

func TestAnalyze_EmptyInput(t *testing.T) {
	svc := newTestService(nil)

	result, err := svc.Analyze(context.Background(), models.AnalysisParams{})
	require.NoError(t, err)
	assert.Equal(t, 0, result.Combined.Len())
	assert.Empty(t, result.Selection.Selected)

	codes := make([]string, 0, len(result.Warnings))
	for _, w := range result.Warnings {
		codes = append(codes, w.Code)
	}
	assert.Equal(t, []string{models.WarningEmptyInput, models.WarningUnderFilled}, codes)
}

func TestAnalyze_RangeExcludesEverything(t *testing.T) {
	svc := newTestService(nil)

	result, err := svc.Analyze(context.Background(), models.AnalysisParams{
		Files: []models.ScanFile{{Name: "a.csv", Content: scanOne}},
		Range: &models.RangeParams{MinFreq: floatPtr(200), MaxFreq: floatPtr(300)},
	})
	require.NoError(t, err)
	assert.Empty(t, result.Filtered)
	require.NotEmpty(t, result.Warnings)
	assert.Equal(t, models.WarningNoCandidates, result.Warnings[0].Code)
}

func TestAnalyze_LoneBoundOutsideData(t *testing.T) {
	svc := newTestService(nil)

	result, err := svc.Analyze(context.Background(), models.AnalysisParams{
		Files: []models.ScanFile{{Name: "a.csv", Content: scanOne}},
		Range: &models.RangeParams{MinFreq: floatPtr(600)},
	})
	require.NoError(t, err)
	assert.Equal(t, 600.0, result.Range.MinFreq)
	assert.Equal(t, 600.0, result.Range.MaxFreq)
	assert.Empty(t, result.Filtered)
	require.NotEmpty(t, result.Warnings)
	assert.Equal(t, models.WarningNoCandidates, result.Warnings[0].Code)
}

func TestAnalyze_Errors(t *testing.T) {
	tests := []struct {
		name   string
		params models.AnalysisParams
		check  func(t *testing.T, err error)
	}{
		{
			name:   "unknown mode",
			params: models.AnalysisParams{Mode: "median"},
			check: func(t *testing.T, err error) {
				var cfgErr *spectrum.ConfigError
				require.True(t, errors.As(err, &cfgErr))
				assert.Equal(t, "mode", cfgErr.Field)
			},
		},
		{
			name:   "zero mic count",
			params: models.AnalysisParams{MicCount: intPtr(0)},
			check: func(t *testing.T, err error) {
				var cfgErr *spectrum.ConfigError
				require.True(t, errors.As(err, &cfgErr))
				assert.Equal(t, "mic count", cfgErr.Field)
			},
		},
		{
			name: "inverted range",
			params: models.AnalysisParams{
				Files: []models.ScanFile{{Name: "a.csv", Content: scanOne}},
				Range: &models.RangeParams{MinLevel: floatPtr(0), MaxLevel: floatPtr(-10)},
			},
			check: func(t *testing.T, err error) {
				var cfgErr *spectrum.ConfigError
				require.True(t, errors.As(err, &cfgErr))
				assert.Equal(t, "level range", cfgErr.Field)
			},
		},
		{
			name: "malformed scan",
			params: models.AnalysisParams{
				Files: []models.ScanFile{
					{Name: "good.csv", Content: scanOne},
					{Name: "bad.csv", Content: "100000000;-30\nnot a row\n"},
				},
			},
			check: func(t *testing.T, err error) {
				var parseErr *spectrum.ParseError
				require.True(t, errors.As(err, &parseErr))
				assert.Equal(t, "bad.csv", parseErr.File)
				assert.Equal(t, 2, parseErr.Line)
			},
		},
		{
			name: "content and key together",
			params: models.AnalysisParams{
				Files: []models.ScanFile{{Name: "a.csv", Content: scanOne, S3Key: "scans/a.csv"}},
			},
			check: func(t *testing.T, err error) {
				var cfgErr *spectrum.ConfigError
				require.True(t, errors.As(err, &cfgErr))
				assert.Equal(t, "files", cfgErr.Field)
			},
		},
		{
			name: "key without storage",
			params: models.AnalysisParams{
				Files: []models.ScanFile{{Name: "a.csv", S3Key: "scans/a.csv"}},
			},
			check: func(t *testing.T, err error) {
				assert.ErrorIs(t, err, ErrStorageUnavailable)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := newTestService(nil).Analyze(context.Background(), tt.params)
			assert.Nil(t, result)
			require.Error(t, err)
			tt.check(t, err)
		})
	}
}

func TestAnalyze_FetchesFromStorage(t *testing.T) {
	store := &MockScanStore{}
	store.On("DownloadScan", mock.Anything, "scans/one.csv").Return([]byte(scanOne), nil)
	store.On("DownloadScan", mock.Anything, "scans/missing.csv").Return(nil, storage.ErrScanNotFound)

	svc := newTestService(store)

	result, err := svc.Analyze(context.Background(), models.AnalysisParams{
		Files: []models.ScanFile{
			{Name: "one.csv", S3Key: "scans/one.csv"},
			{Name: "two.csv", Content: scanTwo},
		},
		Mode: "max",
	})
	require.NoError(t, err)
	assert.Equal(t, -30.0, result.Sorted[0].Level)

	_, err = svc.Analyze(context.Background(), models.AnalysisParams{
		Files: []models.ScanFile{{Name: "missing.csv", S3Key: "scans/missing.csv"}},
	})
	var fetchErr *FetchError
	require.True(t, errors.As(err, &fetchErr))
	assert.Equal(t, "scans/missing.csv", fetchErr.Key)
	assert.ErrorIs(t, err, storage.ErrScanNotFound)

	store.AssertExpectations(t)
}

func TestResolveRange(t *testing.T) {
	bounds := models.Range{MinFreq: 470, MaxFreq: 480, MinLevel: -95, MaxLevel: -30}

	assert.Equal(t, bounds, resolveRange(nil, bounds, true))
	assert.Equal(t,
		models.Range{MinFreq: 472, MaxFreq: 480, MinLevel: -95, MaxLevel: -50},
		resolveRange(&models.RangeParams{MinFreq: floatPtr(472), MaxLevel: floatPtr(-50)}, bounds, true))
	assert.Equal(t,
		models.Range{MinFreq: 600, MaxFreq: 600, MinLevel: -95, MaxLevel: -30},
		resolveRange(&models.RangeParams{MinFreq: floatPtr(600)}, bounds, true))
	assert.Equal(t,
		models.Range{MinFreq: 470, MaxFreq: 480, MinLevel: -120, MaxLevel: -120},
		resolveRange(&models.RangeParams{MaxLevel: floatPtr(-120)}, bounds, true))
	assert.Equal(t,
		models.Range{MinFreq: 500, MaxFreq: 500, MinLevel: 0, MaxLevel: 0},
		resolveRange(&models.RangeParams{MinFreq: floatPtr(500)}, models.Range{}, false))
}

func TestOutcomeOf(t *testing.T) {
	assert.Equal(t, metrics.OutcomeOK, outcomeOf(nil))
	assert.Equal(t, metrics.OutcomeParseError, outcomeOf(&spectrum.ParseError{File: "a", Line: 1, Err: errors.New("x")}))
	assert.Equal(t, metrics.OutcomeConfigError, outcomeOf(&spectrum.ConfigError{Field: "mode"}))
	assert.Equal(t, metrics.OutcomeStorage, outcomeOf(ErrStorageUnavailable))
	assert.Equal(t, metrics.OutcomeStorage, outcomeOf(&FetchError{Key: "k", Err: errors.New("boom")}))
	assert.Equal(t, metrics.OutcomeInternal, outcomeOf(errors.New("boom")))
}
