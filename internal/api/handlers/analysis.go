package handlers

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/RMahshie/micfreq/internal/chart"
	"github.com/RMahshie/micfreq/internal/processing"
	"github.com/RMahshie/micfreq/internal/spectrum"
	"github.com/RMahshie/micfreq/internal/storage"
	"github.com/RMahshie/micfreq/pkg/models"
)

const (
	csvContentType = "text/csv; charset=utf-8"
	pngContentType = "image/png"
)

// AnalysisHandler handles analysis-related HTTP requests
type AnalysisHandler struct {
	svc   processing.AnalysisService
	store storage.ScanStore
}

// NewAnalysisHandler creates a new analysis handler. store may be nil when no bucket is configured.
func NewAnalysisHandler(svc processing.AnalysisService, store storage.ScanStore) *AnalysisHandler {
	return &AnalysisHandler{
		svc:   svc,
		store: store,
	}
}

// CreateAnalysis runs the pipeline and returns every intermediate result
func (h *AnalysisHandler) CreateAnalysis(ctx context.Context, req *models.CreateAnalysisRequest) (*models.CreateAnalysisResponse, error) {
	result, err := h.run(ctx, req)
	if err != nil {
		return nil, err
	}

	return &models.CreateAnalysisResponse{Body: toResultBody(result)}, nil
}

// ExportCombined returns the filtered combined series as CSV
func (h *AnalysisHandler) ExportCombined(ctx context.Context, req *models.CreateAnalysisRequest) (*models.FileResponse, error) {
	result, err := h.run(ctx, req)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := spectrum.WriteTableCSV(&buf, result.Filtered, result.Combined.Mode); err != nil {
		return nil, huma.Error500InternalServerError("Failed to write CSV", err)
	}
	return fileResponse(csvContentType, "filtered_averaged_frequencies.csv", buf.Bytes()), nil
}

// ExportPeaks returns the detected peaks as CSV. Peak detection is always on for this export.
func (h *AnalysisHandler) ExportPeaks(ctx context.Context, req *models.CreateAnalysisRequest) (*models.FileResponse, error) {
	req.Body.DetectPeaks = true
	result, err := h.run(ctx, req)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := spectrum.WriteTableCSV(&buf, result.Peaks, result.Combined.Mode); err != nil {
		return nil, huma.Error500InternalServerError("Failed to write CSV", err)
	}
	return fileResponse(csvContentType, "detected_peaks.csv", buf.Bytes()), nil
}

// ExportSelection returns the selected frequencies as a one-column CSV
func (h *AnalysisHandler) ExportSelection(ctx context.Context, req *models.CreateAnalysisRequest) (*models.FileResponse, error) {
	result, err := h.run(ctx, req)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := spectrum.WriteSelectionCSV(&buf, result.Selection); err != nil {
		return nil, huma.Error500InternalServerError("Failed to write CSV", err)
	}
	return fileResponse(csvContentType, "selected_frequencies.csv", buf.Bytes()), nil
}

// RenderChart draws the datasets, the combined curve, peaks and selection as PNG
func (h *AnalysisHandler) RenderChart(ctx context.Context, req *models.CreateAnalysisRequest) (*models.FileResponse, error) {
	result, err := h.run(ctx, req)
	if err != nil {
		return nil, err
	}

	sc := chart.SpectrumChart{
		Datasets: result.Datasets,
		Combined: result.Sorted,
		Mode:     result.Combined.Mode,
		Peaks:    result.Peaks,
		Selected: result.Selection.Selected,
	}

	var buf bytes.Buffer
	if err := sc.Render(&buf); err != nil {
		if errors.Is(err, chart.ErrNotEnoughData) {
			return nil, huma.Error400BadRequest("Not enough data to draw a chart", err)
		}
		return nil, huma.Error500InternalServerError("Failed to render chart", err)
	}
	return fileResponse(pngContentType, "spectrum.png", buf.Bytes()), nil
}

// CreateUploadURL returns a pre-signed URL for uploading a scan file
func (h *AnalysisHandler) CreateUploadURL(ctx context.Context, req *models.CreateUploadURLRequest) (*models.CreateUploadURLResponse, error) {
	if h.store == nil {
		return nil, huma.Error503ServiceUnavailable("Scan storage is not configured")
	}

	name := path.Base(strings.ReplaceAll(req.Body.FileName, "\\", "/"))
	if name == "." || name == "/" {
		return nil, huma.Error400BadRequest("Invalid file name")
	}
	scanKey := fmt.Sprintf("scans/%s/%s", uuid.New(), name)

	log.Info().Str("scanKey", scanKey).Msg("Generating S3 upload URL")
	uploadURL, err := h.store.GenerateUploadURL(ctx, scanKey, "text/csv")
	if err != nil {
		return nil, huma.Error502BadGateway("Failed to prepare upload. Please try again.", err)
	}

	return &models.CreateUploadURLResponse{
		Body: models.CreateUploadURLResponseBody{
			S3Key:     scanKey,
			UploadURL: uploadURL,
			ExpiresIn: int(storage.UploadURLExpiry / time.Second),
		},
	}, nil
}

func (h *AnalysisHandler) run(ctx context.Context, req *models.CreateAnalysisRequest) (*processing.Result, error) {
	result, err := h.svc.Analyze(ctx, req.Body)
	if err != nil {
		log.Warn().Err(err).Int("fileCount", len(req.Body.Files)).Msg("Analysis failed")
		return nil, toHTTPError(err)
	}
	return result, nil
}

// toHTTPError maps pipeline errors onto status codes
func toHTTPError(err error) error {
	var parseErr *spectrum.ParseError
	var cfgErr *spectrum.ConfigError
	var fetchErr *processing.FetchError

	switch {
	case errors.As(err, &parseErr):
		return huma.Error400BadRequest(parseErr.Error(), err)
	case errors.As(err, &cfgErr):
		return huma.Error400BadRequest(cfgErr.Error(), err)
	case errors.Is(err, processing.ErrStorageUnavailable):
		return huma.Error503ServiceUnavailable("Scan storage is not configured", err)
	case errors.As(err, &fetchErr):
		if errors.Is(err, storage.ErrScanNotFound) || errors.Is(err, storage.ErrScanTooLarge) {
			return huma.Error400BadRequest(fetchErr.Error(), err)
		}
		return huma.Error502BadGateway("Failed to fetch scan from storage", err)
	default:
		return huma.Error500InternalServerError("Analysis failed", err)
	}
}

func toResultBody(r *processing.Result) models.AnalysisResultBody {
	body := models.AnalysisResultBody{
		ID:            r.ID,
		Mode:          r.Combined.Mode,
		Datasets:      make([]models.DatasetSummary, 0, len(r.Datasets)),
		Combined:      nonNil(r.Sorted),
		Range:         r.Range,
		Filtered:      nonNil(r.Filtered),
		PeakThreshold: r.PeakThreshold,
		Peaks:         r.Peaks,
		Warnings:      r.Warnings,
		Selection: models.SelectionSummary{
			Frequencies: r.Selection.Frequencies(),
			Entries:     nonNil(r.Selection.Selected),
			Requested:   r.Selection.Requested,
			Count:       len(r.Selection.Selected),
			UnderFilled: r.Selection.UnderFilled(),
			Message:     r.Selection.Summary(),
		},
	}

	for _, ds := range r.Datasets {
		summary := models.DatasetSummary{Name: ds.Name, SampleCount: len(ds.Samples)}
		if b, ok := spectrum.Bounds(ds.Samples); ok {
			summary.MinFreq, summary.MaxFreq = b.MinFreq, b.MaxFreq
		}
		body.Datasets = append(body.Datasets, summary)
	}
	return body
}

func fileResponse(contentType, filename string, data []byte) *models.FileResponse {
	return &models.FileResponse{
		ContentType:        contentType,
		ContentDisposition: fmt.Sprintf("attachment; filename=%q", filename),
		Body:               data,
	}
}

func nonNil(s []models.Sample) []models.Sample {
	if s == nil {
		return []models.Sample{}
	}
	return s
}
