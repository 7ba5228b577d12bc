package api

import (
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/RMahshie/micfreq/internal/api/handlers"
	"github.com/RMahshie/micfreq/internal/processing"
	"github.com/RMahshie/micfreq/internal/storage"
)

// RegisterRoutes sets up all API routes. store may be nil when no bucket is configured.
func RegisterRoutes(api huma.API, analysisSvc processing.AnalysisService, store storage.ScanStore) {
	// Initialize handlers
	analysisHandler := handlers.NewAnalysisHandler(analysisSvc, store)

	// Register analysis routes
	huma.Register(api, huma.Operation{
		OperationID: "createAnalysis",
		Method:      http.MethodPost,
		Path:        "/api/analyses",
		Summary:     "Run an analysis",
		Description: "Parses the scans, combines them, applies the range and selects microphone frequencies",
		Tags:        []string{"Analysis"},
	}, analysisHandler.CreateAnalysis)

	huma.Register(api, huma.Operation{
		OperationID: "exportCombined",
		Method:      http.MethodPost,
		Path:        "/api/analyses/export/combined",
		Summary:     "Export combined series",
		Description: "Returns the filtered combined series as CSV",
		Tags:        []string{"Export"},
	}, analysisHandler.ExportCombined)

	huma.Register(api, huma.Operation{
		OperationID: "exportPeaks",
		Method:      http.MethodPost,
		Path:        "/api/analyses/export/peaks",
		Summary:     "Export detected peaks",
		Description: "Returns the samples above the peak threshold as CSV",
		Tags:        []string{"Export"},
	}, analysisHandler.ExportPeaks)

	huma.Register(api, huma.Operation{
		OperationID: "exportSelection",
		Method:      http.MethodPost,
		Path:        "/api/analyses/export/selection",
		Summary:     "Export selected frequencies",
		Description: "Returns the selected microphone frequencies as CSV",
		Tags:        []string{"Export"},
	}, analysisHandler.ExportSelection)

	huma.Register(api, huma.Operation{
		OperationID: "renderChart",
		Method:      http.MethodPost,
		Path:        "/api/analyses/chart",
		Summary:     "Render spectrum chart",
		Description: "Draws every dataset, the combined curve, peaks and selection as a PNG",
		Tags:        []string{"Export"},
	}, analysisHandler.RenderChart)

	// Register scan upload routes
	huma.Register(api, huma.Operation{
		OperationID: "createScanUploadURL",
		Method:      http.MethodPost,
		Path:        "/api/scans/upload-url",
		Summary:     "Create scan upload URL",
		Description: "Returns a pre-signed URL for uploading a scan export to object storage",
		Tags:        []string{"Scans"},
	}, analysisHandler.CreateUploadURL)
}
