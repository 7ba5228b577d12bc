package models

// ScanFile is one uploaded spectrum scan, given inline or as an object storage key
type ScanFile struct {
	Name    string `json:"name" minLength:"1" maxLength:"255" doc:"Display name used in chart legends"`
	Content string `json:"content,omitempty" doc:"Raw scan text: 'frequency_hz;level_db' rows with decimal commas"`
	S3Key   string `json:"s3_key,omitempty" doc:"Object key of a scan previously uploaded through an upload URL"`
}

// RangeParams is the optional filter rectangle of an analysis request.
// Omitted bounds default to the bounds of the combined data.
type RangeParams struct {
	MinFreq  *float64 `json:"min_freq_mhz,omitempty" doc:"Lower frequency bound in MHz"`
	MaxFreq  *float64 `json:"max_freq_mhz,omitempty" doc:"Upper frequency bound in MHz"`
	MinLevel *float64 `json:"min_level_db,omitempty" doc:"Lower level bound in dB"`
	MaxLevel *float64 `json:"max_level_db,omitempty" doc:"Upper level bound in dB"`
}

// AnalysisParams holds everything needed to recompute an analysis from scratch
type AnalysisParams struct {
	Files         []ScanFile   `json:"files" maxItems:"64" doc:"Scan files to combine"`
	Mode          string       `json:"mode,omitempty" doc:"Reduction mode: mean or max"`
	MicCount      *int         `json:"mic_count,omitempty" doc:"Number of frequencies to select"`
	SeparationMHz *float64     `json:"separation_mhz,omitempty" doc:"Minimum separation between selected frequencies in MHz"`
	Range         *RangeParams `json:"range,omitempty" doc:"Frequency/level rectangle applied before selection"`
	DetectPeaks   bool         `json:"detect_peaks,omitempty" doc:"Report samples above the peak threshold"`
	PeakThreshold *float64     `json:"peak_threshold_db,omitempty" doc:"Peak threshold in dB, defaults to max - (max-min)/4"`
}

// CreateAnalysisRequest represents a request to run an analysis
type CreateAnalysisRequest struct {
	Body AnalysisParams
}

// SelectionSummary is the API view of a SelectionResult
type SelectionSummary struct {
	Frequencies []float64 `json:"frequencies" doc:"Selected frequencies in MHz, quietest first"`
	Entries     []Sample  `json:"entries" doc:"Selected frequencies with their combined level"`
	Requested   int       `json:"requested" doc:"Number of frequencies requested"`
	Count       int       `json:"count" doc:"Number of frequencies found"`
	UnderFilled bool      `json:"under_filled" doc:"True when fewer frequencies than requested were found"`
	Message     string    `json:"message" doc:"Human-readable summary"`
}

// AnalysisResultBody is the full outcome of one pipeline run
type AnalysisResultBody struct {
	ID            string           `json:"id" doc:"Analysis identifier"`
	Mode          ReductionMode    `json:"mode" enum:"mean,max" doc:"Reduction mode used"`
	Datasets      []DatasetSummary `json:"datasets" doc:"Parsed scan files"`
	Combined      []Sample         `json:"combined" doc:"Combined series sorted by frequency"`
	Range         Range            `json:"range" doc:"Filter rectangle actually applied"`
	Filtered      []Sample         `json:"filtered" doc:"Combined series restricted to the range"`
	PeakThreshold *float64         `json:"peak_threshold_db,omitempty" doc:"Threshold used for peak detection"`
	Peaks         []Sample         `json:"peaks,omitempty" doc:"Samples above the peak threshold"`
	Selection     SelectionSummary `json:"selection" doc:"Selected microphone frequencies"`
	Warnings      []Warning        `json:"warnings,omitempty" doc:"Non-fatal conditions"`
}

// CreateAnalysisResponse represents the response from running an analysis
type CreateAnalysisResponse struct {
	Body AnalysisResultBody
}

// FileResponse carries a rendered export (CSV table or PNG chart)
type FileResponse struct {
	ContentType        string `header:"Content-Type"`
	ContentDisposition string `header:"Content-Disposition"`
	Body               []byte
}

// CreateUploadURLRequest represents a request for a scan upload URL
type CreateUploadURLRequest struct {
	Body struct {
		FileName string `json:"file_name" minLength:"1" maxLength:"255" required:"true" doc:"Original scan file name"`
	}
}

// CreateUploadURLResponseBody is the body of the upload URL response
type CreateUploadURLResponseBody struct {
	S3Key     string `json:"s3_key" doc:"Object key to reference in analysis requests"`
	UploadURL string `json:"upload_url" doc:"Pre-signed URL for a PUT upload"`
	ExpiresIn int    `json:"expires_in" doc:"URL expiration time in seconds"`
}

// CreateUploadURLResponse represents the response from creating an upload URL
type CreateUploadURLResponse struct {
	Body CreateUploadURLResponseBody
}
