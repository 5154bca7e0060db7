package report

// FileName is the report written next to the outputs of a run.
const FileName = "pixbatch.report.json"

// SupportedVersion is the current schema version.
const SupportedVersion = 1

// Report is the record of one batch run.
type Report struct {
	Version     int           `json:"version"`
	GeneratedAt string        `json:"generated_at"`
	Operation   string        `json:"operation"`
	Profile     ProfileInfo   `json:"profile"`
	Download    *DownloadInfo `json:"download,omitempty"`
	Entries     []Entry       `json:"entries"`
	Stats       Stats         `json:"stats"`
}

// ProfileInfo captures the settings the run used.
type ProfileInfo struct {
	Name         string  `json:"name"`
	TargetSizeKB int     `json:"target_size_kb,omitempty"`
	Quality      float64 `json:"quality,omitempty"`
	Format       string  `json:"format,omitempty"`
	Lossless     bool    `json:"lossless,omitempty"`
	Width        int     `json:"width,omitempty"`
	Height       int     `json:"height,omitempty"`
	LockAspect   bool    `json:"lock_aspect,omitempty"`
}

// DownloadInfo says where the outputs went. Archive is set when the
// outputs were bundled into one file.
type DownloadInfo struct {
	Archive string `json:"archive,omitempty"`
	Size    int64  `json:"size,omitempty"`
	Files   int    `json:"files"`
}

// Entry is one record of the batch.
type Entry struct {
	ID       string       `json:"id"`
	Name     string       `json:"name"`
	Status   string       `json:"status"`
	Error    string       `json:"error,omitempty"`
	Original OriginalInfo `json:"original"`
	Output   *OutputInfo  `json:"output,omitempty"`
}

// OriginalInfo holds metadata about the source image.
type OriginalInfo struct {
	Format   string `json:"format"`
	MIMEType string `json:"mime_type"`
	Width    int    `json:"width"`
	Height   int    `json:"height"`
	Size     int64  `json:"size"`
	HasAlpha bool   `json:"has_alpha"`
}

// OutputInfo describes the produced file of a completed record.
type OutputInfo struct {
	Name           string  `json:"name"`
	Format         string  `json:"format"`
	MIMEType       string  `json:"mime_type"`
	Width          int     `json:"width"`
	Height         int     `json:"height"`
	Size           int64   `json:"size"`
	SizeKB         int64   `json:"size_kb"`
	Quality        float64 `json:"quality"`
	RatioPercent   int     `json:"ratio_percent"`
	Attempts       int     `json:"attempts,omitempty"`
	TargetMet      bool    `json:"target_met,omitempty"`
	PreservesAlpha bool    `json:"preserves_alpha"`
	Hash           string  `json:"hash"`           // xxhash64 of the output bytes
	Path           string  `json:"path,omitempty"` // relative to the report, when written separately
}

// Stats aggregates the run.
type Stats struct {
	TotalRecords     int   `json:"total_records"`
	Completed        int   `json:"completed"`
	Failed           int   `json:"failed"`
	Pending          int   `json:"pending,omitempty"` // still ready, e.g. after cancellation
	TotalInputBytes  int64 `json:"total_input_bytes"`
	TotalOutputBytes int64 `json:"total_output_bytes"`
	ElapsedMS        int64 `json:"elapsed_ms"`
}
