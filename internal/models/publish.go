package models

import "time"

// PublishStatus captures the lifecycle of a publish job.
type PublishStatus string

const (
	PublishStatusQueued     PublishStatus = "QUEUED"
	PublishStatusProcessing PublishStatus = "PROCESSING"
	PublishStatusFinished   PublishStatus = "FINISHED"
	PublishStatusFailed     PublishStatus = "FAILED"
)

// PublishedFile is one rendered page stored for download.
type PublishedFile struct {
	Page      string    `json:"page"`
	Path      string    `json:"path"`
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expires_at"`
}

// PublishJob tracks rendering of an offering's pages to storage.
type PublishJob struct {
	ID         string          `json:"id"`
	OfferingID string          `json:"offering_id"`
	Pages      []string        `json:"pages"`
	Status     PublishStatus   `json:"status"`
	Files      []PublishedFile `json:"files,omitempty"`
	Error      string          `json:"error,omitempty"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

// Done reports whether the job reached a terminal state.
func (j PublishJob) Done() bool {
	return j.Status == PublishStatusFinished || j.Status == PublishStatusFailed
}

// ExportFormat enumerates downloadable schedule formats.
type ExportFormat string

const (
	ExportFormatCSV  ExportFormat = "csv"
	ExportFormatPDF  ExportFormat = "pdf"
	ExportFormatXLSX ExportFormat = "xlsx"
	ExportFormatICS  ExportFormat = "ics"
)

// ExportFile is a rendered export ready to be written to a response or storage.
type ExportFile struct {
	Filename    string
	ContentType string
	Data        []byte
}
