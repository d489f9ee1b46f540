package models

import "time"

// ReportFormat enumerates supported attendance export formats.
type ReportFormat string

const (
	ReportFormatCSV ReportFormat = "csv"
	ReportFormatPDF ReportFormat = "pdf"
)

// Valid returns true when the format is supported.
func (f ReportFormat) Valid() bool {
	return f == ReportFormatCSV || f == ReportFormatPDF
}

// ContentType returns the MIME type served for downloads.
func (f ReportFormat) ContentType() string {
	switch f {
	case ReportFormatPDF:
		return "application/pdf"
	default:
		return "text/csv"
	}
}

// AttendanceReport describes a rendered export on disk.
type AttendanceReport struct {
	ID           string       `json:"id"`
	Format       ReportFormat `json:"format"`
	RelativePath string       `json:"-"`
	Subjects     int          `json:"subjects"`
	URL          string       `json:"url,omitempty"`
	Token        string       `json:"token,omitempty"`
	GeneratedAt  time.Time    `json:"generated_at"`
	ExpiresAt    time.Time    `json:"expires_at"`
}
