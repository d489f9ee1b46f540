package service

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/attendance-tracker/internal/models"
	appErrors "github.com/noah-isme/attendance-tracker/pkg/errors"
	"github.com/noah-isme/attendance-tracker/pkg/export"
	"github.com/noah-isme/attendance-tracker/pkg/storage"
)

var reportHeaders = []string{"#", "Subject", "Attended", "Total", "Percentage", "Status"}

type subjectLister interface {
	List() []models.SubjectView
}

type fileStorage interface {
	Save(filename string, data []byte) (string, error)
	Open(filename string) (*os.File, error)
	CleanupOlderThan(ttl time.Duration) ([]string, error)
}

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(data export.Dataset, title, footnote string) ([]byte, error)
}

// ReportConfig tunes report behaviour.
type ReportConfig struct {
	APIPrefix string
	ResultTTL time.Duration
}

// ReportService renders the current subject list into CSV or PDF attendance reports.
type ReportService struct {
	subjects subjectLister
	storage  fileStorage
	signer   *storage.SignedURLSigner
	csv      csvRenderer
	pdf      pdfRenderer
	logger   *zap.Logger
	metrics  *MetricsService
	cfg      ReportConfig
	now      func() time.Time
}

// NewReportService constructs a report service. storage and signer may be nil
// when only Render is used (the CLI writes straight to a path).
func NewReportService(subjects subjectLister, store fileStorage, signer *storage.SignedURLSigner, cfg ReportConfig, logger *zap.Logger, metrics *MetricsService, csv csvRenderer, pdf pdfRenderer) *ReportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.ResultTTL <= 0 {
		cfg.ResultTTL = time.Hour
	}
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	return &ReportService{
		subjects: subjects,
		storage:  store,
		signer:   signer,
		csv:      csv,
		pdf:      pdf,
		logger:   logger,
		metrics:  metrics,
		cfg:      cfg,
		now:      time.Now,
	}
}

// ParseFormat normalises a user supplied format.
func ParseFormat(raw string) (models.ReportFormat, error) {
	format := models.ReportFormat(strings.ToLower(strings.TrimSpace(raw)))
	if format == "" {
		format = models.ReportFormatCSV
	}
	if !format.Valid() {
		return "", appErrors.Clone(appErrors.ErrUnsupportedFormat, fmt.Sprintf("unsupported format %q", raw))
	}
	return format, nil
}

// Render returns the report bytes for the current subject list.
func (s *ReportService) Render(format models.ReportFormat) ([]byte, int, error) {
	views := s.subjects.List()
	dataset := buildDataset(views)

	var (
		payload []byte
		err     error
	)
	switch format {
	case models.ReportFormatCSV:
		payload, err = s.csv.Render(dataset)
	case models.ReportFormatPDF:
		footnote := fmt.Sprintf("Generated %s. Rows below %.0f%% are shaded.", s.now().UTC().Format(time.RFC1123), AttendanceThreshold)
		payload, err = s.pdf.Render(dataset, "Attendance Report", footnote)
	default:
		return nil, 0, appErrors.Clone(appErrors.ErrUnsupportedFormat, fmt.Sprintf("unsupported format %q", format))
	}
	if err != nil {
		return nil, 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render report")
	}
	s.metrics.RecordReport(string(format))
	return payload, len(views), nil
}

// Generate renders a report, stores it and returns a signed download link.
func (s *ReportService) Generate(ctx context.Context, format models.ReportFormat) (*models.AttendanceReport, error) {
	if s.storage == nil || s.signer == nil {
		return nil, appErrors.Clone(appErrors.ErrFeatureDisabled, "report storage not configured")
	}

	payload, count, err := s.Render(format)
	if err != nil {
		return nil, err
	}

	if removed, err := s.storage.CleanupOlderThan(s.cfg.ResultTTL); err != nil {
		s.logger.Warn("report cleanup failed", zap.Error(err))
	} else if len(removed) > 0 {
		s.logger.Info("expired reports removed", zap.Int("count", len(removed)))
	}

	id := uuid.NewString()
	generatedAt := s.now().UTC()
	filename := fmt.Sprintf("reports/attendance_%s_%s.%s", generatedAt.Format("20060102_150405"), id[:8], format)
	relPath, err := s.storage.Save(filename, payload)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store report")
	}

	token, expiresAt, err := s.signer.Generate(id, relPath)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sign report url")
	}

	s.logger.Info("attendance report generated",
		zap.String("report_id", id),
		zap.String("format", string(format)),
		zap.Int("subjects", count),
	)

	return &models.AttendanceReport{
		ID:           id,
		Format:       format,
		RelativePath: relPath,
		Subjects:     count,
		Token:        token,
		URL:          strings.TrimRight(s.cfg.APIPrefix, "/") + "/reports/download/" + token,
		GeneratedAt:  generatedAt,
		ExpiresAt:    expiresAt,
	}, nil
}

// Open validates a download token and opens the stored report.
func (s *ReportService) Open(token string) (*os.File, models.ReportFormat, error) {
	if s.storage == nil || s.signer == nil {
		return nil, "", appErrors.Clone(appErrors.ErrFeatureDisabled, "report storage not configured")
	}
	grant, err := s.signer.Verify(token)
	if err != nil {
		message := "report link invalid"
		if errors.Is(err, storage.ErrTokenExpired) {
			message = "report link expired"
		}
		return nil, "", appErrors.Wrap(err, appErrors.ErrNotFound.Code, appErrors.ErrNotFound.Status, message)
	}
	format := models.ReportFormat(strings.TrimPrefix(filepath.Ext(grant.Path), "."))
	file, err := s.storage.Open(grant.Path)
	if err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrNotFound.Code, appErrors.ErrNotFound.Status, "report not found")
	}
	return file, format, nil
}

func buildDataset(views []models.SubjectView) export.Dataset {
	rows := make([][]string, 0, len(views))
	highlight := make([]bool, 0, len(views))
	for _, view := range views {
		rows = append(rows, []string{
			strconv.Itoa(view.Index + 1),
			view.Name,
			strconv.Itoa(view.Attended),
			strconv.Itoa(view.Total),
			strconv.FormatFloat(view.Percentage, 'f', 2, 64),
			view.Status,
		})
		highlight = append(highlight, view.Color == models.AttendanceColorLow)
	}
	return export.Dataset{Headers: reportHeaders, Rows: rows, Highlight: highlight}
}
