package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/openedx-sample-plugin/internal/dto"
	"github.com/noah-isme/openedx-sample-plugin/internal/models"
	appErrors "github.com/noah-isme/openedx-sample-plugin/pkg/errors"
	"github.com/noah-isme/openedx-sample-plugin/pkg/export"
)

// ExportFormat selects the rendered file type.
type ExportFormat string

const (
	ExportFormatCSV ExportFormat = "csv"
	ExportFormatPDF ExportFormat = "pdf"
)

const exportPageSize = 100

type courseArchiveStatusLister interface {
	List(ctx context.Context, query dto.CourseArchiveStatusQuery, actor *models.JWTClaims) ([]models.CourseArchiveStatus, models.Pagination, error)
}

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(data export.Dataset, title string) ([]byte, error)
}

// ExportResult is a rendered file ready to stream.
type ExportResult struct {
	Filename    string
	ContentType string
	Payload     []byte
	Rows        int
}

// ExportService renders the archive statuses visible to a user.
type ExportService struct {
	statuses courseArchiveStatusLister
	csv      csvRenderer
	pdf      pdfRenderer
	logger   *zap.Logger
	now      func() time.Time
}

// NewExportService constructs an ExportService.
func NewExportService(statuses courseArchiveStatusLister, logger *zap.Logger, csv csvRenderer, pdf pdfRenderer) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	return &ExportService{statuses: statuses, csv: csv, pdf: pdf, logger: logger, now: time.Now}
}

// ExportCourseArchiveStatuses walks every page visible to actor and renders it.
func (s *ExportService) ExportCourseArchiveStatuses(ctx context.Context, format ExportFormat, query dto.CourseArchiveStatusQuery, actor *models.JWTClaims) (*ExportResult, error) {
	if format == "" {
		format = ExportFormatCSV
	}
	if format != ExportFormatCSV && format != ExportFormatPDF {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported export format %q", format))
	}

	dataset := export.Dataset{Headers: dto.CourseArchiveStatusFields}
	query.PageSize = exportPageSize
	for page := 1; ; page++ {
		query.Page = page
		items, pagination, err := s.statuses.List(ctx, query, actor)
		if err != nil {
			return nil, err
		}
		for _, item := range items {
			dataset.Rows = append(dataset.Rows, statusRow(item))
		}
		if len(items) == 0 || page*pagination.PageSize >= pagination.TotalCount {
			break
		}
	}

	var (
		payload     []byte
		err         error
		contentType string
	)
	switch format {
	case ExportFormatCSV:
		payload, err = s.csv.Render(dataset)
		contentType = "text/csv"
	case ExportFormatPDF:
		payload, err = s.pdf.Render(dataset, "Course archive statuses")
		contentType = "application/pdf"
	}
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render export")
	}

	s.logger.Debug("rendered course archive status export",
		zap.String("format", string(format)),
		zap.Int("rows", len(dataset.Rows)),
		zap.Int64("actor_id", actor.UserID),
	)
	return &ExportResult{
		Filename:    fmt.Sprintf("course_archive_statuses_%s.%s", s.now().UTC().Format("20060102_150405"), format),
		ContentType: contentType,
		Payload:     payload,
		Rows:        len(dataset.Rows),
	}, nil
}

func statusRow(item models.CourseArchiveStatus) export.Row {
	return export.Row{
		"id":           item.ID,
		"course_id":    item.CourseID,
		"user":         item.UserID,
		"is_archived":  item.IsArchived,
		"archive_date": item.ArchiveDate,
		"created_at":   item.CreatedAt,
		"updated_at":   item.UpdatedAt,
	}
}
