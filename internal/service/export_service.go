package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/noah-isme/timetable-portal-api/internal/dto"
	appErrors "github.com/noah-isme/timetable-portal-api/pkg/errors"
	"github.com/noah-isme/timetable-portal-api/pkg/export"
)

// Export formats accepted by the download endpoints.
const (
	ExportFormatPDF = "pdf"
	ExportFormatCSV = "csv"
)

// ExportResult carries rendered bytes with their transport metadata.
type ExportResult struct {
	ContentType string
	Filename    string
	Data        []byte
}

// ExportService renders student timetables into downloadable documents.
type ExportService struct {
	timetables *TimetableService
	pdf        *export.PDFExporter
	csv        *export.CSVExporter
	logger     *zap.Logger
}

// NewExportService constructs the service.
func NewExportService(timetables *TimetableService, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportService{
		timetables: timetables,
		pdf:        export.NewPDFExporter(),
		csv:        export.NewCSVExporter(),
		logger:     logger,
	}
}

// StudentTimetable renders the student's personal view of the published
// timetable in the requested format.
func (s *ExportService) StudentTimetable(ctx context.Context, studentID, studentName, format string) (*ExportResult, error) {
	view, err := s.timetables.StudentTimetable(ctx, studentID, studentName)
	if err != nil {
		return nil, err
	}

	switch format {
	case ExportFormatPDF:
		return s.renderPDF(view)
	case ExportFormatCSV:
		return s.renderCSV(view)
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, "unsupported export format: "+format)
	}
}

func (s *ExportService) renderPDF(view *dto.StudentTimetable) (*ExportResult, error) {
	grid := export.Grid{
		SlotLabels: view.Grid.Slots,
		DayLabels:  view.Grid.Days,
		Cells:      view.Grid.Cells,
	}
	title := fmt.Sprintf("Weekly Timetable - %s", view.StudentName)
	data, err := s.pdf.RenderGrid(grid, courseDataset(view.Courses), title)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf")
	}
	return &ExportResult{
		ContentType: "application/pdf",
		Filename:    fmt.Sprintf("timetable-%s-v%d.pdf", view.StudentID, view.Version),
		Data:        data,
	}, nil
}

func (s *ExportService) renderCSV(view *dto.StudentTimetable) (*ExportResult, error) {
	data, err := s.csv.Render(courseDataset(view.Courses))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv")
	}
	return &ExportResult{
		ContentType: "text/csv",
		Filename:    fmt.Sprintf("timetable-%s-v%d.csv", view.StudentID, view.Version),
		Data:        data,
	}, nil
}

func courseDataset(courses []dto.TimetableEntryDTO) export.Dataset {
	dataset := export.Dataset{
		Headers: []string{"Subject", "Faculty", "Day", "Slot", "Room"},
		Rows:    make([]map[string]string, 0, len(courses)),
	}
	for _, c := range courses {
		dataset.Rows = append(dataset.Rows, map[string]string{
			"Subject": c.Subject,
			"Faculty": c.Faculty,
			"Day":     c.Day,
			"Slot":    c.Slot,
			"Room":    c.Room,
		})
	}
	return dataset
}
