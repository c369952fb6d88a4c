package service

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/tkd-core/dojo-api/internal/dto"
	"github.com/tkd-core/dojo-api/pkg/export"
	appErrors "github.com/tkd-core/dojo-api/pkg/errors"
)

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

// ExportService renders attendance sheets for download.
type ExportService struct {
	csv    csvRenderer
	pdf    pdfRenderer
	logger *zap.Logger
}

// NewExportService constructs an ExportService. Nil renderers fall back to the defaults.
func NewExportService(csv csvRenderer, pdf pdfRenderer, logger *zap.Logger) *ExportService {
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportService{csv: csv, pdf: pdf, logger: logger}
}

// AttendanceSheet renders the sheet in the requested format.
func (s *ExportService) AttendanceSheet(sheet *dto.AttendanceSheet, format dto.ExportFormat) (*dto.ExportFile, error) {
	data := attendanceDataset(sheet)
	base := fmt.Sprintf("session-%d-attendance", sheet.Session.ID)

	switch format {
	case dto.ExportFormatCSV, "":
		body, err := s.csv.Render(data)
		if err != nil {
			return nil, appErrors.Internal(err, "failed to render csv")
		}
		return &dto.ExportFile{Filename: base + ".csv", ContentType: "text/csv", Body: body}, nil
	case dto.ExportFormatPDF:
		body, err := s.pdf.Render(data)
		if err != nil {
			return nil, appErrors.Internal(err, "failed to render pdf")
		}
		return &dto.ExportFile{Filename: base + ".pdf", ContentType: "application/pdf", Body: body}, nil
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported export format %q", format))
	}
}

func attendanceDataset(sheet *dto.AttendanceSheet) export.Dataset {
	session := sheet.Session
	data := export.Dataset{
		Title: fmt.Sprintf("Class session #%d", session.ID),
		Notes: []string{
			fmt.Sprintf("%s - %s", session.StartTime.Format(time.RFC3339), session.EndTime.Format(time.RFC3339)),
			fmt.Sprintf("Coach #%d, groups %v", session.CoachID, session.GroupIDs),
			fmt.Sprintf("Present %d, absent %d, excused %d, total %d",
				sheet.Summary.Present, sheet.Summary.Absent, sheet.Summary.Excused, sheet.Summary.Total),
		},
		Headers: []string{"Person ID", "Last name", "First name", "Status", "Description"},
	}
	for _, rec := range sheet.Records {
		desc := ""
		if rec.Description != nil {
			desc = *rec.Description
		}
		data.Rows = append(data.Rows, []string{
			fmt.Sprintf("%d", rec.PersonID), rec.LastName, rec.FirstName, string(rec.Status), desc,
		})
	}
	return data
}
