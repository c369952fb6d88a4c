package service

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tkd-core/dojo-api/internal/dto"
	"github.com/tkd-core/dojo-api/internal/models"
	"github.com/tkd-core/dojo-api/pkg/export"
	appErrors "github.com/tkd-core/dojo-api/pkg/errors"
)

type failingRenderer struct{}

func (failingRenderer) Render(data export.Dataset) ([]byte, error) {
	return nil, errors.New("disk full")
}

func sampleSheet() *dto.AttendanceSheet {
	start := time.Date(2024, 6, 3, 18, 0, 0, 0, time.UTC)
	note := "late arrival"
	return &dto.AttendanceSheet{
		Session: models.ClassSession{ID: 4, StartTime: start, EndTime: start.Add(time.Hour), CoachID: 100, GroupIDs: []int64{1, 2}},
		Records: []models.AttendanceRecord{
			{Attendance: models.Attendance{SessionID: 4, PersonID: 5, Status: models.AttendanceStatusPresent, Description: &note}, FirstName: "Ana", LastName: "Kim"},
			{Attendance: models.Attendance{SessionID: 4, PersonID: 7, Status: models.AttendanceStatusAbsent}, FirstName: "Bo", LastName: "Lee"},
		},
		Summary: models.AttendanceSummary{Present: 1, Absent: 1, Total: 2},
	}
}

func TestExportServiceDefaultsToCSV(t *testing.T) {
	svc := NewExportService(nil, nil, nil)

	file, err := svc.AttendanceSheet(sampleSheet(), "")
	require.NoError(t, err)
	assert.Equal(t, "session-4-attendance.csv", file.Filename)

	lines := strings.Split(strings.TrimSpace(string(file.Body)), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "Person ID,Last name,First name,Status,Description", lines[0])
	assert.Equal(t, "5,Kim,Ana,present,late arrival", lines[1])
	assert.Equal(t, "7,Lee,Bo,absent,", lines[2])
}

func TestExportServiceRendererFailure(t *testing.T) {
	svc := NewExportService(failingRenderer{}, failingRenderer{}, nil)

	_, err := svc.AttendanceSheet(sampleSheet(), dto.ExportFormatCSV)
	assert.ErrorIs(t, err, appErrors.ErrInternal)
	_, err = svc.AttendanceSheet(sampleSheet(), dto.ExportFormatPDF)
	assert.ErrorIs(t, err, appErrors.ErrInternal)
}
