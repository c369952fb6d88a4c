package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/tkd-core/dojo-api/internal/dto"
	"github.com/tkd-core/dojo-api/internal/models"
	"github.com/tkd-core/dojo-api/internal/repository"
	appErrors "github.com/tkd-core/dojo-api/pkg/errors"
)

type attendanceStore interface {
	Create(ctx context.Context, record *models.Attendance) error
	Update(ctx context.Context, record *models.Attendance) error
	ListBySession(ctx context.Context, sessionID int64) ([]models.AttendanceRecord, error)
}

type sessionReader interface {
	Get(ctx context.Context, id int64) (*models.ClassSession, error)
	IsActiveMember(ctx context.Context, sessionID, personID int64) (bool, error)
}

type sheetExporter interface {
	AttendanceSheet(sheet *dto.AttendanceSheet, format dto.ExportFormat) (*dto.ExportFile, error)
}

// AttendanceService records who attended which session.
type AttendanceService struct {
	records   attendanceStore
	sessions  sessionReader
	persons   personLookup
	exporter  sheetExporter
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewAttendanceService constructs an AttendanceService.
func NewAttendanceService(
	records attendanceStore,
	sessions sessionReader,
	persons personLookup,
	exporter sheetExporter,
	metrics *MetricsService,
	validate *validator.Validate,
	logger *zap.Logger,
) *AttendanceService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AttendanceService{
		records:   records,
		sessions:  sessions,
		persons:   persons,
		exporter:  exporter,
		metrics:   metrics,
		validator: validate,
		logger:    logger,
	}
}

// Record stores one person's attendance at a session. A record for a person outside
// the session's groups is still written and comes back with a warning.
func (s *AttendanceService) Record(ctx context.Context, sessionID int64, req dto.RecordAttendanceRequest) (*dto.AttendanceResult, error) {
	if err := validate(s.validator, req); err != nil {
		return nil, err
	}
	if _, err := s.sessions.Get(ctx, sessionID); err != nil {
		return nil, err
	}
	if _, err := s.persons.Get(ctx, req.PersonID); err != nil {
		return nil, err
	}

	result := &dto.AttendanceResult{}
	member, err := s.sessions.IsActiveMember(ctx, sessionID, req.PersonID)
	if err != nil {
		s.logger.Warn("membership check failed, recording attendance anyway",
			zap.Int64("session_id", sessionID), zap.Int64("person_id", req.PersonID), zap.Error(err))
	} else if !member {
		warning := fmt.Sprintf("person %d is not an active member of any group attached to session %d", req.PersonID, sessionID)
		result.Warnings = append(result.Warnings, warning)
		s.metrics.RecordNonMemberAttendance()
		s.logger.Warn("attendance recorded for non-member",
			zap.Int64("session_id", sessionID), zap.Int64("person_id", req.PersonID))
	}

	record := models.Attendance{
		SessionID:   sessionID,
		PersonID:    req.PersonID,
		Status:      req.Status,
		Description: req.Description,
	}
	if err := s.records.Create(ctx, &record); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "attendance already recorded for this person; update it instead")
		}
		return nil, translate(err, "session or person not found", "failed to record attendance")
	}
	s.metrics.RecordAttendance(record.Status)
	result.Attendance = record
	return result, nil
}

// Update changes the status of an existing record.
func (s *AttendanceService) Update(ctx context.Context, sessionID, personID int64, req dto.UpdateAttendanceRequest) (*models.Attendance, error) {
	if err := validate(s.validator, req); err != nil {
		return nil, err
	}
	record := models.Attendance{
		SessionID:   sessionID,
		PersonID:    personID,
		Status:      req.Status,
		Description: req.Description,
	}
	if err := s.records.Update(ctx, &record); err != nil {
		return nil, translate(err, "attendance record not found", "failed to update attendance")
	}
	return &record, nil
}

// Sheet returns a session's attendance with a status summary.
func (s *AttendanceService) Sheet(ctx context.Context, sessionID int64) (*dto.AttendanceSheet, error) {
	session, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	records, err := s.records.ListBySession(ctx, sessionID)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list attendance")
	}
	return &dto.AttendanceSheet{Session: *session, Records: records, Summary: summarize(records)}, nil
}

// Export renders the session's attendance sheet as csv or pdf.
func (s *AttendanceService) Export(ctx context.Context, sessionID int64, format dto.ExportFormat) (*dto.ExportFile, error) {
	sheet, err := s.Sheet(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return s.exporter.AttendanceSheet(sheet, format)
}

func summarize(records []models.AttendanceRecord) models.AttendanceSummary {
	var sum models.AttendanceSummary
	for _, rec := range records {
		switch rec.Status {
		case models.AttendanceStatusPresent:
			sum.Present++
		case models.AttendanceStatusAbsent:
			sum.Absent++
		case models.AttendanceStatusExcused:
			sum.Excused++
		}
	}
	sum.Total = len(records)
	return sum
}
