package dto

import "github.com/tkd-core/dojo-api/internal/models"

// RecordAttendanceRequest records one person's attendance at a session.
type RecordAttendanceRequest struct {
	PersonID    int64                   `json:"personId" validate:"required,gt=0"`
	Status      models.AttendanceStatus `json:"status" validate:"required,oneof=present absent excused"`
	Description *string                 `json:"description" validate:"omitempty,max=2000"`
}

// UpdateAttendanceRequest changes an existing attendance record.
type UpdateAttendanceRequest struct {
	Status      models.AttendanceStatus `json:"status" validate:"required,oneof=present absent excused"`
	Description *string                 `json:"description" validate:"omitempty,max=2000"`
}

// AttendanceResult is returned by attendance writes. Warnings are non-fatal.
type AttendanceResult struct {
	models.Attendance
	Warnings []string `json:"warnings,omitempty"`
}

// AttendanceSheet is a session's attendance with a status summary.
type AttendanceSheet struct {
	Session models.ClassSession       `json:"session"`
	Records []models.AttendanceRecord `json:"records"`
	Summary models.AttendanceSummary  `json:"summary"`
}
