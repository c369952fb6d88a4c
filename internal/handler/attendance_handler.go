package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/tkd-core/dojo-api/internal/dto"
	"github.com/tkd-core/dojo-api/internal/middleware"
	"github.com/tkd-core/dojo-api/internal/models"
	"github.com/tkd-core/dojo-api/pkg/response"
)

type attendanceService interface {
	Record(ctx context.Context, sessionID int64, req dto.RecordAttendanceRequest) (*dto.AttendanceResult, error)
	Update(ctx context.Context, sessionID, personID int64, req dto.UpdateAttendanceRequest) (*models.Attendance, error)
	Sheet(ctx context.Context, sessionID int64) (*dto.AttendanceSheet, error)
	Export(ctx context.Context, sessionID int64, format dto.ExportFormat) (*dto.ExportFile, error)
}

// AttendanceHandler exposes the attendance ledger.
type AttendanceHandler struct {
	attendance attendanceService
}

// NewAttendanceHandler constructs AttendanceHandler.
func NewAttendanceHandler(attendance attendanceService) *AttendanceHandler {
	return &AttendanceHandler{attendance: attendance}
}

// Record godoc
// @Summary Record attendance
// @Description Persons outside the session's groups are recorded with a warning in the response.
// @Tags Attendance
// @Accept json
// @Produce json
// @Param id path int true "Session ID"
// @Param payload body dto.RecordAttendanceRequest true "Attendance payload"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Security BearerAuth
// @Router /sessions/{id}/attendance [post]
func (h *AttendanceHandler) Record(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req dto.RecordAttendanceRequest
	if !bindJSON(c, &req) {
		return
	}
	result, err := h.attendance.Record(c.Request.Context(), id, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	if len(result.Warnings) > 0 {
		middleware.SetMeta(c, "warnings", len(result.Warnings))
	}
	response.Created(c, result, middleware.ExtractMeta(c))
}

// Update godoc
// @Summary Update attendance
// @Tags Attendance
// @Accept json
// @Produce json
// @Param id path int true "Session ID"
// @Param personId path int true "Person ID"
// @Param payload body dto.UpdateAttendanceRequest true "Attendance payload"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Security BearerAuth
// @Router /sessions/{id}/attendance/{personId} [put]
func (h *AttendanceHandler) Update(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	personID, ok := pathID(c, "personId")
	if !ok {
		return
	}
	var req dto.UpdateAttendanceRequest
	if !bindJSON(c, &req) {
		return
	}
	record, err := h.attendance.Update(c.Request.Context(), id, personID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, record, nil)
}

// List godoc
// @Summary Attendance sheet of a session
// @Tags Attendance
// @Produce json
// @Param id path int true "Session ID"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /sessions/{id}/attendance [get]
func (h *AttendanceHandler) List(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	sheet, err := h.attendance.Sheet(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, sheet, nil)
}

// Export godoc
// @Summary Download the attendance sheet
// @Tags Attendance
// @Produce text/csv
// @Produce application/pdf
// @Param id path int true "Session ID"
// @Param format query string false "csv or pdf" Enums(csv, pdf)
// @Success 200 {file} file
// @Security BearerAuth
// @Router /sessions/{id}/attendance/export [get]
func (h *AttendanceHandler) Export(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	format := dto.ExportFormat(strings.ToLower(c.DefaultQuery("format", string(dto.ExportFormatCSV))))
	file, err := h.attendance.Export(c.Request.Context(), id, format)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, file.Filename, file.ContentType, file.Body)
}
