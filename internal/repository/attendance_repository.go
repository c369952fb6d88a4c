package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/tkd-core/dojo-api/internal/models"
)

// AttendanceRepository persists the attendance ledger.
type AttendanceRepository struct {
	db *sqlx.DB
}

// NewAttendanceRepository constructs an AttendanceRepository.
func NewAttendanceRepository(db *sqlx.DB) *AttendanceRepository {
	return &AttendanceRepository{db: db}
}

// Create inserts an attendance record. ErrDuplicate signals an existing (session, person) record.
func (r *AttendanceRepository) Create(ctx context.Context, record *models.Attendance) error {
	const query = `INSERT INTO "tkd-core_attendance" (session_id, person_id, status, description) VALUES ($1, $2, $3, $4) RETURNING id`
	if err := r.db.QueryRowxContext(ctx, query, record.SessionID, record.PersonID, record.Status, record.Description).Scan(&record.ID); err != nil {
		return classify("record attendance", err)
	}
	return nil
}

// Update changes the status and description of an existing record.
func (r *AttendanceRepository) Update(ctx context.Context, record *models.Attendance) error {
	const query = `UPDATE "tkd-core_attendance" SET status = $3, description = $4
        WHERE session_id = $1 AND person_id = $2 RETURNING id`
	if err := r.db.QueryRowxContext(ctx, query, record.SessionID, record.PersonID, record.Status, record.Description).Scan(&record.ID); err != nil {
		return err
	}
	return nil
}

// ListBySession returns a session's records with person names.
func (r *AttendanceRepository) ListBySession(ctx context.Context, sessionID int64) ([]models.AttendanceRecord, error) {
	const query = `SELECT a.id, a.session_id, a.person_id, a.status, a.description, p."firstName", p."lastName"
        FROM "tkd-core_attendance" a
        JOIN "tkd-core_persons" p ON p.id = a.person_id
        WHERE a.session_id = $1
        ORDER BY p."lastName", p."firstName", a.id`
	records := []models.AttendanceRecord{}
	if err := r.db.SelectContext(ctx, &records, query, sessionID); err != nil {
		return nil, fmt.Errorf("list attendance: %w", err)
	}
	return records, nil
}
