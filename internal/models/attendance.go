package models

// AttendanceStatus mirrors the attendance_status Postgres enum.
type AttendanceStatus string

const (
	AttendanceStatusPresent AttendanceStatus = "present"
	AttendanceStatusAbsent  AttendanceStatus = "absent"
	AttendanceStatusExcused AttendanceStatus = "excused"
)

// Attendance is the single record of one person at one session.
type Attendance struct {
	ID          int64            `db:"id" json:"id"`
	SessionID   int64            `db:"session_id" json:"session_id"`
	PersonID    int64            `db:"person_id" json:"person_id"`
	Status      AttendanceStatus `db:"status" json:"status"`
	Description *string          `db:"description" json:"description,omitempty"`
}

// AttendanceRecord extends attendance with the person's name for listings and sheets.
type AttendanceRecord struct {
	Attendance
	FirstName string `db:"firstName" json:"first_name"`
	LastName  string `db:"lastName" json:"last_name"`
}

// AttendanceSummary counts statuses for a session.
type AttendanceSummary struct {
	Present int `json:"present"`
	Absent  int `json:"absent"`
	Excused int `json:"excused"`
	Total   int `json:"total"`
}
