package models

import "time"

// ClassSession is a class taught by a coach to one or more groups.
type ClassSession struct {
	ID        int64     `db:"id" json:"id"`
	StartTime time.Time `db:"start_time" json:"start_time"`
	EndTime   time.Time `db:"end_time" json:"end_time"`
	CoachID   int64     `db:"coach_id" json:"coach_id"`
	GroupIDs  []int64   `db:"-" json:"group_ids"`
}

// ClassSessionGroup links a session to a group.
type ClassSessionGroup struct {
	ID        int64 `db:"id" json:"id"`
	SessionID int64 `db:"session_id" json:"session_id"`
	GroupID   int64 `db:"group_id" json:"group_id"`
}
