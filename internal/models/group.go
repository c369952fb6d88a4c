package models

import "time"

// Group is a named set of persons training together.
type Group struct {
	ID   int64  `db:"id" json:"id"`
	Name string `db:"name" json:"name"`
}

// PersonGroup is a membership row. A membership is active while RemovedAt is nil.
type PersonGroup struct {
	ID        int64      `db:"id" json:"id"`
	PersonID  int64      `db:"personId" json:"person_id"`
	GroupID   int64      `db:"groupId" json:"group_id"`
	CreatedAt time.Time  `db:"created_at" json:"joined_at"`
	RemovedAt *time.Time `db:"removed_at" json:"removed_at,omitempty"`
}

// Active reports whether the membership is current.
func (m PersonGroup) Active() bool {
	return m.RemovedAt == nil
}

// GroupMember enriches a membership with the person's name.
type GroupMember struct {
	PersonGroup
	FirstName string `db:"firstName" json:"first_name"`
	LastName  string `db:"lastName" json:"last_name"`
}
