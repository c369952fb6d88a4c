package dto

import "time"

// CreateGroupRequest creates a training group.
type CreateGroupRequest struct {
	Name string `json:"name" validate:"required,max=200"`
}

// AddMemberRequest adds a person to a group.
type AddMemberRequest struct {
	PersonID int64 `json:"personId" validate:"required,gt=0"`
}

// CreateSessionRequest schedules a class for one or more groups.
type CreateSessionRequest struct {
	CoachID   int64     `json:"coachId" validate:"required,gt=0"`
	StartTime time.Time `json:"startTime" validate:"required"`
	EndTime   time.Time `json:"endTime" validate:"required"`
	GroupIDs  []int64   `json:"groupIds" validate:"required,min=1,dive,gt=0"`
}
