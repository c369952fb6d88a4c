package dto

import "time"

// RegisterPersonRequest creates a person for an identity-provider user.
// UserID defaults to the authenticated caller when empty.
type RegisterPersonRequest struct {
	UserID    string    `json:"userId" validate:"omitempty,max=255"`
	FirstName string    `json:"firstName" validate:"required,max=200"`
	LastName  string    `json:"lastName" validate:"required,max=200"`
	BirthDate time.Time `json:"birthDate" validate:"required"`
	Height    int64     `json:"height" validate:"gt=0"`
	Weight    int64     `json:"weight" validate:"gt=0"`
	RankID    int64     `json:"rankId" validate:"required,gt=0"`
	IsCoach   bool      `json:"isCoach"`
}

// RecordLevelRequest sets the level a person reached on a requirement.
type RecordLevelRequest struct {
	Level int `json:"level" validate:"min=0,max=32767"`
}
