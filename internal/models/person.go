package models

import "time"

// Person is a student or coach of the academy, owned by an identity-provider user.
type Person struct {
	ID          int64     `db:"id" json:"id"`
	FirstName   string    `db:"firstName" json:"first_name"`
	LastName    string    `db:"lastName" json:"last_name"`
	Height      int64     `db:"height" json:"height"`
	Weight      int64     `db:"weight" json:"weight"`
	CurrentRank int64     `db:"currentRank" json:"current_rank"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UserID      string    `db:"user_id" json:"user_id"`
	IsCoach     bool      `db:"isCoach" json:"is_coach"`
	BirthDate   time.Time `db:"birthDate" json:"birth_date"`
	RankSince   time.Time `db:"rank_since" json:"rank_since"`
}

// PersonFilter narrows person listings.
type PersonFilter struct {
	IsCoach  *bool
	RankID   int64
	UserID   string
	Search   string
	Page     int
	PageSize int
}

// RequirementLevel is a person's recorded progress against one requirement.
type RequirementLevel struct {
	ID            int64 `db:"id" json:"id"`
	RequirementID int64 `db:"requirement_id" json:"requirement_id"`
	PersonID      int64 `db:"person_id" json:"person_id"`
	Level         int   `db:"level" json:"level"`
}

// RequirementProgress pairs a requirement with the level a person reached.
// LevelAchieved is nil when nothing was recorded yet.
type RequirementProgress struct {
	RankRequirement
	LevelAchieved *int `db:"level_achieved" json:"level_achieved,omitempty"`
}
