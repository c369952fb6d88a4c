package models

import "time"

// RankPromotion records an attempt to move a student from one rank to the next.
// Success is nil while the attempt is pending.
type RankPromotion struct {
	ID           int64      `db:"id" json:"id"`
	FromRank     int64      `db:"fromRank" json:"from_rank"`
	ToRank       int64      `db:"toRank" json:"to_rank"`
	Success      *bool      `db:"success" json:"success"`
	Observations *string    `db:"observations" json:"observations,omitempty"`
	CoachID      int64      `db:"coachId" json:"coach_id"`
	StudentID    int64      `db:"studentId" json:"student_id"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
	DecidedAt    *time.Time `db:"decided_at" json:"decided_at,omitempty"`
}

// Pending reports whether no decision has been recorded.
func (p RankPromotion) Pending() bool {
	return p.Success == nil
}

// RequirementGap describes one unmet requirement.
type RequirementGap struct {
	RequirementID int64  `json:"requirement_id"`
	Name          string `json:"name"`
	LevelNeeded   int    `json:"level_needed"`
	LevelAchieved int    `json:"level_achieved"`
	LevelMet      bool   `json:"level_met"`
	TimeRequired  bool   `json:"time_required"`
	TimeMet       bool   `json:"time_met"`
}

// Eligibility is the computed readiness of a person to leave the current rank.
type Eligibility struct {
	PersonID            int64            `json:"person_id"`
	RankID              int64            `json:"rank_id"`
	NextRankID          *int64           `json:"next_rank_id,omitempty"`
	Ready               bool             `json:"ready"`
	MissingRequirements []RequirementGap `json:"missing_requirements"`
	TimeInGrade         time.Duration    `json:"time_in_grade"`
	EvaluatedAt         time.Time        `json:"evaluated_at"`
}

// MissingIDs lists the identifiers of unmet requirements in ladder order.
func (e Eligibility) MissingIDs() []int64 {
	ids := make([]int64, 0, len(e.MissingRequirements))
	for _, gap := range e.MissingRequirements {
		ids = append(ids, gap.RequirementID)
	}
	return ids
}
