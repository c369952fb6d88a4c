package models

// RankNone marks the open end of the ladder in a rank's prevRank/nextRank link.
const RankNone = "none"

// Rank is one grade of the progression ladder. Neighbours are referenced by name.
type Rank struct {
	ID       int64  `db:"id" json:"id"`
	Name     string `db:"name" json:"name"`
	PrevRank string `db:"prevRank" json:"prev_rank"`
	NextRank string `db:"nextRank" json:"next_rank"`
}

// HasNext reports whether the rank has a successor on the ladder.
func (r Rank) HasNext() bool {
	return r.NextRank != "" && r.NextRank != RankNone
}

// HasPrev reports whether the rank has a predecessor on the ladder.
func (r Rank) HasPrev() bool {
	return r.PrevRank != "" && r.PrevRank != RankNone
}

// RankRequirement is a leveled criterion that must be met to leave a rank.
type RankRequirement struct {
	ID             int64  `db:"id" json:"id"`
	RankID         int64  `db:"rankId" json:"rank_id"`
	Name           string `db:"name" json:"name"`
	LevelNeeded    int    `db:"levelNeeded" json:"level_needed"`
	IsTimeRequired bool   `db:"isTimeRequired" json:"is_time_required"`
}
