package dto

// CreateRankRequest inserts a rank into the ladder. Predecessor and Successor name
// existing ranks; empty or "none" leaves that side open.
type CreateRankRequest struct {
	Name        string `json:"name" validate:"required,max=250,ne=none"`
	Predecessor string `json:"predecessor" validate:"omitempty,max=250"`
	Successor   string `json:"successor" validate:"omitempty,max=250"`
}

// CreateRequirementRequest attaches a requirement to a rank.
type CreateRequirementRequest struct {
	Name         string `json:"name" validate:"required,max=250"`
	LevelNeeded  int    `json:"levelNeeded" validate:"min=0,max=32767"`
	TimeRequired bool   `json:"timeRequired"`
}
