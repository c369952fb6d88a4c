package dto

// AttemptPromotionRequest asks to promote a student to the next rank.
// Decision optionally settles the attempt immediately.
type AttemptPromotionRequest struct {
	CoachID      int64  `json:"coachId" validate:"required,gt=0"`
	StudentID    int64  `json:"studentId" validate:"required,gt=0"`
	Observations string `json:"observations" validate:"max=4000"`
	Override     bool   `json:"override"`
	Decision     *bool  `json:"decision"`
}

// DecidePromotionRequest settles a pending promotion.
type DecidePromotionRequest struct {
	Success *bool `json:"success" validate:"required"`
}
