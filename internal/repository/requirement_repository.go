package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/tkd-core/dojo-api/internal/models"
)

// RequirementRepository persists rank requirements.
type RequirementRepository struct {
	db *sqlx.DB
}

// NewRequirementRepository constructs the repository.
func NewRequirementRepository(db *sqlx.DB) *RequirementRepository {
	return &RequirementRepository{db: db}
}

const requirementColumns = `id, "rankId", name, "levelNeeded", COALESCE("isTimeRequired", false) AS "isTimeRequired"`

// Create inserts a requirement and fills its identifier.
func (r *RequirementRepository) Create(ctx context.Context, req *models.RankRequirement) error {
	const query = `INSERT INTO "tkd-core_rankRequirement" ("rankId", name, "levelNeeded", "isTimeRequired") VALUES ($1, $2, $3, $4) RETURNING id`
	if err := r.db.QueryRowxContext(ctx, query, req.RankID, req.Name, req.LevelNeeded, req.IsTimeRequired).Scan(&req.ID); err != nil {
		return classify("create requirement", err)
	}
	return nil
}

// FindByID returns a requirement by id.
func (r *RequirementRepository) FindByID(ctx context.Context, id int64) (*models.RankRequirement, error) {
	var req models.RankRequirement
	if err := r.db.GetContext(ctx, &req, `SELECT `+requirementColumns+` FROM "tkd-core_rankRequirement" WHERE id = $1`, id); err != nil {
		return nil, err
	}
	return &req, nil
}

// ListByRank returns the requirements of a rank in insertion order.
func (r *RequirementRepository) ListByRank(ctx context.Context, rankID int64) ([]models.RankRequirement, error) {
	reqs := []models.RankRequirement{}
	if err := r.db.SelectContext(ctx, &reqs, `SELECT `+requirementColumns+` FROM "tkd-core_rankRequirement" WHERE "rankId" = $1 ORDER BY id`, rankID); err != nil {
		return nil, fmt.Errorf("list requirements: %w", err)
	}
	return reqs, nil
}
