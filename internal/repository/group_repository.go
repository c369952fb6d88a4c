package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/tkd-core/dojo-api/internal/models"
)

// GroupRepository persists groups and memberships.
type GroupRepository struct {
	db *sqlx.DB
}

// NewGroupRepository constructs a GroupRepository.
func NewGroupRepository(db *sqlx.DB) *GroupRepository {
	return &GroupRepository{db: db}
}

// Create inserts a group.
func (r *GroupRepository) Create(ctx context.Context, group *models.Group) error {
	if err := r.db.QueryRowxContext(ctx, `INSERT INTO "tkd-core_groups" (name) VALUES ($1) RETURNING id`, group.Name).Scan(&group.ID); err != nil {
		return classify("create group", err)
	}
	return nil
}

// FindByID fetches a group.
func (r *GroupRepository) FindByID(ctx context.Context, id int64) (*models.Group, error) {
	var group models.Group
	if err := r.db.GetContext(ctx, &group, `SELECT id, name FROM "tkd-core_groups" WHERE id = $1`, id); err != nil {
		return nil, err
	}
	return &group, nil
}

// AddMember opens an active membership. A second active membership for the
// same pair violates the partial unique index and returns ErrDuplicate.
func (r *GroupRepository) AddMember(ctx context.Context, groupID, personID int64) (*models.PersonGroup, error) {
	const query = `INSERT INTO "tkd-core_personGroup" ("personId", "groupId") VALUES ($1, $2)
        RETURNING id, "personId", "groupId", created_at, removed_at`
	var membership models.PersonGroup
	if err := r.db.GetContext(ctx, &membership, query, personID, groupID); err != nil {
		return nil, classify("add member", err)
	}
	return &membership, nil
}

// RemoveMember closes the active membership. sql.ErrNoRows means none was active.
func (r *GroupRepository) RemoveMember(ctx context.Context, groupID, personID int64) (*models.PersonGroup, error) {
	const query = `UPDATE "tkd-core_personGroup" SET removed_at = GREATEST(now(), created_at)
        WHERE "groupId" = $1 AND "personId" = $2 AND removed_at IS NULL
        RETURNING id, "personId", "groupId", created_at, removed_at`
	var membership models.PersonGroup
	if err := r.db.GetContext(ctx, &membership, query, groupID, personID); err != nil {
		return nil, err
	}
	return &membership, nil
}

// ListMembers returns a group's memberships with person names.
func (r *GroupRepository) ListMembers(ctx context.Context, groupID int64, includeRemoved bool) ([]models.GroupMember, error) {
	query := `SELECT pg.id, pg."personId", pg."groupId", pg.created_at, pg.removed_at, p."firstName", p."lastName"
        FROM "tkd-core_personGroup" pg
        JOIN "tkd-core_persons" p ON p.id = pg."personId"
        WHERE pg."groupId" = $1`
	if !includeRemoved {
		query += ` AND pg.removed_at IS NULL`
	}
	query += ` ORDER BY pg.created_at, pg.id`

	members := []models.GroupMember{}
	if err := r.db.SelectContext(ctx, &members, query, groupID); err != nil {
		return nil, fmt.Errorf("list group members: %w", err)
	}
	return members, nil
}
