package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/tkd-core/dojo-api/internal/models"
)

// SessionRepository persists class sessions and their group links.
type SessionRepository struct {
	db *sqlx.DB
}

// NewSessionRepository constructs a SessionRepository.
func NewSessionRepository(db *sqlx.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

// Create inserts the session and one link row per group atomically.
func (r *SessionRepository) Create(ctx context.Context, session *models.ClassSession) (err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin create session: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	const insertSession = `INSERT INTO "tkd-core_classSession" (start_time, end_time, coach_id) VALUES ($1, $2, $3) RETURNING id`
	if err = tx.QueryRowxContext(ctx, insertSession, session.StartTime, session.EndTime, session.CoachID).Scan(&session.ID); err != nil {
		return classify("create session", err)
	}

	const insertGroup = `INSERT INTO "tkd-core_classSessionGroup" (session_id, group_id) VALUES ($1, $2)`
	for _, groupID := range session.GroupIDs {
		if _, err = tx.ExecContext(ctx, insertGroup, session.ID, groupID); err != nil {
			return classify("link session group", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return classify("commit create session", err)
	}
	return nil
}

// FindByID returns a session with its group ids.
func (r *SessionRepository) FindByID(ctx context.Context, id int64) (*models.ClassSession, error) {
	var session models.ClassSession
	if err := r.db.GetContext(ctx, &session, `SELECT id, start_time, end_time, coach_id FROM "tkd-core_classSession" WHERE id = $1`, id); err != nil {
		return nil, err
	}
	session.GroupIDs = []int64{}
	if err := r.db.SelectContext(ctx, &session.GroupIDs, `SELECT group_id FROM "tkd-core_classSessionGroup" WHERE session_id = $1 ORDER BY group_id`, id); err != nil {
		return nil, fmt.Errorf("list session groups: %w", err)
	}
	return &session, nil
}

// ActiveMembers returns the union of active members of every group attached to the session.
func (r *SessionRepository) ActiveMembers(ctx context.Context, sessionID int64) ([]int64, error) {
	const query = `SELECT DISTINCT pg."personId"
        FROM "tkd-core_classSessionGroup" sg
        JOIN "tkd-core_personGroup" pg ON pg."groupId" = sg.group_id AND pg.removed_at IS NULL
        WHERE sg.session_id = $1
        ORDER BY pg."personId"`
	ids := []int64{}
	if err := r.db.SelectContext(ctx, &ids, query, sessionID); err != nil {
		return nil, fmt.Errorf("list active members: %w", err)
	}
	return ids, nil
}

// IsActiveMember reports whether the person actively belongs to a group of the session.
func (r *SessionRepository) IsActiveMember(ctx context.Context, sessionID, personID int64) (bool, error) {
	const query = `SELECT EXISTS (
        SELECT 1 FROM "tkd-core_classSessionGroup" sg
        JOIN "tkd-core_personGroup" pg ON pg."groupId" = sg.group_id AND pg.removed_at IS NULL
        WHERE sg.session_id = $1 AND pg."personId" = $2)`
	var member bool
	if err := r.db.GetContext(ctx, &member, query, sessionID, personID); err != nil {
		return false, fmt.Errorf("check session membership: %w", err)
	}
	return member, nil
}
