package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/tkd-core/dojo-api/internal/models"
)

// PromotionRepository persists promotion attempts and owns writes to a person's current rank.
type PromotionRepository struct {
	db  *sqlx.DB
	now func() time.Time
}

// NewPromotionRepository constructs a PromotionRepository.
func NewPromotionRepository(db *sqlx.DB) *PromotionRepository {
	return &PromotionRepository{db: db, now: func() time.Time { return time.Now().UTC() }}
}

// PromotionParams describes a promotion to record.
type PromotionParams struct {
	FromRank     int64
	ToRank       int64
	CoachID      int64
	StudentID    int64
	Observations *string
	Success      *bool
}

const promotionColumns = `id, "fromRank", "toRank", success, observations, "coachId", "studentId", created_at, decided_at`

// Create records a promotion attempt. The student row is locked and its current rank
// compared against FromRank; when Success is true the rank advances in the same transaction.
func (r *PromotionRepository) Create(ctx context.Context, params PromotionParams) (promo *models.RankPromotion, err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin create promotion: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = ensureStudentRank(ctx, tx, params.StudentID, params.FromRank); err != nil {
		return nil, err
	}

	var decidedAt *time.Time
	if params.Success != nil {
		ts := r.now()
		decidedAt = &ts
	}

	promo = &models.RankPromotion{
		FromRank:     params.FromRank,
		ToRank:       params.ToRank,
		Success:      params.Success,
		Observations: params.Observations,
		CoachID:      params.CoachID,
		StudentID:    params.StudentID,
		DecidedAt:    decidedAt,
	}
	const insertQuery = `INSERT INTO "tkd-core_rankPromotion" ("fromRank", "toRank", success, observations, "coachId", "studentId", decided_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id, created_at`
	row := tx.QueryRowxContext(ctx, insertQuery, promo.FromRank, promo.ToRank, promo.Success, promo.Observations,
		promo.CoachID, promo.StudentID, promo.DecidedAt)
	if err = row.Scan(&promo.ID, &promo.CreatedAt); err != nil {
		return nil, classify("insert promotion", err)
	}

	if promo.Success != nil && *promo.Success {
		if err = advanceRank(ctx, tx, promo.StudentID, promo.FromRank, promo.ToRank, *promo.DecidedAt); err != nil {
			return nil, err
		}
	}

	if err = tx.Commit(); err != nil {
		return nil, classify("commit create promotion", err)
	}
	return promo, nil
}

// Decide settles a pending promotion. Repeating the stored decision is a no-op that
// returns the promotion; a contradicting decision returns ErrAlreadyDecided.
func (r *PromotionRepository) Decide(ctx context.Context, id int64, success bool) (promo *models.RankPromotion, err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin decide promotion: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	promo = &models.RankPromotion{}
	if err = tx.GetContext(ctx, promo, `SELECT `+promotionColumns+` FROM "tkd-core_rankPromotion" WHERE id = $1 FOR UPDATE`, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, classify("lock promotion", err)
	}

	if !promo.Pending() {
		if *promo.Success != success {
			return nil, fmt.Errorf("decide promotion %d: %w", id, ErrAlreadyDecided)
		}
		if err = tx.Commit(); err != nil {
			return nil, classify("commit decide promotion", err)
		}
		return promo, nil
	}

	if err = ensureStudentRank(ctx, tx, promo.StudentID, promo.FromRank); err != nil {
		return nil, err
	}
	decidedAt := r.now()
	if success {
		if err = advanceRank(ctx, tx, promo.StudentID, promo.FromRank, promo.ToRank, decidedAt); err != nil {
			return nil, err
		}
	}

	res, err := tx.ExecContext(ctx, `UPDATE "tkd-core_rankPromotion" SET success = $1, decided_at = $2 WHERE id = $3 AND success IS NULL`,
		success, decidedAt, id)
	if err != nil {
		return nil, classify("decide promotion", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("decide promotion: %w", err)
	}
	if affected == 0 {
		err = fmt.Errorf("decide promotion %d: %w", id, ErrConcurrentUpdate)
		return nil, err
	}
	promo.Success = &success
	promo.DecidedAt = &decidedAt

	if err = tx.Commit(); err != nil {
		return nil, classify("commit decide promotion", err)
	}
	return promo, nil
}

// FindByID returns a promotion.
func (r *PromotionRepository) FindByID(ctx context.Context, id int64) (*models.RankPromotion, error) {
	var promo models.RankPromotion
	if err := r.db.GetContext(ctx, &promo, `SELECT `+promotionColumns+` FROM "tkd-core_rankPromotion" WHERE id = $1`, id); err != nil {
		return nil, err
	}
	return &promo, nil
}

// ListByStudent returns a student's promotions, newest first.
func (r *PromotionRepository) ListByStudent(ctx context.Context, studentID int64) ([]models.RankPromotion, error) {
	promos := []models.RankPromotion{}
	query := `SELECT ` + promotionColumns + ` FROM "tkd-core_rankPromotion" WHERE "studentId" = $1 ORDER BY created_at DESC, id DESC`
	if err := r.db.SelectContext(ctx, &promos, query, studentID); err != nil {
		return nil, fmt.Errorf("list promotions: %w", err)
	}
	return promos, nil
}

// ensureStudentRank locks the student row and checks it still holds rank.
func ensureStudentRank(ctx context.Context, tx *sqlx.Tx, studentID, rank int64) error {
	var current int64
	if err := tx.GetContext(ctx, &current, `SELECT "currentRank" FROM "tkd-core_persons" WHERE id = $1 FOR UPDATE`, studentID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return err
		}
		return classify("lock student", err)
	}
	if current != rank {
		return fmt.Errorf("student %d holds rank %d, expected %d: %w", studentID, current, rank, ErrRankChanged)
	}
	return nil
}

// advanceRank moves the student from one rank to the next only if still on from.
// since is stored as rank_since and must be UTC.
func advanceRank(ctx context.Context, tx *sqlx.Tx, studentID, from, to int64, since time.Time) error {
	const query = `UPDATE "tkd-core_persons" SET "currentRank" = $1, rank_since = $4 WHERE id = $2 AND "currentRank" = $3`
	res, err := tx.ExecContext(ctx, query, to, studentID, from, since)
	if err != nil {
		return classify("advance rank", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("advance rank: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("advance student %d: %w", studentID, ErrRankChanged)
	}
	return nil
}
