package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/tkd-core/dojo-api/internal/models"
)

// maxLadderDepth bounds recursive ladder walks.
const maxLadderDepth = 1000

// RankRepository persists the rank ladder.
type RankRepository struct {
	db *sqlx.DB
}

// NewRankRepository constructs the repository.
func NewRankRepository(db *sqlx.DB) *RankRepository {
	return &RankRepository{db: db}
}

const rankColumns = `id, name, "prevRank", "nextRank"`

// FindByID returns a rank by id.
func (r *RankRepository) FindByID(ctx context.Context, id int64) (*models.Rank, error) {
	var rank models.Rank
	if err := r.db.GetContext(ctx, &rank, `SELECT `+rankColumns+` FROM "tkd-core_ranks" WHERE id = $1`, id); err != nil {
		return nil, err
	}
	return &rank, nil
}

// FindByName returns a rank by its unique name.
func (r *RankRepository) FindByName(ctx context.Context, name string) (*models.Rank, error) {
	var rank models.Rank
	if err := r.db.GetContext(ctx, &rank, `SELECT `+rankColumns+` FROM "tkd-core_ranks" WHERE name = $1`, name); err != nil {
		return nil, err
	}
	return &rank, nil
}

// ListLadder returns every rank ordered from the bottom of its chain upwards.
func (r *RankRepository) ListLadder(ctx context.Context) ([]models.Rank, error) {
	query := fmt.Sprintf(`WITH RECURSIVE ladder AS (
	SELECT id, name, "prevRank", "nextRank", 0 AS position, id AS chain
	FROM "tkd-core_ranks" WHERE "prevRank" = '%[1]s'
	UNION ALL
	SELECT r.id, r.name, r."prevRank", r."nextRank", l.position + 1, l.chain
	FROM "tkd-core_ranks" r
	JOIN ladder l ON r.name = l."nextRank"
	WHERE l."nextRank" <> '%[1]s' AND l.position < %[2]d
)
SELECT id, name, "prevRank", "nextRank" FROM ladder ORDER BY chain, position`, models.RankNone, maxLadderDepth)

	var ranks []models.Rank
	if err := r.db.SelectContext(ctx, &ranks, query); err != nil {
		return nil, fmt.Errorf("list ladder: %w", err)
	}
	return ranks, nil
}

// Insert adds a rank between predecessor and successor, relinking both neighbours
// in the same transaction. Empty neighbour names mean an open end.
func (r *RankRepository) Insert(ctx context.Context, name, predecessor, successor string) (rank *models.Rank, err error) {
	predecessor = normaliseLink(predecessor)
	successor = normaliseLink(successor)

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin insert rank: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `LOCK TABLE "tkd-core_ranks" IN SHARE ROW EXCLUSIVE MODE`); err != nil {
		return nil, classify("lock ladder", err)
	}

	var prev, next *models.Rank
	if predecessor != models.RankNone {
		if prev, err = lockRankByName(ctx, tx, predecessor); err != nil {
			return nil, err
		}
		if prev.NextRank != models.RankNone && prev.NextRank != successor {
			return nil, fmt.Errorf("insert rank %q: %w: %q is followed by %q", name, ErrLadderLinkTaken, prev.Name, prev.NextRank)
		}
	}
	if successor != models.RankNone {
		if next, err = lockRankByName(ctx, tx, successor); err != nil {
			return nil, err
		}
		if next.PrevRank != models.RankNone && next.PrevRank != predecessor {
			return nil, fmt.Errorf("insert rank %q: %w: %q is preceded by %q", name, ErrLadderLinkTaken, next.Name, next.PrevRank)
		}
	}
	if prev != nil && next != nil {
		var loops bool
		if loops, err = reaches(ctx, tx, successor, predecessor); err != nil {
			return nil, err
		}
		if loops {
			return nil, fmt.Errorf("insert rank %q: %w", name, ErrLadderCycle)
		}
	}

	rank = &models.Rank{Name: name, PrevRank: predecessor, NextRank: successor}
	const insertQuery = `INSERT INTO "tkd-core_ranks" (name, "prevRank", "nextRank") VALUES ($1, $2, $3) RETURNING id`
	if err = tx.QueryRowxContext(ctx, insertQuery, rank.Name, rank.PrevRank, rank.NextRank).Scan(&rank.ID); err != nil {
		return nil, classify("insert rank", err)
	}
	if prev != nil {
		if _, err = tx.ExecContext(ctx, `UPDATE "tkd-core_ranks" SET "nextRank" = $1 WHERE id = $2`, name, prev.ID); err != nil {
			return nil, classify("link predecessor", err)
		}
	}
	if next != nil {
		if _, err = tx.ExecContext(ctx, `UPDATE "tkd-core_ranks" SET "prevRank" = $1 WHERE id = $2`, name, next.ID); err != nil {
			return nil, classify("link successor", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return nil, classify("commit insert rank", err)
	}
	return rank, nil
}

// Delete removes a rank, joining its neighbours. Requirements, progress rows,
// promotions and persons referencing the rank cascade in the database.
func (r *RankRepository) Delete(ctx context.Context, id int64) (rank *models.Rank, err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin delete rank: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `LOCK TABLE "tkd-core_ranks" IN SHARE ROW EXCLUSIVE MODE`); err != nil {
		return nil, classify("lock ladder", err)
	}

	rank = &models.Rank{}
	if err = tx.GetContext(ctx, rank, `SELECT `+rankColumns+` FROM "tkd-core_ranks" WHERE id = $1`, id); err != nil {
		return nil, err
	}
	if rank.HasPrev() {
		if _, err = tx.ExecContext(ctx, `UPDATE "tkd-core_ranks" SET "nextRank" = $1 WHERE name = $2`, rank.NextRank, rank.PrevRank); err != nil {
			return nil, classify("unlink predecessor", err)
		}
	}
	if rank.HasNext() {
		if _, err = tx.ExecContext(ctx, `UPDATE "tkd-core_ranks" SET "prevRank" = $1 WHERE name = $2`, rank.PrevRank, rank.NextRank); err != nil {
			return nil, classify("unlink successor", err)
		}
	}
	if _, err = tx.ExecContext(ctx, `DELETE FROM "tkd-core_ranks" WHERE id = $1`, id); err != nil {
		return nil, classify("delete rank", err)
	}

	if err = tx.Commit(); err != nil {
		return nil, classify("commit delete rank", err)
	}
	return rank, nil
}

func lockRankByName(ctx context.Context, tx *sqlx.Tx, name string) (*models.Rank, error) {
	var rank models.Rank
	if err := tx.GetContext(ctx, &rank, `SELECT `+rankColumns+` FROM "tkd-core_ranks" WHERE name = $1 FOR UPDATE`, name); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %q", ErrUnknownLadderRank, name)
		}
		return nil, classify("load ladder rank", err)
	}
	return &rank, nil
}

// reaches reports whether walking "nextRank" links from start arrives at target.
func reaches(ctx context.Context, tx *sqlx.Tx, start, target string) (bool, error) {
	query := fmt.Sprintf(`WITH RECURSIVE chain AS (
	SELECT name, "nextRank", 0 AS depth FROM "tkd-core_ranks" WHERE name = $1
	UNION ALL
	SELECT r.name, r."nextRank", c.depth + 1
	FROM "tkd-core_ranks" r
	JOIN chain c ON r.name = c."nextRank"
	WHERE c.depth < %d
)
SELECT EXISTS (SELECT 1 FROM chain WHERE name = $2)`, maxLadderDepth)

	var found bool
	if err := tx.GetContext(ctx, &found, query, start, target); err != nil {
		return false, classify("walk ladder", err)
	}
	return found, nil
}

func normaliseLink(name string) string {
	if name == "" {
		return models.RankNone
	}
	return name
}
