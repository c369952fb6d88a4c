package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/tkd-core/dojo-api/internal/models"
)

// PersonRepository manages persistence for persons and their requirement progress.
type PersonRepository struct {
	db  *sqlx.DB
	now func() time.Time
}

// NewPersonRepository constructs a PersonRepository.
func NewPersonRepository(db *sqlx.DB) *PersonRepository {
	return &PersonRepository{db: db, now: func() time.Time { return time.Now().UTC() }}
}

const personColumns = `id, "firstName", "lastName", height, weight, "currentRank", created_at, user_id, "isCoach", "birthDate", rank_since`

// Create inserts a person and fills the generated columns.
func (r *PersonRepository) Create(ctx context.Context, person *models.Person) error {
	const query = `INSERT INTO "tkd-core_persons" ("firstName", "lastName", height, weight, "currentRank", user_id, "isCoach", "birthDate", rank_since)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9) RETURNING id, created_at, rank_since`
	row := r.db.QueryRowxContext(ctx, query, person.FirstName, person.LastName, person.Height, person.Weight,
		person.CurrentRank, person.UserID, person.IsCoach, person.BirthDate, r.now())
	if err := row.Scan(&person.ID, &person.CreatedAt, &person.RankSince); err != nil {
		return classify("create person", err)
	}
	return nil
}

// FindByID fetches a person.
func (r *PersonRepository) FindByID(ctx context.Context, id int64) (*models.Person, error) {
	var person models.Person
	if err := r.db.GetContext(ctx, &person, `SELECT `+personColumns+` FROM "tkd-core_persons" WHERE id = $1`, id); err != nil {
		return nil, err
	}
	return &person, nil
}

// List returns persons matching the filter together with the total count.
func (r *PersonRepository) List(ctx context.Context, filter models.PersonFilter) ([]models.Person, int, error) {
	conditions := []string{"1=1"}
	args := []interface{}{}

	if filter.IsCoach != nil {
		args = append(args, *filter.IsCoach)
		conditions = append(conditions, fmt.Sprintf(`"isCoach" = $%d`, len(args)))
	}
	if filter.RankID > 0 {
		args = append(args, filter.RankID)
		conditions = append(conditions, fmt.Sprintf(`"currentRank" = $%d`, len(args)))
	}
	if filter.UserID != "" {
		args = append(args, filter.UserID)
		conditions = append(conditions, fmt.Sprintf(`user_id = $%d`, len(args)))
	}
	if filter.Search != "" {
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
		conditions = append(conditions, fmt.Sprintf(`(LOWER("firstName") LIKE $%d OR LOWER("lastName") LIKE $%d)`, len(args), len(args)))
	}
	where := strings.Join(conditions, " AND ")

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf(`SELECT %s FROM "tkd-core_persons" WHERE %s ORDER BY "lastName", "firstName", id LIMIT %d OFFSET %d`,
		personColumns, where, size, offset)
	persons := []models.Person{}
	if err := r.db.SelectContext(ctx, &persons, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list persons: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM "tkd-core_persons" WHERE `+where, args...); err != nil {
		return nil, 0, fmt.Errorf("count persons: %w", err)
	}
	return persons, total, nil
}

// UpsertLevel records a person's level on a requirement. Levels never go down:
// a lower level than the stored one leaves the row untouched and returns ErrLevelDecrease.
func (r *PersonRepository) UpsertLevel(ctx context.Context, personID, requirementID int64, level int) (*models.RequirementLevel, error) {
	const query = `INSERT INTO "tkd-core_rankRequirementPerson" AS p (requirement_id, person_id, level)
        VALUES ($1, $2, $3)
        ON CONFLICT (requirement_id, person_id) DO UPDATE SET level = EXCLUDED.level
        WHERE p.level <= EXCLUDED.level
        RETURNING id, requirement_id, person_id, level`

	var rec models.RequirementLevel
	if err := r.db.GetContext(ctx, &rec, query, requirementID, personID, level); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("record level: %w", ErrLevelDecrease)
		}
		return nil, classify("record level", err)
	}
	return &rec, nil
}

// Levels returns the recorded level per requirement for a person.
func (r *PersonRepository) Levels(ctx context.Context, personID int64) (map[int64]int, error) {
	var rows []models.RequirementLevel
	const query = `SELECT id, requirement_id, person_id, level FROM "tkd-core_rankRequirementPerson" WHERE person_id = $1`
	if err := r.db.SelectContext(ctx, &rows, query, personID); err != nil {
		return nil, fmt.Errorf("list levels: %w", err)
	}
	levels := make(map[int64]int, len(rows))
	for _, row := range rows {
		levels[row.RequirementID] = row.Level
	}
	return levels, nil
}

// Progress lists every requirement of rankID with the level the person reached, if any.
func (r *PersonRepository) Progress(ctx context.Context, personID, rankID int64) ([]models.RequirementProgress, error) {
	const query = `SELECT r.id, r."rankId", r.name, r."levelNeeded", COALESCE(r."isTimeRequired", false) AS "isTimeRequired",
        p.level AS level_achieved
        FROM "tkd-core_rankRequirement" r
        LEFT JOIN "tkd-core_rankRequirementPerson" p ON p.requirement_id = r.id AND p.person_id = $2
        WHERE r."rankId" = $1
        ORDER BY r.id`
	progress := []models.RequirementProgress{}
	if err := r.db.SelectContext(ctx, &progress, query, rankID, personID); err != nil {
		return nil, fmt.Errorf("list requirement progress: %w", err)
	}
	return progress, nil
}
