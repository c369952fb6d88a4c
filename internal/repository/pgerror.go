package repository

import (
	"errors"
	"fmt"

	"github.com/jackc/pgerrcode"
	"github.com/lib/pq"
)

// Sentinel errors surfaced to services. Repositories wrap them with operation context.
var (
	ErrDuplicate         = errors.New("duplicate row")
	ErrReferenceMissing  = errors.New("referenced row missing")
	ErrConstraint        = errors.New("constraint violated")
	ErrConcurrentUpdate  = errors.New("concurrent update")
	ErrRankChanged       = errors.New("student rank changed")
	ErrLevelDecrease     = errors.New("requirement level cannot decrease")
	ErrAlreadyDecided    = errors.New("promotion already decided")
	ErrLadderLinkTaken   = errors.New("ladder link already taken")
	ErrLadderCycle       = errors.New("ladder link would create a cycle")
	ErrUnknownLadderRank = errors.New("ladder rank does not exist")
)

// classify maps Postgres SQLSTATEs onto repository sentinels and adds op context.
func classify(op string, err error) error {
	if err == nil {
		return nil
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch string(pqErr.Code) {
		case pgerrcode.UniqueViolation:
			return fmt.Errorf("%s: %w (%s)", op, ErrDuplicate, pqErr.Constraint)
		case pgerrcode.ForeignKeyViolation:
			return fmt.Errorf("%s: %w (%s)", op, ErrReferenceMissing, pqErr.Constraint)
		case pgerrcode.CheckViolation, pgerrcode.NotNullViolation:
			return fmt.Errorf("%s: %w (%s)", op, ErrConstraint, pqErr.Constraint)
		case pgerrcode.SerializationFailure, pgerrcode.DeadlockDetected, pgerrcode.LockNotAvailable:
			return fmt.Errorf("%s: %w", op, ErrConcurrentUpdate)
		}
	}
	return fmt.Errorf("%s: %w", op, err)
}
