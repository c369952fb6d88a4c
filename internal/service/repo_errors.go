package service

import (
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"

	"github.com/tkd-core/dojo-api/internal/repository"
	appErrors "github.com/tkd-core/dojo-api/pkg/errors"
)

// translate maps repository failures onto the domain error taxonomy. Anything
// unrecognised becomes an internal error carrying msg.
func translate(err error, notFound, msg string) error {
	var appErr *appErrors.Error
	switch {
	case err == nil:
		return nil
	case errors.As(err, &appErr):
		return appErr
	case errors.Is(err, sql.ErrNoRows):
		return appErrors.Clone(appErrors.ErrNotFound, notFound)
	case errors.Is(err, repository.ErrReferenceMissing):
		return appErrors.Wrap(err, appErrors.ErrNotFound.Code, appErrors.ErrNotFound.Status, notFound)
	case errors.Is(err, repository.ErrDuplicate):
		return appErrors.Wrap(err, appErrors.ErrConflict.Code, appErrors.ErrConflict.Status, "resource already exists")
	case errors.Is(err, repository.ErrConstraint), errors.Is(err, repository.ErrLevelDecrease):
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, err.Error())
	case errors.Is(err, repository.ErrConcurrentUpdate), errors.Is(err, repository.ErrRankChanged),
		errors.Is(err, repository.ErrAlreadyDecided):
		return appErrors.Wrap(err, appErrors.ErrConflict.Code, appErrors.ErrConflict.Status, err.Error())
	default:
		return appErrors.Internal(err, msg)
	}
}

// validate runs struct validation and wraps failures as validation errors.
func validate(v *validator.Validate, req interface{}) error {
	if err := v.Struct(req); err != nil {
		return appErrors.Validation(err, "invalid request payload")
	}
	return nil
}
