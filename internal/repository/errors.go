package repository

import (
	"errors"

	"github.com/psds-microservice/backoffice-service/internal/errs"
	"gorm.io/gorm"
)

// translate maps gorm errors onto domain errors. The DB is opened with TranslateError,
// so unique violations arrive as gorm.ErrDuplicatedKey.
func translate(err error, notFound error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return notFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return errs.ErrConflict
	}
	return err
}

func affected(res *gorm.DB, notFound error) error {
	if res.Error != nil {
		return translate(res.Error, notFound)
	}
	if res.RowsAffected == 0 {
		return notFound
	}
	return nil
}
