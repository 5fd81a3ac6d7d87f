package repository

import (
	"errors"

	"go-production-inventory/internal/apperror"

	"gorm.io/gorm"
)

// conn returns tx when the caller is inside a transaction, otherwise the repository's db.
func conn(db, tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return db
}

// notFound maps gorm's record-not-found to the core NOT_FOUND error and passes others through.
func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperror.ErrNotFound
	}
	return err
}
