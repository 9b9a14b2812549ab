package repository

import (
	"errors"
	"fmt"

	"github.com/entuziaz/csvup-server/pkg/domain"
	"gorm.io/gorm"
)

// MapGormErrorToDomain converts GORM errors to domain errors.
// Traverses the error chain to find GORM errors. The driver error is kept in
// the chain so the message still says which statement failed.
func MapGormErrorToDomain(err error) error {
	if err == nil {
		return nil
	}

	currentErr := err
	for currentErr != nil {
		switch {
		case errors.Is(currentErr, gorm.ErrDuplicatedKey):
			return fmt.Errorf("%w: %w", domain.ErrAlreadyExists, err)
		case errors.Is(currentErr, gorm.ErrRecordNotFound):
			return domain.ErrNotFound
		}
		currentErr = errors.Unwrap(currentErr)
	}

	return err
}

// WrapError wraps a GORM operation and automatically maps errors.
//
// Usage:
//
//	err := WrapError(func() error {
//	    return r.db.WithContext(ctx).Create(&model).Error
//	})
func WrapError(op func() error) error {
	return MapGormErrorToDomain(op())
}
