package repository

import (
	"errors"

	"gorm.io/gorm"
)

// Repository errors returned in place of gorm's so callers do not depend on
// the ORM. Duplicate detection needs gorm.Config.TranslateError.
var (
	ErrRecordNotFound = errors.New("record not found")
	ErrDuplicate      = errors.New("duplicate record")
)

func translate(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrRecordNotFound
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrDuplicate
	}
	return err
}
