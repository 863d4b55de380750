package repository

import (
	"errors"

	"roleconsole/pkg/apperror"

	"gorm.io/gorm"
)

// translate maps a gorm error onto the store error kinds
func translate(op, entity, id string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperror.NotFound(entity, id)
	}
	return apperror.Transport(op, err)
}
