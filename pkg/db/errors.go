package db

import (
	"errors"
	"strings"

	pkgerrors "github.com/handcar/handcar-backend/pkg/errors"
	"gorm.io/gorm"
)

const pgUniqueViolation = "23505"

// IsUniqueViolation reports whether err is a unique constraint failure on any
// supported driver. When constraintName is set, the message must also mention it.
func IsUniqueViolation(err error, constraintName string) bool {
	if err == nil {
		return false
	}
	unique := errors.Is(err, gorm.ErrDuplicatedKey) ||
		pkgerrors.PostgresCode(err) == pgUniqueViolation ||
		strings.Contains(err.Error(), "duplicate key value") ||
		strings.Contains(err.Error(), "UNIQUE constraint failed")
	if !unique {
		return false
	}
	if constraintName == "" || errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	return strings.Contains(err.Error(), constraintName)
}

// IsNotFound hides the gorm sentinel from service packages.
func IsNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
