// Package repository implements the data access layer for the application.
package repository

import (
	"errors"
	"strings"

	"nextfilm/internal/models"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

// uniqueViolation reports whether err is a unique-constraint violation and,
// when the driver exposes it, the name of the violated constraint or column.
func uniqueViolation(err error) (bool, string) {
	if err == nil {
		return false, ""
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgUniqueViolation, pgErr.ConstraintName
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true, ""
	}
	msg := strings.ToLower(err.Error())
	// SQLite: "UNIQUE constraint failed: users.email"
	if i := strings.Index(msg, "unique constraint failed:"); i >= 0 {
		return true, strings.TrimSpace(msg[i+len("unique constraint failed:"):])
	}
	return strings.Contains(msg, "duplicate key") || strings.Contains(msg, pgUniqueViolation), ""
}

// isUniqueConstraintError checks if a DB error is a unique constraint violation.
func isUniqueConstraintError(err error) bool {
	ok, _ := uniqueViolation(err)
	return ok
}

func isForeignKeyError(err error) bool {
	if err == nil {
		return false
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgForeignKeyViolation
	}
	if errors.Is(err, gorm.ErrForeignKeyViolated) {
		return true
	}
	return strings.Contains(strings.ToLower(err.Error()), "foreign key constraint")
}

// notFoundOr maps ErrRecordNotFound to a NOT_FOUND AppError and anything else to INTERNAL_ERROR.
func notFoundOr(err error, resource string, id interface{}) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.NewNotFoundError(resource, id)
	}
	return models.NewInternalError(err)
}
