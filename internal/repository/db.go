package repository

import (
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

const uniqueViolation = "23505"

// IsUniqueViolation reports whether err is a PostgreSQL unique constraint violation.
func IsUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == uniqueViolation
	}
	return false
}

// IsNotFound reports whether err carries sql.ErrNoRows.
func IsNotFound(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}

// pickExec returns exec when running inside a transaction, otherwise the pool.
func pickExec(db *sqlx.DB, exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return db
}

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// NormalizePage applies the list defaults: page 1, 20 rows, at most 100 rows.
func NormalizePage(page, size int) (int, int) {
	if page < 1 {
		page = 1
	}
	if size <= 0 {
		size = defaultPageSize
	}
	if size > maxPageSize {
		size = maxPageSize
	}
	return page, size
}

func normalizePage(page, size int) (int, int, int) {
	page, size = NormalizePage(page, size)
	return page, size, (page - 1) * size
}

func sortOrder(raw string) string {
	switch raw {
	case "ASC", "asc":
		return "ASC"
	default:
		return "DESC"
	}
}
