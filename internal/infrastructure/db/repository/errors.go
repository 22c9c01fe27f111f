// Package repository implements the core persistence ports on top of GORM.
package repository

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	"github.com/tablewise/restaurant-backoffice/internal/core/domain"
)

const pgUniqueViolation = "23505"

// translate maps driver errors onto domain sentinels. Anything else is
// wrapped with the operation name.
func translate(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.ErrNotFound
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return domain.ErrConflict
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
		return domain.ErrConflict
	}
	return fmt.Errorf("%s: %w", op, err)
}

// affected turns an update or delete that matched no row into ErrNotFound.
func affected(op string, res *gorm.DB) error {
	if res.Error != nil {
		return translate(op, res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}
