package repo

import (
	"database/sql"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	"fiber/responta/apperror"
)

const uniqueViolation = "23505"

// translate maps driver errors onto the shared taxonomy; notFound is the message for sql.ErrNoRows.
func translate(err error, notFound string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return apperror.NotFound(notFound)
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return apperror.Wrap(apperror.KindConflict, apperror.CodeDuplicate, "Data sudah terdaftar", err)
	}
	var appErr *apperror.Error
	if errors.As(err, &appErr) || errors.Is(err, apperror.ErrRowVersionConflict) {
		return err
	}
	return apperror.Internal(err)
}

func translateGorm(err error, notFound string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperror.NotFound(notFound)
	}
	return translate(err, notFound)
}
