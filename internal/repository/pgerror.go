package repository

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

// SQLSTATE foreign_key_violation.
const foreignKeyViolation = "23503"

// orderUserForeignKey is the constraint Postgres names for orders.user_id REFERENCES users(id).
const orderUserForeignKey = "orders_user_id_fkey"

func isForeignKeyViolation(err error, constraint string) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) &&
		pgErr.Code == foreignKeyViolation &&
		pgErr.ConstraintName == constraint
}
