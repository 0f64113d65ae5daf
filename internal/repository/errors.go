// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow higher layers such as
// handlers to distinguish between different failure scenarios. For
// example, ErrForbidden indicates that a vendedor asked for a sale created
// by someone else, while ErrConflict signals that a row cannot be deleted
// because other rows still reference it.
package repository

import (
	"errors"

	"github.com/go-sql-driver/mysql"
)

// ErrNotFound is returned when the requested id does not resolve to a row.
// Handlers should translate this into an HTTP 404 response.
var ErrNotFound = errors.New("not found")

// ErrForbidden is returned when the caller attempts an operation
// on a resource they do not own. Handlers should translate this
// into an HTTP 403 response.
var ErrForbidden = errors.New("forbidden")

// ErrConflict is returned when a delete cannot be performed because
// dependent records still exist (a client with sales, a product on a
// sale line). Handlers should translate this into an HTTP 409 response.
var ErrConflict = errors.New("conflict")

// ErrClientNotFound is returned by sale writes whose cliente_id does not
// exist. It is a validation failure (400), not a 404 on the sale.
var ErrClientNotFound = errors.New("client not found")

// ErrEmptyPatch is returned by partial updates that carry no fields.
var ErrEmptyPatch = errors.New("no fields to update")

// ErrDuplicate is returned when a unique key (cpf, username) is taken.
var ErrDuplicate = errors.New("duplicate entry")

// MySQL server error numbers the repositories translate.
const (
	mysqlDuplicateEntry   = 1062
	mysqlRowIsReferenced  = 1451
	mysqlRowIsReferenced2 = 1217
)

func mysqlErrNumber(err error) uint16 {
	var me *mysql.MySQLError
	if errors.As(err, &me) {
		return me.Number
	}
	return 0
}

// isForeignKeyParent reports whether err is the "row is referenced" failure
// raised when deleting a parent row that still has children.
func isForeignKeyParent(err error) bool {
	n := mysqlErrNumber(err)
	return n == mysqlRowIsReferenced || n == mysqlRowIsReferenced2
}

func isDuplicate(err error) bool {
	return mysqlErrNumber(err) == mysqlDuplicateEntry
}
