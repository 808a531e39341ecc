// Package repository holds the MySQL data access layer.  Repositories
// translate driver failures into the sentinel values below so that the
// service layer never inspects MySQL error numbers itself.
package repository

import (
	"database/sql"
	"errors"

	"github.com/go-sql-driver/mysql"
)

// ErrNotFound is returned when the requested row does not exist, or exists
// but is not visible to the caller (e.g. another user's cart item).
var ErrNotFound = errors.New("not found")

// ErrEmailExists is returned when an insert or update would duplicate
// users.email.
var ErrEmailExists = errors.New("email already exists")

// ErrConflict is returned when a write violates another unique key.
var ErrConflict = errors.New("conflict")

// ErrMissingReference is returned when a foreign key target is absent, such
// as a review for a product that was deleted meanwhile.
var ErrMissingReference = errors.New("referenced row does not exist")

// MySQL server error numbers.
const (
	mysqlDuplicateEntry = 1062
	mysqlNoReferenced   = 1452
)

func mysqlErrNumber(err error) uint16 {
	var me *mysql.MySQLError
	if errors.As(err, &me) {
		return me.Number
	}
	return 0
}

func isDuplicate(err error) bool { return mysqlErrNumber(err) == mysqlDuplicateEntry }

func isMissingReference(err error) bool { return mysqlErrNumber(err) == mysqlNoReferenced }

// notFound maps sql.ErrNoRows to ErrNotFound and passes anything else through.
func notFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

// expectOne returns ErrNotFound unless the statement touched a row.
func expectOne(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
