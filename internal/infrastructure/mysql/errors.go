package mysql

import (
	"errors"

	"github.com/go-sql-driver/mysql"
)

const mysqlErrDuplicateEntry = 1062

func isDuplicateKey(err error) bool {
	var myErr *mysql.MySQLError
	return errors.As(err, &myErr) && myErr.Number == mysqlErrDuplicateEntry
}
