// Package repository persists tournaments, rosters, zones and matches.
//
// Queries are written with ? placeholders and rebound for the driver, so
// the same statements run on postgres and sqlite. Methods that take an
// exec argument run inside the caller's transaction when it is non-nil.
package repository

import (
	"github.com/jmoiron/sqlx"
)

type base struct {
	db *sqlx.DB
}

func (b base) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return b.db
}

// in expands a query with an IN (?) clause and rebinds it.
func in(exec sqlx.ExtContext, query string, args ...interface{}) (string, []interface{}, error) {
	q, a, err := sqlx.In(query, args...)
	if err != nil {
		return "", nil, err
	}
	return exec.Rebind(q), a, nil
}
