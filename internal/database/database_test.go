package database

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/derekprior/padelfix/internal/config"
)

func TestDSN(t *testing.T) {
	driver, dsn, err := DSN(config.DatabaseConfig{
		Driver: "postgres", Host: "db", Port: 5432, User: "u", Password: "p", Name: "padel", SSLMode: "disable",
	})
	require.NoError(t, err)
	assert.Equal(t, "postgres", driver)
	assert.Equal(t, "host=db port=5432 user=u password=p dbname=padel sslmode=disable", dsn)

	driver, dsn, err = DSN(config.DatabaseConfig{Driver: "sqlite", Path: "fixtures.db"})
	require.NoError(t, err)
	assert.Equal(t, "sqlite3", driver)
	assert.True(t, strings.HasPrefix(dsn, "file:fixtures.db?"))
	assert.Contains(t, dsn, "_foreign_keys=on")

	_, _, err = DSN(config.DatabaseConfig{Driver: "sqlite3"})
	assert.Error(t, err)

	_, _, err = DSN(config.DatabaseConfig{Driver: "mysql"})
	assert.Error(t, err)
}

func TestStatements(t *testing.T) {
	stmts := Statements()
	require.NotEmpty(t, stmts)
	tables := 0
	for _, s := range stmts {
		assert.NotContains(t, s, ";")
		if strings.HasPrefix(s, "CREATE TABLE") {
			tables++
		}
	}
	assert.Equal(t, 7, tables)
}

func TestMigrate(t *testing.T) {
	raw, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	defer raw.Close()
	db := sqlx.NewDb(raw, "sqlmock")

	for _, stmt := range Statements() {
		mock.ExpectExec(regexp.QuoteMeta(stmt)).WillReturnResult(sqlmock.NewResult(0, 0))
	}
	require.NoError(t, Migrate(context.Background(), db))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMigrateStopsOnError(t *testing.T) {
	raw, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	defer raw.Close()
	db := sqlx.NewDb(raw, "sqlmock")

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS tournaments").WillReturnError(errors.New("permission denied"))

	err = Migrate(context.Background(), db)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "permission denied")
	assert.NoError(t, mock.ExpectationsWereMet())
}
