package database

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/eco-report-api/pkg/config"
)

func TestMigrateAppliesSchema(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE IF NOT EXISTS users")).WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, Migrate(context.Background(), sqlx.NewDb(db, "sqlmock")))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMigrateWrapsError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("CREATE TABLE").WillReturnError(errors.New("permission denied"))

	err = Migrate(context.Background(), sqlx.NewDb(db, "sqlmock"))
	assert.ErrorContains(t, err, "apply schema")
}

func TestSchemaCoversStoreTables(t *testing.T) {
	for _, table := range []string{"users", "reports", "report_photos", "report_comments", "achievements"} {
		assert.Contains(t, Schema, "CREATE TABLE IF NOT EXISTS "+table+" (")
	}
	assert.Contains(t, Schema, "UNIQUE (user_id, code)")
	assert.Contains(t, Schema, "duplicate_of UUID REFERENCES reports(id) ON DELETE SET NULL")
}

func TestDSN(t *testing.T) {
	assert.Equal(t, "host=db port=5432 user=eco password=pw dbname=eco_report sslmode=disable",
		DSN(config.DatabaseConfig{Host: "db", Port: 5432, User: "eco", Password: "pw", Name: "eco_report", SSLMode: "disable"}))
}

func TestDSNQuotesAwkwardValues(t *testing.T) {
	dsn := DSN(config.DatabaseConfig{Host: "db", Port: 5432, User: "eco", Password: `p w'd`, Name: "eco", SSLMode: "require"})
	assert.Contains(t, dsn, `password='p w\'d'`)
	assert.Contains(t, DSN(config.DatabaseConfig{}), "password=''")
}
