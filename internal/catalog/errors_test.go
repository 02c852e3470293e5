// archivist - Czech radio ingest and download orchestrator
// Copyright 2026 The Archivist Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/haxny/archivist

package catalog

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"
)

func TestIsUniqueConstraintErr(t *testing.T) {
	require.False(t, isUniqueConstraintErr(nil))
	require.False(t, isUniqueConstraintErr(driver.ErrBadConn))
	require.True(t, isUniqueConstraintErr(&mockDriverErr{"UNIQUE constraint failed: stations.code"}))
}

type mockDriverErr struct{ msg string }

func (e *mockDriverErr) Error() string { return e.msg }

// TestUpsertStation_RetriesOnConcurrentInsertRace drives UpsertStation
// against a mocked connection so the insert path can be forced to report a
// UNIQUE collision without actually racing two goroutines against a real
// database.
func TestUpsertStation_RetriesOnConcurrentInsertRace(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	s := &Store{db: sqlx.NewDb(db, "sqlite")}
	ctx := context.Background()

	mock.ExpectQuery(`SELECT \* FROM stations WHERE code = \?`).
		WithArgs("d1").
		WillReturnError(sql.ErrNoRows)

	mock.ExpectExec(`INSERT INTO stations`).
		WithArgs("d1", "Dvojka", "").
		WillReturnError(&mockDriverErr{"UNIQUE constraint failed: stations.code"})

	mock.ExpectQuery(`SELECT \* FROM stations WHERE code = \?`).
		WithArgs("d1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "code", "name", "website", "created_at"}).
			AddRow(1, "d1", "Dvojka", "", time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)))

	st, err := s.UpsertStation(ctx, "d1", "Dvojka", "")
	require.NoError(t, err)
	require.Equal(t, int64(1), st.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}
