package migration

import (
	"bytes"
	"context"
	"errors"
	"os"
	"regexp"
	"testing"

	"cmsapi/internal/logging"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sentinel = "SELECT to_regclass('public.records') IS NOT NULL"

func captureLogs(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	logging.SetOutput(&buf)
	t.Cleanup(func() { logging.SetOutput(os.Stdout) })
	return &buf
}

func TestEnsureMigrated(t *testing.T) {
	t.Run("skips when records table exists", func(t *testing.T) {
		logs := captureLogs(t)
		db, m, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		m.ExpectQuery(regexp.QuoteMeta(sentinel)).
			WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

		require.NoError(t, EnsureMigrated(context.Background(), db, "db.local"))
		assert.NoError(t, m.ExpectationsWereMet())
		assert.Contains(t, logs.String(), "db_migration_skip")
	})

	t.Run("runs every step on a fresh database", func(t *testing.T) {
		captureLogs(t)
		db, m, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		m.ExpectQuery(regexp.QuoteMeta(sentinel)).
			WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
		for _, step := range steps {
			m.ExpectExec(regexp.QuoteMeta(step.SQL)).WillReturnResult(sqlmock.NewResult(0, 0))
		}

		require.NoError(t, EnsureMigrated(context.Background(), db, "db.local"))
		assert.NoError(t, m.ExpectationsWereMet())
	})

	t.Run("stops at the failing step", func(t *testing.T) {
		logs := captureLogs(t)
		db, m, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		m.ExpectQuery(regexp.QuoteMeta(sentinel)).
			WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
		m.ExpectExec(regexp.QuoteMeta(steps[0].SQL)).WillReturnError(errors.New("permission denied"))

		err = EnsureMigrated(context.Background(), db, "db.local")
		require.Error(t, err)
		assert.Contains(t, err.Error(), steps[0].Name)
		assert.NoError(t, m.ExpectationsWereMet())
		assert.Contains(t, logs.String(), `"level":"error"`)
	})
}
