package migration

import (
	"database/sql"
	"errors"
	"io/fs"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/polkiloo/payledger/internal/config"
)

func TestSourceContainsPairedMigrations(t *testing.T) {
	src, err := Source()
	require.NoError(t, err)

	entries, err := fs.ReadDir(src, ".")
	require.NoError(t, err)
	require.NotEmpty(t, entries)

	ups, downs := 0, 0
	for _, e := range entries {
		switch {
		case strings.HasSuffix(e.Name(), ".up.sql"):
			ups++
		case strings.HasSuffix(e.Name(), ".down.sql"):
			downs++
		}
	}
	assert.Equal(t, ups, downs)
}

func TestInitMigrationDeclaresLedgerUniqueness(t *testing.T) {
	src, err := Source()
	require.NoError(t, err)

	body, err := fs.ReadFile(src, "000001_init.up.sql")
	require.NoError(t, err)

	sqlText := string(body)
	assert.Contains(t, sqlText, "UNIQUE (stripe_event_id)")
	assert.Contains(t, sqlText, "CREATE TABLE IF NOT EXISTS orders")
	assert.Contains(t, sqlText, "idx_payment_events_received")
}

func TestRunMigrationsRequiresHandle(t *testing.T) {
	_, err := RunMigrations(nil)
	require.Error(t, err)
}

func TestUpOpenError(t *testing.T) {
	original := openDB
	t.Cleanup(func() { openDB = original })
	openDB = func(string) (*sql.DB, error) { return nil, errors.New("no driver") }

	_, err := Up("postgres://localhost/db")
	require.ErrorContains(t, err, "open database")
}

func TestMigrateOnBootSkipsWhenDisabled(t *testing.T) {
	original := openDB
	t.Cleanup(func() { openDB = original })
	openDB = func(string) (*sql.DB, error) {
		t.Fatal("database must not be opened")
		return nil, nil
	}

	require.NoError(t, migrateOnBoot(&config.Config{AutoMigrate: false}, zap.NewNop()))
}

func TestMigrateOnBootPropagatesErrors(t *testing.T) {
	original := openDB
	t.Cleanup(func() { openDB = original })
	openDB = func(string) (*sql.DB, error) { return nil, errors.New("refused") }

	err := migrateOnBoot(&config.Config{AutoMigrate: true, DatabaseURI: "postgres://x"}, zap.NewNop())
	require.Error(t, err)
}
