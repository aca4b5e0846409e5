package snapshot

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSQLiteSnapshot(t *testing.T, stmts ...string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "botdeck.db")
	db, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	defer db.Close()

	schema := []string{
		`CREATE TABLE bots (id TEXT PRIMARY KEY, created INTEGER, name TEXT, status TEXT, description TEXT)`,
		`CREATE TABLE workers (id TEXT PRIMARY KEY, created INTEGER, bot TEXT, name TEXT, description TEXT)`,
		`CREATE TABLE logs (id TEXT PRIMARY KEY, created INTEGER, bot TEXT, worker TEXT, message TEXT)`,
	}
	for _, s := range append(schema, stmts...) {
		_, err := db.Exec(s)
		require.NoError(t, err, s)
	}
	return path
}

func TestSQLSource_SQLite(t *testing.T) {
	path := newSQLiteSnapshot(t,
		`INSERT INTO bots VALUES ('b1', 1000, 'Alpha', 'ENABLED', 'first'), ('b2', 2000, 'Beta', 'PAUSED', NULL)`,
		`INSERT INTO workers VALUES ('w1', 1100, 'Alpha', 'digger', NULL), ('w2', 1200, 'Ghost', 'lost', 'no owner')`,
		`INSERT INTO logs VALUES ('l2', 1300, 'b1', 'w1', 'second'), ('l1', 1250, 'Alpha', 'digger', 'first')`,
	)

	st, err := Load(context.Background(), NewSQLSource("sqlite", path), 0)
	require.NoError(t, err)

	b2, ok := st.Bots().FindByID("b2")
	require.True(t, ok)
	assert.Empty(t, b2.Description, "NULL description scans as empty")

	w1, _ := st.Workers().FindByID("w1")
	assert.Equal(t, "b1", w1.BotID)
	w2, _ := st.Workers().FindByID("w2")
	assert.Empty(t, w2.BotID)

	l1, _ := st.Logs().FindByID("l1")
	assert.Equal(t, "b1", l1.BotID)
	assert.Equal(t, "w1", l1.WorkerID)
	assert.EqualValues(t, 1250, l1.Created)
}

func TestSQLSource_MissingTable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.db")
	db, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	_, err = db.Exec(`CREATE TABLE bots (id TEXT)`)
	require.NoError(t, err)
	db.Close()

	_, err = NewSQLSource("sqlite", path).Fetch(context.Background())
	assert.Error(t, err)
}

func TestSQLSource_UnknownDriver(t *testing.T) {
	_, err := NewSQLSource("nosuchdriver", "x").Fetch(context.Background())
	assert.Error(t, err)
}
