package iocache

import (
	"bytes"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/huangsam/climdash/internal/contract"
	pq "github.com/huangsam/climdash/internal/parquet"
	"github.com/huangsam/climdash/schema"
	"github.com/parquet-go/parquet-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func tempDB(t *testing.T, name string) string {
	t.Helper()
	return filepath.Join(t.TempDir(), name)
}

func TestValidateTableName(t *testing.T) {
	assert.NoError(t, validateTableName("climdash_workspace"))
	assert.NoError(t, validateTableName("_x1"))
	assert.Error(t, validateTableName(""))
	assert.Error(t, validateTableName("1abc"))
	assert.Error(t, validateTableName("bad; DROP TABLE x"))
}

func TestQuoteTableName(t *testing.T) {
	assert.Equal(t, "`t`", quoteTableName("t", schema.MySQLBackend))
	assert.Equal(t, `"t"`, quoteTableName("t", schema.PostgreSQLBackend))
	assert.Equal(t, `"t"`, quoteTableName("t", schema.SQLiteBackend))
}

func TestPlaceholders(t *testing.T) {
	assert.Equal(t, []string{"$1", "$2"}, placeholders(schema.PostgreSQLBackend, 2))
	assert.Equal(t, []string{"?", "?", "?"}, placeholders(schema.MySQLBackend, 3))
}

func TestWorkspaceStore(t *testing.T) {
	store, err := NewWorkspaceStore(workspaceTable, schema.SQLiteBackend, tempDB(t, "ws.db"))
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	_, _, _, err = store.Get("missing")
	assert.ErrorIs(t, err, sql.ErrNoRows)

	require.NoError(t, store.Set("k", []byte("v1"), 1, 100))
	require.NoError(t, store.Set("k", []byte("v2"), 2, 200))
	value, version, ts, err := store.Get("k")
	require.NoError(t, err)
	assert.Equal(t, []byte("v2"), value)
	assert.Equal(t, 2, version)
	assert.Equal(t, int64(200), ts)

	require.NoError(t, store.Set("other", []byte("x"), 1, 50))
	status, err := store.GetStatus()
	require.NoError(t, err)
	assert.Equal(t, "sqlite", status.Backend)
	assert.True(t, status.Connected)
	assert.Equal(t, 2, status.TotalEntries)
	assert.Equal(t, time.Unix(200, 0), status.LastEntryTime)
	assert.Equal(t, time.Unix(50, 0), status.OldestEntryTime)
	assert.Positive(t, status.TableSizeBytes)
}

func TestWorkspaceStoreInvalid(t *testing.T) {
	_, err := NewWorkspaceStore("bad name", schema.SQLiteBackend, "")
	assert.Error(t, err)

	_, err = NewWorkspaceStore(workspaceTable, "oracle", "")
	assert.ErrorContains(t, err, "unsupported backend")
}

func TestWorkspaceStoreNone(t *testing.T) {
	store, err := NewWorkspaceStore(workspaceTable, schema.NoneBackend, "")
	require.NoError(t, err)

	assert.NoError(t, store.Set("k", []byte("v"), 1, 1))
	_, _, _, err = store.Get("k")
	assert.ErrorIs(t, err, sql.ErrNoRows)

	status, err := store.GetStatus()
	require.NoError(t, err)
	assert.False(t, status.Connected)
	assert.NoError(t, store.Close())
}

func TestSaveLoadWorkspace(t *testing.T) {
	store, err := NewWorkspaceStore(workspaceTable, schema.SQLiteBackend, tempDB(t, "ws.db"))
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	_, _, err = LoadWorkspace(store)
	assert.ErrorIs(t, err, ErrNoSnapshot)

	now := time.Unix(1_750_000_000, 0)
	bundle := &schema.DatasetBundle{TemperatureData: []schema.TemperaturePoint{{Year: 2030, Temperature: 15.5}}}
	require.NoError(t, SaveWorkspace(store, bundle, now))

	raw, savedAt, err := LoadWorkspace(store)
	require.NoError(t, err)
	assert.Equal(t, now, savedAt)
	assert.Equal(t, []schema.ChartKind{schema.TemperatureChart}, raw.Present())
	assert.JSONEq(t, `[{"year":2030,"temperature":15.5}]`, string(raw.Section(schema.TemperatureChart)))

	require.NoError(t, store.Set(workspaceKey, []byte(`{}`), workspaceVersion+1, now.Unix()))
	_, _, err = LoadWorkspace(store)
	assert.ErrorIs(t, err, ErrNoSnapshot, "other encoding versions are ignored")

	require.NoError(t, store.Set(workspaceKey, []byte(`{oops`), workspaceVersion, now.Unix()))
	_, _, err = LoadWorkspace(store)
	assert.ErrorIs(t, err, schema.ErrParse)

	_, _, err = LoadWorkspace(nil)
	assert.ErrorIs(t, err, ErrNoSnapshot)
	assert.NoError(t, SaveWorkspace(nil, bundle, now))
}

func TestSaveWorkspaceFailure(t *testing.T) {
	store := &MockWorkspaceStore{}
	store.On("Set", workspaceKey, mock.Anything, workspaceVersion, int64(10)).Return(errors.New("disk full"))

	err := SaveWorkspace(store, &schema.DatasetBundle{}, time.Unix(10, 0))
	assert.ErrorIs(t, err, schema.ErrPersistence)
	store.AssertExpectations(t)
}

func TestLoadWorkspaceFailure(t *testing.T) {
	store := &MockWorkspaceStore{}
	store.On("Get", workspaceKey).Return(nil, 0, int64(0), errors.New("locked"))

	_, _, err := LoadWorkspace(store)
	assert.ErrorIs(t, err, schema.ErrPersistence)
}

func TestQueryLogStore(t *testing.T) {
	store, err := NewQueryLogStore(schema.SQLiteBackend, tempDB(t, "q.db"))
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	records, err := store.All()
	require.NoError(t, err)
	assert.Empty(t, records)

	first := time.UnixMilli(1_700_000_000_123)
	second := first.Add(time.Minute)
	require.NoError(t, store.Append(schema.QueryRecord{Query: "q1", Response: "r1", Timestamp: first}))
	require.NoError(t, store.Append(schema.QueryRecord{Query: "q2", Response: "r2", Timestamp: second}))

	records, err = store.All()
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "q1", records[0].Query)
	assert.Equal(t, "r2", records[1].Response)
	assert.True(t, records[0].Timestamp.Equal(first))

	status, err := store.GetStatus()
	require.NoError(t, err)
	assert.Equal(t, 2, status.TotalQueries)
	assert.True(t, status.FirstQuery.Equal(first))
	assert.True(t, status.LastQueryTime.Equal(second))
}

func TestQueryLogStoreNone(t *testing.T) {
	store, err := NewQueryLogStore(schema.NoneBackend, "")
	require.NoError(t, err)
	assert.NoError(t, store.Append(schema.QueryRecord{Query: "q"}))
	records, err := store.All()
	assert.NoError(t, err)
	assert.Empty(t, records)
	status, err := store.GetStatus()
	require.NoError(t, err)
	assert.False(t, status.Connected)
}

func TestMigrateQueryLog(t *testing.T) {
	dbPath := tempDB(t, "migrate.db")
	var out bytes.Buffer

	require.NoError(t, MigrateQueryLog(&out, schema.SQLiteBackend, dbPath, -1))
	assert.Contains(t, out.String(), "Successfully migrated from version 0 to version 2")

	out.Reset()
	require.NoError(t, MigrateQueryLog(&out, schema.SQLiteBackend, dbPath, -1))
	assert.Contains(t, out.String(), "No migration needed")

	out.Reset()
	require.NoError(t, MigrateQueryLog(&out, schema.SQLiteBackend, dbPath, 1))
	assert.Contains(t, out.String(), "from version 2 to version 1")

	// A migrated table is usable by the store.
	store, err := NewQueryLogStore(schema.SQLiteBackend, dbPath)
	require.NoError(t, err)
	require.NoError(t, store.Append(schema.QueryRecord{Query: "q", Response: "r", Timestamp: time.Now()}))
	require.NoError(t, store.Close())

	out.Reset()
	require.NoError(t, MigrateQueryLog(&out, schema.SQLiteBackend, dbPath, 0))
	assert.Contains(t, out.String(), "rolled back from version 1 to version 0")

	err = MigrateQueryLog(&out, schema.NoneBackend, "", -1)
	assert.ErrorContains(t, err, "migrations are not supported for NoneBackend")
}

func TestInitStores(t *testing.T) {
	cfg := &contract.Config{
		WorkspaceBackend:   schema.SQLiteBackend,
		WorkspaceDBConnect: tempDB(t, "ws.db"),
		QueryLogBackend:    schema.SQLiteBackend,
		QueryLogDBConnect:  tempDB(t, "q.db"),
	}
	mgr, err := InitStores(cfg)
	require.NoError(t, err)
	assert.NotNil(t, mgr.GetWorkspaceStore())
	assert.NotNil(t, mgr.GetQueryLogStore())
	mgr.Close()
	mgr.Close()

	mgr, err = InitStores(&contract.Config{})
	require.NoError(t, err)
	assert.Nil(t, mgr.GetWorkspaceStore())
	assert.Nil(t, mgr.GetQueryLogStore())

	_, err = InitStores(&contract.Config{WorkspaceBackend: schema.SQLiteBackend, WorkspaceDBConnect: cfg.WorkspaceDBConnect, QueryLogBackend: "oracle"})
	assert.ErrorContains(t, err, "failed to initialize query log store")
}

func TestClear(t *testing.T) {
	dbPath := tempDB(t, "ws.db")
	store, err := NewWorkspaceStore(workspaceTable, schema.SQLiteBackend, dbPath)
	require.NoError(t, err)
	require.NoError(t, store.Close())

	require.NoError(t, ClearWorkspace(schema.SQLiteBackend, dbPath, ""))
	_, err = os.Stat(dbPath)
	assert.True(t, os.IsNotExist(err))
	assert.NoError(t, ClearWorkspace(schema.SQLiteBackend, dbPath, ""), "missing files are fine")

	assert.Error(t, ClearQueryLog(schema.SQLiteBackend, "", ""))
	assert.NoError(t, ClearQueryLog(schema.NoneBackend, "", ""))
	assert.Error(t, ClearQueryLog("oracle", "", ""))
}

func TestSQLiteFilePath(t *testing.T) {
	assert.Equal(t, "/tmp/a.db", SQLiteFilePath("/tmp/a.db", "/home/x.db"))
	assert.Equal(t, "/home/x.db", SQLiteFilePath("", "/home/x.db"))
}

func TestPrintStatus(t *testing.T) {
	var buf bytes.Buffer
	PrintWorkspaceStatus(&buf, schema.StoreStatus{Backend: "none"})
	assert.Equal(t, "Workspace Backend: none\nConnected: false\n", buf.String())

	buf.Reset()
	PrintWorkspaceStatus(&buf, schema.StoreStatus{Backend: "sqlite", Connected: true, TotalEntries: 1, TableSizeBytes: 4096})
	assert.Contains(t, buf.String(), "Total Entries: 1\n")
	assert.Contains(t, buf.String(), "Last Entry: ")
	assert.Contains(t, buf.String(), "Table Size: 4096 bytes\n")

	buf.Reset()
	PrintQueryLogStatus(&buf, schema.QueryLogStatus{Backend: "sqlite", Connected: true, TotalQueries: 3})
	assert.Contains(t, buf.String(), "Query Log Backend: sqlite\n")
	assert.Contains(t, buf.String(), "Total Queries: 3\n")
	assert.Contains(t, buf.String(), "First Query: ")
}

func TestExecuteQueryLogExport(t *testing.T) {
	store, err := NewQueryLogStore(schema.SQLiteBackend, tempDB(t, "q.db"))
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	prefix := filepath.Join(t.TempDir(), "out")
	var out bytes.Buffer
	assert.ErrorContains(t, ExecuteQueryLogExport(&out, store, prefix), "no queries found")
	assert.ErrorContains(t, ExecuteQueryLogExport(&out, store, ""), "--output-file is required")
	assert.Error(t, ExecuteQueryLogExport(&out, nil, prefix))

	require.NoError(t, store.Append(schema.QueryRecord{Query: "q1", Response: "r1", Timestamp: time.UnixMilli(1000)}))
	require.NoError(t, ExecuteQueryLogExport(&out, store, prefix))
	assert.Contains(t, out.String(), "Exported 1 queries to: "+prefix+".query_log.parquet")

	rows, err := parquet.ReadFile[pq.QueryLogEntry](prefix + ".query_log.parquet")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "q1", rows[0].Query)
}

func TestExecuteQueryLogExportStatusError(t *testing.T) {
	store := &MockQueryLogStore{}
	store.On("GetStatus").Return(schema.QueryLogStatus{}, errors.New("gone"))

	err := ExecuteQueryLogExport(&bytes.Buffer{}, store, "out")
	assert.ErrorContains(t, err, "failed to get query log status")
	store.AssertExpectations(t)
}
