// Package iocache keeps dashboard state on disk or in a SQL database.
package iocache

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/huangsam/climdash/internal/contract"
	"github.com/huangsam/climdash/schema"
)

// Workspace snapshot layout.
const (
	workspaceTable   = "climdash_workspace"
	workspaceKey     = "current"
	workspaceVersion = 1 // bump when the snapshot encoding changes
)

// ErrNoSnapshot means no usable workspace snapshot exists.
var ErrNoSnapshot = errors.New("no workspace snapshot")

// WorkspaceStoreImpl handles durable snapshot storage using various database backends.
type WorkspaceStoreImpl struct {
	db        *sql.DB
	tableName string
	backend   schema.DatabaseBackend
	connStr   string
}

var _ contract.WorkspaceStore = &WorkspaceStoreImpl{} // Compile-time check

// NewWorkspaceStore initializes and returns a new WorkspaceStore based on the backend type.
func NewWorkspaceStore(tableName string, backend schema.DatabaseBackend, connStr string) (*WorkspaceStoreImpl, error) {
	// Validate table name to prevent SQL injection
	if err := validateTableName(tableName); err != nil {
		return nil, err
	}
	if backend == schema.NoneBackend {
		// No-op store for disabled persistence
		return &WorkspaceStoreImpl{tableName: tableName, backend: backend, connStr: connStr}, nil
	}

	db, err := openDB(backend, connStr, contract.GetWorkspaceDBFilePath())
	if err != nil {
		return nil, err
	}

	if _, err := db.Exec(getCreateWorkspaceQuery(tableName, backend)); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create table %s: %w", tableName, err)
	}

	return &WorkspaceStoreImpl{db: db, tableName: tableName, backend: backend, connStr: connStr}, nil
}

// getCreateWorkspaceQuery returns the CREATE TABLE query for the given backend.
func getCreateWorkspaceQuery(tableName string, backend schema.DatabaseBackend) string {
	quotedTableName := quoteTableName(tableName, backend)
	switch backend {
	case schema.MySQLBackend:
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				snapshot_key VARCHAR(255) PRIMARY KEY,
				snapshot_value LONGBLOB NOT NULL,
				snapshot_version INT NOT NULL,
				snapshot_timestamp BIGINT NOT NULL
			);
		`, quotedTableName)

	case schema.PostgreSQLBackend:
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				snapshot_key TEXT PRIMARY KEY,
				snapshot_value BYTEA NOT NULL,
				snapshot_version INTEGER NOT NULL,
				snapshot_timestamp BIGINT NOT NULL
			);
		`, quotedTableName)

	default: // SQLite
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				snapshot_key TEXT PRIMARY KEY,
				snapshot_value BLOB NOT NULL,
				snapshot_version INTEGER NOT NULL,
				snapshot_timestamp INTEGER NOT NULL
			);
		`, quotedTableName)
	}
}

// Get retrieves a value by key from the store.
func (ws *WorkspaceStoreImpl) Get(key string) ([]byte, int, int64, error) {
	if ws.db == nil {
		return nil, 0, 0, sql.ErrNoRows
	}

	var value []byte
	var version int
	var ts int64
	query := fmt.Sprintf(`SELECT snapshot_value, snapshot_version, snapshot_timestamp FROM %s WHERE snapshot_key = %s`,
		quoteTableName(ws.tableName, ws.backend), placeholders(ws.backend, 1)[0])
	if err := ws.db.QueryRow(query, key).Scan(&value, &version, &ts); err != nil {
		return nil, 0, 0, err
	}
	return value, version, ts, nil
}

// Set inserts or replaces a key/value pair in the store.
func (ws *WorkspaceStoreImpl) Set(key string, value []byte, version int, timestamp int64) error {
	if ws.db == nil {
		return nil
	}
	_, err := ws.db.Exec(ws.getUpsertQuery(), key, value, version, timestamp)
	return err
}

// getUpsertQuery returns the UPSERT query for the backend.
func (ws *WorkspaceStoreImpl) getUpsertQuery() string {
	quotedTableName := quoteTableName(ws.tableName, ws.backend)
	switch ws.backend {
	case schema.MySQLBackend:
		return fmt.Sprintf(`INSERT INTO %s (snapshot_key, snapshot_value, snapshot_version, snapshot_timestamp) VALUES (?, ?, ?, ?) AS new
			ON DUPLICATE KEY UPDATE snapshot_value = new.snapshot_value, snapshot_version = new.snapshot_version, snapshot_timestamp = new.snapshot_timestamp`, quotedTableName)

	case schema.PostgreSQLBackend:
		return fmt.Sprintf(`INSERT INTO %s (snapshot_key, snapshot_value, snapshot_version, snapshot_timestamp) VALUES ($1, $2, $3, $4)
			ON CONFLICT (snapshot_key) DO UPDATE SET snapshot_value = EXCLUDED.snapshot_value, snapshot_version = EXCLUDED.snapshot_version, snapshot_timestamp = EXCLUDED.snapshot_timestamp`, quotedTableName)

	default: // SQLite
		return fmt.Sprintf(`INSERT OR REPLACE INTO %s (snapshot_key, snapshot_value, snapshot_version, snapshot_timestamp) VALUES (?, ?, ?, ?)`, quotedTableName)
	}
}

// Close closes the underlying DB connection.
func (ws *WorkspaceStoreImpl) Close() error {
	if ws.db != nil {
		return ws.db.Close()
	}
	return nil
}

// GetStatus returns status information about the workspace store.
func (ws *WorkspaceStoreImpl) GetStatus() (schema.StoreStatus, error) {
	status := schema.StoreStatus{
		Backend:   string(ws.backend),
		Connected: ws.db != nil,
	}
	if ws.db == nil {
		return status, nil
	}

	quotedTableName := quoteTableName(ws.tableName, ws.backend)
	if err := ws.db.QueryRow(fmt.Sprintf("SELECT COUNT(*) FROM %s", quotedTableName)).Scan(&status.TotalEntries); err != nil {
		return status, fmt.Errorf("failed to get total entries: %w", err)
	}
	if status.TotalEntries == 0 {
		return status, nil
	}

	var lastTs, oldestTs int64
	row := ws.db.QueryRow(fmt.Sprintf("SELECT MAX(snapshot_timestamp), MIN(snapshot_timestamp) FROM %s", quotedTableName))
	if err := row.Scan(&lastTs, &oldestTs); err != nil {
		return status, fmt.Errorf("failed to get entry times: %w", err)
	}
	status.LastEntryTime = time.Unix(lastTs, 0)
	status.OldestEntryTime = time.Unix(oldestTs, 0)

	switch ws.backend {
	case schema.SQLiteBackend:
		sizeQuery := "SELECT page_count * page_size FROM pragma_page_count(), pragma_page_size()"
		if err := ws.db.QueryRow(sizeQuery).Scan(&status.TableSizeBytes); err != nil {
			status.TableSizeBytes = 0
		}
	case schema.MySQLBackend:
		// Fallback rough estimate if information_schema query fails
		status.TableSizeBytes = int64(status.TotalEntries) * 1000
		cfg, err := mysql.ParseDSN(ws.connStr)
		if err != nil || cfg.DBName == "" {
			break
		}
		sizeQuery := "SELECT data_length + index_length FROM information_schema.tables WHERE table_schema = ? AND table_name = ?"
		if err := ws.db.QueryRow(sizeQuery, cfg.DBName, ws.tableName).Scan(&status.TableSizeBytes); err != nil {
			status.TableSizeBytes = int64(status.TotalEntries) * 1000
		}
	case schema.PostgreSQLBackend:
		if err := ws.db.QueryRow("SELECT pg_total_relation_size($1)", ws.tableName).Scan(&status.TableSizeBytes); err != nil {
			status.TableSizeBytes = int64(status.TotalEntries) * 1000
		}
	}
	return status, nil
}

// SaveWorkspace stores bundle as the current workspace snapshot.
func SaveWorkspace(store contract.WorkspaceStore, bundle *schema.DatasetBundle, now time.Time) error {
	if store == nil {
		return nil
	}
	data, err := json.Marshal(bundle)
	if err != nil {
		return fmt.Errorf("%w: encode workspace: %w", schema.ErrPersistence, err)
	}
	if err := store.Set(workspaceKey, data, workspaceVersion, now.Unix()); err != nil {
		return fmt.Errorf("%w: save workspace: %w", schema.ErrPersistence, err)
	}
	return nil
}

// LoadWorkspace returns the current snapshot undecoded, so callers validate it
// like any backend response. Snapshots of another encoding version are ignored.
func LoadWorkspace(store contract.WorkspaceStore) (*schema.RawBundle, time.Time, error) {
	if store == nil {
		return nil, time.Time{}, ErrNoSnapshot
	}
	data, version, ts, err := store.Get(workspaceKey)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return nil, time.Time{}, ErrNoSnapshot
	case err != nil:
		return nil, time.Time{}, fmt.Errorf("%w: load workspace: %w", schema.ErrPersistence, err)
	case version != workspaceVersion || len(strings.TrimSpace(string(data))) == 0:
		return nil, time.Time{}, ErrNoSnapshot
	}
	var raw schema.RawBundle
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, time.Time{}, fmt.Errorf("%w: workspace snapshot: %w", schema.ErrParse, err)
	}
	return &raw, time.Unix(ts, 0), nil
}
