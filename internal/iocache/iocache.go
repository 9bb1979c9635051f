package iocache

import (
	"database/sql"
	"fmt"
	"os"
	"sync"

	"github.com/huangsam/climdash/internal/contract"
	"github.com/huangsam/climdash/schema"
)

// StoreManagerImpl owns the workspace and query log stores.
type StoreManagerImpl struct {
	sync.RWMutex // Protects the store pointers during close
	workspace    contract.WorkspaceStore
	queryLog     contract.QueryLogStore
	closeOnce    sync.Once
}

var _ contract.StoreManager = &StoreManagerImpl{} // Compile-time check

// GetWorkspaceStore returns the workspace store.
func (mgr *StoreManagerImpl) GetWorkspaceStore() contract.WorkspaceStore {
	mgr.RLock()
	defer mgr.RUnlock()
	return mgr.workspace
}

// GetQueryLogStore returns the query log store.
func (mgr *StoreManagerImpl) GetQueryLogStore() contract.QueryLogStore {
	mgr.RLock()
	defer mgr.RUnlock()
	return mgr.queryLog
}

// InitStores opens both stores described by cfg.
// An empty backend leaves the matching store unset.
func InitStores(cfg *contract.Config) (*StoreManagerImpl, error) {
	mgr := &StoreManagerImpl{}

	if cfg.WorkspaceBackend != "" {
		ws, err := NewWorkspaceStore(workspaceTable, cfg.WorkspaceBackend, cfg.WorkspaceDBConnect)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize workspace store: %w", err)
		}
		mgr.workspace = ws
	}

	if cfg.QueryLogBackend != "" {
		ql, err := NewQueryLogStore(cfg.QueryLogBackend, cfg.QueryLogDBConnect)
		if err != nil {
			if mgr.workspace != nil {
				_ = mgr.workspace.Close()
			}
			return nil, fmt.Errorf("failed to initialize query log store: %w", err)
		}
		mgr.queryLog = ql
	}

	return mgr, nil
}

// Close releases both stores. Calling it more than once is safe.
func (mgr *StoreManagerImpl) Close() {
	mgr.closeOnce.Do(func() {
		mgr.Lock()
		defer mgr.Unlock()
		if mgr.workspace != nil {
			_ = mgr.workspace.Close()
		}
		if mgr.queryLog != nil {
			_ = mgr.queryLog.Close()
		}
	})
}

// ClearWorkspace removes the workspace snapshot for the specified backend.
// For SQLite, it deletes the database file.
// For SQL backends (MySQL/PostgreSQL), it drops the table.
// For NoneBackend, it does nothing.
func ClearWorkspace(backend schema.DatabaseBackend, dbFilePath, connStr string) error {
	return clearBackend(backend, dbFilePath, connStr, workspaceTable)
}

// ClearQueryLog removes the query log and its migration history.
func ClearQueryLog(backend schema.DatabaseBackend, dbFilePath, connStr string) error {
	return clearBackend(backend, dbFilePath, connStr, queryLogTable, migrationsTable)
}

func clearBackend(backend schema.DatabaseBackend, dbFilePath, connStr string, tables ...string) error {
	switch backend {
	case schema.SQLiteBackend:
		if dbFilePath == "" {
			return fmt.Errorf("dbFilePath cannot be empty for SQLite backend")
		}
		// Remove the file; ignore if it doesn't exist
		if err := os.Remove(dbFilePath); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to remove SQLite database file %s: %w", dbFilePath, err)
		}
		return nil

	case schema.MySQLBackend, schema.PostgreSQLBackend:
		for _, table := range tables {
			if err := clearSQLTable(backend, connStr, table); err != nil {
				return err
			}
		}
		return nil

	case schema.NoneBackend:
		return nil

	default:
		return fmt.Errorf("unsupported backend for clearing: %s", backend)
	}
}

// clearSQLTable connects to the SQL database and drops the table if it exists.
func clearSQLTable(backend schema.DatabaseBackend, connStr, tableName string) error {
	driverName, err := driverFor(backend)
	if err != nil {
		return err
	}
	db, err := sql.Open(driverName, connStr)
	if err != nil {
		return fmt.Errorf("failed to connect to %s database: %w", driverName, err)
	}
	defer func() { _ = db.Close() }()

	if err := db.Ping(); err != nil {
		return fmt.Errorf("failed to ping %s database: %w", driverName, err)
	}

	query := fmt.Sprintf("DROP TABLE IF EXISTS %s", quoteTableName(tableName, backend))
	if _, err := db.Exec(query); err != nil {
		return fmt.Errorf("failed to drop table %s: %w", tableName, err)
	}
	return nil
}

// SQLiteFilePath resolves the file backing a SQLite store.
func SQLiteFilePath(connStr, defaultPath string) string {
	if connStr != "" {
		return connStr
	}
	return defaultPath
}
