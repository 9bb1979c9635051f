package iocache

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/huangsam/climdash/internal/contract"
	"github.com/huangsam/climdash/schema"
)

// queryLogTable holds one row per answered free-text query.
const queryLogTable = "climdash_query_log"

// QueryLogStoreImpl appends query/response pairs to a SQL table.
type QueryLogStoreImpl struct {
	db      *sql.DB
	backend schema.DatabaseBackend
}

var _ contract.QueryLogStore = &QueryLogStoreImpl{} // Compile-time check

// NewQueryLogStore opens the query log for the backend. NoneBackend gives a
// store that drops appends and always reads empty.
func NewQueryLogStore(backend schema.DatabaseBackend, connStr string) (*QueryLogStoreImpl, error) {
	if backend == schema.NoneBackend {
		return &QueryLogStoreImpl{backend: backend}, nil
	}

	db, err := openDB(backend, connStr, contract.GetQueryLogDBFilePath())
	if err != nil {
		return nil, err
	}

	if _, err := db.Exec(getCreateQueryLogQuery(backend)); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create table %s: %w", queryLogTable, err)
	}

	return &QueryLogStoreImpl{db: db, backend: backend}, nil
}

// getCreateQueryLogQuery mirrors the first query log migration.
func getCreateQueryLogQuery(backend schema.DatabaseBackend) string {
	quoted := quoteTableName(queryLogTable, backend)
	switch backend {
	case schema.MySQLBackend:
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				id BIGINT AUTO_INCREMENT PRIMARY KEY,
				query_text TEXT NOT NULL,
				response_text TEXT NOT NULL,
				created_at BIGINT NOT NULL
			);
		`, quoted)

	case schema.PostgreSQLBackend:
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				id BIGSERIAL PRIMARY KEY,
				query_text TEXT NOT NULL,
				response_text TEXT NOT NULL,
				created_at BIGINT NOT NULL
			);
		`, quoted)

	default: // SQLite
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				query_text TEXT NOT NULL,
				response_text TEXT NOT NULL,
				created_at INTEGER NOT NULL
			);
		`, quoted)
	}
}

// Append records one query and its response.
func (qs *QueryLogStoreImpl) Append(record schema.QueryRecord) error {
	if qs.db == nil {
		return nil
	}
	ph := placeholders(qs.backend, 3)
	query := fmt.Sprintf("INSERT INTO %s (query_text, response_text, created_at) VALUES (%s)",
		quoteTableName(queryLogTable, qs.backend), strings.Join(ph, ", "))
	if _, err := qs.db.Exec(query, record.Query, record.Response, record.Timestamp.UnixMilli()); err != nil {
		return fmt.Errorf("%w: append query: %w", schema.ErrPersistence, err)
	}
	return nil
}

// All returns every record in insertion order.
func (qs *QueryLogStoreImpl) All() ([]schema.QueryRecord, error) {
	if qs.db == nil {
		return nil, nil
	}
	query := fmt.Sprintf("SELECT query_text, response_text, created_at FROM %s ORDER BY id ASC",
		quoteTableName(queryLogTable, qs.backend))
	rows, err := qs.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("%w: read query log: %w", schema.ErrPersistence, err)
	}
	defer func() { _ = rows.Close() }()

	var records []schema.QueryRecord
	for rows.Next() {
		var rec schema.QueryRecord
		var ms int64
		if err := rows.Scan(&rec.Query, &rec.Response, &ms); err != nil {
			return nil, fmt.Errorf("%w: scan query log: %w", schema.ErrPersistence, err)
		}
		rec.Timestamp = time.UnixMilli(ms)
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: read query log: %w", schema.ErrPersistence, err)
	}
	return records, nil
}

// GetStatus returns status information about the query log.
func (qs *QueryLogStoreImpl) GetStatus() (schema.QueryLogStatus, error) {
	status := schema.QueryLogStatus{
		Backend:   string(qs.backend),
		Connected: qs.db != nil,
	}
	if qs.db == nil {
		return status, nil
	}

	quoted := quoteTableName(queryLogTable, qs.backend)
	if err := qs.db.QueryRow(fmt.Sprintf("SELECT COUNT(*) FROM %s", quoted)).Scan(&status.TotalQueries); err != nil {
		return status, fmt.Errorf("failed to get total queries: %w", err)
	}
	if status.TotalQueries == 0 {
		return status, nil
	}

	var last, first int64
	if err := qs.db.QueryRow(fmt.Sprintf("SELECT MAX(created_at), MIN(created_at) FROM %s", quoted)).Scan(&last, &first); err != nil {
		return status, fmt.Errorf("failed to get query times: %w", err)
	}
	status.LastQueryTime = time.UnixMilli(last)
	status.FirstQuery = time.UnixMilli(first)
	return status, nil
}

// Close closes the underlying DB connection.
func (qs *QueryLogStoreImpl) Close() error {
	if qs.db != nil {
		return qs.db.Close()
	}
	return nil
}
