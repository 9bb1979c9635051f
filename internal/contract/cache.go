package contract

import "github.com/huangsam/climdash/schema"

// StoreManager defines the interface for managing local stores.
// This allows the storage layer to be mocked for testing.
type StoreManager interface {
	GetWorkspaceStore() WorkspaceStore
	GetQueryLogStore() QueryLogStore
}

// WorkspaceStore keeps versioned snapshots of the displayed dataset.
type WorkspaceStore interface {
	Get(key string) ([]byte, int, int64, error)
	Set(key string, value []byte, version int, timestamp int64) error
	GetStatus() (schema.StoreStatus, error)
	Close() error
}

// QueryLogStore keeps the free-text query log in insertion order.
type QueryLogStore interface {
	Append(record schema.QueryRecord) error
	All() ([]schema.QueryRecord, error)
	GetStatus() (schema.QueryLogStatus, error)
	Close() error
}
