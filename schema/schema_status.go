package schema

import "time"

// StoreStatus represents the status of the workspace snapshot store.
type StoreStatus struct {
	Backend         string    `json:"backend"`
	Connected       bool      `json:"connected"`
	TotalEntries    int       `json:"total_entries"`
	LastEntryTime   time.Time `json:"last_entry_time"`
	OldestEntryTime time.Time `json:"oldest_entry_time"`
	TableSizeBytes  int64     `json:"table_size_bytes"`
}

// QueryLogStatus represents the status of the query log store.
type QueryLogStatus struct {
	Backend       string    `json:"backend"`
	Connected     bool      `json:"connected"`
	TotalQueries  int       `json:"total_queries"`
	LastQueryTime time.Time `json:"last_query_time"`
	FirstQuery    time.Time `json:"first_query_time"`
}

// ChartStatus describes one registry slot.
type ChartStatus struct {
	Kind      ChartKind `json:"kind"`
	Rendered  bool      `json:"rendered"`
	HandleID  uint64    `json:"handle_id"`
	Type      ChartType `json:"type,omitempty"`
	Series    int       `json:"series"`
	Points    int       `json:"points"`
	Committed uint64    `json:"committed_seq"`
}
