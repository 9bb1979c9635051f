package iocache

import (
	"fmt"
	"io"

	"github.com/huangsam/climdash/schema"
)

const statusTimeFormat = "2006-01-02 15:04:05"

// PrintWorkspaceStatus prints workspace store status information.
func PrintWorkspaceStatus(w io.Writer, status schema.StoreStatus) {
	_, _ = fmt.Fprintf(w, "Workspace Backend: %s\n", status.Backend)
	_, _ = fmt.Fprintf(w, "Connected: %t\n", status.Connected)
	if !status.Connected {
		return
	}
	_, _ = fmt.Fprintf(w, "Total Entries: %d\n", status.TotalEntries)
	if status.TotalEntries > 0 {
		_, _ = fmt.Fprintf(w, "Last Entry: %s\n", status.LastEntryTime.Format(statusTimeFormat))
		_, _ = fmt.Fprintf(w, "Oldest Entry: %s\n", status.OldestEntryTime.Format(statusTimeFormat))
	}
	_, _ = fmt.Fprintf(w, "Table Size: %d bytes\n", status.TableSizeBytes)
}

// PrintQueryLogStatus prints query log status information.
func PrintQueryLogStatus(w io.Writer, status schema.QueryLogStatus) {
	_, _ = fmt.Fprintf(w, "Query Log Backend: %s\n", status.Backend)
	_, _ = fmt.Fprintf(w, "Connected: %t\n", status.Connected)
	if !status.Connected {
		return
	}
	_, _ = fmt.Fprintf(w, "Total Queries: %d\n", status.TotalQueries)
	if status.TotalQueries > 0 {
		_, _ = fmt.Fprintf(w, "First Query: %s\n", status.FirstQuery.Format(statusTimeFormat))
		_, _ = fmt.Fprintf(w, "Last Query: %s\n", status.LastQueryTime.Format(statusTimeFormat))
	}
}
