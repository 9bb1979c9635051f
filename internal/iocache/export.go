package iocache

import (
	"errors"
	"fmt"
	"io"

	"github.com/huangsam/climdash/internal/contract"
	"github.com/huangsam/climdash/internal/parquet"
)

// ExecuteQueryLogExport writes the whole query log to outputFile.query_log.parquet.
func ExecuteQueryLogExport(w io.Writer, store contract.QueryLogStore, outputFile string) error {
	if outputFile == "" {
		return errors.New("--output-file is required for export command")
	}
	if store == nil {
		return errors.New("query log store is not configured")
	}

	status, err := store.GetStatus()
	if err != nil {
		return fmt.Errorf("failed to get query log status: %w", err)
	}
	if status.TotalQueries == 0 {
		return errors.New("no queries found to export")
	}

	_, _ = fmt.Fprintf(w, "Exporting data from %s backend...\n", status.Backend)
	_, _ = fmt.Fprintf(w, "Total queries: %d\n", status.TotalQueries)

	records, err := store.All()
	if err != nil {
		return fmt.Errorf("failed to retrieve queries: %w", err)
	}

	target := outputFile + ".query_log.parquet"
	if err := parquet.WriteQueryLogParquet(parquet.ConvertQueryRecords(records), target); err != nil {
		return fmt.Errorf("failed to write query log: %w", err)
	}
	_, _ = fmt.Fprintf(w, "Exported %d queries to: %s\n", len(records), target)
	return nil
}
