// Package parquet provides data structures and functions for exporting dashboard
// data to Parquet files using github.com/parquet-go/parquet-go.
package parquet

import (
	"fmt"
	"os"
	"time"

	"github.com/huangsam/climdash/schema"
	"github.com/parquet-go/parquet-go"
)

// ChartPoint is one value of a displayed chart in long format.
type ChartPoint struct {
	// Section is the chart kind the value belongs to
	Section string `parquet:"section,snappy"`

	// Series is the series name (scenario name, metric group or factor group)
	Series string `parquet:"series,snappy"`

	// Label is the axis label: a year, a risk metric or a sensitivity factor
	Label string `parquet:"label,snappy"`

	// Year is set for year-indexed sections (nullable)
	Year *int32 `parquet:"year,optional,snappy"`

	// Value is the stored domain value (fractional for economic impact)
	Value float64 `parquet:"value,snappy"`
}

// QueryLogEntry is one free-text query and its answer.
type QueryLogEntry struct {
	Query     string    `parquet:"query,snappy"`
	Response  string    `parquet:"response,snappy"`
	Timestamp time.Time `parquet:"timestamp,snappy"`
}

// ConvertChartPoints converts flattened bundle values to Parquet rows.
func ConvertChartPoints(points []schema.FlatPoint) []ChartPoint {
	out := make([]ChartPoint, len(points))
	for i, p := range points {
		row := ChartPoint{Section: string(p.Section), Series: p.Series, Label: p.Label, Value: p.Value}
		if p.Year != nil {
			y := int32(*p.Year)
			row.Year = &y
		}
		out[i] = row
	}
	return out
}

// ConvertQueryRecords converts query log records to Parquet rows.
func ConvertQueryRecords(records []schema.QueryRecord) []QueryLogEntry {
	out := make([]QueryLogEntry, len(records))
	for i, r := range records {
		out[i] = QueryLogEntry{Query: r.Query, Response: r.Response, Timestamp: r.Timestamp}
	}
	return out
}

// WriteChartPointsParquet writes chart points to a Parquet file.
func WriteChartPointsParquet(data []ChartPoint, outputPath string) error {
	return writeParquet(data, outputPath)
}

// WriteQueryLogParquet writes query log entries to a Parquet file.
func WriteQueryLogParquet(data []QueryLogEntry, outputPath string) error {
	return writeParquet(data, outputPath)
}

// WriteBundleParquet writes one Parquet file per present section, named
// <prefix>.<section>.parquet, and returns the written paths.
func WriteBundleParquet(bundle *schema.DatasetBundle, prefix string) ([]string, error) {
	bySection := make(map[schema.ChartKind][]schema.FlatPoint)
	for _, p := range schema.Flatten(bundle) {
		bySection[p.Section] = append(bySection[p.Section], p)
	}
	var paths []string
	for _, kind := range schema.AllChartKinds {
		points, ok := bySection[kind]
		if !ok {
			continue
		}
		path := fmt.Sprintf("%s.%s.parquet", prefix, kind)
		if err := WriteChartPointsParquet(ConvertChartPoints(points), path); err != nil {
			return paths, fmt.Errorf("failed to write %s section: %w", kind, err)
		}
		paths = append(paths, path)
	}
	return paths, nil
}

// writeParquet writes rows of any tagged struct type to a Parquet file.
func writeParquet[T any](data []T, outputPath string) error {
	// Create the output file
	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer func() { _ = file.Close() }()

	// The schema is derived from the struct tags of T
	writer := parquet.NewGenericWriter[T](file)

	if _, err := writer.Write(data); err != nil {
		_ = writer.Close()
		return fmt.Errorf("failed to write data to parquet file: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to close parquet writer: %w", err)
	}
	return nil
}
