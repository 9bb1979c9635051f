package core

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/huangsam/climdash/schema"
)

// ImportFile decodes a .json or .csv file and submits it for processing.
// Other extensions fail before anything is read.
func (c *Controller) ImportFile(ctx context.Context, name string, r io.Reader) error {
	return c.run(ctx, ImportAction, func(ctx context.Context) error {
		raw, err := DecodeImport(name, r)
		if err != nil {
			return c.fail(err)
		}
		return c.submit(ctx, ImportAction, raw)
	})
}

// DecodeImport turns file content into the value sent to the backend:
// any JSON value for .json, header-keyed rows for .csv.
func DecodeImport(name string, r io.Reader) (any, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".json":
		var v any
		dec := json.NewDecoder(r)
		if err := dec.Decode(&v); err != nil {
			return nil, fmt.Errorf("%w: %s: %w", schema.ErrParse, name, err)
		}
		// The file must hold exactly one JSON value.
		if err := dec.Decode(new(json.RawMessage)); !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: %s: unexpected content after the JSON value", schema.ErrParse, name)
		}
		return v, nil
	case ".csv":
		rows, err := ParseCSV(r)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		return rows, nil
	}
	return nil, fmt.Errorf("%w: %q (use .json or .csv)", schema.ErrUnsupportedFormat, name)
}

// ParseCSV reads a header row and keys every following row by it. Headers and
// cells are trimmed and kept as strings. Rows whose cell count differs from
// the header are skipped.
func ParseCSV(r io.Reader) ([]map[string]string, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: csv has no header row", schema.ErrParse)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", schema.ErrParse, err)
	}
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}

	rows := []map[string]string{}
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %w", schema.ErrParse, err)
		}
		if len(record) != len(header) {
			continue
		}
		row := make(map[string]string, len(header))
		for i, h := range header {
			row[h] = strings.TrimSpace(record[i])
		}
		rows = append(rows, row)
	}
	return rows, nil
}
