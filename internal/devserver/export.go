package devserver

import (
	"bytes"
	"strings"

	"github.com/huangsam/climdash/internal/outwriter"
	"github.com/huangsam/climdash/schema"
)

// Export serializes a bundle in json, csv or yaml.
func Export(bundle *schema.DatasetBundle, format string) (string, error) {
	var buf bytes.Buffer
	if err := outwriter.WriteBundle(&buf, bundle, schema.OutputMode(strings.ToLower(format))); err != nil {
		return "", err
	}
	return buf.String(), nil
}
