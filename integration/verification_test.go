//go:build integration

// Package integration contains integration tests for climdash.
// These tests are excluded from normal test runs due to build tags.
// To run these tests: go test -tags integration ./integration
package integration

import (
	"encoding/json"
	"testing"

	"github.com/huangsam/climdash/internal/devserver"
	"github.com/huangsam/climdash/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// noStores keeps integration runs from touching the home directory.
var noStores = []string{"--workspace-backend", "none", "--querylog-backend", "none"}

// TestDashboardVerification renders the default dataset and verifies every
// value read back from the charts against the backend models.
func TestDashboardVerification(t *testing.T) {
	apiURL := startBackend(t)

	args := append([]string{"dashboard", "--fresh", "--output", "json", "--api-url", apiURL}, noStores...)
	out, err := runClimdash(t, t.TempDir(), args...)
	require.NoError(t, err)

	var got schema.DatasetBundle
	require.NoError(t, json.Unmarshal([]byte(out), &got))

	verifyBundle(t, devserver.Process(nil, false), &got)
}

// TestScenarioVerification changes the scenario on a fresh dashboard and
// verifies the scenario chart against the backend model.
func TestScenarioVerification(t *testing.T) {
	apiURL := startBackend(t)

	args := append([]string{"scenario", "pessimistic", "--output", "json", "--api-url", apiURL}, noStores...)
	out, err := runClimdash(t, t.TempDir(), args...)
	require.NoError(t, err)

	var got schema.DatasetBundle
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	require.NotNil(t, got.ScenarioData)

	want, err := devserver.Scenarios(devserver.DefaultTemperature(), schema.PessimisticScenario)
	require.NoError(t, err)
	assert.Equal(t, want.Keys(), got.ScenarioData.Keys())
}

// verifyBundle compares two bundles value by value.
func verifyBundle(t *testing.T, want, got *schema.DatasetBundle) {
	t.Helper()
	wantPoints := schema.Flatten(want)
	gotPoints := schema.Flatten(got)
	require.Len(t, gotPoints, len(wantPoints))

	for i, w := range wantPoints {
		g := gotPoints[i]
		t.Run(string(w.Section)+"/"+w.Series+"/"+w.Label, func(t *testing.T) {
			assert.Equal(t, w.Section, g.Section)
			assert.Equal(t, w.Series, g.Series)
			assert.Equal(t, w.Label, g.Label)
			assert.InDelta(t, w.Value, g.Value, 1e-9)
		})
	}
}
