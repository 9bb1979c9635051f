package cmd

import (
	"bytes"
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/huangsam/climdash/core"
	"github.com/huangsam/climdash/internal/contract"
	"github.com/huangsam/climdash/internal/devserver"
	"github.com/huangsam/climdash/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupDashboard points cfg at an in-process backend with stores disabled.
func setupDashboard(t *testing.T) *dashboard {
	t.Helper()
	srv := httptest.NewServer(devserver.New().Router())
	t.Cleanup(srv.Close)

	prev := *cfg
	*cfg = contract.Config{
		APIURL:           srv.URL,
		Timeout:          5 * time.Second,
		RetryAttempts:    1,
		RetryDelay:       time.Millisecond,
		NoticeDuration:   time.Second,
		Output:           schema.TextOut,
		Width:            120,
		WorkspaceBackend: schema.NoneBackend,
		QueryLogBackend:  schema.NoneBackend,
	}
	t.Cleanup(func() { *cfg = prev })

	d, err := openDashboard(true)
	require.NoError(t, err)
	t.Cleanup(d.Close)
	return d
}

func TestEnsureRenderedBootstrapsWithoutWorkspace(t *testing.T) {
	d := setupDashboard(t)
	assert.False(t, d.anyRendered())

	require.NoError(t, d.ensureRendered(context.Background()))
	assert.True(t, d.anyRendered())
	for _, st := range d.ctrl.Registry().Status() {
		assert.True(t, st.Rendered, "chart %s", st.Kind)
	}
}

func TestRunShell(t *testing.T) {
	d := setupDashboard(t)
	ctx := context.Background()
	require.NoError(t, d.ensureRendered(ctx))

	script := strings.Join([]string{
		"help",
		"",
		"status",
		"scenario pessimistic",
		"sensitivity abc",
		"query what drives gdp impact",
		"query",
		"bogus",
		"quit",
		"reset",
	}, "\n")

	var out bytes.Buffer
	require.NoError(t, runShell(ctx, d, strings.NewReader(script), &out, false))

	got := out.String()
	assert.Contains(t, got, "Commands:")
	assert.Contains(t, got, "temperature")
	assert.Contains(t, got, "error: usage: sensitivity <integer>")
	assert.Contains(t, got, devserver.Answer("what drives gdp impact"))
	assert.Contains(t, got, core.ErrEmptyQuery.Error())
	assert.Contains(t, got, `error: unknown command "bogus", try help`)
	assert.NotContains(t, got, "climdash> ")

	domain, err := d.ctrl.Registry().ReadBack(schema.ScenarioChart)
	require.NoError(t, err)
	set, ok := domain.(*schema.ScenarioSet)
	require.True(t, ok)
	assert.Equal(t, []string{schema.BaselineScenario, schema.PessimisticScenario}, set.Keys())

	// Lines after quit are never run.
	assert.True(t, d.anyRendered())
}

func TestRunShellEndsAtEOF(t *testing.T) {
	d := setupDashboard(t)

	var out bytes.Buffer
	require.NoError(t, runShell(context.Background(), d, strings.NewReader("show"), &out, true))
	assert.True(t, strings.HasPrefix(out.String(), "climdash> "))
	assert.Contains(t, out.String(), "No charts rendered.")
}

func TestResultMarksReportedFailures(t *testing.T) {
	d := setupDashboard(t)
	assert.NoError(t, d.result(nil))

	_, err := d.ctrl.Query(context.Background(), "  ")
	require.ErrorIs(t, err, core.ErrEmptyQuery)

	wrapped := d.result(err)
	assert.ErrorIs(t, wrapped, ErrReported)
	assert.ErrorIs(t, wrapped, core.ErrEmptyQuery)
}
