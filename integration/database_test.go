//go:build database

package integration

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// TestClimdashWithMySQL tests the climdash CLI with a MySQL backend.
func TestClimdashWithMySQL(t *testing.T) {
	ctx := context.Background()

	// Start MySQL container
	req := testcontainers.ContainerRequest{
		Image:        "mysql:8",
		ExposedPorts: []string{"3306/tcp"},
		Env: map[string]string{
			"MYSQL_ROOT_PASSWORD": "secret123",
			"MYSQL_DATABASE":      "climdash",
		},
		WaitingFor: wait.ForLog("port: 3306  MySQL Community Server").WithStartupTimeout(60 * time.Second),
	}
	mysqlC, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)
	defer func() { _ = mysqlC.Terminate(ctx) }()

	// Get connection details
	host, err := mysqlC.Host(ctx)
	require.NoError(t, err)
	port, err := mysqlC.MappedPort(ctx, "3306")
	require.NoError(t, err)

	connStr := fmt.Sprintf("root:secret123@tcp(%s:%s)/climdash?parseTime=true", host, port.Port())
	runStoreScenario(t, "mysql", connStr)
}

// TestClimdashWithPostgres tests the climdash CLI with a PostgreSQL backend.
func TestClimdashWithPostgres(t *testing.T) {
	ctx := context.Background()

	// Start Postgres container
	req := testcontainers.ContainerRequest{
		Image:        "postgres:18-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_HOST_AUTH_METHOD": "trust",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	}
	pgC, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)
	defer func() { _ = pgC.Terminate(ctx) }()

	// Get connection details
	host, err := pgC.Host(ctx)
	require.NoError(t, err)
	port, err := pgC.MappedPort(ctx, "5432")
	require.NoError(t, err)

	connStr := fmt.Sprintf("host=%s port=%s user=postgres dbname=postgres sslmode=disable", host, port.Port())
	runStoreScenario(t, "postgresql", connStr)
}

// runStoreScenario drives the CLI through a session whose workspace and query
// log live in the given database.
func runStoreScenario(t *testing.T, backend, connStr string) {
	t.Setenv("CLIMDASH_WORKSPACE_BACKEND", backend)
	t.Setenv("CLIMDASH_WORKSPACE_DB_CONNECT", connStr)
	t.Setenv("CLIMDASH_QUERYLOG_BACKEND", backend)
	t.Setenv("CLIMDASH_QUERYLOG_DB_CONNECT", connStr)
	t.Setenv("CLIMDASH_API_URL", startBackend(t))

	dir := t.TempDir()

	_, err := runClimdash(t, dir, "store", "clear")
	require.NoError(t, err)

	_, err = runClimdash(t, dir, "store", "migrate")
	require.NoError(t, err)

	_, err = runClimdash(t, dir, "dashboard", "--fresh", "--output", "json")
	require.NoError(t, err)

	_, err = runClimdash(t, dir, "scenario", "pessimistic", "--output", "json")
	require.NoError(t, err)

	_, err = runClimdash(t, dir, "query", "what", "drives", "gdp", "impact")
	require.NoError(t, err)

	history, err := runClimdash(t, dir, "query", "--history", "--output", "json")
	require.NoError(t, err)
	assert.Contains(t, history, "what drives gdp impact")

	status, err := runClimdash(t, dir, "store", "status")
	require.NoError(t, err)
	assert.Contains(t, status, backend)
}
