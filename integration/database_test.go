//go:build database

package integration

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/huangsam/recap/internal/iocache"
	"github.com/huangsam/recap/schema"
)

// TestRecapWithMySQL tests the recap CLI and stores with a MySQL backend.
func TestRecapWithMySQL(t *testing.T) {
	ctx := context.Background()

	// Start MySQL container
	req := testcontainers.ContainerRequest{
		Image:        "mysql:8",
		ExposedPorts: []string{"3306:3306/tcp"},
		Env: map[string]string{
			"MYSQL_ROOT_PASSWORD": "secret123",
			"MYSQL_DATABASE":      "recap",
		},
		WaitingFor: wait.ForLog("port: 3306  MySQL Community Server").WithStartupTimeout(30 * time.Second),
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

	connStr := fmt.Sprintf("root:secret123@tcp(%s:%s)/recap?parseTime=true", host, port.Port())

	// Set environment variables
	_ = os.Setenv("RECAP_CACHE_BACKEND", "mysql")
	_ = os.Setenv("RECAP_CACHE_DB_CONNECT", connStr)
	_ = os.Setenv("RECAP_LEDGER_BACKEND", "mysql")
	_ = os.Setenv("RECAP_LEDGER_DB_CONNECT", connStr)
	defer func() { _ = os.Unsetenv("RECAP_CACHE_BACKEND") }()
	defer func() { _ = os.Unsetenv("RECAP_CACHE_DB_CONNECT") }()
	defer func() { _ = os.Unsetenv("RECAP_LEDGER_BACKEND") }()
	defer func() { _ = os.Unsetenv("RECAP_LEDGER_DB_CONNECT") }()

	// Run recap cache clear
	err = runRecapCommand(t, "cache", "clear")
	require.NoError(t, err)

	// Run recap ledger clear
	err = runRecapCommand(t, "ledger", "clear")
	require.NoError(t, err)

	// Run recap ledger migrate (latest schema)
	err = runRecapCommand(t, "ledger", "migrate")
	require.NoError(t, err)

	// Run recap cache status
	err = runRecapCommand(t, "cache", "status")
	require.NoError(t, err)

	// Run recap ledger status
	err = runRecapCommand(t, "ledger", "status")
	require.NoError(t, err)

	// Exercise the store SQL directly against the same database
	verifyCacheStore(t, schema.MySQLBackend, connStr)
	verifyLedgerStore(t, schema.MySQLBackend, connStr)
}

// TestRecapWithPostgres tests the recap CLI and stores with a PostgreSQL backend.
func TestRecapWithPostgres(t *testing.T) {
	ctx := context.Background()

	// Start Postgres container
	req := testcontainers.ContainerRequest{
		Image:        "postgres:18-alpine",
		ExposedPorts: []string{"5432:5432/tcp"},
		Env: map[string]string{
			"POSTGRES_HOST_AUTH_METHOD": "trust",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").WithStartupTimeout(30 * time.Second),
	}
	pgC, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)
	defer func() { _ = pgC.Terminate(ctx) }()
	time.Sleep(5 * time.Second)

	// Get connection details
	host, err := pgC.Host(ctx)
	require.NoError(t, err)
	port, err := pgC.MappedPort(ctx, "5432")
	require.NoError(t, err)

	connStr := fmt.Sprintf("host=%s port=%s user=postgres dbname=postgres", host, port.Port())

	// Set environment variables
	_ = os.Setenv("RECAP_CACHE_BACKEND", "postgresql")
	_ = os.Setenv("RECAP_CACHE_DB_CONNECT", connStr)
	_ = os.Setenv("RECAP_LEDGER_BACKEND", "postgresql")
	_ = os.Setenv("RECAP_LEDGER_DB_CONNECT", connStr)
	defer func() { _ = os.Unsetenv("RECAP_CACHE_BACKEND") }()
	defer func() { _ = os.Unsetenv("RECAP_CACHE_DB_CONNECT") }()
	defer func() { _ = os.Unsetenv("RECAP_LEDGER_BACKEND") }()
	defer func() { _ = os.Unsetenv("RECAP_LEDGER_DB_CONNECT") }()

	// Run recap cache clear
	err = runRecapCommand(t, "cache", "clear")
	require.NoError(t, err)

	// Run recap ledger clear
	err = runRecapCommand(t, "ledger", "clear")
	require.NoError(t, err)

	// Run recap ledger migrate (latest schema)
	err = runRecapCommand(t, "ledger", "migrate")
	require.NoError(t, err)

	// Run recap cache status
	err = runRecapCommand(t, "cache", "status")
	require.NoError(t, err)

	// Run recap ledger status
	err = runRecapCommand(t, "ledger", "status")
	require.NoError(t, err)

	// Exercise the store SQL directly against the same database
	verifyCacheStore(t, schema.PostgreSQLBackend, connStr)
	verifyLedgerStore(t, schema.PostgreSQLBackend, connStr)
}

// verifyCacheStore round-trips one fetch cache entry through the backend.
func verifyCacheStore(t *testing.T, backend schema.DatabaseBackend, connStr string) {
	store, err := iocache.NewCacheStore("fetch_cache", backend, connStr)
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	ts := time.Now().Unix()
	require.NoError(t, store.Set("integration:alice", []byte(`{"records":[]}`), 1, ts))

	value, version, storedTs, err := store.Get("integration:alice")
	require.NoError(t, err)
	assert.Equal(t, []byte(`{"records":[]}`), value)
	assert.Equal(t, 1, version)
	assert.Equal(t, ts, storedTs)

	// Upsert replaces rather than duplicates
	require.NoError(t, store.Set("integration:alice", []byte(`{"records":[{}]}`), 2, ts+1))
	value, version, _, err = store.Get("integration:alice")
	require.NoError(t, err)
	assert.Equal(t, []byte(`{"records":[{}]}`), value)
	assert.Equal(t, 2, version)

	status, err := store.GetStatus()
	require.NoError(t, err)
	assert.True(t, status.Connected)
	assert.Equal(t, 1, status.TotalEntries)
}

// verifyLedgerStore records one full run against the backend and reads it back.
func verifyLedgerStore(t *testing.T, backend schema.DatabaseBackend, connStr string) {
	store, err := iocache.NewLedgerStore(backend, connStr)
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	window := schema.ReportingWindow{
		Start: time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2024, time.April, 1, 0, 0, 0, 0, time.UTC),
	}
	start := time.Now()

	runID, err := store.BeginRun(start, window, map[string]any{"actors": 1, "sources": "github"})
	require.NoError(t, err)
	assert.Greater(t, runID, int64(0))

	rec := schema.RunRecord{
		WindowStart: window.Start,
		WindowEnd:   window.End,
		Actor:       "alice",
		Source:      "github",
		Status:      "ok",
		Records:     7,
		Requests:    2,
		DurationMs:  640,
	}
	require.NoError(t, store.RecordFetch(runID, rec))
	require.NoError(t, store.EndRun(runID, start.Add(time.Second), 7))

	status, err := store.GetStatus()
	require.NoError(t, err)
	assert.True(t, status.Connected)
	assert.GreaterOrEqual(t, status.TotalRuns, 1)
	assert.Equal(t, runID, status.LastRunID)

	runs, err := store.GetAllRuns()
	require.NoError(t, err)
	require.NotEmpty(t, runs)

	records, err := store.GetAllRecords()
	require.NoError(t, err)
	require.NotEmpty(t, records)
	assert.Equal(t, "alice", records[len(records)-1].Actor)
}

func runRecapCommand(t *testing.T, args ...string) error {
	recapPath := getRecapBinary()
	cmd := exec.Command(recapPath, args...)
	cmd.Dir = "../" // Run from project root
	output, err := cmd.CombinedOutput()
	if err != nil {
		t.Logf("Command failed: %s\nOutput: %s", cmd.String(), string(output))
		return err
	}
	return nil
}
