package iocache

import (
	"database/sql"
	"fmt"
	"os"
	"sync"

	"github.com/huangsam/recap/internal/contract"
	"github.com/huangsam/recap/schema"
)

// fetchCacheTable is the name of the table for fetch caching.
const fetchCacheTable = "fetch_cache"

// Global Manager instance for main logic.
var (
	Manager   = &CacheStoreManager{}
	initOnce  sync.Once
	closeOnce sync.Once
)

// GetDBFilePath returns the path to the SQLite DB file for cache storage.
func GetDBFilePath() string {
	return contract.GetCacheDBFilePath()
}

// GetLedgerDBFilePath returns the path to the SQLite DB file for ledger storage.
func GetLedgerDBFilePath() string {
	return contract.GetLedgerDBFilePath()
}

// InitCaching initializes the global cache manager with separate fetch and ledger stores.
// cacheBackend and cacheConnStr can be empty to disable fetch caching.
// ledgerBackend and ledgerConnStr can be empty to disable run tracking.
func InitCaching(cacheBackend schema.DatabaseBackend, cacheConnStr string, ledgerBackend schema.DatabaseBackend, ledgerConnStr string) error {
	var initErr error

	initOnce.Do(func() {
		// This function body runs exactly once, even with concurrent calls.
		var err error

		// Initialize fetch cache store only if backend is configured
		var fetchStore contract.CacheStore
		if cacheBackend != "" {
			fetchStore, err = NewCacheStore(fetchCacheTable, cacheBackend, cacheConnStr)
			if err != nil {
				initErr = fmt.Errorf("failed to initialize fetch caching: %w", err)
				return
			}
		}

		// Initialize run ledger store only if backend is configured
		var ledgerStore contract.LedgerStore
		if ledgerBackend != "" {
			ledgerStore, err = NewLedgerStore(ledgerBackend, ledgerConnStr)
			if err != nil {
				if fetchStore != nil {
					_ = fetchStore.Close()
				}
				initErr = fmt.Errorf("failed to initialize run ledger: %w", err)
				return
			}
		}

		// Assign to global manager
		Manager.fetch = fetchStore
		Manager.ledger = ledgerStore
	})

	// After once.Do, initErr will contain any error from the initialization block.
	return initErr
}

// CloseCaching should be called on application shutdown.
func CloseCaching() { // called in main defer
	closeOnce.Do(func() {
		Manager.Lock()
		defer Manager.Unlock()
		if Manager.fetch != nil {
			_ = Manager.fetch.Close()
		}
		if Manager.ledger != nil {
			_ = Manager.ledger.Close()
		}
	})
}

// ClearCache clears the fetch cache for the specified backend.
// For SQLite, it deletes the database file.
// For SQL backends (MySQL/PostgreSQL), it drops the table.
// For NoneBackend, it does nothing.
func ClearCache(backend schema.DatabaseBackend, dbFilePath, connStr string) error {
	switch backend {
	case schema.SQLiteBackend:
		if dbFilePath == "" {
			return fmt.Errorf("dbFilePath cannot be empty for SQLite backend")
		}
		// Remove the file; ignore if it doesn't exist
		if err := os.Remove(dbFilePath); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to remove SQLite database file %s: %w", dbFilePath, err)
		}
		return nil

	case schema.MySQLBackend:
		return clearSQLTable("mysql", connStr, fetchCacheTable)

	case schema.PostgreSQLBackend:
		return clearSQLTable("pgx", connStr, fetchCacheTable)

	case schema.NoneBackend:
		return nil

	default:
		return fmt.Errorf("unsupported cache backend for clearing: %s", backend)
	}
}

// ClearLedger clears the run ledger for the specified backend.
// For SQLite, it deletes the database file.
// For SQL backends (MySQL/PostgreSQL), it drops the ledger tables along with
// the migration version table so a later migrate reapplies from scratch.
// For NoneBackend, it does nothing.
func ClearLedger(backend schema.DatabaseBackend, dbFilePath, connStr string) error {
	switch backend {
	case schema.SQLiteBackend:
		if dbFilePath == "" {
			return fmt.Errorf("dbFilePath cannot be empty for SQLite backend")
		}
		// Remove the file; ignore if it doesn't exist
		if err := os.Remove(dbFilePath); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to remove SQLite database file %s: %w", dbFilePath, err)
		}
		return nil

	case schema.MySQLBackend:
		tables := []string{runLedgerTable, recapRunsTable, migrationsVersionTable}
		for _, table := range tables {
			if err := clearSQLTable("mysql", connStr, table); err != nil {
				return err
			}
		}
		return nil

	case schema.PostgreSQLBackend:
		tables := []string{runLedgerTable, recapRunsTable, migrationsVersionTable}
		for _, table := range tables {
			if err := clearSQLTable("pgx", connStr, table); err != nil {
				return err
			}
		}
		return nil

	case schema.NoneBackend:
		return nil

	default:
		return fmt.Errorf("unsupported ledger backend for clearing: %s", backend)
	}
}

// clearSQLTable connects to the SQL database and drops the table if it exists.
func clearSQLTable(driverName, connStr, tableName string) error {
	db, err := sql.Open(driverName, connStr)
	if err != nil {
		return fmt.Errorf("failed to connect to %s database: %w", driverName, err)
	}
	defer func() { _ = db.Close() }()

	if err := db.Ping(); err != nil {
		return fmt.Errorf("failed to ping %s database: %w", driverName, err)
	}

	query := fmt.Sprintf("DROP TABLE IF EXISTS %s", tableName)
	if _, err := db.Exec(query); err != nil {
		return fmt.Errorf("failed to drop table %s: %w", tableName, err)
	}

	return nil
}
