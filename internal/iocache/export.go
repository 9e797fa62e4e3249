package iocache

import (
	"errors"
	"fmt"

	"github.com/huangsam/recap/internal/parquet"
)

// ExecuteLedgerExport performs the actual export of run ledger data to Parquet files.
func ExecuteLedgerExport(outputFile string) error {
	// Validate that output file is specified
	if outputFile == "" {
		return errors.New("--output-file is required for export command")
	}

	// Get the ledger store
	store := Manager.GetLedgerStore()
	if store == nil {
		return errors.New("run ledger is not configured. Set --ledger-backend to enable tracking")
	}

	// Check if there's any data to export
	status, err := store.GetStatus()
	if err != nil {
		return fmt.Errorf("failed to get ledger status: %w", err)
	}

	if status.TotalRuns == 0 {
		return errors.New("no run data found to export")
	}

	fmt.Printf("Exporting data from %s backend...\n", status.Backend)
	fmt.Printf("Total runs: %d\n", status.TotalRuns)
	fmt.Printf("Total fetch records: %d\n", status.TableSizes[runLedgerTable])

	// Retrieve all runs
	runs, err := store.GetAllRuns()
	if err != nil {
		return fmt.Errorf("failed to retrieve runs: %w", err)
	}

	// Retrieve all fetch telemetry records
	fetchRecords, err := store.GetAllRecords()
	if err != nil {
		return fmt.Errorf("failed to retrieve fetch records: %w", err)
	}

	// Convert to Parquet format
	parquetRuns := parquet.ConvertRunSummaries(runs)
	parquetFetches := parquet.ConvertRunRecords(fetchRecords)

	// Write runs to Parquet
	runsFile := outputFile + ".runs.parquet"
	if err := parquet.WriteRunsParquet(parquetRuns, runsFile); err != nil {
		return fmt.Errorf("failed to write runs: %w", err)
	}
	fmt.Printf("Exported %d runs to: %s\n", len(parquetRuns), runsFile)

	// Write fetch records to Parquet
	fetchesFile := outputFile + ".run_ledger.parquet"
	if err := parquet.WriteFetchRecordsParquet(parquetFetches, fetchesFile); err != nil {
		return fmt.Errorf("failed to write fetch records: %w", err)
	}
	fmt.Printf("Exported %d fetch records to: %s\n", len(parquetFetches), fetchesFile)

	fmt.Println("\nExport complete! The Parquet files can be used with:")
	fmt.Println("  - Apache Spark")
	fmt.Println("  - Apache Arrow")
	fmt.Println("  - Pandas (via pyarrow)")
	fmt.Println("  - DuckDB")
	fmt.Println("  - Any other Parquet-compatible tool")

	return nil
}
