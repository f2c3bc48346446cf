// Package repositories implements the SQLite run ledger.
//
// Every download, upload and export run is stored in the runs table with its totals, and each
// emoji it touched is stored in run_items with the stage, outcome and number of attempts.
//
// Key Implementations:
//   - [RunRepository] : Run persistence, newest-first listing and prefix lookups
//   - [RunItemRepository] : Per-emoji outcomes for a run
//   - [Ledger] : Combines both to record a migration while it happens
//
// Records get UUIDs from [shared.GenerateID]. A run can be looked up by any unique prefix of
// its ID so the CLI can print short IDs.
package repositories
