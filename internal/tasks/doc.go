// Package tasks moves custom emoji from one Slack workspace to another with real-time progress reporting.
//
// # Core Operations
//
// [Engine] exposes the four migration steps:
//
//  1. [Engine.List] : Fetch the source catalog
//     - Calls emoji.list through a [services.Directory]
//     - Drops alias entries
//     - Writes the catalog as indented JSON
//
//  2. [Engine.Download] : Save every catalog image locally
//     - Loads the list file, or lists first when it is missing
//     - Downloads with a bounded worker pool ([Fetcher])
//     - Skips failed entries and keeps going
//
//  3. [Engine.Upload] : Publish a directory of images
//     - Scans for .png, .jpg, .jpeg and .gif files
//     - Uploads one at a time ([Publisher]) with paced, jittered gaps
//     - Retries rate limits and transient errors with exponential backoff
//
//  4. [Engine.Export] : List, download and upload in one go
//
// # Progress Reporting
//
// All operations accept an optional channel of [ProgressUpdate] values. Sends never block:
// a full channel drops the update.
//
// # Run History
//
// The optional [Ledger] interface records every run and per-emoji outcome.
// Ledger errors are logged as warnings and never interrupt a migration.
//
// # Retry State Machine
//
// [Publisher.PublishOne] moves each emoji through [AttemptState] values:
//
//	Attempting → Success
//	Attempting → RateLimited | TransientError → (backoff) → Attempting
//	Attempting → FatalError
//
// HTTP 429 or a "ratelimited" error code is RateLimited. Any other non-200 status or
// transport failure is TransientError. An API error on HTTP 200 is FatalError at once,
// as is running out of attempts.
package tasks
