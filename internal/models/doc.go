// Package models defines the domain entities for the emoji migration tool.
//
// The package contains two categories of types:
//
// 1. Migration data: values that flow between the pipeline stages
//   - [Catalog] : name → image URL mapping of a workspace's custom emoji, aliases removed
//   - [LocalAsset] : an image file on disk that is a candidate for upload
//
// 2. Ledger entities: records of past runs kept in SQLite
//   - [Run] : one download, upload or export invocation with aggregate counts
//   - [RunItem] : the outcome of a single emoji within a run
//
// Ledger entities implement [Model]; the [Repository] interface describes their persistence.
package models
