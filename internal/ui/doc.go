// Package ui implements an interactive terminal interface using bubbletea's Elm architecture.
//
// The TUI provides a multi-view workflow for emoji migration:
//  1. [LoadingView] : Fetch the source catalog
//  2. [CatalogView] : Browse and filter the custom emoji
//  3. [ConfirmView] : Confirm the download and upload
//  4. [MigrateView] : Monitor real-time progress updates
//  5. [ResultView] : Display totals and failed emoji
//
// The (view) [Model] implements bubbletea/Elm's standard Init/Update/View pattern, receiving messages via the Msg union type.
// Progress updates flow through a channel from the tasks.Engine, providing non-blocking status reporting during migration.
//
// Keyboard navigation uses vim-style bindings (j/k, enter, esc, y/n, q) with contextual help displayed via charmbracelet/bubbles/help.
package ui
