package ui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/emx/internal/models"
	"github.com/desertthunder/emx/internal/tasks"
)

// MsgKind enumerates all message types in the application.
type MsgKind int

// Msg represents all possible messages in the TUI (Elm-style message union).
type Msg struct {
	kind MsgKind
	data any
}

var (
	_ tea.Msg = Msg{}
)

const (
	MsgCatalogFetched MsgKind = iota
	MsgProgressUpdate
	MsgMigrateComplete
)

type catalogFetched struct {
	catalog models.Catalog
	err     error
}

// migrateResult carries the reports of the download and upload steps.
type migrateResult struct {
	download *tasks.FetchReport
	upload   *tasks.PublishReport
	err      error
}

// catalogFetchedMsg is the constructor for [MsgCatalogFetched]
func catalogFetchedMsg(catalog models.Catalog, err error) Msg {
	return Msg{kind: MsgCatalogFetched, data: catalogFetched{catalog, err}}
}

// progressUpdateMsg is the constructor for [MsgProgressUpdate]
func progressUpdateMsg(update tasks.ProgressUpdate) Msg {
	return Msg{kind: MsgProgressUpdate, data: update}
}

// migrateCompleteMsg is the constructor for [MsgMigrateComplete]
func migrateCompleteMsg(res migrateResult) Msg {
	return Msg{kind: MsgMigrateComplete, data: res}
}
