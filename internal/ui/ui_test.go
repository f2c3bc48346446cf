package ui

import (
	"context"
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/emx/internal/models"
	"github.com/desertthunder/emx/internal/tasks"
)

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func newTestModel() *Model {
	m := NewModel(context.Background(), tasks.NewEngine(tasks.EngineOpts{}), Options{
		ListPath:    "emoji_list.json",
		OutputDir:   "emoji_downloads",
		Destination: "acme",
	})
	m.Update(tea.WindowSizeMsg{Width: 100, Height: 40})
	return m
}

func TestModel_Navigation(t *testing.T) {
	m := newTestModel()
	if m.view != LoadingView {
		t.Fatalf("initial view = %v, want LoadingView", m.view)
	}

	catalog := models.Catalog{"smile": "https://e/1.png", "wave": "https://e/2.gif"}
	m.Update(catalogFetchedMsg(catalog, nil))

	if m.view != CatalogView {
		t.Fatalf("view = %v, want CatalogView", m.view)
	}
	if got := len(m.catalogList.Items()); got != 2 {
		t.Errorf("list has %d items, want 2", got)
	}
	if !strings.Contains(m.View(), "Custom emoji (2)") {
		t.Errorf("catalog view missing title:\n%s", m.View())
	}

	m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if m.view != ConfirmView {
		t.Fatalf("view = %v, want ConfirmView", m.view)
	}
	if !strings.Contains(m.View(), "Migrate 2 emoji to acme?") {
		t.Errorf("confirm view = %s", m.View())
	}

	m.Update(runes("n"))
	if m.view != CatalogView {
		t.Errorf("view = %v, want CatalogView after declining", m.view)
	}
}

func TestModel_EmptyCatalogCannotMigrate(t *testing.T) {
	m := newTestModel()
	m.Update(catalogFetchedMsg(models.Catalog{}, nil))
	m.Update(tea.KeyMsg{Type: tea.KeyEnter})

	if m.view != CatalogView {
		t.Errorf("view = %v, want CatalogView", m.view)
	}
}

func TestModel_FetchError(t *testing.T) {
	m := newTestModel()
	m.Update(catalogFetchedMsg(nil, errors.New("invalid_auth")))

	if !strings.Contains(m.View(), "Error: invalid_auth") {
		t.Errorf("view = %s", m.View())
	}
	if m.Err() == nil {
		t.Error("Err() should report the fetch error")
	}

	_, cmd := m.Update(runes("x"))
	if cmd == nil {
		t.Error("any key should quit after an error")
	}
}

func TestModel_Progress(t *testing.T) {
	m := newTestModel()
	m.view = MigrateView

	for _, u := range []tasks.ProgressUpdate{
		{Phase: tasks.UploadAssets, Step: 0, Total: 2, Name: "smile", Message: "Uploading smile..."},
		{Phase: tasks.UploadAssets, Step: 1, Total: 2, Name: "smile", Completed: true},
		{Phase: tasks.UploadAssets, Step: 2, Total: 2, Name: "wave", Completed: true, Failed: true},
	} {
		m.Update(progressUpdateMsg(u))
	}

	if len(m.recent) != 2 {
		t.Errorf("recent = %d lines, want 2", len(m.recent))
	}
	view := m.View()
	if !strings.Contains(view, "Uploading (2/2)") {
		t.Errorf("migrate view = %s", view)
	}
	if !strings.Contains(view, "upload wave") {
		t.Errorf("migrate view missing item line: %s", view)
	}
}

func TestModel_Result(t *testing.T) {
	m := newTestModel()
	m.view = MigrateView

	m.Update(migrateCompleteMsg(migrateResult{
		download: &tasks.FetchReport{Total: 2, Assets: make([]models.LocalAsset, 2)},
		upload: &tasks.PublishReport{
			Succeeded: 1,
			Failed:    1,
			Outcomes: []tasks.PublishOutcome{
				{Name: "smile", State: tasks.Success},
				{Name: "wave", State: tasks.FatalError, Err: errors.New("error_name_taken")},
			},
		},
	}))

	if m.view != ResultView {
		t.Fatalf("view = %v, want ResultView", m.view)
	}
	view := m.View()
	for _, want := range []string{"Migration complete", "Downloaded: 2/2", "Uploaded: 1, failed: 1", "wave: error_name_taken"} {
		if !strings.Contains(view, want) {
			t.Errorf("result view missing %q:\n%s", want, view)
		}
	}
	if m.Err() != nil {
		t.Errorf("Err() = %v", m.Err())
	}
}

func TestEmojiItem(t *testing.T) {
	items := catalogItems(models.Catalog{"b": "https://e/b", "a": "https://e/a.gif"})
	first := items[0].(emojiItem)

	if first.Title() != ":a:" {
		t.Errorf("Title() = %s", first.Title())
	}
	if first.FilterValue() != "a" {
		t.Errorf("FilterValue() = %s", first.FilterValue())
	}
	if !strings.HasPrefix(items[1].(emojiItem).Description(), ".png") {
		t.Errorf("Description() = %s", items[1].(emojiItem).Description())
	}
}
