package repositories

import (
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/desertthunder/emx/internal/models"
	"github.com/desertthunder/emx/internal/shared"
)

// setupTestDB creates an in-memory SQLite database with migrations applied
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := shared.OpenLedger(shared.DatabaseConfig{Enabled: true, Path: ":memory:"})
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestRunRepository(t *testing.T) {
	t.Run("Create and Get", func(t *testing.T) {
		repo := NewRunRepository(setupTestDB(t))
		run := models.NewRun(models.RunKindUpload, "emoji_downloads", "acme")

		if err := repo.Create(run); err != nil {
			t.Fatalf("failed to create run: %v", err)
		}
		if run.ID == "" {
			t.Fatal("run ID should be set after creation")
		}

		got, err := repo.Get(run.ID)
		if err != nil {
			t.Fatalf("failed to get run: %v", err)
		}
		if got.Kind != models.RunKindUpload || got.Status != models.RunStatusRunning {
			t.Errorf("got kind=%s status=%s", got.Kind, got.Status)
		}
		if got.Source != "emoji_downloads" || got.Destination != "acme" {
			t.Errorf("got source=%s destination=%s", got.Source, got.Destination)
		}
		if got.CompletedAt != nil {
			t.Error("running run should have no completion time")
		}
	})

	t.Run("Create rejects invalid run", func(t *testing.T) {
		repo := NewRunRepository(setupTestDB(t))
		if err := repo.Create(&models.Run{Kind: "bogus"}); err == nil {
			t.Error("expected validation error")
		}
	})

	t.Run("Update", func(t *testing.T) {
		repo := NewRunRepository(setupTestDB(t))
		run := models.NewRun(models.RunKindDownload, "emoji_list.json", "emoji_downloads")
		if err := repo.Create(run); err != nil {
			t.Fatalf("failed to create run: %v", err)
		}

		run.Complete(10, 8, 2, nil)
		if err := repo.Update(run); err != nil {
			t.Fatalf("failed to update run: %v", err)
		}

		got, err := repo.Get(run.ID)
		if err != nil {
			t.Fatalf("failed to get run: %v", err)
		}
		if got.Status != models.RunStatusCompleted || got.Total != 10 || got.Succeeded != 8 || got.Failed != 2 {
			t.Errorf("got %+v", got)
		}
		if got.CompletedAt == nil {
			t.Error("completion time should be stored")
		}
	})

	t.Run("Update failed run keeps message", func(t *testing.T) {
		repo := NewRunRepository(setupTestDB(t))
		run := models.NewRun(models.RunKindExport, "", "")
		if err := repo.Create(run); err != nil {
			t.Fatalf("failed to create run: %v", err)
		}

		run.Complete(0, 0, 0, errors.New("context canceled"))
		if err := repo.Update(run); err != nil {
			t.Fatalf("failed to update run: %v", err)
		}

		got, _ := repo.Get(run.ID)
		if got.Status != models.RunStatusFailed || got.ErrorMessage != "context canceled" {
			t.Errorf("got status=%s message=%q", got.Status, got.ErrorMessage)
		}
	})

	t.Run("Update missing run", func(t *testing.T) {
		repo := NewRunRepository(setupTestDB(t))
		run := models.NewRun(models.RunKindUpload, "", "")
		run.ID = "does-not-exist"

		if err := repo.Update(run); !errors.Is(err, shared.ErrNotFound) {
			t.Errorf("error = %v, want ErrNotFound", err)
		}
	})

	t.Run("Get missing run", func(t *testing.T) {
		repo := NewRunRepository(setupTestDB(t))
		if _, err := repo.Get("nope"); !errors.Is(err, shared.ErrNotFound) {
			t.Errorf("error = %v, want ErrNotFound", err)
		}
	})

	t.Run("List newest first with limit", func(t *testing.T) {
		repo := NewRunRepository(setupTestDB(t))
		base := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

		for i, kind := range []models.RunKind{models.RunKindDownload, models.RunKindUpload, models.RunKindExport} {
			run := models.NewRun(kind, "", "")
			run.StartedAt = base.Add(time.Duration(i) * time.Minute)
			if err := repo.Create(run); err != nil {
				t.Fatalf("failed to create run: %v", err)
			}
		}

		runs, err := repo.List(2)
		if err != nil {
			t.Fatalf("failed to list runs: %v", err)
		}
		if len(runs) != 2 {
			t.Fatalf("got %d runs, want 2", len(runs))
		}
		if runs[0].Kind != models.RunKindExport || runs[1].Kind != models.RunKindUpload {
			t.Errorf("order = %s, %s", runs[0].Kind, runs[1].Kind)
		}

		all, err := repo.List(0)
		if err != nil {
			t.Fatalf("failed to list runs: %v", err)
		}
		if len(all) != 3 {
			t.Errorf("got %d runs, want 3", len(all))
		}
	})

	t.Run("Find by prefix", func(t *testing.T) {
		repo := NewRunRepository(setupTestDB(t))
		run := models.NewRun(models.RunKindUpload, "", "")
		if err := repo.Create(run); err != nil {
			t.Fatalf("failed to create run: %v", err)
		}

		got, err := repo.Find(run.ID[:8])
		if err != nil {
			t.Fatalf("failed to find run: %v", err)
		}
		if got.ID != run.ID {
			t.Errorf("got %s, want %s", got.ID, run.ID)
		}

		if _, err := repo.Find("zzzz"); !errors.Is(err, shared.ErrNotFound) {
			t.Errorf("error = %v, want ErrNotFound", err)
		}
		if _, err := repo.Find(""); !errors.Is(err, shared.ErrMissingArgument) {
			t.Errorf("error = %v, want ErrMissingArgument", err)
		}
	})
	t.Run("Find treats wildcards literally", func(t *testing.T) {
		repo := NewRunRepository(setupTestDB(t))
		run := models.NewRun(models.RunKindDownload, "emoji_list.json", "emoji_downloads")
		if err := repo.Create(run); err != nil {
			t.Fatalf("failed to create run: %v", err)
		}

		for _, id := range []string{"%", "_", run.ID[:2] + "%", "_" + run.ID[1:4]} {
			if got, err := repo.Find(id); !errors.Is(err, shared.ErrNotFound) {
				t.Errorf("Find(%q) = %v, %v; want ErrNotFound", id, got, err)
			}
		}
	})
}

func TestRunItemRepository(t *testing.T) {
	setup := func(t *testing.T) (*RunItemRepository, *models.Run) {
		db := setupTestDB(t)
		run := models.NewRun(models.RunKindUpload, "emoji_downloads", "acme")
		if err := NewRunRepository(db).Create(run); err != nil {
			t.Fatalf("failed to create run: %v", err)
		}
		return NewRunItemRepository(db), run
	}

	t.Run("Create and ListByRun", func(t *testing.T) {
		repo, run := setup(t)

		items := []*models.RunItem{
			{RunID: run.ID, Name: "smile", Stage: models.StageUpload, Outcome: models.OutcomeSucceeded, Attempts: 1, FilePath: "emoji_downloads/smile.png"},
			{RunID: run.ID, Name: "party", Stage: models.StageUpload, Outcome: models.OutcomeFailed, Attempts: 5, ErrorMessage: "ratelimited"},
		}
		for _, item := range items {
			if err := repo.Create(item); err != nil {
				t.Fatalf("failed to create item: %v", err)
			}
			if item.ID == "" {
				t.Error("item ID should be set")
			}
		}

		got, err := repo.ListByRun(run.ID)
		if err != nil {
			t.Fatalf("failed to list items: %v", err)
		}
		if len(got) != 2 {
			t.Fatalf("got %d items, want 2", len(got))
		}
		if got[0].Name != "smile" || got[1].Name != "party" {
			t.Errorf("order = %s, %s", got[0].Name, got[1].Name)
		}
		if got[1].Attempts != 5 || got[1].ErrorMessage != "ratelimited" {
			t.Errorf("got %+v", got[1])
		}

		single, err := repo.Get(items[0].ID)
		if err != nil {
			t.Fatalf("failed to get item: %v", err)
		}
		if single.FilePath != "emoji_downloads/smile.png" {
			t.Errorf("FilePath = %s", single.FilePath)
		}

		counts, err := repo.CountByOutcome(run.ID)
		if err != nil {
			t.Fatalf("failed to count: %v", err)
		}
		if counts[models.OutcomeSucceeded] != 1 || counts[models.OutcomeFailed] != 1 {
			t.Errorf("counts = %v", counts)
		}
	})

	t.Run("rejects unknown run", func(t *testing.T) {
		repo, _ := setup(t)
		item := &models.RunItem{RunID: "missing", Name: "smile", Stage: models.StageUpload, Outcome: models.OutcomeSucceeded}
		if err := repo.Create(item); err == nil {
			t.Error("expected foreign key error")
		}
	})

	t.Run("rejects invalid item", func(t *testing.T) {
		repo, run := setup(t)
		if err := repo.Create(&models.RunItem{RunID: run.ID}); err == nil {
			t.Error("expected validation error")
		}
	})

	t.Run("Get missing item", func(t *testing.T) {
		repo, _ := setup(t)
		if _, err := repo.Get("nope"); !errors.Is(err, shared.ErrNotFound) {
			t.Errorf("error = %v, want ErrNotFound", err)
		}
	})
}

func TestLedger(t *testing.T) {
	db := setupTestDB(t)
	ledger := NewLedger(db)

	run := models.NewRun(models.RunKindDownload, "emoji_list.json", "emoji_downloads")
	if err := ledger.StartRun(run); err != nil {
		t.Fatalf("StartRun() error = %v", err)
	}

	item := &models.RunItem{RunID: run.ID, Name: "smile", Stage: models.StageDownload, Outcome: models.OutcomeSucceeded, Attempts: 1}
	if err := ledger.RecordItem(item); err != nil {
		t.Fatalf("RecordItem() error = %v", err)
	}

	run.Complete(1, 1, 0, nil)
	if err := ledger.FinishRun(run); err != nil {
		t.Fatalf("FinishRun() error = %v", err)
	}

	got, err := ledger.Runs.Get(run.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.Status != models.RunStatusCompleted || got.Succeeded != 1 {
		t.Errorf("got %+v", got)
	}

	items, err := ledger.Items.ListByRun(run.ID)
	if err != nil || len(items) != 1 {
		t.Errorf("items = %v, err = %v", items, err)
	}
}
