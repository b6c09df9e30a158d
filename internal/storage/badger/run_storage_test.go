package badger

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/timshannon/badgerhold/v4"

	"github.com/ternarybob/probo/internal/interfaces"
	"github.com/ternarybob/probo/internal/models"
)

func newTestStorage(t *testing.T) interfaces.RunStorage {
	t.Helper()

	options := badgerhold.DefaultOptions
	options.Dir = t.TempDir()
	options.ValueDir = options.Dir
	options.Logger = nil

	store, err := badgerhold.Open(options)
	if err != nil {
		t.Fatalf("failed to open badger store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	db := &BadgerDB{store: store}
	return NewRunStorage(db, arbor.NewLogger())
}

func testReport(id, suite string, createdAt time.Time) *models.RunReport {
	summary := models.NewExecutionSummary(2)
	summary.Add(models.RecordResult{Index: 0, Status: models.StatusPassed, Attempts: 1})
	summary.Add(models.RecordResult{Index: 1, Status: models.StatusFailed, Message: "assertion failed", Attempts: 1})
	summary.Finalize()

	return &models.RunReport{
		ID:        id,
		SuiteName: suite,
		Source:    "testdata/users.csv (csv)",
		Summary:   summary,
		CreatedAt: createdAt,
	}
}

func TestSaveAndGetRun(t *testing.T) {
	storage := newTestStorage(t)
	ctx := context.Background()

	report := testReport("run-1", "smoke", time.Now())
	if err := storage.SaveRun(ctx, report); err != nil {
		t.Fatalf("SaveRun failed: %v", err)
	}

	got, err := storage.GetRun(ctx, "run-1")
	if err != nil {
		t.Fatalf("GetRun failed: %v", err)
	}
	if got.ID != "run-1" {
		t.Errorf("expected ID run-1, got %s", got.ID)
	}
	if got.SuiteName != "smoke" {
		t.Errorf("expected suite smoke, got %s", got.SuiteName)
	}
	if got.Summary == nil || got.Summary.Failed != 1 {
		t.Errorf("summary did not persist: %+v", got.Summary)
	}
	if got.Summary.Results[1].Message != "assertion failed" {
		t.Errorf("record results did not persist: %+v", got.Summary.Results)
	}
}

func TestGetRunNotFound(t *testing.T) {
	storage := newTestStorage(t)

	_, err := storage.GetRun(context.Background(), "missing")
	if err == nil {
		t.Fatal("expected error for missing run")
	}
	if !errors.Is(err, ErrRunNotFound) {
		t.Errorf("expected ErrRunNotFound, got %v", err)
	}
}

func TestSaveRunRequiresID(t *testing.T) {
	storage := newTestStorage(t)

	report := testReport("", "smoke", time.Now())
	if err := storage.SaveRun(context.Background(), report); err == nil {
		t.Fatal("expected error for empty run ID")
	}
}

func TestSaveRunStampsCreatedAt(t *testing.T) {
	storage := newTestStorage(t)
	ctx := context.Background()

	report := testReport("run-stamp", "smoke", time.Time{})
	if err := storage.SaveRun(ctx, report); err != nil {
		t.Fatalf("SaveRun failed: %v", err)
	}

	got, err := storage.GetRun(ctx, "run-stamp")
	if err != nil {
		t.Fatalf("GetRun failed: %v", err)
	}
	if got.CreatedAt.IsZero() {
		t.Error("expected CreatedAt to be stamped on save")
	}
}

func TestSaveRunReplacesExisting(t *testing.T) {
	storage := newTestStorage(t)
	ctx := context.Background()

	first := testReport("run-upsert", "smoke", time.Now())
	if err := storage.SaveRun(ctx, first); err != nil {
		t.Fatalf("SaveRun failed: %v", err)
	}

	second := testReport("run-upsert", "regression", time.Now())
	if err := storage.SaveRun(ctx, second); err != nil {
		t.Fatalf("SaveRun replace failed: %v", err)
	}

	count, err := storage.CountRuns(ctx)
	if err != nil {
		t.Fatalf("CountRuns failed: %v", err)
	}
	if count != 1 {
		t.Errorf("expected 1 run after upsert, got %d", count)
	}

	got, err := storage.GetRun(ctx, "run-upsert")
	if err != nil {
		t.Fatalf("GetRun failed: %v", err)
	}
	if got.SuiteName != "regression" {
		t.Errorf("expected replaced suite name, got %s", got.SuiteName)
	}
}

func TestListRunsNewestFirst(t *testing.T) {
	storage := newTestStorage(t)
	ctx := context.Background()

	base := time.Date(2026, 8, 20, 12, 0, 0, 0, time.UTC)
	for i, id := range []string{"run-a", "run-b", "run-c"} {
		report := testReport(id, "smoke", base.Add(time.Duration(i)*time.Hour))
		if err := storage.SaveRun(ctx, report); err != nil {
			t.Fatalf("SaveRun %s failed: %v", id, err)
		}
	}

	runs, err := storage.ListRuns(ctx, 0)
	if err != nil {
		t.Fatalf("ListRuns failed: %v", err)
	}
	if len(runs) != 3 {
		t.Fatalf("expected 3 runs, got %d", len(runs))
	}
	for i, want := range []string{"run-c", "run-b", "run-a"} {
		if runs[i].ID != want {
			t.Errorf("position %d: expected %s, got %s", i, want, runs[i].ID)
		}
	}
}

func TestListRunsLimit(t *testing.T) {
	storage := newTestStorage(t)
	ctx := context.Background()

	base := time.Date(2026, 8, 20, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		report := testReport("run-"+string(rune('a'+i)), "smoke", base.Add(time.Duration(i)*time.Minute))
		if err := storage.SaveRun(ctx, report); err != nil {
			t.Fatalf("SaveRun failed: %v", err)
		}
	}

	runs, err := storage.ListRuns(ctx, 2)
	if err != nil {
		t.Fatalf("ListRuns failed: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("expected 2 runs, got %d", len(runs))
	}
	if runs[0].ID != "run-e" || runs[1].ID != "run-d" {
		t.Errorf("expected newest two runs, got %s, %s", runs[0].ID, runs[1].ID)
	}
}

func TestListRunsBySuite(t *testing.T) {
	storage := newTestStorage(t)
	ctx := context.Background()

	base := time.Date(2026, 8, 20, 12, 0, 0, 0, time.UTC)
	saves := []struct {
		id    string
		suite string
	}{
		{"run-1", "smoke"},
		{"run-2", "regression"},
		{"run-3", "smoke"},
	}
	for i, save := range saves {
		report := testReport(save.id, save.suite, base.Add(time.Duration(i)*time.Minute))
		if err := storage.SaveRun(ctx, report); err != nil {
			t.Fatalf("SaveRun %s failed: %v", save.id, err)
		}
	}

	runs, err := storage.ListRunsBySuite(ctx, "smoke", 0)
	if err != nil {
		t.Fatalf("ListRunsBySuite failed: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("expected 2 smoke runs, got %d", len(runs))
	}
	if runs[0].ID != "run-3" || runs[1].ID != "run-1" {
		t.Errorf("expected run-3 then run-1, got %s, %s", runs[0].ID, runs[1].ID)
	}

	empty, err := storage.ListRunsBySuite(ctx, "nightly", 0)
	if err != nil {
		t.Fatalf("ListRunsBySuite failed: %v", err)
	}
	if len(empty) != 0 {
		t.Errorf("expected no nightly runs, got %d", len(empty))
	}
}

func TestDeleteRun(t *testing.T) {
	storage := newTestStorage(t)
	ctx := context.Background()

	report := testReport("run-del", "smoke", time.Now())
	if err := storage.SaveRun(ctx, report); err != nil {
		t.Fatalf("SaveRun failed: %v", err)
	}

	if err := storage.DeleteRun(ctx, "run-del"); err != nil {
		t.Fatalf("DeleteRun failed: %v", err)
	}
	if _, err := storage.GetRun(ctx, "run-del"); !errors.Is(err, ErrRunNotFound) {
		t.Errorf("expected ErrRunNotFound after delete, got %v", err)
	}

	// Deleting an unknown ID is not an error
	if err := storage.DeleteRun(ctx, "never-existed"); err != nil {
		t.Errorf("DeleteRun of unknown ID failed: %v", err)
	}
}

func TestPruneKeepsNewest(t *testing.T) {
	storage := newTestStorage(t)
	ctx := context.Background()

	base := time.Date(2026, 8, 20, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		report := testReport("run-"+string(rune('a'+i)), "smoke", base.Add(time.Duration(i)*time.Minute))
		if err := storage.SaveRun(ctx, report); err != nil {
			t.Fatalf("SaveRun failed: %v", err)
		}
	}

	removed, err := storage.Prune(ctx, 2)
	if err != nil {
		t.Fatalf("Prune failed: %v", err)
	}
	if removed != 3 {
		t.Errorf("expected 3 runs pruned, got %d", removed)
	}

	runs, err := storage.ListRuns(ctx, 0)
	if err != nil {
		t.Fatalf("ListRuns failed: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("expected 2 runs left, got %d", len(runs))
	}
	if runs[0].ID != "run-e" || runs[1].ID != "run-d" {
		t.Errorf("prune should keep the newest runs, got %s, %s", runs[0].ID, runs[1].ID)
	}
}

func TestPruneDisabled(t *testing.T) {
	storage := newTestStorage(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		report := testReport("run-"+string(rune('a'+i)), "smoke", time.Now())
		if err := storage.SaveRun(ctx, report); err != nil {
			t.Fatalf("SaveRun failed: %v", err)
		}
	}

	removed, err := storage.Prune(ctx, 0)
	if err != nil {
		t.Fatalf("Prune failed: %v", err)
	}
	if removed != 0 {
		t.Errorf("keep=0 should disable pruning, removed %d", removed)
	}

	count, err := storage.CountRuns(ctx)
	if err != nil {
		t.Fatalf("CountRuns failed: %v", err)
	}
	if count != 3 {
		t.Errorf("expected 3 runs untouched, got %d", count)
	}
}

func TestPruneUnderLimit(t *testing.T) {
	storage := newTestStorage(t)
	ctx := context.Background()

	report := testReport("run-only", "smoke", time.Now())
	if err := storage.SaveRun(ctx, report); err != nil {
		t.Fatalf("SaveRun failed: %v", err)
	}

	removed, err := storage.Prune(ctx, 10)
	if err != nil {
		t.Fatalf("Prune failed: %v", err)
	}
	if removed != 0 {
		t.Errorf("expected nothing pruned under the limit, removed %d", removed)
	}
}

func TestRunStorageCanceledContext(t *testing.T) {
	storage := newTestStorage(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := storage.SaveRun(ctx, testReport("run-x", "smoke", time.Now())); !errors.Is(err, context.Canceled) {
		t.Errorf("SaveRun: expected context.Canceled, got %v", err)
	}
	if _, err := storage.ListRuns(ctx, 0); !errors.Is(err, context.Canceled) {
		t.Errorf("ListRuns: expected context.Canceled, got %v", err)
	}
}
