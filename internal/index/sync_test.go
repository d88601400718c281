package index

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/marlowe/inkwell/internal/models"
	"github.com/marlowe/inkwell/internal/storage"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

// syncEnv sets up a data dir, storage, CSV log, and DB for rebuild tests.
func syncEnv(t *testing.T) (storage.Provider, *storage.CSVLog, *DB, string) {
	t.Helper()
	dataDir := t.TempDir()
	store, err := storage.NewFS(dataDir)
	if err != nil {
		t.Fatal(err)
	}
	log := storage.NewCSVLog(filepath.Join(dataDir, storage.MasterCSV))
	return store, log, testDB(t), dataDir
}

func appendBatch(t *testing.T, log *storage.CSVLog, id, title string, draftTitles ...string) {
	t.Helper()
	arts := make([]models.Article, 0, len(draftTitles))
	for _, dt := range draftTitles {
		arts = append(arts, models.Article{Title: dt, Body: "body of " + dt})
	}
	rows := storage.RowsForArticles(id, title, "https://example.com/"+id, models.SourceTypeArticle, arts)
	if err := log.Append(rows); err != nil {
		t.Fatalf("Append: %v", err)
	}
}

func TestRebuild_FromCSV(t *testing.T) {
	store, log, db, _ := syncEnv(t)
	appendBatch(t, log, "aaaa", "First Source", "Draft A", "Draft B")
	appendBatch(t, log, "bbbb", "Second Source", "Draft C")

	if err := Rebuild(db, log, store, testLogger()); err != nil {
		t.Fatalf("Rebuild: %v", err)
	}

	all, _ := db.ListSources()
	if len(all) != 2 {
		t.Fatalf("sources = %d, want 2", len(all))
	}
	drafts, _ := db.DraftsBySource("aaaa")
	if len(drafts) != 2 || drafts[0].Title != "Draft A" || drafts[1].Title != "Draft B" {
		t.Errorf("drafts = %+v", drafts)
	}
}

func TestRebuild_TranscriptOnlySource(t *testing.T) {
	store, log, db, _ := syncEnv(t)
	data := storage.RenderTranscript("Fetched But Unparsed", "cccc", models.SourceTypeVideo, "the transcript text")
	if err := store.Write(storage.TranscriptPath("Fetched But Unparsed"), data); err != nil {
		t.Fatal(err)
	}

	if err := Rebuild(db, log, store, testLogger()); err != nil {
		t.Fatalf("Rebuild: %v", err)
	}

	s, _ := db.GetSource("cccc")
	if s == nil {
		t.Fatal("transcript-only source missing")
	}
	if s.Title != "Fetched But Unparsed" || s.Type != models.SourceTypeVideo || s.DraftCount != 0 {
		t.Errorf("source = %+v", s)
	}
	if s.TranscriptFile == "" {
		t.Error("transcript file not recorded")
	}
}

func TestRebuild_AttachesTranscriptToCSVSource(t *testing.T) {
	store, log, db, _ := syncEnv(t)
	appendBatch(t, log, "aaaa", "Covered Source", "Draft A")
	data := storage.RenderTranscript("Covered Source", "aaaa", models.SourceTypeArticle, "text")
	_ = store.Write(storage.TranscriptPath("Covered Source"), data)

	if err := Rebuild(db, log, store, testLogger()); err != nil {
		t.Fatalf("Rebuild: %v", err)
	}

	s, _ := db.GetSource("aaaa")
	if s == nil || s.TranscriptFile == "" {
		t.Errorf("source = %+v", s)
	}
	if s.DraftCount != 1 {
		t.Errorf("draft count = %d", s.DraftCount)
	}
}

func TestRebuild_RemovesStale(t *testing.T) {
	store, log, db, _ := syncEnv(t)
	_ = db.UpsertSource(SourceRow{ID: "gone", Title: "Phantom", UpdatedAt: time.Now()})

	if err := Rebuild(db, log, store, testLogger()); err != nil {
		t.Fatalf("Rebuild: %v", err)
	}

	s, _ := db.GetSource("gone")
	if s != nil {
		t.Errorf("stale source survived: %+v", s)
	}
}

func TestRebuild_Idempotent(t *testing.T) {
	store, log, db, _ := syncEnv(t)
	appendBatch(t, log, "aaaa", "Src", "Draft A")

	for i := 0; i < 3; i++ {
		if err := Rebuild(db, log, store, testLogger()); err != nil {
			t.Fatalf("Rebuild #%d: %v", i, err)
		}
	}
	all, _ := db.ListSources()
	if len(all) != 1 || all[0].DraftCount != 1 {
		t.Errorf("sources = %+v", all)
	}
}
