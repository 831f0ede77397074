package config

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"immich-curator/internal/domain/entities"
	"immich-curator/internal/interfaces/cli"
	"immich-curator/internal/interfaces/presenters"
	"immich-curator/internal/usecases"
)

const appSnapshot = `{
  "duplicates": [
    {"duplicateId": "g1", "assets": [
      {"id": "a", "originalPath": "/photos/GooglePhotos/Trip/a.jpg", "visibility": "timeline", "libraryId": "lib1"},
      {"id": "b", "originalPath": "/photos/GooglePhotos/Photos from 2019/a.jpg", "visibility": "archive", "libraryId": "lib1"}
    ]}
  ],
  "albums": [{"id": "al1", "albumName": "Trip", "assets": [{"id": "a"}]}],
  "libraries": [{"id": "lib1", "name": "photos", "importPaths": ["/photos"], "exclusionPatterns": []}]
}`

func newTestApplication(t *testing.T, cfg *Config, dryRun bool) (*Application, *bytes.Buffer) {
	t.Helper()
	snapshot := writeFile(t, t.TempDir(), "snapshot.json", appSnapshot)

	var out bytes.Buffer
	app, err := NewApplication(context.Background(), cfg, Options{SnapshotPath: snapshot, DryRun: dryRun}, &out)
	if err != nil {
		t.Fatalf("NewApplication: %v", err)
	}
	t.Cleanup(func() { app.Close() })
	return app, &out
}

func testConfig(t *testing.T) *Config {
	cfg := DefaultConfig()
	cfg.EnvFile = ""
	cfg.Journal.Path = filepath.Join(t.TempDir(), "journal", "curator.db")
	return cfg
}

func TestApplication_DedupAndHistory(t *testing.T) {
	cfg := testConfig(t)
	ctx := context.Background()

	preview, out := newTestApplication(t, cfg, true)
	if err := preview.Execute(ctx, cli.Dedup{}); err != nil {
		t.Fatalf("dry-run dedup: %v", err)
	}
	var dry usecases.DedupResponse
	if err := json.Unmarshal(out.Bytes(), &dry); err != nil {
		t.Fatalf("decode %s: %v", out, err)
	}
	if !dry.DryRun || dry.Processed != 1 || dry.Promoted != 1 || dry.Archived != 1 || len(dry.Preview) != 1 {
		t.Fatalf("unexpected dry-run response %+v", dry)
	}

	live, out := newTestApplication(t, cfg, false)
	if err := live.Execute(ctx, cli.Dedup{}); err != nil {
		t.Fatalf("dedup: %v", err)
	}
	var applied usecases.DedupResponse
	if err := json.Unmarshal(out.Bytes(), &applied); err != nil {
		t.Fatalf("decode %s: %v", out, err)
	}
	if applied.DryRun || applied.Promoted != 1 || applied.Archived != 1 {
		t.Fatalf("unexpected response %+v", applied)
	}

	out.Reset()
	if err := live.Execute(ctx, cli.History{Limit: 10}); err != nil {
		t.Fatalf("history: %v", err)
	}
	var runs []presenters.RunDTO
	if err := json.Unmarshal(out.Bytes(), &runs); err != nil {
		t.Fatalf("decode %s: %v", out, err)
	}
	if len(runs) != 2 {
		t.Fatalf("journal has %d runs, want 2", len(runs))
	}
	for _, run := range runs {
		if run.Command != entities.CommandDedup || run.Status != entities.RunStatusCompleted {
			t.Errorf("unexpected run %+v", run)
		}
	}

	out.Reset()
	if err := live.Execute(ctx, cli.History{Limit: 10, Command: entities.CommandReconcile}); err != nil {
		t.Fatalf("history --command: %v", err)
	}
	runs = nil
	if err := json.Unmarshal(out.Bytes(), &runs); err != nil {
		t.Fatalf("decode %s: %v", out, err)
	}
	if len(runs) != 0 {
		t.Fatalf("journal has %d reconcile runs, want 0", len(runs))
	}
}

func TestApplication_ErrorDocument(t *testing.T) {
	app, out := newTestApplication(t, testConfig(t), false)

	err := app.Execute(context.Background(), cli.HideAlbum{AlbumName: "Nope"})
	if !entities.IsNotFound(err) {
		t.Fatalf("expected NotFoundError, got %v", err)
	}
	var doc presenters.ErrorResponse
	if err := json.Unmarshal(out.Bytes(), &doc); err != nil {
		t.Fatalf("decode %s: %v", out, err)
	}
	if doc.Code != entities.CodeNotFound || doc.Error == "" {
		t.Fatalf("unexpected error document %+v", doc)
	}
	if presenters.ExitCode(err) != presenters.ExitFailure {
		t.Fatalf("exit code = %d", presenters.ExitCode(err))
	}
}

func TestApplication_DatabaseCommandsNeedADatabase(t *testing.T) {
	cfg := testConfig(t)
	cfg.Journal.Enabled = false
	app, _ := newTestApplication(t, cfg, false)
	ctx := context.Background()

	err := app.Execute(ctx, cli.RunQuery{SQL: "select 1"})
	if entities.ErrorCode(err) != entities.CodeConfiguration {
		t.Fatalf("db without database: %v", err)
	}
	err = app.Execute(ctx, cli.History{Limit: 5})
	if entities.ErrorCode(err) != entities.CodeConfiguration {
		t.Fatalf("history without journal: %v", err)
	}
}

func TestApplication_AlbumKeys(t *testing.T) {
	app, out := newTestApplication(t, testConfig(t), false)

	if err := app.Execute(context.Background(), cli.GetAlbums{Names: []string{"Trip"}, Keys: []string{"id"}}); err != nil {
		t.Fatalf("get album: %v", err)
	}
	var albums []map[string]interface{}
	if err := json.Unmarshal(out.Bytes(), &albums); err != nil {
		t.Fatalf("decode %s: %v", out, err)
	}
	if len(albums) != 1 || albums[0]["id"] != "al1" || len(albums[0]) != 1 {
		t.Fatalf("unexpected projection %v", albums)
	}
}
