package usecases

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"immich-curator/internal/domain/entities"
	infra "immich-curator/internal/infrastructure/services"
)

func newAlbumMaintenance(d *infra.MemoryDirectory, mappings []PathMapping) *AlbumMaintenanceUseCase {
	return NewAlbumMaintenanceUseCase(d, NewAssetLookupUseCase(d), NewRunRecorder(nil), mappings)
}

func TestLocalPath(t *testing.T) {
	mappings := []PathMapping{
		{From: "/dropbox", To: "/mnt/dropbox"},
		{From: "/photos", To: "/mnt/files/photos"},
		{From: "upload/upload", To: "/mnt/files/immich/upload"},
	}

	tests := []struct {
		in, want string
	}{
		{"/dropbox/cam/a.jpg", "/mnt/dropbox/cam/a.jpg"},
		{"photos/x/b.jpg", "/mnt/files/photos/x/b.jpg"},
		{"upload/upload/u1/ab/c.jpg", "/mnt/files/immich/upload/u1/ab/c.jpg"},
	}
	for _, tt := range tests {
		got, err := LocalPath(mappings, tt.in)
		if err != nil {
			t.Errorf("LocalPath(%q): %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("LocalPath(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}

	if _, err := LocalPath(mappings, "/photoshop/a.jpg"); entities.ErrorCode(err) != entities.CodeConfiguration {
		t.Errorf("expected configuration error for unmapped path, got %v", err)
	}
}

func TestHideAlbum(t *testing.T) {
	snapshot := lookupSnapshot()
	snapshot.Albums = append(snapshot.Albums, entities.Album{
		ID: "al4", AlbumName: "Hide", Assets: []entities.Asset{{ID: "p1"}, {ID: "d2"}},
	})
	d := infra.NewMemoryDirectory(snapshot)
	if err := d.UpdateAssetVisibility(context.Background(), []string{"d2"}, entities.VisibilityArchive); err != nil {
		t.Fatalf("seed: %v", err)
	}
	uc := newAlbumMaintenance(d, nil)

	dry, err := uc.HideAlbum(context.Background(), &HideAlbumRequest{Name: "Hide", DryRun: true})
	if err != nil {
		t.Fatalf("HideAlbum(dry): %v", err)
	}
	if dry.Archived != 1 || dry.AlreadyArchived != 1 || len(d.Mutations()) != 1 {
		t.Fatalf("dry run: %+v, mutations %d", dry, len(d.Mutations()))
	}

	resp, err := uc.HideAlbum(context.Background(), &HideAlbumRequest{Name: "Hide"})
	if err != nil {
		t.Fatalf("HideAlbum: %v", err)
	}
	if diff := cmp.Diff([]string{"p1"}, resp.AssetIDs); diff != "" {
		t.Fatalf("archived ids (-want +got):\n%s", diff)
	}
	if v := mustAsset(t, d, "p1").Visibility; v != entities.VisibilityArchive {
		t.Fatalf("p1 visibility = %s", v)
	}

	if _, err := uc.HideAlbum(context.Background(), &HideAlbumRequest{Name: "Nope"}); !entities.IsNotFound(err) {
		t.Fatalf("expected NotFoundError, got %v", err)
	}
}

func TestExportAlbum(t *testing.T) {
	src := t.TempDir()
	dest := filepath.Join(t.TempDir(), "out")
	for _, name := range []string{"a.jpg", "b.jpg"} {
		if err := os.WriteFile(filepath.Join(src, name), []byte(name), 0o644); err != nil {
			t.Fatalf("seed %s: %v", name, err)
		}
	}

	d := infra.NewMemoryDirectory(&infra.Snapshot{
		Albums: []entities.Album{{
			ID:        "al1",
			AlbumName: "Export",
			Assets: []entities.Asset{
				newAsset("a", "/photos/a.jpg"),
				newAsset("b", "/photos/b.jpg"),
				newAsset("gone", "/photos/gone.jpg"),
				newAsset("far", "/elsewhere/c.jpg"),
			},
		}},
	})
	uc := newAlbumMaintenance(d, []PathMapping{{From: "/photos", To: src}})

	resp, err := uc.ExportAlbum(context.Background(), &ExportAlbumRequest{Name: "Export", Destination: dest})
	if err != nil {
		t.Fatalf("ExportAlbum: %v", err)
	}

	var exported []string
	for _, f := range resp.Exported {
		exported = append(exported, f.AssetID)
	}
	if diff := cmp.Diff([]string{"a", "b"}, exported); diff != "" {
		t.Errorf("exported (-want +got):\n%s", diff)
	}
	if len(resp.Failed) != 2 {
		t.Errorf("got %d failures, want 2: %+v", len(resp.Failed), resp.Failed)
	}

	data, err := os.ReadFile(filepath.Join(dest, "b.jpg"))
	if err != nil || string(data) != "b.jpg" {
		t.Fatalf("copied file: %q, %v", data, err)
	}
}

func TestExportAlbum_DryRunCopiesNothing(t *testing.T) {
	dest := filepath.Join(t.TempDir(), "out")
	d := infra.NewMemoryDirectory(&infra.Snapshot{
		Albums: []entities.Album{{ID: "al1", AlbumName: "Export", Assets: []entities.Asset{newAsset("a", "/photos/a.jpg")}}},
	})
	uc := newAlbumMaintenance(d, []PathMapping{{From: "/photos", To: "/nonexistent"}})

	resp, err := uc.ExportAlbum(context.Background(), &ExportAlbumRequest{Name: "Export", Destination: dest, DryRun: true})
	if err != nil {
		t.Fatalf("ExportAlbum: %v", err)
	}
	if len(resp.Exported) != 1 || resp.Exported[0].Source != "/nonexistent/a.jpg" {
		t.Fatalf("unexpected preview %+v", resp.Exported)
	}
	if _, err := os.Stat(dest); !os.IsNotExist(err) {
		t.Fatalf("dry run created the destination: %v", err)
	}
}
