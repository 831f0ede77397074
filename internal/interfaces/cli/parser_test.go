package cli

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"immich-curator/internal/domain/entities"
)

func TestParse(t *testing.T) {
	tests := []struct {
		line string
		want Command
	}{
		{"get asset a1 a2", GetAssets{IDs: []string{"a1", "a2"}}},
		{"get asset a1 --one a2", GetAssets{IDs: []string{"a1", "a2"}, One: true}},
		{"get library --one lib1", GetLibraries{IDs: []string{"lib1"}, One: true}},
		{"get album --keys id,albumName Trip", GetAlbums{Names: []string{"Trip"}, Keys: []string{"id", "albumName"}}},
		{"list library --uploads --one", ListLibraries{One: true, IncludeUploads: true}},
		{"list album", ListAlbums{}},
		{"list album Trip --keys=assets", ListAlbums{Names: []string{"Trip"}, Keys: []string{"assets"}}},
		{"list single-stored", ListSingleStored{}},
		{"list not-in-library lib1", ListNotInLibrary{LibraryID: "lib1"}},
		{"list redundant-folders", ListRedundantFolders{}},
		{"list subdirs photos/GooglePhotos", ListSubdirs{Path: "photos/GooglePhotos"}},
		{"dedup", Dedup{}},
		{"reconcile photos/GooglePhotos/Trip --library lib1", Reconcile{Folder: "photos/GooglePhotos/Trip", LibraryID: "lib1"}},
		{"reconcile --all", Reconcile{All: true}},
		{"album hide Screenshots", HideAlbum{AlbumName: "Screenshots"}},
		{"album export Trip /tmp/out", ExportAlbum{AlbumName: "Trip", Destination: "/tmp/out"}},
		{"person reassign 3f1c0d2e-8a4b-4c6d-9e0f-1a2b3c4d5e6f Erica Max", ReassignFaces{AssetID: "3f1c0d2e-8a4b-4c6d-9e0f-1a2b3c4d5e6f", From: "Erica", To: "Max"}},
		{"db select * from asset_faces --index personId", RunQuery{SQL: "select * from asset_faces", Index: "personId"}},
		{"history", History{Limit: 20}},
		{"history --limit 5", History{Limit: 5}},
		{"history --command reconcile --limit 3", History{Limit: 3, Command: "reconcile"}},
	}
	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			got, err := Parse(strings.Fields(tt.line))
			if err != nil {
				t.Fatalf("Parse(%q): %v", tt.line, err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Parse(%q) (-want +got):\n%s", tt.line, diff)
			}
		})
	}
}

func TestParse_DoubleDashEndsFlags(t *testing.T) {
	got, err := Parse([]string{"db", "--", "select", "-1"})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if q := got.(RunQuery); q.SQL != "select -1" {
		t.Fatalf("SQL = %q", q.SQL)
	}
}

func TestParse_Errors(t *testing.T) {
	lines := []string{
		"",
		"frobnicate",
		"get",
		"get photo a1",
		"get asset",
		"get asset --verbose a1",
		"get album --keys owner Trip",
		"list",
		"list everything",
		"list not-in-library",
		"list subdirs a b",
		"dedup extra",
		"dedup --force",
		"reconcile",
		"reconcile --all photos/x",
		"reconcile --all --library lib1",
		"reconcile photos/x --library",
		"album",
		"album delete Trip",
		"album export Trip",
		"person reassign a1 Erica Max",
		"person rename x",
		"db",
		"history --limit 0",
		"history --limit many",
		"history --command frobnicate",
	}
	for _, line := range lines {
		t.Run(line, func(t *testing.T) {
			_, err := Parse(strings.Fields(line))
			if entities.ErrorCode(err) != entities.CodeConfiguration {
				t.Fatalf("Parse(%q) = %v, want configuration error", line, err)
			}
		})
	}
}
