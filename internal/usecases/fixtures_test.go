package usecases

import (
	"context"
	"testing"

	"immich-curator/internal/domain/entities"
	"immich-curator/internal/domain/services"
	infra "immich-curator/internal/infrastructure/services"
)

func intp(v int) *int       { return &v }
func int64p(v int64) *int64 { return &v }

type assetOpt func(*entities.Asset)

func dup(id string) assetOpt {
	return func(a *entities.Asset) { a.DuplicateID = id }
}

func visibility(v entities.Visibility) assetOpt {
	return func(a *entities.Asset) { a.Visibility = v }
}

func library(id string) assetOpt {
	return func(a *entities.Asset) { a.LibraryID = id }
}

func device(id string) assetOpt {
	return func(a *entities.Asset) { a.DeviceID = id }
}

func exif(w, h int, size int64) assetOpt {
	return func(a *entities.Asset) {
		a.ExifInfo = &entities.ExifInfo{
			ExifImageWidth:  intp(w),
			ExifImageHeight: intp(h),
			FileSizeInByte:  int64p(size),
		}
	}
}

func newAsset(id, path string, opts ...assetOpt) entities.Asset {
	a := entities.Asset{ID: id, OriginalPath: path, Visibility: entities.VisibilityTimeline}
	for _, opt := range opts {
		opt(&a)
	}
	return a
}

func mustAsset(t *testing.T, d services.AssetDirectory, id string) *entities.Asset {
	t.Helper()
	a, err := d.Asset(context.Background(), id)
	if err != nil {
		t.Fatalf("Asset(%s): %v", id, err)
	}
	return a
}

func albumByName(t *testing.T, d services.AssetDirectory, name string) []entities.Album {
	t.Helper()
	ctx := context.Background()
	all, err := d.Albums(ctx)
	if err != nil {
		t.Fatalf("Albums: %v", err)
	}
	var found []entities.Album
	for _, a := range all {
		if a.AlbumName == name {
			detail, err := d.Album(ctx, a.ID)
			if err != nil {
				t.Fatalf("Album(%s): %v", a.ID, err)
			}
			found = append(found, *detail)
		}
	}
	return found
}

// takeoutSnapshot models a library with two year folders, a fully covered
// takeout album folder "Trip" and an album referencing one of its assets
func takeoutSnapshot() *infra.Snapshot {
	return &infra.Snapshot{
		Assets: []entities.Asset{
			newAsset("y1", "/photos/GooglePhotos/Photos from 2019/a.jpg", dup("d1"), library("lib1")),
			newAsset("y2", "/photos/GooglePhotos/Photos from 2020/b.jpg", dup("d2"), library("lib1")),
			newAsset("t1", "/photos/GooglePhotos/Trip/a.jpg", dup("d1"), library("lib1")),
			newAsset("t2", "/photos/GooglePhotos/Trip/b.jpg", dup("d2"), library("lib1")),
		},
		Albums: []entities.Album{
			{ID: "fav", AlbumName: "Favorites", Assets: []entities.Asset{{ID: "t1"}}},
		},
		Libraries: []entities.Library{
			{ID: "lib1", Name: "photos", ImportPaths: []string{"/photos"}, ExclusionPatterns: []string{"/photos/tmp/**"}},
		},
	}
}

type fakeQueryService struct {
	rows     []services.Row
	queryErr error
	execErr  error
	affected int64

	queries []string
	execs   [][]interface{}
}

func (f *fakeQueryService) Query(ctx context.Context, query string, args ...interface{}) ([]services.Row, error) {
	f.queries = append(f.queries, query)
	if f.queryErr != nil {
		return nil, f.queryErr
	}
	return f.rows, nil
}

func (f *fakeQueryService) Exec(ctx context.Context, query string, args ...interface{}) (int64, error) {
	f.execs = append(f.execs, append([]interface{}{query}, args...))
	if f.execErr != nil {
		return 0, f.execErr
	}
	return f.affected, nil
}

func (f *fakeQueryService) Close() error { return nil }
