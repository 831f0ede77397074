package services

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"immich-curator/internal/domain/entities"
)

func intp(v int) *int       { return &v }
func int64p(v int64) *int64 { return &v }

func asset(id, path string, w, h int, size int64) entities.Asset {
	return entities.Asset{
		ID:           id,
		OriginalPath: path,
		Visibility:   entities.VisibilityTimeline,
		ExifInfo: &entities.ExifInfo{
			ExifImageWidth:  intp(w),
			ExifImageHeight: intp(h),
			FileSizeInByte:  int64p(size),
		},
	}
}

func ids(assets []entities.Asset) []string {
	return entities.AssetIDs(assets)
}

func TestPathPriorityTable_Rank(t *testing.T) {
	table := PathPriorityTable{"/a", "/b"}

	tests := []struct {
		path string
		want int
	}{
		{"/a/x.jpg", 2},
		{"/b/x.jpg", 1},
		{"/c/x.jpg", 0},
		{"/a/deep/er/x.jpg", 2},
		{"/ab/x.jpg", 0},
		{"", 0},
	}
	for _, tt := range tests {
		if got := table.Rank(tt.path); got != tt.want {
			t.Errorf("Rank(%q) = %d, want %d", tt.path, got, tt.want)
		}
	}
}

func TestPathPriorityTable_FirstMatchWins(t *testing.T) {
	table := PathPriorityTable{"/photos/wedding", "/photos", "upload/upload/u1"}

	if got := table.Rank("/photos/wedding/img.jpg"); got != 3 {
		t.Errorf("wedding rank = %d, want 3", got)
	}
	if got := table.Rank("/photos/misc/img.jpg"); got != 2 {
		t.Errorf("misc rank = %d, want 2", got)
	}
	if got := table.Rank("upload/upload/u1/ab/cd/img.jpg"); got != 1 {
		t.Errorf("upload rank = %d, want 1", got)
	}
}

func TestAssetScorer_RankOrder(t *testing.T) {
	scorer := NewAssetScorer([]string{"/best", "/good"})

	assets := []entities.Asset{
		asset("small", "/best/a.jpg", 10, 10, 9999),
		asset("big-light", "/other/a.jpg", 100, 100, 10),
		asset("big-heavy", "/other/a.jpg", 100, 100, 20),
		asset("big-heavy-best", "/best/a.jpg", 100, 100, 20),
	}

	got := ids(scorer.Rank(assets))
	want := []string{"big-heavy-best", "big-heavy", "big-light", "small"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("rank mismatch (-want +got):\n%s", diff)
	}
}

func TestAssetScorer_TieBreakLargerIDFirst(t *testing.T) {
	scorer := NewAssetScorer(nil)

	assets := []entities.Asset{
		asset("aaa", "/x/1.jpg", 50, 50, 100),
		asset("ccc", "/x/2.jpg", 50, 50, 100),
		asset("bbb", "/x/3.jpg", 50, 50, 100),
	}

	got := ids(scorer.Rank(assets))
	want := []string{"ccc", "bbb", "aaa"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("tie break mismatch (-want +got):\n%s", diff)
	}
}

func TestAssetScorer_StableUnderPermutation(t *testing.T) {
	scorer := NewAssetScorer([]string{"/p1", "/p2"})

	base := []entities.Asset{
		asset("1", "/p2/a.jpg", 10, 10, 5),
		asset("2", "/p1/a.jpg", 10, 10, 5),
		asset("3", "/zz/a.jpg", 20, 5, 5),
		asset("4", "/p1/a.jpg", 10, 10, 6),
		{ID: "5", OriginalPath: "/p1/a.jpg"},
	}
	want := ids(scorer.Rank(base))

	perms := [][]int{{4, 3, 2, 1, 0}, {2, 0, 4, 1, 3}, {1, 2, 3, 4, 0}}
	for _, perm := range perms {
		shuffled := make([]entities.Asset, len(base))
		for i, j := range perm {
			shuffled[i] = base[j]
		}
		if diff := cmp.Diff(want, ids(scorer.Rank(shuffled))); diff != "" {
			t.Errorf("permutation %v changed ranking (-want +got):\n%s", perm, diff)
		}
	}
}

func TestAssetScorer_MissingExifNormalizesToZero(t *testing.T) {
	scorer := NewAssetScorer(nil)

	cases := []entities.Asset{
		{ID: "no-exif", OriginalPath: "/a.jpg"},
		{ID: "empty-exif", OriginalPath: "/a.jpg", ExifInfo: &entities.ExifInfo{}},
		{ID: "width-only", OriginalPath: "/a.jpg", ExifInfo: &entities.ExifInfo{ExifImageWidth: intp(640)}},
		{ID: "zero", OriginalPath: "/a.jpg", ExifInfo: &entities.ExifInfo{ExifImageWidth: intp(0), ExifImageHeight: intp(480), FileSizeInByte: int64p(0)}},
	}
	for _, a := range cases {
		s := scorer.Score(&a)
		if s.PixelArea != 0 || s.ByteSize != 0 {
			t.Errorf("%s: got area=%d size=%d, want zeros", a.ID, s.PixelArea, s.ByteSize)
		}
	}

	withExif := asset("real", "/a.jpg", 1, 1, 1)
	if top := scorer.Rank(append(cases, withExif))[0]; top.ID != "real" {
		t.Fatalf("top ranked = %q, want real", top.ID)
	}
}

func TestAssetScorer_RankOfEmpty(t *testing.T) {
	if got := NewAssetScorer(nil).Rank(nil); len(got) != 0 {
		t.Fatalf("Rank(nil) = %v, want empty", ids(got))
	}
}

func TestAssetScorer_RankDoesNotMutateInput(t *testing.T) {
	scorer := NewAssetScorer(nil)
	in := []entities.Asset{asset("a", "/a", 1, 1, 1), asset("b", "/b", 2, 2, 2)}
	_ = scorer.Rank(in)
	if in[0].ID != "a" || in[1].ID != "b" {
		t.Fatalf("input reordered: %v", ids(in))
	}
}

func TestIndexRows(t *testing.T) {
	rows := []Row{
		{"id": "f1", "personId": "p1"},
		{"id": "f2", "personId": "p2"},
		{"id": "f3", "personId": "p1"},
	}

	byPerson := IndexRows(rows, "personId")
	if len(byPerson["p1"]) != 2 || len(byPerson["p2"]) != 1 {
		t.Fatalf("unexpected grouping: %v", byPerson)
	}
	if all := IndexRows(rows, ""); len(all["all"]) != 3 {
		t.Fatalf("expected all rows under \"all\", got %v", all)
	}
}
