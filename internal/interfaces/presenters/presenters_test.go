package presenters

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"immich-curator/internal/domain/entities"
)

func TestExitCode(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{nil, ExitOK},
		{&entities.ConfigurationError{Field: "x", Reason: "bad"}, ExitConfiguration},
		{fmt.Errorf("wrapped: %w", &entities.ConfigurationError{Reason: "bad"}), ExitConfiguration},
		{&entities.NotFoundError{Kind: "album", ID: "Trip"}, ExitFailure},
		{errors.New("boom"), ExitFailure},
	}
	for _, tt := range tests {
		if got := ExitCode(tt.err); got != tt.want {
			t.Errorf("ExitCode(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}

func TestToErrorResponse(t *testing.T) {
	got := ToErrorResponse(&entities.NotFoundError{Kind: "album", ID: "Trip"})
	want := &ErrorResponse{Error: `album "Trip" not found`, Code: entities.CodeNotFound}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("(-want +got):\n%s", diff)
	}
	if ToErrorResponse(nil) != nil {
		t.Errorf("nil error should give nil response")
	}
}

func TestProjectAlbums(t *testing.T) {
	albums := []entities.Album{
		{ID: "al1", AlbumName: "Trip", AssetCount: 1, Assets: []entities.Asset{{ID: "a"}}},
		{ID: "al2", AlbumName: "Empty"},
	}

	got, err := ProjectAlbums(albums, []string{"id", "albumName"})
	if err != nil {
		t.Fatalf("ProjectAlbums: %v", err)
	}
	want := []AlbumDTO{
		{"id": "al1", "albumName": "Trip"},
		{"id": "al2", "albumName": "Empty"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("(-want +got):\n%s", diff)
	}

	assets, err := ProjectAlbums(albums[1:], []string{"assets"})
	if err != nil {
		t.Fatalf("ProjectAlbums: %v", err)
	}
	if list := assets.([]AlbumDTO)[0]["assets"].([]entities.Asset); list == nil || len(list) != 0 {
		t.Errorf("assets of an empty album should be an empty list, got %#v", list)
	}

	if _, err := ProjectAlbums(albums, []string{"owner"}); entities.ErrorCode(err) != entities.CodeConfiguration {
		t.Errorf("expected configuration error, got %v", err)
	}

	same, _ := ProjectAlbums(albums, nil)
	if diff := cmp.Diff(albums, same); diff != "" {
		t.Errorf("no keys should keep albums (-want +got):\n%s", diff)
	}
}

func TestToRunDTO(t *testing.T) {
	start := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	end := start.Add(90 * time.Second)
	run := &entities.Run{
		ID:        "r1",
		Command:   entities.CommandDedup,
		Status:    entities.RunStatusCompleted,
		Counters:  map[string]int{"processed": 3},
		Errors:    []string{"g1: boom"},
		StartTime: start,
		EndTime:   &end,
	}
	dto := ToRunDTO(run)
	if dto.Duration != "1.5m" || dto.ErrorCount != 1 || dto.Counters["processed"] != 3 {
		t.Errorf("unexpected dto %+v", dto)
	}
	if ToRunDTO(nil) != nil {
		t.Errorf("nil run should give nil dto")
	}
}
