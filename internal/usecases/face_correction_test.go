package usecases

import (
	"context"
	"errors"
	"testing"

	"immich-curator/internal/domain/entities"
	"immich-curator/internal/domain/services"
	infra "immich-curator/internal/infrastructure/services"
)

func peopleDirectory() *infra.MemoryDirectory {
	return infra.NewMemoryDirectory(&infra.Snapshot{
		People: []entities.Person{
			{ID: "person-erica", Name: "Erica"},
			{ID: "person-max", Name: "Max"},
		},
	})
}

func TestReassignFaces(t *testing.T) {
	queries := &fakeQueryService{
		affected: 1,
		rows: []services.Row{
			{"id": "f1", "personId": "person-erica", "assetId": "a1"},
			{"id": "f2", "personId": "person-other", "assetId": "a1"},
			{"id": "f3", "personId": "person-erica", "assetId": "a1"},
		},
	}
	uc := NewFaceCorrectionUseCase(peopleDirectory(), queries, NewRunRecorder(nil))

	resp, err := uc.ReassignFaces(context.Background(), &ReassignFacesRequest{AssetID: "a1", From: "Erica", To: "Max"})
	if err != nil {
		t.Fatalf("ReassignFaces: %v", err)
	}
	if resp.Reassigned != 2 || resp.FromID != "person-erica" || resp.ToID != "person-max" {
		t.Fatalf("unexpected response %+v", resp)
	}
	if len(queries.execs) != 2 {
		t.Fatalf("got %d updates, want 2", len(queries.execs))
	}
	if got := queries.execs[0]; got[1] != "person-max" || got[2] != "f1" {
		t.Errorf("first update args = %v", got[1:])
	}
}

func TestReassignFaces_DryRunDoesNotWrite(t *testing.T) {
	queries := &fakeQueryService{rows: []services.Row{{"id": "f1", "personId": "person-erica"}}}
	uc := NewFaceCorrectionUseCase(peopleDirectory(), queries, NewRunRecorder(nil))

	resp, err := uc.ReassignFaces(context.Background(), &ReassignFacesRequest{AssetID: "a1", From: "Erica", To: "Max", DryRun: true})
	if err != nil {
		t.Fatalf("ReassignFaces: %v", err)
	}
	if resp.Reassigned != 1 || len(queries.execs) != 0 {
		t.Fatalf("dry run reassigned=%d execs=%d", resp.Reassigned, len(queries.execs))
	}
}

func TestReassignFaces_Errors(t *testing.T) {
	ctx := context.Background()

	uc := NewFaceCorrectionUseCase(peopleDirectory(), &fakeQueryService{}, nil)
	if _, err := uc.ReassignFaces(ctx, &ReassignFacesRequest{AssetID: "a1", From: "Nobody", To: "Max"}); !entities.IsNotFound(err) {
		t.Errorf("expected NotFoundError for unknown person, got %v", err)
	}

	failing := &fakeQueryService{queryErr: &entities.CollaboratorError{Service: "database", Op: "query", Err: errors.New("down")}}
	uc = NewFaceCorrectionUseCase(peopleDirectory(), failing, nil)
	if _, err := uc.ReassignFaces(ctx, &ReassignFacesRequest{AssetID: "a1", From: "Erica", To: "Max"}); entities.ErrorCode(err) != entities.CodeCollaborator {
		t.Errorf("expected collaborator error, got %v", err)
	}

	uc = NewFaceCorrectionUseCase(peopleDirectory(), nil, nil)
	if _, err := uc.ReassignFaces(ctx, &ReassignFacesRequest{AssetID: "a1", From: "Erica", To: "Max"}); entities.ErrorCode(err) != entities.CodeConfiguration {
		t.Errorf("expected configuration error without a database, got %v", err)
	}
}

func TestQueryConsole(t *testing.T) {
	ctx := context.Background()

	t.Run("select is indexed", func(t *testing.T) {
		queries := &fakeQueryService{rows: []services.Row{
			{"id": "f1", "personId": "p1"},
			{"id": "f2", "personId": "p2"},
		}}
		got, err := NewQueryConsoleUseCase(queries).Run(ctx, &RunQueryRequest{SQL: "select * from asset_faces", Index: "personId"})
		if err != nil {
			t.Fatalf("Run: %v", err)
		}
		if len(got["p1"]) != 1 || len(got["p2"]) != 1 {
			t.Fatalf("unexpected index %v", got)
		}
	})

	t.Run("update reports affected rows", func(t *testing.T) {
		queries := &fakeQueryService{affected: 3}
		got, err := NewQueryConsoleUseCase(queries).Run(ctx, &RunQueryRequest{SQL: `update asset_faces set "personId" = 'x'`})
		if err != nil {
			t.Fatalf("Run: %v", err)
		}
		if got["all"][0]["UPDATE"] != "3" {
			t.Fatalf("unexpected result %v", got)
		}
		if len(queries.queries) != 0 {
			t.Fatalf("update went through Query")
		}
	})

	t.Run("empty statement", func(t *testing.T) {
		_, err := NewQueryConsoleUseCase(&fakeQueryService{}).Run(ctx, &RunQueryRequest{SQL: "  "})
		if entities.ErrorCode(err) != entities.CodeConfiguration {
			t.Fatalf("expected configuration error, got %v", err)
		}
	})
}
