package usecases

import (
	"context"
	"fmt"

	"k8s.io/klog/v2"

	"immich-curator/internal/domain/entities"
	"immich-curator/internal/domain/services"
)

const (
	selectAssetFaces = `SELECT * FROM asset_faces WHERE "assetId" = $1`
	updateFacePerson = `UPDATE asset_faces SET "personId" = $1 WHERE "id" = $2`
)

// FaceCorrectionUseCase moves recognized faces from one person to another
// directly in the photo server's database
type FaceCorrectionUseCase struct {
	directory services.AssetDirectory
	queries   services.QueryService
	recorder  *RunRecorder
}

// NewFaceCorrectionUseCase creates a new face correction use case
func NewFaceCorrectionUseCase(directory services.AssetDirectory, queries services.QueryService, recorder *RunRecorder) *FaceCorrectionUseCase {
	return &FaceCorrectionUseCase{
		directory: directory,
		queries:   queries,
		recorder:  recorder,
	}
}

// ReassignFacesRequest represents the request for moving faces between people
type ReassignFacesRequest struct {
	AssetID string `json:"assetId"`
	From    string `json:"from"`
	To      string `json:"to"`
	DryRun  bool   `json:"dryRun"`
}

// ReassignFacesResponse represents the response for moving faces between people
type ReassignFacesResponse struct {
	RunID      string `json:"runId"`
	AssetID    string `json:"assetId"`
	FromID     string `json:"fromId"`
	ToID       string `json:"toId"`
	DryRun     bool   `json:"dryRun"`
	Reassigned int    `json:"reassigned"`
}

// ReassignFaces updates every face of the asset attributed to From so it
// points at To, returning how many face rows changed
func (uc *FaceCorrectionUseCase) ReassignFaces(ctx context.Context, req *ReassignFacesRequest) (*ReassignFacesResponse, error) {
	if uc.queries == nil {
		return nil, &entities.ConfigurationError{Field: "database", Reason: "no database configured"}
	}

	run := uc.recorder.Start(ctx, entities.CommandReassign, req.DryRun)
	response, err := uc.reassign(ctx, req, run)
	uc.recorder.Finish(ctx, run, err)
	if err != nil {
		return nil, err
	}
	return response, nil
}

func (uc *FaceCorrectionUseCase) reassign(ctx context.Context, req *ReassignFacesRequest, run *entities.Run) (*ReassignFacesResponse, error) {
	fromID, err := uc.findPersonID(ctx, req.From)
	if err != nil {
		return nil, err
	}
	toID, err := uc.findPersonID(ctx, req.To)
	if err != nil {
		return nil, err
	}

	rows, err := uc.queries.Query(ctx, selectAssetFaces, req.AssetID)
	if err != nil {
		return nil, fmt.Errorf("failed to read faces of asset %s: %w", req.AssetID, err)
	}

	response := &ReassignFacesResponse{
		RunID:   run.ID,
		AssetID: req.AssetID,
		FromID:  fromID,
		ToID:    toID,
		DryRun:  req.DryRun,
	}
	for _, face := range services.IndexRows(rows, "personId")[fromID] {
		if req.DryRun {
			klog.Infof("[dry-run] face %s: %s -> %s", face["id"], req.From, req.To)
			response.Reassigned++
			continue
		}

		n, err := uc.queries.Exec(ctx, updateFacePerson, toID, face["id"])
		if err != nil {
			return response, fmt.Errorf("failed to reassign face %s: %w", face["id"], err)
		}
		if n > 0 {
			response.Reassigned++
			run.AddAction("reassign_face", face["id"], fromID+"->"+toID)
		}
	}
	run.Count("reassigned", response.Reassigned)

	klog.Infof("👤 reassigned %d faces of asset %s from %s to %s", response.Reassigned, req.AssetID, req.From, req.To)
	return response, nil
}

func (uc *FaceCorrectionUseCase) findPersonID(ctx context.Context, name string) (string, error) {
	people, err := uc.directory.SearchPeople(ctx, name)
	if err != nil {
		return "", fmt.Errorf("failed to search person %s: %w", name, err)
	}
	if len(people) == 0 || people[0].ID == "" {
		return "", &entities.NotFoundError{Kind: "person", ID: name}
	}
	return people[0].ID, nil
}
