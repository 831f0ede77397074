package controllers

import (
	"context"

	"immich-curator/internal/interfaces/cli"
	"immich-curator/internal/usecases"
)

// DatabaseController handles commands that go through the photo server's database
type DatabaseController struct {
	faceCorrectionUseCase *usecases.FaceCorrectionUseCase
	queryConsoleUseCase   *usecases.QueryConsoleUseCase
}

// NewDatabaseController creates a new database controller
func NewDatabaseController(faceCorrectionUseCase *usecases.FaceCorrectionUseCase, queryConsoleUseCase *usecases.QueryConsoleUseCase) *DatabaseController {
	return &DatabaseController{
		faceCorrectionUseCase: faceCorrectionUseCase,
		queryConsoleUseCase:   queryConsoleUseCase,
	}
}

// ReassignFaces handles "person reassign"
func (c *DatabaseController) ReassignFaces(ctx context.Context, cmd cli.ReassignFaces, dryRun bool) (interface{}, error) {
	return c.faceCorrectionUseCase.ReassignFaces(ctx, &usecases.ReassignFacesRequest{
		AssetID: cmd.AssetID,
		From:    cmd.From,
		To:      cmd.To,
		DryRun:  dryRun,
	})
}

// RunQuery handles "db"
func (c *DatabaseController) RunQuery(ctx context.Context, cmd cli.RunQuery) (interface{}, error) {
	return c.queryConsoleUseCase.Run(ctx, &usecases.RunQueryRequest{SQL: cmd.SQL, Index: cmd.Index})
}
