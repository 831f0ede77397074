package controllers

import (
	"context"

	"immich-curator/internal/interfaces/cli"
	"immich-curator/internal/usecases"
)

// DuplicateController runs duplicate resolution
type DuplicateController struct {
	duplicateResolutionUseCase *usecases.DuplicateResolutionUseCase
	failFast                   bool
}

// NewDuplicateController creates a new duplicate controller
func NewDuplicateController(duplicateResolutionUseCase *usecases.DuplicateResolutionUseCase, failFast bool) *DuplicateController {
	return &DuplicateController{
		duplicateResolutionUseCase: duplicateResolutionUseCase,
		failFast:                   failFast,
	}
}

// Dedup handles the dedup command
func (c *DuplicateController) Dedup(ctx context.Context, _ cli.Dedup, dryRun bool) (interface{}, error) {
	response, err := c.duplicateResolutionUseCase.Dedup(ctx, &usecases.DedupRequest{
		DryRun:   dryRun,
		FailFast: c.failFast,
	})
	if err != nil {
		return nil, err
	}
	return response, nil
}
