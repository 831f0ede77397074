package controllers

import (
	"context"

	"immich-curator/internal/interfaces/cli"
	"immich-curator/internal/interfaces/presenters"
	"immich-curator/internal/usecases"
)

// LibraryController handles asset and library lookups
type LibraryController struct {
	assetLookupUseCase    *usecases.AssetLookupUseCase
	libraryQueriesUseCase *usecases.LibraryQueriesUseCase
}

// NewLibraryController creates a new library controller
func NewLibraryController(assetLookupUseCase *usecases.AssetLookupUseCase, libraryQueriesUseCase *usecases.LibraryQueriesUseCase) *LibraryController {
	return &LibraryController{
		assetLookupUseCase:    assetLookupUseCase,
		libraryQueriesUseCase: libraryQueriesUseCase,
	}
}

// GetAssets handles "get asset"
func (c *LibraryController) GetAssets(ctx context.Context, cmd cli.GetAssets) (interface{}, error) {
	return c.assetLookupUseCase.GetAssets(ctx, cmd.IDs, cmd.One)
}

// GetLibraries handles "get library"
func (c *LibraryController) GetLibraries(ctx context.Context, cmd cli.GetLibraries) (interface{}, error) {
	return c.assetLookupUseCase.GetLibraries(ctx, cmd.IDs, cmd.One)
}

// ListLibraries handles "list library"
func (c *LibraryController) ListLibraries(ctx context.Context, cmd cli.ListLibraries) (interface{}, error) {
	return c.libraryQueriesUseCase.ListLibraries(ctx, &usecases.ListLibrariesRequest{
		IncludeUploads: cmd.IncludeUploads,
		One:            cmd.One,
	})
}

// SingleStored handles "list single-stored"
func (c *LibraryController) SingleStored(ctx context.Context, _ cli.ListSingleStored) (interface{}, error) {
	return c.libraryQueriesUseCase.SingleStoredAssets(ctx)
}

// NotInLibrary handles "list not-in-library"
func (c *LibraryController) NotInLibrary(ctx context.Context, cmd cli.ListNotInLibrary) (interface{}, error) {
	return c.libraryQueriesUseCase.AssetsNotInLibrary(ctx, cmd.LibraryID)
}

// Subdirs handles "list subdirs"
func (c *LibraryController) Subdirs(ctx context.Context, cmd cli.ListSubdirs) (interface{}, error) {
	folders, err := c.libraryQueriesUseCase.Subdirs(ctx, cmd.Path)
	if err != nil {
		return nil, err
	}
	return presenters.ToFolderListDTO(cmd.Path, folders), nil
}
