package controllers

import (
	"context"

	"immich-curator/internal/interfaces/cli"
	"immich-curator/internal/interfaces/presenters"
	"immich-curator/internal/usecases"
)

// AlbumController handles album lookups and album maintenance
type AlbumController struct {
	assetLookupUseCase      *usecases.AssetLookupUseCase
	albumMaintenanceUseCase *usecases.AlbumMaintenanceUseCase
}

// NewAlbumController creates a new album controller
func NewAlbumController(assetLookupUseCase *usecases.AssetLookupUseCase, albumMaintenanceUseCase *usecases.AlbumMaintenanceUseCase) *AlbumController {
	return &AlbumController{
		assetLookupUseCase:      assetLookupUseCase,
		albumMaintenanceUseCase: albumMaintenanceUseCase,
	}
}

// GetAlbums handles "get album"
func (c *AlbumController) GetAlbums(ctx context.Context, cmd cli.GetAlbums) (interface{}, error) {
	albums, err := c.assetLookupUseCase.GetAlbums(ctx, cmd.Names)
	if err != nil {
		return nil, err
	}
	if cmd.One && len(albums) > 1 {
		albums = albums[:1]
	}
	return presenters.ProjectAlbums(albums, cmd.Keys)
}

// ListAlbums handles "list album"
func (c *AlbumController) ListAlbums(ctx context.Context, cmd cli.ListAlbums) (interface{}, error) {
	albums, err := c.assetLookupUseCase.ListAlbums(ctx, cmd.Names)
	if err != nil {
		return nil, err
	}
	return presenters.ProjectAlbums(albums, cmd.Keys)
}

// HideAlbum handles "album hide"
func (c *AlbumController) HideAlbum(ctx context.Context, cmd cli.HideAlbum, dryRun bool) (interface{}, error) {
	return c.albumMaintenanceUseCase.HideAlbum(ctx, &usecases.HideAlbumRequest{Name: cmd.AlbumName, DryRun: dryRun})
}

// ExportAlbum handles "album export"
func (c *AlbumController) ExportAlbum(ctx context.Context, cmd cli.ExportAlbum, dryRun bool) (interface{}, error) {
	return c.albumMaintenanceUseCase.ExportAlbum(ctx, &usecases.ExportAlbumRequest{
		Name:        cmd.AlbumName,
		Destination: cmd.Destination,
		DryRun:      dryRun,
	})
}
