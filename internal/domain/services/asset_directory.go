package services

import (
	"context"

	"immich-curator/internal/domain/entities"
)

// AssetDirectory defines the interface for the photo server holding assets, albums and libraries.
// Implementations surface failures as entities.NotFoundError or entities.CollaboratorError.
type AssetDirectory interface {
	// Duplicates
	Duplicates(ctx context.Context) ([]entities.DuplicateGroup, error)

	// Folder view
	UniqueOriginalPaths(ctx context.Context) ([]string, error)
	AssetsByOriginalPath(ctx context.Context, folder string) ([]entities.Asset, error)

	// Asset operations
	Asset(ctx context.Context, assetID string) (*entities.Asset, error)
	UpdateAssetVisibility(ctx context.Context, assetIDs []string, visibility entities.Visibility) error
	SearchAssets(ctx context.Context, filter entities.AssetSearch) ([]entities.Asset, error)

	// Album operations
	Albums(ctx context.Context) ([]entities.Album, error)
	AlbumsContaining(ctx context.Context, assetID string) ([]entities.Album, error)
	Album(ctx context.Context, albumID string) (*entities.Album, error)
	CreateAlbum(ctx context.Context, name string, assetIDs []string) (*entities.Album, error)
	AddAssetsToAlbum(ctx context.Context, albumID string, assetIDs []string) error
	RemoveAssetsFromAlbum(ctx context.Context, albumID string, assetIDs []string) error

	// Library operations
	Libraries(ctx context.Context) ([]entities.Library, error)
	Library(ctx context.Context, libraryID string) (*entities.Library, error)
	UpdateLibraryExclusions(ctx context.Context, libraryID string, patterns []string) error

	// People
	SearchPeople(ctx context.Context, name string) ([]entities.Person, error)
}
