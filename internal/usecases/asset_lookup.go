package usecases

import (
	"context"
	"fmt"

	"k8s.io/klog/v2"

	"immich-curator/internal/domain/entities"
	"immich-curator/internal/domain/services"
)

// AssetLookupUseCase fetches assets, libraries and albums by id or name
type AssetLookupUseCase struct {
	directory services.AssetDirectory
}

// NewAssetLookupUseCase creates a new asset lookup use case
func NewAssetLookupUseCase(directory services.AssetDirectory) *AssetLookupUseCase {
	return &AssetLookupUseCase{directory: directory}
}

// AssetResult is one entry of a batch asset lookup
type AssetResult struct {
	ID    string          `json:"id"`
	Asset *entities.Asset `json:"asset,omitempty"`
	Error string          `json:"error,omitempty"`
	Code  string          `json:"code,omitempty"`
}

// LibraryResult is one entry of a batch library lookup
type LibraryResult struct {
	ID      string            `json:"id"`
	Library *entities.Library `json:"library,omitempty"`
	Error   string            `json:"error,omitempty"`
	Code    string            `json:"code,omitempty"`
}

// GetAssets fetches each asset independently; a failed id becomes an error
// entry and the batch goes on. With one, only the first successful entry is
// returned, or the first entry when every lookup failed.
func (uc *AssetLookupUseCase) GetAssets(ctx context.Context, ids []string, one bool) ([]AssetResult, error) {
	if len(ids) == 0 {
		return nil, &entities.ConfigurationError{Field: "ids", Reason: "no asset to get"}
	}

	results := make([]AssetResult, 0, len(ids))
	for _, id := range ids {
		asset, err := uc.directory.Asset(ctx, id)
		if err != nil {
			klog.Warningf("⚠️ failed to fetch asset %s: %v", id, err)
			results = append(results, AssetResult{
				ID:    id,
				Error: fmt.Sprintf("failed to fetch asset %s: %v", id, err),
				Code:  entities.ErrorCode(err),
			})
			continue
		}
		results = append(results, AssetResult{ID: id, Asset: asset})
	}

	if one {
		for _, r := range results {
			if r.Error == "" {
				return []AssetResult{r}, nil
			}
		}
		return results[:1], nil
	}
	return results, nil
}

// GetLibraries fetches each library independently, like GetAssets
func (uc *AssetLookupUseCase) GetLibraries(ctx context.Context, ids []string, one bool) ([]LibraryResult, error) {
	if len(ids) == 0 {
		return nil, &entities.ConfigurationError{Field: "ids", Reason: "no library to get"}
	}

	results := make([]LibraryResult, 0, len(ids))
	for _, id := range ids {
		library, err := uc.directory.Library(ctx, id)
		if err != nil {
			klog.Warningf("⚠️ failed to fetch library %s: %v", id, err)
			results = append(results, LibraryResult{
				ID:    id,
				Error: fmt.Sprintf("failed to fetch library %s: %v", id, err),
				Code:  entities.ErrorCode(err),
			})
			continue
		}
		results = append(results, LibraryResult{ID: id, Library: library})
	}

	if one {
		for _, r := range results {
			if r.Error == "" {
				return []LibraryResult{r}, nil
			}
		}
		return results[:1], nil
	}
	return results, nil
}

// GetAlbums returns the full detail, assets included, of the albums with the
// given names, in server order. Unknown names are skipped.
func (uc *AssetLookupUseCase) GetAlbums(ctx context.Context, names []string) ([]entities.Album, error) {
	summaries, err := uc.ListAlbums(ctx, names)
	if err != nil {
		return nil, err
	}

	albums := make([]entities.Album, 0, len(summaries))
	for _, summary := range summaries {
		album, err := uc.directory.Album(ctx, summary.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch album %s: %w", summary.AlbumName, err)
		}
		albums = append(albums, *album)
	}
	return albums, nil
}

// ListAlbums returns the summaries of the albums with the given names,
// or of every album when no name is given
func (uc *AssetLookupUseCase) ListAlbums(ctx context.Context, names []string) ([]entities.Album, error) {
	all, err := uc.directory.Albums(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list albums: %w", err)
	}
	if len(names) == 0 {
		return append([]entities.Album{}, all...), nil
	}

	wanted := make(map[string]bool, len(names))
	for _, name := range names {
		wanted[name] = true
	}

	albums := []entities.Album{}
	for _, album := range all {
		if wanted[album.AlbumName] {
			albums = append(albums, album)
		}
	}
	return albums, nil
}

// FindAlbum returns the first album with the given name
func (uc *AssetLookupUseCase) FindAlbum(ctx context.Context, name string) (*entities.Album, error) {
	albums, err := uc.ListAlbums(ctx, []string{name})
	if err != nil {
		return nil, err
	}
	if len(albums) == 0 {
		return nil, &entities.NotFoundError{Kind: "album", ID: name}
	}
	return &albums[0], nil
}
