package usecases

import (
	"context"
	"fmt"

	"k8s.io/klog/v2"

	"immich-curator/internal/domain/entities"
	"immich-curator/internal/domain/services"
)

// LibraryQueriesUseCase answers read-only questions about libraries and
// the duplicate coverage of their assets
type LibraryQueriesUseCase struct {
	directory      services.AssetDirectory
	index          *DuplicateIndex
	uploadDeviceID string
}

// NewLibraryQueriesUseCase creates a new library queries use case. Assets
// without a library are attributed to the upload pseudo-library keyed by
// uploadDeviceID; an empty id disables it.
func NewLibraryQueriesUseCase(directory services.AssetDirectory, index *DuplicateIndex, uploadDeviceID string) *LibraryQueriesUseCase {
	return &LibraryQueriesUseCase{
		directory:      directory,
		index:          index,
		uploadDeviceID: uploadDeviceID,
	}
}

// ListLibrariesRequest represents the request for listing libraries
type ListLibrariesRequest struct {
	IncludeUploads bool `json:"includeUploads"`
	One            bool `json:"one"`
}

// SingleStoredAsset is an asset with no copy anywhere else
type SingleStoredAsset struct {
	Library string         `json:"library"`
	Asset   entities.Asset `json:"asset"`
}

// ListLibraries returns the server's libraries, optionally followed by the
// upload pseudo-library. With One only the first library is returned.
func (uc *LibraryQueriesUseCase) ListLibraries(ctx context.Context, req *ListLibrariesRequest) ([]entities.Library, error) {
	var (
		libraries []entities.Library
		err       error
	)
	if req.IncludeUploads {
		libraries, err = uc.allLibraries(ctx)
	} else {
		libraries, err = uc.directory.Libraries(ctx)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list libraries: %w", err)
	}

	if req.One && len(libraries) > 1 {
		libraries = libraries[:1]
	}
	return libraries, nil
}

// SingleStoredAssets finds every asset, across all libraries and uploads, that
// belongs to no duplicate group
func (uc *LibraryQueriesUseCase) SingleStoredAssets(ctx context.Context) ([]SingleStoredAsset, error) {
	libraries, err := uc.allLibraries(ctx)
	if err != nil {
		return nil, err
	}

	result := []SingleStoredAsset{}
	for i := range libraries {
		library := &libraries[i]
		assets, err := uc.libraryAssets(ctx, library)
		if err != nil {
			return nil, err
		}
		for j := range assets {
			_, grouped, err := uc.index.GroupOf(ctx, &assets[j])
			if err != nil {
				return nil, err
			}
			if !grouped {
				result = append(result, SingleStoredAsset{Library: library.Name, Asset: assets[j]})
			}
		}
		klog.V(1).Infof("library %s: %d assets scanned", library.Name, len(assets))
	}
	return result, nil
}

// AssetsNotInLibrary finds assets of every other library that have no copy in
// the target library
func (uc *LibraryQueriesUseCase) AssetsNotInLibrary(ctx context.Context, targetLibraryID string) ([]entities.Asset, error) {
	if targetLibraryID == "" {
		return nil, &entities.ConfigurationError{Field: "libraryId", Reason: "target library is required"}
	}

	libraries, err := uc.allLibraries(ctx)
	if err != nil {
		return nil, err
	}

	found := false
	for _, library := range libraries {
		if library.ID == targetLibraryID {
			found = true
			break
		}
	}
	if !found {
		return nil, &entities.NotFoundError{Kind: "library", ID: targetLibraryID}
	}

	missing := []entities.Asset{}
	for i := range libraries {
		library := &libraries[i]
		if library.ID == targetLibraryID {
			continue
		}

		assets, err := uc.libraryAssets(ctx, library)
		if err != nil {
			return nil, err
		}
		for j := range assets {
			group, grouped, err := uc.index.GroupOf(ctx, &assets[j])
			if err != nil {
				return nil, err
			}
			if !grouped || !uc.groupHasLibrary(group, targetLibraryID) {
				missing = append(missing, assets[j])
			}
		}
	}
	return missing, nil
}

// Subdirs lists the first-level folders directly below path
func (uc *LibraryQueriesUseCase) Subdirs(ctx context.Context, path string) ([]string, error) {
	return uc.index.Subdirs(ctx, path)
}

func (uc *LibraryQueriesUseCase) groupHasLibrary(group *entities.DuplicateGroup, libraryID string) bool {
	for _, id := range group.LibraryIDs() {
		if id == "" {
			id = uc.uploadDeviceID
		}
		if id == libraryID {
			return true
		}
	}
	return false
}

func (uc *LibraryQueriesUseCase) allLibraries(ctx context.Context) ([]entities.Library, error) {
	libraries, err := uc.directory.Libraries(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list libraries: %w", err)
	}
	if uc.uploadDeviceID != "" {
		libraries = append(libraries, entities.NewUploadLibrary(uc.uploadDeviceID))
	}
	return libraries, nil
}

func (uc *LibraryQueriesUseCase) libraryAssets(ctx context.Context, library *entities.Library) ([]entities.Asset, error) {
	filter := entities.AssetSearch{LibraryID: library.ID}
	if library.Virtual {
		filter = entities.AssetSearch{DeviceID: library.ID}
	}
	assets, err := uc.directory.SearchAssets(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to search assets of library %s: %w", library.Name, err)
	}
	return assets, nil
}
