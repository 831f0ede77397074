package usecases

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"k8s.io/klog/v2"

	"immich-curator/internal/domain/entities"
	"immich-curator/internal/domain/services"
)

// DuplicateIndex memoizes the photo server's duplicate groups and folder list
// for the lifetime of one command.
type DuplicateIndex struct {
	directory services.AssetDirectory

	mu      sync.Mutex
	groups  []entities.DuplicateGroup
	byID    map[string]int
	byAsset map[string]int
	folders []string
}

// NewDuplicateIndex creates an index backed by the given directory
func NewDuplicateIndex(directory services.AssetDirectory) *DuplicateIndex {
	return &DuplicateIndex{directory: directory}
}

// Groups returns every duplicate group, fetching them once
func (ix *DuplicateIndex) Groups(ctx context.Context) ([]entities.DuplicateGroup, error) {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	if err := ix.loadGroupsLocked(ctx); err != nil {
		return nil, err
	}
	return ix.groups, nil
}

func (ix *DuplicateIndex) loadGroupsLocked(ctx context.Context) error {
	if ix.byID != nil {
		return nil
	}

	groups, err := ix.directory.Duplicates(ctx)
	if err != nil {
		return fmt.Errorf("failed to fetch duplicate groups: %w", err)
	}

	byID := make(map[string]int, len(groups))
	byAsset := make(map[string]int)
	for i, group := range groups {
		byID[group.DuplicateID] = i
		if group.Count() < 2 {
			klog.V(1).Infof("duplicate group %s has %d asset(s)", group.DuplicateID, group.Count())
		}
		for _, asset := range group.Assets {
			if prev, ok := byAsset[asset.ID]; ok {
				klog.Warningf("⚠️ asset %s is in duplicate groups %s and %s, keeping the first",
					asset.ID, groups[prev].DuplicateID, group.DuplicateID)
				continue
			}
			byAsset[asset.ID] = i
		}
	}

	klog.V(1).Infof("indexed %d duplicate groups covering %d assets", len(groups), len(byAsset))
	ix.groups, ix.byID, ix.byAsset = groups, byID, byAsset
	return nil
}

// GroupOf returns the duplicate group holding the asset, matched by duplicateId
// first and by asset id when the asset record carries no duplicateId.
func (ix *DuplicateIndex) GroupOf(ctx context.Context, asset *entities.Asset) (*entities.DuplicateGroup, bool, error) {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	if err := ix.loadGroupsLocked(ctx); err != nil {
		return nil, false, err
	}

	if asset.DuplicateID != "" {
		if i, ok := ix.byID[asset.DuplicateID]; ok {
			return &ix.groups[i], true, nil
		}
	}
	if i, ok := ix.byAsset[asset.ID]; ok {
		return &ix.groups[i], true, nil
	}
	return nil, false, nil
}

// DuplicatesOf returns the other members of the asset's duplicate group
func (ix *DuplicateIndex) DuplicatesOf(ctx context.Context, asset *entities.Asset) ([]entities.Asset, error) {
	group, ok, err := ix.GroupOf(ctx, asset)
	if err != nil || !ok {
		return nil, err
	}
	return group.GetAssetsExcept(asset.ID), nil
}

// Folders returns every folder holding asset originals, normalized without
// leading or trailing slashes
func (ix *DuplicateIndex) Folders(ctx context.Context) ([]string, error) {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	if ix.folders != nil {
		return ix.folders, nil
	}

	paths, err := ix.directory.UniqueOriginalPaths(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch folder list: %w", err)
	}

	seen := make(map[string]bool, len(paths))
	folders := make([]string, 0, len(paths))
	for _, p := range paths {
		f := entities.TrimFolder(p)
		if f == "" || seen[f] {
			continue
		}
		seen[f] = true
		folders = append(folders, f)
	}
	sort.Strings(folders)

	ix.folders = folders
	return folders, nil
}

// FoldersUnder returns the known folders at or below path
func (ix *DuplicateIndex) FoldersUnder(ctx context.Context, path string) ([]string, error) {
	folders, err := ix.Folders(ctx)
	if err != nil {
		return nil, err
	}

	var under []string
	for _, folder := range folders {
		if entities.IsUnderFolder(folder, path) {
			under = append(under, folder)
		}
	}
	return under, nil
}

// AssetsUnderPath returns every asset in the folder tree rooted at path
func (ix *DuplicateIndex) AssetsUnderPath(ctx context.Context, path string) ([]entities.Asset, error) {
	folders, err := ix.FoldersUnder(ctx, path)
	if err != nil {
		return nil, err
	}

	var assets []entities.Asset
	for _, folder := range folders {
		folderAssets, err := ix.directory.AssetsByOriginalPath(ctx, folder)
		if err != nil {
			return nil, fmt.Errorf("failed to list assets in %s: %w", folder, err)
		}
		assets = append(assets, folderAssets...)
	}
	return assets, nil
}

// Subdirs returns the distinct first-level folder names directly below path
func (ix *DuplicateIndex) Subdirs(ctx context.Context, path string) ([]string, error) {
	folders, err := ix.Folders(ctx)
	if err != nil {
		return nil, err
	}

	root := entities.TrimFolder(path)
	seen := make(map[string]bool)
	subs := []string{}
	for _, folder := range folders {
		var rest string
		switch {
		case root == "":
			rest = folder
		case strings.HasPrefix(folder, root+"/"):
			rest = folder[len(root)+1:]
		default:
			continue
		}
		name := strings.SplitN(rest, "/", 2)[0]
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		subs = append(subs, name)
	}
	sort.Strings(subs)
	return subs, nil
}
