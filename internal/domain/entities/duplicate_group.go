package entities

// DuplicateGroup represents a set of assets the photo server believes are copies of the same photo
type DuplicateGroup struct {
	DuplicateID string  `json:"duplicateId"`
	Assets      []Asset `json:"assets"`
}

// Count returns the number of assets in the group
func (dg *DuplicateGroup) Count() int {
	return len(dg.Assets)
}

// GetAssetsExcept returns all assets in the group except the one with the given ID
func (dg *DuplicateGroup) GetAssetsExcept(excludeAssetID string) []Asset {
	var result []Asset
	for _, asset := range dg.Assets {
		if asset.ID != excludeAssetID {
			result = append(result, asset)
		}
	}
	return result
}

// LibraryIDs returns the distinct library ids present in the group
func (dg *DuplicateGroup) LibraryIDs() []string {
	seen := make(map[string]bool)
	var ids []string
	for _, asset := range dg.Assets {
		if seen[asset.LibraryID] {
			continue
		}
		seen[asset.LibraryID] = true
		ids = append(ids, asset.LibraryID)
	}
	return ids
}
