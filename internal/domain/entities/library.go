package entities

import "strings"

// UploadLibraryName names the pseudo-library holding assets uploaded from devices
const UploadLibraryName = "upload"

// Library represents an external library configured on the photo server
type Library struct {
	ID                string   `json:"id"`
	Name              string   `json:"name"`
	OwnerID           string   `json:"ownerId,omitempty"`
	ImportPaths       []string `json:"importPaths"`
	ExclusionPatterns []string `json:"exclusionPatterns"`
	AssetCount        int      `json:"assetCount,omitempty"`

	// Virtual is set on the synthesized upload pseudo-library
	Virtual bool `json:"virtual,omitempty"`
}

// NewUploadLibrary creates the pseudo-library for assets without a formal library,
// identified by the uploading device id
func NewUploadLibrary(deviceID string) Library {
	return Library{
		ID:                deviceID,
		Name:              UploadLibraryName,
		ImportPaths:       []string{},
		ExclusionPatterns: []string{},
		Virtual:           true,
	}
}

// ImportsFolder returns true if one of the import paths contains the folder
func (l *Library) ImportsFolder(folder string) bool {
	abs := "/" + TrimFolder(folder)
	for _, importPath := range l.ImportPaths {
		if HasPathPrefix(abs, importPath) {
			return true
		}
	}
	return false
}

// ExcludesFolder returns true if an existing exclusion pattern already mentions the folder
func (l *Library) ExcludesFolder(folder string) bool {
	folder = TrimFolder(folder)
	for _, pattern := range l.ExclusionPatterns {
		if strings.Contains(pattern, folder) {
			return true
		}
	}
	return false
}

// FolderExclusionPattern returns the glob that excludes a folder tree from future scans
func FolderExclusionPattern(folder string) string {
	return "/" + TrimFolder(folder) + "/**"
}
