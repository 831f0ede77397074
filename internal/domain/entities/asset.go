package entities

import (
	"strings"
	"time"
)

// Visibility is the lifecycle flag of an asset on the photo server
type Visibility string

// Visibility constants
const (
	VisibilityTimeline Visibility = "timeline"
	VisibilityArchive  Visibility = "archive"
	VisibilityHidden   Visibility = "hidden"
	VisibilityLocked   Visibility = "locked"
)

// ExifInfo holds the subset of EXIF metadata the curator ranks on.
// Every field may be absent or null on the wire.
type ExifInfo struct {
	ExifImageWidth   *int       `json:"exifImageWidth,omitempty"`
	ExifImageHeight  *int       `json:"exifImageHeight,omitempty"`
	FileSizeInByte   *int64     `json:"fileSizeInByte,omitempty"`
	DateTimeOriginal *time.Time `json:"dateTimeOriginal,omitempty"`
	Make             string     `json:"make,omitempty"`
	Model            string     `json:"model,omitempty"`
}

// Asset represents a single photo or video record managed by the photo server
type Asset struct {
	ID               string     `json:"id"`
	DeviceID         string     `json:"deviceId,omitempty"`
	OwnerID          string     `json:"ownerId,omitempty"`
	LibraryID        string     `json:"libraryId,omitempty"`
	Type             string     `json:"type,omitempty"`
	OriginalPath     string     `json:"originalPath"`
	OriginalFileName string     `json:"originalFileName,omitempty"`
	Visibility       Visibility `json:"visibility"`
	DuplicateID      string     `json:"duplicateId,omitempty"`
	IsFavorite       bool       `json:"isFavorite,omitempty"`
	ExifInfo         *ExifInfo  `json:"exifInfo,omitempty"`
}

// PixelArea returns width*height from EXIF, or 0 when either is missing
func (a *Asset) PixelArea() int64 {
	if a.ExifInfo == nil || a.ExifInfo.ExifImageWidth == nil || a.ExifInfo.ExifImageHeight == nil {
		return 0
	}
	w, h := *a.ExifInfo.ExifImageWidth, *a.ExifInfo.ExifImageHeight
	if w <= 0 || h <= 0 {
		return 0
	}
	return int64(w) * int64(h)
}

// ByteSize returns the EXIF file size, or 0 when missing
func (a *Asset) ByteSize() int64 {
	if a.ExifInfo == nil || a.ExifInfo.FileSizeInByte == nil || *a.ExifInfo.FileSizeInByte < 0 {
		return 0
	}
	return *a.ExifInfo.FileSizeInByte
}

// IsLive returns true if the asset is shown on the main timeline
func (a *Asset) IsLive() bool {
	return a.Visibility == VisibilityTimeline
}

// IsArchived returns true if the asset is archived
func (a *Asset) IsArchived() bool {
	return a.Visibility == VisibilityArchive
}

// PathPrefix returns the first three slash-separated segments of the original path
func (a *Asset) PathPrefix() string {
	return PathPrefix(a.OriginalPath)
}

// Folder returns the directory holding the original file
func (a *Asset) Folder() string {
	i := strings.LastIndex(a.OriginalPath, "/")
	if i < 0 {
		return ""
	}
	return a.OriginalPath[:i]
}

// AssetSearch is the filter for a metadata search on the photo server
type AssetSearch struct {
	LibraryID string   `json:"libraryId,omitempty"`
	DeviceID  string   `json:"deviceId,omitempty"`
	PersonIDs []string `json:"personIds,omitempty"`
}

// AssetIDs collects the ids of the given assets
func AssetIDs(assets []Asset) []string {
	ids := make([]string, 0, len(assets))
	for _, a := range assets {
		ids = append(ids, a.ID)
	}
	return ids
}
