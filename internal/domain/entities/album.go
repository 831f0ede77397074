package entities

import "time"

// Album represents a named collection of assets on the photo server.
// Assets is only populated by detail lookups.
type Album struct {
	ID          string    `json:"id"`
	AlbumName   string    `json:"albumName"`
	Description string    `json:"description,omitempty"`
	OwnerID     string    `json:"ownerId,omitempty"`
	AssetCount  int       `json:"assetCount"`
	Assets      []Asset   `json:"assets,omitempty"`
	CreatedAt   time.Time `json:"createdAt,omitempty"`
}

// AlbumKeys are the album fields that can be projected on output
var AlbumKeys = []string{"assets", "id", "albumName"}

// Field returns the value of a projectable album field
func (a *Album) Field(key string) (interface{}, bool) {
	switch key {
	case "assets":
		if a.Assets == nil {
			return []Asset{}, true
		}
		return a.Assets, true
	case "id":
		return a.ID, true
	case "albumName":
		return a.AlbumName, true
	default:
		return nil, false
	}
}

// Person represents a recognized person on the photo server
type Person struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}
