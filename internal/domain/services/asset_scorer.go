package services

import (
	"sort"
	"strings"

	"immich-curator/internal/domain/entities"
)

// PathPriorityTable is an ordered list of path prefixes, most trusted first
type PathPriorityTable []string

// Rank returns len(table) - index of the first prefix matching the asset path's
// three-segment prefix, or 0 when nothing matches.
func (t PathPriorityTable) Rank(path string) int {
	pfx := entities.PathPrefix(path)
	for i, prefix := range t {
		if entities.HasPathPrefix(pfx, prefix) {
			return len(t) - i
		}
	}
	return 0
}

// Score is the ordered quality tuple of an asset. Higher sorts first.
type Score struct {
	PixelArea int64  `json:"pixelArea"`
	ByteSize  int64  `json:"byteSize"`
	PathRank  int    `json:"pathRank"`
	ID        string `json:"id"`
}

// Compare orders scores lexicographically: area, size, path rank, then id
func (s Score) Compare(o Score) int {
	switch {
	case s.PixelArea != o.PixelArea:
		return cmpInt64(s.PixelArea, o.PixelArea)
	case s.ByteSize != o.ByteSize:
		return cmpInt64(s.ByteSize, o.ByteSize)
	case s.PathRank != o.PathRank:
		return cmpInt64(int64(s.PathRank), int64(o.PathRank))
	default:
		return strings.Compare(s.ID, o.ID)
	}
}

func cmpInt64(a, b int64) int {
	if a < b {
		return -1
	}
	if a > b {
		return 1
	}
	return 0
}

// AssetScorer ranks the members of a duplicate group by quality
type AssetScorer struct {
	priorities PathPriorityTable
}

// NewAssetScorer creates a scorer using the given path priority table
func NewAssetScorer(priorities []string) *AssetScorer {
	return &AssetScorer{priorities: append(PathPriorityTable(nil), priorities...)}
}

// Score computes the quality tuple of one asset
func (s *AssetScorer) Score(asset *entities.Asset) Score {
	return Score{
		PixelArea: asset.PixelArea(),
		ByteSize:  asset.ByteSize(),
		PathRank:  s.priorities.Rank(asset.OriginalPath),
		ID:        asset.ID,
	}
}

// Rank returns a new slice of the assets, best quality first.
// The input slice is left untouched.
func (s *AssetScorer) Rank(assets []entities.Asset) []entities.Asset {
	type scored struct {
		asset entities.Asset
		score Score
	}
	items := make([]scored, len(assets))
	for i := range assets {
		items[i] = scored{asset: assets[i], score: s.Score(&assets[i])}
	}
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].score.Compare(items[j].score) > 0
	})

	ranked := make([]entities.Asset, len(items))
	for i, item := range items {
		ranked[i] = item.asset
	}
	return ranked
}
