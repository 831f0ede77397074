package services

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"

	"immich-curator/internal/domain/entities"
	"immich-curator/internal/domain/services"
)

// Snapshot is an offline dump of the photo server state
type Snapshot struct {
	Duplicates []entities.DuplicateGroup `json:"duplicates"`
	Folders    []string                  `json:"folders,omitempty"`
	Assets     []entities.Asset          `json:"assets,omitempty"`
	Albums     []entities.Album          `json:"albums,omitempty"`
	Libraries  []entities.Library        `json:"libraries,omitempty"`
	People     []entities.Person         `json:"people,omitempty"`
}

// Mutation is one write issued against a MemoryDirectory
type Mutation struct {
	Op     string   `json:"op"`
	Target string   `json:"target,omitempty"`
	IDs    []string `json:"ids,omitempty"`
	Value  string   `json:"value,omitempty"`
}

type memoryAlbum struct {
	album   entities.Album
	members []string
}

// MemoryDirectory is an in-process AssetDirectory used for offline previews
// from a snapshot and for tests. Duplicate groups and folders are derived from
// the stored assets, so mutations are visible to later reads.
type MemoryDirectory struct {
	mu sync.Mutex

	assets     map[string]*entities.Asset
	assetOrder []string
	folders    map[string]bool
	albums     []*memoryAlbum
	libraries  []*entities.Library
	people     []entities.Person

	mutations []Mutation
	failures  map[string]error
}

// NewMemoryDirectory creates a directory populated from the snapshot
func NewMemoryDirectory(snapshot *Snapshot) *MemoryDirectory {
	d := &MemoryDirectory{
		assets:   make(map[string]*entities.Asset),
		folders:  make(map[string]bool),
		failures: make(map[string]error),
	}
	if snapshot == nil {
		return d
	}

	for _, group := range snapshot.Duplicates {
		for _, asset := range group.Assets {
			asset.DuplicateID = group.DuplicateID
			d.putAsset(asset)
		}
	}
	for _, asset := range snapshot.Assets {
		d.putAsset(asset)
	}
	for _, folder := range snapshot.Folders {
		if f := entities.TrimFolder(folder); f != "" {
			d.folders[f] = true
		}
	}
	for _, album := range snapshot.Albums {
		record := &memoryAlbum{album: album, members: entities.AssetIDs(album.Assets)}
		for _, asset := range album.Assets {
			d.putAsset(asset)
		}
		record.album.Assets = nil
		d.albums = append(d.albums, record)
	}
	for i := range snapshot.Libraries {
		library := snapshot.Libraries[i]
		d.libraries = append(d.libraries, &library)
	}
	d.people = append(d.people, snapshot.People...)
	return d
}

// LoadSnapshot reads a JSON snapshot file into a new MemoryDirectory
func LoadSnapshot(path string) (*MemoryDirectory, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot: %w", err)
	}

	var snapshot Snapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return nil, &entities.ConfigurationError{Field: "snapshot", Reason: fmt.Sprintf("failed to parse %s: %v", path, err)}
	}
	return NewMemoryDirectory(&snapshot), nil
}

var _ services.AssetDirectory = (*MemoryDirectory)(nil)

// putAsset stores or merges an asset; fields already known are kept when the
// new record leaves them empty
func (d *MemoryDirectory) putAsset(asset entities.Asset) {
	existing, ok := d.assets[asset.ID]
	if !ok {
		a := asset
		d.assets[asset.ID] = &a
		d.assetOrder = append(d.assetOrder, asset.ID)
		return
	}
	if asset.OriginalPath == "" {
		// bare reference, e.g. an album member listed by id only
		return
	}
	if asset.DuplicateID == "" {
		asset.DuplicateID = existing.DuplicateID
	}
	if asset.ExifInfo == nil {
		asset.ExifInfo = existing.ExifInfo
	}
	if asset.Visibility == "" {
		asset.Visibility = existing.Visibility
	}
	*existing = asset
}

// FailOn makes every later call of op return err; a nil err clears it
func (d *MemoryDirectory) FailOn(op string, err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err == nil {
		delete(d.failures, op)
		return
	}
	d.failures[op] = err
}

// Mutations returns a copy of every write issued so far
func (d *MemoryDirectory) Mutations() []Mutation {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]Mutation(nil), d.mutations...)
}

func (d *MemoryDirectory) fail(op string) error {
	if err, ok := d.failures[op]; ok {
		return &entities.CollaboratorError{Service: "memory", Op: op, Err: err}
	}
	return nil
}

func (d *MemoryDirectory) record(op, target string, ids []string, value string) {
	d.mutations = append(d.mutations, Mutation{Op: op, Target: target, IDs: append([]string(nil), ids...), Value: value})
}

// Duplicates groups the stored assets by duplicate id, in insertion order
func (d *MemoryDirectory) Duplicates(ctx context.Context) ([]entities.DuplicateGroup, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.fail("Duplicates"); err != nil {
		return nil, err
	}

	var groups []entities.DuplicateGroup
	index := make(map[string]int)
	for _, id := range d.assetOrder {
		asset := d.assets[id]
		if asset.DuplicateID == "" {
			continue
		}
		i, ok := index[asset.DuplicateID]
		if !ok {
			i = len(groups)
			index[asset.DuplicateID] = i
			groups = append(groups, entities.DuplicateGroup{DuplicateID: asset.DuplicateID})
		}
		groups[i].Assets = append(groups[i].Assets, *asset)
	}
	return groups, nil
}

// UniqueOriginalPaths returns every folder holding an asset, plus snapshot folders
func (d *MemoryDirectory) UniqueOriginalPaths(ctx context.Context) ([]string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.fail("UniqueOriginalPaths"); err != nil {
		return nil, err
	}

	seen := make(map[string]bool, len(d.folders))
	for folder := range d.folders {
		seen[folder] = true
	}
	for _, asset := range d.assets {
		if f := entities.TrimFolder(asset.Folder()); f != "" {
			seen[f] = true
		}
	}

	paths := make([]string, 0, len(seen))
	for folder := range seen {
		paths = append(paths, folder)
	}
	sort.Strings(paths)
	return paths, nil
}

// AssetsByOriginalPath returns the assets stored directly in folder
func (d *MemoryDirectory) AssetsByOriginalPath(ctx context.Context, folder string) ([]entities.Asset, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.fail("AssetsByOriginalPath"); err != nil {
		return nil, err
	}

	folder = entities.TrimFolder(folder)
	assets := []entities.Asset{}
	for _, id := range d.assetOrder {
		asset := d.assets[id]
		if entities.TrimFolder(asset.Folder()) == folder {
			assets = append(assets, *asset)
		}
	}
	return assets, nil
}

// Asset returns one asset by id
func (d *MemoryDirectory) Asset(ctx context.Context, assetID string) (*entities.Asset, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.fail("Asset"); err != nil {
		return nil, err
	}

	asset, ok := d.assets[assetID]
	if !ok {
		return nil, &entities.NotFoundError{Kind: "asset", ID: assetID}
	}
	a := *asset
	return &a, nil
}

// UpdateAssetVisibility sets the visibility of every listed asset
func (d *MemoryDirectory) UpdateAssetVisibility(ctx context.Context, assetIDs []string, visibility entities.Visibility) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.fail("UpdateAssetVisibility"); err != nil {
		return err
	}

	for _, id := range assetIDs {
		if asset, ok := d.assets[id]; ok {
			asset.Visibility = visibility
		}
	}
	d.record("UpdateAssetVisibility", "", assetIDs, string(visibility))
	return nil
}

// SearchAssets filters stored assets by library or device
func (d *MemoryDirectory) SearchAssets(ctx context.Context, filter entities.AssetSearch) ([]entities.Asset, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.fail("SearchAssets"); err != nil {
		return nil, err
	}

	assets := []entities.Asset{}
	for _, id := range d.assetOrder {
		asset := d.assets[id]
		if filter.LibraryID != "" && asset.LibraryID != filter.LibraryID {
			continue
		}
		if filter.DeviceID != "" && asset.DeviceID != filter.DeviceID {
			continue
		}
		assets = append(assets, *asset)
	}
	return assets, nil
}

func (d *MemoryDirectory) summary(record *memoryAlbum) entities.Album {
	album := record.album
	album.AssetCount = len(record.members)
	album.Assets = nil
	return album
}

// Albums returns every album without its assets
func (d *MemoryDirectory) Albums(ctx context.Context) ([]entities.Album, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.fail("Albums"); err != nil {
		return nil, err
	}

	albums := make([]entities.Album, 0, len(d.albums))
	for _, record := range d.albums {
		albums = append(albums, d.summary(record))
	}
	return albums, nil
}

// AlbumsContaining returns the albums the asset is a member of
func (d *MemoryDirectory) AlbumsContaining(ctx context.Context, assetID string) ([]entities.Album, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.fail("AlbumsContaining"); err != nil {
		return nil, err
	}

	albums := []entities.Album{}
	for _, record := range d.albums {
		for _, member := range record.members {
			if member == assetID {
				albums = append(albums, d.summary(record))
				break
			}
		}
	}
	return albums, nil
}

func (d *MemoryDirectory) findAlbum(albumID string) (*memoryAlbum, error) {
	for _, record := range d.albums {
		if record.album.ID == albumID {
			return record, nil
		}
	}
	return nil, &entities.NotFoundError{Kind: "album", ID: albumID}
}

// Album returns one album with its member assets
func (d *MemoryDirectory) Album(ctx context.Context, albumID string) (*entities.Album, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.fail("Album"); err != nil {
		return nil, err
	}

	record, err := d.findAlbum(albumID)
	if err != nil {
		return nil, err
	}
	album := d.summary(record)
	album.Assets = []entities.Asset{}
	for _, id := range record.members {
		if asset, ok := d.assets[id]; ok {
			album.Assets = append(album.Assets, *asset)
		}
	}
	return &album, nil
}

// CreateAlbum creates an album holding the given assets
func (d *MemoryDirectory) CreateAlbum(ctx context.Context, name string, assetIDs []string) (*entities.Album, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.fail("CreateAlbum"); err != nil {
		return nil, err
	}

	record := &memoryAlbum{
		album:   entities.Album{ID: uuid.NewString(), AlbumName: name},
		members: append([]string(nil), assetIDs...),
	}
	d.albums = append(d.albums, record)
	d.record("CreateAlbum", record.album.ID, assetIDs, name)

	album := d.summary(record)
	return &album, nil
}

// AddAssetsToAlbum appends assets that are not members yet
func (d *MemoryDirectory) AddAssetsToAlbum(ctx context.Context, albumID string, assetIDs []string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.fail("AddAssetsToAlbum"); err != nil {
		return err
	}

	record, err := d.findAlbum(albumID)
	if err != nil {
		return err
	}
	for _, id := range assetIDs {
		if !containsString(record.members, id) {
			record.members = append(record.members, id)
		}
	}
	d.record("AddAssetsToAlbum", albumID, assetIDs, "")
	return nil
}

// RemoveAssetsFromAlbum drops the given assets from the album
func (d *MemoryDirectory) RemoveAssetsFromAlbum(ctx context.Context, albumID string, assetIDs []string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.fail("RemoveAssetsFromAlbum"); err != nil {
		return err
	}

	record, err := d.findAlbum(albumID)
	if err != nil {
		return err
	}
	kept := record.members[:0]
	for _, id := range record.members {
		if !containsString(assetIDs, id) {
			kept = append(kept, id)
		}
	}
	record.members = kept
	d.record("RemoveAssetsFromAlbum", albumID, assetIDs, "")
	return nil
}

// Libraries returns every library
func (d *MemoryDirectory) Libraries(ctx context.Context) ([]entities.Library, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.fail("Libraries"); err != nil {
		return nil, err
	}

	libraries := make([]entities.Library, 0, len(d.libraries))
	for _, library := range d.libraries {
		libraries = append(libraries, copyLibrary(library))
	}
	return libraries, nil
}

// Library returns one library by id
func (d *MemoryDirectory) Library(ctx context.Context, libraryID string) (*entities.Library, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.fail("Library"); err != nil {
		return nil, err
	}

	for _, library := range d.libraries {
		if library.ID == libraryID {
			l := copyLibrary(library)
			return &l, nil
		}
	}
	return nil, &entities.NotFoundError{Kind: "library", ID: libraryID}
}

// UpdateLibraryExclusions replaces a library's exclusion patterns
func (d *MemoryDirectory) UpdateLibraryExclusions(ctx context.Context, libraryID string, patterns []string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.fail("UpdateLibraryExclusions"); err != nil {
		return err
	}

	for _, library := range d.libraries {
		if library.ID == libraryID {
			library.ExclusionPatterns = append([]string(nil), patterns...)
			d.record("UpdateLibraryExclusions", libraryID, nil, strings.Join(patterns, "\n"))
			return nil
		}
	}
	return &entities.NotFoundError{Kind: "library", ID: libraryID}
}

// SearchPeople returns people whose name contains the query, case-insensitively
func (d *MemoryDirectory) SearchPeople(ctx context.Context, name string) ([]entities.Person, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.fail("SearchPeople"); err != nil {
		return nil, err
	}

	people := []entities.Person{}
	for _, person := range d.people {
		if strings.Contains(strings.ToLower(person.Name), strings.ToLower(name)) {
			people = append(people, person)
		}
	}
	return people, nil
}

func copyLibrary(library *entities.Library) entities.Library {
	l := *library
	l.ImportPaths = append([]string{}, library.ImportPaths...)
	l.ExclusionPatterns = append([]string{}, library.ExclusionPatterns...)
	return l
}

func containsString(values []string, value string) bool {
	for _, v := range values {
		if v == value {
			return true
		}
	}
	return false
}
