package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"k8s.io/klog/v2"

	"immich-curator/internal/domain/entities"
	"immich-curator/internal/domain/services"
)

const (
	immichService   = "immich"
	searchPageSize  = 250
	maxErrorBodyLen = 512
)

// ImmichAdapter implements AssetDirectory over the Immich REST API
type ImmichAdapter struct {
	client      *http.Client
	baseURL     string
	albumUserID string
	pageSize    int
}

// NewImmichAdapter creates an adapter for the API rooted at baseURL
// (e.g. http://localhost:2283/api). Albums it creates are shared with
// albumUserID as editor when set.
func NewImmichAdapter(baseURL string, client *http.Client, albumUserID string) (*ImmichAdapter, error) {
	u, err := url.Parse(baseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, &entities.ConfigurationError{Field: "immich.url", Reason: fmt.Sprintf("invalid URL %q", baseURL)}
	}
	if client == nil {
		client = NewHTTPClient(ClientOptions{})
	}
	return &ImmichAdapter{
		client:      client,
		baseURL:     strings.TrimSuffix(baseURL, "/"),
		albumUserID: albumUserID,
		pageSize:    searchPageSize,
	}, nil
}

var _ services.AssetDirectory = (*ImmichAdapter)(nil)

// do sends one request and decodes a JSON response into out when non-nil.
// Non-2xx statuses come back as *entities.CollaboratorError carrying the status.
func (a *ImmichAdapter) do(ctx context.Context, op, method, path string, query url.Values, body, out interface{}) error {
	target := a.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode %s request: %w", op, err)
		}
		klog.V(3).Infof("📤 %s %s body: %s", method, path, payload)
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return fmt.Errorf("failed to build %s request: %w", op, err)
	}
	if body != nil {
		req.Header.Set("content-type", "application/json")
	}

	resp, err := a.client.Do(req)
	if err != nil {
		return &entities.CollaboratorError{Service: immichService, Op: op, Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return &entities.CollaboratorError{Service: immichService, Op: op, StatusCode: resp.StatusCode, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := strings.TrimSpace(string(data))
		if len(msg) > maxErrorBodyLen {
			msg = msg[:maxErrorBodyLen]
		}
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return &entities.CollaboratorError{Service: immichService, Op: op, StatusCode: resp.StatusCode, Err: fmt.Errorf("%s", msg)}
	}

	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return &entities.CollaboratorError{Service: immichService, Op: op, StatusCode: resp.StatusCode, Err: fmt.Errorf("invalid response: %w", err)}
	}
	return nil
}

// notFound converts a 404 (or 400 for a malformed id) into a NotFoundError
func notFound(err error, kind, id string) error {
	collab, ok := err.(*entities.CollaboratorError)
	if ok && (collab.StatusCode == http.StatusNotFound || collab.StatusCode == http.StatusBadRequest) {
		return &entities.NotFoundError{Kind: kind, ID: id}
	}
	return err
}

// folderQueryPath normalizes a folder the way the folder view expects it:
// no leading slash, one trailing slash
func folderQueryPath(folder string) string {
	folder = strings.TrimLeft(folder, "/")
	if !strings.HasSuffix(folder, "/") {
		folder += "/"
	}
	return folder
}

// Duplicates fetches every duplicate group
func (a *ImmichAdapter) Duplicates(ctx context.Context) ([]entities.DuplicateGroup, error) {
	var groups []entities.DuplicateGroup
	if err := a.do(ctx, "getAssetDuplicates", http.MethodGet, "/duplicates", nil, nil, &groups); err != nil {
		return nil, err
	}
	return groups, nil
}

// UniqueOriginalPaths lists every folder holding asset originals
func (a *ImmichAdapter) UniqueOriginalPaths(ctx context.Context) ([]string, error) {
	var paths []string
	if err := a.do(ctx, "getUniqueOriginalPaths", http.MethodGet, "/view/folder/unique-paths", nil, nil, &paths); err != nil {
		return nil, err
	}
	return paths, nil
}

// AssetsByOriginalPath lists the assets stored directly in folder
func (a *ImmichAdapter) AssetsByOriginalPath(ctx context.Context, folder string) ([]entities.Asset, error) {
	var assets []entities.Asset
	query := url.Values{"path": {folderQueryPath(folder)}}
	if err := a.do(ctx, "getAssetsByOriginalPath", http.MethodGet, "/view/folder", query, nil, &assets); err != nil {
		return nil, err
	}
	return assets, nil
}

// Asset fetches one asset
func (a *ImmichAdapter) Asset(ctx context.Context, assetID string) (*entities.Asset, error) {
	var asset entities.Asset
	if err := a.do(ctx, "getAssetInfo", http.MethodGet, "/assets/"+url.PathEscape(assetID), nil, nil, &asset); err != nil {
		return nil, notFound(err, "asset", assetID)
	}
	return &asset, nil
}

// UpdateAssetVisibility sets the visibility of every listed asset in one call
func (a *ImmichAdapter) UpdateAssetVisibility(ctx context.Context, assetIDs []string, visibility entities.Visibility) error {
	if len(assetIDs) == 0 {
		return nil
	}
	body := map[string]interface{}{"ids": assetIDs, "visibility": visibility}
	return a.do(ctx, "updateAssets", http.MethodPut, "/assets", nil, body, nil)
}

type searchPage struct {
	Assets struct {
		Items    []entities.Asset `json:"items"`
		NextPage json.RawMessage  `json:"nextPage"`
	} `json:"assets"`
}

// nextPage reads the page cursor, which the server sends as a string, a number or null
func (p *searchPage) nextPage() int {
	raw := bytes.TrimSpace(p.Assets.NextPage)
	if len(raw) == 0 || string(raw) == "null" {
		return 0
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		n, _ := strconv.Atoi(s)
		return n
	}
	var n int
	if err := json.Unmarshal(raw, &n); err == nil {
		return n
	}
	return 0
}

// SearchAssets pages through the metadata search for the filter
func (a *ImmichAdapter) SearchAssets(ctx context.Context, filter entities.AssetSearch) ([]entities.Asset, error) {
	var assets []entities.Asset
	for page := 1; page > 0; {
		body := map[string]interface{}{
			"page":     page,
			"size":     a.pageSize,
			"withExif": true,
		}
		if filter.LibraryID != "" {
			body["libraryId"] = filter.LibraryID
		}
		if filter.DeviceID != "" {
			body["deviceId"] = filter.DeviceID
		}
		if len(filter.PersonIDs) > 0 {
			body["personIds"] = filter.PersonIDs
		}

		var result searchPage
		if err := a.do(ctx, "searchAssets", http.MethodPost, "/search/metadata", nil, body, &result); err != nil {
			return nil, err
		}
		assets = append(assets, result.Assets.Items...)

		next := result.nextPage()
		if next <= page {
			break
		}
		page = next
	}
	return assets, nil
}

// Albums lists every album without assets
func (a *ImmichAdapter) Albums(ctx context.Context) ([]entities.Album, error) {
	var albums []entities.Album
	if err := a.do(ctx, "getAlbums", http.MethodGet, "/albums", nil, nil, &albums); err != nil {
		return nil, err
	}
	return albums, nil
}

// AlbumsContaining lists the albums holding the asset
func (a *ImmichAdapter) AlbumsContaining(ctx context.Context, assetID string) ([]entities.Album, error) {
	var albums []entities.Album
	query := url.Values{"assetId": {assetID}}
	if err := a.do(ctx, "getAlbums", http.MethodGet, "/albums", query, nil, &albums); err != nil {
		return nil, err
	}
	return albums, nil
}

// Album fetches one album with its assets
func (a *ImmichAdapter) Album(ctx context.Context, albumID string) (*entities.Album, error) {
	var album entities.Album
	if err := a.do(ctx, "getAlbumInfo", http.MethodGet, "/albums/"+url.PathEscape(albumID), nil, nil, &album); err != nil {
		return nil, notFound(err, "album", albumID)
	}
	return &album, nil
}

type albumUser struct {
	Role   string `json:"role"`
	UserID string `json:"userId"`
}

type createAlbumBody struct {
	AlbumName  string      `json:"albumName"`
	AlbumUsers []albumUser `json:"albumUsers"`
	AssetIDs   []string    `json:"assetIds,omitempty"`
}

// CreateAlbum creates an album holding the given assets
func (a *ImmichAdapter) CreateAlbum(ctx context.Context, name string, assetIDs []string) (*entities.Album, error) {
	body := createAlbumBody{AlbumName: name, AlbumUsers: []albumUser{}, AssetIDs: assetIDs}
	if a.albumUserID != "" {
		body.AlbumUsers = append(body.AlbumUsers, albumUser{Role: "editor", UserID: a.albumUserID})
	}

	var album entities.Album
	if err := a.do(ctx, "createAlbum", http.MethodPost, "/albums", nil, body, &album); err != nil {
		return nil, err
	}
	return &album, nil
}

type bulkIDResult struct {
	ID      string `json:"id"`
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// checkBulk turns per-id failures into one error, ignoring the benign reason
func checkBulk(op string, results []bulkIDResult, benign string) error {
	var failed []string
	for _, r := range results {
		if r.Success || r.Error == benign {
			continue
		}
		failed = append(failed, r.ID+": "+r.Error)
	}
	if len(failed) == 0 {
		return nil
	}
	return &entities.CollaboratorError{Service: immichService, Op: op, Err: fmt.Errorf("%s", strings.Join(failed, ", "))}
}

// AddAssetsToAlbum adds assets to an album; assets already present are fine
func (a *ImmichAdapter) AddAssetsToAlbum(ctx context.Context, albumID string, assetIDs []string) error {
	var results []bulkIDResult
	body := map[string]interface{}{"ids": assetIDs}
	if err := a.do(ctx, "addAssetsToAlbum", http.MethodPut, "/albums/"+url.PathEscape(albumID)+"/assets", nil, body, &results); err != nil {
		return notFound(err, "album", albumID)
	}
	return checkBulk("addAssetsToAlbum", results, "duplicate")
}

// RemoveAssetsFromAlbum removes assets from an album; absent assets are fine
func (a *ImmichAdapter) RemoveAssetsFromAlbum(ctx context.Context, albumID string, assetIDs []string) error {
	var results []bulkIDResult
	body := map[string]interface{}{"ids": assetIDs}
	if err := a.do(ctx, "removeAssetFromAlbum", http.MethodDelete, "/albums/"+url.PathEscape(albumID)+"/assets", nil, body, &results); err != nil {
		return notFound(err, "album", albumID)
	}
	return checkBulk("removeAssetFromAlbum", results, "not_found")
}

// Libraries lists every external library
func (a *ImmichAdapter) Libraries(ctx context.Context) ([]entities.Library, error) {
	var libraries []entities.Library
	if err := a.do(ctx, "getAllLibraries", http.MethodGet, "/libraries", nil, nil, &libraries); err != nil {
		return nil, err
	}
	return libraries, nil
}

// Library fetches one library
func (a *ImmichAdapter) Library(ctx context.Context, libraryID string) (*entities.Library, error) {
	var library entities.Library
	if err := a.do(ctx, "getLibrary", http.MethodGet, "/libraries/"+url.PathEscape(libraryID), nil, nil, &library); err != nil {
		return nil, notFound(err, "library", libraryID)
	}
	return &library, nil
}

// UpdateLibraryExclusions replaces the library's exclusion patterns
func (a *ImmichAdapter) UpdateLibraryExclusions(ctx context.Context, libraryID string, patterns []string) error {
	body := map[string]interface{}{"exclusionPatterns": patterns}
	if err := a.do(ctx, "updateLibrary", http.MethodPut, "/libraries/"+url.PathEscape(libraryID), nil, body, nil); err != nil {
		return notFound(err, "library", libraryID)
	}
	return nil
}

// SearchPeople finds people by name
func (a *ImmichAdapter) SearchPeople(ctx context.Context, name string) ([]entities.Person, error) {
	var people []entities.Person
	query := url.Values{"name": {name}}
	if err := a.do(ctx, "searchPerson", http.MethodGet, "/search/person", query, nil, &people); err != nil {
		return nil, err
	}
	return people, nil
}
