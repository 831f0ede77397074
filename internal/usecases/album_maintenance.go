package usecases

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/otiai10/copy"
	"k8s.io/klog/v2"

	"immich-curator/internal/domain/entities"
	"immich-curator/internal/domain/services"
)

// PathMapping translates a server-side original path prefix to a local one
type PathMapping struct {
	From string `json:"from" yaml:"from"`
	To   string `json:"to" yaml:"to"`
}

// LocalPath maps an asset's original path through the first matching mapping
func LocalPath(mappings []PathMapping, originalPath string) (string, error) {
	candidates := []string{originalPath}
	if !strings.HasPrefix(originalPath, "/") {
		candidates = append(candidates, "/"+originalPath)
	}
	for _, p := range candidates {
		for _, m := range mappings {
			if entities.HasPathPrefix(p, m.From) {
				return strings.TrimSuffix(m.To, "/") + p[len(strings.TrimSuffix(m.From, "/")):], nil
			}
		}
	}
	return "", &entities.ConfigurationError{Field: "export.path_mappings", Reason: fmt.Sprintf("unable to find local path for %s", originalPath)}
}

// AlbumMaintenanceUseCase hides or exports whole albums
type AlbumMaintenanceUseCase struct {
	directory services.AssetDirectory
	lookup    *AssetLookupUseCase
	recorder  *RunRecorder
	mappings  []PathMapping
}

// NewAlbumMaintenanceUseCase creates a new album maintenance use case
func NewAlbumMaintenanceUseCase(
	directory services.AssetDirectory,
	lookup *AssetLookupUseCase,
	recorder *RunRecorder,
	mappings []PathMapping,
) *AlbumMaintenanceUseCase {
	return &AlbumMaintenanceUseCase{
		directory: directory,
		lookup:    lookup,
		recorder:  recorder,
		mappings:  mappings,
	}
}

// HideAlbumRequest represents the request for archiving every asset of an album
type HideAlbumRequest struct {
	Name   string `json:"name"`
	DryRun bool   `json:"dryRun"`
}

// HideAlbumResponse represents the response for hiding an album
type HideAlbumResponse struct {
	RunID           string   `json:"runId"`
	AlbumID         string   `json:"albumId"`
	DryRun          bool     `json:"dryRun"`
	Archived        int      `json:"archived"`
	AlreadyArchived int      `json:"alreadyArchived"`
	AssetIDs        []string `json:"assetIds,omitempty"`
}

// ExportAlbumRequest represents the request for copying album originals
type ExportAlbumRequest struct {
	Name        string `json:"name"`
	Destination string `json:"destination"`
	DryRun      bool   `json:"dryRun"`
}

// ExportedFile is one original copied out of the library
type ExportedFile struct {
	AssetID string `json:"assetId"`
	Source  string `json:"source"`
	Target  string `json:"target"`
}

// ExportFailure is one original that could not be copied
type ExportFailure struct {
	AssetID      string `json:"assetId"`
	OriginalPath string `json:"originalPath"`
	Error        string `json:"error"`
}

// ExportAlbumResponse represents the response for exporting an album
type ExportAlbumResponse struct {
	RunID    string          `json:"runId"`
	AlbumID  string          `json:"albumId"`
	DryRun   bool            `json:"dryRun"`
	Exported []ExportedFile  `json:"exported"`
	Failed   []ExportFailure `json:"failed,omitempty"`
}

// HideAlbum archives every asset of the named album that is not archived yet
func (uc *AlbumMaintenanceUseCase) HideAlbum(ctx context.Context, req *HideAlbumRequest) (*HideAlbumResponse, error) {
	run := uc.recorder.Start(ctx, entities.CommandAlbumHide, req.DryRun)
	response, err := uc.hideAlbum(ctx, req, run)
	uc.recorder.Finish(ctx, run, err)
	if err != nil {
		return nil, err
	}
	return response, nil
}

func (uc *AlbumMaintenanceUseCase) hideAlbum(ctx context.Context, req *HideAlbumRequest, run *entities.Run) (*HideAlbumResponse, error) {
	album, err := uc.albumDetail(ctx, req.Name)
	if err != nil {
		return nil, err
	}

	response := &HideAlbumResponse{RunID: run.ID, AlbumID: album.ID, DryRun: req.DryRun}
	var ids []string
	for _, asset := range album.Assets {
		if asset.IsArchived() {
			response.AlreadyArchived++
			continue
		}
		ids = append(ids, asset.ID)
	}
	response.AssetIDs = ids
	response.Archived = len(ids)
	run.Count("archived", len(ids))

	if len(ids) == 0 {
		klog.Infof("album %s has nothing left to archive", req.Name)
		return response, nil
	}
	if req.DryRun {
		klog.Infof("[dry-run] archive %d assets of album %s", len(ids), req.Name)
		run.AddAction("archive", album.ID, strings.Join(ids, ","))
		return response, nil
	}

	if err := uc.directory.UpdateAssetVisibility(ctx, ids, entities.VisibilityArchive); err != nil {
		return nil, fmt.Errorf("failed to archive assets of album %s: %w", req.Name, err)
	}
	run.AddAction("archive", album.ID, strings.Join(ids, ","))
	klog.Infof("🙈 archived %d assets of album %s", len(ids), req.Name)
	return response, nil
}

// ExportAlbum copies the original file of every album asset into the
// destination directory. A failed asset is reported and copying continues.
func (uc *AlbumMaintenanceUseCase) ExportAlbum(ctx context.Context, req *ExportAlbumRequest) (*ExportAlbumResponse, error) {
	if req.Destination == "" {
		return nil, &entities.ConfigurationError{Field: "destination", Reason: "destination directory is required"}
	}

	run := uc.recorder.Start(ctx, entities.CommandExport, req.DryRun)
	response, err := uc.exportAlbum(ctx, req, run)
	uc.recorder.Finish(ctx, run, err)
	if err != nil {
		return nil, err
	}
	return response, nil
}

func (uc *AlbumMaintenanceUseCase) exportAlbum(ctx context.Context, req *ExportAlbumRequest, run *entities.Run) (*ExportAlbumResponse, error) {
	album, err := uc.albumDetail(ctx, req.Name)
	if err != nil {
		return nil, err
	}

	if !req.DryRun {
		if err := os.MkdirAll(req.Destination, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create %s: %w", req.Destination, err)
		}
	}

	response := &ExportAlbumResponse{
		RunID:    run.ID,
		AlbumID:  album.ID,
		DryRun:   req.DryRun,
		Exported: []ExportedFile{},
	}
	for _, asset := range album.Assets {
		if err := ctx.Err(); err != nil {
			return response, err
		}

		source, err := LocalPath(uc.mappings, asset.OriginalPath)
		if err != nil {
			uc.exportFailed(response, run, asset, err)
			continue
		}
		target := filepath.Join(req.Destination, filepath.Base(source))

		if req.DryRun {
			klog.Infof("[dry-run] copy %s to %s", source, target)
		} else {
			klog.V(1).Infof("copying %s to %s", source, target)
			if err := copy.Copy(source, target, copy.Options{PreserveTimes: true}); err != nil {
				uc.exportFailed(response, run, asset, err)
				continue
			}
		}
		response.Exported = append(response.Exported, ExportedFile{AssetID: asset.ID, Source: source, Target: target})
		run.AddAction("copy", asset.ID, target)
	}
	run.Count("exported", len(response.Exported))
	run.Count("failed", len(response.Failed))

	klog.Infof("📦 exported %d of %d assets of album %s", len(response.Exported), len(album.Assets), req.Name)
	return response, nil
}

func (uc *AlbumMaintenanceUseCase) exportFailed(response *ExportAlbumResponse, run *entities.Run, asset entities.Asset, err error) {
	klog.Errorf("❌ failed to export %s: %v", asset.OriginalPath, err)
	response.Failed = append(response.Failed, ExportFailure{AssetID: asset.ID, OriginalPath: asset.OriginalPath, Error: err.Error()})
	run.AddError(fmt.Sprintf("%s: %v", asset.ID, err))
}

func (uc *AlbumMaintenanceUseCase) albumDetail(ctx context.Context, name string) (*entities.Album, error) {
	summary, err := uc.lookup.FindAlbum(ctx, name)
	if err != nil {
		return nil, err
	}
	album, err := uc.directory.Album(ctx, summary.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch album %s: %w", name, err)
	}
	return album, nil
}
