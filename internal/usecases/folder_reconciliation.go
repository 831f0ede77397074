package usecases

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"k8s.io/klog/v2"

	"immich-curator/internal/domain/entities"
	"immich-curator/internal/domain/services"
)

// FolderReconciliationUseCase turns Google Takeout album folders into albums of
// their year-folder duplicates and excludes the folders from future scans
type FolderReconciliationUseCase struct {
	directory services.AssetDirectory
	index     *DuplicateIndex
	recorder  *RunRecorder

	takeoutRoot string
	yearFolder  *regexp.Regexp
}

// NewFolderReconciliationUseCase creates a new folder reconciliation use case.
// yearPattern matches one folder segment directly below takeoutRoot.
func NewFolderReconciliationUseCase(
	directory services.AssetDirectory,
	index *DuplicateIndex,
	recorder *RunRecorder,
	takeoutRoot string,
	yearPattern string,
) (*FolderReconciliationUseCase, error) {
	yearFolder, err := regexp.Compile("^(?:" + yearPattern + ")$")
	if err != nil {
		return nil, &entities.ConfigurationError{Field: "reconcile.year_folder_pattern", Reason: err.Error()}
	}
	return &FolderReconciliationUseCase{
		directory:   directory,
		index:       index,
		recorder:    recorder,
		takeoutRoot: entities.TrimFolder(takeoutRoot),
		yearFolder:  yearFolder,
	}, nil
}

// ReconcileFolderRequest represents the request for reconciling one folder
type ReconcileFolderRequest struct {
	Folder    string `json:"folder"`
	LibraryID string `json:"libraryId,omitempty"`
	DryRun    bool   `json:"dryRun"`
}

// AlbumReplacement is a takeout asset swapped for its clean duplicate in an album
type AlbumReplacement struct {
	AlbumID   string `json:"albumId"`
	AlbumName string `json:"albumName"`
	ToxicID   string `json:"toxicId"`
	CleanID   string `json:"cleanId"`
}

// ReconcileFolderResponse represents the response for reconciling one folder
type ReconcileFolderResponse struct {
	RunID            string             `json:"runId,omitempty"`
	Folder           string             `json:"folder"`
	AlbumID          string             `json:"albumId"`
	AlbumName        string             `json:"albumName"`
	Existing         bool               `json:"existing"`
	DryRun           bool               `json:"dryRun"`
	CleanAssetIDs    []string           `json:"cleanAssetIds,omitempty"`
	Replacements     []AlbumReplacement `json:"replacements,omitempty"`
	LibraryID        string             `json:"libraryId,omitempty"`
	LibraryName      string             `json:"libraryName,omitempty"`
	ExclusionPattern string             `json:"exclusionPattern,omitempty"`
	ExclusionAdded   bool               `json:"exclusionAdded"`
}

// RedundantFolder is a takeout album folder whose every asset has a year-folder duplicate
type RedundantFolder struct {
	Folder     string `json:"folder"`
	AssetCount int    `json:"assetCount"`
}

// RedundantFoldersResponse represents the response for the redundant folder discovery
type RedundantFoldersResponse struct {
	Examined int               `json:"examined"`
	Folders  []RedundantFolder `json:"folders"`
}

// ReconcileAllRequest represents the request for reconciling every redundant folder
type ReconcileAllRequest struct {
	DryRun bool `json:"dryRun"`
}

// ReconcileAllResponse represents the response for reconciling every redundant folder
type ReconcileAllResponse struct {
	Results []*ReconcileFolderResponse `json:"results"`
	Skipped []string                   `json:"skipped,omitempty"`
}

// reconcilePlan holds everything read before the first mutation
type reconcilePlan struct {
	albumName    string
	cleanIDs     []string
	replacements []AlbumReplacement
	library      *entities.Library
	exclusion    string
	addExclusion bool
}

// ReconcileFolder builds an album of the clean duplicates of every asset under
// the folder, swaps them into existing albums and excludes the folder from its
// library. Every check runs before the first mutation, so a folder with an
// unverifiable asset leaves the server untouched.
func (uc *FolderReconciliationUseCase) ReconcileFolder(ctx context.Context, req *ReconcileFolderRequest) (*ReconcileFolderResponse, error) {
	folder := entities.TrimFolder(req.Folder)
	if folder == "" {
		return nil, &entities.ConfigurationError{Field: "folder", Reason: "folder path is required"}
	}

	klog.Infof("📁 reconciling folder %s (dry-run=%v)", folder, req.DryRun)

	run := uc.recorder.Start(ctx, entities.CommandReconcile, req.DryRun)
	response := &ReconcileFolderResponse{
		RunID:     run.ID,
		Folder:    folder,
		AlbumName: entities.FolderTail(folder),
		DryRun:    req.DryRun,
	}

	err := uc.reconcile(ctx, folder, req, run, response)
	uc.recorder.Finish(ctx, run, err)
	if err != nil {
		return nil, err
	}
	return response, nil
}

func (uc *FolderReconciliationUseCase) reconcile(
	ctx context.Context,
	folder string,
	req *ReconcileFolderRequest,
	run *entities.Run,
	response *ReconcileFolderResponse,
) error {
	existing, err := uc.findAlbum(ctx, response.AlbumName)
	if err != nil {
		return err
	}
	if existing != nil {
		klog.Infof("album %s already exists with id %s, skipping", existing.AlbumName, existing.ID)
		response.AlbumID = existing.ID
		response.Existing = true
		run.Count("existing", 1)
		return nil
	}

	plan, err := uc.plan(ctx, folder, req.LibraryID)
	if err != nil {
		return err
	}

	response.CleanAssetIDs = plan.cleanIDs
	response.Replacements = plan.replacements
	response.LibraryID = plan.library.ID
	response.LibraryName = plan.library.Name
	response.ExclusionPattern = plan.exclusion
	response.ExclusionAdded = plan.addExclusion
	run.Count("clean_assets", len(plan.cleanIDs))
	run.Count("replacements", len(plan.replacements))

	klog.V(1).Infof("folder %s found %d clean assets for album %s", folder, len(plan.cleanIDs), plan.albumName)

	if req.DryRun {
		uc.preview(folder, plan, run)
		return nil
	}

	return uc.apply(ctx, folder, plan, run, response)
}

// plan verifies every asset under the folder and resolves the target library
func (uc *FolderReconciliationUseCase) plan(ctx context.Context, folder, libraryID string) (*reconcilePlan, error) {
	assets, err := uc.index.AssetsUnderPath(ctx, folder)
	if err != nil {
		return nil, err
	}
	if len(assets) == 0 {
		return nil, &entities.NotFoundError{Kind: "folder", ID: folder}
	}

	plan := &reconcilePlan{albumName: entities.FolderTail(folder)}
	seen := make(map[string]bool)

	for i := range assets {
		toxic := &assets[i]

		dups, err := uc.index.DuplicatesOf(ctx, toxic)
		if err != nil {
			return nil, err
		}
		if len(dups) == 0 {
			return nil, &entities.InvariantViolationError{AssetID: toxic.ID, Folder: folder, Reason: "has no duplicates"}
		}

		clean := uc.cleanDuplicate(dups)
		if clean == nil {
			return nil, &entities.InvariantViolationError{
				AssetID: toxic.ID,
				Folder:  folder,
				Reason:  fmt.Sprintf("has no duplicate in a %s year folder", uc.takeoutRoot),
			}
		}

		if !seen[clean.ID] {
			seen[clean.ID] = true
			plan.cleanIDs = append(plan.cleanIDs, clean.ID)
		}

		albums, err := uc.directory.AlbumsContaining(ctx, toxic.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to list albums of %s: %w", toxic.ID, err)
		}
		for _, album := range albums {
			plan.replacements = append(plan.replacements, AlbumReplacement{
				AlbumID:   album.ID,
				AlbumName: album.AlbumName,
				ToxicID:   toxic.ID,
				CleanID:   clean.ID,
			})
		}
	}

	library, err := uc.resolveLibrary(ctx, folder, libraryID)
	if err != nil {
		return nil, err
	}
	plan.library = library
	plan.exclusion = entities.FolderExclusionPattern(folder)
	plan.addExclusion = !library.ExcludesFolder(folder)

	return plan, nil
}

func (uc *FolderReconciliationUseCase) preview(folder string, plan *reconcilePlan, run *entities.Run) {
	for _, r := range plan.replacements {
		klog.Infof("[dry-run] album %s: replace %s with %s", r.AlbumName, r.ToxicID, r.CleanID)
		run.AddAction("album_swap", r.AlbumID, r.ToxicID+"->"+r.CleanID)
	}
	klog.Infof("[dry-run] create album %s with %d assets", plan.albumName, len(plan.cleanIDs))
	run.AddAction("create_album", plan.albumName, strings.Join(plan.cleanIDs, ","))
	if plan.addExclusion {
		klog.Infof("[dry-run] library %s: add exclusion pattern %q", plan.library.Name, plan.exclusion)
		run.AddAction("exclude", plan.library.ID, plan.exclusion)
	} else {
		klog.Infof("[dry-run] library %s already excludes %s", plan.library.Name, folder)
	}
}

func (uc *FolderReconciliationUseCase) apply(
	ctx context.Context,
	folder string,
	plan *reconcilePlan,
	run *entities.Run,
	response *ReconcileFolderResponse,
) error {
	for _, r := range plan.replacements {
		klog.V(1).Infof("replacing toxic asset %s with clean asset %s in album %s", r.ToxicID, r.CleanID, r.AlbumName)
		if err := uc.directory.RemoveAssetsFromAlbum(ctx, r.AlbumID, []string{r.ToxicID}); err != nil {
			return fmt.Errorf("failed to remove %s from album %s: %w", r.ToxicID, r.AlbumName, err)
		}
		if err := uc.directory.AddAssetsToAlbum(ctx, r.AlbumID, []string{r.CleanID}); err != nil {
			return fmt.Errorf("failed to add %s to album %s: %w", r.CleanID, r.AlbumName, err)
		}
		run.AddAction("album_swap", r.AlbumID, r.ToxicID+"->"+r.CleanID)
	}

	album, err := uc.directory.CreateAlbum(ctx, plan.albumName, plan.cleanIDs)
	if err != nil {
		return fmt.Errorf("failed to create album %s: %w", plan.albumName, err)
	}
	response.AlbumID = album.ID
	run.AddAction("create_album", album.ID, plan.albumName)
	klog.Infof("✅ created album %s (%s) with %d assets", plan.albumName, album.ID, len(plan.cleanIDs))

	if plan.addExclusion {
		patterns := append(append([]string{}, plan.library.ExclusionPatterns...), plan.exclusion)
		if err := uc.directory.UpdateLibraryExclusions(ctx, plan.library.ID, patterns); err != nil {
			return fmt.Errorf("failed to exclude %s from library %s: %w", folder, plan.library.Name, err)
		}
		run.AddAction("exclude", plan.library.ID, plan.exclusion)
		klog.Infof("added exclusion pattern %q to library %s", plan.exclusion, plan.library.Name)
	}
	return nil
}

// RedundantFolders finds every takeout album folder whose assets all have a
// duplicate in a year folder
func (uc *FolderReconciliationUseCase) RedundantFolders(ctx context.Context) (*RedundantFoldersResponse, error) {
	candidates, err := uc.albumFolders(ctx)
	if err != nil {
		return nil, err
	}

	response := &RedundantFoldersResponse{Folders: []RedundantFolder{}}
	for _, folder := range candidates {
		response.Examined++

		assets, err := uc.index.AssetsUnderPath(ctx, folder)
		if err != nil {
			return nil, err
		}
		klog.V(1).Infof("processing folder %s with %d assets", folder, len(assets))
		if len(assets) == 0 {
			continue
		}

		redundant := true
		for i := range assets {
			dups, err := uc.index.DuplicatesOf(ctx, &assets[i])
			if err != nil {
				return nil, err
			}
			if uc.cleanDuplicate(dups) == nil {
				klog.V(1).Infof("asset %s is not in any year folder", assets[i].OriginalPath)
				redundant = false
				break
			}
		}
		if redundant {
			response.Folders = append(response.Folders, RedundantFolder{Folder: folder, AssetCount: len(assets)})
		}
	}
	return response, nil
}

// ReconcileAll discovers redundant folders and reconciles each of them,
// stopping at the first failure
func (uc *FolderReconciliationUseCase) ReconcileAll(ctx context.Context, req *ReconcileAllRequest) (*ReconcileAllResponse, error) {
	redundant, err := uc.RedundantFolders(ctx)
	if err != nil {
		return nil, err
	}

	klog.Infof("🔎 found %d redundant folders", len(redundant.Folders))

	response := &ReconcileAllResponse{Results: []*ReconcileFolderResponse{}}
	var done []string
	for _, rf := range redundant.Folders {
		if parent := parentIn(rf.Folder, done); parent != "" {
			klog.V(1).Infof("skipping %s, covered by %s", rf.Folder, parent)
			response.Skipped = append(response.Skipped, rf.Folder)
			continue
		}

		result, err := uc.ReconcileFolder(ctx, &ReconcileFolderRequest{Folder: rf.Folder, DryRun: req.DryRun})
		if err != nil {
			return response, fmt.Errorf("reconcile %s: %w", rf.Folder, err)
		}
		response.Results = append(response.Results, result)
		done = append(done, rf.Folder)
	}
	return response, nil
}

// albumFolders lists the folders below the takeout root that are neither
// year folders nor inside one
func (uc *FolderReconciliationUseCase) albumFolders(ctx context.Context) ([]string, error) {
	folders, err := uc.index.FoldersUnder(ctx, uc.takeoutRoot)
	if err != nil {
		return nil, err
	}

	var candidates []string
	for _, folder := range folders {
		if folder == uc.takeoutRoot {
			continue
		}
		if _, ok := uc.yearFolderOf(folder + "/"); ok {
			continue
		}
		candidates = append(candidates, folder)
	}
	return candidates, nil
}

// yearFolderOf returns the year folder a path lives in, if any
func (uc *FolderReconciliationUseCase) yearFolderOf(path string) (string, bool) {
	p := strings.TrimPrefix(path, "/")
	if !strings.HasPrefix(p, uc.takeoutRoot+"/") {
		return "", false
	}
	rest := p[len(uc.takeoutRoot)+1:]
	i := strings.Index(rest, "/")
	if i <= 0 {
		return "", false
	}
	if !uc.yearFolder.MatchString(rest[:i]) {
		return "", false
	}
	return uc.takeoutRoot + "/" + rest[:i], true
}

// cleanDuplicate returns the first duplicate stored in a year folder
func (uc *FolderReconciliationUseCase) cleanDuplicate(dups []entities.Asset) *entities.Asset {
	for i := range dups {
		if _, ok := uc.yearFolderOf(dups[i].OriginalPath); ok {
			return &dups[i]
		}
	}
	return nil
}

func (uc *FolderReconciliationUseCase) findAlbum(ctx context.Context, name string) (*entities.Album, error) {
	albums, err := uc.directory.Albums(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list albums: %w", err)
	}
	for i := range albums {
		if albums[i].AlbumName == name {
			return &albums[i], nil
		}
	}
	return nil, nil
}

func (uc *FolderReconciliationUseCase) resolveLibrary(ctx context.Context, folder, libraryID string) (*entities.Library, error) {
	if libraryID != "" {
		return uc.directory.Library(ctx, libraryID)
	}

	libraries, err := uc.directory.Libraries(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list libraries: %w", err)
	}
	for i := range libraries {
		if libraries[i].ImportsFolder(folder) {
			return &libraries[i], nil
		}
	}
	return nil, &entities.NotFoundError{Kind: "library for folder", ID: folder}
}

func parentIn(folder string, parents []string) string {
	for _, parent := range parents {
		if folder != parent && entities.IsUnderFolder(folder, parent) {
			return parent
		}
	}
	return ""
}
