package usecases

import (
	"context"
	"fmt"
	"strings"

	"k8s.io/klog/v2"

	"immich-curator/internal/domain/entities"
	"immich-curator/internal/domain/services"
)

// Journal counter names for dedup runs
const (
	CounterProcessed = "processed"
	CounterPromoted  = "promoted"
	CounterArchived  = "archived"
	CounterFailed    = "failed"
)

// DuplicateResolutionUseCase promotes the best copy of every duplicate group
// to the timeline and archives the rest
type DuplicateResolutionUseCase struct {
	directory services.AssetDirectory
	index     *DuplicateIndex
	scorer    *services.AssetScorer
	recorder  *RunRecorder
}

// NewDuplicateResolutionUseCase creates a new duplicate resolution use case
func NewDuplicateResolutionUseCase(
	directory services.AssetDirectory,
	index *DuplicateIndex,
	scorer *services.AssetScorer,
	recorder *RunRecorder,
) *DuplicateResolutionUseCase {
	return &DuplicateResolutionUseCase{
		directory: directory,
		index:     index,
		scorer:    scorer,
		recorder:  recorder,
	}
}

// DedupRequest represents the request for resolving all duplicate groups
type DedupRequest struct {
	DryRun bool `json:"dryRun"`

	// FailFast aborts the run on the first group that fails instead of
	// recording the failure and moving on
	FailFast bool `json:"failFast"`
}

// GroupPlan describes the visibility changes decided for one duplicate group
type GroupPlan struct {
	DuplicateID     string   `json:"duplicateId"`
	KeeperID        string   `json:"keeperId"`
	KeeperPrefix    string   `json:"keeperPrefix"`
	Promote         bool     `json:"promote"`
	ArchiveIDs      []string `json:"archiveIds"`
	ArchivePrefixes []string `json:"archivePrefixes"`
}

// String renders the plan as a one-line preview
func (p *GroupPlan) String() string {
	verb := "keep"
	if p.Promote {
		verb = "promote"
	}
	archived := "nothing"
	if len(p.ArchivePrefixes) > 0 {
		archived = strings.Join(p.ArchivePrefixes, ", ")
	}
	return fmt.Sprintf("group %s: %s %s (%s), archive %s", p.DuplicateID, verb, p.KeeperPrefix, p.KeeperID, archived)
}

// GroupError records a group that could not be resolved
type GroupError struct {
	DuplicateID string `json:"duplicateId"`
	Error       string `json:"error"`
	Code        string `json:"code"`
}

// DedupResponse represents the response for resolving duplicate groups
type DedupResponse struct {
	RunID     string       `json:"runId"`
	DryRun    bool         `json:"dryRun"`
	Processed int          `json:"processed"`
	Promoted  int          `json:"promoted"`
	Archived  int          `json:"archived"`
	Failed    int          `json:"failed"`
	Preview   []*GroupPlan `json:"preview,omitempty"`
	Errors    []GroupError `json:"errors,omitempty"`
}

// Dedup ranks every duplicate group and applies the promote/archive plan.
// In dry-run mode no mutation is issued and counters reflect what would change.
func (uc *DuplicateResolutionUseCase) Dedup(ctx context.Context, req *DedupRequest) (*DedupResponse, error) {
	klog.Infof("🔍 resolving duplicate groups (dry-run=%v)", req.DryRun)

	run := uc.recorder.Start(ctx, entities.CommandDedup, req.DryRun)
	response := &DedupResponse{RunID: run.ID, DryRun: req.DryRun}

	err := uc.dedup(ctx, req, run, response)
	uc.recorder.Finish(ctx, run, err)
	if err != nil {
		return response, err
	}

	klog.Infof("✅ dedup finished: %d processed, %d promoted, %d archived, %d failed",
		response.Processed, response.Promoted, response.Archived, response.Failed)
	return response, nil
}

func (uc *DuplicateResolutionUseCase) dedup(ctx context.Context, req *DedupRequest, run *entities.Run, response *DedupResponse) error {
	groups, err := uc.index.Groups(ctx)
	if err != nil {
		return err
	}

	// Groups are expected to be disjoint; an asset already decided in an
	// earlier group is left out of later ones.
	decided := make(map[string]string)

	for i := range groups {
		group := &groups[i]
		response.Processed++
		run.Count(CounterProcessed, 1)

		plan, promoted, archived, err := uc.resolveGroup(ctx, group, decided, req.DryRun)
		response.Promoted += promoted
		response.Archived += archived
		run.Count(CounterPromoted, promoted)
		run.Count(CounterArchived, archived)

		if err != nil {
			response.Failed++
			run.Count(CounterFailed, 1)
			response.Errors = append(response.Errors, GroupError{
				DuplicateID: group.DuplicateID,
				Error:       err.Error(),
				Code:        entities.ErrorCode(err),
			})
			run.AddError(fmt.Sprintf("group %s: %v", group.DuplicateID, err))
			klog.Errorf("❌ group %s failed: %v", group.DuplicateID, err)

			if req.FailFast {
				return fmt.Errorf("dedup aborted at group %s: %w", group.DuplicateID, err)
			}
			continue
		}

		if plan == nil {
			continue
		}
		if plan.Promote {
			run.AddAction("promote", plan.KeeperID, plan.KeeperPrefix)
		}
		if len(plan.ArchiveIDs) > 0 {
			run.AddAction("archive", strings.Join(plan.ArchiveIDs, ","), group.DuplicateID)
		}
		if req.DryRun {
			response.Preview = append(response.Preview, plan)
			klog.Infof("[dry-run] %s", plan)
		}
	}
	return nil
}

// resolveGroup ranks one group and applies its plan. It returns how many
// promotions and archivals were issued, or would be in dry-run.
func (uc *DuplicateResolutionUseCase) resolveGroup(
	ctx context.Context,
	group *entities.DuplicateGroup,
	decided map[string]string,
	dryRun bool,
) (*GroupPlan, int, int, error) {
	candidates := make([]entities.Asset, 0, len(group.Assets))
	listed := make(map[string]bool, len(group.Assets))
	for _, asset := range group.Assets {
		if owner, ok := decided[asset.ID]; ok && owner != group.DuplicateID {
			klog.V(1).Infof("asset %s already resolved in group %s, skipping it in group %s", asset.ID, owner, group.DuplicateID)
			continue
		}
		if listed[asset.ID] {
			klog.V(1).Infof("asset %s listed twice in group %s", asset.ID, group.DuplicateID)
			continue
		}
		listed[asset.ID] = true
		candidates = append(candidates, asset)
	}

	ranked := uc.scorer.Rank(candidates)
	if len(ranked) == 0 {
		klog.V(1).Infof("group %s has no assets left to rank", group.DuplicateID)
		return nil, 0, 0, nil
	}
	for _, asset := range ranked {
		decided[asset.ID] = group.DuplicateID
	}

	keeper := ranked[0]
	plan := &GroupPlan{
		DuplicateID:     group.DuplicateID,
		KeeperID:        keeper.ID,
		KeeperPrefix:    keeper.PathPrefix(),
		Promote:         !keeper.IsLive(),
		ArchiveIDs:      []string{},
		ArchivePrefixes: []string{},
	}
	for _, asset := range ranked[1:] {
		if asset.IsArchived() {
			continue
		}
		plan.ArchiveIDs = append(plan.ArchiveIDs, asset.ID)
		plan.ArchivePrefixes = append(plan.ArchivePrefixes, asset.PathPrefix())
	}

	if dryRun {
		promoted := 0
		if plan.Promote {
			promoted = 1
		}
		return plan, promoted, len(plan.ArchiveIDs), nil
	}

	promoted := 0
	if plan.Promote {
		if err := uc.directory.UpdateAssetVisibility(ctx, []string{keeper.ID}, entities.VisibilityTimeline); err != nil {
			return plan, 0, 0, fmt.Errorf("failed to promote %s: %w", keeper.ID, err)
		}
		promoted = 1
		klog.V(1).Infof("promoted %s (%s) in group %s", keeper.ID, plan.KeeperPrefix, group.DuplicateID)
	}

	if len(plan.ArchiveIDs) > 0 {
		if err := uc.directory.UpdateAssetVisibility(ctx, plan.ArchiveIDs, entities.VisibilityArchive); err != nil {
			return plan, promoted, 0, fmt.Errorf("failed to archive %d assets: %w", len(plan.ArchiveIDs), err)
		}
		klog.V(1).Infof("archived %d copies of %s in group %s", len(plan.ArchiveIDs), keeper.ID, group.DuplicateID)
	}
	return plan, promoted, len(plan.ArchiveIDs), nil
}
