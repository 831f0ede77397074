package controllers

import (
	"context"

	"immich-curator/internal/interfaces/cli"
	"immich-curator/internal/usecases"
)

// ReconcileController handles takeout folder reconciliation
type ReconcileController struct {
	folderReconciliationUseCase *usecases.FolderReconciliationUseCase
}

// NewReconcileController creates a new reconcile controller
func NewReconcileController(folderReconciliationUseCase *usecases.FolderReconciliationUseCase) *ReconcileController {
	return &ReconcileController{folderReconciliationUseCase: folderReconciliationUseCase}
}

// Reconcile handles "reconcile <folder>" and "reconcile --all"
func (c *ReconcileController) Reconcile(ctx context.Context, cmd cli.Reconcile, dryRun bool) (interface{}, error) {
	if cmd.All {
		return c.folderReconciliationUseCase.ReconcileAll(ctx, &usecases.ReconcileAllRequest{DryRun: dryRun})
	}
	return c.folderReconciliationUseCase.ReconcileFolder(ctx, &usecases.ReconcileFolderRequest{
		Folder:    cmd.Folder,
		LibraryID: cmd.LibraryID,
		DryRun:    dryRun,
	})
}

// RedundantFolders handles "list redundant-folders"
func (c *ReconcileController) RedundantFolders(ctx context.Context, _ cli.ListRedundantFolders) (interface{}, error) {
	return c.folderReconciliationUseCase.RedundantFolders(ctx)
}
