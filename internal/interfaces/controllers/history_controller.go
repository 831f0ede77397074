package controllers

import (
	"context"

	"immich-curator/internal/domain/entities"
	"immich-curator/internal/interfaces/cli"
	"immich-curator/internal/interfaces/presenters"
	"immich-curator/internal/usecases"
)

// HistoryController lists journaled runs
type HistoryController struct {
	recorder *usecases.RunRecorder
}

// NewHistoryController creates a new history controller
func NewHistoryController(recorder *usecases.RunRecorder) *HistoryController {
	return &HistoryController{recorder: recorder}
}

// History handles "history"
func (c *HistoryController) History(ctx context.Context, cmd cli.History) (interface{}, error) {
	if !c.recorder.Enabled() {
		return nil, &entities.ConfigurationError{Field: "journal.enabled", Reason: "the run journal is disabled"}
	}
	var (
		runs []*entities.Run
		err  error
	)
	if cmd.Command != "" {
		runs, err = c.recorder.RecentOf(ctx, cmd.Command, cmd.Limit)
	} else {
		runs, err = c.recorder.Recent(ctx, cmd.Limit)
	}
	if err != nil {
		return nil, err
	}
	return presenters.ToRunDTOs(runs), nil
}
