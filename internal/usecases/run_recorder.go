package usecases

import (
	"context"
	"time"

	"k8s.io/klog/v2"

	"immich-curator/internal/domain/entities"
	"immich-curator/internal/domain/repositories"
)

// RunRecorder journals mutating commands. A nil repository disables the
// journal; save failures are logged and never fail the command.
type RunRecorder struct {
	runRepo repositories.RunRepository
}

// NewRunRecorder creates a recorder; runRepo may be nil
func NewRunRecorder(runRepo repositories.RunRepository) *RunRecorder {
	return &RunRecorder{runRepo: runRepo}
}

// Start creates and saves a running journal record
func (r *RunRecorder) Start(ctx context.Context, command string, dryRun bool) *entities.Run {
	run := entities.NewRun(command, dryRun)
	r.save(ctx, run)
	klog.V(1).Infof("started %s run %s (dry-run=%v)", command, run.ID, dryRun)
	return run
}

// Finish marks the run completed or failed and saves it
func (r *RunRecorder) Finish(ctx context.Context, run *entities.Run, err error) {
	if run == nil {
		return
	}
	if err != nil {
		run.Fail(err.Error())
	} else {
		run.Complete()
	}
	r.save(ctx, run)
	klog.V(1).Infof("%s run %s %s in %v", run.Command, run.ID, run.Status, run.GetDuration().Round(time.Millisecond))
}

// Recent returns the most recent runs, newest first
func (r *RunRecorder) Recent(ctx context.Context, limit int) ([]*entities.Run, error) {
	if r == nil || r.runRepo == nil {
		return []*entities.Run{}, nil
	}
	return r.runRepo.GetRecent(ctx, limit)
}

// RecentOf returns the most recent runs of one command, newest first
func (r *RunRecorder) RecentOf(ctx context.Context, command string, limit int) ([]*entities.Run, error) {
	if r == nil || r.runRepo == nil {
		return []*entities.Run{}, nil
	}
	return r.runRepo.GetByCommand(ctx, command, limit)
}

// Enabled reports whether runs are persisted
func (r *RunRecorder) Enabled() bool {
	return r != nil && r.runRepo != nil
}

func (r *RunRecorder) save(ctx context.Context, run *entities.Run) {
	if !r.Enabled() {
		return
	}
	if err := r.runRepo.Save(ctx, run); err != nil {
		klog.Warningf("⚠️ failed to journal run %s: %v", run.ID, err)
	}
}
