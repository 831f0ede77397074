package entities

import (
	"time"

	"github.com/google/uuid"
)

// Run represents one journaled invocation of a mutating curator command
type Run struct {
	ID      string `json:"id"`
	Command string `json:"command"` // "dedup", "reconcile", "album_hide", ...
	DryRun  bool   `json:"dryRun"`

	// Status information
	Status       string `json:"status"` // "running", "completed", "failed"
	ErrorMessage string `json:"errorMessage,omitempty"`

	// Command-specific counters and per-item failures
	Counters map[string]int `json:"counters,omitempty"`
	Errors   []string       `json:"errors,omitempty"`
	Actions  []RunAction    `json:"actions,omitempty"`

	// Timestamps
	StartTime   time.Time  `json:"startTime"`
	EndTime     *time.Time `json:"endTime,omitempty"`
	LastUpdated time.Time  `json:"lastUpdated"`
}

// RunAction is one mutation issued (or previewed, in dry-run) during a run
type RunAction struct {
	Action string    `json:"action"` // "promote", "archive", "album_swap", ...
	Target string    `json:"target"`
	Detail string    `json:"detail,omitempty"`
	At     time.Time `json:"at"`
}

// Run status constants
const (
	RunStatusRunning   = "running"
	RunStatusCompleted = "completed"
	RunStatusFailed    = "failed"
)

// Run command constants
const (
	CommandDedup     = "dedup"
	CommandReconcile = "reconcile"
	CommandAlbumHide = "album_hide"
	CommandExport    = "album_export"
	CommandReassign  = "person_reassign"
)

// RunCommands lists every command that is journaled
var RunCommands = []string{CommandDedup, CommandReconcile, CommandAlbumHide, CommandExport, CommandReassign}

// NewRun creates a new running journal record
func NewRun(command string, dryRun bool) *Run {
	now := time.Now()
	return &Run{
		ID:          uuid.NewString(),
		Command:     command,
		DryRun:      dryRun,
		Status:      RunStatusRunning,
		Counters:    make(map[string]int),
		StartTime:   now,
		LastUpdated: now,
	}
}

// Count adds n to a named counter
func (r *Run) Count(name string, n int) {
	if r.Counters == nil {
		r.Counters = make(map[string]int)
	}
	r.Counters[name] += n
	r.LastUpdated = time.Now()
}

// AddError records a per-item failure without ending the run
func (r *Run) AddError(msg string) {
	r.Errors = append(r.Errors, msg)
	r.LastUpdated = time.Now()
}

// AddAction records a mutation
func (r *Run) AddAction(action, target, detail string) {
	now := time.Now()
	r.Actions = append(r.Actions, RunAction{Action: action, Target: target, Detail: detail, At: now})
	r.LastUpdated = now
}

// Complete marks the run as completed
func (r *Run) Complete() {
	r.Status = RunStatusCompleted
	now := time.Now()
	r.EndTime = &now
	r.LastUpdated = now
}

// Fail marks the run as failed with an error message
func (r *Run) Fail(errorMessage string) {
	r.Status = RunStatusFailed
	r.ErrorMessage = errorMessage
	now := time.Now()
	r.EndTime = &now
	r.LastUpdated = now
}

// GetDuration returns the duration of the run
func (r *Run) GetDuration() time.Duration {
	if r.EndTime != nil {
		return r.EndTime.Sub(r.StartTime)
	}
	return time.Since(r.StartTime)
}
