package presenters

import (
	"time"
)

// ErrorResponse is printed instead of a result when a command fails
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// RunDTO represents one journaled run
type RunDTO struct {
	ID           string         `json:"id"`
	Command      string         `json:"command"`
	DryRun       bool           `json:"dryRun"`
	Status       string         `json:"status"`
	ErrorMessage string         `json:"errorMessage,omitempty"`
	Counters     map[string]int `json:"counters,omitempty"`
	ErrorCount   int            `json:"errorCount"`
	StartTime    time.Time      `json:"startTime"`
	EndTime      *time.Time     `json:"endTime,omitempty"`
	Duration     string         `json:"duration"`
}

// AlbumDTO is an album reduced to the keys requested with --keys
type AlbumDTO map[string]interface{}

// FolderListDTO represents a list of folders
type FolderListDTO struct {
	Path    string   `json:"path,omitempty"`
	Folders []string `json:"folders"`
	Count   int      `json:"count"`
}
