package presenters

import (
	"fmt"
	"time"

	"immich-curator/internal/domain/entities"
)

// Exit codes of the curator command
const (
	ExitOK            = 0
	ExitFailure       = 1
	ExitConfiguration = 2
)

// ToErrorResponse converts an error into its printable form
func ToErrorResponse(err error) *ErrorResponse {
	if err == nil {
		return nil
	}
	return &ErrorResponse{Error: err.Error(), Code: entities.ErrorCode(err)}
}

// ExitCode maps an error to the process exit status
func ExitCode(err error) int {
	switch entities.ErrorCode(err) {
	case "":
		return ExitOK
	case entities.CodeConfiguration:
		return ExitConfiguration
	default:
		return ExitFailure
	}
}

// ToRunDTO converts a Run entity to RunDTO
func ToRunDTO(run *entities.Run) *RunDTO {
	if run == nil {
		return nil
	}
	return &RunDTO{
		ID:           run.ID,
		Command:      run.Command,
		DryRun:       run.DryRun,
		Status:       run.Status,
		ErrorMessage: run.ErrorMessage,
		Counters:     run.Counters,
		ErrorCount:   len(run.Errors),
		StartTime:    run.StartTime,
		EndTime:      run.EndTime,
		Duration:     formatDuration(run.GetDuration()),
	}
}

// ToRunDTOs converts a list of runs
func ToRunDTOs(runs []*entities.Run) []*RunDTO {
	dtos := make([]*RunDTO, 0, len(runs))
	for _, run := range runs {
		dtos = append(dtos, ToRunDTO(run))
	}
	return dtos
}

// ProjectAlbums keeps only the requested keys of each album; no keys keeps
// the albums unchanged
func ProjectAlbums(albums []entities.Album, keys []string) (interface{}, error) {
	if len(keys) == 0 {
		return albums, nil
	}
	dtos := make([]AlbumDTO, 0, len(albums))
	for i := range albums {
		dto := make(AlbumDTO, len(keys))
		for _, key := range keys {
			value, ok := albums[i].Field(key)
			if !ok {
				return nil, &entities.ConfigurationError{Field: "--keys", Reason: fmt.Sprintf("unknown album key %q", key)}
			}
			dto[key] = value
		}
		dtos = append(dtos, dto)
	}
	return dtos, nil
}

// ToFolderListDTO wraps a folder listing
func ToFolderListDTO(path string, folders []string) *FolderListDTO {
	if folders == nil {
		folders = []string{}
	}
	return &FolderListDTO{Path: path, Folders: folders, Count: len(folders)}
}

// formatDuration formats duration in human readable format
func formatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	} else if d < time.Minute {
		return fmt.Sprintf("%.1fs", d.Seconds())
	} else if d < time.Hour {
		return fmt.Sprintf("%.1fm", d.Minutes())
	}
	return fmt.Sprintf("%.1fh", d.Hours())
}
