package repositories

import (
	"context"

	"immich-curator/internal/domain/entities"
)

// RunRepository defines the interface for the local journal of curator runs
type RunRepository interface {
	// Basic operations
	Save(ctx context.Context, run *entities.Run) error
	GetByID(ctx context.Context, id string) (*entities.Run, error)

	// Query operations
	GetRecent(ctx context.Context, limit int) ([]*entities.Run, error)
	GetByCommand(ctx context.Context, command string, limit int) ([]*entities.Run, error)

	// Cleanup operations
	DeleteOlderThan(ctx context.Context, days int) (int, error)
}
