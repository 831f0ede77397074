package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"k8s.io/klog/v2"

	"immich-curator/internal/domain/repositories"
	"immich-curator/internal/domain/services"
	"immich-curator/internal/infrastructure/database"
	"immich-curator/internal/infrastructure/repositories/sqlite"
	infraServices "immich-curator/internal/infrastructure/services"
	"immich-curator/internal/interfaces/controllers"
	"immich-curator/internal/usecases"
)

// Options are per-invocation settings that override the configuration file
type Options struct {
	// SnapshotPath replaces the photo server with an offline JSON snapshot
	SnapshotPath string
	DryRun       bool
}

// Container holds all dependencies for the application
type Container struct {
	// Configuration
	Config *Config

	// Run journal (nil when disabled or unavailable)
	Journal *sqlx.DB
	RunRepo repositories.RunRepository

	// Services
	Directory services.AssetDirectory
	Queries   services.QueryService
	Scorer    *services.AssetScorer

	// Use Cases
	Index                       *usecases.DuplicateIndex
	Recorder                    *usecases.RunRecorder
	DuplicateResolutionUseCase  *usecases.DuplicateResolutionUseCase
	FolderReconciliationUseCase *usecases.FolderReconciliationUseCase
	LibraryQueriesUseCase       *usecases.LibraryQueriesUseCase
	AssetLookupUseCase          *usecases.AssetLookupUseCase
	AlbumMaintenanceUseCase     *usecases.AlbumMaintenanceUseCase
	FaceCorrectionUseCase       *usecases.FaceCorrectionUseCase
	QueryConsoleUseCase         *usecases.QueryConsoleUseCase

	// Controllers
	DuplicateController *controllers.DuplicateController
	ReconcileController *controllers.ReconcileController
	LibraryController   *controllers.LibraryController
	AlbumController     *controllers.AlbumController
	DatabaseController  *controllers.DatabaseController
	HistoryController   *controllers.HistoryController
}

// NewContainer creates and initializes a new dependency injection container
func NewContainer(ctx context.Context, config *Config, opts Options) (*Container, error) {
	container := &Container{
		Config: config,
	}

	container.initializeJournal(ctx)

	if err := container.initializeServices(opts); err != nil {
		container.Close()
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	if err := container.initializeUseCases(); err != nil {
		container.Close()
		return nil, fmt.Errorf("failed to initialize use cases: %w", err)
	}

	container.initializeControllers()
	return container, nil
}

// initializeJournal opens the SQLite run journal. Any failure disables the
// journal instead of failing the command.
func (c *Container) initializeJournal(ctx context.Context) {
	cfg := c.Config.Journal
	if !cfg.Enabled {
		klog.V(1).Info("📓 Run journal disabled")
		return
	}

	if dir := filepath.Dir(cfg.Path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			klog.Warningf("⚠️  Run journal disabled: %v", err)
			return
		}
	}

	db, err := sqlx.Connect("sqlite3", cfg.Path)
	if err != nil {
		klog.Warningf("⚠️  Run journal disabled: failed to open %s: %v", cfg.Path, err)
		return
	}
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 30000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			klog.Warningf("Failed to set pragma %s: %v", pragma, err)
		}
	}

	if err := database.NewMigrator(db).Run(ctx); err != nil {
		klog.Warningf("⚠️  Run journal disabled: %v", err)
		db.Close()
		return
	}

	c.Journal = db
	c.RunRepo = sqlite.NewRunRepository(db)

	if cfg.RetentionDays > 0 {
		if n, err := c.RunRepo.DeleteOlderThan(ctx, cfg.RetentionDays); err != nil {
			klog.Warningf("⚠️  Failed to prune run journal: %v", err)
		} else if n > 0 {
			klog.V(1).Infof("🧹 Pruned %d runs older than %d days", n, cfg.RetentionDays)
		}
	}
}

func (c *Container) initializeServices(opts Options) error {
	if opts.SnapshotPath != "" {
		directory, err := infraServices.LoadSnapshot(opts.SnapshotPath)
		if err != nil {
			return err
		}
		klog.Infof("📦 Using offline snapshot %s", opts.SnapshotPath)
		c.Directory = directory
	} else {
		if c.Config.Immich.APIKey == "" && c.Config.Immich.AccessToken == "" {
			klog.Warningf("⚠️  No Immich API key configured; requests will be unauthenticated")
		}
		client := infraServices.NewHTTPClient(infraServices.ClientOptions{
			APIKey:      c.Config.Immich.APIKey,
			AccessToken: c.Config.Immich.AccessToken,
			Timeout:     c.Config.Immich.GetRequestTimeout(),
			RetryMax:    c.Config.Immich.MaxRetries,
		})
		adapter, err := infraServices.NewImmichAdapter(c.Config.Immich.URL, client, c.Config.Immich.AlbumUserID)
		if err != nil {
			return err
		}
		c.Directory = adapter
	}

	if dsn := c.Config.DatabaseDSN(); dsn != "" {
		c.Queries = &lazyQueryService{dsn: dsn}
	}
	c.Scorer = services.NewAssetScorer(c.Config.Dedup.PathPriority)
	return nil
}

func (c *Container) initializeUseCases() error {
	c.Index = usecases.NewDuplicateIndex(c.Directory)
	c.Recorder = usecases.NewRunRecorder(c.RunRepo)

	c.DuplicateResolutionUseCase = usecases.NewDuplicateResolutionUseCase(c.Directory, c.Index, c.Scorer, c.Recorder)

	reconciliation, err := usecases.NewFolderReconciliationUseCase(
		c.Directory,
		c.Index,
		c.Recorder,
		c.Config.Reconcile.TakeoutRoot,
		c.Config.Reconcile.YearFolderPattern,
	)
	if err != nil {
		return err
	}
	c.FolderReconciliationUseCase = reconciliation

	c.LibraryQueriesUseCase = usecases.NewLibraryQueriesUseCase(c.Directory, c.Index, c.Config.Immich.UploadDeviceID)
	c.AssetLookupUseCase = usecases.NewAssetLookupUseCase(c.Directory)
	c.AlbumMaintenanceUseCase = usecases.NewAlbumMaintenanceUseCase(c.Directory, c.AssetLookupUseCase, c.Recorder, c.Config.Export.PathMappings)
	c.FaceCorrectionUseCase = usecases.NewFaceCorrectionUseCase(c.Directory, c.Queries, c.Recorder)
	c.QueryConsoleUseCase = usecases.NewQueryConsoleUseCase(c.Queries)
	return nil
}

func (c *Container) initializeControllers() {
	c.DuplicateController = controllers.NewDuplicateController(c.DuplicateResolutionUseCase, c.Config.Dedup.FailFast)
	c.ReconcileController = controllers.NewReconcileController(c.FolderReconciliationUseCase)
	c.LibraryController = controllers.NewLibraryController(c.AssetLookupUseCase, c.LibraryQueriesUseCase)
	c.AlbumController = controllers.NewAlbumController(c.AssetLookupUseCase, c.AlbumMaintenanceUseCase)
	c.DatabaseController = controllers.NewDatabaseController(c.FaceCorrectionUseCase, c.QueryConsoleUseCase)
	c.HistoryController = controllers.NewHistoryController(c.Recorder)
}

// Close properly shuts down all resources
func (c *Container) Close() error {
	var firstErr error
	if c.Queries != nil {
		if err := c.Queries.Close(); err != nil {
			firstErr = err
		}
	}
	if c.Journal != nil {
		if err := c.Journal.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// lazyQueryService connects to the photo server's database on first use,
// so commands that never touch it do not need it reachable
type lazyQueryService struct {
	dsn string

	mu      sync.Mutex
	service *database.PostgresQueryService
}

func (l *lazyQueryService) get(ctx context.Context) (*database.PostgresQueryService, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.service == nil {
		service, err := database.NewPostgresQueryService(ctx, l.dsn)
		if err != nil {
			return nil, err
		}
		l.service = service
	}
	return l.service, nil
}

func (l *lazyQueryService) Query(ctx context.Context, query string, args ...interface{}) ([]services.Row, error) {
	service, err := l.get(ctx)
	if err != nil {
		return nil, err
	}
	return service.Query(ctx, query, args...)
}

func (l *lazyQueryService) Exec(ctx context.Context, query string, args ...interface{}) (int64, error) {
	service, err := l.get(ctx)
	if err != nil {
		return 0, err
	}
	return service.Exec(ctx, query, args...)
}

func (l *lazyQueryService) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.service == nil {
		return nil
	}
	return l.service.Close()
}

var _ services.QueryService = (*lazyQueryService)(nil)
