package config

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"k8s.io/klog/v2"

	"immich-curator/internal/domain/entities"
	"immich-curator/internal/interfaces/cli"
	"immich-curator/internal/interfaces/middleware"
	"immich-curator/internal/interfaces/presenters"
)

// Application runs parsed curator commands against the wired container
type Application struct {
	container *Container
	config    *Config
	out       io.Writer
	dryRun    bool
}

// NewApplication creates a new application instance. Results are written to out as JSON.
func NewApplication(ctx context.Context, config *Config, opts Options, out io.Writer) (*Application, error) {
	container, err := NewContainer(ctx, config, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to create container: %w", err)
	}

	app := &Application{
		container: container,
		config:    config,
		out:       out,
		dryRun:    opts.DryRun || config.DryRun,
	}
	if app.dryRun {
		klog.Info("🧪 Dry run: no changes will be made")
	}
	return app, nil
}

// Execute runs one command and prints its result, or an error document when it fails.
// The returned error is the command's error.
func (app *Application) Execute(ctx context.Context, cmd cli.Command) error {
	handler, err := app.handler(cmd)
	if err != nil {
		app.writeError(err)
		return err
	}

	result, err := middleware.Chain(cmd.Name(), handler, middleware.ErrorHandler, middleware.Logging)(ctx)
	if err != nil {
		app.writeError(err)
		return err
	}
	return app.write(result)
}

// handler dispatches on the concrete command type
func (app *Application) handler(cmd cli.Command) (middleware.Handler, error) {
	c := app.container
	dryRun := app.dryRun

	switch cmd := cmd.(type) {
	case cli.GetAssets:
		return func(ctx context.Context) (interface{}, error) { return c.LibraryController.GetAssets(ctx, cmd) }, nil
	case cli.GetLibraries:
		return func(ctx context.Context) (interface{}, error) { return c.LibraryController.GetLibraries(ctx, cmd) }, nil
	case cli.GetAlbums:
		return func(ctx context.Context) (interface{}, error) { return c.AlbumController.GetAlbums(ctx, cmd) }, nil
	case cli.ListLibraries:
		return func(ctx context.Context) (interface{}, error) { return c.LibraryController.ListLibraries(ctx, cmd) }, nil
	case cli.ListAlbums:
		return func(ctx context.Context) (interface{}, error) { return c.AlbumController.ListAlbums(ctx, cmd) }, nil
	case cli.ListSingleStored:
		return func(ctx context.Context) (interface{}, error) { return c.LibraryController.SingleStored(ctx, cmd) }, nil
	case cli.ListNotInLibrary:
		return func(ctx context.Context) (interface{}, error) { return c.LibraryController.NotInLibrary(ctx, cmd) }, nil
	case cli.ListRedundantFolders:
		return func(ctx context.Context) (interface{}, error) { return c.ReconcileController.RedundantFolders(ctx, cmd) }, nil
	case cli.ListSubdirs:
		return func(ctx context.Context) (interface{}, error) { return c.LibraryController.Subdirs(ctx, cmd) }, nil
	case cli.Dedup:
		return func(ctx context.Context) (interface{}, error) { return c.DuplicateController.Dedup(ctx, cmd, dryRun) }, nil
	case cli.Reconcile:
		return func(ctx context.Context) (interface{}, error) { return c.ReconcileController.Reconcile(ctx, cmd, dryRun) }, nil
	case cli.HideAlbum:
		return func(ctx context.Context) (interface{}, error) { return c.AlbumController.HideAlbum(ctx, cmd, dryRun) }, nil
	case cli.ExportAlbum:
		return func(ctx context.Context) (interface{}, error) { return c.AlbumController.ExportAlbum(ctx, cmd, dryRun) }, nil
	case cli.ReassignFaces:
		return func(ctx context.Context) (interface{}, error) { return c.DatabaseController.ReassignFaces(ctx, cmd, dryRun) }, nil
	case cli.RunQuery:
		if dryRun {
			return nil, &entities.ConfigurationError{Field: "db", Reason: "ad-hoc queries cannot be dry-run"}
		}
		return func(ctx context.Context) (interface{}, error) { return c.DatabaseController.RunQuery(ctx, cmd) }, nil
	case cli.History:
		return func(ctx context.Context) (interface{}, error) { return c.HistoryController.History(ctx, cmd) }, nil
	default:
		return nil, &entities.ConfigurationError{Field: "command", Reason: fmt.Sprintf("unsupported command %T", cmd)}
	}
}

func (app *Application) write(v interface{}) error {
	enc := json.NewEncoder(app.out)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to encode result: %w", err)
	}
	return nil
}

func (app *Application) writeError(err error) {
	if werr := app.write(presenters.ToErrorResponse(err)); werr != nil {
		klog.Errorf("❌ %v", werr)
	}
}

// Close properly shuts down all resources
func (app *Application) Close() error {
	return app.container.Close()
}
