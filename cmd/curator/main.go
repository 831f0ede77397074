package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"k8s.io/klog/v2"

	"immich-curator/internal/infrastructure/config"
	"immich-curator/internal/interfaces/cli"
	"immich-curator/internal/interfaces/presenters"
)

const (
	defaultConfigPath = "./config/curator.yaml"
	appName           = "Immich Curator"
	appVersion        = "1.0.0"
)

func main() {
	os.Exit(run())
}

func run() int {
	klog.InitFlags(nil)
	defer klog.Flush()

	// Parse command line flags
	var (
		configPath = flag.String("config", defaultConfigPath, "Path to configuration file (supports .json, .yaml, .yml)")
		dryRun     = flag.Bool("dry-run", false, "Report what would change without changing anything")
		snapshot   = flag.String("snapshot", "", "Serve requests from an offline JSON snapshot instead of the Immich API")
		version    = flag.Bool("version", false, "Show version information")
		help       = flag.Bool("help", false, "Show help information")
	)
	flag.Usage = showHelp
	flag.Parse()

	if *version {
		fmt.Printf("%s v%s\n", appName, appVersion)
		return presenters.ExitOK
	}
	if *help {
		showHelp()
		return presenters.ExitOK
	}

	cmd, err := cli.Parse(flag.Args())
	if err != nil {
		klog.Errorf("❌ %v", err)
		fmt.Fprint(os.Stderr, cli.Usage)
		return presenters.ExitCode(err)
	}

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		klog.Errorf("❌ Failed to load configuration: %v", err)
		return presenters.ExitCode(err)
	}

	printBanner()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := config.NewApplication(ctx, cfg, config.Options{SnapshotPath: *snapshot, DryRun: *dryRun}, os.Stdout)
	if err != nil {
		klog.Errorf("❌ Failed to create application: %v", err)
		return presenters.ExitCode(err)
	}
	defer app.Close()

	if err := app.Execute(ctx, cmd); err != nil {
		return presenters.ExitCode(err)
	}
	return presenters.ExitOK
}

func printBanner() {
	klog.V(1).Info("==========================================")
	klog.V(1).Infof("        %s v%s        ", appName, appVersion)
	klog.V(1).Info("   Immich duplicate & library curator   ")
	klog.V(1).Info("==========================================")
}

func showHelp() {
	out := flag.CommandLine.Output()
	fmt.Fprintf(out, "%s v%s\n", appName, appVersion)
	fmt.Fprintf(out, "Curates an Immich photo library: resolves duplicates, reconciles imported folders, maintains albums\n\n")
	fmt.Fprintf(out, "Usage:\n  %s [options] <command> [args]\n\n", os.Args[0])
	fmt.Fprintf(out, "Options:\n")
	flag.PrintDefaults()
	fmt.Fprintf(out, "\n%s\n", cli.Usage)
	fmt.Fprintf(out, "Environment Variables:\n")
	fmt.Fprintf(out, "  IMMICH_URL             Immich API base URL (default: http://localhost:2283/api)\n")
	fmt.Fprintf(out, "  IMMICH_API_KEY         API key sent as x-api-key\n")
	fmt.Fprintf(out, "  IMMICH_ACCESS_TOKEN    Bearer token sent as Authorization, alongside the API key when both are set\n")
	fmt.Fprintf(out, "  CURATOR_JOURNAL_PATH   SQLite run journal path\n")
	fmt.Fprintf(out, "  CURATOR_DRY_RUN        Set to true to never change anything\n")
	fmt.Fprintf(out, "  X_API_KEY, DB_*        Read from the Immich .env file named by env_file\n\n")
	fmt.Fprintf(out, "Examples:\n")
	fmt.Fprintf(out, "  %s --dry-run dedup\n", os.Args[0])
	fmt.Fprintf(out, "  %s get album --keys id,albumName Trip\n", os.Args[0])
	fmt.Fprintf(out, "  %s -v=2 reconcile photos/GooglePhotos/Trip --library <libraryId>\n", os.Args[0])
}
