package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"k8s.io/klog/v2"

	"immich-curator/internal/infrastructure/database"
)

const (
	defaultDBPath = "./data/curator.db"
)

func main() {
	klog.InitFlags(nil)
	defer klog.Flush()

	var (
		dbPath     = flag.String("db", defaultDBPath, "Path to the SQLite run journal")
		backup     = flag.Bool("backup", true, "Create backup before migration")
		backupPath = flag.String("backup-path", "", "Custom backup file path (default: curator_backup_timestamp.db)")
		dryRun     = flag.Bool("dry-run", false, "Show what migrations would be applied without executing them")
		down       = flag.Bool("down", false, "Revert the most recent migration")
		version    = flag.Bool("version", false, "Show current schema version")
		help       = flag.Bool("help", false, "Show help information")
	)
	flag.Parse()

	if *help {
		showHelp()
		return
	}

	printBanner()

	if _, err := os.Stat(*dbPath); os.IsNotExist(err) {
		klog.Exitf("❌ Journal file does not exist: %s", *dbPath)
	}

	db, err := sqlx.Connect("sqlite3", *dbPath)
	if err != nil {
		klog.Exitf("❌ Failed to connect to journal: %v", err)
	}
	defer db.Close()

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	migrator := database.NewMigrator(db)

	current, err := migrator.Version()
	if err != nil {
		klog.Exitf("❌ Failed to read schema version: %v", err)
	}

	if *version {
		klog.Infof("📊 Current schema version: %d", current)
		return
	}

	if *down {
		if current == 0 {
			klog.Info("ℹ️  Nothing to roll back")
			return
		}
		if *dryRun {
			klog.Infof("📋 Migration %d would be reverted", current)
			return
		}
		if *backup {
			createBackup(migrator, *backupPath)
		}
		reverted, err := migrator.Rollback(context.Background())
		if err != nil {
			klog.Exitf("❌ Rollback failed: %v", err)
		}
		klog.Infof("✅ Rolled back to schema version %d", reverted)
		return
	}

	pending := migrator.Pending(current)
	if *dryRun {
		showPendingMigrations(pending)
		return
	}
	if len(pending) == 0 {
		klog.Info("✅ Schema is up to date")
		return
	}

	if *backup {
		createBackup(migrator, *backupPath)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	if err := migrator.Run(ctx); err != nil {
		klog.Exitf("❌ Migration failed: %v", err)
	}

	klog.Info("🎉 All migrations completed successfully!")
}

func createBackup(migrator *database.Migrator, backupFile string) {
	if backupFile == "" {
		backupFile = fmt.Sprintf("curator_backup_%s.db", time.Now().Format("20060102_150405"))
	}
	if err := migrator.BackupDatabase(backupFile); err != nil {
		klog.Exitf("❌ Failed to create backup: %v", err)
	}
	klog.Infof("✅ Backup created: %s", backupFile)
}

func printBanner() {
	klog.Info("╔══════════════════════════════════════╗")
	klog.Info("║     Run Journal Migration Tool       ║")
	klog.Info("║          Immich Curator              ║")
	klog.Info("╚══════════════════════════════════════╝")
}

func showHelp() {
	fmt.Printf("Run journal migration tool for Immich Curator\n\n")
	fmt.Printf("Usage:\n  %s [options]\n\nOptions:\n", os.Args[0])
	flag.PrintDefaults()
	fmt.Printf("\nExamples:\n")
	fmt.Printf("  # Show current schema version\n  %s -version\n\n", os.Args[0])
	fmt.Printf("  # Show pending migrations without applying them\n  %s -dry-run\n\n", os.Args[0])
	fmt.Printf("  # Revert the latest migration\n  %s -down\n\n", os.Args[0])
	fmt.Printf("  # Run migrations without backup\n  %s -backup=false -db /path/to/curator.db\n", os.Args[0])
}

func showPendingMigrations(pending []database.Migration) {
	if len(pending) == 0 {
		klog.Info("✅ No pending migrations")
		return
	}
	klog.Info("📋 The following migrations would be applied:")
	for _, m := range pending {
		klog.Infof("   %d. %s", m.Version, m.Description)
	}
	klog.Info("💡 Run without -dry-run to apply these migrations")
}
