// cmd/reconcile-follows/main.go
// Repairs follow edges so every following list mirrors the follower lists
package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"log/slog"
	"os"
	"os/signal"

	"PicSphere/internal/app"
	"PicSphere/internal/config"
	"PicSphere/internal/core/socialgraph"
)

func main() {
	dryRun := flag.Bool("dry-run", false, "report the changes without writing them")
	verbose := flag.Bool("v", false, "print every list change as JSON")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	backend, err := app.Open(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to open backend: %v", err)
	}
	defer backend.Close()

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	graph := socialgraph.NewGraphService(backend.Store, socialgraph.WithLogger(logger))

	log.Printf("Reconciling follow edges (store=%s dry-run=%v)...", cfg.StoreBackend, *dryRun)
	report, err := graph.Reconcile(ctx, socialgraph.ReconcileOptions{DryRun: *dryRun})
	if err != nil {
		log.Fatalf("Reconcile failed: %v", err)
	}

	if *verbose {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(report.Changes); err != nil {
			log.Printf("Failed to print changes: %v", err)
		}
	}

	log.Printf("Scanned %d users: %d list changes, %d applied, %d skipped (modified during the run)",
		report.UsersScanned, len(report.Changes), report.Applied, report.Skipped)
	if *dryRun && len(report.Changes) > 0 {
		log.Printf("Dry run: nothing was written. Re-run without -dry-run to apply.")
	}
}
