package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/senpai-on-fire/saci-database-sub001/internal/adapters/cve"
	"github.com/senpai-on-fire/saci-database-sub001/internal/core/domain"
)

func main() {
	dbPath := flag.String("db-path", "./data/cve.db", "Path to the CVE database")
	vendor := flag.String("vendor", "", "After loading, list the stored CVEs for this vendor")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s [flags] export.json [export.json...]\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stderr, nil))
	slog.SetDefault(logger)

	files := flag.Args()
	if len(files) == 0 {
		flag.Usage()
		os.Exit(2)
	}

	if dir := filepath.Dir(*dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			logger.Error("Failed to create data directory", "error", err)
			os.Exit(1)
		}
	}

	repo, err := cve.NewSQLiteRepository(*dbPath)
	if err != nil {
		logger.Error("Failed to create repository", "error", err)
		os.Exit(1)
	}
	defer repo.Close()

	ctx := context.Background()
	loader := cve.NewSeedLoader(repo, logger)
	loaded := loader.LoadFromMultipleFiles(ctx, files)

	count, err := repo.Count(ctx)
	if err != nil {
		logger.Error("Failed to count records", "error", err)
		os.Exit(1)
	}
	bands, _ := repo.CountByBand(ctx)
	logger.Info("Database updated", "db", *dbPath, "loaded", loaded, "total", count,
		"critical", bands[domain.BandCritical], "high", bands[domain.BandHigh])

	if *vendor != "" {
		vulns, err := repo.FindByVendor(ctx, *vendor)
		if err != nil {
			logger.Error("Vendor lookup failed", "vendor", *vendor, "error", err)
			os.Exit(1)
		}
		for _, v := range vulns {
			score, ok := v.BestScore()
			band := domain.BandUnknown
			if ok {
				band = domain.BandForScore(score.BaseScore)
			}
			fmt.Printf("%s\t%.1f\t%s\n", v.ID, score.BaseScore, band)
		}
	}
}
