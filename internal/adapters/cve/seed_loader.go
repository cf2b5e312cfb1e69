package cve

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/senpai-on-fire/saci-database-sub001/internal/core/domain"
	"github.com/senpai-on-fire/saci-database-sub001/internal/core/ports"
)

// SeedLoader loads JSON export documents into a repository.
type SeedLoader struct {
	repo   ports.VulnerabilityRepository
	logger *slog.Logger
}

// NewSeedLoader creates a new seed loader.
func NewSeedLoader(repo ports.VulnerabilityRepository, logger *slog.Logger) *SeedLoader {
	if logger == nil {
		logger = slog.Default()
	}
	return &SeedLoader{repo: repo, logger: logger.With("component", "cve-seed")}
}

// LoadFromFile loads one export document and returns the number of
// records stored.
func (s *SeedLoader) LoadFromFile(ctx context.Context, path string) (int, error) {
	s.logger.Info("Loading export", "path", path)

	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("failed to read export file: %w", err)
	}

	var doc domain.ExportDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return 0, fmt.Errorf("failed to parse export file: %w", err)
	}
	if doc.Metadata.RunID == "" {
		// exports written before run ids existed are keyed by their file
		doc.Metadata.RunID = path
	}

	if err := s.repo.SaveRun(ctx, doc.Metadata, doc.Vulnerabilities); err != nil {
		return 0, fmt.Errorf("failed to store %s: %w", path, err)
	}

	s.logger.Info("Loaded export", "path", path, "records", len(doc.Vulnerabilities), "run_id", doc.Metadata.RunID)
	return len(doc.Vulnerabilities), nil
}

// LoadFromMultipleFiles loads every file, skipping the ones that fail, and
// returns the total number of records stored.
func (s *SeedLoader) LoadFromMultipleFiles(ctx context.Context, paths []string) int {
	total, files := 0, 0
	for _, path := range paths {
		n, err := s.LoadFromFile(ctx, path)
		if err != nil {
			s.logger.Warn("Skipping export", "path", path, "error", err)
			continue
		}
		total += n
		files++
	}

	s.logger.Info("Exports loaded", "files", files, "of", len(paths), "records", total)
	return total
}
