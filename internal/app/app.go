package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/senpai-on-fire/saci-database-sub001/internal/adapters/cve"
	"github.com/senpai-on-fire/saci-database-sub001/internal/adapters/httpfetch"
	"github.com/senpai-on-fire/saci-database-sub001/internal/adapters/nvd"
	pdfreport "github.com/senpai-on-fire/saci-database-sub001/internal/adapters/reporting"
	"github.com/senpai-on-fire/saci-database-sub001/internal/adapters/taxonomy"
	"github.com/senpai-on-fire/saci-database-sub001/internal/config"
	"github.com/senpai-on-fire/saci-database-sub001/internal/core/domain"
	"github.com/senpai-on-fire/saci-database-sub001/internal/core/ports"
	"github.com/senpai-on-fire/saci-database-sub001/internal/core/services/enrichment"
	"github.com/senpai-on-fire/saci-database-sub001/internal/core/services/export"
	"github.com/senpai-on-fire/saci-database-sub001/internal/core/services/reporting"
	"github.com/senpai-on-fire/saci-database-sub001/internal/telemetry"
)

// Version is stamped at build time with -ldflags "-X .../internal/app.Version=...".
var Version = "dev"

// UserAgent identifies the tool to remote providers.
func UserAgent() string {
	return "saci-cve/" + Version
}

// Application holds the core components of the pipeline.
// It acts as the Facade for the command line, wiring the fetcher, search
// client, taxonomy cache and enricher together for one run.
type Application struct {
	Config   *config.Config
	RunID    string
	Logger   *slog.Logger
	Fetcher  *httpfetch.Fetcher
	Searcher ports.VulnerabilitySearcher
	Taxonomy *taxonomy.Cache
	Enricher *enrichment.Enricher
	Stats    *reporting.StatisticsCalculator
	PDF      *pdfreport.PDFExporter
	Session  *Session

	log     *slog.Logger
	sleeper ports.Sleeper
	now     func() time.Time
}

// Option customises an Application before bootstrap.
type Option func(*Application)

// WithSleeper replaces the wall-clock sleeper used for rate limiting.
func WithSleeper(s ports.Sleeper) Option {
	return func(app *Application) { app.sleeper = s }
}

// WithClock replaces time.Now for export timestamps.
func WithClock(now func() time.Time) Option {
	return func(app *Application) { app.now = now }
}

// New validates cfg and bootstraps the pipeline.
func New(cfg *config.Config, logger *slog.Logger, opts ...Option) (*Application, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}

	app := &Application{
		Config:  cfg,
		RunID:   uuid.NewString(),
		Logger:  logger,
		Session: NewSession(),
		log:     logger.With("component", "app"),
		sleeper: httpfetch.SystemSleeper{},
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(app)
	}

	app.bootstrap()
	return app, nil
}

// bootstrap builds the components leaves first.
func (app *Application) bootstrap() {
	telemetry.InitMetrics()

	delay := app.Config.RequestDelay()
	app.Fetcher = httpfetch.New(httpfetch.Config{
		Timeout:     app.Config.RequestTimeout,
		MaxAttempts: app.Config.MaxAttempts,
		BaseDelay:   delay,
		MinDelay:    delay,
		UserAgent:   UserAgent(),
	}, httpfetch.WithSleeper(app.sleeper), httpfetch.WithLogger(app.Logger))

	app.Searcher = nvd.NewClient(app.Fetcher, app.sleeper, nvd.ClientConfig{
		BaseURL: app.Config.APIBaseURL,
		APIKey:  app.Config.APIKey,
		Delay:   delay,
	}, app.Logger)

	app.Taxonomy = taxonomy.New(app.Fetcher, taxonomy.Options{
		WeaknessURL:          app.Config.CWEURL,
		AttackPatternURL:     app.Config.CAPECURL,
		EnableWeaknessNames:  app.Config.EnableCWENames,
		EnableAttackPatterns: app.Config.EnableCAPEC,
	}, app.Logger)

	app.Enricher = enrichment.NewEnricher(app.Taxonomy, app.Logger)
	app.Stats = reporting.NewStatisticsCalculator(reporting.DefaultTopN)
	app.PDF = pdfreport.NewPDFExporter()

	app.log.Info("Pipeline ready",
		"run_id", app.RunID,
		"api_key", app.Config.APIKey != "",
		"request_delay", delay,
		"cwe_names", app.Config.EnableCWENames,
		"capec", app.Config.EnableCAPEC)
}

// Search runs one keyword search, enriches the records not seen earlier in
// the session and adds them to it. It returns only the new records.
func (app *Application) Search(ctx context.Context, keywords []string) ([]domain.NormalizedVulnerability, error) {
	if len(keywords) == 0 {
		keywords = app.Config.Keywords
	}
	app.Session.AddKeywords(keywords...)

	raws, err := app.Searcher.Search(ctx, keywords, app.Config.MaxResults)
	if err != nil && len(raws) == 0 {
		return nil, fmt.Errorf("search failed: %w", err)
	}

	fresh := app.Session.Filter(raws)
	vulns := app.Enricher.EnrichAll(ctx, fresh)
	added := app.Session.Add(vulns...)

	app.log.Info("Search complete",
		"keywords", strings.Join(keywords, ","),
		"fetched", len(raws),
		"new", added,
		"session_total", app.Session.Len())
	return vulns, err
}

// Statistics summarises everything collected in the session.
func (app *Application) Statistics() domain.Statistics {
	return app.Stats.Compute(app.Session.Records())
}

// ExportResult lists the artifacts written by Export.
type ExportResult struct {
	Document domain.ExportDocument
	Stats    domain.Statistics
	Files    []string
}

// Export writes the session to the configured artifacts: the JSON document
// always, then the CSV, PDF, SQLite and metrics files when their paths are
// set. Every artifact is attempted; the errors are joined.
func (app *Application) Export(ctx context.Context) (*ExportResult, error) {
	doc := export.NewDocument(app.RunID, app.Session.Keywords(), app.Session.Records(), app.now())
	res := &ExportResult{Document: doc, Stats: app.Stats.Compute(doc.Vulnerabilities)}

	var errs []error
	write := func(path string, fn func(io.Writer) error) {
		if path == "" {
			return
		}
		if err := writeFile(path, fn); err != nil {
			errs = append(errs, err)
			return
		}
		res.Files = append(res.Files, path)
	}

	write(app.Config.OutputPath, func(w io.Writer) error { return export.WriteJSON(w, doc) })
	write(app.Config.CSVPath, func(w io.Writer) error { return export.WriteCSV(w, doc.Vulnerabilities) })
	write(app.Config.PDFPath, func(w io.Writer) error {
		data, err := app.PDF.ExportStatistics(res.Stats, doc.Metadata)
		if err != nil {
			return err
		}
		_, err = w.Write(data)
		return err
	})

	if app.Config.DBPath != "" {
		if err := app.saveToDatabase(ctx, doc); err != nil {
			errs = append(errs, err)
		} else {
			res.Files = append(res.Files, app.Config.DBPath)
		}
	}

	if app.Config.MetricsFile != "" {
		if err := telemetry.WriteMetricsFile(app.Config.MetricsFile); err != nil {
			errs = append(errs, fmt.Errorf("write metrics: %w", err))
		} else {
			res.Files = append(res.Files, app.Config.MetricsFile)
		}
	}

	app.log.Info("Export complete", "run_id", app.RunID, "records", len(doc.Vulnerabilities), "files", res.Files)
	return res, errors.Join(errs...)
}

func (app *Application) saveToDatabase(ctx context.Context, doc domain.ExportDocument) error {
	if err := ensureDir(app.Config.DBPath); err != nil {
		return err
	}
	repo, err := cve.NewSQLiteRepository(app.Config.DBPath)
	if err != nil {
		return fmt.Errorf("open export database: %w", err)
	}
	defer repo.Close()

	if err := repo.SaveRun(ctx, doc.Metadata, doc.Vulnerabilities); err != nil {
		return fmt.Errorf("save run: %w", err)
	}
	return nil
}

func writeFile(path string, fn func(io.Writer) error) error {
	if err := ensureDir(path); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := fn(f); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}

func ensureDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create directory %s: %w", dir, err)
	}
	return nil
}
