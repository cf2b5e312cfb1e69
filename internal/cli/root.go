package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/senpai-on-fire/saci-database-sub001/internal/app"
	"github.com/senpai-on-fire/saci-database-sub001/internal/config"
	"github.com/senpai-on-fire/saci-database-sub001/internal/telemetry"
)

var (
	// Global flags
	configFile  string
	apiURL      string
	apiKey      string
	timeout     time.Duration
	maxAttempts int
	maxResults  int
	outputPath  string
	csvPath     string
	pdfPath     string
	dbPath      string
	metricsFile string
	noCWENames  bool
	noCAPEC     bool
	debug       bool
	trace       bool

	// Shared resources
	cfg            *config.Config
	application    *app.Application
	shutdownTracer func(context.Context) error

	// appOptions lets tests inject a sleeper or clock.
	appOptions []app.Option
)

// rootCmd is the base command
var rootCmd = &cobra.Command{
	Use:   "saci-cve",
	Short: "CVE ingestion and enrichment for autopilot and drone software",
	Long: `saci-cve searches the NVD for vulnerabilities matching domain keywords,
annotates them with CWE names and CAPEC attack patterns, and exports the
enriched dataset with summary statistics.

Examples:
  # Search the default keyword list and write saci_cve_results.json
  saci-cve search

  # Search specific keywords with an API key, also writing a PDF report
  NVD_API_KEY=... saci-cve search ardupilot px4 --pdf stats.pdf

  # Enter keywords line by line
  saci-cve interactive

  # Look up a weakness
  saci-cve taxonomy CWE-120`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == "help" || cmd.Name() == "version" {
			return nil
		}

		loaded, err := config.Load(configFile)
		if err != nil {
			return err
		}
		applyFlags(cmd, loaded)
		cfg = loaded

		logger := setupLogger(cfg.Debug)

		if cfg.Trace {
			shutdown, err := telemetry.InitTracer(os.Stderr, app.Version)
			if err != nil {
				logger.Error("Failed to init tracer", "error", err)
			} else {
				shutdownTracer = shutdown
			}
		}

		application, err = app.New(cfg, logger, appOptions...)
		if err != nil {
			return fmt.Errorf("failed to initialize application: %w", err)
		}
		return nil
	},
}

// Execute runs the CLI with a context cancelled on interrupt.
func Execute() error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	err := rootCmd.ExecuteContext(ctx)

	if shutdownTracer != nil {
		if serr := shutdownTracer(context.Background()); serr != nil {
			slog.Error("Failed to shutdown tracer", "error", serr)
		}
		shutdownTracer = nil
	}
	return err
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&configFile, "config", "c", "", "Path to a YAML config file")
	flags.StringVar(&apiURL, "api-url", config.DefaultAPIBaseURL, "NVD CVE API base URL")
	flags.StringVar(&apiKey, "api-key", "", "NVD API key (shortens the request delay)")
	flags.DurationVar(&timeout, "timeout", config.DefaultRequestTimeout, "Per-request timeout")
	flags.IntVar(&maxAttempts, "max-attempts", config.DefaultMaxAttempts, "Attempts per request before giving up")
	flags.IntVarP(&maxResults, "max-results", "n", config.DefaultMaxResults, "Maximum results per keyword")
	flags.StringVarP(&outputPath, "output", "o", config.DefaultOutputPath, "JSON export path")
	flags.StringVar(&csvPath, "csv", "", "Also write a CSV export to this path")
	flags.StringVar(&pdfPath, "pdf", "", "Also write a PDF statistics report to this path")
	flags.StringVar(&dbPath, "db", "", "Also write the records to this SQLite database")
	flags.StringVar(&metricsFile, "metrics-file", "", "Write Prometheus metrics to this textfile on exit")
	flags.BoolVar(&noCWENames, "no-cwe-names", false, "Do not resolve CWE names")
	flags.BoolVar(&noCAPEC, "no-capec", false, "Do not look up CAPEC attack patterns")
	flags.BoolVar(&debug, "debug", false, "Enable debug logging")
	flags.BoolVar(&trace, "trace", false, "Print OpenTelemetry spans to stderr")

	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(interactiveCmd)
	rootCmd.AddCommand(taxonomyCmd)
	rootCmd.AddCommand(versionCmd)
}

// applyFlags overrides file and environment values with explicitly set flags.
func applyFlags(cmd *cobra.Command, c *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("api-url") {
		c.APIBaseURL = apiURL
	}
	if flags.Changed("api-key") {
		c.APIKey = apiKey
	}
	if flags.Changed("timeout") {
		c.RequestTimeout = timeout
	}
	if flags.Changed("max-attempts") {
		c.MaxAttempts = maxAttempts
	}
	if flags.Changed("max-results") {
		c.MaxResults = maxResults
	}
	if flags.Changed("output") {
		c.OutputPath = outputPath
	}
	if flags.Changed("csv") {
		c.CSVPath = csvPath
	}
	if flags.Changed("pdf") {
		c.PDFPath = pdfPath
	}
	if flags.Changed("db") {
		c.DBPath = dbPath
	}
	if flags.Changed("metrics-file") {
		c.MetricsFile = metricsFile
	}
	if noCWENames {
		c.EnableCWENames = false
	}
	if noCAPEC {
		c.EnableCAPEC = false
	}
	if debug {
		c.Debug = true
	}
	if trace {
		c.Trace = true
	}
}

// setupLogger installs a JSON handler on stderr so stdout carries results only.
func setupLogger(debug bool) *slog.Logger {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	return logger
}
