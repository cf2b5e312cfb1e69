package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/senpai-on-fire/saci-database-sub001/internal/core/services/reporting"
)

var searchCmd = &cobra.Command{
	Use:   "search [keywords...]",
	Short: "Search, enrich and export vulnerabilities",
	Long: `Search the NVD for each keyword, enrich the results and write the export.
Without arguments the configured keyword list is used.

Examples:
  saci-cve search
  saci-cve search ardupilot mavlink --max-results 500 --csv results.csv`,
	RunE: runSearch,
}

func runSearch(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	keywords := args
	if len(keywords) == 0 {
		keywords = cfg.Keywords
	}

	vulns, err := application.Search(ctx, keywords)
	if err != nil && len(vulns) == 0 {
		return err
	}

	return exportAndReport(cmd, cmd.OutOrStdout())
}

// exportAndReport writes the configured artifacts and prints statistics.
func exportAndReport(cmd *cobra.Command, out io.Writer) error {
	res, err := application.Export(cmd.Context())
	if res != nil {
		fmt.Fprintln(out)
		if ferr := reporting.FormatText(out, res.Stats); ferr != nil {
			return ferr
		}
		for _, f := range res.Files {
			fmt.Fprintf(out, "Wrote %s\n", f)
		}
	}
	return err
}
