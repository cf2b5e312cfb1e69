package cli

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/senpai-on-fire/saci-database-sub001/internal/core/services/reporting"
)

var interactiveCmd = &cobra.Command{
	Use:   "interactive",
	Short: "Read keyword lines from stdin and search each one",
	Long: `Read one line of keywords at a time (comma or space separated) and search
them. Records already found earlier in the session are not repeated.

Commands:
  stats   print statistics for the session so far
  quit    export and exit (end of input does the same)`,
	Args: cobra.NoArgs,
	RunE: runInteractive,
}

func runInteractive(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()
	scanner := bufio.NewScanner(cmd.InOrStdin())

	fmt.Fprintln(out, "Enter keywords (comma or space separated), 'stats' or 'quit'.")
	for {
		fmt.Fprint(out, "> ")
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())

		switch strings.ToLower(line) {
		case "":
			continue
		case "quit", "exit", "q":
			return exportAndReport(cmd, out)
		case "stats":
			if err := reporting.FormatText(out, application.Statistics()); err != nil {
				return err
			}
			continue
		}

		keywords := splitKeywords(line)
		if len(keywords) == 0 {
			continue
		}
		vulns, err := application.Search(ctx, keywords)
		if err != nil {
			if ctx.Err() != nil {
				break
			}
			fmt.Fprintf(out, "Search failed: %v\n", err)
			continue
		}
		fmt.Fprintf(out, "%d new vulnerabilities (%d in session)\n", len(vulns), application.Session.Len())
		for _, v := range vulns {
			fmt.Fprintf(out, "  %s  %s\n", v.ID, summarize(v.Description, 80))
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read input: %w", err)
	}
	return exportAndReport(cmd, out)
}

func splitKeywords(line string) []string {
	return strings.FieldsFunc(line, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t'
	})
}

func summarize(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}
