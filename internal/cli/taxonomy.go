package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/senpai-on-fire/saci-database-sub001/internal/adapters/taxonomy"
)

var taxonomyCmd = &cobra.Command{
	Use:   "taxonomy <CWE-ID>",
	Short: "Print a weakness name and its attack patterns",
	Long: `Resolve a CWE identifier through the same cache the enricher uses.

Examples:
  saci-cve taxonomy CWE-120
  saci-cve taxonomy 79`,
	Args: cobra.ExactArgs(1),
	RunE: runTaxonomy,
}

func runTaxonomy(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()
	id := taxonomy.NormalizeWeaknessID(args[0], true)

	name := application.Taxonomy.ResolveWeaknessName(ctx, id)
	fmt.Fprintf(out, "%s: %s\n", id, name)

	patterns := application.Taxonomy.AttackPatternsForWeakness(ctx, id)
	if len(patterns) == 0 {
		fmt.Fprintln(out, "No related attack patterns")
		return nil
	}
	fmt.Fprintf(out, "Related attack patterns (%d):\n", len(patterns))
	for _, p := range patterns {
		fmt.Fprintf(out, "  %s  %s\n", p.ID, p.Name)
	}
	return nil
}
