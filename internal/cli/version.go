package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/senpai-on-fire/saci-database-sub001/internal/app"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "saci-cve version %s\n", app.Version)
	},
}
