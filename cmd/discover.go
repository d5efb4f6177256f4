package cmd

import (
	"github.com/spf13/cobra"

	"github.com/compository/app/pretty"
	"github.com/compository/app/workflow"
)

var discoverCmd = &cobra.Command{
	Use:   "discover",
	Short: "List DNAs other agents generated that are not installed here yet.",
	Long: `List DNAs other agents generated that are not installed here yet.

Install one of them with "compository install --dna <hash>".`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx, cancel := commandContext(cmd)
		defer cancel()
		opened := openSession(ctx)
		defer opened.Close()

		entries, err := workflow.NewDiscoverer(opened.Admin, opened.Compository).Discover(ctx)
		pretty.Guard(err == nil, 1, "Could not discover DNAs: %v", err)

		rows := make([][]string, 0, len(entries))
		for _, entry := range entries {
			rows = append(rows, []string{entry.TemplateName, entry.DnaHash, entry.Uid})
		}
		pretty.Table([]string{"TEMPLATE", "DNA", "UID"}, rows)
	},
}

func init() {
	rootCmd.AddCommand(discoverCmd)
}
