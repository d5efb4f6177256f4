package cmd

import (
	"github.com/spf13/cobra"

	"github.com/compository/app/pretty"
	"github.com/compository/app/workflow"
)

var cellsCmd = &cobra.Command{
	Use:     "cells",
	Aliases: []string{"installed"},
	Short:   "List DNAs installed in the conductor, with the template each came from.",
	Run: func(cmd *cobra.Command, args []string) {
		ctx, cancel := commandContext(cmd)
		defer cancel()
		opened := openSession(ctx)
		defer opened.Close()

		entries, err := workflow.NewDiscoverer(opened.Admin, opened.Compository).Installed(ctx)
		pretty.Guard(err == nil, 1, "Could not list installed DNAs: %v", err)

		rows := make([][]string, 0, len(entries))
		for _, entry := range entries {
			rows = append(rows, []string{entry.TemplateName, entry.DnaHash, entry.Cell.AgentPubKey.Short()})
		}
		pretty.Table([]string{"TEMPLATE", "DNA", "AGENT"}, rows)
	},
}

func init() {
	rootCmd.AddCommand(cellsCmd)
}
