package cmd

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/compository/app/pretty"
	"github.com/compository/app/workflow"
)

var zomesCmd = &cobra.Command{
	Use:   "zomes",
	Short: "List zome definitions published to the compository.",
	Run: func(cmd *cobra.Command, args []string) {
		ctx, cancel := commandContext(cmd)
		defer cancel()
		opened := openSession(ctx)
		defer opened.Close()

		zomes, err := opened.Compository.GetAllZomeDefs(ctx)
		pretty.Guard(err == nil, 1, "Could not fetch zome definitions: %v", err)

		rows := make([][]string, 0, len(zomes))
		for _, zome := range zomes {
			flags := ""
			if zome.Content.Name == workflow.LockedZome {
				flags = "always included"
			}
			rows = append(rows, []string{zome.Content.Name, zome.Hash.String(), strings.Join(zome.Content.EntryDefs, ","), flags})
		}
		pretty.Table([]string{"NAME", "HASH", "ENTRIES", ""}, rows)
	},
}

func init() {
	rootCmd.AddCommand(zomesCmd)
}
