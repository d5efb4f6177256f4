package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/compository/app/anywork"
	"github.com/compository/app/conductor"
	"github.com/compository/app/pretty"
)

var appsCmd = &cobra.Command{
	Use:   "apps",
	Short: "List active apps with their cells, and registered DNAs no app runs.",
	Run: func(cmd *cobra.Command, args []string) {
		ctx, cancel := commandContext(cmd)
		defer cancel()
		opened := openSession(ctx)
		defer opened.Close()

		active, err := opened.Admin.ListActiveApps(ctx)
		pretty.Guard(err == nil, 1, "Could not list active apps: %v", err)
		registered, err := opened.Admin.ListDnas(ctx)
		pretty.Guard(err == nil, 1, "Could not list registered DNAs: %v", err)

		infos := make([]*conductor.InstalledApp, len(active))
		err = anywork.Fanout(ctx, len(active), 0, func(ctx context.Context, index int) error {
			info, err := opened.App.AppInfo(ctx, active[index])
			if err != nil {
				return fmt.Errorf("app %s: %w", active[index], err)
			}
			infos[index] = info
			return nil
		})
		pretty.Guard(err == nil, 1, "Could not fetch app info: %v", err)

		running := map[string]bool{}
		rows := [][]string{}
		for _, info := range infos {
			for _, cell := range info.CellData {
				running[cell.CellId.DnaKey()] = true
				rows = append(rows, []string{info.InstalledAppId, cell.CellNick, cell.CellId.DnaKey(), cell.CellId.AgentPubKey.Short()})
			}
		}
		for _, dna := range registered {
			if !running[dna.String()] {
				rows = append(rows, []string{"-", "-", dna.String(), "-"})
			}
		}
		pretty.Table([]string{"APP", "NICK", "DNA", "AGENT"}, rows)
	},
}

func init() {
	rootCmd.AddCommand(appsCmd)
}
