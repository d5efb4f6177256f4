package cmd

import (
	"github.com/spf13/cobra"

	"github.com/compository/app/common"
	"github.com/compository/app/interactive"
	"github.com/compository/app/pretty"
	"github.com/compository/app/router"
	"github.com/compository/app/settings"
)

var startPath string

var uiCmd = &cobra.Command{
	Use:     "ui",
	Aliases: []string{"tui", "console"},
	Short:   "Launch the interactive terminal console.",
	Long: `Launch the interactive terminal console.

The console connects to the conductor, finds the compository cell and
opens at the given navigation path:
  /              installed DNAs, composition and discovery
  /dna/<hash>    one installed DNA

Navigation:
  1-3        Switch views (Main, Logs, History)
  tab        Next section
  j/k        Move down/up
  enter      Open / confirm
  q          Quit
  ?          Help

Example:
  compository ui
  compository ui --path /dna/uhC0k...`,
	Run: func(cmd *cobra.Command, args []string) {
		pretty.Guard(pretty.Interactive, 1, "The console requires an interactive terminal (TTY).")

		history, err := interactive.LoadHistory(common.Home.HistoryFile())
		if err != nil {
			common.Uncritical("history", err)
		}
		ctx, cancel := commandContext(cmd)
		defer cancel()

		err = interactive.Run(ctx, settings.Global, startPath, history)
		pretty.Guard(err == nil, 1, "Console error: %v", err)
	},
}

func init() {
	rootCmd.AddCommand(uiCmd)
	uiCmd.Flags().StringVarP(&startPath, "path", "p", router.HomePath, "Navigation path to open at.")
}
