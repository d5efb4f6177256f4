package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/compository/app/compository"
	"github.com/compository/app/installer"
	"github.com/compository/app/interactive"
	"github.com/compository/app/pretty"
	"github.com/compository/app/settings"
	"github.com/compository/app/workflow"
)

var (
	installDna  string
	installFile string
)

var installCmd = &cobra.Command{
	Use:   "install",
	Short: "Install a discovered DNA, or a saved .dna file, into the conductor.",
	Long: `Install a discovered DNA, or a saved .dna file, into the conductor.

With --dna the DNA is regenerated from the template and parameters the
compository recorded for it. With --file a previously saved bundle is used.`,
	Example: `  compository install --dna uhC0k...
  compository install --file My_Board.dna`,
	Run: func(cmd *cobra.Command, args []string) {
		pretty.Guard((len(installDna) > 0) != (len(installFile) > 0), 1, "Give exactly one of --dna or --file.")
		ctx, cancel := commandContext(cmd)
		defer cancel()
		opened := openSession(ctx)
		defer opened.Close()

		dialog := installer.NewDialog(opened.Admin, settings.Global.DownloadDir)
		history := openHistory()

		if len(installFile) > 0 {
			handle, err := os.Open(installFile)
			pretty.Guard(err == nil, 1, "Could not open %s: %v", installFile, err)
			dnaFile, err := compository.ReadBundle(handle)
			handle.Close()
			pretty.Guard(err == nil, 1, "%s is not a DNA file: %v", installFile, err)
			pretty.Guard(dialog.Offer(dnaFile) == nil, 1, "Could not open the install dialog.")
			finish(ctx, dialog, history, true)
			return
		}

		discoverer := workflow.NewDiscoverer(opened.Admin, opened.Compository)
		entries, err := discoverer.Discover(ctx)
		pretty.Guard(err == nil, 1, "Could not discover DNAs: %v", err)
		var chosen *workflow.Entry
		for at := range entries {
			if entries[at].DnaHash == installDna {
				chosen = &entries[at]
			}
		}
		pretty.Guard(chosen != nil, 1, "DNA %s is unknown to the compository or already installed.", installDna)

		progress := pretty.NewSpinner("Regenerating " + chosen.TemplateName + " ...")
		progress.Start()
		dnaFile, err := discoverer.Prepare(ctx, *chosen)
		progress.Stop(err == nil)
		pretty.Guard(err == nil, 1, "%v", err)
		history.Add(interactive.HistoryEntry{Kind: interactive.EventGenerated, Name: dnaFile.Dna.Name, DnaHash: dnaKey(dnaFile), Detail: "discovered " + installDna})
		pretty.Guard(dialog.Offer(dnaFile) == nil, 1, "Could not open the install dialog.")
		finish(ctx, dialog, history, true)
	},
}

func init() {
	rootCmd.AddCommand(installCmd)
	installCmd.Flags().StringVarP(&installDna, "dna", "d", "", "Hash of a discovered DNA to install.")
	installCmd.Flags().StringVarP(&installFile, "file", "f", "", "Saved .dna file to install.")
}
