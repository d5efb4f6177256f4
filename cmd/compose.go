package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/compository/app/common"
	"github.com/compository/app/compository"
	"github.com/compository/app/installer"
	"github.com/compository/app/interactive"
	"github.com/compository/app/pretty"
	"github.com/compository/app/router"
	"github.com/compository/app/settings"
	"github.com/compository/app/wizard"
	"github.com/compository/app/workflow"
)

var (
	composeName  string
	composeZomes []string
	installNow   bool
)

var composeCmd = &cobra.Command{
	Use:   "compose",
	Short: "Compose a new DNA out of published zomes.",
	Long: `Compose a new DNA out of published zomes.

The template is published to the compository, the DNA is generated from it
and saved as a .dna file into the download directory. With --install it is
installed into the conductor right away. The blocky zome is always included.`,
	Example: `  compository compose --name "My Board" --zome todo --zome profiles --install`,
	Run: func(cmd *cobra.Command, args []string) {
		if !workflow.CanSubmit(composeName) {
			name, err := wizard.AskName("Name of the new DNA")
			pretty.Guard(err == nil, 1, "A DNA needs a name, use --name.")
			composeName = name
		}
		ctx, cancel := commandContext(cmd)
		defer cancel()
		opened := openSession(ctx)
		defer opened.Close()

		dialog := installer.NewDialog(opened.Admin, settings.Global.DownloadDir)
		composer := workflow.NewComposer(opened.Compository)
		err := composer.Load(ctx)
		pretty.Guard(err == nil, 1, "Could not fetch zome definitions: %v", err)
		err = selectZomes(composer, composeZomes)
		pretty.Guard(err == nil, 1, "%v", err)

		progress := pretty.NewSpinner("Generating " + composeName + " ...")
		progress.Start()
		dnaFile, err := composer.Compose(ctx, composeName)
		progress.Stop(err == nil)
		pretty.Guard(err == nil, 1, "%v", err)
		pretty.Guard(dialog.Offer(dnaFile) == nil, 1, "Could not open the install dialog.")
		history := openHistory()
		history.Add(interactive.HistoryEntry{Kind: interactive.EventGenerated, Name: dnaFile.Dna.Name, DnaHash: dnaKey(dnaFile), Detail: "composed"})
		finish(ctx, dialog, history, installNow)
	},
}

var errUnknownZome = errors.New("no such zome in the compository")

func selectZomes(composer *workflow.Composer, names []string) error {
	wanted := make(map[string]bool, len(names))
	for _, name := range names {
		wanted[strings.TrimSpace(name)] = true
	}
	for index, zome := range composer.Zomes() {
		if wanted[zome.Content.Name] {
			delete(wanted, zome.Content.Name)
			if !composer.IsSelected(index) {
				composer.Toggle(index)
			}
		}
	}
	for name := range wanted {
		return fmt.Errorf("%w: %q", errUnknownZome, name)
	}
	return nil
}

func dnaKey(dnaFile *compository.DnaFile) string {
	hash, err := dnaFile.Hash()
	if err != nil {
		return ""
	}
	return hash.String()
}

func openHistory() *interactive.History {
	history, err := interactive.LoadHistory(common.Home.HistoryFile())
	common.Uncritical("history", err)
	return history
}

// finish either installs the DNA offered in the dialog or saves it to disk.
func finish(ctx context.Context, dialog *installer.Dialog, history *interactive.History, install bool) {
	dnaFile := dialog.DnaFile()
	defer dialog.Close()
	if !install {
		path, err := dialog.SaveFile(dnaFile)
		pretty.Guard(err == nil, 1, "Could not save the DNA file: %v", err)
		history.Add(interactive.HistoryEntry{Kind: interactive.EventSaved, Name: dnaFile.Dna.Name, Detail: path})
		common.Stdout("%s\n", path)
		pretty.Ok()
		return
	}
	progress := pretty.NewSpinner("Installing " + dnaFile.Dna.Name + " ...")
	progress.Start()
	installed, err := dialog.Install(ctx, dnaFile)
	progress.Stop(err == nil)
	pretty.Guard(err == nil, 1, "Installation failed: %v", err)
	history.Add(interactive.HistoryEntry{Kind: interactive.EventInstalled, Name: installed.Name, DnaHash: installed.Cell.DnaKey(), Detail: installed.AppId})
	common.Stdout("%s %s\n", installed.AppId, router.DnaPath(installed.Cell.DnaKey()))
	pretty.Ok()
}

func init() {
	rootCmd.AddCommand(composeCmd)
	composeCmd.Flags().StringVarP(&composeName, "name", "n", "", "Name of the new DNA.")
	composeCmd.Flags().StringSliceVarP(&composeZomes, "zome", "z", []string{}, "Zome to include, by name. Repeat for more.")
	composeCmd.Flags().BoolVarP(&installNow, "install", "i", false, "Install the generated DNA instead of only saving it.")
}
