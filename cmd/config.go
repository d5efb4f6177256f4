package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/compository/app/common"
	"github.com/compository/app/pretty"
	"github.com/compository/app/settings"
	"github.com/compository/app/wizard"
)

var forceFlag bool

var configCmd = &cobra.Command{
	Use:     "config",
	Aliases: []string{"configure", "settings"},
	Short:   "Show or initialize settings.",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show effective settings, after defaults, file, environment and flags.",
	Run: func(cmd *cobra.Command, args []string) {
		content, err := settings.Global.AsYaml()
		pretty.Guard(err == nil, 1, "Could not render settings: %v", err)
		common.Stdout("# source: %s\n%s", settings.Global.Source, content)
	},
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write the default settings file into the product home.",
	Run: func(cmd *cobra.Command, args []string) {
		target := configFile
		if len(target) == 0 {
			target = common.Home.SettingsFile()
		}
		_, err := common.EnsureDirectory(common.Home.Home())
		pretty.Guard(err == nil, 1, "Could not create %s: %v", common.Home.Home(), err)
		force := forceFlag
		if _, err := os.Stat(target); err == nil {
			force, err = wizard.Confirm(fmt.Sprintf("Overwrite %s", target), forceFlag)
			pretty.Guard(err == nil, 1, "%s exists: %v", target, err)
			if !force {
				return
			}
		}
		err = settings.Defaults().WriteFile(target, force)
		pretty.Guard(err == nil, 1, "%v", err)
		common.Stdout("%s\n", target)
		pretty.Ok()
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configInitCmd)
	configInitCmd.Flags().BoolVarP(&forceFlag, "force", "f", false, "Overwrite an existing settings file.")
}
