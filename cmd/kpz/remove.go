package main

import (
	"github.com/spf13/cobra"
)

var removeCmd = &cobra.Command{
	Use:     "remove <package>... | all",
	Aliases: []string{"uninstall"},
	Short:   "Remove installed packages",
	Long: `Delete the named packages from the installation directory. Use "all"
to remove every installed package. The server is not contacted.

Examples:
  kpz remove img
  kpz remove all`,
	Args: cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg := mustLoadConfig()
		if _, err := newManager(cfg).Remove(globalCtx, args); err != nil {
			handleError(err, cfg)
		}
	},
}
