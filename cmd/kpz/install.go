package main

import (
	"github.com/spf13/cobra"
)

var installCmd = &cobra.Command{
	Use:   "install <package>... | all",
	Short: "Install packages from the server",
	Long: `Download the named packages into the installation directory. Use
"all" to install every package the server offers.

Packages that are already installed are downloaded again. A package that
fails does not stop the others.

Examples:
  kpz install img
  kpz install img qr
  kpz install all`,
	Args: cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg := mustLoadConfig()
		if _, err := newManager(cfg).Install(globalCtx, args); err != nil {
			handleError(err, cfg)
		}
	},
}
