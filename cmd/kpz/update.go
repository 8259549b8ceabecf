package main

import (
	"github.com/spf13/cobra"
)

var updateCmd = &cobra.Command{
	Use:   "update",
	Short: "Refresh the local package registry",
	Long: `Download the list of packages the server offers and save it as the
local registry snapshot in the installation directory.

If the server cannot be reached or publishes no packages, the existing
snapshot is left unchanged.`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := mustLoadConfig()
		if _, err := newManager(cfg).Update(globalCtx); err != nil {
			handleError(err, cfg)
		}
	},
}
