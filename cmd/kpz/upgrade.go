package main

import (
	"github.com/spf13/cobra"
)

var upgradeCmd = &cobra.Command{
	Use:   "upgrade",
	Short: "Re-download every installed package",
	Long: `Download a fresh copy of every installed package the server still
offers. Packages the server no longer lists are reported and kept.`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := mustLoadConfig()
		if _, err := newManager(cfg).Upgrade(globalCtx); err != nil {
			handleError(err, cfg)
		}
	},
}
