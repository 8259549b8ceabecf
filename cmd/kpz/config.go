package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/tsukumogami/kpz/internal/config"
	"github.com/tsukumogami/kpz/internal/userconfig"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage kpz configuration",
	Long: `Manage kpz configuration settings.

Configuration is stored in $KPZ_HOME/config.toml (default ~/.kpz/config.toml).
Environment variables such as KPZ_SERVER_URL take precedence over the file.

Available settings:
  server_url        Base URL of the distribution server
  install_dir       Directory where packages are installed
  api_timeout       Timeout for registry requests (e.g. 30s)
  download_timeout  Timeout for a single package download (e.g. 10m)
  shell_profile     Shell profile that receives the PATH export (Unix only)

Examples:
  kpz config get server_url
  kpz config set server_url http://packages.lan:8080`,
}

var configGetCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Get a configuration value",
	Long: `Get the value of a configuration setting as stored in config.toml.
An unset key prints an empty line.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		key := args[0]

		userCfg, _ := loadUserConfig()

		value, ok := userCfg.Get(key)
		if !ok {
			fmt.Fprintf(os.Stderr, "Unknown config key: %s\n", key)
			fmt.Fprintf(os.Stderr, "\nAvailable keys:\n")
			printAvailableKeys()
			exitWithCode(ExitUsage)
		}

		fmt.Println(value)
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Long: `Set a configuration value. An empty value unsets the key.

Examples:
  kpz config set server_url http://packages.lan:8080
  kpz config set api_timeout 1m
  kpz config set install_dir ""`,
	Args: cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		key := args[0]
		value := args[1]

		userCfg, path := loadUserConfig()

		if err := userCfg.Set(key, value); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			fmt.Fprintf(os.Stderr, "\nAvailable keys:\n")
			printAvailableKeys()
			exitWithCode(ExitUsage)
		}

		if err := userCfg.Save(path); err != nil {
			fmt.Fprintf(os.Stderr, "Error saving config: %v\n", err)
			exitWithCode(ExitGeneral)
		}

		printInfof("%s = %s\n", key, value)
	},
}

var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "Show the effective configuration",
	Long: `Show every setting as kpz will use it, after applying config.toml and
environment variables.`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := mustLoadConfig()
		for _, kv := range effectiveSettings(cfg) {
			fmt.Printf("%s = %s\n", kv[0], kv[1])
		}
	},
}

// loadUserConfig reads config.toml from the kpz home directory or exits.
func loadUserConfig() (*userconfig.Config, string) {
	cfg, err := config.DefaultConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		exitWithCode(ExitGeneral)
	}

	userCfg, err := userconfig.LoadFromPath(cfg.ConfigFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		exitWithCode(ExitGeneral)
	}
	return userCfg, cfg.ConfigFile
}

// effectiveSettings pairs every config key with its resolved value, in
// the order of userconfig.SortedKeys.
func effectiveSettings(cfg *config.Config) [][2]string {
	values := map[string]string{
		"server_url":       cfg.ServerURL,
		"install_dir":      cfg.InstallDir,
		"api_timeout":      cfg.APITimeout.String(),
		"download_timeout": cfg.DownloadTimeout.String(),
		"shell_profile":    cfg.ShellProfile,
	}

	settings := make([][2]string, 0, len(values))
	for _, key := range userconfig.SortedKeys() {
		settings = append(settings, [2]string{key, values[key]})
	}
	return settings
}

func printAvailableKeys() {
	keys := userconfig.AvailableKeys()
	for _, k := range userconfig.SortedKeys() {
		fmt.Fprintf(os.Stderr, "  %s - %s\n", k, keys[k])
	}
}

func init() {
	configCmd.AddCommand(configGetCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configListCmd)
}
