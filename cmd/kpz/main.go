package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/tsukumogami/kpz/internal/buildinfo"
	"github.com/tsukumogami/kpz/internal/config"
	"github.com/tsukumogami/kpz/internal/install"
	"github.com/tsukumogami/kpz/internal/inventory"
	"github.com/tsukumogami/kpz/internal/log"
	"github.com/tsukumogami/kpz/internal/pathenv"
	"github.com/tsukumogami/kpz/internal/progress"
	"github.com/tsukumogami/kpz/internal/registry"
	"github.com/tsukumogami/kpz/internal/userconfig"
)

// Global verbosity flags
var (
	quietFlag   bool
	verboseFlag bool
	debugFlag   bool
)

// Environment variables mirroring the verbosity flags
const (
	EnvQuiet   = "KPZ_QUIET"
	EnvVerbose = "KPZ_VERBOSE"
	EnvDebug   = "KPZ_DEBUG"
)

// globalCtx is cancelled on SIGINT or SIGTERM
var globalCtx = context.Background()

var rootCmd = &cobra.Command{
	Use:   "kpz",
	Short: "A minimal package manager for prebuilt executables",
	Long: `kpz installs prebuilt executables from a kpz distribution server into a
single installation directory that is added to your PATH.

The server publishes a plain list of package names at /registry.txt and
serves each artifact at /<name>.`,
	Version: buildinfo.Version(),
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		initLogger()
	},
}

func init() {
	rootCmd.SetVersionTemplate(buildinfo.Read().String() + "\n")
	rootCmd.PersistentFlags().BoolVarP(&quietFlag, "quiet", "q", false, "Show only errors")
	rootCmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false, "Show informational messages")
	rootCmd.PersistentFlags().BoolVar(&debugFlag, "debug", false, "Show debug output")

	rootCmd.AddCommand(updateCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(installCmd)
	rootCmd.AddCommand(removeCmd)
	rootCmd.AddCommand(upgradeCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(doctorCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	globalCtx = ctx

	if err := rootCmd.Execute(); err != nil {
		stop()
		exitWithCode(ExitUsage)
	}
}

// isTruthy reports whether an environment value enables a switch.
func isTruthy(value string) bool {
	return log.IsTruthy(value)
}

// determineLogLevel picks the level from the flags, falling back to the
// KPZ_* environment variables when no flag is given.
func determineLogLevel() slog.Level {
	v := log.Verbosity{Quiet: quietFlag, Verbose: verboseFlag, Debug: debugFlag}
	if !v.Quiet && !v.Verbose && !v.Debug {
		v = log.Verbosity{
			Quiet:   isTruthy(os.Getenv(EnvQuiet)),
			Verbose: isTruthy(os.Getenv(EnvVerbose)),
			Debug:   isTruthy(os.Getenv(EnvDebug)),
		}
	}
	return v.Level()
}

// quiet reports whether informational output is suppressed.
func quiet() bool {
	return determineLogLevel() == slog.LevelError
}

func initLogger() {
	log.SetDefault(log.NewCLI(os.Stderr, determineLogLevel()))
}

// loadConfig builds the effective configuration: built-in defaults, then
// config.toml, then environment variables.
func loadConfig() (*config.Config, error) {
	cfg, err := config.DefaultConfig()
	if err != nil {
		return nil, err
	}

	userCfg, err := userconfig.LoadFromPath(cfg.ConfigFile)
	if err != nil {
		return nil, err
	}
	userCfg.ApplyTo(cfg)
	cfg.ApplyEnv()

	return cfg, nil
}

// mustLoadConfig loads the configuration or exits.
func mustLoadConfig() *config.Config {
	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to get config: %v\n", err)
		exitWithCode(ExitGeneral)
	}
	return cfg
}

// newInventory wires the installation directory with PATH registration.
func newInventory(cfg *config.Config, out io.Writer) *inventory.Inventory {
	logger := log.Default()
	opts := []inventory.Option{inventory.WithLogger(logger)}

	store, err := pathenv.DefaultStore(cfg)
	if err != nil {
		logger.Warn("PATH persistence unavailable", "error", err)
	} else {
		opts = append(opts, inventory.WithRegistrar(pathenv.NewRegistrar(store, logger, out)))
	}
	return inventory.New(cfg, opts...)
}

// newRegistryClient creates the distribution server client. Download
// progress is drawn on stderr when it is a terminal.
func newRegistryClient(cfg *config.Config) *registry.Client {
	opts := []registry.Option{registry.WithLogger(log.Default())}
	if hook := progress.DownloadHook(os.Stderr); hook != nil && !quiet() {
		opts = append(opts, registry.WithProgress(hook))
	}
	return registry.New(cfg, opts...)
}

// newManager wires a package manager writing to the process streams.
// Informational output is discarded in quiet mode.
func newManager(cfg *config.Config) *install.Manager {
	var out io.Writer = os.Stdout
	if quiet() {
		out = io.Discard
	}
	return install.New(
		newRegistryClient(cfg),
		newInventory(cfg, out),
		install.WithOutput(out, os.Stderr),
		install.WithLogger(log.Default()),
	)
}
