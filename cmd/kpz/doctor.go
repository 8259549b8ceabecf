package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/tsukumogami/kpz/internal/config"
	"github.com/tsukumogami/kpz/internal/inventory"
	"github.com/tsukumogami/kpz/internal/pathenv"
	"github.com/tsukumogami/kpz/internal/progress"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check that the kpz environment is configured correctly",
	Long: `Verify that the kpz environment is healthy: the installation directory
exists and is on PATH, the distribution server answers, and the registry
snapshot is readable.

Exits with a non-zero status if any check fails, making it suitable
for use as a gate in scripts and CI:

  kpz doctor || exit 1`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := mustLoadConfig()

		if !runDoctor(cfg) {
			fmt.Println()
			fmt.Fprintln(os.Stderr, "Environment check failed")
			exitWithCode(ExitGeneral)
		}

		fmt.Println()
		fmt.Println("Everything looks good!")
	},
}

// runDoctor prints one line per check and reports whether all passed.
func runDoctor(cfg *config.Config) bool {
	inv := inventory.New(cfg)
	fmt.Println("Checking kpz environment...")
	failed := false

	// Check 1: Installation directory
	fmt.Printf("  Installation directory: %s", inv.Dir())
	if info, err := os.Stat(inv.Dir()); err != nil {
		fmt.Println(" ... FAIL")
		fmt.Fprintf(os.Stderr, "    Directory does not exist\n")
		fmt.Fprintf(os.Stderr, "    Run: kpz update to create it\n")
		failed = true
	} else if !info.IsDir() {
		fmt.Println(" ... FAIL")
		fmt.Fprintf(os.Stderr, "    Path exists but is not a directory\n")
		failed = true
	} else {
		fmt.Println(" ... ok")
	}

	// Check 2: PATH
	fmt.Printf("  Installation directory in PATH")
	if pathenv.Contains(inv.Dir()) {
		fmt.Println(" ... ok")
	} else if persisted, store := persistedOnPath(cfg, inv.Dir()); persisted {
		fmt.Println(" ... ok (after restarting your shell)")
		fmt.Fprintf(os.Stderr, "    %s is recorded in %s but not yet active\n", inv.Dir(), store)
	} else {
		fmt.Println(" ... FAIL")
		fmt.Fprintf(os.Stderr, "    %s is not in your PATH\n", inv.Dir())
		fmt.Fprintf(os.Stderr, "    Add it to PATH, or remove the directory and run: kpz update\n")
		failed = true
	}

	// Check 3: Distribution server
	label := fmt.Sprintf("  Distribution server: %s", cfg.ServerURL)
	spinner := progress.NewSpinner(os.Stdout, progress.IsTerminal(os.Stdout))
	spinner.Start(label)
	names, err := newRegistryClient(cfg).FetchRegistry(globalCtx)
	switch {
	case err != nil:
		spinner.Stop(label + " ... FAIL")
		printError(err, cfg)
		failed = true
	case len(names) == 0:
		spinner.Stop(label + " ... ok (no packages published)")
	default:
		spinner.Stop(fmt.Sprintf("%s ... ok (%d packages)", label, len(names)))
	}

	// Check 4: Registry snapshot
	fmt.Printf("  Registry snapshot")
	snapshot, err := inv.ReadSnapshot()
	switch {
	case err != nil:
		fmt.Println(" ... FAIL")
		fmt.Fprintf(os.Stderr, "    Cannot read %s: %v\n", inv.SnapshotPath(), err)
		failed = true
	case snapshot == nil:
		fmt.Println(" ... ok (run kpz update to create it)")
	default:
		fmt.Printf(" ... ok (%d packages)\n", len(snapshot))
	}

	// Check 5: Installed packages
	fmt.Printf("  Installed packages (%s)", inv.Detector().Describe())
	installed, err := inv.ListInstalled()
	if err != nil {
		fmt.Println(" ... FAIL")
		fmt.Fprintf(os.Stderr, "    %v\n", err)
		failed = true
	} else {
		fmt.Printf(" ... ok (%d)\n", len(installed))
	}

	return !failed
}

// persistedOnPath reports whether dir is already recorded in the
// persistent PATH store, and names the store.
func persistedOnPath(cfg *config.Config, dir string) (bool, string) {
	store, err := pathenv.DefaultStore(cfg)
	if err != nil {
		return false, ""
	}
	ok, err := store.Contains(dir)
	if err != nil {
		return false, store.Describe()
	}
	return ok, store.Describe()
}
