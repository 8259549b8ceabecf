package main

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/tsukumogami/kpz/internal/install"
	"github.com/tsukumogami/kpz/internal/progress"
)

var (
	installedStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("2")) // green
	notInstalledStyle = lipgloss.NewStyle().Faint(true)
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List packages available on the server",
	Long: `List every package the server offers, in server order, and show
whether each one is installed locally.`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := mustLoadConfig()

		statuses, err := newManager(cfg).List(globalCtx)
		if err != nil {
			handleError(err, cfg)
		}
		printPackageList(os.Stdout, statuses, progress.IsTerminal(os.Stdout))
	},
}

// printPackageList writes the list output. Status tags are colored when
// styled is set.
func printPackageList(w io.Writer, statuses []install.PackageStatus, styled bool) {
	if len(statuses) == 0 {
		return
	}

	fmt.Fprintln(w, "Available packages:")
	for _, s := range statuses {
		fmt.Fprintf(w, "  %s %s\n", s.Name, statusTag(s.Installed, styled))
	}
}

func statusTag(installed, styled bool) string {
	tag := "[not installed]"
	style := notInstalledStyle
	if installed {
		tag = "[installed]"
		style = installedStyle
	}
	if !styled {
		return tag
	}
	return style.Render(tag)
}
