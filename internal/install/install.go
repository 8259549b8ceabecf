package install

import (
	"context"
	"fmt"

	"github.com/tsukumogami/kpz/internal/inventory"
)

// Install downloads the named packages, or every registry package when
// names is just "all". Each package is handled independently: a failure
// is reported and the batch continues, and nothing already installed in
// this batch is rolled back.
func (m *Manager) Install(ctx context.Context, names []string) (*BatchResult, error) {
	if len(names) == 0 {
		fmt.Fprintln(m.errOut, "No packages specified for installation.")
		return &BatchResult{Aborted: true}, ErrNoPackages
	}

	release, err := m.begin(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	available := m.fetchRegistry(ctx)
	if len(available) == 0 {
		fmt.Fprintln(m.errOut, "No packages available on the server or unable to connect.")
		return &BatchResult{Aborted: true}, nil
	}

	targets := names
	if isAll(names) {
		targets = available
	}
	offered := toSet(available)

	result := &BatchResult{}
	for _, name := range dedupe(targets) {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		if err := inventory.ValidatePackageName(name); err != nil {
			fmt.Fprintf(m.errOut, "Error: %v\n", err)
			result.fail(name, err)
			continue
		}
		if !offered[name] {
			fmt.Fprintf(m.out, "Package '%s' not found on the server.\n", name)
			result.skip(name, ErrNotInRegistry)
			continue
		}

		fmt.Fprintf(m.out, "Downloading %s...\n", name)
		if err := m.download(ctx, name); err != nil {
			fmt.Fprintf(m.errOut, "Error downloading %s: %v\n", name, err)
			result.fail(name, err)
			continue
		}
		fmt.Fprintf(m.out, "Successfully installed %s\n", name)
		result.Succeeded = append(result.Succeeded, name)
	}
	return result, nil
}
