package install

import (
	"context"
	"errors"
	"fmt"

	"github.com/tsukumogami/kpz/internal/inventory"
)

// Remove deletes the named packages, or every installed package when names
// is just "all". It never contacts the server.
func (m *Manager) Remove(ctx context.Context, names []string) (*BatchResult, error) {
	if len(names) == 0 {
		fmt.Fprintln(m.errOut, "No packages specified for removal.")
		return &BatchResult{Aborted: true}, ErrNoPackages
	}

	release, err := m.begin(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	targets := names
	if isAll(names) {
		targets, err = m.inv.ListInstalled()
		if err != nil {
			return nil, err
		}
		if len(targets) == 0 {
			fmt.Fprintln(m.out, "No packages are currently installed.")
			return &BatchResult{}, nil
		}
	}

	result := &BatchResult{}
	for _, name := range dedupe(targets) {
		err := m.inv.RemoveArtifact(name)
		switch {
		case err == nil:
			fmt.Fprintf(m.out, "Successfully removed %s\n", name)
			result.Succeeded = append(result.Succeeded, name)
		case errors.Is(err, inventory.ErrNotInstalled), errors.Is(err, inventory.ErrInvalidName):
			fmt.Fprintf(m.out, "Package '%s' is not installed.\n", name)
			result.skip(name, err)
		default:
			fmt.Fprintf(m.errOut, "Error removing %s: %v\n", name, err)
			result.fail(name, err)
		}
	}
	return result, nil
}
