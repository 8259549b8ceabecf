package install

import (
	"context"
	"fmt"
)

// UpdateResult describes an update.
type UpdateResult struct {
	Packages int  // packages found on the server
	Written  bool // whether the snapshot was replaced
}

// Update fetches the registry and replaces the local snapshot with it. An
// unavailable or empty registry leaves the snapshot untouched.
func (m *Manager) Update(ctx context.Context) (*UpdateResult, error) {
	release, err := m.begin(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	fmt.Fprintln(m.out, "Updating package registry...")

	names := m.fetchRegistry(ctx)
	if len(names) == 0 {
		fmt.Fprintln(m.out, "No packages found or unable to connect to server.")
		return &UpdateResult{}, nil
	}

	fmt.Fprintf(m.out, "Found %d packages on the server.\n", len(names))
	if err := m.inv.WriteSnapshot(names); err != nil {
		return nil, err
	}
	fmt.Fprintln(m.out, "Package registry updated successfully.")

	return &UpdateResult{Packages: len(names), Written: true}, nil
}
