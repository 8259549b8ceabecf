package install

import (
	"context"
	"fmt"
)

// Upgrade re-downloads every installed package the server still offers.
// Packages the server no longer lists are reported and left in place;
// upgrade never installs or removes anything.
//
// The installed set comes from scanning the installation directory, not
// from the snapshot written by Update.
func (m *Manager) Upgrade(ctx context.Context) (*BatchResult, error) {
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

	installed, err := m.inv.ListInstalled()
	if err != nil {
		return nil, err
	}
	if len(installed) == 0 {
		fmt.Fprintln(m.out, "No packages are currently installed.")
		return &BatchResult{}, nil
	}

	offered := toSet(available)
	result := &BatchResult{}

	fmt.Fprintln(m.out, "Upgrading installed packages...")
	for _, name := range installed {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		if !offered[name] {
			fmt.Fprintf(m.out, "Package '%s' is no longer available on the server.\n", name)
			result.skip(name, ErrNoLongerAvailable)
			continue
		}

		fmt.Fprintf(m.out, "Upgrading %s...\n", name)
		if err := m.download(ctx, name); err != nil {
			fmt.Fprintf(m.errOut, "Error upgrading %s: %v\n", name, err)
			result.fail(name, err)
			continue
		}
		fmt.Fprintf(m.out, "Successfully upgraded %s\n", name)
		result.Succeeded = append(result.Succeeded, name)
	}
	return result, nil
}
