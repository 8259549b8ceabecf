package install

import (
	"context"
	"fmt"
)

// List returns every package the server offers, in server order, tagged
// with whether it is installed locally. An unavailable or empty registry
// yields an empty result after a diagnostic.
func (m *Manager) List(ctx context.Context) ([]PackageStatus, error) {
	release, err := m.begin(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	available := m.fetchRegistry(ctx)

	installed, err := m.inv.ListInstalled()
	if err != nil {
		return nil, err
	}

	if len(available) == 0 {
		fmt.Fprintln(m.errOut, "No packages available on the server or unable to connect.")
		return []PackageStatus{}, nil
	}

	local := toSet(installed)
	statuses := make([]PackageStatus, 0, len(available))
	for _, name := range available {
		statuses = append(statuses, PackageStatus{Name: name, Installed: local[name]})
	}
	return statuses, nil
}
