package preflight

import (
	"context"
	"path"
	"sort"
	"strings"

	"github.com/kajell/pacterm/internal/state"
)

// ServiceImpact describes one systemd unit owned by a staged package.
type ServiceImpact struct {
	Unit        string `json:"unit"`
	Package     string `json:"package"`
	Active      bool   `json:"active"`
	NeedRestart bool   `json:"need_restart"`
	// Deferred units belong to packages staged for removal; restarting
	// them would fail once the unit file is gone.
	Deferred bool `json:"deferred"`
}

// Services maps staged packages to the systemd service units they ship and
// flags the active ones for restart. Install and downgrade targets get a
// restart recommendation; removal targets are marked deferred instead.
func (r *Resolver) Services(ctx context.Context, items []state.PackageItem, action state.Action) ([]ServiceImpact, error) {
	active, err := r.activeUnits(ctx)
	if err != nil {
		return nil, err
	}

	var out []ServiceImpact
	for _, item := range items {
		units, err := r.packageUnits(ctx, item)
		if err != nil {
			if r.Logger != nil {
				r.Logger.Warn("service scan failed", "package", item.Name, "err", err)
			}
			continue
		}
		for _, unit := range units {
			_, isActive := active[unit]
			si := ServiceImpact{Unit: unit, Package: item.Name, Active: isActive}
			if isActive {
				if action == state.ActionRemove {
					si.Deferred = true
				} else {
					si.NeedRestart = true
				}
			}
			out = append(out, si)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Package != out[j].Package {
			return out[i].Package < out[j].Package
		}
		return out[i].Unit < out[j].Unit
	})
	return out, nil
}

// activeUnits returns the set of currently active service unit names.
func (r *Resolver) activeUnits(ctx context.Context) (map[string]struct{}, error) {
	out, err := r.Pacman.Runner().Run(ctx, "systemctl",
		"list-units", "--type=service", "--no-legend", "--state=active", "--plain")
	if err != nil {
		return nil, err
	}
	units := map[string]struct{}{}
	for _, line := range strings.Split(string(out), "\n") {
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		name := fields[0]
		if strings.HasSuffix(name, ".service") {
			units[name] = struct{}{}
		}
	}
	return units, nil
}

// packageUnits lists the *.service unit files a package owns, preferring the
// local file list for installed packages and the sync file database otherwise.
func (r *Resolver) packageUnits(ctx context.Context, item state.PackageItem) ([]string, error) {
	var (
		files []string
		err   error
	)
	if r.Index.IsInstalled(item.Name) {
		files, err = r.Pacman.FileListLocal(ctx, item.Name)
	} else if item.Source.IsAUR() {
		// Not installed and not in the file database; nothing to scan.
		return nil, nil
	} else {
		files, err = r.Pacman.FileListRemote(ctx, item.Name)
	}
	if err != nil {
		return nil, err
	}
	var units []string
	seen := map[string]struct{}{}
	for _, f := range files {
		if !strings.HasSuffix(f, ".service") {
			continue
		}
		if !strings.Contains(f, "/systemd/system/") && !strings.Contains(f, "/systemd/user/") {
			continue
		}
		unit := path.Base(f)
		if _, dup := seen[unit]; dup {
			continue
		}
		seen[unit] = struct{}{}
		units = append(units, unit)
	}
	sort.Strings(units)
	return units, nil
}
