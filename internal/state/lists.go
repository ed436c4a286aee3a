package state

import "strings"

// StagedLists holds the three disjoint user-built collections that seed a
// package-manager transaction. A package name appears in at most one list.
// The coordinator owns the lists; nothing else mutates them.
type StagedLists struct {
	Install   []PackageItem
	Remove    []PackageItem
	Downgrade []PackageItem
}

// ListFor returns the list a given action stages into.
func (l *StagedLists) ListFor(action Action) []PackageItem {
	switch action {
	case ActionRemove:
		return l.Remove
	case ActionDowngrade:
		return l.Downgrade
	default:
		return l.Install
	}
}

// Add stages the item on the list for action, first removing it from every
// list so the disjointness invariant holds. Adding an item already present on
// the target list is a no-op; the return reports whether anything changed.
func (l *StagedLists) Add(action Action, item PackageItem) bool {
	if strings.TrimSpace(item.Name) == "" {
		return false
	}
	if containsName(l.ListFor(action), item.Name) {
		return false
	}
	l.Drop(item.Name)
	switch action {
	case ActionRemove:
		l.Remove = append(l.Remove, item)
	case ActionDowngrade:
		l.Downgrade = append(l.Downgrade, item)
	default:
		l.Install = append(l.Install, item)
	}
	return true
}

// Drop removes the named package from whichever list holds it. Returns true
// when a list changed.
func (l *StagedLists) Drop(name string) bool {
	changed := false
	l.Install, changed = removeName(l.Install, name, changed)
	l.Remove, changed = removeName(l.Remove, name, changed)
	l.Downgrade, changed = removeName(l.Downgrade, name, changed)
	return changed
}

// Clear empties the list for the given action.
func (l *StagedLists) Clear(action Action) {
	switch action {
	case ActionRemove:
		l.Remove = nil
	case ActionDowngrade:
		l.Downgrade = nil
	default:
		l.Install = nil
	}
}

// Holds reports whether the named package is staged on any list.
func (l *StagedLists) Holds(name string) bool {
	return containsName(l.Install, name) ||
		containsName(l.Remove, name) ||
		containsName(l.Downgrade, name)
}

func containsName(items []PackageItem, name string) bool {
	for _, it := range items {
		if strings.EqualFold(it.Name, name) {
			return true
		}
	}
	return false
}

func removeName(items []PackageItem, name string, already bool) ([]PackageItem, bool) {
	for i, it := range items {
		if strings.EqualFold(it.Name, name) {
			return append(items[:i:i], items[i+1:]...), true
		}
	}
	return items, already
}
