// Package preflight computes the read-only analyses shown before a staged
// transaction runs: dependency deltas, file changes, systemd service impact,
// and AUR sandbox inspection. Each analysis is cached on disk keyed by a
// signature of the staged list.
package preflight

import (
	"sort"

	"github.com/kajell/pacterm/internal/state"
)

// Signature derives the deterministic validity key for a staged list: one
// "name|version|source" string per entry, sorted. A cache is valid iff its
// stored signature equals the current list's signature.
func Signature(items []state.PackageItem) []string {
	sig := make([]string, 0, len(items))
	for _, it := range items {
		sig = append(sig, it.Name+"|"+it.Version+"|"+it.Source.Tag())
	}
	sort.Strings(sig)
	return sig
}

// SignatureMatches reports whether two signatures are identical.
func SignatureMatches(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
