package preflight

import (
	"strings"
	"unicode"
)

// SplitDepSpec breaks a dependency specifier like "pacman>=6.1" into its
// package name, comparison operator, and version. Operator and version are
// empty for bare names.
func SplitDepSpec(spec string) (name, op, version string) {
	spec = strings.TrimSpace(spec)
	// Strip an optional-dep annotation.
	if i := strings.Index(spec, ": "); i >= 0 {
		spec = spec[:i]
	}
	for _, candidate := range []string{">=", "<=", "=", ">", "<"} {
		if i := strings.Index(spec, candidate); i >= 0 {
			return spec[:i], candidate, spec[i+len(candidate):]
		}
	}
	return spec, "", ""
}

// VersionSatisfies reports whether an installed version meets a constraint.
// An empty operator always satisfies.
func VersionSatisfies(installed, op, required string) bool {
	if op == "" || required == "" || installed == "" {
		return true
	}
	cmp := CompareVersions(installed, required)
	switch op {
	case "=":
		return cmp == 0
	case ">":
		return cmp > 0
	case ">=":
		return cmp >= 0
	case "<":
		return cmp < 0
	case "<=":
		return cmp <= 0
	}
	return true
}

// CompareVersions orders two pacman version strings following alpm's vercmp:
// epoch, then version, then release, comparing alternating numeric and
// alphabetic segments where numeric segments beat alphabetic ones.
func CompareVersions(a, b string) int {
	ae, av, ar := splitEVR(a)
	be, bv, br := splitEVR(b)
	if c := rpmVerCmp(ae, be); c != 0 {
		return c
	}
	if c := rpmVerCmp(av, bv); c != 0 {
		return c
	}
	if ar == "" || br == "" {
		return 0
	}
	return rpmVerCmp(ar, br)
}

// splitEVR separates "epoch:version-release".
func splitEVR(v string) (epoch, version, release string) {
	epoch = "0"
	if i := strings.IndexByte(v, ':'); i >= 0 {
		epoch, v = v[:i], v[i+1:]
	}
	if i := strings.LastIndexByte(v, '-'); i >= 0 {
		return epoch, v[:i], v[i+1:]
	}
	return epoch, v, ""
}

func rpmVerCmp(a, b string) int {
	if a == b {
		return 0
	}
	ia, ib := 0, 0
	for ia < len(a) && ib < len(b) {
		// Skip separators.
		for ia < len(a) && !isAlnum(rune(a[ia])) {
			ia++
		}
		for ib < len(b) && !isAlnum(rune(b[ib])) {
			ib++
		}
		if ia >= len(a) || ib >= len(b) {
			break
		}

		numeric := unicode.IsDigit(rune(a[ia]))
		segA, nextA := takeSegment(a, ia, numeric)
		segB, nextB := takeSegment(b, ib, unicode.IsDigit(rune(b[ib])))

		// A numeric segment always beats an alphabetic one.
		if numeric != unicode.IsDigit(rune(b[ib])) {
			if numeric {
				return 1
			}
			return -1
		}

		if numeric {
			segA = strings.TrimLeft(segA, "0")
			segB = strings.TrimLeft(segB, "0")
			if len(segA) != len(segB) {
				if len(segA) > len(segB) {
					return 1
				}
				return -1
			}
		}
		if c := strings.Compare(segA, segB); c != 0 {
			return c
		}
		ia, ib = nextA, nextB
	}

	// One string ran out: the longer one is newer unless the remainder is
	// alphabetic, which sorts older (1.0 > 1.0rc).
	switch {
	case ia >= len(a) && ib >= len(b):
		return 0
	case ia >= len(a):
		if ib < len(b) && unicode.IsLetter(rune(b[ib])) {
			return 1
		}
		return -1
	default:
		if ia < len(a) && unicode.IsLetter(rune(a[ia])) {
			return -1
		}
		return 1
	}
}

func takeSegment(s string, start int, numeric bool) (string, int) {
	end := start
	for end < len(s) {
		r := rune(s[end])
		if numeric && !unicode.IsDigit(r) {
			break
		}
		if !numeric && !unicode.IsLetter(r) {
			break
		}
		end++
	}
	return s[start:end], end
}

func isAlnum(r rune) bool {
	return unicode.IsDigit(r) || unicode.IsLetter(r)
}
