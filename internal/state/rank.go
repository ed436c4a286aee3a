package state

import "strings"

// RepoOrder maps a package source to its position in the default sort:
// core first, extra second, any other official repo third, AUR last.
func RepoOrder(s Source) int {
	if s.Kind == SourceAUR {
		return 3
	}
	switch strings.ToLower(s.Repo) {
	case "core":
		return 0
	case "extra":
		return 1
	default:
		return 2
	}
}

// MatchRank scores how well name matches the already-lowercased query:
// exact match 0, prefix 1, substring 2, anything else 3.
func MatchRank(name, loweredQuery string) int {
	nl := strings.ToLower(name)
	switch {
	case nl == loweredQuery:
		return 0
	case strings.HasPrefix(nl, loweredQuery):
		return 1
	case strings.Contains(nl, loweredQuery):
		return 2
	default:
		return 3
	}
}
