package state

import "strings"

// recentCap bounds the recent-queries list.
const recentCap = 20

// PushRecent inserts query at the front of the recent list, removing any
// case-insensitive duplicate and trimming to the cap. Blank queries are
// ignored.
func PushRecent(recent []string, query string) []string {
	q := strings.TrimSpace(query)
	if q == "" {
		return recent
	}
	out := make([]string, 0, len(recent)+1)
	out = append(out, q)
	for _, r := range recent {
		if strings.EqualFold(r, q) {
			continue
		}
		out = append(out, r)
	}
	if len(out) > recentCap {
		out = out[:recentCap]
	}
	return out
}
