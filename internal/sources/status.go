package sources

import (
	"context"
	"time"

	"github.com/kajell/pacterm/internal/remote"
)

// MirrorStatus summarizes the archlinux.org mirror status feed for the
// status line.
type MirrorStatus struct {
	CheckedAt    time.Time
	TotalMirrors int
	OutOfSync    int
}

type mirrorStatusJSON struct {
	LastCheck string `json:"last_check"`
	URLs      []struct {
		CompletionPct float64 `json:"completion_pct"`
	} `json:"urls"`
}

// FetchMirrorStatus queries the mirror status endpoint. Counts mirrors below
// full completion as out of sync.
func FetchMirrorStatus(ctx context.Context, client *remote.Client) (MirrorStatus, error) {
	var doc mirrorStatusJSON
	if _, err := client.GetJSON(ctx, "https://archlinux.org/mirrors/status/json/", &doc); err != nil {
		return MirrorStatus{}, err
	}
	status := MirrorStatus{TotalMirrors: len(doc.URLs)}
	if t, err := time.Parse(time.RFC3339, doc.LastCheck); err == nil {
		status.CheckedAt = t
	}
	for _, u := range doc.URLs {
		if u.CompletionPct < 1.0 {
			status.OutOfSync++
		}
	}
	return status, nil
}
