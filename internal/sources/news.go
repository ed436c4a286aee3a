package sources

import (
	"context"
	"encoding/xml"
	"strings"
	"time"

	"github.com/kajell/pacterm/internal/remote"
)

// NewsItem is one entry of the Arch news feed.
type NewsItem struct {
	Date  string `json:"date"`
	Title string `json:"title"`
	URL   string `json:"url"`
}

type rssFeed struct {
	Channel struct {
		Items []struct {
			Title   string `xml:"title"`
			Link    string `xml:"link"`
			PubDate string `xml:"pubDate"`
		} `xml:"item"`
	} `xml:"channel"`
}

// FetchNews retrieves the Arch news RSS feed, keeping entries newer than
// maxAge and whose titles pass the configured filters (case-insensitive
// substring; empty filter list keeps everything).
func FetchNews(ctx context.Context, client *remote.Client, filters []string, maxAge time.Duration) ([]NewsItem, error) {
	text, _, err := client.GetText(ctx, "https://archlinux.org/feeds/news/")
	if err != nil {
		return nil, err
	}
	var feed rssFeed
	if err := xml.Unmarshal([]byte(text), &feed); err != nil {
		return nil, err
	}

	cutoff := time.Now().Add(-maxAge)
	var items []NewsItem
	for _, entry := range feed.Channel.Items {
		published, err := time.Parse(time.RFC1123Z, entry.PubDate)
		if err != nil {
			published, err = time.Parse(time.RFC1123, entry.PubDate)
		}
		if err == nil && maxAge > 0 && published.Before(cutoff) {
			continue
		}
		if !matchesFilters(entry.Title, filters) {
			continue
		}
		item := NewsItem{Title: entry.Title, URL: entry.Link}
		if err == nil {
			item.Date = published.Format("2006-01-02")
		}
		items = append(items, item)
	}
	return items, nil
}

func matchesFilters(title string, filters []string) bool {
	if len(filters) == 0 {
		return true
	}
	tl := strings.ToLower(title)
	for _, f := range filters {
		if strings.Contains(tl, strings.ToLower(strings.TrimSpace(f))) {
			return true
		}
	}
	return false
}
