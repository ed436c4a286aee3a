package sources

import (
	"context"
	"fmt"
	"html"
	"net/url"
	"strings"
	"time"

	"github.com/kajell/pacterm/internal/remote"
)

// commentsTimeout keeps the comments fetch from delaying the viewer; a slow
// AUR yields an error row instead of a stalled modal.
const commentsTimeout = 500 * time.Millisecond

// aurPageDateLayout matches the timestamps printed on AUR package pages.
const aurPageDateLayout = "2006-01-02 15:04 (MST)"

// AURComment is one comment scraped from an AUR package page.
type AURComment struct {
	ID      string
	Author  string
	Date    string
	When    time.Time
	Pinned  bool
	Content string
}

// FetchAURComments scrapes the comments from the AUR package page. Pinned
// comments come first, then the latest comments in page order (newest first).
func FetchAURComments(ctx context.Context, client *remote.Client, name string) ([]AURComment, error) {
	ctx, cancel := context.WithTimeout(ctx, commentsTimeout)
	defer cancel()

	u := "https://aur.archlinux.org/packages/" + url.PathEscape(name)
	page, _, err := client.GetText(ctx, u)
	if err != nil {
		return nil, fmt.Errorf("aur comments %s: %w", name, err)
	}
	return ParseAURComments(page), nil
}

// ParseAURComments extracts the comment headers and bodies from an AUR
// package page. aurweb renders each comment as an `<h4 id="comment-N">`
// header followed by a `<div id="comment-N-content">` body; headers inside
// the pinned-comments section are flagged pinned.
func ParseAURComments(page string) []AURComment {
	pinnedUntil := -1
	if start := strings.Index(page, `id="pinned-comments"`); start >= 0 {
		pinnedUntil = len(page)
		if end := strings.Index(page[start:], `id="comments"`); end >= 0 {
			pinnedUntil = start + end
		}
	}

	var comments []AURComment
	rest := page
	offset := 0
	for {
		i := strings.Index(rest, `<h4 id="comment-`)
		if i < 0 {
			break
		}
		at := offset + i
		rest = rest[i:]
		offset = at

		c, consumed := parseOneComment(rest)
		if consumed == 0 {
			break
		}
		c.Pinned = at < pinnedUntil
		comments = append(comments, c)
		rest = rest[consumed:]
		offset += consumed
	}
	return comments
}

func parseOneComment(s string) (AURComment, int) {
	var c AURComment

	idStart := len(`<h4 id="comment-`)
	idEnd := strings.IndexByte(s[idStart:], '"')
	if idEnd < 0 {
		return c, 0
	}
	c.ID = s[idStart : idStart+idEnd]

	headerEnd := strings.Index(s, "</h4>")
	if headerEnd < 0 {
		return c, 0
	}
	header := s[:headerEnd]

	if author, _, ok := strings.Cut(flattenHTML(header), " commented on"); ok {
		c.Author = strings.TrimSpace(author)
	}
	if raw, ok := cutBetween(header, `class="date">`, "</a>"); ok {
		if t, err := time.Parse(aurPageDateLayout, strings.TrimSpace(flattenHTML(raw))); err == nil {
			c.When = t.UTC()
			c.Date = FormatCommentTime(c.When)
		} else {
			c.Date = strings.TrimSpace(flattenHTML(raw))
		}
	}

	bodyMark := `id="comment-` + c.ID + `-content"`
	bodyAt := strings.Index(s, bodyMark)
	if bodyAt < 0 {
		return c, headerEnd + len("</h4>")
	}
	body := s[bodyAt:]
	open := strings.IndexByte(body, '>')
	if open < 0 {
		return c, headerEnd + len("</h4>")
	}
	closeAt := strings.Index(body[open:], "</div>")
	if closeAt < 0 {
		return c, headerEnd + len("</h4>")
	}
	c.Content = flattenHTML(body[open+1 : open+closeAt])
	return c, bodyAt + open + closeAt + len("</div>")
}

// FormatCommentTime renders a comment timestamp in the viewer's local zone.
// UTC keeps its name; every other zone gets the numeric offset, since zone
// abbreviations shift across daylight-saving transitions.
func FormatCommentTime(t time.Time) string {
	local := t.Local()
	if _, off := local.Zone(); off == 0 {
		return local.Format("2006-01-02 15:04 (UTC)")
	}
	return local.Format("2006-01-02 15:04 (-07:00)")
}

// cutBetween returns the text between the first occurrence of open and the
// next occurrence of end after it.
func cutBetween(s, open, end string) (string, bool) {
	i := strings.Index(s, open)
	if i < 0 {
		return "", false
	}
	s = s[i+len(open):]
	j := strings.Index(s, end)
	if j < 0 {
		return "", false
	}
	return s[:j], true
}

// flattenHTML strips tags, unescapes entities, and collapses whitespace.
// Paragraph and line breaks become newlines so comment structure survives.
func flattenHTML(s string) string {
	var b strings.Builder
	inTag := false
	for i := 0; i < len(s); i++ {
		switch {
		case s[i] == '<':
			inTag = true
			rest := strings.ToLower(s[i:])
			if strings.HasPrefix(rest, "</p>") || strings.HasPrefix(rest, "<br") {
				b.WriteByte('\n')
			}
		case s[i] == '>':
			inTag = false
		case !inTag:
			b.WriteByte(s[i])
		}
	}
	lines := strings.Split(html.UnescapeString(b.String()), "\n")
	out := lines[:0]
	for _, line := range lines {
		line = strings.Join(strings.Fields(line), " ")
		if line != "" {
			out = append(out, line)
		}
	}
	return strings.Join(out, "\n")
}
