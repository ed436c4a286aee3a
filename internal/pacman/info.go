package pacman

import (
	"context"
	"strconv"
	"strings"
)

// infoBatchSize caps how many names a single -Si subprocess receives.
const infoBatchSize = 100

// Info is one parsed `pacman -Si`/`-Qi` block.
type Info struct {
	Repository   string
	Name         string
	Version      string
	Description  string
	Architecture string
	URL          string
	Licenses     []string
	Groups       []string
	Provides     []string
	Depends      []string
	OptDepends   []string
	RequiredBy   []string
	OptionalFor  []string
	Conflicts    []string
	Replaces     []string
	DownloadSize *uint64
	InstallSize  *uint64
	Packager     string
	BuildDate    string
}

// SyncInfo runs a batched `pacman -Si` over the given names or repo/name
// specs, splitting into subprocesses of at most 100 names. Unknown names are
// skipped by pacman; the parsed blocks for the rest are still returned.
func (c *Client) SyncInfo(ctx context.Context, specs []string) ([]Info, error) {
	var infos []Info
	for start := 0; start < len(specs); start += infoBatchSize {
		end := min(start+infoBatchSize, len(specs))
		args := append([]string{"-Si"}, specs[start:end]...)
		out, err := c.runner.Run(ctx, "pacman", args...)
		if err != nil && len(out) == 0 {
			if len(infos) > 0 {
				continue
			}
			return infos, err
		}
		infos = append(infos, ParseInfoBlocks(string(out))...)
	}
	return infos, nil
}

// QueryInfoAll runs `pacman -Qi` with no names, returning a block per
// installed package. Used to build the provides graph in one subprocess.
func (c *Client) QueryInfoAll(ctx context.Context) ([]Info, error) {
	out, err := c.runner.Run(ctx, "pacman", "-Qi")
	if err != nil {
		return nil, err
	}
	return ParseInfoBlocks(string(out)), nil
}

// QueryInfo runs `pacman -Qi` for one installed package.
func (c *Client) QueryInfo(ctx context.Context, name string) (Info, bool) {
	out, err := c.runner.Run(ctx, "pacman", "-Qi", name)
	if err != nil {
		return Info{}, false
	}
	blocks := ParseInfoBlocks(string(out))
	if len(blocks) == 0 {
		return Info{}, false
	}
	return blocks[0], true
}

// ParseInfoBlocks parses consecutive `Key : Value` blocks separated by blank
// lines. Continuation lines (leading whitespace) are folded into the previous
// key; Optional Deps keeps its line breaks so per-line annotations survive.
func ParseInfoBlocks(text string) []Info {
	var infos []Info
	fields := make(map[string]string)
	lastKey := ""

	flush := func() {
		if len(fields) > 0 {
			infos = append(infos, infoFromFields(fields))
			fields = make(map[string]string)
		}
		lastKey = ""
	}

	for _, line := range strings.Split(text, "\n") {
		if strings.TrimSpace(line) == "" {
			flush()
			continue
		}
		if strings.HasPrefix(line, " ") || strings.HasPrefix(line, "\t") {
			if lastKey == "" {
				continue
			}
			prev := fields[lastKey]
			if lastKey == "Optional Deps" {
				fields[lastKey] = prev + "\n" + strings.TrimSpace(line)
			} else {
				fields[lastKey] = strings.TrimRight(prev, " ") + " " + strings.TrimSpace(line)
			}
			continue
		}
		key, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		lastKey = strings.TrimSpace(key)
		fields[lastKey] = strings.TrimSpace(value)
	}
	flush()
	return infos
}

func infoFromFields(fields map[string]string) Info {
	info := Info{
		Repository:   fields["Repository"],
		Name:         fields["Name"],
		Version:      fields["Version"],
		Description:  fields["Description"],
		Architecture: fields["Architecture"],
		URL:          fields["URL"],
		Licenses:     splitList(firstOf(fields, "Licenses", "License")),
		Groups:       splitList(fields["Groups"]),
		Provides:     splitList(fields["Provides"]),
		Depends:      splitList(fields["Depends On"]),
		OptDepends:   parseOptDepends(fields["Optional Deps"]),
		RequiredBy:   splitList(fields["Required By"]),
		OptionalFor:  splitList(fields["Optional For"]),
		Conflicts:    splitList(fields["Conflicts With"]),
		Replaces:     splitList(fields["Replaces"]),
		Packager:     fields["Packager"],
		BuildDate:    fields["Build Date"],
	}
	info.DownloadSize = ParseSizeBytes(fields["Download Size"])
	info.InstallSize = ParseSizeBytes(fields["Installed Size"])
	return info
}

func firstOf(fields map[string]string, keys ...string) string {
	for _, k := range keys {
		if v, ok := fields[k]; ok {
			return v
		}
	}
	return ""
}

// splitList splits a whitespace-separated value, treating "None" as empty.
func splitList(value string) []string {
	if value == "" || value == "None" {
		return nil
	}
	return strings.Fields(value)
}

// parseOptDepends extracts package names from "name: annotation" lines.
func parseOptDepends(value string) []string {
	if value == "" || value == "None" {
		return nil
	}
	var names []string
	for _, line := range strings.Split(value, "\n") {
		name, _, _ := strings.Cut(line, ":")
		name = strings.TrimSpace(name)
		if name != "" && name != "None" {
			names = append(names, name)
		}
	}
	return names
}

// ParseSizeBytes converts a human-readable size such as "3.44 MiB" to bytes.
func ParseSizeBytes(value string) *uint64 {
	fields := strings.Fields(value)
	if len(fields) == 0 {
		return nil
	}
	num, err := strconv.ParseFloat(fields[0], 64)
	if err != nil {
		return nil
	}
	mult := 1.0
	if len(fields) > 1 {
		switch fields[1] {
		case "KiB":
			mult = 1024
		case "MiB":
			mult = 1024 * 1024
		case "GiB":
			mult = 1024 * 1024 * 1024
		case "TiB":
			mult = 1024 * 1024 * 1024 * 1024
		}
	}
	bytes := uint64(num * mult)
	return &bytes
}
