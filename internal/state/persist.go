package state

import (
	"encoding/json"
	"os"
	"sort"
	"strings"
)

// DetailsCache is the process-wide cache of fetched package details, keyed
// by lowercase name. The coordinator owns it and flushes it on tick.
type DetailsCache map[string]PackageDetails

// Get looks up cached details by name.
func (c DetailsCache) Get(name string) (PackageDetails, bool) {
	d, ok := c[strings.ToLower(name)]
	return d, ok
}

// Put stores details under the lowercase name.
func (c DetailsCache) Put(d PackageDetails) {
	if d.Name == "" {
		return
	}
	c[strings.ToLower(d.Name)] = d
}

// LoadDetailsCache reads a persisted details cache; any failure yields an
// empty cache, the file is rebuilt from upstream.
func LoadDetailsCache(path string) DetailsCache {
	cache := DetailsCache{}
	raw, err := os.ReadFile(path)
	if err != nil {
		return cache
	}
	if err := json.Unmarshal(raw, &cache); err != nil {
		return DetailsCache{}
	}
	return cache
}

// SaveDetailsCache persists the cache as a single JSON document.
func (c DetailsCache) Save(path string) error {
	raw, err := json.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, raw, 0o644)
}

// LoadRecent reads the persisted recent-query list, tolerating a missing or
// corrupt file.
func LoadRecent(path string) []string {
	var recent []string
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil
	}
	if err := json.Unmarshal(raw, &recent); err != nil {
		return nil
	}
	if len(recent) > recentCap {
		recent = recent[:recentCap]
	}
	return recent
}

// SaveRecent persists the recent-query list.
func SaveRecent(path string, recent []string) error {
	raw, err := json.Marshal(recent)
	if err != nil {
		return err
	}
	return os.WriteFile(path, raw, 0o644)
}

// LoadList reads one persisted staged list.
func LoadList(path string) []PackageItem {
	var items []PackageItem
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil
	}
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil
	}
	return items
}

// SaveList persists one staged list.
func SaveList(path string, items []PackageItem) error {
	raw, err := json.Marshal(items)
	if err != nil {
		return err
	}
	return os.WriteFile(path, raw, 0o644)
}

// LoadReadSet reads the persisted set of read news identifiers.
func LoadReadSet(path string) map[string]struct{} {
	set := map[string]struct{}{}
	raw, err := os.ReadFile(path)
	if err != nil {
		return set
	}
	var ids []string
	if err := json.Unmarshal(raw, &ids); err != nil {
		return set
	}
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}

// SaveReadSet persists the read news identifiers as a sorted JSON array.
func SaveReadSet(path string, set map[string]struct{}) error {
	ids := make([]string, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	raw, err := json.Marshal(ids)
	if err != nil {
		return err
	}
	return os.WriteFile(path, raw, 0o644)
}
