package index

import (
	"encoding/json"
	"os"
)

// LoadFromDisk replaces the store contents with the persisted index. A
// missing or unparsable file leaves the store empty; the index is rebuilt
// from upstream in that case.
func (s *Store) LoadFromDisk(path string) bool {
	raw, err := os.ReadFile(path)
	if err != nil {
		return false
	}
	var idx Official
	if err := json.Unmarshal(raw, &idx); err != nil {
		return false
	}
	s.Replace(idx)
	return len(idx.Pkgs) > 0
}

// SaveToDisk persists the current index as a single JSON document.
func (s *Store) SaveToDisk(path string) error {
	raw, err := json.Marshal(s.Snapshot())
	if err != nil {
		return err
	}
	return os.WriteFile(path, raw, 0o644)
}
