package preflight

import (
	"encoding/json"
	"os"
)

// cacheFile is the persisted shape shared by the resolver caches.
type cacheFile[T any] struct {
	InstallListSignature []string `json:"install_list_signature"`
	Payload              T        `json:"payload"`
}

// LoadCache reads a resolver cache and returns its payload when the stored
// signature matches sig. Any read or parse failure is treated as a miss.
func LoadCache[T any](path string, sig []string) (T, bool) {
	var zero T
	raw, err := os.ReadFile(path)
	if err != nil {
		return zero, false
	}
	var file cacheFile[T]
	if err := json.Unmarshal(raw, &file); err != nil {
		return zero, false
	}
	if !SignatureMatches(file.InstallListSignature, sig) {
		return zero, false
	}
	return file.Payload, true
}

// SaveCache persists a resolver payload under the given signature.
func SaveCache[T any](path string, sig []string, payload T) error {
	raw, err := json.Marshal(cacheFile[T]{InstallListSignature: sig, Payload: payload})
	if err != nil {
		return err
	}
	return os.WriteFile(path, raw, 0o644)
}
