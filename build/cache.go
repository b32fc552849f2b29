package build

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/zigbind/zigbind/scanner"
)

// cacheFile is the per-output-directory cache store. The format is owned by
// this package; nothing else reads it.
const cacheFile = "zigbind-cache.json"

type cacheEntry struct {
	Artifact string    `json:"artifact"`
	BuiltAt  time.Time `json:"built_at"`
}

type cache struct {
	path    string
	Entries map[string]cacheEntry `json:"entries"`
}

func loadCache(outDir string) *cache {
	c := &cache{
		path:    filepath.Join(outDir, cacheFile),
		Entries: map[string]cacheEntry{},
	}
	data, err := os.ReadFile(c.path)
	if err != nil {
		return c
	}
	// A corrupt cache is treated as empty; the next build repopulates it.
	_ = json.Unmarshal(data, c)
	if c.Entries == nil {
		c.Entries = map[string]cacheEntry{}
	}
	return c
}

// lookup returns the cached artifact for hash if it still exists on disk.
func (c *cache) lookup(hash string) (string, bool) {
	e, ok := c.Entries[hash]
	if !ok {
		return "", false
	}
	if _, err := os.Stat(e.Artifact); err != nil {
		return "", false
	}
	return e.Artifact, true
}

func (c *cache) store(hash, artifact string) error {
	c.Entries[hash] = cacheEntry{Artifact: artifact, BuiltAt: time.Now().UTC()}
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(c.path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(c.path, data, 0o644)
}

// hashUnit computes the content hash of one assembled unit under the build
// settings that shape its object code. Tool path, target, and profile are
// part of the input: changing any of them must force a rebuild even when the
// Zig text is unchanged.
func hashUnit(unit *scanner.Unit, zig, target, profile string) string {
	h := sha256.New()

	names := make([]string, 0, len(unit.Files))
	for name := range unit.Files {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		h.Write([]byte(name))
		h.Write([]byte{0})
		h.Write([]byte(unit.Files[name]))
		h.Write([]byte{0})
	}
	for _, c := range unit.CSources {
		h.Write([]byte(c))
		h.Write([]byte{0})
	}
	h.Write([]byte(zig))
	h.Write([]byte{0})
	h.Write([]byte(target))
	h.Write([]byte{0})
	h.Write([]byte(profile))

	return hex.EncodeToString(h.Sum(nil))
}
