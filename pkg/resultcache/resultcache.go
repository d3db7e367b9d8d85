// Package resultcache stores successful analyzer outcomes on disk, keyed by
// repository revision, analyzer and a fingerprint of the analysis settings.
package resultcache

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"github.com/Sumatoshi-tech/repometrics/pkg/model"
	"github.com/Sumatoshi-tech/repometrics/pkg/persist"
)

// Key identifies one cached outcome.
type Key struct {
	Repository  string           `json:"repository"`
	Revision    string           `json:"revision"`
	Analyzer    model.AnalyzerID `json:"analyzer"`
	Fingerprint string           `json:"fingerprint"`
}

func (k Key) name() string {
	sum := sha256.Sum256([]byte(strings.Join(
		[]string{strings.ToLower(k.Repository), k.Revision, string(k.Analyzer), k.Fingerprint}, "\x00")))

	return string(k.Analyzer) + "-" + hex.EncodeToString(sum[:16])
}

type entry struct {
	Key     Key                   `json:"key"`
	Outcome model.AnalyzerOutcome `json:"outcome"`
}

// Cache is a directory of compressed outcome files. A nil *Cache is a
// cache that never hits and ignores writes.
type Cache struct {
	store *persist.Persister[entry]
}

// New returns a cache rooted at dir.
func New(dir string) *Cache {
	return &Cache{store: persist.NewPersister[entry](dir, persist.NewLZ4Codec(&persist.JSONCodec{}))}
}

// Dir returns the cache directory.
func (c *Cache) Dir() string {
	if c == nil {
		return ""
	}

	return c.store.Dir()
}

// Get returns the outcome cached under key. Unreadable entries are misses.
func (c *Cache) Get(key Key) (model.AnalyzerOutcome, bool) {
	if c == nil || key.Revision == "" {
		return model.AnalyzerOutcome{}, false
	}

	e, err := c.store.Load(key.name())
	if err != nil || e.Key != key || !e.Outcome.Succeeded() || e.Outcome.Payload() == nil {
		return model.AnalyzerOutcome{}, false
	}

	return e.Outcome, true
}

// Put stores a successful outcome. Failures and keys without a revision
// are not cached.
func (c *Cache) Put(key Key, out model.AnalyzerOutcome) error {
	if c == nil || key.Revision == "" || !out.Succeeded() {
		return nil
	}

	return c.store.Save(key.name(), &entry{Key: key, Outcome: out})
}

// Fingerprint digests the analysis settings that influence outcomes, such
// as exclusion patterns and the file size limit.
func Fingerprint(parts ...string) string {
	sum := sha256.Sum256([]byte(strings.Join(parts, "\x00")))

	return hex.EncodeToString(sum[:8])
}
