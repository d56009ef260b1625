// Package freshness tracks which files were already compressed during
// this process's lifetime, so repeated pipeline runs skip unchanged
// files. The cache is explicit state owned by the caller: construct it
// once, pass it to every run that should share skip decisions, discard
// it to force full reprocessing. Nothing is persisted to disk.
package freshness

import (
	"sync"
	"time"
)

// Cache maps file paths to the modification time observed when the
// file was last successfully compressed. Recording the file's own
// mtime, rather than the process clock, keeps the comparison within a
// single clock domain: a file whose mtime strictly increases between
// runs is never skipped, regardless of skew between the filesystem
// and the process.
type Cache struct {
	mu   sync.RWMutex
	seen map[string]time.Time
}

// NewCache returns an empty cache.
func NewCache() *Cache {
	return &Cache{seen: make(map[string]time.Time)}
}

// ShouldSkip reports whether the file at path needs no work in this
// run: either its current mtime is not newer than the recorded one,
// or its size is strictly below the threshold.
func (c *Cache) ShouldSkip(path string, mtime time.Time, size, threshold int64) bool {
	if size < threshold {
		return true
	}

	c.mu.RLock()
	recorded, ok := c.seen[path]
	c.mu.RUnlock()

	return ok && !mtime.After(recorded)
}

// Record stores the observed mtime for a successfully compressed file.
// Call it only after the compressed sibling has been written; failed
// files must stay unrecorded so the next run retries them.
func (c *Cache) Record(path string, mtime time.Time) {
	c.mu.Lock()
	c.seen[path] = mtime
	c.mu.Unlock()
}

// Clear discards every record, forcing the next run to reprocess all
// files.
func (c *Cache) Clear() {
	c.mu.Lock()
	c.seen = make(map[string]time.Time)
	c.mu.Unlock()
}

// Len returns the number of recorded files.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.seen)
}
