package dataset

import (
	"errors"
	"io/fs"
	"os"
	"sync"
	"time"
)

// fileKey identifies one state of the dataset file.
type fileKey struct {
	exists  bool
	size    int64
	modTime time.Time
}

func statKey(path string) (fileKey, error) {
	fi, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return fileKey{}, nil
	}
	if err != nil {
		return fileKey{}, err
	}
	return fileKey{exists: true, size: fi.Size(), modTime: fi.ModTime()}, nil
}

func (k fileKey) equal(o fileKey) bool {
	return k.exists == o.exists && k.size == o.size && k.modTime.Equal(o.modTime)
}

// Cache memoizes the Loader's snapshot. The cached snapshot is reused as
// long as the dataset file keeps the same existence, size and modification
// time; any change, or Invalidate, makes the next Get reload.
type Cache struct {
	mu        sync.Mutex
	loader    *Loader
	snap      *Snapshot
	key       fileKey
	observers []func(*Snapshot)
}

// NewCache returns an empty cache over l.
func NewCache(l *Loader) *Cache {
	return &Cache{loader: l}
}

// OnLoad registers fn to be called with every freshly built snapshot.
// Observers run synchronously, in registration order, before Get returns.
func (c *Cache) OnLoad(fn func(*Snapshot)) {
	c.mu.Lock()
	c.observers = append(c.observers, fn)
	c.mu.Unlock()
}

// Get returns the current snapshot, loading it if the file changed.
func (c *Cache) Get() (*Snapshot, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	key, err := statKey(c.loader.Path)
	if err != nil {
		return nil, err
	}
	if c.snap != nil && key.equal(c.key) {
		return c.snap, nil
	}
	return c.store(c.loader.Load())
}

// Regenerate replaces the dataset with synthetic data and caches the result.
func (c *Cache) Regenerate() (*Snapshot, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.store(c.loader.Regenerate())
}

// Invalidate drops the cached snapshot.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	c.snap = nil
	c.mu.Unlock()
}

// store caches snap under the file's post-load key. Must hold c.mu.
func (c *Cache) store(snap *Snapshot, err error) (*Snapshot, error) {
	if err != nil {
		return nil, err
	}
	key, err := statKey(c.loader.Path)
	if err != nil {
		return nil, err
	}
	c.snap, c.key = snap, key
	for _, fn := range c.observers {
		fn(snap)
	}
	return snap, nil
}
