// Package assets looks up model and texture files inside GRF archives and
// caches what it has read.
package assets

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/multierr"

	"github.com/Faultbox/sceneflat/pkg/grf"
)

// ErrNotFound is returned when no archive holds the requested file.
var ErrNotFound = errors.New("file not found in archives")

// Manager handles file loading from GRF archives.
// Archives are searched in the order they were added.
type Manager struct {
	archives []*grf.Archive
	names    []string
	cache    *Cache
	mu       sync.RWMutex
}

// NewManager creates an empty manager.
func NewManager() *Manager {
	return &Manager{
		cache: NewCache(),
	}
}

// Open creates a manager with every archive in paths added. On failure
// the archives opened so far are closed.
func Open(paths []string) (*Manager, error) {
	m := NewManager()
	for _, p := range paths {
		if err := m.AddArchive(p); err != nil {
			return nil, multierr.Append(err, m.Close())
		}
	}
	return m, nil
}

// AddArchive opens a GRF archive and appends it to the search list.
func (m *Manager) AddArchive(path string) error {
	archive, err := grf.Open(path)
	if err != nil {
		return fmt.Errorf("opening archive %s: %w", path, err)
	}

	m.mu.Lock()
	m.archives = append(m.archives, archive)
	m.names = append(m.names, path)
	m.mu.Unlock()

	return nil
}

// Archives returns the paths of the added archives in search order.
func (m *Manager) Archives() []string {
	if m == nil {
		return nil
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]string(nil), m.names...)
}

// Locate returns the path of the first archive holding name.
func (m *Manager) Locate(name string) (string, bool) {
	if m == nil {
		return "", false
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	for i, a := range m.archives {
		if a.Contains(name) {
			return m.names[i], true
		}
	}
	return "", false
}

// Load reads name from the first archive that holds it. A nil manager
// holds nothing.
func (m *Manager) Load(name string) ([]byte, error) {
	if m == nil {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}

	key := cacheKey(name)
	if data, ok := m.cache.Get(key); ok {
		return data, nil
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, a := range m.archives {
		if !a.Contains(name) {
			continue
		}
		data, err := a.Read(name)
		if err != nil {
			return nil, err
		}
		m.cache.Set(key, data)
		return data, nil
	}

	return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
}

// Close closes all archives and drops the cache.
func (m *Manager) Close() error {
	if m == nil {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	var err error
	for _, archive := range m.archives {
		err = multierr.Append(err, archive.Close())
	}
	m.archives = nil
	m.names = nil
	m.cache.Clear()
	return err
}

// CacheStats returns the cache hit and miss counts.
func (m *Manager) CacheStats() (hits, misses int) {
	if m == nil {
		return 0, 0
	}
	return m.cache.Stats()
}

func cacheKey(name string) string {
	return strings.ToLower(strings.ReplaceAll(name, "\\", "/"))
}

// Cache is a simple in-memory cache for loaded files.
type Cache struct {
	data map[string][]byte
	mu   sync.Mutex

	hits   int
	misses int
}

// NewCache creates a new cache.
func NewCache() *Cache {
	return &Cache{
		data: make(map[string][]byte),
	}
}

// Get retrieves an item from cache.
func (c *Cache) Get(key string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	data, ok := c.data[key]
	if ok {
		c.hits++
	} else {
		c.misses++
	}
	return data, ok
}

// Set stores an item in cache.
func (c *Cache) Set(key string, data []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = data
}

// Clear empties the cache and resets its counters.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data = make(map[string][]byte)
	c.hits = 0
	c.misses = 0
}

// Stats returns cache statistics.
func (c *Cache) Stats() (hits, misses int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hits, c.misses
}
