// Package assets keeps the current mesh for each file path.
package assets

import (
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/Faultbox/meshlib/internal/logger"
	"github.com/Faultbox/meshlib/pkg/mesh"
)

// LoadFunc loads the mesh at path.
type LoadFunc func(path string) (*mesh.Mesh, error)

// Manager hands out loaded meshes by path. A mesh is replaced as a whole,
// never modified, so callers may keep using one they already hold.
type Manager struct {
	load  LoadFunc
	cache *Cache
}

// NewManager creates a new mesh manager.
func NewManager(load LoadFunc) *Manager {
	return &Manager{
		load:  load,
		cache: NewCache(),
	}
}

// Load returns the mesh for path, loading it on first use.
func (m *Manager) Load(path string) (*mesh.Mesh, error) {
	// Check cache first
	if msh, ok := m.cache.Get(path); ok {
		return msh, nil
	}

	msh, err := m.load(path)
	if err != nil {
		return nil, fmt.Errorf("loading mesh %s: %w", path, err)
	}
	m.cache.Set(path, msh)
	return msh, nil
}

// Reload reads path again and makes the result the current mesh. On error
// the previous mesh stays current.
func (m *Manager) Reload(path string) (*mesh.Mesh, error) {
	msh, err := m.load(path)
	if err != nil {
		return nil, fmt.Errorf("reloading mesh %s: %w", path, err)
	}
	if prev := m.cache.Set(path, msh); prev != nil {
		logger.Debug("mesh replaced", zap.String("path", path),
			zap.Stringer("old", prev.ID), zap.Stringer("new", msh.ID))
	}
	return msh, nil
}

// Close drops all meshes.
func (m *Manager) Close() {
	m.cache.Clear()
}

// Cache is an in-memory map from path to mesh.
type Cache struct {
	data map[string]*mesh.Mesh
	mu   sync.RWMutex
}

// NewCache creates a new cache.
func NewCache() *Cache {
	return &Cache{
		data: make(map[string]*mesh.Mesh),
	}
}

// Get retrieves an item from cache.
func (c *Cache) Get(key string) (*mesh.Mesh, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	msh, ok := c.data[key]
	return msh, ok
}

// Set stores an item in cache and returns the previous one.
func (c *Cache) Set(key string, msh *mesh.Mesh) *mesh.Mesh {
	c.mu.Lock()
	defer c.mu.Unlock()
	prev := c.data[key]
	c.data[key] = msh
	return prev
}

// Clear clears the cache.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data = make(map[string]*mesh.Mesh)
}
