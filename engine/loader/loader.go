package loader

import (
	"errors"
	"fmt"
	"io"
	"log"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/Carmen-Shannon/oxy-anim/engine/state_machine"
)

// ErrInvalidDefinition is wrapped by every error caused by the content of a definition.
var ErrInvalidDefinition = errors.New("invalid controller definition")

// ErrUnsupportedFormat is returned when no backend handles a file extension.
var ErrUnsupportedFormat = errors.New("unsupported definition format")

// LoaderBackendType identifies the definition format backend to use.
type LoaderBackendType int

const (
	// BackendTypeYAML selects the YAML definition backend.
	BackendTypeYAML LoaderBackendType = iota
)

// loader is the implementation of the Loader interface.
type loader struct {
	mu sync.RWMutex

	modelCache map[string]*state_machine.ControllerModel

	backend loaderBackend
}

// Loader defines the public-facing interface for loading and caching controller definitions.
// Cached models act as templates: every accessor hands out an independent clone so each
// controller owns its own copy of the parameter and state graph.
type Loader interface {
	// Load decodes a definition file and caches the result.
	// If the definition is already cached (by file path), the cached version is used.
	// The backend is selected based on the file extension (.yaml/.yml → YAML backend).
	//
	// Parameters:
	//   - path: the file path to the definition
	//
	// Returns:
	//   - *state_machine.ControllerModel: a resolved clone of the cached model
	//   - error: error if loading fails
	Load(path string) (*state_machine.ControllerModel, error)

	// Reload decodes a definition file ignoring the cache. The cache entry is replaced only
	// when loading succeeds, so a broken edit keeps the last good model.
	//
	// Parameters:
	//   - path: the file path to the definition
	//
	// Returns:
	//   - *state_machine.ControllerModel: a resolved clone of the new model
	//   - error: error if loading fails
	Reload(path string) (*state_machine.ControllerModel, error)

	// LoadReader decodes a definition from a reader stream and caches it by the given name.
	//
	// Parameters:
	//   - name: the cache key, also used as the controller name when the definition has none
	//   - r: the reader providing definition data
	//
	// Returns:
	//   - *state_machine.ControllerModel: a resolved clone of the cached model
	//   - error: error if loading fails
	LoadReader(name string, r io.Reader) (*state_machine.ControllerModel, error)

	// Get retrieves a clone of a cached model by key. Returns nil if not found.
	//
	// Parameters:
	//   - key: the cache key to look up
	//
	// Returns:
	//   - *state_machine.ControllerModel: the cloned model or nil
	Get(key string) *state_machine.ControllerModel

	// Keys returns the cache keys in sorted order.
	//
	// Returns:
	//   - []string: every cached key
	Keys() []string

	// Models returns clones of the full model cache.
	//
	// Returns:
	//   - map[string]*state_machine.ControllerModel: all cached models keyed by cache key
	Models() map[string]*state_machine.ControllerModel

	// Invalidate drops a cache entry so the next Load reads the file again.
	//
	// Parameters:
	//   - key: the cache key to drop
	Invalidate(key string)
}

var _ Loader = &loader{}

// NewLoader creates a new Loader instance with the specified backend type and options applied.
//
// Parameters:
//   - backendType: the type of loader backend to use (e.g., BackendTypeYAML)
//   - options: a variadic list of LoaderBuilderOption functions to configure the Loader
//
// Returns:
//   - Loader: a new instance of Loader configured with the provided backend and options
func NewLoader(backendType LoaderBackendType, options ...LoaderBuilderOption) Loader {
	l := &loader{
		mu:         sync.RWMutex{},
		modelCache: make(map[string]*state_machine.ControllerModel),
	}

	switch backendType {
	case BackendTypeYAML:
		l.backend = newYAMLLoaderBackend()
	}

	for _, option := range options {
		option(l)
	}
	return l
}

func (l *loader) Load(path string) (*state_machine.ControllerModel, error) {
	l.mu.RLock()
	if cached, ok := l.modelCache[path]; ok {
		l.mu.RUnlock()
		return cached.Clone(), nil
	}
	l.mu.RUnlock()

	return l.Reload(path)
}

func (l *loader) Reload(path string) (*state_machine.ControllerModel, error) {
	backend, err := l.resolveBackend(path)
	if err != nil {
		return nil, err
	}

	m, err := backend.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", path, err)
	}

	l.mu.Lock()
	l.modelCache[path] = m
	l.mu.Unlock()

	log.Printf("[Loader] loaded %q from %s (%d parameters, %d layers)", m.Name, path, len(m.Parameters), len(m.Layers))
	return m.Clone(), nil
}

func (l *loader) LoadReader(name string, r io.Reader) (*state_machine.ControllerModel, error) {
	l.mu.RLock()
	if cached, ok := l.modelCache[name]; ok {
		l.mu.RUnlock()
		return cached.Clone(), nil
	}
	l.mu.RUnlock()

	m, err := l.backend.LoadReader(r, name, "")
	if err != nil {
		return nil, fmt.Errorf("failed to load from reader %q: %w", name, err)
	}

	l.mu.Lock()
	l.modelCache[name] = m
	l.mu.Unlock()

	return m.Clone(), nil
}

func (l *loader) Get(key string) *state_machine.ControllerModel {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.modelCache[key].Clone()
}

func (l *loader) Keys() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()

	keys := make([]string, 0, len(l.modelCache))
	for k := range l.modelCache {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (l *loader) Models() map[string]*state_machine.ControllerModel {
	l.mu.RLock()
	defer l.mu.RUnlock()

	result := make(map[string]*state_machine.ControllerModel, len(l.modelCache))
	for k, v := range l.modelCache {
		result[k] = v.Clone()
	}
	return result
}

func (l *loader) Invalidate(key string) {
	l.mu.Lock()
	delete(l.modelCache, key)
	l.mu.Unlock()
}

// resolveBackend selects an appropriate loader backend based on the file extension.
// Currently only YAML is supported.
func (l *loader) resolveBackend(path string) (loaderBackend, error) {
	if l.backend == nil {
		return nil, fmt.Errorf("%w: no backend configured", ErrUnsupportedFormat)
	}
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".yaml", ".yml":
		return l.backend, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, ext)
	}
}

// IsDefinitionFile reports whether path has an extension a backend can load.
//
// Parameters:
//   - path: the file path to check
//
// Returns:
//   - bool: true for .yaml and .yml files
func IsDefinitionFile(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".yaml" || ext == ".yml"
}
