// Package instance loads the driver's capability tables and builds a
// backend instance configured for surface presentation.
package instance

import (
	"sort"

	"github.com/cockroachdb/errors"

	"github.com/vkwizard/vkwizard/gpu"
)

// Library is a snapshot of what the loaded driver supports at the instance
// level. The tables are read once in Open.
type Library struct {
	backend    gpu.Library
	extensions map[string]struct{}
	layers     map[string]struct{}
	closed     bool
}

func Open(backend gpu.Library) (*Library, error) {
	extensions, err := backend.InstanceExtensions()
	if err != nil {
		return nil, errors.Wrap(err, "enumerate instance extensions")
	}
	layers, err := backend.InstanceLayers()
	if err != nil {
		return nil, errors.Wrap(err, "enumerate instance layers")
	}
	return &Library{
		backend:    backend,
		extensions: toSet(extensions),
		layers:     toSet(layers),
	}, nil
}

func toSet(names []string) map[string]struct{} {
	set := make(map[string]struct{}, len(names))
	for _, name := range names {
		set[name] = struct{}{}
	}
	return set
}

func sortedKeys(set map[string]struct{}) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (l *Library) Backend() gpu.Library { return l.backend }

func (l *Library) Extensions() []string { return sortedKeys(l.extensions) }

func (l *Library) Layers() []string { return sortedKeys(l.layers) }

func (l *Library) HasExtension(name string) bool {
	_, ok := l.extensions[name]
	return ok
}

func (l *Library) HasLayer(name string) bool {
	_, ok := l.layers[name]
	return ok
}

// MissingExtensions returns the entries of required the driver lacks, in
// the order given.
func (l *Library) MissingExtensions(required []string) []string {
	var missing []string
	for _, name := range required {
		if !l.HasExtension(name) {
			missing = append(missing, name)
		}
	}
	return missing
}

func (l *Library) MissingLayers(required []string) []string {
	var missing []string
	for _, name := range required {
		if !l.HasLayer(name) {
			missing = append(missing, name)
		}
	}
	return missing
}

// Close releases the driver. It must be the last release of a bootstrap.
func (l *Library) Close() {
	if l.closed {
		return
	}
	l.closed = true
	l.backend.Close()
}
