// ABOUTME: TOML manifest for operator-supplied tool metadata overrides.
// ABOUTME: Lets a deployment rename descriptions and annotations without rebuilding.

package tools

import (
	"fmt"

	"github.com/BurntSushi/toml"
)

// Manifest is an operator-editable description of the exposed tool set.
// Entries override the compiled-in descriptor of a registered tool; a
// manifest entry for an unregistered tool is a configuration error.
type Manifest struct {
	Pack  PackInfo        `toml:"pack"`
	Tools []ManifestEntry `toml:"tool"`
}

// PackInfo names the manifest for logging.
type PackInfo struct {
	Name string `toml:"name"`
}

// ManifestEntry overrides the advertised metadata of one tool.
type ManifestEntry struct {
	Name        string         `toml:"name"`
	Description string         `toml:"description"`
	Annotations map[string]any `toml:"annotations"`
}

// LoadManifest parses a TOML tool manifest from disk.
func LoadManifest(path string) (*Manifest, error) {
	var m Manifest
	if _, err := toml.DecodeFile(path, &m); err != nil {
		return nil, fmt.Errorf("parsing tool manifest %s: %w", path, err)
	}
	for _, entry := range m.Tools {
		if entry.Name == "" {
			return nil, fmt.Errorf("tool manifest %s: entry missing name", path)
		}
	}
	return &m, nil
}

// ApplyManifest overlays manifest metadata onto registered tools. Every
// entry must match a registered tool.
func (r *Registry) ApplyManifest(m *Manifest) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, entry := range m.Tools {
		tool, ok := r.tools[entry.Name]
		if !ok {
			return fmt.Errorf("%w: manifest entry %s", ErrToolNotFound, entry.Name)
		}
		if entry.Description != "" {
			tool.Descriptor.Description = entry.Description
		}
		if len(entry.Annotations) > 0 {
			if tool.Descriptor.Annotations == nil {
				tool.Descriptor.Annotations = make(map[string]any, len(entry.Annotations))
			}
			for k, v := range entry.Annotations {
				tool.Descriptor.Annotations[k] = v
			}
		}
	}

	if m.Pack.Name != "" {
		r.logger.Info("applied tool manifest", "pack", m.Pack.Name, "overrides", len(m.Tools))
	}
	return nil
}
