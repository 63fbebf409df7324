// ABOUTME: Optional TOML manifest sidecars describing tool server definitions.
// ABOUTME: A server file foo.py may carry metadata in foo.toml next to it.

package servers

import (
	"fmt"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
)

// Manifest holds optional human-facing metadata for one server
// definition, loaded from a TOML sidecar beside the file.
type Manifest struct {
	Title       string   `toml:"title"`
	Description string   `toml:"description"`
	Tags        []string `toml:"tags"`
}

// manifestPath maps a server definition path to its sidecar path.
func manifestPath(serverPath string) string {
	return strings.TrimSuffix(serverPath, serverExt) + ".toml"
}

// LoadManifest reads the manifest sidecar for the named server. A
// missing sidecar returns (nil, nil); a present but unparseable one is
// an error. Parsed manifests are cached against the sidecar mtime so
// repeated listings do not re-decode unchanged files.
func (d *Dir) LoadManifest(name string) (*Manifest, error) {
	desc, err := d.Resolve(name)
	if err != nil {
		return nil, err
	}

	sidecar := manifestPath(desc.Path)
	info, err := os.Stat(sidecar)
	if err != nil {
		if os.IsNotExist(err) {
			d.manifests.forget(desc.Name)
			return nil, nil
		}
		return nil, fmt.Errorf("reading manifest: %w", err)
	}

	if m, ok := d.manifests.get(desc.Name, info.ModTime()); ok {
		return m, nil
	}

	data, err := os.ReadFile(sidecar)
	if err != nil {
		return nil, fmt.Errorf("reading manifest: %w", err)
	}

	var m Manifest
	if _, err := toml.Decode(string(data), &m); err != nil {
		return nil, fmt.Errorf("parsing manifest for %s: %w", desc.Name, err)
	}

	d.manifests.put(desc.Name, info.ModTime(), &m)
	return &m, nil
}
