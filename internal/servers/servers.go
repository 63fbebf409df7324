// ABOUTME: Descriptor resolution and file management for tool server definitions.
// ABOUTME: Validates requested names against a single configured root directory.

package servers

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Extension all tool server definitions carry. Names resolved without it
// have it appended.
const serverExt = ".py"

var (
	// ErrInvalidName means the requested name contains path traversal
	// segments or separators.
	ErrInvalidName = errors.New("invalid server name")

	// ErrNotFound means no server definition with the requested name
	// exists under the root.
	ErrNotFound = errors.New("server not found")
)

// Descriptor is a validated, filesystem-resolved reference to one tool
// server definition. It is constructed per request and discarded after.
type Descriptor struct {
	// Name is the file name within the root, e.g. "calculator.py".
	Name string

	// Path is the resolved absolute location of the definition.
	Path string
}

// Dir manages the set of tool server definitions beneath a single root
// directory.
type Dir struct {
	root      string
	manifests *manifestCache
}

// NewDir creates a Dir rooted at the given directory. The directory does
// not need to exist yet; Save creates it on first upload.
func NewDir(root string) *Dir {
	return &Dir{
		root:      root,
		manifests: newManifestCache(manifestCacheTTL, manifestCacheSize),
	}
}

// Root returns the configured root directory.
func (d *Dir) Root() string {
	return d.root
}

// validateName rejects names with traversal segments or separators and
// normalizes the extension. It never touches the filesystem.
func validateName(name string) (string, error) {
	if name == "" || strings.Contains(name, "..") ||
		strings.ContainsAny(name, `/\`) {
		return "", fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	if !strings.HasSuffix(name, serverExt) {
		name += serverExt
	}
	return name, nil
}

// Resolve validates name and resolves it to an existing definition file
// beneath the root. Traversal attempts yield ErrInvalidName; a missing
// file yields ErrNotFound.
func (d *Dir) Resolve(name string) (Descriptor, error) {
	normalized, err := validateName(name)
	if err != nil {
		return Descriptor{}, err
	}

	path := filepath.Join(d.root, normalized)
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return Descriptor{}, fmt.Errorf("%w: %q", ErrNotFound, normalized)
	}

	return Descriptor{Name: normalized, Path: path}, nil
}

// List enumerates the server definitions under the root, sorted by name.
// A missing root is an empty list, not an error.
func (d *Dir) List() ([]string, error) {
	entries, err := os.ReadDir(d.root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading servers directory: %w", err)
	}

	var names []string
	for _, e := range entries {
		if e.Type().IsRegular() && strings.HasSuffix(e.Name(), serverExt) {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

// Save stores an uploaded server definition under the root, creating the
// root if needed. The name undergoes the same validation as Resolve.
// Returns the number of bytes written.
func (d *Dir) Save(name string, r io.Reader) (int64, error) {
	normalized, err := validateName(filepath.Base(name))
	if err != nil {
		return 0, err
	}

	if err := os.MkdirAll(d.root, 0o755); err != nil {
		return 0, fmt.Errorf("creating servers directory: %w", err)
	}

	f, err := os.Create(filepath.Join(d.root, normalized))
	if err != nil {
		return 0, fmt.Errorf("creating server file: %w", err)
	}
	defer f.Close()

	n, err := io.Copy(f, r)
	if err != nil {
		return n, fmt.Errorf("writing server file: %w", err)
	}
	return n, nil
}

// Remove deletes a server definition and its manifest sidecar, if any.
func (d *Dir) Remove(name string) error {
	desc, err := d.Resolve(name)
	if err != nil {
		return err
	}

	if err := os.Remove(desc.Path); err != nil {
		return fmt.Errorf("removing server file: %w", err)
	}

	// Sidecar removal is best-effort; there may not be one.
	os.Remove(manifestPath(desc.Path))
	d.manifests.forget(desc.Name)

	return nil
}
