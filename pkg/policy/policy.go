// Package policy manages the allow list of directories that may provide
// rule-set files. Directories are allowed either permanently (persisted to
// the permissions file) or for the current invocation only.
package policy

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/adrg/xdg"

	"github.com/jamescherti/pathaction/pkg/yaml"
)

// DefaultPath returns the location of the permissions file, under the user's
// XDG config directory.
func DefaultPath() string {
	return filepath.Join(xdg.ConfigHome, "pathaction", "permissions.yaml")
}

// Policy is the set of allowed directories. A path is allowed when it is
// equal to, or contained in, any allowed directory.
type Policy struct {
	temporary map[string]struct{}

	// Allowed contains the permanently allowed directories, as stored in the
	// permissions file.
	Allowed []string `yaml:"permanently_allowed"`
}

// New creates an empty [Policy].
func New() *Policy {
	return &Policy{
		temporary: map[string]struct{}{},
	}
}

// Load reads the permissions file at path. A missing file yields an empty
// policy, not an error.
func Load(path string) (*Policy, error) {
	data, err := os.ReadFile(path) //nolint:gosec // G304: Path comes from the user's config dir.
	if errors.Is(err, fs.ErrNotExist) {
		return New(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read permissions file: %w", err)
	}

	p := New()

	dec := yaml.NewDecoder(bytes.NewReader(data))

	err = dec.Decode(p)
	if err != nil {
		return nil, fmt.Errorf("parse permissions file %q: %w", path, err)
	}

	return p, nil
}

// Save writes the permanently allowed directories to the permissions file.
func (p *Policy) Save(path string) error {
	err := os.MkdirAll(filepath.Dir(path), 0o700)
	if err != nil {
		return fmt.Errorf("create directories: %w", err)
	}

	b := &bytes.Buffer{}

	enc := yaml.NewEncoder(b)

	err = enc.Encode(p)
	if err != nil {
		return fmt.Errorf("marshal permissions: %w", err)
	}

	err = os.WriteFile(path, b.Bytes(), 0o600)
	if err != nil {
		return fmt.Errorf("write permissions file: %w", err)
	}

	return nil
}

// Allow adds a directory to the allow list. Permanent entries survive in the
// permissions file once saved; temporary entries last for this process only.
func (p *Policy) Allow(dir string, permanent bool) error {
	resolved, err := resolve(dir)
	if err != nil {
		return err
	}

	if p.temporary == nil {
		p.temporary = map[string]struct{}{}
	}

	if permanent {
		if !slices.Contains(p.Allowed, resolved) {
			p.Allowed = append(p.Allowed, resolved)
		}

		delete(p.temporary, resolved)

		return nil
	}

	p.temporary[resolved] = struct{}{}

	return nil
}

// IsAllowed reports whether path is equal to or contained in any allowed
// directory, permanent or temporary.
func (p *Policy) IsAllowed(path string) bool {
	resolved, err := resolve(path)
	if err != nil {
		return false
	}

	for _, dir := range p.Allowed {
		if within(resolved, dir) {
			return true
		}
	}

	for dir := range p.temporary {
		if within(resolved, dir) {
			return true
		}
	}

	return false
}

func resolve(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("resolve %q: %w", path, err)
	}

	// Symlink resolution is best-effort: the path may not exist yet.
	resolved, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return abs, nil
	}

	return resolved, nil
}

func within(path, dir string) bool {
	rel, err := filepath.Rel(dir, path)
	if err != nil {
		return false
	}

	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}
